package sqlitestore

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/usagedeck/usage-dashboard-tui/internal/logger"
)

// debounceDelay coalesces the burst of write events SQLite produces per
// transaction (main file plus -wal) into a single change callback.
const debounceDelay = 500 * time.Millisecond

// watcher reports external writes to the database file.
type watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	onChange  func()

	mu            sync.Mutex
	debounceTimer *time.Timer
	stopChan      chan struct{}
}

// newWatcher watches the directory containing the database file. Watching
// the directory instead of the file survives atomic replace-by-rename.
func newWatcher(path string, onChange func()) (*watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &watcher{
		fsWatcher: fsWatcher,
		path:      path,
		onChange:  onChange,
		stopChan:  make(chan struct{}),
	}

	go w.run()

	return w, nil
}

func (w *watcher) run() {
	base := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			// The -wal and -shm companions change on every write too.
			name := filepath.Base(event.Name)
			if name != base && !strings.HasPrefix(name, base+"-") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleChange()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logger.Error("database watcher error", "error", err)

		case <-w.stopChan:
			return
		}
	}
}

func (w *watcher) scheduleChange() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(debounceDelay, w.onChange)
}

func (w *watcher) stop() {
	close(w.stopChan)
	_ = w.fsWatcher.Close()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
}
