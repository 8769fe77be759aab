// Package sqlitestore implements store.Store over a local SQLite database.
// It exists for development and for offline inspection of exported usage
// data: another process (an exporter, a sync job) writes the file and the
// dashboard reads it through the same interface it uses for the hosted
// store. A file watcher reports external writes so the UI can refresh.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Register the cgo-free sqlite driver.
	_ "modernc.org/sqlite"

	"github.com/usagedeck/usage-dashboard-tui/internal/models"
	"github.com/usagedeck/usage-dashboard-tui/internal/store"
)

// recentEntryLimit caps how many recent-activity entries a fetched record
// carries. This is the store-side window contract; the engine's rollups see
// only these entries.
const recentEntryLimit = 50

// Store is a SQLite-backed document store.
type Store struct {
	db      *sql.DB
	path    string
	watcher *watcher
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and initializes the
// schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db, path: path}

	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}
	if err := s.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// Close stops the watcher (if any) and closes the database.
func (s *Store) Close() error {
	if s.watcher != nil {
		s.watcher.stop()
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Watch starts watching the database file for external writes. onChange is
// invoked (debounced) after another process modifies the file.
func (s *Store) Watch(onChange func()) error {
	w, err := newWatcher(s.path, onChange)
	if err != nil {
		return err
	}
	s.watcher = w
	return nil
}

func (s *Store) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}
	return nil
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS usage_records (
			user_id TEXT PRIMARY KEY,
			total_calls INTEGER NOT NULL DEFAULT 0,
			total_input_tokens INTEGER NOT NULL DEFAULT 0,
			total_output_tokens INTEGER NOT NULL DEFAULT 0,
			total_tokens INTEGER NOT NULL DEFAULT 0,
			total_cost_usd REAL NOT NULL DEFAULT 0,
			last_updated DATETIME,
			created_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS usage_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL REFERENCES usage_records(user_id) ON DELETE CASCADE,
			timestamp DATETIME,
			model TEXT NOT NULL,
			input_tokens INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			total_tokens INTEGER NOT NULL DEFAULT 0,
			cost_usd REAL NOT NULL DEFAULT 0,
			calls INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_entries_user_time
			ON usage_entries(user_id, timestamp DESC)`,
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			email TEXT NOT NULL DEFAULT '',
			username TEXT NOT NULL DEFAULT '',
			is_approved INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(context.Background(), stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// FetchUsage returns every usage record ordered by last-updated descending,
// each carrying its most recent entries (newest first).
func (s *Store) FetchUsage(ctx context.Context) ([]models.UserUsageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, total_calls, total_input_tokens, total_output_tokens,
		       total_tokens, total_cost_usd, last_updated, created_at
		FROM usage_records
		ORDER BY last_updated DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch usage records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.UserUsageRecord
	for rows.Next() {
		var r models.UserUsageRecord
		var lastUpdated, createdAt sql.NullTime
		if err := rows.Scan(&r.UserID, &r.TotalCalls, &r.TotalInputTokens,
			&r.TotalOutputTokens, &r.TotalTokens, &r.TotalCostUSD,
			&lastUpdated, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		r.LastUpdated = timeOrNow(lastUpdated)
		r.CreatedAt = timeOrNow(createdAt)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage records: %w", err)
	}

	for i := range records {
		entries, err := s.fetchRecentEntries(ctx, records[i].UserID)
		if err != nil {
			return nil, err
		}
		records[i].RecentUsage = entries
	}

	return records, nil
}

func (s *Store) fetchRecentEntries(ctx context.Context, userID string) ([]models.UsageEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, model, input_tokens, output_tokens, total_tokens, cost_usd, calls
		FROM usage_entries
		WHERE user_id = ?
		ORDER BY timestamp DESC
		LIMIT ?`, userID, recentEntryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entries for %s: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []models.UsageEntry
	for rows.Next() {
		var e models.UsageEntry
		var ts sql.NullTime
		if err := rows.Scan(&ts, &e.Model, &e.InputTokens, &e.OutputTokens,
			&e.TotalTokens, &e.CostUSD, &e.Calls); err != nil {
			return nil, fmt.Errorf("failed to scan usage entry: %w", err)
		}
		e.Timestamp = timeOrNow(ts)
		if e.Calls == 0 {
			e.Calls = 1
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// FetchUsers returns every user profile ordered by creation time descending.
func (s *Store) FetchUsers(ctx context.Context) ([]models.AppUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, email, username, is_approved, created_at
		FROM users
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []models.AppUser
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// FetchUser returns a single user profile by identifier.
func (s *Store) FetchUser(ctx context.Context, userID string) (*models.AppUser, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, email, username, is_approved, created_at
		FROM users
		WHERE user_id = ?`, userID)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ApproveUser flips the user's approval flag to true.
func (s *Store) ApproveUser(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_approved = 1 WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to approve user %s: %w", userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to approve user %s: %w", userID, err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.AppUser, error) {
	var u models.AppUser
	var createdAt sql.NullTime
	if err := row.Scan(&u.UserID, &u.Email, &u.Username, &u.IsApproved, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return u, err
		}
		return u, fmt.Errorf("failed to scan user: %w", err)
	}
	u.CreatedAt = timeOrNow(createdAt)
	return u, nil
}

func timeOrNow(t sql.NullTime) time.Time {
	if t.Valid {
		return t.Time
	}
	return time.Now()
}
