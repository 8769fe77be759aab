// Package main is the entry point for the UsageDeck dashboard TUI. It loads
// configuration, wires the store and auth clients, and runs the Bubble Tea
// program.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/usagedeck/usage-dashboard-tui/internal/app"
	"github.com/usagedeck/usage-dashboard-tui/internal/auth"
	"github.com/usagedeck/usage-dashboard-tui/internal/config"
	"github.com/usagedeck/usage-dashboard-tui/internal/logger"
	"github.com/usagedeck/usage-dashboard-tui/internal/services"
	"github.com/usagedeck/usage-dashboard-tui/internal/store/firestore"
	"github.com/usagedeck/usage-dashboard-tui/internal/store/sqlitestore"
	"github.com/usagedeck/usage-dashboard-tui/internal/ui/tabs/info"
	"github.com/usagedeck/usage-dashboard-tui/internal/ui/tabs/overview"
	"github.com/usagedeck/usage-dashboard-tui/internal/ui/tabs/users"
	"github.com/usagedeck/usage-dashboard-tui/internal/version"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// The TUI owns stdout, so logs go to a file.
	logFile, err := logger.OpenLogFile(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	authn := auth.NewClient(cfg.FirebaseAPIKey)

	// The firestore client authenticates with tokens from the manager, and
	// the manager reads through the store, so the token source closes over
	// the manager variable assigned right after.
	var mgr *services.Manager
	var sqliteStore *sqlitestore.Store

	switch cfg.StoreBackend {
	case config.BackendFirestore:
		fsClient := firestore.New(cfg.FirebaseProjectID, func(ctx context.Context) (string, error) {
			return mgr.Token(ctx)
		})
		mgr = services.NewManager(fsClient, authn)

	case config.BackendSQLite:
		sqliteStore, err = sqlitestore.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() { _ = sqliteStore.Close() }()
		mgr = services.NewManager(sqliteStore, authn)

	default:
		return fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	model := app.NewModel(mgr, cfg.RefreshInterval)

	state := model.GetState()
	tabs := []app.Tab{
		overview.New(state),       // Tab 0: aggregate usage overview
		users.New(state),          // Tab 1: per-user usage and approvals
		info.New(state, mgr, cfg), // Tab 2: configuration and app info
	}
	model.SetTabs(tabs)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// External writes to the local database trigger a refresh.
	if sqliteStore != nil {
		if err := sqliteStore.Watch(func() {
			p.Send(app.ExternalChangeMsg{})
		}); err != nil {
			logger.Warn("failed to watch database file", "error", err)
		}
	}

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	logger.Info("starting", "version", version.GetVersion(), "backend", cfg.StoreBackend)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`UsageDeck - Admin dashboard for per-user API usage

Usage:
  udt [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-3             Switch between tabs (Overview, Users, Info)
  Tab/Shift+Tab   Navigate between tabs
  j/k, Up/Down    Navigate lists
  a               Approve the selected pending user
  r               Refresh data
  Ctrl+L          Sign out
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  STORE_BACKEND       "firestore" (default) or "sqlite"
  FIREBASE_API_KEY    Firebase web API key (required)
  FIREBASE_PROJECT_ID Firestore project (firestore backend)
  DATABASE_PATH       SQLite database path (sqlite backend)
  LOG_PATH            Log file location
  REFRESH_INTERVAL    Dashboard refresh interval (default: 60s)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/usagedeck/.env
  - ~/.usagedeck/.env`)
}
