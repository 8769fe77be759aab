// Package services orchestrates the store and auth clients for the TUI.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"golang.org/x/sync/errgroup"

	"github.com/usagedeck/usage-dashboard-tui/internal/auth"
	"github.com/usagedeck/usage-dashboard-tui/internal/logger"
	"github.com/usagedeck/usage-dashboard-tui/internal/models"
	"github.com/usagedeck/usage-dashboard-tui/internal/store"
)

// Snapshot is the in-memory result of one successful refresh. Once
// published it is immutable; derived views are recomputed from it on every
// render, never cached.
type Snapshot struct {
	Records   []models.UserUsageRecord
	Users     []models.AppUser
	FetchedAt time.Time
}

// Manager owns the injected store and auth clients, the admin session, and
// the last successful snapshot. All methods are safe for concurrent use;
// overlapping refreshes are allowed and the later one to settle wins.
type Manager struct {
	mu       sync.RWMutex
	store    store.Store
	authn    auth.Authenticator
	session  *auth.Session
	snapshot *Snapshot

	// pendingSeen is the pending-approval count at the previous refresh;
	// -1 until the first refresh so startup never notifies.
	pendingSeen int

	// notify is beeep.Notify, injectable for tests.
	notify func(title, body string) error
}

// NewManager creates a manager around the injected collaborators.
func NewManager(st store.Store, authn auth.Authenticator) *Manager {
	return &Manager{
		store:       st,
		authn:       authn,
		pendingSeen: -1,
		notify: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}
}

// SignIn authenticates the admin and retains the session.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	session, err := m.authn.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.session = session
	m.mu.Unlock()

	logger.Info("admin signed in", "email", session.Email)
	return nil
}

// SignOut discards the session and the fetched data, returning the
// dashboard to its gated state.
func (m *Manager) SignOut() {
	m.mu.Lock()
	email := ""
	if m.session != nil {
		email = m.session.Email
	}
	m.session = nil
	m.snapshot = nil
	m.pendingSeen = -1
	m.mu.Unlock()

	logger.Info("admin signed out", "email", email)
}

// SignedIn reports whether an admin session is present.
func (m *Manager) SignedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session != nil
}

// AdminEmail returns the signed-in admin's email, or "".
func (m *Manager) AdminEmail() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.Email
}

// Token returns a valid ID token for store requests, refreshing the
// session first when it is stale. Satisfies firestore.TokenSource.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	session := m.session
	m.mu.RUnlock()

	if session == nil {
		return "", fmt.Errorf("not signed in")
	}
	if session.Valid() {
		return session.IDToken, nil
	}

	refreshed, err := m.authn.Refresh(ctx, session)
	if err != nil {
		return "", fmt.Errorf("failed to refresh session: %w", err)
	}

	m.mu.Lock()
	// Keep the newer session if a concurrent refresh won the race.
	if m.session == nil {
		m.mu.Unlock()
		return "", fmt.Errorf("not signed in")
	}
	if refreshed.ExpiresAt.After(m.session.ExpiresAt) {
		m.session = refreshed
	}
	token := m.session.IDToken
	m.mu.Unlock()

	return token, nil
}

// FetchDashboard fetches usage records and user profiles concurrently. The
// two reads are independent; if either fails the whole refresh fails and
// the previous snapshot stays in place. On success the snapshot is replaced
// (last write wins) and a desktop notification fires if the pending
// approval queue grew.
func (m *Manager) FetchDashboard(ctx context.Context) (*Snapshot, error) {
	var (
		records []models.UserUsageRecord
		users   []models.AppUser
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = m.store.FetchUsage(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = m.store.FetchUsers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch dashboard data: %w", err)
	}

	snapshot := &Snapshot{
		Records:   records,
		Users:     users,
		FetchedAt: time.Now(),
	}

	pending := len(models.PendingUsers(users))

	m.mu.Lock()
	m.snapshot = snapshot
	grew := m.pendingSeen >= 0 && pending > m.pendingSeen
	m.pendingSeen = pending
	m.mu.Unlock()

	if grew {
		title := "Pending user approvals"
		body := fmt.Sprintf("%d user(s) awaiting approval", pending)
		if err := m.notify(title, body); err != nil {
			logger.Warn("failed to send desktop notification", "error", err)
		}
	}

	return snapshot, nil
}

// Snapshot returns the last successful refresh result, or nil before the
// first one.
func (m *Manager) Snapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// ApproveUser flips the user's approval flag in the store. The display-side
// patch is the caller's job; a published snapshot is never written to again,
// so readers holding it need no coordination with this method.
func (m *Manager) ApproveUser(ctx context.Context, userID string) error {
	if err := m.store.ApproveUser(ctx, userID); err != nil {
		return err
	}

	m.mu.Lock()
	if m.pendingSeen > 0 {
		m.pendingSeen--
	}
	m.mu.Unlock()

	logger.Info("user approved", "userId", userID)
	return nil
}

// ReloadUser re-reads a single profile. Used to re-sync the affected row
// after a failed approve, so the display never diverges from the store.
func (m *Manager) ReloadUser(ctx context.Context, userID string) (*models.AppUser, error) {
	user, err := m.store.FetchUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}
