package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/usagedeck/usage-dashboard-tui/internal/auth"
	"github.com/usagedeck/usage-dashboard-tui/internal/models"
)

// fakeStore implements store.Store for testing.
type fakeStore struct {
	mu       sync.Mutex
	records  []models.UserUsageRecord
	users    []models.AppUser
	usageErr error
	usersErr error

	approveErr error
	approved   []string
}

func (f *fakeStore) FetchUsage(context.Context) ([]models.UserUsageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usageErr != nil {
		return nil, f.usageErr
	}
	return f.records, nil
}

func (f *fakeStore) FetchUsers(context.Context) ([]models.AppUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return f.users, nil
}

func (f *fakeStore) FetchUser(_ context.Context, id string) (*models.AppUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.UserID == id {
			u := u
			return &u, nil
		}
	}
	return nil, errors.New("no such user")
}

func (f *fakeStore) ApproveUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.approveErr != nil {
		return f.approveErr
	}
	f.approved = append(f.approved, id)
	return nil
}

// fakeAuth implements auth.Authenticator for testing.
type fakeAuth struct {
	signInErr  error
	refreshErr error
	refreshed  int
}

func (f *fakeAuth) SignIn(_ context.Context, email, _ string) (*auth.Session, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &auth.Session{
		Email:     email,
		IDToken:   "token-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeAuth) Refresh(_ context.Context, s *auth.Session) (*auth.Session, error) {
	f.refreshed++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &auth.Session{
		Email:     s.Email,
		IDToken:   "token-2",
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func newTestManager(st *fakeStore, authn *fakeAuth) *Manager {
	m := NewManager(st, authn)
	m.notify = func(string, string) error { return nil }
	return m
}

func TestManager_SignInOut(t *testing.T) {
	m := newTestManager(&fakeStore{}, &fakeAuth{})
	ctx := context.Background()

	if m.SignedIn() {
		t.Fatal("SignedIn() = true before sign-in")
	}

	if err := m.SignIn(ctx, "admin@example.com", "pw"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if !m.SignedIn() || m.AdminEmail() != "admin@example.com" {
		t.Errorf("SignedIn() = %v, AdminEmail() = %q", m.SignedIn(), m.AdminEmail())
	}

	if _, err := m.FetchDashboard(ctx); err != nil {
		t.Fatalf("FetchDashboard() error = %v", err)
	}

	m.SignOut()
	if m.SignedIn() || m.Snapshot() != nil {
		t.Error("SignOut() must clear session and snapshot")
	}
}

func TestManager_SignIn_Failure(t *testing.T) {
	m := newTestManager(&fakeStore{}, &fakeAuth{signInErr: errors.New("invalid email or password")})

	if err := m.SignIn(context.Background(), "a@b.c", "pw"); err == nil {
		t.Fatal("SignIn() expected error")
	}
	if m.SignedIn() {
		t.Error("SignedIn() = true after failed sign-in")
	}
}

func TestManager_Token_RefreshesStaleSession(t *testing.T) {
	authn := &fakeAuth{}
	m := newTestManager(&fakeStore{}, authn)
	ctx := context.Background()

	if err := m.SignIn(ctx, "admin@example.com", "pw"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	// Fresh session: no refresh round-trip.
	token, err := m.Token(ctx)
	if err != nil || token != "token-1" {
		t.Fatalf("Token() = %q, %v", token, err)
	}
	if authn.refreshed != 0 {
		t.Errorf("refreshed %d times, want 0", authn.refreshed)
	}

	// Expire it.
	m.mu.Lock()
	m.session.ExpiresAt = time.Now().Add(-time.Minute)
	m.mu.Unlock()

	token, err = m.Token(ctx)
	if err != nil || token != "token-2" {
		t.Fatalf("Token() after expiry = %q, %v", token, err)
	}
	if authn.refreshed != 1 {
		t.Errorf("refreshed %d times, want 1", authn.refreshed)
	}
}

func TestManager_Token_NotSignedIn(t *testing.T) {
	m := newTestManager(&fakeStore{}, &fakeAuth{})
	if _, err := m.Token(context.Background()); err == nil {
		t.Fatal("Token() expected error when not signed in")
	}
}

func TestManager_FetchDashboard(t *testing.T) {
	st := &fakeStore{
		records: []models.UserUsageRecord{{UserID: "a", TotalCostUSD: 2}},
		users:   []models.AppUser{{UserID: "a", IsApproved: true}},
	}
	m := newTestManager(st, &fakeAuth{})

	snap, err := m.FetchDashboard(context.Background())
	if err != nil {
		t.Fatalf("FetchDashboard() error = %v", err)
	}
	if len(snap.Records) != 1 || len(snap.Users) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if m.Snapshot() != snap {
		t.Error("Snapshot() should return the fetched snapshot")
	}
}

func TestManager_FetchDashboard_EitherFailureFailsWhole(t *testing.T) {
	tests := []struct {
		name string
		st   *fakeStore
	}{
		{"UsageFails", &fakeStore{usageErr: errors.New("boom")}},
		{"UsersFails", &fakeStore{usersErr: errors.New("boom")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(tt.st, &fakeAuth{})

			// Seed a prior successful snapshot.
			tt.st.mu.Lock()
			savedUsageErr, savedUsersErr := tt.st.usageErr, tt.st.usersErr
			tt.st.usageErr, tt.st.usersErr = nil, nil
			tt.st.mu.Unlock()
			prior, err := m.FetchDashboard(context.Background())
			if err != nil {
				t.Fatalf("seed fetch error = %v", err)
			}
			tt.st.mu.Lock()
			tt.st.usageErr, tt.st.usersErr = savedUsageErr, savedUsersErr
			tt.st.mu.Unlock()

			if _, err := m.FetchDashboard(context.Background()); err == nil {
				t.Fatal("FetchDashboard() expected error")
			}
			if m.Snapshot() != prior {
				t.Error("failed refresh must leave the prior snapshot in place")
			}
		})
	}
}

func TestManager_PendingNotification(t *testing.T) {
	st := &fakeStore{
		users: []models.AppUser{{UserID: "a", IsApproved: true}},
	}
	m := newTestManager(st, &fakeAuth{})

	var notified []string
	m.notify = func(_, body string) error {
		notified = append(notified, body)
		return nil
	}
	ctx := context.Background()

	// First refresh observes the baseline; no notification even with
	// pending users present.
	st.mu.Lock()
	st.users = append(st.users, models.AppUser{UserID: "b"})
	st.mu.Unlock()
	if _, err := m.FetchDashboard(ctx); err != nil {
		t.Fatal(err)
	}
	if len(notified) != 0 {
		t.Fatalf("notified on first refresh: %v", notified)
	}

	// Queue grows: notify.
	st.mu.Lock()
	st.users = append(st.users, models.AppUser{UserID: "c"})
	st.mu.Unlock()
	if _, err := m.FetchDashboard(ctx); err != nil {
		t.Fatal(err)
	}
	if len(notified) != 1 {
		t.Fatalf("notified %d times, want 1", len(notified))
	}

	// Unchanged queue: stay quiet.
	if _, err := m.FetchDashboard(ctx); err != nil {
		t.Fatal(err)
	}
	if len(notified) != 1 {
		t.Fatalf("notified %d times after steady refresh, want 1", len(notified))
	}
}

func TestManager_ApproveUser_WritesStore(t *testing.T) {
	st := &fakeStore{
		users: []models.AppUser{{UserID: "pending"}},
	}
	m := newTestManager(st, &fakeAuth{})
	ctx := context.Background()

	if _, err := m.FetchDashboard(ctx); err != nil {
		t.Fatal(err)
	}

	if err := m.ApproveUser(ctx, "pending"); err != nil {
		t.Fatalf("ApproveUser() error = %v", err)
	}
	if got := st.approved; len(got) != 1 || got[0] != "pending" {
		t.Errorf("store approvals = %v", got)
	}
	// The display patch is the UI's job; the published snapshot is immutable.
	if m.Snapshot().Users[0].IsApproved {
		t.Error("ApproveUser must not write to the published snapshot")
	}
}

// A snapshot handed out by FetchDashboard may be read by the render path
// while later writes run; it must never be written to again.
func TestManager_ApproveUser_ConcurrentSnapshotReads(t *testing.T) {
	st := &fakeStore{
		users: []models.AppUser{{UserID: "pending", Email: "pending@example.com"}},
	}
	m := newTestManager(st, &fakeAuth{})
	ctx := context.Background()

	snap, err := m.FetchDashboard(ctx)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if snap.Users[0].Email != "pending@example.com" {
				t.Error("torn read of published snapshot")
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if err := m.ApproveUser(ctx, "pending"); err != nil {
				t.Errorf("ApproveUser() error = %v", err)
				return
			}
		}
	}()
	wg.Wait()

	if snap.Users[0].IsApproved {
		t.Error("published snapshot was mutated by ApproveUser")
	}
}

func TestManager_ApproveUser_FailureLeavesSnapshot(t *testing.T) {
	st := &fakeStore{
		users:      []models.AppUser{{UserID: "pending"}},
		approveErr: errors.New("PERMISSION_DENIED"),
	}
	m := newTestManager(st, &fakeAuth{})
	ctx := context.Background()

	if _, err := m.FetchDashboard(ctx); err != nil {
		t.Fatal(err)
	}

	if err := m.ApproveUser(ctx, "pending"); err == nil {
		t.Fatal("ApproveUser() expected error")
	}
	if m.Snapshot().Users[0].IsApproved {
		t.Error("snapshot must not be patched on approve failure")
	}
}

func TestManager_ReloadUser(t *testing.T) {
	st := &fakeStore{
		users: []models.AppUser{{UserID: "u", Email: "old@example.com"}},
	}
	m := newTestManager(st, &fakeAuth{})
	ctx := context.Background()

	if _, err := m.FetchDashboard(ctx); err != nil {
		t.Fatal(err)
	}

	st.mu.Lock()
	st.users[0].Email = "new@example.com"
	st.mu.Unlock()

	user, err := m.ReloadUser(ctx, "u")
	if err != nil {
		t.Fatalf("ReloadUser() error = %v", err)
	}
	if user.Email != "new@example.com" {
		t.Errorf("ReloadUser() email = %q", user.Email)
	}
	if m.Snapshot().Users[0].Email != "old@example.com" {
		t.Error("ReloadUser must not write to the published snapshot")
	}
}
