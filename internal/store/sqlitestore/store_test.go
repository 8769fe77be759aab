package sqlitestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/usagedeck/usage-dashboard-tui/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s *Store, id, email string, approved bool, createdAt time.Time) {
	t.Helper()
	_, err := s.db.Exec(
		`INSERT INTO users (user_id, email, username, is_approved, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, email, "u-"+id, approved, createdAt)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func seedRecord(t *testing.T, s *Store, id string, calls int64, cost float64, lastUpdated time.Time) {
	t.Helper()
	_, err := s.db.Exec(
		`INSERT INTO usage_records (user_id, total_calls, total_cost_usd, last_updated, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, calls, cost, lastUpdated, lastUpdated.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}
}

func seedEntry(t *testing.T, s *Store, userID, model string, ts time.Time, calls int64) {
	t.Helper()
	_, err := s.db.Exec(
		`INSERT INTO usage_entries (user_id, timestamp, model, calls, cost_usd, total_tokens)
		 VALUES (?, ?, ?, ?, 0.1, 10)`,
		userID, ts, model, calls)
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}
}

func TestStore_FetchUsage_OrderAndEntries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	seedRecord(t, s, "old", 1, 1.0, now.Add(-2*time.Hour))
	seedRecord(t, s, "new", 2, 2.0, now)
	seedEntry(t, s, "new", "gpt-4", now.Add(-time.Minute), 2)
	seedEntry(t, s, "new", "gpt-3.5", now.Add(-2*time.Minute), 1)

	records, err := s.FetchUsage(ctx)
	if err != nil {
		t.Fatalf("FetchUsage() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("FetchUsage() returned %d records, want 2", len(records))
	}
	if records[0].UserID != "new" || records[1].UserID != "old" {
		t.Errorf("order = [%s %s], want last-updated descending", records[0].UserID, records[1].UserID)
	}

	entries := records[0].RecentUsage
	if len(entries) != 2 {
		t.Fatalf("RecentUsage has %d entries, want 2", len(entries))
	}
	// Newest first.
	if entries[0].Model != "gpt-4" || entries[1].Model != "gpt-3.5" {
		t.Errorf("entry order = [%s %s]", entries[0].Model, entries[1].Model)
	}
}

func TestStore_FetchUsage_RecentWindowCap(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedRecord(t, s, "busy", 100, 10.0, now)
	for i := 0; i < recentEntryLimit+10; i++ {
		seedEntry(t, s, "busy", "gpt-4", now.Add(-time.Duration(i)*time.Minute), 1)
	}

	records, err := s.FetchUsage(ctx)
	if err != nil {
		t.Fatalf("FetchUsage() error = %v", err)
	}
	if got := len(records[0].RecentUsage); got != recentEntryLimit {
		t.Errorf("RecentUsage has %d entries, want cap %d", got, recentEntryLimit)
	}
}

func TestStore_FetchUsers_Order(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	seedUser(t, s, "a", "a@example.com", true, now.Add(-time.Hour))
	seedUser(t, s, "b", "b@example.com", false, now)

	users, err := s.FetchUsers(ctx)
	if err != nil {
		t.Fatalf("FetchUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("FetchUsers() returned %d users, want 2", len(users))
	}
	if users[0].UserID != "b" || users[1].UserID != "a" {
		t.Errorf("order = [%s %s], want created-at descending", users[0].UserID, users[1].UserID)
	}
	if users[0].IsApproved || !users[1].IsApproved {
		t.Errorf("approval flags wrong: %+v", users)
	}
}

func TestStore_ApproveUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "pending", "p@example.com", false, time.Now())

	if err := s.ApproveUser(ctx, "pending"); err != nil {
		t.Fatalf("ApproveUser() error = %v", err)
	}

	u, err := s.FetchUser(ctx, "pending")
	if err != nil {
		t.Fatalf("FetchUser() error = %v", err)
	}
	if !u.IsApproved {
		t.Error("user still pending after ApproveUser()")
	}
}

func TestStore_ApproveUser_NotFound(t *testing.T) {
	s := openTestStore(t)

	err := s.ApproveUser(context.Background(), "ghost")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ApproveUser() error = %v, want store.ErrNotFound", err)
	}
}

func TestStore_FetchUser_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.FetchUser(context.Background(), "ghost")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("FetchUser() error = %v, want store.ErrNotFound", err)
	}
}
