package app

import (
	"testing"
	"time"

	"github.com/usagedeck/usage-dashboard-tui/internal/models"
)

func TestState_SetDashboard(t *testing.T) {
	s := NewState()
	now := time.Now()

	records := []models.UserUsageRecord{{UserID: "a"}}
	users := []models.AppUser{{UserID: "a", IsApproved: true}, {UserID: "b"}}

	s.SetDashboard(records, users, now)

	if len(s.Records()) != 1 {
		t.Errorf("Records() len = %d, want 1", len(s.Records()))
	}
	if s.UserCount() != 2 {
		t.Errorf("UserCount() = %d, want 2", s.UserCount())
	}
	if s.PendingCount() != 1 {
		t.Errorf("PendingCount() = %d, want 1", s.PendingCount())
	}
	if !s.FetchedAt().Equal(now) {
		t.Errorf("FetchedAt() = %v, want %v", s.FetchedAt(), now)
	}
}

func TestState_SetDashboard_LatestWins(t *testing.T) {
	s := NewState()

	s.SetDashboard([]models.UserUsageRecord{{UserID: "a"}, {UserID: "b"}}, nil, time.Now())
	s.SetDashboard([]models.UserUsageRecord{{UserID: "c"}}, nil, time.Now())

	records := s.Records()
	if len(records) != 1 || records[0].UserID != "c" {
		t.Errorf("Records() = %+v, want only the latest set", records)
	}
}

func TestState_ReturnsCopies(t *testing.T) {
	s := NewState()
	s.SetDashboard(
		[]models.UserUsageRecord{{UserID: "a"}},
		[]models.AppUser{{UserID: "a"}},
		time.Now())

	records := s.Records()
	records[0].UserID = "mutated"
	if s.Records()[0].UserID != "a" {
		t.Error("Records() must return a copy")
	}

	users := s.Users()
	users[0].UserID = "mutated"
	if s.Users()[0].UserID != "a" {
		t.Error("Users() must return a copy")
	}
}

// SetDashboard must adopt copies: the service layer keeps the slices it
// published, and in-place edits here must never reach that backing array.
func TestState_SetDashboard_CopiesInput(t *testing.T) {
	s := NewState()
	records := []models.UserUsageRecord{{UserID: "a"}}
	users := []models.AppUser{{UserID: "p", Email: "p@example.com"}}

	s.SetDashboard(records, users, time.Now())

	s.MarkUserApproved("p")
	if users[0].IsApproved {
		t.Error("MarkUserApproved leaked into the caller's slice")
	}

	s.ReplaceUser(models.AppUser{UserID: "p", Email: "other@example.com"})
	if users[0].Email != "p@example.com" {
		t.Error("ReplaceUser leaked into the caller's slice")
	}

	records[0].UserID = "mutated"
	if s.Records()[0].UserID != "a" {
		t.Error("caller writes leaked into the state's records")
	}
}

func TestState_MarkUserApproved(t *testing.T) {
	s := NewState()
	s.SetDashboard(nil, []models.AppUser{{UserID: "p"}}, time.Now())

	s.MarkUserApproved("p")
	if !s.Users()[0].IsApproved {
		t.Error("user not marked approved")
	}
	if s.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d after approval", s.PendingCount())
	}

	// Unknown ID is a no-op.
	s.MarkUserApproved("ghost")
}

func TestState_ReplaceUser(t *testing.T) {
	s := NewState()
	s.SetDashboard(nil, []models.AppUser{{UserID: "p", IsApproved: true}}, time.Now())

	s.ReplaceUser(models.AppUser{UserID: "p", IsApproved: false, Email: "p@example.com"})

	got := s.Users()[0]
	if got.IsApproved || got.Email != "p@example.com" {
		t.Errorf("ReplaceUser() result = %+v", got)
	}
}

func TestState_Loading(t *testing.T) {
	s := NewState()

	if !s.IsInitialLoading() || !s.AnyLoading() {
		t.Error("fresh state should report initial loading")
	}

	s.SetLoading("initial", false)
	if s.AnyLoading() {
		t.Error("AnyLoading() = true after clearing initial")
	}

	s.SetLoading("dashboard", true)
	if !s.AnyLoading() {
		t.Error("AnyLoading() = false with dashboard loading")
	}
	s.SetLoading("dashboard", false)

	s.SetLoading("approve", true)
	if !s.AnyLoading() {
		t.Error("AnyLoading() = false with approve loading")
	}
}

func TestState_Notifications(t *testing.T) {
	s := NewState()

	id := s.AddNotification(NotificationSuccess, "done", time.Minute)
	if len(s.GetNotifications()) != 1 {
		t.Fatal("notification not added")
	}

	s.RemoveNotification(id)
	if len(s.GetNotifications()) != 0 {
		t.Error("notification not removed")
	}
}

func TestState_NotificationExpiry(t *testing.T) {
	s := NewState()

	s.AddNotification(NotificationInfo, "blink", time.Nanosecond)
	time.Sleep(2 * time.Millisecond)

	if len(s.GetNotifications()) != 0 {
		t.Error("expired notification still visible")
	}

	s.ClearExpiredNotifications()
	s.AddNotification(NotificationInfo, "sticky", 0)
	s.ClearExpiredNotifications()
	if len(s.GetNotifications()) != 1 {
		t.Error("zero-duration notification must not expire")
	}
}

func TestState_NotificationCap(t *testing.T) {
	s := NewState()
	for i := 0; i < 15; i++ {
		s.AddNotification(NotificationInfo, "n", time.Minute)
	}
	if got := len(s.GetNotifications()); got > 10 {
		t.Errorf("notifications = %d, want at most 10", got)
	}
}

func TestState_LoadingNotification(t *testing.T) {
	s := NewState()

	s.SetLoadingNotification("Loading...")
	s.SetLoadingNotification("Still loading...")

	notifs := s.GetNotifications()
	if len(notifs) != 1 {
		t.Fatalf("loading notification duplicated: %d", len(notifs))
	}
	if notifs[0].Message != "Still loading..." {
		t.Errorf("message = %q", notifs[0].Message)
	}

	s.ClearLoadingNotification()
	if len(s.GetNotifications()) != 0 {
		t.Error("loading notification not cleared")
	}
}

func TestState_Reset(t *testing.T) {
	s := NewState()
	s.SetDashboard([]models.UserUsageRecord{{UserID: "a"}}, []models.AppUser{{UserID: "a"}}, time.Now())
	s.SetLoading("initial", false)
	s.AddNotification(NotificationInfo, "n", time.Minute)

	s.Reset()

	if s.UserCount() != 0 || len(s.Records()) != 0 {
		t.Error("Reset() left dashboard data behind")
	}
	if !s.IsInitialLoading() {
		t.Error("Reset() should restore the initial-loading state")
	}
	if len(s.GetNotifications()) != 0 {
		t.Error("Reset() left notifications behind")
	}
}

func TestNotificationType_String(t *testing.T) {
	tests := []struct {
		in   NotificationType
		want string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationInfo, "info"},
		{NotificationType(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
