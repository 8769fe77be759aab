package app

import (
	"time"

	"github.com/usagedeck/usage-dashboard-tui/internal/models"
	"github.com/usagedeck/usage-dashboard-tui/internal/services"
)

// TickMsg is sent periodically to expire notifications.
type TickMsg struct {
	Time time.Time
}

// RefreshTickMsg is sent on the configured refresh interval to trigger an
// automatic dashboard refresh.
type RefreshTickMsg struct {
	Time time.Time
}

// ExternalChangeMsg signals that the backing store was modified by another
// process and the dashboard should refresh.
type ExternalChangeMsg struct{}

// SignInResultMsg contains the result of an admin sign-in attempt.
type SignInResultMsg struct {
	Email string
	Err   error
}

// SignOutMsg requests ending the admin session.
type SignOutMsg struct{}

// DashboardLoadedMsg contains the result of a dashboard refresh.
type DashboardLoadedMsg struct {
	Snapshot *services.Snapshot
	Err      error
}

// ApproveUserMsg requests approval of a pending user.
type ApproveUserMsg struct {
	UserID string
}

// ApproveUserResultMsg contains the result of an approval write.
type ApproveUserResultMsg struct {
	UserID string
	Err    error
}

// UserReloadedMsg carries a freshly fetched profile after a failed approval.
type UserReloadedMsg struct {
	UserID string
	User   *models.AppUser
	Err    error
}

// RefreshMsg requests a manual refresh of the dashboard data.
type RefreshMsg struct{}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
