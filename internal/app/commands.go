package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/usagedeck/usage-dashboard-tui/internal/services"
)

const (
	// DefaultTickInterval is the default interval between housekeeping ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	// fetchTimeout bounds a single dashboard refresh round-trip.
	fetchTimeout = 30 * time.Second
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// textinputBlink returns the cursor blink command for the sign-in form.
func textinputBlink() tea.Cmd {
	return textinput.Blink
}

// refreshTickCmd returns a command that schedules the next automatic refresh.
func refreshTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return RefreshTickMsg{Time: t}
	})
}

// signInCmd returns a command that signs the admin in.
func signInCmd(mgr *services.Manager, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		err := mgr.SignIn(ctx, email, password)
		return SignInResultMsg{Email: email, Err: err}
	}
}

// fetchDashboardCmd returns a command that refreshes all dashboard data.
func fetchDashboardCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		snapshot, err := mgr.FetchDashboard(ctx)
		return DashboardLoadedMsg{Snapshot: snapshot, Err: err}
	}
}

// approveUserCmd returns a command that writes the approval to the store.
func approveUserCmd(mgr *services.Manager, userID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		err := mgr.ApproveUser(ctx, userID)
		return ApproveUserResultMsg{UserID: userID, Err: err}
	}
}

// reloadUserCmd returns a command that re-reads one profile from the store
// so a failed optimistic update can be rolled back.
func reloadUserCmd(mgr *services.Manager, userID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		user, err := mgr.ReloadUser(ctx, userID)
		return UserReloadedMsg{UserID: userID, User: user, Err: err}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// notifySuccessCmd returns a command that adds a success notification.
func notifySuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// notifyErrorCmd returns a command that adds an error notification.
func notifyErrorCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

// notifyInfoCmd returns a command that adds an info notification.
func notifyInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: QuickNotificationDuration,
		}
	}
}
