// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/usagedeck/usage-dashboard-tui/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial   bool
	Dashboard bool
	Approve   bool
}

// State is the shared application state read by every tab. The dashboard
// data is replaced wholesale on each successful refresh; tabs derive their
// views from it on render and never cache rollups.
type State struct {
	mu sync.RWMutex

	records   []models.UserUsageRecord
	users     []models.AppUser
	fetchedAt time.Time

	Loading LoadingState

	notifications   []Notification
	notificationSeq int
}

// NewState creates an empty state awaiting the first refresh.
func NewState() *State {
	return &State{
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case "initial":
		s.Loading.Initial = loading
	case "dashboard":
		s.Loading.Dashboard = loading
	case "approve":
		s.Loading.Approve = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial || s.Loading.Dashboard || s.Loading.Approve
}

// IsInitialLoading returns true if initial data is still loading.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// SetDashboard replaces the usage records and user profiles with the result
// of a refresh. The latest call wins; there is no merging. The slices are
// copied on the way in: the in-place edits MarkUserApproved and ReplaceUser
// make must never reach the caller's backing array, which the service layer
// still holds under its own lock.
func (s *State) SetDashboard(records []models.UserUsageRecord, users []models.AppUser, fetchedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make([]models.UserUsageRecord, len(records))
	copy(s.records, records)
	s.users = make([]models.AppUser, len(users))
	copy(s.users, users)
	s.fetchedAt = fetchedAt
}

// Records returns a copy of the usage records.
func (s *State) Records() []models.UserUsageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.UserUsageRecord, len(s.records))
	copy(records, s.records)
	return records
}

// Users returns a copy of the user profiles.
func (s *State) Users() []models.AppUser {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.AppUser, len(s.users))
	copy(users, s.users)
	return users
}

// UserCount returns the number of known user profiles.
func (s *State) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// PendingCount returns the number of profiles awaiting approval.
func (s *State) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(models.PendingUsers(s.users))
}

// MarkUserApproved flips a profile's approval flag in place. Used for the
// optimistic update while the store write is in flight.
func (s *State) MarkUserApproved(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].UserID == userID {
			s.users[i].IsApproved = true
			return
		}
	}
}

// ReplaceUser swaps a single profile with a freshly fetched one. Used to
// roll the display back after a failed approval.
func (s *State) ReplaceUser(user models.AppUser) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].UserID == user.UserID {
			s.users[i] = user
			return
		}
	}
}

// FetchedAt returns the time of the last successful refresh.
func (s *State) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

// TimeSinceFetch returns the duration since the last successful refresh.
func (s *State) TimeSinceFetch() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fetchedAt.IsZero() {
		return 0
	}
	return time.Since(s.fetchedAt)
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	notification := Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}

	s.notifications = append(s.notifications, notification)

	// Keep only the last 10 notifications
	if len(s.notifications) > 10 {
		s.notifications = s.notifications[len(s.notifications)-10:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}

	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  0,
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// Reset drops all dashboard data. Called on sign-out.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.users = nil
	s.fetchedAt = time.Time{}
	s.notifications = make([]Notification, 0)
	s.Loading = LoadingState{Initial: true}
}
