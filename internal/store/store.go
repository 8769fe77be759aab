// Package store defines the document-store surface the dashboard reads from
// and writes to. Implementations live in the firestore and sqlitestore
// subpackages; everything above this interface is backend-agnostic, which is
// also what lets tests substitute a fake.
package store

import (
	"context"
	"errors"

	"github.com/usagedeck/usage-dashboard-tui/internal/models"
)

// ErrNotFound is returned when a keyed lookup matches no document.
var ErrNotFound = errors.New("document not found")

// Store is the dashboard's view of the usage/user document store.
//
// Fetches are bulk reads: usage records ordered by last-updated descending,
// user profiles ordered by creation time descending. Absent numeric fields
// decode to 0 and absent timestamps to the current time, so callers never see
// partially-typed records. ApproveUser is the single write: it flips a
// user's approval flag to true (the only transition that exists).
type Store interface {
	FetchUsage(ctx context.Context) ([]models.UserUsageRecord, error)
	FetchUsers(ctx context.Context) ([]models.AppUser, error)
	FetchUser(ctx context.Context, userID string) (*models.AppUser, error)
	ApproveUser(ctx context.Context, userID string) error
}
