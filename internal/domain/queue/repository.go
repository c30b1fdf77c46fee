package queue

import (
	"context"
	"errors"
	"time"
)

// ErrPositionConflict is returned when a concurrent registration claimed the
// same queue position first. Callers re-read the tail and retry a bounded
// number of times.
var ErrPositionConflict = errors.New("queue position already taken")

// Repository describes queue entry persistence needs from use cases.
//
// Create must allocate the entry's queue position and persist the row as a
// single atomic unit: the position is strictly greater than every position
// held by an active entry in the same namespace, and a collision with a
// concurrent writer surfaces as ErrPositionConflict rather than a duplicate.
type Repository interface {
	Create(ctx context.Context, entry Entry) (Entry, error)
	GetByID(ctx context.Context, entryID string) (Entry, bool, error)
	GetByOrderID(ctx context.Context, orderID string) (Entry, bool, error)
	ListActive(ctx context.Context, streamerID string) ([]Entry, error)
	// ListPendingOlderThan returns entries still awaiting payment whose
	// registration happened before the cutoff; the status poller uses it to
	// reconcile orders whose webhook never arrived.
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]Entry, error)
	CountActive(ctx context.Context, settingsID string) (int, error)
	// UpdateStatus flips the queue-lifecycle status only when the entry is
	// currently in one of the expected states; reports whether it applied.
	// Rows are never deleted: a removed entry is cancelled, which retires
	// its position for good.
	UpdateStatus(ctx context.Context, entryID string, from []EntryStatus, to EntryStatus) (bool, error)
}
