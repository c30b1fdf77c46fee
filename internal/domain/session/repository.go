package session

import (
	"context"
	"errors"
	"time"
)

// ErrSequenceConflict is returned when a concurrent writer claimed the same
// per-streamer session number first.
var ErrSequenceConflict = errors.New("session number already taken")

// Repository describes game session persistence needs from use cases.
//
// Create must persist the session together with its claimed session number as
// one atomic unit; collisions surface as ErrSequenceConflict. NextSequence is
// advisory only (read the current tail); the uniqueness constraint is what
// makes allocation safe.
type Repository interface {
	Create(ctx context.Context, s Session) (Session, error)
	NextSequence(ctx context.Context, streamerID string) (int, error)
	GetByID(ctx context.Context, sessionID string) (Session, bool, error)
	ListByStreamer(ctx context.Context, streamerID string, limit int) ([]Session, error)
	CountCompleted(ctx context.Context, streamerID string) (int, error)
	// Complete flips the session to completed only from in_progress and is
	// final once applied; reports whether it applied.
	Complete(ctx context.Context, sessionID string, endedAt time.Time, durationMinutes int, result GameResult, mvpEntryID, mvpGameID string) (bool, error)
	// Cancel flips the session to cancelled from either non-terminal state.
	Cancel(ctx context.Context, sessionID string) (bool, error)
	AppendNotes(ctx context.Context, sessionID, notes string) error
}
