package mvp

import (
	"context"
	"time"
)

// Participant identifies one session player for aggregate increments.
type Participant struct {
	PlayerIdentifier string
	PlayerName       string
}

// Repository describes MVP record persistence needs from use cases.
type Repository interface {
	GetByPlayer(ctx context.Context, streamerID, playerIdentifier string) (Record, bool, error)
	GetByID(ctx context.Context, recordID string) (Record, bool, error)
	ListByStreamer(ctx context.Context, streamerID string) ([]Record, error)
	TotalWins(ctx context.Context, streamerID string) (int, error)
	// RecordSessionOutcome increments games played for every participant and
	// MVP wins for the designated one, creating records as needed. Counters
	// only move forward.
	RecordSessionOutcome(ctx context.Context, streamerID string, participants []Participant, mvpIdentifier string, at time.Time) error
	AppendClaim(ctx context.Context, recordID string, claim RewardClaim) (Record, error)
}
