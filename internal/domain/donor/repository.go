package donor

import "context"

// Repository describes donor aggregate reads and operator-side writes. The
// accumulating write path lives behind payment.Ledger so it shares the
// reconciliation transaction.
type Repository interface {
	GetByPlayer(ctx context.Context, streamerID, gameID string) (Aggregate, bool, error)
	ListByStreamer(ctx context.Context, streamerID string) ([]Aggregate, error)
	// SetModeration updates the operator-owned fields only, scoped to the
	// streamer so one operator cannot touch another's donors.
	SetModeration(ctx context.Context, streamerID, aggregateID string, blocked bool, notes string) (Aggregate, bool, error)
}

// DonationRepository lists the per-payment donation history.
type DonationRepository interface {
	ListByStreamer(ctx context.Context, streamerID string, limit int) ([]Donation, error)
	TotalCompletedAmount(ctx context.Context, streamerID string) (int64, error)
}
