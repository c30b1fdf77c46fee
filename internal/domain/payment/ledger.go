package payment

import (
	"context"
	"time"

	"github.com/lokastream/mabar-queue/internal/domain/queue"
)

// TransitionOutcome reports what applying a notification did to the entry.
type TransitionOutcome string

const (
	// OutcomeApplied means the payment status changed.
	OutcomeApplied TransitionOutcome = "applied"
	// OutcomeNoop means the entry was already in the mapped status.
	OutcomeNoop TransitionOutcome = "noop"
	// OutcomeStale means a terminal status would have regressed; dropped.
	OutcomeStale TransitionOutcome = "stale"
	// OutcomeUnknownOrder means no entry exists for the order id.
	OutcomeUnknownOrder TransitionOutcome = "unknown_order"
)

// TransitionInput carries one mapped gateway status towards an entry.
type TransitionInput struct {
	OrderID       string
	To            queue.PaymentStatus
	GatewayStatus string
	PaymentType   string
	GrossAmount   int64
	ObservedAt    time.Time
}

// TransitionResult is the post-apply view of the entry.
type TransitionResult struct {
	Outcome TransitionOutcome
	Entry   queue.Entry
	// FirstCompletion is set on the transition that first moved the entry
	// into completed; exactly one donation row and one donor-aggregate
	// increment belong to it.
	FirstCompletion bool
}

// Ledger applies payment transitions atomically. Implementations must make
// the conditional entry update, the donation record and the donor aggregate
// roll-up commit as one unit: a duplicate or racing notification observes
// either the full effect or none of it.
type Ledger interface {
	ApplyTransition(ctx context.Context, input TransitionInput) (TransitionResult, error)
}
