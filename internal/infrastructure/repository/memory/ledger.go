package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lokastream/mabar-queue/internal/domain/donor"
	"github.com/lokastream/mabar-queue/internal/domain/payment"
	"github.com/lokastream/mabar-queue/internal/domain/queue"
	idgen "github.com/lokastream/mabar-queue/internal/platform/id"
)

// Ledger applies payment transitions against the in-memory stores. One
// mutex serializes every apply, which stands in for the database transaction
// the postgres ledger uses: a racing duplicate always observes the previous
// apply in full.
type Ledger struct {
	mu        sync.Mutex
	queues    *QueueRepository
	donors    *DonorRepository
	donations *DonationRepository
	idGen     idgen.Generator
}

func NewLedger(queues *QueueRepository, donors *DonorRepository, donations *DonationRepository, idGen idgen.Generator) *Ledger {
	if idGen == nil {
		idGen = idgen.NewRandomGenerator()
	}

	return &Ledger{
		queues:    queues,
		donors:    donors,
		donations: donations,
		idGen:     idGen,
	}
}

func (l *Ledger) ApplyTransition(ctx context.Context, input payment.TransitionInput) (payment.TransitionResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok, err := l.queues.GetByOrderID(ctx, input.OrderID)
	if err != nil {
		return payment.TransitionResult{}, err
	}
	if !ok {
		return payment.TransitionResult{Outcome: payment.OutcomeUnknownOrder}, nil
	}

	prev := entry.PaymentStatus
	if input.To == prev {
		return payment.TransitionResult{Outcome: payment.OutcomeNoop, Entry: entry}, nil
	}
	if input.To.Precedence() <= prev.Precedence() {
		return payment.TransitionResult{Outcome: payment.OutcomeStale, Entry: entry}, nil
	}

	observedAt := input.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now()
	}

	entry.PaymentStatus = input.To
	entry.Status = queue.EntryStatusFor(input.To, entry.Status)
	if input.GatewayStatus != "" {
		entry.GatewayStatus = input.GatewayStatus
	}
	if input.PaymentType != "" {
		entry.GatewayPaymentType = input.PaymentType
	}
	entry.UpdatedAt = observedAt
	l.queues.replace(entry)

	result := payment.TransitionResult{
		Outcome: payment.OutcomeApplied,
		Entry:   entry,
	}
	if input.To != queue.PaymentCompleted {
		return result, nil
	}

	result.FirstCompletion = true
	if err := l.recordCompletion(ctx, entry, input, observedAt); err != nil {
		return payment.TransitionResult{}, err
	}

	return result, nil
}

func (l *Ledger) recordCompletion(ctx context.Context, entry queue.Entry, input payment.TransitionInput, at time.Time) error {
	amount := input.GrossAmount
	if amount <= 0 {
		amount = entry.AmountPaid
	}

	donationID, err := l.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate donation id: %w", err)
	}
	l.donations.add(donor.Donation{
		ID:            donationID,
		StreamerID:    entry.StreamerID,
		DonorName:     entry.PlayerName,
		DonorGameID:   entry.GameID,
		Amount:        amount,
		Currency:      "IDR",
		DonationType:  donor.DonationTypeMabar,
		QueueEntryID:  entry.ID,
		OrderID:       entry.OrderID,
		PaymentMethod: entry.PaymentMethod,
		CreatedAt:     at,
	})

	agg, exists, err := l.donors.GetByPlayer(ctx, entry.StreamerID, entry.GameID)
	if err != nil {
		return err
	}
	if !exists {
		aggID, err := l.idGen.NewID()
		if err != nil {
			return fmt.Errorf("generate donor id: %w", err)
		}
		agg = donor.Aggregate{
			ID:              aggID,
			StreamerID:      entry.StreamerID,
			GameID:          entry.GameID,
			FirstDonationAt: at,
			CreatedAt:       at,
		}
	}

	agg.PlayerName = entry.PlayerName
	agg.GameNickname = entry.GameNickname
	if entry.Email != "" {
		agg.Email = entry.Email
	}
	if entry.Phone != "" {
		agg.Phone = entry.Phone
	}
	agg.TotalDonations++
	agg.LifetimeAmount += amount
	agg.FavoriteRole = entry.Role
	agg.Tier = donor.ClassifyTier(agg.LifetimeAmount)
	agg.LastDonationAt = at
	agg.UpdatedAt = at
	l.donors.upsert(agg)

	return nil
}
