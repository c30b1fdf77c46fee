package memory

import (
	"context"
	"testing"
	"time"

	"github.com/lokastream/mabar-queue/internal/domain/donor"
	"github.com/lokastream/mabar-queue/internal/domain/payment"
	"github.com/lokastream/mabar-queue/internal/domain/queue"
)

func newTestLedger(t *testing.T, entries []queue.Entry) (*Ledger, *QueueRepository, *DonorRepository, *DonationRepository) {
	t.Helper()
	queues := NewQueueRepository(entries)
	donors := NewDonorRepository(nil)
	donations := NewDonationRepository(nil)
	return NewLedger(queues, donors, donations, nil), queues, donors, donations
}

func pendingEntry(orderID string) queue.Entry {
	return queue.Entry{
		ID:            "q-" + orderID,
		SettingsID:    "mabar-1",
		StreamerID:    "streamer-1",
		PlayerName:    "Asep",
		GameID:        "12345",
		GameNickname:  "AsepGG",
		Role:          "jungler",
		PaymentStatus: queue.PaymentPending,
		OrderID:       orderID,
		PaymentMethod: "qris",
		AmountPaid:    50_000,
		QueuePosition: 1,
		Status:        queue.StatusWaiting,
		JoinedAt:      time.Now().Add(-time.Minute),
	}
}

func TestApplyTransition_FirstCompletion(t *testing.T) {
	ledger, queues, donors, donations := newTestLedger(t, []queue.Entry{pendingEntry("MABAR-1-AAAAAA")})
	ctx := context.Background()

	result, err := ledger.ApplyTransition(ctx, payment.TransitionInput{
		OrderID:       "MABAR-1-AAAAAA",
		To:            queue.PaymentCompleted,
		GatewayStatus: "settlement",
		PaymentType:   "qris",
		GrossAmount:   50_000,
	})
	if err != nil {
		t.Fatalf("apply transition: %v", err)
	}
	if result.Outcome != payment.OutcomeApplied {
		t.Fatalf("expected applied, got %s", result.Outcome)
	}
	if !result.FirstCompletion {
		t.Fatal("expected first completion flag")
	}
	if result.Entry.PaymentStatus != queue.PaymentCompleted {
		t.Fatalf("expected completed payment, got %s", result.Entry.PaymentStatus)
	}
	if result.Entry.Status != queue.StatusWaiting {
		t.Fatalf("completed payment keeps the player waiting, got %s", result.Entry.Status)
	}

	entry, ok, _ := queues.GetByOrderID(ctx, "MABAR-1-AAAAAA")
	if !ok || entry.GatewayStatus != "settlement" {
		t.Fatalf("expected persisted gateway status, got %+v", entry)
	}

	rows, err := donations.ListByStreamer(ctx, "streamer-1", 10)
	if err != nil {
		t.Fatalf("list donations: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly one donation row, got %d", len(rows))
	}
	if rows[0].Amount != 50_000 || rows[0].OrderID != "MABAR-1-AAAAAA" {
		t.Fatalf("unexpected donation: %+v", rows[0])
	}
	if rows[0].DonationType != donor.DonationTypeMabar {
		t.Fatalf("unexpected donation type: %s", rows[0].DonationType)
	}

	agg, exists, _ := donors.GetByPlayer(ctx, "streamer-1", "12345")
	if !exists {
		t.Fatal("expected donor aggregate to be created")
	}
	if agg.TotalDonations != 1 || agg.LifetimeAmount != 50_000 {
		t.Fatalf("unexpected aggregate: %+v", agg)
	}
	if agg.Tier != donor.TierBronze {
		t.Fatalf("50k lifetime is bronze, got %s", agg.Tier)
	}
}

func TestApplyTransition_DuplicateIsNoop(t *testing.T) {
	ledger, _, donors, donations := newTestLedger(t, []queue.Entry{pendingEntry("MABAR-1-AAAAAA")})
	ctx := context.Background()

	input := payment.TransitionInput{
		OrderID:     "MABAR-1-AAAAAA",
		To:          queue.PaymentCompleted,
		GrossAmount: 50_000,
	}
	if _, err := ledger.ApplyTransition(ctx, input); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	result, err := ledger.ApplyTransition(ctx, input)
	if err != nil {
		t.Fatalf("duplicate apply: %v", err)
	}
	if result.Outcome != payment.OutcomeNoop {
		t.Fatalf("expected noop, got %s", result.Outcome)
	}
	if result.FirstCompletion {
		t.Fatal("duplicate must not carry the first-completion flag")
	}

	rows, _ := donations.ListByStreamer(ctx, "streamer-1", 10)
	if len(rows) != 1 {
		t.Fatalf("duplicate must not add a donation row, got %d", len(rows))
	}
	agg, _, _ := donors.GetByPlayer(ctx, "streamer-1", "12345")
	if agg.TotalDonations != 1 || agg.LifetimeAmount != 50_000 {
		t.Fatalf("duplicate must not change the aggregate: %+v", agg)
	}
}

func TestApplyTransition_StaleStatusDropped(t *testing.T) {
	ledger, _, _, _ := newTestLedger(t, []queue.Entry{pendingEntry("MABAR-1-AAAAAA")})
	ctx := context.Background()

	if _, err := ledger.ApplyTransition(ctx, payment.TransitionInput{
		OrderID: "MABAR-1-AAAAAA",
		To:      queue.PaymentCompleted,
	}); err != nil {
		t.Fatalf("settle: %v", err)
	}

	result, err := ledger.ApplyTransition(ctx, payment.TransitionInput{
		OrderID: "MABAR-1-AAAAAA",
		To:      queue.PaymentPending,
	})
	if err != nil {
		t.Fatalf("late pending: %v", err)
	}
	if result.Outcome != payment.OutcomeStale {
		t.Fatalf("expected stale, got %s", result.Outcome)
	}
	if result.Entry.PaymentStatus != queue.PaymentCompleted {
		t.Fatalf("terminal status must not regress, got %s", result.Entry.PaymentStatus)
	}

	result, err = ledger.ApplyTransition(ctx, payment.TransitionInput{
		OrderID: "MABAR-1-AAAAAA",
		To:      queue.PaymentFailed,
	})
	if err != nil {
		t.Fatalf("late failure: %v", err)
	}
	if result.Outcome != payment.OutcomeStale {
		t.Fatalf("expected stale for weaker terminal, got %s", result.Outcome)
	}
}

func TestApplyTransition_RefundAfterCompletion(t *testing.T) {
	ledger, _, _, _ := newTestLedger(t, []queue.Entry{pendingEntry("MABAR-1-AAAAAA")})
	ctx := context.Background()

	if _, err := ledger.ApplyTransition(ctx, payment.TransitionInput{
		OrderID: "MABAR-1-AAAAAA",
		To:      queue.PaymentCompleted,
	}); err != nil {
		t.Fatalf("settle: %v", err)
	}

	result, err := ledger.ApplyTransition(ctx, payment.TransitionInput{
		OrderID: "MABAR-1-AAAAAA",
		To:      queue.PaymentRefunded,
	})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if result.Outcome != payment.OutcomeApplied {
		t.Fatalf("refund outranks completed, got %s", result.Outcome)
	}
	if result.Entry.Status != queue.StatusCancelled {
		t.Fatalf("refund cancels the entry, got %s", result.Entry.Status)
	}
	if result.FirstCompletion {
		t.Fatal("refund is not a completion")
	}
}

func TestApplyTransition_FailureCancelsEntry(t *testing.T) {
	ledger, _, _, donations := newTestLedger(t, []queue.Entry{pendingEntry("MABAR-1-AAAAAA")})
	ctx := context.Background()

	result, err := ledger.ApplyTransition(ctx, payment.TransitionInput{
		OrderID: "MABAR-1-AAAAAA",
		To:      queue.PaymentFailed,
	})
	if err != nil {
		t.Fatalf("fail: %v", err)
	}
	if result.Outcome != payment.OutcomeApplied {
		t.Fatalf("expected applied, got %s", result.Outcome)
	}
	if result.Entry.Status != queue.StatusCancelled {
		t.Fatalf("failed payment cancels the entry, got %s", result.Entry.Status)
	}

	rows, _ := donations.ListByStreamer(ctx, "streamer-1", 10)
	if len(rows) != 0 {
		t.Fatalf("failure must not record a donation, got %d", len(rows))
	}
}

func TestApplyTransition_UnknownOrder(t *testing.T) {
	ledger, _, _, _ := newTestLedger(t, nil)

	result, err := ledger.ApplyTransition(context.Background(), payment.TransitionInput{
		OrderID: "MABAR-1-MISSING",
		To:      queue.PaymentCompleted,
	})
	if err != nil {
		t.Fatalf("unknown order: %v", err)
	}
	if result.Outcome != payment.OutcomeUnknownOrder {
		t.Fatalf("expected unknown_order, got %s", result.Outcome)
	}
}

func TestApplyTransition_AggregateAccumulatesAcrossOrders(t *testing.T) {
	first := pendingEntry("MABAR-1-AAAAAA")
	second := pendingEntry("MABAR-1-BBBBBB")
	second.ID = "q-MABAR-1-BBBBBB"
	second.QueuePosition = 2
	second.AmountPaid = 175_000

	ledger, _, donors, _ := newTestLedger(t, []queue.Entry{first, second})
	ctx := context.Background()

	for _, orderID := range []string{"MABAR-1-AAAAAA", "MABAR-1-BBBBBB"} {
		if _, err := ledger.ApplyTransition(ctx, payment.TransitionInput{
			OrderID: orderID,
			To:      queue.PaymentCompleted,
		}); err != nil {
			t.Fatalf("settle %s: %v", orderID, err)
		}
	}

	agg, exists, _ := donors.GetByPlayer(ctx, "streamer-1", "12345")
	if !exists {
		t.Fatal("expected aggregate")
	}
	if agg.TotalDonations != 2 {
		t.Fatalf("expected 2 donations, got %d", agg.TotalDonations)
	}
	if agg.LifetimeAmount != 225_000 {
		t.Fatalf("expected 225000 lifetime, got %d", agg.LifetimeAmount)
	}
	if agg.Tier != donor.TierSilver {
		t.Fatalf("225k lifetime is silver, got %s", agg.Tier)
	}
}

func TestApplyTransition_GrossAmountFallsBackToEntry(t *testing.T) {
	ledger, _, _, donations := newTestLedger(t, []queue.Entry{pendingEntry("MABAR-1-AAAAAA")})
	ctx := context.Background()

	if _, err := ledger.ApplyTransition(ctx, payment.TransitionInput{
		OrderID: "MABAR-1-AAAAAA",
		To:      queue.PaymentCompleted,
	}); err != nil {
		t.Fatalf("settle: %v", err)
	}

	rows, _ := donations.ListByStreamer(ctx, "streamer-1", 10)
	if len(rows) != 1 || rows[0].Amount != 50_000 {
		t.Fatalf("expected donation amount to fall back to entry amount, got %+v", rows)
	}
}
