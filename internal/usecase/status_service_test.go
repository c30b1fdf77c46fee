package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/lokastream/mabar-queue/internal/domain/queue"
	"github.com/lokastream/mabar-queue/internal/infrastructure/repository/memory"
	"github.com/lokastream/mabar-queue/internal/platform/logging"
)

func newStatusFixture(t *testing.T, entries []queue.Entry, gateway *fakeGateway) (*StatusService, *memory.QueueRepository) {
	t.Helper()
	queues := memory.NewQueueRepository(entries)
	ledger := memory.NewLedger(queues, memory.NewDonorRepository(nil), memory.NewDonationRepository(nil), nil)
	reconcile := NewReconcileService(ledger, "", nil, logging.NewNop())
	return NewStatusService(queues, gateway, reconcile, logging.NewNop()), queues
}

func TestGetStatus_TerminalLocalStateSkipsGateway(t *testing.T) {
	entry := testPendingEntry("MABAR-1-AAAAAA")
	entry.PaymentStatus = queue.PaymentCompleted
	entry.GatewayStatus = "settlement"

	gateway := &fakeGateway{statusFn: func(string) (GatewayTransaction, error) {
		t.Fatal("terminal local state must not hit the gateway")
		return GatewayTransaction{}, nil
	}}
	svc, _ := newStatusFixture(t, []queue.Entry{entry}, gateway)

	view, err := svc.GetStatus(context.Background(), "MABAR-1-AAAAAA")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if view.PaymentStatus != queue.PaymentCompleted {
		t.Fatalf("expected completed, got %s", view.PaymentStatus)
	}
	if view.Entry == nil || view.Entry.PlayerName != "Asep" {
		t.Fatalf("expected local entry view, got %+v", view.Entry)
	}
}

func TestGetStatus_PendingConsultsGatewayAndReconciles(t *testing.T) {
	gateway := &fakeGateway{statusFn: func(orderID string) (GatewayTransaction, error) {
		return GatewayTransaction{
			OrderID:           orderID,
			TransactionStatus: "settlement",
			GrossAmount:       "50000.00",
			PaymentType:       "qris",
		}, nil
	}}
	svc, queues := newStatusFixture(t, []queue.Entry{testPendingEntry("MABAR-1-AAAAAA")}, gateway)
	ctx := context.Background()

	view, err := svc.GetStatus(ctx, "MABAR-1-AAAAAA")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if view.PaymentStatus != queue.PaymentCompleted {
		t.Fatalf("expected gateway settlement folded in, got %s", view.PaymentStatus)
	}

	entry, _, _ := queues.GetByOrderID(ctx, "MABAR-1-AAAAAA")
	if entry.PaymentStatus != queue.PaymentCompleted {
		t.Fatalf("lookup must persist the reconciled state, got %s", entry.PaymentStatus)
	}
}

func TestGetStatus_GatewayDownServesLocalPending(t *testing.T) {
	gateway := &fakeGateway{statusFn: func(string) (GatewayTransaction, error) {
		return GatewayTransaction{}, errors.New("connection refused")
	}}
	svc, _ := newStatusFixture(t, []queue.Entry{testPendingEntry("MABAR-1-AAAAAA")}, gateway)

	view, err := svc.GetStatus(context.Background(), "MABAR-1-AAAAAA")
	if err != nil {
		t.Fatalf("known order must fall back to local state: %v", err)
	}
	if view.PaymentStatus != queue.PaymentPending {
		t.Fatalf("expected pending fallback, got %s", view.PaymentStatus)
	}
}

func TestGetStatus_UnknownOrderGatewayDown(t *testing.T) {
	gateway := &fakeGateway{statusFn: func(string) (GatewayTransaction, error) {
		return GatewayTransaction{}, errors.New("connection refused")
	}}
	svc, _ := newStatusFixture(t, nil, gateway)

	_, err := svc.GetStatus(context.Background(), "MABAR-1-MISSING")
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected gateway unavailable, got %v", err)
	}
}

func TestGetStatus_EmptyOrderID(t *testing.T) {
	svc, _ := newStatusFixture(t, nil, &fakeGateway{})

	if _, err := svc.GetStatus(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
