package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lokastream/mabar-queue/internal/domain/payment"
	"github.com/lokastream/mabar-queue/internal/domain/queue"
	"github.com/lokastream/mabar-queue/internal/platform/logging"
	"github.com/lokastream/mabar-queue/internal/platform/resilience"
)

// StatusView is the answer to a payment status query.
type StatusView struct {
	OrderID           string
	PaymentStatus     queue.PaymentStatus
	TransactionStatus string
	PaymentType       string
	ExpiresAt         time.Time
	Entry             *StatusEntryView
}

// StatusEntryView is the queue-side summary attached when the order is known
// locally.
type StatusEntryView struct {
	ID            string
	QueuePosition int
	PlayerName    string
	Status        queue.EntryStatus
}

// StatusService answers order status queries. Local state wins once
// terminal; otherwise the gateway is consulted live and the answer is folded
// back through the reconciler, which also recovers orphans that were charged
// but never persisted.
type StatusService struct {
	queueRepo queue.Repository
	gateway   PaymentGateway
	reconcile *ReconcileService
	flight    resilience.SingleFlight
	logger    *logging.Logger
}

func NewStatusService(
	queueRepo queue.Repository,
	gateway PaymentGateway,
	reconcile *ReconcileService,
	logger *logging.Logger,
) *StatusService {
	if logger == nil {
		logger = logging.Default()
	}

	return &StatusService{
		queueRepo: queueRepo,
		gateway:   gateway,
		reconcile: reconcile,
		logger:    logger,
	}
}

func (s *StatusService) GetStatus(ctx context.Context, orderID string) (StatusView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatusService.GetStatus")
	defer span.End()

	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return StatusView{}, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}

	entry, known, err := s.queueRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return StatusView{}, fmt.Errorf("get entry by order id: %w", err)
	}
	if known && entry.PaymentStatus.IsTerminal() {
		return localStatusView(orderID, entry), nil
	}

	// Concurrent pollers and user refreshes for the same order collapse
	// into one gateway lookup.
	value, lookupErr, _ := s.flight.Do("status:"+orderID, func() (any, error) {
		return s.gateway.TransactionStatus(ctx, orderID)
	})
	if lookupErr != nil {
		if known {
			s.logger.WarnContext(ctx, "gateway status lookup failed, serving local state",
				"order_id", orderID,
				"error", lookupErr,
			)
			return localStatusView(orderID, entry), nil
		}
		return StatusView{}, fmt.Errorf("%w: status lookup order_id=%s: %v", ErrGatewayUnavailable, orderID, lookupErr)
	}

	tx, ok := value.(GatewayTransaction)
	if !ok {
		return StatusView{}, fmt.Errorf("unexpected status lookup result type %T", value)
	}

	result, err := s.reconcile.ApplyGatewayState(ctx, tx)
	if err != nil {
		return StatusView{}, err
	}

	view := StatusView{
		OrderID:           orderID,
		PaymentStatus:     payment.MapStatus(tx.TransactionStatus, tx.FraudStatus),
		TransactionStatus: tx.TransactionStatus,
		PaymentType:       tx.PaymentType,
		ExpiresAt:         tx.ExpiresAt,
	}
	if result.Entry.ID != "" {
		view.PaymentStatus = result.Entry.PaymentStatus
		view.Entry = &StatusEntryView{
			ID:            result.Entry.ID,
			QueuePosition: result.Entry.QueuePosition,
			PlayerName:    result.Entry.PlayerName,
			Status:        result.Entry.Status,
		}
	}

	return view, nil
}

func localStatusView(orderID string, entry queue.Entry) StatusView {
	return StatusView{
		OrderID:           orderID,
		PaymentStatus:     entry.PaymentStatus,
		TransactionStatus: entry.GatewayStatus,
		PaymentType:       entry.GatewayPaymentType,
		Entry: &StatusEntryView{
			ID:            entry.ID,
			QueuePosition: entry.QueuePosition,
			PlayerName:    entry.PlayerName,
			Status:        entry.Status,
		},
	}
}
