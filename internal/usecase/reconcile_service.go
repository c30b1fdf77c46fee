package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lokastream/mabar-queue/internal/domain/payment"
	"github.com/lokastream/mabar-queue/internal/domain/queue"
	"github.com/lokastream/mabar-queue/internal/platform/logging"
)

// ReconcileService aligns local payment state with the gateway's
// authoritative state. Webhook deliveries, poller ticks and manual overrides
// all funnel through the same conditional apply, so racing duplicates
// resolve to a single effect.
type ReconcileService struct {
	ledger    payment.Ledger
	serverKey string
	events    EventPublisher
	logger    *logging.Logger
	now       func() time.Time
}

func NewReconcileService(
	ledger payment.Ledger,
	serverKey string,
	events EventPublisher,
	logger *logging.Logger,
) *ReconcileService {
	if logger == nil {
		logger = logging.Default()
	}
	if events == nil {
		events = NoopEventPublisher{}
	}

	return &ReconcileService{
		ledger:    ledger,
		serverKey: serverKey,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleNotification verifies and applies one gateway notification. The
// returned error is for internal observation only: the webhook transport
// always acknowledges success regardless, so the gateway never enters a
// retry storm over a business-layer drop.
func (s *ReconcileService) HandleNotification(ctx context.Context, n payment.Notification) (payment.TransitionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcileService.HandleNotification")
	defer span.End()

	n.OrderID = strings.TrimSpace(n.OrderID)
	if n.OrderID == "" {
		return payment.TransitionResult{}, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}

	if s.serverKey != "" && !payment.VerifySignature(n, s.serverKey) {
		s.logger.WarnContext(ctx, "notification signature mismatch",
			"order_id", n.OrderID,
			"transaction_status", n.TransactionStatus,
		)
		return payment.TransitionResult{}, ErrSignatureMismatch
	}

	mapped := payment.MapStatus(n.TransactionStatus, n.FraudStatus)
	return s.apply(ctx, payment.TransitionInput{
		OrderID:       n.OrderID,
		To:            mapped,
		GatewayStatus: strings.ToLower(strings.TrimSpace(n.TransactionStatus)),
		PaymentType:   n.PaymentType,
		GrossAmount:   n.GrossAmountValue(),
		ObservedAt:    s.now(),
	})
}

// ApplyGatewayState applies a transaction fetched from a status lookup. The
// poller and the status query share this path with webhooks.
func (s *ReconcileService) ApplyGatewayState(ctx context.Context, tx GatewayTransaction) (payment.TransitionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcileService.ApplyGatewayState")
	defer span.End()

	orderID := strings.TrimSpace(tx.OrderID)
	if orderID == "" {
		return payment.TransitionResult{}, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}

	mapped := payment.MapStatus(tx.TransactionStatus, tx.FraudStatus)
	return s.apply(ctx, payment.TransitionInput{
		OrderID:       orderID,
		To:            mapped,
		GatewayStatus: strings.ToLower(strings.TrimSpace(tx.TransactionStatus)),
		PaymentType:   tx.PaymentType,
		GrossAmount:   payment.ParseGrossAmount(tx.GrossAmount),
		ObservedAt:    s.now(),
	})
}

// ApplyManualOverride forces a payment status from the operator surface. It
// still runs through the conditional apply: terminal states stay monotonic
// even for admins.
func (s *ReconcileService) ApplyManualOverride(ctx context.Context, orderID, newStatus string) (payment.TransitionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcileService.ApplyManualOverride")
	defer span.End()

	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return payment.TransitionResult{}, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}

	status, err := queue.ParsePaymentStatus(newStatus)
	if err != nil {
		return payment.TransitionResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	result, err := s.apply(ctx, payment.TransitionInput{
		OrderID:       orderID,
		To:            status,
		GatewayStatus: "manual_override",
		ObservedAt:    s.now(),
	})
	if err != nil {
		return result, err
	}
	if result.Outcome == payment.OutcomeUnknownOrder {
		return result, fmt.Errorf("%w: order=%s", ErrNotFound, orderID)
	}

	return result, nil
}

func (s *ReconcileService) apply(ctx context.Context, input payment.TransitionInput) (payment.TransitionResult, error) {
	result, err := s.ledger.ApplyTransition(ctx, input)
	if err != nil {
		s.logger.ErrorContext(ctx, "apply payment transition failed",
			"order_id", input.OrderID,
			"to", string(input.To),
			"error", err,
		)
		return result, fmt.Errorf("apply payment transition order_id=%s: %w", input.OrderID, err)
	}

	switch result.Outcome {
	case payment.OutcomeApplied:
		s.logger.InfoContext(ctx, "payment transition applied",
			"order_id", input.OrderID,
			"gateway_status", input.GatewayStatus,
			"payment_status", string(result.Entry.PaymentStatus),
			"entry_status", string(result.Entry.Status),
			"first_completion", result.FirstCompletion,
		)
		s.publishResult(ctx, input, result)
	case payment.OutcomeNoop:
		s.logger.DebugContext(ctx, "payment transition already applied",
			"order_id", input.OrderID,
			"payment_status", string(result.Entry.PaymentStatus),
		)
	case payment.OutcomeStale:
		// Terminal states are monotonic; a late weaker status is dropped,
		// not an error.
		s.logger.InfoContext(ctx, "stale notification dropped",
			"order_id", input.OrderID,
			"current_status", string(result.Entry.PaymentStatus),
			"incoming_status", string(input.To),
		)
	case payment.OutcomeUnknownOrder:
		// This system may never have durably recorded the order; the
		// gateway must not retry indefinitely over it.
		s.logger.InfoContext(ctx, "notification for unknown order acknowledged",
			"order_id", input.OrderID,
		)
	}

	return result, nil
}

func (s *ReconcileService) publishResult(ctx context.Context, input payment.TransitionInput, result payment.TransitionResult) {
	entry := result.Entry
	if err := s.events.Publish(ctx, ChangeEvent{
		Type:       EventTypeQueueEntry,
		Action:     EventActionUpdate,
		StreamerID: entry.StreamerID,
		DedupID:    fmt.Sprintf("queue-%s-%s", entry.ID, entry.PaymentStatus),
		Payload:    entry,
	}); err != nil {
		s.logger.WarnContext(ctx, "publish queue entry event failed", "entry_id", entry.ID, "error", err)
	}

	if !result.FirstCompletion {
		return
	}
	if err := s.events.Publish(ctx, ChangeEvent{
		Type:       EventTypeDonation,
		Action:     EventActionInsert,
		StreamerID: entry.StreamerID,
		DedupID:    "donation-" + input.OrderID,
		Payload: map[string]any{
			"order_id":   input.OrderID,
			"donor_name": entry.PlayerName,
			"amount":     entry.AmountPaid,
		},
	}); err != nil {
		s.logger.WarnContext(ctx, "publish donation event failed", "order_id", input.OrderID, "error", err)
	}
}
