package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lokastream/mabar-queue/internal/domain/payment"
	"github.com/lokastream/mabar-queue/internal/domain/queue"
	"github.com/lokastream/mabar-queue/internal/infrastructure/repository/memory"
	"github.com/lokastream/mabar-queue/internal/platform/logging"
	"github.com/lokastream/mabar-queue/internal/usecase"
)

const webhookServerKey = "SB-Mid-server-test"

func newWebhookHandler(t *testing.T) (*Handler, *memory.QueueRepository) {
	t.Helper()

	queues := memory.NewQueueRepository([]queue.Entry{{
		ID:            "entry-1",
		SettingsID:    "cfg-1",
		StreamerID:    "streamer-1",
		PlayerName:    "Asep",
		GameID:        "12345",
		GameNickname:  "asepgaming",
		Role:          "jungle",
		PaymentStatus: queue.PaymentPending,
		OrderID:       "MABAR-1-AAAAAA",
		AmountPaid:    50000,
		Status:        queue.StatusWaiting,
		JoinedAt:      time.Now(),
	}})
	ledger := memory.NewLedger(queues, memory.NewDonorRepository(nil), memory.NewDonationRepository(nil), nil)
	reconcile := usecase.NewReconcileService(ledger, webhookServerKey, nil, logging.NewNop())

	return NewHandler(nil, nil, reconcile, nil, nil, nil, nil, nil, nil, logging.NewNop()), queues
}

func TestHandlePaymentNotification_AcksBadSignature(t *testing.T) {
	handler, queues := newWebhookHandler(t)

	body := `{"order_id":"MABAR-1-AAAAAA","transaction_status":"settlement","status_code":"200","gross_amount":"50000.00","signature_key":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/notifications", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.HandlePaymentNotification(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for bad signature, got %d", rec.Code)
	}

	entry, _, err := queues.GetByOrderID(req.Context(), "MABAR-1-AAAAAA")
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if entry.PaymentStatus != queue.PaymentPending {
		t.Fatalf("expected payment to stay pending after dropped notification, got %s", entry.PaymentStatus)
	}
}

func TestHandlePaymentNotification_AppliesSettlement(t *testing.T) {
	handler, queues := newWebhookHandler(t)

	signature := payment.Signature("MABAR-1-AAAAAA", "200", "50000.00", webhookServerKey)
	body := `{"order_id":"MABAR-1-AAAAAA","transaction_status":"settlement","payment_type":"qris","status_code":"200","gross_amount":"50000.00","signature_key":"` + signature + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/notifications", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.HandlePaymentNotification(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	entry, _, err := queues.GetByOrderID(req.Context(), "MABAR-1-AAAAAA")
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if entry.PaymentStatus != queue.PaymentCompleted {
		t.Fatalf("expected payment completed, got %s", entry.PaymentStatus)
	}
}

func TestHandlePaymentNotification_AcksUnknownOrder(t *testing.T) {
	handler, _ := newWebhookHandler(t)

	signature := payment.Signature("MABAR-9-ZZZZZZ", "200", "50000.00", webhookServerKey)
	body := `{"order_id":"MABAR-9-ZZZZZZ","transaction_status":"settlement","status_code":"200","gross_amount":"50000.00","signature_key":"` + signature + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/notifications", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.HandlePaymentNotification(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for unknown order, got %d", rec.Code)
	}
}
