package midtrans

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/lokastream/mabar-queue/internal/domain/payment"
	"github.com/lokastream/mabar-queue/internal/platform/logging"
	"github.com/lokastream/mabar-queue/internal/platform/resilience"
	"github.com/lokastream/mabar-queue/internal/usecase"
)

func qrisSpec(t *testing.T) payment.MethodSpec {
	t.Helper()
	spec, err := payment.ResolveMethod("qris")
	if err != nil {
		t.Fatalf("resolve qris: %v", err)
	}
	return spec
}

func newTestClient(t *testing.T, srv *httptest.Server, retries int) *Client {
	t.Helper()
	return NewClient(ClientConfig{
		HTTPClient:    srv.Client(),
		BaseURL:       srv.URL,
		ServerKey:     "SB-Mid-server-test",
		StatusRetries: retries,
		Logger:        logging.NewNop(),
	})
}

func TestCharge_SendsAuthAndPayload(t *testing.T) {
	var captured chargePayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/charge" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("SB-Mid-server-test:"))
		if got := r.Header.Get("Authorization"); got != wantAuth {
			t.Fatalf("unexpected authorization header: %s", got)
		}
		raw, _ := io.ReadAll(r.Body)
		if err := sonic.Unmarshal(raw, &captured); err != nil {
			t.Fatalf("decode charge payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status_code": "201",
			"transaction_id": "tx-1",
			"order_id": "MABAR-1-AAAAAA",
			"payment_type": "qris",
			"transaction_status": "pending",
			"gross_amount": "50000.00",
			"actions": [{"name": "generate-qr-code", "url": "https://api.test/qr/tx-1"}]
		}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, 0)
	tx, err := client.Charge(context.Background(), usecase.GatewayChargeRequest{
		OrderID: "MABAR-1-AAAAAA",
		Amount:  50_000,
		Method:  qrisSpec(t),
		Customer: usecase.GatewayCustomer{
			Name:  "Asep",
			Email: "asep@example.com",
		},
	})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if tx.QRCodeURL != "https://api.test/qr/tx-1" {
		t.Fatalf("expected qr action mapped, got %q", tx.QRCodeURL)
	}
	if tx.TransactionStatus != "pending" {
		t.Fatalf("unexpected status: %s", tx.TransactionStatus)
	}

	if captured.PaymentType != "qris" {
		t.Fatalf("unexpected payment type: %s", captured.PaymentType)
	}
	if captured.TransactionDetails.OrderID != "MABAR-1-AAAAAA" || captured.TransactionDetails.GrossAmount != 50_000 {
		t.Fatalf("unexpected transaction details: %+v", captured.TransactionDetails)
	}
	if captured.CustomExpiry == nil || captured.CustomExpiry.ExpiryDuration != 15 {
		t.Fatalf("instant method carries a 15 minute expiry, got %+v", captured.CustomExpiry)
	}
}

func TestCharge_GatewayRejectionInHTTP200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status_code": "406", "status_message": "order_id has already been taken"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, 0)
	_, err := client.Charge(context.Background(), usecase.GatewayChargeRequest{
		OrderID: "MABAR-1-AAAAAA",
		Amount:  50_000,
		Method:  qrisSpec(t),
	})
	if err == nil || !strings.Contains(err.Error(), "order_id has already been taken") {
		t.Fatalf("expected gateway rejection surfaced, got %v", err)
	}
}

func TestCharge_NeverRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, 3)
	_, err := client.Charge(context.Background(), usecase.GatewayChargeRequest{
		OrderID: "MABAR-1-AAAAAA",
		Amount:  50_000,
		Method:  qrisSpec(t),
	})
	if err == nil {
		t.Fatal("expected charge failure")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("a charge must go out exactly once, got %d attempts", got)
	}
}

func TestTransactionStatus_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status_code": "200", "order_id": "MABAR-1-AAAAAA", "transaction_status": "settlement", "gross_amount": "50000.00"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, 2)
	tx, err := client.TransactionStatus(context.Background(), "MABAR-1-AAAAAA")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if tx.TransactionStatus != "settlement" {
		t.Fatalf("unexpected status: %s", tx.TransactionStatus)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected one retry, got %d attempts", got)
	}
}

func TestTransactionStatus_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status_code": "404", "status_message": "Transaction doesn't exist."}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, 0)
	if _, err := client.TransactionStatus(context.Background(), "MABAR-1-MISSING"); err == nil {
		t.Fatal("expected missing transaction to error")
	}
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
		ServerKey:  "SB-Mid-server-test",
		Logger:     logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := client.TransactionStatus(ctx, "MABAR-1-AAAAAA"); err == nil {
			t.Fatal("expected failure")
		}
	}
	before := calls.Load()

	_, err := client.TransactionStatus(ctx, "MABAR-1-AAAAAA")
	if err == nil {
		t.Fatal("expected open circuit to reject")
	}
	if calls.Load() != before {
		t.Fatal("open circuit must not reach the gateway")
	}
}

func TestEnvelopeToTransaction_VANumbers(t *testing.T) {
	env := transactionEnvelope{
		OrderID:   "MABAR-1-AAAAAA",
		VANumbers: []vaNumber{{Bank: "bca", VANumber: "1234567890"}},
	}
	if got := env.toTransaction().VANumber; got != "1234567890" {
		t.Fatalf("unexpected va number: %s", got)
	}

	permata := transactionEnvelope{PermataVANumber: "987654"}
	if got := permata.toTransaction().VANumber; got != "987654" {
		t.Fatalf("unexpected permata va: %s", got)
	}

	mandiri := transactionEnvelope{BillKey: "111222", BillerCode: "70012"}
	if got := mandiri.toTransaction().VANumber; got != "70012 111222" {
		t.Fatalf("unexpected mandiri bill: %s", got)
	}
}

func TestEnvelopeToTransaction_ExpiryJakarta(t *testing.T) {
	env := transactionEnvelope{ExpiryTime: "2026-09-01 20:30:00"}
	tx := env.toTransaction()
	if tx.ExpiresAt.IsZero() {
		t.Fatal("expected expiry parsed")
	}
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	want := time.Date(2026, 9, 1, 20, 30, 0, 0, loc)
	if !tx.ExpiresAt.Equal(want) {
		t.Fatalf("expected %s, got %s", want, tx.ExpiresAt)
	}
}
