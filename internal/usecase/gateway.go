package usecase

import (
	"context"
	"time"

	"github.com/lokastream/mabar-queue/internal/domain/payment"
)

// GatewayCustomer is the payer identity forwarded to the gateway.
type GatewayCustomer struct {
	Name  string
	Email string
	Phone string
}

// GatewayChargeRequest creates one transaction at the gateway. Charges are
// never retried internally; a retry with the same order id could double
// charge, so failures bubble up and the caller re-registers with a fresh
// order id.
type GatewayChargeRequest struct {
	OrderID     string
	Amount      int64
	Method      payment.MethodSpec
	Customer    GatewayCustomer
	CallbackURL string
}

// GatewayTransaction is the gateway's view of one transaction, shared by the
// charge response and status lookups.
type GatewayTransaction struct {
	TransactionID     string
	OrderID           string
	TransactionStatus string
	FraudStatus       string
	PaymentType       string
	StatusCode        string
	GrossAmount       string

	// Method-shaped payment instructions; at most one family is populated.
	QRCodeURL   string
	DeepLinkURL string
	VANumber    string

	ExpiresAt time.Time
}

// PaymentGateway abstracts the external payment provider.
type PaymentGateway interface {
	Charge(ctx context.Context, req GatewayChargeRequest) (GatewayTransaction, error)
	TransactionStatus(ctx context.Context, orderID string) (GatewayTransaction, error)
}
