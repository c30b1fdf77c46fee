package payment

import (
	"strconv"
	"strings"

	"github.com/lokastream/mabar-queue/internal/domain/queue"
)

// Gateway transaction vocabulary, as delivered in webhook notifications and
// status lookups.
const (
	GatewayStatusCapture       = "capture"
	GatewayStatusSettlement    = "settlement"
	GatewayStatusPending       = "pending"
	GatewayStatusDeny          = "deny"
	GatewayStatusCancel        = "cancel"
	GatewayStatusExpire        = "expire"
	GatewayStatusRefund        = "refund"
	GatewayStatusPartialRefund = "partial_refund"

	FraudStatusAccept = "accept"
)

// Notification is the payload the gateway POSTs to the webhook endpoint.
type Notification struct {
	OrderID           string
	TransactionID     string
	TransactionStatus string
	FraudStatus       string
	PaymentType       string
	StatusCode        string
	SignatureKey      string
	GrossAmount       string
	Currency          string
	TransactionTime   string
	SettlementTime    string
}

// GrossAmountValue parses the notification's decimal-string amount.
func (n Notification) GrossAmountValue() int64 {
	return ParseGrossAmount(n.GrossAmount)
}

// ParseGrossAmount converts the gateway's decimal-string amount into whole
// currency units. "50000.00" becomes 50000.
func ParseGrossAmount(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if dot := strings.IndexByte(raw, '.'); dot >= 0 {
		raw = raw[:dot]
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}

	return value
}

// MapStatus translates gateway vocabulary into the internal payment status.
// "capture" completes only when the fraud check accepted the transaction;
// a challenged capture stays pending until a follow-up notification or a
// poller pass resolves it.
func MapStatus(transactionStatus, fraudStatus string) queue.PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(transactionStatus)) {
	case GatewayStatusCapture:
		if strings.EqualFold(strings.TrimSpace(fraudStatus), FraudStatusAccept) {
			return queue.PaymentCompleted
		}
		return queue.PaymentPending
	case GatewayStatusSettlement:
		return queue.PaymentCompleted
	case GatewayStatusPending:
		return queue.PaymentPending
	case GatewayStatusDeny, GatewayStatusCancel, GatewayStatusExpire:
		return queue.PaymentFailed
	case GatewayStatusRefund, GatewayStatusPartialRefund:
		return queue.PaymentRefunded
	default:
		return queue.PaymentPending
	}
}
