package queue

import (
	"fmt"
	"strings"
	"time"
)

// PaymentStatus is the financial state of an entry's gateway transaction.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// EntryStatus is the queue-lifecycle state of an entry. It is a separate
// axis from PaymentStatus.
type EntryStatus string

const (
	StatusWaiting   EntryStatus = "waiting"
	StatusSelected  EntryStatus = "selected"
	StatusPlaying   EntryStatus = "playing"
	StatusCompleted EntryStatus = "completed"
	StatusCancelled EntryStatus = "cancelled"
	StatusNoShow    EntryStatus = "no_show"
)

// Precedence orders payment statuses from weakest to most terminal. A
// transition is only ever applied towards a strictly higher precedence,
// which keeps resolution monotonic under webhook/poller races.
func (s PaymentStatus) Precedence() int {
	switch s {
	case PaymentPending:
		return 0
	case PaymentFailed:
		return 1
	case PaymentCompleted:
		return 2
	case PaymentRefunded:
		return 3
	default:
		return -1
	}
}

// IsTerminal reports whether the status can never be weakened again.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentCompleted || s == PaymentRefunded
}

func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	switch PaymentStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case PaymentPending:
		return PaymentPending, nil
	case PaymentCompleted:
		return PaymentCompleted, nil
	case PaymentFailed:
		return PaymentFailed, nil
	case PaymentRefunded:
		return PaymentRefunded, nil
	default:
		return "", fmt.Errorf("unknown payment status %q", raw)
	}
}

// EntryStatusFor returns the queue status that follows a payment status, per
// the reconciliation rules: a completed payment keeps the player waiting for
// selection, a failed or refunded payment removes them from the queue.
func EntryStatusFor(payment PaymentStatus, current EntryStatus) EntryStatus {
	switch payment {
	case PaymentCompleted:
		if current == StatusWaiting || current == "" {
			return StatusWaiting
		}
		return current
	case PaymentFailed, PaymentRefunded:
		return StatusCancelled
	default:
		return current
	}
}

// IsActive reports whether the entry still occupies a queue position.
// Positions held by active entries are never reallocated.
func (s EntryStatus) IsActive() bool {
	return s == StatusWaiting || s == StatusSelected || s == StatusPlaying
}

// CustomValue is one answered custom registration field.
type CustomValue struct {
	FieldID string
	Label   string
	Value   string
}

// Entry is one player's registration and payment record inside a streamer's
// queue namespace.
type Entry struct {
	ID         string
	SettingsID string
	StreamerID string

	PlayerName   string
	GameID       string
	GameNickname string
	Role         string

	Email string
	Phone string

	PaymentStatus PaymentStatus
	OrderID       string
	PaymentMethod string
	AmountPaid    int64

	// Last raw gateway vocabulary observed for this order, kept for
	// operator-facing diagnostics.
	GatewayStatus      string
	GatewayPaymentType string

	QueuePosition int
	Status        EntryStatus

	CustomData []CustomValue

	JoinedAt  time.Time
	UpdatedAt time.Time
}

func (e Entry) Validate() error {
	if e.SettingsID == "" {
		return fmt.Errorf("queue entry settings id is required")
	}
	if e.StreamerID == "" {
		return fmt.Errorf("queue entry streamer id is required")
	}
	if e.PlayerName == "" {
		return fmt.Errorf("queue entry player name is required")
	}
	if e.GameID == "" {
		return fmt.Errorf("queue entry game id is required")
	}
	if e.GameNickname == "" {
		return fmt.Errorf("queue entry game nickname is required")
	}
	if e.Role == "" {
		return fmt.Errorf("queue entry role is required")
	}
	if e.OrderID == "" {
		return fmt.Errorf("queue entry order id is required")
	}
	if e.AmountPaid <= 0 {
		return fmt.Errorf("queue entry amount must be greater than zero")
	}

	return nil
}
