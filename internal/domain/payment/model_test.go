package payment

import (
	"testing"

	"github.com/lokastream/mabar-queue/internal/domain/queue"
)

func TestMapStatus(t *testing.T) {
	cases := []struct {
		transaction string
		fraud       string
		want        queue.PaymentStatus
	}{
		{"capture", "accept", queue.PaymentCompleted},
		{"capture", "challenge", queue.PaymentPending},
		{"capture", "", queue.PaymentPending},
		{"settlement", "", queue.PaymentCompleted},
		{"pending", "", queue.PaymentPending},
		{"deny", "", queue.PaymentFailed},
		{"cancel", "", queue.PaymentFailed},
		{"expire", "", queue.PaymentFailed},
		{"refund", "", queue.PaymentRefunded},
		{"partial_refund", "", queue.PaymentRefunded},
		{"SETTLEMENT", "", queue.PaymentCompleted},
		{"  capture  ", " ACCEPT ", queue.PaymentCompleted},
		{"authorize", "", queue.PaymentPending},
		{"", "", queue.PaymentPending},
	}

	for _, tc := range cases {
		if got := MapStatus(tc.transaction, tc.fraud); got != tc.want {
			t.Fatalf("MapStatus(%q, %q) = %s, want %s", tc.transaction, tc.fraud, got, tc.want)
		}
	}
}

func TestParseGrossAmount(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{"50000.00", 50000},
		{"75000", 75000},
		{" 100000.50 ", 100000},
		{"", 0},
		{"abc", 0},
		{".00", 0},
	}

	for _, tc := range cases {
		if got := ParseGrossAmount(tc.raw); got != tc.want {
			t.Fatalf("ParseGrossAmount(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}
