package queue

import "testing"

func TestPaymentStatusPrecedence(t *testing.T) {
	order := []PaymentStatus{PaymentPending, PaymentFailed, PaymentCompleted, PaymentRefunded}
	for i := 1; i < len(order); i++ {
		if order[i].Precedence() <= order[i-1].Precedence() {
			t.Fatalf("expected %s to outrank %s", order[i], order[i-1])
		}
	}
	if PaymentStatus("bogus").Precedence() != -1 {
		t.Fatal("unknown status should have negative precedence")
	}
}

func TestPaymentStatusIsTerminal(t *testing.T) {
	if !PaymentCompleted.IsTerminal() || !PaymentRefunded.IsTerminal() {
		t.Fatal("completed and refunded are terminal")
	}
	if PaymentPending.IsTerminal() || PaymentFailed.IsTerminal() {
		t.Fatal("pending and failed are not terminal")
	}
}

func TestEntryStatusFor(t *testing.T) {
	cases := []struct {
		payment PaymentStatus
		current EntryStatus
		want    EntryStatus
	}{
		{PaymentCompleted, StatusWaiting, StatusWaiting},
		{PaymentCompleted, "", StatusWaiting},
		{PaymentCompleted, StatusPlaying, StatusPlaying},
		{PaymentFailed, StatusWaiting, StatusCancelled},
		{PaymentRefunded, StatusSelected, StatusCancelled},
		{PaymentPending, StatusWaiting, StatusWaiting},
	}

	for _, tc := range cases {
		if got := EntryStatusFor(tc.payment, tc.current); got != tc.want {
			t.Fatalf("EntryStatusFor(%s, %s) = %s, want %s", tc.payment, tc.current, got, tc.want)
		}
	}
}

func TestEntryStatusIsActive(t *testing.T) {
	active := []EntryStatus{StatusWaiting, StatusSelected, StatusPlaying}
	for _, s := range active {
		if !s.IsActive() {
			t.Fatalf("expected %s to be active", s)
		}
	}
	inactive := []EntryStatus{StatusCompleted, StatusCancelled, StatusNoShow}
	for _, s := range inactive {
		if s.IsActive() {
			t.Fatalf("expected %s to be inactive", s)
		}
	}
}

func TestParsePaymentStatus(t *testing.T) {
	got, err := ParsePaymentStatus(" Completed ")
	if err != nil {
		t.Fatalf("parse completed: %v", err)
	}
	if got != PaymentCompleted {
		t.Fatalf("expected completed, got %s", got)
	}

	if _, err := ParsePaymentStatus("paid"); err == nil {
		t.Fatal("expected unknown status to error")
	}
}

func TestEntryValidate(t *testing.T) {
	valid := Entry{
		SettingsID:   "mabar-1",
		StreamerID:   "streamer-1",
		PlayerName:   "Asep",
		GameID:       "12345",
		GameNickname: "AsepGG",
		Role:         "jungler",
		OrderID:      "MABAR-1-AAAAAA",
		AmountPaid:   50_000,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid entry rejected: %v", err)
	}

	missingOrder := valid
	missingOrder.OrderID = ""
	if err := missingOrder.Validate(); err == nil {
		t.Fatal("expected missing order id to be rejected")
	}

	zeroAmount := valid
	zeroAmount.AmountPaid = 0
	if err := zeroAmount.Validate(); err == nil {
		t.Fatal("expected zero amount to be rejected")
	}
}
