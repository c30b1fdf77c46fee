package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/lokastream/mabar-queue/internal/domain/payment"
	"github.com/lokastream/mabar-queue/internal/domain/queue"
	"github.com/lokastream/mabar-queue/internal/domain/settings"
	"github.com/lokastream/mabar-queue/internal/infrastructure/repository/memory"
	idgen "github.com/lokastream/mabar-queue/internal/platform/id"
	"github.com/lokastream/mabar-queue/internal/platform/logging"
)

type fakeGateway struct {
	chargeErr error
	charges   []GatewayChargeRequest
	statusFn  func(orderID string) (GatewayTransaction, error)
}

func (g *fakeGateway) Charge(_ context.Context, req GatewayChargeRequest) (GatewayTransaction, error) {
	g.charges = append(g.charges, req)
	if g.chargeErr != nil {
		return GatewayTransaction{}, g.chargeErr
	}
	return GatewayTransaction{
		TransactionID:     "tx-" + req.OrderID,
		OrderID:           req.OrderID,
		TransactionStatus: "pending",
		PaymentType:       req.Method.GatewayType,
		QRCodeURL:         "https://gateway.test/qr/" + req.OrderID,
	}, nil
}

func (g *fakeGateway) TransactionStatus(_ context.Context, orderID string) (GatewayTransaction, error) {
	if g.statusFn != nil {
		return g.statusFn(orderID)
	}
	return GatewayTransaction{OrderID: orderID, TransactionStatus: "pending"}, nil
}

func testSettings() settings.Settings {
	return settings.Settings{
		ID:                "mabar-1",
		StreamerID:        "streamer-1",
		GameType:          "Mobile Legends",
		PricePerSlot:      50_000,
		Currency:          "IDR",
		MaxQueueSize:      2,
		MinPlayersToStart: 1,
		Roles: []settings.Role{
			{ID: "jungler", Name: "Jungler"},
			{ID: "roamer", Name: "Roamer"},
		},
		CustomFields: []settings.CustomField{
			{ID: "discord", Label: "Discord handle", Required: true},
		},
		IsActive: true,
	}
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		SettingsID:    "mabar-1",
		PlayerName:    "Asep",
		GameID:        "12345",
		GameNickname:  "AsepGG",
		Role:          "jungler",
		PaymentMethod: "qris",
		CustomData:    []queue.CustomValue{{FieldID: "discord", Label: "Discord handle", Value: "asep#1"}},
	}
}

func newRegistrationFixture(t *testing.T, gateway *fakeGateway) (*RegistrationService, *memory.QueueRepository) {
	t.Helper()
	queues := memory.NewQueueRepository(nil)
	svc := NewRegistrationService(
		memory.NewSettingsRepository([]settings.Settings{testSettings()}),
		queues,
		gateway,
		idgen.NewOrderGenerator("MABAR"),
		idgen.NewRandomGenerator(),
		nil,
		logging.NewNop(),
		"https://mabar.lokastream.id/payments/callback",
	)
	return svc, queues
}

func TestRegister_CreatesPendingEntry(t *testing.T) {
	gateway := &fakeGateway{}
	svc, queues := newRegistrationFixture(t, gateway)
	ctx := context.Background()

	instructions, err := svc.Register(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !instructions.Persisted {
		t.Fatal("expected persisted instructions")
	}
	if instructions.OrderID == "" || instructions.QueueEntryID == "" {
		t.Fatalf("expected populated identifiers: %+v", instructions)
	}
	if instructions.QueuePosition != 1 {
		t.Fatalf("first registration takes position 1, got %d", instructions.QueuePosition)
	}
	if instructions.Family != payment.FamilyQR || instructions.QRCodeURL == "" {
		t.Fatalf("expected qr instructions: %+v", instructions)
	}

	if len(gateway.charges) != 1 {
		t.Fatalf("expected exactly one charge, got %d", len(gateway.charges))
	}
	if gateway.charges[0].Amount != 50_000 {
		t.Fatalf("charge must use the configured slot price, got %d", gateway.charges[0].Amount)
	}

	entry, ok, _ := queues.GetByOrderID(ctx, instructions.OrderID)
	if !ok {
		t.Fatal("expected entry persisted under the order id")
	}
	if entry.PaymentStatus != queue.PaymentPending || entry.Status != queue.StatusWaiting {
		t.Fatalf("new entry must be pending/waiting, got %s/%s", entry.PaymentStatus, entry.Status)
	}
	if entry.AmountPaid != 50_000 {
		t.Fatalf("entry amount must come from settings, got %d", entry.AmountPaid)
	}
}

func TestRegister_PositionsStrictlyIncrease(t *testing.T) {
	svc, _ := newRegistrationFixture(t, &fakeGateway{})
	ctx := context.Background()

	first, err := svc.Register(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("first register: %v", err)
	}

	second := validRegisterInput()
	second.PlayerName = "Budi"
	second.GameID = "67890"
	got, err := svc.Register(ctx, second)
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if got.QueuePosition != first.QueuePosition+1 {
		t.Fatalf("positions must strictly increase: %d then %d", first.QueuePosition, got.QueuePosition)
	}
}

func TestRegister_QueueFull(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _ := newRegistrationFixture(t, gateway)
	ctx := context.Background()

	for _, name := range []string{"Asep", "Budi"} {
		input := validRegisterInput()
		input.PlayerName = name
		if _, err := svc.Register(ctx, input); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	overflow := validRegisterInput()
	overflow.PlayerName = "Cecep"
	if _, err := svc.Register(ctx, overflow); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict when queue is full, got %v", err)
	}
	if len(gateway.charges) != 2 {
		t.Fatalf("full queue must be rejected before charging, got %d charges", len(gateway.charges))
	}
}

func TestRegister_ValidationFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"unknown settings", func(in *RegisterInput) { in.SettingsID = "missing" }},
		{"unknown role", func(in *RegisterInput) { in.Role = "midlaner" }},
		{"amount mismatch", func(in *RegisterInput) { in.Amount = 10_000 }},
		{"unsupported method", func(in *RegisterInput) { in.PaymentMethod = "credit_card" }},
		{"missing custom field", func(in *RegisterInput) { in.CustomData = nil }},
		{"empty player name", func(in *RegisterInput) { in.PlayerName = "  " }},
	}

	gateway := &fakeGateway{}
	svc, _ := newRegistrationFixture(t, gateway)

	for _, tc := range cases {
		input := validRegisterInput()
		tc.mutate(&input)
		_, err := svc.Register(context.Background(), input)
		if err == nil {
			t.Fatalf("%s: expected rejection", tc.name)
		}
		if !errors.Is(err, ErrInvalidInput) && !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
	if len(gateway.charges) != 0 {
		t.Fatalf("rejected registrations must never charge, got %d", len(gateway.charges))
	}
}

func TestRegister_GatewayFailure(t *testing.T) {
	gateway := &fakeGateway{chargeErr: errors.New("connection refused")}
	svc, queues := newRegistrationFixture(t, gateway)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterInput())
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected gateway unavailable, got %v", err)
	}

	active, _ := queues.CountActive(ctx, "mabar-1")
	if active != 0 {
		t.Fatalf("failed charge must not leave an entry behind, got %d", active)
	}
}

type failingCreateQueueRepo struct {
	*memory.QueueRepository
	err error
}

func (r *failingCreateQueueRepo) Create(_ context.Context, _ queue.Entry) (queue.Entry, error) {
	return queue.Entry{}, r.err
}

func TestRegister_PersistFailureReturnsOrphanInstructions(t *testing.T) {
	gateway := &fakeGateway{}
	queues := &failingCreateQueueRepo{
		QueueRepository: memory.NewQueueRepository(nil),
		err:             errors.New("disk on fire"),
	}
	svc := NewRegistrationService(
		memory.NewSettingsRepository([]settings.Settings{testSettings()}),
		queues,
		gateway,
		idgen.NewOrderGenerator("MABAR"),
		idgen.NewRandomGenerator(),
		nil,
		logging.NewNop(),
		"",
	)

	instructions, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("a charged order must still reach the payer: %v", err)
	}
	if instructions.Persisted {
		t.Fatal("expected Persisted=false when the entry could not be stored")
	}
	if instructions.OrderID == "" || instructions.QRCodeURL == "" {
		t.Fatalf("orphan instructions must keep the gateway descriptor: %+v", instructions)
	}
}
