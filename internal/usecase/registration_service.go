package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lokastream/mabar-queue/internal/domain/payment"
	"github.com/lokastream/mabar-queue/internal/domain/queue"
	"github.com/lokastream/mabar-queue/internal/domain/settings"
	idgen "github.com/lokastream/mabar-queue/internal/platform/id"
	"github.com/lokastream/mabar-queue/internal/platform/logging"
)

const positionAllocateAttempts = 5

// RegisterInput is the incoming payload for a paid queue registration.
type RegisterInput struct {
	SettingsID    string
	PlayerName    string
	GameID        string
	GameNickname  string
	Role          string
	Email         string
	Phone         string
	PaymentMethod string
	Amount        int64
	CustomData    []queue.CustomValue
}

// PaymentInstructions is the method-shaped descriptor returned to the payer.
type PaymentInstructions struct {
	OrderID       string
	QueueEntryID  string
	QueuePosition int
	Method        string
	Family        payment.Family

	QRCodeURL   string
	DeepLinkURL string
	VANumber    string
	ExpiresAt   time.Time

	TransactionStatus string
	// Persisted is false when the charge succeeded but the queue entry could
	// not be stored; the order stays reconcilable at the gateway by its
	// order id.
	Persisted bool
}

type RegistrationService struct {
	settingsRepo settings.Repository
	queueRepo    queue.Repository
	gateway      PaymentGateway
	orderGen     idgen.OrderGenerator
	idGen        idgen.Generator
	events       EventPublisher
	logger       *logging.Logger
	callbackURL  string
	now          func() time.Time
}

func NewRegistrationService(
	settingsRepo settings.Repository,
	queueRepo queue.Repository,
	gateway PaymentGateway,
	orderGen idgen.OrderGenerator,
	idGen idgen.Generator,
	events EventPublisher,
	logger *logging.Logger,
	callbackURL string,
) *RegistrationService {
	if logger == nil {
		logger = logging.Default()
	}
	if events == nil {
		events = NoopEventPublisher{}
	}

	return &RegistrationService{
		settingsRepo: settingsRepo,
		queueRepo:    queueRepo,
		gateway:      gateway,
		orderGen:     orderGen,
		idGen:        idGen,
		events:       events,
		logger:       logger,
		callbackURL:  callbackURL,
		now:          time.Now,
	}
}

// Register creates a gateway transaction and a pending queue entry. The
// gateway call is synchronous with no internal retry: a failed call must not
// risk a double charge, so the user retries with a fresh order id instead.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (PaymentInstructions, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RegistrationService.Register")
	defer span.End()

	input.SettingsID = strings.TrimSpace(input.SettingsID)
	input.PlayerName = strings.TrimSpace(input.PlayerName)
	input.GameID = strings.TrimSpace(input.GameID)
	input.GameNickname = strings.TrimSpace(input.GameNickname)
	input.Role = strings.TrimSpace(input.Role)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)

	cfg, err := s.validateRegistration(ctx, input)
	if err != nil {
		return PaymentInstructions{}, err
	}

	spec, err := payment.ResolveMethod(input.PaymentMethod)
	if err != nil {
		return PaymentInstructions{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	orderID, err := s.orderGen.NewOrderID()
	if err != nil {
		return PaymentInstructions{}, fmt.Errorf("generate order id: %w", err)
	}

	tx, err := s.gateway.Charge(ctx, GatewayChargeRequest{
		OrderID: orderID,
		Amount:  cfg.PricePerSlot,
		Method:  spec,
		Customer: GatewayCustomer{
			Name:  input.PlayerName,
			Email: input.Email,
			Phone: input.Phone,
		},
		CallbackURL: s.callbackURL,
	})
	if err != nil {
		return PaymentInstructions{}, fmt.Errorf("%w: charge order_id=%s: %v", ErrGatewayUnavailable, orderID, err)
	}

	instructions := PaymentInstructions{
		OrderID:           orderID,
		Method:            spec.Token,
		Family:            spec.Family,
		QRCodeURL:         tx.QRCodeURL,
		DeepLinkURL:       tx.DeepLinkURL,
		VANumber:          tx.VANumber,
		ExpiresAt:         tx.ExpiresAt,
		TransactionStatus: tx.TransactionStatus,
	}

	entry, err := s.persistEntry(ctx, cfg, input, spec, tx)
	if err != nil {
		// The charge already happened: losing the row here must not lose
		// the money. The descriptor still goes back to the payer and the
		// status poller reconciles the orphan through the gateway order id.
		s.logger.ErrorContext(ctx, "queue entry persist failed after successful charge",
			"order_id", orderID,
			"settings_id", cfg.ID,
			"error", err,
		)
		return instructions, nil
	}

	instructions.QueueEntryID = entry.ID
	instructions.QueuePosition = entry.QueuePosition
	instructions.Persisted = true

	if err := s.events.Publish(ctx, ChangeEvent{
		Type:       EventTypeQueueEntry,
		Action:     EventActionInsert,
		StreamerID: entry.StreamerID,
		DedupID:    "queue-insert-" + entry.ID,
		Payload:    entry,
	}); err != nil {
		s.logger.WarnContext(ctx, "publish queue entry event failed", "entry_id", entry.ID, "error", err)
	}

	return instructions, nil
}

func (s *RegistrationService) validateRegistration(ctx context.Context, input RegisterInput) (settings.Settings, error) {
	if input.SettingsID == "" {
		return settings.Settings{}, fmt.Errorf("%w: settings id is required", ErrInvalidInput)
	}
	if input.PlayerName == "" {
		return settings.Settings{}, fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}
	if input.GameID == "" {
		return settings.Settings{}, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}
	if input.GameNickname == "" {
		return settings.Settings{}, fmt.Errorf("%w: game nickname is required", ErrInvalidInput)
	}
	if input.Role == "" {
		return settings.Settings{}, fmt.Errorf("%w: role is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.PaymentMethod) == "" {
		return settings.Settings{}, fmt.Errorf("%w: payment method is required", ErrInvalidInput)
	}

	cfg, exists, err := s.settingsRepo.GetByID(ctx, input.SettingsID)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	if !exists {
		return settings.Settings{}, fmt.Errorf("%w: settings=%s", ErrNotFound, input.SettingsID)
	}
	if !cfg.IsActive {
		return settings.Settings{}, fmt.Errorf("%w: registration is closed", ErrInvalidInput)
	}
	if !cfg.HasRole(input.Role) {
		return settings.Settings{}, fmt.Errorf("%w: role %q is not configured", ErrInvalidInput, input.Role)
	}
	if input.Amount > 0 && input.Amount != cfg.PricePerSlot {
		return settings.Settings{}, fmt.Errorf("%w: amount %d does not match slot price %d", ErrInvalidInput, input.Amount, cfg.PricePerSlot)
	}
	if err := validateCustomData(cfg, input.CustomData); err != nil {
		return settings.Settings{}, err
	}

	active, err := s.queueRepo.CountActive(ctx, cfg.ID)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("count active entries: %w", err)
	}
	if active >= cfg.MaxQueueSize {
		return settings.Settings{}, fmt.Errorf("%w: queue is full", ErrConflict)
	}

	return cfg, nil
}

func validateCustomData(cfg settings.Settings, data []queue.CustomValue) error {
	answered := make(map[string]string, len(data))
	for _, v := range data {
		answered[v.FieldID] = strings.TrimSpace(v.Value)
	}

	for _, field := range cfg.CustomFields {
		if !field.Required {
			continue
		}
		if answered[field.ID] == "" {
			return fmt.Errorf("%w: custom field %q is required", ErrInvalidInput, field.Label)
		}
	}

	return nil
}

func (s *RegistrationService) persistEntry(
	ctx context.Context,
	cfg settings.Settings,
	input RegisterInput,
	spec payment.MethodSpec,
	tx GatewayTransaction,
) (queue.Entry, error) {
	entryID, err := s.idGen.NewID()
	if err != nil {
		return queue.Entry{}, fmt.Errorf("generate entry id: %w", err)
	}

	now := s.now()
	entry := queue.Entry{
		ID:                 entryID,
		SettingsID:         cfg.ID,
		StreamerID:         cfg.StreamerID,
		PlayerName:         input.PlayerName,
		GameID:             input.GameID,
		GameNickname:       input.GameNickname,
		Role:               input.Role,
		Email:              input.Email,
		Phone:              input.Phone,
		PaymentStatus:      queue.PaymentPending,
		OrderID:            tx.OrderID,
		PaymentMethod:      spec.Token,
		AmountPaid:         cfg.PricePerSlot,
		GatewayStatus:      tx.TransactionStatus,
		GatewayPaymentType: tx.PaymentType,
		Status:             queue.StatusWaiting,
		CustomData:         input.CustomData,
		JoinedAt:           now,
		UpdatedAt:          now,
	}
	if err := entry.Validate(); err != nil {
		return queue.Entry{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	for attempt := 1; attempt <= positionAllocateAttempts; attempt++ {
		created, err := s.queueRepo.Create(ctx, entry)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, queue.ErrPositionConflict) {
			return queue.Entry{}, fmt.Errorf("create queue entry: %w", err)
		}
		s.logger.DebugContext(ctx, "queue position conflict, retrying",
			"settings_id", cfg.ID,
			"attempt", attempt,
		)
	}

	return queue.Entry{}, fmt.Errorf("%w: queue position allocation exhausted after %d attempts", ErrConflict, positionAllocateAttempts)
}
