package httpapi

import (
	"fmt"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/lokastream/mabar-queue/internal/domain/payment"
	"github.com/lokastream/mabar-queue/internal/domain/queue"
	"github.com/lokastream/mabar-queue/internal/usecase"
)

type createPaymentRequest struct {
	SettingsID    string           `json:"settings_id" validate:"required"`
	PlayerName    string           `json:"player_name" validate:"required,max=100"`
	GameID        string           `json:"game_id" validate:"required,max=50"`
	GameNickname  string           `json:"game_nickname" validate:"required,max=100"`
	Role          string           `json:"role" validate:"required"`
	Email         string           `json:"email" validate:"omitempty,email"`
	Phone         string           `json:"phone" validate:"omitempty,max=32"`
	PaymentMethod string           `json:"payment_method" validate:"required"`
	Amount        int64            `json:"amount" validate:"required,gt=0"`
	CustomData    []customValueDTO `json:"custom_data" validate:"omitempty,dive"`
}

type customValueDTO struct {
	FieldID string `json:"field_id" validate:"required"`
	Label   string `json:"label"`
	Value   string `json:"value"`
}

type paymentInstructionsDTO struct {
	OrderID           string `json:"order_id"`
	QueueEntryID      string `json:"queue_entry_id,omitempty"`
	QueuePosition     int    `json:"queue_position,omitempty"`
	Method            string `json:"method"`
	Family            string `json:"family"`
	QRCodeURL         string `json:"qr_code_url,omitempty"`
	DeepLinkURL       string `json:"deeplink_url,omitempty"`
	VANumber          string `json:"va_number,omitempty"`
	ExpiresAt         string `json:"expires_at,omitempty"`
	TransactionStatus string `json:"transaction_status,omitempty"`
	Persisted         bool   `json:"persisted"`
}

// paymentNotificationRequest mirrors the gateway's webhook payload. Unknown
// fields are tolerated: the gateway adds vocabulary over time.
type paymentNotificationRequest struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	GrossAmount       string `json:"gross_amount"`
	Currency          string `json:"currency"`
	TransactionTime   string `json:"transaction_time"`
	SettlementTime    string `json:"settlement_time"`
}

type statusViewDTO struct {
	OrderID           string              `json:"order_id"`
	PaymentStatus     string              `json:"payment_status"`
	TransactionStatus string              `json:"transaction_status,omitempty"`
	PaymentType       string              `json:"payment_type,omitempty"`
	ExpiresAt         string              `json:"expires_at,omitempty"`
	Entry             *statusEntryViewDTO `json:"entry,omitempty"`
}

type statusEntryViewDTO struct {
	ID            string `json:"id"`
	QueuePosition int    `json:"queue_position"`
	PlayerName    string `json:"player_name"`
	Status        string `json:"status"`
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreatePayment")
	defer span.End()

	var req createPaymentRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	customData := make([]queue.CustomValue, 0, len(req.CustomData))
	for _, value := range req.CustomData {
		customData = append(customData, queue.CustomValue{
			FieldID: value.FieldID,
			Label:   value.Label,
			Value:   value.Value,
		})
	}

	instructions, err := h.registrationService.Register(ctx, usecase.RegisterInput{
		SettingsID:    req.SettingsID,
		PlayerName:    req.PlayerName,
		GameID:        req.GameID,
		GameNickname:  req.GameNickname,
		Role:          req.Role,
		Email:         req.Email,
		Phone:         req.Phone,
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
		CustomData:    customData,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "payment registration failed",
			"settings_id", req.SettingsID,
			"payment_method", req.PaymentMethod,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, paymentInstructionsToDTO(instructions))
}

func (h *Handler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPaymentStatus")
	defer span.End()

	orderID := r.PathValue("orderID")
	view, err := h.statusService.GetStatus(ctx, orderID)
	if err != nil {
		h.logger.WarnContext(ctx, "payment status lookup failed", "order_id", orderID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, statusViewToDTO(view))
}

// HandlePaymentNotification acknowledges every syntactically valid webhook
// with 200 so the gateway never retries over a business-layer drop. Bad
// signatures, unknown orders and stale transitions are logged, not surfaced.
func (h *Handler) HandlePaymentNotification(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.HandlePaymentNotification")
	defer span.End()

	var req paymentNotificationRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}

	result, err := h.reconcileService.HandleNotification(ctx, payment.Notification{
		OrderID:           req.OrderID,
		TransactionID:     req.TransactionID,
		TransactionStatus: req.TransactionStatus,
		FraudStatus:       req.FraudStatus,
		PaymentType:       req.PaymentType,
		StatusCode:        req.StatusCode,
		SignatureKey:      req.SignatureKey,
		GrossAmount:       req.GrossAmount,
		Currency:          req.Currency,
		TransactionTime:   req.TransactionTime,
		SettlementTime:    req.SettlementTime,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "payment notification dropped",
			"order_id", req.OrderID,
			"transaction_status", req.TransactionStatus,
			"error", err,
		)
	} else {
		h.logger.InfoContext(ctx, "payment notification processed",
			"order_id", req.OrderID,
			"transaction_status", req.TransactionStatus,
			"outcome", string(result.Outcome),
		)
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func paymentInstructionsToDTO(instructions usecase.PaymentInstructions) paymentInstructionsDTO {
	dto := paymentInstructionsDTO{
		OrderID:           instructions.OrderID,
		QueueEntryID:      instructions.QueueEntryID,
		QueuePosition:     instructions.QueuePosition,
		Method:            instructions.Method,
		Family:            string(instructions.Family),
		QRCodeURL:         instructions.QRCodeURL,
		DeepLinkURL:       instructions.DeepLinkURL,
		VANumber:          instructions.VANumber,
		TransactionStatus: instructions.TransactionStatus,
		Persisted:         instructions.Persisted,
	}
	if !instructions.ExpiresAt.IsZero() {
		dto.ExpiresAt = instructions.ExpiresAt.Format(time.RFC3339)
	}

	return dto
}

func statusViewToDTO(view usecase.StatusView) statusViewDTO {
	dto := statusViewDTO{
		OrderID:           view.OrderID,
		PaymentStatus:     string(view.PaymentStatus),
		TransactionStatus: view.TransactionStatus,
		PaymentType:       view.PaymentType,
	}
	if !view.ExpiresAt.IsZero() {
		dto.ExpiresAt = view.ExpiresAt.Format(time.RFC3339)
	}
	if view.Entry != nil {
		dto.Entry = &statusEntryViewDTO{
			ID:            view.Entry.ID,
			QueuePosition: view.Entry.QueuePosition,
			PlayerName:    view.Entry.PlayerName,
			Status:        string(view.Entry.Status),
		}
	}

	return dto
}
