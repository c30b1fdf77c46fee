package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/lokastream/mabar-queue/internal/usecase"
)

type overridePaymentRequest struct {
	OrderID   string `json:"order_id" validate:"required"`
	NewStatus string `json:"new_status" validate:"required,oneof=pending completed failed refunded"`
}

type overridePaymentResponse struct {
	OrderID       string `json:"order_id"`
	Outcome       string `json:"outcome"`
	PaymentStatus string `json:"payment_status,omitempty"`
	EntryStatus   string `json:"entry_status,omitempty"`
}

// OverridePaymentStatus forces a payment status from the operator surface.
// The transition still runs through the ledger, so a terminal status cannot
// be weakened even here.
func (h *Handler) OverridePaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.OverridePaymentStatus")
	defer span.End()

	var req overridePaymentRequest
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

	result, err := h.reconcileService.ApplyManualOverride(ctx, req.OrderID, req.NewStatus)
	if err != nil {
		h.logger.WarnContext(ctx, "manual payment override failed",
			"order_id", req.OrderID,
			"new_status", req.NewStatus,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "manual payment override applied",
		"order_id", req.OrderID,
		"new_status", req.NewStatus,
		"outcome", string(result.Outcome),
	)

	resp := overridePaymentResponse{
		OrderID: req.OrderID,
		Outcome: string(result.Outcome),
	}
	if result.Entry.ID != "" {
		resp.PaymentStatus = string(result.Entry.PaymentStatus)
		resp.EntryStatus = string(result.Entry.Status)
	}

	writeSuccess(ctx, w, http.StatusOK, resp)
}

// RunPollPass triggers one reconciliation sweep over aging pending orders,
// outside the scheduler's cadence.
func (h *Handler) RunPollPass(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunPollPass")
	defer span.End()

	if err := h.pollerService.RunOnce(ctx); err != nil {
		h.logger.ErrorContext(ctx, "manual poll pass failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "completed"})
}
