package httpapi

import (
	"fmt"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/lokastream/mabar-queue/internal/domain/donor"
	"github.com/lokastream/mabar-queue/internal/usecase"
)

type setDonorModerationRequest struct {
	Blocked bool   `json:"blocked"`
	Notes   string `json:"notes" validate:"omitempty,max=2000"`
}

type donorDTO struct {
	ID              string `json:"id"`
	GameID          string `json:"game_id"`
	PlayerName      string `json:"player_name"`
	GameNickname    string `json:"game_nickname"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	TotalDonations  int    `json:"total_donations"`
	LifetimeAmount  int64  `json:"lifetime_amount"`
	FavoriteRole    string `json:"favorite_role,omitempty"`
	Tier            string `json:"tier"`
	LastDonationAt  string `json:"last_donation_at,omitempty"`
	FirstDonationAt string `json:"first_donation_at,omitempty"`
	IsBlocked       bool   `json:"is_blocked"`
	Notes           string `json:"notes,omitempty"`
}

type donationDTO struct {
	ID            string `json:"id"`
	DonorName     string `json:"donor_name"`
	DonorGameID   string `json:"donor_game_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	DonationType  string `json:"donation_type"`
	QueueEntryID  string `json:"queue_entry_id,omitempty"`
	OrderID       string `json:"order_id"`
	PaymentMethod string `json:"payment_method,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func (h *Handler) ListDonors(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListDonors")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	donors, err := h.donorService.ListDonors(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list donors failed", "streamer_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]donorDTO, 0, len(donors))
	for _, aggregate := range donors {
		items = append(items, donorToDTO(aggregate))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) SetDonorModeration(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetDonorModeration")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req setDonorModerationRequest
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

	donorID := r.PathValue("donorID")
	aggregate, err := h.donorService.SetModeration(ctx, principal.UserID, donorID, req.Blocked, req.Notes)
	if err != nil {
		h.logger.WarnContext(ctx, "set donor moderation failed",
			"streamer_id", principal.UserID,
			"donor_id", donorID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, donorToDTO(aggregate))
}

func (h *Handler) ListDonations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListDonations")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	limit := parseLimitQuery(r, 0)
	donations, err := h.donorService.ListDonations(ctx, principal.UserID, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list donations failed", "streamer_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]donationDTO, 0, len(donations))
	for _, donation := range donations {
		items = append(items, donationToDTO(donation))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func donorToDTO(aggregate donor.Aggregate) donorDTO {
	dto := donorDTO{
		ID:             aggregate.ID,
		GameID:         aggregate.GameID,
		PlayerName:     aggregate.PlayerName,
		GameNickname:   aggregate.GameNickname,
		Email:          aggregate.Email,
		Phone:          aggregate.Phone,
		TotalDonations: aggregate.TotalDonations,
		LifetimeAmount: aggregate.LifetimeAmount,
		FavoriteRole:   aggregate.FavoriteRole,
		Tier:           string(aggregate.Tier),
		IsBlocked:      aggregate.IsBlocked,
		Notes:          aggregate.Notes,
	}
	if !aggregate.FirstDonationAt.IsZero() {
		dto.FirstDonationAt = aggregate.FirstDonationAt.Format(time.RFC3339)
	}
	if !aggregate.LastDonationAt.IsZero() {
		dto.LastDonationAt = aggregate.LastDonationAt.Format(time.RFC3339)
	}

	return dto
}

func donationToDTO(donation donor.Donation) donationDTO {
	return donationDTO{
		ID:            donation.ID,
		DonorName:     donation.DonorName,
		DonorGameID:   donation.DonorGameID,
		Amount:        donation.Amount,
		Currency:      donation.Currency,
		DonationType:  donation.DonationType,
		QueueEntryID:  donation.QueueEntryID,
		OrderID:       donation.OrderID,
		PaymentMethod: donation.PaymentMethod,
		CreatedAt:     donation.CreatedAt.Format(time.RFC3339),
	}
}
