package httpapi

import (
	"fmt"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/lokastream/mabar-queue/internal/usecase"
)

type claimMvpRewardRequest struct {
	RewardType  string `json:"reward_type" validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

type rewardClaimDTO struct {
	ID          string `json:"id"`
	RewardType  string `json:"reward_type"`
	Description string `json:"description,omitempty"`
	ClaimedAt   string `json:"claimed_at"`
	Fulfilled   bool   `json:"fulfilled"`
}

type mvpRecordDTO struct {
	ID               string           `json:"id"`
	PlayerIdentifier string           `json:"player_identifier"`
	PlayerName       string           `json:"player_name"`
	TotalMvpWins     int              `json:"total_mvp_wins"`
	TotalGamesPlayed int              `json:"total_games_played"`
	WinThreshold     int              `json:"win_threshold"`
	RewardsEarned    int              `json:"rewards_earned"`
	PendingRewards   int              `json:"pending_rewards"`
	RewardsClaimed   []rewardClaimDTO `json:"rewards_claimed"`
}

func (h *Handler) ListMvpRecords(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMvpRecords")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	records, err := h.mvpService.ListRecords(ctx, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list mvp records failed", "streamer_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]mvpRecordDTO, 0, len(records))
	for _, record := range records {
		items = append(items, mvpRecordToDTO(record))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ClaimMvpReward(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClaimMvpReward")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req claimMvpRewardRequest
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

	recordID := r.PathValue("recordID")
	record, err := h.mvpService.ClaimReward(ctx, principal.UserID, recordID, usecase.ClaimRewardInput{
		RewardType:  req.RewardType,
		Description: req.Description,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "claim mvp reward failed",
			"streamer_id", principal.UserID,
			"record_id", recordID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, mvpRecordToDTO(record))
}

func mvpRecordToDTO(view usecase.MvpRecordView) mvpRecordDTO {
	claims := make([]rewardClaimDTO, 0, len(view.Record.RewardsClaimed))
	for _, claim := range view.Record.RewardsClaimed {
		claims = append(claims, rewardClaimDTO{
			ID:          claim.ID,
			RewardType:  claim.RewardType,
			Description: claim.Description,
			ClaimedAt:   claim.ClaimedAt.Format(time.RFC3339),
			Fulfilled:   claim.Fulfilled,
		})
	}

	return mvpRecordDTO{
		ID:               view.Record.ID,
		PlayerIdentifier: view.Record.PlayerIdentifier,
		PlayerName:       view.Record.PlayerName,
		TotalMvpWins:     view.Record.TotalMvpWins,
		TotalGamesPlayed: view.Record.TotalGamesPlayed,
		WinThreshold:     view.WinThreshold,
		RewardsEarned:    view.RewardsEarned,
		PendingRewards:   view.PendingRewards,
		RewardsClaimed:   claims,
	}
}
