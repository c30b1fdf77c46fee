package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/lokastream/mabar-queue/internal/domain/session"
	"github.com/lokastream/mabar-queue/internal/usecase"
)

type startSessionRequest struct {
	SettingsID string   `json:"settings_id" validate:"required"`
	EntryIDs   []string `json:"entry_ids" validate:"required,min=1,max=4,dive,required"`
	GameType   string   `json:"game_type" validate:"omitempty,max=100"`
	Notes      string   `json:"notes" validate:"omitempty,max=2000"`
}

type endSessionRequest struct {
	Result     string `json:"result" validate:"omitempty,oneof=win lose draw"`
	MvpEntryID string `json:"mvp_entry_id"`
	Notes      string `json:"notes" validate:"omitempty,max=2000"`
}

type appendSessionNotesRequest struct {
	Notes string `json:"notes" validate:"required,max=2000"`
}

type sessionPlayerDTO struct {
	QueueEntryID string `json:"queue_entry_id"`
	PlayerName   string `json:"player_name"`
	GameID       string `json:"game_id"`
	GameNickname string `json:"game_nickname"`
	Role         string `json:"role"`
	AmountPaid   int64  `json:"amount_paid"`
	IsMvp        bool   `json:"is_mvp"`
}

type sessionDTO struct {
	ID              string             `json:"id"`
	SessionNumber   int                `json:"session_number"`
	SettingsID      string             `json:"settings_id"`
	Players         []sessionPlayerDTO `json:"players"`
	GameType        string             `json:"game_type"`
	GameResult      string             `json:"game_result,omitempty"`
	MvpGameID       string             `json:"mvp_game_id,omitempty"`
	StartedAt       string             `json:"started_at"`
	EndedAt         string             `json:"ended_at,omitempty"`
	DurationMinutes int                `json:"duration_minutes"`
	TotalRevenue    int64              `json:"total_revenue"`
	Notes           string             `json:"notes,omitempty"`
	Status          string             `json:"status"`
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartSession")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req startSessionRequest
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

	sess, err := h.sessionService.StartSession(ctx, principal.UserID, usecase.StartSessionInput{
		SettingsID: req.SettingsID,
		EntryIDs:   req.EntryIDs,
		GameType:   req.GameType,
		Notes:      req.Notes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "start session failed", "streamer_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, sessionToDTO(sess))
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EndSession")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req endSessionRequest
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

	sessionID := r.PathValue("sessionID")
	sess, err := h.sessionService.EndSession(ctx, principal.UserID, sessionID, usecase.EndSessionInput{
		Result:     req.Result,
		MvpEntryID: req.MvpEntryID,
		Notes:      req.Notes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "end session failed",
			"streamer_id", principal.UserID,
			"session_id", sessionID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(sess))
}

func (h *Handler) CancelSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CancelSession")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	sessionID := r.PathValue("sessionID")
	sess, err := h.sessionService.CancelSession(ctx, principal.UserID, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "cancel session failed",
			"streamer_id", principal.UserID,
			"session_id", sessionID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(sess))
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSessions")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	limit := parseLimitQuery(r, 0)
	sessions, err := h.sessionService.ListSessions(ctx, principal.UserID, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list sessions failed", "streamer_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]sessionDTO, 0, len(sessions))
	for _, sess := range sessions {
		items = append(items, sessionToDTO(sess))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) AppendSessionNotes(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AppendSessionNotes")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req appendSessionNotesRequest
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

	sessionID := r.PathValue("sessionID")
	if err := h.sessionService.AppendNotes(ctx, principal.UserID, sessionID, req.Notes); err != nil {
		h.logger.WarnContext(ctx, "append session notes failed",
			"streamer_id", principal.UserID,
			"session_id", sessionID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func sessionToDTO(sess session.Session) sessionDTO {
	players := make([]sessionPlayerDTO, 0, len(sess.Players))
	for _, player := range sess.Players {
		players = append(players, sessionPlayerDTO{
			QueueEntryID: player.QueueEntryID,
			PlayerName:   player.PlayerName,
			GameID:       player.GameID,
			GameNickname: player.GameNickname,
			Role:         player.Role,
			AmountPaid:   player.AmountPaid,
			IsMvp:        player.IsMvp,
		})
	}

	dto := sessionDTO{
		ID:              sess.ID,
		SessionNumber:   sess.SessionNumber,
		SettingsID:      sess.SettingsID,
		Players:         players,
		GameType:        sess.GameType,
		GameResult:      string(sess.GameResult),
		MvpGameID:       sess.MvpGameID,
		StartedAt:       sess.StartedAt.Format(time.RFC3339),
		DurationMinutes: sess.DurationMinutes,
		TotalRevenue:    sess.TotalRevenue,
		Notes:           sess.Notes,
		Status:          string(sess.Status),
	}
	if !sess.EndedAt.IsZero() {
		dto.EndedAt = sess.EndedAt.Format(time.RFC3339)
	}

	return dto
}

func parseLimitQuery(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return fallback
	}

	return limit
}
