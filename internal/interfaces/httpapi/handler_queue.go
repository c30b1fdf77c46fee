package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/lokastream/mabar-queue/internal/domain/queue"
	"github.com/lokastream/mabar-queue/internal/usecase"
)

// queuePublicDTO is the overlay-facing projection of an active entry.
// Contact details and order ids never leave the private surface.
type queuePublicDTO struct {
	ID            string `json:"id"`
	QueuePosition int    `json:"queue_position"`
	PlayerName    string `json:"player_name"`
	GameNickname  string `json:"game_nickname"`
	Role          string `json:"role"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	JoinedAt      string `json:"joined_at"`
}

func (h *Handler) ListStreamerQueue(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListStreamerQueue")
	defer span.End()

	streamerID := r.PathValue("streamerID")
	entries, err := h.queueService.ListActive(ctx, streamerID)
	if err != nil {
		h.logger.WarnContext(ctx, "list queue failed", "streamer_id", streamerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]queuePublicDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, queueEntryToPublicDTO(entry))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) RemoveQueueEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveQueueEntry")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	entryID := r.PathValue("entryID")
	if err := h.queueService.RemoveEntry(ctx, principal.UserID, entryID); err != nil {
		h.logger.WarnContext(ctx, "remove queue entry failed",
			"streamer_id", principal.UserID,
			"entry_id", entryID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "removed"})
}

func queueEntryToPublicDTO(entry queue.Entry) queuePublicDTO {
	return queuePublicDTO{
		ID:            entry.ID,
		QueuePosition: entry.QueuePosition,
		PlayerName:    entry.PlayerName,
		GameNickname:  entry.GameNickname,
		Role:          entry.Role,
		Status:        string(entry.Status),
		PaymentStatus: string(entry.PaymentStatus),
		JoinedAt:      entry.JoinedAt.Format(time.RFC3339),
	}
}
