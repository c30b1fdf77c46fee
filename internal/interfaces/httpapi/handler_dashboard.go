package httpapi

import (
	"net/http"
)

type dashboardStatsDTO struct {
	ActiveQueueSize   int   `json:"active_queue_size"`
	SessionsCompleted int   `json:"sessions_completed"`
	TotalMvpWins      int   `json:"total_mvp_wins"`
	TotalRevenue      int64 `json:"total_revenue"`
}

func (h *Handler) GetStreamerStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStreamerStats")
	defer span.End()

	streamerID := r.PathValue("streamerID")
	stats, err := h.dashboardService.Stats(ctx, streamerID)
	if err != nil {
		h.logger.WarnContext(ctx, "dashboard stats failed", "streamer_id", streamerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dashboardStatsDTO{
		ActiveQueueSize:   stats.ActiveQueueSize,
		SessionsCompleted: stats.SessionsCompleted,
		TotalMvpWins:      stats.TotalMvpWins,
		TotalRevenue:      stats.TotalRevenue,
	})
}
