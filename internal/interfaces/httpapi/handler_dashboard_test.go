package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/lokastream/mabar-queue/internal/domain/donor"
	"github.com/lokastream/mabar-queue/internal/domain/mvp"
	"github.com/lokastream/mabar-queue/internal/domain/queue"
	"github.com/lokastream/mabar-queue/internal/domain/session"
	"github.com/lokastream/mabar-queue/internal/infrastructure/repository/memory"
	"github.com/lokastream/mabar-queue/internal/platform/logging"
	"github.com/lokastream/mabar-queue/internal/usecase"
)

func TestGetStreamerStats(t *testing.T) {
	queues := memory.NewQueueRepository([]queue.Entry{{
		ID:            "q-1",
		SettingsID:    "mabar-1",
		StreamerID:    "streamer-1",
		OrderID:       "MABAR-1-AAAAAA",
		PlayerName:    "Asep",
		PaymentStatus: queue.PaymentCompleted,
		QueuePosition: 1,
		Status:        queue.StatusWaiting,
		JoinedAt:      time.Now(),
	}})
	sessions := memory.NewSessionRepository([]session.Session{
		{ID: "s-1", StreamerID: "streamer-1", SessionNumber: 1, Status: session.StatusCompleted},
		{ID: "s-2", StreamerID: "streamer-1", SessionNumber: 2, Status: session.StatusInProgress},
	})
	mvps := memory.NewMvpRepository([]mvp.Record{
		{ID: "m-1", StreamerID: "streamer-1", PlayerIdentifier: "12345", TotalMvpWins: 3},
	}, nil)
	donations := memory.NewDonationRepository([]donor.Donation{
		{ID: "d-1", StreamerID: "streamer-1", Amount: 50000, OrderID: "MABAR-1-AAAAAA"},
		{ID: "d-2", StreamerID: "streamer-1", Amount: 75000, OrderID: "MABAR-1-BBBBBB"},
		{ID: "d-3", StreamerID: "streamer-2", Amount: 999999, OrderID: "MABAR-2-AAAAAA"},
	})

	dashboard := usecase.NewDashboardService(queues, sessions, mvps, donations, logging.NewNop())
	handler := NewHandler(nil, nil, nil, nil, nil, nil, nil, dashboard, nil, logging.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/streamers/streamer-1/stats", nil)
	req.SetPathValue("streamerID", "streamer-1")
	rec := httptest.NewRecorder()

	handler.GetStreamerStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data dashboardStatsDTO `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	stats := envelope.Data
	if stats.ActiveQueueSize != 1 {
		t.Fatalf("active queue size = %d, want 1", stats.ActiveQueueSize)
	}
	if stats.SessionsCompleted != 1 {
		t.Fatalf("sessions completed = %d, want 1", stats.SessionsCompleted)
	}
	if stats.TotalMvpWins != 3 {
		t.Fatalf("total mvp wins = %d, want 3", stats.TotalMvpWins)
	}
	if stats.TotalRevenue != 125000 {
		t.Fatalf("total revenue = %d, want 125000", stats.TotalRevenue)
	}
}
