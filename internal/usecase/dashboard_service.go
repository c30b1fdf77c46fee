package usecase

import (
	"context"
	"fmt"

	"github.com/lokastream/mabar-queue/internal/domain/donor"
	"github.com/lokastream/mabar-queue/internal/domain/mvp"
	"github.com/lokastream/mabar-queue/internal/domain/queue"
	"github.com/lokastream/mabar-queue/internal/domain/session"
	"github.com/lokastream/mabar-queue/internal/platform/logging"
)

// DashboardStats is the streamer overview card.
type DashboardStats struct {
	ActiveQueueSize   int
	SessionsCompleted int
	TotalMvpWins      int
	TotalRevenue      int64
}

type DashboardService struct {
	queueRepo    queue.Repository
	sessionRepo  session.Repository
	mvpRepo      mvp.Repository
	donationRepo donor.DonationRepository
	logger       *logging.Logger
}

func NewDashboardService(
	queueRepo queue.Repository,
	sessionRepo session.Repository,
	mvpRepo mvp.Repository,
	donationRepo donor.DonationRepository,
	logger *logging.Logger,
) *DashboardService {
	if logger == nil {
		logger = logging.Default()
	}

	return &DashboardService{
		queueRepo:    queueRepo,
		sessionRepo:  sessionRepo,
		mvpRepo:      mvpRepo,
		donationRepo: donationRepo,
		logger:       logger,
	}
}

func (s *DashboardService) Stats(ctx context.Context, streamerID string) (DashboardStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.Stats")
	defer span.End()

	active, err := s.queueRepo.ListActive(ctx, streamerID)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("list active entries: %w", err)
	}

	completed, err := s.sessionRepo.CountCompleted(ctx, streamerID)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("count completed sessions: %w", err)
	}

	wins, err := s.mvpRepo.TotalWins(ctx, streamerID)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("total mvp wins: %w", err)
	}

	revenue, err := s.donationRepo.TotalCompletedAmount(ctx, streamerID)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("total completed amount: %w", err)
	}

	return DashboardStats{
		ActiveQueueSize:   len(active),
		SessionsCompleted: completed,
		TotalMvpWins:      wins,
		TotalRevenue:      revenue,
	}, nil
}
