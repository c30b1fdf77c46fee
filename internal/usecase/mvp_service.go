package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lokastream/mabar-queue/internal/domain/mvp"
	"github.com/lokastream/mabar-queue/internal/domain/settings"
	idgen "github.com/lokastream/mabar-queue/internal/platform/id"
	"github.com/lokastream/mabar-queue/internal/platform/logging"
)

// MvpRecordView is an MVP record with its reward arithmetic resolved against
// the streamer's configured win threshold.
type MvpRecordView struct {
	Record         mvp.Record
	WinThreshold   int
	RewardsEarned  int
	PendingRewards int
}

// ClaimRewardInput describes one reward redemption.
type ClaimRewardInput struct {
	RewardType  string
	Description string
}

type MvpService struct {
	mvpRepo      mvp.Repository
	settingsRepo settings.Repository
	idGen        idgen.Generator
	logger       *logging.Logger
	now          func() time.Time
}

func NewMvpService(
	mvpRepo mvp.Repository,
	settingsRepo settings.Repository,
	idGen idgen.Generator,
	logger *logging.Logger,
) *MvpService {
	if logger == nil {
		logger = logging.Default()
	}

	return &MvpService{
		mvpRepo:      mvpRepo,
		settingsRepo: settingsRepo,
		idGen:        idGen,
		logger:       logger,
		now:          time.Now,
	}
}

// ListRecords returns the streamer's MVP leaderboard, most wins first, with
// earned and pending rewards computed from the active win threshold.
func (s *MvpService) ListRecords(ctx context.Context, streamerID string) ([]MvpRecordView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MvpService.ListRecords")
	defer span.End()

	threshold, err := s.winThreshold(ctx, streamerID)
	if err != nil {
		return nil, err
	}

	records, err := s.mvpRepo.ListByStreamer(ctx, streamerID)
	if err != nil {
		return nil, fmt.Errorf("list mvp records: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].TotalMvpWins != records[j].TotalMvpWins {
			return records[i].TotalMvpWins > records[j].TotalMvpWins
		}
		return records[i].TotalGamesPlayed > records[j].TotalGamesPlayed
	})

	views := make([]MvpRecordView, 0, len(records))
	for _, r := range records {
		views = append(views, MvpRecordView{
			Record:         r,
			WinThreshold:   threshold,
			RewardsEarned:  r.RewardsEarned(threshold),
			PendingRewards: r.PendingRewards(threshold),
		})
	}

	return views, nil
}

// ClaimReward records one redemption against the record's claim ledger. A
// claim is only accepted while the record still has pending rewards at the
// current threshold.
func (s *MvpService) ClaimReward(ctx context.Context, streamerID, recordID string, input ClaimRewardInput) (MvpRecordView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MvpService.ClaimReward")
	defer span.End()

	record, exists, err := s.mvpRepo.GetByID(ctx, recordID)
	if err != nil {
		return MvpRecordView{}, fmt.Errorf("get mvp record: %w", err)
	}
	if !exists {
		return MvpRecordView{}, fmt.Errorf("%w: mvp record=%s", ErrNotFound, recordID)
	}
	if record.StreamerID != streamerID {
		return MvpRecordView{}, fmt.Errorf("%w: mvp record belongs to another streamer", ErrUnauthorized)
	}

	threshold, err := s.winThreshold(ctx, streamerID)
	if err != nil {
		return MvpRecordView{}, err
	}
	if record.PendingRewards(threshold) <= 0 {
		return MvpRecordView{}, fmt.Errorf("%w: no pending rewards to claim", ErrConflict)
	}

	claimID, err := s.idGen.NewID()
	if err != nil {
		return MvpRecordView{}, fmt.Errorf("generate claim id: %w", err)
	}

	claim := mvp.RewardClaim{
		ID:          claimID,
		RewardType:  strings.TrimSpace(input.RewardType),
		Description: strings.TrimSpace(input.Description),
		ClaimedAt:   s.now(),
	}

	updated, err := s.mvpRepo.AppendClaim(ctx, recordID, claim)
	if err != nil {
		return MvpRecordView{}, fmt.Errorf("append reward claim: %w", err)
	}

	s.logger.InfoContext(ctx, "mvp reward claimed",
		"record_id", recordID,
		"player_identifier", updated.PlayerIdentifier,
		"claims_total", len(updated.RewardsClaimed),
	)

	return MvpRecordView{
		Record:         updated,
		WinThreshold:   threshold,
		RewardsEarned:  updated.RewardsEarned(threshold),
		PendingRewards: updated.PendingRewards(threshold),
	}, nil
}

// winThreshold reads the streamer's active threshold; a namespace without MVP
// rewards configured yields zero earned rewards rather than an error.
func (s *MvpService) winThreshold(ctx context.Context, streamerID string) (int, error) {
	cfg, exists, err := s.settingsRepo.GetActiveByStreamer(ctx, streamerID)
	if err != nil {
		return 0, fmt.Errorf("get active settings: %w", err)
	}
	if !exists || !cfg.MvpRewardEnabled {
		return 0, nil
	}

	return cfg.MvpWinThreshold, nil
}
