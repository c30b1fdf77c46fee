package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lokastream/mabar-queue/internal/domain/donor"
	"github.com/lokastream/mabar-queue/internal/platform/logging"
)

// DonorService serves the dashboard view over donor aggregates and the
// donation history, plus the operator-owned moderation fields.
type DonorService struct {
	donorRepo    donor.Repository
	donationRepo donor.DonationRepository
	logger       *logging.Logger
}

func NewDonorService(donorRepo donor.Repository, donationRepo donor.DonationRepository, logger *logging.Logger) *DonorService {
	if logger == nil {
		logger = logging.Default()
	}

	return &DonorService{
		donorRepo:    donorRepo,
		donationRepo: donationRepo,
		logger:       logger,
	}
}

// ListDonors returns the streamer's donor aggregates, highest lifetime spend
// first.
func (s *DonorService) ListDonors(ctx context.Context, streamerID string) ([]donor.Aggregate, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DonorService.ListDonors")
	defer span.End()

	donors, err := s.donorRepo.ListByStreamer(ctx, streamerID)
	if err != nil {
		return nil, fmt.Errorf("list donors: %w", err)
	}

	sort.Slice(donors, func(i, j int) bool {
		return donors[i].LifetimeAmount > donors[j].LifetimeAmount
	})

	return donors, nil
}

// SetModeration updates the operator-owned block flag and notes. Donation
// counters are out of reach here; only the payment path moves them.
func (s *DonorService) SetModeration(ctx context.Context, streamerID, aggregateID string, blocked bool, notes string) (donor.Aggregate, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DonorService.SetModeration")
	defer span.End()

	updated, found, err := s.donorRepo.SetModeration(ctx, streamerID, aggregateID, blocked, strings.TrimSpace(notes))
	if err != nil {
		return donor.Aggregate{}, fmt.Errorf("set donor moderation: %w", err)
	}
	if !found {
		return donor.Aggregate{}, fmt.Errorf("%w: donor=%s", ErrNotFound, aggregateID)
	}

	s.logger.InfoContext(ctx, "donor moderation updated",
		"donor_id", aggregateID,
		"blocked", blocked,
	)

	return updated, nil
}

// ListDonations returns the streamer's most recent completed payments.
func (s *DonorService) ListDonations(ctx context.Context, streamerID string, limit int) ([]donor.Donation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DonorService.ListDonations")
	defer span.End()

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	donations, err := s.donationRepo.ListByStreamer(ctx, streamerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}

	return donations, nil
}
