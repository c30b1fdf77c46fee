package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lokastream/mabar-queue/internal/domain/donor"
)

type DonationRepository struct {
	mu    sync.RWMutex
	items []donor.Donation
}

func NewDonationRepository(donations []donor.Donation) *DonationRepository {
	return &DonationRepository{items: append([]donor.Donation(nil), donations...)}
}

func (r *DonationRepository) ListByStreamer(_ context.Context, streamerID string, limit int) ([]donor.Donation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []donor.Donation
	for _, d := range r.items {
		if d.StreamerID == streamerID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (r *DonationRepository) TotalCompletedAmount(_ context.Context, streamerID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, d := range r.items {
		if d.StreamerID == streamerID {
			total += d.Amount
		}
	}

	return total, nil
}

func (r *DonationRepository) add(d donor.Donation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, d)
}
