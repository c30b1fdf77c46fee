package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lokastream/mabar-queue/internal/domain/donor"
)

type DonorRepository struct {
	mu    sync.RWMutex
	items map[string]donor.Aggregate
	byKey map[string]string
}

func NewDonorRepository(aggregates []donor.Aggregate) *DonorRepository {
	r := &DonorRepository{
		items: make(map[string]donor.Aggregate, len(aggregates)),
		byKey: make(map[string]string, len(aggregates)),
	}

	for _, a := range aggregates {
		r.items[a.ID] = a
		r.byKey[donorKey(a.StreamerID, a.GameID)] = a.ID
	}

	return r
}

func donorKey(streamerID, gameID string) string {
	return streamerID + "\x00" + gameID
}

func (r *DonorRepository) GetByPlayer(_ context.Context, streamerID, gameID string) (donor.Aggregate, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[donorKey(streamerID, gameID)]
	if !ok {
		return donor.Aggregate{}, false, nil
	}

	return r.items[id], true, nil
}

func (r *DonorRepository) ListByStreamer(_ context.Context, streamerID string) ([]donor.Aggregate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []donor.Aggregate
	for _, a := range r.items {
		if a.StreamerID == streamerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LifetimeAmount > out[j].LifetimeAmount })

	return out, nil
}

func (r *DonorRepository) SetModeration(_ context.Context, streamerID, aggregateID string, blocked bool, notes string) (donor.Aggregate, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[aggregateID]
	if !ok || a.StreamerID != streamerID {
		return donor.Aggregate{}, false, nil
	}

	a.IsBlocked = blocked
	a.Notes = notes
	r.items[aggregateID] = a

	return a, true, nil
}

// upsert is the ledger-side write path: it creates or accumulates the
// aggregate while the caller holds the reconciliation sequence.
func (r *DonorRepository) upsert(agg donor.Aggregate) donor.Aggregate {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[agg.ID] = agg
	r.byKey[donorKey(agg.StreamerID, agg.GameID)] = agg.ID

	return agg
}
