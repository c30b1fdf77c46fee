package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lokastream/mabar-queue/internal/domain/mvp"
	idgen "github.com/lokastream/mabar-queue/internal/platform/id"
)

type MvpRepository struct {
	mu       sync.RWMutex
	items    map[string]mvp.Record
	byPlayer map[string]string
	idGen    idgen.Generator
}

func NewMvpRepository(records []mvp.Record, idGen idgen.Generator) *MvpRepository {
	if idGen == nil {
		idGen = idgen.NewRandomGenerator()
	}

	r := &MvpRepository{
		items:    make(map[string]mvp.Record, len(records)),
		byPlayer: make(map[string]string, len(records)),
		idGen:    idGen,
	}

	for _, rec := range records {
		r.items[rec.ID] = rec
		r.byPlayer[playerKey(rec.StreamerID, rec.PlayerIdentifier)] = rec.ID
	}

	return r
}

func playerKey(streamerID, playerIdentifier string) string {
	return streamerID + "\x00" + playerIdentifier
}

func (r *MvpRepository) GetByPlayer(_ context.Context, streamerID, playerIdentifier string) (mvp.Record, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPlayer[playerKey(streamerID, playerIdentifier)]
	if !ok {
		return mvp.Record{}, false, nil
	}

	return r.cloneLocked(id), true, nil
}

func (r *MvpRepository) GetByID(_ context.Context, recordID string) (mvp.Record, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.items[recordID]; !ok {
		return mvp.Record{}, false, nil
	}

	return r.cloneLocked(recordID), true, nil
}

func (r *MvpRepository) ListByStreamer(_ context.Context, streamerID string) ([]mvp.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []mvp.Record
	for id, rec := range r.items {
		if rec.StreamerID == streamerID {
			out = append(out, r.cloneLocked(id))
		}
	}

	return out, nil
}

func (r *MvpRepository) TotalWins(_ context.Context, streamerID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, rec := range r.items {
		if rec.StreamerID == streamerID {
			total += rec.TotalMvpWins
		}
	}

	return total, nil
}

func (r *MvpRepository) RecordSessionOutcome(_ context.Context, streamerID string, participants []mvp.Participant, mvpIdentifier string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range participants {
		key := playerKey(streamerID, p.PlayerIdentifier)
		id, ok := r.byPlayer[key]
		if !ok {
			newID, err := r.idGen.NewID()
			if err != nil {
				return fmt.Errorf("generate mvp record id: %w", err)
			}
			id = newID
			r.byPlayer[key] = id
			r.items[id] = mvp.Record{
				ID:               id,
				StreamerID:       streamerID,
				PlayerIdentifier: p.PlayerIdentifier,
				CreatedAt:        at,
			}
		}

		rec := r.items[id]
		rec.PlayerName = p.PlayerName
		rec.TotalGamesPlayed++
		if p.PlayerIdentifier == mvpIdentifier {
			rec.TotalMvpWins++
		}
		rec.UpdatedAt = at
		r.items[id] = rec
	}

	return nil
}

func (r *MvpRepository) AppendClaim(_ context.Context, recordID string, claim mvp.RewardClaim) (mvp.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.items[recordID]
	if !ok {
		return mvp.Record{}, fmt.Errorf("mvp record %s not found", recordID)
	}

	rec.RewardsClaimed = append(append([]mvp.RewardClaim(nil), rec.RewardsClaimed...), claim)
	rec.UpdatedAt = claim.ClaimedAt
	r.items[recordID] = rec

	return r.cloneLocked(recordID), nil
}

func (r *MvpRepository) cloneLocked(id string) mvp.Record {
	rec := r.items[id]
	rec.RewardsClaimed = append([]mvp.RewardClaim(nil), rec.RewardsClaimed...)

	return rec
}
