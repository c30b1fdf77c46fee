package memory

import (
	"context"
	"sync"
	"time"

	"github.com/lokastream/mabar-queue/internal/domain/queue"
)

// QueueRepository keeps queue entries in process memory. Position allocation
// is serialized under the write lock, so it can never conflict here; the
// highest position per namespace only moves up, so retired positions are
// never reissued.
type QueueRepository struct {
	mu           sync.RWMutex
	items        map[string]queue.Entry
	byOrder      map[string]string
	highestByCfg map[string]int
}

func NewQueueRepository(entries []queue.Entry) *QueueRepository {
	r := &QueueRepository{
		items:        make(map[string]queue.Entry, len(entries)),
		byOrder:      make(map[string]string, len(entries)),
		highestByCfg: make(map[string]int),
	}

	for _, e := range entries {
		r.items[e.ID] = e
		r.byOrder[e.OrderID] = e.ID
		if e.QueuePosition > r.highestByCfg[e.SettingsID] {
			r.highestByCfg[e.SettingsID] = e.QueuePosition
		}
	}

	return r
}

func (r *QueueRepository) Create(_ context.Context, entry queue.Entry) (queue.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.QueuePosition = r.highestByCfg[entry.SettingsID] + 1
	r.highestByCfg[entry.SettingsID] = entry.QueuePosition

	r.items[entry.ID] = entry
	r.byOrder[entry.OrderID] = entry.ID

	return entry, nil
}

func (r *QueueRepository) GetByID(_ context.Context, entryID string) (queue.Entry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.items[entryID]
	if !ok {
		return queue.Entry{}, false, nil
	}

	return e, true, nil
}

func (r *QueueRepository) GetByOrderID(_ context.Context, orderID string) (queue.Entry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.getByOrderLocked(orderID)
	return e, ok, nil
}

func (r *QueueRepository) getByOrderLocked(orderID string) (queue.Entry, bool) {
	entryID, ok := r.byOrder[orderID]
	if !ok {
		return queue.Entry{}, false
	}

	e, ok := r.items[entryID]
	return e, ok
}

func (r *QueueRepository) ListActive(_ context.Context, streamerID string) ([]queue.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []queue.Entry
	for _, e := range r.items {
		if e.StreamerID == streamerID && e.Status.IsActive() {
			out = append(out, e)
		}
	}

	return out, nil
}

func (r *QueueRepository) ListPendingOlderThan(_ context.Context, cutoff time.Time) ([]queue.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []queue.Entry
	for _, e := range r.items {
		if e.PaymentStatus == queue.PaymentPending && e.JoinedAt.Before(cutoff) {
			out = append(out, e)
		}
	}

	return out, nil
}

func (r *QueueRepository) CountActive(_ context.Context, settingsID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, e := range r.items {
		if e.SettingsID == settingsID && e.Status.IsActive() {
			count++
		}
	}

	return count, nil
}

func (r *QueueRepository) UpdateStatus(_ context.Context, entryID string, from []queue.EntryStatus, to queue.EntryStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.items[entryID]
	if !ok {
		return false, nil
	}

	matched := false
	for _, s := range from {
		if e.Status == s {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}

	e.Status = to
	e.UpdatedAt = time.Now()
	r.items[entryID] = e

	return true, nil
}

func (r *QueueRepository) replace(entry queue.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[entry.ID] = entry
}

