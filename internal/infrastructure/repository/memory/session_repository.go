package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lokastream/mabar-queue/internal/domain/session"
)

type SessionRepository struct {
	mu    sync.RWMutex
	items map[string]session.Session
	bySeq map[string]string
}

func NewSessionRepository(sessions []session.Session) *SessionRepository {
	r := &SessionRepository{
		items: make(map[string]session.Session, len(sessions)),
		bySeq: make(map[string]string, len(sessions)),
	}

	for _, s := range sessions {
		r.items[s.ID] = s
		r.bySeq[seqKey(s.StreamerID, s.SessionNumber)] = s.ID
	}

	return r
}

func seqKey(streamerID string, n int) string {
	return streamerID + "\x00" + strconv.Itoa(n)
}

func (r *SessionRepository) Create(_ context.Context, s session.Session) (session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := seqKey(s.StreamerID, s.SessionNumber)
	if _, taken := r.bySeq[key]; taken {
		return session.Session{}, session.ErrSequenceConflict
	}

	s.Players = append([]session.Player(nil), s.Players...)
	r.items[s.ID] = s
	r.bySeq[key] = s.ID

	return s, nil
}

func (r *SessionRepository) NextSequence(_ context.Context, streamerID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	max := 0
	for _, s := range r.items {
		if s.StreamerID == streamerID && s.SessionNumber > max {
			max = s.SessionNumber
		}
	}

	return max + 1, nil
}

func (r *SessionRepository) GetByID(_ context.Context, sessionID string) (session.Session, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[sessionID]
	if !ok {
		return session.Session{}, false, nil
	}
	s.Players = append([]session.Player(nil), s.Players...)

	return s, true, nil
}

func (r *SessionRepository) ListByStreamer(_ context.Context, streamerID string, limit int) ([]session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []session.Session
	for _, s := range r.items {
		if s.StreamerID == streamerID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionNumber > out[j].SessionNumber })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (r *SessionRepository) CountCompleted(_ context.Context, streamerID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, s := range r.items {
		if s.StreamerID == streamerID && s.Status == session.StatusCompleted {
			count++
		}
	}

	return count, nil
}

func (r *SessionRepository) Complete(_ context.Context, sessionID string, endedAt time.Time, durationMinutes int, result session.GameResult, mvpEntryID, mvpGameID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.items[sessionID]
	if !ok || s.Status != session.StatusInProgress {
		return false, nil
	}

	s.Status = session.StatusCompleted
	s.EndedAt = endedAt
	s.DurationMinutes = durationMinutes
	s.GameResult = result
	s.MvpEntryID = mvpEntryID
	s.MvpGameID = mvpGameID
	for i := range s.Players {
		if s.Players[i].QueueEntryID == mvpEntryID {
			s.Players[i].IsMvp = true
		}
	}
	r.items[sessionID] = s

	return true, nil
}

func (r *SessionRepository) Cancel(_ context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.items[sessionID]
	if !ok {
		return false, nil
	}
	if s.Status != session.StatusPreparing && s.Status != session.StatusInProgress {
		return false, nil
	}

	s.Status = session.StatusCancelled
	r.items[sessionID] = s

	return true, nil
}

func (r *SessionRepository) AppendNotes(_ context.Context, sessionID, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.items[sessionID]
	if !ok {
		return nil
	}

	s.Notes = strings.TrimSpace(s.Notes + "\n" + notes)
	r.items[sessionID] = s

	return nil
}
