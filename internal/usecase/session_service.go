package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/lokastream/mabar-queue/internal/domain/mvp"
	"github.com/lokastream/mabar-queue/internal/domain/queue"
	"github.com/lokastream/mabar-queue/internal/domain/session"
	"github.com/lokastream/mabar-queue/internal/domain/settings"
	idgen "github.com/lokastream/mabar-queue/internal/platform/id"
	"github.com/lokastream/mabar-queue/internal/platform/logging"
)

const sessionSequenceAttempts = 5

// StartSessionInput selects paid queue entries into a new game session.
type StartSessionInput struct {
	SettingsID string
	EntryIDs   []string
	GameType   string
	Notes      string
}

// EndSessionInput closes an in-progress session with its outcome.
type EndSessionInput struct {
	Result     string
	MvpEntryID string
	Notes      string
}

type SessionService struct {
	sessionRepo  session.Repository
	queueRepo    queue.Repository
	settingsRepo settings.Repository
	mvpRepo      mvp.Repository
	idGen        idgen.Generator
	events       EventPublisher
	logger       *logging.Logger
	now          func() time.Time
}

func NewSessionService(
	sessionRepo session.Repository,
	queueRepo queue.Repository,
	settingsRepo settings.Repository,
	mvpRepo mvp.Repository,
	idGen idgen.Generator,
	events EventPublisher,
	logger *logging.Logger,
) *SessionService {
	if logger == nil {
		logger = logging.Default()
	}
	if events == nil {
		events = NoopEventPublisher{}
	}

	return &SessionService{
		sessionRepo:  sessionRepo,
		queueRepo:    queueRepo,
		settingsRepo: settingsRepo,
		mvpRepo:      mvpRepo,
		idGen:        idGen,
		events:       events,
		logger:       logger,
		now:          time.Now,
	}
}

// StartSession snapshots the selected entries into a new in-progress session
// and flips them to playing. Every selected entry must have completed its
// payment; a partially paid party is rejected with the offending names.
func (s *SessionService) StartSession(ctx context.Context, streamerID string, input StartSessionInput) (session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.StartSession")
	defer span.End()

	input.SettingsID = strings.TrimSpace(input.SettingsID)
	if input.SettingsID == "" {
		return session.Session{}, fmt.Errorf("%w: settings id is required", ErrInvalidInput)
	}
	if len(input.EntryIDs) == 0 {
		return session.Session{}, fmt.Errorf("%w: at least one queue entry is required", ErrInvalidInput)
	}
	if len(input.EntryIDs) > session.MaxPartySize {
		return session.Session{}, fmt.Errorf("%w: party exceeds %d players", ErrInvalidInput, session.MaxPartySize)
	}

	cfg, exists, err := s.settingsRepo.GetByID(ctx, input.SettingsID)
	if err != nil {
		return session.Session{}, fmt.Errorf("get settings: %w", err)
	}
	if !exists {
		return session.Session{}, fmt.Errorf("%w: settings=%s", ErrNotFound, input.SettingsID)
	}
	if cfg.StreamerID != streamerID {
		return session.Session{}, fmt.Errorf("%w: settings belong to another streamer", ErrUnauthorized)
	}

	entries, err := s.loadParty(ctx, streamerID, cfg.ID, input.EntryIDs)
	if err != nil {
		return session.Session{}, err
	}

	sessionID, err := s.idGen.NewID()
	if err != nil {
		return session.Session{}, fmt.Errorf("generate session id: %w", err)
	}

	now := s.now()
	players := make([]session.Player, 0, len(entries))
	var revenue int64
	for _, e := range entries {
		players = append(players, session.Player{
			QueueEntryID: e.ID,
			PlayerName:   e.PlayerName,
			GameID:       e.GameID,
			GameNickname: e.GameNickname,
			Role:         e.Role,
			AmountPaid:   e.AmountPaid,
			JoinedAt:     e.JoinedAt,
		})
		revenue += e.AmountPaid
	}

	gameType := strings.TrimSpace(input.GameType)
	if gameType == "" {
		gameType = cfg.GameType
	}

	next := session.Session{
		ID:           sessionID,
		StreamerID:   streamerID,
		SettingsID:   cfg.ID,
		Players:      players,
		GameType:     gameType,
		StartedAt:    now,
		TotalRevenue: revenue,
		Notes:        strings.TrimSpace(input.Notes),
		Status:       session.StatusInProgress,
	}
	if err := next.Validate(); err != nil {
		return session.Session{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	created, err := s.createWithSequence(ctx, next)
	if err != nil {
		return session.Session{}, err
	}

	for _, e := range entries {
		applied, err := s.queueRepo.UpdateStatus(ctx, e.ID,
			[]queue.EntryStatus{queue.StatusWaiting, queue.StatusSelected}, queue.StatusPlaying)
		if err != nil || !applied {
			s.logger.WarnContext(ctx, "flip entry to playing failed",
				"session_id", created.ID,
				"entry_id", e.ID,
				"applied", applied,
				"error", err,
			)
		}
	}

	s.publishSession(ctx, EventActionInsert, created)

	return created, nil
}

func (s *SessionService) loadParty(ctx context.Context, streamerID, settingsID string, entryIDs []string) ([]queue.Entry, error) {
	seen := make(map[string]struct{}, len(entryIDs))
	entries := make([]queue.Entry, 0, len(entryIDs))
	var unpaid []string

	for _, entryID := range entryIDs {
		entryID = strings.TrimSpace(entryID)
		if entryID == "" {
			return nil, fmt.Errorf("%w: empty queue entry id", ErrInvalidInput)
		}
		if _, dup := seen[entryID]; dup {
			return nil, fmt.Errorf("%w: duplicate queue entry %s", ErrInvalidInput, entryID)
		}
		seen[entryID] = struct{}{}

		entry, exists, err := s.queueRepo.GetByID(ctx, entryID)
		if err != nil {
			return nil, fmt.Errorf("get queue entry: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: queue entry=%s", ErrNotFound, entryID)
		}
		if entry.StreamerID != streamerID || entry.SettingsID != settingsID {
			return nil, fmt.Errorf("%w: queue entry %s is outside this queue", ErrInvalidInput, entryID)
		}
		if !entry.Status.IsActive() || entry.Status == queue.StatusPlaying {
			return nil, fmt.Errorf("%w: queue entry %s is not selectable", ErrInvalidInput, entryID)
		}
		if entry.PaymentStatus != queue.PaymentCompleted {
			unpaid = append(unpaid, entry.PlayerName)
			continue
		}

		entries = append(entries, entry)
	}

	if len(unpaid) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, &session.UnpaidPlayersError{Names: unpaid})
	}

	return entries, nil
}

func (s *SessionService) createWithSequence(ctx context.Context, next session.Session) (session.Session, error) {
	for attempt := 1; attempt <= sessionSequenceAttempts; attempt++ {
		seq, err := s.sessionRepo.NextSequence(ctx, next.StreamerID)
		if err != nil {
			return session.Session{}, fmt.Errorf("next session number: %w", err)
		}
		next.SessionNumber = seq

		created, err := s.sessionRepo.Create(ctx, next)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, session.ErrSequenceConflict) {
			return session.Session{}, fmt.Errorf("create session: %w", err)
		}
		s.logger.DebugContext(ctx, "session number conflict, retrying",
			"streamer_id", next.StreamerID,
			"attempt", attempt,
		)
	}

	return session.Session{}, fmt.Errorf("%w: session number allocation exhausted after %d attempts", ErrConflict, sessionSequenceAttempts)
}

// EndSession closes an in-progress session. The session row is finalized
// first, then each player's queue entry is flipped independently so one
// failing entry never blocks the rest; stragglers stay visible in logs.
func (s *SessionService) EndSession(ctx context.Context, streamerID, sessionID string, input EndSessionInput) (session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.EndSession")
	defer span.End()

	current, err := s.ownedSession(ctx, streamerID, sessionID)
	if err != nil {
		return session.Session{}, err
	}
	if current.Status != session.StatusInProgress {
		return session.Session{}, fmt.Errorf("%w: session is %s, not in progress", ErrConflict, current.Status)
	}

	result, err := session.ParseGameResult(input.Result)
	if err != nil {
		return session.Session{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var mvpGameID string
	mvpEntryID := strings.TrimSpace(input.MvpEntryID)
	if mvpEntryID != "" {
		player, ok := findPlayer(current.Players, mvpEntryID)
		if !ok {
			return session.Session{}, fmt.Errorf("%w: mvp entry %s is not in this session", ErrInvalidInput, mvpEntryID)
		}
		mvpGameID = player.GameID
	}

	now := s.now()
	duration := int(now.Sub(current.StartedAt) / time.Minute)
	if duration < 0 {
		duration = 0
	}

	applied, err := s.sessionRepo.Complete(ctx, current.ID, now, duration, result, mvpEntryID, mvpGameID)
	if err != nil {
		return session.Session{}, fmt.Errorf("complete session: %w", err)
	}
	if !applied {
		return session.Session{}, fmt.Errorf("%w: session already finalized", ErrConflict)
	}

	finalize := pool.New().WithMaxGoroutines(session.MaxPartySize)
	for _, p := range current.Players {
		p := p
		finalize.Go(func() {
			applied, err := s.queueRepo.UpdateStatus(ctx, p.QueueEntryID,
				[]queue.EntryStatus{queue.StatusPlaying}, queue.StatusCompleted)
			if err != nil || !applied {
				s.logger.WarnContext(ctx, "finalize queue entry failed",
					"session_id", current.ID,
					"entry_id", p.QueueEntryID,
					"applied", applied,
					"error", err,
				)
			}
		})
	}
	finalize.Wait()

	if mvpEntryID != "" {
		participants := make([]mvp.Participant, 0, len(current.Players))
		for _, p := range current.Players {
			participants = append(participants, mvp.Participant{
				PlayerIdentifier: p.GameID,
				PlayerName:       p.PlayerName,
			})
		}
		if err := s.mvpRepo.RecordSessionOutcome(ctx, streamerID, participants, mvpGameID, now); err != nil {
			s.logger.ErrorContext(ctx, "record mvp outcome failed",
				"session_id", current.ID,
				"mvp_game_id", mvpGameID,
				"error", err,
			)
		}
	}

	if notes := strings.TrimSpace(input.Notes); notes != "" {
		if err := s.sessionRepo.AppendNotes(ctx, current.ID, notes); err != nil {
			s.logger.WarnContext(ctx, "append session notes failed", "session_id", current.ID, "error", err)
		}
		current.Notes = strings.TrimSpace(current.Notes + "\n" + notes)
	}

	current.Status = session.StatusCompleted
	current.EndedAt = now
	current.DurationMinutes = duration
	current.GameResult = result
	current.MvpEntryID = mvpEntryID
	current.MvpGameID = mvpGameID
	for i := range current.Players {
		if current.Players[i].QueueEntryID == mvpEntryID {
			current.Players[i].IsMvp = true
		}
	}

	s.publishSession(ctx, EventActionUpdate, current)

	return current, nil
}

// CancelSession abandons a session before it completes and returns its
// players to the waiting queue with their original positions.
func (s *SessionService) CancelSession(ctx context.Context, streamerID, sessionID string) (session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.CancelSession")
	defer span.End()

	current, err := s.ownedSession(ctx, streamerID, sessionID)
	if err != nil {
		return session.Session{}, err
	}

	applied, err := s.sessionRepo.Cancel(ctx, current.ID)
	if err != nil {
		return session.Session{}, fmt.Errorf("cancel session: %w", err)
	}
	if !applied {
		return session.Session{}, fmt.Errorf("%w: session already finalized", ErrConflict)
	}

	for _, p := range current.Players {
		applied, err := s.queueRepo.UpdateStatus(ctx, p.QueueEntryID,
			[]queue.EntryStatus{queue.StatusPlaying, queue.StatusSelected}, queue.StatusWaiting)
		if err != nil || !applied {
			s.logger.WarnContext(ctx, "return entry to queue failed",
				"session_id", current.ID,
				"entry_id", p.QueueEntryID,
				"applied", applied,
				"error", err,
			)
		}
	}

	current.Status = session.StatusCancelled
	s.publishSession(ctx, EventActionUpdate, current)

	return current, nil
}

func (s *SessionService) ListSessions(ctx context.Context, streamerID string, limit int) ([]session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.ListSessions")
	defer span.End()

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	sessions, err := s.sessionRepo.ListByStreamer(ctx, streamerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, nil
}

func (s *SessionService) AppendNotes(ctx context.Context, streamerID, sessionID, notes string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.AppendNotes")
	defer span.End()

	notes = strings.TrimSpace(notes)
	if notes == "" {
		return fmt.Errorf("%w: notes are required", ErrInvalidInput)
	}

	if _, err := s.ownedSession(ctx, streamerID, sessionID); err != nil {
		return err
	}

	if err := s.sessionRepo.AppendNotes(ctx, sessionID, notes); err != nil {
		return fmt.Errorf("append session notes: %w", err)
	}

	return nil
}

func (s *SessionService) ownedSession(ctx context.Context, streamerID, sessionID string) (session.Session, error) {
	current, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return session.Session{}, fmt.Errorf("get session: %w", err)
	}
	if !exists {
		return session.Session{}, fmt.Errorf("%w: session=%s", ErrNotFound, sessionID)
	}
	if current.StreamerID != streamerID {
		return session.Session{}, fmt.Errorf("%w: session belongs to another streamer", ErrUnauthorized)
	}

	return current, nil
}

func (s *SessionService) publishSession(ctx context.Context, action string, sess session.Session) {
	err := s.events.Publish(ctx, ChangeEvent{
		Type:       EventTypeGameSession,
		Action:     action,
		StreamerID: sess.StreamerID,
		DedupID:    fmt.Sprintf("session-%s-%s-%s", strings.ToLower(action), sess.ID, sess.Status),
		Payload:    sess,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "publish session event failed", "session_id", sess.ID, "error", err)
	}
}

func findPlayer(players []session.Player, entryID string) (session.Player, bool) {
	for _, p := range players {
		if p.QueueEntryID == entryID {
			return p, true
		}
	}

	return session.Player{}, false
}
