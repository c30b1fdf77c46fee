package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/lokastream/mabar-queue/internal/domain/queue"
	"github.com/lokastream/mabar-queue/internal/platform/logging"
)

// QueueService serves the read side of the queue plus operator removals.
type QueueService struct {
	queueRepo queue.Repository
	events    EventPublisher
	logger    *logging.Logger
}

func NewQueueService(queueRepo queue.Repository, events EventPublisher, logger *logging.Logger) *QueueService {
	if logger == nil {
		logger = logging.Default()
	}
	if events == nil {
		events = NoopEventPublisher{}
	}

	return &QueueService{
		queueRepo: queueRepo,
		events:    events,
		logger:    logger,
	}
}

// ListActive returns the streamer's live queue ordered by position.
func (s *QueueService) ListActive(ctx context.Context, streamerID string) ([]queue.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueueService.ListActive")
	defer span.End()

	entries, err := s.queueRepo.ListActive(ctx, streamerID)
	if err != nil {
		return nil, fmt.Errorf("list active entries: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].QueuePosition < entries[j].QueuePosition
	})

	return entries, nil
}

// RemoveEntry takes an entry out of the queue by cancelling it. The row and
// its position survive, so the position is never handed to a later
// registration.
func (s *QueueService) RemoveEntry(ctx context.Context, streamerID, entryID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueueService.RemoveEntry")
	defer span.End()

	entry, exists, err := s.queueRepo.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get queue entry: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: queue entry=%s", ErrNotFound, entryID)
	}
	if entry.StreamerID != streamerID {
		return fmt.Errorf("%w: queue entry belongs to another streamer", ErrUnauthorized)
	}
	if entry.Status == queue.StatusPlaying {
		return fmt.Errorf("%w: entry is in an active session", ErrConflict)
	}

	applied, err := s.queueRepo.UpdateStatus(ctx, entryID,
		[]queue.EntryStatus{queue.StatusWaiting, queue.StatusSelected, queue.StatusNoShow}, queue.StatusCancelled)
	if err != nil {
		return fmt.Errorf("cancel queue entry: %w", err)
	}
	if !applied {
		return fmt.Errorf("%w: entry already left the queue", ErrConflict)
	}

	if err := s.events.Publish(ctx, ChangeEvent{
		Type:       EventTypeQueueEntry,
		Action:     EventActionDelete,
		StreamerID: streamerID,
		DedupID:    "queue-delete-" + entryID,
		Payload:    entry,
	}); err != nil {
		s.logger.WarnContext(ctx, "publish queue entry event failed", "entry_id", entryID, "error", err)
	}

	return nil
}
