package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/lokastream/mabar-queue/internal/domain/queue"
	"github.com/lokastream/mabar-queue/internal/infrastructure/repository/memory"
	"github.com/lokastream/mabar-queue/internal/platform/logging"
)

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) Publish(ctx context.Context, event ChangeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestQueueService_RemoveEntry_PublishesDeleteUsingMock(t *testing.T) {
	t.Parallel()

	queues := memory.NewQueueRepository([]queue.Entry{{
		ID:            "q-1",
		SettingsID:    "mabar-1",
		StreamerID:    "streamer-1",
		OrderID:       "MABAR-1-AAAAAA",
		PlayerName:    "Asep",
		PaymentStatus: queue.PaymentCompleted,
		QueuePosition: 1,
		Status:        queue.StatusWaiting,
		JoinedAt:      time.Now(),
	}})

	events := &mockEventPublisher{}
	events.
		On("Publish", mock.Anything, mock.MatchedBy(func(ev ChangeEvent) bool {
			return ev.Type == EventTypeQueueEntry &&
				ev.Action == EventActionDelete &&
				ev.StreamerID == "streamer-1" &&
				ev.DedupID == "queue-delete-q-1"
		})).
		Return(nil).
		Once()

	svc := NewQueueService(queues, events, logging.NewNop())

	if err := svc.RemoveEntry(context.Background(), "streamer-1", "q-1"); err != nil {
		t.Fatalf("remove entry: %v", err)
	}

	events.AssertExpectations(t)
}

func TestQueueService_RemoveEntry_PublishFailureIsSwallowedUsingMock(t *testing.T) {
	t.Parallel()

	queues := memory.NewQueueRepository([]queue.Entry{{
		ID:            "q-1",
		SettingsID:    "mabar-1",
		StreamerID:    "streamer-1",
		OrderID:       "MABAR-1-AAAAAA",
		PlayerName:    "Asep",
		PaymentStatus: queue.PaymentCompleted,
		QueuePosition: 1,
		Status:        queue.StatusWaiting,
		JoinedAt:      time.Now(),
	}})

	events := &mockEventPublisher{}
	events.
		On("Publish", mock.Anything, mock.Anything).
		Return(errors.New("feed is down")).
		Once()

	svc := NewQueueService(queues, events, logging.NewNop())

	if err := svc.RemoveEntry(context.Background(), "streamer-1", "q-1"); err != nil {
		t.Fatalf("remove entry should not fail on publish error: %v", err)
	}

	entry, exists, err := queues.GetByID(context.Background(), "q-1")
	if err != nil || !exists {
		t.Fatalf("get entry: exists=%v err=%v", exists, err)
	}
	if entry.Status != queue.StatusCancelled {
		t.Fatalf("entry status = %s, want cancelled", entry.Status)
	}

	events.AssertExpectations(t)
}
