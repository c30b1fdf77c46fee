package usecase

import "context"

// Change-event types consumed by UI collaborators (overlay, dashboards).
const (
	EventTypeQueueEntry  = "queue_entry"
	EventTypeGameSession = "game_session"
	EventTypeDonation    = "donation"
)

const (
	EventActionInsert = "INSERT"
	EventActionUpdate = "UPDATE"
	EventActionDelete = "DELETE"
)

// ChangeEvent is one committed state change published to the realtime feed.
// The feed is an outbound contract only; core flow never depends on a
// consumer acknowledging it.
type ChangeEvent struct {
	Type       string
	Action     string
	StreamerID string
	// DedupID lets the consumer drop redeliveries.
	DedupID string
	Payload any
}

// EventPublisher delivers change events to the configured consumer.
type EventPublisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

// NoopEventPublisher drops events; used when no feed consumer is configured.
type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(_ context.Context, _ ChangeEvent) error { return nil }
