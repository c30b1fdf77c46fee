package settings

import "context"

// Repository describes namespace settings reads. Settings editing happens in
// the dashboard surface, outside this service; registration and session
// flows only read.
type Repository interface {
	GetByID(ctx context.Context, settingsID string) (Settings, bool, error)
	GetActiveByStreamer(ctx context.Context, streamerID string) (Settings, bool, error)
}
