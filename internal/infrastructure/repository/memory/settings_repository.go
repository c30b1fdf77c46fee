package memory

import (
	"context"
	"sync"

	"github.com/lokastream/mabar-queue/internal/domain/settings"
)

type SettingsRepository struct {
	mu    sync.RWMutex
	items map[string]settings.Settings
}

func NewSettingsRepository(configs []settings.Settings) *SettingsRepository {
	items := make(map[string]settings.Settings, len(configs))
	for _, c := range configs {
		items[c.ID] = c
	}

	return &SettingsRepository{items: items}
}

func (r *SettingsRepository) GetByID(_ context.Context, settingsID string) (settings.Settings, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[settingsID]
	if !ok {
		return settings.Settings{}, false, nil
	}

	return c, true, nil
}

func (r *SettingsRepository) GetActiveByStreamer(_ context.Context, streamerID string) (settings.Settings, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.items {
		if c.StreamerID == streamerID && c.IsActive {
			return c, true, nil
		}
	}

	return settings.Settings{}, false, nil
}
