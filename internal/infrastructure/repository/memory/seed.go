package memory

import (
	"github.com/lokastream/mabar-queue/internal/domain/settings"
)

const (
	SeedStreamerID = "streamer-raka"
	SeedSettingsID = "mabar-mlbb-raka"
)

// SeedSettings is the dev-mode namespace: a Mobile Legends queue priced the
// way the service is typically run on stream.
func SeedSettings() []settings.Settings {
	return []settings.Settings{
		{
			ID:                SeedSettingsID,
			StreamerID:        SeedStreamerID,
			GameType:          "Mobile Legends",
			PricePerSlot:      50_000,
			Currency:          "IDR",
			MaxQueueSize:      30,
			MinPlayersToStart: 1,
			Roles: []settings.Role{
				{ID: "exp", Name: "EXP Lane", MaxCount: 1},
				{ID: "jungle", Name: "Jungler", MaxCount: 1},
				{ID: "mid", Name: "Mid Lane", MaxCount: 1},
				{ID: "gold", Name: "Gold Lane", MaxCount: 1},
				{ID: "roam", Name: "Roamer", MaxCount: 1},
			},
			MvpRewardEnabled:     true,
			MvpRewardDescription: "Free slot after 3 MVP wins",
			MvpWinThreshold:      3,
			CustomFields: []settings.CustomField{
				{ID: "rank", Label: "Current rank", Type: "select", Required: true, Options: []string{"Epic", "Legend", "Mythic", "Mythical Glory"}},
				{ID: "discord", Label: "Discord handle", Type: "text", Required: false},
			},
			IsActive: true,
		},
	}
}
