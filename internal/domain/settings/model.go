package settings

import (
	"fmt"
	"time"
)

// Role is one selectable in-game role with an optional per-party cap.
type Role struct {
	ID       string
	Name     string
	MaxCount int
}

// CustomField is an extra registration question configured by the streamer.
type CustomField struct {
	ID       string
	Label    string
	Type     string
	Required bool
	Options  []string
}

// Settings is a streamer's queue namespace: the price, roles and limits that
// scope queue positions and sessions.
type Settings struct {
	ID         string
	StreamerID string

	GameType          string
	PricePerSlot      int64
	Currency          string
	MaxQueueSize      int
	MinPlayersToStart int
	Roles             []Role

	MvpRewardEnabled     bool
	MvpRewardDescription string
	MvpWinThreshold      int

	CustomFields []CustomField
	IsActive     bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s Settings) Validate() error {
	if s.StreamerID == "" {
		return fmt.Errorf("settings streamer id is required")
	}
	if s.PricePerSlot <= 0 {
		return fmt.Errorf("settings price per slot must be greater than zero")
	}
	if s.MaxQueueSize <= 0 {
		return fmt.Errorf("settings max queue size must be greater than zero")
	}

	return nil
}

// HasRole reports whether the role id is configured for this namespace.
func (s Settings) HasRole(roleID string) bool {
	for _, r := range s.Roles {
		if r.ID == roleID || r.Name == roleID {
			return true
		}
	}

	return false
}
