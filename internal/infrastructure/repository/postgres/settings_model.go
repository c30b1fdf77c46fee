package postgres

import (
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/lokastream/mabar-queue/internal/domain/settings"
)

type settingsTableModel struct {
	ID                   int64     `db:"id"`
	PublicID             string    `db:"public_id"`
	StreamerID           string    `db:"streamer_id"`
	GameType             string    `db:"game_type"`
	PricePerSlot         int64     `db:"price_per_slot"`
	Currency             string    `db:"currency"`
	MaxQueueSize         int       `db:"max_queue_size"`
	MinPlayersToStart    int       `db:"min_players_to_start"`
	Roles                []byte    `db:"roles"`
	MvpRewardEnabled     bool      `db:"mvp_reward_enabled"`
	MvpRewardDescription string    `db:"mvp_reward_description"`
	MvpWinThreshold      int       `db:"mvp_win_threshold"`
	CustomFields         []byte    `db:"custom_fields"`
	IsActive             bool      `db:"is_active"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

type roleDocument struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MaxCount int    `json:"max_count"`
}

type customFieldDocument struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
}

func (m settingsTableModel) toSettings() (settings.Settings, error) {
	var roleDocs []roleDocument
	if len(m.Roles) > 0 {
		if err := sonic.Unmarshal(m.Roles, &roleDocs); err != nil {
			return settings.Settings{}, fmt.Errorf("decode settings roles: %w", err)
		}
	}
	roles := make([]settings.Role, 0, len(roleDocs))
	for _, d := range roleDocs {
		roles = append(roles, settings.Role(d))
	}

	var fieldDocs []customFieldDocument
	if len(m.CustomFields) > 0 {
		if err := sonic.Unmarshal(m.CustomFields, &fieldDocs); err != nil {
			return settings.Settings{}, fmt.Errorf("decode settings custom fields: %w", err)
		}
	}
	fields := make([]settings.CustomField, 0, len(fieldDocs))
	for _, d := range fieldDocs {
		fields = append(fields, settings.CustomField(d))
	}

	return settings.Settings{
		ID:                   m.PublicID,
		StreamerID:           m.StreamerID,
		GameType:             m.GameType,
		PricePerSlot:         m.PricePerSlot,
		Currency:             m.Currency,
		MaxQueueSize:         m.MaxQueueSize,
		MinPlayersToStart:    m.MinPlayersToStart,
		Roles:                roles,
		MvpRewardEnabled:     m.MvpRewardEnabled,
		MvpRewardDescription: m.MvpRewardDescription,
		MvpWinThreshold:      m.MvpWinThreshold,
		CustomFields:         fields,
		IsActive:             m.IsActive,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}, nil
}
