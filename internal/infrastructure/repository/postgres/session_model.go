package postgres

import (
	"database/sql"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/lokastream/mabar-queue/internal/domain/session"
)

type sessionTableModel struct {
	ID              int64        `db:"id"`
	PublicID        string       `db:"public_id"`
	StreamerID      string       `db:"streamer_id"`
	SettingsID      string       `db:"mabar_settings_id"`
	SessionNumber   int          `db:"session_number"`
	Players         []byte       `db:"players"`
	GameType        string       `db:"game_type"`
	GameResult      string       `db:"game_result"`
	MvpGameID       string       `db:"mvp_game_id"`
	MvpEntryID      string       `db:"mvp_entry_id"`
	StartedAt       time.Time    `db:"started_at"`
	EndedAt         sql.NullTime `db:"ended_at"`
	DurationMinutes int          `db:"duration_minutes"`
	TotalRevenue    int64        `db:"total_revenue"`
	Notes           string       `db:"notes"`
	Status          string       `db:"status"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
}

type sessionPlayerDocument struct {
	QueueEntryID string    `json:"queue_entry_id"`
	PlayerName   string    `json:"player_name"`
	GameID       string    `json:"game_id"`
	GameNickname string    `json:"game_nickname"`
	Role         string    `json:"role"`
	AmountPaid   int64     `json:"amount_paid"`
	IsMvp        bool      `json:"is_mvp"`
	JoinedAt     time.Time `json:"joined_at"`
}

func encodePlayers(players []session.Player) ([]byte, error) {
	docs := make([]sessionPlayerDocument, 0, len(players))
	for _, p := range players {
		docs = append(docs, sessionPlayerDocument(p))
	}

	encoded, err := sonic.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("encode session players: %w", err)
	}

	return encoded, nil
}

func decodePlayers(raw []byte) ([]session.Player, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var docs []sessionPlayerDocument
	if err := sonic.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode session players: %w", err)
	}

	out := make([]session.Player, 0, len(docs))
	for _, d := range docs {
		out = append(out, session.Player(d))
	}

	return out, nil
}

func (m sessionTableModel) toSession() (session.Session, error) {
	players, err := decodePlayers(m.Players)
	if err != nil {
		return session.Session{}, err
	}

	s := session.Session{
		ID:              m.PublicID,
		StreamerID:      m.StreamerID,
		SettingsID:      m.SettingsID,
		SessionNumber:   m.SessionNumber,
		Players:         players,
		GameType:        m.GameType,
		GameResult:      session.GameResult(m.GameResult),
		MvpGameID:       m.MvpGameID,
		MvpEntryID:      m.MvpEntryID,
		StartedAt:       m.StartedAt,
		DurationMinutes: m.DurationMinutes,
		TotalRevenue:    m.TotalRevenue,
		Notes:           m.Notes,
		Status:          session.Status(m.Status),
	}
	if m.EndedAt.Valid {
		s.EndedAt = m.EndedAt.Time
	}

	return s, nil
}
