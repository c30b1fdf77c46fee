package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lokastream/mabar-queue/internal/domain/session"
	qb "github.com/lokastream/mabar-queue/internal/platform/querybuilder"
)

type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

type sessionInsertModel struct {
	PublicID      string    `db:"public_id"`
	StreamerID    string    `db:"streamer_id"`
	SettingsID    string    `db:"mabar_settings_id"`
	SessionNumber int       `db:"session_number"`
	Players       []byte    `db:"players"`
	GameType      string    `db:"game_type"`
	StartedAt     time.Time `db:"started_at"`
	TotalRevenue  int64     `db:"total_revenue"`
	Notes         string    `db:"notes"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Create persists the session with its claimed number; the unique index on
// (streamer_id, session_number) turns a concurrent duplicate into a 23505.
func (r *SessionRepository) Create(ctx context.Context, s session.Session) (session.Session, error) {
	players, err := encodePlayers(s.Players)
	if err != nil {
		return session.Session{}, err
	}

	insertModel := sessionInsertModel{
		PublicID:      s.ID,
		StreamerID:    s.StreamerID,
		SettingsID:    s.SettingsID,
		SessionNumber: s.SessionNumber,
		Players:       players,
		GameType:      s.GameType,
		StartedAt:     s.StartedAt,
		TotalRevenue:  s.TotalRevenue,
		Notes:         s.Notes,
		Status:        string(s.Status),
		CreatedAt:     s.StartedAt,
		UpdatedAt:     s.StartedAt,
	}
	query, args, err := qb.InsertModel("game_sessions", insertModel, "")
	if err != nil {
		return session.Session{}, fmt.Errorf("build create session query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return session.Session{}, session.ErrSequenceConflict
		}
		return session.Session{}, fmt.Errorf("create session: %w", err)
	}

	return s, nil
}

func (r *SessionRepository) NextSequence(ctx context.Context, streamerID string) (int, error) {
	query, args, err := qb.Select("COALESCE(MAX(session_number), 0) + 1").From("game_sessions").
		Where(qb.Eq("streamer_id", streamerID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build next session number query: %w", err)
	}

	var next int
	if err := r.db.GetContext(ctx, &next, query, args...); err != nil {
		return 0, fmt.Errorf("next session number: %w", err)
	}

	return next, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (session.Session, bool, error) {
	query, args, err := qb.Select("*").From("game_sessions").
		Where(qb.Eq("public_id", sessionID)).
		ToSQL()
	if err != nil {
		return session.Session{}, false, fmt.Errorf("build get session query: %w", err)
	}

	var row sessionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return session.Session{}, false, nil
		}
		return session.Session{}, false, fmt.Errorf("get session: %w", err)
	}

	s, err := row.toSession()
	if err != nil {
		return session.Session{}, false, err
	}

	return s, true, nil
}

func (r *SessionRepository) ListByStreamer(ctx context.Context, streamerID string, limit int) ([]session.Session, error) {
	query, args, err := qb.Select("*").From("game_sessions").
		Where(qb.Eq("streamer_id", streamerID)).
		OrderBy("session_number DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list sessions query: %w", err)
	}

	var rows []sessionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := make([]session.Session, 0, len(rows))
	for _, row := range rows {
		s, err := row.toSession()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, nil
}

func (r *SessionRepository) CountCompleted(ctx context.Context, streamerID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("game_sessions").
		Where(
			qb.Eq("streamer_id", streamerID),
			qb.Eq("status", string(session.StatusCompleted)),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count completed sessions query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count completed sessions: %w", err)
	}

	return count, nil
}

func (r *SessionRepository) Complete(ctx context.Context, sessionID string, endedAt time.Time, durationMinutes int, result session.GameResult, mvpEntryID, mvpGameID string) (bool, error) {
	query, args, err := qb.Update("game_sessions").
		Set("status", string(session.StatusCompleted)).
		Set("ended_at", endedAt).
		Set("duration_minutes", durationMinutes).
		Set("game_result", string(result)).
		Set("mvp_entry_id", mvpEntryID).
		Set("mvp_game_id", mvpGameID).
		Set("updated_at", endedAt).
		Where(
			qb.Eq("public_id", sessionID),
			qb.Eq("status", string(session.StatusInProgress)),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build complete session query: %w", err)
	}

	execResult, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("complete session: %w", err)
	}
	affected, err := execResult.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected complete session: %w", err)
	}

	return affected > 0, nil
}

func (r *SessionRepository) Cancel(ctx context.Context, sessionID string) (bool, error) {
	query, args, err := qb.Update("game_sessions").
		Set("status", string(session.StatusCancelled)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", sessionID),
			qb.In("status", []any{
				string(session.StatusPreparing),
				string(session.StatusInProgress),
			}),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build cancel session query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("cancel session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected cancel session: %w", err)
	}

	return affected > 0, nil
}

func (r *SessionRepository) AppendNotes(ctx context.Context, sessionID, notes string) error {
	query, args, err := qb.Update("game_sessions").
		SetExpr("notes", "TRIM(BOTH E'\\n' FROM notes || E'\\n' || ?)", notes).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("public_id", sessionID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build append session notes query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append session notes: %w", err)
	}

	return nil
}
