package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lokastream/mabar-queue/internal/domain/mvp"
	idgen "github.com/lokastream/mabar-queue/internal/platform/id"
	qb "github.com/lokastream/mabar-queue/internal/platform/querybuilder"
)

type MvpRepository struct {
	db    *sqlx.DB
	idGen idgen.Generator
}

func NewMvpRepository(db *sqlx.DB, idGen idgen.Generator) *MvpRepository {
	if idGen == nil {
		idGen = idgen.NewRandomGenerator()
	}

	return &MvpRepository{db: db, idGen: idGen}
}

func (r *MvpRepository) GetByPlayer(ctx context.Context, streamerID, playerIdentifier string) (mvp.Record, bool, error) {
	return r.getOne(ctx,
		qb.Eq("streamer_id", streamerID),
		qb.Eq("player_identifier", playerIdentifier),
	)
}

func (r *MvpRepository) GetByID(ctx context.Context, recordID string) (mvp.Record, bool, error) {
	return r.getOne(ctx, qb.Eq("public_id", recordID))
}

func (r *MvpRepository) getOne(ctx context.Context, conds ...qb.Condition) (mvp.Record, bool, error) {
	query, args, err := qb.Select("*").From("mvp_records").
		Where(conds...).
		ToSQL()
	if err != nil {
		return mvp.Record{}, false, fmt.Errorf("build get mvp record query: %w", err)
	}

	var row mvpTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return mvp.Record{}, false, nil
		}
		return mvp.Record{}, false, fmt.Errorf("get mvp record: %w", err)
	}

	record, err := row.toRecord()
	if err != nil {
		return mvp.Record{}, false, err
	}

	return record, true, nil
}

func (r *MvpRepository) ListByStreamer(ctx context.Context, streamerID string) ([]mvp.Record, error) {
	query, args, err := qb.Select("*").From("mvp_records").
		Where(qb.Eq("streamer_id", streamerID)).
		OrderBy("total_mvp_wins DESC", "total_games_played DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list mvp records query: %w", err)
	}

	var rows []mvpTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list mvp records: %w", err)
	}

	out := make([]mvp.Record, 0, len(rows))
	for _, row := range rows {
		record, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}

	return out, nil
}

func (r *MvpRepository) TotalWins(ctx context.Context, streamerID string) (int, error) {
	query, args, err := qb.Select("COALESCE(SUM(total_mvp_wins), 0)").From("mvp_records").
		Where(qb.Eq("streamer_id", streamerID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build total mvp wins query: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("total mvp wins: %w", err)
	}

	return total, nil
}

const recordOutcomeSQL = `
INSERT INTO mvp_records (
	public_id, streamer_id, player_identifier, player_name,
	total_mvp_wins, total_games_played, rewards_claimed, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, 1, '[]', $6, $6)
ON CONFLICT (streamer_id, player_identifier) DO UPDATE SET
	player_name        = EXCLUDED.player_name,
	total_mvp_wins     = mvp_records.total_mvp_wins + EXCLUDED.total_mvp_wins,
	total_games_played = mvp_records.total_games_played + 1,
	updated_at         = EXCLUDED.updated_at`

func (r *MvpRepository) RecordSessionOutcome(ctx context.Context, streamerID string, participants []mvp.Participant, mvpIdentifier string, at time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx record session outcome: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, p := range participants {
		recordID, err := r.idGen.NewID()
		if err != nil {
			return fmt.Errorf("generate mvp record id: %w", err)
		}

		wins := 0
		if p.PlayerIdentifier == mvpIdentifier {
			wins = 1
		}
		if _, err := tx.ExecContext(ctx, recordOutcomeSQL,
			recordID, streamerID, p.PlayerIdentifier, p.PlayerName, wins, at,
		); err != nil {
			return fmt.Errorf("record session outcome for %s: %w", p.PlayerIdentifier, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record session outcome: %w", err)
	}

	return nil
}

func (r *MvpRepository) AppendClaim(ctx context.Context, recordID string, claim mvp.RewardClaim) (mvp.Record, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return mvp.Record{}, fmt.Errorf("begin tx append claim: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var row mvpTableModel
	if err := tx.GetContext(ctx, &row,
		"SELECT * FROM mvp_records WHERE public_id = $1 FOR UPDATE", recordID); err != nil {
		return mvp.Record{}, fmt.Errorf("lock mvp record: %w", err)
	}

	record, err := row.toRecord()
	if err != nil {
		return mvp.Record{}, err
	}
	record.RewardsClaimed = append(record.RewardsClaimed, claim)
	record.UpdatedAt = claim.ClaimedAt

	claims, err := encodeClaims(record.RewardsClaimed)
	if err != nil {
		return mvp.Record{}, err
	}

	query, args, err := qb.Update("mvp_records").
		Set("rewards_claimed", claims).
		Set("updated_at", claim.ClaimedAt).
		Where(qb.Eq("public_id", recordID)).
		ToSQL()
	if err != nil {
		return mvp.Record{}, fmt.Errorf("build append claim query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return mvp.Record{}, fmt.Errorf("append claim: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return mvp.Record{}, fmt.Errorf("commit append claim: %w", err)
	}

	return record, nil
}
