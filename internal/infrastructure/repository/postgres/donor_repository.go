package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lokastream/mabar-queue/internal/domain/donor"
	qb "github.com/lokastream/mabar-queue/internal/platform/querybuilder"
)

type DonorRepository struct {
	db *sqlx.DB
}

func NewDonorRepository(db *sqlx.DB) *DonorRepository {
	return &DonorRepository{db: db}
}

func (r *DonorRepository) GetByPlayer(ctx context.Context, streamerID, gameID string) (donor.Aggregate, bool, error) {
	query, args, err := qb.Select("*").From("donor_customers").
		Where(
			qb.Eq("streamer_id", streamerID),
			qb.Eq("game_id", gameID),
		).
		ToSQL()
	if err != nil {
		return donor.Aggregate{}, false, fmt.Errorf("build get donor query: %w", err)
	}

	var row donorTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return donor.Aggregate{}, false, nil
		}
		return donor.Aggregate{}, false, fmt.Errorf("get donor: %w", err)
	}

	return row.toAggregate(), true, nil
}

func (r *DonorRepository) ListByStreamer(ctx context.Context, streamerID string) ([]donor.Aggregate, error) {
	query, args, err := qb.Select("*").From("donor_customers").
		Where(qb.Eq("streamer_id", streamerID)).
		OrderBy("lifetime_amount DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list donors query: %w", err)
	}

	var rows []donorTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list donors: %w", err)
	}

	out := make([]donor.Aggregate, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toAggregate())
	}

	return out, nil
}

func (r *DonorRepository) SetModeration(ctx context.Context, streamerID, aggregateID string, blocked bool, notes string) (donor.Aggregate, bool, error) {
	query, args, err := qb.Update("donor_customers").
		Set("is_blocked", blocked).
		Set("notes", notes).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", aggregateID),
			qb.Eq("streamer_id", streamerID),
		).
		Suffix("RETURNING *").
		ToSQL()
	if err != nil {
		return donor.Aggregate{}, false, fmt.Errorf("build set donor moderation query: %w", err)
	}

	var row donorTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return donor.Aggregate{}, false, nil
		}
		return donor.Aggregate{}, false, fmt.Errorf("set donor moderation: %w", err)
	}

	return row.toAggregate(), true, nil
}
