package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lokastream/mabar-queue/internal/domain/donor"
	qb "github.com/lokastream/mabar-queue/internal/platform/querybuilder"
)

type DonationRepository struct {
	db *sqlx.DB
}

func NewDonationRepository(db *sqlx.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

func (r *DonationRepository) ListByStreamer(ctx context.Context, streamerID string, limit int) ([]donor.Donation, error) {
	query, args, err := qb.Select("*").From("donations").
		Where(qb.Eq("streamer_id", streamerID)).
		OrderBy("created_at DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list donations query: %w", err)
	}

	var rows []donationTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}

	out := make([]donor.Donation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDonation())
	}

	return out, nil
}

func (r *DonationRepository) TotalCompletedAmount(ctx context.Context, streamerID string) (int64, error) {
	query, args, err := qb.Select("COALESCE(SUM(amount), 0)").From("donations").
		Where(qb.Eq("streamer_id", streamerID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build total donations query: %w", err)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("total donations: %w", err)
	}

	return total, nil
}
