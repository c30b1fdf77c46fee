package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lokastream/mabar-queue/internal/domain/settings"
	qb "github.com/lokastream/mabar-queue/internal/platform/querybuilder"
)

type SettingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) GetByID(ctx context.Context, settingsID string) (settings.Settings, bool, error) {
	return r.getOne(ctx, qb.Eq("public_id", settingsID))
}

func (r *SettingsRepository) GetActiveByStreamer(ctx context.Context, streamerID string) (settings.Settings, bool, error) {
	return r.getOne(ctx,
		qb.Eq("streamer_id", streamerID),
		qb.Eq("is_active", true),
	)
}

func (r *SettingsRepository) getOne(ctx context.Context, conds ...qb.Condition) (settings.Settings, bool, error) {
	query, args, err := qb.Select("*").From("mabar_settings").
		Where(conds...).
		OrderBy("updated_at DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return settings.Settings{}, false, fmt.Errorf("build get settings query: %w", err)
	}

	var row settingsTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return settings.Settings{}, false, nil
		}
		return settings.Settings{}, false, fmt.Errorf("get settings: %w", err)
	}

	cfg, err := row.toSettings()
	if err != nil {
		return settings.Settings{}, false, err
	}

	return cfg, true, nil
}
