package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lokastream/mabar-queue/internal/domain/queue"
	qb "github.com/lokastream/mabar-queue/internal/platform/querybuilder"
)

type QueueRepository struct {
	db *sqlx.DB
}

func NewQueueRepository(db *sqlx.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// createEntrySQL allocates the queue position inside the insert itself: the
// subselect reads the namespace tail and the unique index on
// (mabar_settings_id, queue_position) turns a concurrent duplicate into a
// 23505, which the use case retries.
const createEntrySQL = `
INSERT INTO queue_entries (
	public_id, mabar_settings_id, streamer_id,
	player_name, game_id, game_nickname, role, email, phone,
	payment_status, order_id, payment_method, amount_paid,
	gateway_status, gateway_payment_type,
	queue_position, status, custom_data, joined_at, updated_at
) VALUES (
	$1, $2, $3,
	$4, $5, $6, $7, $8, $9,
	$10, $11, $12, $13,
	$14, $15,
	(SELECT COALESCE(MAX(queue_position), 0) + 1 FROM queue_entries WHERE mabar_settings_id = $2),
	$16, $17, $18, $19
)
RETURNING queue_position`

func (r *QueueRepository) Create(ctx context.Context, entry queue.Entry) (queue.Entry, error) {
	customData, err := encodeCustomData(entry.CustomData)
	if err != nil {
		return queue.Entry{}, err
	}

	var position int
	err = r.db.QueryRowxContext(ctx, createEntrySQL,
		entry.ID, entry.SettingsID, entry.StreamerID,
		entry.PlayerName, entry.GameID, entry.GameNickname, entry.Role, entry.Email, entry.Phone,
		string(entry.PaymentStatus), entry.OrderID, entry.PaymentMethod, entry.AmountPaid,
		entry.GatewayStatus, entry.GatewayPaymentType,
		string(entry.Status), customData, entry.JoinedAt, entry.UpdatedAt,
	).Scan(&position)
	if err != nil {
		if isUniqueViolation(err) {
			return queue.Entry{}, queue.ErrPositionConflict
		}
		return queue.Entry{}, fmt.Errorf("create queue entry: %w", err)
	}

	entry.QueuePosition = position
	return entry, nil
}

func (r *QueueRepository) GetByID(ctx context.Context, entryID string) (queue.Entry, bool, error) {
	return r.getOne(ctx, qb.Eq("public_id", entryID))
}

func (r *QueueRepository) GetByOrderID(ctx context.Context, orderID string) (queue.Entry, bool, error) {
	return r.getOne(ctx, qb.Eq("order_id", orderID))
}

func (r *QueueRepository) getOne(ctx context.Context, cond qb.Condition) (queue.Entry, bool, error) {
	query, args, err := qb.Select("*").From("queue_entries").
		Where(cond).
		ToSQL()
	if err != nil {
		return queue.Entry{}, false, fmt.Errorf("build get queue entry query: %w", err)
	}

	var row queueEntryTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return queue.Entry{}, false, nil
		}
		return queue.Entry{}, false, fmt.Errorf("get queue entry: %w", err)
	}

	entry, err := row.toEntry()
	if err != nil {
		return queue.Entry{}, false, err
	}

	return entry, true, nil
}

func activeStatuses() []any {
	return []any{
		string(queue.StatusWaiting),
		string(queue.StatusSelected),
		string(queue.StatusPlaying),
	}
}

func (r *QueueRepository) ListActive(ctx context.Context, streamerID string) ([]queue.Entry, error) {
	query, args, err := qb.Select("*").From("queue_entries").
		Where(
			qb.Eq("streamer_id", streamerID),
			qb.In("status", activeStatuses()),
		).
		OrderBy("queue_position").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list active entries query: %w", err)
	}

	return r.list(ctx, query, args)
}

func (r *QueueRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]queue.Entry, error) {
	query, args, err := qb.Select("*").From("queue_entries").
		Where(
			qb.Eq("payment_status", string(queue.PaymentPending)),
			qb.Expr("joined_at < ?", cutoff),
		).
		OrderBy("joined_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pending entries query: %w", err)
	}

	return r.list(ctx, query, args)
}

func (r *QueueRepository) list(ctx context.Context, query string, args []any) ([]queue.Entry, error) {
	var rows []queueEntryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select queue entries: %w", err)
	}

	out := make([]queue.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toEntry()
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}

	return out, nil
}

func (r *QueueRepository) CountActive(ctx context.Context, settingsID string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From("queue_entries").
		Where(
			qb.Eq("mabar_settings_id", settingsID),
			qb.In("status", activeStatuses()),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count active entries query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count active entries: %w", err)
	}

	return count, nil
}

func (r *QueueRepository) UpdateStatus(ctx context.Context, entryID string, from []queue.EntryStatus, to queue.EntryStatus) (bool, error) {
	fromValues := make([]any, 0, len(from))
	for _, s := range from {
		fromValues = append(fromValues, string(s))
	}

	query, args, err := qb.Update("queue_entries").
		Set("status", string(to)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", entryID),
			qb.In("status", fromValues),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build update entry status query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update entry status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected update entry status: %w", err)
	}

	return affected > 0, nil
}
