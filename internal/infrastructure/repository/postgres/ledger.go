package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lokastream/mabar-queue/internal/domain/donor"
	"github.com/lokastream/mabar-queue/internal/domain/payment"
	"github.com/lokastream/mabar-queue/internal/domain/queue"
	idgen "github.com/lokastream/mabar-queue/internal/platform/id"
	qb "github.com/lokastream/mabar-queue/internal/platform/querybuilder"
)

// Ledger applies payment transitions in one database transaction: the entry
// row is locked and conditionally updated, and the first transition into
// completed inserts the donation and rolls the donor aggregate up inside the
// same commit. A racing duplicate blocks on the row lock and then reads the
// already-applied state.
type Ledger struct {
	db    *sqlx.DB
	idGen idgen.Generator
}

func NewLedger(db *sqlx.DB, idGen idgen.Generator) *Ledger {
	if idGen == nil {
		idGen = idgen.NewRandomGenerator()
	}

	return &Ledger{db: db, idGen: idGen}
}

func (l *Ledger) ApplyTransition(ctx context.Context, input payment.TransitionInput) (payment.TransitionResult, error) {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return payment.TransitionResult{}, fmt.Errorf("begin tx apply transition: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var row queueEntryTableModel
	err = tx.GetContext(ctx, &row,
		"SELECT * FROM queue_entries WHERE order_id = $1 FOR UPDATE", input.OrderID)
	if err != nil {
		if isNotFound(err) {
			return payment.TransitionResult{Outcome: payment.OutcomeUnknownOrder}, nil
		}
		return payment.TransitionResult{}, fmt.Errorf("lock queue entry: %w", err)
	}

	entry, err := row.toEntry()
	if err != nil {
		return payment.TransitionResult{}, err
	}

	prev := entry.PaymentStatus
	if input.To == prev {
		return payment.TransitionResult{Outcome: payment.OutcomeNoop, Entry: entry}, nil
	}
	if input.To.Precedence() <= prev.Precedence() {
		return payment.TransitionResult{Outcome: payment.OutcomeStale, Entry: entry}, nil
	}

	observedAt := input.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now()
	}

	entry.PaymentStatus = input.To
	entry.Status = queue.EntryStatusFor(input.To, entry.Status)
	if input.GatewayStatus != "" {
		entry.GatewayStatus = input.GatewayStatus
	}
	if input.PaymentType != "" {
		entry.GatewayPaymentType = input.PaymentType
	}
	entry.UpdatedAt = observedAt

	if err := l.updateEntry(ctx, tx, entry, prev); err != nil {
		return payment.TransitionResult{}, err
	}

	result := payment.TransitionResult{
		Outcome: payment.OutcomeApplied,
		Entry:   entry,
	}
	if input.To == queue.PaymentCompleted {
		result.FirstCompletion = true
		if err := l.recordCompletion(ctx, tx, entry, input, observedAt); err != nil {
			return payment.TransitionResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return payment.TransitionResult{}, fmt.Errorf("commit apply transition: %w", err)
	}

	return result, nil
}

// updateEntry is compare-and-set on payment_status even though the row is
// locked; the guard makes the write safe to reason about on its own.
func (l *Ledger) updateEntry(ctx context.Context, tx *sqlx.Tx, entry queue.Entry, prev queue.PaymentStatus) error {
	query, args, err := qb.Update("queue_entries").
		Set("payment_status", string(entry.PaymentStatus)).
		Set("status", string(entry.Status)).
		Set("gateway_status", entry.GatewayStatus).
		Set("gateway_payment_type", entry.GatewayPaymentType).
		Set("updated_at", entry.UpdatedAt).
		Where(
			qb.Eq("public_id", entry.ID),
			qb.Eq("payment_status", string(prev)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update payment status query: %w", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected update payment status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update payment status: entry %s changed underneath the lock", entry.ID)
	}

	return nil
}

func (l *Ledger) recordCompletion(ctx context.Context, tx *sqlx.Tx, entry queue.Entry, input payment.TransitionInput, at time.Time) error {
	amount := input.GrossAmount
	if amount <= 0 {
		amount = entry.AmountPaid
	}

	donationID, err := l.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate donation id: %w", err)
	}

	insertDonation := donationInsertModel{
		PublicID:      donationID,
		StreamerID:    entry.StreamerID,
		DonorName:     entry.PlayerName,
		DonorGameID:   entry.GameID,
		Amount:        amount,
		Currency:      "IDR",
		DonationType:  donor.DonationTypeMabar,
		QueueEntryID:  entry.ID,
		OrderID:       entry.OrderID,
		PaymentMethod: entry.PaymentMethod,
		CreatedAt:     at,
	}
	query, args, err := qb.InsertModel("donations", insertDonation, "")
	if err != nil {
		return fmt.Errorf("build insert donation query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}

	return l.upsertAggregate(ctx, tx, entry, amount, at)
}

func (l *Ledger) upsertAggregate(ctx context.Context, tx *sqlx.Tx, entry queue.Entry, amount int64, at time.Time) error {
	var current donorTableModel
	haveCurrent := true
	err := tx.GetContext(ctx, &current,
		"SELECT * FROM donor_customers WHERE streamer_id = $1 AND game_id = $2 FOR UPDATE",
		entry.StreamerID, entry.GameID)
	if err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("lock donor aggregate: %w", err)
		}
		haveCurrent = false
	}

	lifetime := amount
	totalDonations := 1
	firstDonationAt := at
	if haveCurrent {
		lifetime += current.LifetimeAmount
		totalDonations += current.TotalDonations
		firstDonationAt = current.FirstDonationAt
	}
	tier := donor.ClassifyTier(lifetime)

	if haveCurrent {
		query, args, err := qb.Update("donor_customers").
			Set("player_name", entry.PlayerName).
			Set("game_nickname", entry.GameNickname).
			Set("total_donations", totalDonations).
			Set("lifetime_amount", lifetime).
			Set("favorite_role", entry.Role).
			Set("tier", string(tier)).
			Set("last_donation_at", at).
			Set("updated_at", at).
			Where(qb.Eq("id", current.ID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update donor aggregate query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update donor aggregate: %w", err)
		}

		return nil
	}

	aggID, err := l.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate donor id: %w", err)
	}
	insertAgg := donorInsertModel{
		PublicID:        aggID,
		StreamerID:      entry.StreamerID,
		GameID:          entry.GameID,
		PlayerName:      entry.PlayerName,
		GameNickname:    entry.GameNickname,
		Email:           entry.Email,
		Phone:           entry.Phone,
		TotalDonations:  totalDonations,
		LifetimeAmount:  lifetime,
		FavoriteRole:    entry.Role,
		Tier:            string(tier),
		FirstDonationAt: firstDonationAt,
		LastDonationAt:  at,
		CreatedAt:       at,
		UpdatedAt:       at,
	}
	query, args, err := qb.InsertModel("donor_customers", insertAgg, "")
	if err != nil {
		return fmt.Errorf("build insert donor aggregate query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert donor aggregate: %w", err)
	}

	return nil
}
