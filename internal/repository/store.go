package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/televizor/billing/internal/domain"
	"github.com/televizor/billing/internal/service"
)

// Store is the Postgres implementation of service.Store.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// WithUserTx runs fn in a transaction holding an advisory lock on userID.
// The lock serializes authorize, confirm and issue for one user while leaving
// other users untouched; it releases automatically at commit or rollback.
func (s *Store) WithUserTx(ctx context.Context, userID int64, fn func(ctx context.Context, tx service.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", userID); err != nil {
		return fmt.Errorf("lock user: %w", err)
	}

	if err := fn(ctx, &storeTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return scanInvoice(s.pool.QueryRow(ctx, invoiceSelect+" WHERE id = $1", id))
}

func (s *Store) GetSubscription(ctx context.Context, userID int64) (*domain.SubscriptionRecord, error) {
	rec, err := querySubscription(ctx, s.pool, userID, false)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	rec.History, err = queryHistory(ctx, s.pool, userID)
	return rec, err
}

func (s *Store) ExpireStaleInvoices(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE invoices SET status = $1, updated_at = now()
		 WHERE status = $2 AND created_at < $3`,
		domain.InvoiceStatusExpired, domain.InvoiceStatusPending, olderThan)
	if err != nil {
		return 0, fmt.Errorf("expire stale invoices: %w", err)
	}
	return tag.RowsAffected(), nil
}

type storeTx struct {
	tx pgx.Tx
}

const invoiceSelect = `SELECT id, user_id, plan_code, months, amount_stars, status, created_at, updated_at FROM invoices`

func (t *storeTx) GetInvoiceForUpdate(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return scanInvoice(t.tx.QueryRow(ctx, invoiceSelect+" WHERE id = $1 FOR UPDATE", id))
}

func (t *storeTx) SetInvoiceStatus(ctx context.Context, id uuid.UUID, from, to domain.InvoiceStatus) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE invoices SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return fmt.Errorf("set invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStateConflict
	}
	return nil
}

func (t *storeTx) SupersedePendingInvoices(ctx context.Context, userID int64, planCode string) (int64, error) {
	tag, err := t.tx.Exec(ctx,
		`UPDATE invoices SET status = $3, updated_at = now()
		 WHERE user_id = $1 AND plan_code = $2 AND status = $4`,
		userID, planCode, domain.InvoiceStatusExpired, domain.InvoiceStatusPending)
	if err != nil {
		return 0, fmt.Errorf("supersede pending invoices: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (t *storeTx) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO invoices (id, user_id, plan_code, months, amount_stars, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		inv.ID, inv.UserID, inv.PlanCode, inv.Months, inv.AmountStars, inv.Status, inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (t *storeTx) GetSubscriptionForUpdate(ctx context.Context, userID int64) (*domain.SubscriptionRecord, error) {
	rec, err := querySubscription(ctx, t.tx, userID, true)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	rec.History, err = queryHistory(ctx, t.tx, userID)
	return rec, err
}

func (t *storeTx) SaveSubscription(ctx context.Context, rec *domain.SubscriptionRecord) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO subscriptions (user_id, tier, active_until, trial_started_at, last_payment_id, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE SET
		     tier = EXCLUDED.tier,
		     active_until = EXCLUDED.active_until,
		     trial_started_at = EXCLUDED.trial_started_at,
		     last_payment_id = EXCLUDED.last_payment_id,
		     updated_at = EXCLUDED.updated_at`,
		rec.UserID, rec.Tier,
		timePtrToPgTimestamptz(rec.ActiveUntil),
		timePtrToPgTimestamptz(rec.TrialStartedAt),
		textPtrToPgText(rec.LastPaymentID),
		rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	return nil
}

func (t *storeTx) PaymentApplied(ctx context.Context, paymentID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payments WHERE payment_id = $1)`, paymentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check payment: %w", err)
	}
	return exists, nil
}

func (t *storeTx) AppendPayment(ctx context.Context, userID int64, entry domain.PaymentEntry) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO payments (payment_id, user_id, invoice_id, amount_stars, refunded, applied_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.PaymentID, userID, entry.InvoiceID, entry.AmountStars, entry.Refunded, entry.AppliedAt)
	if err != nil {
		return fmt.Errorf("append payment: %w", err)
	}
	return nil
}

func (t *storeTx) MarkPaymentRefunded(ctx context.Context, userID int64, paymentID string) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE payments SET refunded = TRUE WHERE payment_id = $1 AND user_id = $2 AND NOT refunded`,
		paymentID, userID)
	if err != nil {
		return fmt.Errorf("mark payment refunded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := t.tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM payments WHERE payment_id = $1 AND user_id = $2)`,
			paymentID, userID).Scan(&exists); err != nil {
			return fmt.Errorf("check payment: %w", err)
		}
		if exists {
			return domain.ErrAlreadyRefunded
		}
		return domain.ErrPaymentNotFound
	}
	return nil
}

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func querySubscription(ctx context.Context, q rowQuerier, userID int64, forUpdate bool) (*domain.SubscriptionRecord, error) {
	query := `SELECT user_id, tier, active_until, trial_started_at, last_payment_id, updated_at
	          FROM subscriptions WHERE user_id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		rec            domain.SubscriptionRecord
		activeUntil    pgtype.Timestamptz
		trialStartedAt pgtype.Timestamptz
		lastPaymentID  pgtype.Text
	)
	err := q.QueryRow(ctx, query, userID).Scan(
		&rec.UserID, &rec.Tier, &activeUntil, &trialStartedAt, &lastPaymentID, &rec.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	rec.ActiveUntil = pgTimestamptzToTimePtr(activeUntil)
	rec.TrialStartedAt = pgTimestamptzToTimePtr(trialStartedAt)
	rec.LastPaymentID = pgTextToTextPtr(lastPaymentID)
	return &rec, nil
}

func queryHistory(ctx context.Context, q rowQuerier, userID int64) ([]domain.PaymentEntry, error) {
	rows, err := q.Query(ctx,
		`SELECT payment_id, invoice_id, amount_stars, refunded, applied_at
		 FROM payments WHERE user_id = $1 ORDER BY applied_at, payment_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("get payment history: %w", err)
	}
	defer rows.Close()

	var history []domain.PaymentEntry
	for rows.Next() {
		var e domain.PaymentEntry
		if err := rows.Scan(&e.PaymentID, &e.InvoiceID, &e.AmountStars, &e.Refunded, &e.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		history = append(history, e)
	}
	return history, rows.Err()
}

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := row.Scan(&inv.ID, &inv.UserID, &inv.PlanCode, &inv.Months, &inv.AmountStars,
		&inv.Status, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return &inv, nil
}
