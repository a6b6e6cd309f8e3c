package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/televizor/billing/internal/config"
	"github.com/televizor/billing/internal/domain"
)

// LedgerService owns the subscription ledger: it is the single writer for
// subscription records and the read surface for feature gating.
type LedgerService struct {
	store Store
	now   func() time.Time
}

func NewLedgerService(store Store) *LedgerService {
	return &LedgerService{store: store, now: time.Now}
}

// Confirm applies a final payment notification exactly once. Redelivery of an
// already applied payment returns a duplicate result and changes nothing.
// A returned error means the store failed and the caller should fail the
// acknowledgment so the provider redelivers.
func (s *LedgerService) Confirm(ctx context.Context, n domain.PaymentNotice) (domain.ConfirmationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, config.ConfirmTimeout)
	defer cancel()

	var res domain.ConfirmationResult
	err := s.store.WithUserTx(ctx, n.UserID, func(ctx context.Context, tx Tx) error {
		// Duplicate check comes first: after the first application the
		// invoice is captured, and a redelivered notice must still read as
		// the idempotent success it is.
		applied, err := tx.PaymentApplied(ctx, n.ChargeID)
		if err != nil {
			return err
		}
		if applied {
			res = domain.ConfirmationResult{Outcome: domain.ConfirmationDuplicate}
			return nil
		}

		inv, err := tx.GetInvoiceForUpdate(ctx, n.InvoiceID)
		if errors.Is(err, domain.ErrInvoiceNotFound) {
			res = rejected(ReasonInvoiceNotFound)
			return nil
		}
		if err != nil {
			return err
		}
		// A confirmation must be preceded by a successful authorization.
		if inv.UserID != n.UserID || inv.Status != domain.InvoiceStatusAuthorized {
			res = rejected(ReasonInvalidState)
			return nil
		}
		plan, ok := PlanByCode(inv.PlanCode)
		if !ok {
			res = rejected(ReasonInvalidState)
			return nil
		}

		if err := tx.SetInvoiceStatus(ctx, inv.ID, domain.InvoiceStatusAuthorized, domain.InvoiceStatusCaptured); err != nil {
			return err
		}

		rec, err := tx.GetSubscriptionForUpdate(ctx, n.UserID)
		if err != nil {
			return err
		}
		if rec == nil {
			rec = &domain.SubscriptionRecord{UserID: n.UserID, Tier: domain.TierNone}
		}

		now := s.now()
		entry := domain.PaymentEntry{
			PaymentID:   n.ChargeID,
			InvoiceID:   inv.ID,
			AmountStars: n.AmountStars,
			AppliedAt:   now,
		}
		if err := tx.AppendPayment(ctx, n.UserID, entry); err != nil {
			return err
		}

		// Extend from whichever is later, paid time is never shortened.
		base := now
		if rec.ActiveUntil != nil && rec.ActiveUntil.After(now) {
			base = *rec.ActiveUntil
		}
		until := base.Add(PlanExtension(plan, inv.Months))

		rec.ActiveUntil = &until
		rec.Tier = plan.Tier
		rec.LastPaymentID = &entry.PaymentID
		rec.History = append(rec.History, entry)
		rec.UpdatedAt = now
		if err := tx.SaveSubscription(ctx, rec); err != nil {
			return err
		}

		res = domain.ConfirmationResult{Outcome: domain.ConfirmationApplied, Record: rec}
		return nil
	})
	if err != nil {
		return domain.ConfirmationResult{}, fmt.Errorf("confirm payment: %w", err)
	}
	return res, nil
}

// GetStatus returns the user's subscription record, or an empty record if the
// user has never paid.
func (s *LedgerService) GetStatus(ctx context.Context, userID int64) (*domain.SubscriptionRecord, error) {
	rec, err := s.store.GetSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	if rec == nil {
		rec = &domain.SubscriptionRecord{UserID: userID, Tier: domain.TierNone}
	}
	return rec, nil
}

// MarkRefunded flags a payment entry as refunded. History rows are never
// removed; the record stays the audit trail.
func (s *LedgerService) MarkRefunded(ctx context.Context, userID int64, paymentID string) error {
	err := s.store.WithUserTx(ctx, userID, func(ctx context.Context, tx Tx) error {
		return tx.MarkPaymentRefunded(ctx, userID, paymentID)
	})
	if err != nil && !errors.Is(err, domain.ErrPaymentNotFound) && !errors.Is(err, domain.ErrAlreadyRefunded) {
		return fmt.Errorf("mark refunded: %w", err)
	}
	return err
}

// StartTrial grants the one-time trial entitlement. The trial never shortens
// an existing paid window.
func (s *LedgerService) StartTrial(ctx context.Context, userID int64) (*domain.SubscriptionRecord, error) {
	var out *domain.SubscriptionRecord
	err := s.store.WithUserTx(ctx, userID, func(ctx context.Context, tx Tx) error {
		rec, err := tx.GetSubscriptionForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if rec == nil {
			rec = &domain.SubscriptionRecord{UserID: userID, Tier: domain.TierNone}
		}
		if !rec.TrialAvailable() {
			return domain.ErrTrialUsed
		}

		now := s.now()
		rec.TrialStartedAt = &now
		until := now.Add(config.TrialDuration)
		if rec.ActiveUntil == nil || rec.ActiveUntil.Before(until) {
			rec.ActiveUntil = &until
			rec.Tier = domain.TierTrial
		}
		rec.UpdatedAt = now
		if err := tx.SaveSubscription(ctx, rec); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrTrialUsed) {
			return nil, err
		}
		return nil, fmt.Errorf("start trial: %w", err)
	}
	return out, nil
}

func rejected(reason string) domain.ConfirmationResult {
	return domain.ConfirmationResult{Outcome: domain.ConfirmationRejected, Reason: reason}
}
