package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/televizor/billing/internal/config"
	"github.com/televizor/billing/internal/domain"
)

// Rejection reasons surfaced to the payer as the pre-checkout error message.
const (
	ReasonInvoiceNotFound = "invoice not found"
	ReasonInvalidState    = "invoice is no longer payable"
	ReasonAmountMismatch  = "amount does not match the invoice"
	ReasonBadCurrency     = "unsupported currency"
	ReasonUnavailable     = "payment service temporarily unavailable"
)

// StarsCurrency is the only currency this engine accepts.
const StarsCurrency = "XTR"

// CheckoutService answers pre-checkout queries. The provider auto-fails the
// transaction if no answer arrives within its deadline, so every path here
// resolves to an explicit decision before that deadline; uncertainty resolves
// to a rejection, never to a late approval.
type CheckoutService struct {
	store Store
}

func NewCheckoutService(store Store) *CheckoutService {
	return &CheckoutService{store: store}
}

// Authorize decides a pre-checkout query against the materialized invoice:
// the invoice must exist, be pending, and carry the exact queried amount.
// On success the invoice transitions to authorized in the same transaction.
func (s *CheckoutService) Authorize(ctx context.Context, q domain.PreCheckout) domain.Decision {
	if q.Currency != StarsCurrency {
		return domain.Decision{OK: false, Reason: ReasonBadCurrency}
	}

	ctx, cancel := context.WithTimeout(ctx, config.PreCheckoutDeadline)
	defer cancel()

	var decision domain.Decision
	err := s.store.WithUserTx(ctx, q.UserID, func(ctx context.Context, tx Tx) error {
		inv, err := tx.GetInvoiceForUpdate(ctx, q.InvoiceID)
		if errors.Is(err, domain.ErrInvoiceNotFound) {
			decision = domain.Decision{OK: false, Reason: ReasonInvoiceNotFound}
			return nil
		}
		if err != nil {
			return err
		}
		if inv.UserID != q.UserID {
			decision = domain.Decision{OK: false, Reason: ReasonInvoiceNotFound}
			return nil
		}
		// A non-pending invoice means a replayed or stale pre-checkout event.
		if inv.Status != domain.InvoiceStatusPending {
			decision = domain.Decision{OK: false, Reason: ReasonInvalidState}
			return nil
		}
		if inv.AmountStars != q.AmountStars {
			decision = domain.Decision{OK: false, Reason: ReasonAmountMismatch}
			return nil
		}
		if err := tx.SetInvoiceStatus(ctx, inv.ID, domain.InvoiceStatusPending, domain.InvoiceStatusAuthorized); err != nil {
			return err
		}
		decision = domain.Decision{OK: true}
		return nil
	})
	if err != nil {
		slog.Error("pre-checkout authorize failed", "error", err, "query_id", q.QueryID, "user_id", q.UserID)
		return domain.Decision{OK: false, Reason: ReasonUnavailable}
	}
	return decision
}
