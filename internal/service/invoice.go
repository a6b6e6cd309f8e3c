package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/televizor/billing/internal/config"
	"github.com/televizor/billing/internal/domain"
)

// InvoiceService issues invoices and sweeps stale ones.
type InvoiceService struct {
	store     Store
	users     UserDirectory
	messenger Messenger
	cfg       *config.Config
	now       func() time.Time
}

func NewInvoiceService(store Store, users UserDirectory, messenger Messenger, cfg *config.Config) *InvoiceService {
	return &InvoiceService{
		store:     store,
		users:     users,
		messenger: messenger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// CreateInvoice records a pending invoice for the user and sends the provider
// invoice. A still-pending invoice for the same user and plan is superseded,
// never stacked.
func (s *InvoiceService) CreateInvoice(ctx context.Context, userID int64, planCode string, months int) (*domain.Invoice, error) {
	plan, ok := PlanByCode(planCode)
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	if months < 1 || months > config.MaxInvoiceMonths {
		return nil, domain.ErrInvalidAmount
	}
	if plan.Yearly && months != 1 {
		return nil, domain.ErrInvalidAmount
	}

	amount := PlanAmount(plan, months)
	if amount < s.cfg.MinStarsAmount {
		return nil, domain.ErrInvalidAmount
	}

	if _, err := s.users.Lookup(ctx, userID); err != nil {
		return nil, err
	}

	inv := &domain.Invoice{
		ID:          uuid.New(),
		UserID:      userID,
		PlanCode:    plan.Code,
		Months:      months,
		AmountStars: amount,
		Status:      domain.InvoiceStatusPending,
		CreatedAt:   s.now(),
	}

	err := s.store.WithUserTx(ctx, userID, func(ctx context.Context, tx Tx) error {
		superseded, err := tx.SupersedePendingInvoices(ctx, userID, plan.Code)
		if err != nil {
			return fmt.Errorf("supersede pending: %w", err)
		}
		if superseded > 0 {
			slog.Info("superseded pending invoices", "user_id", userID, "plan", plan.Code, "count", superseded)
		}
		return tx.CreateInvoice(ctx, inv)
	})
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	title, description := invoiceText(plan, months)
	if _, err := s.messenger.SendInvoice(ctx, userID, title, description, inv.ID.String(), amount); err != nil {
		// The pending row stays behind and falls to the TTL sweep; mark it
		// rejected now so the user can retry immediately.
		rejectErr := s.store.WithUserTx(ctx, userID, func(ctx context.Context, tx Tx) error {
			return tx.SetInvoiceStatus(ctx, inv.ID, domain.InvoiceStatusPending, domain.InvoiceStatusRejected)
		})
		if rejectErr != nil {
			slog.Error("reject unsent invoice", "error", rejectErr, "invoice_id", inv.ID)
		}
		return nil, fmt.Errorf("send invoice: %w", err)
	}

	return inv, nil
}

// ExpireStale transitions pending invoices older than the configured TTL to
// expired. Called from the background sweep.
func (s *InvoiceService) ExpireStale(ctx context.Context) (int64, error) {
	return s.store.ExpireStaleInvoices(ctx, s.now().Add(-s.cfg.InvoiceTTL))
}

func invoiceText(plan Plan, months int) (title, description string) {
	title = plan.Title
	description = plan.Description
	if !plan.Yearly && months > 1 {
		title = fmt.Sprintf("%s (%d Months)", title, months)
		description = fmt.Sprintf("%s (%d Months)", description, months)
	}
	return title, description
}
