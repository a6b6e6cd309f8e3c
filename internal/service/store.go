package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/televizor/billing/internal/domain"
)

// Store is the persistence boundary for invoices and subscription records.
// WithUserTx runs fn inside a transaction serialized on userID: two
// transactions for the same user never interleave, transactions for
// different users proceed concurrently.
type Store interface {
	WithUserTx(ctx context.Context, userID int64, fn func(ctx context.Context, tx Tx) error) error
	GetInvoice(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	GetSubscription(ctx context.Context, userID int64) (*domain.SubscriptionRecord, error)
	ExpireStaleInvoices(ctx context.Context, olderThan time.Time) (int64, error)
}

// Tx exposes the mutations available inside a user-serialized transaction.
// All writes commit or roll back together.
type Tx interface {
	GetInvoiceForUpdate(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	// SetInvoiceStatus transitions id from one status to another and returns
	// domain.ErrStateConflict if the invoice is no longer in from.
	SetInvoiceStatus(ctx context.Context, id uuid.UUID, from, to domain.InvoiceStatus) error
	// SupersedePendingInvoices expires any still-pending invoice for the
	// same user and plan, so a new intent replaces rather than stacks.
	SupersedePendingInvoices(ctx context.Context, userID int64, planCode string) (int64, error)
	CreateInvoice(ctx context.Context, inv *domain.Invoice) error

	GetSubscriptionForUpdate(ctx context.Context, userID int64) (*domain.SubscriptionRecord, error)
	SaveSubscription(ctx context.Context, rec *domain.SubscriptionRecord) error

	PaymentApplied(ctx context.Context, paymentID string) (bool, error)
	AppendPayment(ctx context.Context, userID int64, entry domain.PaymentEntry) error
	MarkPaymentRefunded(ctx context.Context, userID int64, paymentID string) error
}

// UserDirectory resolves user identities. Lookup returns
// domain.ErrUserNotFound for unknown IDs.
type UserDirectory interface {
	Lookup(ctx context.Context, telegramID int64) (*domain.User, error)
}

// Messenger is the outbound provider collaborator.
type Messenger interface {
	SendInvoice(ctx context.Context, userID int64, title, description, payloadRef string, amountStars int64) (int64, error)
	SendMessage(ctx context.Context, userID int64, text string) error
	RefundStarPayment(ctx context.Context, userID int64, chargeID string) error
}
