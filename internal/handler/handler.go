package handler

import (
	"context"

	"github.com/televizor/billing/internal/config"
	"github.com/televizor/billing/internal/domain"
	"github.com/televizor/billing/internal/telegram"
	"github.com/televizor/billing/internal/viewer"
)

// Authorizer decides pre-checkout queries.
type Authorizer interface {
	Authorize(ctx context.Context, q domain.PreCheckout) domain.Decision
}

// Confirmer applies final payment notifications to the ledger.
type Confirmer interface {
	Confirm(ctx context.Context, n domain.PaymentNotice) (domain.ConfirmationResult, error)
}

// Issuer creates invoices.
type Issuer interface {
	CreateInvoice(ctx context.Context, userID int64, planCode string, months int) (*domain.Invoice, error)
}

// Ledger is the read and admin surface of the subscription ledger.
type Ledger interface {
	GetStatus(ctx context.Context, userID int64) (*domain.SubscriptionRecord, error)
	MarkRefunded(ctx context.Context, userID int64, paymentID string) error
	StartTrial(ctx context.Context, userID int64) (*domain.SubscriptionRecord, error)
}

// UserRegistry links Telegram identities.
type UserRegistry interface {
	Upsert(ctx context.Context, telegramID int64, firstName, username string) (*domain.User, error)
}

// Messenger sends receipts and refunds through the provider.
type Messenger interface {
	SendMessage(ctx context.Context, userID int64, text string) error
	RefundStarPayment(ctx context.Context, userID int64, chargeID string) error
}

// Handler holds all dependencies needed by HTTP handlers.
type Handler struct {
	cfg       *config.Config
	secret    *SecretValidator
	checkout  Authorizer
	ledger    Ledger
	confirmer Confirmer
	issuer    Issuer
	users     UserRegistry
	messenger Messenger
	audit     *telegram.AuditLogger
	viewer    *viewer.Manager
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Cfg       *config.Config
	Secret    *SecretValidator
	Checkout  Authorizer
	Ledger    Ledger
	Confirmer Confirmer
	Issuer    Issuer
	Users     UserRegistry
	Messenger Messenger
	Audit     *telegram.AuditLogger
	Viewer    *viewer.Manager
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		cfg:       deps.Cfg,
		secret:    deps.Secret,
		checkout:  deps.Checkout,
		ledger:    deps.Ledger,
		confirmer: deps.Confirmer,
		issuer:    deps.Issuer,
		users:     deps.Users,
		messenger: deps.Messenger,
		audit:     deps.Audit,
		viewer:    deps.Viewer,
	}
}
