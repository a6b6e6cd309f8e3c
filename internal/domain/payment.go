package domain

import "github.com/google/uuid"

// PreCheckout is the provider's synchronous authorization query, already
// decoded to the fields the authorizer needs.
type PreCheckout struct {
	QueryID     string
	UserID      int64
	InvoiceID   uuid.UUID
	Currency    string
	AmountStars int64
}

// Decision is the authorizer's answer to a pre-checkout query.
type Decision struct {
	OK     bool
	Reason string
}

// PaymentNotice is a final payment notification from the provider.
type PaymentNotice struct {
	ChargeID    string
	UserID      int64
	InvoiceID   uuid.UUID
	Currency    string
	AmountStars int64
}

type ConfirmationOutcome string

const (
	ConfirmationApplied   ConfirmationOutcome = "applied"
	ConfirmationDuplicate ConfirmationOutcome = "duplicate"
	ConfirmationRejected  ConfirmationOutcome = "rejected"
)

// ConfirmationResult reports how a payment notification was handled.
// Duplicate is a success path: redelivery of an already applied payment.
type ConfirmationResult struct {
	Outcome ConfirmationOutcome
	Reason  string
	Record  *SubscriptionRecord
}
