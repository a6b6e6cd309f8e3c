package domain

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionNone      SubscriptionStatus = "none"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

type Tier string

const (
	TierNone     Tier = "none"
	TierTrial    Tier = "trial"
	TierBasic    Tier = "basic"
	TierAdvanced Tier = "advanced"
)

// PaymentEntry is one applied payment in a user's history. Entries are never
// deleted; a refund only flips the Refunded flag.
type PaymentEntry struct {
	PaymentID   string
	InvoiceID   uuid.UUID
	AmountStars int64
	Refunded    bool
	AppliedAt   time.Time
}

// SubscriptionRecord is the durable per-user ledger of entitlement and payment
// history. It is mutated only by the payment confirmation path.
type SubscriptionRecord struct {
	UserID         int64
	Tier           Tier
	ActiveUntil    *time.Time
	TrialStartedAt *time.Time
	LastPaymentID  *string
	History        []PaymentEntry
	UpdatedAt      time.Time
}

// StatusAt derives the subscription status at the given instant. Active means
// the entitlement window has not yet closed.
func (r *SubscriptionRecord) StatusAt(now time.Time) SubscriptionStatus {
	if r == nil || r.ActiveUntil == nil {
		return SubscriptionNone
	}
	if r.ActiveUntil.After(now) {
		return SubscriptionActive
	}
	return SubscriptionExpired
}

// IsActive reports whether the entitlement is current.
func (r *SubscriptionRecord) IsActive(now time.Time) bool {
	return r.StatusAt(now) == SubscriptionActive
}

// HasPayment reports whether paymentID is already in the history.
func (r *SubscriptionRecord) HasPayment(paymentID string) bool {
	if r == nil {
		return false
	}
	for _, e := range r.History {
		if e.PaymentID == paymentID {
			return true
		}
	}
	return false
}

// TrialAvailable reports whether the user has never started a trial.
func (r *SubscriptionRecord) TrialAvailable() bool {
	return r == nil || r.TrialStartedAt == nil
}
