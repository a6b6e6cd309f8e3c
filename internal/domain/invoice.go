package domain

import (
	"time"

	"github.com/google/uuid"
)

type InvoiceStatus string

const (
	InvoiceStatusPending    InvoiceStatus = "pending"
	InvoiceStatusAuthorized InvoiceStatus = "authorized"
	InvoiceStatusCaptured   InvoiceStatus = "captured"
	InvoiceStatusExpired    InvoiceStatus = "expired"
	InvoiceStatusRejected   InvoiceStatus = "rejected"
)

// Invoice is a single purchase intent. Its ID travels to the provider as the
// invoice payload and comes back on pre-checkout and payment events.
type Invoice struct {
	ID          uuid.UUID
	UserID      int64
	PlanCode    string
	Months      int
	AmountStars int64
	Status      InvoiceStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
