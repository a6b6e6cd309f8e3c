package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/televizor/billing/internal/domain"
)

// fakeStore is an in-memory Store. A single mutex stands in for the per-user
// transaction serialization of the real store.
type fakeStore struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*domain.Invoice
	subs     map[int64]*domain.SubscriptionRecord
	payments map[string]*fakePayment

	txErr error // injected store failure
}

type fakePayment struct {
	userID int64
	entry  domain.PaymentEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		invoices: make(map[uuid.UUID]*domain.Invoice),
		subs:     make(map[int64]*domain.SubscriptionRecord),
		payments: make(map[string]*fakePayment),
	}
}

func (s *fakeStore) seedInvoice(inv domain.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.ID] = &inv
}

func (s *fakeStore) invoiceStatus(id uuid.UUID) domain.InvoiceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv, ok := s.invoices[id]; ok {
		return inv.Status
	}
	return ""
}

func (s *fakeStore) WithUserTx(ctx context.Context, userID int64, fn func(ctx context.Context, tx Tx) error) error {
	if s.txErr != nil {
		return s.txErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, &fakeTx{s: s})
}

func (s *fakeStore) GetInvoice(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	c := *inv
	return &c, nil
}

func (s *fakeStore) GetSubscription(ctx context.Context, userID int64) (*domain.SubscriptionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecord(s.subs[userID]), nil
}

func (s *fakeStore) ExpireStaleInvoices(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, inv := range s.invoices {
		if inv.Status == domain.InvoiceStatusPending && inv.CreatedAt.Before(olderThan) {
			inv.Status = domain.InvoiceStatusExpired
			count++
		}
	}
	return count, nil
}

type fakeTx struct {
	s *fakeStore
}

func (t *fakeTx) GetInvoiceForUpdate(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	inv, ok := t.s.invoices[id]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	c := *inv
	return &c, nil
}

func (t *fakeTx) SetInvoiceStatus(ctx context.Context, id uuid.UUID, from, to domain.InvoiceStatus) error {
	inv, ok := t.s.invoices[id]
	if !ok || inv.Status != from {
		return domain.ErrStateConflict
	}
	inv.Status = to
	return nil
}

func (t *fakeTx) SupersedePendingInvoices(ctx context.Context, userID int64, planCode string) (int64, error) {
	var count int64
	for _, inv := range t.s.invoices {
		if inv.UserID == userID && inv.PlanCode == planCode && inv.Status == domain.InvoiceStatusPending {
			inv.Status = domain.InvoiceStatusExpired
			count++
		}
	}
	return count, nil
}

func (t *fakeTx) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	c := *inv
	t.s.invoices[c.ID] = &c
	return nil
}

func (t *fakeTx) GetSubscriptionForUpdate(ctx context.Context, userID int64) (*domain.SubscriptionRecord, error) {
	return cloneRecord(t.s.subs[userID]), nil
}

func (t *fakeTx) SaveSubscription(ctx context.Context, rec *domain.SubscriptionRecord) error {
	t.s.subs[rec.UserID] = cloneRecord(rec)
	return nil
}

func (t *fakeTx) PaymentApplied(ctx context.Context, paymentID string) (bool, error) {
	_, ok := t.s.payments[paymentID]
	return ok, nil
}

func (t *fakeTx) AppendPayment(ctx context.Context, userID int64, entry domain.PaymentEntry) error {
	if _, ok := t.s.payments[entry.PaymentID]; ok {
		return fmt.Errorf("duplicate payment %s", entry.PaymentID)
	}
	t.s.payments[entry.PaymentID] = &fakePayment{userID: userID, entry: entry}
	return nil
}

func (t *fakeTx) MarkPaymentRefunded(ctx context.Context, userID int64, paymentID string) error {
	p, ok := t.s.payments[paymentID]
	if !ok || p.userID != userID {
		return domain.ErrPaymentNotFound
	}
	if p.entry.Refunded {
		return domain.ErrAlreadyRefunded
	}
	p.entry.Refunded = true
	return nil
}

func cloneRecord(r *domain.SubscriptionRecord) *domain.SubscriptionRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.ActiveUntil != nil {
		t := *r.ActiveUntil
		c.ActiveUntil = &t
	}
	if r.TrialStartedAt != nil {
		t := *r.TrialStartedAt
		c.TrialStartedAt = &t
	}
	if r.LastPaymentID != nil {
		s := *r.LastPaymentID
		c.LastPaymentID = &s
	}
	c.History = append([]domain.PaymentEntry(nil), r.History...)
	return &c
}

// fakeDirectory resolves a fixed set of users.
type fakeDirectory struct {
	users map[int64]*domain.User
}

func (d *fakeDirectory) Lookup(ctx context.Context, telegramID int64) (*domain.User, error) {
	u, ok := d.users[telegramID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

type sentInvoice struct {
	userID     int64
	title      string
	payloadRef string
	amount     int64
}

// fakeMessenger records outbound calls.
type fakeMessenger struct {
	sendInvoiceErr error
	invoices       []sentInvoice
	messages       []string
	refunds        []string
}

func (m *fakeMessenger) SendInvoice(ctx context.Context, userID int64, title, description, payloadRef string, amountStars int64) (int64, error) {
	if m.sendInvoiceErr != nil {
		return 0, m.sendInvoiceErr
	}
	m.invoices = append(m.invoices, sentInvoice{userID: userID, title: title, payloadRef: payloadRef, amount: amountStars})
	return int64(len(m.invoices)), nil
}

func (m *fakeMessenger) SendMessage(ctx context.Context, userID int64, text string) error {
	m.messages = append(m.messages, text)
	return nil
}

func (m *fakeMessenger) RefundStarPayment(ctx context.Context, userID int64, chargeID string) error {
	m.refunds = append(m.refunds, chargeID)
	return nil
}
