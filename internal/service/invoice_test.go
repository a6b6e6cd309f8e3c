package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/televizor/billing/internal/config"
	"github.com/televizor/billing/internal/domain"
)

func invoiceFixture() (*fakeStore, *fakeDirectory, *fakeMessenger, *InvoiceService) {
	store := newFakeStore()
	users := &fakeDirectory{users: map[int64]*domain.User{
		42: {TelegramID: 42, FirstName: "Ada"},
	}}
	messenger := &fakeMessenger{}
	cfg := &config.Config{MinStarsAmount: 1, InvoiceTTL: 24 * time.Hour}
	return store, users, messenger, NewInvoiceService(store, users, messenger, cfg)
}

func TestCreateInvoice(t *testing.T) {
	store, _, messenger, svc := invoiceFixture()

	inv, err := svc.CreateInvoice(context.Background(), 42, "premium_basic", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(450), inv.AmountStars)
	assert.Equal(t, domain.InvoiceStatusPending, store.invoiceStatus(inv.ID))

	require.Len(t, messenger.invoices, 1)
	sent := messenger.invoices[0]
	assert.Equal(t, int64(42), sent.userID)
	assert.Equal(t, inv.ID.String(), sent.payloadRef)
	assert.Equal(t, int64(450), sent.amount)
	assert.Contains(t, sent.title, "3 Months")
}

func TestCreateInvoiceSupersedesPending(t *testing.T) {
	store, _, _, svc := invoiceFixture()

	first, err := svc.CreateInvoice(context.Background(), 42, "premium_basic", 1)
	require.NoError(t, err)
	second, err := svc.CreateInvoice(context.Background(), 42, "premium_basic", 1)
	require.NoError(t, err)

	assert.Equal(t, domain.InvoiceStatusExpired, store.invoiceStatus(first.ID))
	assert.Equal(t, domain.InvoiceStatusPending, store.invoiceStatus(second.ID))
}

func TestCreateInvoiceKeepsOtherPlansPending(t *testing.T) {
	store, _, _, svc := invoiceFixture()

	basic, err := svc.CreateInvoice(context.Background(), 42, "premium_basic", 1)
	require.NoError(t, err)
	advanced, err := svc.CreateInvoice(context.Background(), 42, "premium_advanced", 1)
	require.NoError(t, err)

	assert.Equal(t, domain.InvoiceStatusPending, store.invoiceStatus(basic.ID))
	assert.Equal(t, domain.InvoiceStatusPending, store.invoiceStatus(advanced.ID))
}

func TestCreateInvoiceValidation(t *testing.T) {
	tests := []struct {
		name    string
		userID  int64
		plan    string
		months  int
		wantErr error
	}{
		{"unknown plan", 42, "premium_platinum", 1, domain.ErrPlanNotFound},
		{"zero months", 42, "premium_basic", 0, domain.ErrInvalidAmount},
		{"too many months", 42, "premium_basic", 13, domain.ErrInvalidAmount},
		{"yearly plan with months", 42, "premium_basic_year", 2, domain.ErrInvalidAmount},
		{"unknown user", 7, "premium_basic", 1, domain.ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, messenger, svc := invoiceFixture()

			_, err := svc.CreateInvoice(context.Background(), tt.userID, tt.plan, tt.months)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, messenger.invoices)
		})
	}
}

func TestCreateInvoiceBelowMinimum(t *testing.T) {
	store := newFakeStore()
	users := &fakeDirectory{users: map[int64]*domain.User{42: {TelegramID: 42}}}
	cfg := &config.Config{MinStarsAmount: 1000, InvoiceTTL: 24 * time.Hour}
	svc := NewInvoiceService(store, users, &fakeMessenger{}, cfg)

	_, err := svc.CreateInvoice(context.Background(), 42, "premium_basic", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestCreateInvoiceSendFailureRejectsInvoice(t *testing.T) {
	store, _, messenger, svc := invoiceFixture()
	messenger.sendInvoiceErr = errors.New("bad request: chat not found")

	_, err := svc.CreateInvoice(context.Background(), 42, "premium_basic", 1)
	require.Error(t, err)

	// The unsent invoice must not stay payable.
	for id := range store.invoices {
		assert.Equal(t, domain.InvoiceStatusRejected, store.invoiceStatus(id))
	}
}

func TestExpireStale(t *testing.T) {
	store, _, _, svc := invoiceFixture()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = fixedClock(t0)

	stale := pendingInvoice(42, "premium_basic", 150)
	stale.CreatedAt = t0.Add(-25 * time.Hour)
	fresh := pendingInvoice(42, "premium_advanced", 250)
	fresh.CreatedAt = t0.Add(-1 * time.Hour)
	store.seedInvoice(stale)
	store.seedInvoice(fresh)

	count, err := svc.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, domain.InvoiceStatusExpired, store.invoiceStatus(stale.ID))
	assert.Equal(t, domain.InvoiceStatusPending, store.invoiceStatus(fresh.ID))
}
