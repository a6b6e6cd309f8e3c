package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		rec  *SubscriptionRecord
		want SubscriptionStatus
	}{
		{"nil record", nil, SubscriptionNone},
		{"never subscribed", &SubscriptionRecord{}, SubscriptionNone},
		{"active", &SubscriptionRecord{ActiveUntil: &future}, SubscriptionActive},
		{"expired", &SubscriptionRecord{ActiveUntil: &past}, SubscriptionExpired},
		{"expires exactly now", &SubscriptionRecord{ActiveUntil: &now}, SubscriptionExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.StatusAt(now))
			assert.Equal(t, tt.want == SubscriptionActive, tt.rec.IsActive(now))
		})
	}
}

func TestHasPayment(t *testing.T) {
	var nilRec *SubscriptionRecord
	assert.False(t, nilRec.HasPayment("p1"))

	rec := &SubscriptionRecord{History: []PaymentEntry{{PaymentID: "p1"}}}
	assert.True(t, rec.HasPayment("p1"))
	assert.False(t, rec.HasPayment("p2"))
}

func TestTrialAvailable(t *testing.T) {
	var nilRec *SubscriptionRecord
	assert.True(t, nilRec.TrialAvailable())
	assert.True(t, (&SubscriptionRecord{}).TrialAvailable())

	started := time.Now()
	assert.False(t, (&SubscriptionRecord{TrialStartedAt: &started}).TrialAvailable())
}
