package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/televizor/billing/internal/domain"
)

func TestPlanByCode(t *testing.T) {
	plan, ok := PlanByCode("premium_advanced")
	require.True(t, ok)
	assert.Equal(t, domain.TierAdvanced, plan.Tier)
	assert.Equal(t, int64(250), plan.Stars)

	_, ok = PlanByCode("premium_platinum")
	assert.False(t, ok)
}

func TestPlanAmountAndExtension(t *testing.T) {
	monthly, ok := PlanByCode("premium_basic")
	require.True(t, ok)
	assert.Equal(t, int64(450), PlanAmount(monthly, 3))
	assert.Equal(t, 90*24*time.Hour, PlanExtension(monthly, 3))

	yearly, ok := PlanByCode("premium_basic_year")
	require.True(t, ok)
	assert.Equal(t, int64(1500), PlanAmount(yearly, 1))
	assert.Equal(t, 365*24*time.Hour, PlanExtension(yearly, 1))
}

func TestStarsToEuro(t *testing.T) {
	assert.Equal(t, "1.95", StarsToEuro(150).StringFixed(2))
	assert.Equal(t, "0.00", StarsToEuro(0).StringFixed(2))
}
