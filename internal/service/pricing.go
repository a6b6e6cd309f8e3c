package service

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/televizor/billing/internal/config"
	"github.com/televizor/billing/internal/domain"
)

// Plan is a purchasable subscription option. Stars is the price of one
// duration unit; monthly plans may be bought for several months at once.
type Plan struct {
	Code        string
	Tier        domain.Tier
	Stars       int64
	Duration    time.Duration
	Yearly      bool
	Title       string
	Description string
}

var plans = []Plan{
	{
		Code:        "premium_basic",
		Tier:        domain.TierBasic,
		Stars:       config.PriceBasicMonth,
		Duration:    config.DurationMonthly,
		Title:       "Televizor Premium Basic",
		Description: "Unlimited feeds",
	},
	{
		Code:        "premium_advanced",
		Tier:        domain.TierAdvanced,
		Stars:       config.PriceAdvancedMonth,
		Duration:    config.DurationMonthly,
		Title:       "Televizor Premium Advanced",
		Description: "Unlimited feeds + Filters",
	},
	{
		Code:        "premium_basic_year",
		Tier:        domain.TierBasic,
		Stars:       config.PriceBasicYear,
		Duration:    config.DurationYearly,
		Yearly:      true,
		Title:       "Televizor Premium Basic (Yearly)",
		Description: "Unlimited feeds (1 Year)",
	},
	{
		Code:        "premium_advanced_year",
		Tier:        domain.TierAdvanced,
		Stars:       config.PriceAdvancedYear,
		Duration:    config.DurationYearly,
		Yearly:      true,
		Title:       "Televizor Premium Advanced (Yearly)",
		Description: "Unlimited feeds + Filters (1 Year)",
	},
}

// Plans returns the purchasable plan catalog.
func Plans() []Plan {
	return plans
}

// PlanByCode resolves a plan by its payload code.
func PlanByCode(code string) (Plan, bool) {
	for _, p := range plans {
		if p.Code == code {
			return p, true
		}
	}
	return Plan{}, false
}

// PlanAmount is the invoice total in Stars for months units of the plan.
func PlanAmount(p Plan, months int) int64 {
	return p.Stars * int64(months)
}

// PlanExtension is the entitlement extension one paid invoice grants.
func PlanExtension(p Plan, months int) time.Duration {
	return p.Duration * time.Duration(months)
}

var euroPerStar = decimal.RequireFromString(config.EuroPerStar)

// StarsToEuro converts a Stars amount to its EUR equivalent for receipts and
// audit messages.
func StarsToEuro(stars int64) decimal.Decimal {
	return decimal.NewFromInt(stars).Mul(euroPerStar)
}
