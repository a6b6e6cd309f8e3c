package config

import "time"

const (
	// Telegram auto-fails a pre-checkout query after roughly ten seconds;
	// keep a margin so a slow store read still resolves to an explicit answer.
	PreCheckoutDeadline = 8 * time.Second

	// Confirmation writes must stay well under the provider retry window.
	ConfirmTimeout = 5 * time.Second

	// Pending invoice sweep
	SweepInterval = 60 * time.Second

	// Plan prices (Telegram Stars) and durations
	PriceBasicMonth    = 150
	PriceAdvancedMonth = 250
	PriceBasicYear     = 1500
	PriceAdvancedYear  = 2500
	DurationMonthly    = 30 * 24 * time.Hour
	DurationYearly     = 365 * 24 * time.Hour
	MaxInvoiceMonths   = 12

	// Trial
	TrialDuration = 3 * 24 * time.Hour

	// Telegram Stars conversion rate (EUR per star), display only
	EuroPerStar = "0.013"

	// Invoice creation rate limit (per window)
	InvoiceRateLimit  = 10
	InvoiceRateWindow = time.Minute

	// Timeouts for outbound Telegram calls
	SendTimeout = 10 * time.Second

	// HTTP server
	ReadTimeout     = 10 * time.Second
	WriteTimeout    = 15 * time.Second
	ShutdownTimeout = 10 * time.Second

	// Viewer subprocess stop grace period
	ViewerStopTimeout = 5 * time.Second
)
