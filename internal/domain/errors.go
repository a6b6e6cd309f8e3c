package domain

import "errors"

var (
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrUserNotFound     = errors.New("user not found")
	ErrPlanNotFound     = errors.New("plan not found")
	ErrStateConflict    = errors.New("invoice not in expected state")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrAlreadyRefunded  = errors.New("payment already refunded")
	ErrTrialUsed        = errors.New("trial already used")
	ErrViewerRunning    = errors.New("viewer already running")
	ErrViewerNotRunning = errors.New("viewer not running")
	ErrBadPassword      = errors.New("bad password")
)
