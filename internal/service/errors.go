package service

import "errors"

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrOrderValidation        = errors.New("order validation failed")
	ErrInvalidTransition      = errors.New("invalid order status transition")
	ErrConcurrentModification = errors.New("order modified concurrently")
	ErrMissingTrackingID      = errors.New("order has no tracking id")
	ErrCourierSync            = errors.New("courier sync failed")
	ErrAttemptOutcomeInvalid  = errors.New("invalid confirmation attempt outcome")
	ErrPaymentPlanNotFound    = errors.New("payment plan not found")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrAccountDisabled        = errors.New("account disabled")
)
