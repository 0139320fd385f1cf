package payment

import "errors"

var (
	ErrNotFound                = errors.New("payment or booking not found")
	ErrForbidden               = errors.New("forbidden")
	ErrValidation              = errors.New("validation error")
	ErrInvalidRefundAmount     = errors.New("refund amount must be between 0 and the paid amount")
	ErrInvalidStatusTransition = errors.New("invalid payment status transition")
	ErrTransient               = errors.New("storage unavailable, retry")
)
