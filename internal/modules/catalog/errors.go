package catalog

import "errors"

var (
	ErrNotFound          = errors.New("studio not found")
	ErrHasActiveBookings = errors.New("studio has active upcoming bookings")
	ErrValidation        = errors.New("validation error")
	ErrTransient         = errors.New("storage unavailable, retry")
)
