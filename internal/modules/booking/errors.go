package booking

import "errors"

var (
	ErrInvalidInterval         = errors.New("end time must be after start time")
	ErrBookingConflict         = errors.New("studio is already booked for the selected time")
	ErrNotFound                = errors.New("not found")
	ErrForbidden               = errors.New("forbidden")
	ErrAlreadyTerminal         = errors.New("booking is already cancelled or completed")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrTransient               = errors.New("storage unavailable, retry")
	ErrValidation              = errors.New("validation error")
)

var known = []error{
	ErrInvalidInterval,
	ErrBookingConflict,
	ErrNotFound,
	ErrForbidden,
	ErrAlreadyTerminal,
	ErrInvalidStatusTransition,
	ErrTransient,
	ErrValidation,
}

func isKnown(err error) bool {
	for _, k := range known {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
