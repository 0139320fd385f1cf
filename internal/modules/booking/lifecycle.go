package booking

import (
	"time"

	"studiobooking/internal/domain"
)

// checkCancel applies the cancellation rules in the order callers see them:
// ownership first, then state.
func checkCancel(b *domain.Booking, actor domain.Actor) error {
	if !actor.CanManage(b.UserID) {
		return ErrForbidden
	}
	if b.Status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	return nil
}

// checkConfirm: only staff confirm, and only pending bookings.
func checkConfirm(b *domain.Booking, actor domain.Actor) error {
	if !actor.Role.IsStaff() {
		return ErrForbidden
	}
	return checkTransition(b.Status, domain.BookingConfirmed)
}

// checkComplete allows completion of a confirmed booking once it has ended.
func checkComplete(b *domain.Booking, now time.Time) error {
	if err := checkTransition(b.Status, domain.BookingCompleted); err != nil {
		return err
	}
	if now.Before(b.EndTime) {
		return ErrInvalidStatusTransition
	}
	return nil
}

// checkReschedule: owner or staff may move a booking while it is pending.
func checkReschedule(b *domain.Booking, actor domain.Actor) error {
	if !actor.CanManage(b.UserID) {
		return ErrForbidden
	}
	if b.Status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	if b.Status != domain.BookingPending {
		return ErrInvalidStatusTransition
	}
	return nil
}

func checkTransition(from, to domain.BookingStatus) error {
	if from.IsTerminal() {
		return ErrAlreadyTerminal
	}
	if !from.CanTransitionTo(to) {
		return ErrInvalidStatusTransition
	}
	return nil
}
