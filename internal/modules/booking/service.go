package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studiobooking/internal/domain"
	"studiobooking/internal/modules/notification"
	"studiobooking/internal/pkg/keylock"
	"studiobooking/internal/repository"

	"go.uber.org/zap"
)

type Service struct {
	bookings BookingRepository
	studios  StudioRepository
	tx       Transactor
	locks    keylock.Locker
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewService(
	bookings BookingRepository,
	studios StudioRepository,
	tx Transactor,
	locks keylock.Locker,
	notifier Notifier,
	log *zap.Logger,
) *Service {
	return &Service{
		bookings: bookings,
		studios:  studios,
		tx:       tx,
		locks:    locks,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type CreateInput struct {
	StudioID  int64
	StartTime time.Time
	EndTime   time.Time
	Notes     string
}

// CreateBooking admits a pending booking for the actor. The overlap check and
// the insert run under the studio lock inside one transaction, so two
// overlapping requests for the same studio cannot both succeed.
func (s *Service) CreateBooking(ctx context.Context, actor domain.Actor, in CreateInput) (*domain.Booking, error) {
	slot := Interval{Start: in.StartTime.UTC(), End: in.EndTime.UTC()}
	if !slot.Valid() {
		return nil, ErrInvalidInterval
	}

	unlock, err := s.lockStudio(ctx, in.StudioID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		b      *domain.Booking
		studio *domain.Studio
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		studio, err = s.studios.GetForUpdate(ctx, in.StudioID)
		if err != nil {
			return err
		}
		if !studio.IsActive {
			return ErrNotFound
		}

		existing, err := s.bookings.FindBookingsForStudioInRange(ctx, studio.ID, slot.Start, slot.End, domain.BookingCancelled)
		if err != nil {
			return err
		}
		if Conflicts(existing, slot, DefaultPolicy) {
			return ErrBookingConflict
		}

		b = &domain.Booking{
			StudioID:      studio.ID,
			UserID:        actor.UserID,
			StartTime:     slot.Start,
			EndTime:       slot.End,
			Status:        domain.BookingPending,
			PaymentStatus: domain.PaymentPending,
			TotalPrice:    Price(studio.HourlyRate, slot.Start, slot.End),
			Notes:         in.Notes,
		}
		return s.bookings.InsertBooking(ctx, b)
	})
	if err != nil {
		return nil, s.storeErr("create booking", err)
	}

	s.log.Info("booking created",
		zap.Int64("booking_id", b.ID),
		zap.Int64("studio_id", b.StudioID),
		zap.Int64("user_id", b.UserID),
		zap.Float64("total_price", b.TotalPrice))
	s.notifier.Emit(notification.BookingReceived(b, studio.Name))
	return b, nil
}

// CancelBooking cancels a pending or confirmed booking on behalf of its owner
// or staff. The freed interval is immediately available for admission.
func (s *Service) CancelBooking(ctx context.Context, bookingID int64, actor domain.Actor, reason string) (*domain.Booking, error) {
	b, err := s.transition(ctx, bookingID, func(b *domain.Booking) error {
		return checkCancel(b, actor)
	}, domain.BookingCancelled, reason, func(b *domain.Booking, studio string) {
		s.log.Info("booking cancelled", zap.Int64("booking_id", b.ID), zap.Int64("actor_id", actor.UserID))
		s.notifier.Emit(notification.BookingCancelled(b, studio, reason))
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ConfirmBooking is the explicit staff action moving pending to confirmed.
func (s *Service) ConfirmBooking(ctx context.Context, bookingID int64, actor domain.Actor) (*domain.Booking, error) {
	b, err := s.transition(ctx, bookingID, func(b *domain.Booking) error {
		return checkConfirm(b, actor)
	}, domain.BookingConfirmed, "", func(b *domain.Booking, studio string) {
		s.log.Info("booking confirmed", zap.Int64("booking_id", b.ID), zap.Int64("actor_id", actor.UserID))
		s.notifier.Emit(notification.BookingConfirmed(b, studio))
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CompleteBooking marks a confirmed booking completed once its end time has passed.
func (s *Service) CompleteBooking(ctx context.Context, bookingID int64, actor domain.Actor) (*domain.Booking, error) {
	if !actor.Role.IsStaff() {
		if _, err := s.GetBooking(ctx, bookingID, actor); err != nil {
			return nil, err
		}
		return nil, ErrForbidden
	}
	return s.complete(ctx, bookingID)
}

func (s *Service) complete(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	now := s.now()
	b, err := s.transition(ctx, bookingID, func(b *domain.Booking) error {
		return checkComplete(b, now)
	}, domain.BookingCompleted, "", nil)
	if err != nil {
		return nil, err
	}
	s.log.Info("booking completed", zap.Int64("booking_id", b.ID))
	return b, nil
}

// transition applies one lifecycle step under the booking's studio lock.
// check sees the committed state read inside the transaction. emit, if set,
// runs after commit while the lock is still held, so notifications for one
// booking leave in commit order.
func (s *Service) transition(ctx context.Context, bookingID int64, check func(*domain.Booking) error, to domain.BookingStatus, reason string, emit func(b *domain.Booking, studio string)) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, s.storeErr("load booking", err)
	}

	unlock, err := s.lockStudio(ctx, current.StudioID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		b      *domain.Booking
		studio string
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err = s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := check(b); err != nil {
			return err
		}

		now := s.now()
		if err := s.bookings.UpdateBookingStatus(ctx, b.ID, b.Status, to, now, reason); err != nil {
			return err
		}
		applyStatus(b, to, now, reason)
		if emit != nil {
			studio = s.studioName(ctx, b.StudioID)
		}
		return nil
	})
	if err != nil {
		return nil, s.storeErr("update booking status", err)
	}
	if emit != nil {
		emit(b, studio)
	}
	return b, nil
}

func applyStatus(b *domain.Booking, to domain.BookingStatus, at time.Time, reason string) {
	b.Status = to
	b.UpdatedAt = at
	switch to {
	case domain.BookingConfirmed:
		b.ConfirmedAt = &at
	case domain.BookingCompleted:
		b.CompletedAt = &at
	case domain.BookingCancelled:
		b.CancelledAt = &at
		b.CancellationReason = reason
	}
}

type RescheduleInput struct {
	StartTime time.Time
	EndTime   time.Time
}

// RescheduleBooking moves a pending booking to a new interval and reprices it.
// The booking's own current interval does not block the move.
func (s *Service) RescheduleBooking(ctx context.Context, bookingID int64, actor domain.Actor, in RescheduleInput) (*domain.Booking, error) {
	slot := Interval{Start: in.StartTime.UTC(), End: in.EndTime.UTC()}
	if !slot.Valid() {
		return nil, ErrInvalidInterval
	}

	current, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, s.storeErr("load booking", err)
	}

	unlock, err := s.lockStudio(ctx, current.StudioID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		b      *domain.Booking
		studio *domain.Studio
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err = s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := checkReschedule(b, actor); err != nil {
			return err
		}

		studio, err = s.studios.GetForUpdate(ctx, b.StudioID)
		if err != nil {
			return err
		}
		if !studio.IsActive {
			return ErrNotFound
		}

		existing, err := s.bookings.FindBookingsForStudioInRange(ctx, b.StudioID, slot.Start, slot.End, domain.BookingCancelled)
		if err != nil {
			return err
		}
		others := existing[:0]
		for _, e := range existing {
			if e.ID != b.ID {
				others = append(others, e)
			}
		}
		if Conflicts(others, slot, DefaultPolicy) {
			return ErrBookingConflict
		}

		price := Price(studio.HourlyRate, slot.Start, slot.End)
		if err := s.bookings.UpdateSchedule(ctx, b.ID, slot.Start, slot.End, price); err != nil {
			return err
		}
		b.StartTime, b.EndTime, b.TotalPrice = slot.Start, slot.End, price
		return nil
	})
	if err != nil {
		return nil, s.storeErr("reschedule booking", err)
	}

	s.log.Info("booking rescheduled", zap.Int64("booking_id", b.ID), zap.Time("start", b.StartTime))
	s.notifier.Emit(notification.BookingRescheduled(b, studio.Name))
	return b, nil
}

func (s *Service) GetBooking(ctx context.Context, bookingID int64, actor domain.Actor) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, s.storeErr("load booking", err)
	}
	if !actor.CanManage(b.UserID) {
		return nil, ErrForbidden
	}
	return b, nil
}

type Page struct {
	Bookings []domain.Booking `json:"bookings"`
	Total    int64            `json:"total"`
}

func (s *Service) ListMine(ctx context.Context, actor domain.Actor, upcoming bool, limit, offset int) (*Page, error) {
	list, total, err := s.bookings.ListByUser(ctx, actor.UserID, upcoming, s.now(), limit, offset)
	if err != nil {
		return nil, s.storeErr("list bookings", err)
	}
	if list == nil {
		list = []domain.Booking{}
	}
	return &Page{Bookings: list, Total: total}, nil
}

func (s *Service) ListForStudio(ctx context.Context, studioID int64, f repository.BookingFilter) ([]domain.Booking, error) {
	if _, err := s.studios.GetByID(ctx, studioID); err != nil {
		return nil, s.storeErr("load studio", err)
	}
	list, err := s.bookings.ListByStudio(ctx, studioID, f)
	if err != nil {
		return nil, s.storeErr("list studio bookings", err)
	}
	if list == nil {
		list = []domain.Booking{}
	}
	return list, nil
}

// Availability lists the busy intervals of a studio within [from, to). With
// firmOnly set, pending requests are not counted as busy.
func (s *Service) Availability(ctx context.Context, studioID int64, window Interval, firmOnly bool) ([]Interval, error) {
	if !window.Valid() {
		return nil, ErrInvalidInterval
	}
	if _, err := s.studios.GetByID(ctx, studioID); err != nil {
		return nil, s.storeErr("load studio", err)
	}

	existing, err := s.bookings.FindBookingsForStudioInRange(ctx, studioID, window.Start.UTC(), window.End.UTC(), domain.BookingCancelled)
	if err != nil {
		return nil, s.storeErr("load bookings", err)
	}
	return Busy(existing, ConflictPolicy{IgnorePending: firmOnly}), nil
}

func (s *Service) lockStudio(ctx context.Context, studioID int64) (func(), error) {
	unlock, err := s.locks.Lock(ctx, keylock.StudioKey(studioID))
	if err != nil {
		s.log.Warn("failed to acquire studio lock", zap.Int64("studio_id", studioID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return unlock, nil
}

func (s *Service) studioName(ctx context.Context, studioID int64) string {
	studio, err := s.studios.GetByID(ctx, studioID)
	if err != nil {
		return "your studio"
	}
	return studio.Name
}

// storeErr keeps booking errors as they are and turns repository failures
// into NotFound, BookingConflict or Transient.
func (s *Service) storeErr(op string, err error) error {
	switch {
	case isKnown(err):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrOverlap):
		return ErrBookingConflict
	case errors.Is(err, repository.ErrStatusChanged):
		return ErrInvalidStatusTransition
	}
	s.log.Error("booking storage failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrTransient, op, err)
}
