package booking

import (
	"context"
	"time"

	"studiobooking/internal/domain"
	"studiobooking/internal/repository"
)

type BookingRepository interface {
	InsertBooking(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	FindBookingsForStudioInRange(ctx context.Context, studioID int64, from, to time.Time, exclude ...domain.BookingStatus) ([]domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, from, to domain.BookingStatus, at time.Time, reason string) error
	UpdateSchedule(ctx context.Context, id int64, start, end time.Time, price float64) error
	ListByUser(ctx context.Context, userID int64, upcoming bool, now time.Time, limit, offset int) ([]domain.Booking, int64, error)
	ListByStudio(ctx context.Context, studioID int64, f repository.BookingFilter) ([]domain.Booking, error)
	ListElapsedConfirmed(ctx context.Context, now time.Time, limit int) ([]domain.Booking, error)
	ListDueReminders(ctx context.Context, now time.Time, lead time.Duration, limit int) ([]domain.Booking, error)
	MarkReminderSent(ctx context.Context, id int64, at time.Time) (bool, error)
}

type StudioRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Studio, error)
	GetForUpdate(ctx context.Context, id int64) (*domain.Studio, error)
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier queues a notification. It never blocks and never fails the caller.
type Notifier interface {
	Emit(n domain.Notification)
}
