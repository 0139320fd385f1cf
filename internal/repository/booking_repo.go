package repository

import (
	"context"
	"time"

	"studiobooking/internal/domain"

	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) InsertBooking(ctx context.Context, b *domain.Booking) error {
	return classify(conn(ctx, r.db).Create(b).Error)
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := conn(ctx, r.db).First(&b, id).Error; err != nil {
		return nil, classify(err)
	}
	return &b, nil
}

// FindBookingsForStudioInRange returns bookings of the studio whose interval
// intersects [from, to), skipping the listed statuses.
func (r *BookingRepository) FindBookingsForStudioInRange(ctx context.Context, studioID int64, from, to time.Time, exclude ...domain.BookingStatus) ([]domain.Booking, error) {
	q := conn(ctx, r.db).
		Where("studio_id = ?", studioID).
		Where("start_time < ? AND end_time > ?", to, from)
	if len(exclude) > 0 {
		q = q.Where("status NOT IN ?", exclude)
	}

	var out []domain.Booking
	if err := q.Order("start_time ASC").Find(&out).Error; err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// UpdateBookingStatus moves a booking from one status to another. The update
// is conditional on the current status so a stale caller gets ErrStatusChanged.
func (r *BookingRepository) UpdateBookingStatus(ctx context.Context, id int64, from, to domain.BookingStatus, at time.Time, reason string) error {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": at,
	}
	switch to {
	case domain.BookingConfirmed:
		updates["confirmed_at"] = at
	case domain.BookingCompleted:
		updates["completed_at"] = at
	case domain.BookingCancelled:
		updates["cancelled_at"] = at
		updates["cancellation_reason"] = reason
	}

	res := conn(ctx, r.db).Model(&domain.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

func (r *BookingRepository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	res := conn(ctx, r.db).Model(&domain.Booking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"payment_status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSchedule stores a new interval and price for a pending booking.
func (r *BookingRepository) UpdateSchedule(ctx context.Context, id int64, start, end time.Time, price float64) error {
	res := conn(ctx, r.db).Model(&domain.Booking{}).
		Where("id = ? AND status = ?", id, domain.BookingPending).
		Updates(map[string]interface{}{
			"start_time":  start,
			"end_time":    end,
			"total_price": price,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

// ListPendingByStudio returns pending bookings, the only ones whose price may
// still follow the studio rate.
func (r *BookingRepository) ListPendingByStudio(ctx context.Context, studioID int64) ([]domain.Booking, error) {
	var out []domain.Booking
	err := conn(ctx, r.db).
		Where("studio_id = ? AND status = ?", studioID, domain.BookingPending).
		Find(&out).Error
	return out, classify(err)
}

func (r *BookingRepository) UpdatePrice(ctx context.Context, id int64, price float64) error {
	return classify(conn(ctx, r.db).Model(&domain.Booking{}).
		Where("id = ?", id).
		Update("total_price", price).Error)
}

// ListByUser pages through a user's bookings, newest first. With upcoming set
// only non-cancelled bookings starting after now are returned, soonest first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, upcoming bool, now time.Time, limit, offset int) ([]domain.Booking, int64, error) {
	q := conn(ctx, r.db).Model(&domain.Booking{}).Where("user_id = ?", userID)
	order := "start_time DESC"
	if upcoming {
		q = q.Where("start_time > ? AND status <> ?", now, domain.BookingCancelled)
		order = "start_time ASC"
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	var out []domain.Booking
	err := q.Order(order).Limit(limit).Offset(offset).Find(&out).Error
	if err != nil {
		return nil, 0, classify(err)
	}
	return out, total, nil
}

type BookingFilter struct {
	From   *time.Time
	To     *time.Time
	Status domain.BookingStatus
}

func (r *BookingRepository) ListByStudio(ctx context.Context, studioID int64, f BookingFilter) ([]domain.Booking, error) {
	q := conn(ctx, r.db).Where("studio_id = ?", studioID)
	if f.From != nil {
		q = q.Where("end_time > ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("start_time < ?", *f.To)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var out []domain.Booking
	if err := q.Order("start_time ASC").Find(&out).Error; err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// CountActiveFuture counts pending or confirmed bookings starting at or after now.
func (r *BookingRepository) CountActiveFuture(ctx context.Context, studioID int64, now time.Time) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&domain.Booking{}).
		Where("studio_id = ?", studioID).
		Where("status IN ?", []domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed}).
		Where("start_time >= ?", now).
		Count(&n).Error
	return n, classify(err)
}

// ListElapsedConfirmed returns confirmed bookings whose end time is not after now.
func (r *BookingRepository) ListElapsedConfirmed(ctx context.Context, now time.Time, limit int) ([]domain.Booking, error) {
	var out []domain.Booking
	err := conn(ctx, r.db).
		Where("status = ? AND end_time <= ?", domain.BookingConfirmed, now).
		Order("end_time ASC").
		Limit(limit).
		Find(&out).Error
	return out, classify(err)
}

// ListDueReminders returns confirmed bookings starting in (now, now+lead] that
// have not had a reminder yet.
func (r *BookingRepository) ListDueReminders(ctx context.Context, now time.Time, lead time.Duration, limit int) ([]domain.Booking, error) {
	var out []domain.Booking
	err := conn(ctx, r.db).
		Where("status = ? AND reminder_sent_at IS NULL", domain.BookingConfirmed).
		Where("start_time > ? AND start_time <= ?", now, now.Add(lead)).
		Order("start_time ASC").
		Limit(limit).
		Find(&out).Error
	return out, classify(err)
}

// MarkReminderSent flags the booking once; false means another run got there first.
func (r *BookingRepository) MarkReminderSent(ctx context.Context, id int64, at time.Time) (bool, error) {
	res := conn(ctx, r.db).Model(&domain.Booking{}).
		Where("id = ? AND reminder_sent_at IS NULL", id).
		Update("reminder_sent_at", at)
	if res.Error != nil {
		return false, classify(res.Error)
	}
	return res.RowsAffected == 1, nil
}
