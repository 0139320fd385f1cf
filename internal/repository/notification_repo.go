package repository

import (
	"context"
	"time"

	"studiobooking/internal/domain"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}
	return classify(conn(ctx, r.db).Create(n).Error)
}

// ListByUser returns the newest notifications first along with the total
// count for the same filter.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, includeRead bool, limit, offset int) ([]domain.Notification, int64, error) {
	q := conn(ctx, r.db).Model(&domain.Notification{}).Where("user_id = ?", userID)
	if !includeRead {
		q = q.Where("is_read = ?", false)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	var out []domain.Notification
	err := q.Order("sent_at DESC, id DESC").Limit(limit).Offset(offset).Find(&out).Error
	if err != nil {
		return nil, 0, classify(err)
	}
	return out, total, nil
}

// ListByBooking returns a booking's notifications in creation order.
func (r *NotificationRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Notification, error) {
	var out []domain.Notification
	err := conn(ctx, r.db).
		Where("booking_id = ?", bookingID).
		Order("id ASC").
		Find(&out).Error
	return out, classify(err)
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, classify(err)
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, userID int64) error {
	res := conn(ctx, r.db).Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	res := conn(ctx, r.db).Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, classify(res.Error)
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID int64) error {
	res := conn(ctx, r.db).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Notification{})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkDelivered records that an external channel accepted the notification.
func (r *NotificationRepository) MarkDelivered(ctx context.Context, id int64, channel domain.DeliveryMethod) error {
	col := ""
	switch channel {
	case domain.DeliveryEmail:
		col = "email_sent"
	case domain.DeliverySMS:
		col = "sms_sent"
	default:
		return nil
	}
	return classify(conn(ctx, r.db).Model(&domain.Notification{}).
		Where("id = ?", id).
		Update(col, true).Error)
}
