package domain

import "time"

type NotificationType string

const (
	NotifConfirmation NotificationType = "confirmation"
	NotifReminder     NotificationType = "reminder"
	NotifCancellation NotificationType = "cancellation"
	NotifPayment      NotificationType = "payment"
	NotifGeneral      NotificationType = "general"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotifConfirmation, NotifReminder, NotifCancellation, NotifPayment, NotifGeneral:
		return true
	}
	return false
}

type DeliveryMethod string

const (
	DeliveryInApp DeliveryMethod = "in-app"
	DeliveryEmail DeliveryMethod = "email"
	DeliverySMS   DeliveryMethod = "sms"
	DeliveryAll   DeliveryMethod = "all"
)

func (d DeliveryMethod) IsValid() bool {
	switch d {
	case DeliveryInApp, DeliveryEmail, DeliverySMS, DeliveryAll:
		return true
	}
	return false
}

// Includes reports whether a notification sent with d should reach channel c.
func (d DeliveryMethod) Includes(c DeliveryMethod) bool {
	return d == c || d == DeliveryAll
}

type Notification struct {
	ID             int64            `json:"id" gorm:"primaryKey"`
	UserID         int64            `json:"user_id" gorm:"not null;index:idx_notifications_user_unread,priority:1"`
	BookingID      *int64           `json:"booking_id,omitempty" gorm:"index"`
	Type           NotificationType `json:"type" gorm:"type:varchar(20);not null;default:'general'"`
	Title          string           `json:"title" gorm:"not null"`
	Content        string           `json:"content" gorm:"type:text;not null"`
	IsRead         bool             `json:"is_read" gorm:"not null;default:false;index:idx_notifications_user_unread,priority:2"`
	SentAt         time.Time        `json:"sent_at"`
	DeliveryMethod DeliveryMethod   `json:"delivery_method" gorm:"type:varchar(10);not null;default:'in-app'"`
	EmailSent      bool             `json:"email_sent"`
	SMSSent        bool             `json:"sms_sent"`
	CreatedAt      time.Time        `json:"created_at"`
}
