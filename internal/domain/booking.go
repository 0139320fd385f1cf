package domain

import (
	"time"

	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// bookingTransitions is the lifecycle: pending -> confirmed -> completed,
// and pending|confirmed -> cancelled. Terminal states have no exits.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
	BookingCancelled: {},
	BookingCompleted: {},
}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle allows moving from s to target.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range bookingTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible. Unknown
// statuses are treated as terminal.
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

func (s BookingStatus) String() string { return string(s) }

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPartial   PaymentStatus = "partial"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Booking struct {
	ID                 int64          `json:"id" gorm:"primaryKey"`
	StudioID           int64          `json:"studio_id" gorm:"not null;index:idx_bookings_studio_range,priority:1"`
	UserID             int64          `json:"user_id" gorm:"not null;index"`
	StartTime          time.Time      `json:"start_time" gorm:"not null;index:idx_bookings_studio_range,priority:2"`
	EndTime            time.Time      `json:"end_time" gorm:"not null"`
	Status             BookingStatus  `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentStatus      PaymentStatus  `json:"payment_status" gorm:"type:varchar(20);not null;default:'pending'"`
	TotalPrice         float64        `json:"total_price" gorm:"type:decimal(10,2)"`
	Notes              string         `json:"notes,omitempty" gorm:"type:text"`
	CancellationReason string         `json:"cancellation_reason,omitempty" gorm:"type:text"`
	CancelledAt        *time.Time     `json:"cancelled_at,omitempty"`
	ConfirmedAt        *time.Time     `json:"confirmed_at,omitempty"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
	ReminderSentAt     *time.Time     `json:"-"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`

	Studio *Studio `json:"studio,omitempty" gorm:"foreignKey:StudioID"`
}

// Duration is the booked length in fractional hours.
func (b *Booking) Duration() float64 {
	return b.EndTime.Sub(b.StartTime).Hours()
}

// IsOwnedBy reports whether userID is the client who made the booking.
func (b *Booking) IsOwnedBy(userID int64) bool {
	return b.UserID == userID
}
