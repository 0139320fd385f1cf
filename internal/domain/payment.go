package domain

import "time"

// PaymentRecordStatus is the status of a single payment, not of the booking.
type PaymentRecordStatus string

const (
	PaymentRecordPending   PaymentRecordStatus = "pending"
	PaymentRecordCompleted PaymentRecordStatus = "completed"
	PaymentRecordRefunded  PaymentRecordStatus = "refunded"
	PaymentRecordFailed    PaymentRecordStatus = "failed"
)

func (s PaymentRecordStatus) IsValid() bool {
	switch s {
	case PaymentRecordPending, PaymentRecordCompleted, PaymentRecordRefunded, PaymentRecordFailed:
		return true
	}
	return false
}

type Payment struct {
	ID             int64               `json:"id" gorm:"primaryKey"`
	BookingID      int64               `json:"booking_id" gorm:"not null;index"`
	Amount         float64             `json:"amount" gorm:"type:decimal(10,2);not null"`
	Method         string              `json:"payment_method" gorm:"not null"`
	TransactionID  string              `json:"transaction_id,omitempty"`
	Status         PaymentRecordStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	PaidAt         *time.Time          `json:"paid_at,omitempty"`
	RefundedAmount float64             `json:"refunded_amount" gorm:"type:decimal(10,2);not null;default:0"`
	RefundedAt     *time.Time          `json:"refunded_at,omitempty"`
	ReceiptURL     string              `json:"receipt_url,omitempty"`
	Notes          string              `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}
