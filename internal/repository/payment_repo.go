package repository

import (
	"context"

	"studiobooking/internal/domain"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return classify(conn(ctx, r.db).Create(p).Error)
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	var p domain.Payment
	if err := conn(ctx, r.db).First(&p, id).Error; err != nil {
		return nil, classify(err)
	}
	return &p, nil
}

// ListByBooking returns the booking's payments in insertion order.
func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	var out []domain.Payment
	err := conn(ctx, r.db).
		Where("booking_id = ?", bookingID).
		Order("id ASC").
		Find(&out).Error
	return out, classify(err)
}

func (r *PaymentRepository) Save(ctx context.Context, p *domain.Payment) error {
	return classify(conn(ctx, r.db).Save(p).Error)
}
