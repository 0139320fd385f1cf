package payment

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
	payments PaymentRepository
	bookings BookingRepository
	tx       Transactor
	locks    keylock.Locker
	notifier Notifier
	mode     Mode
	log      *zap.Logger
	now      func() time.Time
}

func NewService(
	payments PaymentRepository,
	bookings BookingRepository,
	tx Transactor,
	locks keylock.Locker,
	notifier Notifier,
	mode Mode,
	log *zap.Logger,
) *Service {
	return &Service{
		payments: payments,
		bookings: bookings,
		tx:       tx,
		locks:    locks,
		notifier: notifier,
		mode:     mode,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type ApplyInput struct {
	Amount        float64
	Method        string
	TransactionID string
	Status        domain.PaymentRecordStatus
	Notes         string
}

type Result struct {
	Payment *domain.Payment `json:"payment"`
	Booking *domain.Booking `json:"booking"`
}

// ApplyPayment records a payment against a booking and re-derives the
// booking's payment status. Status defaults to completed.
func (s *Service) ApplyPayment(ctx context.Context, actor domain.Actor, bookingID int64, in ApplyInput) (*Result, error) {
	if in.Status == "" {
		in.Status = domain.PaymentRecordCompleted
	}
	if in.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}
	switch in.Status {
	case domain.PaymentRecordPending, domain.PaymentRecordCompleted, domain.PaymentRecordFailed:
	default:
		return nil, fmt.Errorf("%w: a payment cannot be created as %q", ErrValidation, in.Status)
	}

	res, err := s.withBooking(ctx, bookingID, func(ctx context.Context, b *domain.Booking) (*domain.Payment, error) {
		if !actor.CanManage(b.UserID) {
			return nil, ErrForbidden
		}
		p := &domain.Payment{
			BookingID:     b.ID,
			Amount:        in.Amount,
			Method:        in.Method,
			TransactionID: in.TransactionID,
			Status:        in.Status,
			Notes:         in.Notes,
		}
		if in.Status == domain.PaymentRecordCompleted {
			now := s.now()
			p.PaidAt = &now
		}
		return p, s.payments.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	p := res.Payment

	s.log.Info("payment recorded",
		zap.Int64("payment_id", p.ID),
		zap.Int64("booking_id", bookingID),
		zap.Float64("amount", p.Amount),
		zap.String("status", string(p.Status)),
		zap.String("booking_payment_status", string(res.Booking.PaymentStatus)))
	return res, nil
}

// UpdatePaymentStatus settles a pending payment as completed or failed.
func (s *Service) UpdatePaymentStatus(ctx context.Context, actor domain.Actor, paymentID int64, status domain.PaymentRecordStatus) (*Result, error) {
	if !actor.Role.IsStaff() {
		return nil, ErrForbidden
	}
	if status != domain.PaymentRecordCompleted && status != domain.PaymentRecordFailed {
		return nil, fmt.Errorf("%w: status must be completed or failed", ErrValidation)
	}

	return s.updatePayment(ctx, paymentID, func(p *domain.Payment) error {
		if p.Status != domain.PaymentRecordPending {
			return ErrInvalidStatusTransition
		}
		p.Status = status
		if status == domain.PaymentRecordCompleted {
			now := s.now()
			p.PaidAt = &now
		}
		return nil
	})
}

// RefundPayment refunds a completed payment. A nil amount refunds it in full.
func (s *Service) RefundPayment(ctx context.Context, actor domain.Actor, paymentID int64, amount *float64) (*Result, error) {
	if !actor.Role.IsStaff() {
		return nil, ErrForbidden
	}

	return s.updatePayment(ctx, paymentID, func(p *domain.Payment) error {
		if p.Status != domain.PaymentRecordCompleted {
			return ErrInvalidStatusTransition
		}
		refund := p.Amount
		if amount != nil {
			refund = *amount
		}
		if refund < 0 || cents(refund) > cents(p.Amount) {
			return ErrInvalidRefundAmount
		}
		now := s.now()
		p.Status = domain.PaymentRecordRefunded
		p.RefundedAmount = refund
		p.RefundedAt = &now
		return nil
	})
}

func (s *Service) ListForBooking(ctx context.Context, actor domain.Actor, bookingID int64) ([]domain.Payment, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, s.storeErr("load booking", err)
	}
	if !actor.CanManage(b.UserID) {
		return nil, ErrForbidden
	}
	list, err := s.payments.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, s.storeErr("list payments", err)
	}
	if list == nil {
		list = []domain.Payment{}
	}
	return list, nil
}

func (s *Service) updatePayment(ctx context.Context, paymentID int64, mutate func(p *domain.Payment) error) (*Result, error) {
	current, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, s.storeErr("load payment", err)
	}

	res, err := s.withBooking(ctx, current.BookingID, func(ctx context.Context, _ *domain.Booking) (*domain.Payment, error) {
		p, err := s.payments.GetByID(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		if err := mutate(p); err != nil {
			return nil, err
		}
		return p, s.payments.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	p := res.Payment

	s.log.Info("payment updated",
		zap.Int64("payment_id", p.ID),
		zap.String("status", string(p.Status)),
		zap.String("booking_payment_status", string(res.Booking.PaymentStatus)))
	return res, nil
}

// withBooking runs fn under the booking's studio lock in a transaction, then
// re-derives the booking's payment status from all of its payments. A payment
// notification is emitted when the payment fn touched ends up completed or
// refunded.
func (s *Service) withBooking(ctx context.Context, bookingID int64, fn func(ctx context.Context, b *domain.Booking) (*domain.Payment, error)) (*Result, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, s.storeErr("load booking", err)
	}

	unlock, err := s.locks.Lock(ctx, keylock.StudioKey(b.StudioID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer unlock()

	var touched *domain.Payment
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err = s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if touched, err = fn(ctx, b); err != nil {
			return err
		}

		payments, err := s.payments.ListByBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		status := Derive(b.TotalPrice, payments, s.mode)
		if status != b.PaymentStatus {
			if err := s.bookings.UpdatePaymentStatus(ctx, b.ID, status); err != nil {
				return err
			}
			b.PaymentStatus = status
		}
		return nil
	})
	if err != nil {
		return nil, s.storeErr("apply payment", err)
	}

	if touched.Status == domain.PaymentRecordCompleted || touched.Status == domain.PaymentRecordRefunded {
		s.notifier.Emit(notification.PaymentApplied(b, touched))
	}
	return &Result{Payment: touched, Booking: b}, nil
}

func (s *Service) storeErr(op string, err error) error {
	for _, known := range []error{ErrNotFound, ErrForbidden, ErrValidation, ErrInvalidRefundAmount, ErrInvalidStatusTransition, ErrTransient} {
		if errors.Is(err, known) {
			return err
		}
	}
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	s.log.Error("payment storage failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrTransient, op, err)
}
