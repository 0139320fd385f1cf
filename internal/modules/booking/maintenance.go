package booking

import (
	"context"
	"errors"
	"time"

	"studiobooking/internal/domain"
	"studiobooking/internal/modules/notification"

	"go.uber.org/zap"
)

const maintenanceBatch = 100

// CompleteElapsed completes confirmed bookings whose end time has passed and
// returns how many it moved.
func (s *Service) CompleteElapsed(ctx context.Context) (int, error) {
	due, err := s.bookings.ListElapsedConfirmed(ctx, s.now(), maintenanceBatch)
	if err != nil {
		return 0, s.storeErr("list elapsed bookings", err)
	}

	done := 0
	for _, b := range due {
		if _, err := s.complete(ctx, b.ID); err != nil {
			// cancelled or completed since the listing
			if errors.Is(err, ErrAlreadyTerminal) || errors.Is(err, ErrInvalidStatusTransition) {
				continue
			}
			return done, err
		}
		done++
	}
	return done, nil
}

// SendReminders emits one reminder per confirmed booking starting within lead.
func (s *Service) SendReminders(ctx context.Context, lead time.Duration) (int, error) {
	due, err := s.bookings.ListDueReminders(ctx, s.now(), lead, maintenanceBatch)
	if err != nil {
		return 0, s.storeErr("list due reminders", err)
	}

	sent := 0
	for _, candidate := range due {
		ok, err := s.remind(ctx, candidate)
		if err != nil {
			return sent, err
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

func (s *Service) remind(ctx context.Context, candidate domain.Booking) (bool, error) {
	unlock, err := s.lockStudio(ctx, candidate.StudioID)
	if err != nil {
		return false, err
	}
	defer unlock()

	var (
		b    *domain.Booking
		sent bool
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err = s.bookings.GetByID(ctx, candidate.ID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingConfirmed {
			return nil
		}
		sent, err = s.bookings.MarkReminderSent(ctx, b.ID, s.now())
		return err
	})
	if err != nil {
		return false, s.storeErr("mark reminder", err)
	}
	if sent {
		s.notifier.Emit(notification.BookingReminder(b, s.studioName(ctx, b.StudioID)))
	}
	return sent, nil
}

// RunMaintenance runs both sweeps every interval until ctx is cancelled.
// A failed sweep is logged and retried on the next tick.
func (s *Service) RunMaintenance(ctx context.Context, interval, reminderLead time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx, reminderLead)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Service) sweep(ctx context.Context, reminderLead time.Duration) {
	if n, err := s.CompleteElapsed(ctx); err != nil {
		s.log.Warn("complete sweep failed", zap.Error(err))
	} else if n > 0 {
		s.log.Info("completed elapsed bookings", zap.Int("count", n))
	}

	if n, err := s.SendReminders(ctx, reminderLead); err != nil {
		s.log.Warn("reminder sweep failed", zap.Error(err))
	} else if n > 0 {
		s.log.Info("sent booking reminders", zap.Int("count", n))
	}
}
