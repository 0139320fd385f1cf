package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studiobooking/internal/domain"
	"studiobooking/internal/modules/booking"
	"studiobooking/internal/pkg/keylock"
	"studiobooking/internal/repository"

	"go.uber.org/zap"
)

type StudioRepository interface {
	List(ctx context.Context, f repository.StudioFilters) ([]domain.Studio, int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Studio, error)
	GetForUpdate(ctx context.Context, id int64) (*domain.Studio, error)
	Create(ctx context.Context, s *domain.Studio) error
	Update(ctx context.Context, s *domain.Studio) error
	SoftDelete(ctx context.Context, id int64) error
	AddEquipment(ctx context.Context, eq *domain.Equipment) error
}

type BookingRepository interface {
	FindBookingsForStudioInRange(ctx context.Context, studioID int64, from, to time.Time, exclude ...domain.BookingStatus) ([]domain.Booking, error)
	CountActiveFuture(ctx context.Context, studioID int64, now time.Time) (int64, error)
	ListPendingByStudio(ctx context.Context, studioID int64) ([]domain.Booking, error)
	UpdatePrice(ctx context.Context, id int64, price float64) error
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	studios  StudioRepository
	bookings BookingRepository
	tx       Transactor
	locks    keylock.Locker
	log      *zap.Logger
	now      func() time.Time
}

func NewService(studios StudioRepository, bookings BookingRepository, tx Transactor, locks keylock.Locker, log *zap.Logger) *Service {
	return &Service{
		studios:  studios,
		bookings: bookings,
		tx:       tx,
		locks:    locks,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

/* ---------- STUDIO ---------- */

type ListFilter struct {
	MinRate  *float64
	MaxRate  *float64
	Features []string
	// Available, when set, keeps only studios with no pending or confirmed
	// booking overlapping it.
	Available *booking.Interval
	Page      int
	Limit     int
}

// ListStudios returns active studios matching f, one page at a time.
func (s *Service) ListStudios(ctx context.Context, f ListFilter) ([]domain.Studio, int64, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Available != nil && !f.Available.Valid() {
		return nil, 0, fmt.Errorf("%w: available_to must be after available_from", ErrValidation)
	}

	q := repository.StudioFilters{MinRate: f.MinRate, MaxRate: f.MaxRate, ActiveOnly: true}
	offset := (f.Page - 1) * f.Limit

	// rate filters run in SQL; features and availability need the rows
	if len(f.Features) == 0 && f.Available == nil {
		q.Limit, q.Offset = f.Limit, offset
		list, total, err := s.studios.List(ctx, q)
		if err != nil {
			return nil, 0, s.storeErr("list studios", err)
		}
		return list, total, nil
	}

	all, _, err := s.studios.List(ctx, q)
	if err != nil {
		return nil, 0, s.storeErr("list studios", err)
	}

	matched := make([]domain.Studio, 0, len(all))
	for _, studio := range all {
		if !studio.HasFeatures(f.Features) {
			continue
		}
		if f.Available != nil {
			existing, err := s.bookings.FindBookingsForStudioInRange(ctx, studio.ID, f.Available.Start, f.Available.End, domain.BookingCancelled)
			if err != nil {
				return nil, 0, s.storeErr("check availability", err)
			}
			if booking.Conflicts(existing, *f.Available, booking.DefaultPolicy) {
				continue
			}
		}
		matched = append(matched, studio)
	}

	total := int64(len(matched))
	if offset >= len(matched) {
		return []domain.Studio{}, total, nil
	}
	end := offset + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (s *Service) GetStudio(ctx context.Context, id int64) (*domain.Studio, error) {
	studio, err := s.studios.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("get studio", err)
	}
	return studio, nil
}

func (s *Service) CreateStudio(ctx context.Context, req CreateStudioRequest) (*domain.Studio, error) {
	studio := &domain.Studio{
		Name:        req.Name,
		Description: req.Description,
		HourlyRate:  req.HourlyRate,
		SizeSqft:    req.SizeSqft,
		Capacity:    req.Capacity,
		Features:    req.Features,
		ImageURL:    req.ImageURL,
		IsActive:    true,
	}
	if studio.Features == nil {
		studio.Features = []string{}
	}
	if err := s.studios.Create(ctx, studio); err != nil {
		return nil, s.storeErr("create studio", err)
	}
	s.log.Info("studio created", zap.Int64("studio_id", studio.ID), zap.String("name", studio.Name))
	return studio, nil
}

// UpdateStudio applies the present fields. A rate change reprices the
// studio's pending bookings in the same transaction; confirmed prices stay.
func (s *Service) UpdateStudio(ctx context.Context, id int64, req UpdateStudioRequest) (*domain.Studio, error) {
	unlock, err := s.lockStudio(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		studio   *domain.Studio
		repriced int
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		studio, err = s.studios.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		rateChanged := req.HourlyRate != nil && *req.HourlyRate != studio.HourlyRate
		applyUpdate(studio, req)

		if err := s.studios.Update(ctx, studio); err != nil {
			return err
		}
		if !rateChanged {
			return nil
		}

		pending, err := s.bookings.ListPendingByStudio(ctx, id)
		if err != nil {
			return err
		}
		for _, b := range pending {
			price := booking.Price(studio.HourlyRate, b.StartTime, b.EndTime)
			if price == b.TotalPrice {
				continue
			}
			if err := s.bookings.UpdatePrice(ctx, b.ID, price); err != nil {
				return err
			}
			repriced++
		}
		return nil
	})
	if err != nil {
		return nil, s.storeErr("update studio", err)
	}

	s.log.Info("studio updated", zap.Int64("studio_id", id), zap.Int("repriced_bookings", repriced))
	return studio, nil
}

func applyUpdate(studio *domain.Studio, req UpdateStudioRequest) {
	if req.Name != nil {
		studio.Name = *req.Name
	}
	if req.Description != nil {
		studio.Description = *req.Description
	}
	if req.HourlyRate != nil {
		studio.HourlyRate = *req.HourlyRate
	}
	if req.SizeSqft != nil {
		studio.SizeSqft = *req.SizeSqft
	}
	if req.Capacity != nil {
		studio.Capacity = *req.Capacity
	}
	if req.Features != nil {
		studio.Features = *req.Features
	}
	if req.ImageURL != nil {
		studio.ImageURL = *req.ImageURL
	}
	if req.IsActive != nil {
		studio.IsActive = *req.IsActive
	}
}

// DeleteStudio soft-deletes a studio that has no pending or confirmed booking
// starting from now on. Past bookings stay in place as history.
func (s *Service) DeleteStudio(ctx context.Context, id int64) error {
	unlock, err := s.lockStudio(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.studios.GetForUpdate(ctx, id); err != nil {
			return err
		}
		n, err := s.bookings.CountActiveFuture(ctx, id, s.now())
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrHasActiveBookings
		}
		return s.studios.SoftDelete(ctx, id)
	})
	if err != nil {
		return s.storeErr("delete studio", err)
	}

	s.log.Info("studio deleted", zap.Int64("studio_id", id))
	return nil
}

/* ---------- EQUIPMENT ---------- */

func (s *Service) AddEquipment(ctx context.Context, studioID int64, req CreateEquipmentRequest) (*domain.Equipment, error) {
	if _, err := s.studios.GetByID(ctx, studioID); err != nil {
		return nil, s.storeErr("get studio", err)
	}

	status := domain.EquipmentStatus(req.Status)
	if status == "" {
		status = domain.EquipmentAvailable
	}
	eq := &domain.Equipment{
		StudioID:     studioID,
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Brand:        req.Brand,
		Model:        req.Model,
		SerialNumber: req.SerialNumber,
		Quantity:     req.Quantity,
		Status:       status,
	}
	if err := s.studios.AddEquipment(ctx, eq); err != nil {
		return nil, s.storeErr("add equipment", err)
	}
	return eq, nil
}

func (s *Service) lockStudio(ctx context.Context, id int64) (func(), error) {
	unlock, err := s.locks.Lock(ctx, keylock.StudioKey(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return unlock, nil
}

func (s *Service) storeErr(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrHasActiveBookings), errors.Is(err, ErrValidation), errors.Is(err, ErrTransient):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	}
	s.log.Error("catalog storage failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrTransient, op, err)
}
