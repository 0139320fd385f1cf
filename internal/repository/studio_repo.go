package repository

import (
	"context"

	"studiobooking/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StudioFilters struct {
	MinRate    *float64
	MaxRate    *float64
	ActiveOnly bool
	Limit      int
	Offset     int
}

type StudioRepository struct {
	db *gorm.DB
}

func NewStudioRepository(db *gorm.DB) *StudioRepository {
	return &StudioRepository{db: db}
}

// List returns non-deleted studios ordered by id with optional rate filters.
func (r *StudioRepository) List(ctx context.Context, f StudioFilters) ([]domain.Studio, int64, error) {
	q := conn(ctx, r.db).Model(&domain.Studio{})

	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if f.MinRate != nil {
		q = q.Where("hourly_rate >= ?", *f.MinRate)
	}
	if f.MaxRate != nil {
		q = q.Where("hourly_rate <= ?", *f.MaxRate)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	var studios []domain.Studio
	if err := q.Order("id ASC").Find(&studios).Error; err != nil {
		return nil, 0, classify(err)
	}
	return studios, total, nil
}

// GetByID fetches a studio with its equipment. Soft-deleted studios are not found.
func (r *StudioRepository) GetByID(ctx context.Context, id int64) (*domain.Studio, error) {
	var studio domain.Studio
	err := conn(ctx, r.db).
		Preload("Equipment").
		First(&studio, id).Error
	if err != nil {
		return nil, classify(err)
	}
	return &studio, nil
}

// GetForUpdate reads the studio row with a row lock held until the
// surrounding transaction ends. SQLite ignores the locking clause.
func (r *StudioRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Studio, error) {
	var studio domain.Studio
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&studio, id).Error
	if err != nil {
		return nil, classify(err)
	}
	return &studio, nil
}

func (r *StudioRepository) Create(ctx context.Context, studio *domain.Studio) error {
	return classify(conn(ctx, r.db).Create(studio).Error)
}

func (r *StudioRepository) Update(ctx context.Context, studio *domain.Studio) error {
	return classify(conn(ctx, r.db).Omit(clause.Associations).Save(studio).Error)
}

func (r *StudioRepository) SoftDelete(ctx context.Context, id int64) error {
	res := conn(ctx, r.db).Delete(&domain.Studio{}, id)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *StudioRepository) AddEquipment(ctx context.Context, eq *domain.Equipment) error {
	return classify(conn(ctx, r.db).Create(eq).Error)
}
