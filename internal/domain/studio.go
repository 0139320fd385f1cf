package domain

import (
	"time"

	"gorm.io/gorm"
)

type Studio struct {
	ID          int64          `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description,omitempty" gorm:"type:text"`
	HourlyRate  float64        `json:"hourly_rate" gorm:"type:decimal(10,2);not null"`
	SizeSqft    int            `json:"size_sqft,omitempty"`
	Capacity    int            `json:"capacity,omitempty"`
	Features    []string       `json:"features" gorm:"serializer:json"`
	ImageURL    string         `json:"image_url,omitempty"`
	IsActive    bool           `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	Equipment []Equipment `json:"equipment,omitempty" gorm:"foreignKey:StudioID"`
}

// HasFeatures reports whether every wanted feature is offered by the studio.
func (s *Studio) HasFeatures(wanted []string) bool {
	have := make(map[string]struct{}, len(s.Features))
	for _, f := range s.Features {
		have[f] = struct{}{}
	}
	for _, w := range wanted {
		if _, ok := have[w]; !ok {
			return false
		}
	}
	return true
}
