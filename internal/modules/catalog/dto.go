package catalog

import "time"

type CreateStudioRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description"`
	HourlyRate  float64  `json:"hourly_rate" validate:"gte=0"`
	SizeSqft    int      `json:"size_sqft" validate:"gte=0"`
	Capacity    int      `json:"capacity" validate:"gte=0"`
	Features    []string `json:"features"`
	ImageURL    string   `json:"image_url" validate:"omitempty,url"`
}

// UpdateStudioRequest changes only the fields that are present.
type UpdateStudioRequest struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string   `json:"description,omitempty"`
	HourlyRate  *float64  `json:"hourly_rate,omitempty" validate:"omitempty,gte=0"`
	SizeSqft    *int      `json:"size_sqft,omitempty" validate:"omitempty,gte=0"`
	Capacity    *int      `json:"capacity,omitempty" validate:"omitempty,gte=0"`
	Features    *[]string `json:"features,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty" validate:"omitempty,url"`
	IsActive    *bool     `json:"is_active,omitempty"`
}

type CreateEquipmentRequest struct {
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
	Quantity     int    `json:"quantity" validate:"gte=0"`
	Status       string `json:"status" validate:"omitempty,oneof=available in-use maintenance"`
}

type ListStudiosQuery struct {
	MinRate       *float64   `form:"min_rate" validate:"omitempty,gte=0"`
	MaxRate       *float64   `form:"max_rate" validate:"omitempty,gte=0"`
	Features      string     `form:"features"`
	AvailableFrom *time.Time `form:"available_from" time_format:"2006-01-02T15:04:05Z07:00"`
	AvailableTo   *time.Time `form:"available_to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page          int        `form:"page" validate:"omitempty,gte=1"`
	Limit         int        `form:"limit" validate:"omitempty,gte=1,lte=100"`
}
