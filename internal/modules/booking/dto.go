package booking

import "time"

type CreateBookingRequest struct {
	StudioID  int64     `json:"studio_id" binding:"required,gt=0"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
	Notes     string    `json:"notes" binding:"max=2000"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type RescheduleBookingRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

type AvailabilityQuery struct {
	From time.Time `form:"from" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	To   time.Time `form:"to" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	Firm bool      `form:"firm"`
}

type StudioBookingsQuery struct {
	From   *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To     *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Status string     `form:"status" binding:"omitempty,oneof=pending confirmed cancelled completed"`
}
