package booking

import (
	"time"

	"studiobooking/internal/domain"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching intervals such as [9,10) and [10,11) do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// ConflictPolicy selects which existing bookings block a candidate interval.
// Cancelled bookings never block.
type ConflictPolicy struct {
	IgnorePending bool
}

// DefaultPolicy is used by admission: pending and confirmed bookings both
// hold their interval.
var DefaultPolicy = ConflictPolicy{}

func (p ConflictPolicy) blocks(s domain.BookingStatus) bool {
	switch s {
	case domain.BookingCancelled:
		return false
	case domain.BookingPending:
		return !p.IgnorePending
	}
	return true
}

// Conflicts reports whether candidate overlaps any blocking booking in existing.
func Conflicts(existing []domain.Booking, candidate Interval, policy ConflictPolicy) bool {
	for i := range existing {
		b := &existing[i]
		if !policy.blocks(b.Status) {
			continue
		}
		if candidate.Overlaps(Interval{Start: b.StartTime, End: b.EndTime}) {
			return true
		}
	}
	return false
}

// Busy returns the intervals of existing bookings that block under policy.
func Busy(existing []domain.Booking, policy ConflictPolicy) []Interval {
	out := make([]Interval, 0, len(existing))
	for _, b := range existing {
		if policy.blocks(b.Status) {
			out = append(out, Interval{Start: b.StartTime.UTC(), End: b.EndTime.UTC()})
		}
	}
	return out
}
