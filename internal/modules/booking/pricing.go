package booking

import (
	"math"
	"time"
)

// Price is the cost of [start, end) at hourlyRate, rounded to cents.
// Fractional hours are billed proportionally.
func Price(hourlyRate float64, start, end time.Time) float64 {
	hours := end.Sub(start).Hours()
	return math.Round(hourlyRate*hours*100) / 100
}
