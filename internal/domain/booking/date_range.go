package booking

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// DateRange is an inclusive rental period. Overlap is decided on UTC calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range, normalising both ends to UTC.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: start.UTC(), End: end.UTC()}
}

// IsOrdered reports whether start is not after end.
func (r DateRange) IsOrdered() bool {
	return !r.Start.After(r.End)
}

// FirstDay returns midnight UTC of the start date.
func (r DateRange) FirstDay() time.Time {
	return startOfDay(r.Start)
}

// LastDay returns midnight UTC of the end date.
func (r DateRange) LastDay() time.Time {
	return startOfDay(r.End)
}

// Overlaps reports whether the two ranges share at least one calendar day:
// [s1,e1] and [s2,e2] overlap iff s1 <= e2 and e1 >= s2.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.FirstDay().After(other.LastDay()) && !r.LastDay().Before(other.FirstDay())
}

// QueryBounds returns timestamps for matching stored rows against r with
// "start_date < until AND end_date >= from", which is equivalent to Overlaps.
func (r DateRange) QueryBounds() (from, until time.Time) {
	return r.FirstDay(), r.LastDay().Add(day)
}

// TotalDays is the elapsed time rounded up to whole days, with a same-day range counting as one.
func (r DateRange) TotalDays() int {
	elapsed := r.End.Sub(r.Start)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	days := int(math.Ceil(float64(elapsed) / float64(day)))
	if days < 1 {
		return 1
	}
	return days
}

// StartsBefore reports whether the range starts on a calendar day earlier than t's.
func (r DateRange) StartsBefore(t time.Time) bool {
	return r.FirstDay().Before(startOfDay(t))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
