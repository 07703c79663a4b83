package cashflow

import (
	"errors"
	"fmt"
	"time"
)

// DisplayLayout is the pt-BR day/month/year layout used in messages.
const DisplayLayout = "02/01/2006"

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange validates start <= end. Both are reduced to their calendar day.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.IsZero() || end.IsZero() {
		return DateRange{}, errors.New("date range needs both start and end")
	}
	start, end = Day(start), Day(end)
	if start.After(end) {
		return DateRange{}, fmt.Errorf("start %s is after end %s", start.Format(DisplayLayout), end.Format(DisplayLayout))
	}
	return DateRange{Start: start, End: end}, nil
}

// Days counts the days in the range, both ends included.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Dates lists every day from Start to End in ascending order.
func (r DateRange) Dates() []time.Time {
	dates := make([]time.Time, 0, r.Days())
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// Contains reports whether t falls on a day inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r DateRange) String() string {
	return r.Start.Format(DisplayLayout) + " - " + r.End.Format(DisplayLayout)
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
