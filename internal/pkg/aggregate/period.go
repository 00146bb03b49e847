package aggregate

import "time"

const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// PeriodBounds returns the half-open interval [start, end) of the period that
// contains now. Weeks start on Monday. Unknown periods fall back to monthly.
func PeriodBounds(period string, now time.Time) (time.Time, time.Time) {
	loc := now.Location()
	switch period {
	case PeriodWeekly:
		offset := (int(now.Weekday()) + 6) % 7
		start := time.Date(now.Year(), now.Month(), now.Day()-offset, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 0, 7)
	case PeriodYearly:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, 0)
	default:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0)
	}
}

// InPeriod reports whether date falls in the period containing now.
// Record dates are calendar dates, so only their own year, month and day count.
func InPeriod(date time.Time, period string, now time.Time) bool {
	start, end := PeriodBounds(period, now)
	d := calendarDay(date, now.Location())
	return !d.Before(start) && d.Before(end)
}

// calendarDay places the Y/M/D of d at midnight in loc.
func calendarDay(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// FilterPeriod keeps the records dated inside the current period.
func FilterPeriod[R Record](records []R, period string, now time.Time) []R {
	out := make([]R, 0, len(records))
	for _, r := range records {
		if InPeriod(r.GetDate(), period, now) {
			out = append(out, r)
		}
	}
	return out
}
