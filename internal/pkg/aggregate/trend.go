package aggregate

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthPoint holds the totals of one calendar month.
type MonthPoint struct {
	Month       string          `json:"month"`
	Income      decimal.Decimal `json:"income"`
	Expenses    decimal.Decimal `json:"expenses"`
	Investments decimal.Decimal `json:"investments"`
}

// MonthlyTrend returns totals for the given number of calendar months ending
// with the month of now, oldest first.
func MonthlyTrend[I, E, V Record](income []I, expenses []E, investments []V, now time.Time, months int) []MonthPoint {
	if months <= 0 {
		return nil
	}
	loc := now.Location()
	first := time.Date(now.Year(), now.Month()-time.Month(months-1), 1, 0, 0, 0, 0, loc)

	points := make([]MonthPoint, months)
	for i := range points {
		m := first.AddDate(0, i, 0)
		points[i] = MonthPoint{Month: m.Format("Jan 2006"), Income: decimal.Zero, Expenses: decimal.Zero, Investments: decimal.Zero}
	}

	index := func(d time.Time) int {
		i := (d.Year()-first.Year())*12 + int(d.Month()) - int(first.Month())
		if i < 0 || i >= months {
			return -1
		}
		return i
	}

	for _, r := range income {
		if i := index(r.GetDate()); i >= 0 {
			points[i].Income = points[i].Income.Add(r.GetAmount())
		}
	}
	for _, r := range expenses {
		if i := index(r.GetDate()); i >= 0 {
			points[i].Expenses = points[i].Expenses.Add(r.GetAmount())
		}
	}
	for _, r := range investments {
		if i := index(r.GetDate()); i >= 0 {
			points[i].Investments = points[i].Investments.Add(r.GetAmount())
		}
	}
	return points
}

const (
	UrgencyOverdue  = "overdue"
	UrgencyDueSoon  = "due-soon"
	UrgencyUpcoming = "upcoming"
)

// DaysUntil counts calendar days from today (in now's location) to the due date.
func DaysUntil(due, now time.Time) int {
	a := calendarDay(now, time.UTC)
	b := calendarDay(due, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func BillUrgency(days int) string {
	switch {
	case days < 0:
		return UrgencyOverdue
	case days <= 3:
		return UrgencyDueSoon
	default:
		return UrgencyUpcoming
	}
}
