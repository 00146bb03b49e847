package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/CashFox/app/models"
)

const (
	StatusOnTrack = "on-track"
	StatusNear    = "near"
	StatusOver    = "over"
)

var nearThreshold = decimal.NewFromInt(80)

// BudgetUsage is derived on every read and never stored.
type BudgetUsage struct {
	Category   string          `json:"category"`
	Period     string          `json:"period"`
	Amount     decimal.Decimal `json:"amount"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage decimal.Decimal `json:"percentage"`
	Status     string          `json:"status"`
	// Unbounded is set when money was spent against a zero budget.
	Unbounded bool `json:"unbounded"`
}

// BudgetStatus measures the expenses of b's category within b's period.
func BudgetStatus[R Record](b models.Budget, expenses []R, now time.Time) BudgetUsage {
	return Usage(b.Category, b.Amount, b.Period, expenses, now)
}

// Usage is BudgetStatus for a bare category, limit and period.
func Usage[R Record](category string, amount decimal.Decimal, period string, expenses []R, now time.Time) BudgetUsage {
	spent := decimal.Zero
	for _, e := range expenses {
		if e.GetGroup() == category && InPeriod(e.GetDate(), period, now) {
			spent = spent.Add(e.GetAmount())
		}
	}

	u := BudgetUsage{
		Category:  category,
		Period:    period,
		Amount:    amount,
		Spent:     spent,
		Remaining: amount.Sub(spent),
	}

	if amount.IsZero() {
		if spent.IsPositive() {
			u.Percentage = hundred
			u.Status = StatusOver
			u.Unbounded = true
		} else {
			u.Percentage = decimal.Zero
			u.Status = StatusOnTrack
		}
		return u
	}

	u.Percentage = spent.Div(amount).Mul(hundred)
	u.Status = tier(u.Percentage)
	return u
}

func tier(p decimal.Decimal) string {
	switch {
	case p.GreaterThan(hundred):
		return StatusOver
	case p.GreaterThan(nearThreshold):
		return StatusNear
	default:
		return StatusOnTrack
	}
}

// Progress of a savings goal. Ratio is unclamped, Percentage is within [0,100].
type Progress struct {
	Ratio      decimal.Decimal `json:"ratio"`
	Percentage decimal.Decimal `json:"percentage"`
}

func GoalProgress(current, target decimal.Decimal) Progress {
	if !target.IsPositive() {
		if current.IsNegative() {
			return Progress{Ratio: decimal.Zero, Percentage: decimal.Zero}
		}
		return Progress{Ratio: hundred, Percentage: hundred}
	}
	ratio := current.Div(target).Mul(hundred)
	pct := ratio
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	return Progress{Ratio: ratio, Percentage: pct}
}
