// Package aggregate derives totals, breakdowns, budget usage and trends from
// transaction records. Every function is pure and leaves its inputs untouched.
package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is implemented by expenses, income and investments. GetGroup is the
// category, source or type respectively.
type Record interface {
	GetAmount() decimal.Decimal
	GetGroup() string
	GetDate() time.Time
	GetDescription() string
}

const OtherGroup = "Other"

var hundred = decimal.NewFromInt(100)

// Total sums all amounts. An empty collection totals zero.
func Total[R Record](records []R) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(r.GetAmount())
	}
	return sum
}

// NetBalance is income minus expenses minus investments.
func NetBalance(income, expenses, investments decimal.Decimal) decimal.Decimal {
	return income.Sub(expenses).Sub(investments)
}

// Breakdown sums amounts per group. Blank groups are reported as "Other".
func Breakdown[R Record](records []R) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, r := range records {
		g := strings.TrimSpace(r.GetGroup())
		if g == "" {
			g = OtherGroup
		}
		out[g] = out[g].Add(r.GetAmount())
	}
	return out
}

// Slice is one named value for charts.
type Slice struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// BreakdownSlice is Breakdown sorted by value descending, then name.
func BreakdownSlice[R Record](records []R) []Slice {
	return sortedSlices(Breakdown(records))
}

func sortedSlices(m map[string]decimal.Decimal) []Slice {
	out := make([]Slice, 0, len(m))
	for name, v := range m {
		out = append(out, Slice{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Value.Cmp(out[j].Value); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Overview returns the Income, Expenses and Investments totals, dropping zeros.
func Overview(income, expenses, investments decimal.Decimal) []Slice {
	all := []Slice{
		{Name: "Income", Value: income},
		{Name: "Expenses", Value: expenses},
		{Name: "Investments", Value: investments},
	}
	out := make([]Slice, 0, len(all))
	for _, s := range all {
		if !s.Value.IsZero() {
			out = append(out, s)
		}
	}
	return out
}
