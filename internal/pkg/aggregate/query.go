package aggregate

import (
	"sort"
	"strings"
)

const (
	SortDateAsc    = "date-asc"
	SortDateDesc   = "date-desc"
	SortAmountAsc  = "amount-asc"
	SortAmountDesc = "amount-desc"
)

// Sort returns a stably sorted copy. A blank key means date-desc; unknown keys
// keep the input order.
func Sort[R Record](records []R, key string) []R {
	out := make([]R, len(records))
	copy(out, records)

	var less func(a, b R) bool
	switch key {
	case SortDateAsc:
		less = func(a, b R) bool { return a.GetDate().Before(b.GetDate()) }
	case SortDateDesc, "":
		less = func(a, b R) bool { return a.GetDate().After(b.GetDate()) }
	case SortAmountAsc:
		less = func(a, b R) bool { return a.GetAmount().LessThan(b.GetAmount()) }
	case SortAmountDesc:
		less = func(a, b R) bool { return a.GetAmount().GreaterThan(b.GetAmount()) }
	default:
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Search matches query case-insensitively against description and group.
func Search[R Record](records []R, query string) []R {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]R(nil), records...)
	}
	out := make([]R, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.GetDescription()), q) ||
			strings.Contains(strings.ToLower(r.GetGroup()), q) {
			out = append(out, r)
		}
	}
	return out
}

// FilterCategory keeps records whose group equals category. "all" or blank disables it.
func FilterCategory[R Record](records []R, category string) []R {
	c := strings.TrimSpace(category)
	if c == "" || strings.EqualFold(c, "all") {
		return append([]R(nil), records...)
	}
	out := make([]R, 0, len(records))
	for _, r := range records {
		if r.GetGroup() == c {
			out = append(out, r)
		}
	}
	return out
}
