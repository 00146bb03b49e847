package billing

import (
	"strings"

	"github.com/ManuelReschke/CashFox/internal/pkg/entitlements"
)

func normalizePlan(plan string) string {
	return string(entitlements.NormalizePlan(plan))
}

func isEntitlingStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "trialing", "past_due":
		return true
	default:
		return false
	}
}
