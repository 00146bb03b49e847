package entitlements

import (
	"strings"

	"github.com/ManuelReschke/CashFox/app/models"
)

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// PlanOf returns the plan stored in the user's settings. Missing settings mean free.
func PlanOf(us *models.UserSettings) Plan {
	if us.IsPremium() {
		return PlanPremium
	}
	return PlanFree
}

// PlanFor maps a resolved state to the plan stored in user settings.
func PlanFor(s State) Plan {
	if s.Subscribed {
		return PlanPremium
	}
	return PlanFree
}

// NormalizePlan maps arbitrary plan strings onto known plans.
func NormalizePlan(p string) Plan {
	if strings.EqualFold(strings.TrimSpace(p), string(PlanPremium)) {
		return PlanPremium
	}
	return PlanFree
}

// CanUseInvestments reports whether investment tracking may be written.
func CanUseInvestments(plan Plan) bool {
	return plan == PlanPremium
}

// CanUseSMS reports whether SMS notifications may be sent.
func CanUseSMS(plan Plan) bool {
	return plan == PlanPremium
}

// AnalysisTier selects the prompt depth for the financial analysis.
func AnalysisTier(plan Plan) string {
	if plan == PlanPremium {
		return models.AnalysisTierAdvanced
	}
	return models.AnalysisTierBasic
}
