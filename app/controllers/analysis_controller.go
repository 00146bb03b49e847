package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/advisor"
	"github.com/ManuelReschke/CashFox/internal/pkg/aggregate"
	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CashFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/CashFox/internal/pkg/usercontext"
)

const recentAnalysesLimit = 10

// HandleAnalyzeFinances summarizes the caller's ledger and asks the model for
// advice. Premium users get the advanced prompt with the expense breakdown.
func HandleAnalyzeFinances(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	repos := repository.GetGlobalRepositories()
	l, err := loadLedger(repos, userID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	tier := entitlements.AnalysisTier(entitlements.NormalizePlan(usercontext.GetUserContext(c).Plan))
	in := advisor.Input{
		Income:      aggregate.Total(l.Income),
		Expenses:    aggregate.Total(l.Expenses),
		Investments: aggregate.Total(l.Investments),
		Breakdown:   aggregate.Breakdown(l.Expenses),
	}

	client := advisor.NewClientFromEnv()
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	text, err := client.Analyze(ctx, in, tier == models.AnalysisTierAdvanced)
	if err != nil {
		return apperr.Respond(c, err)
	}

	entry := &models.AnalysisLog{UserID: userID, Tier: tier, Model: client.Model, Analysis: text}
	if err := repos.Analysis.Create(entry); err != nil {
		log.Warnf("[Analysis] Failed to store analysis for user %d: %v", userID, err)
	}

	return c.JSON(fiber.Map{
		"analysis": text,
		"tier":     tier,
		"model":    client.Model,
	})
}

// HandleListAnalyses returns the most recent stored analyses.
func HandleListAnalyses(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	items, err := repository.GetGlobalRepositories().Analysis.ListByUser(userID, recentAnalysesLimit)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Analysis"))
	}
	return c.JSON(fiber.Map{"items": items, "count": len(items)})
}
