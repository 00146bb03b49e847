package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/aggregate"
	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
)

const dashboardTrendMonths = 6

type ledger struct {
	Expenses    []models.Expense
	Income      []models.Income
	Investments []models.Investment
}

func loadLedger(repos *repository.Repositories, userID uint) (*ledger, error) {
	expenses, err := repos.Expense.ListByUser(userID)
	if err != nil {
		return nil, storeError(err, "Expense")
	}
	income, err := repos.Income.ListByUser(userID)
	if err != nil {
		return nil, storeError(err, "Income")
	}
	investments, err := repos.Investment.ListByUser(userID)
	if err != nil {
		return nil, storeError(err, "Investment")
	}
	return &ledger{Expenses: expenses, Income: income, Investments: investments}, nil
}

// HandleDashboard returns the totals and chart series of the overview page.
func HandleDashboard(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	l, err := loadLedger(repository.GetGlobalRepositories(), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	totalIncome := aggregate.Total(l.Income)
	totalExpenses := aggregate.Total(l.Expenses)
	totalInvestments := aggregate.Total(l.Investments)

	return c.JSON(fiber.Map{
		"totals": fiber.Map{
			"income":      totalIncome,
			"expenses":    totalExpenses,
			"investments": totalInvestments,
			"net_balance": aggregate.NetBalance(totalIncome, totalExpenses, totalInvestments),
		},
		"overview":             aggregate.Overview(totalIncome, totalExpenses, totalInvestments),
		"expense_breakdown":    aggregate.BreakdownSlice(l.Expenses),
		"investment_breakdown": aggregate.BreakdownSlice(l.Investments),
		"income_vs_expenses": []aggregate.Slice{
			{Name: "Income", Value: totalIncome},
			{Name: "Expenses", Value: totalExpenses},
		},
		"trend": aggregate.MonthlyTrend(l.Income, l.Expenses, l.Investments, clock(), dashboardTrendMonths),
	})
}
