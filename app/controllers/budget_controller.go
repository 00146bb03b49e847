package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/aggregate"
	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
)

type budgetRequest struct {
	Category string           `json:"category"`
	Amount   *decimal.Decimal `json:"amount"`
	Period   string           `json:"period"`
}

type budgetView struct {
	models.Budget
	Usage aggregate.BudgetUsage `json:"usage"`
}

// HandleListBudgets returns every budget with its usage measured against the
// caller's expenses at request time.
func HandleListBudgets(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	repos := repository.GetGlobalRepositories()
	budgets, err := repos.Budget.ListByUser(userID)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Budget"))
	}
	expenses, err := repos.Expense.ListByUser(userID)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Expense"))
	}

	now := clock()
	out := make([]budgetView, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetView{Budget: b, Usage: aggregate.BudgetStatus(b, expenses, now)})
	}
	return c.JSON(fiber.Map{"items": out, "count": len(out)})
}

func HandleCreateBudget(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req budgetRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}
	amount, err := requireAmount(req.Amount)
	if err != nil {
		return apperr.Respond(c, err)
	}
	b := models.Budget{
		UserID:   userID,
		Category: strings.TrimSpace(req.Category),
		Amount:   amount,
		Period:   strings.ToLower(strings.TrimSpace(req.Period)),
	}
	if b.Period == "" {
		b.Period = models.PeriodMonthly
	}
	if err := models.Validate(b); err != nil {
		return apperr.Respond(c, validationError(err))
	}
	if err := repository.GetGlobalRepositories().Budget.Create(&b); err != nil {
		return apperr.Respond(c, storeError(err, "Budget"))
	}
	return c.Status(fiber.StatusCreated).JSON(b)
}

func HandleUpdateBudget(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req budgetRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}

	repo := repository.GetGlobalRepositories().Budget
	b, err := repo.GetByID(userID, id)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Budget"))
	}
	if req.Amount != nil {
		if b.Amount, err = requireAmount(req.Amount); err != nil {
			return apperr.Respond(c, err)
		}
	}
	if s := strings.TrimSpace(req.Category); s != "" {
		b.Category = s
	}
	if s := strings.TrimSpace(req.Period); s != "" {
		b.Period = strings.ToLower(s)
	}
	if err := models.Validate(b); err != nil {
		return apperr.Respond(c, validationError(err))
	}
	if err := repo.Update(b); err != nil {
		return apperr.Respond(c, storeError(err, "Budget"))
	}
	return c.JSON(b)
}

func HandleDeleteBudget(c *fiber.Ctx) error {
	return deleteOwned(c, repository.GetGlobalRepositories().Budget, "Budget")
}
