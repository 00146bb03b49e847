package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/aggregate"
	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
)

type goalRequest struct {
	Title         string           `json:"title"`
	TargetAmount  *decimal.Decimal `json:"target_amount"`
	CurrentAmount *decimal.Decimal `json:"current_amount"`
	TargetDate    *string          `json:"target_date"`
	Category      *string          `json:"category"`
	Description   *string          `json:"description"`
}

type fundsRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

type goalView struct {
	models.SavingsGoal
	Progress aggregate.Progress `json:"progress"`
}

func viewGoal(g models.SavingsGoal) goalView {
	return goalView{SavingsGoal: g, Progress: aggregate.GoalProgress(g.CurrentAmount, g.TargetAmount)}
}

func HandleListGoals(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	goals, err := repository.GetGlobalRepositories().Goal.ListByUser(userID)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Goal"))
	}
	out := make([]goalView, 0, len(goals))
	for _, g := range goals {
		out = append(out, viewGoal(g))
	}
	return c.JSON(fiber.Map{"items": out, "count": len(out)})
}

func HandleCreateGoal(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req goalRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}
	if req.TargetAmount == nil {
		return apperr.Respond(c, apperr.Validation("Target amount is required"))
	}
	targetDate, err := parseOptionalDate(req.TargetDate)
	if err != nil {
		return apperr.Respond(c, err)
	}

	g := models.SavingsGoal{
		UserID:        userID,
		Title:         strings.TrimSpace(req.Title),
		TargetAmount:  *req.TargetAmount,
		CurrentAmount: decimal.Zero,
		TargetDate:    targetDate,
	}
	if req.CurrentAmount != nil {
		g.CurrentAmount = *req.CurrentAmount
	}
	if req.Category != nil {
		g.Category = strings.TrimSpace(*req.Category)
	}
	if req.Description != nil {
		g.Description = strings.TrimSpace(*req.Description)
	}
	g.RefreshCompletion()

	if err := models.Validate(g); err != nil {
		return apperr.Respond(c, validationError(err))
	}
	if err := repository.GetGlobalRepositories().Goal.Create(&g); err != nil {
		return apperr.Respond(c, storeError(err, "Goal"))
	}
	return c.Status(fiber.StatusCreated).JSON(viewGoal(g))
}

func HandleUpdateGoal(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req goalRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}

	repo := repository.GetGlobalRepositories().Goal
	g, err := repo.GetByID(userID, id)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Goal"))
	}
	if s := strings.TrimSpace(req.Title); s != "" {
		g.Title = s
	}
	if req.TargetAmount != nil {
		g.TargetAmount = *req.TargetAmount
	}
	if req.CurrentAmount != nil {
		g.CurrentAmount = *req.CurrentAmount
	}
	if req.TargetDate != nil {
		if g.TargetDate, err = parseOptionalDate(req.TargetDate); err != nil {
			return apperr.Respond(c, err)
		}
	}
	if req.Category != nil {
		g.Category = strings.TrimSpace(*req.Category)
	}
	if req.Description != nil {
		g.Description = strings.TrimSpace(*req.Description)
	}
	g.RefreshCompletion()

	if err := models.Validate(g); err != nil {
		return apperr.Respond(c, validationError(err))
	}
	if err := repo.Update(g); err != nil {
		return apperr.Respond(c, storeError(err, "Goal"))
	}
	return c.JSON(viewGoal(*g))
}

// HandleAddGoalFunds adds a positive amount to the goal and recomputes completion.
func HandleAddGoalFunds(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req fundsRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}
	if req.Amount == nil {
		return apperr.Respond(c, apperr.Validation("Amount is required"))
	}

	repo := repository.GetGlobalRepositories().Goal
	g, err := repo.GetByID(userID, id)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Goal"))
	}
	if err := g.AddFunds(*req.Amount); err != nil {
		if errors.Is(err, models.ErrNonPositiveFunds) {
			return apperr.Respond(c, apperr.Validation("Amount must be greater than zero"))
		}
		return apperr.Respond(c, err)
	}
	if err := repo.Update(g); err != nil {
		return apperr.Respond(c, storeError(err, "Goal"))
	}
	return c.JSON(viewGoal(*g))
}

func HandleDeleteGoal(c *fiber.Ctx) error {
	return deleteOwned(c, repository.GetGlobalRepositories().Goal, "Goal")
}
