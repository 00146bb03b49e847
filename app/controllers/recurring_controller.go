package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
)

type recurringRequest struct {
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Category    string           `json:"category"`
	Frequency   string           `json:"frequency"`
	NextDueDate string           `json:"next_due_date"`
	IsActive    *bool            `json:"is_active"`
}

func HandleListRecurring(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	items, err := repository.GetGlobalRepositories().Recurring.ListByUser(userID)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Recurring expense"))
	}
	return c.JSON(fiber.Map{"items": items, "count": len(items)})
}

func HandleCreateRecurring(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req recurringRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}
	amount, err := requireAmount(req.Amount)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if strings.TrimSpace(req.NextDueDate) == "" {
		return apperr.Respond(c, apperr.Validation("Next due date is required"))
	}
	due, err := parseDate(req.NextDueDate, clock())
	if err != nil {
		return apperr.Respond(c, err)
	}

	item := models.RecurringExpense{
		UserID:      userID,
		Description: strings.TrimSpace(req.Description),
		Amount:      amount,
		Category:    strings.TrimSpace(req.Category),
		Frequency:   strings.ToLower(strings.TrimSpace(req.Frequency)),
		NextDueDate: due,
		IsActive:    true,
	}
	if item.Frequency == "" {
		item.Frequency = models.FrequencyMonthly
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	if err := models.Validate(item); err != nil {
		return apperr.Respond(c, validationError(err))
	}
	repo := repository.GetGlobalRepositories().Recurring
	if err := repo.Create(&item); err != nil {
		return apperr.Respond(c, storeError(err, "Recurring expense"))
	}
	// gorm skips false on create because the column defaults to true
	if !item.IsActive {
		if err := repo.Update(&item); err != nil {
			return apperr.Respond(c, storeError(err, "Recurring expense"))
		}
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func HandleUpdateRecurring(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req recurringRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}

	repo := repository.GetGlobalRepositories().Recurring
	item, err := repo.GetByID(userID, id)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Recurring expense"))
	}
	if s := strings.TrimSpace(req.Description); s != "" {
		item.Description = s
	}
	if req.Amount != nil {
		if item.Amount, err = requireAmount(req.Amount); err != nil {
			return apperr.Respond(c, err)
		}
	}
	if s := strings.TrimSpace(req.Category); s != "" {
		item.Category = s
	}
	if s := strings.TrimSpace(req.Frequency); s != "" {
		item.Frequency = strings.ToLower(s)
	}
	if strings.TrimSpace(req.NextDueDate) != "" {
		if item.NextDueDate, err = parseDate(req.NextDueDate, item.NextDueDate); err != nil {
			return apperr.Respond(c, err)
		}
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	if err := models.Validate(item); err != nil {
		return apperr.Respond(c, validationError(err))
	}
	if err := repo.Update(item); err != nil {
		return apperr.Respond(c, storeError(err, "Recurring expense"))
	}
	return c.JSON(item)
}

func HandleDeleteRecurring(c *fiber.Ctx) error {
	return deleteOwned(c, repository.GetGlobalRepositories().Recurring, "Recurring expense")
}
