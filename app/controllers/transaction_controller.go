package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/aggregate"
	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
)

// transactionRequest is shared by expenses, income and investments. Group
// carries the category, source or type depending on the kind.
type transactionRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Category    string           `json:"category"`
	Source      string           `json:"source"`
	Type        string           `json:"type"`
	Description *string          `json:"description"`
	Date        string           `json:"date"`
}

func (r transactionRequest) group() string {
	for _, g := range []string{r.Category, r.Source, r.Type} {
		if s := strings.TrimSpace(g); s != "" {
			return s
		}
	}
	return ""
}

func (r transactionRequest) description() string {
	if r.Description == nil {
		return ""
	}
	return strings.TrimSpace(*r.Description)
}

// parseNewTransaction validates the fields every create needs.
func parseNewTransaction(c *fiber.Ctx, groupName string) (transactionRequest, decimal.Decimal, time.Time, error) {
	var req transactionRequest
	if err := parseBody(c, &req); err != nil {
		return req, decimal.Zero, time.Time{}, err
	}
	amount, err := requireAmount(req.Amount)
	if err != nil {
		return req, decimal.Zero, time.Time{}, err
	}
	if req.group() == "" {
		return req, decimal.Zero, time.Time{}, apperr.Validation(groupName + " is required")
	}
	date, err := parseDate(req.Date, clock())
	if err != nil {
		return req, decimal.Zero, time.Time{}, err
	}
	return req, amount, date, nil
}

// patchTransaction applies the fields present in req.
func patchTransaction(req transactionRequest, amount *decimal.Decimal, group *string, desc *string, date *time.Time) error {
	if req.Amount != nil {
		v, err := requireAmount(req.Amount)
		if err != nil {
			return err
		}
		*amount = v
	}
	if g := req.group(); g != "" {
		*group = g
	}
	if req.Description != nil {
		*desc = req.description()
	}
	if strings.TrimSpace(req.Date) != "" {
		d, err := parseDate(req.Date, time.Time{})
		if err != nil {
			return err
		}
		*date = d
	}
	return nil
}

// listRecords applies ?q=, ?category= and ?sort= and reports the total of what is left.
func listRecords[R aggregate.Record](c *fiber.Ctx, records []R) error {
	out := aggregate.Search(records, c.Query("q"))
	out = aggregate.FilterCategory(out, c.Query("category"))
	out = aggregate.Sort(out, c.Query("sort", aggregate.SortDateDesc))
	return c.JSON(fiber.Map{
		"items": out,
		"count": len(out),
		"total": aggregate.Total(out),
	})
}

// ----------------------------------------------------------------------------
// Expenses
// ----------------------------------------------------------------------------

func HandleListExpenses(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	items, err := repository.GetGlobalRepositories().Expense.ListByUser(userID)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Expense"))
	}
	return listRecords(c, items)
}

func HandleCreateExpense(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	req, amount, date, err := parseNewTransaction(c, "Category")
	if err != nil {
		return apperr.Respond(c, err)
	}
	item := models.Expense{
		UserID:      userID,
		Amount:      amount,
		Category:    req.group(),
		Description: req.description(),
		Date:        date,
	}
	if err := models.Validate(item); err != nil {
		return apperr.Respond(c, validationError(err))
	}
	if err := repository.GetGlobalRepositories().Expense.Create(&item); err != nil {
		return apperr.Respond(c, storeError(err, "Expense"))
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func HandleUpdateExpense(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req transactionRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}

	repo := repository.GetGlobalRepositories().Expense
	item, err := repo.GetByID(userID, id)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Expense"))
	}
	if err := patchTransaction(req, &item.Amount, &item.Category, &item.Description, &item.Date); err != nil {
		return apperr.Respond(c, err)
	}
	if err := models.Validate(item); err != nil {
		return apperr.Respond(c, validationError(err))
	}
	if err := repo.Update(item); err != nil {
		return apperr.Respond(c, storeError(err, "Expense"))
	}
	return c.JSON(item)
}

func HandleDeleteExpense(c *fiber.Ctx) error {
	return deleteOwned(c, repository.GetGlobalRepositories().Expense, "Expense")
}

// ----------------------------------------------------------------------------
// Income
// ----------------------------------------------------------------------------

func HandleListIncome(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	items, err := repository.GetGlobalRepositories().Income.ListByUser(userID)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Income"))
	}
	return listRecords(c, items)
}

func HandleCreateIncome(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	req, amount, date, err := parseNewTransaction(c, "Source")
	if err != nil {
		return apperr.Respond(c, err)
	}
	item := models.Income{
		UserID:      userID,
		Amount:      amount,
		Source:      req.group(),
		Description: req.description(),
		Date:        date,
	}
	if err := models.Validate(item); err != nil {
		return apperr.Respond(c, validationError(err))
	}
	if err := repository.GetGlobalRepositories().Income.Create(&item); err != nil {
		return apperr.Respond(c, storeError(err, "Income"))
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func HandleUpdateIncome(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req transactionRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}

	repo := repository.GetGlobalRepositories().Income
	item, err := repo.GetByID(userID, id)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Income"))
	}
	if err := patchTransaction(req, &item.Amount, &item.Source, &item.Description, &item.Date); err != nil {
		return apperr.Respond(c, err)
	}
	if err := models.Validate(item); err != nil {
		return apperr.Respond(c, validationError(err))
	}
	if err := repo.Update(item); err != nil {
		return apperr.Respond(c, storeError(err, "Income"))
	}
	return c.JSON(item)
}

func HandleDeleteIncome(c *fiber.Ctx) error {
	return deleteOwned(c, repository.GetGlobalRepositories().Income, "Income")
}

// ----------------------------------------------------------------------------
// Investments (writes are premium-gated in the router)
// ----------------------------------------------------------------------------

func HandleListInvestments(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	items, err := repository.GetGlobalRepositories().Investment.ListByUser(userID)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Investment"))
	}
	return listRecords(c, items)
}

func HandleCreateInvestment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	req, amount, date, err := parseNewTransaction(c, "Type")
	if err != nil {
		return apperr.Respond(c, err)
	}
	item := models.Investment{
		UserID:      userID,
		Amount:      amount,
		Type:        req.group(),
		Description: req.description(),
		Date:        date,
	}
	if err := models.Validate(item); err != nil {
		return apperr.Respond(c, validationError(err))
	}
	if err := repository.GetGlobalRepositories().Investment.Create(&item); err != nil {
		return apperr.Respond(c, storeError(err, "Investment"))
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func HandleUpdateInvestment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req transactionRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}

	repo := repository.GetGlobalRepositories().Investment
	item, err := repo.GetByID(userID, id)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Investment"))
	}
	if err := patchTransaction(req, &item.Amount, &item.Type, &item.Description, &item.Date); err != nil {
		return apperr.Respond(c, err)
	}
	if err := models.Validate(item); err != nil {
		return apperr.Respond(c, validationError(err))
	}
	if err := repo.Update(item); err != nil {
		return apperr.Respond(c, storeError(err, "Investment"))
	}
	return c.JSON(item)
}

func HandleDeleteInvestment(c *fiber.Ctx) error {
	return deleteOwned(c, repository.GetGlobalRepositories().Investment, "Investment")
}

// deleteOwned removes the record named by :id if it belongs to the caller.
func deleteOwned[T any](c *fiber.Ctx, repo repository.OwnedRepository[T], what string) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if err := repo.Delete(userID, id); err != nil {
		return apperr.Respond(c, storeError(err, what))
	}
	return c.SendStatus(fiber.StatusNoContent)
}
