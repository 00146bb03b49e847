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

type billRequest struct {
	Title    string           `json:"title"`
	Amount   *decimal.Decimal `json:"amount"`
	DueDate  string           `json:"due_date"`
	Category *string          `json:"category"`
	Notes    *string          `json:"notes"`
}

type billView struct {
	models.Bill
	DaysUntil int    `json:"days_until"`
	Urgency   string `json:"urgency"`
}

func viewBill(b models.Bill) billView {
	v := billView{Bill: b}
	if !b.IsPaid {
		v.DaysUntil = aggregate.DaysUntil(b.DueDate, clock())
		v.Urgency = aggregate.BillUrgency(v.DaysUntil)
	} else {
		v.Urgency = "paid"
	}
	return v
}

func HandleListBills(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	bills, err := repository.GetGlobalRepositories().Bill.ListByUser(userID)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Bill"))
	}
	out := make([]billView, 0, len(bills))
	for _, b := range bills {
		out = append(out, viewBill(b))
	}
	return c.JSON(fiber.Map{"items": out, "count": len(out)})
}

func HandleCreateBill(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req billRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}
	amount, err := requireAmount(req.Amount)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if strings.TrimSpace(req.DueDate) == "" {
		return apperr.Respond(c, apperr.Validation("Due date is required"))
	}
	due, err := parseDate(req.DueDate, clock())
	if err != nil {
		return apperr.Respond(c, err)
	}

	b := models.Bill{
		UserID:  userID,
		Title:   strings.TrimSpace(req.Title),
		Amount:  amount,
		DueDate: due,
	}
	if req.Category != nil {
		b.Category = strings.TrimSpace(*req.Category)
	}
	if req.Notes != nil {
		b.Notes = strings.TrimSpace(*req.Notes)
	}
	if err := models.Validate(b); err != nil {
		return apperr.Respond(c, validationError(err))
	}
	if err := repository.GetGlobalRepositories().Bill.Create(&b); err != nil {
		return apperr.Respond(c, storeError(err, "Bill"))
	}
	return c.Status(fiber.StatusCreated).JSON(viewBill(b))
}

// HandleUpdateBill edits a bill. Moving the due date re-arms the reminder.
func HandleUpdateBill(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req billRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}

	repo := repository.GetGlobalRepositories().Bill
	b, err := repo.GetByID(userID, id)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Bill"))
	}
	if s := strings.TrimSpace(req.Title); s != "" {
		b.Title = s
	}
	if req.Amount != nil {
		if b.Amount, err = requireAmount(req.Amount); err != nil {
			return apperr.Respond(c, err)
		}
	}
	if strings.TrimSpace(req.DueDate) != "" {
		due, err := parseDate(req.DueDate, b.DueDate)
		if err != nil {
			return apperr.Respond(c, err)
		}
		if !due.Equal(b.DueDate) {
			b.RemindedAt = nil
		}
		b.DueDate = due
	}
	if req.Category != nil {
		b.Category = strings.TrimSpace(*req.Category)
	}
	if req.Notes != nil {
		b.Notes = strings.TrimSpace(*req.Notes)
	}
	if err := models.Validate(b); err != nil {
		return apperr.Respond(c, validationError(err))
	}
	if err := repo.Update(b); err != nil {
		return apperr.Respond(c, storeError(err, "Bill"))
	}
	return c.JSON(viewBill(*b))
}

func HandleMarkBillPaid(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	repo := repository.GetGlobalRepositories().Bill
	b, err := repo.GetByID(userID, id)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Bill"))
	}
	if !b.IsPaid {
		b.MarkPaid(clock())
		if err := repo.Update(b); err != nil {
			return apperr.Respond(c, storeError(err, "Bill"))
		}
	}
	return c.JSON(viewBill(*b))
}

func HandleDeleteBill(c *fiber.Ctx) error {
	return deleteOwned[models.Bill](c, repository.GetGlobalRepositories().Bill, "Bill")
}
