package controllers

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetUsageTiers(t *testing.T) {
	ta := newTestApp(t)

	status, body := ta.do(t, "POST", "/api/budgets", fiber.Map{"category": "Food & Dining", "amount": 500})
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.Equal(t, "monthly", body["period"])
	budgetID := int(body["id"].(float64))

	for _, e := range []fiber.Map{
		{"amount": 300, "category": "Food & Dining", "date": "2025-03-02"},
		{"amount": 150, "category": "Food & Dining", "date": "2025-03-10"},
		{"amount": 999, "category": "Food & Dining", "date": "2025-02-27"},
		{"amount": 80, "category": "Shopping", "date": "2025-03-10"},
	} {
		status, body := ta.do(t, "POST", "/api/expenses", e)
		require.Equal(t, fiber.StatusCreated, status, body)
	}

	_, body = ta.do(t, "GET", "/api/budgets", nil)
	list := items(t, body)
	require.Len(t, list, 1)
	usage := list[0]["usage"].(map[string]interface{})
	assert.Equal(t, "450", usage["spent"])
	assert.Equal(t, "90", usage["percentage"])
	assert.Equal(t, "near", usage["status"])
	assert.Equal(t, "50", usage["remaining"])

	status, body = ta.do(t, "PUT", fmt.Sprintf("/api/budgets/%d", budgetID), fiber.Map{"amount": 400})
	require.Equal(t, fiber.StatusOK, status, body)
	_, body = ta.do(t, "GET", "/api/budgets", nil)
	usage = items(t, body)[0]["usage"].(map[string]interface{})
	assert.Equal(t, "over", usage["status"])
	assert.Equal(t, "-50", usage["remaining"])

	status, body = ta.do(t, "POST", "/api/budgets", fiber.Map{"category": "Food & Dining", "amount": 100, "period": "daily"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid value for period", body["message"])
}

func TestGoalFunds(t *testing.T) {
	ta := newTestApp(t)

	status, body := ta.do(t, "POST", "/api/goals", fiber.Map{
		"title": "New car", "target_amount": 1000, "current_amount": 800, "target_date": "2025-12-31",
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.Equal(t, false, body["is_completed"])
	progress := body["progress"].(map[string]interface{})
	assert.Equal(t, "80", progress["percentage"])
	goalID := int(body["id"].(float64))

	status, body = ta.do(t, "POST", fmt.Sprintf("/api/goals/%d/funds", goalID), fiber.Map{"amount": 250})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "1050", body["current_amount"])
	assert.Equal(t, true, body["is_completed"])
	progress = body["progress"].(map[string]interface{})
	assert.Equal(t, "100", progress["percentage"])
	assert.Equal(t, "105", progress["ratio"])

	status, body = ta.do(t, "POST", fmt.Sprintf("/api/goals/%d/funds", goalID), fiber.Map{"amount": 0})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Amount must be greater than zero", body["message"])

	status, _ = ta.do(t, "POST", "/api/goals/999/funds", fiber.Map{"amount": 5})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = ta.do(t, "POST", "/api/goals", fiber.Map{"title": "", "target_amount": 10})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid value for title", body["message"])
}

func TestBillsUrgencyAndPayment(t *testing.T) {
	ta := newTestApp(t)

	status, body := ta.do(t, "POST", "/api/bills", fiber.Map{"title": "Rent", "amount": 1200, "due_date": "2025-03-17"})
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.EqualValues(t, 2, body["days_until"])
	assert.Equal(t, "due-soon", body["urgency"])
	rentID := int(body["id"].(float64))

	status, body = ta.do(t, "POST", "/api/bills", fiber.Map{"title": "Phone", "amount": 40, "due_date": "2025-03-10"})
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.EqualValues(t, -5, body["days_until"])
	assert.Equal(t, "overdue", body["urgency"])

	_, body = ta.do(t, "GET", "/api/bills", nil)
	list := items(t, body)
	require.Len(t, list, 2)
	assert.Equal(t, "Phone", list[0]["title"], "bills are ordered by due date")

	status, body = ta.do(t, "POST", fmt.Sprintf("/api/bills/%d/pay", rentID), nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["is_paid"])
	assert.Equal(t, "paid", body["urgency"])
	assert.NotNil(t, body["paid_date"])

	status, body = ta.do(t, "POST", "/api/bills", fiber.Map{"title": "Gym", "amount": 30})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Due date is required", body["message"])
}

func TestUpdateBillDueDateRearmsReminder(t *testing.T) {
	ta := newTestApp(t)

	status, body := ta.do(t, "POST", "/api/bills", fiber.Map{"title": "Rent", "amount": 1200, "due_date": "2025-03-17"})
	require.Equal(t, fiber.StatusCreated, status, body)
	id := uint(body["id"].(float64))
	require.NoError(t, ta.repos.Bill.MarkReminded(id, fixedNow))

	status, body = ta.do(t, "PUT", fmt.Sprintf("/api/bills/%d", id), fiber.Map{"due_date": "2025-04-17"})
	require.Equal(t, fiber.StatusOK, status, body)

	bill, err := ta.repos.Bill.GetByID(ta.user.ID, id)
	require.NoError(t, err)
	assert.Nil(t, bill.RemindedAt)
}

func TestRecurringDefaults(t *testing.T) {
	ta := newTestApp(t)

	status, body := ta.do(t, "POST", "/api/recurring", fiber.Map{
		"description": "Netflix", "amount": 15.99, "category": "Entertainment", "next_due_date": "2025-04-01",
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.Equal(t, "monthly", body["frequency"])
	assert.Equal(t, true, body["is_active"])

	status, body = ta.do(t, "POST", "/api/recurring", fiber.Map{
		"description": "Gym", "amount": 30, "category": "Healthcare", "next_due_date": "2025-03-20",
		"frequency": "weekly", "is_active": false,
	})
	require.Equal(t, fiber.StatusCreated, status, body)

	_, body = ta.do(t, "GET", "/api/recurring", nil)
	list := items(t, body)
	require.Len(t, list, 2)
	assert.Equal(t, "Gym", list[0]["description"], "ordered by next due date")
	assert.Equal(t, false, list[0]["is_active"])

	status, body = ta.do(t, "POST", "/api/recurring", fiber.Map{
		"description": "Gym", "amount": 30, "category": "Healthcare", "next_due_date": "2025-03-20", "frequency": "hourly",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid value for frequency", body["message"])
}
