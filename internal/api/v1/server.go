package apiv1

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// ServerInterface represents all server handlers of the v1 API.
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error

	// (POST /auth/signup)
	PostAuthSignup(c *fiber.Ctx) error
	// (POST /auth/login)
	PostAuthLogin(c *fiber.Ctx) error
	// (POST /auth/logout)
	PostAuthLogout(c *fiber.Ctx) error
	// (POST /billing/stripe/webhook)
	PostStripeWebhook(c *fiber.Ctx) error

	GetDashboard(c *fiber.Ctx) error

	ListExpenses(c *fiber.Ctx) error
	CreateExpense(c *fiber.Ctx) error
	UpdateExpense(c *fiber.Ctx, id uint64) error
	DeleteExpense(c *fiber.Ctx, id uint64) error

	ListIncome(c *fiber.Ctx) error
	CreateIncome(c *fiber.Ctx) error
	UpdateIncome(c *fiber.Ctx, id uint64) error
	DeleteIncome(c *fiber.Ctx, id uint64) error

	ListInvestments(c *fiber.Ctx) error
	CreateInvestment(c *fiber.Ctx) error
	UpdateInvestment(c *fiber.Ctx, id uint64) error
	DeleteInvestment(c *fiber.Ctx, id uint64) error

	ListBudgets(c *fiber.Ctx) error
	CreateBudget(c *fiber.Ctx) error
	UpdateBudget(c *fiber.Ctx, id uint64) error
	DeleteBudget(c *fiber.Ctx, id uint64) error

	ListGoals(c *fiber.Ctx) error
	CreateGoal(c *fiber.Ctx) error
	UpdateGoal(c *fiber.Ctx, id uint64) error
	DeleteGoal(c *fiber.Ctx, id uint64) error
	AddGoalFunds(c *fiber.Ctx, id uint64) error

	ListRecurring(c *fiber.Ctx) error
	CreateRecurring(c *fiber.Ctx) error
	UpdateRecurring(c *fiber.Ctx, id uint64) error
	DeleteRecurring(c *fiber.Ctx, id uint64) error

	ListBills(c *fiber.Ctx) error
	CreateBill(c *fiber.Ctx) error
	UpdateBill(c *fiber.Ctx, id uint64) error
	DeleteBill(c *fiber.Ctx, id uint64) error
	PayBill(c *fiber.Ctx, id uint64) error

	ExportCSV(c *fiber.Ctx) error
	ExportPDF(c *fiber.Ctx) error

	AnalyzeFinances(c *fiber.Ctx) error
	ListAnalyses(c *fiber.Ctx) error

	SendSMS(c *fiber.Ctx) error
	ListNotifications(c *fiber.Ctx) error

	GetSubscription(c *fiber.Ctx) error
	GetCachedSubscription(c *fiber.Ctx) error
	CreateCheckout(c *fiber.Ctx) error

	GetUserProfile(c *fiber.Ctx) error
	UpdateUserSettings(c *fiber.Ctx) error
	CreateAPIKey(c *fiber.Ctx) error
	RevokeAPIKey(c *fiber.Ctx) error
}

// Guards are the middlewares RegisterHandlers puts in front of protected
// operations. Nil guards are skipped.
type Guards struct {
	// Authenticate resolves the caller from a bearer token or an API key.
	Authenticate fiber.Handler
	// Premium rejects callers without the premium plan.
	Premium fiber.Handler
}

type access int

const (
	public access = iota
	user
	premium
)

// ServerInterfaceWrapper converts fiber contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

type idHandler func(c *fiber.Ctx, id uint64) error

// withID parses the :id path parameter.
func (w *ServerInterfaceWrapper) withID(h idHandler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil || id == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(Error{
				Error:   "validation_failed",
				Message: "Invalid format for parameter id",
			})
		}
		return h(c, id)
	}
}

type route struct {
	method  string
	path    string
	access  access
	handler fiber.Handler
}

func (w *ServerInterfaceWrapper) routes() []route {
	si := w.Handler
	return []route{
		{fiber.MethodGet, "/ping", public, si.GetPing},
		{fiber.MethodPost, "/auth/signup", public, si.PostAuthSignup},
		{fiber.MethodPost, "/auth/login", public, si.PostAuthLogin},
		{fiber.MethodPost, "/auth/logout", user, si.PostAuthLogout},
		{fiber.MethodPost, "/billing/stripe/webhook", public, si.PostStripeWebhook},

		{fiber.MethodGet, "/dashboard", user, si.GetDashboard},

		{fiber.MethodGet, "/expenses", user, si.ListExpenses},
		{fiber.MethodPost, "/expenses", user, si.CreateExpense},
		{fiber.MethodPut, "/expenses/:id", user, w.withID(si.UpdateExpense)},
		{fiber.MethodDelete, "/expenses/:id", user, w.withID(si.DeleteExpense)},

		{fiber.MethodGet, "/income", user, si.ListIncome},
		{fiber.MethodPost, "/income", user, si.CreateIncome},
		{fiber.MethodPut, "/income/:id", user, w.withID(si.UpdateIncome)},
		{fiber.MethodDelete, "/income/:id", user, w.withID(si.DeleteIncome)},

		{fiber.MethodGet, "/investments", user, si.ListInvestments},
		{fiber.MethodPost, "/investments", premium, si.CreateInvestment},
		{fiber.MethodPut, "/investments/:id", premium, w.withID(si.UpdateInvestment)},
		{fiber.MethodDelete, "/investments/:id", user, w.withID(si.DeleteInvestment)},

		{fiber.MethodGet, "/budgets", user, si.ListBudgets},
		{fiber.MethodPost, "/budgets", user, si.CreateBudget},
		{fiber.MethodPut, "/budgets/:id", user, w.withID(si.UpdateBudget)},
		{fiber.MethodDelete, "/budgets/:id", user, w.withID(si.DeleteBudget)},

		{fiber.MethodGet, "/goals", user, si.ListGoals},
		{fiber.MethodPost, "/goals", user, si.CreateGoal},
		{fiber.MethodPut, "/goals/:id", user, w.withID(si.UpdateGoal)},
		{fiber.MethodDelete, "/goals/:id", user, w.withID(si.DeleteGoal)},
		{fiber.MethodPost, "/goals/:id/funds", user, w.withID(si.AddGoalFunds)},

		{fiber.MethodGet, "/recurring", user, si.ListRecurring},
		{fiber.MethodPost, "/recurring", user, si.CreateRecurring},
		{fiber.MethodPut, "/recurring/:id", user, w.withID(si.UpdateRecurring)},
		{fiber.MethodDelete, "/recurring/:id", user, w.withID(si.DeleteRecurring)},

		{fiber.MethodGet, "/bills", user, si.ListBills},
		{fiber.MethodPost, "/bills", user, si.CreateBill},
		{fiber.MethodPut, "/bills/:id", user, w.withID(si.UpdateBill)},
		{fiber.MethodDelete, "/bills/:id", user, w.withID(si.DeleteBill)},
		{fiber.MethodPost, "/bills/:id/pay", user, w.withID(si.PayBill)},

		{fiber.MethodGet, "/export/csv", user, si.ExportCSV},
		{fiber.MethodGet, "/export/pdf", user, si.ExportPDF},

		{fiber.MethodPost, "/analysis", user, si.AnalyzeFinances},
		{fiber.MethodGet, "/analysis", user, si.ListAnalyses},

		{fiber.MethodPost, "/notifications/sms", premium, si.SendSMS},
		{fiber.MethodGet, "/notifications", user, si.ListNotifications},

		{fiber.MethodGet, "/subscription", user, si.GetSubscription},
		{fiber.MethodGet, "/subscription/cached", user, si.GetCachedSubscription},
		{fiber.MethodPost, "/subscription/checkout", user, si.CreateCheckout},

		{fiber.MethodGet, "/account", user, si.GetUserProfile},
		{fiber.MethodPut, "/account/settings", user, si.UpdateUserSettings},
		{fiber.MethodPost, "/account/api-key", user, si.CreateAPIKey},
		{fiber.MethodDelete, "/account/api-key", user, si.RevokeAPIKey},
	}
}

// RegisterHandlers creates http.Handler with routing matching the v1 API.
func RegisterHandlers(router fiber.Router, si ServerInterface, guards Guards) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	for _, r := range wrapper.routes() {
		handlers := make([]fiber.Handler, 0, 3)
		if r.access >= user && guards.Authenticate != nil {
			handlers = append(handlers, guards.Authenticate)
		}
		if r.access == premium && guards.Premium != nil {
			handlers = append(handlers, guards.Premium)
		}
		handlers = append(handlers, r.handler)
		router.Add(r.method, r.path, handlers...)
	}
}
