package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/ManuelReschke/CashFox/app/controllers"
)

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (s *APIServer) PostAuthSignup(c *fiber.Ctx) error { return controllers.HandleAuthSignup(c) }
func (s *APIServer) PostAuthLogin(c *fiber.Ctx) error  { return controllers.HandleAuthLogin(c) }
func (s *APIServer) PostAuthLogout(c *fiber.Ctx) error { return controllers.HandleAuthLogout(c) }

// PostStripeWebhook is public; the Stripe-Signature header authenticates it.
func (s *APIServer) PostStripeWebhook(c *fiber.Ctx) error {
	return controllers.HandleStripeWebhook(c)
}

func (s *APIServer) GetDashboard(c *fiber.Ctx) error { return controllers.HandleDashboard(c) }

// Controllers read the id from route params; the wrapper already validated it.

func (s *APIServer) ListExpenses(c *fiber.Ctx) error  { return controllers.HandleListExpenses(c) }
func (s *APIServer) CreateExpense(c *fiber.Ctx) error { return controllers.HandleCreateExpense(c) }
func (s *APIServer) UpdateExpense(c *fiber.Ctx, id uint64) error {
	return controllers.HandleUpdateExpense(c)
}
func (s *APIServer) DeleteExpense(c *fiber.Ctx, id uint64) error {
	return controllers.HandleDeleteExpense(c)
}

func (s *APIServer) ListIncome(c *fiber.Ctx) error  { return controllers.HandleListIncome(c) }
func (s *APIServer) CreateIncome(c *fiber.Ctx) error { return controllers.HandleCreateIncome(c) }
func (s *APIServer) UpdateIncome(c *fiber.Ctx, id uint64) error {
	return controllers.HandleUpdateIncome(c)
}
func (s *APIServer) DeleteIncome(c *fiber.Ctx, id uint64) error {
	return controllers.HandleDeleteIncome(c)
}

func (s *APIServer) ListInvestments(c *fiber.Ctx) error { return controllers.HandleListInvestments(c) }
func (s *APIServer) CreateInvestment(c *fiber.Ctx) error {
	return controllers.HandleCreateInvestment(c)
}
func (s *APIServer) UpdateInvestment(c *fiber.Ctx, id uint64) error {
	return controllers.HandleUpdateInvestment(c)
}
func (s *APIServer) DeleteInvestment(c *fiber.Ctx, id uint64) error {
	return controllers.HandleDeleteInvestment(c)
}

func (s *APIServer) ListBudgets(c *fiber.Ctx) error  { return controllers.HandleListBudgets(c) }
func (s *APIServer) CreateBudget(c *fiber.Ctx) error { return controllers.HandleCreateBudget(c) }
func (s *APIServer) UpdateBudget(c *fiber.Ctx, id uint64) error {
	return controllers.HandleUpdateBudget(c)
}
func (s *APIServer) DeleteBudget(c *fiber.Ctx, id uint64) error {
	return controllers.HandleDeleteBudget(c)
}

func (s *APIServer) ListGoals(c *fiber.Ctx) error  { return controllers.HandleListGoals(c) }
func (s *APIServer) CreateGoal(c *fiber.Ctx) error { return controllers.HandleCreateGoal(c) }
func (s *APIServer) UpdateGoal(c *fiber.Ctx, id uint64) error {
	return controllers.HandleUpdateGoal(c)
}
func (s *APIServer) DeleteGoal(c *fiber.Ctx, id uint64) error {
	return controllers.HandleDeleteGoal(c)
}
func (s *APIServer) AddGoalFunds(c *fiber.Ctx, id uint64) error {
	return controllers.HandleAddGoalFunds(c)
}

func (s *APIServer) ListRecurring(c *fiber.Ctx) error  { return controllers.HandleListRecurring(c) }
func (s *APIServer) CreateRecurring(c *fiber.Ctx) error { return controllers.HandleCreateRecurring(c) }
func (s *APIServer) UpdateRecurring(c *fiber.Ctx, id uint64) error {
	return controllers.HandleUpdateRecurring(c)
}
func (s *APIServer) DeleteRecurring(c *fiber.Ctx, id uint64) error {
	return controllers.HandleDeleteRecurring(c)
}

func (s *APIServer) ListBills(c *fiber.Ctx) error  { return controllers.HandleListBills(c) }
func (s *APIServer) CreateBill(c *fiber.Ctx) error { return controllers.HandleCreateBill(c) }
func (s *APIServer) UpdateBill(c *fiber.Ctx, id uint64) error {
	return controllers.HandleUpdateBill(c)
}
func (s *APIServer) DeleteBill(c *fiber.Ctx, id uint64) error {
	return controllers.HandleDeleteBill(c)
}
func (s *APIServer) PayBill(c *fiber.Ctx, id uint64) error {
	return controllers.HandleMarkBillPaid(c)
}

func (s *APIServer) ExportCSV(c *fiber.Ctx) error { return controllers.HandleExportCSV(c) }
func (s *APIServer) ExportPDF(c *fiber.Ctx) error { return controllers.HandleExportPDF(c) }

func (s *APIServer) AnalyzeFinances(c *fiber.Ctx) error { return controllers.HandleAnalyzeFinances(c) }
func (s *APIServer) ListAnalyses(c *fiber.Ctx) error    { return controllers.HandleListAnalyses(c) }

// SendSMS is premium only; the premium guard runs before it.
func (s *APIServer) SendSMS(c *fiber.Ctx) error { return controllers.HandleSendSMS(c) }
func (s *APIServer) ListNotifications(c *fiber.Ctx) error {
	return controllers.HandleListNotifications(c)
}

func (s *APIServer) GetSubscription(c *fiber.Ctx) error {
	return controllers.HandleCheckSubscription(c)
}
func (s *APIServer) GetCachedSubscription(c *fiber.Ctx) error {
	return controllers.HandleCachedSubscription(c)
}
func (s *APIServer) CreateCheckout(c *fiber.Ctx) error { return controllers.HandleCreateCheckout(c) }

// GetUserProfile returns account information for the authenticated user (API key or JWT).
func (s *APIServer) GetUserProfile(c *fiber.Ctx) error {
	return controllers.HandleGetUserAccount(c)
}
func (s *APIServer) UpdateUserSettings(c *fiber.Ctx) error {
	return controllers.HandleUpdateUserSettings(c)
}
func (s *APIServer) CreateAPIKey(c *fiber.Ctx) error { return controllers.HandleCreateAPIKey(c) }
func (s *APIServer) RevokeAPIKey(c *fiber.Ctx) error { return controllers.HandleRevokeAPIKey(c) }

var _ ServerInterface = (*APIServer)(nil)
