package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/billing"
	"github.com/ManuelReschke/CashFox/internal/pkg/database"
	"github.com/ManuelReschke/CashFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/CashFox/internal/pkg/usercontext"
)

const testJWTSecret = "controller-test-secret"

var fixedNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

type stubProvider struct {
	mu       sync.Mutex
	customer *entitlements.Customer
	subs     []entitlements.Subscription
	err      error
	calls    int
}

func (p *stubProvider) FindCustomerByEmail(context.Context, string) (*entitlements.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.customer, p.err
}

func (p *stubProvider) ListActiveSubscriptions(context.Context, string) ([]entitlements.Subscription, error) {
	return p.subs, nil
}

type testApp struct {
	app      *fiber.App
	db       *gorm.DB
	repos    *repository.Repositories
	user     *models.User
	plan     string
	provider *stubProvider
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	t.Setenv("JWT_SECRET", testJWTSecret)

	clock = func() time.Time { return fixedNow }
	t.Cleanup(func() { clock = time.Now })

	db, err := database.NewSQLiteMemory(uuid.NewString())
	require.NoError(t, err)
	database.SetDB(db)
	factory := repository.NewFactory(db)
	repository.SetGlobalFactory(factory)
	repos := factory.GetRepositories()

	user, err := models.CreateUser("Ada", "ada@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, repos.User.Create(user))
	_, err = repos.Settings.GetOrCreate(user.ID)
	require.NoError(t, err)

	ta := &testApp{db: db, repos: repos, user: user, plan: models.PlanFree, provider: &stubProvider{}}
	ta.useResolver(entitlements.PromoWindow{})

	app := fiber.New()
	app.Post("/auth/signup", HandleAuthSignup)
	app.Post("/auth/login", HandleAuthLogin)
	app.Post("/auth/logout", ta.authenticate, HandleAuthLogout)
	app.Post("/webhooks/stripe", HandleStripeWebhook)

	api := app.Group("/api", ta.authenticate)
	api.Get("/expenses", HandleListExpenses)
	api.Post("/expenses", HandleCreateExpense)
	api.Put("/expenses/:id", HandleUpdateExpense)
	api.Delete("/expenses/:id", HandleDeleteExpense)
	api.Get("/income", HandleListIncome)
	api.Post("/income", HandleCreateIncome)
	api.Get("/investments", HandleListInvestments)
	api.Post("/investments", HandleCreateInvestment)
	api.Get("/budgets", HandleListBudgets)
	api.Post("/budgets", HandleCreateBudget)
	api.Put("/budgets/:id", HandleUpdateBudget)
	api.Get("/goals", HandleListGoals)
	api.Post("/goals", HandleCreateGoal)
	api.Post("/goals/:id/funds", HandleAddGoalFunds)
	api.Get("/recurring", HandleListRecurring)
	api.Post("/recurring", HandleCreateRecurring)
	api.Get("/bills", HandleListBills)
	api.Post("/bills", HandleCreateBill)
	api.Put("/bills/:id", HandleUpdateBill)
	api.Post("/bills/:id/pay", HandleMarkBillPaid)
	api.Get("/dashboard", HandleDashboard)
	api.Get("/export/csv", HandleExportCSV)
	api.Get("/export/pdf", HandleExportPDF)
	api.Post("/analysis", HandleAnalyzeFinances)
	api.Get("/analysis", HandleListAnalyses)
	api.Post("/notifications/sms", HandleSendSMS)
	api.Get("/notifications", HandleListNotifications)
	api.Get("/subscription", HandleCheckSubscription)
	api.Get("/subscription/cached", HandleCachedSubscription)
	api.Post("/subscription/checkout", HandleCreateCheckout)
	api.Get("/account", HandleGetUserAccount)
	api.Put("/account/settings", HandleUpdateUserSettings)
	api.Post("/account/api-key", HandleCreateAPIKey)
	api.Delete("/account/api-key", HandleRevokeAPIKey)
	ta.app = app
	return ta
}

// useResolver installs a resolver over ta.provider with the given promotion window.
func (ta *testApp) useResolver(promo entitlements.PromoWindow) *entitlements.Resolver {
	resolver := entitlements.NewResolver(ta.provider, entitlements.NewRepositoryStore(ta.repos.Entitlement, 0),
		entitlements.WithClock(func() time.Time { return fixedNow }),
		entitlements.WithPromoWindow(promo),
	)
	resolver.Subscribe(billing.NewServiceFromDB(ta.db).EntitlementObserver())
	entitlements.InitializeResolver(resolver)
	return resolver
}

// authenticate stands in for the real middleware and signs every request in as ta.user.
func (ta *testApp) authenticate(c *fiber.Ctx) error {
	usercontext.Set(c, usercontext.UserContext{
		UserID:     ta.user.ID,
		Username:   ta.user.Name,
		Email:      ta.user.Email,
		IsLoggedIn: true,
		Plan:       ta.plan,
	})
	return c.Next()
}

func (ta *testApp) request(t *testing.T, method, path string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (ta *testApp) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	resp := ta.request(t, method, path, body, nil)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func items(t *testing.T, body map[string]interface{}) []map[string]interface{} {
	t.Helper()
	raw, ok := body["items"].([]interface{})
	require.True(t, ok, "response has no items: %v", body)
	out := make([]map[string]interface{}, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.(map[string]interface{}))
	}
	return out
}
