package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/internal/pkg/billing"
	"github.com/ManuelReschke/CashFox/internal/pkg/entitlements"
)

const testWebhookSecret = "whsec_test"

func (ta *testApp) postWebhook(t *testing.T, payload string, signature string) (int, map[string]interface{}) {
	t.Helper()
	resp := ta.request(t, "POST", "/webhooks/stripe", []byte(payload), map[string]string{"Stripe-Signature": signature})
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestCheckSubscription(t *testing.T) {
	ta := newTestApp(t)

	status, body := ta.do(t, "GET", "/api/subscription/cached", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "not_found", body["error"])

	status, body = ta.do(t, "GET", "/api/subscription", nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, false, body["subscribed"])
	assert.Equal(t, "none", body["source"])
	assert.Equal(t, "free", body["plan"])

	ta.provider.customer = &entitlements.Customer{ID: "cus_123", Email: "ada@example.com"}
	ta.provider.subs = []entitlements.Subscription{{ID: "sub_1", ProductID: "prod_premium", CurrentPeriodEnd: fixedNow.AddDate(0, 1, 0).Unix()}}

	status, body = ta.do(t, "GET", "/api/subscription", nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["subscribed"])
	assert.Equal(t, "billing", body["source"])
	assert.Equal(t, "prod_premium", body["product_id"])
	assert.Equal(t, "2025-04-15T12:00:00Z", body["subscription_end"])

	status, body = ta.do(t, "GET", "/api/subscription/cached", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["subscribed"])

	settings, err := ta.repos.Settings.GetOrCreate(ta.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanPremium, settings.Plan)
}

func TestCheckSubscriptionProviderFailure(t *testing.T) {
	ta := newTestApp(t)
	ta.provider.err = errors.New("stripe down")

	status, body := ta.do(t, "GET", "/api/subscription", nil)
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, "external_service_unavailable", body["error"])

	status, _ = ta.do(t, "GET", "/api/subscription/cached", nil)
	assert.Equal(t, fiber.StatusNotFound, status, "failed lookups are not cached")
}

func TestCreateCheckout(t *testing.T) {
	ta := newTestApp(t)
	t.Setenv("STRIPE_SECRET_KEY", "")

	status, body := ta.do(t, "POST", "/api/subscription/checkout", nil)
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, "external_service_unavailable", body["error"])

	var mu sync.Mutex
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" || r.Header.Get("Authorization") != "Bearer sk_test" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = r.ParseForm()
		mu.Lock()
		form = r.PostForm
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_1","url":"https://checkout.stripe.test/cs_1"}`))
	}))
	defer srv.Close()
	t.Setenv("STRIPE_SECRET_KEY", "sk_test")
	t.Setenv("STRIPE_API_BASE_URL", srv.URL)
	t.Setenv("STRIPE_PRICE_ID", "price_premium")

	status, body = ta.do(t, "POST", "/api/subscription/checkout", nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "cs_1", body["id"])
	assert.Equal(t, "https://checkout.stripe.test/cs_1", body["url"])
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "price_premium", form.Get("line_items[0][price]"))
	assert.Equal(t, fmt.Sprint(ta.user.ID), form.Get("client_reference_id"))
	assert.Equal(t, "ada@example.com", form.Get("customer_email"))
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	ta := newTestApp(t)
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)

	payload := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`
	status, body := ta.postWebhook(t, payload, billing.SignStripePayload([]byte(payload), "wrong", time.Now()))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "invalid_signature", body["error"])

	status, _ = ta.postWebhook(t, payload, billing.SignStripePayload([]byte(payload), testWebhookSecret, time.Now().Add(-10*time.Minute)))
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestStripeWebhookCheckoutCompleted(t *testing.T) {
	ta := newTestApp(t)
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	ta.provider.customer = &entitlements.Customer{ID: "cus_123", Email: "ada@example.com"}
	ta.provider.subs = []entitlements.Subscription{{ID: "sub_1", ProductID: "prod_premium", CurrentPeriodEnd: fixedNow.AddDate(0, 1, 0).Unix()}}

	payload := fmt.Sprintf(`{"id":"evt_checkout","type":"checkout.session.completed","data":{"object":{"client_reference_id":"%d","customer":"cus_123","customer_details":{"email":"ada@example.com"}}}}`, ta.user.ID)
	sig := billing.SignStripePayload([]byte(payload), testWebhookSecret, time.Now())

	status, body := ta.postWebhook(t, payload, sig)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["refreshed"])

	settings, err := ta.repos.Settings.GetOrCreate(ta.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanPremium, settings.Plan)

	account, err := billing.NewServiceFromDB(ta.db).GetBillingAccountByProviderAccountID(context.Background(), models.BillingProviderStripe, "cus_123")
	require.NoError(t, err)
	assert.Equal(t, ta.user.ID, account.UserID)

	status, body = ta.postWebhook(t, payload, sig)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["duplicate"])
}

func TestStripeWebhookSubscriptionEvents(t *testing.T) {
	ta := newTestApp(t)
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	sign := func(p string) string { return billing.SignStripePayload([]byte(p), testWebhookSecret, time.Now()) }

	unknown := `{"id":"evt_sub_unknown","type":"customer.subscription.updated","data":{"object":{"id":"sub_9","customer":"cus_999","status":"active"}}}`
	status, body := ta.postWebhook(t, unknown, sign(unknown))
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["ignored"])

	_, err := billing.NewServiceFromDB(ta.db).UpsertBillingAccount(context.Background(), ta.user.ID, models.BillingProviderStripe, "cus_123", "ada@example.com")
	require.NoError(t, err)

	deleted := `{"id":"evt_sub_deleted","type":"customer.subscription.deleted","data":{"object":{"id":"sub_1","customer":"cus_123","status":"canceled"}}}`
	status, body = ta.postWebhook(t, deleted, sign(deleted))
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["refreshed"])

	subs, err := billing.NewServiceFromDB(ta.db).Subscriptions(context.Background(), ta.user.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "canceled", subs[0].Status)

	other := `{"id":"evt_invoice","type":"invoice.paid","data":{"object":{}}}`
	status, body = ta.postWebhook(t, other, sign(other))
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["ignored"])

	status, body = ta.postWebhook(t, `{"id":"evt_x"}`, sign(`{"id":"evt_x"}`))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid_payload", body["error"])
}
