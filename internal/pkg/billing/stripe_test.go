package billing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v82"
)

func newTestStripeClient(url string) *StripeClient {
	return &StripeClient{
		SecretKey:  "sk_test_123",
		APIBaseURL: url,
		PriceID:    "price_1",
		SuccessURL: "https://app.example/ok",
		CancelURL:  "https://app.example/cancel",
		HTTPClient: &http.Client{Timeout: 2 * time.Second},
	}
}

func TestStripeFindCustomerByEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/customers" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Fatalf("unexpected auth header %q", got)
		}
		if r.URL.Query().Get("limit") != "1" {
			t.Fatalf("expected limit=1, got %q", r.URL.Query().Get("limit"))
		}
		if r.URL.Query().Get("email") == "nobody@example.com" {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"cus_123","email":"jane@example.com"}]}`))
	}))
	defer srv.Close()

	c := newTestStripeClient(srv.URL)

	cust, err := c.FindCustomerByEmail(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cust == nil || cust.ID != "cus_123" {
		t.Fatalf("unexpected customer: %+v", cust)
	}

	cust, err = c.FindCustomerByEmail(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cust != nil {
		t.Fatalf("expected no customer, got %+v", cust)
	}
}

func TestStripeListActiveSubscriptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("customer") != "cus_123" || q.Get("status") != "active" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"data":[
			{"id":"sub_1","object":"subscription","items":{"data":[{"current_period_end":1764547200,"price":{"id":"price_1","product":"prod_A"}}]}},
			{"id":"sub_2","object":"subscription","items":{"data":[{"current_period_end":1764550800,"price":{"id":"price_2","product":{"id":"prod_B","object":"product"}}}]}}
		],"has_more":false}`))
	}))
	defer srv.Close()

	subs, err := newTestStripeClient(srv.URL).ListActiveSubscriptions(context.Background(), "cus_123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(subs))
	}
	if subs[0].ProductID != "prod_A" || subs[0].CurrentPeriodEnd != 1764547200 {
		t.Fatalf("unexpected first subscription: %+v", subs[0])
	}
	if subs[1].ProductID != "prod_B" || subs[1].CurrentPeriodEnd != 1764550800 {
		t.Fatalf("expected expanded product to resolve, got %+v", subs[1])
	}
}

func TestStripeErrorsKeepStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"upstream"}}`))
	}))
	defer srv.Close()

	_, err := newTestStripeClient(srv.URL).FindCustomerByEmail(context.Background(), "jane@example.com")
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) || stripeErr.HTTPStatusCode != http.StatusBadGateway {
		t.Fatalf("expected stripe error with status 502, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected a single attempt without retries, got %d", n)
	}
}

func TestStripeNotConfigured(t *testing.T) {
	c := &StripeClient{APIBaseURL: "http://127.0.0.1:1", HTTPClient: http.DefaultClient}
	if c.Configured() {
		t.Fatalf("expected client without key to be unconfigured")
	}
	_, err := c.FindCustomerByEmail(context.Background(), "jane@example.com")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestStripeCreateCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/checkout/sessions" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("mode") != "subscription" || r.PostForm.Get("line_items[0][price]") != "price_1" {
			t.Fatalf("unexpected form %v", r.PostForm)
		}
		if r.PostForm.Get("client_reference_id") != "42" || r.PostForm.Get("customer_email") != "jane@example.com" {
			t.Fatalf("unexpected form %v", r.PostForm)
		}
		if r.PostForm.Get("line_items[0][quantity]") != "1" || r.PostForm.Get("customer") != "" {
			t.Fatalf("unexpected form %v", r.PostForm)
		}
		_, _ = w.Write([]byte(`{"id":"cs_1","url":"https://checkout.stripe.com/c/cs_1"}`))
	}))
	defer srv.Close()

	sess, err := newTestStripeClient(srv.URL).CreateCheckoutSession(context.Background(), CheckoutInput{UserID: 42, CustomerEmail: "jane@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.URL != "https://checkout.stripe.com/c/cs_1" {
		t.Fatalf("unexpected url %q", sess.URL)
	}
}

func TestVerifyStripeSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	secret := "whsec_test"

	header := SignStripePayload(payload, secret, time.Now())
	if err := VerifyStripeSignature(payload, header, secret, DefaultSignatureTolerance); err != nil {
		t.Fatalf("expected signature to validate, got %v", err)
	}

	// extra schemes and multiple v1 entries are tolerated
	withExtra := header + ",v0=deadbeef,v1=00ff"
	if err := VerifyStripeSignature(payload, withExtra, secret, DefaultSignatureTolerance); err != nil {
		t.Fatalf("expected signature with extras to validate, got %v", err)
	}

	if err := VerifyStripeSignature([]byte(`{"id":"evt_2"}`), header, secret, DefaultSignatureTolerance); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected tampered payload to fail, got %v", err)
	}
	if err := VerifyStripeSignature(payload, header, "other", DefaultSignatureTolerance); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected wrong secret to fail, got %v", err)
	}
	if err := VerifyStripeSignature(payload, header, "", DefaultSignatureTolerance); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected missing secret to fail, got %v", err)
	}

	old := SignStripePayload(payload, secret, time.Now().Add(-10*time.Minute))
	if err := VerifyStripeSignature(payload, old, secret, DefaultSignatureTolerance); !errors.Is(err, ErrSignatureExpired) {
		t.Fatalf("expected old timestamp to fail, got %v", err)
	}
	if err := VerifyStripeSignature(payload, old, secret, 0); err != nil {
		t.Fatalf("expected zero tolerance to skip the age check, got %v", err)
	}
	if err := VerifyStripeSignature(payload, "garbage", secret, DefaultSignatureTolerance); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected garbage header to fail, got %v", err)
	}
}

func TestParseStripeSubscriptionEvent(t *testing.T) {
	raw := []byte(`{
		"id": "evt_1",
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": "sub_1", "customer": "cus_1", "status": "active",
			"items": {"data": [{"current_period_end": 1764547200, "price": {"product": "prod_A"}}]}
		}}
	}`)

	ev, err := ParseStripeEvent(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !IsSubscriptionEvent(ev.Type) {
		t.Fatalf("expected subscription event, got %q", ev.Type)
	}
	sub, err := ev.Subscription()
	if err != nil {
		t.Fatalf("subscription: %v", err)
	}
	if sub.CustomerID != "cus_1" || sub.ProductID != "prod_A" || sub.Status != "active" {
		t.Fatalf("unexpected subscription %+v", sub)
	}
	if sub.CurrentPeriodEnd == nil || sub.CurrentPeriodEnd.Unix() != 1764547200 {
		t.Fatalf("unexpected period end %v", sub.CurrentPeriodEnd)
	}
}

func TestParseCheckoutCompleted(t *testing.T) {
	raw := []byte(`{"id":"evt_2","type":"checkout.session.completed","data":{"object":{
		"client_reference_id":"42","customer":"cus_9","customer_details":{"email":"jane@example.com"}}}}`)

	ev, err := ParseStripeEvent(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	co, err := ev.CheckoutCompleted()
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if co.UserID != 42 || co.CustomerID != "cus_9" || co.CustomerEmail != "jane@example.com" {
		t.Fatalf("unexpected checkout event %+v", co)
	}

	if _, err := ParseStripeEvent([]byte(`{"id":"evt_3"}`)); err == nil {
		t.Fatalf("expected event without type to fail")
	}

	empty, err := ParseStripeEvent([]byte(`{"id":"evt_4","type":"checkout.session.completed"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := empty.CheckoutCompleted(); err == nil {
		t.Fatalf("expected event without data.object to fail")
	}
}
