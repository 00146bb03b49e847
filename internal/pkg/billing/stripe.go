package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/subscription"

	"github.com/ManuelReschke/CashFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/CashFox/internal/pkg/env"
)

var ErrNotConfigured = errors.New("STRIPE_SECRET_KEY is not configured")

// StripeClient talks to Stripe through stripe-go. It implements
// entitlements.BillingProvider. APIBaseURL overrides the API host and is
// empty in production.
type StripeClient struct {
	SecretKey  string
	APIBaseURL string
	PriceID    string
	SuccessURL string
	CancelURL  string

	HTTPClient *http.Client
}

type CheckoutInput struct {
	UserID        uint
	CustomerID    string
	CustomerEmail string
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func NewStripeClientFromEnv() *StripeClient {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"), "/")
	return &StripeClient{
		SecretKey:  strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("STRIPE_API_BASE_URL", "")),
		PriceID:    strings.TrimSpace(env.GetEnv("STRIPE_PRICE_ID", "")),
		SuccessURL: strings.TrimSpace(env.GetEnv("STRIPE_SUCCESS_URL", base+"/subscription?checkout=success")),
		CancelURL:  strings.TrimSpace(env.GetEnv("STRIPE_CANCEL_URL", base+"/subscription?checkout=cancel")),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Configured reports whether a secret key is present.
func (c *StripeClient) Configured() bool {
	return c != nil && c.SecretKey != ""
}

// backend builds the stripe-go API backend. Retries are off because the
// resolver reports failures to the caller straight away.
func (c *StripeClient) backend() stripe.Backend {
	cfg := &stripe.BackendConfig{
		HTTPClient:        c.HTTPClient,
		LeveledLogger:     stripeLogger{},
		MaxNetworkRetries: stripe.Int64(0),
		EnableTelemetry:   stripe.Bool(false),
	}
	if base := strings.TrimRight(c.APIBaseURL, "/"); base != "" {
		cfg.URL = stripe.String(base)
	}
	return stripe.GetBackendWithConfig(stripe.APIBackend, cfg)
}

// FindCustomerByEmail returns the first customer with the given email, or nil
// when there is none.
func (c *StripeClient) FindCustomerByEmail(ctx context.Context, email string) (*entitlements.Customer, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	params := &stripe.CustomerListParams{
		ListParams: stripe.ListParams{Context: ctx, Limit: stripe.Int64(1)},
		Email:      stripe.String(strings.TrimSpace(email)),
	}
	it := (&customer.Client{B: c.backend(), Key: c.SecretKey}).List(params)
	if !it.Next() {
		if err := it.Err(); err != nil {
			return nil, fmt.Errorf("stripe customer lookup failed: %w", err)
		}
		return nil, nil
	}
	cust := it.Customer()
	return &entitlements.Customer{ID: cust.ID, Email: cust.Email}, nil
}

// ListActiveSubscriptions returns active subscriptions in provider order.
func (c *StripeClient) ListActiveSubscriptions(ctx context.Context, customerID string) ([]entitlements.Subscription, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	params := &stripe.SubscriptionListParams{
		ListParams: stripe.ListParams{Context: ctx, Limit: stripe.Int64(1)},
		Customer:   stripe.String(customerID),
		Status:     stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	it := (&subscription.Client{B: c.backend(), Key: c.SecretKey}).List(params)

	var subs []entitlements.Subscription
	for it.Next() {
		s := it.Subscription()
		subs = append(subs, entitlements.Subscription{
			ID:               s.ID,
			ProductID:        subscriptionProductID(s),
			CurrentPeriodEnd: subscriptionPeriodEnd(s),
		})
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("stripe subscription lookup failed: %w", err)
	}
	return subs, nil
}

// CreateCheckoutSession starts a hosted checkout for the configured price.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*CheckoutSession, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if c.PriceID == "" {
		return nil, errors.New("STRIPE_PRICE_ID is not configured")
	}

	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(c.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(c.SuccessURL),
		CancelURL:         stripe.String(c.CancelURL),
		ClientReferenceID: stripe.String(strconv.FormatUint(uint64(in.UserID), 10)),
	}
	if in.CustomerID != "" {
		params.Customer = stripe.String(in.CustomerID)
	} else if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}

	sess, err := (&checkoutsession.Client{B: c.backend(), Key: c.SecretKey}).New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session failed: %w", err)
	}
	if sess.URL == "" {
		return nil, errors.New("stripe checkout session returned empty url")
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func firstItem(s *stripe.Subscription) *stripe.SubscriptionItem {
	if s == nil || s.Items == nil || len(s.Items.Data) == 0 {
		return nil
	}
	return s.Items.Data[0]
}

func subscriptionProductID(s *stripe.Subscription) string {
	item := firstItem(s)
	if item == nil || item.Price == nil || item.Price.Product == nil {
		return ""
	}
	return item.Price.Product.ID
}

// Billing periods live on the subscription item.
func subscriptionPeriodEnd(s *stripe.Subscription) int64 {
	if item := firstItem(s); item != nil {
		return item.CurrentPeriodEnd
	}
	return 0
}

// stripeLogger routes stripe-go diagnostics into the application log.
type stripeLogger struct{}

func (stripeLogger) Debugf(format string, v ...interface{}) { log.Debugf("[Stripe] "+format, v...) }
func (stripeLogger) Infof(format string, v ...interface{})  { log.Debugf("[Stripe] "+format, v...) }
func (stripeLogger) Warnf(format string, v ...interface{})  { log.Warnf("[Stripe] "+format, v...) }
func (stripeLogger) Errorf(format string, v ...interface{}) { log.Errorf("[Stripe] "+format, v...) }
