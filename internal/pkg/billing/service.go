package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/internal/pkg/entitlements"
)

// ErrNoLinkedAccount means a webhook referenced a customer no local user is linked to.
var ErrNoLinkedAccount = errors.New("no linked local account for stripe customer")

// Service keeps the local billing tables and the user's plan in line with
// what the provider and the entitlement resolver report.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// UpsertBillingAccount links a provider customer to the user.
func (s *Service) UpsertBillingAccount(ctx context.Context, userID uint, provider, customerID, email string) (*models.BillingAccount, error) {
	account := &models.BillingAccount{
		UserID:            userID,
		Provider:          normalizeProvider(provider),
		ProviderAccountID: strings.TrimSpace(customerID),
		Email:             strings.TrimSpace(email),
	}
	if userID == 0 || account.Provider == "" || account.ProviderAccountID == "" {
		return nil, errors.New("user, provider and customer id are required")
	}
	if err := s.repo.LinkCustomer(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Service) GetBillingAccountByProviderAccountID(ctx context.Context, provider, customerID string) (*models.BillingAccount, error) {
	p, id := normalizeProvider(provider), strings.TrimSpace(customerID)
	if p == "" || id == "" {
		return nil, errors.New("provider and customer id are required")
	}
	return s.repo.AccountByCustomer(ctx, p, id)
}

// CustomerIDForUser returns the linked Stripe customer id, or "" when none is linked.
func (s *Service) CustomerIDForUser(ctx context.Context, userID uint) (string, error) {
	account, err := s.repo.AccountByUser(ctx, userID, models.BillingProviderStripe)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", nil
	case err != nil:
		return "", err
	}
	return account.ProviderAccountID, nil
}

// ResolveMappedPlan maps a provider product to an internal plan. Products
// without an active mapping grant premium.
func (s *Service) ResolveMappedPlan(ctx context.Context, provider, productID string) (string, error) {
	p, ref := normalizeProvider(provider), strings.TrimSpace(productID)
	if p == "" || ref == "" {
		return string(entitlements.PlanPremium), nil
	}

	m, err := s.repo.PlanMapping(ctx, p, ref)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return string(entitlements.PlanPremium), nil
	case err != nil:
		return "", err
	}
	return normalizePlan(m.InternalPlan), nil
}

// SyncSubscription mirrors a provider subscription into billing_subscriptions.
// Lapsed subscriptions are stored with the free plan.
func (s *Service) SyncSubscription(ctx context.Context, rec SubscriptionRecord) (*models.BillingSubscription, error) {
	if err := rec.validate(); err != nil {
		return nil, err
	}

	plan := string(entitlements.PlanFree)
	if isEntitlingStatus(rec.status()) {
		mapped, err := s.ResolveMappedPlan(ctx, rec.Provider, rec.ProductID)
		if err != nil {
			return nil, err
		}
		plan = mapped
	}

	sub := rec.model(plan)
	if err := s.repo.SaveSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ApplyEntitlement writes the plan implied by a freshly resolved state into
// the user's settings and remembers the billing customer it came from.
func (s *Service) ApplyEntitlement(ctx context.Context, userID uint, state entitlements.State) (string, error) {
	if userID == 0 {
		return "", errors.New("user_id is required")
	}

	plan := string(entitlements.PlanFree)
	if state.Subscribed {
		plan = string(entitlements.PlanPremium)
		if state.Source == entitlements.SourceBilling && state.ProductID != nil {
			mapped, err := s.ResolveMappedPlan(ctx, models.BillingProviderStripe, *state.ProductID)
			if err != nil {
				return "", err
			}
			plan = mapped
		}
	}

	if state.CustomerID != "" {
		if _, err := s.UpsertBillingAccount(ctx, userID, models.BillingProviderStripe, state.CustomerID, ""); err != nil {
			return "", err
		}
	}

	changed, err := s.repo.SetPlan(ctx, userID, plan)
	if err != nil {
		return "", err
	}
	if changed {
		log.Infof("[Billing] User %d plan is now %s", userID, plan)
	}
	return plan, nil
}

// EntitlementObserver adapts ApplyEntitlement for entitlements.Resolver.Subscribe.
func (s *Service) EntitlementObserver() entitlements.Observer {
	return func(userID uint, state entitlements.State) {
		if _, err := s.ApplyEntitlement(context.Background(), userID, state); err != nil {
			log.Errorf("[Billing] Failed to apply entitlement for user %d: %v", userID, err)
		}
	}
}

// RecordWebhookEvent stores a delivery once. created is false for redeliveries.
func (s *Service) RecordWebhookEvent(ctx context.Context, d WebhookDelivery) (bool, *models.BillingWebhookEvent, error) {
	if normalizeProvider(d.Provider) == "" {
		return false, nil, errors.New("provider is required")
	}
	return s.repo.RecordDelivery(ctx, d.model())
}

// MarkWebhookProcessed stamps the delivery as handled, keeping the error text if any.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	msg := ""
	if processingErr != nil {
		msg = processingErr.Error()
	}
	return s.repo.FinishDelivery(ctx, webhookEventID, s.now(), msg)
}

// Subscriptions lists the mirrored provider subscriptions of a user, most
// recently changed first.
func (s *Service) Subscriptions(ctx context.Context, userID uint) ([]models.BillingSubscription, error) {
	return s.repo.SubscriptionsByUser(ctx, userID)
}

// HandleSubscriptionEvent mirrors a customer.subscription.* event and returns
// the affected local user.
func (s *Service) HandleSubscriptionEvent(ctx context.Context, ev *SubscriptionEvent) (uint, error) {
	account, err := s.GetBillingAccountByProviderAccountID(ctx, models.BillingProviderStripe, ev.CustomerID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 0, ErrNoLinkedAccount
	case err != nil:
		return 0, err
	}

	_, err = s.SyncSubscription(ctx, SubscriptionRecord{
		UserID:           account.UserID,
		Provider:         models.BillingProviderStripe,
		SubscriptionID:   ev.SubscriptionID,
		ProductID:        ev.ProductID,
		Status:           ev.Status,
		CurrentPeriodEnd: ev.CurrentPeriodEnd,
	})
	return account.UserID, err
}

// HandleCheckoutCompleted links the Stripe customer created by checkout to the user.
func (s *Service) HandleCheckoutCompleted(ctx context.Context, ev *CheckoutCompletedEvent) (uint, error) {
	if _, err := s.UpsertBillingAccount(ctx, ev.UserID, models.BillingProviderStripe, ev.CustomerID, ev.CustomerEmail); err != nil {
		return 0, err
	}
	return ev.UserID, nil
}
