package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CashFox/internal/pkg/billing"
	"github.com/ManuelReschke/CashFox/internal/pkg/database"
	"github.com/ManuelReschke/CashFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/CashFox/internal/pkg/env"
	"github.com/ManuelReschke/CashFox/internal/pkg/usercontext"
)

func subscriptionResponse(state entitlements.State) fiber.Map {
	return fiber.Map{
		"subscribed":       state.Subscribed,
		"product_id":       state.ProductID,
		"subscription_end": formatTimePtr(state.SubscriptionEnd),
		"source":           state.Source,
		"checked_at":       state.CheckedAt.UTC().Format(time.RFC3339),
		"plan":             entitlements.PlanFor(state),
	}
}

func currentEntitlementUser(c *fiber.Ctx) (entitlements.User, error) {
	userID, err := currentUserID(c)
	if err != nil {
		return entitlements.User{}, err
	}
	return entitlements.User{ID: userID, Email: usercontext.GetUserContext(c).Email}, nil
}

// HandleCheckSubscription resolves the caller's entitlement against the
// promotion window and the billing provider and stores the result.
func HandleCheckSubscription(c *fiber.Ctx) error {
	u, err := currentEntitlementUser(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	state, err := entitlements.GetResolver().Resolve(ctx, u)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(subscriptionResponse(state))
}

// HandleCachedSubscription returns the last stored entitlement without a
// billing round trip.
func HandleCachedSubscription(c *fiber.Ctx) error {
	u, err := currentEntitlementUser(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	state, ok, err := entitlements.GetResolver().GetCached(ctx, u)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Subscription"))
	}
	if !ok {
		return apperr.Respond(c, apperr.E(apperr.KindNotFound, "No subscription state cached yet", nil))
	}
	return c.JSON(subscriptionResponse(state))
}

// HandleCreateCheckout starts a Stripe Checkout session for the premium price.
func HandleCreateCheckout(c *fiber.Ctx) error {
	u, err := currentEntitlementUser(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	client := billing.NewStripeClientFromEnv()
	if !client.Configured() {
		return apperr.Respond(c, apperr.External("STRIPE_SECRET_KEY is not configured", billing.ErrNotConfigured))
	}
	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := requestContext()
	defer cancel()

	customerID, err := svc.CustomerIDForUser(ctx, u.ID)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Billing account"))
	}
	session, err := client.CreateCheckoutSession(ctx, billing.CheckoutInput{
		UserID:        u.ID,
		CustomerID:    customerID,
		CustomerEmail: u.Email,
	})
	if err != nil {
		log.Errorf("[Billing] Checkout for user %d failed: %v", u.ID, err)
		return apperr.Respond(c, apperr.External("checkout session failed", err))
	}
	return c.JSON(fiber.Map{"id": session.ID, "url": session.URL})
}

// HandleStripeWebhook stores every delivery once, mirrors subscription
// changes and re-resolves the affected user's entitlement.
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")

	if err := billing.VerifyStripeSignature(rawBody, c.Get("Stripe-Signature"), secret, billing.DefaultSignatureTolerance); err != nil {
		log.Warnf("[Billing] Rejected Stripe webhook: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	event, err := billing.ParseStripeEvent(rawBody)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	created, stored, err := svc.RecordWebhookEvent(ctx, billing.WebhookDelivery{
		Provider:       models.BillingProviderStripe,
		EventID:        event.ID,
		EventType:      string(event.Type),
		Payload:        string(rawBody),
		SignatureValid: true,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}

	var userID uint
	switch {
	case billing.IsSubscriptionEvent(event.Type):
		sub, perr := event.Subscription()
		if perr != nil {
			_ = svc.MarkWebhookProcessed(ctx, stored.ID, perr)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
		}
		userID, err = svc.HandleSubscriptionEvent(ctx, sub)
	case event.Type == billing.EventCheckoutCompleted:
		checkout, perr := event.CheckoutCompleted()
		if perr != nil {
			_ = svc.MarkWebhookProcessed(ctx, stored.ID, perr)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
		}
		userID, err = svc.HandleCheckoutCompleted(ctx, checkout)
	default:
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, nil)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}

	if errors.Is(err, billing.ErrNoLinkedAccount) {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, err)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}
	if err != nil {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_sync_failed"})
	}

	refreshErr := refreshEntitlement(ctx, userID)
	_ = svc.MarkWebhookProcessed(ctx, stored.ID, refreshErr)
	if refreshErr != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "refreshed": false})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "refreshed": true})
}

// refreshEntitlement drops the cached state of userID and resolves it again.
func refreshEntitlement(ctx context.Context, userID uint) error {
	user, err := repository.GetGlobalRepositories().User.GetByID(userID)
	if err != nil {
		return err
	}
	resolver := entitlements.GetResolver()
	if err := resolver.Clear(ctx, userID); err != nil {
		log.Warnf("[Billing] Failed to clear entitlement cache for user %d: %v", userID, err)
	}
	if _, err := resolver.Resolve(ctx, entitlements.User{ID: user.ID, Email: user.Email}); err != nil {
		log.Warnf("[Billing] Re-resolve after webhook failed for user %d: %v", userID, err)
		return err
	}
	return nil
}
