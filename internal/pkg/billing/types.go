package billing

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/ManuelReschke/CashFox/app/models"
)

// SubscriptionRecord is a provider subscription as mirrored into
// billing_subscriptions.
type SubscriptionRecord struct {
	UserID           uint
	Provider         string
	SubscriptionID   string
	ProductID        string
	Status           string
	CurrentPeriodEnd *time.Time
}

func (r SubscriptionRecord) model(plan string) *models.BillingSubscription {
	return &models.BillingSubscription{
		UserID:                 r.UserID,
		Provider:               normalizeProvider(r.Provider),
		ProviderSubscriptionID: strings.TrimSpace(r.SubscriptionID),
		ProviderPlanRef:        strings.TrimSpace(r.ProductID),
		InternalPlan:           plan,
		Status:                 r.status(),
		CurrentPeriodEnd:       r.CurrentPeriodEnd,
	}
}

func (r SubscriptionRecord) validate() error {
	if r.UserID == 0 || normalizeProvider(r.Provider) == "" || strings.TrimSpace(r.SubscriptionID) == "" {
		return errors.New("user, provider and subscription id are required")
	}
	return nil
}

// A record without status came from a checkout that just succeeded.
func (r SubscriptionRecord) status() string {
	if s := strings.ToLower(strings.TrimSpace(r.Status)); s != "" {
		return s
	}
	return models.BillingStatusActive
}

// WebhookDelivery is one signed webhook request as received.
type WebhookDelivery struct {
	Provider       string
	EventID        string
	EventType      string
	Payload        string
	SignatureValid bool
}

// eventID falls back to a payload hash so deliveries without an id are
// still deduplicated.
func (d WebhookDelivery) eventID() string {
	if id := strings.TrimSpace(d.EventID); id != "" {
		return id
	}
	sum := sha256.Sum256([]byte(d.Payload))
	return "hash:" + hex.EncodeToString(sum[:])
}

func (d WebhookDelivery) model() *models.BillingWebhookEvent {
	return &models.BillingWebhookEvent{
		Provider:        normalizeProvider(d.Provider),
		ProviderEventID: d.eventID(),
		EventType:       strings.TrimSpace(d.EventType),
		PayloadJSON:     d.Payload,
		SignatureValid:  d.SignatureValid,
	}
}

func normalizeProvider(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}
