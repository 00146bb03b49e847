package billing

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
)

const (
	EventCheckoutCompleted   = stripe.EventTypeCheckoutSessionCompleted
	EventSubscriptionCreated = stripe.EventTypeCustomerSubscriptionCreated
	EventSubscriptionUpdated = stripe.EventTypeCustomerSubscriptionUpdated
	EventSubscriptionDeleted = stripe.EventTypeCustomerSubscriptionDeleted
)

// StripeEvent is a verified webhook delivery.
type StripeEvent struct {
	stripe.Event
}

// SubscriptionEvent is the part of a subscription object the service stores.
type SubscriptionEvent struct {
	SubscriptionID   string
	CustomerID       string
	ProductID        string
	Status           string
	CurrentPeriodEnd *time.Time
}

// CheckoutCompletedEvent links a checkout back to the local user.
type CheckoutCompletedEvent struct {
	UserID        uint
	CustomerID    string
	CustomerEmail string
}

// ParseStripeEvent decodes a delivery whose signature was already checked.
func ParseStripeEvent(payload []byte) (*StripeEvent, error) {
	var ev StripeEvent
	if err := json.Unmarshal(payload, &ev.Event); err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(ev.Type)) == "" {
		return nil, errors.New("stripe event missing type")
	}
	return &ev, nil
}

func IsSubscriptionEvent(eventType stripe.EventType) bool {
	switch eventType {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		return true
	default:
		return false
	}
}

func (e *StripeEvent) object() (json.RawMessage, error) {
	if e.Data == nil || len(e.Data.Raw) == 0 {
		return nil, errors.New("stripe event missing data.object")
	}
	return e.Data.Raw, nil
}

func (e *StripeEvent) Subscription() (*SubscriptionEvent, error) {
	raw, err := e.object()
	if err != nil {
		return nil, err
	}
	var s stripe.Subscription
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s.ID == "" || s.Customer == nil || s.Customer.ID == "" {
		return nil, errors.New("stripe subscription payload missing id or customer")
	}
	out := &SubscriptionEvent{
		SubscriptionID: s.ID,
		CustomerID:     s.Customer.ID,
		ProductID:      subscriptionProductID(&s),
		Status:         strings.ToLower(string(s.Status)),
	}
	if end := subscriptionPeriodEnd(&s); end > 0 {
		t := time.Unix(end, 0).UTC()
		out.CurrentPeriodEnd = &t
	}
	return out, nil
}

func (e *StripeEvent) CheckoutCompleted() (*CheckoutCompletedEvent, error) {
	raw, err := e.object()
	if err != nil {
		return nil, err
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	userID, err := strconv.ParseUint(strings.TrimSpace(sess.ClientReferenceID), 10, 64)
	if err != nil || userID == 0 {
		return nil, errors.New("checkout session missing client_reference_id")
	}
	if sess.Customer == nil || sess.Customer.ID == "" {
		return nil, errors.New("checkout session missing customer")
	}
	email := sess.CustomerEmail
	if email == "" && sess.CustomerDetails != nil {
		email = sess.CustomerDetails.Email
	}
	return &CheckoutCompletedEvent{UserID: uint(userID), CustomerID: sess.Customer.ID, CustomerEmail: email}, nil
}
