package entitlements

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
)

type Source string

const (
	SourceNone        Source = "none"
	SourcePromotional Source = "promotional"
	SourceBilling     Source = "billing"
)

// User is the identity the resolver works on. A zero ID means no signed-in user.
type User struct {
	ID    uint
	Email string
}

// State is the answer to "is this user premium right now, and until when".
type State struct {
	Subscribed      bool       `json:"subscribed"`
	ProductID       *string    `json:"product_id"`
	SubscriptionEnd *time.Time `json:"subscription_end"`
	Source          Source     `json:"source"`
	CheckedAt       time.Time  `json:"checked_at"`

	// CustomerID is the billing customer seen during resolution, if any.
	CustomerID string `json:"-"`
}

type Customer struct {
	ID    string
	Email string
}

type Subscription struct {
	ID               string
	ProductID        string
	CurrentPeriodEnd int64
}

// BillingProvider is the subset of the payment provider the resolver needs.
type BillingProvider interface {
	// FindCustomerByEmail returns nil, nil when no customer matches.
	FindCustomerByEmail(ctx context.Context, email string) (*Customer, error)
	ListActiveSubscriptions(ctx context.Context, customerID string) ([]Subscription, error)
}

// Store persists the last resolved state per user. Save replaces wholesale.
type Store interface {
	Save(ctx context.Context, userID uint, state State) error
	// Load returns nil, nil when nothing is stored.
	Load(ctx context.Context, userID uint) (*State, error)
	Delete(ctx context.Context, userID uint) error
}

type Clock func() time.Time

// Observer is called after every successful resolution.
type Observer func(userID uint, state State)

type Resolver struct {
	billing BillingProvider
	store   Store
	now     Clock
	promo   PromoWindow

	mu        sync.RWMutex
	observers map[int]Observer
	nextID    int
}

type Option func(*Resolver)

func WithClock(c Clock) Option {
	return func(r *Resolver) { r.now = c }
}

func WithPromoWindow(p PromoWindow) Option {
	return func(r *Resolver) { r.promo = p }
}

// NewResolver builds a resolver. billing may be nil when no API key is configured;
// every resolution then fails as external-service-unavailable, promotion or not.
func NewResolver(billing BillingProvider, store Store, opts ...Option) *Resolver {
	r := &Resolver{
		billing:   billing,
		store:     store,
		now:       time.Now,
		promo:     DefaultPromoWindow(),
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve computes the current entitlement for u and persists it. Billing
// failures are returned as errors and nothing is written.
func (r *Resolver) Resolve(ctx context.Context, u User) (State, error) {
	now := r.now()
	if u.ID == 0 {
		return State{Source: SourceNone, CheckedAt: now}, nil
	}

	state, err := r.compute(ctx, u, now)
	if err != nil {
		log.Warnf("[Entitlements] Resolve failed for user %d: %v", u.ID, err)
		return State{}, err
	}

	if err := r.store.Save(ctx, u.ID, state); err != nil {
		return State{}, fmt.Errorf("save entitlement state: %w", err)
	}

	r.notify(u.ID, state)
	return state, nil
}

func (r *Resolver) compute(ctx context.Context, u User, now time.Time) (State, error) {
	if r.billing == nil {
		return State{}, apperr.External("STRIPE_SECRET_KEY is not configured", nil)
	}

	if r.promo.Contains(now) {
		productID := r.promo.ProductID
		end := r.promo.End()
		return State{
			Subscribed:      true,
			ProductID:       &productID,
			SubscriptionEnd: &end,
			Source:          SourcePromotional,
			CheckedAt:       now,
		}, nil
	}

	customer, err := r.billing.FindCustomerByEmail(ctx, u.Email)
	if err != nil {
		return State{}, apperr.External("customer lookup failed", err)
	}
	if customer == nil {
		return State{Source: SourceNone, CheckedAt: now}, nil
	}

	subs, err := r.billing.ListActiveSubscriptions(ctx, customer.ID)
	if err != nil {
		return State{}, apperr.External("subscription lookup failed", err)
	}
	if len(subs) == 0 {
		return State{Source: SourceNone, CheckedAt: now, CustomerID: customer.ID}, nil
	}

	first := subs[0]
	productID := first.ProductID
	end := time.Unix(first.CurrentPeriodEnd, 0).UTC()
	return State{
		Subscribed:      true,
		ProductID:       &productID,
		SubscriptionEnd: &end,
		Source:          SourceBilling,
		CheckedAt:       now,
		CustomerID:      customer.ID,
	}, nil
}

// GetCached returns the last persisted state without recomputing it.
func (r *Resolver) GetCached(ctx context.Context, u User) (State, bool, error) {
	if u.ID == 0 {
		return State{}, false, nil
	}
	st, err := r.store.Load(ctx, u.ID)
	if err != nil {
		return State{}, false, err
	}
	if st == nil {
		return State{}, false, nil
	}
	return *st, true, nil
}

// Clear drops the cached state, e.g. when the session ends.
func (r *Resolver) Clear(ctx context.Context, userID uint) error {
	if userID == 0 {
		return nil
	}
	return r.store.Delete(ctx, userID)
}

// Subscribe registers o and returns a function that removes it again.
func (r *Resolver) Subscribe(o Observer) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.observers[id] = o
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.observers, id)
		r.mu.Unlock()
	}
}

func (r *Resolver) notify(userID uint, state State) {
	r.mu.RLock()
	observers := make([]Observer, 0, len(r.observers))
	for _, o := range r.observers {
		observers = append(observers, o)
	}
	r.mu.RUnlock()

	for _, o := range observers {
		o(userID, state)
	}
}

var (
	globalResolver *Resolver
	resolverMu     sync.RWMutex
)

// InitializeResolver sets the process-wide resolver used by handlers and jobs.
func InitializeResolver(r *Resolver) {
	resolverMu.Lock()
	defer resolverMu.Unlock()
	globalResolver = r
}

// GetResolver returns the process-wide resolver.
func GetResolver() *Resolver {
	resolverMu.RLock()
	defer resolverMu.RUnlock()
	if globalResolver == nil {
		panic("Entitlement resolver not initialized. Call InitializeResolver first.")
	}
	return globalResolver
}
