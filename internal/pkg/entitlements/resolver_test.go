package entitlements

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CashFox/internal/pkg/database"
)

type fakeBilling struct {
	mu            sync.Mutex
	customer      *Customer
	subs          []Subscription
	customerErr   error
	subsErr       error
	customerCalls int
	subsCalls     int
}

func (f *fakeBilling) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customerCalls++
	return f.customer, f.customerErr
}

func (f *fakeBilling) ListActiveSubscriptions(ctx context.Context, customerID string) ([]Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subsCalls++
	return f.subs, f.subsErr
}

func (f *fakeBilling) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.customerCalls + f.subsCalls
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

var (
	outsidePromo = time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)
	insidePromo  = time.Date(2025, 10, 16, 9, 0, 0, 0, time.UTC)
	testUser     = User{ID: 7, Email: "jane@example.com"}
)

func newTestStore(t *testing.T) *RepositoryStore {
	t.Helper()
	db, err := database.NewSQLiteMemory(uuid.NewString())
	require.NoError(t, err)
	return NewRepositoryStore(repository.NewEntitlementRepository(db), 0)
}

func TestResolveNoUser(t *testing.T) {
	billing := &fakeBilling{}
	store := newTestStore(t)
	r := NewResolver(billing, store, WithClock(fixedClock(outsidePromo)))

	st, err := r.Resolve(context.Background(), User{})
	require.NoError(t, err)
	assert.False(t, st.Subscribed)
	assert.Equal(t, SourceNone, st.Source)
	assert.Zero(t, billing.calls())
}

func TestResolvePromotionalWindow(t *testing.T) {
	billing := &fakeBilling{customerErr: errors.New("must not be called")}
	store := newTestStore(t)
	r := NewResolver(billing, store, WithClock(fixedClock(insidePromo)))

	st, err := r.Resolve(context.Background(), testUser)
	require.NoError(t, err)

	assert.True(t, st.Subscribed)
	assert.Equal(t, SourcePromotional, st.Source)
	require.NotNil(t, st.ProductID)
	assert.Equal(t, "diwali_offer_2025", *st.ProductID)
	require.NotNil(t, st.SubscriptionEnd)
	assert.Equal(t, time.Date(2025, 10, 24, 0, 0, 0, 0, time.UTC), *st.SubscriptionEnd)
	assert.Zero(t, billing.calls())

	cached, ok, err := r.GetCached(context.Background(), testUser)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, SourcePromotional, cached.Source)
}

func TestPromoWindowBoundaries(t *testing.T) {
	w := DefaultPromoWindow()
	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(w.End()))
	assert.False(t, w.Contains(w.Start.Add(-time.Second)))
	assert.False(t, w.Contains(w.End().Add(time.Second)))

	w.DurationDays = 0
	assert.False(t, w.Contains(w.Start))
}

func TestResolveBilling(t *testing.T) {
	periodEnd := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name           string
		billing        *fakeBilling
		wantSubscribed bool
		wantSource     Source
		wantProduct    string
		wantCalls      int
	}{
		{
			name:       "no customer",
			billing:    &fakeBilling{},
			wantSource: SourceNone,
			wantCalls:  1,
		},
		{
			name:       "customer without subscription",
			billing:    &fakeBilling{customer: &Customer{ID: "cus_1"}},
			wantSource: SourceNone,
			wantCalls:  2,
		},
		{
			name: "first active subscription wins",
			billing: &fakeBilling{
				customer: &Customer{ID: "cus_1"},
				subs: []Subscription{
					{ID: "sub_1", ProductID: "prod_A", CurrentPeriodEnd: periodEnd.Unix()},
					{ID: "sub_2", ProductID: "prod_B", CurrentPeriodEnd: periodEnd.Add(time.Hour).Unix()},
				},
			},
			wantSubscribed: true,
			wantSource:     SourceBilling,
			wantProduct:    "prod_A",
			wantCalls:      2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.billing, newTestStore(t), WithClock(fixedClock(outsidePromo)))

			st, err := r.Resolve(context.Background(), testUser)
			require.NoError(t, err)

			assert.Equal(t, tt.wantSubscribed, st.Subscribed)
			assert.Equal(t, tt.wantSource, st.Source)
			assert.Equal(t, tt.wantCalls, tt.billing.calls())
			if tt.wantProduct == "" {
				assert.Nil(t, st.ProductID)
				assert.Nil(t, st.SubscriptionEnd)
				return
			}
			require.NotNil(t, st.ProductID)
			assert.Equal(t, tt.wantProduct, *st.ProductID)
			require.NotNil(t, st.SubscriptionEnd)
			assert.True(t, periodEnd.Equal(*st.SubscriptionEnd))
		})
	}
}

func TestResolveBillingFailureIsNotPersisted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	good := NewResolver(&fakeBilling{
		customer: &Customer{ID: "cus_1"},
		subs:     []Subscription{{ID: "sub_1", ProductID: "prod_A", CurrentPeriodEnd: outsidePromo.Add(24 * time.Hour).Unix()}},
	}, store, WithClock(fixedClock(outsidePromo)))
	_, err := good.Resolve(ctx, testUser)
	require.NoError(t, err)

	failing := NewResolver(&fakeBilling{customerErr: errors.New("502 from provider")}, store, WithClock(fixedClock(outsidePromo.Add(time.Hour))))
	_, err = failing.Resolve(ctx, testUser)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrExternalUnavailable)

	cached, ok, err := failing.GetCached(ctx, testUser)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, cached.Subscribed, "previous state must survive a failed resolution")
	assert.Equal(t, SourceBilling, cached.Source)
}

func TestResolveSubscriptionListFailure(t *testing.T) {
	r := NewResolver(&fakeBilling{customer: &Customer{ID: "cus_1"}, subsErr: errors.New("timeout")}, newTestStore(t), WithClock(fixedClock(outsidePromo)))

	_, err := r.Resolve(context.Background(), testUser)
	assert.Equal(t, apperr.KindExternalUnavailable, apperr.KindOf(err))
}

func TestResolveWithoutBillingProvider(t *testing.T) {
	store := newTestStore(t)
	r := NewResolver(nil, store, WithClock(fixedClock(outsidePromo)))

	_, err := r.Resolve(context.Background(), testUser)
	assert.ErrorIs(t, err, apperr.ErrExternalUnavailable)

	_, ok, err := r.GetCached(context.Background(), testUser)
	require.NoError(t, err)
	assert.False(t, ok)

	inPromo := NewResolver(nil, store, WithClock(fixedClock(insidePromo)))
	_, err = inPromo.Resolve(context.Background(), testUser)
	assert.ErrorIs(t, err, apperr.ErrExternalUnavailable, "a missing key fails even inside the promotion")

	_, ok, err = inPromo.GetCached(context.Background(), testUser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestObserversAndClear(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(&fakeBilling{}, newTestStore(t), WithClock(fixedClock(outsidePromo)))

	var got []uint
	unsubscribe := r.Subscribe(func(userID uint, st State) {
		got = append(got, userID)
	})

	_, err := r.Resolve(ctx, testUser)
	require.NoError(t, err)
	_, err = r.Resolve(ctx, User{})
	require.NoError(t, err)
	assert.Equal(t, []uint{testUser.ID}, got)

	unsubscribe()
	_, err = r.Resolve(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, r.Clear(ctx, testUser.ID))
	_, ok, err := r.GetCached(ctx, testUser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcurrentResolveIsLastWriteWins(t *testing.T) {
	ctx := context.Background()
	billing := &fakeBilling{
		customer: &Customer{ID: "cus_1"},
		subs:     []Subscription{{ID: "sub_1", ProductID: "prod_A", CurrentPeriodEnd: outsidePromo.Add(time.Hour).Unix()}},
	}
	r := NewResolver(billing, newTestStore(t), WithClock(fixedClock(outsidePromo)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Resolve(ctx, testUser)
		}()
	}
	wg.Wait()

	st, ok, err := r.GetCached(ctx, testUser)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, st.Subscribed)
}

func TestPlanCapabilities(t *testing.T) {
	assert.Equal(t, PlanPremium, PlanFor(State{Subscribed: true}))
	assert.Equal(t, PlanFree, PlanFor(State{}))
	assert.Equal(t, PlanPremium, NormalizePlan(" Premium "))
	assert.Equal(t, PlanFree, NormalizePlan("premium_max"))
	assert.True(t, CanUseInvestments(PlanPremium))
	assert.False(t, CanUseSMS(PlanFree))
	assert.Equal(t, "advanced", AnalysisTier(PlanPremium))
	assert.Equal(t, "basic", AnalysisTier(PlanFree))
	assert.Equal(t, PlanFree, PlanOf(nil))
}

func TestPromoWindowFromEnv(t *testing.T) {
	t.Setenv("PROMO_START", "2026-01-01T00:00:00Z")
	t.Setenv("PROMO_DURATION_DAYS", "3")
	t.Setenv("PROMO_PRODUCT_ID", "new_year")

	w := PromoWindowFromEnv()
	assert.Equal(t, time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC), w.End())
	assert.Equal(t, "new_year", w.ProductID)
}
