package jobqueue

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CashFox/internal/pkg/entitlements"
)

const entitlementRefreshBatch = 100

// RefreshEntitlements re-resolves every stored entitlement older than maxAge.
// Failures for one user are logged and do not stop the sweep.
func RefreshEntitlements(ctx context.Context, deps *Dependencies, now time.Time, maxAge time.Duration) (int, error) {
	if deps == nil || deps.Resolver == nil || deps.Entitlements == nil {
		return 0, errors.New("entitlement refresh not configured")
	}

	before := now.Add(-maxAge)
	var cursor uint
	refreshed := 0
	for {
		states, err := deps.Entitlements.ListStale(before, cursor, entitlementRefreshBatch)
		if err != nil {
			return refreshed, err
		}
		if len(states) == 0 {
			return refreshed, nil
		}

		for _, st := range states {
			cursor = st.UserID
			if err := ctx.Err(); err != nil {
				return refreshed, err
			}

			user, err := deps.Users.GetByID(st.UserID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					_ = deps.Resolver.Clear(ctx, st.UserID)
					continue
				}
				log.Errorf("[Entitlements] Cannot load user %d for entitlement refresh: %v", st.UserID, err)
				continue
			}

			if _, err := deps.Resolver.Resolve(ctx, entitlements.User{ID: user.ID, Email: user.Email}); err != nil {
				log.Warnf("[Entitlements] Refresh for user %d failed: %v", user.ID, err)
				continue
			}
			refreshed++
		}

		if len(states) < entitlementRefreshBatch {
			return refreshed, nil
		}
	}
}
