package entitlements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/cache"
)

// RepositoryStore keeps states in the subscription_status table and can
// mirror them into Redis for cheap reads.
type RepositoryStore struct {
	repo     repository.EntitlementRepository
	cacheTTL time.Duration
}

// NewRepositoryStore creates a store. A positive cacheTTL enables the Redis mirror.
func NewRepositoryStore(repo repository.EntitlementRepository, cacheTTL time.Duration) *RepositoryStore {
	return &RepositoryStore{repo: repo, cacheTTL: cacheTTL}
}

func cacheKey(userID uint) string {
	return fmt.Sprintf("entitlement:user:%d", userID)
}

func (s *RepositoryStore) Save(ctx context.Context, userID uint, state State) error {
	row := &models.EntitlementState{
		UserID:          userID,
		Subscribed:      state.Subscribed,
		ProductID:       state.ProductID,
		SubscriptionEnd: state.SubscriptionEnd,
		Source:          string(state.Source),
		CheckedAt:       state.CheckedAt,
	}
	if err := s.repo.Upsert(row); err != nil {
		return err
	}
	if s.cacheTTL > 0 {
		if err := cache.SetJSON(ctx, cacheKey(userID), state, s.cacheTTL); err != nil {
			log.Warnf("[Entitlements] Failed to mirror state for user %d: %v", userID, err)
		}
	}
	return nil
}

func (s *RepositoryStore) Load(ctx context.Context, userID uint) (*State, error) {
	if s.cacheTTL > 0 {
		var st State
		err := cache.GetJSON(ctx, cacheKey(userID), &st)
		if err == nil {
			return &st, nil
		}
		if !cache.IsMiss(err) {
			log.Warnf("[Entitlements] Cache read failed for user %d: %v", userID, err)
		}
	}

	row, err := s.repo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &State{
		Subscribed:      row.Subscribed,
		ProductID:       row.ProductID,
		SubscriptionEnd: row.SubscriptionEnd,
		Source:          Source(row.Source),
		CheckedAt:       row.CheckedAt,
	}, nil
}

func (s *RepositoryStore) Delete(ctx context.Context, userID uint) error {
	if s.cacheTTL > 0 {
		if err := cache.GetClient().Del(ctx, cacheKey(userID)).Err(); err != nil {
			log.Warnf("[Entitlements] Failed to drop cached state for user %d: %v", userID, err)
		}
	}
	return s.repo.DeleteByUserID(userID)
}
