package billing

import (
	"context"
	"time"

	"github.com/ManuelReschke/CashFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the persistence the billing service needs: customer links,
// mirrored subscriptions, plan mappings, the webhook log and the plan column
// of user_settings.
type Repository interface {
	PlanMapping(ctx context.Context, provider, productID string) (*models.BillingPlanMapping, error)

	LinkCustomer(ctx context.Context, account *models.BillingAccount) error
	AccountByCustomer(ctx context.Context, provider, customerID string) (*models.BillingAccount, error)
	AccountByUser(ctx context.Context, userID uint, provider string) (*models.BillingAccount, error)

	SaveSubscription(ctx context.Context, sub *models.BillingSubscription) error
	SubscriptionsByUser(ctx context.Context, userID uint) ([]models.BillingSubscription, error)

	SetPlan(ctx context.Context, userID uint, plan string) (changed bool, err error)

	RecordDelivery(ctx context.Context, event *models.BillingWebhookEvent) (created bool, stored *models.BillingWebhookEvent, err error)
	FinishDelivery(ctx context.Context, id uint, at time.Time, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) PlanMapping(ctx context.Context, provider, productID string) (*models.BillingPlanMapping, error) {
	var m models.BillingPlanMapping
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_plan_ref = ? AND is_active = ?", provider, productID, true).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// LinkCustomer stores the user's provider customer. A user has one customer
// per provider, so an older link of the same user is dropped first.
func (r *gormRepository) LinkCustomer(ctx context.Context, account *models.BillingAccount) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("user_id = ? AND provider = ? AND provider_account_id <> ?", account.UserID, account.Provider, account.ProviderAccountID).
			Delete(&models.BillingAccount{}).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "email", "updated_at"}),
		}).Create(account).Error; err != nil {
			return err
		}
		return tx.Where("provider = ? AND provider_account_id = ?", account.Provider, account.ProviderAccountID).
			First(account).Error
	})
}

func (r *gormRepository) AccountByCustomer(ctx context.Context, provider, customerID string) (*models.BillingAccount, error) {
	return r.account(ctx, "provider = ? AND provider_account_id = ?", provider, customerID)
}

func (r *gormRepository) AccountByUser(ctx context.Context, userID uint, provider string) (*models.BillingAccount, error) {
	return r.account(ctx, "user_id = ? AND provider = ?", userID, provider)
}

func (r *gormRepository) account(ctx context.Context, query string, args ...interface{}) (*models.BillingAccount, error) {
	var account models.BillingAccount
	if err := r.db.WithContext(ctx).Where(query, args...).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// SaveSubscription upserts on (provider, subscription id) and reloads the
// row so the caller sees its id.
func (r *gormRepository) SaveSubscription(ctx context.Context, sub *models.BillingSubscription) error {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider"}, {Name: "provider_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "provider_plan_ref", "internal_plan", "status", "current_period_end", "updated_at",
		}),
	}).Create(sub).Error
	if err != nil {
		return err
	}
	return db.Where("provider = ? AND provider_subscription_id = ?", sub.Provider, sub.ProviderSubscriptionID).
		First(sub).Error
}

func (r *gormRepository) SubscriptionsByUser(ctx context.Context, userID uint) ([]models.BillingSubscription, error) {
	var subs []models.BillingSubscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("updated_at DESC").Find(&subs).Error
	return subs, err
}

// SetPlan writes the plan into the user's settings, creating them on first
// use. Unchanged plans are not written.
func (r *gormRepository) SetPlan(ctx context.Context, userID uint, plan string) (bool, error) {
	db := r.db.WithContext(ctx)
	us, err := models.GetOrCreateUserSettings(db, userID)
	if err != nil {
		return false, err
	}
	if normalizePlan(us.Plan) == plan {
		return false, nil
	}
	us.Plan = plan
	if err := db.Save(us).Error; err != nil {
		return false, err
	}
	return true, nil
}

// RecordDelivery inserts the event unless (provider, event id) is already
// stored, and returns the stored row either way.
func (r *gormRepository) RecordDelivery(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	db := r.db.WithContext(ctx)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(event)
	if res.Error != nil {
		return false, nil, res.Error
	}

	var stored models.BillingWebhookEvent
	if err := db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return res.RowsAffected > 0, &stored, nil
}

func (r *gormRepository) FinishDelivery(ctx context.Context, id uint, at time.Time, processingError string) error {
	return r.db.WithContext(ctx).Model(&models.BillingWebhookEvent{}).Where("id = ?", id).
		Updates(map[string]interface{}{"processed_at": at, "processing_error": processingError}).Error
}
