package repository

import (
	"time"

	"github.com/ManuelReschke/CashFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type entitlementRepository struct {
	db *gorm.DB
}

func NewEntitlementRepository(db *gorm.DB) EntitlementRepository {
	return &entitlementRepository{db: db}
}

// Upsert replaces the stored state for the user. Nothing is merged.
func (r *entitlementRepository) Upsert(state *models.EntitlementState) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"subscribed",
			"product_id",
			"subscription_end",
			"source",
			"checked_at",
			"updated_at",
		}),
	}).Create(state).Error
}

func (r *entitlementRepository) GetByUserID(userID uint) (*models.EntitlementState, error) {
	var state models.EntitlementState
	if err := r.db.Where("user_id = ?", userID).First(&state).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *entitlementRepository) DeleteByUserID(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.EntitlementState{}).Error
}

// ListStale pages through states checked before the given time, ordered by user id.
func (r *entitlementRepository) ListStale(before time.Time, afterUserID uint, limit int) ([]models.EntitlementState, error) {
	var states []models.EntitlementState
	err := r.db.
		Where("checked_at < ? AND user_id > ?", before, afterUserID).
		Order("user_id ASC").
		Limit(limit).
		Find(&states).Error
	return states, err
}
