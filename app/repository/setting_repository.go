package repository

import (
	"time"

	"github.com/ManuelReschke/CashFox/app/models"
	"gorm.io/gorm"
)

// settingsRepository implements the SettingsRepository interface
type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new settings repository instance
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// GetOrCreate returns the user's settings, creating free-plan defaults on first access
func (r *settingsRepository) GetOrCreate(userID uint) (*models.UserSettings, error) {
	return models.GetOrCreateUserSettings(r.db, userID)
}

// Save validates and stores the settings
func (r *settingsRepository) Save(settings *models.UserSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return r.db.Save(settings).Error
}

// TouchAPIKey records the last time an API key was used
func (r *settingsRepository) TouchAPIKey(settingsID uint, at time.Time) error {
	return r.db.Model(&models.UserSettings{}).Where("id = ?", settingsID).Update("api_key_last_used_at", at).Error
}
