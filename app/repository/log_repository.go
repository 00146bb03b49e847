package repository

import (
	"github.com/ManuelReschke/CashFox/app/models"
	"gorm.io/gorm"
)

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(entry *models.NotificationLog) error {
	return r.db.Create(entry).Error
}

func (r *notificationRepository) ListByUser(userID uint, limit int) ([]models.NotificationLog, error) {
	var entries []models.NotificationLog
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Create(entry *models.AnalysisLog) error {
	return r.db.Create(entry).Error
}

func (r *analysisRepository) ListByUser(userID uint, limit int) ([]models.AnalysisLog, error) {
	var entries []models.AnalysisLog
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
