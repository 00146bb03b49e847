package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"

	NotificationChannelSMS   = "sms"
	NotificationChannelEmail = "email"

	NotificationTypeGeneral      = "general"
	NotificationTypeBillReminder = "bill_reminder"

	// NotificationFailedMessage replaces the body of failed attempts in the log.
	NotificationFailedMessage = "Failed to send"
)

// NotificationLog records every outbound SMS or email attempt.
type NotificationLog struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"not null;index" json:"user_id"`
	NotificationType  string    `gorm:"type:varchar(50);not null;default:'general'" json:"notification_type"`
	Channel           string    `gorm:"type:varchar(10);not null;default:'sms'" json:"channel"`
	Message           string    `gorm:"type:text" json:"message"`
	Status            string    `gorm:"type:varchar(10);not null;index" json:"status"`
	ProviderMessageID string    `gorm:"type:varchar(100);default:''" json:"provider_message_id,omitempty"`
	CreatedAt         time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (NotificationLog) TableName() string { return "notification_log" }

// CreateNotificationLog stores one attempt. A blank type falls back to "general".
func CreateNotificationLog(db *gorm.DB, userID uint, notificationType, channel, message, status, providerID string) error {
	t := strings.TrimSpace(notificationType)
	if t == "" {
		t = NotificationTypeGeneral
	}
	entry := NotificationLog{
		UserID:            userID,
		NotificationType:  t,
		Channel:           channel,
		Message:           message,
		Status:            status,
		ProviderMessageID: providerID,
	}
	return db.Create(&entry).Error
}
