package models

import "time"

// EntitlementState is the cached result of the last entitlement resolution
// for a user. Rows are replaced wholesale on every resolution.
type EntitlementState struct {
	ID              uint       `gorm:"primaryKey" json:"-"`
	UserID          uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	Subscribed      bool       `gorm:"not null;default:false" json:"subscribed"`
	ProductID       *string    `gorm:"type:varchar(191);default:null" json:"product_id"`
	SubscriptionEnd *time.Time `gorm:"default:null" json:"subscription_end"`
	Source          string     `gorm:"type:varchar(20);not null;default:'none'" json:"source"`
	CheckedAt       time.Time  `gorm:"not null;index" json:"checked_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (EntitlementState) TableName() string { return "subscription_status" }
