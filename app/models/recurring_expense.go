package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

// RecurringExpense is a reminder template. Nothing generates expenses from it.
type RecurringExpense struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Description string          `gorm:"type:varchar(255);not null" json:"description" validate:"required,max=255"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount" validate:"gte=0"`
	Category    string          `gorm:"type:varchar(100);not null" json:"category" validate:"required,expense_category"`
	Frequency   string          `gorm:"type:varchar(16);not null;default:'monthly'" json:"frequency" validate:"oneof=daily weekly monthly yearly"`
	NextDueDate time.Time       `gorm:"not null;index" json:"next_due_date"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
