package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// Budget is a spending limit for one expense category per period. Spent and
// percentage are always derived from expenses, never stored.
type Budget struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	Category  string          `gorm:"type:varchar(100);not null" json:"category" validate:"required,expense_category"`
	Amount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount" validate:"gte=0"`
	Period    string          `gorm:"type:varchar(16);not null;default:'monthly'" json:"period" validate:"oneof=weekly monthly yearly"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}
