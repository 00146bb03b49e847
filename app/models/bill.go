package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Bill struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"not null;index" json:"user_id"`
	Title      string          `gorm:"type:varchar(200);not null" json:"title" validate:"required,max=200"`
	Amount     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount" validate:"gte=0"`
	DueDate    time.Time       `gorm:"not null;index" json:"due_date"`
	Category   string          `gorm:"type:varchar(100);default:''" json:"category"`
	Notes      string          `gorm:"type:text" json:"notes"`
	IsPaid     bool            `gorm:"default:false;index" json:"is_paid"`
	PaidDate   *time.Time      `gorm:"default:null" json:"paid_date"`
	RemindedAt *time.Time      `gorm:"default:null" json:"reminded_at,omitempty"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}

// MarkPaid flags the bill as paid at now.
func (b *Bill) MarkPaid(now time.Time) {
	b.IsPaid = true
	b.PaidDate = &now
}
