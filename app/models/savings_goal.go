package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrNonPositiveFunds = errors.New("amount to add must be greater than zero")

type SavingsGoal struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	Title         string          `gorm:"type:varchar(200);not null" json:"title" validate:"required,max=200"`
	TargetAmount  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"target_amount" validate:"gt=0"`
	CurrentAmount decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"current_amount" validate:"gte=0"`
	TargetDate    *time.Time      `gorm:"default:null" json:"target_date"`
	Category      string          `gorm:"type:varchar(100);default:''" json:"category"`
	Description   string          `gorm:"type:text" json:"description"`
	IsCompleted   bool            `gorm:"default:false" json:"is_completed"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// AddFunds increases the saved amount. The stored amount is never clamped to
// the target, and completion is recomputed on every call.
func (g *SavingsGoal) AddFunds(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveFunds
	}
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	g.RefreshCompletion()
	return nil
}

// RefreshCompletion sets IsCompleted from the current and target amounts.
func (g *SavingsGoal) RefreshCompletion() {
	g.IsCompleted = g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}
