package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction kinds as they appear in exports.
const (
	KindExpense    = "Expense"
	KindIncome     = "Income"
	KindInvestment = "Investment"
)

type Expense struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount" validate:"gte=0"`
	Category    string          `gorm:"type:varchar(100);not null;index" json:"category" validate:"required,expense_category"`
	Description string          `gorm:"type:text" json:"description" validate:"max=1000"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (e Expense) GetAmount() decimal.Decimal { return e.Amount }
func (e Expense) GetGroup() string { return e.Category }
func (e Expense) GetDate() time.Time { return e.Date }
func (e Expense) GetDescription() string { return e.Description }
func (e Expense) Kind() string { return KindExpense }

type Income struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount" validate:"gte=0"`
	Source      string          `gorm:"type:varchar(100);not null;index" json:"source" validate:"required,income_source"`
	Description string          `gorm:"type:text" json:"description" validate:"max=1000"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName keeps the table name singular, matching the client collections.
func (Income) TableName() string { return "income" }

func (i Income) GetAmount() decimal.Decimal { return i.Amount }
func (i Income) GetGroup() string { return i.Source }
func (i Income) GetDate() time.Time { return i.Date }
func (i Income) GetDescription() string { return i.Description }
func (i Income) Kind() string { return KindIncome }

type Investment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount" validate:"gte=0"`
	Type        string          `gorm:"type:varchar(100);not null;index" json:"type" validate:"required,investment_type"`
	Description string          `gorm:"type:text" json:"description" validate:"max=1000"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (i Investment) GetAmount() decimal.Decimal { return i.Amount }
func (i Investment) GetGroup() string { return i.Type }
func (i Investment) GetDate() time.Time { return i.Date }
func (i Investment) GetDescription() string { return i.Description }
func (i Investment) Kind() string { return KindInvestment }
