package repository

import (
	"time"

	"github.com/ManuelReschke/CashFox/app/models"
	"gorm.io/gorm"
)

type billRepository struct {
	OwnedRepository[models.Bill]
	db *gorm.DB
}

// NewBillRepository creates a bill repository ordered by due date.
func NewBillRepository(db *gorm.DB) BillRepository {
	return &billRepository{
		OwnedRepository: NewOwnedRepository[models.Bill](db, "due_date ASC, id ASC"),
		db:              db,
	}
}

// DueForReminder returns unpaid bills due from today through the last calendar
// day covered by within that were not reminded during the last gap. Due dates
// are stored as UTC midnight, so today is taken from now's own calendar date.
func (r *billRepository) DueForReminder(now time.Time, within, gap time.Duration, limit int) ([]models.Bill, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var bills []models.Bill
	q := r.db.
		Where("is_paid = ?", false).
		Where("due_date >= ? AND due_date < ?", today, today.Add(within+24*time.Hour)).
		Where("(reminded_at IS NULL OR reminded_at < ?)", now.Add(-gap).UTC()).
		Order("due_date ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&bills).Error
	return bills, err
}

func (r *billRepository) MarkReminded(id uint, at time.Time) error {
	return r.db.Model(&models.Bill{}).Where("id = ?", id).Update("reminded_at", at.UTC()).Error
}
