// Package export renders a user's transactions as CSV or PDF documents.
package export

import (
	"time"

	"github.com/ManuelReschke/CashFox/app/models"
)

// Data is everything that goes into one export, in display order.
type Data struct {
	Expenses    []models.Expense
	Income      []models.Income
	Investments []models.Investment
}

// Len is the number of exported records.
func (d Data) Len() int {
	return len(d.Expenses) + len(d.Income) + len(d.Investments)
}

func CSVFileName(now time.Time) string {
	return "financial-data-" + now.Format("2006-01-02") + ".csv"
}

func PDFFileName(now time.Time) string {
	return "financial-report-" + now.Format("2006-01-02") + ".pdf"
}
