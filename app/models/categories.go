package models

import "slices"

// Category labels offered by the clients. Stored values must be one of these.
var (
	ExpenseCategories = []string{
		"Food & Dining",
		"Transportation",
		"Housing",
		"Utilities",
		"Healthcare",
		"Entertainment",
		"Shopping",
		"Monthly Expense",
		"Other",
	}

	IncomeSources = []string{
		"Salary",
		"Freelance",
		"Business",
		"Investments",
		"Rental",
		"Other",
	}

	InvestmentTypes = []string{
		"Stocks",
		"Bonds",
		"Real Estate",
		"Cryptocurrency",
		"Mutual Funds",
		"Retirement Account",
		"Other",
	}
)

// CategoryOther is the bucket used for blank or unknown groups.
const CategoryOther = "Other"

func IsExpenseCategory(s string) bool {
	return slices.Contains(ExpenseCategories, s)
}

func IsIncomeSource(s string) bool {
	return slices.Contains(IncomeSources, s)
}

func IsInvestmentType(s string) bool {
	return slices.Contains(InvestmentTypes, s)
}
