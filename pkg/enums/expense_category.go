package enums

import "fmt"

// ExpenseCategory buckets operating expenses for reporting.
type ExpenseCategory string

const (
	ExpenseSalary      ExpenseCategory = "SALARY"
	ExpenseRent        ExpenseCategory = "RENT"
	ExpenseElectricity ExpenseCategory = "ELECTRICITY"
	ExpenseWater       ExpenseCategory = "WATER"
	ExpenseInternet    ExpenseCategory = "INTERNET"
	ExpenseTransport   ExpenseCategory = "TRANSPORT"
	ExpenseSupplies    ExpenseCategory = "SUPPLIES"
	ExpenseMaintenance ExpenseCategory = "MAINTENANCE"
	ExpenseTax         ExpenseCategory = "TAX"
	ExpenseOther       ExpenseCategory = "OTHER"
)

var validExpenseCategories = []ExpenseCategory{
	ExpenseSalary,
	ExpenseRent,
	ExpenseElectricity,
	ExpenseWater,
	ExpenseInternet,
	ExpenseTransport,
	ExpenseSupplies,
	ExpenseMaintenance,
	ExpenseTax,
	ExpenseOther,
}

// IsValid reports whether the value matches the canonical expense category enum.
func (c ExpenseCategory) IsValid() bool {
	for _, candidate := range validExpenseCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseExpenseCategory converts raw input into ExpenseCategory.
func ParseExpenseCategory(value string) (ExpenseCategory, error) {
	for _, candidate := range validExpenseCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid expense category %q", value)
}
