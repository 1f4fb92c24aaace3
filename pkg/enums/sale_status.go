package enums

import "fmt"

// SaleStatus marks a sale as completed or voided. Sales are immutable; a void
// is recorded as a compensating ledger entry, never an edit.
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusVoid      SaleStatus = "VOID"
)

var validSaleStatuses = []SaleStatus{SaleStatusCompleted, SaleStatusVoid}

// IsValid reports whether the value matches the canonical sale status enum.
func (s SaleStatus) IsValid() bool {
	for _, candidate := range validSaleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSaleStatus converts raw input into SaleStatus.
func ParseSaleStatus(value string) (SaleStatus, error) {
	for _, candidate := range validSaleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale status %q", value)
}
