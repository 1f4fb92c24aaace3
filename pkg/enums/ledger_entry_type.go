package enums

import "fmt"

// LedgerEntryType classifies an append-only balance-affecting entry.
type LedgerEntryType string

const (
	LedgerEntrySale       LedgerEntryType = "SALE"
	LedgerEntryPurchase   LedgerEntryType = "PURCHASE"
	LedgerEntryPayment    LedgerEntryType = "PAYMENT"
	LedgerEntryAdjustment LedgerEntryType = "ADJUSTMENT"
	LedgerEntryReturn     LedgerEntryType = "RETURN"
	LedgerEntryVoid       LedgerEntryType = "VOID"
)

var validCustomerEntryTypes = []LedgerEntryType{
	LedgerEntrySale,
	LedgerEntryPayment,
	LedgerEntryAdjustment,
	LedgerEntryVoid,
}

var validSupplierEntryTypes = []LedgerEntryType{
	LedgerEntryPurchase,
	LedgerEntryPayment,
	LedgerEntryAdjustment,
	LedgerEntryReturn,
}

// IsValidForCustomer reports whether the type can appear on a customer ledger.
func (t LedgerEntryType) IsValidForCustomer() bool {
	for _, candidate := range validCustomerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsValidForSupplier reports whether the type can appear on a supplier ledger.
func (t LedgerEntryType) IsValidForSupplier() bool {
	for _, candidate := range validSupplierEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerEntryType converts raw input into LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range []LedgerEntryType{
		LedgerEntrySale, LedgerEntryPurchase, LedgerEntryPayment,
		LedgerEntryAdjustment, LedgerEntryReturn, LedgerEntryVoid,
	} {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
