package enums

import "fmt"

// CustomerStatus gates whether a customer may transact on credit.
type CustomerStatus string

const (
	CustomerStatusActive  CustomerStatus = "ACTIVE"
	CustomerStatusBlocked CustomerStatus = "BLOCKED"
)

var validCustomerStatuses = []CustomerStatus{CustomerStatusActive, CustomerStatusBlocked}

// IsValid reports whether the value matches the canonical customer status enum.
func (s CustomerStatus) IsValid() bool {
	for _, candidate := range validCustomerStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCustomerStatus converts raw input into CustomerStatus.
func ParseCustomerStatus(value string) (CustomerStatus, error) {
	for _, candidate := range validCustomerStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer status %q", value)
}

// SupplierStatus marks whether a supplier account is in use.
type SupplierStatus string

const (
	SupplierStatusActive   SupplierStatus = "ACTIVE"
	SupplierStatusInactive SupplierStatus = "INACTIVE"
)

var validSupplierStatuses = []SupplierStatus{SupplierStatusActive, SupplierStatusInactive}

// IsValid reports whether the value matches the canonical supplier status enum.
func (s SupplierStatus) IsValid() bool {
	for _, candidate := range validSupplierStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSupplierStatus converts raw input into SupplierStatus.
func ParseSupplierStatus(value string) (SupplierStatus, error) {
	for _, candidate := range validSupplierStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid supplier status %q", value)
}
