package enums

import "fmt"

// StockMovementType classifies an append-only inventory movement.
type StockMovementType string

const (
	StockMovementPurchase    StockMovementType = "PURCHASE"
	StockMovementSale        StockMovementType = "SALE"
	StockMovementReturn      StockMovementType = "RETURN"
	StockMovementTransferOut StockMovementType = "TRANSFER_OUT"
	StockMovementTransferIn  StockMovementType = "TRANSFER_IN"
	StockMovementAdjustment  StockMovementType = "ADJUSTMENT"
	StockMovementWastage     StockMovementType = "WASTAGE"
)

var validStockMovementTypes = []StockMovementType{
	StockMovementPurchase,
	StockMovementSale,
	StockMovementReturn,
	StockMovementTransferOut,
	StockMovementTransferIn,
	StockMovementAdjustment,
	StockMovementWastage,
}

// IsValid reports whether the value matches the canonical movement enum.
func (t StockMovementType) IsValid() bool {
	for _, candidate := range validStockMovementTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseStockMovementType converts raw input into StockMovementType.
func ParseStockMovementType(value string) (StockMovementType, error) {
	for _, candidate := range validStockMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock movement type %q", value)
}
