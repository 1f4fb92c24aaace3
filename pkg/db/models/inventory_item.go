package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem is the per-(product, branch) stock aggregate kept in lockstep
// with stock movements. Created lazily on the first movement for the pair.
// Negative StockKg is permitted (oversell is allowed at the till).
type InventoryItem struct {
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	BranchID    string    `gorm:"column:branch_id;primaryKey"`
	StockKg     float64   `gorm:"column:stock_kg;not null"`
	LastUpdated time.Time `gorm:"column:last_updated;autoUpdateTime"`
}
