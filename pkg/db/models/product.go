package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/omarfadal/suuqpos-backend/pkg/enums"
)

// Product is the catalog entry a cart line points at. BagSizeKg drives the
// BAG-to-kilogram canonicalization at sale construction.
type Product struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name       string          `gorm:"column:name;not null"`
	CategoryID string          `gorm:"column:category_id;index"`
	Barcode    *string         `gorm:"column:barcode;index"`
	BaseUnit   enums.Unit      `gorm:"column:base_unit;not null"`
	BagSizeKg  *float64        `gorm:"column:bag_size_kg"`
	PricePerKg decimal.Decimal `gorm:"column:price_per_kg;type:numeric(14,2);not null"`
	CostPerKg  decimal.Decimal `gorm:"column:cost_per_kg;type:numeric(14,2);not null"`
	IsActive   bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
