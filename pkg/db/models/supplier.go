package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/omarfadal/suuqpos-backend/pkg/enums"
)

// Supplier mirrors the latest payable balance. Positive balance means the
// shop owes the supplier.
type Supplier struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Name           string               `gorm:"column:name;not null;index"`
	Phone          *string              `gorm:"column:phone"`
	Email          *string              `gorm:"column:email"`
	Address        *string              `gorm:"column:address"`
	Notes          *string              `gorm:"column:notes"`
	CurrentBalance decimal.Decimal      `gorm:"column:current_balance;type:numeric(14,2);not null"`
	Status         enums.SupplierStatus `gorm:"column:status;not null;default:'ACTIVE'"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
