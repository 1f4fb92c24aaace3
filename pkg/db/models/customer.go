package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/omarfadal/suuqpos-backend/pkg/enums"
)

// Customer carries the denormalized balance cache mirrored from the latest
// ledger entry. The balance engine owns CurrentBalance exclusively; any read
// that suspects drift recomputes from the ledger.
type Customer struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Name           string               `gorm:"column:name;not null;index"`
	Phone          string               `gorm:"column:phone;index"`
	Address        *string              `gorm:"column:address"`
	CreditLimit    decimal.Decimal      `gorm:"column:credit_limit;type:numeric(14,2);not null"`
	CurrentBalance decimal.Decimal      `gorm:"column:current_balance;type:numeric(14,2);not null"`
	Status         enums.CustomerStatus `gorm:"column:status;not null;default:'ACTIVE'"`
	LastPurchaseAt *time.Time           `gorm:"column:last_purchase_at"`
	LastPaymentAt  *time.Time           `gorm:"column:last_payment_at"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
