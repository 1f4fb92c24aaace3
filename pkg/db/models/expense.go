package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/omarfadal/suuqpos-backend/pkg/enums"
)

// Expense records an operating cost against a branch.
type Expense struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	BranchID    string                `gorm:"column:branch_id;not null;index"`
	Category    enums.ExpenseCategory `gorm:"column:category;not null;index"`
	Amount      decimal.Decimal       `gorm:"column:amount;type:numeric(14,2);not null"`
	Description string                `gorm:"column:description;not null"`
	PaidVia     *enums.PaymentChannel `gorm:"column:paid_via"`
	Note        *string               `gorm:"column:note"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime;index"`
}
