package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/omarfadal/suuqpos-backend/pkg/enums"
)

// SupplierLedgerEntry is an immutable payable event with the same running-sum
// discipline as the customer ledger. Positive amounts increase what the shop
// owes; payments carry negative amounts.
type SupplierLedgerEntry struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	SupplierID       uuid.UUID             `gorm:"column:supplier_id;type:uuid;not null;index"`
	BranchID         string                `gorm:"column:branch_id;not null;index"`
	Type             enums.LedgerEntryType `gorm:"column:type;not null"`
	Amount           decimal.Decimal       `gorm:"column:amount;type:numeric(14,2);not null"`
	BalanceAfter     decimal.Decimal       `gorm:"column:balance_after;type:numeric(14,2);not null"`
	ReferenceID      string                `gorm:"column:reference_id;not null;index"`
	PaymentChannel   *enums.PaymentChannel `gorm:"column:payment_channel"`
	PaymentReference *string               `gorm:"column:payment_reference"`
	Note             *string               `gorm:"column:note"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime;index"`
}
