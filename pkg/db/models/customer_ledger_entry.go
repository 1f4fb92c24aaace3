package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/omarfadal/suuqpos-backend/pkg/enums"
)

// CustomerLedgerEntry is an immutable receivable event. BalanceAfter is the
// running-sum snapshot computed atomically with the insert; entries are never
// mutated or deleted (a VOID is a new entry).
type CustomerLedgerEntry struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID       uuid.UUID             `gorm:"column:customer_id;type:uuid;not null;index"`
	BranchID         string                `gorm:"column:branch_id;not null;index"`
	Type             enums.LedgerEntryType `gorm:"column:type;not null"`
	Amount           decimal.Decimal       `gorm:"column:amount;type:numeric(14,2);not null"`
	BalanceAfter     decimal.Decimal       `gorm:"column:balance_after;type:numeric(14,2);not null"`
	ReferenceID      string                `gorm:"column:reference_id;not null;index"`
	PaymentChannel   *enums.PaymentChannel `gorm:"column:payment_channel"`
	PaymentReference *string               `gorm:"column:payment_reference"`
	Note             *string               `gorm:"column:note"`
	ClientTxnID      *string               `gorm:"column:client_txn_id;index"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime;index"`
}
