package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/omarfadal/suuqpos-backend/pkg/enums"
)

// Sale is immutable once created. TotalAmount always equals
// PaidAmount + CreditAmount.
type Sale struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	BranchID      string              `gorm:"column:branch_id;not null;index"`
	CustomerID    *uuid.UUID          `gorm:"column:customer_id;type:uuid;index"`
	CustomerName  *string             `gorm:"column:customer_name"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(14,2);not null"`
	PaidAmount    decimal.Decimal     `gorm:"column:paid_amount;type:numeric(14,2);not null"`
	CreditAmount  decimal.Decimal     `gorm:"column:credit_amount;type:numeric(14,2);not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`
	Status        enums.SaleStatus    `gorm:"column:status;not null;default:'COMPLETED'"`
	ClientTxnID   string              `gorm:"column:client_txn_id;not null;uniqueIndex"`
	CashierUserID *string             `gorm:"column:cashier_user_id"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime;index"`

	Items []SaleItem `gorm:"foreignKey:SaleID;references:ID"`
}

// SaleItem snapshots a cart line. KgCalculated is the canonical quantity used
// for all inventory arithmetic regardless of the unit transacted.
type SaleItem struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SaleID             uuid.UUID       `gorm:"column:sale_id;type:uuid;not null;uniqueIndex:idx_sale_items_sale_position"`
	ProductID          uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	NameSnapshot       string          `gorm:"column:name_snapshot;not null"`
	UnitUsed           enums.Unit      `gorm:"column:unit_used;not null"`
	Quantity           float64         `gorm:"column:quantity;not null"`
	KgCalculated       float64         `gorm:"column:kg_calculated;not null"`
	PricePerKgSnapshot decimal.Decimal `gorm:"column:price_per_kg_snapshot;type:numeric(14,2);not null"`
	LineTotal          decimal.Decimal `gorm:"column:line_total;type:numeric(14,2);not null"`
	Position           int             `gorm:"column:position;not null;uniqueIndex:idx_sale_items_sale_position"`
}
