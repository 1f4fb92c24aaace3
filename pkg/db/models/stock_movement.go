package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/omarfadal/suuqpos-backend/pkg/enums"
)

// StockMovement is an append-only inventory movement in canonical kilograms.
// Positive KgChange is stock in, negative is stock out.
type StockMovement struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	BranchID    string                  `gorm:"column:branch_id;not null;index"`
	ProductID   uuid.UUID               `gorm:"column:product_id;type:uuid;not null;index"`
	Type        enums.StockMovementType `gorm:"column:type;not null"`
	KgChange    float64                 `gorm:"column:kg_change;not null"`
	ReferenceID string                  `gorm:"column:reference_id;not null;index"`
	Note        *string                 `gorm:"column:note"`
	ClientTxnID *string                 `gorm:"column:client_txn_id;index"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime;index"`
}
