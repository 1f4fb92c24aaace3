package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/omarfadal/suuqpos-backend/pkg/enums"
)

// SyncLog is the remote-side idempotency marker. A row exists for every
// clientTxnId that has been applied; the marker is written inside the same
// transaction as the mutations it guards, so its presence is proof of a
// complete apply.
type SyncLog struct {
	ClientTxnID string                `gorm:"column:client_txn_id;primaryKey"`
	EventType   enums.OutboxEventType `gorm:"column:event_type;not null"`
	SaleID      uuid.UUID             `gorm:"column:sale_id;type:uuid;not null"`
	BranchID    string                `gorm:"column:branch_id;not null"`
	DeviceID    string                `gorm:"column:device_id"`
	AppliedAt   time.Time             `gorm:"column:applied_at;autoCreateTime"`
}
