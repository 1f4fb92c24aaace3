package models

import (
	"encoding/json"
	"time"

	"github.com/omarfadal/suuqpos-backend/pkg/enums"
)

// OutboxEntry queues a committed local fact for eventual remote application.
// ClientTxnID is the device-generated idempotency key; it is assigned once at
// event creation and never regenerated on retry.
type OutboxEntry struct {
	ID            int64                 `gorm:"column:id;primaryKey;autoIncrement"`
	ClientTxnID   string                `gorm:"column:client_txn_id;not null;uniqueIndex"`
	EventType     enums.OutboxEventType `gorm:"column:event_type;not null;index"`
	Payload       json.RawMessage       `gorm:"column:payload;not null"`
	Status        enums.OutboxStatus    `gorm:"column:status;not null;default:'PENDING';index"`
	Attempts      int                   `gorm:"column:attempts;not null;default:0"`
	LastAttemptAt *time.Time            `gorm:"column:last_attempt_at"`
	LastError     *string               `gorm:"column:last_error"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime;index"`
}
