package enums

import "fmt"

// OutboxStatus is the sync lifecycle state of a queued domain event.
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "PENDING"
	OutboxStatusSynced  OutboxStatus = "SYNCED"
	OutboxStatusFailed  OutboxStatus = "FAILED"
)

var validOutboxStatuses = []OutboxStatus{
	OutboxStatusPending,
	OutboxStatusSynced,
	OutboxStatusFailed,
}

// IsValid reports whether the value matches the canonical outbox status enum.
func (s OutboxStatus) IsValid() bool {
	for _, candidate := range validOutboxStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOutboxStatus converts raw input into OutboxStatus.
func ParseOutboxStatus(value string) (OutboxStatus, error) {
	for _, candidate := range validOutboxStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox status %q", value)
}

// OutboxEventType classifies the domain payload carried by a queue row.
// Only SALE events are drained by the sync engine today; the remaining types
// are reserved for the event kinds the local store already records.
type OutboxEventType string

const (
	OutboxEventSale          OutboxEventType = "SALE"
	OutboxEventPayment       OutboxEventType = "PAYMENT"
	OutboxEventStockMovement OutboxEventType = "STOCK_MOVEMENT"
	OutboxEventLedger        OutboxEventType = "LEDGER"
)

var validOutboxEventTypes = []OutboxEventType{
	OutboxEventSale,
	OutboxEventPayment,
	OutboxEventStockMovement,
	OutboxEventLedger,
}

// IsValid reports whether the value matches the canonical event type enum.
func (t OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
