package ids

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewClientTxnID builds the device-scoped idempotency key for an outbox
// event: `<deviceId>-<unixMillis>-<uuid>`. Generated exactly once per event
// and never regenerated on retry.
func NewClientTxnID(deviceID string) string {
	if deviceID == "" {
		deviceID = "pos"
	}
	return fmt.Sprintf("%s-%d-%s", deviceID, time.Now().UnixMilli(), uuid.NewString())
}

// NewReferenceID builds a human-scannable reference for ledger and movement
// rows, e.g. `MOV-1700000000000`.
func NewReferenceID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixMilli())
}

// NewReceiptNo returns a short receipt number for printing.
func NewReceiptNo() string {
	ms := fmt.Sprintf("%d", time.Now().UnixMilli())
	if len(ms) <= 6 {
		return ms
	}
	return ms[len(ms)-6:]
}
