package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/omarfadal/suuqpos-backend/pkg/enums"
)

// SaleLine is one cart line as carried over the wire. KgCalculated is the
// canonical quantity; the remote side never re-derives it from the unit.
type SaleLine struct {
	ProductID    uuid.UUID       `json:"productId"`
	NameSnapshot string          `json:"nameSnapshot"`
	UnitUsed     enums.Unit      `json:"unitUsed"`
	Quantity     float64         `json:"quantity"`
	KgCalculated float64         `json:"kgCalculated"`
	PricePerKg   decimal.Decimal `json:"pricePerKg"`
	LineTotal    decimal.Decimal `json:"lineTotal"`
	Position     int             `json:"position"`
}

// SalePayload is the self-contained description of a completed sale. The
// remote applier needs nothing from the local store beyond this payload plus
// the shared ClientTxnID key.
type SalePayload struct {
	SaleID        uuid.UUID           `json:"saleId"`
	ClientTxnID   string              `json:"clientTxnId"`
	BranchID      string              `json:"branchId"`
	DeviceID      string              `json:"deviceId"`
	CustomerID    *uuid.UUID          `json:"customerId,omitempty"`
	CustomerName  *string             `json:"customerName,omitempty"`
	TotalAmount   decimal.Decimal     `json:"totalAmount"`
	PaidAmount    decimal.Decimal     `json:"paidAmount"`
	CreditAmount  decimal.Decimal     `json:"creditAmount"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	CashierUserID *string             `json:"cashierUserId,omitempty"`
	SoldAt        time.Time           `json:"soldAt"`
	Lines         []SaleLine          `json:"lines"`
}

// Marshal renders the payload for storage in a queue row.
func (p SalePayload) Marshal() (json.RawMessage, error) {
	return json.Marshal(p)
}

// UnmarshalSalePayload parses a queue row payload back into a SalePayload.
func UnmarshalSalePayload(raw json.RawMessage) (SalePayload, error) {
	var p SalePayload
	err := json.Unmarshal(raw, &p)
	return p, err
}
