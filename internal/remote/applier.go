package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/omarfadal/suuqpos-backend/internal/outbox"
	"github.com/omarfadal/suuqpos-backend/pkg/db"
	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
	"github.com/omarfadal/suuqpos-backend/pkg/enums"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
	"github.com/omarfadal/suuqpos-backend/pkg/logger"
)

// Applier replays queued local facts against the shared remote store. Every
// apply runs in one remote transaction with the sync_logs marker written
// last, so the marker's presence is proof the whole apply committed.
type Applier struct {
	remote *db.Client
	logg   *logger.Logger
}

// ApplierParams wires an Applier.
type ApplierParams struct {
	Remote *db.Client
	Logger *logger.Logger
}

// NewApplier builds a remote applier.
func NewApplier(params ApplierParams) (*Applier, error) {
	if params.Remote == nil {
		return nil, fmt.Errorf("remote db client required")
	}
	return &Applier{remote: params.Remote, logg: params.Logger}, nil
}

// Apply dispatches a queue row to its event handler.
func (a *Applier) Apply(ctx context.Context, entry models.OutboxEntry) error {
	switch entry.EventType {
	case enums.OutboxEventSale:
		payload, err := outbox.UnmarshalSalePayload(entry.Payload)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "undecodable sale payload")
		}
		if payload.ClientTxnID != entry.ClientTxnID {
			return pkgerrors.New(pkgerrors.CodeConflict, "payload key does not match queue row key")
		}
		return a.ApplySale(ctx, payload)
	default:
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("no remote handler for event type %q", entry.EventType))
	}
}

// ApplySale applies one sale exactly once. Re-applying an already-applied
// payload returns CodeAlreadyApplied without touching any row; the caller
// treats that as success.
func (a *Applier) ApplySale(ctx context.Context, payload outbox.SalePayload) error {
	err := a.remote.WithTx(ctx, func(tx *gorm.DB) error {
		applied, err := markerExists(tx, payload.ClientTxnID)
		if err != nil {
			return err
		}
		if applied {
			return pkgerrors.New(pkgerrors.CodeAlreadyApplied, "sale already applied")
		}

		if err := upsertSale(tx, payload); err != nil {
			return err
		}
		if payload.CustomerID != nil {
			if err := applyCustomerLedger(tx, payload); err != nil {
				return err
			}
		}
		if err := applyStock(tx, payload); err != nil {
			return err
		}

		marker := models.SyncLog{
			ClientTxnID: payload.ClientTxnID,
			EventType:   enums.OutboxEventSale,
			SaleID:      payload.SaleID,
			BranchID:    payload.BranchID,
			DeviceID:    payload.DeviceID,
			AppliedAt:   time.Now(),
		}
		if err := tx.Create(&marker).Error; err != nil {
			if db.IsUniqueViolation(err, "sync_logs_pkey") {
				// Another device won the race; the fact is applied.
				return pkgerrors.New(pkgerrors.CodeAlreadyApplied, "sale applied concurrently")
			}
			return err
		}
		return nil
	})
	if err != nil {
		if pkgerrors.CodeOf(err) == pkgerrors.CodeAlreadyApplied {
			a.logAlreadyApplied(ctx, payload)
			return err
		}
		return classify(err)
	}

	a.logApplied(ctx, payload)
	return nil
}

func markerExists(tx *gorm.DB, clientTxnID string) (bool, error) {
	var marker models.SyncLog
	err := tx.First(&marker, "client_txn_id = ?", clientTxnID).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// upsertSale inserts the sale and its items, tolerating leftovers from a
// crashed earlier attempt that never reached the marker.
func upsertSale(tx *gorm.DB, payload outbox.SalePayload) error {
	sale := models.Sale{
		ID:            payload.SaleID,
		BranchID:      payload.BranchID,
		CustomerID:    payload.CustomerID,
		CustomerName:  payload.CustomerName,
		TotalAmount:   payload.TotalAmount,
		PaidAmount:    payload.PaidAmount,
		CreditAmount:  payload.CreditAmount,
		PaymentMethod: payload.PaymentMethod,
		Status:        enums.SaleStatusCompleted,
		ClientTxnID:   payload.ClientTxnID,
		CashierUserID: payload.CashierUserID,
		CreatedAt:     payload.SoldAt,
	}
	if err := tx.Omit("Items").Clauses(clause.OnConflict{DoNothing: true}).Create(&sale).Error; err != nil {
		return err
	}

	for _, line := range payload.Lines {
		item := models.SaleItem{
			ID:                 uuid.New(),
			SaleID:             payload.SaleID,
			ProductID:          line.ProductID,
			NameSnapshot:       line.NameSnapshot,
			UnitUsed:           line.UnitUsed,
			Quantity:           line.Quantity,
			KgCalculated:       line.KgCalculated,
			PricePerKgSnapshot: line.PricePerKg,
			LineTotal:          line.LineTotal,
			Position:           line.Position,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sale_id"}, {Name: "position"}},
			DoNothing: true,
		}).Create(&item).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// applyCustomerLedger records the sale on the shared receivable ledger: a
// SALE entry for the full amount, then a PAYMENT entry for what was settled
// at the till. The running balance is read fresh inside this transaction,
// never trusted from the payload.
func applyCustomerLedger(tx *gorm.DB, payload outbox.SalePayload) error {
	customer, err := ensureCustomer(tx, payload)
	if err != nil {
		return err
	}

	balance := customer.CurrentBalance
	now := time.Now()

	balance = balance.Add(payload.TotalAmount)
	saleEntry := models.CustomerLedgerEntry{
		ID:           uuid.New(),
		CustomerID:   *payload.CustomerID,
		BranchID:     payload.BranchID,
		Type:         enums.LedgerEntrySale,
		Amount:       payload.TotalAmount,
		BalanceAfter: balance,
		ReferenceID:  payload.SaleID.String(),
		ClientTxnID:  &payload.ClientTxnID,
		CreatedAt:    now,
	}
	if err := tx.Create(&saleEntry).Error; err != nil {
		return err
	}

	if payload.PaidAmount.IsPositive() {
		balance = balance.Sub(payload.PaidAmount)
		paymentEntry := models.CustomerLedgerEntry{
			ID:           uuid.New(),
			CustomerID:   *payload.CustomerID,
			BranchID:     payload.BranchID,
			Type:         enums.LedgerEntryPayment,
			Amount:       payload.PaidAmount.Neg(),
			BalanceAfter: balance,
			ReferenceID:  payload.SaleID.String(),
			ClientTxnID:  &payload.ClientTxnID,
			CreatedAt:    now,
		}
		if err := tx.Create(&paymentEntry).Error; err != nil {
			return err
		}
	}

	// Commutative balance bump; the net effect equals the credit portion.
	net := payload.TotalAmount.Sub(payload.PaidAmount)
	updates := map[string]any{
		"current_balance":  gorm.Expr("current_balance + ?", net),
		"last_purchase_at": now,
	}
	if payload.PaidAmount.IsPositive() {
		updates["last_payment_at"] = now
	}
	return tx.Model(&models.Customer{}).
		Where("id = ?", *payload.CustomerID).
		Updates(updates).Error
}

// ensureCustomer loads the shared customer row, creating a shell record when
// the customer was registered on a device that has not synced its roster.
func ensureCustomer(tx *gorm.DB, payload outbox.SalePayload) (*models.Customer, error) {
	var customer models.Customer
	err := tx.First(&customer, "id = ?", *payload.CustomerID).Error
	if err == nil {
		return &customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	name := ""
	if payload.CustomerName != nil {
		name = *payload.CustomerName
	}
	customer = models.Customer{
		ID:             *payload.CustomerID,
		Name:           name,
		CreditLimit:    decimal.Zero,
		CurrentBalance: decimal.Zero,
		Status:         enums.CustomerStatusActive,
		CreatedAt:      time.Now(),
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// applyStock appends one movement per line and bumps the shared inventory
// aggregates with commutative increments, so concurrent devices never
// overwrite each other's levels.
func applyStock(tx *gorm.DB, payload outbox.SalePayload) error {
	now := time.Now()
	for _, line := range payload.Lines {
		movement := models.StockMovement{
			ID:          uuid.New(),
			BranchID:    payload.BranchID,
			ProductID:   line.ProductID,
			Type:        enums.StockMovementSale,
			KgChange:    -line.KgCalculated,
			ReferenceID: payload.SaleID.String(),
			ClientTxnID: &payload.ClientTxnID,
			CreatedAt:   now,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return err
		}

		item := models.InventoryItem{
			ProductID:   line.ProductID,
			BranchID:    payload.BranchID,
			StockKg:     -line.KgCalculated,
			LastUpdated: now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}, {Name: "branch_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"stock_kg":     gorm.Expr("stock_kg + ?", -line.KgCalculated),
				"last_updated": now,
			}),
		}).Create(&item).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *Applier) logApplied(ctx context.Context, payload outbox.SalePayload) {
	if a.logg == nil {
		return
	}
	ctx = a.logg.WithClientTxnID(ctx, payload.ClientTxnID)
	ctx = a.logg.WithField(ctx, "sale_id", payload.SaleID.String())
	a.logg.Info(ctx, "sale applied to remote store")
}

func (a *Applier) logAlreadyApplied(ctx context.Context, payload outbox.SalePayload) {
	if a.logg == nil {
		return
	}
	ctx = a.logg.WithClientTxnID(ctx, payload.ClientTxnID)
	a.logg.Debug(ctx, "sale already applied, skipping")
}
