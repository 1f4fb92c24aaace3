package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/omarfadal/suuqpos-backend/internal/outbox"
	"github.com/omarfadal/suuqpos-backend/pkg/db"
	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
	"github.com/omarfadal/suuqpos-backend/pkg/enums"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
)

func setupRemoteTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.Customer{},
		&models.CustomerLedgerEntry{},
		&models.Sale{},
		&models.SaleItem{},
		&models.StockMovement{},
		&models.InventoryItem{},
		&models.SyncLog{},
	))
	return conn
}

func newTestApplier(t *testing.T, conn *gorm.DB) *Applier {
	t.Helper()

	applier, err := NewApplier(ApplierParams{Remote: db.FromConn(conn)})
	require.NoError(t, err)
	return applier
}

func salePayload(customerID *uuid.UUID, customerName *string, total, paid string, lines ...outbox.SaleLine) outbox.SalePayload {
	totalAmount, _ := decimal.NewFromString(total)
	paidAmount, _ := decimal.NewFromString(paid)
	return outbox.SalePayload{
		SaleID:        uuid.New(),
		ClientTxnID:   fmt.Sprintf("dev-1-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8]),
		BranchID:      "b1",
		DeviceID:      "dev-1",
		CustomerID:    customerID,
		CustomerName:  customerName,
		TotalAmount:   totalAmount,
		PaidAmount:    paidAmount,
		CreditAmount:  totalAmount.Sub(paidAmount),
		PaymentMethod: enums.PaymentMethodMixed,
		SoldAt:        time.Now(),
		Lines:         lines,
	}
}

func kgLine(productID uuid.UUID, kg float64, position int) outbox.SaleLine {
	price := decimal.NewFromInt(1)
	return outbox.SaleLine{
		ProductID:    productID,
		NameSnapshot: "Rice",
		UnitUsed:     enums.UnitKG,
		Quantity:     kg,
		KgCalculated: kg,
		PricePerKg:   price,
		LineTotal:    price.Mul(decimal.NewFromFloat(kg)),
		Position:     position,
	}
}

func TestApplySaleWritesLedgerAndMarker(t *testing.T) {
	conn := setupRemoteTestDB(t)
	applier := newTestApplier(t, conn)
	ctx := context.Background()

	customerID := uuid.New()
	require.NoError(t, conn.Create(&models.Customer{
		ID:             customerID,
		Name:           "Asha",
		CreditLimit:    decimal.NewFromInt(1000),
		CurrentBalance: decimal.NewFromInt(100),
		Status:         enums.CustomerStatusActive,
	}).Error)

	productID := uuid.New()
	payload := salePayload(&customerID, nil, "110.00", "50.00", kgLine(productID, 110, 0))
	require.NoError(t, applier.ApplySale(ctx, payload))

	// The sale records for its full amount, then the till payment offsets it.
	var entries []models.CustomerLedgerEntry
	require.NoError(t, conn.Order("created_at ASC, type DESC").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.Equal(t, enums.LedgerEntrySale, entries[0].Type)
	assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(110)))
	assert.True(t, entries[0].BalanceAfter.Equal(decimal.NewFromInt(210)))
	assert.Equal(t, enums.LedgerEntryPayment, entries[1].Type)
	assert.True(t, entries[1].Amount.Equal(decimal.NewFromInt(-50)))
	assert.True(t, entries[1].BalanceAfter.Equal(decimal.NewFromInt(160)))

	var customer models.Customer
	require.NoError(t, conn.First(&customer, "id = ?", customerID).Error)
	assert.True(t, customer.CurrentBalance.Equal(decimal.NewFromInt(160)))

	var marker models.SyncLog
	require.NoError(t, conn.First(&marker, "client_txn_id = ?", payload.ClientTxnID).Error)
	assert.Equal(t, payload.SaleID, marker.SaleID)

	var item models.InventoryItem
	require.NoError(t, conn.First(&item, "product_id = ? AND branch_id = ?", productID, "b1").Error)
	assert.InDelta(t, -110.0, item.StockKg, 1e-9)
}

func TestApplySaleIsIdempotent(t *testing.T) {
	conn := setupRemoteTestDB(t)
	applier := newTestApplier(t, conn)
	ctx := context.Background()

	customerID := uuid.New()
	require.NoError(t, conn.Create(&models.Customer{
		ID:             customerID,
		Name:           "Bashir",
		CreditLimit:    decimal.NewFromInt(1000),
		CurrentBalance: decimal.Zero,
		Status:         enums.CustomerStatusActive,
	}).Error)

	payload := salePayload(&customerID, nil, "40.00", "0", kgLine(uuid.New(), 40, 0))
	require.NoError(t, applier.ApplySale(ctx, payload))

	err := applier.ApplySale(ctx, payload)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeAlreadyApplied, pkgerrors.CodeOf(err))

	// Nothing duplicated: one sale, one ledger entry, one movement, one marker.
	for _, model := range []any{&models.Sale{}, &models.CustomerLedgerEntry{}, &models.StockMovement{}, &models.SyncLog{}} {
		var count int64
		require.NoError(t, conn.Model(model).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	}

	var customer models.Customer
	require.NoError(t, conn.First(&customer, "id = ?", customerID).Error)
	assert.True(t, customer.CurrentBalance.Equal(decimal.NewFromInt(40)))
}

func TestApplySaleCreatesShellCustomer(t *testing.T) {
	conn := setupRemoteTestDB(t)
	applier := newTestApplier(t, conn)
	ctx := context.Background()

	customerID := uuid.New()
	name := "Walk-in Regular"
	payload := salePayload(&customerID, &name, "25.00", "25.00", kgLine(uuid.New(), 25, 0))
	require.NoError(t, applier.ApplySale(ctx, payload))

	var customer models.Customer
	require.NoError(t, conn.First(&customer, "id = ?", customerID).Error)
	assert.Equal(t, name, customer.Name)
	assert.True(t, customer.CreditLimit.IsZero())
	// Full amount on, full payment off.
	assert.True(t, customer.CurrentBalance.IsZero())
}

func TestApplySaleCashOnlySkipsLedger(t *testing.T) {
	conn := setupRemoteTestDB(t)
	applier := newTestApplier(t, conn)
	ctx := context.Background()

	payload := salePayload(nil, nil, "30.00", "30.00", kgLine(uuid.New(), 30, 0))
	require.NoError(t, applier.ApplySale(ctx, payload))

	var count int64
	require.NoError(t, conn.Model(&models.CustomerLedgerEntry{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	require.NoError(t, conn.Model(&models.Sale{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestConcurrentSalesIncrementsCommute(t *testing.T) {
	conn := setupRemoteTestDB(t)
	applier := newTestApplier(t, conn)
	ctx := context.Background()

	productID := uuid.New()
	first := salePayload(nil, nil, "60.00", "60.00", kgLine(productID, 60, 0))
	second := salePayload(nil, nil, "40.00", "40.00", kgLine(productID, 40, 0))
	second.DeviceID = "dev-2"

	require.NoError(t, applier.ApplySale(ctx, first))
	require.NoError(t, applier.ApplySale(ctx, second))

	var item models.InventoryItem
	require.NoError(t, conn.First(&item, "product_id = ? AND branch_id = ?", productID, "b1").Error)
	assert.InDelta(t, -100.0, item.StockKg, 1e-9)

	var movements int64
	require.NoError(t, conn.Model(&models.StockMovement{}).Where("product_id = ?", productID).Count(&movements).Error)
	assert.EqualValues(t, 2, movements)
}

func TestApplyRejectsMismatchedPayloadKey(t *testing.T) {
	conn := setupRemoteTestDB(t)
	applier := newTestApplier(t, conn)

	payload := salePayload(nil, nil, "10.00", "10.00", kgLine(uuid.New(), 10, 0))
	raw, err := payload.Marshal()
	require.NoError(t, err)

	entry := models.OutboxEntry{
		ClientTxnID: "some-other-key",
		EventType:   enums.OutboxEventSale,
		Payload:     raw,
	}
	err = applier.Apply(context.Background(), entry)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestApplyRejectsUndecodablePayload(t *testing.T) {
	conn := setupRemoteTestDB(t)
	applier := newTestApplier(t, conn)

	entry := models.OutboxEntry{
		ClientTxnID: "dev-1-1-x",
		EventType:   enums.OutboxEventSale,
		Payload:     json.RawMessage(`{"saleId": 42`),
	}
	err := applier.Apply(context.Background(), entry)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestApplyRejectsUnknownEventType(t *testing.T) {
	conn := setupRemoteTestDB(t)
	applier := newTestApplier(t, conn)

	entry := models.OutboxEntry{
		ClientTxnID: "dev-1-1-x",
		EventType:   enums.OutboxEventType("TELEMETRY"),
		Payload:     json.RawMessage(`{}`),
	}
	err := applier.Apply(context.Background(), entry)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestClassify(t *testing.T) {
	integrity := &pgconn.PgError{Code: "23505"}
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(classify(integrity)))

	badData := &pgconn.PgError{Code: "22P02"}
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(classify(badData)))

	connRefused := &pgconn.PgError{Code: "57P01"}
	assert.Equal(t, pkgerrors.CodeRemoteUnavailable, pkgerrors.CodeOf(classify(connRefused)))

	assert.Equal(t, pkgerrors.CodeRemoteUnavailable, pkgerrors.CodeOf(classify(fmt.Errorf("dial tcp: connection refused"))))
	assert.Equal(t, pkgerrors.CodeRemoteUnavailable, pkgerrors.CodeOf(classify(context.DeadlineExceeded)))
	assert.NoError(t, classify(nil))
}
