package reports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/omarfadal/suuqpos-backend/internal/balance"
	"github.com/omarfadal/suuqpos-backend/internal/expenses"
	"github.com/omarfadal/suuqpos-backend/internal/inventory"
	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
	"github.com/omarfadal/suuqpos-backend/pkg/enums"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
)

type reportsFixture struct {
	db       *gorm.DB
	svc      *Service
	balances *balance.Engine
	stock    *inventory.Engine
	expenses *expenses.Service
}

func setupReportsFixture(t *testing.T) *reportsFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Customer{},
		&models.Supplier{},
		&models.CustomerLedgerEntry{},
		&models.SupplierLedgerEntry{},
		&models.InventoryItem{},
		&models.StockMovement{},
		&models.Sale{},
		&models.SaleItem{},
		&models.Expense{},
	))

	balances, err := balance.NewEngine(balance.EngineParams{Repository: balance.NewRepository(conn)})
	require.NoError(t, err)
	require.NoError(t, balances.Load(context.Background()))

	stock, err := inventory.NewEngine(inventory.EngineParams{Repository: inventory.NewRepository(conn)})
	require.NoError(t, err)
	require.NoError(t, stock.Load(context.Background()))

	expenseSvc, err := expenses.NewService(expenses.ServiceParams{Repository: expenses.NewRepository(conn)})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repository: NewRepository(conn),
		Balances:   balances,
		Inventory:  stock,
		Expenses:   expenseSvc,
	})
	require.NoError(t, err)

	return &reportsFixture{db: conn, svc: svc, balances: balances, stock: stock, expenses: expenseSvc}
}

func (f *reportsFixture) seedSale(t *testing.T, branchID string, total, paid int64, kg float64, createdAt time.Time) {
	t.Helper()

	totalAmount := decimal.NewFromInt(total)
	paidAmount := decimal.NewFromInt(paid)
	sale := &models.Sale{
		ID:            uuid.New(),
		BranchID:      branchID,
		TotalAmount:   totalAmount,
		PaidAmount:    paidAmount,
		CreditAmount:  totalAmount.Sub(paidAmount),
		PaymentMethod: enums.PaymentMethodCash,
		Status:        enums.SaleStatusCompleted,
		ClientTxnID:   uuid.NewString(),
		CreatedAt:     createdAt,
		Items: []models.SaleItem{
			{
				ID:                 uuid.New(),
				ProductID:          uuid.New(),
				NameSnapshot:       "Rice",
				UnitUsed:           enums.UnitKG,
				Quantity:           kg,
				KgCalculated:       kg,
				PricePerKgSnapshot: decimal.NewFromInt(1),
				LineTotal:          totalAmount,
				Position:           0,
			},
		},
	}
	require.NoError(t, f.db.Create(sale).Error)
}

func (f *reportsFixture) seedDebtor(t *testing.T, name string, owed int64, lastPurchaseDaysAgo *int) uuid.UUID {
	t.Helper()

	customer := &models.Customer{
		ID:             uuid.New(),
		Name:           name,
		CreditLimit:    decimal.NewFromInt(100000),
		CurrentBalance: decimal.NewFromInt(owed),
		Status:         enums.CustomerStatusActive,
	}
	if lastPurchaseDaysAgo != nil {
		at := time.Now().AddDate(0, 0, -*lastPurchaseDaysAgo)
		customer.LastPurchaseAt = &at
	}
	require.NoError(t, f.db.Create(customer).Error)
	require.NoError(t, f.balances.Load(context.Background()))
	return customer.ID
}

func TestDailySummary(t *testing.T) {
	f := setupReportsFixture(t)
	ctx := context.Background()
	now := time.Now()

	f.seedSale(t, "b1", 110, 110, 100, now)
	f.seedSale(t, "b1", 90, 30, 90, now)
	f.seedSale(t, "b1", 500, 500, 400, now.AddDate(0, 0, -2)) // outside the window
	f.seedSale(t, "b2", 70, 70, 70, now)                      // other branch

	_, err := f.expenses.AddExpense(ctx, expenses.AddExpenseInput{
		BranchID: "b1", Category: "TRANSPORT", Amount: "40", Description: "fuel",
	})
	require.NoError(t, err)

	summary, err := f.svc.Daily(ctx, "b1", now)
	require.NoError(t, err)

	assert.EqualValues(t, 2, summary.SaleCount)
	assert.True(t, summary.TotalSales.Equal(decimal.NewFromInt(200)))
	assert.True(t, summary.CashIn.Equal(decimal.NewFromInt(140)))
	assert.True(t, summary.CreditIssued.Equal(decimal.NewFromInt(60)))
	assert.InDelta(t, 190.0, summary.KgSold, 1e-9)
	assert.True(t, summary.Expenses.Equal(decimal.NewFromInt(40)))
	// Net cash is till intake minus spend: 140 - 40.
	assert.True(t, summary.NetCash.Equal(decimal.NewFromInt(100)))
}

func TestDailySummaryEmptyDay(t *testing.T) {
	f := setupReportsFixture(t)

	summary, err := f.svc.Daily(context.Background(), "b1", time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 0, summary.SaleCount)
	assert.True(t, summary.TotalSales.IsZero())
	assert.True(t, summary.NetCash.IsZero())
}

func TestTopDebtors(t *testing.T) {
	f := setupReportsFixture(t)

	f.seedDebtor(t, "Small", 50, nil)
	f.seedDebtor(t, "Large", 900, nil)
	f.seedDebtor(t, "Middle", 300, nil)
	f.seedDebtor(t, "Settled", 0, nil)
	f.seedDebtor(t, "InCredit", -20, nil)

	debtors, err := f.svc.TopDebtors(2)
	require.NoError(t, err)
	require.Len(t, debtors, 2)
	assert.Equal(t, "Large", debtors[0].Name)
	assert.Equal(t, "Middle", debtors[1].Name)

	all, err := f.svc.TopDebtors(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestReceivablesAging(t *testing.T) {
	f := setupReportsFixture(t)

	f.seedDebtor(t, "Fresh", 100, ptrInt(5))
	f.seedDebtor(t, "Stale", 200, ptrInt(45))
	f.seedDebtor(t, "Old", 300, ptrInt(75))
	f.seedDebtor(t, "Ancient", 400, ptrInt(120))
	f.seedDebtor(t, "NeverBought", 50, nil)

	buckets, err := f.svc.ReceivablesAging(time.Now())
	require.NoError(t, err)

	assert.Equal(t, 5, buckets.DebtorCount)
	assert.True(t, buckets.TotalOwed.Equal(decimal.NewFromInt(1050)))
	assert.True(t, buckets.Current.Equal(decimal.NewFromInt(150)))
	assert.True(t, buckets.Days31To60.Equal(decimal.NewFromInt(200)))
	assert.True(t, buckets.Days61To90.Equal(decimal.NewFromInt(300)))
	assert.True(t, buckets.Over90.Equal(decimal.NewFromInt(400)))
}

func TestLowStock(t *testing.T) {
	f := setupReportsFixture(t)
	ctx := context.Background()

	seed := func(kg float64) {
		movementType := enums.StockMovementPurchase
		if kg < 0 {
			movementType = enums.StockMovementSale
		}
		_, _, err := f.stock.AdjustStock(ctx, inventory.AdjustInput{
			ProductID: uuid.New(),
			BranchID:  "b1",
			Type:      movementType,
			KgChange:  kg,
		})
		require.NoError(t, err)
	}
	seed(500)
	seed(30)
	seed(-12)
	seed(45)

	low, err := f.svc.LowStock("b1", 50)
	require.NoError(t, err)
	require.Len(t, low, 3)
	// Negative levels surface first.
	assert.InDelta(t, -12.0, low[0].StockKg, 1e-9)
	assert.InDelta(t, 30.0, low[1].StockKg, 1e-9)
	assert.InDelta(t, 45.0, low[2].StockKg, 1e-9)

	_, err = f.svc.LowStock("", 50)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func ptrInt(v int) *int { return &v }
