package inventory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
	"github.com/omarfadal/suuqpos-backend/pkg/enums"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.InventoryItem{},
		&models.StockMovement{},
	))
	return db
}

func newLoadedInventory(t *testing.T, db *gorm.DB) *Engine {
	t.Helper()

	engine, err := NewEngine(EngineParams{Repository: NewRepository(db)})
	require.NoError(t, err)
	require.NoError(t, engine.Load(context.Background()))
	return engine
}

func TestAdjustStockCreatesAggregateLazily(t *testing.T) {
	db := setupInventoryTestDB(t)
	engine := newLoadedInventory(t, db)
	ctx := context.Background()

	productID := uuid.New()
	level, persisted, err := engine.AdjustStock(ctx, AdjustInput{
		ProductID: productID,
		BranchID:  "b1",
		Type:      enums.StockMovementPurchase,
		KgChange:  500,
	})
	require.NoError(t, err)
	assert.True(t, persisted.Durable)
	assert.Equal(t, 500.0, level)

	var item models.InventoryItem
	require.NoError(t, db.First(&item, "product_id = ? AND branch_id = ?", productID, "b1").Error)
	assert.Equal(t, 500.0, item.StockKg)
}

// Adjustments on one aggregate race concurrent cache reads and each persist
// must work on its own copy of the struct. Meaningful under the race
// detector.
func TestConcurrentAdjustmentsAndReads(t *testing.T) {
	db := setupInventoryTestDB(t)
	engine := newLoadedInventory(t, db)
	ctx := context.Background()

	productID := uuid.New()

	stop := make(chan struct{})
	var readers sync.WaitGroup
	for i := 0; i < 2; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				_, _ = engine.Stock(productID, "b1")
				_, _ = engine.BranchInventory("b1")
			}
		}()
	}

	const workers = 4
	const adjustsPerWorker = 25
	var writerWg sync.WaitGroup
	for w := 0; w < workers; w++ {
		writerWg.Add(1)
		go func(w int) {
			defer writerWg.Done()
			for i := 0; i < adjustsPerWorker; i++ {
				_, _, err := engine.AdjustStock(ctx, AdjustInput{
					ProductID:   productID,
					BranchID:    "b1",
					Type:        enums.StockMovementPurchase,
					KgChange:    1,
					ReferenceID: fmt.Sprintf("mov-%d-%d", w, i),
				})
				assert.NoError(t, err)
			}
		}(w)
	}
	writerWg.Wait()
	close(stop)
	readers.Wait()

	level, err := engine.Stock(productID, "b1")
	require.NoError(t, err)
	assert.Equal(t, float64(workers*adjustsPerWorker), level)
}

func TestAdjustStockAllowsNegativeLevels(t *testing.T) {
	db := setupInventoryTestDB(t)
	engine := newLoadedInventory(t, db)
	ctx := context.Background()

	productID := uuid.New()
	level, _, err := engine.AdjustStock(ctx, AdjustInput{
		ProductID: productID,
		BranchID:  "b1",
		Type:      enums.StockMovementSale,
		KgChange:  -75,
	})
	require.NoError(t, err)
	assert.Equal(t, -75.0, level)

	got, err := engine.Stock(productID, "b1")
	require.NoError(t, err)
	assert.Equal(t, -75.0, got)
}

func TestAggregateEqualsMovementSum(t *testing.T) {
	db := setupInventoryTestDB(t)
	engine := newLoadedInventory(t, db)
	ctx := context.Background()

	productID := uuid.New()
	changes := []float64{500, -120.5, -30, 200, -49.5}
	for _, change := range changes {
		movementType := enums.StockMovementPurchase
		if change < 0 {
			movementType = enums.StockMovementSale
		}
		_, _, err := engine.AdjustStock(ctx, AdjustInput{
			ProductID: productID,
			BranchID:  "b1",
			Type:      movementType,
			KgChange:  change,
		})
		require.NoError(t, err)
	}

	var sum float64
	require.NoError(t, db.Model(&models.StockMovement{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(kg_change), 0)").
		Scan(&sum).Error)

	level, err := engine.Stock(productID, "b1")
	require.NoError(t, err)
	assert.InDelta(t, sum, level, 1e-9)
	assert.InDelta(t, 500.0, level, 1e-9)
}

func TestAdjustStockValidation(t *testing.T) {
	db := setupInventoryTestDB(t)
	engine := newLoadedInventory(t, db)
	ctx := context.Background()

	_, _, err := engine.AdjustStock(ctx, AdjustInput{
		ProductID: uuid.New(),
		BranchID:  "b1",
		Type:      enums.StockMovementType("BOGUS"),
		KgChange:  10,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, _, err = engine.AdjustStock(ctx, AdjustInput{
		ProductID: uuid.New(),
		Type:      enums.StockMovementPurchase,
		KgChange:  10,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestAdjustStockBeforeLoadFails(t *testing.T) {
	db := setupInventoryTestDB(t)
	engine, err := NewEngine(EngineParams{Repository: NewRepository(db)})
	require.NoError(t, err)

	_, _, err = engine.AdjustStock(context.Background(), AdjustInput{
		ProductID: uuid.New(),
		BranchID:  "b1",
		Type:      enums.StockMovementPurchase,
		KgChange:  10,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
}

func TestBranchInventoryFiltersAndSorts(t *testing.T) {
	db := setupInventoryTestDB(t)
	engine := newLoadedInventory(t, db)
	ctx := context.Background()

	for _, branch := range []string{"b1", "b1", "b2"} {
		_, _, err := engine.AdjustStock(ctx, AdjustInput{
			ProductID: uuid.New(),
			BranchID:  branch,
			Type:      enums.StockMovementPurchase,
			KgChange:  100,
		})
		require.NoError(t, err)
	}

	items, err := engine.BranchInventory("b1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].ProductID.String() < items[1].ProductID.String())
}

func TestRecomputeStockRepairsDriftedCache(t *testing.T) {
	db := setupInventoryTestDB(t)
	engine := newLoadedInventory(t, db)
	ctx := context.Background()

	productID := uuid.New()
	_, _, err := engine.AdjustStock(ctx, AdjustInput{
		ProductID: productID,
		BranchID:  "b1",
		Type:      enums.StockMovementPurchase,
		KgChange:  300,
	})
	require.NoError(t, err)
	_, _, err = engine.AdjustStock(ctx, AdjustInput{
		ProductID: productID,
		BranchID:  "b1",
		Type:      enums.StockMovementSale,
		KgChange:  -80,
	})
	require.NoError(t, err)

	// Simulate a cache left ahead of the store by a rolled-back transaction.
	engine.mu.Lock()
	engine.items[itemKey{productID: productID, branchID: "b1"}].StockKg = 10
	engine.mu.Unlock()

	level, err := engine.RecomputeStock(ctx, productID, "b1")
	require.NoError(t, err)
	assert.InDelta(t, 220.0, level, 1e-9)

	cached, err := engine.Stock(productID, "b1")
	require.NoError(t, err)
	assert.InDelta(t, 220.0, cached, 1e-9)
}

func TestLoadHydratesExistingAggregates(t *testing.T) {
	db := setupInventoryTestDB(t)
	productID := uuid.New()
	require.NoError(t, db.Create(&models.InventoryItem{
		ProductID: productID,
		BranchID:  "b1",
		StockKg:   42,
	}).Error)

	engine := newLoadedInventory(t, db)
	level, err := engine.Stock(productID, "b1")
	require.NoError(t, err)
	assert.Equal(t, 42.0, level)
}
