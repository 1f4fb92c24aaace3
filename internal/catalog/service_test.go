package catalog

import (
	"context"
	"fmt"
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

func setupCatalogService(t *testing.T) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}))

	svc, err := NewService(ServiceParams{Repository: NewRepository(db)})
	require.NoError(t, err)
	return svc
}

func TestCreateProduct(t *testing.T) {
	svc := setupCatalogService(t)
	ctx := context.Background()

	barcode := "6291041500213"
	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:       "Basmati Rice",
		Barcode:    &barcode,
		BaseUnit:   "BAG",
		PricePerKg: "1.25",
		CostPerKg:  "1.00",
	})
	require.NoError(t, err)
	assert.True(t, product.IsActive)
	assert.Equal(t, enums.UnitBAG, product.BaseUnit)
	assert.Equal(t, "1.25", product.PricePerKg.StringFixed(2))

	found, err := svc.ProductByBarcode(ctx, barcode)
	require.NoError(t, err)
	assert.Equal(t, product.ID, found.ID)
}

func TestCreateProductValidation(t *testing.T) {
	svc := setupCatalogService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateProductInput
	}{
		{"missing name", CreateProductInput{BaseUnit: "KG", PricePerKg: "1", CostPerKg: "1"}},
		{"bad unit", CreateProductInput{Name: "x", BaseUnit: "TON", PricePerKg: "1", CostPerKg: "1"}},
		{"negative price", CreateProductInput{Name: "x", BaseUnit: "KG", PricePerKg: "-1", CostPerKg: "1"}},
		{"unparsable cost", CreateProductInput{Name: "x", BaseUnit: "KG", PricePerKg: "1", CostPerKg: "abc"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tc.input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
		})
	}
}

func TestDeactivateHidesFromActiveList(t *testing.T) {
	svc := setupCatalogService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:       "Sugar",
		BaseUnit:   "KG",
		PricePerKg: "0.90",
		CostPerKg:  "0.70",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, product.ID))

	active, err := svc.Products(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.Products(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.False(t, all[0].IsActive)
}

func TestProductNotFound(t *testing.T) {
	svc := setupCatalogService(t)

	_, err := svc.Product(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestCanonicalKg(t *testing.T) {
	bagSize := 25.0
	withBagSize := &models.Product{BagSizeKg: &bagSize}
	withoutBagSize := &models.Product{}

	cases := []struct {
		name     string
		product  *models.Product
		unit     enums.Unit
		quantity float64
		want     float64
	}{
		{"kg passes through", withoutBagSize, enums.UnitKG, 12.5, 12.5},
		{"pcs passes through", withoutBagSize, enums.UnitPCS, 3, 3},
		{"bag uses product size", withBagSize, enums.UnitBAG, 2, 50},
		{"bag falls back to default", withoutBagSize, enums.UnitBAG, 2, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CanonicalKg(tc.product, tc.unit, tc.quantity)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}

	_, err := CanonicalKg(withoutBagSize, enums.Unit("CRATE"), 1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestBagSizeIgnoresNonPositive(t *testing.T) {
	zero := 0.0
	product := &models.Product{BagSizeKg: &zero}
	assert.Equal(t, DefaultBagSizeKg, BagSize(product))
}
