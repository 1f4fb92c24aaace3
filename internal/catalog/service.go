package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
	"github.com/omarfadal/suuqpos-backend/pkg/enums"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
)

// DefaultBagSizeKg is used when a BAG-priced product carries no explicit bag
// size.
const DefaultBagSizeKg = 50.0

// Service exposes product catalog operations.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// ServiceParams wires a Service.
type ServiceParams struct {
	Repository Repository
}

// NewService builds the catalog service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &Service{
		repo:     params.Repository,
		validate: validator.New(),
	}, nil
}

// CreateProductInput describes a new catalog entry.
type CreateProductInput struct {
	Name       string   `validate:"required"`
	CategoryID string   `validate:"omitempty"`
	Barcode    *string  `validate:"omitempty"`
	BaseUnit   string   `validate:"required"`
	BagSizeKg  *float64 `validate:"omitempty,gt=0"`
	PricePerKg string   `validate:"required"`
	CostPerKg  string   `validate:"required"`
}

// CreateProduct validates and stores a catalog entry.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product")
	}
	unit := enums.Unit(input.BaseUnit)
	if !unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid base unit %q", input.BaseUnit))
	}
	price, err := decimal.NewFromString(input.PricePerKg)
	if err != nil || price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price per kg must be a non-negative decimal")
	}
	cost, err := decimal.NewFromString(input.CostPerKg)
	if err != nil || cost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost per kg must be a non-negative decimal")
	}

	product := &models.Product{
		ID:         uuid.New(),
		Name:       input.Name,
		CategoryID: input.CategoryID,
		Barcode:    input.Barcode,
		BaseUnit:   unit,
		BagSizeKg:  input.BagSizeKg,
		PricePerKg: price,
		CostPerKg:  cost,
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "persisting product")
	}
	return product, nil
}

// Product returns a catalog entry by id.
func (s *Service) Product(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading product")
	}
	return product, nil
}

// ProductByBarcode returns a catalog entry by barcode, for scanner lookups.
func (s *Service) ProductByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	product, err := s.repo.GetByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading product")
	}
	return product, nil
}

// Products lists catalog entries, name-sorted.
func (s *Service) Products(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	products, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "listing products")
	}
	return products, nil
}

// Deactivate retires a product from sale without deleting its history.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	product, err := s.Product(ctx, id)
	if err != nil {
		return err
	}
	product.IsActive = false
	if err := s.repo.Save(ctx, product); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "persisting product")
	}
	return nil
}

// BagSize resolves the kilograms in one bag of the product.
func BagSize(product *models.Product) float64 {
	if product.BagSizeKg != nil && *product.BagSizeKg > 0 {
		return *product.BagSizeKg
	}
	return DefaultBagSizeKg
}

// CanonicalKg converts a quantity in the transacted unit to kilograms. KG and
// PCS map 1:1; BAG multiplies by the product's bag size.
func CanonicalKg(product *models.Product, unit enums.Unit, quantity float64) (float64, error) {
	switch unit {
	case enums.UnitKG, enums.UnitPCS:
		return quantity, nil
	case enums.UnitBAG:
		return quantity * BagSize(product), nil
	default:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid unit %q", unit))
	}
}
