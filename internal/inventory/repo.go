package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
	"github.com/omarfadal/suuqpos-backend/pkg/pagination"
)

// Repository manages persistence for stock movements and aggregates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	LoadInventory(ctx context.Context) ([]models.InventoryItem, error)
	SaveItem(ctx context.Context, item *models.InventoryItem) error
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	MovementHistory(ctx context.Context, productID uuid.UUID, branchID string, limit int) ([]models.StockMovement, error)
	MovementsAsc(ctx context.Context, productID uuid.UUID, branchID string) ([]models.StockMovement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the local store.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) LoadInventory(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := r.db.WithContext(ctx).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) SaveItem(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) MovementHistory(ctx context.Context, productID uuid.UUID, branchID string, limit int) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND branch_id = ?", productID, branchID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) MovementsAsc(ctx context.Context, productID uuid.UUID, branchID string) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND branch_id = ?", productID, branchID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}
