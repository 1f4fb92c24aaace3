package sales

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
	"github.com/omarfadal/suuqpos-backend/pkg/pagination"
)

// Repository manages sale persistence in the local store.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateSale(ctx context.Context, sale *models.Sale) error
	Get(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	GetByClientTxnID(ctx context.Context, clientTxnID string) (*models.Sale, error)
	Recent(ctx context.Context, branchID string, limit int) ([]models.Sale, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sales repository bound to the local store.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateSale inserts the sale and its items in one call; gorm cascades the
// association.
func (r *repository) CreateSale(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) GetByClientTxnID(ctx context.Context, clientTxnID string) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&sale, "client_txn_id = ?", clientTxnID).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) Recent(ctx context.Context, branchID string, limit int) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("branch_id = ?", branchID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}
