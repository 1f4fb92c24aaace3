package balance

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
	"github.com/omarfadal/suuqpos-backend/pkg/pagination"
)

// Repository manages persistence for parties and their ledgers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	LoadCustomers(ctx context.Context) ([]models.Customer, error)
	LoadSuppliers(ctx context.Context) ([]models.Supplier, error)

	SaveCustomer(ctx context.Context, customer *models.Customer) error
	SaveSupplier(ctx context.Context, supplier *models.Supplier) error

	CreateCustomerEntry(ctx context.Context, entry *models.CustomerLedgerEntry) error
	CreateSupplierEntry(ctx context.Context, entry *models.SupplierLedgerEntry) error

	CustomerHistory(ctx context.Context, customerID uuid.UUID, limit int) ([]models.CustomerLedgerEntry, error)
	SupplierHistory(ctx context.Context, supplierID uuid.UUID, limit int) ([]models.SupplierLedgerEntry, error)

	// CustomerEntriesAsc returns the full ledger for a customer in insertion
	// order, used when a cache needs to be recomputed from the ledger.
	CustomerEntriesAsc(ctx context.Context, customerID uuid.UUID) ([]models.CustomerLedgerEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a balance repository bound to the local store.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) LoadCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	if err := r.db.WithContext(ctx).Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *repository) LoadSuppliers(ctx context.Context) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	if err := r.db.WithContext(ctx).Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (r *repository) SaveCustomer(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *repository) SaveSupplier(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Save(supplier).Error
}

func (r *repository) CreateCustomerEntry(ctx context.Context, entry *models.CustomerLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) CreateSupplierEntry(ctx context.Context, entry *models.SupplierLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) CustomerHistory(ctx context.Context, customerID uuid.UUID, limit int) ([]models.CustomerLedgerEntry, error) {
	var entries []models.CustomerLedgerEntry
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) SupplierHistory(ctx context.Context, supplierID uuid.UUID, limit int) ([]models.SupplierLedgerEntry, error) {
	var entries []models.SupplierLedgerEntry
	err := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) CustomerEntriesAsc(ctx context.Context, customerID uuid.UUID) ([]models.CustomerLedgerEntry, error) {
	var entries []models.CustomerLedgerEntry
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
