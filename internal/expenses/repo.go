package expenses

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
	"github.com/omarfadal/suuqpos-backend/pkg/enums"
	"github.com/omarfadal/suuqpos-backend/pkg/pagination"
)

// Filter narrows expense listings.
type Filter struct {
	BranchID string
	Category *enums.ExpenseCategory
	From     *time.Time
	To       *time.Time
	Limit    int
}

// Repository manages expense persistence in the local store.
type Repository interface {
	Create(ctx context.Context, expense *models.Expense) error
	List(ctx context.Context, filter Filter) ([]models.Expense, error)
	SumByCategory(ctx context.Context, branchID string, from, to time.Time) (map[enums.ExpenseCategory]decimal.Decimal, error)
	Sum(ctx context.Context, branchID string, from, to time.Time) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an expense repository bound to the local store.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, expense *models.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

func (r *repository) List(ctx context.Context, filter Filter) ([]models.Expense, error) {
	q := r.db.WithContext(ctx).Model(&models.Expense{}).
		Where("branch_id = ?", filter.BranchID)
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", *filter.To)
	}
	var rows []models.Expense
	err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.NormalizeLimit(filter.Limit)).
		Find(&rows).Error
	return rows, err
}

func (r *repository) SumByCategory(ctx context.Context, branchID string, from, to time.Time) (map[enums.ExpenseCategory]decimal.Decimal, error) {
	type row struct {
		Category enums.ExpenseCategory
		Total    decimal.Decimal
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Expense{}).
		Select("category, sum(amount) as total").
		Where("branch_id = ? AND created_at >= ? AND created_at < ?", branchID, from, to).
		Group("category").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.ExpenseCategory]decimal.Decimal, len(rows))
	for _, r := range rows {
		out[r.Category] = r.Total
	}
	return out, nil
}

func (r *repository) Sum(ctx context.Context, branchID string, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&models.Expense{}).
		Select("sum(amount)").
		Where("branch_id = ? AND created_at >= ? AND created_at < ?", branchID, from, to).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
