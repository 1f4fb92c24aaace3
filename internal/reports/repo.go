package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
	"github.com/omarfadal/suuqpos-backend/pkg/enums"
)

// SalesRollup aggregates completed sales over a window.
type SalesRollup struct {
	SaleCount    int64
	TotalAmount  decimal.Decimal
	PaidAmount   decimal.Decimal
	CreditAmount decimal.Decimal
	KgSold       float64
}

// Repository runs the aggregate queries behind the report surfaces.
type Repository interface {
	SalesRollup(ctx context.Context, branchID string, from, to time.Time) (SalesRollup, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a reports repository bound to the local store.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SalesRollup(ctx context.Context, branchID string, from, to time.Time) (SalesRollup, error) {
	type row struct {
		N      int64
		Total  decimal.NullDecimal
		Paid   decimal.NullDecimal
		Credit decimal.NullDecimal
	}
	var agg row
	err := r.db.WithContext(ctx).Model(&models.Sale{}).
		Select("count(*) as n, sum(total_amount) as total, sum(paid_amount) as paid, sum(credit_amount) as credit").
		Where("branch_id = ? AND status = ? AND created_at >= ? AND created_at < ?",
			branchID, enums.SaleStatusCompleted, from, to).
		Scan(&agg).Error
	if err != nil {
		return SalesRollup{}, err
	}

	var kg struct{ Kg float64 }
	err = r.db.WithContext(ctx).Model(&models.SaleItem{}).
		Select("coalesce(sum(sale_items.kg_calculated), 0) as kg").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.branch_id = ? AND sales.status = ? AND sales.created_at >= ? AND sales.created_at < ?",
			branchID, enums.SaleStatusCompleted, from, to).
		Scan(&kg).Error
	if err != nil {
		return SalesRollup{}, err
	}

	rollup := SalesRollup{SaleCount: agg.N, KgSold: kg.Kg}
	rollup.TotalAmount = nullOrZero(agg.Total)
	rollup.PaidAmount = nullOrZero(agg.Paid)
	rollup.CreditAmount = nullOrZero(agg.Credit)
	return rollup, nil
}

func nullOrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}
