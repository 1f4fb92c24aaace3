package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/omarfadal/suuqpos-backend/internal/balance"
	"github.com/omarfadal/suuqpos-backend/internal/expenses"
	"github.com/omarfadal/suuqpos-backend/internal/inventory"
	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
)

// Service builds till-facing reports from the ledgers and caches.
type Service struct {
	repo     Repository
	balances *balance.Engine
	stock    *inventory.Engine
	expenses *expenses.Service
}

// ServiceParams wires a Service.
type ServiceParams struct {
	Repository Repository
	Balances   *balance.Engine
	Inventory  *inventory.Engine
	Expenses   *expenses.Service
}

// NewService builds the reports service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if params.Balances == nil {
		return nil, fmt.Errorf("balance engine required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory engine required")
	}
	if params.Expenses == nil {
		return nil, fmt.Errorf("expense service required")
	}
	return &Service{
		repo:     params.Repository,
		balances: params.Balances,
		stock:    params.Inventory,
		expenses: params.Expenses,
	}, nil
}

// DailySummary is the end-of-day rollup for one branch.
type DailySummary struct {
	Date         string          `json:"date"`
	BranchID     string          `json:"branchId"`
	SaleCount    int64           `json:"saleCount"`
	TotalSales   decimal.Decimal `json:"totalSales"`
	CashIn       decimal.Decimal `json:"cashIn"`
	CreditIssued decimal.Decimal `json:"creditIssued"`
	KgSold       float64         `json:"kgSold"`
	Expenses     decimal.Decimal `json:"expenses"`
	NetCash      decimal.Decimal `json:"netCash"`
}

// Daily rolls up sales and expenses for the calendar day containing at.
func (s *Service) Daily(ctx context.Context, branchID string, at time.Time) (*DailySummary, error) {
	if branchID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}
	start := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	end := start.AddDate(0, 0, 1)

	rollup, err := s.repo.SalesRollup(ctx, branchID, start, end)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "rolling up sales")
	}
	spent, err := s.expenses.CategoryTotals(ctx, branchID, start, end)
	if err != nil {
		return nil, err
	}
	expenseTotal := decimal.Zero
	for _, amount := range spent {
		expenseTotal = expenseTotal.Add(amount)
	}

	return &DailySummary{
		Date:         start.Format("2006-01-02"),
		BranchID:     branchID,
		SaleCount:    rollup.SaleCount,
		TotalSales:   rollup.TotalAmount,
		CashIn:       rollup.PaidAmount,
		CreditIssued: rollup.CreditAmount,
		KgSold:       rollup.KgSold,
		Expenses:     expenseTotal,
		NetCash:      rollup.PaidAmount.Sub(expenseTotal),
	}, nil
}

// Debtor is one customer carrying a positive receivable balance.
type Debtor struct {
	CustomerID     string          `json:"customerId"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	Balance        decimal.Decimal `json:"balance"`
	CreditLimit    decimal.Decimal `json:"creditLimit"`
	LastPurchaseAt *time.Time      `json:"lastPurchaseAt,omitempty"`
	LastPaymentAt  *time.Time      `json:"lastPaymentAt,omitempty"`
}

// TopDebtors lists customers by outstanding balance, highest first.
func (s *Service) TopDebtors(limit int) ([]Debtor, error) {
	customers, err := s.balances.Customers()
	if err != nil {
		return nil, err
	}
	debtors := make([]Debtor, 0)
	for _, c := range customers {
		if !c.CurrentBalance.IsPositive() {
			continue
		}
		debtors = append(debtors, Debtor{
			CustomerID:     c.ID.String(),
			Name:           c.Name,
			Phone:          c.Phone,
			Balance:        c.CurrentBalance,
			CreditLimit:    c.CreditLimit,
			LastPurchaseAt: c.LastPurchaseAt,
			LastPaymentAt:  c.LastPaymentAt,
		})
	}
	sort.Slice(debtors, func(i, j int) bool {
		return debtors[i].Balance.GreaterThan(debtors[j].Balance)
	})
	if limit > 0 && len(debtors) > limit {
		debtors = debtors[:limit]
	}
	return debtors, nil
}

// AgingBuckets splits outstanding receivables by days since the customer's
// last purchase.
type AgingBuckets struct {
	Current     decimal.Decimal `json:"current"`
	Days31To60  decimal.Decimal `json:"days31to60"`
	Days61To90  decimal.Decimal `json:"days61to90"`
	Over90      decimal.Decimal `json:"over90"`
	TotalOwed   decimal.Decimal `json:"totalOwed"`
	DebtorCount int             `json:"debtorCount"`
}

// ReceivablesAging buckets positive customer balances by the age of the most
// recent purchase. Customers with no recorded purchase count as current.
func (s *Service) ReceivablesAging(asOf time.Time) (*AgingBuckets, error) {
	customers, err := s.balances.Customers()
	if err != nil {
		return nil, err
	}
	buckets := &AgingBuckets{
		Current:    decimal.Zero,
		Days31To60: decimal.Zero,
		Days61To90: decimal.Zero,
		Over90:     decimal.Zero,
		TotalOwed:  decimal.Zero,
	}
	for _, c := range customers {
		if !c.CurrentBalance.IsPositive() {
			continue
		}
		buckets.DebtorCount++
		buckets.TotalOwed = buckets.TotalOwed.Add(c.CurrentBalance)

		days := 0
		if c.LastPurchaseAt != nil {
			days = int(asOf.Sub(*c.LastPurchaseAt).Hours() / 24)
		}
		switch {
		case days <= 30:
			buckets.Current = buckets.Current.Add(c.CurrentBalance)
		case days <= 60:
			buckets.Days31To60 = buckets.Days31To60.Add(c.CurrentBalance)
		case days <= 90:
			buckets.Days61To90 = buckets.Days61To90.Add(c.CurrentBalance)
		default:
			buckets.Over90 = buckets.Over90.Add(c.CurrentBalance)
		}
	}
	return buckets, nil
}

// LowStock lists branch aggregates at or below the threshold, lowest first.
// Negative levels sort to the top, which is exactly where an operator wants
// to see them.
func (s *Service) LowStock(branchID string, thresholdKg float64) ([]models.InventoryItem, error) {
	if branchID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}
	items, err := s.stock.BranchInventory(branchID)
	if err != nil {
		return nil, err
	}
	low := make([]models.InventoryItem, 0)
	for _, item := range items {
		if item.StockKg <= thresholdKg {
			low = append(low, item)
		}
	}
	sort.Slice(low, func(i, j int) bool { return low[i].StockKg < low[j].StockKg })
	return low, nil
}
