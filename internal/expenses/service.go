package expenses

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
	"github.com/omarfadal/suuqpos-backend/pkg/enums"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
)

// Service records and reports branch operating expenses.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// ServiceParams wires a Service.
type ServiceParams struct {
	Repository Repository
}

// NewService builds the expense service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("expense repository required")
	}
	return &Service{repo: params.Repository, validate: validator.New()}, nil
}

// AddExpenseInput describes one operating cost.
type AddExpenseInput struct {
	BranchID    string  `validate:"required"`
	Category    string  `validate:"required"`
	Amount      string  `validate:"required"`
	Description string  `validate:"required"`
	PaidVia     *string `validate:"omitempty"`
	Note        *string `validate:"omitempty"`
}

// AddExpense validates and stores an expense.
func (s *Service) AddExpense(ctx context.Context, input AddExpenseInput) (*models.Expense, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid expense")
	}
	category, err := enums.ParseExpenseCategory(input.Category)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	amount, err := decimal.NewFromString(input.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a positive decimal")
	}
	var paidVia *enums.PaymentChannel
	if input.PaidVia != nil {
		channel, err := enums.ParsePaymentChannel(*input.PaidVia)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		paidVia = &channel
	}

	expense := &models.Expense{
		ID:          uuid.New(),
		BranchID:    input.BranchID,
		Category:    category,
		Amount:      amount,
		Description: input.Description,
		PaidVia:     paidVia,
		Note:        input.Note,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "persisting expense")
	}
	return expense, nil
}

// Expenses lists expenses newest-first under the filter.
func (s *Service) Expenses(ctx context.Context, filter Filter) ([]models.Expense, error) {
	if filter.BranchID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "listing expenses")
	}
	return rows, nil
}

// CategoryTotals sums expenses per category over [from, to).
func (s *Service) CategoryTotals(ctx context.Context, branchID string, from, to time.Time) (map[enums.ExpenseCategory]decimal.Decimal, error) {
	if branchID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}
	totals, err := s.repo.SumByCategory(ctx, branchID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "summing expenses")
	}
	return totals, nil
}

// TodayTotal sums today's expenses for the branch.
func (s *Service) TodayTotal(ctx context.Context, branchID string) (decimal.Decimal, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.total(ctx, branchID, start, start.AddDate(0, 0, 1))
}

// MonthTotal sums the current calendar month's expenses for the branch.
func (s *Service) MonthTotal(ctx context.Context, branchID string) (decimal.Decimal, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return s.total(ctx, branchID, start, start.AddDate(0, 1, 0))
}

func (s *Service) total(ctx context.Context, branchID string, from, to time.Time) (decimal.Decimal, error) {
	if branchID == "" {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}
	total, err := s.repo.Sum(ctx, branchID, from, to)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "summing expenses")
	}
	return total, nil
}
