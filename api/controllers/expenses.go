package controllers

import (
	"net/http"
	"time"

	"github.com/omarfadal/suuqpos-backend/api/responses"
	"github.com/omarfadal/suuqpos-backend/api/validators"
	"github.com/omarfadal/suuqpos-backend/internal/expenses"
	"github.com/omarfadal/suuqpos-backend/pkg/config"
	"github.com/omarfadal/suuqpos-backend/pkg/enums"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
	"github.com/omarfadal/suuqpos-backend/pkg/logger"
)

type addExpenseRequest struct {
	Category    string  `json:"category" validate:"required"`
	Amount      string  `json:"amount" validate:"required"`
	Description string  `json:"description" validate:"required"`
	PaidVia     *string `json:"paidVia"`
	Note        *string `json:"note"`
}

func AddExpense(svc *expenses.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req addExpenseRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		expense, err := svc.AddExpense(ctx, expenses.AddExpenseInput{
			BranchID:    cfg.Device.BranchID,
			Category:    req.Category,
			Amount:      req.Amount,
			Description: req.Description,
			PaidVia:     req.PaidVia,
			Note:        req.Note,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, expense)
	}
}

func ListExpenses(svc *expenses.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		filter := expenses.Filter{BranchID: cfg.Device.BranchID, Limit: limit}
		if raw := r.URL.Query().Get("category"); raw != "" {
			category, err := enums.ParseExpenseCategory(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
				return
			}
			filter.Category = &category
		}

		rows, err := svc.Expenses(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ExpenseTotals reports today's and this month's spend plus the month's
// per-category breakdown.
func ExpenseTotals(svc *expenses.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		branchID := cfg.Device.BranchID

		today, err := svc.TodayTotal(ctx, branchID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		month, err := svc.MonthTotal(ctx, branchID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		now := time.Now()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		byCategory, err := svc.CategoryTotals(ctx, branchID, monthStart, monthStart.AddDate(0, 1, 0))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"today":      today,
			"month":      month,
			"byCategory": byCategory,
		})
	}
}
