package controllers

import (
	"net/http"
	"time"

	"github.com/omarfadal/suuqpos-backend/api/responses"
	"github.com/omarfadal/suuqpos-backend/api/validators"
	"github.com/omarfadal/suuqpos-backend/internal/reports"
	"github.com/omarfadal/suuqpos-backend/pkg/config"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
	"github.com/omarfadal/suuqpos-backend/pkg/logger"
)

func DailyReport(svc *reports.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		at := time.Now()
		if raw := r.URL.Query().Get("date"); raw != "" {
			parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD"))
				return
			}
			at = parsed
		}

		summary, err := svc.Daily(ctx, cfg.Device.BranchID, at)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func TopDebtorsReport(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		debtors, err := svc.TopDebtors(limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, debtors)
	}
}

func ReceivablesAgingReport(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		buckets, err := svc.ReceivablesAging(time.Now())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, buckets)
	}
}

func LowStockReport(svc *reports.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		threshold, err := validators.ParseQueryFloat(r, "thresholdKg", 50)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		items, err := svc.LowStock(cfg.Device.BranchID, threshold)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
