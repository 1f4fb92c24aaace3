package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/omarfadal/suuqpos-backend/api/responses"
	"github.com/omarfadal/suuqpos-backend/api/validators"
	"github.com/omarfadal/suuqpos-backend/internal/sales"
	"github.com/omarfadal/suuqpos-backend/pkg/config"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
	"github.com/omarfadal/suuqpos-backend/pkg/logger"
)

// SyncNotifier pokes the sync loop after a sale commits so the queue drains
// without waiting for the next tick.
type SyncNotifier interface {
	Notify()
}

type saleLineRequest struct {
	ProductID string  `json:"productId" validate:"required,uuid"`
	Unit      string  `json:"unit" validate:"required"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
}

type completeSaleRequest struct {
	CustomerID    *string           `json:"customerId" validate:"omitempty,uuid"`
	PaidAmount    string            `json:"paidAmount" validate:"required"`
	PaymentMethod string            `json:"paymentMethod" validate:"required"`
	Lines         []saleLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func CompleteSale(svc *sales.Service, cfg *config.Config, notifier SyncNotifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req completeSaleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := sales.CompleteSaleInput{
			BranchID:      cfg.Device.BranchID,
			CustomerID:    req.CustomerID,
			PaidAmount:    req.PaidAmount,
			PaymentMethod: req.PaymentMethod,
		}
		if cfg.Device.UserID != "" {
			userID := cfg.Device.UserID
			input.CashierUserID = &userID
		}
		for _, line := range req.Lines {
			input.Lines = append(input.Lines, sales.LineInput{
				ProductID: line.ProductID,
				Unit:      line.Unit,
				Quantity:  line.Quantity,
			})
		}

		result, err := svc.CompleteSale(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if notifier != nil {
			notifier.Notify()
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"sale":        result.Sale,
			"ledgerEntry": result.LedgerEntry,
			"stockLevels": result.StockLevels,
		})
	}
}

func GetSale(svc *sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "saleId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid sale id"))
			return
		}

		sale, err := svc.Sale(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, sale)
	}
}

func RecentSales(svc *sales.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := svc.RecentSales(ctx, cfg.Device.BranchID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
