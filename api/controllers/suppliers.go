package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/omarfadal/suuqpos-backend/api/responses"
	"github.com/omarfadal/suuqpos-backend/api/validators"
	"github.com/omarfadal/suuqpos-backend/internal/balance"
	"github.com/omarfadal/suuqpos-backend/pkg/config"
	"github.com/omarfadal/suuqpos-backend/pkg/enums"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
	"github.com/omarfadal/suuqpos-backend/pkg/ids"
	"github.com/omarfadal/suuqpos-backend/pkg/logger"
)

type createSupplierRequest struct {
	Name    string  `json:"name" validate:"required"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
}

func CreateSupplier(engine *balance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req createSupplierRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		supplier, persisted, err := engine.CreateSupplier(ctx, balance.CreateSupplierInput{
			Name:    req.Name,
			Phone:   req.Phone,
			Email:   req.Email,
			Address: req.Address,
			Notes:   req.Notes,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := http.StatusCreated
		if !persisted.Durable {
			status = http.StatusAccepted
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"supplier": supplier,
			"durable":  persisted.Durable,
		})
	}
}

func ListSuppliers(engine *balance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		suppliers, err := engine.Suppliers()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, suppliers)
	}
}

func SupplierLedger(engine *balance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "supplierId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid supplier id"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		entries, err := engine.SupplierHistory(ctx, id, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

type supplierEntryRequest struct {
	Type      string  `json:"type" validate:"required"`
	Amount    string  `json:"amount" validate:"required"`
	Channel   *string `json:"channel"`
	Reference *string `json:"reference"`
	Note      *string `json:"note"`
}

// RecordSupplierEntry appends a payable ledger entry: PURCHASE increases the
// amount owed, PAYMENT (sent as a positive amount) decreases it.
func RecordSupplierEntry(engine *balance.Engine, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "supplierId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid supplier id"))
			return
		}

		var req supplierEntryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		entryType, err := enums.ParseLedgerEntryType(req.Type)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil || !amount.IsPositive() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a positive decimal"))
			return
		}
		if entryType == enums.LedgerEntryPayment || entryType == enums.LedgerEntryReturn {
			amount = amount.Neg()
		}

		var channel *enums.PaymentChannel
		if req.Channel != nil {
			parsed, err := enums.ParsePaymentChannel(*req.Channel)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
				return
			}
			channel = &parsed
		}

		entry, persisted, err := engine.AppendSupplierEntry(ctx, balance.AppendSupplierInput{
			SupplierID:       id,
			BranchID:         cfg.Device.BranchID,
			Type:             entryType,
			Amount:           amount,
			ReferenceID:      ids.NewReferenceID("SUP"),
			PaymentChannel:   channel,
			PaymentReference: req.Reference,
			Note:             req.Note,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := http.StatusCreated
		if !persisted.Durable {
			status = http.StatusAccepted
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"entry":   entry,
			"durable": persisted.Durable,
		})
	}
}
