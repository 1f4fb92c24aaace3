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

type createCustomerRequest struct {
	Name        string  `json:"name" validate:"required"`
	Phone       string  `json:"phone"`
	Address     *string `json:"address"`
	CreditLimit string  `json:"creditLimit" validate:"required"`
}

func CreateCustomer(engine *balance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req createCustomerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := decimal.NewFromString(req.CreditLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "credit limit must be a decimal"))
			return
		}

		customer, persisted, err := engine.CreateCustomer(ctx, balance.CreateCustomerInput{
			Name:        req.Name,
			Phone:       req.Phone,
			Address:     req.Address,
			CreditLimit: limit,
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
			"customer": customer,
			"durable":  persisted.Durable,
		})
	}
}

func ListCustomers(engine *balance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		customers, err := engine.Customers()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, customers)
	}
}

func GetCustomer(engine *balance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "customerId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer id"))
			return
		}

		customer, err := engine.Customer(id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

func CustomerLedger(engine *balance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "customerId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer id"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		entries, err := engine.CustomerHistory(ctx, id, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

type recordPaymentRequest struct {
	Amount    string  `json:"amount" validate:"required"`
	Channel   string  `json:"channel" validate:"required"`
	Reference *string `json:"reference"`
	Note      *string `json:"note"`
}

// RecordCustomerPayment appends a PAYMENT ledger entry reducing the
// customer's receivable balance.
func RecordCustomerPayment(engine *balance.Engine, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "customerId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer id"))
			return
		}

		var req recordPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil || !amount.IsPositive() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a positive decimal"))
			return
		}
		channel, err := enums.ParsePaymentChannel(req.Channel)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}

		entry, persisted, err := engine.AppendCustomerEntry(ctx, balance.AppendCustomerInput{
			CustomerID:       id,
			BranchID:         cfg.Device.BranchID,
			Type:             enums.LedgerEntryPayment,
			Amount:           amount.Neg(),
			ReferenceID:      ids.NewReferenceID("PAY"),
			PaymentChannel:   &channel,
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

// RecomputeCustomerBalance replays the persisted ledger and repairs the
// cached balance.
func RecomputeCustomerBalance(engine *balance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "customerId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer id"))
			return
		}

		replayed, err := engine.RecomputeCustomerBalance(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"balance": replayed})
	}
}
