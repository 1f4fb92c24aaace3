package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/omarfadal/suuqpos-backend/api/responses"
	"github.com/omarfadal/suuqpos-backend/api/validators"
	"github.com/omarfadal/suuqpos-backend/internal/inventory"
	"github.com/omarfadal/suuqpos-backend/pkg/config"
	"github.com/omarfadal/suuqpos-backend/pkg/enums"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
	"github.com/omarfadal/suuqpos-backend/pkg/logger"
)

func BranchInventory(engine *inventory.Engine, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		items, err := engine.BranchInventory(cfg.Device.BranchID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

type adjustStockRequest struct {
	ProductID string  `json:"productId" validate:"required,uuid"`
	Type      string  `json:"type" validate:"required"`
	KgChange  float64 `json:"kgChange" validate:"required"`
	Reference string  `json:"reference"`
	Note      *string `json:"note"`
}

// AdjustStock records a manual movement: receiving a purchase, an audit
// adjustment, wastage, or a transfer. Sale movements only ever come from
// sale completion.
func AdjustStock(engine *inventory.Engine, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req adjustStockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}
		movementType, err := enums.ParseStockMovementType(req.Type)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}
		if movementType == enums.StockMovementSale {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "sale movements are recorded through checkout"))
			return
		}

		level, persisted, err := engine.AdjustStock(ctx, inventory.AdjustInput{
			ProductID:   productID,
			BranchID:    cfg.Device.BranchID,
			Type:        movementType,
			KgChange:    req.KgChange,
			ReferenceID: req.Reference,
			Note:        req.Note,
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
			"stockKg": level,
			"durable": persisted.Durable,
		})
	}
}

func StockMovements(engine *inventory.Engine, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		movements, err := engine.History(ctx, productID, cfg.Device.BranchID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, movements)
	}
}
