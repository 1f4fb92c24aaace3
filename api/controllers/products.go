package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/omarfadal/suuqpos-backend/api/responses"
	"github.com/omarfadal/suuqpos-backend/api/validators"
	"github.com/omarfadal/suuqpos-backend/internal/catalog"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
	"github.com/omarfadal/suuqpos-backend/pkg/logger"
)

type createProductRequest struct {
	Name       string   `json:"name" validate:"required"`
	CategoryID string   `json:"categoryId"`
	Barcode    *string  `json:"barcode"`
	BaseUnit   string   `json:"baseUnit" validate:"required"`
	BagSizeKg  *float64 `json:"bagSizeKg" validate:"omitempty,gt=0"`
	PricePerKg string   `json:"pricePerKg" validate:"required"`
	CostPerKg  string   `json:"costPerKg" validate:"required"`
}

func CreateProduct(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.CreateProduct(ctx, catalog.CreateProductInput{
			Name:       req.Name,
			CategoryID: req.CategoryID,
			Barcode:    req.Barcode,
			BaseUnit:   req.BaseUnit,
			BagSizeKg:  req.BagSizeKg,
			PricePerKg: req.PricePerKg,
			CostPerKg:  req.CostPerKg,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func ListProducts(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		activeOnly := r.URL.Query().Get("all") == ""
		products, err := svc.Products(ctx, activeOnly)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func GetProduct(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		product, err := svc.Product(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func GetProductByBarcode(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		product, err := svc.ProductByBarcode(ctx, chi.URLParam(r, "barcode"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func DeactivateProduct(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		if err := svc.Deactivate(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}
