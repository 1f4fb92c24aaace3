package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/omarfadal/suuqpos-backend/internal/balance"
	"github.com/omarfadal/suuqpos-backend/internal/catalog"
	"github.com/omarfadal/suuqpos-backend/internal/inventory"
	"github.com/omarfadal/suuqpos-backend/internal/outbox"
	"github.com/omarfadal/suuqpos-backend/pkg/db"
	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
	"github.com/omarfadal/suuqpos-backend/pkg/enums"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
	"github.com/omarfadal/suuqpos-backend/pkg/ids"
	"github.com/omarfadal/suuqpos-backend/pkg/logger"
)

// Service completes sales against the local store. One completed sale is one
// local transaction covering the sale record, the credit ledger entry, the
// stock movements and the queue row; they commit or roll back together.
type Service struct {
	local    *db.Client
	repo     Repository
	catalog  catalog.Repository
	balances *balance.Engine
	stock    *inventory.Engine
	queue    *outbox.Repository
	logg     *logger.Logger
	validate *validator.Validate
	deviceID string
}

// ServiceParams wires a Service.
type ServiceParams struct {
	Local     *db.Client
	Repo      Repository
	Catalog   catalog.Repository
	Balances  *balance.Engine
	Inventory *inventory.Engine
	Outbox    *outbox.Repository
	Logger    *logger.Logger
	DeviceID  string
}

// NewService builds the sale completion service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Local == nil {
		return nil, fmt.Errorf("local db client required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Balances == nil {
		return nil, fmt.Errorf("balance engine required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory engine required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if params.DeviceID == "" {
		return nil, fmt.Errorf("device id required")
	}
	return &Service{
		local:    params.Local,
		repo:     params.Repo,
		catalog:  params.Catalog,
		balances: params.Balances,
		stock:    params.Inventory,
		queue:    params.Outbox,
		logg:     params.Logger,
		validate: validator.New(),
		deviceID: params.DeviceID,
	}, nil
}

// LineInput is one cart line as submitted by the till.
type LineInput struct {
	ProductID string  `validate:"required,uuid"`
	Unit      string  `validate:"required"`
	Quantity  float64 `validate:"required,gt=0"`
}

// CompleteSaleInput describes a checkout. PaidAmount is what changed hands;
// the unpaid remainder becomes customer credit and requires a customer.
type CompleteSaleInput struct {
	BranchID      string      `validate:"required"`
	CustomerID    *string     `validate:"omitempty,uuid"`
	PaidAmount    string      `validate:"required"`
	PaymentMethod string      `validate:"required"`
	CashierUserID *string     `validate:"omitempty"`
	Lines         []LineInput `validate:"required,min=1,dive"`
}

// CompleteSaleResult reports the committed sale and its side effects.
type CompleteSaleResult struct {
	Sale        *models.Sale
	LedgerEntry *models.CustomerLedgerEntry
	StockLevels map[uuid.UUID]float64
	OutboxID    int64
}

type pricedLine struct {
	product   *models.Product
	unit      enums.Unit
	quantity  float64
	kg        float64
	lineTotal decimal.Decimal
}

// CompleteSale validates the cart, canonicalizes every line to kilograms,
// prices it from the catalog snapshot, and commits sale, ledger, stock and
// queue row as one local transaction. A credit limit rejection rolls the
// whole sale back.
func (s *Service) CompleteSale(ctx context.Context, input CompleteSaleInput) (*CompleteSaleResult, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sale")
	}

	paid, err := decimal.NewFromString(input.PaidAmount)
	if err != nil || paid.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paid amount must be a non-negative decimal")
	}
	method := enums.PaymentMethod(input.PaymentMethod)
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}

	var customerID *uuid.UUID
	var customerName *string
	if input.CustomerID != nil {
		id, err := uuid.Parse(*input.CustomerID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer id")
		}
		customer, err := s.balances.Customer(id)
		if err != nil {
			return nil, err
		}
		if customer.Status == enums.CustomerStatusBlocked {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer is blocked")
		}
		customerID = &id
		customerName = &customer.Name
	}

	lines, total, err := s.priceLines(ctx, input.Lines)
	if err != nil {
		return nil, err
	}

	credit := total.Sub(paid)
	if credit.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("paid amount %s exceeds sale total %s", paid, total))
	}
	if credit.IsPositive() && customerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit sale requires a customer")
	}

	now := time.Now()
	clientTxnID := ids.NewClientTxnID(s.deviceID)
	sale := &models.Sale{
		ID:            uuid.New(),
		BranchID:      input.BranchID,
		CustomerID:    customerID,
		CustomerName:  customerName,
		TotalAmount:   total,
		PaidAmount:    paid,
		CreditAmount:  credit,
		PaymentMethod: method,
		Status:        enums.SaleStatusCompleted,
		ClientTxnID:   clientTxnID,
		CashierUserID: input.CashierUserID,
		CreatedAt:     now,
	}
	for i, line := range lines {
		sale.Items = append(sale.Items, models.SaleItem{
			ID:                 uuid.New(),
			SaleID:             sale.ID,
			ProductID:          line.product.ID,
			NameSnapshot:       line.product.Name,
			UnitUsed:           line.unit,
			Quantity:           line.quantity,
			KgCalculated:       line.kg,
			PricePerKgSnapshot: line.product.PricePerKg,
			LineTotal:          line.lineTotal,
			Position:           i,
		})
	}

	result := &CompleteSaleResult{Sale: sale, StockLevels: make(map[uuid.UUID]float64)}
	txErr := s.local.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateSale(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "persisting sale")
		}

		// Ledger first: a credit limit rejection aborts before any stock
		// cache has been touched.
		if credit.IsPositive() {
			entry, _, err := s.balances.AppendCustomerEntry(ctx, balance.AppendCustomerInput{
				CustomerID:  *customerID,
				BranchID:    input.BranchID,
				Type:        enums.LedgerEntrySale,
				Amount:      credit,
				ReferenceID: sale.ID.String(),
				ClientTxnID: &clientTxnID,
				Tx:          tx,
			})
			if err != nil {
				return err
			}
			result.LedgerEntry = entry
		}

		for _, line := range lines {
			level, _, err := s.stock.AdjustStock(ctx, inventory.AdjustInput{
				ProductID:   line.product.ID,
				BranchID:    input.BranchID,
				Type:        enums.StockMovementSale,
				KgChange:    -line.kg,
				ReferenceID: sale.ID.String(),
				ClientTxnID: &clientTxnID,
				Tx:          tx,
			})
			if err != nil {
				return err
			}
			result.StockLevels[line.product.ID] = level
		}

		payload := buildSalePayload(sale, s.deviceID)
		raw, err := payload.Marshal()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding sale payload")
		}
		entry := &models.OutboxEntry{
			ClientTxnID: clientTxnID,
			EventType:   enums.OutboxEventSale,
			Payload:     raw,
			Status:      enums.OutboxStatusPending,
			CreatedAt:   now,
		}
		if err := s.queue.InsertTx(tx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "enqueueing sale event")
		}
		result.OutboxID = entry.ID
		return nil
	})
	if txErr != nil {
		s.repairCaches(ctx, input.BranchID, customerID, lines)
		return nil, txErr
	}

	s.logCompleted(ctx, sale)
	return result, nil
}

// priceLines resolves each cart line against the catalog, converts the
// transacted quantity to kilograms and prices it from the per-kg snapshot.
func (s *Service) priceLines(ctx context.Context, inputs []LineInput) ([]pricedLine, decimal.Decimal, error) {
	lines := make([]pricedLine, 0, len(inputs))
	total := decimal.Zero
	for i, in := range inputs {
		productID, err := uuid.Parse(in.ProductID)
		if err != nil {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: invalid product id", i))
		}
		unit, err := enums.ParseUnit(in.Unit)
		if err != nil {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: %v", i, err))
		}
		product, err := s.catalog.Get(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("line %d: product not found", i))
			}
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading product")
		}
		if !product.IsActive {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: product %s is inactive", i, product.Name))
		}

		kg, err := catalog.CanonicalKg(product, unit, in.Quantity)
		if err != nil {
			return nil, decimal.Zero, err
		}
		lineTotal := product.PricePerKg.Mul(decimal.NewFromFloat(kg)).Round(2)
		total = total.Add(lineTotal)
		lines = append(lines, pricedLine{
			product:   product,
			unit:      unit,
			quantity:  in.Quantity,
			kg:        kg,
			lineTotal: lineTotal,
		})
	}
	return lines, total, nil
}

// repairCaches replays persisted state for every party and product a rolled
// back sale may have mutated in memory. The engines update their caches
// before persisting, so a rollback can leave them ahead of the store.
func (s *Service) repairCaches(ctx context.Context, branchID string, customerID *uuid.UUID, lines []pricedLine) {
	var repairErr error
	if customerID != nil {
		if _, err := s.balances.RecomputeCustomerBalance(ctx, *customerID); err != nil {
			repairErr = multierr.Append(repairErr, err)
		}
	}
	for _, line := range lines {
		if _, err := s.stock.RecomputeStock(ctx, line.product.ID, branchID); err != nil {
			repairErr = multierr.Append(repairErr, err)
		}
	}
	if repairErr != nil {
		s.warn(ctx, "cache repair after rollback failed", repairErr)
	}
}

func buildSalePayload(sale *models.Sale, deviceID string) outbox.SalePayload {
	payload := outbox.SalePayload{
		SaleID:        sale.ID,
		ClientTxnID:   sale.ClientTxnID,
		BranchID:      sale.BranchID,
		DeviceID:      deviceID,
		CustomerID:    sale.CustomerID,
		CustomerName:  sale.CustomerName,
		TotalAmount:   sale.TotalAmount,
		PaidAmount:    sale.PaidAmount,
		CreditAmount:  sale.CreditAmount,
		PaymentMethod: sale.PaymentMethod,
		CashierUserID: sale.CashierUserID,
		SoldAt:        sale.CreatedAt,
	}
	for _, item := range sale.Items {
		payload.Lines = append(payload.Lines, outbox.SaleLine{
			ProductID:    item.ProductID,
			NameSnapshot: item.NameSnapshot,
			UnitUsed:     item.UnitUsed,
			Quantity:     item.Quantity,
			KgCalculated: item.KgCalculated,
			PricePerKg:   item.PricePerKgSnapshot,
			LineTotal:    item.LineTotal,
			Position:     item.Position,
		})
	}
	return payload
}

// Sale returns a completed sale with its items.
func (s *Service) Sale(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	sale, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading sale")
	}
	return sale, nil
}

// RecentSales lists the branch's latest sales, newest-first.
func (s *Service) RecentSales(ctx context.Context, branchID string, limit int) ([]models.Sale, error) {
	if branchID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}
	sales, err := s.repo.Recent(ctx, branchID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "listing sales")
	}
	return sales, nil
}

func (s *Service) logCompleted(ctx context.Context, sale *models.Sale) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithClientTxnID(ctx, sale.ClientTxnID)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"sale_id": sale.ID.String(),
		"total":   sale.TotalAmount.String(),
		"paid":    sale.PaidAmount.String(),
		"credit":  sale.CreditAmount.String(),
		"items":   len(sale.Items),
	})
	s.logg.Info(ctx, "sale completed")
}

func (s *Service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithField(ctx, "error", err.Error())
	s.logg.Warn(ctx, msg)
}
