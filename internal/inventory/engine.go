package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
	"github.com/omarfadal/suuqpos-backend/pkg/enums"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
	"github.com/omarfadal/suuqpos-backend/pkg/ids"
	"github.com/omarfadal/suuqpos-backend/pkg/logger"
)

type itemKey struct {
	productID uuid.UUID
	branchID  string
}

// PersistResult mirrors the balance engine's durability report.
type PersistResult struct {
	Memory  bool
	Durable bool
}

// Engine owns the per-(product, branch) stock aggregates. Movement append and
// aggregate update are one logical step under the engine lock.
type Engine struct {
	repo Repository
	logg *logger.Logger

	mu     sync.Mutex
	loaded bool
	items  map[itemKey]*models.InventoryItem
}

// EngineParams wires an Engine.
type EngineParams struct {
	Repository Repository
	Logger     *logger.Logger
}

// NewEngine builds an unloaded engine. Call Load before adjusting stock.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &Engine{
		repo:  params.Repository,
		logg:  params.Logger,
		items: make(map[itemKey]*models.InventoryItem),
	}, nil
}

// Load hydrates the aggregates from the local store.
func (e *Engine) Load(ctx context.Context) error {
	items, err := e.repo.LoadInventory(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading inventory")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range items {
		item := items[i]
		e.items[itemKey{productID: item.ProductID, branchID: item.BranchID}] = &item
	}
	e.loaded = true
	return nil
}

// Ready reports whether Load has completed.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

func (e *Engine) ensureLoaded() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "inventory engine not loaded")
	}
	return nil
}

// AdjustInput captures one stock movement in canonical kilograms. Unit
// canonicalization happens before this point; the engine assumes KgChange is
// already kilograms.
type AdjustInput struct {
	ProductID   uuid.UUID
	BranchID    string
	Type        enums.StockMovementType
	KgChange    float64
	ReferenceID string
	Note        *string
	ClientTxnID *string
	Tx          *gorm.DB
}

// AdjustStock appends a movement and updates (or lazily creates) the
// aggregate. Negative resulting stock is permitted: the till never blocks a
// sale on stock, it just surfaces the negative level. Returns the new level.
func (e *Engine) AdjustStock(ctx context.Context, input AdjustInput) (float64, PersistResult, error) {
	if err := e.ensureLoaded(); err != nil {
		return 0, PersistResult{}, err
	}
	if !input.Type.IsValid() {
		return 0, PersistResult{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid stock movement type %q", input.Type))
	}
	if input.BranchID == "" {
		return 0, PersistResult{}, pkgerrors.New(pkgerrors.CodeValidation, "branch id is required")
	}

	referenceID := input.ReferenceID
	if referenceID == "" {
		referenceID = ids.NewReferenceID("MOV")
	}

	now := time.Now()
	movement := &models.StockMovement{
		ID:          uuid.New(),
		BranchID:    input.BranchID,
		ProductID:   input.ProductID,
		Type:        input.Type,
		KgChange:    input.KgChange,
		ReferenceID: referenceID,
		Note:        input.Note,
		ClientTxnID: input.ClientTxnID,
		CreatedAt:   now,
	}

	e.mu.Lock()
	key := itemKey{productID: input.ProductID, branchID: input.BranchID}
	item, ok := e.items[key]
	if !ok {
		item = &models.InventoryItem{
			ProductID: input.ProductID,
			BranchID:  input.BranchID,
		}
		e.items[key] = item
	}
	item.StockKg += input.KgChange
	item.LastUpdated = now
	newLevel := item.StockKg
	// Snapshot before unlocking; gorm reads every field of the struct it
	// persists, which must not race with the next adjustment.
	saved := *item
	e.mu.Unlock()

	res := PersistResult{Memory: true, Durable: true}
	repo := e.repo.WithTx(input.Tx)
	if err := repo.CreateMovement(ctx, movement); err != nil {
		if input.Tx != nil {
			return 0, PersistResult{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "persisting stock movement")
		}
		res.Durable = false
		e.warnPersist(ctx, "stock movement persist failed", err)
	}
	if res.Durable {
		if err := repo.SaveItem(ctx, &saved); err != nil {
			if input.Tx != nil {
				return 0, PersistResult{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "persisting inventory aggregate")
			}
			res.Durable = false
			e.warnPersist(ctx, "inventory aggregate persist failed", err)
		}
	}

	return newLevel, res, nil
}

// Stock returns the cached level for the pair; zero when no record exists.
func (e *Engine) Stock(productID uuid.UUID, branchID string) (float64, error) {
	if err := e.ensureLoaded(); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if item, ok := e.items[itemKey{productID: productID, branchID: branchID}]; ok {
		return item.StockKg, nil
	}
	return 0, nil
}

// BranchInventory returns copies of all aggregates for a branch sorted by
// product id.
func (e *Engine) BranchInventory(branchID string) ([]models.InventoryItem, error) {
	if err := e.ensureLoaded(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.InventoryItem, 0)
	for _, item := range e.items {
		if item.BranchID == branchID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID.String() < out[j].ProductID.String() })
	return out, nil
}

// RecomputeStock replays the persisted movement log from zero and repairs
// the cached aggregate. Used after a rolled-back transaction may have left
// the cache ahead of the store. Returns the replayed level.
func (e *Engine) RecomputeStock(ctx context.Context, productID uuid.UUID, branchID string) (float64, error) {
	if err := e.ensureLoaded(); err != nil {
		return 0, err
	}
	movements, err := e.repo.MovementsAsc(ctx, productID, branchID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "replaying stock movements")
	}
	total := 0.0
	for _, m := range movements {
		total += m.KgChange
	}

	e.mu.Lock()
	key := itemKey{productID: productID, branchID: branchID}
	item, ok := e.items[key]
	if !ok {
		item = &models.InventoryItem{ProductID: productID, BranchID: branchID}
		e.items[key] = item
	}
	item.StockKg = total
	item.LastUpdated = time.Now()
	e.mu.Unlock()

	return total, nil
}

// History returns movements for the pair, newest-first.
func (e *Engine) History(ctx context.Context, productID uuid.UUID, branchID string, limit int) ([]models.StockMovement, error) {
	return e.repo.MovementHistory(ctx, productID, branchID, limit)
}

func (e *Engine) warnPersist(ctx context.Context, msg string, err error) {
	if e.logg == nil {
		return
	}
	ctx = e.logg.WithField(ctx, "error", err.Error())
	e.logg.Warn(ctx, msg)
}
