package balance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
	"github.com/omarfadal/suuqpos-backend/pkg/enums"
	pkgerrors "github.com/omarfadal/suuqpos-backend/pkg/errors"
	"github.com/omarfadal/suuqpos-backend/pkg/logger"
)

// PersistResult tells the caller how far a write made it. Memory is always
// true for accepted writes; Durable is false when the local store rejected
// the persist and the engine carried on in memory only.
type PersistResult struct {
	Memory  bool
	Durable bool
}

// Engine owns the party balance caches and enforces business invariants at
// append time. Constructed once per process and injected; there is no
// package-level state.
type Engine struct {
	repo Repository
	logg *logger.Logger

	mu        sync.Mutex
	loaded    bool
	customers map[uuid.UUID]*models.Customer
	suppliers map[uuid.UUID]*models.Supplier
	partyMu   map[uuid.UUID]*sync.Mutex
}

// EngineParams wires an Engine.
type EngineParams struct {
	Repository Repository
	Logger     *logger.Logger
}

// NewEngine builds an unloaded engine. Call Load before appending.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("balance repository required")
	}
	return &Engine{
		repo:      params.Repository,
		logg:      params.Logger,
		customers: make(map[uuid.UUID]*models.Customer),
		suppliers: make(map[uuid.UUID]*models.Supplier),
		partyMu:   make(map[uuid.UUID]*sync.Mutex),
	}, nil
}

// Load hydrates the balance caches from the local store. Operations before a
// successful Load fail fast rather than reading an empty cache.
func (e *Engine) Load(ctx context.Context) error {
	customers, err := e.repo.LoadCustomers(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading customers")
	}
	suppliers, err := e.repo.LoadSuppliers(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "loading suppliers")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range customers {
		c := customers[i]
		e.customers[c.ID] = &c
	}
	for i := range suppliers {
		s := suppliers[i]
		e.suppliers[s.ID] = &s
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
		return pkgerrors.New(pkgerrors.CodeStateConflict, "balance engine not loaded")
	}
	return nil
}

// lockParty returns the mutex serializing appends for one party. The append
// must hold it from the cache read through the cache update so the
// read-modify-write window cannot interleave with another append.
func (e *Engine) lockParty(id uuid.UUID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	mu, ok := e.partyMu[id]
	if !ok {
		mu = &sync.Mutex{}
		e.partyMu[id] = mu
	}
	return mu
}

// AppendCustomerInput captures one immutable receivable event.
type AppendCustomerInput struct {
	CustomerID       uuid.UUID
	BranchID         string
	Type             enums.LedgerEntryType
	Amount           decimal.Decimal
	ReferenceID      string
	PaymentChannel   *enums.PaymentChannel
	PaymentReference *string
	Note             *string
	ClientTxnID      *string

	// Tx scopes the persist to a caller-owned transaction (sale completion).
	// When set, persistence failures abort the append instead of degrading,
	// because the caller's transaction must stay all-or-nothing.
	Tx *gorm.DB
}

// AppendCustomerEntry validates, computes the running balance, enforces the
// credit limit, and commits entry + cache as one logical step.
func (e *Engine) AppendCustomerEntry(ctx context.Context, input AppendCustomerInput) (*models.CustomerLedgerEntry, PersistResult, error) {
	if err := e.ensureLoaded(); err != nil {
		return nil, PersistResult{}, err
	}
	if !input.Type.IsValidForCustomer() {
		return nil, PersistResult{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid customer ledger type %q", input.Type))
	}
	if input.ReferenceID == "" {
		return nil, PersistResult{}, pkgerrors.New(pkgerrors.CodeValidation, "reference id is required")
	}

	mu := e.lockParty(input.CustomerID)
	mu.Lock()
	defer mu.Unlock()

	e.mu.Lock()
	customer, ok := e.customers[input.CustomerID]
	if !ok {
		e.mu.Unlock()
		return nil, PersistResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	currentBalance := customer.CurrentBalance
	creditLimit := customer.CreditLimit
	e.mu.Unlock()

	newBalance := currentBalance.Add(input.Amount)

	// Limit applies only to debt-increasing entries; the append is rejected,
	// never clamped.
	if input.Amount.IsPositive() && newBalance.GreaterThan(creditLimit) {
		return nil, PersistResult{}, pkgerrors.
			New(pkgerrors.CodeCreditLimit, fmt.Sprintf("credit limit exceeded: limit %s, new balance would be %s", creditLimit, newBalance)).
			WithDetails(map[string]any{
				"current_balance":   currentBalance.String(),
				"credit_limit":      creditLimit.String(),
				"attempted_balance": newBalance.String(),
			})
	}

	now := time.Now()
	entry := &models.CustomerLedgerEntry{
		ID:               uuid.New(),
		CustomerID:       input.CustomerID,
		BranchID:         input.BranchID,
		Type:             input.Type,
		Amount:           input.Amount,
		BalanceAfter:     newBalance,
		ReferenceID:      input.ReferenceID,
		PaymentChannel:   input.PaymentChannel,
		PaymentReference: input.PaymentReference,
		Note:             input.Note,
		ClientTxnID:      input.ClientTxnID,
		CreatedAt:        now,
	}

	// Readers take e.mu, so the cache mutation must happen under it too; the
	// party mutex only serializes appends against each other. The snapshot
	// keeps gorm from reading the cached struct outside the lock.
	e.mu.Lock()
	customer.CurrentBalance = newBalance
	switch input.Type {
	case enums.LedgerEntrySale:
		customer.LastPurchaseAt = &now
	case enums.LedgerEntryPayment:
		customer.LastPaymentAt = &now
	}
	saved := *customer
	e.mu.Unlock()

	res := PersistResult{Memory: true, Durable: true}
	repo := e.repo.WithTx(input.Tx)
	if err := repo.CreateCustomerEntry(ctx, entry); err != nil {
		if input.Tx != nil {
			return nil, PersistResult{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "persisting customer ledger entry")
		}
		res.Durable = false
		e.warnPersist(ctx, "customer ledger entry persist failed", err)
	}
	if res.Durable {
		if err := repo.SaveCustomer(ctx, &saved); err != nil {
			if input.Tx != nil {
				return nil, PersistResult{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "persisting customer balance")
			}
			res.Durable = false
			e.warnPersist(ctx, "customer balance persist failed", err)
		}
	}

	return entry, res, nil
}

// AppendSupplierInput captures one immutable payable event.
type AppendSupplierInput struct {
	SupplierID       uuid.UUID
	BranchID         string
	Type             enums.LedgerEntryType
	Amount           decimal.Decimal
	ReferenceID      string
	PaymentChannel   *enums.PaymentChannel
	PaymentReference *string
	Note             *string
	Tx               *gorm.DB
}

// AppendSupplierEntry mirrors the customer append without a limit check;
// payables are not capped.
func (e *Engine) AppendSupplierEntry(ctx context.Context, input AppendSupplierInput) (*models.SupplierLedgerEntry, PersistResult, error) {
	if err := e.ensureLoaded(); err != nil {
		return nil, PersistResult{}, err
	}
	if !input.Type.IsValidForSupplier() {
		return nil, PersistResult{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid supplier ledger type %q", input.Type))
	}
	if input.ReferenceID == "" {
		return nil, PersistResult{}, pkgerrors.New(pkgerrors.CodeValidation, "reference id is required")
	}

	mu := e.lockParty(input.SupplierID)
	mu.Lock()
	defer mu.Unlock()

	e.mu.Lock()
	supplier, ok := e.suppliers[input.SupplierID]
	if !ok {
		e.mu.Unlock()
		return nil, PersistResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
	}
	currentBalance := supplier.CurrentBalance
	e.mu.Unlock()

	newBalance := currentBalance.Add(input.Amount)
	now := time.Now()
	entry := &models.SupplierLedgerEntry{
		ID:               uuid.New(),
		SupplierID:       input.SupplierID,
		BranchID:         input.BranchID,
		Type:             input.Type,
		Amount:           input.Amount,
		BalanceAfter:     newBalance,
		ReferenceID:      input.ReferenceID,
		PaymentChannel:   input.PaymentChannel,
		PaymentReference: input.PaymentReference,
		Note:             input.Note,
		CreatedAt:        now,
	}

	e.mu.Lock()
	supplier.CurrentBalance = newBalance
	saved := *supplier
	e.mu.Unlock()

	res := PersistResult{Memory: true, Durable: true}
	repo := e.repo.WithTx(input.Tx)
	if err := repo.CreateSupplierEntry(ctx, entry); err != nil {
		if input.Tx != nil {
			return nil, PersistResult{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "persisting supplier ledger entry")
		}
		res.Durable = false
		e.warnPersist(ctx, "supplier ledger entry persist failed", err)
	}
	if res.Durable {
		if err := repo.SaveSupplier(ctx, &saved); err != nil {
			if input.Tx != nil {
				return nil, PersistResult{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "persisting supplier balance")
			}
			res.Durable = false
			e.warnPersist(ctx, "supplier balance persist failed", err)
		}
	}

	return entry, res, nil
}

// CustomerBalance returns the cached balance for the party.
func (e *Engine) CustomerBalance(id uuid.UUID) (decimal.Decimal, error) {
	if err := e.ensureLoaded(); err != nil {
		return decimal.Zero, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	customer, ok := e.customers[id]
	if !ok {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return customer.CurrentBalance, nil
}

// SupplierBalance returns the cached payable balance for the party.
func (e *Engine) SupplierBalance(id uuid.UUID) (decimal.Decimal, error) {
	if err := e.ensureLoaded(); err != nil {
		return decimal.Zero, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	supplier, ok := e.suppliers[id]
	if !ok {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
	}
	return supplier.CurrentBalance, nil
}

// Customer returns a copy of the cached customer.
func (e *Engine) Customer(id uuid.UUID) (models.Customer, error) {
	if err := e.ensureLoaded(); err != nil {
		return models.Customer{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	customer, ok := e.customers[id]
	if !ok {
		return models.Customer{}, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return *customer, nil
}

// Customers returns copies of all cached customers sorted by name.
func (e *Engine) Customers() ([]models.Customer, error) {
	if err := e.ensureLoaded(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Customer, 0, len(e.customers))
	for _, c := range e.customers {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Suppliers returns copies of all cached suppliers sorted by name.
func (e *Engine) Suppliers() ([]models.Supplier, error) {
	if err := e.ensureLoaded(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Supplier, 0, len(e.suppliers))
	for _, s := range e.suppliers {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// TotalPayables sums positive supplier balances.
func (e *Engine) TotalPayables() (decimal.Decimal, error) {
	if err := e.ensureLoaded(); err != nil {
		return decimal.Zero, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	total := decimal.Zero
	for _, s := range e.suppliers {
		if s.CurrentBalance.IsPositive() {
			total = total.Add(s.CurrentBalance)
		}
	}
	return total, nil
}

// CreateCustomerInput seeds a new customer at balance zero.
type CreateCustomerInput struct {
	Name        string
	Phone       string
	Address     *string
	CreditLimit decimal.Decimal
}

// CreateCustomer registers a customer with an empty ledger.
func (e *Engine) CreateCustomer(ctx context.Context, input CreateCustomerInput) (models.Customer, PersistResult, error) {
	if err := e.ensureLoaded(); err != nil {
		return models.Customer{}, PersistResult{}, err
	}
	if input.Name == "" {
		return models.Customer{}, PersistResult{}, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if input.CreditLimit.IsNegative() {
		return models.Customer{}, PersistResult{}, pkgerrors.New(pkgerrors.CodeValidation, "credit limit must not be negative")
	}

	customer := &models.Customer{
		ID:             uuid.New(),
		Name:           input.Name,
		Phone:          input.Phone,
		Address:        input.Address,
		CreditLimit:    input.CreditLimit,
		CurrentBalance: decimal.Zero,
		Status:         enums.CustomerStatusActive,
		CreatedAt:      time.Now(),
	}

	e.mu.Lock()
	e.customers[customer.ID] = customer
	saved := *customer
	e.mu.Unlock()

	res := PersistResult{Memory: true, Durable: true}
	if err := e.repo.SaveCustomer(ctx, &saved); err != nil {
		res.Durable = false
		e.warnPersist(ctx, "customer persist failed", err)
	}
	return saved, res, nil
}

// CreateSupplierInput seeds a new supplier at balance zero.
type CreateSupplierInput struct {
	Name    string
	Phone   *string
	Email   *string
	Address *string
	Notes   *string
}

// CreateSupplier registers a supplier with an empty ledger.
func (e *Engine) CreateSupplier(ctx context.Context, input CreateSupplierInput) (models.Supplier, PersistResult, error) {
	if err := e.ensureLoaded(); err != nil {
		return models.Supplier{}, PersistResult{}, err
	}
	if input.Name == "" {
		return models.Supplier{}, PersistResult{}, pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required")
	}

	supplier := &models.Supplier{
		ID:             uuid.New(),
		Name:           input.Name,
		Phone:          input.Phone,
		Email:          input.Email,
		Address:        input.Address,
		Notes:          input.Notes,
		CurrentBalance: decimal.Zero,
		Status:         enums.SupplierStatusActive,
		CreatedAt:      time.Now(),
	}

	e.mu.Lock()
	e.suppliers[supplier.ID] = supplier
	saved := *supplier
	e.mu.Unlock()

	res := PersistResult{Memory: true, Durable: true}
	if err := e.repo.SaveSupplier(ctx, &saved); err != nil {
		res.Durable = false
		e.warnPersist(ctx, "supplier persist failed", err)
	}
	return saved, res, nil
}

// CustomerHistory returns ledger entries newest-first.
func (e *Engine) CustomerHistory(ctx context.Context, customerID uuid.UUID, limit int) ([]models.CustomerLedgerEntry, error) {
	return e.repo.CustomerHistory(ctx, customerID, limit)
}

// SupplierHistory returns ledger entries newest-first.
func (e *Engine) SupplierHistory(ctx context.Context, supplierID uuid.UUID, limit int) ([]models.SupplierLedgerEntry, error) {
	return e.repo.SupplierHistory(ctx, supplierID, limit)
}

// RecomputeCustomerBalance replays the persisted ledger from zero and
// repairs the cache when a read path suspects drift. Returns the replayed
// balance.
func (e *Engine) RecomputeCustomerBalance(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	if err := e.ensureLoaded(); err != nil {
		return decimal.Zero, err
	}

	mu := e.lockParty(customerID)
	mu.Lock()
	defer mu.Unlock()

	entries, err := e.repo.CustomerEntriesAsc(ctx, customerID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "replaying customer ledger")
	}

	balance := decimal.Zero
	for _, entry := range entries {
		balance = balance.Add(entry.Amount)
	}

	e.mu.Lock()
	if customer, ok := e.customers[customerID]; ok {
		customer.CurrentBalance = balance
	}
	e.mu.Unlock()

	return balance, nil
}

func (e *Engine) warnPersist(ctx context.Context, msg string, err error) {
	if e.logg == nil {
		return
	}
	ctx = e.logg.WithField(ctx, "error", err.Error())
	e.logg.Warn(ctx, msg)
}
