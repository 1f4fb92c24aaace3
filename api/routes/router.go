package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omarfadal/suuqpos-backend/api/controllers"
	"github.com/omarfadal/suuqpos-backend/api/middleware"
	"github.com/omarfadal/suuqpos-backend/internal/balance"
	"github.com/omarfadal/suuqpos-backend/internal/catalog"
	"github.com/omarfadal/suuqpos-backend/internal/expenses"
	"github.com/omarfadal/suuqpos-backend/internal/inventory"
	"github.com/omarfadal/suuqpos-backend/internal/outbox"
	"github.com/omarfadal/suuqpos-backend/internal/reports"
	"github.com/omarfadal/suuqpos-backend/internal/sales"
	"github.com/omarfadal/suuqpos-backend/internal/syncer"
	"github.com/omarfadal/suuqpos-backend/pkg/config"
	"github.com/omarfadal/suuqpos-backend/pkg/db"
	"github.com/omarfadal/suuqpos-backend/pkg/logger"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	Local        db.Pinger
	Remote       db.Pinger
	Balances     *balance.Engine
	Inventory    *inventory.Engine
	Catalog      *catalog.Service
	Sales        *sales.Service
	Expenses     *expenses.Service
	Reports      *reports.Service
	Queue        *outbox.Repository
	Syncer       *syncer.Engine
	PromRegistry *prometheus.Registry
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Local, p.Remote, p.Balances, p.Inventory))
	})

	if p.PromRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.PromRegistry, promhttp.HandlerOpts{}))
	}

	var notifier controllers.SyncNotifier
	if p.Syncer != nil {
		notifier = p.Syncer
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/sales", func(r chi.Router) {
			r.Post("/", controllers.CompleteSale(p.Sales, cfg, notifier, logg))
			r.Get("/", controllers.RecentSales(p.Sales, cfg, logg))
			r.Get("/{saleId}", controllers.GetSale(p.Sales, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(p.Catalog, logg))
			r.Get("/", controllers.ListProducts(p.Catalog, logg))
			r.Get("/{productId}", controllers.GetProduct(p.Catalog, logg))
			r.Get("/barcode/{barcode}", controllers.GetProductByBarcode(p.Catalog, logg))
			r.Delete("/{productId}", controllers.DeactivateProduct(p.Catalog, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Post("/", controllers.CreateCustomer(p.Balances, logg))
			r.Get("/", controllers.ListCustomers(p.Balances, logg))
			r.Get("/{customerId}", controllers.GetCustomer(p.Balances, logg))
			r.Get("/{customerId}/ledger", controllers.CustomerLedger(p.Balances, logg))
			r.Post("/{customerId}/payments", controllers.RecordCustomerPayment(p.Balances, cfg, logg))
			r.Post("/{customerId}/recompute", controllers.RecomputeCustomerBalance(p.Balances, logg))
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Post("/", controllers.CreateSupplier(p.Balances, logg))
			r.Get("/", controllers.ListSuppliers(p.Balances, logg))
			r.Get("/{supplierId}/ledger", controllers.SupplierLedger(p.Balances, logg))
			r.Post("/{supplierId}/entries", controllers.RecordSupplierEntry(p.Balances, cfg, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.BranchInventory(p.Inventory, cfg, logg))
			r.Post("/adjust", controllers.AdjustStock(p.Inventory, cfg, logg))
			r.Get("/movements/{productId}", controllers.StockMovements(p.Inventory, cfg, logg))
		})

		r.Route("/sync", func(r chi.Router) {
			r.Get("/queue", controllers.SyncQueue(p.Queue, logg))
			r.Get("/status", controllers.SyncStatus(p.Queue, logg))
			r.Post("/queue/{entryId}/retry", controllers.RetrySyncEntry(p.Queue, notifier, logg))
			r.Post("/cleanup", controllers.CleanupSyncedEntries(p.Queue, logg))
			if p.Syncer != nil {
				r.Post("/trigger", controllers.TriggerSync(p.Syncer, logg))
			}
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Post("/", controllers.AddExpense(p.Expenses, cfg, logg))
			r.Get("/", controllers.ListExpenses(p.Expenses, cfg, logg))
			r.Get("/totals", controllers.ExpenseTotals(p.Expenses, cfg, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/daily", controllers.DailyReport(p.Reports, cfg, logg))
			r.Get("/debtors", controllers.TopDebtorsReport(p.Reports, logg))
			r.Get("/aging", controllers.ReceivablesAgingReport(p.Reports, logg))
			r.Get("/low-stock", controllers.LowStockReport(p.Reports, cfg, logg))
		})
	})

	return r
}
