package db

import (
	"context"
	"fmt"

	"github.com/omarfadal/suuqpos-backend/pkg/db/models"
)

// localTables is every table the on-device store owns. Order matters only for
// readability; sqlite has no FK enforcement here.
var localTables = []any{
	&models.Product{},
	&models.Customer{},
	&models.Supplier{},
	&models.CustomerLedgerEntry{},
	&models.SupplierLedgerEntry{},
	&models.StockMovement{},
	&models.InventoryItem{},
	&models.Sale{},
	&models.SaleItem{},
	&models.OutboxEntry{},
	&models.Expense{},
}

// MigrateLocal creates or upgrades the on-device sqlite schema. The device
// owns its local schema, unlike the remote store which is goose-managed.
func (c *Client) MigrateLocal(ctx context.Context) error {
	if err := c.conn.WithContext(ctx).AutoMigrate(localTables...); err != nil {
		return fmt.Errorf("migrating local schema: %w", err)
	}
	return nil
}
