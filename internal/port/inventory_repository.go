package port

import (
	"context"

	"github.com/vendora/inventory/internal/core/domain"
)

// InventoryRepository persists inventory rows together with their ledger
// entries. Every mutating method runs as one atomic unit: the row write is
// conditioned on the version read by the caller, the matching movement rows
// are appended in the same transaction, and a concurrent commit surfaces as
// domain.ErrStockConflict with nothing persisted.
type InventoryRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Inventory, error)

	GetByProductAndWarehouse(ctx context.Context, productID, warehouseID string) (*domain.Inventory, error)

	// ListByProduct returns up to limit rows for a product across warehouses.
	ListByProduct(ctx context.Context, productID string, limit int) ([]*domain.Inventory, error)

	// ListByWarehouse returns one page of rows for a warehouse.
	ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]*domain.Inventory, error)

	// ListLowStock returns one page of rows with quantity at or below their
	// minimum stock level. warehouseID narrows the scan when non-empty.
	ListLowStock(ctx context.Context, warehouseID string, limit, offset int) ([]*domain.Inventory, error)

	// Create inserts a new row, with an optional opening movement. A live row
	// for the same (product, warehouse) pair fails with ErrDuplicateInventory.
	Create(ctx context.Context, inv *domain.Inventory, movement *domain.StockMovement) error

	// Update writes the row conditioned on inv.Version and appends movement.
	Update(ctx context.Context, inv *domain.Inventory, movement *domain.StockMovement) error

	// UpdateDetails writes the non-quantity fields, version-checked, with no
	// ledger entry.
	UpdateDetails(ctx context.Context, inv *domain.Inventory) error

	// Transfer commits both row updates and both movements atomically.
	// createDst inserts the destination row instead of updating it.
	Transfer(ctx context.Context, src, dst *domain.Inventory, srcMovement, dstMovement *domain.StockMovement, createDst bool) error

	// Delete removes the row conditioned on version.
	Delete(ctx context.Context, id string, version int64) error
}

// MovementRepository reads the append-only ledger. Movements are only ever
// written through InventoryRepository, inside the transaction that mutates
// the row they record.
type MovementRepository interface {
	// List returns ledger entries matching the filter, oldest first, so a
	// reconciliation job can reconstruct a running balance.
	List(ctx context.Context, filter domain.MovementFilter) ([]*domain.StockMovement, error)
}
