package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/vendora/inventory/internal/core/domain"
)

const mysqlDuplicateEntry = 1062

const inventoryColumns = `id, product_id, warehouse_id, quantity, reserved_quantity,
		minimum_stock_level, maximum_stock_level, unit_cost, location, last_counted_at,
		version, created_at, updated_at`

const movementColumns = `id, inventory_id, product_id, warehouse_id, movement_type,
		quantity, quantity_before, quantity_after, performed_by, reference_id, notes,
		from_warehouse_id, to_warehouse_id, created_at`

// MySQLAdapter implements port.InventoryRepository and port.MovementRepository.
// Every mutation runs in one transaction: the inventory write is conditioned
// on the version the caller read (RowsAffected == 0 means a concurrent writer
// won) and the ledger rows are appended before commit, so a conflict or any
// other failure leaves neither table touched.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) GetByID(ctx context.Context, id string) (*domain.Inventory, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT `+inventoryColumns+`
		FROM inventory WHERE id = ?`, id)
	return scanInventory(row)
}

func (m *MySQLAdapter) GetByProductAndWarehouse(ctx context.Context, productID, warehouseID string) (*domain.Inventory, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT `+inventoryColumns+`
		FROM inventory WHERE product_id = ? AND warehouse_id = ?`, productID, warehouseID)
	return scanInventory(row)
}

func (m *MySQLAdapter) ListByProduct(ctx context.Context, productID string, limit int) ([]*domain.Inventory, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT `+inventoryColumns+`
		FROM inventory WHERE product_id = ?
		ORDER BY warehouse_id LIMIT ?`, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("query inventory by product: %w", err)
	}
	defer rows.Close()
	return scanInventories(rows)
}

func (m *MySQLAdapter) ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]*domain.Inventory, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT `+inventoryColumns+`
		FROM inventory WHERE warehouse_id = ?
		ORDER BY product_id LIMIT ? OFFSET ?`, warehouseID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query inventory by warehouse: %w", err)
	}
	defer rows.Close()
	return scanInventories(rows)
}

func (m *MySQLAdapter) ListLowStock(ctx context.Context, warehouseID string, limit, offset int) ([]*domain.Inventory, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventory WHERE quantity <= minimum_stock_level`
	args := []any{}
	if warehouseID != "" {
		query += ` AND warehouse_id = ?`
		args = append(args, warehouseID)
	}
	query += ` ORDER BY product_id, warehouse_id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query low stock: %w", err)
	}
	defer rows.Close()
	return scanInventories(rows)
}

func (m *MySQLAdapter) Create(ctx context.Context, inv *domain.Inventory, movement *domain.StockMovement) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory (`+inventoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.ProductID, inv.WarehouseID, inv.Quantity, inv.ReservedQuantity,
		inv.MinimumStockLevel, inv.MaximumStockLevel, inv.UnitCost, inv.Location,
		nullTime(inv.LastCountedAt), inv.Version, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return domain.ErrDuplicateInventory
		}
		return fmt.Errorf("insert inventory: %w", err)
	}

	if movement != nil {
		if err := insertMovement(ctx, tx, movement); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) Update(ctx context.Context, inv *domain.Inventory, movement *domain.StockMovement) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = ?, reserved_quantity = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		inv.Quantity, inv.ReservedQuantity, inv.UpdatedAt, inv.ID, inv.Version,
	)
	if err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrStockConflict
	}

	if movement != nil {
		if err := insertMovement(ctx, tx, movement); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	inv.Version++
	return nil
}

func (m *MySQLAdapter) UpdateDetails(ctx context.Context, inv *domain.Inventory) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE inventory
		SET minimum_stock_level = ?, maximum_stock_level = ?, unit_cost = ?,
			location = ?, last_counted_at = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		inv.MinimumStockLevel, inv.MaximumStockLevel, inv.UnitCost,
		inv.Location, nullTime(inv.LastCountedAt), inv.UpdatedAt, inv.ID, inv.Version,
	)
	if err != nil {
		return fmt.Errorf("update inventory details: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrStockConflict
	}

	inv.Version++
	return nil
}

func (m *MySQLAdapter) Transfer(ctx context.Context, src, dst *domain.Inventory, srcMovement, dstMovement *domain.StockMovement, createDst bool) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = ?, reserved_quantity = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		src.Quantity, src.ReservedQuantity, src.UpdatedAt, src.ID, src.Version,
	)
	if err != nil {
		return fmt.Errorf("update source inventory: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrStockConflict
	}

	if createDst {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO inventory (`+inventoryColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			dst.ID, dst.ProductID, dst.WarehouseID, dst.Quantity, dst.ReservedQuantity,
			dst.MinimumStockLevel, dst.MaximumStockLevel, dst.UnitCost, dst.Location,
			nullTime(dst.LastCountedAt), dst.Version, dst.CreatedAt, dst.UpdatedAt,
		)
		if err != nil {
			var mysqlErr *mysql.MySQLError
			if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
				// Destination row appeared after our read; the caller may retry.
				return domain.ErrStockConflict
			}
			return fmt.Errorf("insert destination inventory: %w", err)
		}
	} else {
		result, err = tx.ExecContext(ctx, `
			UPDATE inventory
			SET quantity = ?, reserved_quantity = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND version = ?`,
			dst.Quantity, dst.ReservedQuantity, dst.UpdatedAt, dst.ID, dst.Version,
		)
		if err != nil {
			return fmt.Errorf("update destination inventory: %w", err)
		}
		rows, _ = result.RowsAffected()
		if rows == 0 {
			return domain.ErrStockConflict
		}
	}

	if err := insertMovement(ctx, tx, srcMovement); err != nil {
		return err
	}
	if err := insertMovement(ctx, tx, dstMovement); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	src.Version++
	if !createDst {
		dst.Version++
	}
	return nil
}

func (m *MySQLAdapter) Delete(ctx context.Context, id string, version int64) error {
	result, err := m.db.ExecContext(ctx, `
		DELETE FROM inventory WHERE id = ? AND version = ?`, id, version)
	if err != nil {
		return fmt.Errorf("delete inventory: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrStockConflict
	}
	return nil
}

// List reads the ledger, oldest entries first, so callers can reconstruct a
// running balance.
func (m *MySQLAdapter) List(ctx context.Context, filter domain.MovementFilter) ([]*domain.StockMovement, error) {
	var conditions []string
	var args []any

	if filter.ProductID != "" {
		conditions = append(conditions, "product_id = ?")
		args = append(args, filter.ProductID)
	}
	if filter.WarehouseID != "" {
		conditions = append(conditions, "warehouse_id = ?")
		args = append(args, filter.WarehouseID)
	}
	if filter.From != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, "created_at < ?")
		args = append(args, *filter.To)
	}

	query := `SELECT ` + movementColumns + ` FROM stock_movement`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at, id LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stock movements: %w", err)
	}
	defer rows.Close()

	movements := make([]*domain.StockMovement, 0)
	for rows.Next() {
		mv := &domain.StockMovement{}
		err := rows.Scan(
			&mv.ID, &mv.InventoryID, &mv.ProductID, &mv.WarehouseID, &mv.Type,
			&mv.Quantity, &mv.QuantityBefore, &mv.QuantityAfter, &mv.PerformedBy,
			&mv.ReferenceID, &mv.Notes, &mv.FromWarehouseID, &mv.ToWarehouseID,
			&mv.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		movements = append(movements, mv)
	}
	return movements, rows.Err()
}

func insertMovement(ctx context.Context, tx *sql.Tx, mv *domain.StockMovement) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO stock_movement (`+movementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mv.ID, mv.InventoryID, mv.ProductID, mv.WarehouseID, mv.Type,
		mv.Quantity, mv.QuantityBefore, mv.QuantityAfter, mv.PerformedBy,
		mv.ReferenceID, mv.Notes, mv.FromWarehouseID, mv.ToWarehouseID,
		mv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInventory(row rowScanner) (*domain.Inventory, error) {
	inv := &domain.Inventory{}
	var lastCounted sql.NullTime
	err := row.Scan(
		&inv.ID, &inv.ProductID, &inv.WarehouseID, &inv.Quantity, &inv.ReservedQuantity,
		&inv.MinimumStockLevel, &inv.MaximumStockLevel, &inv.UnitCost, &inv.Location,
		&lastCounted, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan inventory: %w", err)
	}
	if lastCounted.Valid {
		t := lastCounted.Time
		inv.LastCountedAt = &t
	}
	return inv, nil
}

func scanInventories(rows *sql.Rows) ([]*domain.Inventory, error) {
	inventories := make([]*domain.Inventory, 0)
	for rows.Next() {
		inv, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		inventories = append(inventories, inv)
	}
	return inventories, rows.Err()
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
