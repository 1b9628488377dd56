package service

import (
	"context"
	"errors"

	"github.com/vendora/inventory/internal/core/domain"
)

// WarehouseStock is one warehouse's slice of a product's stock report.
type WarehouseStock struct {
	InventoryID       string  `json:"inventory_id"`
	WarehouseID       string  `json:"warehouse_id"`
	Quantity          int     `json:"quantity"`
	ReservedQuantity  int     `json:"reserved_quantity"`
	AvailableQuantity int     `json:"available_quantity"`
	MinimumStockLevel int     `json:"minimum_stock_level"`
	UnitCost          float64 `json:"unit_cost"`
	LowStock          bool    `json:"low_stock"`
}

// StockReport aggregates a product's stock position across warehouses.
type StockReport struct {
	ProductID      string           `json:"product_id"`
	TotalQuantity  int              `json:"total_quantity"`
	TotalReserved  int              `json:"total_reserved"`
	TotalAvailable int              `json:"total_available"`
	InventoryValue float64          `json:"inventory_value"`
	Warehouses     []WarehouseStock `json:"warehouses"`
}

// GetAvailableStock sums available stock for a product, in one warehouse or
// across all of them. A pair with no inventory row contributes zero.
func (s *StockService) GetAvailableStock(ctx context.Context, productID, warehouseID string) (int, error) {
	if warehouseID != "" {
		inv, err := s.repo.GetByProductAndWarehouse(ctx, productID, warehouseID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return 0, nil
			}
			return 0, err
		}
		return inv.AvailableQuantity(), nil
	}

	rows, err := s.repo.ListByProduct(ctx, productID, maxProductRows)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, inv := range rows {
		total += inv.AvailableQuantity()
	}
	return total, nil
}

// GetStockReport builds the per-product aggregate with a warehouse breakdown.
func (s *StockService) GetStockReport(ctx context.Context, productID string) (*StockReport, error) {
	rows, err := s.repo.ListByProduct(ctx, productID, maxProductRows)
	if err != nil {
		return nil, err
	}

	report := &StockReport{
		ProductID:  productID,
		Warehouses: make([]WarehouseStock, 0, len(rows)),
	}
	for _, inv := range rows {
		report.TotalQuantity += inv.Quantity
		report.TotalReserved += inv.ReservedQuantity
		report.TotalAvailable += inv.AvailableQuantity()
		report.InventoryValue += float64(inv.Quantity) * inv.UnitCost
		report.Warehouses = append(report.Warehouses, WarehouseStock{
			InventoryID:       inv.ID,
			WarehouseID:       inv.WarehouseID,
			Quantity:          inv.Quantity,
			ReservedQuantity:  inv.ReservedQuantity,
			AvailableQuantity: inv.AvailableQuantity(),
			MinimumStockLevel: inv.MinimumStockLevel,
			UnitCost:          inv.UnitCost,
			LowStock:          inv.IsLowStock(),
		})
	}
	return report, nil
}

// GetLowStockAlerts pages through rows at or below their minimum stock level.
func (s *StockService) GetLowStockAlerts(ctx context.Context, warehouseID string, page, pageSize int) ([]*domain.Inventory, error) {
	limit, offset := pageWindow(page, pageSize)
	return s.repo.ListLowStock(ctx, warehouseID, limit, offset)
}
