package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vendora/inventory/internal/core/domain"
	"github.com/vendora/inventory/internal/port"
)

const (
	maxProductRows  = 100
	defaultPageSize = 20
	maxPageSize     = 100
	maxMovementRows = 200
)

// StockService owns every mutation of the inventory table. Each mutating call
// runs one read-mutate-append-commit cycle: the repository writes the row
// conditioned on the version read here and appends the ledger entry in the
// same transaction. A concurrent writer surfaces as domain.ErrStockConflict
// and the caller decides whether to retry.
type StockService struct {
	repo      port.InventoryRepository
	movements port.MovementRepository
	events    *EventDispatcher
	logger    *zap.Logger
}

func NewStockService(repo port.InventoryRepository, movements port.MovementRepository, events *EventDispatcher, logger *zap.Logger) *StockService {
	return &StockService{
		repo:      repo,
		movements: movements,
		events:    events,
		logger:    logger,
	}
}

// CreateInput initializes stock for one (product, warehouse) pair.
type CreateInput struct {
	ProductID         string
	WarehouseID       string
	InitialQuantity   int
	MinimumStockLevel int
	MaximumStockLevel int
	UnitCost          float64
	Location          string
	PerformedBy       string
	Notes             string
}

// Create registers a new inventory row. A positive initial quantity opens the
// ledger with a receipt movement.
func (s *StockService) Create(ctx context.Context, in CreateInput) (*domain.Inventory, error) {
	inv, err := domain.NewInventory(in.ProductID, in.WarehouseID, in.InitialQuantity,
		in.MinimumStockLevel, in.MaximumStockLevel, in.UnitCost, in.Location)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByProductAndWarehouse(ctx, in.ProductID, in.WarehouseID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing inventory: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicateInventory
	}

	var movement *domain.StockMovement
	if in.InitialQuantity > 0 {
		movement = domain.NewMovement(inv, domain.MovementReceipt, in.InitialQuantity, 0, in.InitialQuantity)
		movement.PerformedBy = in.PerformedBy
		movement.Notes = in.Notes
	}

	if err := s.repo.Create(ctx, inv, movement); err != nil {
		return nil, err
	}

	s.logger.Info("inventory created",
		zap.String("inventory_id", inv.ID),
		zap.String("product_id", inv.ProductID),
		zap.String("warehouse_id", inv.WarehouseID),
		zap.Int("quantity", inv.Quantity))

	s.dispatch(domain.InventoryCreatedEvent{
		InventoryID: inv.ID,
		ProductID:   inv.ProductID,
		WarehouseID: inv.WarehouseID,
		Quantity:    inv.Quantity,
		OccurredAt:  time.Now().UTC(),
	})
	if inv.IsLowStock() {
		s.dispatchLowStock(inv)
	}

	return inv, nil
}

// AdjustStock applies a signed delta to the on-hand quantity.
func (s *StockService) AdjustStock(ctx context.Context, inventoryID string, delta int, performedBy, notes string) (*domain.Inventory, error) {
	inv, err := s.repo.GetByID(ctx, inventoryID)
	if err != nil {
		return nil, err
	}

	before := inv.Quantity
	wasLow := inv.IsLowStock()

	if err := inv.Adjust(delta); err != nil {
		return nil, err
	}

	magnitude := delta
	if magnitude < 0 {
		magnitude = -magnitude
	}
	movement := domain.NewMovement(inv, domain.MovementAdjustment, magnitude, before, inv.Quantity)
	movement.PerformedBy = performedBy
	movement.Notes = notes

	if err := s.repo.Update(ctx, inv, movement); err != nil {
		return nil, err
	}

	s.logger.Info("stock adjusted",
		zap.String("inventory_id", inv.ID),
		zap.Int("delta", delta),
		zap.Int("quantity", inv.Quantity))

	s.dispatch(domain.StockAdjustedEvent{
		InventoryID:    inv.ID,
		ProductID:      inv.ProductID,
		WarehouseID:    inv.WarehouseID,
		Delta:          delta,
		QuantityBefore: before,
		QuantityAfter:  inv.Quantity,
		OccurredAt:     time.Now().UTC(),
	})
	if !wasLow && inv.IsLowStock() {
		s.dispatchLowStock(inv)
	}

	return inv, nil
}

// Reserve holds available stock for an in-progress order. The on-hand total
// is unchanged; the reserved movement records the same total before and after.
func (s *StockService) Reserve(ctx context.Context, productID, warehouseID string, quantity int, orderID, performedBy string) (*domain.Inventory, error) {
	inv, err := s.repo.GetByProductAndWarehouse(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}

	if err := inv.Reserve(quantity); err != nil {
		return nil, err
	}

	movement := domain.NewMovement(inv, domain.MovementReserved, quantity, inv.Quantity, inv.Quantity)
	movement.ReferenceID = orderID
	movement.PerformedBy = performedBy

	if err := s.repo.Update(ctx, inv, movement); err != nil {
		return nil, err
	}

	s.logger.Info("stock reserved",
		zap.String("inventory_id", inv.ID),
		zap.Int("quantity", quantity),
		zap.String("order_id", orderID))

	s.dispatch(domain.StockReservedEvent{
		InventoryID: inv.ID,
		ProductID:   inv.ProductID,
		WarehouseID: inv.WarehouseID,
		Quantity:    quantity,
		ReferenceID: orderID,
		OccurredAt:  time.Now().UTC(),
	})

	return inv, nil
}

// Release consumes previously reserved stock: the reservation is lifted and
// the same amount leaves the on-hand total, recorded as a sale movement.
// Cancelling a hold without selling is CancelReservation.
func (s *StockService) Release(ctx context.Context, productID, warehouseID string, quantity int, orderID, performedBy string) (*domain.Inventory, error) {
	inv, err := s.repo.GetByProductAndWarehouse(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}

	before := inv.Quantity
	wasLow := inv.IsLowStock()

	if err := inv.ConsumeReservation(quantity); err != nil {
		return nil, err
	}

	movement := domain.NewMovement(inv, domain.MovementSale, quantity, before, inv.Quantity)
	movement.ReferenceID = orderID
	movement.PerformedBy = performedBy

	if err := s.repo.Update(ctx, inv, movement); err != nil {
		return nil, err
	}

	s.logger.Info("reserved stock consumed",
		zap.String("inventory_id", inv.ID),
		zap.Int("quantity", quantity),
		zap.String("order_id", orderID))

	s.dispatch(domain.StockReleasedEvent{
		InventoryID: inv.ID,
		ProductID:   inv.ProductID,
		WarehouseID: inv.WarehouseID,
		Quantity:    quantity,
		Consumed:    true,
		ReferenceID: orderID,
		OccurredAt:  time.Now().UTC(),
	})
	if !wasLow && inv.IsLowStock() {
		s.dispatchLowStock(inv)
	}

	return inv, nil
}

// CancelReservation lifts a hold without consuming stock. The on-hand total
// is unchanged; the release movement records the same total before and after.
func (s *StockService) CancelReservation(ctx context.Context, productID, warehouseID string, quantity int, orderID, performedBy string) (*domain.Inventory, error) {
	inv, err := s.repo.GetByProductAndWarehouse(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}

	if err := inv.ReleaseReservation(quantity); err != nil {
		return nil, err
	}

	movement := domain.NewMovement(inv, domain.MovementRelease, quantity, inv.Quantity, inv.Quantity)
	movement.ReferenceID = orderID
	movement.PerformedBy = performedBy

	if err := s.repo.Update(ctx, inv, movement); err != nil {
		return nil, err
	}

	s.logger.Info("reservation cancelled",
		zap.String("inventory_id", inv.ID),
		zap.Int("quantity", quantity),
		zap.String("order_id", orderID))

	s.dispatch(domain.StockReleasedEvent{
		InventoryID: inv.ID,
		ProductID:   inv.ProductID,
		WarehouseID: inv.WarehouseID,
		Quantity:    quantity,
		Consumed:    false,
		ReferenceID: orderID,
		OccurredAt:  time.Now().UTC(),
	})

	return inv, nil
}

// Delete removes an inventory row. Rows still holding stock cannot be
// deleted; no ledger entry is written because no quantity changes.
func (s *StockService) Delete(ctx context.Context, inventoryID string) error {
	inv, err := s.repo.GetByID(ctx, inventoryID)
	if err != nil {
		return err
	}

	if inv.Quantity > 0 {
		return fmt.Errorf("inventory %s still holds %d units: %w", inv.ID, inv.Quantity, domain.ErrBusinessRule)
	}

	if err := s.repo.Delete(ctx, inv.ID, inv.Version); err != nil {
		return err
	}

	s.logger.Info("inventory deleted",
		zap.String("inventory_id", inv.ID),
		zap.String("product_id", inv.ProductID),
		zap.String("warehouse_id", inv.WarehouseID))

	s.dispatch(domain.InventoryDeletedEvent{
		InventoryID: inv.ID,
		ProductID:   inv.ProductID,
		WarehouseID: inv.WarehouseID,
		OccurredAt:  time.Now().UTC(),
	})

	return nil
}

// UpdateDetailsInput partially updates non-quantity fields. Nil fields are
// left untouched.
type UpdateDetailsInput struct {
	MinimumStockLevel *int
	MaximumStockLevel *int
	UnitCost          *float64
	Location          *string
}

// UpdateDetails changes stock levels, unit cost, or location. Quantity fields
// are out of reach here; they only move through the ledger-writing operations.
func (s *StockService) UpdateDetails(ctx context.Context, inventoryID string, in UpdateDetailsInput) (*domain.Inventory, error) {
	inv, err := s.repo.GetByID(ctx, inventoryID)
	if err != nil {
		return nil, err
	}

	if in.MinimumStockLevel != nil || in.MaximumStockLevel != nil {
		minLevel := inv.MinimumStockLevel
		maxLevel := inv.MaximumStockLevel
		if in.MinimumStockLevel != nil {
			minLevel = *in.MinimumStockLevel
		}
		if in.MaximumStockLevel != nil {
			maxLevel = *in.MaximumStockLevel
		}
		if err := inv.SetStockLevels(minLevel, maxLevel); err != nil {
			return nil, err
		}
	}
	if in.UnitCost != nil {
		if err := inv.SetUnitCost(*in.UnitCost); err != nil {
			return nil, err
		}
	}
	if in.Location != nil {
		inv.SetLocation(*in.Location)
	}

	if err := s.repo.UpdateDetails(ctx, inv); err != nil {
		return nil, err
	}

	return inv, nil
}

// UpdateLastCountDate stamps the row with the time of a physical count.
func (s *StockService) UpdateLastCountDate(ctx context.Context, inventoryID string, countedAt time.Time) (*domain.Inventory, error) {
	inv, err := s.repo.GetByID(ctx, inventoryID)
	if err != nil {
		return nil, err
	}

	inv.MarkCounted(countedAt)

	if err := s.repo.UpdateDetails(ctx, inv); err != nil {
		return nil, err
	}

	return inv, nil
}

func (s *StockService) GetByID(ctx context.Context, inventoryID string) (*domain.Inventory, error) {
	return s.repo.GetByID(ctx, inventoryID)
}

func (s *StockService) GetByProductAndWarehouse(ctx context.Context, productID, warehouseID string) (*domain.Inventory, error) {
	return s.repo.GetByProductAndWarehouse(ctx, productID, warehouseID)
}

func (s *StockService) GetByProduct(ctx context.Context, productID string) ([]*domain.Inventory, error) {
	return s.repo.ListByProduct(ctx, productID, maxProductRows)
}

func (s *StockService) GetByWarehouse(ctx context.Context, warehouseID string, page, pageSize int) ([]*domain.Inventory, error) {
	limit, offset := pageWindow(page, pageSize)
	return s.repo.ListByWarehouse(ctx, warehouseID, limit, offset)
}

// ListMovements exposes the ledger read path used for audits and
// reconciliation.
func (s *StockService) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]*domain.StockMovement, error) {
	if filter.Limit <= 0 || filter.Limit > maxMovementRows {
		filter.Limit = maxMovementRows
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.movements.List(ctx, filter)
}

func (s *StockService) dispatch(event domain.Event) {
	if s.events != nil {
		s.events.Dispatch(event)
	}
}

func (s *StockService) dispatchLowStock(inv *domain.Inventory) {
	s.dispatch(domain.LowStockEvent{
		InventoryID:       inv.ID,
		ProductID:         inv.ProductID,
		WarehouseID:       inv.WarehouseID,
		Quantity:          inv.Quantity,
		MinimumStockLevel: inv.MinimumStockLevel,
		OccurredAt:        time.Now().UTC(),
	})
}

func pageWindow(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return pageSize, (page - 1) * pageSize
}
