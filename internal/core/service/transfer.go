package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vendora/inventory/internal/core/domain"
)

// TransferInput moves stock of one product between two warehouses.
type TransferInput struct {
	ProductID       string
	FromWarehouseID string
	ToWarehouseID   string
	Quantity        int
	PerformedBy     string
	Notes           string
}

// TransferStock debits the source row and credits the destination row in one
// transaction, appending one transfer movement on each side tagged with the
// same warehouse pair. A missing destination row is created on the fly with
// zero stock, inheriting the source's stock levels and unit cost. Any
// failure, including a version conflict on either row, rolls back both sides.
func (s *StockService) TransferStock(ctx context.Context, in TransferInput) (*domain.Inventory, *domain.Inventory, error) {
	if in.ProductID == "" || in.FromWarehouseID == "" || in.ToWarehouseID == "" {
		return nil, nil, domain.ErrValidation
	}
	if in.Quantity <= 0 {
		return nil, nil, domain.ErrValidation
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, nil, fmt.Errorf("source and destination warehouse are the same: %w", domain.ErrValidation)
	}

	src, err := s.repo.GetByProductAndWarehouse(ctx, in.ProductID, in.FromWarehouseID)
	if err != nil {
		return nil, nil, err
	}
	if src.AvailableQuantity() < in.Quantity {
		return nil, nil, domain.ErrInsufficientStock
	}

	dst, err := s.repo.GetByProductAndWarehouse(ctx, in.ProductID, in.ToWarehouseID)
	createDst := false
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, nil, err
		}
		dst, err = domain.NewInventory(in.ProductID, in.ToWarehouseID, 0,
			src.MinimumStockLevel, src.MaximumStockLevel, src.UnitCost, "")
		if err != nil {
			return nil, nil, err
		}
		createDst = true
	}

	srcBefore := src.Quantity
	dstBefore := dst.Quantity
	wasLow := src.IsLowStock()

	if err := src.Adjust(-in.Quantity); err != nil {
		return nil, nil, err
	}
	if err := dst.Adjust(in.Quantity); err != nil {
		return nil, nil, err
	}

	srcMovement := domain.NewMovement(src, domain.MovementTransfer, in.Quantity, srcBefore, src.Quantity)
	dstMovement := domain.NewMovement(dst, domain.MovementTransfer, in.Quantity, dstBefore, dst.Quantity)
	for _, m := range []*domain.StockMovement{srcMovement, dstMovement} {
		m.FromWarehouseID = in.FromWarehouseID
		m.ToWarehouseID = in.ToWarehouseID
		m.PerformedBy = in.PerformedBy
		m.Notes = in.Notes
	}

	if err := s.repo.Transfer(ctx, src, dst, srcMovement, dstMovement, createDst); err != nil {
		return nil, nil, err
	}

	s.logger.Info("stock transferred",
		zap.String("product_id", in.ProductID),
		zap.String("from_warehouse_id", in.FromWarehouseID),
		zap.String("to_warehouse_id", in.ToWarehouseID),
		zap.Int("quantity", in.Quantity))

	s.dispatch(domain.StockTransferredEvent{
		ProductID:       in.ProductID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Quantity:        in.Quantity,
		OccurredAt:      time.Now().UTC(),
	})
	if !wasLow && src.IsLowStock() {
		s.dispatchLowStock(src)
	}

	return src, dst, nil
}
