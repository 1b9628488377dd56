package service

import (
	"context"
	"errors"
	"testing"

	"github.com/vendora/inventory/internal/core/domain"
)

func TestTransferStock(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	createTestInventory(t, svc, "p1", "w1", 70)

	src, dst, err := svc.TransferStock(context.Background(), TransferInput{
		ProductID:       "p1",
		FromWarehouseID: "w1",
		ToWarehouseID:   "w2",
		Quantity:        20,
		PerformedBy:     "ops",
	})
	if err != nil {
		t.Fatalf("TransferStock failed: %v", err)
	}

	if src.Quantity != 50 {
		t.Errorf("expected source quantity 50, got %d", src.Quantity)
	}
	if dst.Quantity != 20 {
		t.Errorf("expected destination quantity 20, got %d", dst.Quantity)
	}
	if dst.WarehouseID != "w2" || dst.ProductID != "p1" {
		t.Errorf("unexpected destination row: product=%q warehouse=%q", dst.ProductID, dst.WarehouseID)
	}
	// The created destination inherits the source's levels and cost.
	if dst.MinimumStockLevel != src.MinimumStockLevel || dst.MaximumStockLevel != src.MaximumStockLevel {
		t.Errorf("destination levels not inherited: min=%d max=%d", dst.MinimumStockLevel, dst.MaximumStockLevel)
	}
	if dst.UnitCost != src.UnitCost {
		t.Errorf("destination unit cost not inherited: %v", dst.UnitCost)
	}

	movements := repo.allMovements()
	if len(movements) != 3 {
		t.Fatalf("expected 3 movements, got %d", len(movements))
	}
	srcMv, dstMv := movements[1], movements[2]
	for _, mv := range []*domain.StockMovement{srcMv, dstMv} {
		if mv.Type != domain.MovementTransfer {
			t.Errorf("expected transfer movement, got %s", mv.Type)
		}
		if mv.FromWarehouseID != "w1" || mv.ToWarehouseID != "w2" {
			t.Errorf("movement missing warehouse pair: from=%q to=%q", mv.FromWarehouseID, mv.ToWarehouseID)
		}
		if mv.Quantity != 20 {
			t.Errorf("expected magnitude 20, got %d", mv.Quantity)
		}
	}
	if srcMv.QuantityBefore != 70 || srcMv.QuantityAfter != 50 {
		t.Errorf("unexpected source movement: %d -> %d", srcMv.QuantityBefore, srcMv.QuantityAfter)
	}
	if dstMv.QuantityBefore != 0 || dstMv.QuantityAfter != 20 {
		t.Errorf("unexpected destination movement: %d -> %d", dstMv.QuantityBefore, dstMv.QuantityAfter)
	}
}

func TestTransferStock_ExistingDestination(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	createTestInventory(t, svc, "p1", "w1", 100)
	existing := createTestInventory(t, svc, "p1", "w2", 30)

	_, dst, err := svc.TransferStock(context.Background(), TransferInput{
		ProductID:       "p1",
		FromWarehouseID: "w1",
		ToWarehouseID:   "w2",
		Quantity:        10,
	})
	if err != nil {
		t.Fatalf("TransferStock failed: %v", err)
	}
	if dst.ID != existing.ID {
		t.Errorf("transfer created a new row instead of reusing %s", existing.ID)
	}
	if dst.Quantity != 40 {
		t.Errorf("expected destination quantity 40, got %d", dst.Quantity)
	}
}

func TestTransferStock_InsufficientAvailable(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	createTestInventory(t, svc, "p1", "w1", 100)

	// Reservations count against what a transfer may move.
	if _, err := svc.Reserve(context.Background(), "p1", "w1", 90, "order-1", ""); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	_, _, err := svc.TransferStock(context.Background(), TransferInput{
		ProductID:       "p1",
		FromWarehouseID: "w1",
		ToWarehouseID:   "w2",
		Quantity:        20,
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestTransferStock_SameWarehouse(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	createTestInventory(t, svc, "p1", "w1", 100)

	_, _, err := svc.TransferStock(context.Background(), TransferInput{
		ProductID:       "p1",
		FromWarehouseID: "w1",
		ToWarehouseID:   "w1",
		Quantity:        10,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestTransferStock_MissingSource(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	_, _, err := svc.TransferStock(context.Background(), TransferInput{
		ProductID:       "p1",
		FromWarehouseID: "w1",
		ToWarehouseID:   "w2",
		Quantity:        10,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTransferStock_StorageFailureLeavesBothSidesUntouched(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	src := createTestInventory(t, svc, "p1", "w1", 100)
	repo.failTransfer = errors.New("ledger insert failed")

	_, _, err := svc.TransferStock(context.Background(), TransferInput{
		ProductID:       "p1",
		FromWarehouseID: "w1",
		ToWarehouseID:   "w2",
		Quantity:        20,
	})
	if err == nil {
		t.Fatal("expected transfer to fail")
	}

	stored := repo.stored(src.ID)
	if stored.Quantity != 100 {
		t.Errorf("source mutated by failed transfer: %d", stored.Quantity)
	}
	if _, err := repo.GetByProductAndWarehouse(context.Background(), "p1", "w2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("destination row created by failed transfer: %v", err)
	}
	if n := len(repo.allMovements()); n != 1 {
		t.Errorf("ledger grew after failed transfer: %d movements", n)
	}
}
