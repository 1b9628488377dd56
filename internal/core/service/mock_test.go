package service

import (
	"context"
	"sync"

	"github.com/vendora/inventory/internal/core/domain"
)

// mockRepo is an in-memory InventoryRepository + MovementRepository with the
// same optimistic-concurrency contract as the MySQL adapter: writes are
// conditioned on the version the caller read, and a stale version fails with
// ErrStockConflict leaving nothing mutated.
type mockRepo struct {
	mu        sync.Mutex
	rows      map[string]*domain.Inventory // by id
	movements []*domain.StockMovement

	// getBarrier, when set, makes concurrent readers rendezvous inside
	// GetByID so both observe the same version before either writes.
	getBarrier *sync.WaitGroup

	// failTransfer injects a storage failure into Transfer before anything
	// is mutated, standing in for a failed ledger write inside the tx.
	failTransfer error
}

func newMockRepo() *mockRepo {
	return &mockRepo{rows: make(map[string]*domain.Inventory)}
}

func copyInv(inv *domain.Inventory) *domain.Inventory {
	cp := *inv
	if inv.LastCountedAt != nil {
		t := *inv.LastCountedAt
		cp.LastCountedAt = &t
	}
	return &cp
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*domain.Inventory, error) {
	m.mu.Lock()
	inv, ok := m.rows[id]
	var cp *domain.Inventory
	if ok {
		cp = copyInv(inv)
	}
	m.mu.Unlock()

	if !ok {
		return nil, domain.ErrNotFound
	}
	if m.getBarrier != nil {
		m.getBarrier.Done()
		m.getBarrier.Wait()
	}
	return cp, nil
}

func (m *mockRepo) GetByProductAndWarehouse(ctx context.Context, productID, warehouseID string) (*domain.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.rows {
		if inv.ProductID == productID && inv.WarehouseID == warehouseID {
			return copyInv(inv), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockRepo) ListByProduct(ctx context.Context, productID string, limit int) ([]*domain.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Inventory, 0)
	for _, inv := range m.rows {
		if inv.ProductID == productID && len(out) < limit {
			out = append(out, copyInv(inv))
		}
	}
	return out, nil
}

func (m *mockRepo) ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]*domain.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := make([]*domain.Inventory, 0)
	for _, inv := range m.rows {
		if inv.WarehouseID == warehouseID {
			matched = append(matched, copyInv(inv))
		}
	}
	return window(matched, limit, offset), nil
}

func (m *mockRepo) ListLowStock(ctx context.Context, warehouseID string, limit, offset int) ([]*domain.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := make([]*domain.Inventory, 0)
	for _, inv := range m.rows {
		if inv.IsLowStock() && (warehouseID == "" || inv.WarehouseID == warehouseID) {
			matched = append(matched, copyInv(inv))
		}
	}
	return window(matched, limit, offset), nil
}

func window(rows []*domain.Inventory, limit, offset int) []*domain.Inventory {
	if offset >= len(rows) {
		return []*domain.Inventory{}
	}
	rows = rows[offset:]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func (m *mockRepo) Create(ctx context.Context, inv *domain.Inventory, movement *domain.StockMovement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.ProductID == inv.ProductID && existing.WarehouseID == inv.WarehouseID {
			return domain.ErrDuplicateInventory
		}
	}
	m.rows[inv.ID] = copyInv(inv)
	if movement != nil {
		m.movements = append(m.movements, movement)
	}
	return nil
}

func (m *mockRepo) Update(ctx context.Context, inv *domain.Inventory, movement *domain.StockMovement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rows[inv.ID]
	if !ok || stored.Version != inv.Version {
		return domain.ErrStockConflict
	}
	cp := copyInv(inv)
	cp.Version++
	m.rows[inv.ID] = cp
	inv.Version++
	if movement != nil {
		m.movements = append(m.movements, movement)
	}
	return nil
}

func (m *mockRepo) UpdateDetails(ctx context.Context, inv *domain.Inventory) error {
	return m.Update(ctx, inv, nil)
}

func (m *mockRepo) Transfer(ctx context.Context, src, dst *domain.Inventory, srcMovement, dstMovement *domain.StockMovement, createDst bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failTransfer != nil {
		return m.failTransfer
	}

	storedSrc, ok := m.rows[src.ID]
	if !ok || storedSrc.Version != src.Version {
		return domain.ErrStockConflict
	}
	if createDst {
		for _, existing := range m.rows {
			if existing.ProductID == dst.ProductID && existing.WarehouseID == dst.WarehouseID {
				return domain.ErrStockConflict
			}
		}
	} else {
		storedDst, ok := m.rows[dst.ID]
		if !ok || storedDst.Version != dst.Version {
			return domain.ErrStockConflict
		}
	}

	srcCp := copyInv(src)
	srcCp.Version++
	m.rows[src.ID] = srcCp
	src.Version++

	dstCp := copyInv(dst)
	if !createDst {
		dstCp.Version++
		dst.Version++
	}
	m.rows[dst.ID] = dstCp

	m.movements = append(m.movements, srcMovement, dstMovement)
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id string, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rows[id]
	if !ok || stored.Version != version {
		return domain.ErrStockConflict
	}
	delete(m.rows, id)
	return nil
}

func (m *mockRepo) List(ctx context.Context, filter domain.MovementFilter) ([]*domain.StockMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.StockMovement, 0)
	for _, mv := range m.movements {
		if filter.ProductID != "" && mv.ProductID != filter.ProductID {
			continue
		}
		if filter.WarehouseID != "" && mv.WarehouseID != filter.WarehouseID {
			continue
		}
		if filter.From != nil && mv.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !mv.CreatedAt.Before(*filter.To) {
			continue
		}
		out = append(out, mv)
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*domain.StockMovement{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *mockRepo) allMovements() []*domain.StockMovement {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.StockMovement(nil), m.movements...)
}

func (m *mockRepo) stored(id string) *domain.Inventory {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv, ok := m.rows[id]; ok {
		return copyInv(inv)
	}
	return nil
}

// mockPublisher records published events.
type mockPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (p *mockPublisher) Publish(ctx context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *mockPublisher) published() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Event(nil), p.events...)
}
