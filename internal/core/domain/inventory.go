package domain

import (
	"time"

	"github.com/google/uuid"
)

// Inventory is the mutable stock record for one (product, warehouse) pair.
// Quantity and ReservedQuantity are only changed through the methods below so
// every change goes through the ledger-writing path in the service layer.
type Inventory struct {
	ID                string
	ProductID         string
	WarehouseID       string
	Quantity          int
	ReservedQuantity  int
	MinimumStockLevel int
	MaximumStockLevel int
	UnitCost          float64
	Location          string
	LastCountedAt     *time.Time
	Version           int64 // optimistic locking
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func NewInventory(productID, warehouseID string, quantity, minLevel, maxLevel int, unitCost float64, location string) (*Inventory, error) {
	if productID == "" || warehouseID == "" {
		return nil, ErrValidation
	}
	if quantity < 0 || minLevel < 0 || maxLevel < 0 || unitCost < 0 {
		return nil, ErrValidation
	}
	if maxLevel > 0 && minLevel > maxLevel {
		return nil, ErrValidation
	}

	now := time.Now().UTC()
	return &Inventory{
		ID:                uuid.NewString(),
		ProductID:         productID,
		WarehouseID:       warehouseID,
		Quantity:          quantity,
		ReservedQuantity:  0,
		MinimumStockLevel: minLevel,
		MaximumStockLevel: maxLevel,
		UnitCost:          unitCost,
		Location:          location,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// AvailableQuantity is stock on hand minus active reservations.
func (i *Inventory) AvailableQuantity() int {
	return i.Quantity - i.ReservedQuantity
}

func (i *Inventory) IsLowStock() bool {
	return i.Quantity <= i.MinimumStockLevel
}

func (i *Inventory) CanReserve(quantity int) bool {
	return i.AvailableQuantity() >= quantity
}

// Reserve places a hold on available stock. Total quantity is unchanged.
func (i *Inventory) Reserve(quantity int) error {
	if quantity <= 0 {
		return ErrValidation
	}
	if !i.CanReserve(quantity) {
		return ErrInsufficientStock
	}
	i.ReservedQuantity += quantity
	i.touch()
	return nil
}

// ReleaseReservation cancels a hold without consuming stock.
func (i *Inventory) ReleaseReservation(quantity int) error {
	if quantity <= 0 {
		return ErrValidation
	}
	if i.ReservedQuantity < quantity {
		return ErrInsufficientStock
	}
	i.ReservedQuantity -= quantity
	i.touch()
	return nil
}

// ConsumeReservation turns reserved stock into sold stock: both the
// reservation and the on-hand quantity drop by the same amount.
func (i *Inventory) ConsumeReservation(quantity int) error {
	if quantity <= 0 {
		return ErrValidation
	}
	if i.ReservedQuantity < quantity {
		return ErrInsufficientStock
	}
	i.ReservedQuantity -= quantity
	i.Quantity -= quantity
	i.touch()
	return nil
}

// Adjust applies a signed delta to the on-hand quantity. The result must stay
// non-negative and must still cover active reservations.
func (i *Inventory) Adjust(delta int) error {
	if delta == 0 {
		return ErrValidation
	}
	next := i.Quantity + delta
	if next < 0 || next < i.ReservedQuantity {
		return ErrInsufficientStock
	}
	i.Quantity = next
	i.touch()
	return nil
}

func (i *Inventory) SetStockLevels(minLevel, maxLevel int) error {
	if minLevel < 0 || maxLevel < 0 {
		return ErrValidation
	}
	if maxLevel > 0 && minLevel > maxLevel {
		return ErrValidation
	}
	i.MinimumStockLevel = minLevel
	i.MaximumStockLevel = maxLevel
	i.touch()
	return nil
}

func (i *Inventory) SetUnitCost(unitCost float64) error {
	if unitCost < 0 {
		return ErrValidation
	}
	i.UnitCost = unitCost
	i.touch()
	return nil
}

func (i *Inventory) SetLocation(location string) {
	i.Location = location
	i.touch()
}

// MarkCounted records a physical stock count.
func (i *Inventory) MarkCounted(at time.Time) {
	t := at.UTC()
	i.LastCountedAt = &t
	i.touch()
}

func (i *Inventory) touch() {
	i.UpdatedAt = time.Now().UTC()
}
