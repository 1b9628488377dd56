package domain

import (
	"time"

	"github.com/google/uuid"
)

type MovementType string

const (
	MovementReceipt    MovementType = "receipt"
	MovementSale       MovementType = "sale"
	MovementAdjustment MovementType = "adjustment"
	MovementTransfer   MovementType = "transfer"
	MovementReserved   MovementType = "reserved"
	MovementRelease    MovementType = "release"
)

// StockMovement is one append-only ledger entry. Quantity is the unsigned
// magnitude of the change; direction is carried by Type plus the
// QuantityBefore/QuantityAfter pair, which makes the ledger auditable against
// the inventory row without interpreting signs.
//
// Reserved and release movements record the unchanged on-hand total in
// QuantityAfter, so a reader reconstructing a running balance must skip them.
type StockMovement struct {
	ID              string
	InventoryID     string
	ProductID       string
	WarehouseID     string
	Type            MovementType
	Quantity        int
	QuantityBefore  int
	QuantityAfter   int
	PerformedBy     string
	ReferenceID     string
	Notes           string
	FromWarehouseID string
	ToWarehouseID   string
	CreatedAt       time.Time
}

func NewMovement(inv *Inventory, movementType MovementType, quantity, before, after int) *StockMovement {
	return &StockMovement{
		ID:             uuid.NewString(),
		InventoryID:    inv.ID,
		ProductID:      inv.ProductID,
		WarehouseID:    inv.WarehouseID,
		Type:           movementType,
		Quantity:       quantity,
		QuantityBefore: before,
		QuantityAfter:  after,
		CreatedAt:      time.Now().UTC(),
	}
}

// MovementFilter narrows ledger reads. Zero values mean "no constraint".
type MovementFilter struct {
	ProductID   string
	WarehouseID string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}
