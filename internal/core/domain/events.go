package domain

import "time"

// Event is a post-commit notification for external subscribers. Delivery is
// fire-and-forget and never affects the correctness of the stored state.
type Event interface {
	EventName() string
}

const (
	InventoryCreatedEventName = "inventory.created"
	StockAdjustedEventName    = "inventory.stock.adjusted"
	StockReservedEventName    = "inventory.stock.reserved"
	StockReleasedEventName    = "inventory.stock.released"
	StockTransferredEventName = "inventory.stock.transferred"
	InventoryDeletedEventName = "inventory.deleted"
	LowStockEventName         = "inventory.stock.low"
)

type InventoryCreatedEvent struct {
	InventoryID string    `json:"inventory_id"`
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	Quantity    int       `json:"quantity"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e InventoryCreatedEvent) EventName() string { return InventoryCreatedEventName }

type StockAdjustedEvent struct {
	InventoryID    string    `json:"inventory_id"`
	ProductID      string    `json:"product_id"`
	WarehouseID    string    `json:"warehouse_id"`
	Delta          int       `json:"delta"`
	QuantityBefore int       `json:"quantity_before"`
	QuantityAfter  int       `json:"quantity_after"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func (e StockAdjustedEvent) EventName() string { return StockAdjustedEventName }

type StockReservedEvent struct {
	InventoryID string    `json:"inventory_id"`
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	Quantity    int       `json:"quantity"`
	ReferenceID string    `json:"reference_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e StockReservedEvent) EventName() string { return StockReservedEventName }

type StockReleasedEvent struct {
	InventoryID string    `json:"inventory_id"`
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	Quantity    int       `json:"quantity"`
	Consumed    bool      `json:"consumed"`
	ReferenceID string    `json:"reference_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e StockReleasedEvent) EventName() string { return StockReleasedEventName }

type StockTransferredEvent struct {
	ProductID       string    `json:"product_id"`
	FromWarehouseID string    `json:"from_warehouse_id"`
	ToWarehouseID   string    `json:"to_warehouse_id"`
	Quantity        int       `json:"quantity"`
	OccurredAt      time.Time `json:"occurred_at"`
}

func (e StockTransferredEvent) EventName() string { return StockTransferredEventName }

type InventoryDeletedEvent struct {
	InventoryID string    `json:"inventory_id"`
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e InventoryDeletedEvent) EventName() string { return InventoryDeletedEventName }

// LowStockEvent fires when a mutation drops a row to or below its minimum
// stock level.
type LowStockEvent struct {
	InventoryID       string    `json:"inventory_id"`
	ProductID         string    `json:"product_id"`
	WarehouseID       string    `json:"warehouse_id"`
	Quantity          int       `json:"quantity"`
	MinimumStockLevel int       `json:"minimum_stock_level"`
	OccurredAt        time.Time `json:"occurred_at"`
}

func (e LowStockEvent) EventName() string { return LowStockEventName }
