package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/vendora/inventory/internal/core/domain"
	"github.com/vendora/inventory/internal/core/service"
)

// HTTPHandler is a thin JSON shim over the stock service. Authentication,
// rate limiting, and routing policy live in front of this process; the
// handler only decodes requests, delegates, and maps domain errors to status
// codes.
type HTTPHandler struct {
	stock *service.StockService
}

func NewHTTPHandler(stock *service.StockService) *HTTPHandler {
	return &HTTPHandler{stock: stock}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("POST /api/inventory", h.CreateInventory)
	mux.HandleFunc("GET /api/inventory", h.QueryInventory)
	mux.HandleFunc("GET /api/inventory/{id}", h.GetInventory)
	mux.HandleFunc("PATCH /api/inventory/{id}", h.UpdateDetails)
	mux.HandleFunc("DELETE /api/inventory/{id}", h.DeleteInventory)
	mux.HandleFunc("POST /api/inventory/{id}/adjust", h.AdjustStock)
	mux.HandleFunc("POST /api/inventory/{id}/count", h.UpdateLastCountDate)

	mux.HandleFunc("POST /api/stock/reserve", h.Reserve)
	mux.HandleFunc("POST /api/stock/release", h.Release)
	mux.HandleFunc("POST /api/stock/cancel-reservation", h.CancelReservation)
	mux.HandleFunc("POST /api/stock/transfer", h.Transfer)
	mux.HandleFunc("GET /api/stock/available", h.AvailableStock)

	mux.HandleFunc("GET /api/reports/stock/{productID}", h.StockReport)
	mux.HandleFunc("GET /api/reports/low-stock", h.LowStockAlerts)

	mux.HandleFunc("GET /api/movements", h.ListMovements)
}

type createInventoryRequest struct {
	ProductID         string  `json:"product_id"`
	WarehouseID       string  `json:"warehouse_id"`
	InitialQuantity   int     `json:"initial_quantity"`
	MinimumStockLevel int     `json:"minimum_stock_level"`
	MaximumStockLevel int     `json:"maximum_stock_level"`
	UnitCost          float64 `json:"unit_cost"`
	Location          string  `json:"location"`
	PerformedBy       string  `json:"performed_by"`
	Notes             string  `json:"notes"`
}

func (h *HTTPHandler) CreateInventory(w http.ResponseWriter, r *http.Request) {
	var req createInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.stock.Create(r.Context(), service.CreateInput{
		ProductID:         req.ProductID,
		WarehouseID:       req.WarehouseID,
		InitialQuantity:   req.InitialQuantity,
		MinimumStockLevel: req.MinimumStockLevel,
		MaximumStockLevel: req.MaximumStockLevel,
		UnitCost:          req.UnitCost,
		Location:          req.Location,
		PerformedBy:       req.PerformedBy,
		Notes:             req.Notes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toInventoryResponse(inv))
}

func (h *HTTPHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	inv, err := h.stock.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryResponse(inv))
}

// QueryInventory serves the pair lookup, the by-product listing, and the
// paged by-warehouse listing depending on which query parameters are set.
func (h *HTTPHandler) QueryInventory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productID := q.Get("product_id")
	warehouseID := q.Get("warehouse_id")

	switch {
	case productID != "" && warehouseID != "":
		inv, err := h.stock.GetByProductAndWarehouse(r.Context(), productID, warehouseID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toInventoryResponse(inv))
	case productID != "":
		rows, err := h.stock.GetByProduct(r.Context(), productID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toInventoryResponses(rows))
	case warehouseID != "":
		page, _ := strconv.Atoi(q.Get("page"))
		pageSize, _ := strconv.Atoi(q.Get("page_size"))
		rows, err := h.stock.GetByWarehouse(r.Context(), warehouseID, page, pageSize)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toInventoryResponses(rows))
	default:
		writeError(w, http.StatusBadRequest, "product_id or warehouse_id is required")
	}
}

type updateDetailsRequest struct {
	MinimumStockLevel *int     `json:"minimum_stock_level"`
	MaximumStockLevel *int     `json:"maximum_stock_level"`
	UnitCost          *float64 `json:"unit_cost"`
	Location          *string  `json:"location"`
}

func (h *HTTPHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	var req updateDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.stock.UpdateDetails(r.Context(), r.PathValue("id"), service.UpdateDetailsInput{
		MinimumStockLevel: req.MinimumStockLevel,
		MaximumStockLevel: req.MaximumStockLevel,
		UnitCost:          req.UnitCost,
		Location:          req.Location,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryResponse(inv))
}

func (h *HTTPHandler) DeleteInventory(w http.ResponseWriter, r *http.Request) {
	if err := h.stock.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adjustStockRequest struct {
	Delta       int    `json:"delta"`
	PerformedBy string `json:"performed_by"`
	Notes       string `json:"notes"`
}

func (h *HTTPHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.stock.AdjustStock(r.Context(), r.PathValue("id"), req.Delta, req.PerformedBy, req.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryResponse(inv))
}

func (h *HTTPHandler) UpdateLastCountDate(w http.ResponseWriter, r *http.Request) {
	inv, err := h.stock.UpdateLastCountDate(r.Context(), r.PathValue("id"), time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryResponse(inv))
}

type reservationRequest struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    int    `json:"quantity"`
	OrderID     string `json:"order_id"`
	PerformedBy string `json:"performed_by"`
}

func (h *HTTPHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	h.reservationOp(w, r, h.stock.Reserve)
}

func (h *HTTPHandler) Release(w http.ResponseWriter, r *http.Request) {
	h.reservationOp(w, r, h.stock.Release)
}

func (h *HTTPHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	h.reservationOp(w, r, h.stock.CancelReservation)
}

func (h *HTTPHandler) reservationOp(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, productID, warehouseID string, quantity int, orderID, performedBy string) (*domain.Inventory, error)) {
	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := op(r.Context(), req.ProductID, req.WarehouseID, req.Quantity, req.OrderID, req.PerformedBy)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryResponse(inv))
}

type transferRequest struct {
	ProductID       string `json:"product_id"`
	FromWarehouseID string `json:"from_warehouse_id"`
	ToWarehouseID   string `json:"to_warehouse_id"`
	Quantity        int    `json:"quantity"`
	PerformedBy     string `json:"performed_by"`
	Notes           string `json:"notes"`
}

func (h *HTTPHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	src, dst, err := h.stock.TransferStock(r.Context(), service.TransferInput{
		ProductID:       req.ProductID,
		FromWarehouseID: req.FromWarehouseID,
		ToWarehouseID:   req.ToWarehouseID,
		Quantity:        req.Quantity,
		PerformedBy:     req.PerformedBy,
		Notes:           req.Notes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"source":      toInventoryResponse(src),
		"destination": toInventoryResponse(dst),
	})
}

func (h *HTTPHandler) AvailableStock(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productID := q.Get("product_id")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	available, err := h.stock.GetAvailableStock(r.Context(), productID, q.Get("warehouse_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"product_id": productID,
		"available":  available,
	})
}

func (h *HTTPHandler) StockReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.stock.GetStockReport(r.Context(), r.PathValue("productID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *HTTPHandler) LowStockAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	rows, err := h.stock.GetLowStockAlerts(r.Context(), q.Get("warehouse_id"), page, pageSize)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryResponses(rows))
}

func (h *HTTPHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.MovementFilter{
		ProductID:   q.Get("product_id"),
		WarehouseID: q.Get("warehouse_id"),
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'from' timestamp")
			return
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'to' timestamp")
			return
		}
		filter.To = &t
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	movements, err := h.stock.ListMovements(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementResponses(movements))
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type inventoryResponse struct {
	ID                string     `json:"id"`
	ProductID         string     `json:"product_id"`
	WarehouseID       string     `json:"warehouse_id"`
	Quantity          int        `json:"quantity"`
	ReservedQuantity  int        `json:"reserved_quantity"`
	AvailableQuantity int        `json:"available_quantity"`
	MinimumStockLevel int        `json:"minimum_stock_level"`
	MaximumStockLevel int        `json:"maximum_stock_level"`
	UnitCost          float64    `json:"unit_cost"`
	Location          string     `json:"location,omitempty"`
	LastCountedAt     *time.Time `json:"last_counted_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func toInventoryResponse(inv *domain.Inventory) inventoryResponse {
	return inventoryResponse{
		ID:                inv.ID,
		ProductID:         inv.ProductID,
		WarehouseID:       inv.WarehouseID,
		Quantity:          inv.Quantity,
		ReservedQuantity:  inv.ReservedQuantity,
		AvailableQuantity: inv.AvailableQuantity(),
		MinimumStockLevel: inv.MinimumStockLevel,
		MaximumStockLevel: inv.MaximumStockLevel,
		UnitCost:          inv.UnitCost,
		Location:          inv.Location,
		LastCountedAt:     inv.LastCountedAt,
		UpdatedAt:         inv.UpdatedAt,
	}
}

func toInventoryResponses(rows []*domain.Inventory) []inventoryResponse {
	out := make([]inventoryResponse, 0, len(rows))
	for _, inv := range rows {
		out = append(out, toInventoryResponse(inv))
	}
	return out
}

type movementResponse struct {
	ID              string    `json:"id"`
	InventoryID     string    `json:"inventory_id"`
	ProductID       string    `json:"product_id"`
	WarehouseID     string    `json:"warehouse_id"`
	Type            string    `json:"movement_type"`
	Quantity        int       `json:"quantity"`
	QuantityBefore  int       `json:"quantity_before"`
	QuantityAfter   int       `json:"quantity_after"`
	PerformedBy     string    `json:"performed_by,omitempty"`
	ReferenceID     string    `json:"reference_id,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	FromWarehouseID string    `json:"from_warehouse_id,omitempty"`
	ToWarehouseID   string    `json:"to_warehouse_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func toMovementResponses(movements []*domain.StockMovement) []movementResponse {
	out := make([]movementResponse, 0, len(movements))
	for _, mv := range movements {
		out = append(out, movementResponse{
			ID:              mv.ID,
			InventoryID:     mv.InventoryID,
			ProductID:       mv.ProductID,
			WarehouseID:     mv.WarehouseID,
			Type:            string(mv.Type),
			Quantity:        mv.Quantity,
			QuantityBefore:  mv.QuantityBefore,
			QuantityAfter:   mv.QuantityAfter,
			PerformedBy:     mv.PerformedBy,
			ReferenceID:     mv.ReferenceID,
			Notes:           mv.Notes,
			FromWarehouseID: mv.FromWarehouseID,
			ToWarehouseID:   mv.ToWarehouseID,
			CreatedAt:       mv.CreatedAt,
		})
	}
	return out
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateInventory):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrStockConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientStock):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrBusinessRule):
		status = http.StatusUnprocessableEntity
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
