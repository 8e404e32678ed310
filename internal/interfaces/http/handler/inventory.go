package handler

import (
	"context"

	invapp "github.com/erp/ordertocash/internal/application/inventory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InventoryHandler handles locations, stock movements and balance queries
type InventoryHandler struct {
	BaseHandler
	inventory *invapp.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventory *invapp.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

// CreateLocation godoc
// @Summary      Create a stock location
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body invapp.CreateLocationRequest true "Location"
// @Success      201 {object} dto.Response{data=invapp.LocationResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /locations [post]
func (h *InventoryHandler) CreateLocation(c *gin.Context) {
	var req invapp.CreateLocationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.inventory.CreateLocation(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// UpdateLocation godoc
// @Summary      Update a stock location
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Location ID" format(uuid)
// @Param        request body invapp.UpdateLocationRequest true "Location"
// @Success      200 {object} dto.Response{data=invapp.LocationResponse}
// @Security     BearerAuth
// @Router       /locations/{id} [put]
func (h *InventoryHandler) UpdateLocation(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req invapp.UpdateLocationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.inventory.UpdateLocation(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetLocation godoc
// @Summary      Get a stock location
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Success      200 {object} dto.Response{data=invapp.LocationResponse}
// @Security     BearerAuth
// @Router       /locations/{id} [get]
func (h *InventoryHandler) GetLocation(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.inventory.GetLocation(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListLocations godoc
// @Summary      List stock locations
// @Tags         inventory
// @Produce      json
// @Success      200 {object} dto.Response{data=[]invapp.LocationResponse}
// @Security     BearerAuth
// @Router       /locations [get]
func (h *InventoryHandler) ListLocations(c *gin.Context) {
	resp, err := h.inventory.ListLocations(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// LocationSummary godoc
// @Summary      Summarize the stock held at a location
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventory.LocationStockSummary}
// @Security     BearerAuth
// @Router       /locations/{id}/summary [get]
func (h *InventoryHandler) LocationSummary(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.inventory.LocationSummary(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RecordMovement godoc
// @Summary      Record a manual stock movement
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body invapp.MovementRequest true "Movement"
// @Success      201 {object} dto.Response{data=invapp.MovementResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/movements [post]
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req invapp.MovementRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.inventory.RecordMovement(c.Request.Context(), req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListMovements godoc
// @Summary      List the movements of an item at a location
// @Tags         inventory
// @Produce      json
// @Param        item_id     query string true  "Item ID" format(uuid)
// @Param        location_id query string true  "Location ID" format(uuid)
// @Param        page        query int    false "Page number" default(1)
// @Param        page_size   query int    false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]invapp.MovementResponse}
// @Security     BearerAuth
// @Router       /inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	var filter invapp.MovementListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}
	itemID, locationID, ok := h.balanceKey(c)
	if !ok {
		return
	}
	filter.ItemID = itemID
	filter.LocationID = locationID
	resp, err := h.inventory.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Transfer godoc
// @Summary      Move stock between two locations
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body invapp.TransferRequest true "Transfer"
// @Success      201 {object} dto.Response{data=invapp.TransferResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req invapp.TransferRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.inventory.Transfer(c.Request.Context(), req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Reserve godoc
// @Summary      Reserve available stock
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body invapp.ReservationRequest true "Reservation"
// @Success      200 {object} dto.Response{data=invapp.BalanceResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/reserve [post]
func (h *InventoryHandler) Reserve(c *gin.Context) {
	h.reservation(c, h.inventory.Reserve)
}

// Release godoc
// @Summary      Release reserved stock
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body invapp.ReservationRequest true "Reservation"
// @Success      200 {object} dto.Response{data=invapp.BalanceResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/release [post]
func (h *InventoryHandler) Release(c *gin.Context) {
	h.reservation(c, h.inventory.Release)
}

func (h *InventoryHandler) reservation(c *gin.Context, fn func(ctx context.Context, req invapp.ReservationRequest, actor uuid.UUID) (*invapp.BalanceResponse, error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req invapp.ReservationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := fn(c.Request.Context(), req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetMinQuantity godoc
// @Summary      Set the low stock threshold of a balance
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body invapp.SetMinQuantityRequest true "Threshold"
// @Success      200 {object} dto.Response{data=invapp.BalanceResponse}
// @Security     BearerAuth
// @Router       /inventory/min-quantity [put]
func (h *InventoryHandler) SetMinQuantity(c *gin.Context) {
	var req invapp.SetMinQuantityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.inventory.SetMinQuantity(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetBalance godoc
// @Summary      Get the balance of an item at a location
// @Tags         inventory
// @Produce      json
// @Param        item_id     query string true "Item ID" format(uuid)
// @Param        location_id query string true "Location ID" format(uuid)
// @Success      200 {object} dto.Response{data=invapp.BalanceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/balance [get]
func (h *InventoryHandler) GetBalance(c *gin.Context) {
	itemID, locationID, ok := h.balanceKey(c)
	if !ok {
		return
	}
	resp, err := h.inventory.GetBalance(c.Request.Context(), itemID, locationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListBalances godoc
// @Summary      List balances
// @Tags         inventory
// @Produce      json
// @Param        location_id query string false "Location ID" format(uuid)
// @Param        item_ids    query string false "Comma separated item IDs"
// @Success      200 {object} dto.Response{data=[]invapp.BalanceResponse}
// @Security     BearerAuth
// @Router       /inventory/balances [get]
func (h *InventoryHandler) ListBalances(c *gin.Context) {
	locationID, ok := h.optionalUUIDQuery(c, "location_id")
	if !ok {
		return
	}
	itemIDs, ok := h.uuidListQuery(c, "item_ids")
	if !ok {
		return
	}
	resp, err := h.inventory.ListBalances(c.Request.Context(), locationID, itemIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListLowStock godoc
// @Summary      List balances below their minimum
// @Tags         inventory
// @Produce      json
// @Param        location_id query string false "Location ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]invapp.BalanceResponse}
// @Security     BearerAuth
// @Router       /inventory/low-stock [get]
func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	locationID, ok := h.optionalUUIDQuery(c, "location_id")
	if !ok {
		return
	}
	resp, err := h.inventory.ListLowStock(c.Request.Context(), locationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Summary godoc
// @Summary      Summarize items across every location
// @Tags         inventory
// @Produce      json
// @Param        item_ids query string true "Comma separated item IDs"
// @Success      200 {object} dto.Response{data=[]inventory.ItemStockSummary}
// @Security     BearerAuth
// @Router       /inventory/summary [get]
func (h *InventoryHandler) Summary(c *gin.Context) {
	itemIDs, ok := h.uuidListQuery(c, "item_ids")
	if !ok {
		return
	}
	if len(itemIDs) == 0 {
		h.BadRequest(c, "item_ids is required")
		return
	}
	resp, err := h.inventory.MultiLocationSummary(c.Request.Context(), itemIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reconcile godoc
// @Summary      Check a balance against its movement history
// @Tags         inventory
// @Produce      json
// @Param        item_id     query string true "Item ID" format(uuid)
// @Param        location_id query string true "Location ID" format(uuid)
// @Success      200 {object} dto.Response{data=invapp.ReconciliationResponse}
// @Security     BearerAuth
// @Router       /inventory/reconcile [get]
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	itemID, locationID, ok := h.balanceKey(c)
	if !ok {
		return
	}
	resp, err := h.inventory.Reconcile(c.Request.Context(), itemID, locationID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// balanceKey reads the mandatory item_id and location_id query pair
func (h *InventoryHandler) balanceKey(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	itemID, ok := h.optionalUUIDQuery(c, "item_id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	locationID, ok := h.optionalUUIDQuery(c, "location_id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	if itemID == nil || locationID == nil {
		h.BadRequest(c, "item_id and location_id are required")
		return uuid.Nil, uuid.Nil, false
	}
	return *itemID, *locationID, true
}
