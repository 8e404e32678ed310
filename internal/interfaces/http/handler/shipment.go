package handler

import (
	tradeapp "github.com/erp/ordertocash/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// ShipmentHandler handles shipment lifecycle endpoints. Shipments are
// created under their sales order.
type ShipmentHandler struct {
	BaseHandler
	shipments *tradeapp.ShipmentService
}

// NewShipmentHandler creates a new ShipmentHandler
func NewShipmentHandler(shipments *tradeapp.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipments: shipments}
}

// GetByID godoc
// @Summary      Get a shipment
// @Tags         shipments
// @Produce      json
// @Param        id path string true "Shipment ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.ShipmentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /shipments/{id} [get]
func (h *ShipmentHandler) GetByID(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.shipments.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// MarkReady godoc
// @Summary      Mark a shipment packed and ready
// @Tags         shipments
// @Produce      json
// @Param        id path string true "Shipment ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.ShipmentResponse}
// @Security     BearerAuth
// @Router       /shipments/{id}/ready [post]
func (h *ShipmentHandler) MarkReady(c *gin.Context) {
	runTransition(&h.BaseHandler, c, h.shipments.MarkReady)
}

// Confirm godoc
// @Summary      Confirm a shipment left the warehouse
// @Description  Consumes the reserved stock and advances the order fulfillment
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Param        id      path string                          true  "Shipment ID" format(uuid)
// @Param        request body tradeapp.ConfirmShipmentRequest false "Carrier details"
// @Success      200 {object} dto.Response{data=tradeapp.ShipmentResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /shipments/{id}/confirm [post]
func (h *ShipmentHandler) Confirm(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.ConfirmShipmentRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.shipments.Confirm(c.Request.Context(), id, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// MarkDelivered godoc
// @Summary      Mark a shipment delivered
// @Tags         shipments
// @Produce      json
// @Param        id path string true "Shipment ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.ShipmentResponse}
// @Security     BearerAuth
// @Router       /shipments/{id}/deliver [post]
func (h *ShipmentHandler) MarkDelivered(c *gin.Context) {
	runTransition(&h.BaseHandler, c, h.shipments.MarkDelivered)
}

// Cancel godoc
// @Summary      Cancel a shipment that has not left
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Param        id      path string                 true "Shipment ID" format(uuid)
// @Param        request body tradeapp.ReasonRequest true "Reason"
// @Success      200 {object} dto.Response{data=tradeapp.ShipmentResponse}
// @Security     BearerAuth
// @Router       /shipments/{id}/cancel [post]
func (h *ShipmentHandler) Cancel(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.ReasonRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.shipments.Cancel(c.Request.Context(), id, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
