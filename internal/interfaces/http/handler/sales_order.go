package handler

import (
	tradeapp "github.com/erp/ordertocash/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// SalesOrderHandler handles sales order endpoints and the documents
// derived from an order
type SalesOrderHandler struct {
	BaseHandler
	orders      *tradeapp.SalesOrderService
	shipments   *tradeapp.ShipmentService
	conversions *tradeapp.ConversionService
}

// NewSalesOrderHandler creates a new SalesOrderHandler
func NewSalesOrderHandler(orders *tradeapp.SalesOrderService, shipments *tradeapp.ShipmentService, conversions *tradeapp.ConversionService) *SalesOrderHandler {
	return &SalesOrderHandler{orders: orders, shipments: shipments, conversions: conversions}
}

// Create godoc
// @Summary      Create a sales order
// @Description  Create a draft sales order directly, without a quotation
// @Tags         sales-orders
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.CreateSalesOrderRequest true "Sales order"
// @Success      201 {object} dto.Response{data=tradeapp.SalesOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders [post]
func (h *SalesOrderHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req tradeapp.CreateSalesOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.orders.Create(c.Request.Context(), req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetByID godoc
// @Summary      Get a sales order
// @Tags         sales-orders
// @Produce      json
// @Param        id path string true "Sales order ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.SalesOrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders/{id} [get]
func (h *SalesOrderHandler) GetByID(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List godoc
// @Summary      List sales orders
// @Tags         sales-orders
// @Produce      json
// @Param        status      query string false "Status filter" Enums(DRAFT, CONFIRMED, PROCESSING, SHIPPED, DELIVERED, CANCELLED)
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        page        query int    false "Page number" default(1)
// @Param        page_size   query int    false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]tradeapp.SalesOrderResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /sales-orders [get]
func (h *SalesOrderHandler) List(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// AddItem godoc
// @Summary      Add a line to a draft sales order
// @Tags         sales-orders
// @Accept       json
// @Produce      json
// @Param        id      path string                 true "Sales order ID" format(uuid)
// @Param        request body tradeapp.LineItemInput true "Line"
// @Success      200 {object} dto.Response{data=tradeapp.SalesOrderResponse}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/items [post]
func (h *SalesOrderHandler) AddItem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.LineItemInput
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.orders.AddItem(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateItem godoc
// @Summary      Replace a line of a draft sales order
// @Tags         sales-orders
// @Accept       json
// @Produce      json
// @Param        id      path string                 true "Sales order ID" format(uuid)
// @Param        line_id path string                 true "Line ID" format(uuid)
// @Param        request body tradeapp.LineItemInput true "Line"
// @Success      200 {object} dto.Response{data=tradeapp.SalesOrderResponse}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/items/{line_id} [put]
func (h *SalesOrderHandler) UpdateItem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.uuidParam(c, "line_id")
	if !ok {
		return
	}
	var req tradeapp.LineItemInput
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.orders.UpdateItem(c.Request.Context(), id, lineID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveItem godoc
// @Summary      Remove a line from a draft sales order
// @Tags         sales-orders
// @Produce      json
// @Param        id      path string true "Sales order ID" format(uuid)
// @Param        line_id path string true "Line ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.SalesOrderResponse}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/items/{line_id} [delete]
func (h *SalesOrderHandler) RemoveItem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.uuidParam(c, "line_id")
	if !ok {
		return
	}
	resp, err := h.orders.RemoveItem(c.Request.Context(), id, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetDiscount godoc
// @Summary      Set the document discount of a draft sales order
// @Tags         sales-orders
// @Accept       json
// @Produce      json
// @Param        id      path string                      true "Sales order ID" format(uuid)
// @Param        request body tradeapp.SetDiscountRequest true "Discount"
// @Success      200 {object} dto.Response{data=tradeapp.SalesOrderResponse}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/discount [put]
func (h *SalesOrderHandler) SetDiscount(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.SetDiscountRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.orders.SetDiscount(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Confirm godoc
// @Summary      Confirm a draft sales order
// @Description  Confirming reserves the ordered quantities at the order location
// @Tags         sales-orders
// @Accept       json
// @Produce      json
// @Param        id      path string                        true  "Sales order ID" format(uuid)
// @Param        request body tradeapp.ConfirmOrderRequest false "Confirmation"
// @Success      200 {object} dto.Response{data=tradeapp.SalesOrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/confirm [post]
func (h *SalesOrderHandler) Confirm(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.ConfirmOrderRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.orders.Confirm(c.Request.Context(), id, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// StartProcessing godoc
// @Summary      Move a confirmed order into processing
// @Tags         sales-orders
// @Produce      json
// @Param        id path string true "Sales order ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.SalesOrderResponse}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/process [post]
func (h *SalesOrderHandler) StartProcessing(c *gin.Context) {
	runTransition(&h.BaseHandler, c, h.orders.StartProcessing)
}

// Cancel godoc
// @Summary      Cancel a sales order
// @Description  Releases the remaining reservations
// @Tags         sales-orders
// @Accept       json
// @Produce      json
// @Param        id      path string                 true "Sales order ID" format(uuid)
// @Param        request body tradeapp.ReasonRequest true "Reason"
// @Success      200 {object} dto.Response{data=tradeapp.SalesOrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/cancel [post]
func (h *SalesOrderHandler) Cancel(c *gin.Context) {
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
	resp, err := h.orders.Cancel(c.Request.Context(), id, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Fulfillment godoc
// @Summary      Shipping, invoicing and payment progress of an order
// @Tags         sales-orders
// @Produce      json
// @Param        id path string true "Sales order ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.FulfillmentResponse}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/fulfillment [get]
func (h *SalesOrderHandler) Fulfillment(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.orders.Fulfillment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Invoice godoc
// @Summary      Invoice (part of) a sales order
// @Description  Without lines every uninvoiced quantity is billed. The same Idempotency-Key returns the first invoice with 200.
// @Tags         sales-orders
// @Accept       json
// @Produce      json
// @Param        id              path   string                        true  "Sales order ID" format(uuid)
// @Param        Idempotency-Key header string                        false "Idempotency key"
// @Param        request         body   tradeapp.InvoiceOrderRequest false "Lines to invoice"
// @Success      201 {object} dto.Response{data=tradeapp.InvoiceResponse}
// @Success      200 {object} dto.Response{data=tradeapp.InvoiceResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/invoice [post]
func (h *SalesOrderHandler) Invoice(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.InvoiceOrderRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	req.IdempotencyKey = idempotencyKey(c)

	resp, replayed, err := h.conversions.InvoiceOrder(c.Request.Context(), id, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if replayed {
		h.Success(c, resp)
		return
	}
	h.Created(c, resp)
}

// CreateShipment godoc
// @Summary      Create a shipment for a sales order
// @Tags         sales-orders
// @Accept       json
// @Produce      json
// @Param        id      path string                         true "Sales order ID" format(uuid)
// @Param        request body tradeapp.CreateShipmentRequest true "Shipment"
// @Success      201 {object} dto.Response{data=tradeapp.ShipmentResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/shipments [post]
func (h *SalesOrderHandler) CreateShipment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.CreateShipmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.shipments.Create(c.Request.Context(), id, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListShipments godoc
// @Summary      List the shipments of a sales order
// @Tags         sales-orders
// @Produce      json
// @Param        id path string true "Sales order ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]tradeapp.ShipmentResponse}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/shipments [get]
func (h *SalesOrderHandler) ListShipments(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.shipments.ListByOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
