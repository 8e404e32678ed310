package handler

import (
	tradeapp "github.com/erp/ordertocash/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// QuotationHandler handles quotation endpoints, including conversion into
// a sales order
type QuotationHandler struct {
	BaseHandler
	quotations  *tradeapp.QuotationService
	conversions *tradeapp.ConversionService
}

// NewQuotationHandler creates a new QuotationHandler
func NewQuotationHandler(quotations *tradeapp.QuotationService, conversions *tradeapp.ConversionService) *QuotationHandler {
	return &QuotationHandler{quotations: quotations, conversions: conversions}
}

// Create godoc
// @Summary      Create a quotation
// @Description  Create a draft quotation with optional lines
// @Tags         quotations
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.CreateQuotationRequest true "Quotation"
// @Success      201 {object} dto.Response{data=tradeapp.QuotationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /quotations [post]
func (h *QuotationHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req tradeapp.CreateQuotationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.quotations.Create(c.Request.Context(), req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetByID godoc
// @Summary      Get a quotation
// @Tags         quotations
// @Produce      json
// @Param        id path string true "Quotation ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.QuotationResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /quotations/{id} [get]
func (h *QuotationHandler) GetByID(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.quotations.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List godoc
// @Summary      List quotations
// @Tags         quotations
// @Produce      json
// @Param        status      query string false "Status filter" Enums(DRAFT, SENT, ACCEPTED, REJECTED, EXPIRED)
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        page        query int    false "Page number" default(1)
// @Param        page_size   query int    false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]tradeapp.QuotationResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /quotations [get]
func (h *QuotationHandler) List(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.quotations.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// AddItem godoc
// @Summary      Add a line to a draft quotation
// @Tags         quotations
// @Accept       json
// @Produce      json
// @Param        id      path string                 true "Quotation ID" format(uuid)
// @Param        request body tradeapp.LineItemInput true "Line"
// @Success      200 {object} dto.Response{data=tradeapp.QuotationResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /quotations/{id}/items [post]
func (h *QuotationHandler) AddItem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.LineItemInput
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.quotations.AddItem(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateItem godoc
// @Summary      Replace a line of a draft quotation
// @Tags         quotations
// @Accept       json
// @Produce      json
// @Param        id      path string                 true "Quotation ID" format(uuid)
// @Param        line_id path string                 true "Line ID" format(uuid)
// @Param        request body tradeapp.LineItemInput true "Line"
// @Success      200 {object} dto.Response{data=tradeapp.QuotationResponse}
// @Security     BearerAuth
// @Router       /quotations/{id}/items/{line_id} [put]
func (h *QuotationHandler) UpdateItem(c *gin.Context) {
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
	resp, err := h.quotations.UpdateItem(c.Request.Context(), id, lineID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveItem godoc
// @Summary      Remove a line from a draft quotation
// @Tags         quotations
// @Produce      json
// @Param        id      path string true "Quotation ID" format(uuid)
// @Param        line_id path string true "Line ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.QuotationResponse}
// @Security     BearerAuth
// @Router       /quotations/{id}/items/{line_id} [delete]
func (h *QuotationHandler) RemoveItem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.uuidParam(c, "line_id")
	if !ok {
		return
	}
	resp, err := h.quotations.RemoveItem(c.Request.Context(), id, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetDiscount godoc
// @Summary      Set the document discount of a draft quotation
// @Tags         quotations
// @Accept       json
// @Produce      json
// @Param        id      path string                      true "Quotation ID" format(uuid)
// @Param        request body tradeapp.SetDiscountRequest true "Discount"
// @Success      200 {object} dto.Response{data=tradeapp.QuotationResponse}
// @Security     BearerAuth
// @Router       /quotations/{id}/discount [put]
func (h *QuotationHandler) SetDiscount(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.SetDiscountRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.quotations.SetDiscount(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Send godoc
// @Summary      Send a quotation to the customer
// @Tags         quotations
// @Produce      json
// @Param        id path string true "Quotation ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.QuotationResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /quotations/{id}/send [post]
func (h *QuotationHandler) Send(c *gin.Context) {
	runTransition(&h.BaseHandler, c, h.quotations.Send)
}

// Accept godoc
// @Summary      Mark a sent quotation accepted
// @Tags         quotations
// @Produce      json
// @Param        id path string true "Quotation ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.QuotationResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /quotations/{id}/accept [post]
func (h *QuotationHandler) Accept(c *gin.Context) {
	runTransition(&h.BaseHandler, c, h.quotations.Accept)
}

// Reject godoc
// @Summary      Reject a sent quotation
// @Tags         quotations
// @Accept       json
// @Produce      json
// @Param        id      path string                 true "Quotation ID" format(uuid)
// @Param        request body tradeapp.ReasonRequest true "Reason"
// @Success      200 {object} dto.Response{data=tradeapp.QuotationResponse}
// @Security     BearerAuth
// @Router       /quotations/{id}/reject [post]
func (h *QuotationHandler) Reject(c *gin.Context) {
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
	resp, err := h.quotations.Reject(c.Request.Context(), id, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Convert godoc
// @Summary      Convert an accepted quotation into a sales order
// @Description  Repeating the call with the same Idempotency-Key returns the order created the first time with 200
// @Tags         quotations
// @Accept       json
// @Produce      json
// @Param        id              path   string                           true  "Quotation ID" format(uuid)
// @Param        Idempotency-Key header string                           false "Idempotency key"
// @Param        request         body   tradeapp.ConvertQuotationRequest true  "Conversion"
// @Success      201 {object} dto.Response{data=tradeapp.SalesOrderResponse}
// @Success      200 {object} dto.Response{data=tradeapp.SalesOrderResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /quotations/{id}/convert [post]
func (h *QuotationHandler) Convert(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.ConvertQuotationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.IdempotencyKey = idempotencyKey(c)

	resp, replayed, err := h.conversions.ConvertQuotation(c.Request.Context(), id, req, actor)
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
