package handler

import (
	tradeapp "github.com/erp/ordertocash/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles invoice endpoints and payments against an invoice
type InvoiceHandler struct {
	BaseHandler
	invoices *tradeapp.InvoiceService
	payments *tradeapp.PaymentService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices *tradeapp.InvoiceService, payments *tradeapp.PaymentService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, payments: payments}
}

// Create godoc
// @Summary      Create a standalone invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.CreateInvoiceRequest true "Invoice"
// @Success      201 {object} dto.Response{data=tradeapp.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req tradeapp.CreateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.invoices.Create(c.Request.Context(), req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetByID godoc
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.invoices.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List godoc
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        status      query string false "Status filter" Enums(DRAFT, POSTED, PARTIAL, PAID, CANCELLED)
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        page        query int    false "Page number" default(1)
// @Param        page_size   query int    false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]tradeapp.InvoiceResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.invoices.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Post godoc
// @Summary      Post a draft invoice to the ledger
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.InvoiceResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id}/post [post]
func (h *InvoiceHandler) Post(c *gin.Context) {
	runTransition(&h.BaseHandler, c, h.invoices.Post)
}

// Send godoc
// @Summary      Send a posted invoice to the customer
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.InvoiceResponse}
// @Security     BearerAuth
// @Router       /invoices/{id}/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	runTransition(&h.BaseHandler, c, h.invoices.Send)
}

// Cancel godoc
// @Summary      Cancel an unpaid invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id      path string                 true "Invoice ID" format(uuid)
// @Param        request body tradeapp.ReasonRequest true "Reason"
// @Success      200 {object} dto.Response{data=tradeapp.InvoiceResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
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
	resp, err := h.invoices.Cancel(c.Request.Context(), id, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RecordPayment godoc
// @Summary      Record a payment against an invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id      path string                        true "Invoice ID" format(uuid)
// @Param        request body tradeapp.RecordPaymentRequest true "Payment"
// @Success      201 {object} dto.Response{data=tradeapp.PaymentResultResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.InvoiceID = &id
	resp, err := h.payments.Record(c.Request.Context(), req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListPayments godoc
// @Summary      List the payments of an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]tradeapp.PaymentResponse}
// @Security     BearerAuth
// @Router       /invoices/{id}/payments [get]
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.payments.ListByInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
