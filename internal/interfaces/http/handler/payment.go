package handler

import (
	tradeapp "github.com/erp/ordertocash/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// PaymentHandler handles payments received on account and reversals
type PaymentHandler struct {
	BaseHandler
	payments *tradeapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *tradeapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Record godoc
// @Summary      Record a payment
// @Description  Without invoice_id the payment is held on account for the customer
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.RecordPaymentRequest true "Payment"
// @Success      201 {object} dto.Response{data=tradeapp.PaymentResultResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments [post]
func (h *PaymentHandler) Record(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req tradeapp.RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.payments.Record(c.Request.Context(), req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetByID godoc
// @Summary      Get a payment
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.PaymentResponse}
// @Security     BearerAuth
// @Router       /payments/{id} [get]
func (h *PaymentHandler) GetByID(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.payments.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListByCustomer godoc
// @Summary      List the payments of a customer
// @Tags         payments
// @Produce      json
// @Param        customer_id query string true  "Customer ID" format(uuid)
// @Param        page        query int    false "Page number" default(1)
// @Param        page_size   query int    false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]tradeapp.PaymentResponse}
// @Security     BearerAuth
// @Router       /payments [get]
func (h *PaymentHandler) ListByCustomer(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	if filter.CustomerID == nil {
		h.BadRequest(c, "customer_id is required")
		return
	}
	resp, err := h.payments.ListByCustomer(c.Request.Context(), *filter.CustomerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reverse godoc
// @Summary      Reverse a completed payment
// @Description  Restores the invoice balance and posts the mirror journal entry
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id      path string                 true "Payment ID" format(uuid)
// @Param        request body tradeapp.ReasonRequest true "Reason"
// @Success      200 {object} dto.Response{data=tradeapp.PaymentResultResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id}/reverse [post]
func (h *PaymentHandler) Reverse(c *gin.Context) {
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
	resp, err := h.payments.Reverse(c.Request.Context(), id, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
