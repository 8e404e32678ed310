package handler

import (
	tradeapp "github.com/erp/ordertocash/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// PricingHandler serves totals previews for unsaved lines
type PricingHandler struct {
	BaseHandler
	pricing *tradeapp.PricingService
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(pricing *tradeapp.PricingService) *PricingHandler {
	return &PricingHandler{pricing: pricing}
}

// Preview godoc
// @Summary      Preview document totals
// @Description  Runs the calculator over the given lines without persisting anything
// @Tags         pricing
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.PricingPreviewRequest true "Lines"
// @Success      200 {object} dto.Response{data=tradeapp.PricingPreviewResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /pricing/preview [post]
func (h *PricingHandler) Preview(c *gin.Context) {
	var req tradeapp.PricingPreviewRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.pricing.Preview(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
