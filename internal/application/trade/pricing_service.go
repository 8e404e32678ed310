package trade

import (
	"github.com/erp/ordertocash/internal/domain/pricing"
)

// PricingService previews document totals with the same calculator the
// documents use, so a live preview always matches the saved document
type PricingService struct{}

// NewPricingService creates a new PricingService
func NewPricingService() *PricingService {
	return &PricingService{}
}

// Preview computes line and document totals without persisting anything
func (s *PricingService) Preview(req PricingPreviewRequest) (*PricingPreviewResponse, error) {
	lines := make([]pricing.LineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = pricing.LineInput{
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			DiscountPct: l.DiscountPct,
			TaxRatePct:  l.TaxRatePct,
		}
	}
	totals, lineTotals, err := pricing.ComputeDocumentTotals(lines, req.DiscountPct)
	if err != nil {
		return nil, err
	}
	return &PricingPreviewResponse{Lines: lineTotals, Totals: totals}, nil
}
