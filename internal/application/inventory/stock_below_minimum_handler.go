package inventory

import (
	"context"
	"fmt"

	"github.com/erp/ordertocash/internal/domain/inventory"
	"github.com/erp/ordertocash/internal/domain/shared"
	"go.uber.org/zap"
)

// Alert types
const (
	AlertLowStock   = "low_stock"
	AlertOutOfStock = "out_of_stock"
)

// StockAlert represents a stock level alert
type StockAlert struct {
	ItemID            string `json:"item_id"`
	LocationID        string `json:"location_id"`
	TotalQuantity     string `json:"total_quantity"`
	ReservedQuantity  string `json:"reserved_quantity"`
	AvailableQuantity string `json:"available_quantity"`
	MinimumQuantity   string `json:"minimum_quantity"`
	AlertType         string `json:"alert_type"`
}

// StockAlertNotifier sends stock alerts to whoever replenishes stock
type StockAlertNotifier interface {
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockBelowMinimumHandler turns StockBelowMinimum events into alerts
type StockBelowMinimumHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
}

// NewStockBelowMinimumHandler creates a new handler. notifier may be nil,
// in which case alerts are only logged.
func NewStockBelowMinimumHandler(notifier StockAlertNotifier, logger *zap.Logger) *StockBelowMinimumHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockBelowMinimumHandler{logger: logger, notifier: notifier}
}

// EventTypes returns the event types this handler is interested in
func (h *StockBelowMinimumHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowMinimum}
}

// Handle processes a StockBelowMinimum event
func (h *StockBelowMinimumHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*inventory.StockEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockBelowMinimum, event.EventType())
	}

	alertType := AlertLowStock
	if !e.Available.IsPositive() {
		alertType = AlertOutOfStock
	}
	alert := StockAlert{
		ItemID:            e.ItemID.String(),
		LocationID:        e.LocationID.String(),
		TotalQuantity:     e.Total.String(),
		ReservedQuantity:  e.Reserved.String(),
		AvailableQuantity: e.Available.String(),
		MinimumQuantity:   e.MinQuantity.String(),
		AlertType:         alertType,
	}

	h.logger.Warn("Stock below minimum",
		zap.String("item_id", alert.ItemID),
		zap.String("location_id", alert.LocationID),
		zap.String("available_quantity", alert.AvailableQuantity),
		zap.String("minimum_quantity", alert.MinimumQuantity),
		zap.String("alert_type", alertType),
	)

	if h.notifier == nil {
		return nil
	}
	if err := h.notifier.SendAlert(ctx, alert); err != nil {
		// the stock change is already committed
		h.logger.Error("Failed to send stock alert", zap.String("item_id", alert.ItemID), zap.Error(err))
	}
	return nil
}

var _ shared.EventHandler = (*StockBelowMinimumHandler)(nil)
