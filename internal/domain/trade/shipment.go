package trade

import (
	"strings"
	"time"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShipmentLine ships part of one sales order line
type ShipmentLine struct {
	ID               uuid.UUID
	SalesOrderItemID uuid.UUID
	ItemID           *uuid.UUID
	Description      string
	Quantity         decimal.Decimal
}

// IsStocked reports whether the line moves inventory
func (l ShipmentLine) IsStocked() bool {
	return l.ItemID != nil && *l.ItemID != uuid.Nil
}

// ShipmentLineInput requests a quantity of an order line
type ShipmentLineInput struct {
	SalesOrderItemID uuid.UUID
	Quantity         decimal.Decimal
}

// Shipment is a physical dispatch against a sales order, from the order's
// location. Only confirming it moves stock.
type Shipment struct {
	shared.BaseAggregateRoot
	ShipmentNumber string
	SalesOrderID   uuid.UUID
	LocationID     uuid.UUID
	Status         ShipmentStatus
	Lines          []ShipmentLine
	Carrier        string
	TrackingNumber string
	Notes          string
	ReadyAt        *time.Time
	ShippedAt      *time.Time
	ShippedBy      *uuid.UUID
	DeliveredAt    *time.Time
	CancelledAt    *time.Time
	CancelReason   string
}

// NewShipment plans a shipment for an order in PROCESSING or SHIPPED.
// pending holds, per order line, quantities already planned on other
// unconfirmed shipments; each requested quantity must fit in what remains.
func NewShipment(number string, o *SalesOrder, lines []ShipmentLineInput, pending map[uuid.UUID]decimal.Decimal, actor uuid.UUID) (*Shipment, error) {
	if number == "" {
		return nil, shared.NewValidationError("shipment_number", "shipment number cannot be empty")
	}
	if !o.CanShip() {
		return nil, shared.NewInvalidTransitionError(AggregateTypeSalesOrder, string(o.Status), "SHIPMENT_CREATED")
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("lines", "a shipment needs at least one line")
	}

	s := &Shipment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(actor),
		ShipmentNumber:    number,
		SalesOrderID:      o.ID,
		LocationID:        o.LocationID,
		Status:            ShipmentStatusPreparing,
		Lines:             make([]ShipmentLine, 0, len(lines)),
	}
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, in := range lines {
		item := o.GetItem(in.SalesOrderItemID)
		if item == nil {
			return nil, shared.NewNotFoundError("sales order line", in.SalesOrderItemID)
		}
		if seen[item.ID] {
			return nil, shared.NewValidationError("lines", "an order line can appear only once per shipment")
		}
		seen[item.ID] = true
		if !in.Quantity.IsPositive() {
			return nil, shared.NewValidationError("quantity", "shipment quantity must be positive")
		}
		remaining := item.RemainingToShip().Sub(pending[item.ID])
		if in.Quantity.GreaterThan(remaining) {
			return nil, shared.NewOverShipmentError(item.ID, in.Quantity, remaining)
		}
		s.Lines = append(s.Lines, ShipmentLine{
			ID:               uuid.New(),
			SalesOrderItemID: item.ID,
			ItemID:           item.ItemID,
			Description:      item.Description,
			Quantity:         in.Quantity,
		})
	}
	s.AddDomainEvent(s.event(EventTypeShipmentCreated, "", actor))
	return s, nil
}

// MarkReady moves the shipment from PREPARING to READY
func (s *Shipment) MarkReady(actor uuid.UUID, now time.Time) error {
	if err := shipmentTransitions.check(AggregateTypeShipment, s.Status, ShipmentStatusReady); err != nil {
		return err
	}
	s.ReadyAt = &now
	s.moveTo(ShipmentStatusReady, EventTypeShipmentReady, actor, "")
	return nil
}

// Confirm moves the shipment to SHIPPED. The order's current shipped
// quantities are re-checked because other shipments may have been confirmed
// since this one was planned.
func (s *Shipment) Confirm(o *SalesOrder, carrier, trackingNumber string, actor uuid.UUID, now time.Time) error {
	if err := shipmentTransitions.check(AggregateTypeShipment, s.Status, ShipmentStatusShipped); err != nil {
		return err
	}
	if o.ID != s.SalesOrderID {
		return shared.NewValidationError("sales_order_id", "shipment belongs to a different order")
	}
	if !o.CanShip() {
		return shared.NewInvalidTransitionError(AggregateTypeSalesOrder, string(o.Status), string(OrderStatusShipped))
	}
	for _, line := range s.Lines {
		item := o.GetItem(line.SalesOrderItemID)
		if item == nil {
			return shared.NewNotFoundError("sales order line", line.SalesOrderItemID)
		}
		if remaining := item.RemainingToShip(); line.Quantity.GreaterThan(remaining) {
			return shared.NewOverShipmentError(item.ID, line.Quantity, remaining)
		}
	}
	if carrier != "" {
		s.Carrier = carrier
	}
	if trackingNumber != "" {
		s.TrackingNumber = trackingNumber
	}
	s.ShippedAt = &now
	s.ShippedBy = &actor
	s.moveTo(ShipmentStatusShipped, EventTypeShipmentShipped, actor, "")
	return nil
}

// MarkDelivered moves the shipment from SHIPPED to DELIVERED
func (s *Shipment) MarkDelivered(actor uuid.UUID, now time.Time) error {
	if err := shipmentTransitions.check(AggregateTypeShipment, s.Status, ShipmentStatusDelivered); err != nil {
		return err
	}
	s.DeliveredAt = &now
	s.moveTo(ShipmentStatusDelivered, EventTypeShipmentDelivered, actor, "")
	return nil
}

// Cancel cancels a shipment that has not left the warehouse
func (s *Shipment) Cancel(reason string, actor uuid.UUID, now time.Time) error {
	if err := shipmentTransitions.check(AggregateTypeShipment, s.Status, ShipmentStatusCancelled); err != nil {
		return err
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("reason", "cancel reason is required")
	}
	s.CancelledAt = &now
	s.CancelReason = reason
	s.moveTo(ShipmentStatusCancelled, EventTypeShipmentCancelled, actor, reason)
	return nil
}

// TotalQuantity returns the sum of all line quantities
func (s *Shipment) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.Quantity)
	}
	return total
}

func (s *Shipment) moveTo(to ShipmentStatus, eventType string, actor uuid.UUID, reason string) {
	from := s.Status
	s.Status = to
	s.Touch()
	s.AddDomainEvent(s.event(eventType, string(from), actor).withReason(reason))
}

func (s *Shipment) event(eventType, from string, actor uuid.UUID) *DocumentEvent {
	return newDocumentEvent(eventType, AggregateTypeShipment, s.ID, s.ShipmentNumber, from, string(s.Status), actor).
		withAmount(s.TotalQuantity(), "")
}
