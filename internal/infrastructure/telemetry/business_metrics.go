package telemetry

import (
	"context"
	"errors"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter is nil")

// BusinessMetrics records order-to-cash activity as OpenTelemetry metrics.
// It observes conversions and, as an event handler, every committed domain
// event.
type BusinessMetrics struct {
	conversions metric.Int64Counter
	events      metric.Int64Counter
	amounts     metric.Float64Histogram
}

// NewBusinessMetrics creates the instruments on meter
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	conversions, err := meter.Int64Counter("o2c.conversions",
		metric.WithDescription("Document conversions by kind and outcome"))
	if err != nil {
		return nil, err
	}
	events, err := meter.Int64Counter("o2c.domain_events",
		metric.WithDescription("Committed domain events by type"))
	if err != nil {
		return nil, err
	}
	amounts, err := meter.Float64Histogram("o2c.document.amount",
		metric.WithDescription("Monetary amount carried by document events"))
	if err != nil {
		return nil, err
	}
	return &BusinessMetrics{conversions: conversions, events: events, amounts: amounts}, nil
}

// ObserveConversion counts one conversion outcome
func (m *BusinessMetrics) ObserveConversion(kind, outcome string) {
	m.conversions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

// Handle counts the event and records the amount of document events
func (m *BusinessMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	attrs := metric.WithAttributes(
		attribute.String("event_type", event.EventType()),
		attribute.String("aggregate_type", event.AggregateType()),
	)
	m.events.Add(ctx, 1, attrs)

	if doc, ok := event.(*trade.DocumentEvent); ok && !doc.Amount.IsZero() {
		m.amounts.Record(ctx, doc.Amount.InexactFloat64(), metric.WithAttributes(
			attribute.String("event_type", event.EventType()),
			attribute.String("currency", doc.Currency),
		))
	}
	return nil
}

// EventTypes subscribes to every event
func (m *BusinessMetrics) EventTypes() []string {
	return nil
}
