// Package audit records every committed domain event in the audit trail.
package audit

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/erp/ordertocash/internal/domain/audit"
	"github.com/erp/ordertocash/internal/domain/inventory"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditHandler writes one audit entry per event to every configured sink.
// It runs after commit, so a failing sink is logged and never undoes the
// business operation.
type AuditHandler struct {
	sinks  []audit.Sink
	logger *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(logger *zap.Logger, sinks ...audit.Sink) *AuditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditHandler{sinks: sinks, logger: logger}
}

// EventTypes returns nil: the audit trail receives every event
func (h *AuditHandler) EventTypes() []string {
	return nil
}

// Handle converts the event to an audit entry and writes it
func (h *AuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	entry := ToEntry(event)

	var errs []error
	for _, sink := range h.sinks {
		if err := sink.Write(ctx, entry); err != nil {
			h.logger.Warn("Failed to write audit entry",
				zap.String("event_id", entry.EventID.String()),
				zap.String("entity_type", entry.EntityType),
				zap.String("action", entry.Action),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ToEntry maps a domain event to an audit entry
func ToEntry(event shared.DomainEvent) audit.Entry {
	entry := audit.Entry{
		ID:         uuid.New(),
		EventID:    event.EventID(),
		EntityType: event.AggregateType(),
		EntityID:   event.AggregateID(),
		Action:     event.EventType(),
		OccurredAt: event.OccurredAt(),
		Payload:    payload(event),
	}
	switch e := event.(type) {
	case *trade.DocumentEvent:
		entry.Before = e.FromStatus
		entry.After = e.ToStatus
		entry.ActorID = e.ActorID
	case *inventory.StockEvent:
		entry.Before = e.Total.Sub(e.Quantity).String()
		entry.After = e.Total.String()
		entry.ActorID = e.ActorID
	}
	return entry
}

func payload(event shared.DomainEvent) map[string]any {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
