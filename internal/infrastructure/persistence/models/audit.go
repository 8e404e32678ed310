package models

import (
	"time"

	"github.com/erp/ordertocash/internal/domain/audit"
	"github.com/google/uuid"
)

// AuditLogModel is one row of the audit trail.
type AuditLogModel struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key"`
	EventID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	EntityType string         `gorm:"type:varchar(50);not null;index:idx_audit_entity,priority:1"`
	EntityID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_audit_entity,priority:2"`
	Action     string         `gorm:"type:varchar(50);not null"`
	Before     string         `gorm:"column:before_state;type:varchar(50)"`
	After      string         `gorm:"column:after_state;type:varchar(50)"`
	ActorID    uuid.UUID      `gorm:"type:uuid;index"`
	Payload    map[string]any `gorm:"serializer:json;type:text"`
	OccurredAt time.Time      `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToDomain converts the persistence model to an audit entry.
func (m *AuditLogModel) ToDomain() audit.Entry {
	return audit.Entry{
		ID:         m.ID,
		EventID:    m.EventID,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Action:     m.Action,
		Before:     m.Before,
		After:      m.After,
		ActorID:    m.ActorID,
		Payload:    m.Payload,
		OccurredAt: m.OccurredAt,
	}
}

// AuditLogModelFromDomain creates a persistence model from an audit entry.
func AuditLogModelFromDomain(e audit.Entry) *AuditLogModel {
	return &AuditLogModel{
		ID:         e.ID,
		EventID:    e.EventID,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     e.Action,
		Before:     e.Before,
		After:      e.After,
		ActorID:    e.ActorID,
		Payload:    e.Payload,
		OccurredAt: e.OccurredAt,
	}
}
