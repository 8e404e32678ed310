package models

import (
	"time"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateModel provides common persistence fields for aggregate roots,
// with version for optimistic locking.
type AggregateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Version   int       `gorm:"not null;default:1"`
	CreatedBy uuid.UUID `gorm:"type:uuid"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.Version = a.Version
	m.CreatedBy = a.CreatedBy
}

// ToDomainAggregateRoot rebuilds the domain BaseAggregateRoot
func (m *AggregateModel) ToDomainAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Version:   m.Version,
		CreatedBy: m.CreatedBy,
	}
}

// SetVersion sets the version to be written
func (m *AggregateModel) SetVersion(v int) {
	m.Version = v
}

// AmountsModel holds the computed document aggregates
type AmountsModel struct {
	Subtotal       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	GrandTotal     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

func amountsFromDomain(a trade.DocumentAmounts) AmountsModel {
	return AmountsModel{
		Subtotal:       a.Subtotal,
		DiscountAmount: a.DiscountAmount,
		TaxAmount:      a.TaxAmount,
		GrandTotal:     a.GrandTotal,
	}
}

func (m AmountsModel) toDomain() trade.DocumentAmounts {
	return trade.DocumentAmounts{
		Subtotal:       m.Subtotal,
		DiscountAmount: m.DiscountAmount,
		TaxAmount:      m.TaxAmount,
		GrandTotal:     m.GrandTotal,
	}
}

// LineModel holds the priced line columns shared by quotation, order and
// invoice lines
type LineModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	LineNo         int             `gorm:"not null"`
	ItemID         *uuid.UUID      `gorm:"type:uuid;index"`
	ItemCode       string          `gorm:"type:varchar(50)"`
	Description    string          `gorm:"type:varchar(500);not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountPct    decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	TaxRatePct     decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Total          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

func lineFromDomain(l trade.LineItem) LineModel {
	return LineModel{
		ID:             l.ID,
		LineNo:         l.LineNo,
		ItemID:         l.ItemID,
		ItemCode:       l.ItemCode,
		Description:    l.Description,
		Quantity:       l.Quantity,
		UnitPrice:      l.UnitPrice,
		DiscountPct:    l.DiscountPct,
		TaxRatePct:     l.TaxRatePct,
		Subtotal:       l.Subtotal,
		DiscountAmount: l.DiscountAmount,
		TaxAmount:      l.TaxAmount,
		Total:          l.Total,
	}
}

func (m LineModel) toDomain() trade.LineItem {
	return trade.LineItem{
		ID:             m.ID,
		LineNo:         m.LineNo,
		ItemID:         m.ItemID,
		ItemCode:       m.ItemCode,
		Description:    m.Description,
		Quantity:       m.Quantity,
		UnitPrice:      m.UnitPrice,
		DiscountPct:    m.DiscountPct,
		TaxRatePct:     m.TaxRatePct,
		Subtotal:       m.Subtotal,
		DiscountAmount: m.DiscountAmount,
		TaxAmount:      m.TaxAmount,
		Total:          m.Total,
	}
}
