package models

import (
	"time"

	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Quotation ====================

// QuotationModel is the persistence model for the Quotation aggregate root.
type QuotationModel struct {
	AggregateModel
	QuotationNumber string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	CustomerName    string               `gorm:"type:varchar(200);not null"`
	Currency        string               `gorm:"type:varchar(3);not null"`
	ValidUntil      time.Time            `gorm:"not null;index"`
	DiscountPct     decimal.Decimal      `gorm:"type:decimal(7,4);not null;default:0"`
	Items           []QuotationItemModel `gorm:"foreignKey:QuotationID;references:ID"`
	AmountsModel
	Status       trade.QuotationStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Notes        string                `gorm:"type:text"`
	SentAt       *time.Time
	AcceptedAt   *time.Time
	RejectedAt   *time.Time
	ExpiredAt    *time.Time
	RejectReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (QuotationModel) TableName() string {
	return "quotations"
}

// QuotationItemModel is a quotation line
type QuotationItemModel struct {
	LineModel
	QuotationID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (QuotationItemModel) TableName() string {
	return "quotation_items"
}

// ToDomain converts the persistence model to a domain Quotation.
func (m *QuotationModel) ToDomain() *trade.Quotation {
	q := &trade.Quotation{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		QuotationNumber:   m.QuotationNumber,
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		Currency:          m.Currency,
		ValidUntil:        m.ValidUntil,
		DiscountPct:       m.DiscountPct,
		Items:             make([]trade.LineItem, len(m.Items)),
		DocumentAmounts:   m.AmountsModel.toDomain(),
		Status:            m.Status,
		Notes:             m.Notes,
		SentAt:            m.SentAt,
		AcceptedAt:        m.AcceptedAt,
		RejectedAt:        m.RejectedAt,
		ExpiredAt:         m.ExpiredAt,
		RejectReason:      m.RejectReason,
	}
	for i, item := range m.Items {
		q.Items[i] = item.toDomain()
	}
	return q
}

// QuotationModelFromDomain creates a persistence model from a domain Quotation.
func QuotationModelFromDomain(q *trade.Quotation) *QuotationModel {
	m := &QuotationModel{
		QuotationNumber: q.QuotationNumber,
		CustomerID:      q.CustomerID,
		CustomerName:    q.CustomerName,
		Currency:        q.Currency,
		ValidUntil:      q.ValidUntil,
		DiscountPct:     q.DiscountPct,
		AmountsModel:    amountsFromDomain(q.DocumentAmounts),
		Status:          q.Status,
		Notes:           q.Notes,
		SentAt:          q.SentAt,
		AcceptedAt:      q.AcceptedAt,
		RejectedAt:      q.RejectedAt,
		ExpiredAt:       q.ExpiredAt,
		RejectReason:    q.RejectReason,
		Items:           make([]QuotationItemModel, len(q.Items)),
	}
	m.FromDomainAggregateRoot(q.BaseAggregateRoot)
	for i, item := range q.Items {
		m.Items[i] = QuotationItemModel{LineModel: lineFromDomain(item), QuotationID: q.ID}
	}
	return m
}

// ==================== Sales order ====================

// SalesOrderModel is the persistence model for the SalesOrder aggregate root.
type SalesOrderModel struct {
	AggregateModel
	OrderNumber   string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	QuotationID   *uuid.UUID            `gorm:"type:uuid;index"`
	CustomerID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	CustomerName  string                `gorm:"type:varchar(200);not null"`
	CustomerPORef string                `gorm:"column:customer_po_ref;type:varchar(100)"`
	Currency      string                `gorm:"type:varchar(3);not null"`
	LocationID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	DiscountPct   decimal.Decimal       `gorm:"type:decimal(7,4);not null;default:0"`
	Items         []SalesOrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
	AmountsModel
	Status       trade.OrderStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Notes        string            `gorm:"type:text"`
	ConfirmedAt  *time.Time        `gorm:"index"`
	ProcessingAt *time.Time
	ShippedAt    *time.Time `gorm:"index"`
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// SalesOrderItemModel is a sales order line with its derived fulfillment
type SalesOrderItemModel struct {
	LineModel
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	QuantityShipped  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QuantityInvoiced decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (SalesOrderItemModel) TableName() string {
	return "sales_order_items"
}

// ToDomain converts the persistence model to a domain SalesOrder.
func (m *SalesOrderModel) ToDomain() *trade.SalesOrder {
	o := &trade.SalesOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		QuotationID:       m.QuotationID,
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		CustomerPORef:     m.CustomerPORef,
		Currency:          m.Currency,
		LocationID:        m.LocationID,
		DiscountPct:       m.DiscountPct,
		Items:             make([]trade.SalesOrderItem, len(m.Items)),
		DocumentAmounts:   m.AmountsModel.toDomain(),
		Status:            m.Status,
		Notes:             m.Notes,
		ConfirmedAt:       m.ConfirmedAt,
		ProcessingAt:      m.ProcessingAt,
		ShippedAt:         m.ShippedAt,
		DeliveredAt:       m.DeliveredAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
	}
	for i, item := range m.Items {
		o.Items[i] = trade.SalesOrderItem{
			LineItem:         item.toDomain(),
			QuantityShipped:  item.QuantityShipped,
			QuantityInvoiced: item.QuantityInvoiced,
		}
	}
	return o
}

// SalesOrderModelFromDomain creates a persistence model from a domain SalesOrder.
func SalesOrderModelFromDomain(o *trade.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{
		OrderNumber:   o.OrderNumber,
		QuotationID:   o.QuotationID,
		CustomerID:    o.CustomerID,
		CustomerName:  o.CustomerName,
		CustomerPORef: o.CustomerPORef,
		Currency:      o.Currency,
		LocationID:    o.LocationID,
		DiscountPct:   o.DiscountPct,
		AmountsModel:  amountsFromDomain(o.DocumentAmounts),
		Status:        o.Status,
		Notes:         o.Notes,
		ConfirmedAt:   o.ConfirmedAt,
		ProcessingAt:  o.ProcessingAt,
		ShippedAt:     o.ShippedAt,
		DeliveredAt:   o.DeliveredAt,
		CancelledAt:   o.CancelledAt,
		CancelReason:  o.CancelReason,
		Items:         make([]SalesOrderItemModel, len(o.Items)),
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	for i, item := range o.Items {
		m.Items[i] = SalesOrderItemModel{
			LineModel:        lineFromDomain(item.LineItem),
			OrderID:          o.ID,
			QuantityShipped:  item.QuantityShipped,
			QuantityInvoiced: item.QuantityInvoiced,
		}
	}
	return m
}

// ==================== Invoice ====================

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber string             `gorm:"type:varchar(50);not null;uniqueIndex"`
	SalesOrderID  *uuid.UUID         `gorm:"type:uuid;index"`
	CustomerID    uuid.UUID          `gorm:"type:uuid;not null;index"`
	CustomerName  string             `gorm:"type:varchar(200);not null"`
	Currency      string             `gorm:"type:varchar(3);not null"`
	IssueDate     time.Time          `gorm:"not null"`
	DueDate       time.Time          `gorm:"not null;index"`
	DiscountPct   decimal.Decimal    `gorm:"type:decimal(7,4);not null;default:0"`
	Items         []InvoiceItemModel `gorm:"foreignKey:InvoiceID;references:ID"`
	AmountsModel
	PaidAmount    decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	BalanceAmount decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	Status        trade.InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Notes         string              `gorm:"type:text"`
	PostedAt      *time.Time
	PostedBy      *uuid.UUID `gorm:"type:uuid"`
	SentAt        *time.Time
	PaidAt        *time.Time
	CancelledAt   *time.Time
	CancelReason  string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceItemModel is an invoice line
type InvoiceItemModel struct {
	LineModel
	InvoiceID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	SalesOrderItemID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *trade.Invoice {
	inv := &trade.Invoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceNumber:     m.InvoiceNumber,
		SalesOrderID:      m.SalesOrderID,
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		Currency:          m.Currency,
		IssueDate:         m.IssueDate,
		DueDate:           m.DueDate,
		DiscountPct:       m.DiscountPct,
		Items:             make([]trade.InvoiceItem, len(m.Items)),
		DocumentAmounts:   m.AmountsModel.toDomain(),
		PaidAmount:        m.PaidAmount,
		BalanceAmount:     m.BalanceAmount,
		Status:            m.Status,
		Notes:             m.Notes,
		PostedAt:          m.PostedAt,
		PostedBy:          m.PostedBy,
		SentAt:            m.SentAt,
		PaidAt:            m.PaidAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
	}
	for i, item := range m.Items {
		inv.Items[i] = trade.InvoiceItem{LineItem: item.toDomain(), SalesOrderItemID: item.SalesOrderItemID}
	}
	return inv
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *trade.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		InvoiceNumber: inv.InvoiceNumber,
		SalesOrderID:  inv.SalesOrderID,
		CustomerID:    inv.CustomerID,
		CustomerName:  inv.CustomerName,
		Currency:      inv.Currency,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		DiscountPct:   inv.DiscountPct,
		AmountsModel:  amountsFromDomain(inv.DocumentAmounts),
		PaidAmount:    inv.PaidAmount,
		BalanceAmount: inv.BalanceAmount,
		Status:        inv.Status,
		Notes:         inv.Notes,
		PostedAt:      inv.PostedAt,
		PostedBy:      inv.PostedBy,
		SentAt:        inv.SentAt,
		PaidAt:        inv.PaidAt,
		CancelledAt:   inv.CancelledAt,
		CancelReason:  inv.CancelReason,
		Items:         make([]InvoiceItemModel, len(inv.Items)),
	}
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	for i, item := range inv.Items {
		m.Items[i] = InvoiceItemModel{
			LineModel:        lineFromDomain(item.LineItem),
			InvoiceID:        inv.ID,
			SalesOrderItemID: item.SalesOrderItemID,
		}
	}
	return m
}

// ==================== Shipment ====================

// ShipmentModel is the persistence model for the Shipment aggregate root.
type ShipmentModel struct {
	AggregateModel
	ShipmentNumber string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	SalesOrderID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	LocationID     uuid.UUID            `gorm:"type:uuid;not null"`
	Status         trade.ShipmentStatus `gorm:"type:varchar(20);not null;default:'PREPARING';index"`
	Lines          []ShipmentLineModel  `gorm:"foreignKey:ShipmentID;references:ID"`
	Carrier        string               `gorm:"type:varchar(100)"`
	TrackingNumber string               `gorm:"type:varchar(100)"`
	Notes          string               `gorm:"type:text"`
	ReadyAt        *time.Time
	ShippedAt      *time.Time
	ShippedBy      *uuid.UUID `gorm:"type:uuid"`
	DeliveredAt    *time.Time
	CancelledAt    *time.Time
	CancelReason   string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "shipments"
}

// ShipmentLineModel is a shipment line
type ShipmentLineModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	ShipmentID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	SalesOrderItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID           *uuid.UUID      `gorm:"type:uuid"`
	Description      string          `gorm:"type:varchar(500)"`
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (ShipmentLineModel) TableName() string {
	return "shipment_lines"
}

// ToDomain converts the persistence model to a domain Shipment.
func (m *ShipmentModel) ToDomain() *trade.Shipment {
	s := &trade.Shipment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ShipmentNumber:    m.ShipmentNumber,
		SalesOrderID:      m.SalesOrderID,
		LocationID:        m.LocationID,
		Status:            m.Status,
		Lines:             make([]trade.ShipmentLine, len(m.Lines)),
		Carrier:           m.Carrier,
		TrackingNumber:    m.TrackingNumber,
		Notes:             m.Notes,
		ReadyAt:           m.ReadyAt,
		ShippedAt:         m.ShippedAt,
		ShippedBy:         m.ShippedBy,
		DeliveredAt:       m.DeliveredAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
	}
	for i, l := range m.Lines {
		s.Lines[i] = trade.ShipmentLine{
			ID:               l.ID,
			SalesOrderItemID: l.SalesOrderItemID,
			ItemID:           l.ItemID,
			Description:      l.Description,
			Quantity:         l.Quantity,
		}
	}
	return s
}

// ShipmentModelFromDomain creates a persistence model from a domain Shipment.
func ShipmentModelFromDomain(s *trade.Shipment) *ShipmentModel {
	m := &ShipmentModel{
		ShipmentNumber: s.ShipmentNumber,
		SalesOrderID:   s.SalesOrderID,
		LocationID:     s.LocationID,
		Status:         s.Status,
		Carrier:        s.Carrier,
		TrackingNumber: s.TrackingNumber,
		Notes:          s.Notes,
		ReadyAt:        s.ReadyAt,
		ShippedAt:      s.ShippedAt,
		ShippedBy:      s.ShippedBy,
		DeliveredAt:    s.DeliveredAt,
		CancelledAt:    s.CancelledAt,
		CancelReason:   s.CancelReason,
		Lines:          make([]ShipmentLineModel, len(s.Lines)),
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	for i, l := range s.Lines {
		m.Lines[i] = ShipmentLineModel{
			ID:               l.ID,
			ShipmentID:       s.ID,
			SalesOrderItemID: l.SalesOrderItemID,
			ItemID:           l.ItemID,
			Description:      l.Description,
			Quantity:         l.Quantity,
		}
	}
	return m
}

// ==================== Payment ====================

// PaymentModel is the persistence model for the Payment aggregate root.
type PaymentModel struct {
	AggregateModel
	PaymentNumber  string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	InvoiceID      *uuid.UUID          `gorm:"type:uuid;index"`
	Amount         decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	Currency       string              `gorm:"type:varchar(3);not null"`
	Method         trade.PaymentMethod `gorm:"type:varchar(20);not null"`
	Reference      string              `gorm:"type:varchar(100)"`
	ReceivedAt     time.Time           `gorm:"not null"`
	Status         trade.PaymentStatus `gorm:"type:varchar(20);not null;default:'COMPLETED';index"`
	ReversedAt     *time.Time
	ReversedBy     *uuid.UUID `gorm:"type:uuid"`
	ReversalReason string     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *trade.Payment {
	return &trade.Payment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		PaymentNumber:     m.PaymentNumber,
		CustomerID:        m.CustomerID,
		InvoiceID:         m.InvoiceID,
		Amount:            m.Amount,
		Currency:          m.Currency,
		Method:            m.Method,
		Reference:         m.Reference,
		ReceivedAt:        m.ReceivedAt,
		Status:            m.Status,
		ReversedAt:        m.ReversedAt,
		ReversedBy:        m.ReversedBy,
		ReversalReason:    m.ReversalReason,
	}
}

// PaymentModelFromDomain creates a persistence model from a domain Payment.
func PaymentModelFromDomain(p *trade.Payment) *PaymentModel {
	m := &PaymentModel{
		PaymentNumber:  p.PaymentNumber,
		CustomerID:     p.CustomerID,
		InvoiceID:      p.InvoiceID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Method:         p.Method,
		Reference:      p.Reference,
		ReceivedAt:     p.ReceivedAt,
		Status:         p.Status,
		ReversedAt:     p.ReversedAt,
		ReversedBy:     p.ReversedBy,
		ReversalReason: p.ReversalReason,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// ==================== Conversion record ====================

// ConversionRecordModel maps an idempotency key to the converted document
type ConversionRecordModel struct {
	ID             uuid.UUID            `gorm:"type:uuid;primary_key"`
	Kind           trade.ConversionKind `gorm:"type:varchar(40);not null;uniqueIndex:idx_conversion_key,priority:1"`
	IdempotencyKey string               `gorm:"type:varchar(200);not null;uniqueIndex:idx_conversion_key,priority:2"`
	SourceID       uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_conversion_key,priority:3"`
	TargetID       uuid.UUID            `gorm:"type:uuid;not null"`
	CreatedBy      uuid.UUID            `gorm:"type:uuid"`
	CreatedAt      time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ConversionRecordModel) TableName() string {
	return "conversion_records"
}

// ToDomain converts the persistence model to a domain ConversionRecord.
func (m *ConversionRecordModel) ToDomain() *trade.ConversionRecord {
	return &trade.ConversionRecord{
		ID:             m.ID,
		Kind:           m.Kind,
		IdempotencyKey: m.IdempotencyKey,
		SourceID:       m.SourceID,
		TargetID:       m.TargetID,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}

// ConversionRecordModelFromDomain creates a persistence model from a domain ConversionRecord.
func ConversionRecordModelFromDomain(r *trade.ConversionRecord) *ConversionRecordModel {
	return &ConversionRecordModel{
		ID:             r.ID,
		Kind:           r.Kind,
		IdempotencyKey: r.IdempotencyKey,
		SourceID:       r.SourceID,
		TargetID:       r.TargetID,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
	}
}
