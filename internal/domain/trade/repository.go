package trade

import (
	"context"
	"time"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
)

// Save on every repository inserts a new aggregate or updates an existing
// one under an optimistic version check; a lost race returns
// CONCURRENCY_CONFLICT and must roll back the surrounding transaction.

// QuotationRepository defines persistence for quotations
type QuotationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Quotation, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Quotation, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// FindExpirable returns SENT quotations whose validity ended before asOf
	FindExpirable(ctx context.Context, asOf time.Time, limit int) ([]Quotation, error)
	Save(ctx context.Context, q *Quotation) error
}

// SalesOrderRepository defines persistence for sales orders
type SalesOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SalesOrder, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]SalesOrder, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// FindByQuotation returns the order converted from a quotation, or NOT_FOUND
	FindByQuotation(ctx context.Context, quotationID uuid.UUID) (*SalesOrder, error)
	Save(ctx context.Context, o *SalesOrder) error
}

// InvoiceRepository defines persistence for invoices
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Invoice, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	FindBySalesOrder(ctx context.Context, orderID uuid.UUID) ([]Invoice, error)
	Save(ctx context.Context, inv *Invoice) error
}

// ShipmentRepository defines persistence for shipments
type ShipmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Shipment, error)
	FindBySalesOrder(ctx context.Context, orderID uuid.UUID) ([]Shipment, error)
	Save(ctx context.Context, s *Shipment) error
}

// PaymentRepository defines persistence for payments
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]Payment, error)
	Save(ctx context.Context, p *Payment) error
}

// ConversionRecordRepository stores idempotency records for conversions
type ConversionRecordRepository interface {
	// Find returns the record for (kind, key, source), or NOT_FOUND
	Find(ctx context.Context, kind ConversionKind, key string, sourceID uuid.UUID) (*ConversionRecord, error)
	// Create inserts a record; a duplicate (kind, key, source) returns ALREADY_EXISTS
	Create(ctx context.Context, rec *ConversionRecord) error
}
