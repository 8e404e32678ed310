package trade

import (
	"time"

	"github.com/erp/ordertocash/internal/domain/pricing"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Line items ====================

// LineItemInput represents one priced line in a create or update request
type LineItemInput struct {
	ItemID      *uuid.UUID      `json:"item_id"`
	ItemCode    string          `json:"item_code" binding:"max=64"`
	Description string          `json:"description" binding:"required,min=1,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	TaxRatePct  decimal.Decimal `json:"tax_rate_pct"`
}

func (in LineItemInput) toDomain() trade.LineItemInput {
	return trade.LineItemInput{
		ItemID:      in.ItemID,
		ItemCode:    in.ItemCode,
		Description: in.Description,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		DiscountPct: in.DiscountPct,
		TaxRatePct:  in.TaxRatePct,
	}
}

// LineItemResponse represents a priced line in API responses
type LineItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	LineNo         int             `json:"line_no"`
	ItemID         *uuid.UUID      `json:"item_id,omitempty"`
	ItemCode       string          `json:"item_code,omitempty"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountPct    decimal.Decimal `json:"discount_pct"`
	TaxRatePct     decimal.Decimal `json:"tax_rate_pct"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

func toLineItemResponse(l *trade.LineItem) LineItemResponse {
	return LineItemResponse{
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

// AmountsResponse carries the aggregate totals of a document
type AmountsResponse struct {
	DiscountPct    decimal.Decimal `json:"discount_pct"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
}

func toAmountsResponse(pct decimal.Decimal, a trade.DocumentAmounts) AmountsResponse {
	return AmountsResponse{
		DiscountPct:    pct,
		Subtotal:       a.Subtotal,
		DiscountAmount: a.DiscountAmount,
		TaxAmount:      a.TaxAmount,
		GrandTotal:     a.GrandTotal,
	}
}

// SetDiscountRequest sets the document-level discount percent
type SetDiscountRequest struct {
	DiscountPct decimal.Decimal `json:"discount_pct"`
}

// ReasonRequest carries the reason of a reject, cancel or reversal
type ReasonRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// ListFilter represents paging and status filters for document lists
type ListFilter struct {
	Status     string     `form:"status"`
	CustomerID *uuid.UUID `form:"-"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by" binding:"omitempty,oneof=created_at updated_at grand_total"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ==================== Pricing preview ====================

// PricingPreviewRequest asks for the totals of unsaved lines
type PricingPreviewRequest struct {
	Lines       []LineItemInput `json:"lines" binding:"required,min=1,dive"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
}

// PricingPreviewResponse is the calculator output for a preview
type PricingPreviewResponse struct {
	Lines  []pricing.LineTotals   `json:"lines"`
	Totals pricing.DocumentTotals `json:"totals"`
}

// ==================== Quotations ====================

// CreateQuotationRequest represents a request to create a quotation
type CreateQuotationRequest struct {
	CustomerID   uuid.UUID       `json:"customer_id" binding:"required"`
	CustomerName string          `json:"customer_name" binding:"required,min=1,max=200"`
	Currency     string          `json:"currency" binding:"required,len=3"`
	ValidUntil   time.Time       `json:"valid_until" binding:"required"`
	DiscountPct  decimal.Decimal `json:"discount_pct"`
	Notes        string          `json:"notes" binding:"max=2000"`
	Items        []LineItemInput `json:"items" binding:"dive"`
}

// QuotationResponse represents a quotation in API responses
type QuotationResponse struct {
	ID              uuid.UUID          `json:"id"`
	QuotationNumber string             `json:"quotation_number"`
	CustomerID      uuid.UUID          `json:"customer_id"`
	CustomerName    string             `json:"customer_name"`
	Currency        string             `json:"currency"`
	ValidUntil      time.Time          `json:"valid_until"`
	Status          string             `json:"status"`
	Items           []LineItemResponse `json:"items"`
	AmountsResponse
	Notes        string     `json:"notes,omitempty"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	RejectedAt   *time.Time `json:"rejected_at,omitempty"`
	ExpiredAt    *time.Time `json:"expired_at,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty"`
	CreatedBy    uuid.UUID  `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Version      int        `json:"version"`
}

// ToQuotationResponse converts a domain Quotation to QuotationResponse
func ToQuotationResponse(q *trade.Quotation) QuotationResponse {
	items := make([]LineItemResponse, len(q.Items))
	for i := range q.Items {
		items[i] = toLineItemResponse(&q.Items[i])
	}
	return QuotationResponse{
		ID:              q.ID,
		QuotationNumber: q.QuotationNumber,
		CustomerID:      q.CustomerID,
		CustomerName:    q.CustomerName,
		Currency:        q.Currency,
		ValidUntil:      q.ValidUntil,
		Status:          string(q.Status),
		Items:           items,
		AmountsResponse: toAmountsResponse(q.DiscountPct, q.DocumentAmounts),
		Notes:           q.Notes,
		SentAt:          q.SentAt,
		AcceptedAt:      q.AcceptedAt,
		RejectedAt:      q.RejectedAt,
		ExpiredAt:       q.ExpiredAt,
		RejectReason:    q.RejectReason,
		CreatedBy:       q.CreatedBy,
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
		Version:         q.Version,
	}
}

// ConvertQuotationRequest converts an accepted quotation into a sales order
type ConvertQuotationRequest struct {
	LocationID     uuid.UUID `json:"location_id" binding:"required"`
	IdempotencyKey string    `json:"-"`
}

// ==================== Sales orders ====================

// CreateSalesOrderRequest represents a request to create a sales order
type CreateSalesOrderRequest struct {
	CustomerID    uuid.UUID       `json:"customer_id" binding:"required"`
	CustomerName  string          `json:"customer_name" binding:"required,min=1,max=200"`
	CustomerPORef string          `json:"customer_po_ref" binding:"max=100"`
	Currency      string          `json:"currency" binding:"required,len=3"`
	LocationID    uuid.UUID       `json:"location_id" binding:"required"`
	DiscountPct   decimal.Decimal `json:"discount_pct"`
	Notes         string          `json:"notes" binding:"max=2000"`
	Items         []LineItemInput `json:"items" binding:"dive"`
}

// ConfirmOrderRequest confirms a draft sales order
type ConfirmOrderRequest struct {
	CustomerPORef string `json:"customer_po_ref" binding:"max=100"`
}

// SalesOrderItemResponse represents an order line with its fulfillment
type SalesOrderItemResponse struct {
	LineItemResponse
	QuantityShipped    decimal.Decimal `json:"quantity_shipped"`
	QuantityInvoiced   decimal.Decimal `json:"quantity_invoiced"`
	RemainingToShip    decimal.Decimal `json:"remaining_to_ship"`
	RemainingToInvoice decimal.Decimal `json:"remaining_to_invoice"`
}

// SalesOrderResponse represents a sales order in API responses
type SalesOrderResponse struct {
	ID            uuid.UUID                `json:"id"`
	OrderNumber   string                   `json:"order_number"`
	QuotationID   *uuid.UUID               `json:"quotation_id,omitempty"`
	CustomerID    uuid.UUID                `json:"customer_id"`
	CustomerName  string                   `json:"customer_name"`
	CustomerPORef string                   `json:"customer_po_ref,omitempty"`
	Currency      string                   `json:"currency"`
	LocationID    uuid.UUID                `json:"location_id"`
	Status        string                   `json:"status"`
	Items         []SalesOrderItemResponse `json:"items"`
	AmountsResponse
	Notes        string     `json:"notes,omitempty"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	ProcessingAt *time.Time `json:"processing_at,omitempty"`
	ShippedAt    *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	CreatedBy    uuid.UUID  `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Version      int        `json:"version"`
}

// ToSalesOrderResponse converts a domain SalesOrder to SalesOrderResponse
func ToSalesOrderResponse(o *trade.SalesOrder) SalesOrderResponse {
	items := make([]SalesOrderItemResponse, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items[i] = SalesOrderItemResponse{
			LineItemResponse:   toLineItemResponse(&item.LineItem),
			QuantityShipped:    item.QuantityShipped,
			QuantityInvoiced:   item.QuantityInvoiced,
			RemainingToShip:    item.RemainingToShip(),
			RemainingToInvoice: item.RemainingToInvoice(),
		}
	}
	return SalesOrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		QuotationID:     o.QuotationID,
		CustomerID:      o.CustomerID,
		CustomerName:    o.CustomerName,
		CustomerPORef:   o.CustomerPORef,
		Currency:        o.Currency,
		LocationID:      o.LocationID,
		Status:          string(o.Status),
		Items:           items,
		AmountsResponse: toAmountsResponse(o.DiscountPct, o.DocumentAmounts),
		Notes:           o.Notes,
		ConfirmedAt:     o.ConfirmedAt,
		ProcessingAt:    o.ProcessingAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		CancelReason:    o.CancelReason,
		CreatedBy:       o.CreatedBy,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Version:         o.Version,
	}
}

// InvoiceLineInput selects a quantity of one order line to invoice
type InvoiceLineInput struct {
	SalesOrderItemID uuid.UUID       `json:"sales_order_item_id" binding:"required"`
	Quantity         decimal.Decimal `json:"quantity" binding:"required"`
}

// InvoiceOrderRequest converts (part of) a sales order into an invoice.
// Without lines every uninvoiced quantity is billed.
type InvoiceOrderRequest struct {
	Lines          []InvoiceLineInput `json:"lines" binding:"dive"`
	IssueDate      *time.Time         `json:"issue_date"`
	DueDate        *time.Time         `json:"due_date"`
	IdempotencyKey string             `json:"-"`
}

// FulfillmentResponse summarizes shipping, invoicing and payment of an order
type FulfillmentResponse struct {
	OrderID          uuid.UUID                `json:"order_id"`
	OrderNumber      string                   `json:"order_number"`
	Status           string                   `json:"status"`
	Lines            []SalesOrderItemResponse `json:"lines"`
	FullyShipped     bool                     `json:"fully_shipped"`
	InvoicedTotal    decimal.Decimal          `json:"invoiced_total"`
	PaidTotal        decimal.Decimal          `json:"paid_total"`
	OutstandingTotal decimal.Decimal          `json:"outstanding_total"`
}

// ==================== Shipments ====================

// ShipmentLineRequest requests a quantity of one order line
type ShipmentLineRequest struct {
	SalesOrderItemID uuid.UUID       `json:"sales_order_item_id" binding:"required"`
	Quantity         decimal.Decimal `json:"quantity" binding:"required"`
}

// CreateShipmentRequest plans a shipment for a sales order
type CreateShipmentRequest struct {
	Lines          []ShipmentLineRequest `json:"lines" binding:"required,min=1,dive"`
	Carrier        string                `json:"carrier" binding:"max=100"`
	TrackingNumber string                `json:"tracking_number" binding:"max=100"`
	Notes          string                `json:"notes" binding:"max=2000"`
}

// ConfirmShipmentRequest dispatches a shipment
type ConfirmShipmentRequest struct {
	Carrier        string `json:"carrier" binding:"max=100"`
	TrackingNumber string `json:"tracking_number" binding:"max=100"`
}

// ShipmentLineResponse represents a shipment line in API responses
type ShipmentLineResponse struct {
	ID               uuid.UUID       `json:"id"`
	SalesOrderItemID uuid.UUID       `json:"sales_order_item_id"`
	ItemID           *uuid.UUID      `json:"item_id,omitempty"`
	Description      string          `json:"description"`
	Quantity         decimal.Decimal `json:"quantity"`
}

// ShipmentResponse represents a shipment in API responses
type ShipmentResponse struct {
	ID             uuid.UUID              `json:"id"`
	ShipmentNumber string                 `json:"shipment_number"`
	SalesOrderID   uuid.UUID              `json:"sales_order_id"`
	LocationID     uuid.UUID              `json:"location_id"`
	Status         string                 `json:"status"`
	Lines          []ShipmentLineResponse `json:"lines"`
	TotalQuantity  decimal.Decimal        `json:"total_quantity"`
	Carrier        string                 `json:"carrier,omitempty"`
	TrackingNumber string                 `json:"tracking_number,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	ReadyAt        *time.Time             `json:"ready_at,omitempty"`
	ShippedAt      *time.Time             `json:"shipped_at,omitempty"`
	ShippedBy      *uuid.UUID             `json:"shipped_by,omitempty"`
	DeliveredAt    *time.Time             `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time             `json:"cancelled_at,omitempty"`
	CancelReason   string                 `json:"cancel_reason,omitempty"`
	CreatedBy      uuid.UUID              `json:"created_by"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	Version        int                    `json:"version"`
}

// ToShipmentResponse converts a domain Shipment to ShipmentResponse
func ToShipmentResponse(s *trade.Shipment) ShipmentResponse {
	lines := make([]ShipmentLineResponse, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = ShipmentLineResponse{
			ID:               l.ID,
			SalesOrderItemID: l.SalesOrderItemID,
			ItemID:           l.ItemID,
			Description:      l.Description,
			Quantity:         l.Quantity,
		}
	}
	return ShipmentResponse{
		ID:             s.ID,
		ShipmentNumber: s.ShipmentNumber,
		SalesOrderID:   s.SalesOrderID,
		LocationID:     s.LocationID,
		Status:         string(s.Status),
		Lines:          lines,
		TotalQuantity:  s.TotalQuantity(),
		Carrier:        s.Carrier,
		TrackingNumber: s.TrackingNumber,
		Notes:          s.Notes,
		ReadyAt:        s.ReadyAt,
		ShippedAt:      s.ShippedAt,
		ShippedBy:      s.ShippedBy,
		DeliveredAt:    s.DeliveredAt,
		CancelledAt:    s.CancelledAt,
		CancelReason:   s.CancelReason,
		CreatedBy:      s.CreatedBy,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
		Version:        s.Version,
	}
}

// ==================== Invoices ====================

// CreateInvoiceRequest creates a standalone invoice not tied to an order
type CreateInvoiceRequest struct {
	CustomerID   uuid.UUID       `json:"customer_id" binding:"required"`
	CustomerName string          `json:"customer_name" binding:"required,min=1,max=200"`
	Currency     string          `json:"currency" binding:"required,len=3"`
	IssueDate    *time.Time      `json:"issue_date"`
	DueDate      *time.Time      `json:"due_date"`
	DiscountPct  decimal.Decimal `json:"discount_pct"`
	Notes        string          `json:"notes" binding:"max=2000"`
	Items        []LineItemInput `json:"items" binding:"required,min=1,dive"`
}

// InvoiceItemResponse represents an invoice line in API responses
type InvoiceItemResponse struct {
	LineItemResponse
	SalesOrderItemID *uuid.UUID `json:"sales_order_item_id,omitempty"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID             `json:"id"`
	InvoiceNumber string                `json:"invoice_number"`
	SalesOrderID  *uuid.UUID            `json:"sales_order_id,omitempty"`
	CustomerID    uuid.UUID             `json:"customer_id"`
	CustomerName  string                `json:"customer_name"`
	Currency      string                `json:"currency"`
	IssueDate     time.Time             `json:"issue_date"`
	DueDate       time.Time             `json:"due_date"`
	Status        string                `json:"status"`
	Items         []InvoiceItemResponse `json:"items"`
	AmountsResponse
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
	IsOverdue     bool            `json:"is_overdue"`
	Notes         string          `json:"notes,omitempty"`
	PostedAt      *time.Time      `json:"posted_at,omitempty"`
	PostedBy      *uuid.UUID      `json:"posted_by,omitempty"`
	SentAt        *time.Time      `json:"sent_at,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason  string          `json:"cancel_reason,omitempty"`
	CreatedBy     uuid.UUID       `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// ToInvoiceResponse converts a domain Invoice to InvoiceResponse
func ToInvoiceResponse(inv *trade.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, len(inv.Items))
	for i := range inv.Items {
		items[i] = InvoiceItemResponse{
			LineItemResponse: toLineItemResponse(&inv.Items[i].LineItem),
			SalesOrderItemID: inv.Items[i].SalesOrderItemID,
		}
	}
	return InvoiceResponse{
		ID:              inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		SalesOrderID:    inv.SalesOrderID,
		CustomerID:      inv.CustomerID,
		CustomerName:    inv.CustomerName,
		Currency:        inv.Currency,
		IssueDate:       inv.IssueDate,
		DueDate:         inv.DueDate,
		Status:          string(inv.Status),
		Items:           items,
		AmountsResponse: toAmountsResponse(inv.DiscountPct, inv.DocumentAmounts),
		PaidAmount:      inv.PaidAmount,
		BalanceAmount:   inv.BalanceAmount,
		IsOverdue:       inv.IsOverdue(time.Now()),
		Notes:           inv.Notes,
		PostedAt:        inv.PostedAt,
		PostedBy:        inv.PostedBy,
		SentAt:          inv.SentAt,
		PaidAt:          inv.PaidAt,
		CancelledAt:     inv.CancelledAt,
		CancelReason:    inv.CancelReason,
		CreatedBy:       inv.CreatedBy,
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
		Version:         inv.Version,
	}
}

// ==================== Payments ====================

// RecordPaymentRequest records money received. InvoiceID is optional;
// without it the payment is held on account for the customer.
type RecordPaymentRequest struct {
	CustomerID uuid.UUID       `json:"customer_id"`
	InvoiceID  *uuid.UUID      `json:"invoice_id"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Currency   string          `json:"currency" binding:"omitempty,len=3"`
	Method     string          `json:"method" binding:"required,oneof=CASH BANK_TRANSFER CARD CHECK OTHER"`
	Reference  string          `json:"reference" binding:"max=100"`
	ReceivedAt *time.Time      `json:"received_at"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID             uuid.UUID       `json:"id"`
	PaymentNumber  string          `json:"payment_number"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	InvoiceID      *uuid.UUID      `json:"invoice_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Method         string          `json:"method"`
	Reference      string          `json:"reference,omitempty"`
	ReceivedAt     time.Time       `json:"received_at"`
	Status         string          `json:"status"`
	ReversedAt     *time.Time      `json:"reversed_at,omitempty"`
	ReversedBy     *uuid.UUID      `json:"reversed_by,omitempty"`
	ReversalReason string          `json:"reversal_reason,omitempty"`
	CreatedBy      uuid.UUID       `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	Version        int             `json:"version"`
}

// ToPaymentResponse converts a domain Payment to PaymentResponse
func ToPaymentResponse(p *trade.Payment) PaymentResponse {
	return PaymentResponse{
		ID:             p.ID,
		PaymentNumber:  p.PaymentNumber,
		CustomerID:     p.CustomerID,
		InvoiceID:      p.InvoiceID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Method:         string(p.Method),
		Reference:      p.Reference,
		ReceivedAt:     p.ReceivedAt,
		Status:         string(p.Status),
		ReversedAt:     p.ReversedAt,
		ReversedBy:     p.ReversedBy,
		ReversalReason: p.ReversalReason,
		CreatedBy:      p.CreatedBy,
		CreatedAt:      p.CreatedAt,
		Version:        p.Version,
	}
}

// PaymentResultResponse returns a payment with the invoice it changed
type PaymentResultResponse struct {
	Payment PaymentResponse  `json:"payment"`
	Invoice *InvoiceResponse `json:"invoice,omitempty"`
}
