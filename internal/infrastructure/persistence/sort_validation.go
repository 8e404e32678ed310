package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// DocumentSortFields contains sort fields shared by all trade documents
var DocumentSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"status":        true,
	"customer_name": true,
	"grand_total":   true,
}

// QuotationSortFields contains allowed sort fields for quotations
var QuotationSortFields = withFields(DocumentSortFields, "quotation_number", "valid_until")

// SalesOrderSortFields contains allowed sort fields for sales orders
var SalesOrderSortFields = withFields(DocumentSortFields, "order_number", "confirmed_at")

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = withFields(DocumentSortFields, "invoice_number", "issue_date", "due_date", "balance_amount")

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"payment_number": true,
	"received_at":    true,
	"amount":         true,
}

// MovementSortFields contains allowed sort fields for stock movements
var MovementSortFields = map[string]bool{
	"created_at":    true,
	"quantity":      true,
	"movement_type": true,
}

func withFields(base map[string]bool, fields ...string) map[string]bool {
	out := make(map[string]bool, len(base)+len(fields))
	for k, v := range base {
		out[k] = v
	}
	for _, f := range fields {
		out[f] = true
	}
	return out
}
