package trade

import (
	"time"

	"github.com/google/uuid"
)

// ConversionKind identifies a document-to-document conversion
type ConversionKind string

const (
	ConversionQuotationToOrder ConversionKind = "QUOTATION_TO_SALES_ORDER"
	ConversionOrderToInvoice   ConversionKind = "SALES_ORDER_TO_INVOICE"
)

// ConversionRecord remembers the target created for an idempotency key so a
// retried conversion returns it instead of creating a duplicate
type ConversionRecord struct {
	ID             uuid.UUID
	Kind           ConversionKind
	IdempotencyKey string
	SourceID       uuid.UUID
	TargetID       uuid.UUID
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
}

// NewConversionRecord creates a record for a completed conversion
func NewConversionRecord(kind ConversionKind, key string, sourceID, targetID, actor uuid.UUID) *ConversionRecord {
	return &ConversionRecord{
		ID:             uuid.New(),
		Kind:           kind,
		IdempotencyKey: key,
		SourceID:       sourceID,
		TargetID:       targetID,
		CreatedBy:      actor,
		CreatedAt:      time.Now(),
	}
}
