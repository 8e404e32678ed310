package shared

import (
	"context"
	"fmt"
)

// Document number prefixes
const (
	PrefixQuotation    = "QT"
	PrefixSalesOrder   = "SO"
	PrefixInvoice      = "INV"
	PrefixShipment     = "SHP"
	PrefixPayment      = "PAY"
	PrefixJournalEntry = "JE"
)

// SequenceRepository hands out per-(prefix, year) counters.
// NextValue must run inside the caller's transaction so a rolled back
// operation does not consume a number.
type SequenceRepository interface {
	NextValue(ctx context.Context, prefix string, year int) (int64, error)
}

// FormatDocumentNumber renders PREFIX-YYYY-NNNN. Sequences past 9999 widen.
func FormatDocumentNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}
