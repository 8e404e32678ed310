package txn

import (
	"context"
	"time"

	"github.com/erp/ordertocash/internal/domain/shared"
)

// NextNumber allocates the next PREFIX-YYYY-NNNN document number inside the
// transaction, so a rolled back operation leaves no gap
func (t *Tx) NextNumber(ctx context.Context, prefix string, at time.Time) (string, error) {
	year := at.Year()
	seq, err := t.Sequences().NextValue(ctx, prefix, year)
	if err != nil {
		return "", err
	}
	return shared.FormatDocumentNumber(prefix, year, seq), nil
}
