package finance

import (
	"context"

	"github.com/google/uuid"
)

// JournalEntryRepository defines persistence for the general ledger
type JournalEntryRepository interface {
	Create(ctx context.Context, e *JournalEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*JournalEntry, error)
	FindByReference(ctx context.Context, reference string) ([]JournalEntry, error)
	FindBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) ([]JournalEntry, error)
	// AccountBalance returns debit and credit sums of one account; Balance is debit - credit
	AccountBalance(ctx context.Context, accountCode string) (*AccountBalance, error)
	AccountBalances(ctx context.Context) ([]AccountBalance, error)
}
