package finance

import (
	"time"

	"github.com/erp/ordertocash/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalFilter selects journal entries by reference or source document
type JournalFilter struct {
	Reference  string     `form:"reference"`
	SourceType string     `form:"source_type"`
	SourceID   *uuid.UUID `form:"-"`
}

// JournalLineResponse represents a journal line in API responses
type JournalLineResponse struct {
	AccountCode string          `json:"account_code"`
	Side        string          `json:"side"`
	Amount      decimal.Decimal `json:"amount"`
	Memo        string          `json:"memo,omitempty"`
}

// JournalEntryResponse represents a journal entry in API responses
type JournalEntryResponse struct {
	ID          uuid.UUID             `json:"id"`
	EntryNumber string                `json:"entry_number"`
	EntryDate   time.Time             `json:"entry_date"`
	Reference   string                `json:"reference"`
	Description string                `json:"description"`
	SourceType  string                `json:"source_type"`
	SourceID    uuid.UUID             `json:"source_id"`
	TotalDebit  decimal.Decimal       `json:"total_debit"`
	TotalCredit decimal.Decimal       `json:"total_credit"`
	Lines       []JournalLineResponse `json:"lines"`
	CreatedAt   time.Time             `json:"created_at"`
}

// ToJournalEntryResponse converts a domain JournalEntry to a response
func ToJournalEntryResponse(e *finance.JournalEntry) JournalEntryResponse {
	debit, credit := e.Totals()
	lines := make([]JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = JournalLineResponse{
			AccountCode: l.AccountCode,
			Side:        string(l.Side),
			Amount:      l.Amount,
			Memo:        l.Memo,
		}
	}
	return JournalEntryResponse{
		ID:          e.ID,
		EntryNumber: e.EntryNumber,
		EntryDate:   e.EntryDate,
		Reference:   e.Reference,
		Description: e.Description,
		SourceType:  e.SourceType,
		SourceID:    e.SourceID,
		TotalDebit:  debit,
		TotalCredit: credit,
		Lines:       lines,
		CreatedAt:   e.CreatedAt,
	}
}
