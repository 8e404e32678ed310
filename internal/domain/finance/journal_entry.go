package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntrySide is the debit or credit side of a journal line
type EntrySide string

const (
	SideDebit  EntrySide = "DEBIT"
	SideCredit EntrySide = "CREDIT"
)

// JournalLine is one side of a posting to an account
type JournalLine struct {
	ID          uuid.UUID
	AccountCode string
	Side        EntrySide
	Amount      decimal.Decimal
	Memo        string
}

// JournalEntry is a balanced double-entry posting. Entries are immutable;
// corrections are posted as mirror entries.
type JournalEntry struct {
	shared.BaseAggregateRoot
	EntryNumber string
	EntryDate   time.Time
	Reference   string
	Description string
	SourceType  string
	SourceID    uuid.UUID
	Lines       []JournalLine
}

// NewJournalEntry creates an empty entry
func NewJournalEntry(number string, date time.Time, reference, description, sourceType string, sourceID, actor uuid.UUID) (*JournalEntry, error) {
	if number == "" {
		return nil, shared.NewValidationError("entry_number", "entry number cannot be empty")
	}
	if strings.TrimSpace(reference) == "" {
		return nil, shared.NewValidationError("reference", "reference cannot be empty")
	}
	return &JournalEntry{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(actor),
		EntryNumber:       number,
		EntryDate:         date,
		Reference:         reference,
		Description:       description,
		SourceType:        sourceType,
		SourceID:          sourceID,
		Lines:             make([]JournalLine, 0, 2),
	}, nil
}

// Debit adds a debit line; zero amounts are skipped
func (e *JournalEntry) Debit(account string, amount decimal.Decimal, memo string) *JournalEntry {
	return e.add(account, SideDebit, amount, memo)
}

// Credit adds a credit line; zero amounts are skipped
func (e *JournalEntry) Credit(account string, amount decimal.Decimal, memo string) *JournalEntry {
	return e.add(account, SideCredit, amount, memo)
}

func (e *JournalEntry) add(account string, side EntrySide, amount decimal.Decimal, memo string) *JournalEntry {
	if amount.IsZero() {
		return e
	}
	if amount.IsNegative() {
		// a negative debit is a credit
		amount = amount.Neg()
		if side == SideDebit {
			side = SideCredit
		} else {
			side = SideDebit
		}
	}
	e.Lines = append(e.Lines, JournalLine{
		ID:          uuid.New(),
		AccountCode: account,
		Side:        side,
		Amount:      amount.Round(2),
		Memo:        memo,
	})
	return e
}

// Totals returns the debit and credit sums
func (e *JournalEntry) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		if l.Side == SideDebit {
			debit = debit.Add(l.Amount)
		} else {
			credit = credit.Add(l.Amount)
		}
	}
	return debit, credit
}

// Validate checks the entry has lines and balances
func (e *JournalEntry) Validate() error {
	if len(e.Lines) < 2 {
		return shared.NewValidationError("lines", "a journal entry needs at least two lines")
	}
	debit, credit := e.Totals()
	if !debit.Equal(credit) {
		return shared.NewValidationError("lines",
			fmt.Sprintf("journal entry %s is unbalanced: debit %s, credit %s", e.EntryNumber, debit, credit))
	}
	return nil
}

// IsEmpty reports whether nothing would be posted
func (e *JournalEntry) IsEmpty() bool {
	return len(e.Lines) == 0
}

// Mirror returns the lines with debit and credit swapped, for reversals
func (e *JournalEntry) Mirror() []JournalLine {
	out := make([]JournalLine, len(e.Lines))
	for i, l := range e.Lines {
		side := SideDebit
		if l.Side == SideDebit {
			side = SideCredit
		}
		out[i] = JournalLine{ID: uuid.New(), AccountCode: l.AccountCode, Side: side, Amount: l.Amount, Memo: l.Memo}
	}
	return out
}

// AccountBalance is the net position of an account
type AccountBalance struct {
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}
