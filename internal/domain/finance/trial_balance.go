package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrialBalanceStatus is the outcome of a trial balance check
type TrialBalanceStatus string

const (
	TrialBalanceStatusBalanced   TrialBalanceStatus = "BALANCED"
	TrialBalanceStatusUnbalanced TrialBalanceStatus = "UNBALANCED"
)

// TrialBalance lists every posted account with the debit and credit totals
// of the whole ledger. Because every entry is validated as balanced when it
// is written, an UNBALANCED result means the ledger was altered outside the
// posting service.
type TrialBalance struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Accounts    []AccountBalance   `json:"accounts"`
	TotalDebit  decimal.Decimal    `json:"total_debit"`
	TotalCredit decimal.Decimal    `json:"total_credit"`
	Difference  decimal.Decimal    `json:"difference"`
	Status      TrialBalanceStatus `json:"status"`
}

// NewTrialBalance totals the account balances
func NewTrialBalance(accounts []AccountBalance, at time.Time) *TrialBalance {
	tb := &TrialBalance{
		GeneratedAt: at,
		Accounts:    accounts,
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	if tb.Accounts == nil {
		tb.Accounts = []AccountBalance{}
	}
	for _, a := range accounts {
		tb.TotalDebit = tb.TotalDebit.Add(a.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(a.Credit)
	}
	tb.Difference = tb.TotalDebit.Sub(tb.TotalCredit)
	tb.Status = TrialBalanceStatusBalanced
	if !tb.Difference.IsZero() {
		tb.Status = TrialBalanceStatusUnbalanced
	}
	return tb
}

// IsBalanced reports whether total debits equal total credits
func (tb *TrialBalance) IsBalanced() bool {
	return tb.Status == TrialBalanceStatusBalanced
}
