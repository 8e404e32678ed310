package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewTrialBalance(t *testing.T) {
	now := time.Now()
	d := decimal.RequireFromString

	t.Run("balanced ledger", func(t *testing.T) {
		tb := NewTrialBalance([]AccountBalance{
			{AccountCode: AccountCash, Debit: d("500"), Credit: d("0")},
			{AccountCode: AccountAccountsReceivable, Debit: d("1045"), Credit: d("500")},
			{AccountCode: AccountTaxPayable, Debit: d("0"), Credit: d("95")},
			{AccountCode: AccountRevenue, Debit: d("0"), Credit: d("950")},
		}, now)

		assert.True(t, tb.IsBalanced())
		assert.True(t, tb.TotalDebit.Equal(d("1545")))
		assert.True(t, tb.TotalCredit.Equal(d("1545")))
		assert.True(t, tb.Difference.IsZero())
	})

	t.Run("unbalanced ledger", func(t *testing.T) {
		tb := NewTrialBalance([]AccountBalance{
			{AccountCode: AccountCash, Debit: d("10"), Credit: d("0")},
		}, now)

		assert.False(t, tb.IsBalanced())
		assert.Equal(t, TrialBalanceStatusUnbalanced, tb.Status)
		assert.True(t, tb.Difference.Equal(d("10")))
	})

	t.Run("empty ledger", func(t *testing.T) {
		tb := NewTrialBalance(nil, now)
		assert.True(t, tb.IsBalanced())
		assert.NotNil(t, tb.Accounts)
	})
}
