package finance

// Default chart of accounts used by automatic postings
const (
	AccountCash                 = "1000"
	AccountAccountsReceivable   = "1200"
	AccountInventory            = "1300"
	AccountAccountsPayable      = "2100"
	AccountTaxPayable           = "2200"
	AccountOpeningEquity        = "3000"
	AccountRevenue              = "4000"
	AccountCostOfGoodsSold      = "5000"
	AccountInventoryAdjustments = "5100"
)

// ChartOfAccounts maps posting roles to account codes
type ChartOfAccounts struct {
	Cash                 string
	AccountsReceivable   string
	Inventory            string
	AccountsPayable      string
	TaxPayable           string
	OpeningEquity        string
	Revenue              string
	CostOfGoodsSold      string
	InventoryAdjustments string
}

// DefaultChartOfAccounts returns the built-in account codes
func DefaultChartOfAccounts() ChartOfAccounts {
	return ChartOfAccounts{
		Cash:                 AccountCash,
		AccountsReceivable:   AccountAccountsReceivable,
		Inventory:            AccountInventory,
		AccountsPayable:      AccountAccountsPayable,
		TaxPayable:           AccountTaxPayable,
		OpeningEquity:        AccountOpeningEquity,
		Revenue:              AccountRevenue,
		CostOfGoodsSold:      AccountCostOfGoodsSold,
		InventoryAdjustments: AccountInventoryAdjustments,
	}
}
