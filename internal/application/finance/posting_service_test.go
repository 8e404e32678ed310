package finance

import (
	"context"
	"maps"
	"slices"
	"testing"
	"time"

	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/finance"
	"github.com/erp/ordertocash/internal/domain/inventory"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memJournal struct {
	entries []*finance.JournalEntry
}

func (m *memJournal) Create(_ context.Context, e *finance.JournalEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memJournal) FindByID(_ context.Context, id uuid.UUID) (*finance.JournalEntry, error) {
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memJournal) FindByReference(_ context.Context, ref string) ([]finance.JournalEntry, error) {
	var out []finance.JournalEntry
	for _, e := range m.entries {
		if e.Reference == ref {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memJournal) FindBySource(_ context.Context, sourceType string, sourceID uuid.UUID) ([]finance.JournalEntry, error) {
	var out []finance.JournalEntry
	for _, e := range m.entries {
		if e.SourceType == sourceType && e.SourceID == sourceID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memJournal) AccountBalance(_ context.Context, code string) (*finance.AccountBalance, error) {
	b := &finance.AccountBalance{AccountCode: code, Debit: decimal.Zero, Credit: decimal.Zero}
	for _, e := range m.entries {
		for _, l := range e.Lines {
			if l.AccountCode != code {
				continue
			}
			if l.Side == finance.SideDebit {
				b.Debit = b.Debit.Add(l.Amount)
			} else {
				b.Credit = b.Credit.Add(l.Amount)
			}
		}
	}
	b.Balance = b.Debit.Sub(b.Credit)
	return b, nil
}

func (m *memJournal) AccountBalances(ctx context.Context) ([]finance.AccountBalance, error) {
	codes := make(map[string]struct{})
	for _, e := range m.entries {
		for _, l := range e.Lines {
			codes[l.AccountCode] = struct{}{}
		}
	}
	var out []finance.AccountBalance
	for _, code := range slices.Sorted(maps.Keys(codes)) {
		b, _ := m.AccountBalance(ctx, code)
		out = append(out, *b)
	}
	return out, nil
}

type memSequences struct {
	values map[string]int64
}

func (m *memSequences) NextValue(_ context.Context, prefix string, year int) (int64, error) {
	key := prefix + "-" + time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")
	m.values[key]++
	return m.values[key], nil
}

// ledgerRepos only serves the journal and sequences
type ledgerRepos struct {
	txn.Repositories
	journal   *memJournal
	sequences *memSequences
}

func (r *ledgerRepos) Journal() finance.JournalEntryRepository { return r.journal }
func (r *ledgerRepos) Sequences() shared.SequenceRepository    { return r.sequences }

func newTestTx() (*txn.Tx, *memJournal) {
	journal := &memJournal{}
	repos := &ledgerRepos{journal: journal, sequences: &memSequences{values: map[string]int64{}}}
	return &txn.Tx{Repositories: repos}, journal
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPostingService_PostMovement(t *testing.T) {
	svc := NewPostingService(finance.DefaultChartOfAccounts(), nil)
	ctx := context.Background()

	tests := []struct {
		name        string
		movement    inventory.MovementType
		qty         string
		debit       string
		credit      string
		expectEntry bool
	}{
		{"stock in", inventory.MovementTypeStockIn, "10", finance.AccountInventory, finance.AccountAccountsPayable, true},
		{"opening", inventory.MovementTypeOpening, "10", finance.AccountInventory, finance.AccountOpeningEquity, true},
		{"stock out", inventory.MovementTypeStockOut, "-10", finance.AccountCostOfGoodsSold, finance.AccountInventory, true},
		{"adjustment up", inventory.MovementTypeAdjustment, "10", finance.AccountInventory, finance.AccountInventoryAdjustments, true},
		{"adjustment down", inventory.MovementTypeAdjustment, "-10", finance.AccountInventoryAdjustments, finance.AccountInventory, true},
		{"transfer", inventory.MovementTypeTransfer, "-10", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, journal := newTestTx()
			m := &inventory.StockMovement{
				ID:           uuid.New(),
				MovementType: tt.movement,
				Quantity:     dec(tt.qty),
				UnitCost:     dec("2.5"),
				ReferenceID:  "REF-1",
				CreatedAt:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			}
			entry, err := svc.PostMovement(ctx, tx, m)
			require.NoError(t, err)
			if !tt.expectEntry {
				assert.Nil(t, entry)
				assert.Empty(t, journal.entries)
				return
			}
			require.NotNil(t, entry)
			require.Len(t, entry.Lines, 2)
			assert.Equal(t, tt.debit, entry.Lines[0].AccountCode)
			assert.Equal(t, finance.SideDebit, entry.Lines[0].Side)
			assert.Equal(t, tt.credit, entry.Lines[1].AccountCode)
			assert.True(t, entry.Lines[0].Amount.Equal(dec("25")))
			assert.Equal(t, "JE-2026-0001", entry.EntryNumber)
		})
	}
}

func TestPostingService_MovementWithoutCostIsSkipped(t *testing.T) {
	svc := NewPostingService(finance.DefaultChartOfAccounts(), nil)
	tx, journal := newTestTx()
	entry, err := svc.PostMovement(context.Background(), tx, &inventory.StockMovement{
		ID:           uuid.New(),
		MovementType: inventory.MovementTypeStockIn,
		Quantity:     dec("5"),
		UnitCost:     decimal.Zero,
	})
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.Empty(t, journal.entries)
}

func postedInvoice(t *testing.T) *trade.Invoice {
	t.Helper()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	inv, err := trade.NewInvoice("INV-2026-0001", uuid.New(), "Acme Ltd", "USD", now, now.AddDate(0, 0, 30), uuid.New())
	require.NoError(t, err)
	_, err = inv.AddItem(trade.LineItemInput{
		Description: "Widget",
		Quantity:    dec("10"),
		UnitPrice:   dec("100"),
		DiscountPct: dec("5"),
		TaxRatePct:  dec("10"),
	})
	require.NoError(t, err)
	require.NoError(t, inv.Post(uuid.New(), now))
	return inv
}

func TestPostingService_PostInvoice(t *testing.T) {
	svc := NewPostingService(finance.DefaultChartOfAccounts(), nil)
	tx, journal := newTestTx()
	ctx := context.Background()

	entry, err := svc.PostInvoice(ctx, tx, postedInvoice(t), uuid.New())
	require.NoError(t, err)
	require.Len(t, entry.Lines, 3)

	ar, _ := journal.AccountBalance(ctx, finance.AccountAccountsReceivable)
	revenue, _ := journal.AccountBalance(ctx, finance.AccountRevenue)
	tax, _ := journal.AccountBalance(ctx, finance.AccountTaxPayable)
	assert.True(t, ar.Balance.Equal(dec("1045")))
	assert.True(t, revenue.Balance.Equal(dec("-950")))
	assert.True(t, tax.Balance.Equal(dec("-95")))
}

func TestPostingService_PaymentAndReversalNetToZero(t *testing.T) {
	svc := NewPostingService(finance.DefaultChartOfAccounts(), nil)
	tx, journal := newTestTx()
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	pay, err := trade.NewPayment("PAY-2026-0001", uuid.New(), nil, dec("500"), "USD", trade.PaymentMethodBankTransfer, "wire", now, uuid.New())
	require.NoError(t, err)
	_, err = svc.PostPayment(ctx, tx, pay)
	require.NoError(t, err)

	cash, _ := journal.AccountBalance(ctx, finance.AccountCash)
	assert.True(t, cash.Balance.Equal(dec("500")))

	require.NoError(t, pay.Reverse("bounced", uuid.New(), now))
	entry, err := svc.PostPaymentReversal(ctx, tx, pay, uuid.New(), now)
	require.NoError(t, err)
	assert.Equal(t, SourcePaymentReversal, entry.SourceType)
	assert.Equal(t, "JE-2026-0002", entry.EntryNumber)

	cash, _ = journal.AccountBalance(ctx, finance.AccountCash)
	ar, _ := journal.AccountBalance(ctx, finance.AccountAccountsReceivable)
	assert.True(t, cash.Balance.IsZero())
	assert.True(t, ar.Balance.IsZero())
}
