package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/finance"
	"github.com/erp/ordertocash/internal/domain/inventory"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Journal entry source types
const (
	SourceStockMovement   = "STOCK_MOVEMENT"
	SourceInvoice         = "INVOICE"
	SourcePayment         = "PAYMENT"
	SourcePaymentReversal = "PAYMENT_REVERSAL"
)

// PostingService writes the general ledger side of stock movements,
// invoices and payments. Every method runs inside the caller's transaction,
// so a failed posting rolls back the business change with it.
type PostingService struct {
	chart  finance.ChartOfAccounts
	logger *zap.Logger
}

// NewPostingService creates a new PostingService
func NewPostingService(chart finance.ChartOfAccounts, logger *zap.Logger) *PostingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostingService{chart: chart, logger: logger}
}

// PostMovement values a stock movement at its unit cost. Transfers and
// movements without a cost have no ledger effect and return nil.
func (p *PostingService) PostMovement(ctx context.Context, tx *txn.Tx, m *inventory.StockMovement) (*finance.JournalEntry, error) {
	amount := m.TotalCost()
	if amount.IsZero() || m.MovementType == inventory.MovementTypeTransfer {
		return nil, nil
	}

	reference := m.ReferenceID
	if reference == "" {
		reference = m.ID.String()
	}
	entry, err := p.newEntry(ctx, tx, m.CreatedAt, reference,
		fmt.Sprintf("%s of %s units", m.MovementType, m.Quantity.Abs()), SourceStockMovement, m.ID, m.OperatorID)
	if err != nil {
		return nil, err
	}

	switch m.MovementType {
	case inventory.MovementTypeStockIn:
		entry.Debit(p.chart.Inventory, amount, "stock received").
			Credit(p.chart.AccountsPayable, amount, "stock received")
	case inventory.MovementTypeOpening:
		entry.Debit(p.chart.Inventory, amount, "opening stock").
			Credit(p.chart.OpeningEquity, amount, "opening stock")
	case inventory.MovementTypeStockOut:
		entry.Debit(p.chart.CostOfGoodsSold, amount, "cost of goods shipped").
			Credit(p.chart.Inventory, amount, "cost of goods shipped")
	case inventory.MovementTypeAdjustment:
		signed := amount
		if m.Quantity.IsNegative() {
			signed = amount.Neg()
		}
		entry.Debit(p.chart.Inventory, signed, m.Reason).
			Credit(p.chart.InventoryAdjustments, signed, m.Reason)
	}
	return p.save(ctx, tx, entry)
}

// PostInvoice books a posted invoice: receivable against revenue and tax
func (p *PostingService) PostInvoice(ctx context.Context, tx *txn.Tx, inv *trade.Invoice, actor uuid.UUID) (*finance.JournalEntry, error) {
	entry, err := p.newEntry(ctx, tx, inv.IssueDate, inv.InvoiceNumber,
		"invoice "+inv.InvoiceNumber+" to "+inv.CustomerName, SourceInvoice, inv.ID, actor)
	if err != nil {
		return nil, err
	}
	revenue := inv.GrandTotal.Sub(inv.TaxAmount)
	entry.Debit(p.chart.AccountsReceivable, inv.GrandTotal, inv.CustomerName).
		Credit(p.chart.Revenue, revenue, "sales").
		Credit(p.chart.TaxPayable, inv.TaxAmount, "output tax")
	return p.save(ctx, tx, entry)
}

// PostPayment books cash received against the receivable
func (p *PostingService) PostPayment(ctx context.Context, tx *txn.Tx, pay *trade.Payment) (*finance.JournalEntry, error) {
	entry, err := p.newEntry(ctx, tx, pay.ReceivedAt, pay.PaymentNumber,
		"payment "+pay.PaymentNumber, SourcePayment, pay.ID, pay.CreatedBy)
	if err != nil {
		return nil, err
	}
	entry.Debit(p.chart.Cash, pay.Amount, string(pay.Method)).
		Credit(p.chart.AccountsReceivable, pay.Amount, pay.Reference)
	return p.save(ctx, tx, entry)
}

// PostPaymentReversal mirrors the entries booked for a payment
func (p *PostingService) PostPaymentReversal(ctx context.Context, tx *txn.Tx, pay *trade.Payment, actor uuid.UUID, now time.Time) (*finance.JournalEntry, error) {
	originals, err := tx.Journal().FindBySource(ctx, SourcePayment, pay.ID)
	if err != nil {
		return nil, err
	}
	entry, err := p.newEntry(ctx, tx, now, pay.PaymentNumber,
		"reversal of payment "+pay.PaymentNumber+": "+pay.ReversalReason, SourcePaymentReversal, pay.ID, actor)
	if err != nil {
		return nil, err
	}
	if len(originals) == 0 {
		p.logger.Warn("No journal entry found for reversed payment, posting from payment amount",
			zap.String("payment_number", pay.PaymentNumber),
		)
		entry.Debit(p.chart.AccountsReceivable, pay.Amount, pay.ReversalReason).
			Credit(p.chart.Cash, pay.Amount, pay.ReversalReason)
		return p.save(ctx, tx, entry)
	}
	for i := range originals {
		entry.Lines = append(entry.Lines, originals[i].Mirror()...)
	}
	return p.save(ctx, tx, entry)
}

func (p *PostingService) newEntry(ctx context.Context, tx *txn.Tx, date time.Time, reference, description, sourceType string, sourceID, actor uuid.UUID) (*finance.JournalEntry, error) {
	if date.IsZero() {
		date = time.Now()
	}
	number, err := tx.NextNumber(ctx, shared.PrefixJournalEntry, date)
	if err != nil {
		return nil, err
	}
	return finance.NewJournalEntry(number, date, reference, description, sourceType, sourceID, actor)
}

func (p *PostingService) save(ctx context.Context, tx *txn.Tx, entry *finance.JournalEntry) (*finance.JournalEntry, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if err := tx.Journal().Create(ctx, entry); err != nil {
		return nil, err
	}
	debit, _ := entry.Totals()
	p.logger.Debug("Journal entry posted",
		zap.String("entry_number", entry.EntryNumber),
		zap.String("source_type", entry.SourceType),
		zap.String("amount", debit.StringFixed(2)),
	)
	return entry, nil
}
