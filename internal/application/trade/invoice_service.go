package trade

import (
	"context"
	"time"

	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/finance"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JournalPoster books the general-ledger side of invoices and payments
type JournalPoster interface {
	PostInvoice(ctx context.Context, tx *txn.Tx, inv *trade.Invoice, actor uuid.UUID) (*finance.JournalEntry, error)
	PostPayment(ctx context.Context, tx *txn.Tx, pay *trade.Payment) (*finance.JournalEntry, error)
	PostPaymentReversal(ctx context.Context, tx *txn.Tx, pay *trade.Payment, actor uuid.UUID, now time.Time) (*finance.JournalEntry, error)
}

// InvoiceService handles invoice business operations
type InvoiceService struct {
	uow     *txn.UnitOfWork
	poster  JournalPoster
	tracker *FulfillmentTracker
	logger  *zap.Logger
	now     Clock
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(uow *txn.UnitOfWork, poster JournalPoster, tracker *FulfillmentTracker, logger *zap.Logger) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{uow: uow, poster: poster, tracker: tracker, logger: logger, now: time.Now}
}

// Create creates a manual draft invoice not linked to any sales order
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest, actor uuid.UUID) (*InvoiceResponse, error) {
	issue := s.now()
	if req.IssueDate != nil {
		issue = *req.IssueDate
	}
	due := issue.AddDate(0, 0, DefaultPaymentTermsDays)
	if req.DueDate != nil {
		due = *req.DueDate
	}

	var resp InvoiceResponse
	err := s.uow.Run(ctx, nil, func(tx *txn.Tx) error {
		number, err := tx.NextNumber(ctx, shared.PrefixInvoice, issue)
		if err != nil {
			return err
		}
		inv, err := trade.NewInvoice(number, req.CustomerID, req.CustomerName, req.Currency, issue, due, actor)
		if err != nil {
			return err
		}
		inv.Notes = req.Notes
		for _, item := range req.Items {
			if _, err := inv.AddItem(item.toDomain()); err != nil {
				return err
			}
		}
		if !req.DiscountPct.IsZero() {
			if err := inv.SetDiscount(req.DiscountPct); err != nil {
				return err
			}
		}
		if err := tx.Invoices().Save(ctx, inv); err != nil {
			return err
		}
		tx.Track(inv)
		resp = ToInvoiceResponse(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetByID retrieves an invoice by ID
func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// List retrieves invoices with filtering and pagination
func (s *InvoiceService) List(ctx context.Context, filter ListFilter) (*shared.Paginated[InvoiceResponse], error) {
	domainFilter := toDomainFilter(filter)
	var (
		invoices []trade.Invoice
		total    int64
	)
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		var err error
		if invoices, err = repos.Invoices().FindAll(ctx, domainFilter); err != nil {
			return err
		}
		total, err = repos.Invoices().Count(ctx, domainFilter)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		items[i] = ToInvoiceResponse(&invoices[i])
	}
	page := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// Post finalizes a draft invoice and books the receivable, revenue and tax
func (s *InvoiceService) Post(ctx context.Context, id, actor uuid.UUID) (*InvoiceResponse, error) {
	resp, err := s.mutate(ctx, id, func(ctx context.Context, tx *txn.Tx, inv *trade.Invoice) error {
		if err := inv.Post(actor, s.now()); err != nil {
			return err
		}
		_, err := s.poster.PostInvoice(ctx, tx, inv, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Invoice posted",
		zap.String("invoice_number", resp.InvoiceNumber),
		zap.String("grand_total", resp.GrandTotal.String()),
	)
	return resp, nil
}

// Send records that the invoice went to the customer; the customer is
// notified after commit
func (s *InvoiceService) Send(ctx context.Context, id, actor uuid.UUID) (*InvoiceResponse, error) {
	return s.mutate(ctx, id, func(_ context.Context, _ *txn.Tx, inv *trade.Invoice) error {
		return inv.Send(actor, s.now())
	})
}

// Cancel cancels a draft invoice. Its quantities become invoiceable again
// on the linked sales order.
func (s *InvoiceService) Cancel(ctx context.Context, id uuid.UUID, req ReasonRequest, actor uuid.UUID) (*InvoiceResponse, error) {
	return s.mutate(ctx, id, func(ctx context.Context, tx *txn.Tx, inv *trade.Invoice) error {
		if err := inv.Cancel(req.Reason, actor, s.now()); err != nil {
			return err
		}
		if inv.SalesOrderID == nil {
			return nil
		}
		// the order recompute must see the cancelled status
		if err := tx.Invoices().Save(ctx, inv); err != nil {
			return err
		}
		order, err := tx.SalesOrders().FindByID(ctx, *inv.SalesOrderID)
		if err != nil {
			return err
		}
		return s.tracker.RecomputeInvoiced(ctx, tx, order)
	})
}

func (s *InvoiceService) load(ctx context.Context, id uuid.UUID) (*trade.Invoice, error) {
	var inv *trade.Invoice
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		var err error
		inv, err = repos.Invoices().FindByID(ctx, id)
		return err
	})
	return inv, err
}

// invoiceLockKeys locks the invoice and, for order invoices, the order
func invoiceLockKeys(inv *trade.Invoice) []string {
	keys := []string{txn.DocumentKey(trade.AggregateTypeInvoice, inv.ID)}
	if inv.SalesOrderID != nil {
		keys = append(keys, txn.DocumentKey(trade.AggregateTypeSalesOrder, *inv.SalesOrderID))
	}
	return keys
}

func (s *InvoiceService) mutate(ctx context.Context, id uuid.UUID, fn func(ctx context.Context, tx *txn.Tx, inv *trade.Invoice) error) (*InvoiceResponse, error) {
	snapshot, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var resp InvoiceResponse
	err = s.uow.Run(ctx, invoiceLockKeys(snapshot), func(tx *txn.Tx) error {
		inv, err := tx.Invoices().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, tx, inv); err != nil {
			return err
		}
		if err := tx.Invoices().Save(ctx, inv); err != nil {
			return err
		}
		tx.Track(inv)
		resp = ToInvoiceResponse(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
