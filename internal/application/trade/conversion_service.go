package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Conversion outcomes reported to a ConversionObserver
const (
	OutcomeCreated  = "created"
	OutcomeReplayed = "replayed"
	OutcomeConflict = "conflict"
	OutcomeFailed   = "failed"
)

// inFlightTTL bounds how long a crashed request can block its idempotency key
const inFlightTTL = 2 * time.Minute

// ConversionObserver receives the outcome of every conversion
type ConversionObserver interface {
	ObserveConversion(kind string, outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveConversion(string, string) {}

// ConversionService converts accepted quotations into sales orders and sales
// orders into invoices. With an idempotency key a retried conversion returns
// the document created by the first attempt.
type ConversionService struct {
	uow      *txn.UnitOfWork
	claims   shared.IdempotencyStore
	tracker  *FulfillmentTracker
	observer ConversionObserver
	logger   *zap.Logger
	now      Clock
}

// NewConversionService creates a new ConversionService. claims may be nil,
// in which case concurrent duplicates are caught only by the durable record.
func NewConversionService(uow *txn.UnitOfWork, claims shared.IdempotencyStore, tracker *FulfillmentTracker, logger *zap.Logger) *ConversionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversionService{
		uow:      uow,
		claims:   claims,
		tracker:  tracker,
		observer: nopObserver{},
		logger:   logger,
		now:      time.Now,
	}
}

// SetObserver installs a conversion observer, typically prometheus counters
func (s *ConversionService) SetObserver(o ConversionObserver) {
	if o != nil {
		s.observer = o
	}
}

// ConvertQuotation creates a draft sales order from an accepted quotation.
// The lines are copied in order and the totals recomputed; drift from the
// quotation's stored grand total fails with TOTALS_DRIFT. The second return
// value reports a replay of an earlier conversion under the same key.
func (s *ConversionService) ConvertQuotation(ctx context.Context, quotationID uuid.UUID, req ConvertQuotationRequest, actor uuid.UUID) (*SalesOrderResponse, bool, error) {
	kind := trade.ConversionQuotationToOrder
	key := req.IdempotencyKey

	release, err := s.claim(ctx, kind, key, quotationID)
	if err != nil {
		return nil, false, err
	}
	defer release()

	var (
		resp     SalesOrderResponse
		replayed bool
	)
	err = s.uow.Run(ctx, []string{txn.DocumentKey(trade.AggregateTypeQuotation, quotationID)}, func(tx *txn.Tx) error {
		rec, err := findRecord(ctx, tx, kind, key, quotationID)
		if err != nil {
			return err
		}
		if rec != nil {
			order, err := tx.SalesOrders().FindByID(ctx, rec.TargetID)
			if err != nil {
				return err
			}
			resp = ToSalesOrderResponse(order)
			replayed = true
			return nil
		}

		q, err := tx.Quotations().FindByID(ctx, quotationID)
		if err != nil {
			return err
		}
		existing, err := tx.SalesOrders().FindByQuotation(ctx, quotationID)
		switch {
		case err == nil:
			return shared.NewDomainError(shared.CodeAlreadyExists,
				fmt.Sprintf("quotation %s was already converted to sales order %s", q.QuotationNumber, existing.OrderNumber)).
				WithDetail("sales_order_id", existing.ID.String())
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}

		loc, err := tx.Locations().FindByID(ctx, req.LocationID)
		if err != nil {
			return err
		}
		if err := loc.EnsureActive(); err != nil {
			return err
		}
		number, err := tx.NextNumber(ctx, shared.PrefixSalesOrder, s.now())
		if err != nil {
			return err
		}
		order, err := trade.NewSalesOrderFromQuotation(number, q, req.LocationID, actor)
		if err != nil {
			return err
		}
		if err := tx.SalesOrders().Save(ctx, order); err != nil {
			return err
		}
		tx.Track(order)
		if key != "" {
			if err := tx.Conversions().Create(ctx, trade.NewConversionRecord(kind, key, q.ID, order.ID, actor)); err != nil {
				return err
			}
		}
		resp = ToSalesOrderResponse(order)
		return nil
	})
	s.observe(kind, replayed, err)
	if err != nil {
		return nil, false, err
	}
	if !replayed {
		s.logger.Info("Quotation converted to sales order",
			zap.String("quotation_id", quotationID.String()),
			zap.String("order_number", resp.OrderNumber),
		)
	}
	return &resp, replayed, nil
}

// InvoiceOrder creates a draft invoice for part or all of a sales order.
// Without request lines every uninvoiced quantity is billed. The order's
// invoiced quantities are rederived from its invoices in the same transaction.
func (s *ConversionService) InvoiceOrder(ctx context.Context, orderID uuid.UUID, req InvoiceOrderRequest, actor uuid.UUID) (*InvoiceResponse, bool, error) {
	kind := trade.ConversionOrderToInvoice
	key := req.IdempotencyKey

	release, err := s.claim(ctx, kind, key, orderID)
	if err != nil {
		return nil, false, err
	}
	defer release()

	var (
		resp     InvoiceResponse
		replayed bool
	)
	err = s.uow.Run(ctx, []string{txn.DocumentKey(trade.AggregateTypeSalesOrder, orderID)}, func(tx *txn.Tx) error {
		rec, err := findRecord(ctx, tx, kind, key, orderID)
		if err != nil {
			return err
		}
		if rec != nil {
			inv, err := tx.Invoices().FindByID(ctx, rec.TargetID)
			if err != nil {
				return err
			}
			resp = ToInvoiceResponse(inv)
			replayed = true
			return nil
		}

		order, err := tx.SalesOrders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		quantities := invoiceQuantities(order, req.Lines)

		issue := s.now()
		if req.IssueDate != nil {
			issue = *req.IssueDate
		}
		due := issue.AddDate(0, 0, DefaultPaymentTermsDays)
		if req.DueDate != nil {
			due = *req.DueDate
		}
		number, err := tx.NextNumber(ctx, shared.PrefixInvoice, issue)
		if err != nil {
			return err
		}
		inv, err := trade.NewInvoiceFromSalesOrder(number, order, quantities, issue, due, actor)
		if err != nil {
			return err
		}
		if err := tx.Invoices().Save(ctx, inv); err != nil {
			return err
		}
		tx.Track(inv)
		if err := s.tracker.RecomputeInvoiced(ctx, tx, order); err != nil {
			return err
		}
		if key != "" {
			if err := tx.Conversions().Create(ctx, trade.NewConversionRecord(kind, key, order.ID, inv.ID, actor)); err != nil {
				return err
			}
		}
		resp = ToInvoiceResponse(inv)
		return nil
	})
	s.observe(kind, replayed, err)
	if err != nil {
		return nil, false, err
	}
	if !replayed {
		s.logger.Info("Sales order invoiced",
			zap.String("order_id", orderID.String()),
			zap.String("invoice_number", resp.InvoiceNumber),
			zap.String("grand_total", resp.GrandTotal.String()),
		)
	}
	return &resp, replayed, nil
}

// claim takes the in-flight claim for a keyed conversion. A claim already
// held means the same request is being processed right now.
func (s *ConversionService) claim(ctx context.Context, kind trade.ConversionKind, key string, sourceID uuid.UUID) (func(), error) {
	if key == "" || s.claims == nil {
		return func() {}, nil
	}
	claimKey := fmt.Sprintf("conversion:%s:%s:%s", kind, sourceID, key)
	ok, err := s.claims.MarkProcessed(ctx, claimKey, inFlightTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if !ok {
		s.observer.ObserveConversion(string(kind), OutcomeConflict)
		return nil, shared.NewConcurrencyConflictError(string(kind), sourceID).
			WithDetail("idempotency_key", key)
	}
	return func() {
		// the durable record answers retries from here on
		if err := s.claims.Forget(context.WithoutCancel(ctx), claimKey); err != nil {
			s.logger.Warn("Failed to drop conversion claim", zap.String("key", claimKey), zap.Error(err))
		}
	}, nil
}

func (s *ConversionService) observe(kind trade.ConversionKind, replayed bool, err error) {
	switch {
	case err != nil:
		s.observer.ObserveConversion(string(kind), OutcomeFailed)
	case replayed:
		s.observer.ObserveConversion(string(kind), OutcomeReplayed)
	default:
		s.observer.ObserveConversion(string(kind), OutcomeCreated)
	}
}

func findRecord(ctx context.Context, tx *txn.Tx, kind trade.ConversionKind, key string, sourceID uuid.UUID) (*trade.ConversionRecord, error) {
	if key == "" {
		return nil, nil
	}
	rec, err := tx.Conversions().Find(ctx, kind, key, sourceID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// invoiceQuantities maps the requested lines, or every remaining uninvoiced
// quantity when none are given
func invoiceQuantities(order *trade.SalesOrder, lines []InvoiceLineInput) map[uuid.UUID]decimal.Decimal {
	quantities := make(map[uuid.UUID]decimal.Decimal)
	if len(lines) == 0 {
		for _, item := range order.Items {
			if remaining := item.RemainingToInvoice(); remaining.IsPositive() {
				quantities[item.ID] = remaining
			}
		}
		return quantities
	}
	for _, l := range lines {
		quantities[l.SalesOrderItemID] = quantities[l.SalesOrderItemID].Add(l.Quantity)
	}
	return quantities
}
