package trade

import (
	"context"
	"time"

	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuotationService handles quotation business operations
type QuotationService struct {
	uow    *txn.UnitOfWork
	logger *zap.Logger
	now    Clock
}

// NewQuotationService creates a new QuotationService
func NewQuotationService(uow *txn.UnitOfWork, logger *zap.Logger) *QuotationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuotationService{uow: uow, logger: logger, now: time.Now}
}

// Create creates a new draft quotation with an allocated number
func (s *QuotationService) Create(ctx context.Context, req CreateQuotationRequest, actor uuid.UUID) (*QuotationResponse, error) {
	var resp QuotationResponse
	err := s.uow.Run(ctx, nil, func(tx *txn.Tx) error {
		number, err := tx.NextNumber(ctx, shared.PrefixQuotation, s.now())
		if err != nil {
			return err
		}
		q, err := trade.NewQuotation(number, req.CustomerID, req.CustomerName, req.Currency, req.ValidUntil, actor)
		if err != nil {
			return err
		}
		q.Notes = req.Notes
		for _, item := range req.Items {
			if _, err := q.AddItem(item.toDomain()); err != nil {
				return err
			}
		}
		if !req.DiscountPct.IsZero() {
			if err := q.SetDiscount(req.DiscountPct); err != nil {
				return err
			}
		}
		if err := tx.Quotations().Save(ctx, q); err != nil {
			return err
		}
		tx.Track(q)
		resp = ToQuotationResponse(q)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetByID retrieves a quotation by ID
func (s *QuotationService) GetByID(ctx context.Context, id uuid.UUID) (*QuotationResponse, error) {
	var resp QuotationResponse
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		q, err := repos.Quotations().FindByID(ctx, id)
		if err != nil {
			return err
		}
		resp = ToQuotationResponse(q)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List retrieves quotations with filtering and pagination
func (s *QuotationService) List(ctx context.Context, filter ListFilter) (*shared.Paginated[QuotationResponse], error) {
	domainFilter := toDomainFilter(filter)
	var (
		quotations []trade.Quotation
		total      int64
	)
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		var err error
		if quotations, err = repos.Quotations().FindAll(ctx, domainFilter); err != nil {
			return err
		}
		total, err = repos.Quotations().Count(ctx, domainFilter)
		return err
	})
	if err != nil {
		return nil, err
	}
	items := make([]QuotationResponse, len(quotations))
	for i := range quotations {
		items[i] = ToQuotationResponse(&quotations[i])
	}
	page := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// AddItem appends a line to a draft quotation
func (s *QuotationService) AddItem(ctx context.Context, id uuid.UUID, req LineItemInput) (*QuotationResponse, error) {
	return s.mutate(ctx, id, func(q *trade.Quotation) error {
		_, err := q.AddItem(req.toDomain())
		return err
	})
}

// UpdateItem replaces a line of a draft quotation
func (s *QuotationService) UpdateItem(ctx context.Context, id, lineID uuid.UUID, req LineItemInput) (*QuotationResponse, error) {
	return s.mutate(ctx, id, func(q *trade.Quotation) error {
		return q.UpdateItem(lineID, req.toDomain())
	})
}

// RemoveItem removes a line of a draft quotation
func (s *QuotationService) RemoveItem(ctx context.Context, id, lineID uuid.UUID) (*QuotationResponse, error) {
	return s.mutate(ctx, id, func(q *trade.Quotation) error {
		return q.RemoveItem(lineID)
	})
}

// SetDiscount sets the document-level discount of a draft quotation
func (s *QuotationService) SetDiscount(ctx context.Context, id uuid.UUID, req SetDiscountRequest) (*QuotationResponse, error) {
	return s.mutate(ctx, id, func(q *trade.Quotation) error {
		return q.SetDiscount(req.DiscountPct)
	})
}

// Send moves a draft quotation to SENT; the customer is notified after commit
func (s *QuotationService) Send(ctx context.Context, id, actor uuid.UUID) (*QuotationResponse, error) {
	return s.mutate(ctx, id, func(q *trade.Quotation) error {
		return q.Send(actor, s.now())
	})
}

// Accept records the customer's acceptance of a sent quotation
func (s *QuotationService) Accept(ctx context.Context, id, actor uuid.UUID) (*QuotationResponse, error) {
	return s.mutate(ctx, id, func(q *trade.Quotation) error {
		return q.Accept(actor, s.now())
	})
}

// Reject records the customer's rejection of a sent quotation
func (s *QuotationService) Reject(ctx context.Context, id uuid.UUID, req ReasonRequest, actor uuid.UUID) (*QuotationResponse, error) {
	return s.mutate(ctx, id, func(q *trade.Quotation) error {
		return q.Reject(req.Reason, actor, s.now())
	})
}

// mutate loads, changes and saves one quotation under its document lock
func (s *QuotationService) mutate(ctx context.Context, id uuid.UUID, fn func(q *trade.Quotation) error) (*QuotationResponse, error) {
	var resp QuotationResponse
	err := s.uow.Run(ctx, []string{txn.DocumentKey(trade.AggregateTypeQuotation, id)}, func(tx *txn.Tx) error {
		q, err := tx.Quotations().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(q); err != nil {
			return err
		}
		if err := tx.Quotations().Save(ctx, q); err != nil {
			return err
		}
		tx.Track(q)
		resp = ToQuotationResponse(q)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
