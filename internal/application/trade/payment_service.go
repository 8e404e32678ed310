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

// PaymentService records and reverses customer payments. Invoice paid and
// balance amounts are rederived from the payment ledger after each change.
type PaymentService struct {
	uow     *txn.UnitOfWork
	poster  JournalPoster
	tracker *FulfillmentTracker
	logger  *zap.Logger
	now     Clock
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(uow *txn.UnitOfWork, poster JournalPoster, tracker *FulfillmentTracker, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{uow: uow, poster: poster, tracker: tracker, logger: logger, now: time.Now}
}

// Record records a completed payment. Against an invoice the invoice must be
// POSTED or PARTIAL and the amount may not exceed its balance; customer and
// currency default to the invoice's. Without an invoice the payment is held
// on account.
func (s *PaymentService) Record(ctx context.Context, req RecordPaymentRequest, actor uuid.UUID) (*PaymentResultResponse, error) {
	var keys []string
	if req.InvoiceID != nil {
		keys = []string{txn.DocumentKey(trade.AggregateTypeInvoice, *req.InvoiceID)}
	}
	receivedAt := s.now()
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}

	var result PaymentResultResponse
	err := s.uow.Run(ctx, keys, func(tx *txn.Tx) error {
		customerID, currency := req.CustomerID, req.Currency

		var inv *trade.Invoice
		if req.InvoiceID != nil {
			var err error
			if inv, err = tx.Invoices().FindByID(ctx, *req.InvoiceID); err != nil {
				return err
			}
			if err := inv.CheckPayment(req.Amount); err != nil {
				return err
			}
			if customerID == uuid.Nil {
				customerID = inv.CustomerID
			} else if customerID != inv.CustomerID {
				return shared.NewValidationError("customer_id", "payment customer does not match the invoice customer")
			}
			if currency == "" {
				currency = inv.Currency
			} else if currency != inv.Currency {
				return shared.NewValidationError("currency", "payment currency does not match the invoice currency")
			}
		}

		number, err := tx.NextNumber(ctx, shared.PrefixPayment, receivedAt)
		if err != nil {
			return err
		}
		pay, err := trade.NewPayment(number, customerID, req.InvoiceID, req.Amount, currency,
			trade.PaymentMethod(req.Method), req.Reference, receivedAt, actor)
		if err != nil {
			return err
		}
		if err := tx.Payments().Save(ctx, pay); err != nil {
			return err
		}
		tx.Track(pay)
		if _, err := s.poster.PostPayment(ctx, tx, pay); err != nil {
			return err
		}

		result.Payment = ToPaymentResponse(pay)
		if inv != nil {
			if err := s.tracker.RecomputePaid(ctx, tx, inv, actor); err != nil {
				return err
			}
			invResp := ToInvoiceResponse(inv)
			result.Invoice = &invResp
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Payment recorded",
		zap.String("payment_number", result.Payment.PaymentNumber),
		zap.String("amount", result.Payment.Amount.String()),
	)
	return &result, nil
}

// Reverse reverses a completed payment and reopens the invoice balance,
// demoting a PAID invoice to PARTIAL or POSTED
func (s *PaymentService) Reverse(ctx context.Context, id uuid.UUID, req ReasonRequest, actor uuid.UUID) (*PaymentResultResponse, error) {
	snapshot, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	keys := []string{txn.DocumentKey(trade.AggregateTypePayment, id)}
	if snapshot.InvoiceID != nil {
		keys = append(keys, txn.DocumentKey(trade.AggregateTypeInvoice, *snapshot.InvoiceID))
	}

	var result PaymentResultResponse
	err = s.uow.Run(ctx, keys, func(tx *txn.Tx) error {
		pay, err := tx.Payments().FindByID(ctx, id)
		if err != nil {
			return err
		}
		now := s.now()
		if err := pay.Reverse(req.Reason, actor, now); err != nil {
			return err
		}
		if err := tx.Payments().Save(ctx, pay); err != nil {
			return err
		}
		tx.Track(pay)
		if _, err := s.poster.PostPaymentReversal(ctx, tx, pay, actor, now); err != nil {
			return err
		}

		result.Payment = ToPaymentResponse(pay)
		if pay.InvoiceID != nil {
			inv, err := tx.Invoices().FindByID(ctx, *pay.InvoiceID)
			if err != nil {
				return err
			}
			if err := s.tracker.RecomputePaid(ctx, tx, inv, actor); err != nil {
				return err
			}
			invResp := ToInvoiceResponse(inv)
			result.Invoice = &invResp
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Payment reversed",
		zap.String("payment_number", result.Payment.PaymentNumber),
		zap.String("reason", req.Reason),
	)
	return &result, nil
}

// GetByID retrieves a payment by ID
func (s *PaymentService) GetByID(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	pay, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(pay)
	return &resp, nil
}

// ListByInvoice returns every payment recorded against an invoice
func (s *PaymentService) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]PaymentResponse, error) {
	var out []PaymentResponse
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		if _, err := repos.Invoices().FindByID(ctx, invoiceID); err != nil {
			return err
		}
		payments, err := repos.Payments().FindByInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		out = toPaymentResponses(payments)
		return nil
	})
	return out, err
}

// ListByCustomer returns a customer's payments, including those on account
func (s *PaymentService) ListByCustomer(ctx context.Context, customerID uuid.UUID, filter ListFilter) ([]PaymentResponse, error) {
	var out []PaymentResponse
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		payments, err := repos.Payments().FindByCustomer(ctx, customerID, toDomainFilter(filter))
		if err != nil {
			return err
		}
		out = toPaymentResponses(payments)
		return nil
	})
	return out, err
}

func (s *PaymentService) load(ctx context.Context, id uuid.UUID) (*trade.Payment, error) {
	var pay *trade.Payment
	err := s.uow.Read(ctx, func(repos txn.Repositories) error {
		var err error
		pay, err = repos.Payments().FindByID(ctx, id)
		return err
	})
	return pay, err
}

func toPaymentResponses(payments []trade.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToPaymentResponse(&payments[i])
	}
	return out
}
