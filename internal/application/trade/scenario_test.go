package trade_test

import (
	"context"
	"sync"
	"testing"
	"time"

	financeapp "github.com/erp/ordertocash/internal/application/finance"
	invapp "github.com/erp/ordertocash/internal/application/inventory"
	tradeapp "github.com/erp/ordertocash/internal/application/trade"
	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/finance"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/infrastructure/cache"
	"github.com/erp/ordertocash/internal/infrastructure/lock"
	"github.com/erp/ordertocash/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type services struct {
	quotations  *tradeapp.QuotationService
	orders      *tradeapp.SalesOrderService
	shipments   *tradeapp.ShipmentService
	invoices    *tradeapp.InvoiceService
	payments    *tradeapp.PaymentService
	conversions *tradeapp.ConversionService
	expiry      *tradeapp.QuotationExpiryService
	inventory   *invapp.InventoryService
	journal     *financeapp.JournalService
}

func newServices(t *testing.T) *services {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(persistence.AllModels()...))

	uow := txn.NewUnitOfWork(persistence.NewGormTransactionScope(db), lock.NewKeyedMutex(), nil, nil)
	poster := financeapp.NewPostingService(finance.DefaultChartOfAccounts(), nil)
	ledger := invapp.NewLedger(poster)
	tracker := tradeapp.NewFulfillmentTracker()
	claims := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = claims.Close() })

	return &services{
		quotations:  tradeapp.NewQuotationService(uow, nil),
		orders:      tradeapp.NewSalesOrderService(uow, ledger, tracker, nil),
		shipments:   tradeapp.NewShipmentService(uow, ledger, tracker, nil),
		invoices:    tradeapp.NewInvoiceService(uow, poster, tracker, nil),
		payments:    tradeapp.NewPaymentService(uow, poster, tracker, nil),
		conversions: tradeapp.NewConversionService(uow, claims, tracker, nil),
		expiry:      tradeapp.NewQuotationExpiryService(uow, 1, nil),
		inventory:   invapp.NewInventoryService(uow, ledger, nil),
		journal:     financeapp.NewJournalService(uow),
	}
}

type fixture struct {
	*services
	actor      uuid.UUID
	customer   uuid.UUID
	itemID     uuid.UUID
	locationID uuid.UUID
}

// newFixture stocks 50 units of one item at a fresh location
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		services: newServices(t),
		actor:    uuid.New(),
		customer: uuid.New(),
		itemID:   uuid.New(),
	}
	loc, err := f.inventory.CreateLocation(ctx, invapp.CreateLocationRequest{Code: "WH1", Name: "Main warehouse"})
	require.NoError(t, err)
	f.locationID = loc.ID

	_, err = f.inventory.RecordMovement(ctx, invapp.MovementRequest{
		ItemID:       f.itemID,
		LocationID:   f.locationID,
		MovementType: "OPENING",
		Quantity:     decimal.NewFromInt(50),
		UnitCost:     decimal.NewFromInt(40),
	}, f.actor)
	require.NoError(t, err)
	return f
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func assertDecimal(t *testing.T, want int64, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "%s: want %d, got %s", msg, want, got)
}

// acceptedQuotation creates and accepts a quotation for 10 × 100 at 5% line
// discount and 10% tax
func (f *fixture) acceptedQuotation(t *testing.T) *tradeapp.QuotationResponse {
	t.Helper()
	ctx := context.Background()
	itemID := f.itemID
	q, err := f.quotations.Create(ctx, tradeapp.CreateQuotationRequest{
		CustomerID:   f.customer,
		CustomerName: "Acme",
		Currency:     "USD",
		ValidUntil:   time.Now().Add(14 * 24 * time.Hour),
		Items: []tradeapp.LineItemInput{{
			ItemID:      &itemID,
			ItemCode:    "W-1",
			Description: "Widget",
			Quantity:    dec(10),
			UnitPrice:   dec(100),
			DiscountPct: dec(5),
			TaxRatePct:  dec(10),
		}},
	}, f.actor)
	require.NoError(t, err)
	_, err = f.quotations.Send(ctx, q.ID, f.actor)
	require.NoError(t, err)
	q, err = f.quotations.Accept(ctx, q.ID, f.actor)
	require.NoError(t, err)
	return q
}

// processingOrder converts a fresh quotation and moves the order to PROCESSING
func (f *fixture) processingOrder(t *testing.T) *tradeapp.SalesOrderResponse {
	t.Helper()
	ctx := context.Background()
	q := f.acceptedQuotation(t)
	order, _, err := f.conversions.ConvertQuotation(ctx, q.ID, tradeapp.ConvertQuotationRequest{LocationID: f.locationID}, f.actor)
	require.NoError(t, err)
	_, err = f.orders.Confirm(ctx, order.ID, tradeapp.ConfirmOrderRequest{CustomerPORef: "PO-7731"}, f.actor)
	require.NoError(t, err)
	order, err = f.orders.StartProcessing(ctx, order.ID, f.actor)
	require.NoError(t, err)
	return order
}

func (f *fixture) ship(t *testing.T, order *tradeapp.SalesOrderResponse, qty int64) *tradeapp.SalesOrderResponse {
	t.Helper()
	ctx := context.Background()
	sh, err := f.shipments.Create(ctx, order.ID, tradeapp.CreateShipmentRequest{
		Lines: []tradeapp.ShipmentLineRequest{{SalesOrderItemID: order.Items[0].ID, Quantity: dec(qty)}},
	}, f.actor)
	require.NoError(t, err)
	_, err = f.shipments.Confirm(ctx, sh.ID, tradeapp.ConfirmShipmentRequest{Carrier: "UPS"}, f.actor)
	require.NoError(t, err)
	updated, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	return updated
}

func TestQuotationTotalsSurviveConversion(t *testing.T) {
	f := newFixture(t)
	q := f.acceptedQuotation(t)

	assertDecimal(t, 1000, q.Subtotal, "subtotal")
	assertDecimal(t, 50, q.DiscountAmount, "discount")
	assertDecimal(t, 95, q.TaxAmount, "tax")
	assertDecimal(t, 1045, q.GrandTotal, "grand total")

	order, replayed, err := f.conversions.ConvertQuotation(context.Background(), q.ID,
		tradeapp.ConvertQuotationRequest{LocationID: f.locationID}, f.actor)
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, "DRAFT", order.Status)
	assertDecimal(t, 1045, order.GrandTotal, "order grand total")
	require.Len(t, order.Items, 1)
	assert.Equal(t, q.Items[0].Description, order.Items[0].Description)
	assert.Regexp(t, `^SO-\d{4}-\d{4,}$`, order.OrderNumber)
}

func TestConvertQuotation_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.acceptedQuotation(t)
	req := tradeapp.ConvertQuotationRequest{LocationID: f.locationID, IdempotencyKey: "conv-1"}

	first, replayed, err := f.conversions.ConvertQuotation(ctx, q.ID, req, f.actor)
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := f.conversions.ConvertQuotation(ctx, q.ID, req, f.actor)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)

	t.Run("a new key cannot convert twice", func(t *testing.T) {
		_, _, err := f.conversions.ConvertQuotation(ctx, q.ID,
			tradeapp.ConvertQuotationRequest{LocationID: f.locationID, IdempotencyKey: "conv-2"}, f.actor)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, shared.CodeAlreadyExists, de.Code)
	})

	t.Run("concurrent retries create one order", func(t *testing.T) {
		q := f.acceptedQuotation(t)
		req := tradeapp.ConvertQuotationRequest{LocationID: f.locationID, IdempotencyKey: "conv-3"}

		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			ids = map[uuid.UUID]bool{}
		)
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				order, _, err := f.conversions.ConvertQuotation(ctx, q.ID, req, f.actor)
				if err != nil {
					var de *shared.DomainError
					if assert.ErrorAs(t, err, &de) {
						assert.Equal(t, shared.CodeConcurrencyConflict, de.Code)
					}
					return
				}
				mu.Lock()
				ids[order.ID] = true
				mu.Unlock()
			}()
		}
		wg.Wait()
		assert.Len(t, ids, 1)
	})
}

func TestShipments_DeliveredOnlyWhenFullyShipped(t *testing.T) {
	f := newFixture(t)
	order := f.processingOrder(t)

	order = f.ship(t, order, 3)
	assert.Equal(t, "SHIPPED", order.Status)
	assertDecimal(t, 3, order.Items[0].QuantityShipped, "after first shipment")

	order = f.ship(t, order, 4)
	assert.Equal(t, "SHIPPED", order.Status)
	assertDecimal(t, 7, order.Items[0].QuantityShipped, "after second shipment")

	order = f.ship(t, order, 3)
	assert.Equal(t, "DELIVERED", order.Status)
	assertDecimal(t, 10, order.Items[0].QuantityShipped, "after third shipment")

	_, err := f.shipments.Create(context.Background(), order.ID, tradeapp.CreateShipmentRequest{
		Lines: []tradeapp.ShipmentLineRequest{{SalesOrderItemID: order.Items[0].ID, Quantity: dec(1)}},
	}, f.actor)
	require.Error(t, err)
}

func TestShipmentConfirm_SingleFullShipmentDeliversOrder(t *testing.T) {
	f := newFixture(t)
	order := f.processingOrder(t)

	order = f.ship(t, order, 10)
	assert.Equal(t, "DELIVERED", order.Status)
	assertDecimal(t, 10, order.Items[0].QuantityShipped, "shipped")
	assertDecimal(t, 0, order.Items[0].RemainingToShip, "remaining")

	_, err := f.shipments.Create(context.Background(), order.ID, tradeapp.CreateShipmentRequest{
		Lines: []tradeapp.ShipmentLineRequest{{SalesOrderItemID: order.Items[0].ID, Quantity: dec(1)}},
	}, f.actor)
	require.Error(t, err)
}

func TestShipment_OverShipmentRejected(t *testing.T) {
	f := newFixture(t)
	order := f.processingOrder(t)

	_, err := f.shipments.Create(context.Background(), order.ID, tradeapp.CreateShipmentRequest{
		Lines: []tradeapp.ShipmentLineRequest{{SalesOrderItemID: order.Items[0].ID, Quantity: dec(11)}},
	}, f.actor)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeOverShipment, de.Code)
}

func TestInvoiceAndPayPartOfOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.processingOrder(t)

	inv, replayed, err := f.conversions.InvoiceOrder(ctx, order.ID, tradeapp.InvoiceOrderRequest{
		Lines: []tradeapp.InvoiceLineInput{{SalesOrderItemID: order.Items[0].ID, Quantity: dec(6)}},
	}, f.actor)
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, "DRAFT", inv.Status)

	inv, err = f.invoices.Post(ctx, inv.ID, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "POSTED", inv.Status)

	result, err := f.payments.Record(ctx, tradeapp.RecordPaymentRequest{
		InvoiceID: &inv.ID,
		Amount:    inv.GrandTotal,
		Method:    "BANK_TRANSFER",
	}, f.actor)
	require.NoError(t, err)
	require.NotNil(t, result.Invoice)
	assert.Equal(t, "PAID", result.Invoice.Status)
	assert.True(t, result.Invoice.BalanceAmount.IsZero())

	order, err = f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assertDecimal(t, 0, order.Items[0].QuantityShipped, "shipped")
	assertDecimal(t, 6, order.Items[0].QuantityInvoiced, "invoiced")
	assert.Equal(t, "PROCESSING", order.Status)

	fulfillment, err := f.orders.Fulfillment(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, fulfillment.FullyShipped)
	assert.True(t, fulfillment.OutstandingTotal.IsZero())
	assert.True(t, fulfillment.PaidTotal.Equal(inv.GrandTotal))

	t.Run("the rest of the order can be invoiced but no more", func(t *testing.T) {
		_, _, err := f.conversions.InvoiceOrder(ctx, order.ID, tradeapp.InvoiceOrderRequest{
			Lines: []tradeapp.InvoiceLineInput{{SalesOrderItemID: order.Items[0].ID, Quantity: dec(5)}},
		}, f.actor)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, shared.CodeOverInvoice, de.Code)

		rest, _, err := f.conversions.InvoiceOrder(ctx, order.ID, tradeapp.InvoiceOrderRequest{}, f.actor)
		require.NoError(t, err)
		require.Len(t, rest.Items, 1)
		assertDecimal(t, 4, rest.Items[0].Quantity, "remaining invoice quantity")
	})
}

func TestPaymentReversalReopensInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.processingOrder(t)

	inv, _, err := f.conversions.InvoiceOrder(ctx, order.ID, tradeapp.InvoiceOrderRequest{IdempotencyKey: "inv-1"}, f.actor)
	require.NoError(t, err)
	assertDecimal(t, 1045, inv.GrandTotal, "invoice total")

	again, replayed, err := f.conversions.InvoiceOrder(ctx, order.ID, tradeapp.InvoiceOrderRequest{IdempotencyKey: "inv-1"}, f.actor)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, inv.ID, again.ID)

	_, err = f.invoices.Post(ctx, inv.ID, f.actor)
	require.NoError(t, err)

	first, err := f.payments.Record(ctx, tradeapp.RecordPaymentRequest{InvoiceID: &inv.ID, Amount: dec(545), Method: "CASH"}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "PARTIAL", first.Invoice.Status)

	second, err := f.payments.Record(ctx, tradeapp.RecordPaymentRequest{InvoiceID: &inv.ID, Amount: dec(500), Method: "CARD"}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "PAID", second.Invoice.Status)
	assertDecimal(t, 0, second.Invoice.BalanceAmount, "balance when paid")

	_, err = f.payments.Record(ctx, tradeapp.RecordPaymentRequest{InvoiceID: &inv.ID, Amount: dec(1), Method: "CASH"}, f.actor)
	require.Error(t, err)

	reversed, err := f.payments.Reverse(ctx, second.Payment.ID, tradeapp.ReasonRequest{Reason: "chargeback"}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "REVERSED", reversed.Payment.Status)
	require.NotNil(t, reversed.Invoice)
	assert.Equal(t, "PARTIAL", reversed.Invoice.Status)
	assertDecimal(t, 500, reversed.Invoice.BalanceAmount, "balance after reversal")
	assertDecimal(t, 545, reversed.Invoice.PaidAmount, "paid after reversal")

	_, err = f.payments.Reverse(ctx, second.Payment.ID, tradeapp.ReasonRequest{Reason: "again"}, f.actor)
	require.Error(t, err)

	// every posting balances, so receivables equal the open balance
	ar, err := f.journal.AccountBalance(ctx, finance.AccountAccountsReceivable)
	require.NoError(t, err)
	assertDecimal(t, 500, ar.Balance, "accounts receivable")
}

func TestInventoryConservedThroughFulfillment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.processingOrder(t)

	bal, err := f.inventory.GetBalance(ctx, f.itemID, f.locationID)
	require.NoError(t, err)
	assertDecimal(t, 50, bal.TotalQuantity, "total after confirm")
	assertDecimal(t, 10, bal.ReservedQuantity, "reserved after confirm")
	assertDecimal(t, 40, bal.AvailableQuantity, "available after confirm")

	f.ship(t, order, 3)
	f.ship(t, order, 7)

	bal, err = f.inventory.GetBalance(ctx, f.itemID, f.locationID)
	require.NoError(t, err)
	assertDecimal(t, 40, bal.TotalQuantity, "total after shipping")
	assertDecimal(t, 0, bal.ReservedQuantity, "reserved after shipping")
	assertDecimal(t, 40, bal.AvailableQuantity, "available after shipping")

	rec, err := f.inventory.Reconcile(ctx, f.itemID, f.locationID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assertDecimal(t, 40, rec.MovementSum, "movement sum")
}

func TestCancelConfirmedOrderReleasesReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.acceptedQuotation(t)
	order, _, err := f.conversions.ConvertQuotation(ctx, q.ID, tradeapp.ConvertQuotationRequest{LocationID: f.locationID}, f.actor)
	require.NoError(t, err)
	_, err = f.orders.Confirm(ctx, order.ID, tradeapp.ConfirmOrderRequest{CustomerPORef: "PO-7731"}, f.actor)
	require.NoError(t, err)

	cancelled, err := f.orders.Cancel(ctx, order.ID, tradeapp.ReasonRequest{Reason: "customer withdrew"}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)

	bal, err := f.inventory.GetBalance(ctx, f.itemID, f.locationID)
	require.NoError(t, err)
	assertDecimal(t, 0, bal.ReservedQuantity, "reserved after cancel")
	assertDecimal(t, 50, bal.AvailableQuantity, "available after cancel")
}

func TestConfirmOrder_InsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	itemID := f.itemID
	order, err := f.orders.Create(ctx, tradeapp.CreateSalesOrderRequest{
		CustomerID:   f.customer,
		CustomerName: "Acme",
		Currency:     "USD",
		LocationID:   f.locationID,
		Items: []tradeapp.LineItemInput{{
			ItemID: &itemID, Description: "Widget", Quantity: dec(60), UnitPrice: dec(100),
		}},
	}, f.actor)
	require.NoError(t, err)

	_, err = f.orders.Confirm(ctx, order.ID, tradeapp.ConfirmOrderRequest{CustomerPORef: "PO-7731"}, f.actor)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeInsufficientStock, de.Code)

	order, err = f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "DRAFT", order.Status)
	bal, err := f.inventory.GetBalance(ctx, f.itemID, f.locationID)
	require.NoError(t, err)
	assertDecimal(t, 0, bal.ReservedQuantity, "reserved after failed confirm")
}

func TestExpireOverdueQuotations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sent := make([]uuid.UUID, 0, 3)
	for range 3 {
		q := f.acceptedQuotation(t)
		// accepted quotations never expire
		require.Equal(t, "ACCEPTED", q.Status)

		q, err := f.quotations.Create(ctx, tradeapp.CreateQuotationRequest{
			CustomerID:   f.customer,
			CustomerName: "Acme",
			Currency:     "USD",
			ValidUntil:   time.Now().Add(time.Hour),
			Items:        []tradeapp.LineItemInput{{Description: "Service", Quantity: dec(1), UnitPrice: dec(10)}},
		}, f.actor)
		require.NoError(t, err)
		_, err = f.quotations.Send(ctx, q.ID, f.actor)
		require.NoError(t, err)
		sent = append(sent, q.ID)
	}

	stats, err := f.expiry.ExpireOverdue(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Expired)

	stats, err = f.expiry.ExpireOverdue(ctx, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Expired)
	assert.Equal(t, 0, stats.Failed)

	for _, id := range sent {
		q, err := f.quotations.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "EXPIRED", q.Status)
		assert.NotNil(t, q.ExpiredAt)
	}

	stats, err = f.expiry.ExpireOverdue(ctx, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Expired)
}
