package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	financeapp "github.com/erp/ordertocash/internal/application/finance"
	invapp "github.com/erp/ordertocash/internal/application/inventory"
	tradeapp "github.com/erp/ordertocash/internal/application/trade"
	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/finance"
	"github.com/erp/ordertocash/internal/infrastructure/config"
	"github.com/erp/ordertocash/internal/infrastructure/lock"
	"github.com/erp/ordertocash/internal/infrastructure/persistence"
	"github.com/erp/ordertocash/internal/interfaces/http/handler"
	"github.com/erp/ordertocash/internal/interfaces/http/middleware"
	"github.com/erp/ordertocash/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type apiClient struct {
	t      *testing.T
	engine *gin.Engine
	actor  string
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newAPI(t *testing.T) *apiClient {
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
	conversions := tradeapp.NewConversionService(uow, nil, tracker, nil)
	orders := tradeapp.NewSalesOrderService(uow, ledger, tracker, nil)
	shipments := tradeapp.NewShipmentService(uow, ledger, tracker, nil)
	invoices := tradeapp.NewInvoiceService(uow, poster, tracker, nil)
	payments := tradeapp.NewPaymentService(uow, poster, tracker, nil)

	cfg := &config.Config{}
	cfg.JWT.AllowUserHeader = true
	engine, err := router.New(router.Deps{
		Config: cfg,
		Logger: zap.NewNop(),
		Handlers: router.Handlers{
			Quotations:  handler.NewQuotationHandler(tradeapp.NewQuotationService(uow, nil), conversions),
			SalesOrders: handler.NewSalesOrderHandler(orders, shipments, conversions),
			Shipments:   handler.NewShipmentHandler(shipments),
			Invoices:    handler.NewInvoiceHandler(invoices, payments),
			Payments:    handler.NewPaymentHandler(payments),
			Inventory:   handler.NewInventoryHandler(invapp.NewInventoryService(uow, ledger, nil)),
			Journal:     handler.NewJournalHandler(financeapp.NewJournalService(uow)),
		},
	})
	require.NoError(t, err)
	return &apiClient{t: t, engine: engine, actor: uuid.NewString()}
}

func (a *apiClient) do(method, path string, body any, headers ...string) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.UserIDHeader, a.actor)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (a *apiClient) mustDo(status int, method, path string, body any, out any, headers ...string) {
	a.t.Helper()
	code, env := a.do(method, path, body, headers...)
	require.Equal(a.t, status, code, "%s %s: %s", method, path, string(env.Data))
	if out != nil {
		require.NoError(a.t, json.Unmarshal(env.Data, out))
	}
}

func TestQuotationToCashOverHTTP(t *testing.T) {
	api := newAPI(t)
	itemID := uuid.NewString()

	var loc invapp.LocationResponse
	api.mustDo(http.StatusCreated, http.MethodPost, "/api/v1/locations",
		map[string]any{"code": "WH1", "name": "Main"}, &loc)
	api.mustDo(http.StatusCreated, http.MethodPost, "/api/v1/inventory/movements", map[string]any{
		"item_id": itemID, "location_id": loc.ID, "movement_type": "OPENING", "quantity": "50", "unit_cost": "40",
	}, nil)

	var q tradeapp.QuotationResponse
	api.mustDo(http.StatusCreated, http.MethodPost, "/api/v1/quotations", map[string]any{
		"customer_id":   uuid.NewString(),
		"customer_name": "Acme",
		"currency":      "USD",
		"valid_until":   time.Now().Add(7 * 24 * time.Hour).Format(time.RFC3339),
		"items": []map[string]any{{
			"item_id": itemID, "description": "Widget", "quantity": "10",
			"unit_price": "100", "discount_pct": "5", "tax_rate_pct": "10",
		}},
	}, &q)
	assert.Equal(t, "1045", q.GrandTotal.String())

	api.mustDo(http.StatusOK, http.MethodPost, "/api/v1/quotations/"+q.ID.String()+"/send", nil, nil)
	api.mustDo(http.StatusOK, http.MethodPost, "/api/v1/quotations/"+q.ID.String()+"/accept", nil, nil)

	t.Run("accepting twice is an invalid transition", func(t *testing.T) {
		code, env := api.do(http.MethodPost, "/api/v1/quotations/"+q.ID.String()+"/accept", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)
	})

	var order, replay tradeapp.SalesOrderResponse
	convert := "/api/v1/quotations/" + q.ID.String() + "/convert"
	api.mustDo(http.StatusCreated, http.MethodPost, convert, map[string]any{"location_id": loc.ID}, &order,
		middleware.IdempotencyKeyHeader, "key-1")
	api.mustDo(http.StatusOK, http.MethodPost, convert, map[string]any{"location_id": loc.ID}, &replay,
		middleware.IdempotencyKeyHeader, "key-1")
	assert.Equal(t, order.ID, replay.ID)
	assert.Equal(t, "1045", order.GrandTotal.String())

	orderPath := "/api/v1/sales-orders/" + order.ID.String()
	api.mustDo(http.StatusOK, http.MethodPost, orderPath+"/confirm", map[string]any{"customer_po_ref": "PO-7731"}, nil)
	api.mustDo(http.StatusOK, http.MethodPost, orderPath+"/process", nil, nil)

	var shipment tradeapp.ShipmentResponse
	api.mustDo(http.StatusCreated, http.MethodPost, orderPath+"/shipments", map[string]any{
		"lines": []map[string]any{{"sales_order_item_id": order.Items[0].ID, "quantity": "10"}},
	}, &shipment)
	api.mustDo(http.StatusOK, http.MethodPost, "/api/v1/shipments/"+shipment.ID.String()+"/confirm", nil, &shipment)
	assert.Equal(t, "SHIPPED", shipment.Status)

	var shipped tradeapp.SalesOrderResponse
	api.mustDo(http.StatusOK, http.MethodGet, orderPath, nil, &shipped)
	assert.Equal(t, "DELIVERED", shipped.Status)
	assert.Equal(t, "10", shipped.Items[0].QuantityShipped.String())

	var inv tradeapp.InvoiceResponse
	api.mustDo(http.StatusCreated, http.MethodPost, orderPath+"/invoice", nil, &inv)
	api.mustDo(http.StatusOK, http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/post", nil, nil)

	t.Run("overpayment is rejected", func(t *testing.T) {
		code, env := api.do(http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/payments",
			map[string]any{"amount": "2000", "method": "CASH"})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "OVERPAYMENT", env.Error.Code)
	})

	var paid tradeapp.PaymentResultResponse
	api.mustDo(http.StatusCreated, http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/payments",
		map[string]any{"amount": "1045", "method": "BANK_TRANSFER"}, &paid)
	require.NotNil(t, paid.Invoice)
	assert.Equal(t, "PAID", paid.Invoice.Status)

	var fulfillment tradeapp.FulfillmentResponse
	api.mustDo(http.StatusOK, http.MethodGet, orderPath+"/fulfillment", nil, &fulfillment)
	assert.Equal(t, "DELIVERED", fulfillment.Status)
	assert.True(t, fulfillment.FullyShipped)
	assert.True(t, fulfillment.OutstandingTotal.IsZero())

	var tb finance.TrialBalance
	api.mustDo(http.StatusOK, http.MethodGet, "/api/v1/trial-balance", nil, &tb)
	assert.Equal(t, finance.TrialBalanceStatusBalanced, tb.Status)
	assert.False(t, tb.TotalDebit.IsZero())

	var balance invapp.BalanceResponse
	api.mustDo(http.StatusOK, http.MethodGet,
		"/api/v1/inventory/balance?item_id="+itemID+"&location_id="+loc.ID.String(), nil, &balance)
	assert.Equal(t, "40", balance.TotalQuantity.String())
	assert.True(t, balance.ReservedQuantity.IsZero())
}

func TestErrorResponses(t *testing.T) {
	api := newAPI(t)

	t.Run("unknown document", func(t *testing.T) {
		code, env := api.do(http.MethodGet, "/api/v1/invoices/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		code, env := api.do(http.MethodGet, "/api/v1/sales-orders/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "BAD_REQUEST", env.Error.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		code, env := api.do(http.MethodPost, "/api/v1/quotations", map[string]any{"customer_name": "Acme"})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})

	t.Run("balance lookup needs both keys", func(t *testing.T) {
		code, _ := api.do(http.MethodGet, "/api/v1/inventory/balance?item_id="+uuid.NewString(), nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("payments listing needs a customer", func(t *testing.T) {
		code, _ := api.do(http.MethodGet, "/api/v1/payments", nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})
}
