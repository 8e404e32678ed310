package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tradeapp "github.com/erp/ordertocash/internal/application/trade"
	"github.com/erp/ordertocash/internal/infrastructure/config"
	"github.com/erp/ordertocash/internal/infrastructure/metrics"
	"github.com/erp/ordertocash/internal/interfaces/http/handler"
	"github.com/erp/ordertocash/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"), WithMiddleware(func(c *gin.Context) {
		c.Header("X-Api", "yes")
		c.Next()
	}))

	r.Register(NewDomainGroup("test", "/test").GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	}))
	r.Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/test/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, "yes", w.Header().Get("X-Api"))
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("invoices", "/invoices")
		assert.Equal(t, "invoices", g.Name())
		assert.Equal(t, "/invoices", g.Prefix())
	})

	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		ok := func(c *gin.Context) { c.Status(http.StatusOK) }
		NewDomainGroup("test", "/test").
			GET("/items", ok).
			POST("/items", ok).
			PUT("/items/:id", ok).
			DELETE("/items/:id", ok).
			RegisterRoutes(engine.Group("/api/v1"))

		for _, tc := range []struct{ method, path string }{
			{http.MethodGet, "/api/v1/test/items"},
			{http.MethodPost, "/api/v1/test/items"},
			{http.MethodPut, "/api/v1/test/items/1"},
			{http.MethodDelete, "/api/v1/test/items/1"},
		} {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, http.StatusOK, w.Code, tc.method+" "+tc.path)
		}
	})

	t.Run("middleware and subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("ledger", "/ledger").Use(func(c *gin.Context) {
			c.Header("X-Group", "ledger")
			c.Next()
		})
		g.Group("entries", "/entries").GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "entries")
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ledger/entries", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "entries", w.Body.String())
		assert.Equal(t, "ledger", w.Header().Get("X-Group"))
	})
}

func newTestEngine(t *testing.T, checks map[string]handler.HealthCheck) *gin.Engine {
	t.Helper()
	reg := metrics.NewRegistry()
	cfg := &config.Config{}
	cfg.JWT.AllowUserHeader = true
	cfg.HTTP.MaxBodySize = 1 << 20

	engine, err := New(Deps{
		Config:      cfg,
		Logger:      zap.NewNop(),
		Registry:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Handlers: Handlers{
			Pricing: handler.NewPricingHandler(tradeapp.NewPricingService()),
			System:  handler.NewSystemHandler("order-to-cash", "test", checks),
		},
	})
	require.NoError(t, err)
	return engine
}

func TestNew_Health(t *testing.T) {
	engine := newTestEngine(t, map[string]handler.HealthCheck{
		"database": func(context.Context) error { return nil },
	})
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)

	engine = newTestEngine(t, map[string]handler.HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"error"`)
}

func TestNew_MetricsAndSwagger(t *testing.T) {
	engine := newTestEngine(t, nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "o2c_http_requests_total")

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNew_UnknownRoute(t *testing.T) {
	engine := newTestEngine(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/nowhere", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"NOT_FOUND"`)
	assert.Contains(t, w.Body.String(), `"request_id":"req-1"`)
}

func TestNew_PricingPreview(t *testing.T) {
	engine := newTestEngine(t, nil)
	body := `{"lines":[{"description":"Widget","quantity":"10","unit_price":"100","discount_pct":"5","tax_rate_pct":"10"}]}`

	t.Run("requires an actor", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/pricing/preview", strings.NewReader(body)))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("computes totals", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/preview", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.UserIDHeader, uuid.NewString())
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Success bool                            `json:"success"`
			Data    tradeapp.PricingPreviewResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.True(t, resp.Data.Totals.Subtotal.Equal(decimal.NewFromInt(1000)))
		assert.True(t, resp.Data.Totals.DiscountAmount.Equal(decimal.NewFromInt(50)))
		assert.True(t, resp.Data.Totals.TaxAmount.Equal(decimal.NewFromInt(95)))
		assert.True(t, resp.Data.Totals.GrandTotal.Equal(decimal.NewFromInt(1045)))
	})

	t.Run("rejects invalid lines", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/preview", strings.NewReader(`{"lines":[]}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.UserIDHeader, uuid.NewString())
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"VALIDATION_ERROR"`)
	})
}
