// Package router assembles the gin engine of the order-to-cash API.
package router

import (
	"net/http"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/infrastructure/auth"
	"github.com/erp/ordertocash/internal/infrastructure/config"
	"github.com/erp/ordertocash/internal/infrastructure/logger"
	"github.com/erp/ordertocash/internal/infrastructure/metrics"
	"github.com/erp/ordertocash/internal/interfaces/http/dto"
	"github.com/erp/ordertocash/internal/interfaces/http/handler"
	"github.com/erp/ordertocash/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Handlers groups every API handler
type Handlers struct {
	Quotations  *handler.QuotationHandler
	SalesOrders *handler.SalesOrderHandler
	Shipments   *handler.ShipmentHandler
	Invoices    *handler.InvoiceHandler
	Payments    *handler.PaymentHandler
	Pricing     *handler.PricingHandler
	Inventory   *handler.InventoryHandler
	Journal     *handler.JournalHandler
	System      *handler.SystemHandler
}

// Deps carries what the engine needs besides the handlers. RateLimiter
// and HTTPMetrics are optional.
type Deps struct {
	Config      *config.Config
	Logger      *zap.Logger
	JWT         *auth.JWTService
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics
	RateLimiter *middleware.RateLimiter
	Handlers    Handlers
}

// New builds the engine with the global middleware chain, the operational
// endpoints and the versioned API
func New(deps Deps) (*gin.Engine, error) {
	cfg := deps.Config
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		logger.Recovery(deps.Logger),
		middleware.RequestID(),
		middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled),
		logger.GinMiddleware(deps.Logger),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.Secure(),
		middleware.CORS(cfg.HTTP),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	if cfg.HTTP.RateLimitEnabled && deps.RateLimiter != nil {
		engine.Use(middleware.RateLimit(deps.RateLimiter))
	}

	if deps.Handlers.System != nil {
		engine.GET("/health", deps.Handlers.System.Health)
		engine.GET("/system/info", deps.Handlers.System.GetSystemInfo)
	}
	if deps.Registry != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry})))
	}
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger),
		ginSwagger.WrapHandler(swaggerFiles.Handler))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(shared.CodeNotFound, "Route not found", middleware.GetRequestID(c), nil))
	})

	r := NewRouter(engine, WithAPIVersion("v1"), WithMiddleware(
		middleware.Actor(middleware.ActorConfig{
			JWT:             deps.JWT,
			AllowUserHeader: cfg.JWT.AllowUserHeader,
			Logger:          deps.Logger,
		}),
		middleware.SpanAttributes(),
		middleware.Profiling(cfg.Telemetry.ProfilingEnabled),
	))
	for _, g := range apiGroups(deps.Handlers) {
		r.Register(g)
	}
	r.Setup()
	return engine, nil
}

func apiGroups(h Handlers) []*DomainGroup {
	var groups []*DomainGroup

	if q := h.Quotations; q != nil {
		g := NewDomainGroup("quotations", "/quotations").
			POST("", q.Create).
			GET("", q.List).
			GET("/:id", q.GetByID).
			POST("/:id/items", q.AddItem).
			PUT("/:id/items/:line_id", q.UpdateItem).
			DELETE("/:id/items/:line_id", q.RemoveItem).
			PUT("/:id/discount", q.SetDiscount).
			POST("/:id/send", q.Send).
			POST("/:id/accept", q.Accept).
			POST("/:id/reject", q.Reject).
			POST("/:id/convert", q.Convert)
		groups = append(groups, g)
	}

	if o := h.SalesOrders; o != nil {
		g := NewDomainGroup("sales-orders", "/sales-orders").
			POST("", o.Create).
			GET("", o.List).
			GET("/:id", o.GetByID).
			POST("/:id/items", o.AddItem).
			PUT("/:id/items/:line_id", o.UpdateItem).
			DELETE("/:id/items/:line_id", o.RemoveItem).
			PUT("/:id/discount", o.SetDiscount).
			POST("/:id/confirm", o.Confirm).
			POST("/:id/process", o.StartProcessing).
			POST("/:id/cancel", o.Cancel).
			GET("/:id/fulfillment", o.Fulfillment).
			POST("/:id/invoice", o.Invoice).
			POST("/:id/shipments", o.CreateShipment).
			GET("/:id/shipments", o.ListShipments)
		groups = append(groups, g)
	}

	if s := h.Shipments; s != nil {
		g := NewDomainGroup("shipments", "/shipments").
			GET("/:id", s.GetByID).
			POST("/:id/ready", s.MarkReady).
			POST("/:id/confirm", s.Confirm).
			POST("/:id/deliver", s.MarkDelivered).
			POST("/:id/cancel", s.Cancel)
		groups = append(groups, g)
	}

	if i := h.Invoices; i != nil {
		g := NewDomainGroup("invoices", "/invoices").
			POST("", i.Create).
			GET("", i.List).
			GET("/:id", i.GetByID).
			POST("/:id/post", i.Post).
			POST("/:id/send", i.Send).
			POST("/:id/cancel", i.Cancel).
			POST("/:id/payments", i.RecordPayment).
			GET("/:id/payments", i.ListPayments)
		groups = append(groups, g)
	}

	if p := h.Payments; p != nil {
		g := NewDomainGroup("payments", "/payments").
			POST("", p.Record).
			GET("", p.ListByCustomer).
			GET("/:id", p.GetByID).
			POST("/:id/reverse", p.Reverse)
		groups = append(groups, g)
	}

	if p := h.Pricing; p != nil {
		groups = append(groups, NewDomainGroup("pricing", "/pricing").POST("/preview", p.Preview))
	}

	if inv := h.Inventory; inv != nil {
		locations := NewDomainGroup("locations", "/locations").
			POST("", inv.CreateLocation).
			GET("", inv.ListLocations).
			GET("/:id", inv.GetLocation).
			PUT("/:id", inv.UpdateLocation).
			GET("/:id/summary", inv.LocationSummary)
		stock := NewDomainGroup("inventory", "/inventory").
			POST("/movements", inv.RecordMovement).
			GET("/movements", inv.ListMovements).
			POST("/transfers", inv.Transfer).
			POST("/reserve", inv.Reserve).
			POST("/release", inv.Release).
			PUT("/min-quantity", inv.SetMinQuantity).
			GET("/balance", inv.GetBalance).
			GET("/balances", inv.ListBalances).
			GET("/low-stock", inv.ListLowStock).
			GET("/summary", inv.Summary).
			GET("/reconcile", inv.Reconcile)
		groups = append(groups, locations, stock)
	}

	if j := h.Journal; j != nil {
		groups = append(groups,
			NewDomainGroup("journal", "/journal-entries").
				GET("", j.ListEntries).
				GET("/:id", j.GetEntry),
			NewDomainGroup("accounts", "/accounts").
				GET("/:code/balance", j.AccountBalance),
			NewDomainGroup("trial-balance", "/trial-balance").
				GET("", j.TrialBalance),
		)
	}
	return groups
}

// Router manages versioned API route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithMiddleware applies middleware to the whole versioned group
func WithMiddleware(mw ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.middleware = append(r.middleware, mw...)
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered by Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	if len(r.middleware) > 0 {
		api.Use(r.middleware...)
	}
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// DomainGroup collects the routes of one resource
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

func (dg *DomainGroup) handle(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: method, path: path, handlers: handlers})
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, path, handlers)
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, path, handlers)
}

// PUT registers a PUT route
func (dg *DomainGroup) PUT(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPut, path, handlers)
}

// DELETE registers a DELETE route
func (dg *DomainGroup) DELETE(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodDelete, path, handlers)
}

// Group creates a sub-group within this domain
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	subgroup := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, subgroup)
	return subgroup
}

// RegisterRoutes implements RouteRegistrar
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}
	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
	for _, subgroup := range dg.subgroups {
		subgroup.RegisterRoutes(group)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}
