// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-pos-backend/docs"
	"github.com/tbourn/go-pos-backend/internal/config"
	"github.com/tbourn/go-pos-backend/internal/http/handlers"
	"github.com/tbourn/go-pos-backend/internal/http/middleware"
	"github.com/tbourn/go-pos-backend/internal/realtime"
	"github.com/tbourn/go-pos-backend/internal/repo"
	"github.com/tbourn/go-pos-backend/internal/services"
)

// eventsPath is the SSE route; it is excluded from gzip and latency metrics.
const eventsPath = "/api/pos/stores/:storeId/events"

// Services bundles the application services built from one database.
type Services struct {
	Locks    *services.LockService
	Guests   *services.GuestService
	Sessions *services.SessionService
	Orders   *services.OrderService
	Payments *services.PaymentService
}

// NewServices builds the service graph from configuration. notifier may be
// nil, in which case events are dropped.
func NewServices(db *gorm.DB, cfg config.Config, notifier realtime.Notifier) *Services {
	if notifier == nil {
		notifier = realtime.Nop{}
	}
	locks := &services.LockService{
		DB:         db,
		DefaultTTL: cfg.Session.LockTTL,
		MaxTTL:     cfg.Session.LockMaxTTL,
		Enforce:    cfg.Session.LockEnforce,
	}
	guests := &services.GuestService{DB: db}
	sessions := &services.SessionService{
		DB:             db,
		Locks:          locks,
		Guests:         guests,
		Notifier:       notifier,
		MaxAge:         cfg.Session.MaxAge,
		ConflictWindow: cfg.Session.ConflictWindow,
	}
	return &Services{
		Locks:    locks,
		Guests:   guests,
		Sessions: sessions,
		Orders:   &services.OrderService{DB: db, Sessions: sessions, Notifier: notifier},
		Payments: &services.PaymentService{
			DB:             db,
			Sessions:       sessions,
			Gateway:        &services.SimulatedGateway{},
			Notifier:       notifier,
			IdempotencyTTL: cfg.IdempotencyTTL,
		},
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. hub may be nil to disable the SSE stream.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: request-scoped logger and access log with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per IP and terminal, bypass on replay)
//  9. CORS, security headers and gzip
func RegisterRoutes(r *gin.Engine, db *gorm.DB, svc *Services, hub *realtime.Hub, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics(middleware.MetricsOptions{StreamPaths: []string{eventsPath}}))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per IP and terminal
	rl := middleware.NewRateLimiter(middleware.RateLimitOptions{
		RPS:    cfg.RateRPS,
		Burst:  cfg.RateBurst,
		Key:    middleware.KeyByHolderOrIP(),
		Exempt: []string{"/health", "/metrics"},
	})
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match",
		handlers.HeaderSessionHolder, middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS).
	// Payment and guest responses carry card and phone data.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:      cfg.Security.EnableHSTS,
		HSTSMaxAge:      cfg.Security.HSTSMaxAge,
		NoStore:         false,
		EnablePolicy:    true,
		NoStorePrefixes: []string{"/api/pos/payments", "/api/guests"},
	}))

	// Compression; SSE frames must reach the client unbuffered.
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/metrics"}),
		gzip.WithExcludedPathsRegexs([]string{`^/api/pos/stores/[^/]+/events$`}),
	))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	deps := handlers.Deps{
		Sessions:  svc.Sessions,
		Locks:     svc.Locks,
		Orders:    svc.Orders,
		Payments:  svc.Payments,
		Guests:    svc.Guests,
		Heartbeat: cfg.Realtime.SSEHeartbeat,
	}
	if hub != nil {
		deps.Events = hub
	}
	h := handlers.New(deps)

	pos := r.Group("/api/pos")
	{
		table := pos.Group("/stores/:storeId/table/:tableNumber")

		// Session and lock
		table.GET("/session-status", h.SessionStatus)
		table.GET("/lock-status", h.LockStatus)
		table.POST("/acquire-lock", h.AcquireLock)
		table.POST("/release-lock", h.ReleaseLock)
		table.POST("/session/initialize", h.InitializeSession)
		table.DELETE("/session/:sessionId", h.TerminateSession)

		// Pending drafts
		table.GET("/pending-items", h.ListPending)
		table.POST("/pending-items", h.AddPending)
		table.DELETE("/pending-items", h.ClearPending)
		table.POST("/pending-items/confirm", h.ConfirmPending)
		table.PATCH("/pending-items/:itemId", h.UpdatePending)
		table.DELETE("/pending-items/:itemId", h.RemovePending)

		// Payments
		table.POST("/payment", h.Payment)
		table.POST("/payment-partial", h.PartialPayment)
		table.POST("/card-payment", h.CardPayment)
		pos.GET("/payments/:paymentId/status", h.PaymentStatus)
		pos.POST("/payments/:paymentId/refund", h.RefundPayment)

		// Orders
		pos.POST("/orders", h.CreateOrder)
		pos.POST("/orders/add-to-session-smart", h.AddToSession)
		pos.PATCH("/orders/items/:itemId/status", h.UpdateItemStatus)

		// Realtime
		pos.GET("/stores/:storeId/events", h.Events)
	}

	guests := r.Group("/api/guests")
	{
		guests.POST("/resolve", h.ResolveGuest)
		guests.GET("/:guestId/visits", h.GuestVisits)
		guests.POST("/:guestId/convert", h.ConvertGuest)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
