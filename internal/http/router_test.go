package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-pos-backend/internal/config"
	"github.com/tbourn/go-pos-backend/internal/http/middleware"
	"github.com/tbourn/go-pos-backend/internal/realtime"
	"github.com/tbourn/go-pos-backend/internal/repo"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:routerdb_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		RateRPS:   100,
		RateBurst: 100,
		CORS:      config.CORSConfig{AllowedOrigins: nil},
		Security:  config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:      config.OTELConfig{ServiceName: "test-svc"},
		Session: config.SessionConfig{
			LockTTL:    5 * time.Minute,
			LockMaxTTL: 30 * time.Minute,
			MaxAge:     4 * time.Hour,
		},
		IdempotencyTTL: time.Hour,
		Realtime:       config.RealtimeConfig{SSEHeartbeat: time.Minute},
	}
}

func newRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	hub := realtime.NewHub(8)
	r := gin.New()
	RegisterRoutes(r, db, NewServices(db, cfg, hub), hub, cfg)
	return r
}

func postJSON(r *gin.Engine, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r := newRouter(t, testConfig())

	// /health works
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404 envelope
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"success":false`) {
		t.Fatalf("GET /nope expected 404 envelope, got %d %s", w.Code, w.Body.String())
	}

	// NoMethod → 405 (POST /health)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}

	// Swagger is off unless enabled
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be disabled, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://pos.example.com"}}
	r := newRouter(t, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://pos.example.com")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://pos.example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func TestRegisterRoutes_SwaggerEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.SwaggerEnabled = true
	r := newRouter(t, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/api/pos/orders") {
		t.Fatalf("GET /swagger/doc.json = %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_GzipAndNoStore(t *testing.T) {
	r := newRouter(t, testConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/pos/stores/1/table/1/session-status", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip response, got %d %q", w.Code, w.Header().Get("Content-Encoding"))
	}
	if w.Header().Get("Cache-Control") == "no-store" {
		t.Fatalf("session status should not be no-store")
	}

	w = postJSON(r, "/api/guests/resolve", `{"storeId":1,"phone":"010-2222-3333"}`)
	if w.Code != http.StatusCreated || w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("guest resolve: %d cache=%q", w.Code, w.Header().Get("Cache-Control"))
	}
}

func TestRegisterRoutes_OrderAndPaymentFlow(t *testing.T) {
	r := newRouter(t, testConfig())

	w := postJSON(r, "/api/pos/orders", `{"storeId":7,"tableNumber":3,"items":[{"name":"Bibimbap","price":9000,"quantity":2}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("create order: %d %s", w.Code, w.Body.String())
	}

	w = postJSON(r, "/api/pos/stores/7/table/3/payment-partial", `{"amount":8000,"paymentMethod":"CASH"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"remainingAmount":10000`) {
		t.Fatalf("partial: %d %s", w.Code, w.Body.String())
	}

	w = postJSON(r, "/api/pos/stores/7/table/3/payment", `{"paymentMethod":"MOBILE"}`)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if w.Code != http.StatusOK || body["isSessionComplete"] != true || body["paymentStatus"] != "paid" {
		t.Fatalf("full: %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_IdempotentReplayBypassesRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 2
	r := newRouter(t, cfg)

	// Two tokens: one order, one payment.
	w := postJSON(r, "/api/pos/orders", `{"storeId":1,"tableNumber":2,"items":[{"name":"Tea","price":3000,"quantity":1}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("create order: %d %s", w.Code, w.Body.String())
	}
	w = postJSON(r, "/api/pos/stores/1/table/2/payment", `{}`, middleware.HeaderIdempotencyKey, "k-1")
	if w.Code != http.StatusOK {
		t.Fatalf("pay: %d %s", w.Code, w.Body.String())
	}

	// Bucket is empty, but the replay is recognized and let through.
	w = postJSON(r, "/api/pos/stores/1/table/2/payment", `{}`, middleware.HeaderIdempotencyKey, "k-1")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"replayed":true`) {
		t.Fatalf("replay: %d %s", w.Code, w.Body.String())
	}

	// A fresh key is rate limited.
	w = postJSON(r, "/api/pos/stores/1/table/2/payment", `{}`, middleware.HeaderIdempotencyKey, "k-2")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_BadIdempotencyKey(t *testing.T) {
	r := newRouter(t, testConfig())
	w := postJSON(r, "/api/pos/stores/1/table/2/payment", `{}`, middleware.HeaderIdempotencyKey, "has spaces")
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "bad_idempotency_key") {
		t.Fatalf("expected 400 bad_idempotency_key, got %d %s", w.Code, w.Body.String())
	}
}

func TestNewServices_AppliesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Session.LockEnforce = true
	cfg.Session.ConflictWindow = 10 * time.Minute
	svc := NewServices(newTestDB(t), cfg, nil)

	if !svc.Locks.Enforce || svc.Locks.DefaultTTL != 5*time.Minute || svc.Locks.MaxTTL != 30*time.Minute {
		t.Fatalf("lock config not applied: %+v", svc.Locks)
	}
	if svc.Sessions.ConflictWindow != 10*time.Minute || svc.Sessions.MaxAge != 4*time.Hour {
		t.Fatalf("session config not applied: %+v", svc.Sessions)
	}
	if svc.Payments.IdempotencyTTL != time.Hour || svc.Payments.Gateway == nil {
		t.Fatalf("payment config not applied: %+v", svc.Payments)
	}
	if _, isNop := svc.Sessions.Notifier.(realtime.Nop); !isNop {
		t.Fatalf("nil notifier should become Nop, got %T", svc.Sessions.Notifier)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}
