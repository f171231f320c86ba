// Handler wiring.
//
// Handlers are transport-thin: they validate path and body input, call
// application services, and translate results into HTTP responses. Services
// are consumed through the narrow interfaces below so tests can stub them.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-pos-backend/internal/domain"
	"github.com/tbourn/go-pos-backend/internal/realtime"
	"github.com/tbourn/go-pos-backend/internal/services"
	"github.com/tbourn/go-pos-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// SessionService is the table-session state machine.
type SessionService interface {
	GetSessionStatus(ctx context.Context, storeID int64, tableNumber int) (*services.SessionStatus, error)
	InitializeSession(ctx context.Context, storeID int64, tableNumber int, holder string) (*services.SessionView, error)
	OpenOrCreate(ctx context.Context, req services.OrderRequest) (*services.OrderResult, error)
	TerminateSession(ctx context.Context, storeID int64, tableNumber int, sessionID, reason string) (*services.TerminateResult, error)
}

// LockService is the advisory table lock.
type LockService interface {
	CheckLock(ctx context.Context, storeID int64, tableNumber int) services.LockStatus
	AcquireLock(ctx context.Context, storeID int64, tableNumber int, holder string, ttl time.Duration) (*services.LockResult, error)
	ReleaseLock(ctx context.Context, storeID int64, tableNumber int) (bool, error)
	Guard(ctx context.Context, storeID int64, tableNumber int, holder string) error
}

// OrderService covers pending drafts and confirmed items.
type OrderService interface {
	AddItemToSession(ctx context.Context, sessionID string, item domain.LineInput) (*services.AddItemResult, error)
	ListPending(ctx context.Context, storeID int64, tableNumber int) ([]domain.PendingItem, error)
	AddPending(ctx context.Context, storeID int64, tableNumber int, item domain.LineInput) (*domain.PendingItem, error)
	UpdatePending(ctx context.Context, storeID int64, tableNumber int, id string, qty int, discount int64) (*domain.PendingItem, error)
	RemovePending(ctx context.Context, storeID int64, tableNumber int, id string) error
	ClearPending(ctx context.Context, storeID int64, tableNumber int) (int64, error)
	ConfirmPendingOrder(ctx context.Context, storeID int64, tableNumber int, source string) (*services.ConfirmResult, error)
	UpdateItemStatus(ctx context.Context, itemID, status string) (*services.ItemStatusResult, error)
}

// PaymentService settles sessions.
type PaymentService interface {
	Settle(ctx context.Context, req services.SettleRequest) (*services.SettleResult, error)
	PayByCard(ctx context.Context, req services.CardPaymentRequest) (*services.CardPaymentResult, error)
	PaymentStatus(ctx context.Context, paymentID string) (*services.PaymentStatusResult, error)
	Refund(ctx context.Context, paymentID string, amount *int64, reason string) (*services.RefundResult, error)
}

// GuestService resolves and converts guests.
type GuestService interface {
	Resolve(ctx context.Context, storeID int64, phone, name string) (*services.GuestProfile, error)
	Visits(ctx context.Context, guestID string) (*services.GuestProfile, error)
	Convert(ctx context.Context, guestID, memberID string) (*services.ConvertResult, error)
}

// EventSource hands out realtime subscriptions.
type EventSource interface {
	Subscribe(storeID int64) *realtime.Client
	Unregister(c *realtime.Client)
}

//
// Handler wiring
//

// Deps groups the services a Handlers instance depends on.
type Deps struct {
	Sessions SessionService
	Locks    LockService
	Orders   OrderService
	Payments PaymentService
	Guests   GuestService
	Events   EventSource

	// Heartbeat is the SSE keep-alive interval; <= 0 uses 25s.
	Heartbeat time.Duration
}

// Handlers groups the HTTP endpoints of the POS API.
type Handlers struct {
	sessions  SessionService
	locks     LockService
	orders    OrderService
	payments  PaymentService
	guests    GuestService
	events    EventSource
	heartbeat time.Duration
}

// New constructs a Handlers instance bound to the given services.
func New(d Deps) *Handlers {
	hb := d.Heartbeat
	if hb <= 0 {
		hb = 25 * time.Second
	}
	return &Handlers{
		sessions:  d.Sessions,
		locks:     d.Locks,
		orders:    d.Orders,
		payments:  d.Payments,
		guests:    d.Guests,
		events:    d.Events,
		heartbeat: hb,
	}
}

// HeaderSessionHolder names the terminal performing a mutation. It is only
// checked against the table lock when lock enforcement is enabled.
const HeaderSessionHolder = "X-Session-Holder"

//
// Helpers
//

// tableParams parses :storeId and :tableNumber, failing the request with 400
// when either is missing or not a positive integer.
func tableParams(c *gin.Context) (int64, int, bool) {
	storeID, ok1 := utils.PositiveInt64(c.Param("storeId"))
	table, ok2 := utils.PositiveInt(c.Param("tableNumber"))
	if !ok1 || !ok2 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "storeId and tableNumber must be positive integers")
		return 0, 0, false
	}
	return storeID, table, true
}

// pathID returns a trimmed path parameter or fails with 400.
func pathID(c *gin.Context, name string) (string, bool) {
	v := strings.TrimSpace(c.Param(name))
	if v == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" is required")
		return "", false
	}
	return v, true
}

// guard rejects the request when another terminal holds the table lock.
func (h *Handlers) guard(c *gin.Context, storeID int64, table int) bool {
	if h.locks == nil {
		return true
	}
	holder := strings.TrimSpace(c.GetHeader(HeaderSessionHolder))
	if err := h.locks.Guard(c.Request.Context(), storeID, table, holder); err != nil {
		failErr(c, err)
		return false
	}
	return true
}

// bindJSON decodes the body into dst, failing with 400 on malformed input.
// An empty body is accepted when allowEmpty is set.
func bindJSON(c *gin.Context, dst any, allowEmpty bool) bool {
	if allowEmpty && c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return false
	}
	return true
}
