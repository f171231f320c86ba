// Session and lock HTTP handlers.
//
// Endpoints under /api/pos/stores/{storeId}/table/{tableNumber}:
//   - GET    session-status
//   - GET    lock-status
//   - POST   acquire-lock
//   - POST   release-lock
//   - POST   session/initialize
//   - DELETE session/{sessionId}
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-pos-backend/internal/domain"
	"github.com/tbourn/go-pos-backend/internal/http/middleware"
	"github.com/tbourn/go-pos-backend/internal/services"
)

//
// DTOs
//

// SessionStatusResponse is the body of GET session-status.
type SessionStatusResponse struct {
	Success bool `json:"success" example:"true"`
	*services.SessionStatus
}

// LockStatusResponse is the body of GET lock-status.
type LockStatusResponse struct {
	Success bool `json:"success" example:"true"`
	services.LockStatus
}

// AcquireLockRequest is the JSON payload of acquire-lock.
type AcquireLockRequest struct {
	// LockBy names the holder; defaults to POS.
	LockBy string `json:"lockBy" example:"POS"`
	// LockDuration is the requested TTL in milliseconds; 0 uses the default.
	LockDuration int64 `json:"lockDuration" example:"1800000"`
}

// ReleaseLockResponse is the body of release-lock.
type ReleaseLockResponse struct {
	Success  bool `json:"success" example:"true"`
	Released bool `json:"released"`
}

// InitializeSessionRequest is the optional payload of session/initialize.
type InitializeSessionRequest struct {
	Holder string `json:"holder" example:"POS"`
}

// SessionViewResponse is the body of session/initialize.
type SessionViewResponse struct {
	Success bool `json:"success" example:"true"`
	*services.SessionView
}

// TerminateSessionRequest is the optional payload of DELETE session.
type TerminateSessionRequest struct {
	Reason string `json:"reason" example:"manual_termination"`
}

// TerminateSessionResponse is the body of DELETE session.
type TerminateSessionResponse struct {
	Success bool `json:"success" example:"true"`
	*services.TerminateResult
}

//
// Handlers
//

// SessionStatus godoc
// @ID          getSessionStatus
// @Summary     Read table session state
// @Description Returns the open session (expiring it when too old), duplicate open sessions and table occupancy.
// @Tags        Sessions
// @Produce     json
// @Param       storeId      path  int  true  "Store ID"
// @Param       tableNumber  path  int  true  "Table number"
// @Success     200  {object}  handlers.SessionStatusResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /api/pos/stores/{storeId}/table/{tableNumber}/session-status [get]
func (h *Handlers) SessionStatus(c *gin.Context) {
	storeID, table, good := tableParams(c)
	if !good {
		return
	}
	st, err := h.sessions.GetSessionStatus(c.Request.Context(), storeID, table)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SessionStatusResponse{Success: true, SessionStatus: st})
}

// LockStatus godoc
// @ID          getLockStatus
// @Summary     Read the advisory table lock
// @Tags        Locks
// @Produce     json
// @Param       storeId      path  int  true  "Store ID"
// @Param       tableNumber  path  int  true  "Table number"
// @Success     200  {object}  handlers.LockStatusResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /api/pos/stores/{storeId}/table/{tableNumber}/lock-status [get]
func (h *Handlers) LockStatus(c *gin.Context) {
	storeID, table, good := tableParams(c)
	if !good {
		return
	}
	st := h.locks.CheckLock(c.Request.Context(), storeID, table)
	ok(c, http.StatusOK, LockStatusResponse{Success: true, LockStatus: st})
}

// AcquireLock godoc
// @ID          acquireLock
// @Summary     Acquire or refresh the advisory table lock
// @Description Re-entrant for the same holder. A different live holder yields 409 lock_held.
// @Tags        Locks
// @Accept      json
// @Produce     json
// @Param       storeId      path  int  true  "Store ID"
// @Param       tableNumber  path  int  true  "Table number"
// @Param       body         body  handlers.AcquireLockRequest  false  "Holder and TTL"
// @Success     200  {object}  services.LockResult
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse
// @Router      /api/pos/stores/{storeId}/table/{tableNumber}/acquire-lock [post]
func (h *Handlers) AcquireLock(c *gin.Context) {
	storeID, table, good := tableParams(c)
	if !good {
		return
	}
	var req AcquireLockRequest
	if !bindJSON(c, &req, true) {
		return
	}
	if req.LockDuration < 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "lockDuration must not be negative")
		return
	}
	holder := strings.TrimSpace(req.LockBy)
	if holder == "" {
		holder = domain.SourcePOS
	}

	res, err := h.locks.AcquireLock(c.Request.Context(), storeID, table, holder, time.Duration(req.LockDuration)*time.Millisecond)
	if err != nil {
		failErr(c, err)
		return
	}
	if !res.Success {
		middleware.LoggerFrom(c).Warn().
			Str("locked_by", res.LockedBy).
			Str("requested_by", holder).
			Msg("table lock held by another holder")
		failErr(c, &services.LockConflictError{Holder: res.LockedBy, ExpiresAt: res.ExpiresAt})
		return
	}
	ok(c, http.StatusOK, res)
}

// ReleaseLock godoc
// @ID          releaseLock
// @Summary     Release the advisory table lock
// @Tags        Locks
// @Produce     json
// @Param       storeId      path  int  true  "Store ID"
// @Param       tableNumber  path  int  true  "Table number"
// @Success     200  {object}  handlers.ReleaseLockResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /api/pos/stores/{storeId}/table/{tableNumber}/release-lock [post]
func (h *Handlers) ReleaseLock(c *gin.Context) {
	storeID, table, good := tableParams(c)
	if !good {
		return
	}
	released, err := h.locks.ReleaseLock(c.Request.Context(), storeID, table)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ReleaseLockResponse{Success: true, Released: released})
}

// InitializeSession godoc
// @ID          initializeSession
// @Summary     Prepare a table for a terminal
// @Description Takes the lock for the holder and returns confirmed, pending and merged items.
// @Tags        Sessions
// @Accept      json
// @Produce     json
// @Param       storeId      path  int  true  "Store ID"
// @Param       tableNumber  path  int  true  "Table number"
// @Param       body         body  handlers.InitializeSessionRequest  false  "Holder"
// @Success     200  {object}  handlers.SessionViewResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse
// @Router      /api/pos/stores/{storeId}/table/{tableNumber}/session/initialize [post]
func (h *Handlers) InitializeSession(c *gin.Context) {
	storeID, table, good := tableParams(c)
	if !good {
		return
	}
	var req InitializeSessionRequest
	if !bindJSON(c, &req, true) {
		return
	}
	holder := req.Holder
	if holder == "" {
		holder = c.GetHeader(HeaderSessionHolder)
	}
	view, err := h.sessions.InitializeSession(c.Request.Context(), storeID, table, holder)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SessionViewResponse{Success: true, SessionView: view})
}

// TerminateSession godoc
// @ID          terminateSession
// @Summary     Force-terminate an open session
// @Description Cancels confirmed items and, for manual termination or expiry, releases the table.
// @Tags        Sessions
// @Accept      json
// @Produce     json
// @Param       storeId      path  int     true  "Store ID"
// @Param       tableNumber  path  int     true  "Table number"
// @Param       sessionId    path  string  true  "Session ID"
// @Param       body         body  handlers.TerminateSessionRequest  false  "Reason"
// @Success     200  {object}  handlers.TerminateSessionResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse
// @Router      /api/pos/stores/{storeId}/table/{tableNumber}/session/{sessionId} [delete]
func (h *Handlers) TerminateSession(c *gin.Context) {
	storeID, table, good := tableParams(c)
	if !good {
		return
	}
	sessionID, good := pathID(c, "sessionId")
	if !good {
		return
	}
	if !h.guard(c, storeID, table) {
		return
	}
	var req TerminateSessionRequest
	if !bindJSON(c, &req, true) {
		return
	}
	if req.Reason == "" {
		req.Reason = c.Query("reason")
	}
	res, err := h.sessions.TerminateSession(c.Request.Context(), storeID, table, sessionID, req.Reason)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, TerminateSessionResponse{Success: true, TerminateResult: res})
}
