// Package handlers provides HTTP handler implementations for the POS API.
//
// This file defines the standard response utilities used across all
// endpoints: the error envelope, the central translation of service errors
// into HTTP statuses, and the success writer.
//
// Conventions:
//   - Every body carries "success". Errors use ErrorResponse with a stable code.
//   - fail() centralizes error formatting and logs 5xx with request context.
//   - failErr() maps service sentinels so handlers never switch on errors.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "success": false,
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "session not found"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-pos-backend/internal/http/middleware"
	"github.com/tbourn/go-pos-backend/internal/repo"
	"github.com/tbourn/go-pos-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Always false
	Success bool `json:"success" example:"false"`
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"session not found"`
	// Card validation or gateway decline code, card routes only
	ErrorCode string `json:"errorCode,omitempty" example:"CARD_DECLINED"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	failWith(c, status, ErrorResponse{Code: code, Message: msg})
}

func failWith(c *gin.Context, status int, resp ErrorResponse) {
	resp.Success = false
	resp.RequestID = c.Writer.Header().Get("X-Request-ID")

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", resp.Code).
			Str("message", resp.Message).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// mapServiceError translates a service error into status and envelope.
// Unknown errors become a generic 500; the cause is logged, never returned.
func mapServiceError(err error) (int, ErrorResponse) {
	var (
		cardErr    *services.CardError
		declineErr *services.DeclineError
		lockErr    *services.LockConflictError
	)
	switch {
	case errors.As(err, &cardErr):
		return http.StatusBadRequest, ErrorResponse{Code: ErrCodeInvalidCard, Message: cardErr.Message, ErrorCode: cardErr.Code}
	case errors.As(err, &declineErr):
		msg := declineErr.Message
		if msg == "" {
			msg = declineErr.Error()
		}
		return http.StatusBadRequest, ErrorResponse{Code: ErrCodeCardDeclined, Message: msg, ErrorCode: declineErr.Code}
	case errors.As(err, &lockErr):
		return http.StatusConflict, ErrorResponse{Code: ErrCodeLockHeld, Message: lockErr.Error()}

	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, ErrorResponse{Code: ErrCodeBadRequest, Message: err.Error()}
	case errors.Is(err, services.ErrInvalidAmount):
		return http.StatusBadRequest, ErrorResponse{Code: ErrCodeInvalidAmount, Message: err.Error()}
	case errors.Is(err, services.ErrOverpayment):
		return http.StatusBadRequest, ErrorResponse{Code: ErrCodeOverpayment, Message: err.Error()}

	case errors.Is(err, services.ErrLockHeld):
		return http.StatusConflict, ErrorResponse{Code: ErrCodeLockHeld, Message: err.Error()}
	case errors.Is(err, services.ErrSessionNotOpen):
		return http.StatusConflict, ErrorResponse{Code: ErrCodeSessionNotOpen, Message: err.Error()}
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrBelowPaid):
		return http.StatusConflict, ErrorResponse{Code: ErrCodeInvalidTransition, Message: err.Error()}

	case errors.Is(err, services.ErrNoActiveSession):
		return http.StatusNotFound, ErrorResponse{Code: ErrCodeNoActiveSession, Message: err.Error()}
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrPaymentNotFound),
		errors.Is(err, services.ErrGuestNotFound),
		errors.Is(err, repo.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Code: ErrCodeNotFound, Message: err.Error()}
	}
	return http.StatusInternalServerError, ErrorResponse{Code: ErrCodeInternal, Message: "internal server error"}
}

// failErr writes the mapped envelope for a service error.
func failErr(c *gin.Context, err error) {
	status, resp := mapServiceError(err)
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().Err(err).Msg("service error")
	}
	failWith(c, status, resp)
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
