// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the request ID injector, the request-scoped logger and a
// panic-safe recovery handler.
//
//   - RequestID() reuses or generates X-Request-ID and stores it in the context.
//   - attachLogger() builds a zerolog.Logger carrying the request ID, route and
//     terminal, stores it under the "logger" key and on the request context so
//     services can log through zerolog.Ctx(ctx).
//   - Recovery() converts panics into JSON 500 responses.
//   - LoggerFrom() retrieves the request-scoped logger inside handlers.
//
// Recommended order: RequestID, RedactingLogger, Recovery.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	// holderHeader names the POS terminal or TLL client issuing the request.
	holderHeader = "X-Session-Holder"
	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048
)

// RequestID attaches (or propagates) a correlation identifier per request.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// attachLogger derives the request-scoped logger from the global one and
// makes it reachable from both the Gin context and the request context.
func attachLogger(c *gin.Context) *zerolog.Logger {
	rid, _ := c.Get(requestIDKey)
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	ctx := log.With().
		Str("request_id", asString(rid)).
		Str("method", c.Request.Method).
		Str("path", path)
	if store := c.Param("storeId"); store != "" {
		ctx = ctx.Str("store_id", store)
	}
	if table := c.Param("tableNumber"); table != "" {
		ctx = ctx.Str("table_number", table)
	}
	if holder := c.GetHeader(holderHeader); holder != "" {
		ctx = ctx.Str("holder", truncate(holder, 64))
	}
	l := ctx.Logger()

	c.Set("logger", &l)
	c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
	return &l
}

// Recovery intercepts panics, logs a stack trace, and returns a JSON 500
// error with the request ID.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid, _ := c.Get(requestIDKey)
				LoggerFrom(c).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", asString(rid)).
					Msg("panic recovered")

				if !c.Writer.Written() {
					c.Header(requestIDHeader, asString(rid))
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"success":    false,
						"request_id": asString(rid),
						"code":       "internal_error",
						"message":    "internal server error",
					})
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger, or a fallback derived
// from the global logger. Callers never need a nil check.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get("logger"); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate cuts s to max bytes and appends an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
