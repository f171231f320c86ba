// Package services defines the business logic of the table-session lifecycle:
// advisory locks, the session state machine, order consolidation, payments
// and guest reconciliation. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
	"time"
)

// Validation errors.
var (
	// ErrInvalidInput covers missing store/table ids, empty item lists and
	// malformed item lines.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidAmount is returned for non-positive payment amounts and for a
	// totalAmount that does not match the submitted items.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidCard is the parent of every *CardError.
	ErrInvalidCard = errors.New("invalid card")
)

// Conflict errors.
var (
	// ErrLockHeld is the parent of *LockConflictError.
	ErrLockHeld = errors.New("table is locked by another terminal")

	// ErrSessionNotOpen indicates the session already reached a terminal state.
	ErrSessionNotOpen = errors.New("session is not open")

	// ErrOverpayment is returned when amount exceeds the remaining balance.
	ErrOverpayment = errors.New("amount exceeds remaining balance")

	// ErrInvalidTransition is returned for a disallowed status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrBelowPaid is returned when canceling an item would leave the session
	// total below what has already been paid.
	ErrBelowPaid = errors.New("cancel would drop total below paid amount")
)

// Not-found errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoActiveSession = errors.New("no active session for table")
	ErrItemNotFound    = errors.New("item not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrGuestNotFound   = errors.New("guest not found")
)

// Card validation codes.
const (
	CodeInvalidCardFormat = "INVALID_CARD_FORMAT"
	CodeInvalidExpiry     = "INVALID_EXPIRY"
	CodeInvalidCVC        = "INVALID_CVC"
)

// Gateway decline codes.
const (
	CodeCardDeclined      = "CARD_DECLINED"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeExpiredCard       = "EXPIRED_CARD"
	CodeLimitExceeded     = "LIMIT_EXCEEDED"
)

// CardError is a card validation failure detected before the gateway is
// contacted.
type CardError struct {
	Code    string
	Message string
}

func (e *CardError) Error() string { return e.Message }

// Unwrap lets errors.Is(err, ErrInvalidCard) match.
func (e *CardError) Unwrap() error { return ErrInvalidCard }

// DeclineError is a structured business error returned by the card gateway.
type DeclineError struct {
	Code    string
	Message string
}

func (e *DeclineError) Error() string { return fmt.Sprintf("card declined: %s", e.Code) }

// LockConflictError reports the live holder of a table lock.
type LockConflictError struct {
	Holder    string
	ExpiresAt time.Time
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("table is locked by %s until %s", e.Holder, e.ExpiresAt.Format(time.RFC3339))
}

// Unwrap lets errors.Is(err, ErrLockHeld) match.
func (e *LockConflictError) Unwrap() error { return ErrLockHeld }
