// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and give clients a stable, machine-readable
// taxonomy alongside the human-readable message. Card failures additionally
// carry the gateway's uppercase errorCode (e.g. CARD_DECLINED).
//
// Example response:
//
//	{
//	  "success": false,
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "card_declined",
//	  "message": "card declined: INSUFFICIENT_FUNDS",
//	  "errorCode": "INSUFFICIENT_FUNDS"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInvalidAmount     = "invalid_amount"
	ErrCodeOverpayment       = "overpayment"
	ErrCodeInvalidCard       = "invalid_card"
	ErrCodeCardDeclined      = "card_declined"
	ErrCodeLockHeld          = "lock_held"
	ErrCodeSessionNotOpen    = "session_not_open"
	ErrCodeNoActiveSession   = "no_active_session"
	ErrCodeInvalidTransition = "invalid_transition"
)
