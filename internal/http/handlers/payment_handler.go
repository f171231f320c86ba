// Payment HTTP handlers.
//
// Every payment route funnels into PaymentService.Settle; they differ only in
// defaults and response shape. An optional Idempotency-Key makes a retried
// request return the original payment instead of charging twice.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-pos-backend/internal/http/middleware"
	"github.com/tbourn/go-pos-backend/internal/services"
)

//
// DTOs
//

// PaymentRequest is the JSON payload of payment and payment-partial.
type PaymentRequest struct {
	// PaymentMethod is CASH, CARD, MOBILE, POINT or MIXED; defaults to CASH.
	PaymentMethod string `json:"paymentMethod" example:"CASH"`
	// Amount is optional on /payment (full remaining) and required on
	// /payment-partial.
	Amount *int64 `json:"amount" example:"5000"`
}

// PaymentResponse is the body of the full payment route.
type PaymentResponse struct {
	Success           bool   `json:"success" example:"true"`
	SessionID         string `json:"sessionId"`
	PaidOrderID       string `json:"paidOrderId"`
	TotalAmount       int64  `json:"totalAmount"`
	ItemCount         int64  `json:"itemCount"`
	TotalPaid         int64  `json:"totalPaid"`
	RemainingAmount   int64  `json:"remainingAmount"`
	IsSessionComplete bool   `json:"isSessionComplete"`
	PaymentStatus     string `json:"paymentStatus"`
	Replayed          bool   `json:"replayed"`
}

// PartialPaymentResponse is the body of payment-partial.
type PartialPaymentResponse struct {
	Success bool `json:"success" example:"true"`
	*services.SettleResult
}

// CardPaymentRequest is the JSON payload of card-payment.
type CardPaymentRequest struct {
	CardNumber        string `json:"cardNumber" example:"4111 1111 1111 1111"`
	ExpiryDate        string `json:"expiryDate" example:"12/29"`
	CVC               string `json:"cvc" example:"123"`
	Amount            *int64 `json:"amount" example:"9000"`
	InstallmentMonths int    `json:"installmentMonths" example:"0"`
}

// CardPaymentResponse is the body of card-payment.
type CardPaymentResponse struct {
	Success bool `json:"success" example:"true"`
	*services.CardPaymentResult
}

// PaymentStatusResponse is the body of GET payments/{paymentId}/status.
type PaymentStatusResponse struct {
	Success bool `json:"success" example:"true"`
	*services.PaymentStatusResult
}

// RefundRequest is the JSON payload of payments/{paymentId}/refund.
type RefundRequest struct {
	// Amount must equal the payment amount when set; partial refunds are not supported.
	Amount *int64 `json:"amount"`
	Reason string `json:"reason" example:"customer request"`
}

// RefundResponse is the body of payments/{paymentId}/refund.
type RefundResponse struct {
	Success bool `json:"success" example:"true"`
	*services.RefundResult
}

func idempotencyKey(c *gin.Context) string {
	k, _ := middleware.GetIdempotencyKey(c)
	return k
}

//
// Handlers
//

// Payment godoc
// @ID          payTable
// @Summary     Settle a table
// @Description Settles the remaining balance (or amount when given). Completing the balance closes the session and releases the table.
// @Tags        Payments
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key   header  string  false  "Replays the original payment when repeated"
// @Param       X-Session-Holder  header  string  false  "Terminal id checked against the table lock"
// @Param       storeId      path  int  true  "Store ID"
// @Param       tableNumber  path  int  true  "Table number"
// @Param       body         body  handlers.PaymentRequest  false  "Method and optional amount"
// @Success     200  {object}  handlers.PaymentResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid amount or no active session"
// @Failure     409  {object}  handlers.ErrorResponse
// @Router      /api/pos/stores/{storeId}/table/{tableNumber}/payment [post]
func (h *Handlers) Payment(c *gin.Context) {
	storeID, table, good := tableParams(c)
	if !good {
		return
	}
	if !h.guard(c, storeID, table) {
		return
	}
	var req PaymentRequest
	if !bindJSON(c, &req, true) {
		return
	}
	res, err := h.payments.Settle(c.Request.Context(), services.SettleRequest{
		StoreID:        storeID,
		TableNumber:    table,
		Method:         strings.ToUpper(strings.TrimSpace(req.PaymentMethod)),
		Amount:         req.Amount,
		IdempotencyKey: idempotencyKey(c),
	})
	if errors.Is(err, services.ErrNoActiveSession) {
		fail(c, http.StatusBadRequest, ErrCodeNoActiveSession, err.Error())
		return
	}
	if err != nil {
		failErr(c, err)
		return
	}

	out := PaymentResponse{
		Success:           true,
		TotalPaid:         res.TotalPaid,
		RemainingAmount:   res.Remaining,
		IsSessionComplete: res.IsSessionComplete,
		PaymentStatus:     res.PaymentStatus,
		ItemCount:         res.ItemCount,
		Replayed:          res.Replayed,
	}
	if res.Session != nil {
		out.SessionID = res.Session.ID
		out.TotalAmount = res.Session.TotalAmount
	}
	if res.Payment != nil {
		out.PaidOrderID = res.Payment.ID
	}
	ok(c, http.StatusOK, out)
}

// PartialPayment godoc
// @ID          payTablePartial
// @Summary     Pay part of a table's balance
// @Description Records one tender of a split or mixed payment; the session closes when the running balance reaches zero.
// @Tags        Payments
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key   header  string  false  "Replays the original payment when repeated"
// @Param       X-Session-Holder  header  string  false  "Terminal id checked against the table lock"
// @Param       storeId      path  int  true  "Store ID"
// @Param       tableNumber  path  int  true  "Table number"
// @Param       body         body  handlers.PaymentRequest  true  "Method and amount"
// @Success     200  {object}  handlers.PartialPaymentResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid amount or over-payment"
// @Failure     404  {object}  handlers.ErrorResponse  "No active session"
// @Router      /api/pos/stores/{storeId}/table/{tableNumber}/payment-partial [post]
func (h *Handlers) PartialPayment(c *gin.Context) {
	storeID, table, good := tableParams(c)
	if !good {
		return
	}
	if !h.guard(c, storeID, table) {
		return
	}
	var req PaymentRequest
	if !bindJSON(c, &req, false) {
		return
	}
	if req.Amount == nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidAmount, "amount is required")
		return
	}
	res, err := h.payments.Settle(c.Request.Context(), services.SettleRequest{
		StoreID:        storeID,
		TableNumber:    table,
		Method:         strings.ToUpper(strings.TrimSpace(req.PaymentMethod)),
		Amount:         req.Amount,
		IdempotencyKey: idempotencyKey(c),
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, PartialPaymentResponse{Success: true, SettleResult: res})
}

// CardPayment godoc
// @ID          payTableByCard
// @Summary     Pay by card through the simulated gateway
// @Description Validates the card (Luhn, expiry, CVC), authorizes it and settles. Validation failures and declines return 400 with errorCode.
// @Tags        Payments
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key   header  string  false  "Replays the original payment when repeated"
// @Param       X-Session-Holder  header  string  false  "Terminal id checked against the table lock"
// @Param       storeId      path  int  true  "Store ID"
// @Param       tableNumber  path  int  true  "Table number"
// @Param       body         body  handlers.CardPaymentRequest  true  "Card"
// @Success     200  {object}  handlers.CardPaymentResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid card or declined"
// @Failure     404  {object}  handlers.ErrorResponse  "No active session"
// @Router      /api/pos/stores/{storeId}/table/{tableNumber}/card-payment [post]
func (h *Handlers) CardPayment(c *gin.Context) {
	storeID, table, good := tableParams(c)
	if !good {
		return
	}
	if !h.guard(c, storeID, table) {
		return
	}
	var req CardPaymentRequest
	if !bindJSON(c, &req, false) {
		return
	}
	res, err := h.payments.PayByCard(c.Request.Context(), services.CardPaymentRequest{
		StoreID:     storeID,
		TableNumber: table,
		Amount:      req.Amount,
		Card: services.CardInput{
			Number: req.CardNumber,
			Expiry: req.ExpiryDate,
			CVC:    req.CVC,
		},
		InstallmentMonths: req.InstallmentMonths,
		IdempotencyKey:    idempotencyKey(c),
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, CardPaymentResponse{Success: true, CardPaymentResult: res})
}

// PaymentStatus godoc
// @ID          getPaymentStatus
// @Summary     Read one payment and its session balance
// @Tags        Payments
// @Produce     json
// @Param       paymentId  path  string  true  "Payment ID"
// @Success     200  {object}  handlers.PaymentStatusResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /api/pos/payments/{paymentId}/status [get]
func (h *Handlers) PaymentStatus(c *gin.Context) {
	id, good := pathID(c, "paymentId")
	if !good {
		return
	}
	res, err := h.payments.PaymentStatus(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, PaymentStatusResponse{Success: true, PaymentStatusResult: res})
}

// RefundPayment godoc
// @ID          refundPayment
// @Summary     Refund a completed payment in full
// @Tags        Payments
// @Accept      json
// @Produce     json
// @Param       paymentId  path  string  true  "Payment ID"
// @Param       body       body  handlers.RefundRequest  false  "Reason"
// @Success     200  {object}  handlers.RefundResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse  "Payment not refundable"
// @Router      /api/pos/payments/{paymentId}/refund [post]
func (h *Handlers) RefundPayment(c *gin.Context) {
	id, good := pathID(c, "paymentId")
	if !good {
		return
	}
	var req RefundRequest
	if !bindJSON(c, &req, true) {
		return
	}
	res, err := h.payments.Refund(c.Request.Context(), id, req.Amount, req.Reason)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, RefundResponse{Success: true, RefundResult: res})
}
