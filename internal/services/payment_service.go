// Package services – PaymentService
//
// PaymentService applies full or partial settlements against a table's open
// session. All three payment routes (full, partial, card) go through Settle,
// so overpayment checks, session completion and table release live in one
// place. Mixed tender is a sequence of partial settlements; completion is
// re-evaluated after each one.
//
// An optional idempotency key makes a settlement replay-safe: a repeated key
// for the same table returns the original payment without mutating anything.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-pos-backend/internal/domain"
	"github.com/tbourn/go-pos-backend/internal/realtime"
	"github.com/tbourn/go-pos-backend/internal/repo"
)

// Payment methods.
const (
	MethodCash   = "CASH"
	MethodCard   = "CARD"
	MethodMobile = "MOBILE"
	MethodPoint  = "POINT"
	MethodMixed  = "MIXED"
)

var paymentMethods = map[string]bool{
	MethodCash: true, MethodCard: true, MethodMobile: true, MethodPoint: true, MethodMixed: true,
}

// SettleRequest is the input of Settle. A nil Amount settles the full
// remaining balance.
type SettleRequest struct {
	StoreID        int64
	TableNumber    int
	Method         string
	Amount         *int64
	IdempotencyKey string

	authRef     string
	cardCompany string
	closeOnly   bool // settle only if nothing is outstanding
}

// SettleResult reports a settlement.
type SettleResult struct {
	Payment           *domain.Payment `json:"payment"`
	Session           *domain.Session `json:"session"`
	TotalPaid         int64           `json:"totalPaid"`
	Remaining         int64           `json:"remainingAmount"`
	IsSessionComplete bool            `json:"isSessionComplete"`
	PaymentStatus     string          `json:"paymentStatus"`
	ItemCount         int64           `json:"itemCount"`
	Replayed          bool            `json:"replayed"`
}

// CardPaymentRequest is the input of PayByCard.
type CardPaymentRequest struct {
	StoreID           int64
	TableNumber       int
	Amount            *int64
	Card              CardInput
	InstallmentMonths int
	IdempotencyKey    string
}

// CardPaymentResult is a settlement plus the gateway approval.
type CardPaymentResult struct {
	*SettleResult
	Approval *Approval `json:"vanResponse"`
}

// PaymentStatusResult is the read model of one payment.
type PaymentStatusResult struct {
	Payment       *domain.Payment `json:"payment"`
	SessionStatus string          `json:"sessionStatus"`
	PaymentStatus string          `json:"paymentStatus"`
	Remaining     int64           `json:"remainingAmount"`
}

// RefundResult reports a refund.
type RefundResult struct {
	Payment *domain.Payment `json:"payment"`
	Session *domain.Session `json:"session"`
}

// PaymentService implements settlement, card payments and refunds.
type PaymentService struct {
	DB       *gorm.DB
	Sessions *SessionService
	Gateway  CardGateway
	Notifier realtime.Notifier

	IdempotencyTTL time.Duration

	Now func() time.Time
}

func (s *PaymentService) now() time.Time { return clock(s.Now) }

// IdempotencyScope is the scope under which payment keys are stored.
func IdempotencyScope(storeID int64, tableNumber int) string {
	return fmt.Sprintf("%d:%d", storeID, tableNumber)
}

// Settle records a completed payment against the table's open session.
// Without an amount the whole remaining balance is paid. When the balance
// reaches zero the session is closed, the table and lock released and the
// pending list cleared.
func (s *PaymentService) Settle(ctx context.Context, req SettleRequest) (*SettleResult, error) {
	ctx, span := otel.Tracer("services/PaymentService").Start(ctx, "Settle",
		trace.WithAttributes(
			attribute.Int64("store.id", req.StoreID),
			attribute.Int("table.number", req.TableNumber),
			attribute.String("payment.method", req.Method),
		),
	)
	defer span.End()

	req.Method = strings.ToUpper(strings.TrimSpace(req.Method))
	if req.Method == "" {
		req.Method = MethodCash
	}
	if req.StoreID <= 0 || req.TableNumber <= 0 || !paymentMethods[req.Method] {
		return nil, fmt.Errorf("%w: storeId, tableNumber and a known method are required", ErrInvalidInput)
	}
	if req.Amount != nil && *req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	scope := IdempotencyScope(req.StoreID, req.TableNumber)

	if req.IdempotencyKey != "" {
		if res, err := s.replay(ctx, scope, req.IdempotencyKey); err == nil {
			return res, nil
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}

	var res *SettleResult
	err := s.Sessions.withTableTx(ctx, req.StoreID, req.TableNumber, func(tx *gorm.DB) error {
		r, err := s.settleTx(ctx, tx, req, scope)
		res = r
		return err
	})
	if errors.Is(err, repo.ErrDuplicate) {
		// A concurrent request with the same key won.
		return s.replay(ctx, scope, req.IdempotencyKey)
	}
	if err != nil {
		paymentsTotal.WithLabelValues(req.Method, "rejected").Inc()
		return nil, err
	}

	if res.Payment != nil {
		paymentsTotal.WithLabelValues(req.Method, "completed").Inc()
	}
	s.afterSettle(ctx, req, res)
	return res, nil
}

func (s *PaymentService) settleTx(ctx context.Context, tx *gorm.DB, req SettleRequest, scope string) (*SettleResult, error) {
	open, err := repo.GetOpenSession(ctx, tx, req.StoreID, req.TableNumber)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, err
	}
	sess, err := repo.LockSession(ctx, tx, open.ID)
	if err != nil {
		return nil, err
	}
	if !ValidTransition(ActionPay, sess.Status) {
		return nil, ErrSessionNotOpen
	}

	now := s.now()
	remaining := sess.Remaining()
	if req.closeOnly && remaining > 0 {
		return nil, fmt.Errorf("%w: balance changed to %d", ErrInvalidAmount, remaining)
	}
	if remaining <= 0 && req.Amount == nil {
		// Free or fully canceled orders: close without a tender.
		return s.closeSettled(ctx, tx, sess, now)
	}
	amount := remaining
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount > remaining {
		return nil, fmt.Errorf("%w: %d > %d", ErrOverpayment, amount, remaining)
	}
	settled, err := repo.SumCompletedPayments(ctx, tx, sess.ID)
	if err != nil {
		return nil, err
	}
	if settled+amount > sess.TotalAmount {
		return nil, fmt.Errorf("%w: ledger %d + %d exceeds total %d", ErrOverpayment, settled, amount, sess.TotalAmount)
	}

	p := &domain.Payment{
		ID:          uuid.NewString(),
		SessionID:   sess.ID,
		Method:      req.Method,
		Amount:      amount,
		Status:      domain.PayStatusCompleted,
		AuthRef:     req.authRef,
		CardCompany: req.cardCompany,
		CreatedAt:   now,
		CompletedAt: &now,
	}
	if err := repo.CreatePayment(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := repo.AddSessionPaid(ctx, tx, sess.ID, amount, now); err != nil {
		return nil, err
	}
	sess.PaidAmount += amount

	complete := sess.Remaining() == 0
	if complete {
		if err := s.Sessions.closeTx(ctx, tx, sess, now); err != nil {
			return nil, err
		}
	}
	if req.IdempotencyKey != "" {
		if _, err := repo.CreateIdempotency(ctx, tx, scope, req.IdempotencyKey, p.ID, 200, s.idempotencyTTL()); err != nil {
			return nil, err
		}
	}

	fresh, err := repo.GetSession(ctx, tx, sess.ID)
	if err != nil {
		return nil, err
	}
	count, err := repo.CountActiveItems(ctx, tx, sess.ID)
	if err != nil {
		return nil, err
	}
	return buildSettleResult(p, fresh, count, false), nil
}

// closeSettled closes a session whose balance is already zero. No payment
// row is written.
func (s *PaymentService) closeSettled(ctx context.Context, tx *gorm.DB, sess *domain.Session, now time.Time) (*SettleResult, error) {
	if err := s.Sessions.closeTx(ctx, tx, sess, now); err != nil {
		return nil, err
	}
	fresh, err := repo.GetSession(ctx, tx, sess.ID)
	if err != nil {
		return nil, err
	}
	count, err := repo.CountActiveItems(ctx, tx, sess.ID)
	if err != nil {
		return nil, err
	}
	return buildSettleResult(nil, fresh, count, false), nil
}

func buildSettleResult(p *domain.Payment, sess *domain.Session, itemCount int64, replayed bool) *SettleResult {
	return &SettleResult{
		Payment:           p,
		Session:           sess,
		TotalPaid:         sess.PaidAmount,
		Remaining:         sess.Remaining(),
		IsSessionComplete: sess.Status == domain.StatusClosed,
		PaymentStatus:     sess.PaymentStatus(),
		ItemCount:         itemCount,
		Replayed:          replayed,
	}
}

func (s *PaymentService) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL > 0 {
		return s.IdempotencyTTL
	}
	return 24 * time.Hour
}

// replay returns the stored outcome for (scope, key), or repo.ErrNotFound.
func (s *PaymentService) replay(ctx context.Context, scope, key string) (*SettleResult, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, scope, key, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	p, err := repo.GetPayment(ctx, s.DB, rec.PaymentID)
	if err != nil {
		return nil, err
	}
	sess, err := repo.GetSession(ctx, s.DB, p.SessionID)
	if err != nil {
		return nil, err
	}
	count, err := repo.CountActiveItems(ctx, s.DB, sess.ID)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("payment_id", p.ID).Str("scope", scope).Msg("payment replayed")
	return buildSettleResult(p, sess, count, true), nil
}

func (s *PaymentService) afterSettle(ctx context.Context, req SettleRequest, res *SettleResult) {
	if res.Payment == nil {
		zerolog.Ctx(ctx).Info().
			Str("session_id", res.Session.ID).
			Msg("zero balance session closed")
		sessionsFinished.WithLabelValues(domain.StatusClosed).Inc()
		realtime.Emit(ctx, s.Notifier, realtime.NewEvent(realtime.EventSessionPaymentCompleted, req.StoreID, req.TableNumber, map[string]any{
			"sessionId":   res.Session.ID,
			"totalAmount": res.Session.TotalAmount,
			"paidAmount":  res.TotalPaid,
		}))
		return
	}
	zerolog.Ctx(ctx).Info().
		Str("payment_id", res.Payment.ID).
		Str("session_id", res.Session.ID).
		Str("method", res.Payment.Method).
		Int64("amount", res.Payment.Amount).
		Int64("remaining", res.Remaining).
		Msg("payment completed")

	if res.IsSessionComplete {
		sessionsFinished.WithLabelValues(domain.StatusClosed).Inc()
		realtime.Emit(ctx, s.Notifier, realtime.NewEvent(realtime.EventSessionPaymentCompleted, req.StoreID, req.TableNumber, map[string]any{
			"sessionId":   res.Session.ID,
			"paymentId":   res.Payment.ID,
			"totalAmount": res.Session.TotalAmount,
			"paidAmount":  res.TotalPaid,
		}))
		return
	}
	realtime.Emit(ctx, s.Notifier, realtime.NewEvent(realtime.EventSessionSync, req.StoreID, req.TableNumber, map[string]any{
		"sessionId":       res.Session.ID,
		"paymentId":       res.Payment.ID,
		"paymentStatus":   res.PaymentStatus,
		"remainingAmount": res.Remaining,
	}))
}

// PayByCard validates the card, authorizes it with the gateway and settles
// the authorized amount. If settlement fails after approval the
// authorization is canceled.
func (s *PaymentService) PayByCard(ctx context.Context, req CardPaymentRequest) (*CardPaymentResult, error) {
	ctx, span := otel.Tracer("services/PaymentService").Start(ctx, "PayByCard",
		trace.WithAttributes(
			attribute.Int64("store.id", req.StoreID),
			attribute.Int("table.number", req.TableNumber),
		),
	)
	defer span.End()

	if req.StoreID <= 0 || req.TableNumber <= 0 {
		return nil, ErrInvalidInput
	}
	if req.Amount != nil && *req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if req.InstallmentMonths < 0 || req.InstallmentMonths > 36 {
		return nil, fmt.Errorf("%w: installment months out of range", ErrInvalidInput)
	}
	number, err := ValidateCard(req.Card, s.now())
	if err != nil {
		paymentsTotal.WithLabelValues(MethodCard, "invalid_card").Inc()
		return nil, err
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		if res, err := s.replay(ctx, IdempotencyScope(req.StoreID, req.TableNumber), key); err == nil {
			return &CardPaymentResult{SettleResult: res, Approval: approvalFromPayment(res.Payment)}, nil
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}

	amount := int64(0)
	if req.Amount != nil {
		amount = *req.Amount
	} else {
		open, err := repo.GetOpenSession(ctx, s.DB, req.StoreID, req.TableNumber)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNoActiveSession
		}
		if err != nil {
			return nil, err
		}
		if amount = open.Remaining(); amount <= 0 {
			// Nothing to authorize; close the session like a cash settle.
			res, err := s.Settle(ctx, SettleRequest{StoreID: req.StoreID, TableNumber: req.TableNumber, Method: MethodCard, closeOnly: true})
			if err != nil {
				return nil, err
			}
			return &CardPaymentResult{SettleResult: res}, nil
		}
	}

	gw := s.Gateway
	if gw == nil {
		gw = &SimulatedGateway{Now: s.Now}
	}
	approval, err := gw.Authorize(ctx, CardAuthorization{
		Number:            number,
		Expiry:            req.Card.Expiry,
		Amount:            amount,
		InstallmentMonths: req.InstallmentMonths,
	})
	if err != nil {
		var d *DeclineError
		if errors.As(err, &d) {
			paymentsTotal.WithLabelValues(MethodCard, "declined").Inc()
		}
		return nil, err
	}

	res, err := s.Settle(ctx, SettleRequest{
		StoreID:        req.StoreID,
		TableNumber:    req.TableNumber,
		Method:         MethodCard,
		Amount:         &amount,
		IdempotencyKey: key,
		authRef:        approval.TransactionID,
		cardCompany:    approval.CardCompany,
	})
	if err != nil {
		if cerr := gw.Cancel(ctx, approval.TransactionID); cerr != nil {
			zerolog.Ctx(ctx).Error().Err(cerr).Str("transaction_id", approval.TransactionID).Msg("authorization cancel failed")
		}
		return nil, err
	}
	if res.Replayed {
		return &CardPaymentResult{SettleResult: res, Approval: approvalFromPayment(res.Payment)}, nil
	}

	realtime.Emit(ctx, s.Notifier, realtime.NewEvent(realtime.EventCardPaymentCompleted, req.StoreID, req.TableNumber, map[string]any{
		"paymentId":      res.Payment.ID,
		"sessionId":      res.Session.ID,
		"amount":         res.Payment.Amount,
		"approvalNumber": approval.ApprovalNumber,
		"cardCompany":    approval.CardCompany,
	}))
	return &CardPaymentResult{SettleResult: res, Approval: approval}, nil
}

func approvalFromPayment(p *domain.Payment) *Approval {
	a := &Approval{TransactionID: p.AuthRef, CardCompany: p.CardCompany}
	if p.CompletedAt != nil {
		a.ApprovedAt = *p.CompletedAt
	}
	return a
}

// PaymentStatus returns a payment and the payment state of its session.
func (s *PaymentService) PaymentStatus(ctx context.Context, paymentID string) (*PaymentStatusResult, error) {
	p, err := repo.GetPayment(ctx, s.DB, strings.TrimSpace(paymentID))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	sess, err := repo.GetSession(ctx, s.DB, p.SessionID)
	if err != nil {
		return nil, err
	}
	return &PaymentStatusResult{
		Payment:       p,
		SessionStatus: sess.Status,
		PaymentStatus: sess.PaymentStatus(),
		Remaining:     sess.Remaining(),
	}, nil
}

// Refund fully refunds a completed payment. If amount is non-nil it must
// equal the payment amount. When the session is still open its paid amount
// is reduced; a closed session keeps its ledger and the refund is recorded
// on the payment only.
func (s *PaymentService) Refund(ctx context.Context, paymentID string, amount *int64, reason string) (*RefundResult, error) {
	ctx, span := otel.Tracer("services/PaymentService").Start(ctx, "Refund",
		trace.WithAttributes(attribute.String("payment.id", paymentID)),
	)
	defer span.End()

	p, err := repo.GetPayment(ctx, s.DB, strings.TrimSpace(paymentID))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if amount != nil && *amount != p.Amount {
		return nil, fmt.Errorf("%w: only full refunds are supported", ErrInvalidAmount)
	}
	sess, err := repo.GetSession(ctx, s.DB, p.SessionID)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > 255 {
		reason = reason[:255]
	}

	out := &RefundResult{}
	err = s.Sessions.withTableTx(ctx, sess.StoreID, sess.TableNumber, func(tx *gorm.DB) error {
		locked, err := repo.LockPayment(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		if locked.Status != domain.PayStatusCompleted {
			return fmt.Errorf("%w: payment is %s", ErrInvalidTransition, locked.Status)
		}
		now := s.now()
		if err := repo.MarkPaymentRefunded(ctx, tx, locked.ID, reason, now); err != nil {
			return err
		}
		cur, err := repo.LockSession(ctx, tx, locked.SessionID)
		if err != nil {
			return err
		}
		if cur.Status == domain.StatusOpen {
			if err := repo.AddSessionPaid(ctx, tx, cur.ID, -locked.Amount, now); err != nil {
				return err
			}
		}
		if out.Payment, err = repo.GetPayment(ctx, tx, locked.ID); err != nil {
			return err
		}
		out.Session, err = repo.GetSession(ctx, tx, cur.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if out.Payment.Method == MethodCard && out.Payment.AuthRef != "" && s.Gateway != nil {
		if err := s.Gateway.Cancel(ctx, out.Payment.AuthRef); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("payment_id", out.Payment.ID).Msg("gateway cancel failed after refund")
		}
	}
	paymentsTotal.WithLabelValues(out.Payment.Method, "refunded").Inc()
	realtime.Emit(ctx, s.Notifier, realtime.NewEvent(realtime.EventPaymentRefunded, sess.StoreID, sess.TableNumber, map[string]any{
		"paymentId": out.Payment.ID,
		"sessionId": out.Session.ID,
		"amount":    out.Payment.Amount,
	}))
	return out, nil
}
