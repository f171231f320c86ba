// Package services – OrderService
//
// OrderService implements the order consolidation engine: single-item smart
// add into an open session, the per-table pending (draft) list, confirmation
// of the pending list into the session, and kitchen status changes on
// confirmed items.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-pos-backend/internal/domain"
	"github.com/tbourn/go-pos-backend/internal/realtime"
	"github.com/tbourn/go-pos-backend/internal/repo"
)

// AddItemResult is the outcome of AddItemToSession.
type AddItemResult struct {
	Action   string             `json:"action"`
	NewTotal int64              `json:"newTotal"`
	Item     domain.SessionItem `json:"item"`
	Session  *domain.Session    `json:"-"`
}

// ConfirmResult is the outcome of ConfirmPendingOrder.
type ConfirmResult struct {
	*OrderResult
	OriginalCount     int `json:"originalCount"`
	ConsolidatedCount int `json:"consolidatedCount"`
}

// ItemStatusResult is the outcome of UpdateItemStatus.
type ItemStatusResult struct {
	Item    domain.SessionItem `json:"item"`
	Session *domain.Session    `json:"session"`
	Closed  bool               `json:"sessionClosed"`
}

// OrderService implements item-level operations.
type OrderService struct {
	DB       *gorm.DB
	Sessions *SessionService
	Notifier realtime.Notifier

	Now func() time.Time
}

func (s *OrderService) now() time.Time { return clock(s.Now) }

// AddItemToSession merges one item into an open session. If a non-canceled
// row with the same normalized name and unit price exists its quantity is
// incremented, otherwise a new row is inserted. The session total grows by
// the item amount in the same transaction.
func (s *OrderService) AddItemToSession(ctx context.Context, sessionID string, item domain.LineInput) (*AddItemResult, error) {
	ctx, span := otel.Tracer("services/OrderService").Start(ctx, "AddItemToSession",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	lines, amount, err := normalizeLines([]domain.LineInput{item})
	if err != nil {
		return nil, err
	}
	sess, err := repo.GetSession(ctx, s.DB, strings.TrimSpace(sessionID))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if sess.Status != domain.StatusOpen {
		return nil, fmt.Errorf("%w: session is %s", ErrSessionNotFound, sess.Status)
	}

	var out *AddItemResult
	err = s.Sessions.withTableTx(ctx, sess.StoreID, sess.TableNumber, func(tx *gorm.DB) error {
		locked, err := repo.LockSession(ctx, tx, sess.ID)
		if err != nil {
			return err
		}
		if !ValidTransition(ActionAppend, locked.Status) {
			return fmt.Errorf("%w: session is %s", ErrSessionNotFound, locked.Status)
		}
		now := s.now()
		items, actions, err := appendLines(ctx, tx, locked.ID, lines, now)
		if err != nil {
			return err
		}
		if err := repo.AddSessionTotal(ctx, tx, locked.ID, amount, now); err != nil {
			return err
		}
		fresh, err := repo.GetSession(ctx, tx, locked.ID)
		if err != nil {
			return err
		}
		out = &AddItemResult{Action: actions[0], NewTotal: fresh.TotalAmount, Item: items[0], Session: fresh}
		return nil
	})
	if err != nil {
		return nil, err
	}

	realtime.Emit(ctx, s.Notifier, realtime.NewEvent(realtime.EventOrderUpdate, sess.StoreID, sess.TableNumber, map[string]any{
		"sessionId":   sess.ID,
		"action":      out.Action,
		"itemId":      out.Item.ID,
		"totalAmount": out.NewTotal,
	}))
	return out, nil
}

// ListPending returns the table's pending items.
func (s *OrderService) ListPending(ctx context.Context, storeID int64, tableNumber int) ([]domain.PendingItem, error) {
	if storeID <= 0 || tableNumber <= 0 {
		return nil, ErrInvalidInput
	}
	return repo.ListPendingItems(ctx, s.DB, storeID, tableNumber)
}

// AddPending stores a draft line for the table. Pending items never touch
// session totals.
func (s *OrderService) AddPending(ctx context.Context, storeID int64, tableNumber int, item domain.LineInput) (*domain.PendingItem, error) {
	ctx, span := otel.Tracer("services/OrderService").Start(ctx, "AddPending",
		trace.WithAttributes(
			attribute.Int64("store.id", storeID),
			attribute.Int("table.number", tableNumber),
		),
	)
	defer span.End()

	if storeID <= 0 || tableNumber <= 0 {
		return nil, ErrInvalidInput
	}
	lines, _, err := normalizeLines([]domain.LineInput{item})
	if err != nil {
		return nil, err
	}
	l, now := lines[0], s.now()
	p := &domain.PendingItem{
		ID:          uuid.NewString(),
		StoreID:     storeID,
		TableNumber: tableNumber,
		Name:        l.Name,
		UnitPrice:   l.UnitPrice,
		Quantity:    l.Quantity,
		Discount:    l.Discount,
		Notes:       l.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.CreatePendingItem(ctx, s.DB, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePending changes quantity and discount of a draft line.
func (s *OrderService) UpdatePending(ctx context.Context, storeID int64, tableNumber int, id string, qty int, discount int64) (*domain.PendingItem, error) {
	if storeID <= 0 || tableNumber <= 0 || qty <= 0 || discount < 0 {
		return nil, ErrInvalidInput
	}
	p, err := repo.GetPendingItem(ctx, s.DB, storeID, tableNumber, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	if discount > p.UnitPrice*int64(qty) {
		return nil, fmt.Errorf("%w: discount out of range", ErrInvalidInput)
	}
	now := s.now()
	if err := repo.UpdatePendingItem(ctx, s.DB, storeID, tableNumber, id, qty, discount, now); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	p.Quantity, p.Discount, p.UpdatedAt = qty, discount, now
	return p, nil
}

// RemovePending deletes one draft line.
func (s *OrderService) RemovePending(ctx context.Context, storeID int64, tableNumber int, id string) error {
	err := repo.DeletePendingItem(ctx, s.DB, storeID, tableNumber, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrItemNotFound
	}
	return err
}

// ClearPending deletes every draft line of the table.
func (s *OrderService) ClearPending(ctx context.Context, storeID int64, tableNumber int) (int64, error) {
	if storeID <= 0 || tableNumber <= 0 {
		return 0, ErrInvalidInput
	}
	return repo.ClearPendingItems(ctx, s.DB, storeID, tableNumber)
}

// ConfirmPendingOrder commits the table's drafts: they are consolidated by
// (name, price, discount), appended as one batch to the open session (opening
// one if needed) and deleted, all in one transaction. A failure leaves the
// drafts in place.
func (s *OrderService) ConfirmPendingOrder(ctx context.Context, storeID int64, tableNumber int, source string) (*ConfirmResult, error) {
	ctx, span := otel.Tracer("services/OrderService").Start(ctx, "ConfirmPendingOrder",
		trace.WithAttributes(
			attribute.Int64("store.id", storeID),
			attribute.Int("table.number", tableNumber),
		),
	)
	defer span.End()

	if storeID <= 0 || tableNumber <= 0 {
		return nil, ErrInvalidInput
	}

	var (
		out *ConfirmResult
		req OrderRequest
	)
	err := s.Sessions.withTableTx(ctx, storeID, tableNumber, func(tx *gorm.DB) error {
		pending, err := repo.ListPendingItems(ctx, tx, storeID, tableNumber)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return fmt.Errorf("%w: no pending items", ErrInvalidInput)
		}
		batch := ConsolidateBatch(pending)
		req, err = s.Sessions.normalizeOrder(OrderRequest{
			StoreID:     storeID,
			TableNumber: tableNumber,
			Items:       batch,
			Source:      source,
		})
		if err != nil {
			return err
		}
		res, err := s.Sessions.openOrAppendTx(ctx, tx, req)
		if err != nil {
			return err
		}
		if _, err := repo.ClearPendingItems(ctx, tx, storeID, tableNumber); err != nil {
			return err
		}
		out = &ConfirmResult{OrderResult: res, OriginalCount: len(pending), ConsolidatedCount: len(batch)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Sessions.afterOrder(ctx, req, out.OrderResult)
	return out, nil
}

// UpdateItemStatus moves a confirmed item along the kitchen flow or cancels
// it. Canceling subtracts the line amount from the session total and is
// refused on closed sessions or when the total would fall below what has been
// paid. A cancel that leaves nothing outstanding closes the session, paid
// or not.
func (s *OrderService) UpdateItemStatus(ctx context.Context, itemID, status string) (*ItemStatusResult, error) {
	ctx, span := otel.Tracer("services/OrderService").Start(ctx, "UpdateItemStatus",
		trace.WithAttributes(
			attribute.String("item.id", itemID),
			attribute.String("status", status),
		),
	)
	defer span.End()

	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case domain.CookPreparing, domain.CookReady, domain.CookServed, domain.CookCanceled:
	default:
		return nil, fmt.Errorf("%w: unknown item status %q", ErrInvalidInput, status)
	}

	it, err := repo.GetSessionItem(ctx, s.DB, itemID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	sess, err := repo.GetSession(ctx, s.DB, it.SessionID)
	if err != nil {
		return nil, err
	}

	out := &ItemStatusResult{}
	err = s.Sessions.withTableTx(ctx, sess.StoreID, sess.TableNumber, func(tx *gorm.DB) error {
		locked, err := repo.LockSessionItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if !ValidCookTransition(locked.CookStatus, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, locked.CookStatus, status)
		}
		cur, err := repo.LockSession(ctx, tx, locked.SessionID)
		if err != nil {
			return err
		}
		now := s.now()
		if status == domain.CookCanceled {
			if !ValidTransition(ActionCancel, cur.Status) {
				return ErrSessionNotOpen
			}
			line := locked.LineTotal()
			if cur.TotalAmount-line < cur.PaidAmount {
				return ErrBelowPaid
			}
			if err := repo.AddSessionTotal(ctx, tx, cur.ID, -line, now); err != nil {
				return err
			}
		}
		if err := repo.SetCookStatus(ctx, tx, locked.ID, status, now); err != nil {
			return err
		}
		locked.CookStatus, locked.UpdatedAt = status, now

		fresh, err := repo.GetSession(ctx, tx, cur.ID)
		if err != nil {
			return err
		}
		if status == domain.CookCanceled && fresh.Remaining() <= 0 {
			if err := s.Sessions.closeTx(ctx, tx, fresh, now); err != nil {
				return err
			}
			if fresh, err = repo.GetSession(ctx, tx, cur.ID); err != nil {
				return err
			}
			out.Closed = true
		}
		out.Item, out.Session = *locked, fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Closed {
		sessionsFinished.WithLabelValues(domain.StatusClosed).Inc()
	}
	realtime.Emit(ctx, s.Notifier, realtime.NewEvent(realtime.EventOrderUpdate, sess.StoreID, sess.TableNumber, map[string]any{
		"sessionId":   sess.ID,
		"itemId":      out.Item.ID,
		"cookStatus":  out.Item.CookStatus,
		"totalAmount": out.Session.TotalAmount,
	}))
	return out, nil
}
