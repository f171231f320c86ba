// Package realtime broadcasts table, session and payment events to other
// terminals (kitchen displays, other POS stations). Delivery is
// fire-and-forget: a failed publish is logged and never fails the request
// that produced the event.
package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Event types.
const (
	EventOrderUpdate             = "order-update"
	EventSessionSync             = "session-sync"
	EventSessionTerminated       = "session-terminated"
	EventSessionPaymentCompleted = "session-payment-completed"
	EventCardPaymentCompleted    = "card-payment-completed"
	EventPaymentRefunded         = "payment-refunded"
)

// Event is one broadcast message.
type Event struct {
	Type        string         `json:"type"`
	StoreID     int64          `json:"storeId"`
	TableNumber int            `json:"tableNumber"`
	Timestamp   time.Time      `json:"timestamp"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// NewEvent stamps an event with the current UTC time.
func NewEvent(typ string, storeID int64, tableNumber int, payload map[string]any) Event {
	return Event{Type: typ, StoreID: storeID, TableNumber: tableNumber, Timestamp: time.Now().UTC(), Payload: payload}
}

// Notifier publishes events to some transport.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Notifier.
func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

// Publish implements Notifier.
func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Emit publishes ev and swallows any error after logging it at warn level
// with the logger carried by ctx.
func Emit(ctx context.Context, n Notifier, ev Event) {
	if n == nil {
		return
	}
	if err := n.Publish(ctx, ev); err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("event", ev.Type).
			Int64("store_id", ev.StoreID).
			Int("table_number", ev.TableNumber).
			Msg("realtime publish failed")
	}
}
