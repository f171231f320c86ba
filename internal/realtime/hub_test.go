package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

func recv(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case b := <-c.Send:
		var ev Event
		if err := json.Unmarshal(b, &ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for event")
	}
	return Event{}
}

func TestHub_FiltersByStore(t *testing.T) {
	h := NewHub(4)
	s1 := h.Subscribe(1)
	s2 := h.Subscribe(2)
	all := h.Subscribe(0)
	if h.Clients() != 3 {
		t.Fatalf("expected 3 clients, got %d", h.Clients())
	}

	ev := NewEvent(EventOrderUpdate, 1, 5, map[string]any{"totalAmount": 6000})
	if err := h.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := recv(t, s1); got.Type != EventOrderUpdate || got.TableNumber != 5 {
		t.Fatalf("unexpected event for store 1: %+v", got)
	}
	if got := recv(t, all); got.StoreID != 1 {
		t.Fatalf("wildcard subscriber should receive store 1 event: %+v", got)
	}
	select {
	case <-s2.Send:
		t.Fatalf("store 2 must not receive store 1 events")
	default:
	}

	h.Unregister(s1)
	h.Unregister(s1) // idempotent
	if _, open := <-s1.Send; open {
		t.Fatalf("expected closed channel after Unregister")
	}
	if h.Clients() != 2 {
		t.Fatalf("expected 2 clients, got %d", h.Clients())
	}
}

func TestHub_DropsWhenFull(t *testing.T) {
	h := NewHub(1)
	c := h.Subscribe(1)
	for i := 0; i < 3; i++ {
		_ = h.Publish(context.Background(), NewEvent(EventSessionSync, 1, 1, nil))
	}
	if h.Dropped() != 2 {
		t.Fatalf("expected 2 dropped, got %d", h.Dropped())
	}
	if len(c.Send) != 1 {
		t.Fatalf("queue should hold one message, got %d", len(c.Send))
	}
}

type failing struct{ calls int }

func (f *failing) Publish(context.Context, Event) error {
	f.calls++
	return errors.New("broker down")
}

func TestMulti_JoinsErrors_AndEmitSwallows(t *testing.T) {
	h := NewHub(2)
	c := h.Subscribe(0)
	f := &failing{}
	m := Multi{h, nil, f, Nop{}}

	ev := NewEvent(EventSessionTerminated, 3, 9, map[string]any{"reason": "manual_termination"})
	if err := m.Publish(context.Background(), ev); err == nil {
		t.Fatalf("expected joined error from failing notifier")
	}
	if got := recv(t, c); got.Type != EventSessionTerminated {
		t.Fatalf("hub should still deliver: %+v", got)
	}

	// Emit never panics or returns; the hub still receives the event.
	Emit(context.Background(), m, ev)
	Emit(context.Background(), nil, ev)
	if f.calls != 2 {
		t.Fatalf("expected 2 calls to failing notifier, got %d", f.calls)
	}
	recv(t, c)
}

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
	closed        bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func (f *fakeChannel) Close() error { f.closed = true; return nil }

func TestAMQPPublisher_RoutingAndBody(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPPublisher{exchange: "pos.events", ch: ch}

	ev := NewEvent(EventCardPaymentCompleted, 1, 5, map[string]any{"approvalNumber": "12345678"})
	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if ch.exchange != "pos.events" || ch.key != "pos.card-payment-completed" {
		t.Fatalf("unexpected routing: %s / %s", ch.exchange, ch.key)
	}
	if ch.msg.ContentType != "application/json" || ch.msg.Type != EventCardPaymentCompleted {
		t.Fatalf("unexpected publishing: %+v", ch.msg)
	}
	var got Event
	if err := json.Unmarshal(ch.msg.Body, &got); err != nil || got.StoreID != 1 || got.Payload["approvalNumber"] != "12345678" {
		t.Fatalf("unexpected body: %s (%v)", ch.msg.Body, err)
	}

	if err := p.Close(); err != nil || !ch.closed {
		t.Fatalf("Close: %v closed=%v", err, ch.closed)
	}
	if err := p.Publish(context.Background(), ev); err == nil {
		t.Fatalf("expected error after Close")
	}
}

func TestDialAMQP_RequiresConfig(t *testing.T) {
	if _, err := DialAMQP("", "x"); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
