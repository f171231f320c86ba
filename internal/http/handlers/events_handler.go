// Realtime HTTP handler.
//
// GET /api/pos/stores/{storeId}/events streams realtime.Event messages as
// server-sent events. Each message's event name is the realtime event type and
// its data is the JSON event. A heartbeat comment keeps idle proxies from
// closing the stream.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-pos-backend/internal/realtime"
	"github.com/tbourn/go-pos-backend/internal/utils"
)

// Events godoc
// @ID          streamEvents
// @Summary     Subscribe to realtime table events of a store
// @Description Server-sent events: order-update, session-sync, session-terminated, session-payment-completed, card-payment-completed, payment-refunded.
// @Tags        Realtime
// @Produce     text/event-stream
// @Param       storeId  path   int  true   "Store ID"
// @Param       table    query  int  false  "Only events of this table"
// @Success     200  {string}  string  "event stream"
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /api/pos/stores/{storeId}/events [get]
func (h *Handlers) Events(c *gin.Context) {
	storeID, good := utils.PositiveInt64(c.Param("storeId"))
	if !good {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "storeId must be a positive integer")
		return
	}
	if h.events == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeInternal, "realtime stream disabled")
		return
	}
	table := utils.AtoiDefault(c.Query("table"), 0)

	sub := h.events.Subscribe(storeID)
	defer h.events.Unregister(sub)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	tick := time.NewTicker(h.heartbeat)
	defer tick.Stop()
	ctx := c.Request.Context()

	c.SSEvent("ready", gin.H{"storeId": storeID, "clientId": sub.ID})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-tick.C:
			_, _ = io.WriteString(w, ": heartbeat\n\n")
			return true
		case msg, open := <-sub.Send:
			if !open {
				return false
			}
			var ev realtime.Event
			if err := json.Unmarshal(msg, &ev); err != nil {
				return true
			}
			if table > 0 && ev.TableNumber != table {
				return true
			}
			c.SSEvent(ev.Type, json.RawMessage(msg))
			return true
		}
	})
}
