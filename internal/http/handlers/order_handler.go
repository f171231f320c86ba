// Order HTTP handlers.
//
// Endpoints:
//   - POST   /api/pos/orders                          (open or append)
//   - POST   /api/pos/orders/add-to-session-smart     (single-item merge)
//   - PATCH  /api/pos/orders/items/{itemId}/status    (cook status / cancel)
//   - GET    .../table/{tableNumber}/pending-items    (list, weak ETag)
//   - POST   .../table/{tableNumber}/pending-items    (add draft)
//   - DELETE .../table/{tableNumber}/pending-items    (clear drafts)
//   - PATCH  .../pending-items/{itemId}               (edit draft)
//   - DELETE .../pending-items/{itemId}               (remove draft)
//   - POST   .../pending-items/confirm                (commit drafts)
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tbourn/go-pos-backend/internal/domain"
	"github.com/tbourn/go-pos-backend/internal/repo"
	"github.com/tbourn/go-pos-backend/internal/services"
)

//
// DTOs
//

// CreateOrderRequest is the JSON payload of POST /api/pos/orders.
type CreateOrderRequest struct {
	StoreID      int64              `json:"storeId" binding:"required" example:"1"`
	TableNumber  int                `json:"tableNumber" binding:"required" example:"5"`
	Items        []domain.LineInput `json:"items" binding:"required"`
	TotalAmount  *int64             `json:"totalAmount" example:"6000"`
	IsTLLOrder   bool               `json:"isTLLOrder"`
	UserID       string             `json:"userId"`
	GuestPhone   string             `json:"guestPhone"`
	CustomerName string             `json:"customerName"`
}

// OrderData summarizes the order for receipts and terminal displays.
type OrderData struct {
	StoreID         int64                `json:"storeId"`
	TableNumber     int                  `json:"tableNumber"`
	Items           []domain.SessionItem `json:"items"`
	Actions         []string             `json:"actions"`
	AddedAmount     int64                `json:"addedAmount"`
	TotalAmount     int64                `json:"totalAmount"`
	TotalAmountText string               `json:"totalAmountText" example:"6,000"`
	Source          string               `json:"source"`
}

// CreateOrderResponse is the body of POST /api/pos/orders.
type CreateOrderResponse struct {
	Success      bool      `json:"success" example:"true"`
	OrderID      string    `json:"orderId"`
	IsNewSession bool      `json:"isNewSession"`
	OrderData    OrderData `json:"orderData"`
}

// AddToSessionRequest is the JSON payload of add-to-session-smart.
type AddToSessionRequest struct {
	SessionID string           `json:"sessionId" binding:"required"`
	Item      domain.LineInput `json:"item"`
}

// AddToSessionResponse is the body of add-to-session-smart.
type AddToSessionResponse struct {
	Success  bool               `json:"success" example:"true"`
	Action   string             `json:"action" example:"quantity_increased"`
	NewTotal int64              `json:"newTotal" example:"9000"`
	Item     domain.SessionItem `json:"item"`
}

// ItemStatusRequest is the JSON payload of PATCH items/{itemId}/status.
type ItemStatusRequest struct {
	Status string `json:"status" binding:"required" example:"preparing"`
}

// ItemStatusResponse is the body of PATCH items/{itemId}/status.
type ItemStatusResponse struct {
	Success bool `json:"success" example:"true"`
	*services.ItemStatusResult
}

// PendingItemRequest is the JSON payload for adding a draft line.
type PendingItemRequest struct {
	domain.LineInput
}

// UpdatePendingRequest is the JSON payload for editing a draft line.
type UpdatePendingRequest struct {
	Quantity int   `json:"quantity" binding:"required" example:"2"`
	Discount int64 `json:"discount" example:"0"`
}

// PendingListResponse is the body of GET pending-items.
type PendingListResponse struct {
	Success     bool                 `json:"success" example:"true"`
	Items       []domain.PendingItem `json:"items"`
	Count       int                  `json:"count"`
	TotalAmount int64                `json:"totalAmount"`
}

// PendingItemResponse wraps one draft line.
type PendingItemResponse struct {
	Success bool                `json:"success" example:"true"`
	Item    *domain.PendingItem `json:"item"`
}

// ClearPendingResponse is the body of DELETE pending-items.
type ClearPendingResponse struct {
	Success bool  `json:"success" example:"true"`
	Deleted int64 `json:"deleted"`
}

// ConfirmPendingRequest is the optional payload of pending-items/confirm.
type ConfirmPendingRequest struct {
	Source string `json:"source" example:"POS"`
}

// ConfirmPendingResponse is the body of pending-items/confirm.
type ConfirmPendingResponse struct {
	Success           bool      `json:"success" example:"true"`
	OrderID           string    `json:"orderId"`
	IsNewSession      bool      `json:"isNewSession"`
	OriginalCount     int       `json:"originalCount"`
	ConsolidatedCount int       `json:"consolidatedCount"`
	OrderData         OrderData `json:"orderData"`
}

//
// Helpers
//

var amountLanguages = language.NewMatcher([]language.Tag{language.English, language.Korean})

// amountText formats a money amount with grouping for the client's
// Accept-Language.
func amountText(c *gin.Context, amount int64) string {
	tags, _, _ := language.ParseAcceptLanguage(c.GetHeader("Accept-Language"))
	tag, _, _ := amountLanguages.Match(tags...)
	return message.NewPrinter(tag).Sprintf("%d", amount)
}

func orderData(c *gin.Context, res *services.OrderResult) OrderData {
	d := OrderData{
		Items:       res.Items,
		Actions:     res.Actions,
		AddedAmount: res.Added,
	}
	if s := res.Session; s != nil {
		d.StoreID, d.TableNumber, d.Source = s.StoreID, s.TableNumber, s.Source
		d.TotalAmount = s.TotalAmount
	}
	d.TotalAmountText = amountText(c, d.TotalAmount)
	return d
}

func pendingTotal(items []domain.PendingItem) int64 {
	var sum int64
	for _, p := range items {
		sum += domain.PendingView(p).Amount()
	}
	return sum
}

//
// Handlers
//

// CreateOrder godoc
// @ID          createOrder
// @Summary     Submit an order for a table
// @Description Appends the items to the table's open session, or opens a new one. Lines matching an existing row by name and price increase its quantity.
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Param       X-Session-Holder  header  string  false  "Terminal id checked against the table lock"
// @Param       body  body  handlers.CreateOrderRequest  true  "Order"
// @Success     200  {object}  handlers.CreateOrderResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /api/pos/orders [post]
func (h *Handlers) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if !bindJSON(c, &req, false) {
		return
	}
	if req.StoreID <= 0 || req.TableNumber <= 0 || len(req.Items) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "storeId, tableNumber and items are required")
		return
	}
	if !h.guard(c, req.StoreID, req.TableNumber) {
		return
	}

	in := services.OrderRequest{
		StoreID:      req.StoreID,
		TableNumber:  req.TableNumber,
		Items:        req.Items,
		TotalAmount:  req.TotalAmount,
		CustomerName: req.CustomerName,
		Source:       domain.SourcePOS,
	}
	if req.IsTLLOrder {
		in.Source = domain.SourceTLL
		in.MemberID = req.UserID
		in.GuestPhone = req.GuestPhone
	}

	res, err := h.sessions.OpenOrCreate(c.Request.Context(), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, CreateOrderResponse{
		Success:      true,
		OrderID:      res.Session.ID,
		IsNewSession: res.Created,
		OrderData:    orderData(c, res),
	})
}

// AddToSession godoc
// @ID          addToSessionSmart
// @Summary     Merge one item into an open session
// @Description Increases the quantity of a matching row (same name and price) or inserts a new one.
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.AddToSessionRequest  true  "Session and item"
// @Success     200  {object}  handlers.AddToSessionResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Session missing or not open"
// @Router      /api/pos/orders/add-to-session-smart [post]
func (h *Handlers) AddToSession(c *gin.Context) {
	var req AddToSessionRequest
	if !bindJSON(c, &req, false) {
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "sessionId is required")
		return
	}
	res, err := h.orders.AddItemToSession(c.Request.Context(), req.SessionID, req.Item)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, AddToSessionResponse{Success: true, Action: res.Action, NewTotal: res.NewTotal, Item: res.Item})
}

// UpdateItemStatus godoc
// @ID          updateItemStatus
// @Summary     Advance or cancel a confirmed item
// @Description ordered → preparing → ready → served; canceled from any state before served. Canceling subtracts the line from the session total.
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Param       itemId  path  string  true  "Item ID"
// @Param       body    body  handlers.ItemStatusRequest  true  "Target status"
// @Success     200  {object}  handlers.ItemStatusResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse
// @Router      /api/pos/orders/items/{itemId}/status [patch]
func (h *Handlers) UpdateItemStatus(c *gin.Context) {
	itemID, good := pathID(c, "itemId")
	if !good {
		return
	}
	var req ItemStatusRequest
	if !bindJSON(c, &req, false) {
		return
	}
	res, err := h.orders.UpdateItemStatus(c.Request.Context(), itemID, strings.ToLower(strings.TrimSpace(req.Status)))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ItemStatusResponse{Success: true, ItemStatusResult: res})
}

// ListPending godoc
// @ID          listPendingItems
// @Summary     List draft items of a table
// @Description Supports a weak ETag via If-None-Match and may return 304.
// @Tags        Pending
// @Produce     json
// @Param       storeId        path    int     true   "Store ID"
// @Param       tableNumber    path    int     true   "Table number"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object}  handlers.PendingListResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /api/pos/stores/{storeId}/table/{tableNumber}/pending-items [get]
func (h *Handlers) ListPending(c *gin.Context) {
	storeID, table, good := tableParams(c)
	if !good {
		return
	}
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if svc, isSvc := h.orders.(*services.OrderService); isSvc && svc.DB != nil {
		count, maxTS, err := repo.PendingStats(ctx, svc.DB, storeID, table)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.UnixNano()
			}
			etag := fmt.Sprintf(`W/"pending:%d:%d:%d:%d"`, storeID, table, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, err := h.orders.ListPending(ctx, storeID, table)
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []domain.PendingItem{}
	}
	ok(c, http.StatusOK, PendingListResponse{
		Success:     true,
		Items:       items,
		Count:       len(items),
		TotalAmount: pendingTotal(items),
	})
}

// AddPending godoc
// @ID          addPendingItem
// @Summary     Add a draft item to a table
// @Tags        Pending
// @Accept      json
// @Produce     json
// @Param       storeId      path  int  true  "Store ID"
// @Param       tableNumber  path  int  true  "Table number"
// @Param       body         body  domain.LineInput  true  "Item"
// @Success     201  {object}  handlers.PendingItemResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /api/pos/stores/{storeId}/table/{tableNumber}/pending-items [post]
func (h *Handlers) AddPending(c *gin.Context) {
	storeID, table, good := tableParams(c)
	if !good {
		return
	}
	var req PendingItemRequest
	if !bindJSON(c, &req, false) {
		return
	}
	p, err := h.orders.AddPending(c.Request.Context(), storeID, table, req.LineInput)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, PendingItemResponse{Success: true, Item: p})
}

// UpdatePending godoc
// @ID          updatePendingItem
// @Summary     Edit quantity and discount of a draft item
// @Tags        Pending
// @Accept      json
// @Produce     json
// @Param       storeId      path  int     true  "Store ID"
// @Param       tableNumber  path  int     true  "Table number"
// @Param       itemId       path  string  true  "Pending item ID"
// @Param       body         body  handlers.UpdatePendingRequest  true  "Quantity and discount"
// @Success     200  {object}  handlers.PendingItemResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /api/pos/stores/{storeId}/table/{tableNumber}/pending-items/{itemId} [patch]
func (h *Handlers) UpdatePending(c *gin.Context) {
	storeID, table, good := tableParams(c)
	if !good {
		return
	}
	id, good := pathID(c, "itemId")
	if !good {
		return
	}
	var req UpdatePendingRequest
	if !bindJSON(c, &req, false) {
		return
	}
	p, err := h.orders.UpdatePending(c.Request.Context(), storeID, table, id, req.Quantity, req.Discount)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, PendingItemResponse{Success: true, Item: p})
}

// RemovePending godoc
// @ID          removePendingItem
// @Summary     Remove one draft item
// @Tags        Pending
// @Produce     json
// @Param       storeId      path  int     true  "Store ID"
// @Param       tableNumber  path  int     true  "Table number"
// @Param       itemId       path  string  true  "Pending item ID"
// @Success     200  {object}  handlers.ClearPendingResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /api/pos/stores/{storeId}/table/{tableNumber}/pending-items/{itemId} [delete]
func (h *Handlers) RemovePending(c *gin.Context) {
	storeID, table, good := tableParams(c)
	if !good {
		return
	}
	id, good := pathID(c, "itemId")
	if !good {
		return
	}
	if err := h.orders.RemovePending(c.Request.Context(), storeID, table, id); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ClearPendingResponse{Success: true, Deleted: 1})
}

// ClearPending godoc
// @ID          clearPendingItems
// @Summary     Remove every draft item of a table
// @Tags        Pending
// @Produce     json
// @Param       storeId      path  int  true  "Store ID"
// @Param       tableNumber  path  int  true  "Table number"
// @Success     200  {object}  handlers.ClearPendingResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /api/pos/stores/{storeId}/table/{tableNumber}/pending-items [delete]
func (h *Handlers) ClearPending(c *gin.Context) {
	storeID, table, good := tableParams(c)
	if !good {
		return
	}
	n, err := h.orders.ClearPending(c.Request.Context(), storeID, table)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ClearPendingResponse{Success: true, Deleted: n})
}

// ConfirmPending godoc
// @ID          confirmPendingItems
// @Summary     Commit the table's draft items
// @Description Consolidates identical drafts, appends them to the open session (opening one if needed) and clears the drafts in one transaction.
// @Tags        Pending
// @Accept      json
// @Produce     json
// @Param       X-Session-Holder  header  string  false  "Terminal id checked against the table lock"
// @Param       storeId      path  int  true  "Store ID"
// @Param       tableNumber  path  int  true  "Table number"
// @Param       body         body  handlers.ConfirmPendingRequest  false  "Source system"
// @Success     200  {object}  handlers.ConfirmPendingResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse
// @Router      /api/pos/stores/{storeId}/table/{tableNumber}/pending-items/confirm [post]
func (h *Handlers) ConfirmPending(c *gin.Context) {
	storeID, table, good := tableParams(c)
	if !good {
		return
	}
	if !h.guard(c, storeID, table) {
		return
	}
	var req ConfirmPendingRequest
	if !bindJSON(c, &req, true) {
		return
	}
	res, err := h.orders.ConfirmPendingOrder(c.Request.Context(), storeID, table, req.Source)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ConfirmPendingResponse{
		Success:           true,
		OrderID:           res.Session.ID,
		IsNewSession:      res.Created,
		OriginalCount:     res.OriginalCount,
		ConsolidatedCount: res.ConsolidatedCount,
		OrderData:         orderData(c, res.OrderResult),
	})
}
