// Guest HTTP handlers.
//
// Endpoints:
//   - POST /api/guests/resolve
//   - GET  /api/guests/{guestId}/visits
//   - POST /api/guests/{guestId}/convert
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-pos-backend/internal/services"
)

// ResolveGuestRequest is the JSON payload of guests/resolve.
type ResolveGuestRequest struct {
	StoreID int64  `json:"storeId" example:"1"`
	Phone   string `json:"phone" binding:"required" example:"010-1234-5678"`
	Name    string `json:"name" example:"Kim"`
}

// GuestProfileResponse wraps a guest and its visit counters.
type GuestProfileResponse struct {
	Success bool `json:"success" example:"true"`
	*services.GuestProfile
}

// ConvertGuestRequest is the JSON payload of guests/{guestId}/convert.
type ConvertGuestRequest struct {
	MemberID string `json:"memberId" binding:"required" example:"user-42"`
}

// ConvertGuestResponse is the body of guests/{guestId}/convert.
type ConvertGuestResponse struct {
	Success bool `json:"success" example:"true"`
	*services.ConvertResult
}

// ResolveGuest godoc
// @ID          resolveGuest
// @Summary     Find or create a guest by phone
// @Tags        Guests
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.ResolveGuestRequest  true  "Phone and name"
// @Success     200  {object}  handlers.GuestProfileResponse
// @Success     201  {object}  handlers.GuestProfileResponse  "Guest created"
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /api/guests/resolve [post]
func (h *Handlers) ResolveGuest(c *gin.Context) {
	var req ResolveGuestRequest
	if !bindJSON(c, &req, false) {
		return
	}
	p, err := h.guests.Resolve(c.Request.Context(), req.StoreID, req.Phone, req.Name)
	if err != nil {
		failErr(c, err)
		return
	}
	status := http.StatusOK
	if p.Created {
		status = http.StatusCreated
	}
	ok(c, status, GuestProfileResponse{Success: true, GuestProfile: p})
}

// GuestVisits godoc
// @ID          guestVisits
// @Summary     Read a guest's per-store visit counters
// @Tags        Guests
// @Produce     json
// @Param       guestId  path  string  true  "Guest ID"
// @Success     200  {object}  handlers.GuestProfileResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /api/guests/{guestId}/visits [get]
func (h *Handlers) GuestVisits(c *gin.Context) {
	id, good := pathID(c, "guestId")
	if !good {
		return
	}
	p, err := h.guests.Visits(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, GuestProfileResponse{Success: true, GuestProfile: p})
}

// ConvertGuest godoc
// @ID          convertGuest
// @Summary     Convert a guest into a member
// @Description Moves the guest's sessions to the member and merges visit counters additively, in one transaction.
// @Tags        Guests
// @Accept      json
// @Produce     json
// @Param       guestId  path  string  true  "Guest ID"
// @Param       body     body  handlers.ConvertGuestRequest  true  "Member"
// @Success     200  {object}  handlers.ConvertGuestResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse  "Guest already converted to another member"
// @Router      /api/guests/{guestId}/convert [post]
func (h *Handlers) ConvertGuest(c *gin.Context) {
	id, good := pathID(c, "guestId")
	if !good {
		return
	}
	var req ConvertGuestRequest
	if !bindJSON(c, &req, false) {
		return
	}
	res, err := h.guests.Convert(c.Request.Context(), id, req.MemberID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ConvertGuestResponse{Success: true, ConvertResult: res})
}
