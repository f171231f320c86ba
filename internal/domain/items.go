package domain

import "time"

// Item tiers used in the merged session view.
const (
	TierPending   = "pending"
	TierConfirmed = "confirmed"
)

// ItemView is the tagged display variant of a line: either a pending draft
// or a confirmed session row. Exactly one of Pending/Confirmed is set and
// Tier names which.
type ItemView struct {
	Tier      string       `json:"tier"`
	Pending   *PendingItem `json:"pending,omitempty"`
	Confirmed *SessionItem `json:"confirmed,omitempty"`
}

// PendingView wraps a pending item.
func PendingView(p PendingItem) ItemView {
	return ItemView{Tier: TierPending, Pending: &p}
}

// ConfirmedView wraps a confirmed item.
func ConfirmedView(c SessionItem) ItemView {
	return ItemView{Tier: TierConfirmed, Confirmed: &c}
}

// IsPending reports whether the view wraps a draft line.
func (v ItemView) IsPending() bool { return v.Tier == TierPending && v.Pending != nil }

// Amount is the line amount of whichever variant is present. Pending lines
// contribute nothing to session totals but report their would-be amount.
func (v ItemView) Amount() int64 {
	switch {
	case v.Confirmed != nil:
		if v.Confirmed.CookStatus == CookCanceled {
			return 0
		}
		return v.Confirmed.LineTotal()
	case v.Pending != nil:
		return v.Pending.UnitPrice*int64(v.Pending.Quantity) - v.Pending.Discount
	}
	return 0
}

// LineInput is an item as submitted by a client before it is persisted in
// either tier.
type LineInput struct {
	Name      string `json:"name"`
	UnitPrice int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Discount  int64  `json:"discount"`
	Notes     string `json:"notes,omitempty"`
}

// Amount is price*quantity minus the line discount.
func (l LineInput) Amount() int64 { return l.UnitPrice*int64(l.Quantity) - l.Discount }

// FromPending converts a pending row into a line input.
func FromPending(p PendingItem) LineInput {
	return LineInput{Name: p.Name, UnitPrice: p.UnitPrice, Quantity: p.Quantity, Discount: p.Discount, Notes: p.Notes}
}

// Confirm builds the confirmed row for a line inside sessionID.
func (l LineInput) Confirm(id, sessionID string, at time.Time) SessionItem {
	return SessionItem{
		ID:          id,
		SessionID:   sessionID,
		Name:        l.Name,
		UnitPrice:   l.UnitPrice,
		Quantity:    l.Quantity,
		Discount:    l.Discount,
		Notes:       l.Notes,
		CookStatus:  CookOrdered,
		ConfirmedAt: at,
		UpdatedAt:   at,
	}
}
