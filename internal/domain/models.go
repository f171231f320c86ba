// Package domain defines the persistence models for store tables, table
// sessions (checks), session line items, advisory session locks, payments
// and guest identities. These types are mapped with GORM and form the core
// data layer of the POS backend.
//
// Money is stored as integer KRW. Timestamps are UTC.
package domain

import (
	"time"
)

// Session statuses. Only StatusOpen is non-terminal.
const (
	StatusOpen        = "open"
	StatusClosed      = "closed"
	StatusCanceled    = "canceled"
	StatusExpired     = "expired"
	StatusForceClosed = "force_closed"
)

// Payment sub-status of a session, derived from its ledger.
const (
	PaymentUnpaid        = "unpaid"
	PaymentPartiallyPaid = "partially_paid"
	PaymentPaid          = "paid"
)

// Cooking/fulfillment status of a confirmed item.
const (
	CookOrdered   = "ordered"
	CookPreparing = "preparing"
	CookReady     = "ready"
	CookServed    = "served"
	CookCanceled  = "canceled"
)

// Payment record statuses.
const (
	PayStatusPending   = "pending"
	PayStatusCompleted = "completed"
	PayStatusFailed    = "failed"
	PayStatusRefunded  = "refunded"
)

// Client identities that hold locks and open sessions.
const (
	SourcePOS = "POS"
	SourceTLL = "TLL"
)

// StoreTable is a physical table in a store. The (store_id, table_number)
// pair is unique. IsOccupied mirrors the existence of an open session.
type StoreTable struct {
	ID            uint       `json:"-"             gorm:"primaryKey;autoIncrement"`
	StoreID       int64      `json:"storeId"       gorm:"not null;uniqueIndex:ux_store_table,priority:1"`
	TableNumber   int        `json:"tableNumber"   gorm:"not null;uniqueIndex:ux_store_table,priority:2"`
	IsOccupied    bool       `json:"isOccupied"    gorm:"not null;default:false"`
	OccupiedSince *time.Time `json:"occupiedSince,omitempty"`
	OccupiedBy    string     `json:"sourceSystem,omitempty" gorm:"type:varchar(16)"`
	CreatedAt     time.Time  `json:"-"`
	UpdatedAt     time.Time  `json:"-"`
}

// TableName returns the database table name for StoreTable.
func (StoreTable) TableName() string { return "store_tables" }

// Session is one seating's check at a table: the unit that accrues confirmed
// items and payments. At most one open session may exist per table; the
// partial unique index ux_table_sessions_open is created by repo.AutoMigrate.
type Session struct {
	ID           string     `json:"sessionId"    gorm:"type:char(36);primaryKey"`
	StoreID      int64      `json:"storeId"      gorm:"not null;index:idx_sessions_table,priority:1"`
	TableNumber  int        `json:"tableNumber"  gorm:"not null;index:idx_sessions_table,priority:2"`
	Status       string     `json:"status"       gorm:"type:varchar(16);not null;index:idx_sessions_table,priority:3;check:status IN ('open','closed','canceled','expired','force_closed')"`
	Source       string     `json:"source"       gorm:"type:varchar(16);not null;default:'POS'"`
	CustomerName string     `json:"customerName,omitempty" gorm:"type:varchar(100)"`
	MemberID     string     `json:"memberId,omitempty"     gorm:"type:varchar(64);index"`
	GuestPhone   string     `json:"guestPhone,omitempty"   gorm:"type:varchar(32);index"`
	TotalAmount  int64      `json:"totalAmount"  gorm:"not null;default:0"`
	PaidAmount   int64      `json:"paidAmount"   gorm:"not null;default:0"`
	OpenedAt     time.Time  `json:"startTime"    gorm:"not null"`
	ClosedAt     *time.Time `json:"closedAt,omitempty"`
	ArchivedAt   *time.Time `json:"-"            gorm:"index"`
	CloseReason  string     `json:"closeReason,omitempty" gorm:"type:varchar(64)"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	Items []SessionItem `json:"items,omitempty" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string { return "table_sessions" }

// Remaining is the outstanding balance of the session.
func (s *Session) Remaining() int64 { return s.TotalAmount - s.PaidAmount }

// PaymentStatus derives the payment sub-status from the ledger.
func (s *Session) PaymentStatus() string {
	switch {
	case s.Remaining() <= 0 && (s.TotalAmount > 0 || s.Status == StatusClosed):
		return PaymentPaid
	case s.PaidAmount > 0:
		return PaymentPartiallyPaid
	default:
		return PaymentUnpaid
	}
}

// SessionItem is a confirmed, kitchen-visible order line within a session.
// Rows are never deleted; cancellation sets CookStatus to canceled.
type SessionItem struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	SessionID   string    `json:"sessionId"   gorm:"type:char(36);not null;index:idx_items_session"`
	Name        string    `json:"name"        gorm:"type:varchar(200);not null"`
	UnitPrice   int64     `json:"price"       gorm:"not null"`
	Quantity    int       `json:"quantity"    gorm:"not null;check:quantity > 0"`
	Discount    int64     `json:"discount"    gorm:"not null;default:0"`
	Notes       string    `json:"notes,omitempty" gorm:"type:text"`
	CookStatus  string    `json:"cookStatus"  gorm:"type:varchar(16);not null;default:'ordered'"`
	ConfirmedAt time.Time `json:"confirmedAt" gorm:"not null"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName returns the database table name for SessionItem.
func (SessionItem) TableName() string { return "session_items" }

// LineTotal is the amount the row contributes to the session total.
func (i *SessionItem) LineTotal() int64 {
	return i.UnitPrice*int64(i.Quantity) - i.Discount
}

// PendingItem is a draft line held for a table before it is committed to a
// session. It carries no session reference and never affects totals.
type PendingItem struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	StoreID     int64     `json:"storeId"     gorm:"not null;index:idx_pending_table,priority:1"`
	TableNumber int       `json:"tableNumber" gorm:"not null;index:idx_pending_table,priority:2"`
	Name        string    `json:"name"        gorm:"type:varchar(200);not null"`
	UnitPrice   int64     `json:"price"       gorm:"not null"`
	Quantity    int       `json:"quantity"    gorm:"not null;check:quantity > 0"`
	Discount    int64     `json:"discount"    gorm:"not null;default:0"`
	Notes       string    `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"createdAt"   gorm:"index:idx_pending_table,priority:3"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName returns the database table name for PendingItem.
func (PendingItem) TableName() string { return "pending_items" }

// SessionLock is an advisory, time-bound exclusive marker on a table.
// A row whose ExpiresAt is in the past is treated as absent.
type SessionLock struct {
	ID          uint      `json:"-"           gorm:"primaryKey;autoIncrement"`
	StoreID     int64     `json:"storeId"     gorm:"not null;uniqueIndex:ux_lock_table,priority:1"`
	TableNumber int       `json:"tableNumber" gorm:"not null;uniqueIndex:ux_lock_table,priority:2"`
	Holder      string    `json:"lockedBy"    gorm:"type:varchar(64);not null"`
	AcquiredAt  time.Time `json:"acquiredAt"  gorm:"not null"`
	ExpiresAt   time.Time `json:"expiresAt"   gorm:"not null;index"`
}

// TableName returns the database table name for SessionLock.
func (SessionLock) TableName() string { return "session_locks" }

// Expired reports whether the lock is past its deadline at now.
func (l *SessionLock) Expired(now time.Time) bool { return !now.Before(l.ExpiresAt) }

// Payment is a settlement record against a session. Completed payments are
// immutable except for the refund amendment.
type Payment struct {
	ID          string     `json:"paymentId"   gorm:"type:char(36);primaryKey"`
	SessionID   string     `json:"sessionId"   gorm:"type:char(36);not null;index"`
	Method      string     `json:"method"      gorm:"type:varchar(16);not null"`
	Amount      int64      `json:"amount"      gorm:"not null;check:amount > 0"`
	Status      string     `json:"status"      gorm:"type:varchar(16);not null;check:status IN ('pending','completed','failed','refunded')"`
	AuthRef     string     `json:"authRef,omitempty"     gorm:"type:varchar(64)"`
	CardCompany string     `json:"cardCompany,omitempty" gorm:"type:varchar(32)"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	RefundedAt  *time.Time `json:"refundedAt,omitempty"`
	RefundNote  string     `json:"refundReason,omitempty" gorm:"type:varchar(255)"`

	Session Session `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Payment.
func (Payment) TableName() string { return "payments" }

// Guest is a non-member customer identified by phone number. MemberID is set
// once the guest has been converted into a member account.
type Guest struct {
	ID          string     `json:"guestId"     gorm:"type:char(36);primaryKey"`
	Phone       string     `json:"phone"       gorm:"type:varchar(32);not null;uniqueIndex"`
	Name        string     `json:"name,omitempty" gorm:"type:varchar(100)"`
	MemberID    string     `json:"memberId,omitempty" gorm:"type:varchar(64)"`
	ConvertedAt *time.Time `json:"convertedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TableName returns the database table name for Guest.
func (Guest) TableName() string { return "guests" }

// CustomerVisit accumulates per-store visit count and spend for a customer
// key ("guest:<id>" or "member:<id>").
type CustomerVisit struct {
	ID          uint      `json:"-"           gorm:"primaryKey;autoIncrement"`
	StoreID     int64     `json:"storeId"     gorm:"not null;uniqueIndex:ux_visit_store_customer,priority:1"`
	CustomerKey string    `json:"customerKey" gorm:"type:varchar(100);not null;uniqueIndex:ux_visit_store_customer,priority:2"`
	VisitCount  int       `json:"visitCount"  gorm:"not null;default:0"`
	TotalSpent  int64     `json:"totalSpent"  gorm:"not null;default:0"`
	LastVisitAt time.Time `json:"lastVisitAt"`
}

// TableName returns the database table name for CustomerVisit.
func (CustomerVisit) TableName() string { return "customer_visits" }
