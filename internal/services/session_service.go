// Package services – SessionService
//
// SessionService owns the table-session state machine: status reads with lazy
// expiry, session initialization for a terminal, open-or-append order
// submission, termination and the background expiry sweep.
//
// Every mutating path runs in one transaction that first write-locks the
// table row (repo.LockTable). Together with the partial unique index on open
// sessions this keeps at most one open session per table. A transaction that
// still loses a creation race is retried once and then appends to the winner.
//
// Observability: public methods are OpenTelemetry-instrumented and realtime
// events are published after commit.
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

// Termination and close reasons.
const (
	ReasonManualTermination = "manual_termination"
	ReasonSessionExpired    = "session_expired"
	ReasonPaymentCompleted  = "payment_completed"
)

// TableStatus is the occupancy view of a table.
type TableStatus struct {
	IsOccupied    bool       `json:"isOccupied"`
	OccupiedSince *time.Time `json:"occupiedSince,omitempty"`
	SourceSystem  string     `json:"sourceSystem,omitempty"`
}

// SessionStatus is the result of GetSessionStatus.
type SessionStatus struct {
	HasActiveSession    bool             `json:"hasActiveSession"`
	SessionInfo         *domain.Session  `json:"sessionInfo"`
	PaymentStatus       string           `json:"paymentStatus,omitempty"`
	Expired             bool             `json:"expired,omitempty"`
	ConflictingSessions []domain.Session `json:"conflictingSessions,omitempty"`
	TableStatus         TableStatus      `json:"tableStatus"`
}

// SessionView is the terminal-facing state of a table: the open session (if
// any), its confirmed rows, the pending drafts and both merged for display.
type SessionView struct {
	Session      *domain.Session      `json:"session"`
	Items        []domain.SessionItem `json:"items"`
	PendingItems []domain.PendingItem `json:"pendingItems"`
	Merged       []domain.ItemView    `json:"mergedItems"`
	PendingTotal int64                `json:"pendingTotal"`
	Lock         *LockResult          `json:"lock,omitempty"`
}

// OrderRequest is the input of OpenOrCreate.
type OrderRequest struct {
	StoreID      int64
	TableNumber  int
	Items        []domain.LineInput
	TotalAmount  *int64
	CustomerName string
	MemberID     string
	GuestPhone   string
	Source       string
}

// OrderResult reports what OpenOrCreate did.
type OrderResult struct {
	Session *domain.Session      `json:"session"`
	Created bool                 `json:"created"`
	Items   []domain.SessionItem `json:"items"`
	Actions []string             `json:"actions"`
	Added   int64                `json:"addedAmount"`

	// Expired is set when a stale session was terminated before the new one
	// was opened.
	Expired *TerminateResult `json:"-"`
}

// TerminateResult reports a termination.
type TerminateResult struct {
	SessionID     string `json:"sessionId"`
	StoreID       int64  `json:"storeId"`
	TableNumber   int    `json:"tableNumber"`
	Status        string `json:"status"`
	Reason        string `json:"reason"`
	CanceledItems int64  `json:"canceledItems"`
	TableReleased bool   `json:"tableReleased"`
}

// SessionService implements the table-session state machine.
type SessionService struct {
	DB       *gorm.DB
	Locks    *LockService
	Guests   *GuestService
	Notifier realtime.Notifier

	// MaxAge is how long a session may stay open before it is expired.
	MaxAge time.Duration
	// ConflictWindow bounds the duplicate-open-session report.
	ConflictWindow time.Duration

	Now func() time.Time
}

func (s *SessionService) now() time.Time { return clock(s.Now) }

func (s *SessionService) maxAge() time.Duration {
	if s.MaxAge > 0 {
		return s.MaxAge
	}
	return 4 * time.Hour
}

func (s *SessionService) conflictWindow() time.Duration {
	if s.ConflictWindow > 0 {
		return s.ConflictWindow
	}
	return 30 * time.Minute
}

func (s *SessionService) stale(sess *domain.Session, now time.Time) bool {
	return now.Sub(sess.OpenedAt) > s.maxAge()
}

// GetSessionStatus reports the table's open session, occupancy and any
// duplicate open sessions. A session past MaxAge is terminated as expired on
// the way and reported with HasActiveSession=false.
func (s *SessionService) GetSessionStatus(ctx context.Context, storeID int64, tableNumber int) (*SessionStatus, error) {
	ctx, span := otel.Tracer("services/SessionService").Start(ctx, "GetSessionStatus",
		trace.WithAttributes(
			attribute.Int64("store.id", storeID),
			attribute.Int("table.number", tableNumber),
		),
	)
	defer span.End()

	if storeID <= 0 || tableNumber <= 0 {
		return nil, ErrInvalidInput
	}

	out := &SessionStatus{}
	open, expired, err := s.activeSession(ctx, storeID, tableNumber)
	if err != nil {
		return nil, err
	}
	switch {
	case expired != nil:
		out.Expired = true
		out.SessionInfo = expired
		out.PaymentStatus = expired.PaymentStatus()
	case open != nil:
		out.HasActiveSession = true
		out.SessionInfo = open
		out.PaymentStatus = open.PaymentStatus()
		dups, err := repo.ListOpenSessionsSince(ctx, s.DB, storeID, tableNumber, s.now().Add(-s.conflictWindow()))
		if err != nil {
			return nil, err
		}
		if len(dups) > 1 {
			out.ConflictingSessions = dups
			zerolog.Ctx(ctx).Warn().Int64("store_id", storeID).Int("table_number", tableNumber).
				Int("open_sessions", len(dups)).Msg("duplicate open sessions detected")
		}
	}

	t, err := repo.GetTable(ctx, s.DB, storeID, tableNumber)
	switch {
	case err == nil:
		out.TableStatus = TableStatus{IsOccupied: t.IsOccupied, OccupiedSince: t.OccupiedSince, SourceSystem: t.OccupiedBy}
	case errors.Is(err, repo.ErrNotFound):
	default:
		return nil, err
	}
	return out, nil
}

// activeSession returns the open session of a table. A stale one is
// terminated with ReasonSessionExpired and returned as the second value
// instead.
func (s *SessionService) activeSession(ctx context.Context, storeID int64, tableNumber int) (open, expired *domain.Session, err error) {
	sess, err := repo.GetOpenSession(ctx, s.DB, storeID, tableNumber)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if !s.stale(sess, s.now()) {
		return sess, nil, nil
	}
	if _, err := s.TerminateSession(ctx, storeID, tableNumber, sess.ID, ReasonSessionExpired); err != nil &&
		!errors.Is(err, ErrSessionNotOpen) {
		return nil, nil, err
	}
	if fresh, err := repo.GetSession(ctx, s.DB, sess.ID); err == nil {
		sess = fresh
	}
	return nil, sess, nil
}

// InitializeSession prepares a table for a terminal. It tries to take the
// advisory lock for holder (default POS) and fails only if the lock is held
// by a different holder that is not a POS terminal. It returns the merged
// view of confirmed and pending items.
func (s *SessionService) InitializeSession(ctx context.Context, storeID int64, tableNumber int, holder string) (*SessionView, error) {
	ctx, span := otel.Tracer("services/SessionService").Start(ctx, "InitializeSession",
		trace.WithAttributes(
			attribute.Int64("store.id", storeID),
			attribute.Int("table.number", tableNumber),
			attribute.String("lock.holder", holder),
		),
	)
	defer span.End()

	if storeID <= 0 || tableNumber <= 0 {
		return nil, ErrInvalidInput
	}
	holder = strings.TrimSpace(holder)
	if holder == "" {
		holder = domain.SourcePOS
	}

	var lock *LockResult
	if s.Locks != nil {
		res, err := s.Locks.AcquireLock(ctx, storeID, tableNumber, holder, 0)
		switch {
		case err != nil:
			zerolog.Ctx(ctx).Warn().Err(err).Int64("store_id", storeID).Int("table_number", tableNumber).Msg("lock acquisition failed")
		case !res.Success && res.LockedBy != domain.SourcePOS:
			return nil, &LockConflictError{Holder: res.LockedBy, ExpiresAt: res.ExpiresAt}
		case !res.Success:
			zerolog.Ctx(ctx).Warn().Str("locked_by", res.LockedBy).Int64("store_id", storeID).Int("table_number", tableNumber).Msg("table locked by another POS terminal")
			lock = res
		default:
			lock = res
		}
	}

	view, err := s.View(ctx, storeID, tableNumber)
	if err != nil {
		return nil, err
	}
	view.Lock = lock
	return view, nil
}

// View returns the table's open session with its confirmed and pending items.
func (s *SessionService) View(ctx context.Context, storeID int64, tableNumber int) (*SessionView, error) {
	open, _, err := s.activeSession(ctx, storeID, tableNumber)
	if err != nil {
		return nil, err
	}
	view := &SessionView{Session: open, Items: []domain.SessionItem{}}
	if open != nil {
		if view.Items, err = repo.ListSessionItems(ctx, s.DB, open.ID); err != nil {
			return nil, err
		}
	}
	if view.PendingItems, err = repo.ListPendingItems(ctx, s.DB, storeID, tableNumber); err != nil {
		return nil, err
	}

	view.Merged = make([]domain.ItemView, 0, len(view.Items)+len(view.PendingItems))
	for _, it := range view.Items {
		view.Merged = append(view.Merged, domain.ConfirmedView(it))
	}
	for _, p := range view.PendingItems {
		v := domain.PendingView(p)
		view.PendingTotal += v.Amount()
		view.Merged = append(view.Merged, v)
	}
	return view, nil
}

// OpenOrCreate submits an order for a table: the items are appended to the
// open session, or a new session is opened with them and the table is marked
// occupied by req.Source.
func (s *SessionService) OpenOrCreate(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	ctx, span := otel.Tracer("services/SessionService").Start(ctx, "OpenOrCreate",
		trace.WithAttributes(
			attribute.Int64("store.id", req.StoreID),
			attribute.Int("table.number", req.TableNumber),
			attribute.Int("items", len(req.Items)),
		),
	)
	defer span.End()

	req, err := s.normalizeOrder(req)
	if err != nil {
		return nil, err
	}

	var res *OrderResult
	err = s.withTableTx(ctx, req.StoreID, req.TableNumber, func(tx *gorm.DB) error {
		r, err := s.openOrAppendTx(ctx, tx, req)
		res = r
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterOrder(ctx, req, res)
	return res, nil
}

func (s *SessionService) normalizeOrder(req OrderRequest) (OrderRequest, error) {
	if req.StoreID <= 0 || req.TableNumber <= 0 {
		return req, fmt.Errorf("%w: storeId and tableNumber are required", ErrInvalidInput)
	}
	lines, sum, err := normalizeLines(req.Items)
	if err != nil {
		return req, err
	}
	if req.TotalAmount != nil && *req.TotalAmount != sum {
		return req, fmt.Errorf("%w: totalAmount %d does not match items %d", ErrInvalidAmount, *req.TotalAmount, sum)
	}
	req.Items = lines

	req.Source = strings.ToUpper(strings.TrimSpace(req.Source))
	switch req.Source {
	case "":
		req.Source = domain.SourcePOS
	case domain.SourcePOS, domain.SourceTLL:
	default:
		return req, fmt.Errorf("%w: unknown source %q", ErrInvalidInput, req.Source)
	}
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.MemberID = strings.TrimSpace(req.MemberID)
	if req.GuestPhone != "" {
		p, err := NormalizePhone(req.GuestPhone)
		if err != nil {
			return req, err
		}
		req.GuestPhone = p
	}
	return req, nil
}

// withTableTx runs fn in a transaction holding the table row lock. A unique
// violation (lost open-session race) retries the whole transaction once.
func (s *SessionService) withTableTx(ctx context.Context, storeID int64, tableNumber int, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if _, err := repo.LockTable(ctx, tx, storeID, tableNumber); err != nil {
				return err
			}
			return fn(tx)
		})
		if err == nil || !repo.IsUniqueViolation(err) {
			return err
		}
		zerolog.Ctx(ctx).Debug().Err(err).Int64("store_id", storeID).Int("table_number", tableNumber).Msg("open session race, retrying")
	}
	return err
}

// openOrAppendTx is the shared body of OpenOrCreate and ConfirmPendingOrder.
// req must already be normalized.
func (s *SessionService) openOrAppendTx(ctx context.Context, tx *gorm.DB, req OrderRequest) (*OrderResult, error) {
	now := s.now()
	res := &OrderResult{}

	open, err := repo.GetOpenSession(ctx, tx, req.StoreID, req.TableNumber)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		open = nil
	case err != nil:
		return nil, err
	}
	if open != nil && s.stale(open, now) {
		if res.Expired, err = s.terminateTx(ctx, tx, open, ReasonSessionExpired, now); err != nil {
			return nil, err
		}
		open = nil
	}

	var added int64
	for _, l := range req.Items {
		added += l.Amount()
	}

	if open == nil {
		open = &domain.Session{
			ID:           uuid.NewString(),
			StoreID:      req.StoreID,
			TableNumber:  req.TableNumber,
			Status:       domain.StatusOpen,
			Source:       req.Source,
			CustomerName: req.CustomerName,
			MemberID:     req.MemberID,
			GuestPhone:   req.GuestPhone,
			OpenedAt:     now,
			UpdatedAt:    now,
		}
		if err := repo.CreateSession(ctx, tx, open); err != nil {
			return nil, err
		}
		if err := repo.MarkOccupied(ctx, tx, req.StoreID, req.TableNumber, req.Source, now); err != nil {
			return nil, err
		}
		res.Created = true
	} else if !ValidTransition(ActionAppend, open.Status) {
		return nil, ErrSessionNotOpen
	}

	items, actions, err := appendLines(ctx, tx, open.ID, req.Items, now)
	if err != nil {
		return nil, err
	}
	if err := repo.AddSessionTotal(ctx, tx, open.ID, added, now); err != nil {
		return nil, err
	}
	sess, err := repo.GetSession(ctx, tx, open.ID)
	if err != nil {
		return nil, err
	}

	res.Session = sess
	res.Items = items
	res.Actions = actions
	res.Added = added
	return res, nil
}

func (s *SessionService) afterOrder(ctx context.Context, req OrderRequest, res *OrderResult) {
	if res.Expired != nil {
		s.afterTerminate(ctx, res.Expired)
	}
	if res.Created {
		sessionsOpened.WithLabelValues(req.Source).Inc()
	}
	realtime.Emit(ctx, s.Notifier, realtime.NewEvent(realtime.EventOrderUpdate, req.StoreID, req.TableNumber, map[string]any{
		"sessionId":   res.Session.ID,
		"created":     res.Created,
		"source":      req.Source,
		"itemCount":   len(req.Items),
		"addedAmount": res.Added,
		"totalAmount": res.Session.TotalAmount,
	}))
	if res.Created {
		realtime.Emit(ctx, s.Notifier, realtime.NewEvent(realtime.EventSessionSync, req.StoreID, req.TableNumber, map[string]any{
			"sessionId": res.Session.ID,
			"status":    res.Session.Status,
			"source":    req.Source,
		}))
	}
}

// TerminateSession ends an open session without payment. ReasonSessionExpired
// yields status expired, any other reason force_closed. Confirmed items are
// canceled. The table and its lock are released only for
// ReasonManualTermination and ReasonSessionExpired.
//
// A non-zero storeID/tableNumber must match the session.
func (s *SessionService) TerminateSession(ctx context.Context, storeID int64, tableNumber int, sessionID, reason string) (*TerminateResult, error) {
	ctx, span := otel.Tracer("services/SessionService").Start(ctx, "TerminateSession",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("reason", reason),
		),
	)
	defer span.End()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = ReasonManualTermination
	}
	if len(reason) > 64 {
		return nil, fmt.Errorf("%w: reason too long", ErrInvalidInput)
	}

	sess, err := repo.GetSession(ctx, s.DB, sessionID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if (storeID != 0 && sess.StoreID != storeID) || (tableNumber != 0 && sess.TableNumber != tableNumber) {
		return nil, ErrSessionNotFound
	}

	var res *TerminateResult
	err = s.withTableTx(ctx, sess.StoreID, sess.TableNumber, func(tx *gorm.DB) error {
		locked, err := repo.LockSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		res, err = s.terminateTx(ctx, tx, locked, reason, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterTerminate(ctx, res)
	return res, nil
}

func releasesTable(reason string) bool {
	return reason == ReasonManualTermination || reason == ReasonSessionExpired
}

func (s *SessionService) terminateTx(ctx context.Context, tx *gorm.DB, sess *domain.Session, reason string, now time.Time) (*TerminateResult, error) {
	action, status := ActionForceClose, domain.StatusForceClosed
	if reason == ReasonSessionExpired {
		action, status = ActionExpire, domain.StatusExpired
	}
	if !ValidTransition(action, sess.Status) {
		return nil, ErrSessionNotOpen
	}
	if err := repo.FinishSession(ctx, tx, sess.ID, status, reason, now, true); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSessionNotOpen
		}
		return nil, err
	}
	canceled, err := repo.CancelSessionItems(ctx, tx, sess.ID, now)
	if err != nil {
		return nil, err
	}
	res := &TerminateResult{
		SessionID:     sess.ID,
		StoreID:       sess.StoreID,
		TableNumber:   sess.TableNumber,
		Status:        status,
		Reason:        reason,
		CanceledItems: canceled,
	}
	if releasesTable(reason) {
		if err := repo.ReleaseTable(ctx, tx, sess.StoreID, sess.TableNumber, now); err != nil {
			return nil, err
		}
		if _, err := repo.DeleteLock(ctx, tx, sess.StoreID, sess.TableNumber); err != nil {
			return nil, err
		}
		res.TableReleased = true
	}
	return res, nil
}

func (s *SessionService) afterTerminate(ctx context.Context, res *TerminateResult) {
	sessionsFinished.WithLabelValues(res.Status).Inc()
	zerolog.Ctx(ctx).Info().
		Str("session_id", res.SessionID).
		Str("status", res.Status).
		Str("reason", res.Reason).
		Int64("canceled_items", res.CanceledItems).
		Msg("session terminated")
	realtime.Emit(ctx, s.Notifier, realtime.NewEvent(realtime.EventSessionTerminated, res.StoreID, res.TableNumber, map[string]any{
		"sessionId":     res.SessionID,
		"status":        res.Status,
		"reason":        res.Reason,
		"tableReleased": res.TableReleased,
	}))
}

// closeTx closes a fully paid session: status closed, archived, table and
// lock released, pending drafts cleared and the visit counter updated.
func (s *SessionService) closeTx(ctx context.Context, tx *gorm.DB, sess *domain.Session, now time.Time) error {
	if !ValidTransition(ActionClose, sess.Status) {
		return ErrSessionNotOpen
	}
	if err := repo.FinishSession(ctx, tx, sess.ID, domain.StatusClosed, ReasonPaymentCompleted, now, true); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrSessionNotOpen
		}
		return err
	}
	if err := repo.ReleaseTable(ctx, tx, sess.StoreID, sess.TableNumber, now); err != nil {
		return err
	}
	if _, err := repo.DeleteLock(ctx, tx, sess.StoreID, sess.TableNumber); err != nil {
		return err
	}
	if _, err := repo.ClearPendingItems(ctx, tx, sess.StoreID, sess.TableNumber); err != nil {
		return err
	}
	if s.Guests != nil {
		return s.Guests.RecordVisitTx(ctx, tx, sess, now)
	}
	return nil
}

// SweepExpired terminates up to limit open sessions older than MaxAge and
// returns how many it expired.
func (s *SessionService) SweepExpired(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	stale, err := repo.ListStaleOpenSessions(ctx, s.DB, s.now().Add(-s.maxAge()), limit)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, sess := range stale {
		_, err := s.TerminateSession(ctx, sess.StoreID, sess.TableNumber, sess.ID, ReasonSessionExpired)
		switch {
		case err == nil:
			n++
		case errors.Is(err, ErrSessionNotOpen):
		default:
			return n, err
		}
	}
	return n, nil
}

// RunSweeper calls SweepExpired every interval until ctx is canceled.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.SweepExpired(ctx, 100)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("expiry sweep failed")
				continue
			}
			if n > 0 {
				zerolog.Ctx(ctx).Info().Int("expired", n).Msg("expiry sweep")
			}
		}
	}
}
