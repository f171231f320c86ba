package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tbourn/go-pos-backend/internal/domain"
	"github.com/tbourn/go-pos-backend/internal/realtime"
	"github.com/tbourn/go-pos-backend/internal/repo"
)

func TestOpenOrCreate_OpensSessionAndOccupiesTable(t *testing.T) {
	st := newStack(t, newSvcDB(t))
	ctx := context.Background()

	res, err := st.sessions.OpenOrCreate(ctx, OrderRequest{
		StoreID:     1,
		TableNumber: 5,
		Items:       []domain.LineInput{line("Cola", 3000, 2), line("Fries", 4000, 1)},
		TotalAmount: ptr(int64(10000)),
		Source:      "tll",
	})
	if err != nil {
		t.Fatalf("OpenOrCreate: %v", err)
	}
	if !res.Created || res.Session.Status != domain.StatusOpen || res.Session.TotalAmount != 10000 {
		t.Fatalf("unexpected result: %+v", res.Session)
	}
	if res.Session.Source != domain.SourceTLL {
		t.Fatalf("source must be normalized to TLL, got %q", res.Session.Source)
	}
	if len(res.Items) != 2 || res.Actions[0] != ActionNewItemAdded {
		t.Fatalf("expected two new rows, got %+v %v", res.Items, res.Actions)
	}

	tbl, err := repo.GetTable(ctx, st.db, 1, 5)
	if err != nil || !tbl.IsOccupied || tbl.OccupiedBy != domain.SourceTLL || tbl.OccupiedSince == nil {
		t.Fatalf("table must be occupied by TLL: %+v %v", tbl, err)
	}
	if !st.events.has(realtime.EventOrderUpdate) || !st.events.has(realtime.EventSessionSync) {
		t.Fatalf("expected order-update and session-sync, got %v", st.events.types())
	}
}

func TestOpenOrCreate_AppendsAndMerges(t *testing.T) {
	st := newStack(t, newSvcDB(t))
	ctx := context.Background()

	first := st.openTable(t, 1, 5, line("Cola", 3000, 2))
	second, err := st.sessions.OpenOrCreate(ctx, OrderRequest{
		StoreID:     1,
		TableNumber: 5,
		Items:       []domain.LineInput{line("  Cola ", 3000, 1), line("Cola", 3500, 1), line("Cola", 3000, 1)},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if second.Created || second.Session.ID != first.Session.ID {
		t.Fatalf("expected append to %s, got %+v", first.Session.ID, second.Session)
	}
	if second.Session.TotalAmount != 6000+3000+3500+3000 {
		t.Fatalf("total = %d", second.Session.TotalAmount)
	}
	want := []string{ActionQuantityIncreased, ActionNewItemAdded, ActionQuantityIncreased}
	for i, a := range want {
		if second.Actions[i] != a {
			t.Fatalf("actions = %v, want %v", second.Actions, want)
		}
	}

	items, _ := repo.ListSessionItems(ctx, st.db, first.Session.ID)
	if len(items) != 2 {
		t.Fatalf("expected 2 rows, got %+v", items)
	}
	var sum int64
	for _, it := range items {
		if it.Name == "Cola" && it.UnitPrice == 3000 && it.Quantity != 4 {
			t.Fatalf("expected merged quantity 4, got %+v", it)
		}
		sum += it.LineTotal()
	}
	if sum != second.Session.TotalAmount {
		t.Fatalf("rows sum %d != total %d", sum, second.Session.TotalAmount)
	}
	if countOpen(t, st.db, 1, 5) != 1 {
		t.Fatalf("expected exactly one open session")
	}
}

func TestOpenOrCreate_Validation(t *testing.T) {
	st := newStack(t, newSvcDB(t))
	ctx := context.Background()

	cases := []struct {
		name string
		req  OrderRequest
		want error
	}{
		{"no store", OrderRequest{TableNumber: 1, Items: []domain.LineInput{line("A", 1, 1)}}, ErrInvalidInput},
		{"no items", OrderRequest{StoreID: 1, TableNumber: 1}, ErrInvalidInput},
		{"zero qty", OrderRequest{StoreID: 1, TableNumber: 1, Items: []domain.LineInput{line("A", 1, 0)}}, ErrInvalidInput},
		{"blank name", OrderRequest{StoreID: 1, TableNumber: 1, Items: []domain.LineInput{line(" ", 1, 1)}}, ErrInvalidInput},
		{"bad source", OrderRequest{StoreID: 1, TableNumber: 1, Items: []domain.LineInput{line("A", 1, 1)}, Source: "KIOSK"}, ErrInvalidInput},
		{"total mismatch", OrderRequest{StoreID: 1, TableNumber: 1, Items: []domain.LineInput{line("A", 1000, 2)}, TotalAmount: ptr(int64(1500))}, ErrInvalidAmount},
		{"bad phone", OrderRequest{StoreID: 1, TableNumber: 1, Items: []domain.LineInput{line("A", 1, 1)}, GuestPhone: "12"}, ErrInvalidInput},
	}
	for _, tc := range cases {
		if _, err := st.sessions.OpenOrCreate(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	var n int64
	st.db.Model(&domain.Session{}).Count(&n)
	if n != 0 {
		t.Fatalf("rejected orders must not persist sessions, got %d", n)
	}
}

func TestOpenOrCreate_ConcurrentFirstOrdersShareOneSession(t *testing.T) {
	st := newStack(t, newFileDB(t))
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.sessions.OpenOrCreate(ctx, OrderRequest{
				StoreID:     1,
				TableNumber: 9,
				Items:       []domain.LineInput{line("Beer", 5000, 1)},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent OpenOrCreate: %v", err)
		}
	}

	if n := countOpen(t, st.db, 1, 9); n != 1 {
		t.Fatalf("expected exactly one open session, got %d", n)
	}
	sess, err := repo.GetOpenSession(ctx, st.db, 1, 9)
	if err != nil {
		t.Fatalf("GetOpenSession: %v", err)
	}
	if sess.TotalAmount != workers*5000 {
		t.Fatalf("total = %d, want %d", sess.TotalAmount, workers*5000)
	}
	items, _ := repo.ListSessionItems(ctx, st.db, sess.ID)
	if len(items) != 1 || items[0].Quantity != workers {
		t.Fatalf("expected one merged row with quantity %d, got %+v", workers, items)
	}
}

func TestGetSessionStatus(t *testing.T) {
	st := newStack(t, newSvcDB(t))
	ctx := context.Background()

	s, err := st.sessions.GetSessionStatus(ctx, 1, 5)
	if err != nil {
		t.Fatalf("GetSessionStatus: %v", err)
	}
	if s.HasActiveSession || s.SessionInfo != nil || s.TableStatus.IsOccupied {
		t.Fatalf("unknown table must read as free: %+v", s)
	}

	opened := st.openTable(t, 1, 5, line("Cola", 3000, 1))
	s, err = st.sessions.GetSessionStatus(ctx, 1, 5)
	if err != nil || !s.HasActiveSession || s.SessionInfo.ID != opened.Session.ID {
		t.Fatalf("expected active session: %+v %v", s, err)
	}
	if !s.TableStatus.IsOccupied || s.PaymentStatus != domain.PaymentUnpaid || len(s.ConflictingSessions) != 0 {
		t.Fatalf("unexpected status: %+v", s)
	}

	if _, err := st.sessions.GetSessionStatus(ctx, 0, 5); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetSessionStatus_ExpiresStaleSession(t *testing.T) {
	st := newStack(t, newSvcDB(t))
	ctx := context.Background()

	opened := st.openTable(t, 1, 5, line("Cola", 3000, 1))
	if _, err := st.locks.AcquireLock(ctx, 1, 5, "POS", 0); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	st.clock.Advance(4*time.Hour + time.Minute)

	s, err := st.sessions.GetSessionStatus(ctx, 1, 5)
	if err != nil {
		t.Fatalf("GetSessionStatus: %v", err)
	}
	if s.HasActiveSession || !s.Expired || s.SessionInfo.Status != domain.StatusExpired {
		t.Fatalf("expected expired report, got %+v", s)
	}
	if s.TableStatus.IsOccupied {
		t.Fatalf("expiry must release the table")
	}
	items, _ := repo.ListSessionItems(ctx, st.db, opened.Session.ID)
	for _, it := range items {
		if it.CookStatus != domain.CookCanceled {
			t.Fatalf("expiry must cancel items, got %+v", it)
		}
	}
	if _, err := repo.GetLock(ctx, st.db, 1, 5); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expiry must release the lock, got %v", err)
	}

	// The next order opens a fresh session.
	next := st.openTable(t, 1, 5, line("Tea", 2000, 1))
	if !next.Created || next.Session.ID == opened.Session.ID {
		t.Fatalf("expected a new session, got %+v", next.Session)
	}
}

func TestGetSessionStatus_ReportsConflictingSessions(t *testing.T) {
	st := newStack(t, newSvcDB(t))
	ctx := context.Background()

	// Simulate legacy data written before the partial unique index existed.
	if err := st.db.Exec("DROP INDEX IF EXISTS ux_table_sessions_open").Error; err != nil {
		t.Fatalf("drop index: %v", err)
	}
	now := st.clock.Now()
	for i, id := range []string{"a", "b"} {
		s := &domain.Session{ID: id, StoreID: 1, TableNumber: 7, Status: domain.StatusOpen, Source: "POS",
			OpenedAt: now.Add(time.Duration(-i) * time.Minute), UpdatedAt: now}
		if err := repo.CreateSession(ctx, st.db, s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	s, err := st.sessions.GetSessionStatus(ctx, 1, 7)
	if err != nil {
		t.Fatalf("GetSessionStatus: %v", err)
	}
	if !s.HasActiveSession || s.SessionInfo.ID != "a" || len(s.ConflictingSessions) != 2 {
		t.Fatalf("expected newest session and two conflicts, got %+v", s)
	}
}

func TestInitializeSession(t *testing.T) {
	st := newStack(t, newSvcDB(t))
	ctx := context.Background()

	opened := st.openTable(t, 1, 5, line("Cola", 3000, 2))
	if _, err := st.orders.AddPending(ctx, 1, 5, line("Fries", 4000, 1)); err != nil {
		t.Fatalf("AddPending: %v", err)
	}

	view, err := st.sessions.InitializeSession(ctx, 1, 5, "")
	if err != nil {
		t.Fatalf("InitializeSession: %v", err)
	}
	if view.Session == nil || view.Session.ID != opened.Session.ID {
		t.Fatalf("expected open session, got %+v", view.Session)
	}
	if view.Lock == nil || !view.Lock.Success || view.Lock.LockedBy != domain.SourcePOS {
		t.Fatalf("expected POS lock, got %+v", view.Lock)
	}
	if len(view.Merged) != 2 || view.Merged[0].Tier != domain.TierConfirmed || !view.Merged[1].IsPending() {
		t.Fatalf("merged view = %+v", view.Merged)
	}
	if view.PendingTotal != 4000 {
		t.Fatalf("pending total = %d", view.PendingTotal)
	}
}

func TestInitializeSession_LockHolders(t *testing.T) {
	st := newStack(t, newSvcDB(t))
	ctx := context.Background()

	if _, err := st.locks.AcquireLock(ctx, 1, 5, "TLL", 0); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	_, err := st.sessions.InitializeSession(ctx, 1, 5, "POS-2")
	var lce *LockConflictError
	if !errors.As(err, &lce) || lce.Holder != "TLL" {
		t.Fatalf("expected conflict with TLL, got %v", err)
	}

	// Another POS terminal holding the lock only produces a warning.
	if _, err := st.locks.AcquireLock(ctx, 1, 6, "POS", 0); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	view, err := st.sessions.InitializeSession(ctx, 1, 6, "POS-2")
	if err != nil {
		t.Fatalf("InitializeSession: %v", err)
	}
	if view.Lock == nil || view.Lock.Success || view.Lock.LockedBy != "POS" {
		t.Fatalf("expected unsuccessful lock held by POS, got %+v", view.Lock)
	}
	if view.Session != nil || len(view.Merged) != 0 {
		t.Fatalf("empty table expected, got %+v", view)
	}
}

func TestTerminateSession(t *testing.T) {
	st := newStack(t, newSvcDB(t))
	ctx := context.Background()

	opened := st.openTable(t, 1, 5, line("Cola", 3000, 2), line("Fries", 4000, 1))
	if _, err := st.locks.AcquireLock(ctx, 1, 5, "POS", 0); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if _, err := st.sessions.TerminateSession(ctx, 1, 6, opened.Session.ID, ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("wrong table must be not found, got %v", err)
	}

	res, err := st.sessions.TerminateSession(ctx, 1, 5, opened.Session.ID, "")
	if err != nil {
		t.Fatalf("TerminateSession: %v", err)
	}
	if res.Status != domain.StatusForceClosed || res.Reason != ReasonManualTermination || res.CanceledItems != 2 || !res.TableReleased {
		t.Fatalf("unexpected result: %+v", res)
	}
	sess, _ := repo.GetSession(ctx, st.db, opened.Session.ID)
	if sess.ClosedAt == nil || sess.ArchivedAt == nil {
		t.Fatalf("terminated session must be stamped: %+v", sess)
	}
	tbl, _ := repo.GetTable(ctx, st.db, 1, 5)
	if tbl.IsOccupied {
		t.Fatalf("manual termination must release the table")
	}
	if _, err := repo.GetLock(ctx, st.db, 1, 5); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("manual termination must release the lock, got %v", err)
	}
	if !st.events.has(realtime.EventSessionTerminated) {
		t.Fatalf("expected session-terminated event, got %v", st.events.types())
	}

	if _, err := st.sessions.TerminateSession(ctx, 1, 5, opened.Session.ID, ""); !errors.Is(err, ErrSessionNotOpen) {
		t.Fatalf("second termination: expected ErrSessionNotOpen, got %v", err)
	}
	if _, err := st.sessions.TerminateSession(ctx, 0, 0, "missing", ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestTerminateSession_OtherReasonKeepsTable(t *testing.T) {
	st := newStack(t, newSvcDB(t))
	ctx := context.Background()

	opened := st.openTable(t, 1, 5, line("Cola", 3000, 1))
	res, err := st.sessions.TerminateSession(ctx, 1, 5, opened.Session.ID, "table_move")
	if err != nil {
		t.Fatalf("TerminateSession: %v", err)
	}
	if res.Status != domain.StatusForceClosed || res.TableReleased {
		t.Fatalf("unexpected result: %+v", res)
	}
	tbl, _ := repo.GetTable(ctx, st.db, 1, 5)
	if !tbl.IsOccupied {
		t.Fatalf("non-releasing reason must keep the table occupied")
	}
}

func TestSweepExpired(t *testing.T) {
	st := newStack(t, newSvcDB(t))
	ctx := context.Background()

	st.openTable(t, 1, 1, line("A", 1000, 1))
	st.openTable(t, 1, 2, line("B", 1000, 1))
	st.clock.Advance(3 * time.Hour)
	st.openTable(t, 1, 3, line("C", 1000, 1))
	st.clock.Advance(90 * time.Minute)

	n, err := st.sessions.SweepExpired(ctx, 0)
	if err != nil || n != 2 {
		t.Fatalf("SweepExpired = %d, %v", n, err)
	}
	if countOpen(t, st.db, 1, 3) != 1 || countOpen(t, st.db, 1, 1) != 0 {
		t.Fatalf("only stale sessions may be expired")
	}
	n, err = st.sessions.SweepExpired(ctx, 0)
	if err != nil || n != 0 {
		t.Fatalf("second sweep = %d, %v", n, err)
	}
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	st := newStack(t, newSvcDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.sessions.RunSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
