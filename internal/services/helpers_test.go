package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-pos-backend/internal/domain"
	"github.com/tbourn/go-pos-backend/internal/realtime"
	"github.com/tbourn/go-pos-backend/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:possvc_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newFileDB opens a WAL-mode file database so that concurrent transactions
// really contend for the write lock.
func newFileDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "pos.db"))
	if err != nil {
		t.Fatalf("open file db: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Now().UTC().Truncate(time.Second)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recorder) Publish(_ context.Context, ev realtime.Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func (r *recorder) has(typ string) bool {
	for _, t := range r.types() {
		if t == typ {
			return true
		}
	}
	return false
}

// stack wires every service against one database, clock and recorder.
type stack struct {
	db       *gorm.DB
	clock    *fakeClock
	events   *recorder
	locks    *LockService
	guests   *GuestService
	sessions *SessionService
	orders   *OrderService
	payments *PaymentService
}

func newStack(t *testing.T, db *gorm.DB) *stack {
	t.Helper()
	clk := newClock()
	rec := &recorder{}
	locks := &LockService{DB: db, DefaultTTL: 5 * time.Minute, MaxTTL: 30 * time.Minute, Now: clk.Now}
	guests := &GuestService{DB: db, Now: clk.Now}
	sessions := &SessionService{
		DB:             db,
		Locks:          locks,
		Guests:         guests,
		Notifier:       rec,
		MaxAge:         4 * time.Hour,
		ConflictWindow: 30 * time.Minute,
		Now:            clk.Now,
	}
	return &stack{
		db:       db,
		clock:    clk,
		events:   rec,
		locks:    locks,
		guests:   guests,
		sessions: sessions,
		orders:   &OrderService{DB: db, Sessions: sessions, Notifier: rec, Now: clk.Now},
		payments: &PaymentService{DB: db, Sessions: sessions, Gateway: &SimulatedGateway{Now: clk.Now}, Notifier: rec, Now: clk.Now},
	}
}

func line(name string, price int64, qty int) domain.LineInput {
	return domain.LineInput{Name: name, UnitPrice: price, Quantity: qty}
}

func ptr[T any](v T) *T { return &v }

// openTable submits an order and fails the test on error.
func (s *stack) openTable(t *testing.T, store int64, table int, items ...domain.LineInput) *OrderResult {
	t.Helper()
	res, err := s.sessions.OpenOrCreate(context.Background(), OrderRequest{StoreID: store, TableNumber: table, Items: items})
	if err != nil {
		t.Fatalf("OpenOrCreate: %v", err)
	}
	return res
}

func countOpen(t *testing.T, db *gorm.DB, store int64, table int) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&domain.Session{}).
		Where("store_id = ? AND table_number = ? AND status = ?", store, table, domain.StatusOpen).
		Count(&n).Error; err != nil {
		t.Fatalf("count open: %v", err)
	}
	return n
}
