package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-pos-backend/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

// newSchemaDB returns a DB with the full schema including the partial index.
func newSchemaDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func TestPendingStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, _, err := PendingStats(context.Background(), db, 1, 5); err == nil {
		t.Fatalf("expected error due to missing pending_items table")
	}
}

func TestPendingStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, &domain.PendingItem{})
	count, maxAt, err := PendingStats(context.Background(), db, 1, 5)
	if err != nil {
		t.Fatalf("PendingStats error: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxAt)
	}
}

func TestPendingStats_CountAndLatest(t *testing.T) {
	db := newTestDB(t, &domain.PendingItem{})
	ctx := context.Background()
	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	for i, ts := range []time.Time{t1, t2} {
		p := &domain.PendingItem{ID: fmt.Sprintf("p%d", i), StoreID: 1, TableNumber: 5, Name: "Cola", UnitPrice: 3000, Quantity: 1, CreatedAt: ts, UpdatedAt: ts}
		if err := db.Create(p).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	// other table must not count
	other := &domain.PendingItem{ID: "px", StoreID: 1, TableNumber: 6, Name: "Tea", UnitPrice: 1000, Quantity: 1, CreatedAt: t2.Add(time.Hour), UpdatedAt: t2.Add(time.Hour)}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("seed other: %v", err)
	}

	count, maxAt, err := PendingStats(ctx, db, 1, 5)
	if err != nil {
		t.Fatalf("PendingStats: %v", err)
	}
	if count != 2 || maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("expected (2, %v), got (%d, %v)", t2, count, maxAt)
	}
}
