// Package services – LockService
//
// LockService manages the advisory, time-bound exclusive marker a terminal
// takes on a table while it edits the table's order. Locks are advisory:
// conflicting writes are serialized by the table row lock inside each
// transaction, not by these markers. When Enforce is set, handlers call
// Guard to turn a live foreign lock into a hard precondition.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-pos-backend/internal/domain"
	"github.com/tbourn/go-pos-backend/internal/repo"
)

// LockStatus is the read-side view of a table lock.
type LockStatus struct {
	IsLocked   bool       `json:"isLocked"`
	LockedBy   string     `json:"lockedBy,omitempty"`
	AcquiredAt *time.Time `json:"lockedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

// LockResult is the outcome of an acquisition attempt. On failure LockedBy
// and ExpiresAt describe the live holder.
type LockResult struct {
	Success    bool      `json:"success"`
	LockedBy   string    `json:"lockedBy"`
	AcquiredAt time.Time `json:"lockedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// LockService implements CheckLock / AcquireLock / ReleaseLock.
type LockService struct {
	DB *gorm.DB

	DefaultTTL time.Duration
	MaxTTL     time.Duration
	Enforce    bool

	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewLockService returns a LockService with a 5 minute default TTL.
func NewLockService(db *gorm.DB) *LockService {
	return &LockService{DB: db, DefaultTTL: 5 * time.Minute, MaxTTL: 30 * time.Minute}
}

func (s *LockService) now() time.Time { return clock(s.Now) }

// CheckLock reports whether the table is held by a live lock. It never fails:
// lookup errors are logged and reported as unlocked. An expired row is purged
// opportunistically.
func (s *LockService) CheckLock(ctx context.Context, storeID int64, tableNumber int) LockStatus {
	ctx, span := otel.Tracer("services/LockService").Start(ctx, "CheckLock",
		trace.WithAttributes(
			attribute.Int64("store.id", storeID),
			attribute.Int("table.number", tableNumber),
		),
	)
	defer span.End()

	l, err := repo.GetLock(ctx, s.DB, storeID, tableNumber)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			zerolog.Ctx(ctx).Warn().Err(err).Int64("store_id", storeID).Int("table_number", tableNumber).Msg("lock lookup failed")
		}
		return LockStatus{}
	}
	now := s.now()
	if l.Expired(now) {
		_ = repo.PurgeExpiredLock(ctx, s.DB, storeID, tableNumber, now)
		return LockStatus{}
	}
	return LockStatus{IsLocked: true, LockedBy: l.Holder, AcquiredAt: &l.AcquiredAt, ExpiresAt: &l.ExpiresAt}
}

// AcquireLock takes or refreshes the table lock for holder. It succeeds when
// no live lock exists, when holder already owns it (the deadline is pushed
// out), or when the existing lock has expired. A live lock owned by someone
// else is left untouched and reported with Success=false.
//
// ttl <= 0 selects DefaultTTL; larger values are clamped to MaxTTL.
func (s *LockService) AcquireLock(ctx context.Context, storeID int64, tableNumber int, holder string, ttl time.Duration) (*LockResult, error) {
	ctx, span := otel.Tracer("services/LockService").Start(ctx, "AcquireLock",
		trace.WithAttributes(
			attribute.Int64("store.id", storeID),
			attribute.Int("table.number", tableNumber),
			attribute.String("lock.holder", holder),
		),
	)
	defer span.End()

	holder = strings.TrimSpace(holder)
	if storeID <= 0 || tableNumber <= 0 || holder == "" {
		return nil, ErrInvalidInput
	}
	ttl = s.clampTTL(ttl)

	for attempt := 0; attempt < 2; attempt++ {
		now := s.now()
		expires := now.Add(ttl)

		ok, err := repo.TakeOverLock(ctx, s.DB, storeID, tableNumber, holder, now, expires)
		if err != nil {
			return nil, err
		}
		if ok {
			return s.readBack(ctx, storeID, tableNumber, holder, now, expires)
		}

		cur, err := repo.GetLock(ctx, s.DB, storeID, tableNumber)
		switch {
		case err == nil && !cur.Expired(now) && cur.Holder != holder:
			lockConflicts.Inc()
			return &LockResult{Success: false, LockedBy: cur.Holder, AcquiredAt: cur.AcquiredAt, ExpiresAt: cur.ExpiresAt}, nil
		case err == nil:
			// Expired or ours between the two statements; take it over.
			continue
		case !errors.Is(err, repo.ErrNotFound):
			return nil, err
		}

		err = repo.InsertLock(ctx, s.DB, &domain.SessionLock{
			StoreID:     storeID,
			TableNumber: tableNumber,
			Holder:      holder,
			AcquiredAt:  now,
			ExpiresAt:   expires,
		})
		if err == nil {
			return &LockResult{Success: true, LockedBy: holder, AcquiredAt: now, ExpiresAt: expires}, nil
		}
		if !repo.IsUniqueViolation(err) {
			return nil, err
		}
		// Lost the insert race: loop and re-evaluate against the winner.
	}

	cur, err := repo.GetLock(ctx, s.DB, storeID, tableNumber)
	if err != nil {
		return nil, err
	}
	if cur.Holder == holder {
		return &LockResult{Success: true, LockedBy: holder, AcquiredAt: cur.AcquiredAt, ExpiresAt: cur.ExpiresAt}, nil
	}
	lockConflicts.Inc()
	return &LockResult{Success: false, LockedBy: cur.Holder, AcquiredAt: cur.AcquiredAt, ExpiresAt: cur.ExpiresAt}, nil
}

// ReleaseLock removes the table lock regardless of holder. It reports whether
// a lock existed.
func (s *LockService) ReleaseLock(ctx context.Context, storeID int64, tableNumber int) (bool, error) {
	ctx, span := otel.Tracer("services/LockService").Start(ctx, "ReleaseLock",
		trace.WithAttributes(
			attribute.Int64("store.id", storeID),
			attribute.Int("table.number", tableNumber),
		),
	)
	defer span.End()

	if storeID <= 0 || tableNumber <= 0 {
		return false, ErrInvalidInput
	}
	return repo.DeleteLock(ctx, s.DB, storeID, tableNumber)
}

// Guard returns a *LockConflictError when Enforce is on, holder is non-empty
// and a different holder owns a live lock on the table. Otherwise nil.
func (s *LockService) Guard(ctx context.Context, storeID int64, tableNumber int, holder string) error {
	if s == nil || !s.Enforce || strings.TrimSpace(holder) == "" {
		return nil
	}
	st := s.CheckLock(ctx, storeID, tableNumber)
	if st.IsLocked && st.LockedBy != strings.TrimSpace(holder) {
		lockConflicts.Inc()
		return &LockConflictError{Holder: st.LockedBy, ExpiresAt: *st.ExpiresAt}
	}
	return nil
}

func (s *LockService) clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = s.DefaultTTL
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if s.MaxTTL > 0 && ttl > s.MaxTTL {
		ttl = s.MaxTTL
	}
	return ttl
}

func (s *LockService) readBack(ctx context.Context, storeID int64, tableNumber int, holder string, now, expires time.Time) (*LockResult, error) {
	l, err := repo.GetLock(ctx, s.DB, storeID, tableNumber)
	if err != nil {
		return &LockResult{Success: true, LockedBy: holder, AcquiredAt: now, ExpiresAt: expires}, nil
	}
	return &LockResult{Success: true, LockedBy: l.Holder, AcquiredAt: l.AcquiredAt, ExpiresAt: l.ExpiresAt}, nil
}

// clock returns fn() in UTC, or the wall clock when fn is nil.
func clock(fn func() time.Time) time.Time {
	if fn != nil {
		return fn().UTC()
	}
	return time.Now().UTC()
}
