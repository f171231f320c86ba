// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Session
// model (table sessions / checks).
//
// Error semantics:
//   - When a session is not found, functions return ErrNotFound.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated. Callers detect the single-open-session
//     constraint with IsUniqueViolation.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-pos-backend/internal/domain"
)

// CreateSession inserts a new session row.
func CreateSession(ctx context.Context, tx *gorm.DB, s *domain.Session) error {
	return tx.WithContext(ctx).Omit("Items").Create(s).Error
}

// GetSession fetches a session by id.
func GetSession(ctx context.Context, db *gorm.DB, id string) (*domain.Session, error) {
	var s domain.Session
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// LockSession re-reads a session with a row lock (FOR UPDATE where the
// dialect supports it). Must be called with a transaction handle.
func LockSession(ctx context.Context, tx *gorm.DB, id string) (*domain.Session, error) {
	var s domain.Session
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetOpenSession returns the most recently opened open session for a table,
// or ErrNotFound.
func GetOpenSession(ctx context.Context, db *gorm.DB, storeID int64, tableNumber int) (*domain.Session, error) {
	var s domain.Session
	err := db.WithContext(ctx).
		Where("store_id = ? AND table_number = ? AND status = ?", storeID, tableNumber, domain.StatusOpen).
		Order("opened_at desc").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListOpenSessionsSince returns every open session on the table opened at or
// after since, newest first. More than one row indicates a creation race.
func ListOpenSessionsSince(ctx context.Context, db *gorm.DB, storeID int64, tableNumber int, since time.Time) ([]domain.Session, error) {
	var out []domain.Session
	err := db.WithContext(ctx).
		Where("store_id = ? AND table_number = ? AND status = ? AND opened_at >= ?",
			storeID, tableNumber, domain.StatusOpen, since).
		Order("opened_at desc").
		Find(&out).Error
	return out, err
}

// ListStaleOpenSessions returns open sessions opened before cutoff, oldest
// first, at most limit rows.
func ListStaleOpenSessions(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) ([]domain.Session, error) {
	var out []domain.Session
	err := db.WithContext(ctx).
		Where("status = ? AND opened_at < ?", domain.StatusOpen, cutoff).
		Order("opened_at asc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// AddSessionTotal adds delta (which may be negative) to total_amount.
func AddSessionTotal(ctx context.Context, tx *gorm.DB, id string, delta int64, at time.Time) error {
	return bumpColumn(ctx, tx, id, "total_amount", delta, at)
}

// AddSessionPaid adds delta (which may be negative) to paid_amount.
func AddSessionPaid(ctx context.Context, tx *gorm.DB, id string, delta int64, at time.Time) error {
	return bumpColumn(ctx, tx, id, "paid_amount", delta, at)
}

func bumpColumn(ctx context.Context, tx *gorm.DB, id, col string, delta int64, at time.Time) error {
	res := tx.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ?", id).
		Updates(map[string]any{
			col:          gorm.Expr(col+" + ?", delta),
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FinishSession moves an open session to a terminal status. When archive is
// set, archived_at is stamped so the row drops out of active queries.
// Returns ErrNotFound when the session is missing or no longer open.
func FinishSession(ctx context.Context, tx *gorm.DB, id, status, reason string, at time.Time, archive bool) error {
	upd := map[string]any{
		"status":       status,
		"close_reason": reason,
		"closed_at":    at,
		"updated_at":   at,
	}
	if archive {
		upd["archived_at"] = at
	}
	res := tx.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND status = ?", id, domain.StatusOpen).
		Updates(upd)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReassignGuestSessions points every session recorded under a guest phone at
// memberID. It returns the number of rows moved.
func ReassignGuestSessions(ctx context.Context, tx *gorm.DB, phone, memberID string) (int64, error) {
	res := tx.WithContext(ctx).
		Model(&domain.Session{}).
		Where("guest_phone = ? AND (member_id = '' OR member_id IS NULL)", phone).
		Update("member_id", memberID)
	return res.RowsAffected, res.Error
}
