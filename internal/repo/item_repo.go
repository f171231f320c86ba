// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for confirmed
// session items.
//
// Confirmed items are never deleted: cancellation is a status change.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-pos-backend/internal/domain"
)

// ListSessionItems returns all items of a session in confirmation order.
func ListSessionItems(ctx context.Context, db *gorm.DB, sessionID string) ([]domain.SessionItem, error) {
	var out []domain.SessionItem
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("confirmed_at asc, id asc").
		Find(&out).Error
	return out, err
}

// ListMergeableItems returns the non-canceled items of a session, the set
// consolidation matches against.
func ListMergeableItems(ctx context.Context, tx *gorm.DB, sessionID string) ([]domain.SessionItem, error) {
	var out []domain.SessionItem
	err := tx.WithContext(ctx).
		Where("session_id = ? AND cook_status <> ?", sessionID, domain.CookCanceled).
		Order("confirmed_at asc, id asc").
		Find(&out).Error
	return out, err
}

// CreateSessionItems inserts confirmed rows in one statement.
func CreateSessionItems(ctx context.Context, tx *gorm.DB, items []domain.SessionItem) error {
	if len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&items).Error
}

// IncrementItemQuantity adds qty and discount to an existing row.
func IncrementItemQuantity(ctx context.Context, tx *gorm.DB, id string, qty int, discount int64, at time.Time) error {
	res := tx.WithContext(ctx).
		Model(&domain.SessionItem{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", qty),
			"discount":   gorm.Expr("discount + ?", discount),
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

// LockSessionItem reads one item with a row lock.
func LockSessionItem(ctx context.Context, tx *gorm.DB, id string) (*domain.SessionItem, error) {
	var it domain.SessionItem
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&it).Error
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// GetSessionItem reads one item.
func GetSessionItem(ctx context.Context, db *gorm.DB, id string) (*domain.SessionItem, error) {
	var it domain.SessionItem
	if err := db.WithContext(ctx).Where("id = ?", id).First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

// SetCookStatus updates the fulfillment status of one item.
func SetCookStatus(ctx context.Context, tx *gorm.DB, id, status string, at time.Time) error {
	res := tx.WithContext(ctx).
		Model(&domain.SessionItem{}).
		Where("id = ?", id).
		Updates(map[string]any{"cook_status": status, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelSessionItems cancels every non-canceled item of a session and
// returns the number of rows changed.
func CancelSessionItems(ctx context.Context, tx *gorm.DB, sessionID string, at time.Time) (int64, error) {
	res := tx.WithContext(ctx).
		Model(&domain.SessionItem{}).
		Where("session_id = ? AND cook_status <> ?", sessionID, domain.CookCanceled).
		Updates(map[string]any{"cook_status": domain.CookCanceled, "updated_at": at})
	return res.RowsAffected, res.Error
}

// CountActiveItems counts non-canceled rows of a session.
func CountActiveItems(ctx context.Context, db *gorm.DB, sessionID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.SessionItem{}).
		Where("session_id = ? AND cook_status <> ?", sessionID, domain.CookCanceled).
		Count(&n).Error
	return n, err
}
