// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for advisory
// session locks.
//
// A lock row whose expires_at is not after now is treated as absent by every
// function here; nothing relies on a cleanup pass having run.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-pos-backend/internal/domain"
)

// GetLock returns the lock row for a table, expired or not, or ErrNotFound.
func GetLock(ctx context.Context, db *gorm.DB, storeID int64, tableNumber int) (*domain.SessionLock, error) {
	var l domain.SessionLock
	err := db.WithContext(ctx).
		Where("store_id = ? AND table_number = ?", storeID, tableNumber).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// PurgeExpiredLock deletes the table's lock if it has expired at now.
func PurgeExpiredLock(ctx context.Context, db *gorm.DB, storeID int64, tableNumber int, now time.Time) error {
	return db.WithContext(ctx).
		Where("store_id = ? AND table_number = ? AND expires_at <= ?", storeID, tableNumber, now).
		Delete(&domain.SessionLock{}).Error
}

// TakeOverLock updates an existing lock row in place when it is held by the
// same holder or has expired. It reports whether a row was changed; false
// means either no row exists or a different live holder owns it.
func TakeOverLock(ctx context.Context, db *gorm.DB, storeID int64, tableNumber int, holder string, now, expires time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.SessionLock{}).
		Where("store_id = ? AND table_number = ? AND (holder = ? OR expires_at <= ?)",
			storeID, tableNumber, holder, now).
		Updates(map[string]any{
			"holder":      holder,
			"acquired_at": gorm.Expr("CASE WHEN holder = ? AND expires_at > ? THEN acquired_at ELSE ? END", holder, now, now),
			"expires_at":  expires,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// InsertLock creates a fresh lock row. A concurrent insert for the same
// table surfaces as a unique violation (see IsUniqueViolation).
func InsertLock(ctx context.Context, db *gorm.DB, l *domain.SessionLock) error {
	return db.WithContext(ctx).Create(l).Error
}

// DeleteLock removes the table's lock unconditionally. It returns whether a
// row existed.
func DeleteLock(ctx context.Context, db *gorm.DB, storeID int64, tableNumber int) (bool, error) {
	res := db.WithContext(ctx).
		Where("store_id = ? AND table_number = ?", storeID, tableNumber).
		Delete(&domain.SessionLock{})
	return res.RowsAffected > 0, res.Error
}
