// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the StoreTable
// model, including the row lock that serializes every session mutation on a
// (store, table) pair.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-pos-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// LockTable ensures a store_tables row exists for (storeID, tableNumber) and
// takes a write lock on it for the remainder of the transaction.
//
// On PostgreSQL this is SELECT ... FOR UPDATE. SQLite has no row locks, but
// the leading INSERT turns the transaction into a writer, so concurrent
// callers queue on the database write lock (busy_timeout) instead.
//
// Must be called with a transaction handle.
func LockTable(ctx context.Context, tx *gorm.DB, storeID int64, tableNumber int) (*domain.StoreTable, error) {
	seed := &domain.StoreTable{StoreID: storeID, TableNumber: tableNumber}
	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(seed).Error; err != nil {
		return nil, err
	}
	var t domain.StoreTable
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("store_id = ? AND table_number = ?", storeID, tableNumber).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTable returns the table row, or ErrNotFound if the store has never
// registered it.
func GetTable(ctx context.Context, db *gorm.DB, storeID int64, tableNumber int) (*domain.StoreTable, error) {
	var t domain.StoreTable
	err := db.WithContext(ctx).
		Where("store_id = ? AND table_number = ?", storeID, tableNumber).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkOccupied flips the table to occupied by source. occupied_since is kept
// when the table is already occupied.
func MarkOccupied(ctx context.Context, tx *gorm.DB, storeID int64, tableNumber int, source string, at time.Time) error {
	res := tx.WithContext(ctx).
		Model(&domain.StoreTable{}).
		Where("store_id = ? AND table_number = ?", storeID, tableNumber).
		Updates(map[string]any{
			"is_occupied":    true,
			"occupied_by":    source,
			"occupied_since": gorm.Expr("COALESCE(occupied_since, ?)", at),
			"updated_at":     at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReleaseTable marks the table unoccupied. A missing row is not an error.
func ReleaseTable(ctx context.Context, tx *gorm.DB, storeID int64, tableNumber int, at time.Time) error {
	err := tx.WithContext(ctx).
		Model(&domain.StoreTable{}).
		Where("store_id = ? AND table_number = ?", storeID, tableNumber).
		Updates(map[string]any{
			"is_occupied":    false,
			"occupied_by":    "",
			"occupied_since": nil,
			"updated_at":     at,
		}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
