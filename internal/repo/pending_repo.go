// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for pending
// (draft) items, the lightweight per-table temp store.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-pos-backend/internal/domain"
)

// ListPendingItems returns the table's pending items, oldest first.
func ListPendingItems(ctx context.Context, db *gorm.DB, storeID int64, tableNumber int) ([]domain.PendingItem, error) {
	var out []domain.PendingItem
	err := db.WithContext(ctx).
		Where("store_id = ? AND table_number = ?", storeID, tableNumber).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

// CreatePendingItem inserts one pending row.
func CreatePendingItem(ctx context.Context, db *gorm.DB, p *domain.PendingItem) error {
	return db.WithContext(ctx).Create(p).Error
}

// GetPendingItem fetches a pending row scoped to its table.
func GetPendingItem(ctx context.Context, db *gorm.DB, storeID int64, tableNumber int, id string) (*domain.PendingItem, error) {
	var p domain.PendingItem
	err := db.WithContext(ctx).
		Where("id = ? AND store_id = ? AND table_number = ?", id, storeID, tableNumber).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePendingItem sets quantity and discount of one pending row.
func UpdatePendingItem(ctx context.Context, db *gorm.DB, storeID int64, tableNumber int, id string, qty int, discount int64, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.PendingItem{}).
		Where("id = ? AND store_id = ? AND table_number = ?", id, storeID, tableNumber).
		Updates(map[string]any{"quantity": qty, "discount": discount, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePendingItem removes one pending row.
func DeletePendingItem(ctx context.Context, db *gorm.DB, storeID int64, tableNumber int, id string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND store_id = ? AND table_number = ?", id, storeID, tableNumber).
		Delete(&domain.PendingItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearPendingItems removes every pending row of a table and returns how
// many were deleted.
func ClearPendingItems(ctx context.Context, db *gorm.DB, storeID int64, tableNumber int) (int64, error) {
	res := db.WithContext(ctx).
		Where("store_id = ? AND table_number = ?", storeID, tableNumber).
		Delete(&domain.PendingItem{})
	return res.RowsAffected, res.Error
}
