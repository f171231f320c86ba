// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for guests and
// per-store visit counters.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-pos-backend/internal/domain"
)

// FindGuestByPhone looks a guest up by normalized phone.
func FindGuestByPhone(ctx context.Context, db *gorm.DB, phone string) (*domain.Guest, error) {
	var g domain.Guest
	if err := db.WithContext(ctx).Where("phone = ?", phone).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// GetGuest fetches a guest by id.
func GetGuest(ctx context.Context, db *gorm.DB, id string) (*domain.Guest, error) {
	var g domain.Guest
	if err := db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGuest inserts a guest with a fresh UUID. A concurrent insert for the
// same phone surfaces as a unique violation.
func CreateGuest(ctx context.Context, db *gorm.DB, phone, name string) (*domain.Guest, error) {
	now := time.Now().UTC()
	g := &domain.Guest{ID: uuid.NewString(), Phone: phone, Name: name, CreatedAt: now, UpdatedAt: now}
	if err := db.WithContext(ctx).Create(g).Error; err != nil {
		return nil, err
	}
	return g, nil
}

// MarkGuestConverted links a guest to a member account.
func MarkGuestConverted(ctx context.Context, tx *gorm.DB, id, memberID string, at time.Time) error {
	res := tx.WithContext(ctx).
		Model(&domain.Guest{}).
		Where("id = ?", id).
		Updates(map[string]any{"member_id": memberID, "converted_at": at, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddVisit upserts the (store, customer) counter, adding visits and spent to
// whatever is already recorded.
func AddVisit(ctx context.Context, tx *gorm.DB, storeID int64, customerKey string, visits int, spent int64, at time.Time) error {
	row := &domain.CustomerVisit{
		StoreID:     storeID,
		CustomerKey: customerKey,
		VisitCount:  visits,
		TotalSpent:  spent,
		LastVisitAt: at,
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "store_id"}, {Name: "customer_key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"visit_count":   gorm.Expr("customer_visits.visit_count + ?", visits),
				"total_spent":   gorm.Expr("customer_visits.total_spent + ?", spent),
				"last_visit_at": gorm.Expr("CASE WHEN customer_visits.last_visit_at > ? THEN customer_visits.last_visit_at ELSE ? END", at, at),
			}),
		}).
		Create(row).Error
}

// ListVisits returns every store counter of one customer key.
func ListVisits(ctx context.Context, db *gorm.DB, customerKey string) ([]domain.CustomerVisit, error) {
	var out []domain.CustomerVisit
	err := db.WithContext(ctx).
		Where("customer_key = ?", customerKey).
		Order("store_id asc").
		Find(&out).Error
	return out, err
}

// GetVisit returns one store counter, or ErrNotFound.
func GetVisit(ctx context.Context, db *gorm.DB, storeID int64, customerKey string) (*domain.CustomerVisit, error) {
	var v domain.CustomerVisit
	err := db.WithContext(ctx).
		Where("store_id = ? AND customer_key = ?", storeID, customerKey).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// DeleteVisits removes every counter of one customer key.
func DeleteVisits(ctx context.Context, tx *gorm.DB, customerKey string) error {
	return tx.WithContext(ctx).
		Where("customer_key = ?", customerKey).
		Delete(&domain.CustomerVisit{}).Error
}
