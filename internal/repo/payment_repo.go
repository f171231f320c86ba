// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Payment
// ledger.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-pos-backend/internal/domain"
)

// CreatePayment inserts a payment row.
func CreatePayment(ctx context.Context, tx *gorm.DB, p *domain.Payment) error {
	return tx.WithContext(ctx).Omit("Session").Create(p).Error
}

// GetPayment fetches one payment by id.
func GetPayment(ctx context.Context, db *gorm.DB, id string) (*domain.Payment, error) {
	var p domain.Payment
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// LockPayment re-reads a payment with a row lock.
func LockPayment(ctx context.Context, tx *gorm.DB, id string) (*domain.Payment, error) {
	var p domain.Payment
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SumCompletedPayments totals the completed payments of a session.
func SumCompletedPayments(ctx context.Context, db *gorm.DB, sessionID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("session_id = ? AND status = ?", sessionID, domain.PayStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// MarkPaymentRefunded amends a completed payment to refunded.
// Returns ErrNotFound if the payment is missing or not completed.
func MarkPaymentRefunded(ctx context.Context, tx *gorm.DB, id, reason string, at time.Time) error {
	res := tx.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("id = ? AND status = ?", id, domain.PayStatusCompleted).
		Updates(map[string]any{
			"status":      domain.PayStatusRefunded,
			"refunded_at": at,
			"refund_note": reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
