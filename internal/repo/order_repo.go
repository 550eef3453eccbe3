package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/domain"
)

// CreateOrder inserts the order and its items in one transaction. A second
// insert with the same order id returns ErrDuplicate.
func CreateOrder(ctx context.Context, db *gorm.DB, o *domain.Order) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			if IsUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		return nil
	})
}

// GetOrder loads one order with its items.
func GetOrder(ctx context.Context, db *gorm.DB, id string) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("id ASC") }).
		First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrdersByPhone returns the newest orders placed with phone.
func ListOrdersByPhone(ctx context.Context, db *gorm.DB, phone string, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []domain.Order
	err := db.WithContext(ctx).
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("id ASC") }).
		Where("phone = ?", phone).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
