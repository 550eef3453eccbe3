package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/domain"
)

// GetPromo looks up a rule by its exact (already uppercased) code.
func GetPromo(ctx context.Context, db *gorm.DB, code string) (*domain.PromoRule, error) {
	var p domain.PromoRule
	err := db.WithContext(ctx).First(&p, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePromo inserts a rule. Because Active has a database default, an
// inactive rule is written in a second statement.
func CreatePromo(ctx context.Context, db *gorm.DB, p *domain.PromoRule) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		active := p.Active
		if err := tx.Create(p).Error; err != nil {
			if IsUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		if !active {
			p.Active = false
			return tx.Model(p).Update("active", false).Error
		}
		return nil
	})
}
