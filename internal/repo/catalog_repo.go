package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/domain"
)

// ProductFilter narrows ListProducts. Zero values mean "any".
type ProductFilter struct {
	CategoryID int64
	Query      string // case-insensitive substring of the name
	Offset     int
	Limit      int
}

func (f ProductFilter) apply(q *gorm.DB) *gorm.DB {
	q = q.Where("active = ?", true)
	if f.CategoryID > 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	return q
}

// ListProducts returns one page of active products and the total match count.
func ListProducts(ctx context.Context, db *gorm.DB, f ProductFilter) ([]domain.Product, int64, error) {
	var total int64
	if err := f.apply(db.WithContext(ctx).Model(&domain.Product{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q := f.apply(db.WithContext(ctx).Model(&domain.Product{})).Order("id ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var out []domain.Product
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetProduct loads an active product.
func GetProduct(ctx context.Context, db *gorm.DB, id int64) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Where("active = ?", true).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListCategories returns categories by position, then name.
func ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	var out []domain.Category
	err := db.WithContext(ctx).Order("position ASC").Order("name ASC").Find(&out).Error
	return out, err
}

// CreateProduct inserts a product. Used by seeding and tests; the admin CMS
// writes the catalog directly.
func CreateProduct(ctx context.Context, db *gorm.DB, p *domain.Product) error {
	return db.WithContext(ctx).Create(p).Error
}

// CreateCategory inserts a category.
func CreateCategory(ctx context.Context, db *gorm.DB, c *domain.Category) error {
	return db.WithContext(ctx).Create(c).Error
}
