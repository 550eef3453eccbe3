package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/domain"
)

// ProductsStats returns the number of active products (optionally in one
// category) and the greatest UpdatedAt among them. The HTTP layer derives a
// weak ETag from the pair. maxUpdatedAt is nil when there are no rows.
func ProductsStats(ctx context.Context, db *gorm.DB, categoryID int64) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Product{}).Where("active = ?", true)
	if categoryID > 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
