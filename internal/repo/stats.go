// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-menu-backend/internal/domain"
)

// MenusStats returns the number of live menus and the greatest UpdatedAt
// among them. Soft-deleted rows are counted separately through deleted so
// that a delete also changes the fingerprint.
//
// Return values:
//   - count:        live menus
//   - deleted:      soft-deleted menus
//   - maxUpdatedAt: pointer to the greatest UpdatedAt, or nil if no live rows
//   - err:          database error, if any
func MenusStats(ctx context.Context, db *gorm.DB) (count, deleted int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Menu{})

	if err = q.Count(&count).Error; err != nil {
		return 0, 0, nil, err
	}
	if err = db.WithContext(ctx).Unscoped().Model(&domain.Menu{}).
		Where("deleted_at IS NOT NULL").Count(&deleted).Error; err != nil {
		return 0, 0, nil, err
	}
	if count == 0 {
		return 0, deleted, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.Menu{}).
		Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, nil, err
	}
	return count, deleted, &row.UpdatedAt, nil
}
