// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-roadmap-backend/internal/domain"
)

// PublicRoadmapsStats returns the number of PUBLIC roadmaps and the greatest
// UpdatedAt among them. Search-count bumps touch updated_at, so the pair
// changes whenever the popularity order can change.
//
// When there are no public roadmaps the count is 0 and maxUpdatedAt is nil.
func PublicRoadmapsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Roadmap{}).Where("visibility = ?", domain.VisibilityPublic)

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
