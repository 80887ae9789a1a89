// Package repo holds the GORM queries behind the roadmap, user and
// idempotency tables. Functions take the *gorm.DB to run on, so callers can
// pass a transaction, and contain no business rules. Missing rows surface as
// ErrNotFound; every other database error is returned unwrapped.
//
// Dedup lookups compare normalized_title for equality only, never LIKE, so
// "javascript" cannot resolve to a stored "java".
package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-roadmap-backend/internal/domain"
	"github.com/tbourn/go-roadmap-backend/internal/roadmap"
)

// ErrNotFound is gorm.ErrRecordNotFound under a repo-local name.
var ErrNotFound = gorm.ErrRecordNotFound

// listColumns excludes the content blob from listing queries.
var listColumns = []string{
	"id", "title", "normalized_title", "search_count", "visibility",
	"author_id", "created_at", "updated_at",
}

// SaveRoadmap persists a freshly generated roadmap. The tree is stored as
// JSON; NormalizedTitle is derived from title (trimmed, lower-cased) so later
// lookups can match it exactly. New roadmaps start PUBLIC with zero searches.
func SaveRoadmap(ctx context.Context, db *gorm.DB, title string, tree []domain.Node, authorID string) (*domain.Roadmap, error) {
	content, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	r := &domain.Roadmap{
		ID:              uuid.NewString(),
		Title:           title,
		NormalizedTitle: roadmap.Normalize(title),
		Content:         string(content),
		Visibility:      domain.VisibilityPublic,
		AuthorID:        authorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// FindRoadmapByNormalizedTitle returns the oldest roadmap whose normalized
// title equals normalized exactly, or ErrNotFound. Private roadmaps are
// included: dedup is about not paying for a generation twice.
func FindRoadmapByNormalizedTitle(ctx context.Context, db *gorm.DB, normalized string) (*domain.Roadmap, error) {
	var r domain.Roadmap
	err := db.WithContext(ctx).
		Where("normalized_title = ?", normalized).
		Order("created_at asc, id asc").
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// IncrementRoadmapSearchCount bumps the popularity counter of a roadmap by
// one. It returns ErrNotFound if no row was updated.
func IncrementRoadmapSearchCount(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Roadmap{}).
		Where("id = ?", id).
		Update("search_count", gorm.Expr("search_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRoadmap fetches a roadmap by ID regardless of visibility. Access rules
// are enforced by the service layer.
func GetRoadmap(ctx context.Context, db *gorm.DB, id string) (*domain.Roadmap, error) {
	var r domain.Roadmap
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// CountPublicRoadmaps returns the number of PUBLIC roadmaps.
func CountPublicRoadmaps(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Roadmap{}).
		Where("visibility = ?", domain.VisibilityPublic).
		Count(&total).Error
	return total, err
}

// ListPublicRoadmapsPage returns a page of PUBLIC roadmaps ordered by
// popularity (search_count desc) and then recency. Content is not loaded.
//
// offset and limit come from utils.Offset and the page size.
func ListPublicRoadmapsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Roadmap, error) {
	var out []domain.Roadmap
	err := db.WithContext(ctx).
		Select(listColumns).
		Where("visibility = ?", domain.VisibilityPublic).
		Order("search_count desc, created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListPublicTitles returns up to limit PUBLIC roadmaps (without content) in
// popularity order. It feeds the in-memory title search index.
func ListPublicTitles(ctx context.Context, db *gorm.DB, limit int) ([]domain.Roadmap, error) {
	return ListPublicRoadmapsPage(ctx, db, 0, limit)
}

// UpdateRoadmapVisibility changes the visibility of a roadmap owned by
// authorID. It returns ErrNotFound if the roadmap does not exist or belongs
// to someone else.
func UpdateRoadmapVisibility(ctx context.Context, db *gorm.DB, id, authorID string, v domain.Visibility) error {
	res := db.WithContext(ctx).
		Model(&domain.Roadmap{}).
		Where("id = ? AND author_id = ?", id, authorID).
		Update("visibility", v)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
