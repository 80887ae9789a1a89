package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-roadmap-backend/internal/domain"
	"github.com/tbourn/go-roadmap-backend/internal/repo"
)

// roadmapStore exposes the repo package as a services.RoadmapRepo.
type roadmapStore struct{}

func (roadmapStore) FindRoadmapByNormalizedTitle(ctx context.Context, db *gorm.DB, normalized string) (*domain.Roadmap, error) {
	return repo.FindRoadmapByNormalizedTitle(ctx, db, normalized)
}

func (roadmapStore) IncrementRoadmapSearchCount(ctx context.Context, db *gorm.DB, id string) error {
	return repo.IncrementRoadmapSearchCount(ctx, db, id)
}

func (roadmapStore) SaveRoadmap(ctx context.Context, db *gorm.DB, title string, tree []domain.Node, authorID string) (*domain.Roadmap, error) {
	return repo.SaveRoadmap(ctx, db, title, tree, authorID)
}

func (roadmapStore) GetRoadmap(ctx context.Context, db *gorm.DB, id string) (*domain.Roadmap, error) {
	return repo.GetRoadmap(ctx, db, id)
}

func (roadmapStore) CountPublicRoadmaps(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountPublicRoadmaps(ctx, db)
}

func (roadmapStore) ListPublicRoadmapsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Roadmap, error) {
	return repo.ListPublicRoadmapsPage(ctx, db, offset, limit)
}

func (roadmapStore) ListPublicTitles(ctx context.Context, db *gorm.DB, limit int) ([]domain.Roadmap, error) {
	return repo.ListPublicTitles(ctx, db, limit)
}

func (roadmapStore) UpdateRoadmapVisibility(ctx context.Context, db *gorm.DB, id, authorID string, v domain.Visibility) error {
	return repo.UpdateRoadmapVisibility(ctx, db, id, authorID, v)
}

// creditStore exposes the user table as a services.CreditLedger.
type creditStore struct{}

func (creditStore) EnsureUser(ctx context.Context, db *gorm.DB, id string, initial int) (*domain.User, error) {
	return repo.EnsureUser(ctx, db, id, initial)
}

func (creditStore) DecrementCredits(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	return repo.DecrementCredits(ctx, db, id)
}

func (creditStore) IncrementCredits(ctx context.Context, db *gorm.DB, id string) error {
	return repo.IncrementCredits(ctx, db, id)
}

// idemStore exposes idempotency records as a services.IdempotencyStore.
type idemStore struct{}

// Lookup treats read errors as a miss so a broken record never blocks a
// generation.
func (idemStore) Lookup(ctx context.Context, db *gorm.DB, userID, scope, key string, now time.Time) (string, bool) {
	rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
	if err != nil || rec == nil {
		return "", false
	}
	return rec.RoadmapID, true
}

// Remember keeps the first record when two requests race on one key.
func (idemStore) Remember(ctx context.Context, db *gorm.DB, userID, scope, key, roadmapID string, ttl time.Duration) error {
	_, err := repo.CreateIdempotency(ctx, db, userID, scope, key, roadmapID, http.StatusOK, ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// replayLookup backs the idempotency middleware: it only reports whether a
// live record exists so replays can skip the rate limiter.
func replayLookup(db *gorm.DB) func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
	return func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
		_, ok := idemStore{}.Lookup(ctx, db, userID, scope, key, now)
		return ok, nil
	}
}
