// Package services – roadmap browsing
//
// This file implements the read and ownership operations on stored roadmaps:
// fetching one roadmap, listing public roadmaps by popularity (optionally
// ranked by title similarity), and changing visibility.
//
// A private roadmap is indistinguishable from a missing one for anyone but
// its author.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-roadmap-backend/internal/domain"
	"github.com/tbourn/go-roadmap-backend/internal/search"
	"github.com/tbourn/go-roadmap-backend/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Get returns a roadmap and its decoded tree. Private roadmaps are only
// returned to their author; everyone else gets ErrRoadmapNotFound.
func (s *RoadmapService) Get(ctx context.Context, userID, id string) (*domain.Roadmap, []domain.Node, error) {
	tr := otel.Tracer("services/RoadmapService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(
			attribute.String("roadmap.id", id),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	r, err := s.visible(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	tree, err := decodeTree(r.Content)
	if err != nil {
		return nil, nil, err
	}
	return r, tree, nil
}

// ListPublic returns a page of PUBLIC roadmaps and the total count.
// Without a query the order is popularity, then recency. With a query, up to
// SearchLimit popular titles are ranked by similarity and only matches are
// returned.
func (s *RoadmapService) ListPublic(ctx context.Context, query string, page, pageSize int) ([]domain.Roadmap, int64, error) {
	tr := otel.Tracer("services/RoadmapService")
	ctx, span := tr.Start(ctx, "ListPublic",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
			attribute.Bool("search", strings.TrimSpace(query) != ""),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	if strings.TrimSpace(query) != "" {
		return s.searchPublic(ctx, query, page, pageSize)
	}
	offset := utils.Offset(page, pageSize)

	total, err := s.Repo.CountPublicRoadmaps(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Roadmap{}, 0, nil
	}
	items, err := s.Repo.ListPublicRoadmapsPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

func (s *RoadmapService) searchPublic(ctx context.Context, query string, page, pageSize int) ([]domain.Roadmap, int64, error) {
	candidates, err := s.Repo.ListPublicTitles(ctx, s.DB, s.SearchLimit)
	if err != nil {
		return nil, 0, err
	}

	docs := make([]search.Doc, len(candidates))
	byID := make(map[string]domain.Roadmap, len(candidates))
	for i, r := range candidates {
		docs[i] = search.Doc{ID: r.ID, Text: r.Title}
		byID[r.ID] = r
	}
	idx := search.NewTitleIndex(docs, search.WithStopwords(search.DefaultStopwords))
	hits := idx.Search(query, 0)

	start, end := utils.Window(page, pageSize, len(hits))
	out := make([]domain.Roadmap, 0, end-start)
	for _, h := range hits[start:end] {
		out = append(out, byID[h.ID])
	}
	return out, int64(len(hits)), nil
}

// SetVisibility changes a roadmap's visibility. Only the author may do so.
func (s *RoadmapService) SetVisibility(ctx context.Context, userID, id, visibility string) (*domain.Roadmap, error) {
	tr := otel.Tracer("services/RoadmapService")
	ctx, span := tr.Start(ctx, "SetVisibility",
		trace.WithAttributes(
			attribute.String("roadmap.id", id),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	v := domain.Visibility(strings.ToUpper(strings.TrimSpace(visibility)))
	if !v.Valid() {
		return nil, ErrInvalidVisibility
	}

	r, err := s.visible(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if r.AuthorID != userID {
		return nil, ErrForbidden
	}
	if err := s.Repo.UpdateRoadmapVisibility(ctx, s.DB, id, userID, v); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoadmapNotFound
		}
		return nil, err
	}
	r.Visibility = v
	return r, nil
}

// visible loads a roadmap and hides private ones from non-authors.
// Generate's dedup lookup does not go through here: a topic someone already
// paid for is reused even when its author made it private, so a dedup hit can
// return a roadmap that Get reports as not found.
func (s *RoadmapService) visible(ctx context.Context, userID, id string) (*domain.Roadmap, error) {
	r, err := s.Repo.GetRoadmap(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoadmapNotFound
		}
		return nil, err
	}
	if r.Visibility == domain.VisibilityPrivate && r.AuthorID != userID {
		return nil, ErrRoadmapNotFound
	}
	return r, nil
}
