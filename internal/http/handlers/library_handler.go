// Roadmap browsing HTTP handlers.
//
// This file exposes read and ownership endpoints for stored roadmaps:
//   - GET /roadmaps                   (explore public roadmaps, paginated, ETag support)
//   - GET /roadmaps/{id}              (view one roadmap)
//   - PUT /roadmaps/{id}/visibility   (author toggles PUBLIC/PRIVATE)
//   - GET /credits                    (remaining generation credits)

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-roadmap-backend/internal/domain"
	"github.com/tbourn/go-roadmap-backend/internal/repo"
	"github.com/tbourn/go-roadmap-backend/internal/services"
)

//
// DTOs
//

// RoadmapResponse is one roadmap with its tree.
type RoadmapResponse struct {
	Roadmap *domain.Roadmap `json:"roadmap"`
	Tree    []domain.Node   `json:"tree"`
}

// ListRoadmapsResponse wraps a page of public roadmaps and pagination information.
type ListRoadmapsResponse struct {
	Roadmaps   []domain.Roadmap `json:"roadmaps"`
	Pagination Pagination       `json:"pagination"`
}

// UpdateVisibilityRequest is the JSON payload for changing roadmap visibility.
type UpdateVisibilityRequest struct {
	// Visibility is PUBLIC or PRIVATE (case-insensitive).
	Visibility string `json:"visibility" binding:"required" example:"PRIVATE"`
}

// CreditsResponse reports the caller's remaining credits.
type CreditsResponse struct {
	UserID  string `json:"user_id" example:"user123"`
	Credits int    `json:"credits" example:"5"`
}

//
// Handlers
//

// ListRoadmaps godoc
// @ID          listRoadmaps
// @Summary     Explore public roadmaps (paginated)
// @Description Returns public roadmaps ordered by popularity, then recency. With q, titles are
// @Description ranked by similarity instead and only matches are returned. Supports weak ETag
// @Description via If-None-Match and may return 304.
// @Tags        Roadmaps
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       q              query   string  false "Title search"                 example(python)
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListRoadmapsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /roadmaps [get]
func (h *Handlers) ListRoadmaps(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)
	q := strings.TrimSpace(c.Query("q"))

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.roadmapSvc.(*services.RoadmapService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.PublicRoadmapsStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.UnixNano()
			}
			etag := fmt.Sprintf(`W/"roadmaps:public:%d:%d:%d:%d:%s"`, count, ts, page, pageSize, url.QueryEscape(q))
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.roadmapSvc.ListPublic(ctx, q, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListRoadmapsResponse{
		Roadmaps: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetRoadmap godoc
// @ID          getRoadmap
// @Summary     View a roadmap
// @Description Returns a roadmap and its tree. Private roadmaps are visible to their author only.
// @Tags        Roadmaps
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Roadmap ID (UUID)"      format(uuid) example(141add05-4415-4938-b5a1-17e0d3171aff)
//
// @Success     200  {object} handlers.RoadmapResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Roadmap not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /roadmaps/{id} [get]
func (h *Handlers) GetRoadmap(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "roadmap id must be a UUID")
		return
	}

	r, tree, err := h.roadmapSvc.Get(c.Request.Context(), userID(c), id)
	switch {
	case errors.Is(err, services.ErrRoadmapNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "roadmap not found")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	c.Header("Last-Modified", r.UpdatedAt.UTC().Format(http.TimeFormat))
	ok(c, http.StatusOK, RoadmapResponse{Roadmap: r, Tree: tree})
}

// UpdateVisibility godoc
// @ID          updateRoadmapVisibility
// @Summary     Change roadmap visibility
// @Description Makes a roadmap PUBLIC or PRIVATE. Only its author may do so.
// @Tags        Roadmaps
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Roadmap ID (UUID)"      format(uuid) example(141add05-4415-4938-b5a1-17e0d3171aff)
// @Param       body       body    handlers.UpdateVisibilityRequest  true  "New visibility"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Not the author"
// @Failure     404  {object} handlers.ErrorResponse "Roadmap not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /roadmaps/{id}/visibility [put]
func (h *Handlers) UpdateVisibility(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "roadmap id must be a UUID")
		return
	}

	var req UpdateVisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "visibility required (PUBLIC or PRIVATE)")
		return
	}

	_, err := h.roadmapSvc.SetVisibility(c.Request.Context(), userID(c), id, req.Visibility)
	switch {
	case errors.Is(err, services.ErrInvalidVisibility):
		fail(c, http.StatusBadRequest, ErrCodeInvalidVisibility, err.Error())
	case errors.Is(err, services.ErrRoadmapNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "roadmap not found")
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "only the author can change visibility")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	default:
		noContent(c)
	}
}

// GetCredits godoc
// @ID          getCredits
// @Summary     Remaining generation credits
// @Description Returns how many server-funded generations the current user has left.
// @Tags        Credits
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object} handlers.CreditsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /credits [get]
func (h *Handlers) GetCredits(c *gin.Context) {
	uid := userID(c)
	n, err := h.creditSvc.Balance(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not read credits")
		return
	}
	c.Header("Cache-Control", "no-store")
	ok(c, http.StatusOK, CreditsResponse{UserID: uid, Credits: n})
}
