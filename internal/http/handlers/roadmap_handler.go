// Package handlers turns HTTP requests into service calls and service
// results (or sentinel errors) into JSON responses. This file holds the
// service contracts, shared request helpers and POST /roadmaps/generate.
//
// A generate request repeating a completed Idempotency-Key is answered from
// the stored roadmap with Idempotency-Replayed: true; the model is not called
// and no credit is spent.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-roadmap-backend/internal/domain"
	"github.com/tbourn/go-roadmap-backend/internal/http/middleware"
	"github.com/tbourn/go-roadmap-backend/internal/llm"
	"github.com/tbourn/go-roadmap-backend/internal/roadmap"
	"github.com/tbourn/go-roadmap-backend/internal/services"
	"github.com/tbourn/go-roadmap-backend/internal/utils"
)

// RoadmapService generates and browses roadmaps. Implementations are shared
// across requests and must stop work when ctx is done.
type RoadmapService interface {
	// Generate produces (or reuses) the roadmap tree for a query.
	Generate(ctx context.Context, in services.GenerateInput) (*services.GenerateResult, error)
	// Get returns one roadmap visible to userID and its tree.
	Get(ctx context.Context, userID, id string) (*domain.Roadmap, []domain.Node, error)
	// ListPublic returns a page of public roadmaps and the total count.
	ListPublic(ctx context.Context, query string, page, pageSize int) ([]domain.Roadmap, int64, error)
	// SetVisibility changes the visibility of a roadmap authored by userID.
	SetVisibility(ctx context.Context, userID, id, visibility string) (*domain.Roadmap, error)
}

// CreditService reports generation credits.
type CreditService interface {
	// Balance returns the remaining credits of userID.
	Balance(ctx context.Context, userID string) (int, error)
}

// Handlers serves the roadmap and credit endpoints.
type Handlers struct {
	roadmapSvc RoadmapService
	creditSvc  CreditService
}

// New returns Handlers backed by the given services.
func New(roadmapSvc RoadmapService, creditSvc CreditService) *Handlers {
	return &Handlers{roadmapSvc: roadmapSvc, creditSvc: creditSvc}
}

// userID resolves the caller: the "userID" context value, then the X-User-ID
// header, then the shared anonymous id "demo-user".
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

// GenerateRequest is the JSON payload for generating a roadmap.
type GenerateRequest struct {
	// Query is the topic to build a roadmap for.
	Query string `json:"query" example:"Rust"`
	// APIKey optionally supplies the caller's own model key. The apiKey query
	// parameter takes precedence when both are present.
	APIKey string `json:"apiKey,omitempty" example:"gsk_..."`
}

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// clampPagination reads page (>= 1, default 1) and page_size (1..100,
// default 20) from the query string.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.Clamp(utils.AtoiDefault(c.Query("page"), defaultPage), 1, 0)
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// generationFailure maps a Generate error to (status, code, message, detail).
// detail is only filled for unexpected failures.
func generationFailure(err error) (int, string, string, string) {
	switch {
	case errors.Is(err, llm.ErrNoCredential):
		return http.StatusBadRequest, ErrCodeNoCredential, msgNoCredential, ""
	case errors.Is(err, services.ErrEmptyQuery):
		return http.StatusBadRequest, ErrCodeEmptyQuery, msgEmptyQuery, ""
	case errors.Is(err, llm.ErrTimeout):
		return http.StatusRequestTimeout, ErrCodeTimeout, msgTimeout, ""
	case errors.Is(err, llm.ErrInvalidKey):
		return http.StatusBadRequest, ErrCodeInvalidAPIKey, msgInvalidKey, ""
	case errors.Is(err, llm.ErrModelDecommissioned):
		return http.StatusBadRequest, ErrCodeModelDecommissioned, msgModelRetired, ""
	case errors.Is(err, llm.ErrUpstream):
		return http.StatusBadRequest, ErrCodeGenerationFailed, msgUnexpected, err.Error()
	case errors.Is(err, services.ErrNoCredits):
		return http.StatusBadRequest, ErrCodeNoCredits, msgNoCredits, ""
	case errors.Is(err, services.ErrCreditLedger):
		return http.StatusInternalServerError, ErrCodeCreditLedger, msgCreditLedger, ""
	case errors.Is(err, roadmap.ErrNoContent):
		return http.StatusInternalServerError, ErrCodeNoContent, msgNoContent, ""
	case errors.Is(err, roadmap.ErrInvalidFormat):
		return http.StatusInternalServerError, ErrCodeInvalidFormat, msgInvalidShape, ""
	case errors.Is(err, roadmap.ErrParse):
		return http.StatusInternalServerError, ErrCodeParseFailed, msgUnexpected, err.Error()
	default:
		return http.StatusInternalServerError, ErrCodeInternal, msgUnexpected, err.Error()
	}
}

//
// Handlers
//

// GenerateRoadmap godoc
// @ID          generateRoadmap
// @Summary     Generate a learning roadmap
// @Description Returns the roadmap tree for a query. An existing roadmap with the same
// @Description case-insensitive title is reused; otherwise the model generates one and it
// @Description is stored. Server-funded generations cost one credit; generations using the
// @Description caller's own key are free.
// @Tags        Roadmaps
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"          example(user123)
// @Param       Idempotency-Key  header  string  false "Replay-safe retry key"          example(7b0c1d8e-roadmap)
// @Param       apiKey           query   string  false "Caller-supplied model API key (wins over body apiKey)"
// @Param       body             body    handlers.GenerateRequest  true  "Generation payload"
//
// @Success     200  {object}  handlers.StatusResponse
// @Header      200  {string}  Idempotency-Replayed  "true when served from a previous request"
// @Failure     400  {object}  handlers.StatusResponse  "Missing query, credential, bad key, retired model or no credits"
// @Failure     408  {object}  handlers.StatusResponse  "Model deadline exceeded"
// @Failure     500  {object}  handlers.StatusResponse  "Unusable model answer or credit ledger failure"
// @Router      /roadmaps/generate [post]
func (h *Handlers) GenerateRoadmap(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		generateFail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body", "")
		return
	}

	callerKey := c.Query("apiKey")
	if strings.TrimSpace(callerKey) == "" {
		callerKey = req.APIKey
	}
	idemKey, _ := middleware.GetIdempotencyKey(c)

	res, err := h.roadmapSvc.Generate(c.Request.Context(), services.GenerateInput{
		UserID:         userID(c),
		Query:          req.Query,
		CallerKey:      callerKey,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		status, code, msg, detail := generationFailure(err)
		generateFail(c, status, code, msg, detail)
		return
	}

	if res.Replayed {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
	}
	ok(c, http.StatusOK, StatusResponse{
		Status:    true,
		Tree:      res.Tree,
		RoadmapID: res.RoadmapID,
	})
}
