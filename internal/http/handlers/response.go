// Package handlers provides HTTP handler implementations for the public API.
//
// Two envelopes are in use. Library endpoints fail with ErrorResponse:
//
//	HTTP/1.1 404 Not Found
//	{"request_id": "…", "code": "not_found", "message": "roadmap not found"}
//
// The generation endpoint always answers with StatusResponse, where `status`
// tells clients whether a tree is present:
//
//	HTTP/1.1 400 Bad Request
//	{"status": false, "code": "empty_query", "message": "Please send query."}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-roadmap-backend/internal/domain"
	"github.com/tbourn/go-roadmap-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope of the library endpoints.
type ErrorResponse struct {
	// Echo of X-Request-ID for correlating with server logs.
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable machine-readable code, see errors.go.
	Code string `json:"code" example:"not_found"`
	// Safe to show to users.
	Message string `json:"message" example:"roadmap not found"`
}

// StatusResponse is the envelope of the generation endpoint. Successful
// responses carry Tree (and RoadmapID when the roadmap was stored); failures
// carry Message, Code and, for unexpected failures, Error.
type StatusResponse struct {
	Status    bool          `json:"status" example:"true"`
	Tree      []domain.Node `json:"tree,omitempty"`
	RoadmapID string        `json:"roadmapId,omitempty" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	Message   string        `json:"message,omitempty" example:"Please send query."`
	Error     string        `json:"error,omitempty"`
	RequestID string        `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string        `json:"code,omitempty" example:"empty_query"`
}

// logServerError records 5xx answers on the request-scoped logger. Client
// errors already show up in the access log at warn.
func logServerError(c *gin.Context, status int, code, detail, msg string) {
	if status < http.StatusInternalServerError {
		return
	}
	middleware.LoggerFrom(c).Error().
		Int("status", status).
		Str("code", code).
		Str("error", detail).
		Msg(msg)
}

// fail aborts with an ErrorResponse.
func fail(c *gin.Context, status int, code, msg string) {
	logServerError(c, status, code, msg, "api error")
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Message:   msg,
	})
}

// Fail lets the router answer NoRoute/NoMethod with the same envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// generateFail aborts a generation request with a status-false envelope.
// detail is the raw cause and is only set for unexpected failures.
func generateFail(c *gin.Context, status int, code, msg, detail string) {
	logServerError(c, status, code, detail, "generation failed")
	c.AbortWithStatusJSON(status, StatusResponse{
		Status:    false,
		Message:   msg,
		Error:     detail,
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
	})
}

func ok(c *gin.Context, status int, body any) { c.JSON(status, body) }

func noContent(c *gin.Context) { c.Status(http.StatusNoContent) }
