// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` and `generateFail()` helpers in this package). These codes give
// clients a stable, machine-readable error taxonomy that supplements the
// human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, forbidden, not_found) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes name the generation step that failed (credential,
//     model, credits, extraction) so clients can branch without parsing messages.
//
// Example response:
//
//	{
//	  "status": false,
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "no_credits",
//	  "message": "No credits remaining"
//	}
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific: generation
	ErrCodeEmptyQuery          = "empty_query"
	ErrCodeNoCredential        = "no_credential"
	ErrCodeInvalidAPIKey       = "invalid_api_key"
	ErrCodeModelDecommissioned = "model_decommissioned"
	ErrCodeGenerationFailed    = "generation_failed"
	ErrCodeTimeout             = "timeout"
	ErrCodeNoCredits           = "no_credits"
	ErrCodeCreditLedger        = "credit_error"
	ErrCodeNoContent           = "no_content"
	ErrCodeParseFailed         = "parse_failed"
	ErrCodeInvalidFormat       = "invalid_format"

	// Domain-specific: browsing
	ErrCodeListFailed        = "list_failed"
	ErrCodeInvalidVisibility = "invalid_visibility"
	ErrCodeMethodNotAllowed  = "method_not_allowed"
)

// User-facing generation messages. Clients display these verbatim.
const (
	msgEmptyQuery   = "Please send query."
	msgNoCredential = "No valid API key provided. Please add your own API key using the 'Add Key' button in the interface, or get a free API key from https://console.groq.com/ and add it to your environment variables."
	msgInvalidKey   = "Invalid API key. Please add your own API key using the 'Add Key' button in the interface, or get a free API key from https://console.groq.com/"
	msgModelRetired = "The AI model has been updated. Please refresh the page and try again."
	msgTimeout      = "Request timed out. Please try again."
	msgNoCredits    = "No credits remaining"
	msgCreditLedger = "An error occurred while managing credits."
	msgNoContent    = "No response content from AI model"
	msgInvalidShape = "Invalid response format from AI model"
	msgUnexpected   = "An unexpected error occurred while generating roadmap. Please try again or use a different keyword/query."
)
