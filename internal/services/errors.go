// Package services defines the business logic for roadmap generation, the
// credit ledger and browsing of stored roadmaps. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Errors raised by the llm and roadmap packages (credential, timeout,
// upstream and extraction failures) pass through Generate unchanged and are
// matched with errors.Is at the handler layer, alongside the values below.
package services

import "errors"

// Generation errors.
var (
	// ErrEmptyQuery is returned when the query is missing or whitespace-only.
	// The model is never called in that case.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrNoCredits is returned when a server-funded generation finds the
	// caller's balance at zero.
	ErrNoCredits = errors.New("no credits remaining")

	// ErrCreditLedger is returned when the credit ledger could not be updated.
	// Any credit taken by the failed operation has been given back.
	ErrCreditLedger = errors.New("credit ledger failure")
)

// Roadmap access errors.
var (
	// ErrRoadmapNotFound indicates that the roadmap does not exist or is not
	// visible to the current user.
	ErrRoadmapNotFound = errors.New("roadmap not found")

	// ErrForbidden is returned when a user tries to modify a roadmap they did
	// not author.
	ErrForbidden = errors.New("roadmap belongs to another user")

	// ErrInvalidVisibility is returned for visibility values other than
	// PUBLIC or PRIVATE.
	ErrInvalidVisibility = errors.New("visibility must be PUBLIC or PRIVATE")
)
