// Package roadmap holds the pure stages of roadmap generation: query
// normalization, prompt construction, extraction of the model's JSON answer
// and conversion of that answer into the tree the API returns.
//
// Every function here is deterministic and side-effect free so each stage can
// be tested in isolation; I/O lives in the services and repo packages.
package roadmap

import "errors"

var (
	// ErrNoContent means the model returned an empty or whitespace-only answer.
	ErrNoContent = errors.New("no response content from model")

	// ErrParse means the answer (after fence stripping) is not a JSON object.
	ErrParse = errors.New("model response is not valid json")

	// ErrInvalidFormat means the JSON is missing a usable chapters object.
	ErrInvalidFormat = errors.New("invalid response format from model")
)
