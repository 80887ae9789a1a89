// Package llm talks to the hosted language model that synthesizes roadmaps.
//
// It owns three concerns: resolving which credential a call uses, invoking
// the model under a hard deadline, and classifying provider failures into a
// small set of sentinel errors the HTTP layer can map to user-facing
// messages. Nothing in this package logs; callers decide what to record.
package llm

import "errors"

var (
	// ErrNoCredential means neither the caller nor the environment supplied a
	// usable API key. No network call is made.
	ErrNoCredential = errors.New("no usable model credential")

	// ErrTimeout means the model did not answer before the invocation deadline.
	ErrTimeout = errors.New("model request timed out")

	// ErrInvalidKey means the provider rejected the credential.
	ErrInvalidKey = errors.New("model provider rejected the api key")

	// ErrModelDecommissioned means the configured model no longer exists upstream.
	ErrModelDecommissioned = errors.New("model has been decommissioned")

	// ErrUpstream covers every other provider-side failure.
	ErrUpstream = errors.New("model provider error")
)
