package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout is the hard deadline applied when an Invoker has none set.
const DefaultTimeout = 25 * time.Second

// Invoker wraps a Completer with credential checks, a hard deadline, and
// error classification.
type Invoker struct {
	Completer Completer
	Timeout   time.Duration
}

// NewInvoker returns an Invoker with the given completer and deadline.
// A non-positive timeout falls back to DefaultTimeout.
func NewInvoker(c Completer, timeout time.Duration) *Invoker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Invoker{Completer: c, Timeout: timeout}
}

type completion struct {
	text string
	err  error
}

// Invoke runs one completion. It returns ErrNoCredential before any network
// activity when cred has no key, and ErrTimeout once the deadline elapses even
// if the underlying completer has not yet returned.
func (inv *Invoker) Invoke(ctx context.Context, cred Credential, messages []Message) (string, error) {
	if strings.TrimSpace(cred.Key) == "" {
		return "", ErrNoCredential
	}

	tr := otel.Tracer("llm/Invoker")
	ctx, span := tr.Start(ctx, "Invoke",
		trace.WithAttributes(
			attribute.Bool("llm.caller_key", cred.CallerSupplied),
			attribute.Int("llm.messages", len(messages)),
		),
	)
	defer span.End()

	timeout := inv.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Buffered so the goroutine never blocks if we stop waiting on deadline.
	done := make(chan completion, 1)
	go func() {
		text, err := inv.Completer.Complete(ctx, cred.Key, messages)
		done <- completion{text: text, err: err}
	}()

	var out completion
	select {
	case out = <-done:
	case <-ctx.Done():
		out = completion{err: ctx.Err()}
	}

	if out.err != nil {
		err := classify(ctx, out.err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return out.text, nil
}

// classify maps a raw completion error to one of the package sentinels.
// Provider errors are recognized by the substrings they carry in their body.
func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Invalid API Key"), strings.Contains(msg, "invalid_api_key"):
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	case strings.Contains(msg, "decommissioned"), strings.Contains(msg, "model_decommissioned"):
		return fmt.Errorf("%w: %w", ErrModelDecommissioned, err)
	default:
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
}
