package llm

import (
	"context"
	"errors"
	"fmt"

	"resume-matcher/internal/prompt"
)

// Client sends a rendered prompt to a generative model and returns its raw text answer.
// Implementations must be safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, p prompt.Prompt) (string, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, p prompt.Prompt) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, p prompt.Prompt) (string, error) {
	return f(ctx, p)
}

var (
	// ErrUpstream marks every failure of the model call.
	ErrUpstream = errors.New("ai service call failed")
	// ErrTimeout marks upstream failures caused by a deadline.
	ErrTimeout = errors.New("ai service call timed out")
	// ErrEmptyResponse is returned when the model answers with no text.
	ErrEmptyResponse = errors.New("ai service returned an empty response")
)

// StatusError is a non-2xx answer from a provider API.
type StatusError struct {
	Provider string
	Code     int
	Message  string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: http status %d", e.Provider, e.Code)
	}
	return fmt.Sprintf("%s: http status %d: %s", e.Provider, e.Code, e.Message)
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	return e.Code == 408 || e.Code == 429 || e.Code >= 500
}

// IsTimeout reports whether err was caused by a deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
