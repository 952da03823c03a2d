package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// UnavailableError means the provider could not serve the request at all:
// rate limited, overloaded, or unreachable. It is always retried.
type UnavailableError struct {
	Provider string
	// Status is the HTTP status, zero for transport failures.
	Status int
	// RetryAfter is the wait the provider asked for, if it sent one.
	RetryAfter time.Duration
	Err        error
}

func (e *UnavailableError) Error() string {
	switch {
	case e.RateLimited():
		return fmt.Sprintf("%s: rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: unavailable (HTTP %d): %v", e.Provider, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: unavailable: %v", e.Provider, e.Err)
	}
	return e.Provider + ": unavailable"
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// RateLimited reports a 429 from the provider.
func (e *UnavailableError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// unavailable wraps a provider SDK failure. h may be nil.
func unavailable(provider string, status int, h http.Header, err error) *UnavailableError {
	return &UnavailableError{Provider: provider, Status: status, RetryAfter: retryAfter(h), Err: err}
}

// retryAfter reads a Retry-After header in its delay-seconds form.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// BadOutputError means the completion is not the JSON the caller's schema
// asked for. Retried once, since models usually comply on a second try.
type BadOutputError struct {
	Schema  string
	Content json.RawMessage
	Err     error
}

func (e *BadOutputError) Error() string {
	if e.Schema == "" {
		return fmt.Sprintf("unusable completion: %v", e.Err)
	}
	return fmt.Sprintf("completion does not match %s: %v", e.Schema, e.Err)
}

func (e *BadOutputError) Unwrap() error { return e.Err }

// TruncatedError means a structured completion ran into MaxTokens before
// its JSON closed. Retrying with the same budget would fail the same way.
type TruncatedError struct {
	MaxTokens int
	Content   json.RawMessage
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("structured completion truncated at %d tokens", e.MaxTokens)
}
