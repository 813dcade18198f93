package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrStatus indicates the provider answered with a non-success HTTP status.
type ErrStatus struct {
	StatusCode int
	Err        error
}

func (e *ErrStatus) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

func (e *ErrStatus) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the LLM returned content that is empty or
// does not conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrNoChoices is wrapped in ErrInvalidResponse when a completion carries
// no choices at all.
var ErrNoChoices = errors.New("no choices in response")

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// FailureKind tags why an LLM call did not produce usable content.
type FailureKind string

const (
	FailureStatus    FailureKind = "status-error"
	FailureParse     FailureKind = "parse-error"
	FailureTransport FailureKind = "transport-error"
)

// Classify maps an error returned by a Provider to a FailureKind.
// Anything that is not a status or content problem counts as transport.
func Classify(err error) FailureKind {
	if _, ok := StatusCode(err); ok {
		return FailureStatus
	}
	var inv *ErrInvalidResponse
	if errors.As(err, &inv) {
		return FailureParse
	}
	var maxTok *ErrMaxTokensExceeded
	if errors.As(err, &maxTok) {
		return FailureParse
	}
	return FailureTransport
}

// StatusCode extracts the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var st *ErrStatus
	if errors.As(err, &st) {
		return st.StatusCode, true
	}
	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return http.StatusTooManyRequests, true
	}
	return 0, false
}
