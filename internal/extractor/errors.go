package extractor

import (
	"fmt"
	"strconv"
	"time"
)

// Kind classifies extraction failures for the caller-facing error taxonomy.
type Kind string

const (
	KindTimeout           Kind = "timeout"
	KindRateLimited       Kind = "rate_limited"
	KindServiceError      Kind = "service_error"
	KindMalformedResponse Kind = "malformed_response"
)

// ExtractionError is a typed failure from the extraction service boundary.
type ExtractionError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("extraction %s: %s", e.Kind, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewError creates a typed ExtractionError.
func NewError(kind Kind, message string, err error) *ExtractionError {
	return &ExtractionError{Kind: kind, Message: message, Err: err}
}

// RateLimitError indicates an extraction provider returned HTTP 429. The
// retry worker uses RetryAfter to schedule a later attempt instead of
// failing the record.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}
