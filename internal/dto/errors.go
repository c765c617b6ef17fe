package dto

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateRunningJob is returned when a start request targets a stock
	// that already has a running monitoring job.
	ErrDuplicateRunningJob = errors.New("a running monitoring job already exists for this stock")

	ErrJobNotFound = errors.New("monitoring job not found")

	// ErrInvalidJobState is returned when a transition is requested from a
	// terminal state, e.g. pausing a stopped job.
	ErrInvalidJobState = errors.New("operation not allowed in the job's current state")

	ErrRecommendationNotFound = errors.New("daily recommendation not found")

	// ErrGenerationFailed means the daily pipeline could not produce a usable
	// record. Nothing is persisted when it is returned.
	ErrGenerationFailed = errors.New("daily recommendation generation failed")
)

type UpstreamErrorKind string

const (
	UpstreamTimeout     UpstreamErrorKind = "timeout"
	UpstreamTransport   UpstreamErrorKind = "transport"
	UpstreamRateLimited UpstreamErrorKind = "rate_limited"
)

// UpstreamError is a transient AI gateway failure. It is never retried within
// the same tick; the next scheduled trigger retries naturally.
type UpstreamError struct {
	Kind UpstreamErrorKind
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s error: %v", e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func NewUpstreamError(kind UpstreamErrorKind, err error) *UpstreamError {
	return &UpstreamError{Kind: kind, Err: err}
}

// IsTransientUpstream reports whether err originates from the AI gateway and
// should leave a monitoring job running.
func IsTransientUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
