package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
)

// RequestError wraps a failed generation submission. The tracker never
// retries it and never stores a handle for it.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return fmt.Sprintf("generation request failed: %v", e.Err) }
func (e *RequestError) Unwrap() error { return e.Err }

// FetchError wraps a failed status poll. It is terminal for the poll
// session; resubmission is the caller's decision.
type FetchError struct {
	Handle string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("status fetch for %q failed: %v", e.Handle, e.Err)
}
func (e *FetchError) Unwrap() error { return e.Err }

// TimeoutError reports that the overall tracking budget elapsed before the
// operation completed. After carries the configured budget so user-facing
// messages stay reproducible.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("video generation timed out after %s", e.After)
}
