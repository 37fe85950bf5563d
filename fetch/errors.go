// Package fetch implements the retrying, backoff-governed byte-range
// reads that reconstruct a growing remote log.
//
// Errors fall into exactly two kinds. A response that completed but
// signaled a non-success status is permanent: it wraps ErrNotFound and
// is never retried. A request that never completed (connection failure,
// timeout, truncated body) is transient: the Fetcher retries it with
// exponential backoff and escalates to ErrNotFound on exhaustion.
package fetch

import (
	"errors"
	"fmt"
)

// ErrNotFound is the permanent failure sentinel. Use
// errors.Is(err, ErrNotFound) for typed assertions; the follow loop
// treats it as a protocol-level state transition (chunked to raw
// fallback), not as a bug.
var ErrNotFound = errors.New("resource not found")

// StatusError is a completed response with a non-success status.
// It matches ErrNotFound via errors.Is.
type StatusError struct {
	Resource string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d: %v", e.Resource, e.Code, ErrNotFound)
}

// Is reports whether the error matches the permanent sentinel.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound
}

// RetriesExhaustedError is returned after every attempt failed
// transiently. It matches ErrNotFound via errors.Is, preserving the last
// transient error in the chain.
type RetriesExhaustedError struct {
	Resource string
	Attempts int
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("fetch %s: giving up after %d attempts: %v", e.Resource, e.Attempts, e.Err)
}

// Unwrap returns the last transient error for chain traversal.
func (e *RetriesExhaustedError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the permanent sentinel.
func (e *RetriesExhaustedError) Is(target error) bool {
	return target == ErrNotFound
}
