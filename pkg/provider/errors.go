package provider

import (
	"errors"
	"fmt"
)

// Common errors returned by provider calls.
var (
	// ErrNotFound indicates the upstream has no data for the requested
	// name or identifier. Never retried.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable indicates a timeout or server-side failure for
	// this attempt. Reported per branch, siblings unaffected.
	ErrUnavailable = errors.New("provider unavailable")
)

// ErrorClass represents a classification of upstream failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Error carries the upstream failure context for a single call.
type Error struct {
	StatusCode int
	Class      ErrorClass
	Endpoint   string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s error (status %d) on %s: %v",
			e.Class, e.StatusCode, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("provider %s error (status %d) on %s",
		e.Class, e.StatusCode, e.Endpoint)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	// 4xx means the data does not exist; everything else is a degraded
	// upstream for this attempt.
	if e.Class == ErrorClassClient {
		return ErrNotFound
	}
	return ErrUnavailable
}
