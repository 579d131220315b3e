package engine

import (
	"errors"
	"fmt"
	"time"
)

// RuntimeError represents an error detected while synchronizing input.
//
// RuntimeError includes structured fields for diagnostics.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Frame is the frame being produced when the error occurred.
	Frame uint32

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeDrainTimeout indicates a drain did not finish in time.
	ErrCodeDrainTimeout RuntimeErrorCode = "DRAIN_TIMEOUT"

	// ErrCodeTimerStopped indicates the timer was closed.
	ErrCodeTimerStopped RuntimeErrorCode = "TIMER_STOPPED"

	// ErrCodeAlreadyRunning indicates Start was called twice.
	ErrCodeAlreadyRunning RuntimeErrorCode = "ALREADY_RUNNING"
)

var (
	// ErrDrainTimeout matches any drain timeout via errors.Is.
	ErrDrainTimeout = &RuntimeError{Code: ErrCodeDrainTimeout, Message: "drain wait timed out"}

	// ErrTimerStopped matches any use of a closed timer via errors.Is.
	ErrTimerStopped = &RuntimeError{Code: ErrCodeTimerStopped, Message: "sync timer stopped"}
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Frame != 0 {
		return fmt.Sprintf("%s: %s (frame=%d)", e.Code, e.Message, e.Frame)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches runtime errors by code.
func (e *RuntimeError) Is(target error) bool {
	re, ok := target.(*RuntimeError)
	return ok && re.Code == e.Code
}

// IsDrainTimeout returns true if the error is a drain timeout.
// Uses errors.As to handle wrapped errors.
func IsDrainTimeout(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeDrainTimeout
	}
	return false
}

// NewDrainTimeoutError creates a RuntimeError for a drain wait that
// exceeded timeout.
func NewDrainTimeoutError(frame uint32, timeout time.Duration, pending int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeDrainTimeout,
		Message: fmt.Sprintf("drain did not complete within %s", timeout),
		Frame:   frame,
		Details: map[string]string{
			"timeout": timeout.String(),
			"pending": fmt.Sprintf("%d", pending),
		},
	}
}
