// Package errors provides standardized error handling for the NSA scheduling run.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Load-time errors. These abort the run before any record is processed.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeCacheCorruption  ErrorCode = "CACHE_CORRUPTION"

	// Per-record errors. These fail the record, never the run.
	ErrCodeMissingVariable   ErrorCode = "MISSING_VARIABLE"
	ErrCodeDuplicateConflict ErrorCode = "DUPLICATE_CONFLICT"
	ErrCodeProviderTransient ErrorCode = "PROVIDER_TRANSIENT"
	ErrCodeProviderFailure   ErrorCode = "PROVIDER_FAILURE"
	ErrCodeSlotExhausted     ErrorCode = "SLOT_EXHAUSTED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable load-time error.
func NewValidationFailedError(what, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   fmt.Sprintf("Validation failed for %s", what),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheCorruptionError creates a non-retryable fatal cache error. The run
// must refuse to proceed rather than risk duplicate appointment creation.
func NewCacheCorruptionError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheCorruption,
		Message:   "Dedup cache is unreadable",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingVariableError creates a non-retryable render error naming the
// unresolved placeholder.
func NewMissingVariableError(placeholder string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingVariable,
		Message:   "Template placeholder has no binding",
		Details:   fmt.Sprintf("placeholder: %s", placeholder),
		Retryable: false,
		Metadata:  map[string]interface{}{"placeholder": placeholder},
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateConflictError signals an existing cache entry for the record.
// Not retryable: it is a decision point, default skip.
func NewDuplicateConflictError(recordID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateConflict,
		Message:   "Appointment already recorded for this record",
		Details:   fmt.Sprintf("recordId: %s", recordID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderTransientError creates a retryable provider error (timeouts,
// 5xx-class responses).
func NewProviderTransientError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderTransient,
		Message:   fmt.Sprintf("Provider call '%s' failed transiently", operation),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderFailureError creates a non-retryable provider error (validation
// rejects, or transient retries exhausted).
func NewProviderFailureError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderFailure,
		Message:   fmt.Sprintf("Provider call '%s' failed", operation),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSlotExhaustedError reports that no bookable slot exists within the
// configured search window.
func NewSlotExhaustedError(recordID string, windowDays int) *StandardError {
	return &StandardError{
		Code:      ErrCodeSlotExhausted,
		Message:   "No available slot within search window",
		Details:   fmt.Sprintf("recordId: %s, windowDays: %d", recordID, windowDays),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
// Notification is best-effort: this never rolls back the appointment.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProviderTransient, ErrCodeNotificationSendFailed:
		return 3
	default:
		return 0 // Business and load-time errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// IsCode reports whether err is a StandardError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// IsRetryable reports whether err is a retryable StandardError. Unknown error
// types are treated as non-retryable.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool {
	return IsCode(err, ErrCodeValidationFailed) || IsCode(err, ErrCodeCacheCorruption)
}
