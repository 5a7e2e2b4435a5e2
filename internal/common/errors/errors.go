// Package errors provides standardized error handling for the intake
// reconciliation pipeline and its BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnknownFormKind  ErrorCode = "UNKNOWN_FORM_KIND"
	ErrCodeInvalidKey       ErrorCode = "INVALID_KEY"
	ErrCodeInvalidSchema    ErrorCode = "INVALID_SCHEMA"

	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeStoreTimeout     ErrorCode = "STORE_TIMEOUT"
	ErrCodeDuplicateKey     ErrorCode = "DUPLICATE_KEY"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeSearchIndexFailed      ErrorCode = "SEARCH_INDEX_FAILED"

	ErrCodeInputParsingFailed ErrorCode = "INPUT_PARSING_FAILED"
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
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ConvertToBPMNError maps a StandardError onto the workflow error contract.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := 0
	if stdErr.Retryable {
		retries = GetRetryCount(stdErr.Code)
	}
	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"errorTimestamp": stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreUnavailable, ErrCodeStoreTimeout, ErrCodeDuplicateKey:
		return 3
	case ErrCodeNotificationSendFailed, ErrCodeSearchIndexFailed:
		return 2
	default:
		return 0
	}
}

// GetErrorCategory groups codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch {
	case code == ErrCodeValidationFailed || code == ErrCodeInvalidKey:
		return "validation"
	case code == ErrCodeUnknownFormKind || code == ErrCodeInvalidSchema:
		return "configuration"
	case strings.HasPrefix(string(code), "STORE_") || code == ErrCodeDuplicateKey:
		return "store"
	case code == ErrCodeNotificationSendFailed:
		return "notification"
	case code == ErrCodeSearchIndexFailed:
		return "search"
	default:
		return "internal"
	}
}

// ==========================
// 3. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable submission validation
// error. violations carries the complete list of "field: message" strings.
func NewValidationFailedError(violations []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Submission validation failed",
		Details:   strings.Join(violations, "; "),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownFormKindError creates a non-retryable misconfigured-caller error.
func NewUnknownFormKindError(kindID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownFormKind,
		Message:   "Form kind is not registered",
		Details:   fmt.Sprintf("kindId: %s", kindID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidKeyError creates a non-retryable key error.
func NewInvalidKeyError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidKey,
		Message:   "Submission key is empty or malformed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidSchemaError creates a fatal registry construction error.
func NewInvalidSchemaError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSchema,
		Message:   "Form schema registry is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable store connectivity error.
func NewStoreUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Record store is unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreTimeoutError creates a retryable store timeout error.
func NewStoreTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreTimeout,
		Message:   "Record store call timed out",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateKeyError creates a retryable duplicate-key error. The engine
// normally recovers by re-resolving; this surfaces only when recovery fails.
func NewDuplicateKeyError(key string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateKey,
		Message:   "Record already exists for key",
		Details:   fmt.Sprintf("key: %s", key),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchIndexFailedError creates a retryable search indexing error.
func NewSearchIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchIndexFailed,
		Message:   "Record search indexing failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInputParsingFailedError creates a non-retryable payload parsing error.
func NewInputParsingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputParsingFailed,
		Message:   "Failed to parse job variables",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
