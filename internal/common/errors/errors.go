// Package errors provides the standardized error model shared by the HTTP API and the Zeebe worker.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeCatalogEmpty         ErrorCode = "CATALOG_EMPTY"
	ErrCodeProfileMissing       ErrorCode = "PROFILE_MISSING"
	ErrCodeInvalidRequest       ErrorCode = "INVALID_REQUEST"
	ErrCodeScoringInternalError ErrorCode = "SCORING_INTERNAL_ERROR"
	ErrCodeSinkWriteFailed      ErrorCode = "SINK_WRITE_FAILED"
	ErrCodeCatalogFetchFailed   ErrorCode = "CATALOG_FETCH_FAILED"
	ErrCodeProfileFetchFailed   ErrorCode = "PROFILE_FETCH_FAILED"
	ErrCodeRequestTimeout       ErrorCode = "REQUEST_TIMEOUT"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithCause keeps err reachable through errors.Is/As without exposing it on the wire.
func (e *StandardError) WithCause(err error) *StandardError {
	e.cause = err
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newStandardError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogEmptyError is returned when the catalog source yields no offers.
func NewCatalogEmptyError() *StandardError {
	return newStandardError(ErrCodeCatalogEmpty, "No scholarships available", "", false)
}

// NewProfileMissingError is returned when no usable profile could be resolved.
func NewProfileMissingError(details string) *StandardError {
	return newStandardError(ErrCodeProfileMissing, "User profile not found or empty", details, false)
}

func NewInvalidRequestError(details string) *StandardError {
	return newStandardError(ErrCodeInvalidRequest, "Invalid recommendation request", details, false)
}

// NewScoringInternalError hides the cause from the caller; Details only reach the logs.
func NewScoringInternalError(err error) *StandardError {
	return newStandardError(ErrCodeScoringInternalError, "Internal scoring error", err.Error(), false).WithCause(err)
}

func NewSinkWriteFailedError(err error) *StandardError {
	return newStandardError(ErrCodeSinkWriteFailed, "Recommendations computed but could not be persisted", err.Error(), false).WithCause(err)
}

func NewCatalogFetchFailedError(err error) *StandardError {
	return newStandardError(ErrCodeCatalogFetchFailed, "Scholarship catalog unavailable", err.Error(), true).WithCause(err)
}

func NewProfileFetchFailedError(userID string, err error) *StandardError {
	stdErr := newStandardError(ErrCodeProfileFetchFailed, "Profile store unavailable", err.Error(), true).WithCause(err)
	stdErr.Metadata = map[string]interface{}{"userId": userID}
	return stdErr
}

func NewTimeoutError(stage string, err error) *StandardError {
	return newStandardError(ErrCodeRequestTimeout, fmt.Sprintf("Stage '%s' timeout", stage), err.Error(), true).WithCause(err)
}

func NewInternalError(err error) *StandardError {
	return newStandardError(ErrCodeInternal, "Unexpected error", err.Error(), false).WithCause(err)
}

// ==========================
// 4. Error Conversion to BPMN / HTTP
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeCatalogEmpty:         "CATALOG_EMPTY",
	ErrCodeProfileMissing:       "PROFILE_MISSING",
	ErrCodeInvalidRequest:       "INVALID_REQUEST",
	ErrCodeScoringInternalError: "SCORING_INTERNAL_ERROR",
	ErrCodeSinkWriteFailed:      "SINK_WRITE_FAILED",
	ErrCodeCatalogFetchFailed:   "CATALOG_FETCH_FAILED",
	ErrCodeProfileFetchFailed:   "PROFILE_FETCH_FAILED",
	ErrCodeRequestTimeout:       "REQUEST_TIMEOUT",
}

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogFetchFailed, ErrCodeProfileFetchFailed:
		return 3
	case ErrCodeRequestTimeout:
		return 2
	default:
		// Sink writes are never retried: a retry would re-rank and re-persist.
		return 0
	}
}

// HTTPStatus maps an error code to the status the HTTP API responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogEmpty:
		return http.StatusNotFound
	case ErrCodeProfileMissing, ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeSinkWriteFailed, ErrCodeCatalogFetchFailed, ErrCodeProfileFetchFailed:
		return http.StatusBadGateway
	case ErrCodeRequestTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "PROFILE"):
		return "PROFILE"
	case strings.Contains(codeStr, "SCORING"):
		return "SCORING"
	case strings.Contains(codeStr, "SINK"):
		return "PERSISTENCE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
