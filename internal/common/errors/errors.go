// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"errors"
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
	ErrCodeInputParsing     ErrorCode = "INPUT_PARSING_FAILED"

	// Compliance API
	ErrCodeExtensionFailed ErrorCode = "EWB_EXTENSION_FAILED"
	ErrCodeAPIError        ErrorCode = "EWB_API_ERROR"
	ErrCodeAPITimeout      ErrorCode = "EWB_API_TIMEOUT"
	ErrCodeNotFound        ErrorCode = "EWB_NOT_FOUND"
	ErrCodeAuthFailed      ErrorCode = "EWB_AUTH_FAILED"
	ErrCodePartBFailed     ErrorCode = "PART_B_UPDATE_FAILED"

	// Storage / search / notification
	ErrCodeDatabaseInsertFailed   ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeDuplicateBatch         ErrorCode = "DUPLICATE_BATCH"
	ErrCodeSearchQueryFailed      ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout          ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound          ErrorCode = "INDEX_NOT_FOUND"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeCacheError             ErrorCode = "CACHE_ERROR"

	ErrCodeBrokerUnavailable ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
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
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
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

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError is returned before any remote call is made.
func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Input validation failed", details, false)
}

// NewInputParsingError wraps a failure to decode job variables or a request body.
func NewInputParsingError(err error) *StandardError {
	return newError(ErrCodeInputParsing, "Failed to parse input", err.Error(), false)
}

// NewExtensionFailedError is used when the compliance API rejects an extension.
func NewExtensionFailedError(ewbNo string, details string) *StandardError {
	e := newError(ErrCodeExtensionFailed, "eWay Bill extension failed", details, false)
	e.Metadata = map[string]interface{}{"ewbNo": ewbNo}
	return e
}

// NewAPIError wraps a transport or non-2xx response from the compliance API.
func NewAPIError(operation string, err error) *StandardError {
	return newError(ErrCodeAPIError, fmt.Sprintf("Compliance API '%s' error", operation), err.Error(), true)
}

// NewAPITimeoutError wraps a deadline hit while calling the compliance API.
func NewAPITimeoutError(operation string, err error) *StandardError {
	return newError(ErrCodeAPITimeout, fmt.Sprintf("Compliance API '%s' timeout", operation), err.Error(), true)
}

func NewNotFoundError(ewbNo string) *StandardError {
	return newError(ErrCodeNotFound, "eWay Bill not found", fmt.Sprintf("ewbNo: %s", ewbNo), false)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthFailed, "Compliance API authentication failed", details, false)
}

func NewPartBUpdateFailedError(ewbNo string, details string) *StandardError {
	e := newError(ErrCodePartBFailed, "Part B update failed", details, false)
	e.Metadata = map[string]interface{}{"ewbNo": ewbNo}
	return e
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

func NewDuplicateBatchError(batchID string) *StandardError {
	return newError(ErrCodeDuplicateBatch, "Batch already recorded", fmt.Sprintf("batchId: %s", batchID), false)
}

func NewSearchQueryFailedError(err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error", err.Error(), true)
}

func NewSearchTimeoutError(index string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Elasticsearch query timeout", fmt.Sprintf("index: %s", index), true)
}

func NewIndexNotFoundError(index string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found", fmt.Sprintf("index: %s", index), false)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

func NewCacheError(err error) *StandardError {
	return newError(ErrCodeCacheError, "Cache operation failed", err.Error(), true)
}

// NewBrokerError wraps a failed Zeebe gateway command.
func NewBrokerError(operation string, err error, retryable bool) *StandardError {
	return newError(ErrCodeBrokerUnavailable, fmt.Sprintf("Zeebe operation '%s' failed", operation), err.Error(), retryable)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal codes to the error codes caught by boundary
// events in the eWay Bill process models.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidationFailed:       "VALIDATION_FAILED",
	ErrCodeInputParsing:           "VALIDATION_FAILED",
	ErrCodeExtensionFailed:        "EWB_EXTENSION_FAILED",
	ErrCodeAPIError:               "EWB_API_ERROR",
	ErrCodeAPITimeout:             "EWB_API_TIMEOUT",
	ErrCodeNotFound:               "EWB_NOT_FOUND",
	ErrCodeAuthFailed:             "EWB_AUTH_FAILED",
	ErrCodePartBFailed:            "PART_B_UPDATE_FAILED",
	ErrCodeDatabaseInsertFailed:   "DATABASE_INSERT_FAILED",
	ErrCodeDuplicateBatch:         "DUPLICATE_BATCH",
	ErrCodeSearchQueryFailed:      "SEARCH_QUERY_FAILED",
	ErrCodeSearchTimeout:          "SEARCH_TIMEOUT",
	ErrCodeIndexNotFound:          "INDEX_NOT_FOUND",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
	ErrCodeCacheError:             "CACHE_ERROR",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeAPIError,
		ErrCodeDatabaseInsertFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeCacheError,
		ErrCodeBrokerUnavailable:
		return 3

	case ErrCodeAPITimeout,
		ErrCodeSearchTimeout:
		return 2

	default:
		return 0 // business errors
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

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err to a *StandardError, or wraps it as INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// HasCode reports whether err is a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return errors.As(err, &stdErr) && stdErr.Code == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "EWB_") || strings.HasPrefix(codeStr, "PART_B"):
		return "COMPLIANCE_API"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "BATCH"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.HasPrefix(codeStr, "BROKER"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSING"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
