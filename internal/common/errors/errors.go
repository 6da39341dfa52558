// Package errors provides standardized error handling for the question-answering pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeDatasetLoadFailed     ErrorCode = "DATASET_LOAD_FAILED"
	ErrCodeDatasetColumnsMissing ErrorCode = "DATASET_COLUMNS_MISSING"

	ErrCodeLLMTimeout       ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMRequestFailed ErrorCode = "LLM_REQUEST_FAILED"
	ErrCodeIntentFallback   ErrorCode = "INTENT_FALLBACK"

	ErrCodeChartRenderFailed ErrorCode = "CHART_RENDER_FAILED"
	ErrCodeChartNotFound     ErrorCode = "CHART_NOT_FOUND"

	ErrCodeInvalidMonthFormat ErrorCode = "INVALID_MONTH_FORMAT"
	ErrCodeInvalidRequest     ErrorCode = "INVALID_REQUEST"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
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
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewDatasetLoadFailedError reports an unreadable or malformed dataset file.
func NewDatasetLoadFailedError(path string, err error) *StandardError {
	e := newError(ErrCodeDatasetLoadFailed, "Failed to load dataset", err, false)
	e.Metadata = map[string]interface{}{"path": path}
	return e
}

// NewDatasetColumnsMissingError reports required columns absent from the header row.
func NewDatasetColumnsMissingError(missing []string) *StandardError {
	e := newError(ErrCodeDatasetColumnsMissing, "Dataset is missing required columns", nil, false)
	e.Details = strings.Join(missing, ", ")
	return e
}

func NewLLMTimeoutError(err error) *StandardError {
	return newError(ErrCodeLLMTimeout, "Language model call timed out", err, true)
}

func NewLLMRequestFailedError(err error) *StandardError {
	return newError(ErrCodeLLMRequestFailed, "Language model call failed", err, true)
}

// NewIntentFallbackError records why the intent extractor fell back to an empty intent.
// It is logged, never returned to callers.
func NewIntentFallbackError(reason string) *StandardError {
	e := newError(ErrCodeIntentFallback, "Intent extraction fell back to empty intent", nil, false)
	e.Details = reason
	return e
}

func NewChartRenderFailedError(kind string, err error) *StandardError {
	e := newError(ErrCodeChartRenderFailed, "Failed to render chart", err, false)
	e.Metadata = map[string]interface{}{"chartKind": kind}
	return e
}

func NewChartNotFoundError(name string) *StandardError {
	e := newError(ErrCodeChartNotFound, "Chart not found", nil, false)
	e.Details = fmt.Sprintf("name: %s", name)
	return e
}

func NewInvalidMonthFormatError(month string) *StandardError {
	e := newError(ErrCodeInvalidMonthFormat, "Invalid month format", nil, false)
	e.Details = fmt.Sprintf("month: %q", month)
	return e
}

func NewInvalidRequestError(details string) *StandardError {
	e := newError(ErrCodeInvalidRequest, "Invalid request", nil, false)
	e.Details = details
	return e
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err, false)
}

// AsStandardError extracts a StandardError from an error chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeLLMTimeout, ErrCodeLLMRequestFailed:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "DATASET"):
		return "DATASET"
	case strings.Contains(codeStr, "INTENT") || strings.Contains(codeStr, "LLM"):
		return "AI"
	case strings.HasPrefix(codeStr, "CHART"):
		return "CHART"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps an error code to the status returned at the HTTP boundary.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest:
		return 400
	case ErrCodeChartNotFound:
		return 404
	default:
		return 500
	}
}
