// internal/common/errors/handler.go
package errors

import (
	"time"
)

// ApologyAnswer is the answer text returned whenever a question cannot be processed.
const ApologyAnswer = "Sorry, something went wrong on the server."

// ErrorHandler turns pipeline failures into boundary payloads and logs them
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// ErrorPayload is the body returned to clients when a request fails.
type ErrorPayload struct {
	Answer string `json:"answer"`
	Error  string `json:"error"`
}

// Handle normalizes err, logs it, and returns the HTTP status and payload for the boundary.
func (h *ErrorHandler) Handle(operation string, err error) (int, ErrorPayload) {
	stdErr := h.Normalize(err)
	h.logError(operation, stdErr)
	return HTTPStatus(stdErr.Code), h.Payload(err)
}

// Payload builds the apology payload, carrying the raw error text.
func (h *ErrorHandler) Payload(err error) ErrorPayload {
	return ErrorPayload{
		Answer: ApologyAnswer,
		Error:  err.Error(),
	}
}

// Normalize ensures we always have a StandardError
func (h *ErrorHandler) Normalize(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func (h *ErrorHandler) logError(operation string, stdErr *StandardError) {
	if h.logger == nil {
		return
	}
	h.logger.Error("Request failed", map[string]interface{}{
		"operation":     operation,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})
}
