package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/harun/kspar/pkg/pipeline"
	"github.com/harun/kspar/pkg/runtime"
)

// ErrorType classifies an API error.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	ErrorTypeRuntime    ErrorType = "RUNTIME_ERROR"
	ErrorTypeRateLimit  ErrorType = "RATE_LIMITED"
	ErrorTypeInternal   ErrorType = "INTERNAL_ERROR"
)

// APIError is the JSON body of every failed request.
type APIError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Status returns the HTTP status the error is rendered with.
func (e *APIError) Status() int {
	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeRuntime:
		return http.StatusBadGateway
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func NewValidationError(message string, details any) *APIError {
	return &APIError{
		Type:    ErrorTypeValidation,
		Message: message,
		Details: details,
	}
}

func NewRuntimeError(op string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeRuntime,
		Message: fmt.Sprintf("Agent runtime failed during %s", op),
		Details: err.Error(),
	}
}

func NewInternalError(err error) *APIError {
	return &APIError{
		Type:    ErrorTypeInternal,
		Message: "Internal server error",
		Details: err.Error(),
	}
}

// classify maps a pipeline or runtime error onto an APIError.
func classify(op string, err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var statusErr *runtime.StatusError
	switch {
	case errors.Is(err, pipeline.ErrParserFailed),
		errors.Is(err, pipeline.ErrStepFailed),
		errors.As(err, &statusErr),
		errors.Is(err, runtime.ErrNoFinalOutput),
		errors.Is(err, runtime.ErrInvalidPayload),
		errors.Is(err, runtime.ErrEmptyResponse),
		errors.Is(err, runtime.ErrInvalidResponse):
		return NewRuntimeError(op, err)
	default:
		return NewInternalError(err)
	}
}
