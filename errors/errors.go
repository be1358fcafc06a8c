// Package errors provides portal error types with HTTP status mapping.
package errors

import (
	"errors"
	"fmt"
)

// StatusCode represents the HTTP status code associated with a portal error.
type StatusCode int

const (
	StatusBadRequest       StatusCode = 400
	StatusUnauthorized     StatusCode = 401
	StatusNotFound         StatusCode = 404
	StatusPayloadTooLarge  StatusCode = 413
	StatusUnsupportedMedia StatusCode = 415
	StatusValidation       StatusCode = 422
	StatusInternal         StatusCode = 500
)

// errorDocURL is the base URL for portal error documentation.
const errorDocURL = "https://andresqui0416.github.io/Melotech-Artist/#/errors?id=_"

// ErrorFields is the structured JSON body returned for failed requests.
type ErrorFields struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// PortalError wraps an error with an HTTP status code and optional detail.
type PortalError struct {
	Err        error
	StatusCode StatusCode
	Detail     string
}

// Error implements the error interface.
func (e *PortalError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Detail)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *PortalError) Unwrap() error {
	return e.Err
}

// New creates a new PortalError with the given error and status code.
func New(err error, code StatusCode) *PortalError {
	return &PortalError{Err: err, StatusCode: code}
}

// NewWithDetail creates a new PortalError carrying user-facing detail text.
func NewWithDetail(err error, code StatusCode, detail string) *PortalError {
	return &PortalError{Err: err, StatusCode: code, Detail: detail}
}

// Get extracts a PortalError from an error chain, or returns nil.
func Get(err error) *PortalError {
	var pErr *PortalError
	if errors.As(err, &pErr) {
		return pErr
	}
	return nil
}

// ToErrorFields converts a PortalError to the JSON response body.
func (e *PortalError) ToErrorFields() *ErrorFields {
	fields := NewErrorFields(e.StatusCode)
	if e.Detail != "" {
		fields.Detail = e.Detail
	}
	return fields
}

// NewErrorFields creates ErrorFields with the default title and detail for a
// status code.
func NewErrorFields(status StatusCode) *ErrorFields {
	fields := &ErrorFields{
		Status: int(status),
		Type:   fmt.Sprintf("%s%d", errorDocURL, status),
	}

	switch status {
	case StatusBadRequest:
		fields.Title = "Bad request"
		fields.Detail = "The request seems to be malformed and cannot be processed"
	case StatusUnauthorized:
		fields.Title = "Unauthorized"
		fields.Detail = "Authentication is required to access this resource"
	case StatusNotFound:
		fields.Title = "Not found"
		fields.Detail = "The requested resource could not be found"
	case StatusPayloadTooLarge:
		fields.Title = "File too large"
		fields.Detail = "The uploaded file exceeds the maximum allowed size"
	case StatusUnsupportedMedia:
		fields.Title = "Unsupported file type"
		fields.Detail = "Only audio files are accepted for demo uploads"
	case StatusValidation:
		fields.Title = "Validation failed"
		fields.Detail = "The submitted data did not pass validation"
	default:
		fields.Status = int(StatusInternal)
		fields.Type = fmt.Sprintf("%s%d", errorDocURL, StatusInternal)
		fields.Title = "Internal error"
		fields.Detail = "The request could not be processed"
	}

	return fields
}
