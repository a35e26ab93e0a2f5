package domain

import (
	"errors"
	"fmt"
)

// DomainError is a document-server error carrying a stable code.
//
// The code selects the HTTP status the error is reported with; Details
// carries the request-specific part (usually a document id) and Cause the
// lower-level fault, if any.
type DomainError struct {
	Code    string // Error code (e.g., "DOC-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Describe returns the client-facing description: the details when present,
// otherwise the message.
func (e *DomainError) Describe() string {
	if e.Details != "" {
		return e.Details
	}
	return e.Message
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Error codes.
const (
	CodeMalformedRequest = "DOC-4000"
	CodeBadRequest       = "DOC-4001"
	CodeDocumentNotFound = "DOC-4040"
	CodePathNotFound     = "DOC-4041"
	CodeMethodNotAllowed = "DOC-4050"
	CodeServerError      = "DOC-5000"
	CodeUnavailable      = "DOC-5030"
)

var (
	// ErrMalformedRequest indicates a protocol framing violation.
	ErrMalformedRequest = NewDomainError(CodeMalformedRequest, "malformed request")

	// ErrBadRequest indicates a semantically invalid operation: a missing
	// parameter, an XML document that fails validation or a broken
	// XML -> XSLT -> XSD dependency chain.
	ErrBadRequest = NewDomainError(CodeBadRequest, "bad request")

	// ErrDocumentNotFound indicates the document is neither local nor held
	// by any peer. Details carries the document id.
	ErrDocumentNotFound = NewDomainError(CodeDocumentNotFound, "document not found")

	// ErrPathNotFound indicates an unknown document type segment.
	ErrPathNotFound = NewDomainError(CodePathNotFound, "path not found")

	// ErrMethodNotAllowed indicates an unsupported method on a known type.
	ErrMethodNotAllowed = NewDomainError(CodeMethodNotAllowed, "method not allowed")

	// ErrServerError indicates a persistence failure, a transform failure or
	// any other internal fault.
	ErrServerError = NewDomainError(CodeServerError, "server error")

	// ErrUnavailable indicates the node cannot take more connections.
	ErrUnavailable = NewDomainError(CodeUnavailable, "service unavailable")
)

// NotFound returns a Document-Not-Found error for id.
func NotFound(id string) *DomainError {
	return ErrDocumentNotFound.WithDetails(id)
}

// BadRequest returns a Bad-Request error with the given description.
func BadRequest(format string, args ...any) *DomainError {
	return ErrBadRequest.WithDetails(fmt.Sprintf(format, args...))
}

// ServerError wraps cause into a Server-Error with the given description.
func ServerError(details string, cause error) *DomainError {
	return ErrServerError.WithDetails(details).WithCause(cause)
}

// DocumentID returns the id carried by a Document-Not-Found error.
func DocumentID(err error) (string, bool) {
	var de *DomainError
	if errors.As(err, &de) && de.Code == CodeDocumentNotFound {
		return de.Details, true
	}
	return "", false
}

// StatusCode maps an error to the HTTP status it is reported with.
// Errors outside the taxonomy are internal faults.
func StatusCode(err error) int {
	switch GetErrorCode(err) {
	case CodeMalformedRequest, CodeBadRequest:
		return 400
	case CodeDocumentNotFound, CodePathNotFound:
		return 404
	case CodeMethodNotAllowed:
		return 405
	case CodeUnavailable:
		return 503
	default:
		return 500
	}
}
