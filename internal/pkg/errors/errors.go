package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeProvider     = "PROVIDER_ERROR"
	ErrCodeTransport    = "TRANSPORT_ERROR"
	ErrCodeTemplate     = "TEMPLATE_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ValidationError is a caller mistake: malformed credential, bad priority target, etc.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError covers both unknown ids and ids owned by another account;
// the two are indistinguishable so that lookups cannot probe for existence.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

func NewNotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// ProviderError is a non-2xx response from an external service.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Status, e.Body)
}

// TransportError wraps a network-level failure reaching an external service.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s unreachable: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TemplateError reports a malformed custom template; callers fall back to the
// built-in template when they see one.
type TemplateError struct {
	Message string
}

func (e *TemplateError) Error() string { return e.Message }

// CodeFor maps a domain error to its wire code and HTTP status.
func CodeFor(err error) (string, int) {
	var ve *ValidationError
	var nfe *NotFoundError
	var pe *ProviderError
	var te *TransportError

	switch {
	case errors.As(err, &ve):
		return ErrCodeInvalidInput, http.StatusBadRequest
	case errors.As(err, &nfe):
		return ErrCodeNotFound, http.StatusNotFound
	case errors.As(err, &pe):
		return ErrCodeProvider, http.StatusBadGateway
	case errors.As(err, &te):
		return ErrCodeTransport, http.StatusBadGateway
	default:
		return ErrCodeInternal, http.StatusInternalServerError
	}
}

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}

// WriteDomainError maps err through CodeFor and writes the response.
func WriteDomainError(w http.ResponseWriter, err error) {
	code, status := CodeFor(err)
	WriteError(w, status, code, err.Error(), nil)
}
