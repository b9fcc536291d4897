// Package domain contains the gateway's core types and its error taxonomy.
// Domain errors describe classified failures, NOT HTTP responses.
// They are created once at the failure site and mapped to HTTP by the adapters.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the discriminant of a classified error.
type Kind int

const (
	// KindValidation indicates malformed or missing client input.
	KindValidation Kind = iota + 1

	// KindAuthentication indicates the upstream rejected our credentials (401/403).
	KindAuthentication

	// KindNotFound indicates the upstream reported the resource as missing.
	KindNotFound

	// KindRateLimit indicates the upstream throttled the request.
	KindRateLimit

	// KindDataFormat indicates the upstream answered with an unusable payload.
	KindDataFormat

	// KindServiceUnavailable indicates the upstream answered with a 5xx or unmapped status.
	KindServiceUnavailable

	// KindNetwork indicates a transport failure: timeout, DNS, refused connection.
	KindNetwork
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	case KindRateLimit:
		return "rate_limit"
	case KindDataFormat:
		return "data_format"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// HTTPStatus returns the fixed HTTP status for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindDataFormat:
		return http.StatusBadGateway
	case KindServiceUnavailable, KindNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Machine-readable codes carried by classified errors.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeAuthentication     = "AUTHENTICATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeRateLimit          = "RATE_LIMIT_ERROR"
	CodeDataFormat         = "DATA_FORMAT_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeNetwork            = "NETWORK_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrValidation indicates client input failed validation.
	ErrValidation = errors.New("validation failed")

	// ErrAuthentication indicates the upstream refused authentication.
	ErrAuthentication = errors.New("authentication failed")

	// ErrNotFound indicates the requested resource does not exist upstream.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates the upstream rate limited the gateway.
	ErrRateLimited = errors.New("rate limited")

	// ErrDataFormat indicates the upstream payload could not be used.
	ErrDataFormat = errors.New("invalid data format")

	// ErrUnavailable indicates the upstream answered with a server-side failure.
	ErrUnavailable = errors.New("unavailable")

	// ErrNetwork indicates the upstream could not be reached.
	ErrNetwork = errors.New("network failure")
)

// ClassifiedError is implemented only by the taxonomy types in this package.
// The unexported marker keeps the set closed, so a type switch over the
// seven kinds is exhaustive.
type ClassifiedError interface {
	error

	// Kind returns the discriminant.
	Kind() Kind

	// Code returns the machine-readable code.
	Code() string

	classified()
}

// ValidationError provides context for invalid client input.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Kind implements ClassifiedError.
func (e *ValidationError) Kind() Kind { return KindValidation }

// Code implements ClassifiedError.
func (e *ValidationError) Code() string { return CodeValidation }

func (e *ValidationError) classified() {}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue creates a validation error including the rejected value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// AuthenticationError indicates the upstream answered 401 or 403.
type AuthenticationError struct {
	Message string
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return "Authentication failed"
	}

	return e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *AuthenticationError) Unwrap() error { return ErrAuthentication }

// Kind implements ClassifiedError.
func (e *AuthenticationError) Kind() Kind { return KindAuthentication }

// Code implements ClassifiedError.
func (e *AuthenticationError) Code() string { return CodeAuthentication }

func (e *AuthenticationError) classified() {}

// NewAuthenticationError creates an authentication error.
func NewAuthenticationError(message string) error {
	return &AuthenticationError{Message: message}
}

// NotFoundError provides context for resources the upstream could not find.
type NotFoundError struct {
	Message    string
	Resource   string
	ResourceID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.ResourceID != "" {
		return fmt.Sprintf("%s with id %q not found", e.Resource, e.ResourceID)
	}

	return e.Resource + " not found"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Kind implements ClassifiedError.
func (e *NotFoundError) Kind() Kind { return KindNotFound }

// Code implements ClassifiedError.
func (e *NotFoundError) Code() string { return CodeNotFound }

func (e *NotFoundError) classified() {}

// NewNotFoundError creates a not found error for a resource.
func NewNotFoundError(message, resource, resourceID string) error {
	return &NotFoundError{Message: message, Resource: resource, ResourceID: resourceID}
}

// RateLimitError indicates the upstream throttled the gateway.
// RetryAfter is in seconds; zero means the upstream gave no hint.
type RateLimitError struct {
	Message    string
	RetryAfter int
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.Message == "" {
		return "Rate limit exceeded"
	}

	return e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// Kind implements ClassifiedError.
func (e *RateLimitError) Kind() Kind { return KindRateLimit }

// Code implements ClassifiedError.
func (e *RateLimitError) Code() string { return CodeRateLimit }

func (e *RateLimitError) classified() {}

// NewRateLimitError creates a rate limit error.
func NewRateLimitError(message string, retryAfter int) error {
	return &RateLimitError{Message: message, RetryAfter: retryAfter}
}

// DataFormatError indicates an upstream payload was not in the expected format.
type DataFormatError struct {
	Message        string
	ExpectedFormat string
	ActualFormat   string
}

// Error implements the error interface.
func (e *DataFormatError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "expected " + e.ExpectedFormat + " payload"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *DataFormatError) Unwrap() error { return ErrDataFormat }

// Kind implements ClassifiedError.
func (e *DataFormatError) Kind() Kind { return KindDataFormat }

// Code implements ClassifiedError.
func (e *DataFormatError) Code() string { return CodeDataFormat }

func (e *DataFormatError) classified() {}

// NewDataFormatError creates a data format error.
func NewDataFormatError(message, expectedFormat string) error {
	return &DataFormatError{Message: message, ExpectedFormat: expectedFormat}
}

// ServiceUnavailableError indicates the upstream answered with a failure status.
type ServiceUnavailableError struct {
	Message    string
	Service    string
	StatusCode int
}

// Error implements the error interface.
func (e *ServiceUnavailableError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return fmt.Sprintf("service %q unavailable (status %d)", e.Service, e.StatusCode)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ServiceUnavailableError) Unwrap() error { return ErrUnavailable }

// Kind implements ClassifiedError.
func (e *ServiceUnavailableError) Kind() Kind { return KindServiceUnavailable }

// Code implements ClassifiedError.
func (e *ServiceUnavailableError) Code() string { return CodeServiceUnavailable }

func (e *ServiceUnavailableError) classified() {}

// NewServiceUnavailableError creates a service unavailable error.
func NewServiceUnavailableError(message string, statusCode int, service string) error {
	return &ServiceUnavailableError{Message: message, StatusCode: statusCode, Service: service}
}

// NetworkError indicates the upstream could not be reached at all.
// OriginalError is kept for server-side logging only.
type NetworkError struct {
	Message       string
	OriginalError error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.OriginalError != nil {
		return "Network error: " + e.OriginalError.Error()
	}

	return "Network error"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NetworkError) Unwrap() error { return ErrNetwork }

// Kind implements ClassifiedError.
func (e *NetworkError) Kind() Kind { return KindNetwork }

// Code implements ClassifiedError.
func (e *NetworkError) Code() string { return CodeNetwork }

func (e *NetworkError) classified() {}

// NewNetworkError creates a network error wrapping the transport failure.
func NewNetworkError(message string, original error) error {
	return &NetworkError{Message: message, OriginalError: original}
}

// AsClassified extracts the classified error from err's chain.
func AsClassified(err error) (ClassifiedError, bool) {
	var ce ClassifiedError
	if errors.As(err, &ce) {
		return ce, true
	}

	return nil, false
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnavailable checks if an error is a service unavailable error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsNetwork checks if an error is a network error.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}
