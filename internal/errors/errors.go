package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents a specific error type for better error handling
type ErrorCode string

const (
	// Translation pipeline errors
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnresolvedReference ErrorCode = "UNRESOLVED_REFERENCE"
	ErrCodeUnsupportedTarget   ErrorCode = "UNSUPPORTED_TARGET"
	ErrCodeDeploymentFailed    ErrorCode = "DEPLOYMENT_FAILED"

	// API errors
	ErrCodeInvalidRequest       ErrorCode = "INVALID_REQUEST"
	ErrCodeNotFound             ErrorCode = "NOT_FOUND"
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeAuthorizationFailed  ErrorCode = "AUTHORIZATION_FAILED"
	ErrCodeRateLimitExceeded    ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeIncidentRejected     ErrorCode = "INCIDENT_REJECTED"

	// Collaborator errors
	ErrCodeIntegrationFailed ErrorCode = "INTEGRATION_FAILED"
	ErrCodeStorageFailed     ErrorCode = "STORAGE_FAILED"

	// Internal errors
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// LBaaSError represents a structured error with context
type LBaaSError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Component string                 `json:"component,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Cause     error                  `json:"-"`
}

// Error implements the error interface
func (e *LBaaSError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *LBaaSError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error code
func (e *LBaaSError) Is(target error) bool {
	if t, ok := target.(*LBaaSError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithMetadata adds metadata to the error
func (e *LBaaSError) WithMetadata(key string, value interface{}) *LBaaSError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *LBaaSError) HTTPStatusCode() int {
	switch e.Code {
	case ErrCodeValidationFailed, ErrCodeUnresolvedReference, ErrCodeInvalidRequest, ErrCodeIncidentRejected:
		return 400
	case ErrCodeAuthenticationFailed:
		return 401
	case ErrCodeAuthorizationFailed:
		return 403
	case ErrCodeNotFound:
		return 404
	case ErrCodeUnsupportedTarget:
		return 422
	case ErrCodeRateLimitExceeded:
		return 429
	case ErrCodeIntegrationFailed:
		return 502
	default:
		return 500
	}
}

// NewError creates a new LBaaSError
func NewError(code ErrorCode, component, message string) *LBaaSError {
	return &LBaaSError{
		Code:      code,
		Component: component,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WrapError wraps an existing error with LBaaSError structure
func WrapError(err error, code ErrorCode, component, message string) *LBaaSError {
	if err == nil {
		return nil
	}
	return &LBaaSError{
		Code:      code,
		Component: component,
		Message:   message,
		Timestamp: time.Now(),
		Cause:     err,
		Details:   err.Error(),
	}
}

// Common error constructors for frequently used errors

// NewValidationError reports a malformed or referentially inconsistent
// standard configuration. The message names the offending field.
func NewValidationError(message string) *LBaaSError {
	return NewError(ErrCodeValidationFailed, "translator", message)
}

// NewUnresolvedReferenceError reports a pool or certificate id that does
// not resolve within the configuration. It is a validation failure carrying
// the specific id.
func NewUnresolvedReferenceError(kind, id string) *LBaaSError {
	return NewError(
		ErrCodeUnresolvedReference,
		"translator",
		fmt.Sprintf("Referenced %s '%s' not found", kind, id),
	).WithMetadata("reference_kind", kind).WithMetadata("reference_id", id)
}

// NewUnsupportedTargetError reports an unknown target label at the
// translator selector. Unlike the IR builder's permissive defaulting this
// is a hard error: the wrong generator would silently produce a
// plausible-looking but wrong artifact.
func NewUnsupportedTargetError(lbType string) *LBaaSError {
	return NewError(
		ErrCodeUnsupportedTarget,
		"translator",
		fmt.Sprintf("Unsupported load balancer type: %s", lbType),
	).WithMetadata("lb_type", lbType)
}

// NewDeploymentError reports a failure in the vendor post-generation hook
// or artifact write.
func NewDeploymentError(message string, cause error) *LBaaSError {
	if cause != nil {
		return WrapError(cause, ErrCodeDeploymentFailed, "deploy", message)
	}
	return NewError(ErrCodeDeploymentFailed, "deploy", message)
}

// NewNotFoundError reports a missing API resource
func NewNotFoundError(resource, id string) *LBaaSError {
	return NewError(
		ErrCodeNotFound,
		"api",
		fmt.Sprintf("%s with ID '%s' not found", resource, id),
	).WithMetadata("resource", resource).WithMetadata("id", id)
}

// NewAuthenticationError creates an authentication error
func NewAuthenticationError(reason string) *LBaaSError {
	return NewError(
		ErrCodeAuthenticationFailed,
		"auth",
		fmt.Sprintf("Authentication failed: %s", reason),
	)
}

// NewAuthorizationError creates an authorization error
func NewAuthorizationError(reason string) *LBaaSError {
	return NewError(ErrCodeAuthorizationFailed, "auth", reason)
}

// Helper functions

// IsLBaaSError checks if an error is an LBaaSError
func IsLBaaSError(err error) bool {
	var e *LBaaSError
	return errors.As(err, &e)
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var e *LBaaSError
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternalError
}

// GetHTTPStatusCode gets the appropriate HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	var e *LBaaSError
	if errors.As(err, &e) {
		return e.HTTPStatusCode()
	}
	return 500
}
