// Package errors holds the application errors that the REST layer turns into
// status codes and JSON bodies.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is implemented by every error that knows its HTTP mapping.
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// kind carries the HTTP mapping shared by the concrete errors.
type kind struct {
	status int
	code   string
}

func (k kind) HTTPStatus() int { return k.status }
func (k kind) Code() string    { return k.code }

var (
	kindNotFound     = kind{http.StatusNotFound, "NOT_FOUND"}
	kindValidation   = kind{http.StatusBadRequest, "VALIDATION_ERROR"}
	kindPermission   = kind{http.StatusForbidden, "PERMISSION_DENIED"}
	kindUnauthorized = kind{http.StatusUnauthorized, "UNAUTHORIZED"}
	kindConflict     = kind{http.StatusConflict, "CONFLICT"}
	kindInternal     = kind{http.StatusInternalServerError, "INTERNAL_ERROR"}
)

// NotFoundError: a lookup by id came back empty.
type NotFoundError struct {
	kind
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{kind: kindNotFound, Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// ValidationError is a rejected input. Details is sent to the client as is,
// e.g. the fields a wizard step is still missing.
type ValidationError struct {
	kind
	Field   string
	Message string
	Details any
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{kind: kindValidation, Field: field, Message: message}
}

func (e *ValidationError) WithDetails(details any) *ValidationError {
	e.Details = details
	return e
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// PermissionError: the caller is known but may not act on the resource.
type PermissionError struct {
	kind
	Action   string
	Resource string
}

func NewPermissionError(action, resource string) *PermissionError {
	return &PermissionError{kind: kindPermission, Action: action, Resource: resource}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("not allowed to %s %s", e.Action, e.Resource)
}

// UnauthorizedError: the caller could not be identified.
type UnauthorizedError struct {
	kind
	Reason string
}

func NewUnauthorizedError(reason string) *UnauthorizedError {
	return &UnauthorizedError{kind: kindUnauthorized, Reason: reason}
}

func (e *UnauthorizedError) Error() string {
	if e.Reason == "" {
		return "unauthorized"
	}
	return "unauthorized: " + e.Reason
}

// ConflictError is a versioned write that lost against a concurrent one.
type ConflictError struct {
	kind
	Resource string
	ID       string
	Expected int64
	Actual   int64
}

func NewConflictError(resource, id string, expected, actual int64) *ConflictError {
	return &ConflictError{kind: kindConflict, Resource: resource, ID: id, Expected: expected, Actual: actual}
}

func (e *ConflictError) Error() string {
	if e.ID == "" {
		return e.Resource + " was modified concurrently"
	}
	return fmt.Sprintf("%s %q is at version %d, write expected %d", e.Resource, e.ID, e.Actual, e.Expected)
}

// InternalError wraps an unexpected failure. Cause stays reachable through
// errors.Is and errors.As.
type InternalError struct {
	kind
	Message string
	Cause   error
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{kind: kindInternal, Message: message, Cause: cause}
}

func (e *InternalError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *InternalError) Unwrap() error { return e.Cause }

func is[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

func IsNotFound(err error) bool     { return is[*NotFoundError](err) }
func IsValidation(err error) bool   { return is[*ValidationError](err) }
func IsPermission(err error) bool   { return is[*PermissionError](err) }
func IsUnauthorized(err error) bool { return is[*UnauthorizedError](err) }
func IsConflict(err error) bool     { return is[*ConflictError](err) }

// GetHTTPStatus maps err to a status code, 500 for anything unknown.
func GetHTTPStatus(err error) int {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// GetErrorCode maps err to its code, UNKNOWN_ERROR for anything unknown.
func GetErrorCode(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return "UNKNOWN_ERROR"
}

// GetDetails returns the details of a wrapped ValidationError, or nil.
func GetDetails(err error) any {
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Details
	}
	return nil
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func ToResponse(err error) ErrorResponse {
	return ErrorResponse{
		Code:    GetErrorCode(err),
		Message: err.Error(),
		Details: GetDetails(err),
	}
}
