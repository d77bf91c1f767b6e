// Package errors provides the error taxonomy surfaced by the filesystem
// adapters: every failure leaving a facade carries one of the codes below.
package errors

import (
	"fmt"
	"strings"
)

// Code identifies the kind of a failure.
type Code string

const (
	CodeIO                 Code = "IO_FAILURE"
	CodeAuthentication     Code = "AUTHENTICATION_FAILED"
	CodeLogin              Code = "LOGIN_FAILED"
	CodeUnsupported        Code = "UNSUPPORTED_OPERATION"
	CodeNotFound           Code = "FILE_NOT_FOUND"
	CodeBinding            Code = "BINDING_FAILED"
	CodeInitialization     Code = "BACKEND_INIT_FAILED"
	CodeTypeNotFound       Code = "BACKEND_TYPE_NOT_FOUND"
	CodeEntityAbsent       Code = "BACKEND_ENTITY_ABSENT"
	CodeConnectionFailed   Code = "CONNECTION_FAILED"
	CodeConnectionTimeout  Code = "CONNECTION_TIMEOUT"
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeInvalidState       Code = "INVALID_STATE"
	CodeConfigurationError Code = "INVALID_CONFIG"
)

// Category groups codes for callers that only care about the broad class.
type Category string

const (
	CategoryIO            Category = "io"
	CategoryAuth          Category = "auth"
	CategoryCapability    Category = "capability"
	CategoryBinding       Category = "binding"
	CategoryConnection    Category = "connection"
	CategoryConfiguration Category = "configuration"
	CategoryInternal      Category = "internal"
)

// CategoryOf returns the category a code belongs to.
func CategoryOf(code Code) Category {
	switch code {
	case CodeIO, CodeNotFound:
		return CategoryIO
	case CodeAuthentication, CodeLogin:
		return CategoryAuth
	case CodeUnsupported:
		return CategoryCapability
	case CodeBinding, CodeInitialization, CodeTypeNotFound, CodeEntityAbsent:
		return CategoryBinding
	case CodeConnectionFailed, CodeConnectionTimeout:
		return CategoryConnection
	case CodeConfigurationError:
		return CategoryConfiguration
	default:
		return CategoryInternal
	}
}

// Error is the structured failure returned by every adapter component.
type Error struct {
	Code     Code
	Category Category
	Message  string

	Component string
	Operation string
	Path      string

	Cause error
}

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:     code,
		Category: CategoryOf(code),
		Message:  message,
	}
}

// Newf creates an error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("dfs: ")
	if e.Component != "" {
		sb.WriteString("[")
		sb.WriteString(e.Component)
		if e.Operation != "" {
			sb.WriteString(":")
			sb.WriteString(e.Operation)
		}
		sb.WriteString("] ")
	}
	sb.WriteString(e.Message)
	if e.Path != "" {
		fmt.Fprintf(&sb, " '%s'", e.Path)
	}
	if e.Cause != nil {
		fmt.Fprintf(&sb, ": %v", e.Cause)
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	if other, ok := target.(*Error); ok {
		return e.Code == other.Code
	}
	return false
}

// WithCause sets the wrapped cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithComponent sets the component that raised the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// WithOperation sets the operation during which the error occurred.
func (e *Error) WithOperation(operation string) *Error {
	e.Operation = operation
	return e
}

// WithPath sets the remote path involved in the failure.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}
