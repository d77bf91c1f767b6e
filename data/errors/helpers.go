package errors

import (
	"errors"
	"sync"
)

// IO wraps cause as a generic I/O failure.
func IO(cause error, op, path string) error {
	return New(CodeIO, "i/o failure").WithOperation(op).WithPath(path).WithCause(cause)
}

// Auth wraps cause as an authentication failure.
func Auth(cause error, op, path string) error {
	return New(CodeAuthentication, "authentication failed").WithOperation(op).WithPath(path).WithCause(cause)
}

// Unsupported reports that op is not offered by the backend.
func Unsupported(op string) error {
	return Newf(CodeUnsupported, "operation '%s' not supported", op).WithOperation(op)
}

// NotFound reports that path does not exist on the backend.
func NotFound(op, path string) error {
	return New(CodeNotFound, "file not found").WithOperation(op).WithPath(path)
}

// Binding wraps an unclassifiable backend failure verbatim.
func Binding(cause error, op string) error {
	return New(CodeBinding, "backend binding failed").WithOperation(op).WithCause(cause)
}

// TypeNotFound reports a symbol missing from a backend scope.
func TypeNotFound(protocol, name string) *Error {
	return Newf(CodeTypeNotFound, "symbol '%s' not found in '%s' scope", name, protocol).WithComponent("loader")
}

// Errors collects independent failures, for instance one per loaded module.
type Errors struct {
	mu     sync.RWMutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.errors)
}

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}
