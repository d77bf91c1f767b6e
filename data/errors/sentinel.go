package errors

import "errors"

// Sentinels usable as errors.Is targets; matching is done by code.
var (
	ErrIO                = New(CodeIO, "i/o failure")
	ErrAuth              = New(CodeAuthentication, "authentication failed")
	ErrLogin             = New(CodeLogin, "login failed")
	ErrUnsupported       = New(CodeUnsupported, "operation not supported")
	ErrNotFound          = New(CodeNotFound, "file not found")
	ErrBinding           = New(CodeBinding, "backend binding failed")
	ErrInit              = New(CodeInitialization, "backend initialization failed")
	ErrTypeNotFound      = New(CodeTypeNotFound, "backend type not found")
	ErrEntityAbsent      = New(CodeEntityAbsent, "backend entity absent")
	ErrConnection        = New(CodeConnectionFailed, "connection failed")
	ErrConnectionTimeout = New(CodeConnectionTimeout, "connection timed out")
	ErrInvalid           = New(CodeInvalidArgument, "invalid argument")
	ErrInvalidState      = New(CodeInvalidState, "invalid state")
	ErrConfiguration     = New(CodeConfigurationError, "invalid configuration")
)

// CodeOf returns the code of the outermost *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// HasCode reports whether any *Error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				if HasCode(inner, code) {
					return true
				}
			}
			return false
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsIO reports whether err belongs to the I/O family. Authentication,
// not-found and timeouts are refinements of I/O.
func IsIO(err error) bool {
	code, ok := CodeOf(err)
	if !ok {
		return false
	}
	switch code {
	case CodeIO, CodeAuthentication, CodeNotFound, CodeConnectionFailed, CodeConnectionTimeout:
		return true
	}
	return false
}

func IsAuth(err error) bool        { return HasCode(err, CodeAuthentication) }
func IsLogin(err error) bool       { return HasCode(err, CodeLogin) }
func IsUnsupported(err error) bool { return HasCode(err, CodeUnsupported) }
func IsNotFound(err error) bool    { return HasCode(err, CodeNotFound) }
func IsBinding(err error) bool     { return HasCode(err, CodeBinding) }
func IsInit(err error) bool        { return HasCode(err, CodeInitialization) }
func IsTimeout(err error) bool     { return HasCode(err, CodeConnectionTimeout) }
