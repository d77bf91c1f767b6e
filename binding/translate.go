package binding

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"

	"github.com/mwantia/dfs/data/errors"
)

// Probe interfaces a backend error may implement to announce its kind.
type (
	authFailure interface {
		AuthFailure() bool
	}
	loginFailure interface {
		LoginFailure() bool
	}
	timeoutFailure interface {
		Timeout() bool
	}
)

// Classify maps a raw backend failure onto a taxonomy code.
func Classify(err error) errors.Code {
	if code, ok := errors.CodeOf(err); ok {
		return code
	}

	var auth authFailure
	if stderrors.As(err, &auth) && auth.AuthFailure() {
		return errors.CodeAuthentication
	}
	var login loginFailure
	if stderrors.As(err, &login) && login.LoginFailure() {
		return errors.CodeLogin
	}
	if stderrors.Is(err, fs.ErrNotExist) {
		return errors.CodeNotFound
	}
	var timeout timeoutFailure
	if stderrors.As(err, &timeout) && timeout.Timeout() {
		return errors.CodeConnectionTimeout
	}
	if stderrors.Is(err, os.ErrDeadlineExceeded) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.CodeConnectionTimeout
	}
	return errors.CodeIO
}

// Translate re-raises err as the kind the operation declared, keeping err
// as the cause. A kind the operation does not declare becomes a binding
// failure wrapping err verbatim. Errors already carrying a code that the
// operation declares pass through untouched.
func Translate(op string, err error, declared ...errors.Code) error {
	if err == nil {
		return nil
	}

	kind := Classify(err)
	if !declares(declared, kind) {
		if errors.HasCode(err, errors.CodeBinding) {
			return err
		}
		return errors.Binding(err, op)
	}

	if code, ok := errors.CodeOf(err); ok && code == kind {
		return err
	}
	return errors.New(kind, message(kind)).WithOperation(op).WithCause(err)
}

// declares reports whether kind, or a kind it refines, is declared.
func declares(declared []errors.Code, kind errors.Code) bool {
	for _, d := range declared {
		if d == kind {
			return true
		}
		if d == errors.CodeIO && refinesIO(kind) {
			return true
		}
	}
	return false
}

func refinesIO(kind errors.Code) bool {
	switch kind {
	case errors.CodeIO, errors.CodeAuthentication, errors.CodeNotFound,
		errors.CodeConnectionFailed, errors.CodeConnectionTimeout:
		return true
	}
	return false
}

func message(kind errors.Code) string {
	switch kind {
	case errors.CodeAuthentication:
		return "authentication failed"
	case errors.CodeLogin:
		return "login failed"
	case errors.CodeNotFound:
		return "file not found"
	case errors.CodeConnectionTimeout:
		return "connection timed out"
	case errors.CodeConnectionFailed:
		return "connection failed"
	default:
		return "i/o failure"
	}
}
