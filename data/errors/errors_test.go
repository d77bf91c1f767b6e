package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		io    bool
	}{
		{"io", IO(errors.New("boom"), "read", "/a"), func(err error) bool { return HasCode(err, CodeIO) }, true},
		{"auth", Auth(errors.New("denied"), "stat", "/a"), IsAuth, true},
		{"not found", NotFound("stat", "/a"), IsNotFound, true},
		{"timeout", New(CodeConnectionTimeout, "slow"), IsTimeout, true},
		{"unsupported", Unsupported("append"), IsUnsupported, false},
		{"init", New(CodeInitialization, "missing"), IsInit, false},
		{"binding", Binding(errors.New("panic"), "call"), IsBinding, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.Equal(t, tt.io, IsIO(tt.err))

			wrapped := fmt.Errorf("context: %w", tt.err)
			assert.True(t, tt.check(wrapped))
			assert.Equal(t, tt.io, IsIO(wrapped))
		})
	}

	assert.False(t, IsIO(errors.New("plain")))
	assert.False(t, IsIO(nil))
}

func TestErrorFormat(t *testing.T) {
	err := New(CodeIO, "unable to delete").
		WithComponent("hdfs").
		WithOperation("delete").
		WithPath("/a").
		WithCause(errors.New("refused"))

	assert.Equal(t, "dfs: [hdfs:delete] unable to delete '/a': refused", err.Error())
	assert.Equal(t, CategoryIO, err.Category)
	assert.ErrorIs(t, err, ErrIO)
	assert.NotErrorIs(t, err, ErrAuth)

	code, ok := CodeOf(fmt.Errorf("outer: %w", err))
	assert.True(t, ok)
	assert.Equal(t, CodeIO, code)
}

func TestErrors(t *testing.T) {
	var errs Errors
	assert.NoError(t, errs.Errors())

	errs.Add(nil)
	errs.Add(Auth(nil, "close", ""))
	errs.Add(errors.New("other"))

	assert.Equal(t, 2, errs.Len())
	assert.True(t, IsAuth(errs.Errors()))
}
