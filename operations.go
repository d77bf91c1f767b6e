package dfs

import "github.com/mwantia/dfs/data/errors"

// Operation names used in errors for operations a protocol never supports.
const (
	OpAppend        = "append"
	OpRandomWrite   = "random_write"
	OpCopyRemotely  = "copy_remotely"
	OpGetFreeSpace  = "get_free_space"
	OpGetTotalSpace = "get_total_space"
)

// Unsupported returns the capability error for op. It is raised before
// any backend call.
func Unsupported(scheme, op string) error {
	return errors.Newf(errors.CodeUnsupported, "operation '%s' not supported", op).
		WithComponent(scheme).
		WithOperation(op)
}

// NotDirectory reports a listing of a path that is not an existing
// directory.
func NotDirectory(scheme, path string) error {
	return errors.New(errors.CodeIO, "not a directory").
		WithComponent(scheme).
		WithOperation("list").
		WithPath(path).
		WithCause(ErrNotDirectory)
}
