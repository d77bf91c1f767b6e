package backend

import (
	"context"
	"errors"
	"io/fs"

	"github.com/mwantia/dfs/data"
)

// Store keeps the namespace and file contents an Emulator serves. Keys are
// clean absolute paths; the root "/" always exists as a directory.
type Store interface {
	// Name returns the identifier of the store implementation.
	Name() string
	// Open prepares the store for use.
	Open(ctx context.Context) error
	// Close releases every resource held by the store.
	Close(ctx context.Context) error

	// Get returns a copy of the record stored under key.
	Get(ctx context.Context, key string) (*data.Metadata, error)
	// Put creates or replaces the record stored under meta.Key.
	Put(ctx context.Context, meta *data.Metadata) error
	// Update applies a partial update to the record stored under key.
	Update(ctx context.Context, key string, update *data.MetadataUpdate) error
	// Delete removes key together with every descendant.
	Delete(ctx context.Context, key string) error
	// Rename moves key together with every descendant to newKey.
	Rename(ctx context.Context, key, newKey string) error
	// Children returns the direct children of key ordered by key.
	Children(ctx context.Context, key string) ([]*data.Metadata, error)

	// ReadData reads the content of key at offset. It returns io.EOF only
	// when no byte could be read.
	ReadData(ctx context.Context, key string, offset int64, p []byte) (int, error)
	// WriteData writes p at offset, growing the content as needed, and
	// updates size and modification time.
	WriteData(ctx context.Context, key string, offset int64, p []byte) (int, error)
	// Truncate cuts or extends the content of key to size.
	Truncate(ctx context.Context, key string, size int64) error
}

var (
	ErrIsDirectory  = errors.New("is a directory")
	ErrNotDirectory = errors.New("not a directory")
	ErrNotEmpty     = errors.New("directory not empty")
	ErrRoot         = errors.New("operation not permitted on the root")
	ErrSubtree      = errors.New("cannot move an entry beneath itself")
)

// NotExist reports key as missing.
func NotExist(op, key string) error {
	return &fs.PathError{Op: op, Path: key, Err: fs.ErrNotExist}
}

// Exist reports key as already present.
func Exist(op, key string) error {
	return &fs.PathError{Op: op, Path: key, Err: fs.ErrExist}
}

// NewRoot returns the record of the root directory.
func NewRoot() *data.Metadata {
	return data.NewDirectoryMetadata("/", data.DefaultDirectoryPermissions)
}

// ChildPrefix returns the key prefix shared by every descendant of key.
func ChildPrefix(key string) string {
	if key == "/" {
		return "/"
	}
	return key + "/"
}
