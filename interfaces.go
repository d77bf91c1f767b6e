package dfs

import (
	"context"
	"io"
	"time"

	"github.com/mwantia/dfs/data"
)

// File is the uniform view of one remote path. Attribute queries are served
// from a per-file cache and only reach the backend when the cached values
// expired and no write is in progress.
type File interface {
	// URL returns the address of the file. Credentials are kept, the
	// password is never rendered.
	URL() *data.FileURL

	// Name returns the last element of the path.
	Name() string

	// Parent returns the containing directory, or nil for the root. The
	// result is computed once and cached.
	Parent() (File, error)

	// SetParent replaces the cached parent.
	SetParent(parent File)

	// Stat returns every cached attribute at once.
	Stat(ctx context.Context) (*data.FileInfo, error)

	// Exists reports whether the path exists. A missing path is not an
	// error; an authentication failure is.
	Exists(ctx context.Context) (bool, error)

	IsDirectory(ctx context.Context) (bool, error)

	// Size returns the size in bytes; directories report 0.
	Size(ctx context.Context) (int64, error)

	ModTime(ctx context.Context) (time.Time, error)

	Permissions(ctx context.Context) (data.Permissions, error)

	Owner(ctx context.Context) (string, error)

	Group(ctx context.Context) (string, error)

	// IsWriting reports whether an output stream on this file is open.
	IsWriting() bool

	// OpenReader opens the file for sequential reading.
	OpenReader(ctx context.Context) (io.ReadCloser, error)

	// OpenRandomAccessReader opens the file for positioned reading. The
	// length is taken from the cached size.
	OpenRandomAccessReader(ctx context.Context) (RandomAccessReader, error)

	// OpenWriter creates or truncates the file. Attribute synchronisation
	// is suspended until the writer is closed.
	OpenWriter(ctx context.Context) (io.WriteCloser, error)

	// OpenAppender opens the file for appending when the protocol supports
	// it.
	OpenAppender(ctx context.Context) (io.WriteCloser, error)

	// OpenRandomAccessWriter is not supported by any protocol.
	OpenRandomAccessWriter(ctx context.Context) (RandomAccessWriter, error)

	// Mkdir creates the directory and any missing parents.
	Mkdir(ctx context.Context) error

	// Delete removes the file, or the directory and its content.
	Delete(ctx context.Context) error

	// RenameTo moves the file to dst, replacing dst if it exists. The
	// replacement is not atomic: when the move fails after dst was
	// deleted, dst stays absent and the file stays in place.
	RenameTo(ctx context.Context, dst File) error

	// List returns the children of a directory. Children start with the
	// attributes returned by the listing.
	List(ctx context.Context) ([]File, error)

	ChangeModTime(ctx context.Context, t time.Time) error

	ChangePermissions(ctx context.Context, perm data.Permissions) error

	// ChangePermission toggles a single permission bit.
	ChangePermission(ctx context.Context, access data.Access, permission data.Permission, enabled bool) error

	// CopyRemotelyTo is not supported by any protocol.
	CopyRemotelyTo(ctx context.Context, dst File) error

	// FreeSpace is not supported by any protocol.
	FreeSpace(ctx context.Context) (int64, error)

	// TotalSpace is not supported by any protocol.
	TotalSpace(ctx context.Context) (int64, error)

	// Close releases the file. Every later operation fails with ErrClosed.
	Close() error
}

// RandomAccessReader reads at arbitrary offsets.
type RandomAccessReader interface {
	io.ReadSeekCloser

	// Offset returns the current read position as reported by the backend.
	Offset() (int64, error)

	// Length returns the length the reader was opened with.
	Length() int64
}

// RandomAccessWriter writes at arbitrary offsets.
type RandomAccessWriter interface {
	io.WriteSeeker
	io.Closer

	SetLength(length int64) error
}

// Provider creates File values for one URL scheme.
type Provider interface {
	// Scheme returns the URL scheme served, for instance "hdfs".
	Scheme() string

	// Open creates the File addressed by u and fetches its attributes.
	// A provider whose backend could not be bound replays the same error
	// on every call.
	Open(ctx context.Context, u *data.FileURL) (File, error)

	// Close releases every connection the provider opened.
	Close() error
}
