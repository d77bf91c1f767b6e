package qfs

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mwantia/dfs"
	"github.com/mwantia/dfs/attrs"
	"github.com/mwantia/dfs/data"
	"github.com/mwantia/dfs/data/errors"
	"github.com/mwantia/dfs/kfs"
	"github.com/mwantia/dfs/log"
)

const (
	dot    = "."
	dotdot = ".."
)

// File is a path on a Quantcast filesystem.
type File struct {
	id     string
	p      *Provider
	b      *kfs.Bindings
	access *kfs.Access
	url    *data.FileURL
	cache  *attrs.Cache
	logger *log.Logger

	mu        sync.Mutex
	parent    dfs.File
	parentSet bool

	closed atomic.Bool
}

var _ dfs.File = (*File)(nil)

func (p *Provider) newFile(b *kfs.Bindings, access *kfs.Access, u *data.FileURL, snap *attrs.Snapshot) (*File, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	f := &File{
		id:     id.String(),
		p:      p,
		b:      b,
		access: access,
		url:    u,
		logger: p.logger,
	}

	opts := []attrs.Option{
		attrs.WithTTL(p.ttl),
		attrs.WithClock(p.now),
		attrs.WithLogger(p.logger),
		attrs.WithMetrics(p.metrics, Scheme),
		attrs.WithDefaults(func() attrs.Defaults { return p.defaults }),
	}
	if snap != nil {
		f.cache = attrs.NewFresh(*snap, f.fetch, opts...)
	} else {
		f.cache = attrs.New(f.fetch, opts...)
	}

	f.logger.Debug("Created file %s for '%s'", f.id, u)
	return f, nil
}

func (f *File) fetch(ctx context.Context) (*attrs.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	attr, err := f.access.FileAttributes(f.url.Path)
	if err != nil {
		return nil, err
	}
	a, err := attr.Attributes()
	if err != nil {
		return nil, err
	}
	return snapshotOf(a), nil
}

func snapshotOf(a *kfs.Attributes) *attrs.Snapshot {
	return &attrs.Snapshot{
		Exists:      true,
		IsDir:       a.IsDirectory,
		ModTime:     a.ModTime,
		Size:        a.Size,
		Permissions: a.Permissions,
		Owner:       a.Owner,
		Group:       a.Group,
	}
}

// failure builds the error of an operation refused with a status code.
func (f *File) failure(op string, ret int) error {
	if err := f.access.RetToIOException(ret, f.url.Path); err != nil {
		return err
	}
	return errors.Newf(errors.CodeIO, "status %d", ret).
		WithComponent(Scheme).WithOperation(op).WithPath(f.url.Path)
}

func (f *File) check() error {
	if f.closed.Load() {
		return dfs.ErrClosed
	}
	return nil
}

// ID returns the identifier used in log messages.
func (f *File) ID() string {
	return f.id
}

func (f *File) URL() *data.FileURL {
	return f.url
}

func (f *File) Name() string {
	return f.url.Filename()
}

func (f *File) Parent() (dfs.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.parentSet {
		if pu := f.url.Parent(); pu != nil {
			parent, err := f.p.newFile(f.b, f.access, pu, nil)
			if err != nil {
				return nil, err
			}
			f.parent = parent
		}
		f.parentSet = true
	}
	return f.parent, nil
}

func (f *File) SetParent(parent dfs.File) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.parent = parent
	f.parentSet = true
}

func (f *File) Stat(ctx context.Context) (*data.FileInfo, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	snap, err := f.cache.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.FileInfo(f.url.Path), nil
}

func (f *File) Exists(ctx context.Context) (bool, error) {
	if err := f.check(); err != nil {
		return false, err
	}
	return f.cache.Exists(ctx)
}

func (f *File) IsDirectory(ctx context.Context) (bool, error) {
	if err := f.check(); err != nil {
		return false, err
	}
	return f.cache.IsDirectory(ctx)
}

func (f *File) Size(ctx context.Context) (int64, error) {
	if err := f.check(); err != nil {
		return 0, err
	}
	return f.cache.Size(ctx)
}

func (f *File) ModTime(ctx context.Context) (time.Time, error) {
	if err := f.check(); err != nil {
		return time.Time{}, err
	}
	return f.cache.ModTime(ctx)
}

func (f *File) Permissions(ctx context.Context) (data.Permissions, error) {
	if err := f.check(); err != nil {
		return 0, err
	}
	return f.cache.Permissions(ctx)
}

func (f *File) Owner(ctx context.Context) (string, error) {
	if err := f.check(); err != nil {
		return "", err
	}
	return f.cache.Owner(ctx)
}

func (f *File) Group(ctx context.Context) (string, error) {
	if err := f.check(); err != nil {
		return "", err
	}
	return f.cache.Group(ctx)
}

func (f *File) IsWriting() bool {
	return f.cache.IsWriting()
}

func (f *File) OpenReader(ctx context.Context) (io.ReadCloser, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	ch, err := f.access.Open(f.url.Path)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (f *File) OpenRandomAccessReader(ctx context.Context) (dfs.RandomAccessReader, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	size, err := f.cache.Size(ctx)
	if err != nil {
		return nil, err
	}
	ch, err := f.access.Open(f.url.Path)
	if err != nil {
		return nil, err
	}
	return dfs.NewRandomAccessReader(channel{ch}, size), nil
}

// OpenWriter creates or truncates the file. The parent directory must
// exist.
func (f *File) OpenWriter(ctx context.Context) (io.WriteCloser, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	ch, err := f.access.Create(f.url.Path, 1, false, -1, -1)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, errors.New(errors.CodeIO, "can't write, write-protected?").
			WithComponent(Scheme).WithOperation("create").WithPath(f.url.Path)
	}
	f.cache.BeginWrite(true)
	return attrs.NewCountingWriter(ch, f.cache), nil
}

func (f *File) OpenAppender(ctx context.Context) (io.WriteCloser, error) {
	return nil, dfs.Unsupported(Scheme, dfs.OpAppend)
}

func (f *File) OpenRandomAccessWriter(ctx context.Context) (dfs.RandomAccessWriter, error) {
	return nil, dfs.Unsupported(Scheme, dfs.OpRandomWrite)
}

// Mkdir creates the directory and its missing parents. It fails when the
// path already exists.
func (f *File) Mkdir(ctx context.Context) error {
	if err := f.check(); err != nil {
		return err
	}
	exists, err := f.cache.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return errors.New(errors.CodeIO, "file exists").
			WithComponent(Scheme).WithOperation("mkdir").WithPath(f.url.Path)
	}

	ret, err := f.access.Mkdirs(f.url.Path)
	if err != nil {
		return err
	}
	if ret != 0 {
		return f.failure("mkdir", ret)
	}

	f.cache.MarkDirectory()
	return nil
}

// Delete removes the file, or the directory with rmdirs.
func (f *File) Delete(ctx context.Context) error {
	if err := f.check(); err != nil {
		return err
	}
	isDir, err := f.access.IsDirectory(f.url.Path)
	if err != nil {
		return err
	}

	var ret int
	if isDir {
		ret, err = f.access.Rmdirs(f.url.Path)
	} else {
		ret, err = f.access.Remove(f.url.Path)
	}
	if err != nil {
		return err
	}
	if ret != 0 {
		return f.failure("delete", ret)
	}

	f.cache.MarkDeleted()
	return nil
}

// RenameTo deletes dst if it exists, then moves the file. The attributes
// of dst are fetched again afterwards. A missing source leaves dst alone.
func (f *File) RenameTo(ctx context.Context, dst dfs.File) error {
	if err := f.check(); err != nil {
		return err
	}
	if err := dfs.CheckRename(f, dst, f.p.proto.StandardPort); err != nil {
		return err
	}
	target, ok := dst.(*File)
	if !ok {
		return dfs.ErrIncompatible
	}

	exists, err := f.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return errors.New(errors.CodeNotFound, "source does not exist").
			WithComponent(Scheme).WithOperation("rename").WithPath(f.url.Path)
	}

	exists, err = target.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		if err := target.Delete(ctx); err != nil {
			return err
		}
	}

	ret, err := f.access.Rename(f.url.Path, target.url.Path)
	if err != nil {
		return err
	}
	if ret != 0 {
		return f.failure("rename", ret)
	}

	f.cache.MarkDeleted()
	return target.cache.Sync(ctx)
}

// List returns the children of the directory, each pre-populated with the
// attributes of the listing.
func (f *File) List(ctx context.Context) ([]dfs.File, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	snap, err := f.cache.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if !snap.Exists || !snap.IsDir {
		return nil, dfs.NotDirectory(Scheme, f.url.Path)
	}

	self, err := f.access.FileAttributes(f.url.Path)
	if err != nil {
		return nil, err
	}
	isDir, err := self.IsDirectory()
	if err != nil {
		return nil, err
	}

	entries := []*kfs.FileAttr{self}
	if isDir {
		if entries, err = f.access.Readdirplus(f.url.Path); err != nil {
			return nil, err
		}
	}

	children := make([]dfs.File, 0, len(entries))
	for _, entry := range entries {
		a, err := entry.Attributes()
		if err != nil {
			return nil, err
		}
		if a.Filename == dot || a.Filename == dotdot {
			continue
		}

		c, err := f.p.newFile(f.b, f.access, f.url.Child(a.Filename), snapshotOf(a))
		if err != nil {
			return nil, err
		}
		c.SetParent(f)
		children = append(children, c)
	}
	return children, nil
}

func (f *File) ChangeModTime(ctx context.Context, t time.Time) error {
	if err := f.check(); err != nil {
		return err
	}
	ret, err := f.access.SetModificationTime(f.url.Path, t.UnixMilli())
	if err != nil {
		return err
	}
	if ret != 0 {
		return f.failure("set_modification_time", ret)
	}
	f.cache.SetModTime(t)
	return nil
}

func (f *File) ChangePermissions(ctx context.Context, perm data.Permissions) error {
	if err := f.check(); err != nil {
		return err
	}
	ret, err := f.access.Chmod(f.url.Path, int(perm.Mask()))
	if err != nil {
		return err
	}
	if ret != 0 {
		return f.failure("chmod", ret)
	}
	f.cache.SetPermissions(perm)
	return nil
}

func (f *File) ChangePermission(ctx context.Context, access data.Access, permission data.Permission, enabled bool) error {
	perm, err := f.Permissions(ctx)
	if err != nil {
		return err
	}
	return f.ChangePermissions(ctx, perm.With(access, permission, enabled))
}

func (f *File) CopyRemotelyTo(ctx context.Context, dst dfs.File) error {
	return dfs.Unsupported(Scheme, dfs.OpCopyRemotely)
}

func (f *File) FreeSpace(ctx context.Context) (int64, error) {
	return 0, dfs.Unsupported(Scheme, dfs.OpGetFreeSpace)
}

func (f *File) TotalSpace(ctx context.Context) (int64, error) {
	return 0, dfs.Unsupported(Scheme, dfs.OpGetTotalSpace)
}

// Close releases the file. The metaserver connection stays open for other
// files of the provider.
func (f *File) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	f.logger.Debug("Closed file %s", f.id)
	return nil
}

// channel adapts an input channel to dfs.PositionedReader.
type channel struct {
	*kfs.InputChannel
}

func (ch channel) Position() (int64, error) {
	return ch.Tell()
}

func (ch channel) SeekTo(offset int64) error {
	_, err := ch.InputChannel.SeekTo(offset)
	return err
}
