package hdfs

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
	"github.com/mwantia/dfs/hadoop"
	"github.com/mwantia/dfs/identity"
	"github.com/mwantia/dfs/log"
)

// File is a path on a Hadoop filesystem.
type File struct {
	id     string
	p      *Provider
	b      *hadoop.Bindings
	fs     *hadoop.FileSystem
	env    *environment
	url    *data.FileURL
	path   *hadoop.Path
	cache  *attrs.Cache
	logger *log.Logger

	mu        sync.Mutex
	parent    dfs.File
	parentSet bool

	closed atomic.Bool
}

var _ dfs.File = (*File)(nil)

// newFile creates the facade of u. A nil snap leaves the attributes to be
// fetched on first use.
func (p *Provider) newFile(b *hadoop.Bindings, fs *hadoop.FileSystem, u *data.FileURL, env *environment, snap *attrs.Snapshot) (*File, error) {
	path, err := b.NewPath(u.Path)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	f := &File{
		id:     id.String(),
		p:      p,
		b:      b,
		fs:     fs,
		env:    env,
		url:    u,
		path:   path,
		logger: p.logger,
	}

	owner := identity.Owner(u.Credentials, env.identity)
	opts := []attrs.Option{
		attrs.WithTTL(p.ttl),
		attrs.WithClock(p.now),
		attrs.WithLogger(p.logger),
		attrs.WithMetrics(p.metrics, Scheme),
		attrs.WithDefaults(func() attrs.Defaults {
			return attrs.Defaults{
				Owner:       owner,
				Group:       env.identity.Group,
				Permissions: env.permissions,
			}
		}),
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

	fstatus, err := f.fs.GetFileStatus(f.path)
	if err != nil {
		return nil, err
	}
	return snapshotOf(fstatus)
}

func snapshotOf(fstatus *hadoop.FileStatus) (*attrs.Snapshot, error) {
	st, err := fstatus.Status()
	if err != nil {
		return nil, err
	}
	return &attrs.Snapshot{
		Exists:      true,
		IsDir:       st.IsDir,
		ModTime:     st.ModTime,
		Size:        st.Len,
		Permissions: st.Permissions,
		Owner:       st.Owner,
		Group:       st.Group,
	}, nil
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
			parent, err := f.p.newFile(f.b, f.fs, pu, f.env, nil)
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
	in, err := f.fs.Open(f.path)
	if err != nil {
		return nil, err
	}
	return in, nil
}

func (f *File) OpenRandomAccessReader(ctx context.Context) (dfs.RandomAccessReader, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	size, err := f.cache.Size(ctx)
	if err != nil {
		return nil, err
	}
	in, err := f.fs.Open(f.path)
	if err != nil {
		return nil, err
	}
	return dfs.NewRandomAccessReader(positioned{in}, size), nil
}

// OpenWriter creates or truncates the file.
func (f *File) OpenWriter(ctx context.Context) (io.WriteCloser, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	out, err := f.fs.Create(f.path, true)
	if err != nil {
		return nil, err
	}
	f.cache.BeginWrite(true)
	return attrs.NewCountingWriter(out, f.cache), nil
}

// OpenAppender opens the file for appending; its cached size grows with
// every write.
func (f *File) OpenAppender(ctx context.Context) (io.WriteCloser, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	out, err := f.fs.Append(f.path)
	if err != nil {
		return nil, err
	}
	f.cache.BeginWrite(false)
	return attrs.NewCountingWriter(out, f.cache), nil
}

func (f *File) OpenRandomAccessWriter(ctx context.Context) (dfs.RandomAccessWriter, error) {
	return nil, dfs.Unsupported(Scheme, dfs.OpRandomWrite)
}

func (f *File) Mkdir(ctx context.Context) error {
	if err := f.check(); err != nil {
		return err
	}
	ok, err := f.fs.Mkdirs(f.path)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(errors.CodeIO, "unable to create directory").
			WithComponent(Scheme).WithOperation("mkdir").WithPath(f.url.Path)
	}

	f.cache.MarkDirectory()
	return nil
}

func (f *File) Delete(ctx context.Context) error {
	if err := f.check(); err != nil {
		return err
	}
	ok, err := f.fs.Delete(f.path, true)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(errors.CodeIO, "unable to delete").
			WithComponent(Scheme).WithOperation("delete").WithPath(f.url.Path)
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

	ok, err = f.fs.Rename(f.path, target.path)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(errors.CodeIO, "unable to rename").
			WithComponent(Scheme).WithOperation("rename").WithPath(f.url.Path)
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

	statuses, err := f.fs.ListStatus(f.path)
	if err != nil {
		return nil, err
	}

	children := make([]dfs.File, 0, len(statuses))
	for _, fstatus := range statuses {
		path, err := fstatus.Path()
		if err != nil {
			return nil, err
		}
		name, err := path.Name()
		if err != nil {
			return nil, err
		}
		if name == "" || name == "." || name == ".." {
			continue
		}

		child, err := snapshotOf(fstatus)
		if err != nil {
			return nil, err
		}
		c, err := f.p.newFile(f.b, f.fs, f.url.Child(name), f.env, child)
		if err != nil {
			return nil, err
		}
		c.SetParent(f)
		children = append(children, c)
	}
	return children, nil
}

// ChangeModTime sets the modification time and leaves the access time.
func (f *File) ChangeModTime(ctx context.Context, t time.Time) error {
	if err := f.check(); err != nil {
		return err
	}
	if err := f.fs.SetTimes(f.path, t.UnixMilli(), -1); err != nil {
		return err
	}
	f.cache.SetModTime(t)
	return nil
}

func (f *File) ChangePermissions(ctx context.Context, perm data.Permissions) error {
	if err := f.check(); err != nil {
		return err
	}
	fsperm, err := f.b.NewFsPermission(perm.Mask())
	if err != nil {
		return err
	}
	if err := f.fs.SetPermission(f.path, fsperm); err != nil {
		return err
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

// Close releases the file. The connection stays open for other files of
// the provider.
func (f *File) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	f.logger.Debug("Closed file %s", f.id)
	return nil
}

// positioned adapts an input stream to dfs.PositionedReader.
type positioned struct {
	*hadoop.FSDataInputStream
}

func (p positioned) Position() (int64, error) {
	return p.Pos()
}
