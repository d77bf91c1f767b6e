package qfs_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/mwantia/dfs"
	"github.com/mwantia/dfs/backend"
	"github.com/mwantia/dfs/backend/local"
	"github.com/mwantia/dfs/backend/memory"
	"github.com/mwantia/dfs/backend/sqlite"
	"github.com/mwantia/dfs/config"
	"github.com/mwantia/dfs/data"
	dfserrors "github.com/mwantia/dfs/data/errors"
	"github.com/mwantia/dfs/loader"
	"github.com/mwantia/dfs/log"
	"github.com/mwantia/dfs/metrics"
	"github.com/mwantia/dfs/qfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStoreFactory creates a new store instance for testing.
type TestStoreFactory func(t *testing.T) (backend.Store, error)

// GetTestStoreFactories returns all store implementations to test.
func GetTestStoreFactories() map[string]TestStoreFactory {
	return map[string]TestStoreFactory{
		"memory": func(t *testing.T) (backend.Store, error) {
			return memory.NewMemoryStore(), nil
		},
		"sqlite": func(t *testing.T) (backend.Store, error) {
			return sqlite.NewSQLiteStore(":memory:")
		},
		"local": func(t *testing.T) (backend.Store, error) {
			store, err := local.NewStore(t.TempDir())
			if err != nil {
				return nil, err
			}
			return store, store.Open(t.Context())
		},
	}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	e     *backend.Emulator
	fsys  *dfs.FileSystem
	clock *clock
}

func newFixture(t *testing.T, store backend.Store, cfg *config.Configuration) *fixture {
	t.Helper()

	e := backend.NewEmulator(store, backend.WithUser("qfs", "qfsgroup"))
	l := loader.New()
	e.Provide(l)

	if cfg == nil {
		cfg = config.NewDefault()
	}
	fsys, err := dfs.New(
		dfs.WithConfiguration(cfg),
		dfs.WithLoader(l),
		dfs.WithLogger(log.NewNop()),
		dfs.WithMetrics(metrics.NewCollector("test")),
	)
	require.NoError(t, err)

	c := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, fsys.Register(qfs.NewProvider(fsys, qfs.WithoutProbe(), qfs.WithClock(c.Now))))
	t.Cleanup(func() {
		fsys.Close()
		store.Close(context.Background())
	})

	return &fixture{e: e, fsys: fsys, clock: c}
}

func (fx *fixture) open(t *testing.T, path string) dfs.File {
	t.Helper()
	f, err := fx.fsys.Open(t.Context(), "qfs://metaserver"+path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func (fx *fixture) mkdir(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, fx.open(t, path).Mkdir(t.Context()))
}

func (fx *fixture) write(t *testing.T, path string, content []byte) {
	t.Helper()
	w, err := fx.open(t, path).OpenWriter(t.Context())
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func forEachStore(t *testing.T, fn func(t *testing.T, store backend.Store)) {
	for name, factory := range GetTestStoreFactories() {
		t.Run(name, func(t *testing.T) {
			store, err := factory(t)
			require.NoError(t, err)
			fn(t, store)
		})
	}
}

func TestAbsentDefaults(t *testing.T) {
	fx := newFixture(t, memory.NewMemoryStore(), nil)
	info, err := fx.open(t, "/missing").Stat(t.Context())
	require.NoError(t, err)

	assert.False(t, info.Exists)
	assert.Equal(t, "", info.Owner)
	assert.Equal(t, "", info.Group)
	assert.Equal(t, data.Permissions(0664), info.Permissions)
}

func TestConfiguredDefaults(t *testing.T) {
	cfg := config.NewDefault()
	qcfg := cfg.Protocols[config.ProtocolQFS]
	qcfg.DefaultOwner = "nobody"
	qcfg.DefaultGroup = "nogroup"
	qcfg.DefaultPermissions = "0600"

	fx := newFixture(t, memory.NewMemoryStore(), cfg)
	info, err := fx.open(t, "/missing").Stat(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "nobody", info.Owner)
	assert.Equal(t, "nogroup", info.Group)
	assert.Equal(t, data.Permissions(0600), info.Permissions)
}

func TestWriteReadDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, store backend.Store) {
		fx := newFixture(t, store, nil)
		ctx := t.Context()
		fx.mkdir(t, "/a")

		f := fx.open(t, "/a/b.txt")
		w, err := f.OpenWriter(ctx)
		require.NoError(t, err)
		assert.True(t, f.IsWriting())
		_, err = w.Write(make([]byte, 100))
		require.NoError(t, err)
		size, err := f.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(100), size)
		require.NoError(t, w.Close())
		assert.False(t, f.IsWriting())

		info, err := fx.open(t, "/a/b.txt").Stat(ctx)
		require.NoError(t, err)
		assert.True(t, info.Exists)
		assert.Equal(t, int64(100), info.Size)
		assert.Equal(t, "qfs", info.Owner)
		assert.Equal(t, "qfsgroup", info.Group)

		r, err := f.OpenReader(ctx)
		require.NoError(t, err)
		content, err := io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		assert.Len(t, content, 100)

		require.NoError(t, f.Delete(ctx))
		exists, err := f.Exists(ctx)
		require.NoError(t, err)
		assert.False(t, exists)
		exists, err = fx.open(t, "/a/b.txt").Exists(ctx)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestWriteWithoutParent(t *testing.T) {
	fx := newFixture(t, memory.NewMemoryStore(), nil)
	f := fx.open(t, "/nowhere/file")

	_, err := f.OpenWriter(t.Context())
	require.Error(t, err)
	assert.True(t, dfserrors.IsIO(err))
	assert.False(t, f.IsWriting())
}

func TestMkdir(t *testing.T) {
	fx := newFixture(t, memory.NewMemoryStore(), nil)
	ctx := t.Context()

	dir := fx.open(t, "/x/y")
	require.NoError(t, dir.Mkdir(ctx))
	isDir, err := dir.IsDirectory(ctx)
	require.NoError(t, err)
	assert.True(t, isDir)

	err = dir.Mkdir(ctx)
	require.Error(t, err)
	assert.True(t, dfserrors.IsIO(err))

	fx.write(t, "/x/y/file", []byte("x"))
	err = fx.open(t, "/x/y/file/sub").Mkdir(ctx)
	require.Error(t, err)
	assert.True(t, dfserrors.IsIO(err))
}

func TestDeleteDirectory(t *testing.T) {
	fx := newFixture(t, memory.NewMemoryStore(), nil)
	ctx := t.Context()
	fx.mkdir(t, "/dir")

	dir := fx.open(t, "/dir")
	require.NoError(t, dir.Delete(ctx))
	assert.Equal(t, 1, fx.e.Calls("KfsAccessRmdirs"))
	assert.Equal(t, 0, fx.e.Calls("KfsAccessRemove"))

	err := fx.open(t, "/dir").Delete(ctx)
	require.Error(t, err)
	assert.True(t, dfserrors.IsNotFound(err))
}

func TestList(t *testing.T) {
	forEachStore(t, func(t *testing.T, store backend.Store) {
		fx := newFixture(t, store, nil)
		ctx := t.Context()
		fx.mkdir(t, "/dir/sub")
		fx.write(t, "/dir/a.txt", []byte("aaa"))

		dir := fx.open(t, "/dir")
		children, err := dir.List(ctx)
		require.NoError(t, err)
		require.Len(t, children, 2)

		calls := fx.e.Calls("KfsAccessStat")
		assert.Equal(t, "a.txt", children[0].Name())
		assert.Equal(t, "sub", children[1].Name())
		size, err := children[0].Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), size)
		isDir, err := children[1].IsDirectory(ctx)
		require.NoError(t, err)
		assert.True(t, isDir)
		assert.Equal(t, calls, fx.e.Calls("KfsAccessStat"))

		parent, err := children[1].Parent()
		require.NoError(t, err)
		assert.Same(t, dir, parent)

		_, err = children[0].List(ctx)
		assert.ErrorIs(t, err, dfs.ErrNotDirectory)
	})
}

func TestRename(t *testing.T) {
	fx := newFixture(t, memory.NewMemoryStore(), nil)
	ctx := t.Context()
	fx.mkdir(t, "/d")
	fx.write(t, "/d/src", []byte("source"))
	fx.write(t, "/d/dst", []byte("old"))

	src := fx.open(t, "/d/src")
	dst := fx.open(t, "/d/dst")
	require.NoError(t, src.RenameTo(ctx, dst))

	exists, err := src.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
	size, err := dst.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), size)
}

func TestRenameIsNotAtomic(t *testing.T) {
	fx := newFixture(t, memory.NewMemoryStore(), nil)
	ctx := t.Context()
	fx.mkdir(t, "/d")
	fx.write(t, "/d/src", []byte("source"))
	fx.write(t, "/d/dst", []byte("old"))

	src := fx.open(t, "/d/src")
	dst := fx.open(t, "/d/dst")

	fx.e.Fail("KfsAccessRename", errors.New("metaserver unavailable"))
	err := src.RenameTo(ctx, dst)
	require.Error(t, err)
	assert.True(t, dfserrors.IsIO(err))
	fx.e.Heal("KfsAccessRename")

	exists, err := fx.open(t, "/d/dst").Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = fx.open(t, "/d/src").Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRenameMissingSourceKeepsDestination(t *testing.T) {
	fx := newFixture(t, memory.NewMemoryStore(), nil)
	ctx := t.Context()
	fx.mkdir(t, "/d")
	fx.write(t, "/d/dst", []byte("keep"))

	src := fx.open(t, "/d/nosuch")
	dst := fx.open(t, "/d/dst")

	err := src.RenameTo(ctx, dst)
	require.Error(t, err)
	assert.True(t, dfserrors.IsNotFound(err))
	assert.Equal(t, 0, fx.e.Calls("KfsAccessRemove"))
	assert.Equal(t, 0, fx.e.Calls("KfsAccessRename"))

	size, err := fx.open(t, "/d/dst").Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)
}

func TestRenameToStandardPort(t *testing.T) {
	fx := newFixture(t, memory.NewMemoryStore(), nil)
	ctx := t.Context()
	fx.mkdir(t, "/d")
	fx.write(t, "/d/src", []byte("source"))

	src := fx.open(t, "/d/src")
	dst, err := fx.fsys.Open(ctx, "qfs://metaserver:20000/d/dst")
	require.NoError(t, err)
	defer dst.Close()
	require.NoError(t, src.RenameTo(ctx, dst))

	exists, err := fx.open(t, "/d/dst").Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRenameMarksSourceDeletedWhenResyncFails(t *testing.T) {
	fx := newFixture(t, memory.NewMemoryStore(), nil)
	ctx := t.Context()
	fx.mkdir(t, "/d")
	fx.write(t, "/d/src", []byte("source"))

	src := fx.open(t, "/d/src")
	dst := fx.open(t, "/d/dst")

	fx.e.Fail("KfsAccessStat", backend.NewAuthError("/d/dst", "denied"))
	err := src.RenameTo(ctx, dst)
	require.Error(t, err)
	assert.True(t, dfserrors.IsAuth(err))
	fx.e.Heal("KfsAccessStat")

	exists, err := src.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestChmodStatusWithoutError(t *testing.T) {
	store := memory.NewMemoryStore()
	e := backend.NewEmulator(store)
	l := loader.New()
	e.Provide(l)
	// A status the client does not turn into an error
	l.Provide("qfs", map[string]any{
		"KfsAccessChmod": func(a any, path string, mode int) int { return 1 },
	})

	fsys, err := dfs.New(dfs.WithLoader(l), dfs.WithLogger(log.NewNop()))
	require.NoError(t, err)
	require.NoError(t, fsys.Register(qfs.NewProvider(fsys, qfs.WithoutProbe())))
	t.Cleanup(func() { fsys.Close() })

	ctx := t.Context()
	f, err := fsys.Open(ctx, "qfs://metaserver/f")
	require.NoError(t, err)
	defer f.Close()
	w, err := f.OpenWriter(ctx)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	before, err := f.Permissions(ctx)
	require.NoError(t, err)
	require.NotEqual(t, data.Permissions(0600), before)

	err = f.ChangePermissions(ctx, 0600)
	require.Error(t, err)
	assert.True(t, dfserrors.IsIO(err))

	perm, err := f.Permissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, perm)
}

func TestAuthenticationFailure(t *testing.T) {
	fx := newFixture(t, memory.NewMemoryStore(), nil)
	ctx := t.Context()
	fx.mkdir(t, "/d")
	f := fx.open(t, "/d")

	fx.e.Fail("KfsAccessStat", backend.NewAuthError("/d", "denied"))
	_, err := fx.fsys.Open(ctx, "qfs://metaserver/d")
	require.Error(t, err)
	assert.True(t, dfserrors.IsAuth(err))

	fx.clock.Advance(time.Minute)
	_, err = f.Exists(ctx)
	assert.True(t, dfserrors.IsAuth(err))

	fx.e.Fail("KfsAccessStat", errors.New("metaserver unavailable"))
	exists, err := f.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestChangeAttributes(t *testing.T) {
	forEachStore(t, func(t *testing.T, store backend.Store) {
		fx := newFixture(t, store, nil)
		ctx := t.Context()
		fx.mkdir(t, "/d")
		fx.write(t, "/d/f", []byte("x"))
		f := fx.open(t, "/d/f")

		require.NoError(t, f.ChangePermission(ctx, data.AccessOther, data.PermissionRead, false))
		perm, err := fx.open(t, "/d/f").Permissions(ctx)
		require.NoError(t, err)
		assert.Equal(t, data.Permissions(0660), perm)

		mtime := time.UnixMilli(1700000000000)
		require.NoError(t, f.ChangeModTime(ctx, mtime))
		got, err := fx.open(t, "/d/f").ModTime(ctx)
		require.NoError(t, err)
		assert.True(t, mtime.Equal(got))

		err = fx.open(t, "/d/missing").ChangeModTime(ctx, mtime)
		require.Error(t, err)
	})
}

func TestRandomAccessReader(t *testing.T) {
	fx := newFixture(t, memory.NewMemoryStore(), nil)
	ctx := t.Context()
	fx.mkdir(t, "/d")
	fx.write(t, "/d/digits", []byte("0123456789"))

	r, err := fx.open(t, "/d/digits").OpenRandomAccessReader(ctx)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, int64(10), r.Length())

	_, err = r.Seek(-3, io.SeekEnd)
	require.NoError(t, err)
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "789", string(rest))

	_, err = r.Seek(2, io.SeekStart)
	require.NoError(t, err)
	_, err = r.Seek(3, io.SeekCurrent)
	require.NoError(t, err)
	offset, err := r.Offset()
	require.NoError(t, err)
	assert.Equal(t, int64(5), offset)
}

func TestUnsupportedOperations(t *testing.T) {
	fx := newFixture(t, memory.NewMemoryStore(), nil)
	ctx := t.Context()
	f := fx.open(t, "/f")

	_, err := f.OpenAppender(ctx)
	assert.True(t, dfserrors.IsUnsupported(err))
	_, err = f.OpenRandomAccessWriter(ctx)
	assert.True(t, dfserrors.IsUnsupported(err))
	_, err = f.FreeSpace(ctx)
	assert.True(t, dfserrors.IsUnsupported(err))
	_, err = f.TotalSpace(ctx)
	assert.True(t, dfserrors.IsUnsupported(err))
	assert.True(t, dfserrors.IsUnsupported(f.CopyRemotelyTo(ctx, f)))
}

func TestConnectionsAreShared(t *testing.T) {
	fx := newFixture(t, memory.NewMemoryStore(), nil)
	fx.open(t, "/a")
	fx.open(t, "/b")
	assert.Equal(t, 1, fx.e.Calls("KfsAccessNew"))

	fx.open(t, "/c")
	_, err := fx.fsys.Open(t.Context(), "qfs://other:20001/c")
	require.NoError(t, err)
	assert.Equal(t, 2, fx.e.Calls("KfsAccessNew"))

	require.NoError(t, fx.fsys.Close())
	assert.Equal(t, 2, fx.e.Calls("KfsAccessClose"))
}
