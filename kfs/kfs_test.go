package kfs_test

import (
	"io"
	"testing"

	"github.com/mwantia/dfs/backend"
	"github.com/mwantia/dfs/backend/memory"
	"github.com/mwantia/dfs/data"
	"github.com/mwantia/dfs/data/errors"
	"github.com/mwantia/dfs/kfs"
	"github.com/mwantia/dfs/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindSymbols(symbols map[string]any) (*kfs.Bindings, error) {
	l := loader.New()
	l.Provide(kfs.Protocol, symbols)
	return kfs.Bind(l.Scope(kfs.Protocol))
}

func connect(t *testing.T, opts ...backend.EmulatorOption) (*backend.Emulator, *kfs.Access) {
	t.Helper()
	e := backend.NewEmulator(memory.NewMemoryStore(), opts...)
	b, err := bindSymbols(e.KfsSymbols())
	require.NoError(t, err)

	access, err := b.NewAccess("metaserver", 20000)
	require.NoError(t, err)
	return e, access
}

func TestBindResolvesEveryTableOnce(t *testing.T) {
	e := backend.NewEmulator(memory.NewMemoryStore())
	b, err := bindSymbols(e.KfsSymbols())
	require.NoError(t, err)
	assert.Equal(t, int64(4), b.Resolutions())
}

func TestBindWithoutOutputChannel(t *testing.T) {
	e := backend.NewEmulator(memory.NewMemoryStore())
	symbols := e.KfsSymbols()
	delete(symbols, "KfsOutputChannel")

	b, err := bindSymbols(symbols)
	require.NoError(t, err)

	access, err := b.NewAccess("metaserver", 20000)
	require.NoError(t, err)
	ch, err := access.Create("/f", 1, true, 0, 0)
	require.NoError(t, err)
	require.NotNil(t, ch)
	require.NoError(t, ch.Close())
}

func TestBindMissingAccess(t *testing.T) {
	e := backend.NewEmulator(memory.NewMemoryStore())
	symbols := e.KfsSymbols()
	delete(symbols, "KfsAccessStat")

	_, err := bindSymbols(symbols)
	require.Error(t, err)
	assert.True(t, errors.IsInit(err))
}

func TestCreateWriteRead(t *testing.T) {
	_, access := connect(t, backend.WithUser("alice", "staff"))

	ret, err := access.Mkdirs("/data")
	require.NoError(t, err)
	require.Zero(t, ret)

	ch, err := access.Create("/data/f.txt", 3, true, 1<<16, 1<<16)
	require.NoError(t, err)
	require.NotNil(t, ch)
	_, err = ch.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, ch.Close())

	// Exclusive create of an existing file is refused with a nil channel
	again, err := access.Create("/data/f.txt", 3, true, 1<<16, 1<<16)
	require.NoError(t, err)
	assert.Nil(t, again)

	in, err := access.Open("/data/f.txt")
	require.NoError(t, err)
	content, err := io.ReadAll(in)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))

	off, err := in.SeekTo(3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), off)
	pos, err := in.Tell()
	require.NoError(t, err)
	assert.Equal(t, int64(3), pos)
	require.NoError(t, in.Close())

	attr, err := access.FileAttributes("/data/f.txt")
	require.NoError(t, err)
	attrs, err := attr.Attributes()
	require.NoError(t, err)
	assert.Equal(t, "f.txt", attrs.Filename)
	assert.Equal(t, int64(7), attrs.Size)
	assert.Equal(t, "alice", attrs.Owner)
	assert.Equal(t, "staff", attrs.Group)
	assert.Equal(t, data.Permissions(0664), attrs.Permissions)
}

func TestStatusCodes(t *testing.T) {
	_, access := connect(t)

	ret, err := access.Remove("/missing")
	require.NoError(t, err)
	require.Negative(t, ret)

	err = access.RetToIOException(ret, "/missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, access.RetToIOException(0, "/"))

	_, err = access.Open("/missing")
	require.Error(t, err)
	assert.True(t, errors.IsIO(err))

	_, err = access.FileAttributes("/missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestReaddirplus(t *testing.T) {
	_, access := connect(t)

	access.Mkdirs("/dir/sub")
	ch, err := access.Create("/dir/file", 1, false, 0, 0)
	require.NoError(t, err)
	require.NoError(t, ch.Close())

	entries, err := access.Readdirplus("/dir")
	require.NoError(t, err)

	var names []string
	for _, entry := range entries {
		attrs, err := entry.Attributes()
		require.NoError(t, err)
		names = append(names, attrs.Filename)
	}
	assert.Equal(t, []string{".", "..", "file", "sub"}, names)

	_, err = access.Readdirplus("/nowhere")
	require.Error(t, err)
	assert.True(t, errors.IsIO(err))
}

func TestAuthenticationFailure(t *testing.T) {
	e, access := connect(t)
	e.Fail("KfsAccessStat", backend.NewAuthError("/secret", "denied"))

	_, err := access.FileAttributes("/secret")
	require.Error(t, err)
	assert.True(t, errors.IsAuth(err))
}

func TestEmptyReadIsEOF(t *testing.T) {
	_, access := connect(t)

	ch, err := access.Create("/empty", 1, false, 0, 0)
	require.NoError(t, err)
	require.NoError(t, ch.Close())

	in, err := access.Open("/empty")
	require.NoError(t, err)
	defer in.Close()

	n, err := in.Read(make([]byte, 8))
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
}
