package backend_test

import (
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/mwantia/dfs/backend"
	"github.com/mwantia/dfs/backend/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHadoopSymbolsIdentityVersions(t *testing.T) {
	tests := []struct {
		version        backend.IdentityVersion
		modern, legacy bool
	}{
		{backend.IdentityModern, true, false},
		{backend.IdentityLegacy, false, true},
		{backend.IdentityBoth, true, true},
		{backend.IdentityNone, false, false},
	}

	for _, tt := range tests {
		e := backend.NewEmulator(memory.NewMemoryStore(), backend.WithIdentity(tt.version))
		symbols := e.HadoopSymbols()

		_, modern := symbols["UserGroupInformation"]
		_, legacy := symbols["UnixUserGroupInformation"]
		assert.Equal(t, tt.modern, modern)
		assert.Equal(t, tt.legacy, legacy)
		assert.Contains(t, symbols, "FileSystemGetFileStatus")
	}
}

func TestHadoopSymbolsRoundTrip(t *testing.T) {
	e := backend.NewEmulator(memory.NewMemoryStore(), backend.WithUser("alice", "staff"))
	symbols := e.HadoopSymbols()

	newConf := symbols["ConfigurationNew"].(func() any)
	get := symbols["FileSystemGet"].(func(string, any) (any, error))
	newPath := symbols["PathNew"].(func(string) any)
	create := symbols["FileSystemCreate"].(func(any, any, bool) (any, error))
	open := symbols["FileSystemOpen"].(func(any, any) (any, error))
	read := symbols["FSDataInputStreamRead"].(func(any, []byte) (int, error))
	status := symbols["FileSystemGetFileStatus"].(func(any, any) (any, error))
	owner := symbols["FileStatusGetOwner"].(func(any) string)

	filesystem, err := get("hdfs://namenode:8020/", newConf())
	require.NoError(t, err)

	out, err := create(filesystem, newPath("/a/b.txt"), false)
	require.NoError(t, err)
	w := out.(io.WriteCloser)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	st, err := status(filesystem, newPath("/a/b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alice", owner(st))

	in, err := open(filesystem, newPath("/a/b.txt"))
	require.NoError(t, err)
	buffer := make([]byte, 16)
	n, err := read(in, buffer)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buffer[:n]))
	_, err = read(in, buffer)
	assert.Equal(t, io.EOF, err)

	_, err = status(filesystem, newPath("/missing"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestEmulatorFaultsAndCalls(t *testing.T) {
	e := backend.NewEmulator(memory.NewMemoryStore())
	symbols := e.KfsSymbols()

	newAccess := symbols["KfsAccessNew"].(func(string, int) (any, error))
	mkdirs := symbols["KfsAccessMkdirs"].(func(any, string) int)
	retToIOException := symbols["KfsAccessRetToIOException"].(func(any, int, string) error)

	access, err := newAccess("metaserver", 20000)
	require.NoError(t, err)

	assert.Zero(t, mkdirs(access, "/data"))
	assert.Equal(t, 1, e.Calls("KfsAccessMkdirs"))

	e.Fail("KfsAccessMkdirs", backend.NewAuthError("/data", "denied"))
	ret := mkdirs(access, "/other")
	assert.Negative(t, ret)

	err = retToIOException(access, ret, "/other")
	var auth *backend.AuthError
	assert.ErrorAs(t, err, &auth)

	e.Heal("KfsAccessMkdirs")
	assert.Zero(t, mkdirs(access, "/other"))
	assert.Equal(t, 3, e.Calls("KfsAccessMkdirs"))

	e.Panic("KfsAccessMkdirs", "boom")
	assert.PanicsWithValue(t, "boom", func() { mkdirs(access, "/x") })
}

func TestKfsReaddirplusIncludesDotEntries(t *testing.T) {
	e := backend.NewEmulator(memory.NewMemoryStore())
	symbols := e.KfsSymbols()

	access, err := symbols["KfsAccessNew"].(func(string, int) (any, error))("metaserver", 20000)
	require.NoError(t, err)
	mkdirs := symbols["KfsAccessMkdirs"].(func(any, string) int)
	readdirplus := symbols["KfsAccessReaddirplus"].(func(any, string) []any)
	filename := symbols["KfsFileAttrFilename"].(func(any) string)

	require.Zero(t, mkdirs(access, "/data/x"))

	var names []string
	for _, attr := range readdirplus(access, "/data") {
		names = append(names, filename(attr))
	}
	assert.Equal(t, []string{".", "..", "x"}, names)
	assert.Nil(t, readdirplus(access, "/missing"))
}
