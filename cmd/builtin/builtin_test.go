package builtin_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mwantia/dfs"
	"github.com/mwantia/dfs/backend"
	"github.com/mwantia/dfs/backend/memory"
	"github.com/mwantia/dfs/cmd"
	"github.com/mwantia/dfs/cmd/builtin"
	"github.com/mwantia/dfs/data"
	dfserrors "github.com/mwantia/dfs/data/errors"
	"github.com/mwantia/dfs/hdfs"
	"github.com/mwantia/dfs/loader"
	"github.com/mwantia/dfs/log"
	"github.com/mwantia/dfs/qfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t *testing.T
	m *cmd.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	e := backend.NewEmulator(memory.NewMemoryStore())
	l := loader.New()
	e.Provide(l)

	fsys, err := dfs.New(dfs.WithLoader(l), dfs.WithLogger(log.NewNop()))
	require.NoError(t, err)
	require.NoError(t, fsys.Register(hdfs.NewProvider(fsys, hdfs.WithoutProbe())))
	require.NoError(t, fsys.Register(qfs.NewProvider(fsys, qfs.WithoutProbe())))
	t.Cleanup(func() { fsys.Close() })

	m := cmd.NewManager(fsys)
	require.NoError(t, builtin.InitBuiltin(m))
	return &fixture{t: t, m: m}
}

// run executes args and returns the output of a successful command.
func (f *fixture) run(args ...string) string {
	f.t.Helper()

	var out bytes.Buffer
	code, err := f.m.Execute(f.t.Context(), &out, args...)
	require.NoError(f.t, err, strings.Join(args, " "))
	require.Equal(f.t, 0, code)
	return out.String()
}

func (f *fixture) fail(args ...string) error {
	f.t.Helper()

	var out bytes.Buffer
	code, err := f.m.Execute(f.t.Context(), &out, args...)
	require.Error(f.t, err, strings.Join(args, " "))
	assert.Equal(f.t, 1, code)
	return err
}

func (f *fixture) stat(raw string) *data.FileInfo {
	f.t.Helper()

	var info data.FileInfo
	require.NoError(f.t, json.Unmarshal([]byte(f.run("stat", "--json", raw)), &info))
	return &info
}

func localFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "local.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegisteredCommands(t *testing.T) {
	f := newFixture(t)

	var names []string
	for _, c := range f.m.List() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"cat", "chmod", "ls", "mkdir", "mv", "put", "rm", "stat", "touch"}, names)

	var help bytes.Buffer
	f.m.Help(&help)
	assert.Contains(t, help.String(), "ls [-l] <url>")

	assert.Error(t, builtin.InitBuiltin(f.m))
	f.fail("format", "hdfs://nn/")
	f.fail("ls")
	f.fail("ls", "--unknown", "hdfs://nn/")
}

func TestPutAndCat(t *testing.T) {
	f := newFixture(t)

	out := f.run("put", localFile(t, "hello world"), "hdfs://nn/dir/a.txt")
	assert.Contains(t, out, "11 bytes written")

	assert.Equal(t, "hello world", f.run("cat", "hdfs://nn/dir/a.txt"))
	assert.Equal(t, "world", f.run("cat", "--offset", "6", "hdfs://nn/dir/a.txt"))

	f.run("put", "-a", localFile(t, "!"), "hdfs://nn/dir/a.txt")
	assert.Equal(t, "hello world!", f.run("cat", "hdfs://nn/dir/a.txt"))

	f.run("put", localFile(t, "replaced"), "hdfs://nn/dir/a.txt")
	assert.Equal(t, "replaced", f.run("cat", "hdfs://nn/dir/a.txt"))
}

func TestAppendUnsupported(t *testing.T) {
	f := newFixture(t)

	f.run("mkdir", "qfs://meta/dir")
	f.run("put", localFile(t, "data"), "qfs://meta/dir/a.txt")
	assert.Equal(t, "data", f.run("cat", "qfs://meta/dir/a.txt"))

	err := f.fail("put", "-a", localFile(t, "more"), "qfs://meta/dir/a.txt")
	assert.True(t, dfserrors.IsUnsupported(err))
}

func TestLs(t *testing.T) {
	f := newFixture(t)

	f.run("mkdir", "hdfs://nn/dir/sub")
	f.run("put", localFile(t, "abc"), "hdfs://nn/dir/b.txt")
	f.run("put", localFile(t, "abcdef"), "hdfs://nn/dir/a.txt")

	assert.Equal(t, "a.txt\nb.txt\nsub\n", f.run("ls", "hdfs://nn/dir"))
	assert.Equal(t, "a.txt\n", f.run("ls", "hdfs://nn/dir/a.txt"))

	lines := strings.Split(strings.TrimSpace(f.run("ls", "-l", "hdfs://nn/dir")), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "-rw-r--r--"), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], " a.txt"), lines[0])
	assert.Contains(t, lines[0], " 6 ")
	assert.True(t, strings.HasPrefix(lines[2], "drwxr-xr-x"), lines[2])

	err := f.fail("ls", "hdfs://nn/missing")
	assert.ErrorContains(t, err, "no such file or directory")
}

func TestStatAndChmod(t *testing.T) {
	f := newFixture(t)

	missing := f.stat("hdfs://nn/missing.txt")
	assert.False(t, missing.Exists)

	f.run("put", localFile(t, "content"), "hdfs://nn/a.txt")
	info := f.stat("hdfs://nn/a.txt")
	assert.True(t, info.Exists)
	assert.False(t, info.IsDir)
	assert.Equal(t, int64(7), info.Size)
	assert.Equal(t, data.Permissions(0o644), info.Permissions)

	f.run("chmod", "600", "hdfs://nn/a.txt")
	assert.Equal(t, data.Permissions(0o600), f.stat("hdfs://nn/a.txt").Permissions)

	out := f.run("stat", "hdfs://nn/a.txt")
	assert.Contains(t, out, "Mode: 0600 (-rw-------)")
	assert.Contains(t, out, "Size: 7")

	f.fail("chmod", "abc", "hdfs://nn/a.txt")
	f.fail("chmod", "1777", "hdfs://nn/a.txt")
}

func TestTouch(t *testing.T) {
	f := newFixture(t)
	date := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	f.run("touch", "--date", date.Format(time.RFC3339), "qfs://meta/new.txt")
	info := f.stat("qfs://meta/new.txt")
	assert.True(t, info.Exists)
	assert.Equal(t, int64(0), info.Size)
	assert.True(t, date.Equal(info.ModTime), info.ModTime)

	later := date.Add(time.Hour)
	f.run("touch", "-d", later.Format(time.RFC3339), "qfs://meta/new.txt")
	assert.True(t, later.Equal(f.stat("qfs://meta/new.txt").ModTime))

	f.fail("touch", "--date", "yesterday", "qfs://meta/new.txt")
}

func TestMvAndRm(t *testing.T) {
	f := newFixture(t)

	f.run("put", localFile(t, "a"), "hdfs://nn/dir/a.txt")
	f.run("put", localFile(t, "b"), "hdfs://nn/dir/b.txt")

	f.run("mv", "hdfs://nn/dir/a.txt", "hdfs://nn/dir/b.txt")
	assert.Equal(t, "b.txt\n", f.run("ls", "hdfs://nn/dir"))
	assert.Equal(t, "a", f.run("cat", "hdfs://nn/dir/b.txt"))

	err := f.fail("mv", "hdfs://nn/dir/b.txt", "qfs://nn/dir/b.txt")
	assert.ErrorIs(t, err, dfs.ErrIncompatible)

	f.run("rm", "hdfs://nn/dir/b.txt")
	assert.Equal(t, "", f.run("ls", "hdfs://nn/dir"))

	err = f.fail("rm", "hdfs://nn/dir/b.txt")
	assert.ErrorContains(t, err, "no such file or directory")
	f.run("rm", "-f", "hdfs://nn/dir/b.txt")

	f.run("rm", "hdfs://nn/dir")
	assert.False(t, f.stat("hdfs://nn/dir").Exists)
}
