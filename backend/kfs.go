package backend

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync/atomic"
	"time"

	"github.com/mwantia/dfs/data"
)

// Errno values reported by the emulated KFS client, negated.
const (
	errnoPERM     = 1
	errnoNOENT    = 2
	errnoIO       = 5
	errnoACCES    = 13
	errnoEXIST    = 17
	errnoNOTDIR   = 20
	errnoISDIR    = 21
	errnoINVAL    = 22
	errnoNOTEMPTY = 39
)

var errnoText = map[int]string{
	errnoPERM:     "operation not permitted",
	errnoNOENT:    "no such file or directory",
	errnoIO:       "input/output error",
	errnoACCES:    "permission denied",
	errnoEXIST:    "file exists",
	errnoNOTDIR:   "not a directory",
	errnoISDIR:    "is a directory",
	errnoINVAL:    "invalid argument",
	errnoNOTEMPTY: "directory not empty",
}

// KfsError is a failing status code turned into an error.
type KfsError struct {
	Errno int
	Path  string
}

func (e *KfsError) Error() string {
	text, ok := errnoText[e.Errno]
	if !ok {
		text = "unknown error"
	}
	return fmt.Sprintf("%s: %s (errno %d)", e.Path, text, e.Errno)
}

type kfsAccess struct {
	host   string
	port   int
	closed atomic.Bool
}

type kfsAttr struct {
	filename string
	isDir    bool
	mtime    int64
	size     int64
	mode     int
	owner    string
	group    string
}

func (a *kfsAttr) fill(name string, meta *data.Metadata) {
	a.filename = name
	a.isDir = meta.IsDir()
	a.mtime = meta.ModifyTime.UnixMilli()
	a.size = meta.Size
	a.mode = int(meta.Mode.Perm())
	a.owner = meta.Owner
	a.group = meta.Group
}

func attrOf(v any) *kfsAttr {
	return v.(*kfsAttr)
}

// KfsSymbols returns the symbol table of an emulated KFS client, for use
// with loader.Provide. Each call returns a fresh map.
func (e *Emulator) KfsSymbols() map[string]any {
	return map[string]any{
		"KfsAccess":                    typeHandle("com.quantcast.qfs.access.KfsAccess"),
		"KfsAccessNew":                 e.kfsNew,
		"KfsAccessCreate":              e.kfsCreate,
		"KfsAccessIsDirectory":         e.kfsIsDirectory,
		"KfsAccessMkdirs":              e.kfsMkdirs,
		"KfsAccessRmdirs":              e.kfsRmdirs,
		"KfsAccessRemove":              e.kfsRemove,
		"KfsAccessRename":              e.kfsRename,
		"KfsAccessSetModificationTime": e.kfsSetModificationTime,
		"KfsAccessStat":                e.kfsStat,
		"KfsAccessReaddirplus":         e.kfsReaddirplus,
		"KfsAccessRetToIOException":    e.kfsRetToIOException,
		"KfsAccessChmod":               e.kfsChmod,
		"KfsAccessOpen":                e.kfsOpen,
		"KfsAccessClose":               e.kfsClose,

		"KfsFileAttr":                 typeHandle("com.quantcast.qfs.access.KfsFileAttr"),
		"KfsFileAttrNew":              func() any { return &kfsAttr{} },
		"KfsFileAttrFilename":         func(a any) string { return attrOf(a).filename },
		"KfsFileAttrIsDirectory":      func(a any) bool { return attrOf(a).isDir },
		"KfsFileAttrModificationTime": func(a any) int64 { return attrOf(a).mtime },
		"KfsFileAttrFilesize":         func(a any) int64 { return attrOf(a).size },
		"KfsFileAttrMode":             func(a any) int { return attrOf(a).mode },
		"KfsFileAttrOwnerName":        func(a any) string { return attrOf(a).owner },
		"KfsFileAttrGroupName":        func(a any) string { return attrOf(a).group },

		"KfsInputChannel":      typeHandle("com.quantcast.qfs.access.KfsInputChannel"),
		"KfsInputChannelTell":  func(ch any) (int64, error) { return readerOf(ch).position("KfsInputChannelTell") },
		"KfsInputChannelSeek":  e.kfsSeek,
		"KfsInputChannelRead":  e.kfsRead,
		"KfsInputChannelClose": func(ch any) error { return readerOf(ch).Close() },

		"KfsOutputChannel": typeHandle("com.quantcast.qfs.access.KfsOutputChannel"),
	}
}

// errno maps an injected fault onto a negative status code.
func errno(err error) int {
	var auth *AuthError
	switch {
	case errors.As(err, &auth):
		return -errnoACCES
	case errors.Is(err, fs.ErrNotExist):
		return -errnoNOENT
	default:
		return -errnoIO
	}
}

// status records a call of op and returns a non-zero code for an injected
// fault or a closed connection.
func (e *Emulator) status(op string, access any) int {
	if err := e.enter(op); err != nil {
		return errno(err)
	}
	if a, ok := access.(*kfsAccess); !ok || a.closed.Load() {
		return -errnoIO
	}
	return 0
}

func (e *Emulator) kfsNew(host string, port int) (any, error) {
	if err := e.enter("KfsAccessNew"); err != nil {
		return nil, err
	}
	return &kfsAccess{host: host, port: port}, nil
}

// kfsCreate requires an existing parent directory. It returns nil on any
// refusal.
func (e *Emulator) kfsCreate(access any, path string, replicas int, exclusive bool, bufferSize, readAheadSize int64) any {
	if e.status("KfsAccessCreate", access) != 0 {
		return nil
	}

	e.ns.Lock()
	defer e.ns.Unlock()

	ctx := e.ctx()
	key := data.CleanPath(path)

	parent, err := e.store.Get(ctx, data.ParentPath(key))
	if err != nil || !parent.IsDir() {
		return nil
	}
	if meta, err := e.store.Get(ctx, key); err == nil && (meta.IsDir() || exclusive) {
		return nil
	}

	meta := data.NewFileMetadata(key, e.filePerm)
	meta.Owner = e.user
	meta.Group = e.group
	if err := e.store.Put(ctx, meta); err != nil {
		return nil
	}
	return e.newWriter("KfsOutputChannel", key, 0)
}

func (e *Emulator) kfsIsDirectory(access any, path string) bool {
	if e.status("KfsAccessIsDirectory", access) != 0 {
		return false
	}

	meta, err := e.store.Get(e.ctx(), data.CleanPath(path))
	return err == nil && meta.IsDir()
}

func (e *Emulator) kfsMkdirs(access any, path string) int {
	if ret := e.status("KfsAccessMkdirs", access); ret != 0 {
		return ret
	}

	e.ns.Lock()
	defer e.ns.Unlock()

	key := data.CleanPath(path)
	if meta, err := e.store.Get(e.ctx(), key); err == nil && !meta.IsDir() {
		return -errnoEXIST
	}

	created, err := e.mkdirs(key, e.user, e.group, data.DefaultDirectoryPermissions)
	switch {
	case err != nil:
		return -errnoIO
	case !created:
		return -errnoNOTDIR
	}
	return 0
}

func (e *Emulator) kfsRmdirs(access any, path string) int {
	if ret := e.status("KfsAccessRmdirs", access); ret != 0 {
		return ret
	}

	e.ns.Lock()
	defer e.ns.Unlock()

	key := data.CleanPath(path)
	meta, err := e.store.Get(e.ctx(), key)
	switch {
	case err != nil:
		return -errnoNOENT
	case !meta.IsDir():
		return -errnoNOTDIR
	case key == "/":
		return -errnoPERM
	}

	if err := e.store.Delete(e.ctx(), key); err != nil {
		return -errnoIO
	}
	return 0
}

func (e *Emulator) kfsRemove(access any, path string) int {
	if ret := e.status("KfsAccessRemove", access); ret != 0 {
		return ret
	}

	e.ns.Lock()
	defer e.ns.Unlock()

	key := data.CleanPath(path)
	meta, err := e.store.Get(e.ctx(), key)
	switch {
	case err != nil:
		return -errnoNOENT
	case meta.IsDir():
		return -errnoISDIR
	}

	if err := e.store.Delete(e.ctx(), key); err != nil {
		return -errnoIO
	}
	return 0
}

func (e *Emulator) kfsRename(access any, oldPath, newPath string) int {
	if ret := e.status("KfsAccessRename", access); ret != 0 {
		return ret
	}

	e.ns.Lock()
	defer e.ns.Unlock()

	ctx := e.ctx()
	from, to := data.CleanPath(oldPath), data.CleanPath(newPath)

	if _, err := e.store.Get(ctx, from); err != nil {
		return -errnoNOENT
	}
	if _, err := e.store.Get(ctx, to); err == nil {
		return -errnoEXIST
	}
	parent, err := e.store.Get(ctx, data.ParentPath(to))
	switch {
	case err != nil:
		return -errnoNOENT
	case !parent.IsDir():
		return -errnoNOTDIR
	case data.HasPrefix(to, from):
		return -errnoINVAL
	}

	if err := e.store.Rename(ctx, from, to); err != nil {
		return -errnoIO
	}
	return 0
}

func (e *Emulator) kfsSetModificationTime(access any, path string, msec int64) int {
	if ret := e.status("KfsAccessSetModificationTime", access); ret != 0 {
		return ret
	}

	err := e.store.Update(e.ctx(), data.CleanPath(path), &data.MetadataUpdate{
		Mask:     data.MetadataUpdateModifyTime,
		Metadata: &data.Metadata{ModifyTime: time.UnixMilli(msec)},
	})
	if err != nil {
		return errno(err)
	}
	return 0
}

func (e *Emulator) kfsStat(access any, path string, attr any) int {
	if ret := e.status("KfsAccessStat", access); ret != 0 {
		return ret
	}

	a, ok := attr.(*kfsAttr)
	if !ok {
		return -errnoINVAL
	}
	key := data.CleanPath(path)
	meta, err := e.store.Get(e.ctx(), key)
	if err != nil {
		return errno(err)
	}

	a.fill(data.BaseName(key), meta)
	return 0
}

// kfsReaddirplus lists a directory including its "." and ".." entries.
// Anything else yields nil.
func (e *Emulator) kfsReaddirplus(access any, path string) []any {
	if e.status("KfsAccessReaddirplus", access) != 0 {
		return nil
	}

	ctx := e.ctx()
	key := data.CleanPath(path)
	meta, err := e.store.Get(ctx, key)
	if err != nil || !meta.IsDir() {
		return nil
	}
	parent := meta
	if key != "/" {
		if parent, err = e.store.Get(ctx, data.ParentPath(key)); err != nil {
			return nil
		}
	}

	children, err := e.store.Children(ctx, key)
	if err != nil {
		return nil
	}

	self, up := &kfsAttr{}, &kfsAttr{}
	self.fill(".", meta)
	up.fill("..", parent)

	entries := []any{self, up}
	for _, child := range children {
		attr := &kfsAttr{}
		attr.fill(data.BaseName(child.Key), child)
		entries = append(entries, attr)
	}
	return entries
}

func (e *Emulator) kfsRetToIOException(access any, ret int, path string) error {
	switch {
	case ret >= 0:
		return nil
	case ret == -errnoNOENT:
		return &fs.PathError{Op: "kfs", Path: path, Err: fs.ErrNotExist}
	case ret == -errnoACCES || ret == -errnoPERM:
		return NewAuthError(path, "%s", errnoText[-ret])
	default:
		return &KfsError{Errno: -ret, Path: path}
	}
}

func (e *Emulator) kfsChmod(access any, path string, mode int) int {
	if ret := e.status("KfsAccessChmod", access); ret != 0 {
		return ret
	}

	err := e.store.Update(e.ctx(), data.CleanPath(path), &data.MetadataUpdate{
		Mask:     data.MetadataUpdateMode,
		Metadata: &data.Metadata{Mode: data.NewFileMode(false, data.Permissions(mode))},
	})
	if err != nil {
		return errno(err)
	}
	return 0
}

func (e *Emulator) kfsOpen(access any, path string) any {
	if e.status("KfsAccessOpen", access) != 0 {
		return nil
	}

	key := data.CleanPath(path)
	meta, err := e.store.Get(e.ctx(), key)
	if err != nil || meta.IsDir() {
		return nil
	}
	return e.newReader("KfsInputChannel", key)
}

func (e *Emulator) kfsClose(access any) error {
	if err := e.enter("KfsAccessClose"); err != nil {
		return err
	}
	if a, ok := access.(*kfsAccess); ok {
		a.closed.Store(true)
	}
	return nil
}

func (e *Emulator) kfsSeek(ch any, offset int64) (int64, error) {
	r := readerOf(ch)
	if err := r.seek(offset); err != nil {
		return 0, err
	}
	return offset, nil
}

// kfsRead follows the channel convention: end of file is a read of zero
// bytes without error.
func (e *Emulator) kfsRead(ch any, p []byte) (int, error) {
	n, err := readerOf(ch).Read(p)
	if err == io.EOF {
		return n, nil
	}
	return n, err
}
