package backend

import (
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mwantia/dfs/data"
)

// Configuration keys understood by the emulated Hadoop client.
const (
	hadoopUGIProperty   = "hadoop.job.ugi"
	hadoopUMaskProperty = "fs.permissions.umask-mode"
)

type hadoopConf struct {
	mu    sync.Mutex
	props map[string]string
}

type hadoopFS struct {
	uri    string
	user   string
	group  string
	closed atomic.Bool
}

type hadoopPath struct {
	key string
}

type hadoopStatus struct {
	meta *data.Metadata
}

type hadoopPerm int16

type hadoopUGI struct {
	name string
}

func typeHandle(name string) func() string {
	return func() string { return name }
}

// HadoopSymbols returns the symbol table of an emulated Hadoop client, for
// use with loader.Provide. Each call returns a fresh map.
func (e *Emulator) HadoopSymbols() map[string]any {
	symbols := map[string]any{
		"Configuration":           typeHandle("org.apache.hadoop.conf.Configuration"),
		"ConfigurationNew":        e.confNew,
		"ConfigurationGet":        e.confGet,
		"ConfigurationSetStrings": e.confSetStrings,

		"FileSystem":              typeHandle("org.apache.hadoop.fs.FileSystem"),
		"FileSystemGet":           e.fsGet,
		"FileSystemAppend":        e.fsAppend,
		"FileSystemCreate":        e.fsCreate,
		"FileSystemMkdirs":        e.fsMkdirs,
		"FileSystemDelete":        e.fsDelete,
		"FileSystemRename":        e.fsRename,
		"FileSystemSetTimes":      e.fsSetTimes,
		"FileSystemOpen":          e.fsOpen,
		"FileSystemListStatus":    e.fsListStatus,
		"FileSystemSetPermission": e.fsSetPermission,
		"FileSystemGetFileStatus": e.fsGetFileStatus,
		"FileSystemClose":         e.fsClose,

		"Path":        typeHandle("org.apache.hadoop.fs.Path"),
		"PathNew":     e.pathNew,
		"PathGetName": e.pathGetName,

		"FileStatus":                    typeHandle("org.apache.hadoop.fs.FileStatus"),
		"FileStatusGetPath":             func(s any) any { return &hadoopPath{key: statusOf(s).Key} },
		"FileStatusIsDir":               func(s any) bool { return statusOf(s).IsDir() },
		"FileStatusGetModificationTime": func(s any) int64 { return statusOf(s).ModifyTime.UnixMilli() },
		"FileStatusGetLen":              func(s any) int64 { return statusOf(s).Size },
		"FileStatusGetPermission":       func(s any) any { return hadoopPerm(statusOf(s).Mode.Perm()) },
		"FileStatusGetOwner":            func(s any) string { return statusOf(s).Owner },
		"FileStatusGetGroup":            func(s any) string { return statusOf(s).Group },

		"FsPermission":           typeHandle("org.apache.hadoop.fs.permission.FsPermission"),
		"FsPermissionNew":        func(mode int16) any { return hadoopPerm(mode & 01777) },
		"FsPermissionGetDefault": func() any { return hadoopPerm(0777) },
		"FsPermissionGetUMask":   e.permGetUMask,
		"FsPermissionApplyUMask": func(perm, umask any) any { return permOf(perm) &^ permOf(umask) },
		"FsPermissionToShort":    func(perm any) int16 { return int16(permOf(perm)) },

		"FSDataInputStream":       typeHandle("org.apache.hadoop.fs.FSDataInputStream"),
		"FSDataInputStreamGetPos": func(in any) (int64, error) { return readerOf(in).position("FSDataInputStreamGetPos") },
		"FSDataInputStreamSeek":   func(in any, pos int64) error { return readerOf(in).seek(pos) },
		"FSDataInputStreamRead":   func(in any, p []byte) (int, error) { return readerOf(in).Read(p) },
		"FSDataInputStreamClose":  func(in any) error { return readerOf(in).Close() },

		"FSDataOutputStream": typeHandle("org.apache.hadoop.fs.FSDataOutputStream"),
	}

	if e.identity == IdentityModern || e.identity == IdentityBoth {
		symbols["UserGroupInformation"] = typeHandle("org.apache.hadoop.security.UserGroupInformation")
		symbols["UserGroupInformationGetCurrentUser"] = e.ugiGetCurrentUser
		symbols["UserGroupInformationGetShortUserName"] = func(ugi any) string { return ugi.(*hadoopUGI).name }
	}
	if e.identity == IdentityLegacy || e.identity == IdentityBoth {
		symbols["UnixUserGroupInformation"] = typeHandle("org.apache.hadoop.security.UnixUserGroupInformation")
		symbols["UnixUserGroupInformationLogin"] = e.unixUGILogin
		symbols["UnixUserGroupInformationGetUserName"] = func(ugi any) string { return ugi.(*hadoopUGI).name }
	}

	return symbols
}

func statusOf(v any) *data.Metadata {
	return v.(*hadoopStatus).meta
}

func permOf(v any) hadoopPerm {
	return v.(hadoopPerm)
}

func readerOf(v any) *streamReader {
	return v.(*streamReader)
}

func (e *Emulator) confNew() any {
	e.enter("ConfigurationNew")
	return &hadoopConf{props: make(map[string]string)}
}

func (e *Emulator) confGet(conf any, name, def string) string {
	c, ok := conf.(*hadoopConf)
	if !ok {
		return def
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if value, ok := c.props[name]; ok {
		return value
	}
	return def
}

func (e *Emulator) confSetStrings(conf any, name string, values ...string) {
	c := conf.(*hadoopConf)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.props[name] = strings.Join(values, ",")
}

func (e *Emulator) fsGet(uri string, conf any) (any, error) {
	if err := e.enter("FileSystemGet"); err != nil {
		return nil, err
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	if u.User != nil {
		return nil, fmt.Errorf("filesystem uri %q must not carry credentials", uri)
	}

	filesystem := &hadoopFS{uri: uri, user: e.user, group: e.group}
	if ugi := e.confGet(conf, hadoopUGIProperty, ""); ugi != "" {
		parts := strings.Split(ugi, ",")
		filesystem.user = parts[0]
		if len(parts) > 1 && parts[1] != "" {
			filesystem.group = parts[1]
		}
	}
	return filesystem, nil
}

// open resolves the filesystem and path arguments of an operation.
func (e *Emulator) open(op string, fsys, path any) (*hadoopFS, string, error) {
	if err := e.enter(op); err != nil {
		return nil, "", err
	}

	filesystem, ok := fsys.(*hadoopFS)
	if !ok {
		return nil, "", fmt.Errorf("%s: unexpected filesystem %T", op, fsys)
	}
	if filesystem.closed.Load() {
		return nil, "", fmt.Errorf("%s: filesystem closed", op)
	}

	p, ok := path.(*hadoopPath)
	if !ok {
		return nil, "", fmt.Errorf("%s: unexpected path %T", op, path)
	}
	return filesystem, p.key, nil
}

func (e *Emulator) fsAppend(fsys, path any) (any, error) {
	_, key, err := e.open("FileSystemAppend", fsys, path)
	if err != nil {
		return nil, err
	}

	meta, err := e.store.Get(e.ctx(), key)
	if err != nil {
		return nil, err
	}
	if meta.IsDir() {
		return nil, &fs.PathError{Op: "append", Path: key, Err: ErrIsDirectory}
	}
	return e.newWriter("FSDataOutputStream", key, meta.Size), nil
}

func (e *Emulator) fsCreate(fsys, path any, overwrite bool) (any, error) {
	filesystem, key, err := e.open("FileSystemCreate", fsys, path)
	if err != nil {
		return nil, err
	}

	e.ns.Lock()
	defer e.ns.Unlock()

	if meta, err := e.store.Get(e.ctx(), key); err == nil {
		if meta.IsDir() {
			return nil, &fs.PathError{Op: "create", Path: key, Err: ErrIsDirectory}
		}
		if !overwrite {
			return nil, Exist("create", key)
		}
	}

	created, err := e.mkdirs(data.ParentPath(key), filesystem.user, filesystem.group, 0777&^e.umask)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, &fs.PathError{Op: "create", Path: data.ParentPath(key), Err: ErrNotDirectory}
	}

	meta := data.NewFileMetadata(key, 0666&^e.umask)
	meta.Owner = filesystem.user
	meta.Group = filesystem.group
	if err := e.store.Put(e.ctx(), meta); err != nil {
		return nil, err
	}
	return e.newWriter("FSDataOutputStream", key, 0), nil
}

func (e *Emulator) fsMkdirs(fsys, path any) (bool, error) {
	filesystem, key, err := e.open("FileSystemMkdirs", fsys, path)
	if err != nil {
		return false, err
	}

	e.ns.Lock()
	defer e.ns.Unlock()

	return e.mkdirs(key, filesystem.user, filesystem.group, 0777&^e.umask)
}

func (e *Emulator) fsDelete(fsys, path any, recursive bool) (bool, error) {
	_, key, err := e.open("FileSystemDelete", fsys, path)
	if err != nil {
		return false, err
	}

	e.ns.Lock()
	defer e.ns.Unlock()

	meta, err := e.store.Get(e.ctx(), key)
	if err != nil {
		return false, nil
	}
	if key == "/" {
		return false, &fs.PathError{Op: "delete", Path: key, Err: ErrRoot}
	}
	if meta.IsDir() && !recursive {
		children, err := e.store.Children(e.ctx(), key)
		if err != nil {
			return false, err
		}
		if len(children) > 0 {
			return false, &fs.PathError{Op: "delete", Path: key, Err: ErrNotEmpty}
		}
	}

	if err := e.store.Delete(e.ctx(), key); err != nil {
		return false, err
	}
	return true, nil
}

// fsRename reports false for every refused rename, as Hadoop does. Moving
// into an existing directory is not emulated.
func (e *Emulator) fsRename(fsys, src, dst any) (bool, error) {
	_, from, err := e.open("FileSystemRename", fsys, src)
	if err != nil {
		return false, err
	}
	to, ok := dst.(*hadoopPath)
	if !ok {
		return false, fmt.Errorf("FileSystemRename: unexpected path %T", dst)
	}

	e.ns.Lock()
	defer e.ns.Unlock()

	ctx := e.ctx()
	if _, err := e.store.Get(ctx, from); err != nil {
		return false, nil
	}
	if _, err := e.store.Get(ctx, to.key); err == nil {
		return false, nil
	}
	parent, err := e.store.Get(ctx, data.ParentPath(to.key))
	if err != nil || !parent.IsDir() {
		return false, nil
	}
	if data.HasPrefix(to.key, from) {
		return false, nil
	}

	if err := e.store.Rename(ctx, from, to.key); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Emulator) fsSetTimes(fsys, path any, mtime, atime int64) error {
	_, key, err := e.open("FileSystemSetTimes", fsys, path)
	if err != nil {
		return err
	}

	update := &data.MetadataUpdate{Metadata: &data.Metadata{}}
	if mtime >= 0 {
		update.Mask |= data.MetadataUpdateModifyTime
		update.Metadata.ModifyTime = time.UnixMilli(mtime)
	}
	if atime >= 0 {
		update.Mask |= data.MetadataUpdateAccessTime
		update.Metadata.AccessTime = time.UnixMilli(atime)
	}
	return e.store.Update(e.ctx(), key, update)
}

func (e *Emulator) fsOpen(fsys, path any) (any, error) {
	_, key, err := e.open("FileSystemOpen", fsys, path)
	if err != nil {
		return nil, err
	}

	meta, err := e.store.Get(e.ctx(), key)
	if err != nil {
		return nil, err
	}
	if meta.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: key, Err: ErrIsDirectory}
	}
	return e.newReader("FSDataInputStream", key), nil
}

// fsListStatus lists a directory, or returns the status of a file.
func (e *Emulator) fsListStatus(fsys, path any) ([]any, error) {
	_, key, err := e.open("FileSystemListStatus", fsys, path)
	if err != nil {
		return nil, err
	}

	meta, err := e.store.Get(e.ctx(), key)
	if err != nil {
		return nil, err
	}
	if !meta.IsDir() {
		return []any{&hadoopStatus{meta: meta}}, nil
	}

	children, err := e.store.Children(e.ctx(), key)
	if err != nil {
		return nil, err
	}
	statuses := make([]any, 0, len(children))
	for _, child := range children {
		statuses = append(statuses, &hadoopStatus{meta: child})
	}
	return statuses, nil
}

func (e *Emulator) fsSetPermission(fsys, path, perm any) error {
	_, key, err := e.open("FileSystemSetPermission", fsys, path)
	if err != nil {
		return err
	}

	p, ok := perm.(hadoopPerm)
	if !ok {
		return fmt.Errorf("FileSystemSetPermission: unexpected permission %T", perm)
	}
	return e.store.Update(e.ctx(), key, &data.MetadataUpdate{
		Mask:     data.MetadataUpdateMode,
		Metadata: &data.Metadata{Mode: data.NewFileMode(false, data.Permissions(p))},
	})
}

func (e *Emulator) fsGetFileStatus(fsys, path any) (any, error) {
	_, key, err := e.open("FileSystemGetFileStatus", fsys, path)
	if err != nil {
		return nil, err
	}

	meta, err := e.store.Get(e.ctx(), key)
	if err != nil {
		return nil, err
	}
	return &hadoopStatus{meta: meta}, nil
}

func (e *Emulator) fsClose(fsys any) error {
	if err := e.enter("FileSystemClose"); err != nil {
		return err
	}
	if filesystem, ok := fsys.(*hadoopFS); ok {
		filesystem.closed.Store(true)
	}
	return nil
}

// pathNew accepts plain paths and full URIs.
func (e *Emulator) pathNew(path string) any {
	if strings.Contains(path, "://") {
		if u, err := url.Parse(path); err == nil {
			path = u.Path
		}
	}
	return &hadoopPath{key: data.CleanPath(path)}
}

func (e *Emulator) pathGetName(path any) string {
	return data.BaseName(path.(*hadoopPath).key)
}

func (e *Emulator) permGetUMask(conf any) any {
	value := e.confGet(conf, hadoopUMaskProperty, "")
	if value == "" {
		return hadoopPerm(e.umask)
	}
	umask, err := strconv.ParseInt(value, 8, 16)
	if err != nil {
		return hadoopPerm(e.umask)
	}
	return hadoopPerm(umask & 0777)
}

func (e *Emulator) ugiGetCurrentUser() (any, error) {
	if err := e.enter("UserGroupInformationGetCurrentUser"); err != nil {
		return nil, err
	}
	return &hadoopUGI{name: e.user}, nil
}

func (e *Emulator) unixUGILogin(conf any) (any, error) {
	if err := e.enter("UnixUserGroupInformationLogin"); err != nil {
		return nil, err
	}
	return &hadoopUGI{name: e.user}, nil
}

var _ io.WriteCloser = (*streamWriter)(nil)
