// Package hadoop binds a Hadoop-compatible client found in the "hdfs"
// loader scope and wraps its values behind stable types.
//
// A backend module exports, for every entity, a type handle named after the
// entity (func() string, returning the qualified type name) and one symbol
// per operation named <Entity><Operation>. Raw backend values travel as
// any. Operation signatures:
//
//	Configuration                  func() string
//	ConfigurationNew               func() any
//	ConfigurationGet               func(conf any, name, def string) string
//	ConfigurationSetStrings        func(conf any, name string, values ...string)
//
//	FileSystem                     func() string
//	FileSystemGet                  func(uri string, conf any) (any, error)
//	FileSystemAppend               func(fs, path any) (any, error)
//	FileSystemCreate               func(fs, path any, overwrite bool) (any, error)
//	FileSystemMkdirs               func(fs, path any) (bool, error)
//	FileSystemDelete               func(fs, path any, recursive bool) (bool, error)
//	FileSystemRename               func(fs, src, dst any) (bool, error)
//	FileSystemSetTimes             func(fs, path any, mtime, atime int64) error
//	FileSystemOpen                 func(fs, path any) (any, error)
//	FileSystemListStatus           func(fs, path any) ([]any, error)
//	FileSystemSetPermission        func(fs, path, perm any) error
//	FileSystemGetFileStatus        func(fs, path any) (any, error)
//	FileSystemClose                func(fs any) error                 (optional)
//
//	Path                           func() string
//	PathNew                        func(path string) any
//	PathGetName                    func(path any) string
//
//	FileStatus                     func() string
//	FileStatusGetPath              func(status any) any
//	FileStatusIsDir                func(status any) bool
//	FileStatusGetModificationTime  func(status any) int64
//	FileStatusGetLen               func(status any) int64
//	FileStatusGetPermission        func(status any) any
//	FileStatusGetOwner             func(status any) string
//	FileStatusGetGroup             func(status any) string
//
//	FsPermission                   func() string
//	FsPermissionNew                func(mode int16) any
//	FsPermissionGetDefault         func() any
//	FsPermissionGetUMask           func(conf any) any
//	FsPermissionApplyUMask         func(perm, umask any) any
//	FsPermissionToShort            func(perm any) int16
//
//	FSDataInputStream              func() string
//	FSDataInputStreamGetPos        func(in any) (int64, error)
//	FSDataInputStreamSeek          func(in any, pos int64) error
//	FSDataInputStreamRead          func(in any, p []byte) (int, error)
//	FSDataInputStreamClose         func(in any) error
//
//	FSDataOutputStream             func() string
//	(values returned by create and append must implement io.WriteCloser)
//
//	UserGroupInformation                 func() string    (optional entity)
//	UserGroupInformationGetCurrentUser   func() (any, error)
//	UserGroupInformationGetShortUserName func(ugi any) string
//
//	UnixUserGroupInformation             func() string    (optional entity)
//	UnixUserGroupInformationLogin        func(conf any) (any, error)
//	UnixUserGroupInformationGetUserName  func(ugi any) string
//
// Errors returned by the backend may implement AuthFailure() bool or
// LoginFailure() bool, and should wrap fs.ErrNotExist for missing paths.
package hadoop

const (
	// UGIProperty carries "user,group" to older clients.
	UGIProperty = "hadoop.job.ugi"
	// SupergroupProperty names the default group.
	SupergroupProperty = "dfs.permissions.supergroup"
	// DefaultSupergroup is used when the property is unset.
	DefaultSupergroup = "supergroup"
)
