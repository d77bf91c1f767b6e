// Package kfs binds a KFS/QFS client found in the "qfs" loader scope.
//
// Operations report failures through integer status codes (0 on success,
// a negative errno otherwise) which RetToIOException turns into errors.
// Symbols:
//
//	KfsAccess                      func() string
//	KfsAccessNew                   func(host string, port int) (any, error)
//	KfsAccessCreate                func(a any, path string, replicas int, exclusive bool, bufferSize, readAheadSize int64) any
//	KfsAccessIsDirectory           func(a any, path string) bool
//	KfsAccessMkdirs                func(a any, path string) int
//	KfsAccessRmdirs                func(a any, path string) int
//	KfsAccessRemove                func(a any, path string) int
//	KfsAccessRename                func(a any, oldPath, newPath string) int
//	KfsAccessSetModificationTime   func(a any, path string, msec int64) int
//	KfsAccessStat                  func(a any, path string, attr any) int
//	KfsAccessReaddirplus           func(a any, path string) []any
//	KfsAccessRetToIOException      func(a any, ret int, path string) error
//	KfsAccessChmod                 func(a any, path string, mode int) int
//	KfsAccessOpen                  func(a any, path string) any
//	KfsAccessClose                 func(a any) error                    (optional)
//
//	KfsFileAttr                    func() string
//	KfsFileAttrNew                 func() any
//	KfsFileAttrFilename            func(attr any) string
//	KfsFileAttrIsDirectory         func(attr any) bool
//	KfsFileAttrModificationTime    func(attr any) int64
//	KfsFileAttrFilesize            func(attr any) int64
//	KfsFileAttrMode                func(attr any) int
//	KfsFileAttrOwnerName           func(attr any) string
//	KfsFileAttrGroupName           func(attr any) string
//
//	KfsInputChannel                func() string
//	KfsInputChannelTell            func(ch any) (int64, error)
//	KfsInputChannelSeek            func(ch any, offset int64) (int64, error)
//	KfsInputChannelRead            func(ch any, p []byte) (int, error)   (0 bytes read means end of file)
//	KfsInputChannelClose           func(ch any) error
//
//	KfsOutputChannel               func() string                         (optional)
//	(values returned by create must implement io.WriteCloser)
package kfs

// Protocol is the loader scope searched for the KFS client.
const Protocol = "qfs"
