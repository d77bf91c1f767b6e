package hadoop

import (
	"time"

	"github.com/mwantia/dfs/binding"
	"github.com/mwantia/dfs/data"
)

type fileStatusOps struct {
	getPath             func(status any) any
	isDir               func(status any) bool
	getModificationTime func(status any) int64
	getLen              func(status any) int64
	getPermission       func(status any) any
	getOwner            func(status any) string
	getGroup            func(status any) string
}

func resolveFileStatus(r *binding.Resolver) *fileStatusOps {
	return &fileStatusOps{
		getPath:             binding.Func[func(any) any](r, "GetPath"),
		isDir:               binding.Func[func(any) bool](r, "IsDir"),
		getModificationTime: binding.Func[func(any) int64](r, "GetModificationTime"),
		getLen:              binding.Func[func(any) int64](r, "GetLen"),
		getPermission:       binding.Func[func(any) any](r, "GetPermission"),
		getOwner:            binding.Func[func(any) string](r, "GetOwner"),
		getGroup:            binding.Func[func(any) string](r, "GetGroup"),
	}
}

// FileStatus wraps the status record of a remote path.
type FileStatus struct {
	b   *Bindings
	raw any
}

// Status is the flattened content of a FileStatus.
type Status struct {
	Name        string
	IsDir       bool
	ModTime     time.Time
	Len         int64
	Permissions data.Permissions
	Owner       string
	Group       string
}

func (s *FileStatus) Path() (*Path, error) {
	o := ops(s.b.fileStatus)
	raw, err := binding.Value(s.b.invoker, "FileStatus.getPath", func() any {
		return o.getPath(s.raw)
	})
	if err != nil {
		return nil, err
	}
	return &Path{b: s.b, raw: raw}, nil
}

func (s *FileStatus) IsDir() (bool, error) {
	o := ops(s.b.fileStatus)
	return binding.Value(s.b.invoker, "FileStatus.isDir", func() bool {
		return o.isDir(s.raw)
	})
}

// ModificationTime returns the modification time in epoch milliseconds.
func (s *FileStatus) ModificationTime() (int64, error) {
	o := ops(s.b.fileStatus)
	return binding.Value(s.b.invoker, "FileStatus.getModificationTime", func() int64 {
		return o.getModificationTime(s.raw)
	})
}

func (s *FileStatus) Len() (int64, error) {
	o := ops(s.b.fileStatus)
	return binding.Value(s.b.invoker, "FileStatus.getLen", func() int64 {
		return o.getLen(s.raw)
	})
}

func (s *FileStatus) Permission() (*FsPermission, error) {
	o := ops(s.b.fileStatus)
	raw, err := binding.Value(s.b.invoker, "FileStatus.getPermission", func() any {
		return o.getPermission(s.raw)
	})
	if err != nil {
		return nil, err
	}
	return &FsPermission{b: s.b, raw: raw}, nil
}

func (s *FileStatus) Owner() (string, error) {
	o := ops(s.b.fileStatus)
	return binding.Value(s.b.invoker, "FileStatus.getOwner", func() string {
		return o.getOwner(s.raw)
	})
}

func (s *FileStatus) Group() (string, error) {
	o := ops(s.b.fileStatus)
	return binding.Value(s.b.invoker, "FileStatus.getGroup", func() string {
		return o.getGroup(s.raw)
	})
}

// Status reads every field of the record.
func (s *FileStatus) Status() (*Status, error) {
	var (
		st  Status
		err error
	)

	path, err := s.Path()
	if err != nil {
		return nil, err
	}
	if st.Name, err = path.Name(); err != nil {
		return nil, err
	}
	if st.IsDir, err = s.IsDir(); err != nil {
		return nil, err
	}
	mtime, err := s.ModificationTime()
	if err != nil {
		return nil, err
	}
	st.ModTime = time.UnixMilli(mtime)
	if st.Len, err = s.Len(); err != nil {
		return nil, err
	}
	perm, err := s.Permission()
	if err != nil {
		return nil, err
	}
	if st.Permissions, err = perm.Permissions(); err != nil {
		return nil, err
	}
	if st.Owner, err = s.Owner(); err != nil {
		return nil, err
	}
	if st.Group, err = s.Group(); err != nil {
		return nil, err
	}

	return &st, nil
}

// Raw returns the backend value.
func (s *FileStatus) Raw() any {
	return s.raw
}
