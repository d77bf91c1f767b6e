package hadoop

import (
	"github.com/mwantia/dfs/binding"
	"github.com/mwantia/dfs/data/errors"
)

type fileSystemOps struct {
	get           func(uri string, conf any) (any, error)
	append        func(fs, path any) (any, error)
	create        func(fs, path any, overwrite bool) (any, error)
	mkdirs        func(fs, path any) (bool, error)
	delete        func(fs, path any, recursive bool) (bool, error)
	rename        func(fs, src, dst any) (bool, error)
	setTimes      func(fs, path any, mtime, atime int64) error
	open          func(fs, path any) (any, error)
	listStatus    func(fs, path any) ([]any, error)
	setPermission func(fs, path, perm any) error
	getFileStatus func(fs, path any) (any, error)
	close         func(fs any) error
}

func resolveFileSystem(r *binding.Resolver) *fileSystemOps {
	return &fileSystemOps{
		get:           binding.Func[func(string, any) (any, error)](r, "Get"),
		append:        binding.Func[func(any, any) (any, error)](r, "Append"),
		create:        binding.Func[func(any, any, bool) (any, error)](r, "Create"),
		mkdirs:        binding.Func[func(any, any) (bool, error)](r, "Mkdirs"),
		delete:        binding.Func[func(any, any, bool) (bool, error)](r, "Delete"),
		rename:        binding.Func[func(any, any, any) (bool, error)](r, "Rename"),
		setTimes:      binding.Func[func(any, any, int64, int64) error](r, "SetTimes"),
		open:          binding.Func[func(any, any) (any, error)](r, "Open"),
		listStatus:    binding.Func[func(any, any) ([]any, error)](r, "ListStatus"),
		setPermission: binding.Func[func(any, any, any) error](r, "SetPermission"),
		getFileStatus: binding.Func[func(any, any) (any, error)](r, "GetFileStatus"),
		close:         binding.OptionalFunc[func(any) error](r, "Close"),
	}
}

// FileSystem wraps a connected client filesystem.
type FileSystem struct {
	b   *Bindings
	raw any
}

// GetFileSystem connects to the filesystem identified by uri.
func (b *Bindings) GetFileSystem(uri string, conf *Configuration) (*FileSystem, error) {
	o := ops(b.fileSystem)
	raw, err := binding.Call1(b.invoker, "FileSystem.get", func() (any, error) {
		return o.get(uri, conf.raw)
	}, errors.CodeIO)
	if err != nil {
		return nil, err
	}
	return &FileSystem{b: b, raw: raw}, nil
}

// Append opens path for appending.
func (fs *FileSystem) Append(path *Path) (*FSDataOutputStream, error) {
	o := ops(fs.b.fileSystem)
	raw, err := binding.Call1(fs.b.invoker, "FileSystem.append", func() (any, error) {
		return o.append(fs.raw, path.raw)
	}, errors.CodeIO)
	if err != nil {
		return nil, err
	}
	return fs.b.newOutputStream(raw)
}

// Create opens path for writing, replacing an existing file when overwrite
// is set.
func (fs *FileSystem) Create(path *Path, overwrite bool) (*FSDataOutputStream, error) {
	o := ops(fs.b.fileSystem)
	raw, err := binding.Call1(fs.b.invoker, "FileSystem.create", func() (any, error) {
		return o.create(fs.raw, path.raw, overwrite)
	}, errors.CodeIO)
	if err != nil {
		return nil, err
	}
	return fs.b.newOutputStream(raw)
}

func (fs *FileSystem) Mkdirs(path *Path) (bool, error) {
	o := ops(fs.b.fileSystem)
	return binding.Call1(fs.b.invoker, "FileSystem.mkdirs", func() (bool, error) {
		return o.mkdirs(fs.raw, path.raw)
	}, errors.CodeIO)
}

func (fs *FileSystem) Delete(path *Path, recursive bool) (bool, error) {
	o := ops(fs.b.fileSystem)
	return binding.Call1(fs.b.invoker, "FileSystem.delete", func() (bool, error) {
		return o.delete(fs.raw, path.raw, recursive)
	}, errors.CodeIO)
}

func (fs *FileSystem) Rename(src, dst *Path) (bool, error) {
	o := ops(fs.b.fileSystem)
	return binding.Call1(fs.b.invoker, "FileSystem.rename", func() (bool, error) {
		return o.rename(fs.raw, src.raw, dst.raw)
	}, errors.CodeIO)
}

// SetTimes sets modification and access time in epoch milliseconds; -1
// leaves a value unchanged.
func (fs *FileSystem) SetTimes(path *Path, mtime, atime int64) error {
	o := ops(fs.b.fileSystem)
	return binding.Call(fs.b.invoker, "FileSystem.setTimes", func() error {
		return o.setTimes(fs.raw, path.raw, mtime, atime)
	}, errors.CodeIO)
}

func (fs *FileSystem) Open(path *Path) (*FSDataInputStream, error) {
	o := ops(fs.b.fileSystem)
	raw, err := binding.Call1(fs.b.invoker, "FileSystem.open", func() (any, error) {
		return o.open(fs.raw, path.raw)
	}, errors.CodeIO)
	if err != nil {
		return nil, err
	}
	return &FSDataInputStream{b: fs.b, raw: raw}, nil
}

func (fs *FileSystem) ListStatus(path *Path) ([]*FileStatus, error) {
	o := ops(fs.b.fileSystem)
	raws, err := binding.Call1(fs.b.invoker, "FileSystem.listStatus", func() ([]any, error) {
		return o.listStatus(fs.raw, path.raw)
	}, errors.CodeIO)
	if err != nil {
		return nil, err
	}

	statuses := make([]*FileStatus, 0, len(raws))
	for _, raw := range raws {
		statuses = append(statuses, &FileStatus{b: fs.b, raw: raw})
	}
	return statuses, nil
}

func (fs *FileSystem) SetPermission(path *Path, perm *FsPermission) error {
	o := ops(fs.b.fileSystem)
	return binding.Call(fs.b.invoker, "FileSystem.setPermission", func() error {
		return o.setPermission(fs.raw, path.raw, perm.raw)
	}, errors.CodeIO)
}

func (fs *FileSystem) GetFileStatus(path *Path) (*FileStatus, error) {
	o := ops(fs.b.fileSystem)
	raw, err := binding.Call1(fs.b.invoker, "FileSystem.getFileStatus", func() (any, error) {
		return o.getFileStatus(fs.raw, path.raw)
	}, errors.CodeIO)
	if err != nil {
		return nil, err
	}
	return &FileStatus{b: fs.b, raw: raw}, nil
}

// Close releases the client. Backends without a close operation keep
// their clients cached and nothing happens.
func (fs *FileSystem) Close() error {
	o := ops(fs.b.fileSystem)
	if o.close == nil {
		return nil
	}
	return binding.Call(fs.b.invoker, "FileSystem.close", func() error {
		return o.close(fs.raw)
	}, errors.CodeIO)
}

// Raw returns the backend value.
func (fs *FileSystem) Raw() any {
	return fs.raw
}
