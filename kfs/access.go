package kfs

import (
	"github.com/mwantia/dfs/binding"
	"github.com/mwantia/dfs/data/errors"
)

type accessOps struct {
	newAccess           func(host string, port int) (any, error)
	create              func(a any, path string, replicas int, exclusive bool, bufferSize, readAheadSize int64) any
	isDirectory         func(a any, path string) bool
	mkdirs              func(a any, path string) int
	rmdirs              func(a any, path string) int
	remove              func(a any, path string) int
	rename              func(a any, oldPath, newPath string) int
	setModificationTime func(a any, path string, msec int64) int
	stat                func(a any, path string, attr any) int
	readdirplus         func(a any, path string) []any
	retToIOException    func(a any, ret int, path string) error
	chmod               func(a any, path string, mode int) int
	open                func(a any, path string) any
	close               func(a any) error
}

func resolveAccess(r *binding.Resolver) *accessOps {
	return &accessOps{
		newAccess:           binding.Func[func(string, int) (any, error)](r, "New"),
		create:              binding.Func[func(any, string, int, bool, int64, int64) any](r, "Create"),
		isDirectory:         binding.Func[func(any, string) bool](r, "IsDirectory"),
		mkdirs:              binding.Func[func(any, string) int](r, "Mkdirs"),
		rmdirs:              binding.Func[func(any, string) int](r, "Rmdirs"),
		remove:              binding.Func[func(any, string) int](r, "Remove"),
		rename:              binding.Func[func(any, string, string) int](r, "Rename"),
		setModificationTime: binding.Func[func(any, string, int64) int](r, "SetModificationTime"),
		stat:                binding.Func[func(any, string, any) int](r, "Stat"),
		readdirplus:         binding.Func[func(any, string) []any](r, "Readdirplus"),
		retToIOException:    binding.Func[func(any, int, string) error](r, "RetToIOException"),
		chmod:               binding.Func[func(any, string, int) int](r, "Chmod"),
		open:                binding.Func[func(any, string) any](r, "Open"),
		close:               binding.OptionalFunc[func(any) error](r, "Close"),
	}
}

// Access wraps a connection to a metaserver.
type Access struct {
	b   *Bindings
	raw any
}

// NewAccess connects to the metaserver at host:port. Callers are expected
// to have probed reachability first.
func (b *Bindings) NewAccess(host string, port int) (*Access, error) {
	o := ops(b.access)
	raw, err := binding.Call1(b.invoker, "KfsAccess.new", func() (any, error) {
		return o.newAccess(host, port)
	}, errors.CodeIO)
	if err != nil {
		return nil, err
	}
	return &Access{b: b, raw: raw}, nil
}

// Create opens path for writing. A nil channel means the backend refused.
func (a *Access) Create(path string, replicas int, exclusive bool, bufferSize, readAheadSize int64) (*OutputChannel, error) {
	o := ops(a.b.access)
	raw, err := binding.Value(a.b.invoker, "KfsAccess.create", func() any {
		return o.create(a.raw, path, replicas, exclusive, bufferSize, readAheadSize)
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return a.b.newOutputChannel(raw)
}

func (a *Access) IsDirectory(path string) (bool, error) {
	o := ops(a.b.access)
	return binding.Value(a.b.invoker, "KfsAccess.isDirectory", func() bool {
		return o.isDirectory(a.raw, path)
	})
}

func (a *Access) Mkdirs(path string) (int, error) {
	return a.status("KfsAccess.mkdirs", func(o *accessOps) int { return o.mkdirs(a.raw, path) })
}

func (a *Access) Rmdirs(path string) (int, error) {
	return a.status("KfsAccess.rmdirs", func(o *accessOps) int { return o.rmdirs(a.raw, path) })
}

func (a *Access) Remove(path string) (int, error) {
	return a.status("KfsAccess.remove", func(o *accessOps) int { return o.remove(a.raw, path) })
}

func (a *Access) Rename(oldPath, newPath string) (int, error) {
	return a.status("KfsAccess.rename", func(o *accessOps) int { return o.rename(a.raw, oldPath, newPath) })
}

// SetModificationTime sets the modification time in epoch milliseconds.
func (a *Access) SetModificationTime(path string, msec int64) (int, error) {
	return a.status("KfsAccess.setModificationTime", func(o *accessOps) int {
		return o.setModificationTime(a.raw, path, msec)
	})
}

// Stat fills attr with the attributes of path.
func (a *Access) Stat(path string, attr *FileAttr) (int, error) {
	return a.status("KfsAccess.stat", func(o *accessOps) int { return o.stat(a.raw, path, attr.raw) })
}

func (a *Access) Chmod(path string, mode int) (int, error) {
	return a.status("KfsAccess.chmod", func(o *accessOps) int { return o.chmod(a.raw, path, mode) })
}

// Readdirplus lists path with attributes. A nil listing is reported as an
// I/O failure.
func (a *Access) Readdirplus(path string) ([]*FileAttr, error) {
	o := ops(a.b.access)
	raws, err := binding.Value(a.b.invoker, "KfsAccess.readdirplus", func() []any {
		return o.readdirplus(a.raw, path)
	})
	if err != nil {
		return nil, err
	}
	if raws == nil {
		return nil, errors.New(errors.CodeIO, "can't read location").WithOperation("KfsAccess.readdirplus").WithPath(path)
	}

	attrs := make([]*FileAttr, 0, len(raws))
	for _, raw := range raws {
		attrs = append(attrs, &FileAttr{b: a.b, raw: raw})
	}
	return attrs, nil
}

// RetToIOException converts a status code into an error; 0 yields nil.
func (a *Access) RetToIOException(ret int, path string) error {
	o := ops(a.b.access)
	return binding.Call(a.b.invoker, "KfsAccess.retToIOException", func() error {
		return o.retToIOException(a.raw, ret, path)
	}, errors.CodeIO)
}

// Open opens path for reading.
func (a *Access) Open(path string) (*InputChannel, error) {
	o := ops(a.b.access)
	raw, err := binding.Value(a.b.invoker, "KfsAccess.open", func() any {
		return o.open(a.raw, path)
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New(errors.CodeIO, "can't open file").WithOperation("KfsAccess.open").WithPath(path)
	}
	return &InputChannel{b: a.b, raw: raw}, nil
}

// FileAttributes stats path and converts a failing status into an error.
func (a *Access) FileAttributes(path string) (*FileAttr, error) {
	attr, err := a.b.NewFileAttr()
	if err != nil {
		return nil, err
	}
	ret, err := a.Stat(path, attr)
	if err != nil {
		return nil, err
	}
	if err := a.RetToIOException(ret, path); err != nil {
		return nil, err
	}
	return attr, nil
}

// Close releases the connection when the backend supports it.
func (a *Access) Close() error {
	o := ops(a.b.access)
	if o.close == nil {
		return nil
	}
	return binding.Call(a.b.invoker, "KfsAccess.close", func() error {
		return o.close(a.raw)
	}, errors.CodeIO)
}

func (a *Access) status(op string, fn func(*accessOps) int) (int, error) {
	o := ops(a.b.access)
	return binding.Value(a.b.invoker, op, func() int {
		return fn(o)
	})
}
