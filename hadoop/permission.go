package hadoop

import (
	"github.com/mwantia/dfs/binding"
	"github.com/mwantia/dfs/data"
)

type fsPermissionOps struct {
	newPerm    func(mode int16) any
	getDefault func() any
	getUMask   func(conf any) any
	applyUMask func(perm, umask any) any
	toShort    func(perm any) int16
}

func resolveFsPermission(r *binding.Resolver) *fsPermissionOps {
	return &fsPermissionOps{
		newPerm:    binding.Func[func(int16) any](r, "New"),
		getDefault: binding.Func[func() any](r, "GetDefault"),
		getUMask:   binding.Func[func(any) any](r, "GetUMask"),
		applyUMask: binding.Func[func(any, any) any](r, "ApplyUMask"),
		toShort:    binding.Func[func(any) int16](r, "ToShort"),
	}
}

// FsPermission wraps a backend permission value.
type FsPermission struct {
	b   *Bindings
	raw any
}

// NewFsPermission creates a permission from rwx bits.
func (b *Bindings) NewFsPermission(perm data.Permissions) (*FsPermission, error) {
	o := ops(b.fsPermission)
	raw, err := binding.Value(b.invoker, "FsPermission.new", func() any {
		return o.newPerm(int16(perm.Mask()))
	})
	if err != nil {
		return nil, err
	}
	return &FsPermission{b: b, raw: raw}, nil
}

// DefaultFsPermission returns the backend's default permission.
func (b *Bindings) DefaultFsPermission() (*FsPermission, error) {
	o := ops(b.fsPermission)
	raw, err := binding.Value(b.invoker, "FsPermission.getDefault", o.getDefault)
	if err != nil {
		return nil, err
	}
	return &FsPermission{b: b, raw: raw}, nil
}

// UMask returns the umask configured in conf.
func (b *Bindings) UMask(conf *Configuration) (*FsPermission, error) {
	o := ops(b.fsPermission)
	raw, err := binding.Value(b.invoker, "FsPermission.getUMask", func() any {
		return o.getUMask(conf.raw)
	})
	if err != nil {
		return nil, err
	}
	return &FsPermission{b: b, raw: raw}, nil
}

// ApplyUMask returns p with umask cleared.
func (p *FsPermission) ApplyUMask(umask *FsPermission) (*FsPermission, error) {
	o := ops(p.b.fsPermission)
	raw, err := binding.Value(p.b.invoker, "FsPermission.applyUMask", func() any {
		return o.applyUMask(p.raw, umask.raw)
	})
	if err != nil {
		return nil, err
	}
	return &FsPermission{b: p.b, raw: raw}, nil
}

// Permissions returns the rwx bits.
func (p *FsPermission) Permissions() (data.Permissions, error) {
	o := ops(p.b.fsPermission)
	short, err := binding.Value(p.b.invoker, "FsPermission.toShort", func() int16 {
		return o.toShort(p.raw)
	})
	if err != nil {
		return 0, err
	}
	return data.Permissions(short).Mask(), nil
}

// Raw returns the backend value.
func (p *FsPermission) Raw() any {
	return p.raw
}
