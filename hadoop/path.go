package hadoop

import "github.com/mwantia/dfs/binding"

type pathOps struct {
	newPath func(path string) any
	getName func(path any) string
}

func resolvePath(r *binding.Resolver) *pathOps {
	return &pathOps{
		newPath: binding.Func[func(string) any](r, "New"),
		getName: binding.Func[func(any) string](r, "GetName"),
	}
}

// Path wraps a backend path.
type Path struct {
	b   *Bindings
	raw any
}

// NewPath creates a backend path from its string form.
func (b *Bindings) NewPath(path string) (*Path, error) {
	o := ops(b.path)
	raw, err := binding.Value(b.invoker, "Path.new", func() any {
		return o.newPath(path)
	})
	if err != nil {
		return nil, err
	}
	return &Path{b: b, raw: raw}, nil
}

// Name returns the final component of the path.
func (p *Path) Name() (string, error) {
	o := ops(p.b.path)
	return binding.Value(p.b.invoker, "Path.getName", func() string {
		return o.getName(p.raw)
	})
}

// Raw returns the backend value.
func (p *Path) Raw() any {
	return p.raw
}
