package binding

import (
	stderrors "errors"
	"fmt"

	"github.com/mwantia/dfs/data/errors"
	"github.com/mwantia/dfs/loader"
)

// Resolver looks up the operations of one entity. Symbols are named
// <Entity><Operation>, e.g. "FileSystemCreate".
type Resolver struct {
	scope  loader.Scope
	entity string
	errs   []error
}

// Func resolves a required operation. A missing or mistyped symbol is
// recorded and reported by Err; the zero F is returned.
func Func[F any](r *Resolver, op string) F {
	f, err := lookup[F](r, op)
	if err != nil {
		r.errs = append(r.errs, err)
	}
	return f
}

// OptionalFunc resolves an operation that older backends may lack. Absence
// yields a nil F; a symbol with the wrong signature is still an error.
func OptionalFunc[F any](r *Resolver, op string) F {
	f, err := lookup[F](r, op)
	if err != nil && !errors.HasCode(err, errors.CodeTypeNotFound) {
		r.errs = append(r.errs, err)
	}
	return f
}

// Err returns every resolution problem seen so far.
func (r *Resolver) Err() error {
	return stderrors.Join(r.errs...)
}

func lookup[F any](r *Resolver, op string) (F, error) {
	var zero F

	name := r.entity + op
	sym, err := r.scope.Lookup(name)
	if err != nil {
		return zero, err
	}

	f, ok := asFunc[F](sym)
	if !ok {
		return zero, errors.Newf(errors.CodeInitialization, "symbol '%s' has type %T, expected %s", name, sym, typeName[F]()).
			WithComponent("binding")
	}
	return f, nil
}

// asFunc accepts both an exported function and an exported variable
// holding one; plugins hand out the latter as a pointer.
func asFunc[F any](sym any) (F, bool) {
	if f, ok := sym.(F); ok {
		return f, true
	}
	if p, ok := sym.(*F); ok && p != nil {
		return *p, true
	}
	var zero F
	return zero, false
}

func typeName[F any]() string {
	var f *F
	return fmt.Sprintf("%T", f)[1:]
}
