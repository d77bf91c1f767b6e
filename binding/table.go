// Package binding turns symbols of a loader scope into typed operation
// tables. Each backend entity (a Hadoop FileSystem, a KFS access handle,
// ...) is described by a Table whose operations are resolved exactly once;
// the outcome, success or failure, is kept and replayed to every caller.
package binding

import (
	"sync"
	"sync/atomic"

	"github.com/mwantia/dfs/data/errors"
	"github.com/mwantia/dfs/loader"
	"github.com/mwantia/dfs/log"
	"github.com/mwantia/dfs/metrics"
)

// TypeHandle is the signature of the symbol named after an entity. Its
// presence marks the entity as available; it returns the backend's
// qualified type name.
type TypeHandle = func() string

// Table holds the resolved operations T of one backend entity.
type Table[T any] struct {
	scope    loader.Scope
	entity   string
	optional bool
	resolve  func(*Resolver) *T
	logger   *log.Logger
	metrics  *metrics.Collector

	once        sync.Once
	resolutions atomic.Int64
	ops         *T
	typeName    string
	present     bool
	err         error
}

type TableOption func(*tableOptions)

type tableOptions struct {
	optional bool
	logger   *log.Logger
	metrics  *metrics.Collector
}

// Optional marks the entity as allowed to be missing from the scope.
func Optional() TableOption {
	return func(o *tableOptions) {
		o.optional = true
	}
}

func WithLogger(logger *log.Logger) TableOption {
	return func(o *tableOptions) {
		o.logger = logger
	}
}

func WithMetrics(collector *metrics.Collector) TableOption {
	return func(o *tableOptions) {
		o.metrics = collector
	}
}

// NewTable describes entity within scope. Nothing is looked up until the
// first call to Get or Present.
func NewTable[T any](scope loader.Scope, entity string, resolve func(*Resolver) *T, opts ...TableOption) *Table[T] {
	o := &tableOptions{logger: log.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	return &Table[T]{
		scope:    scope,
		entity:   entity,
		optional: o.optional,
		resolve:  resolve,
		logger:   o.logger,
		metrics:  o.metrics,
	}
}

// Entity returns the entity name.
func (t *Table[T]) Entity() string {
	return t.entity
}

// Get returns the resolved operations. A missing optional entity yields
// an error matching errors.ErrEntityAbsent; any other failure matches
// errors.ErrInit. The same result is returned on every call.
func (t *Table[T]) Get() (*T, error) {
	t.once.Do(t.bind)
	return t.ops, t.err
}

// Present reports whether the entity exists in the scope.
func (t *Table[T]) Present() bool {
	t.once.Do(t.bind)
	return t.present
}

// TypeName returns the qualified type name reported by the backend.
func (t *Table[T]) TypeName() string {
	t.once.Do(t.bind)
	return t.typeName
}

// Resolutions returns how often the table went through resolution. It is
// at most one.
func (t *Table[T]) Resolutions() int64 {
	return t.resolutions.Load()
}

func (t *Table[T]) bind() {
	t.resolutions.Add(1)
	protocol := t.scope.Protocol()

	sym, err := t.scope.Lookup(t.entity)
	if err != nil {
		if t.optional {
			t.logger.Info("Entity '%s' not found in '%s' scope", t.entity, protocol)
			t.err = errors.Newf(errors.CodeEntityAbsent, "entity '%s' absent", t.entity).
				WithComponent("binding").WithCause(err)
			t.metrics.Resolution(protocol, t.entity, metrics.ResultAbsent)
			return
		}
		t.fail(errors.Newf(errors.CodeInitialization, "required entity '%s' not found", t.entity).WithCause(err))
		return
	}

	handle, ok := asFunc[TypeHandle](sym)
	if !ok {
		t.fail(errors.Newf(errors.CodeInitialization, "entity handle '%s' has type %T", t.entity, sym))
		return
	}

	typeName, err := Value(nil, t.entity, handle)
	if err != nil {
		t.fail(errors.Newf(errors.CodeInitialization, "entity handle '%s' failed", t.entity).WithCause(err))
		return
	}
	t.present = true
	t.typeName = typeName

	r := &Resolver{scope: t.scope, entity: t.entity}
	ops := t.resolve(r)
	if err := r.Err(); err != nil {
		t.fail(errors.Newf(errors.CodeInitialization, "entity '%s' (%s) is incompatible", t.entity, typeName).WithCause(err))
		return
	}

	t.ops = ops
	t.logger.Debug("Bound entity '%s' to '%s'", t.entity, typeName)
	t.metrics.Resolution(protocol, t.entity, metrics.ResultOK)
}

func (t *Table[T]) fail(err *errors.Error) {
	t.err = err.WithComponent("binding").WithOperation(t.entity)
	t.logger.Warn("Unable to bind entity '%s': %v", t.entity, t.err)
	t.metrics.Resolution(t.scope.Protocol(), t.entity, metrics.ResultError)
}
