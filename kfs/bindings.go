package kfs

import (
	"sync"

	"github.com/mwantia/dfs/binding"
	"github.com/mwantia/dfs/data/errors"
	"github.com/mwantia/dfs/loader"
	"github.com/mwantia/dfs/log"
	"github.com/mwantia/dfs/metrics"
)

// Bindings holds every entity table of one KFS client.
type Bindings struct {
	scope   loader.Scope
	logger  *log.Logger
	invoker *binding.Invoker

	access        *binding.Table[accessOps]
	fileAttr      *binding.Table[fileAttrOps]
	inputChannel  *binding.Table[inputChannelOps]
	outputChannel *binding.Table[outputChannelOps]
}

type Option func(*options)

type options struct {
	logger  *log.Logger
	metrics *metrics.Collector
}

func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = collector
	}
}

var defaultBindings = sync.OnceValues(func() (*Bindings, error) {
	return Bind(loader.Default().Scope(Protocol), WithMetrics(metrics.Default()))
})

// Default returns the process-wide bindings of the "qfs" scope of the
// default loader.
func Default() (*Bindings, error) {
	return defaultBindings()
}

// Bind resolves the KFS client in scope.
func Bind(scope loader.Scope, opts ...Option) (*Bindings, error) {
	o := &options{logger: log.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger.Named("kfs")
	tableOpts := []binding.TableOption{
		binding.WithLogger(logger),
		binding.WithMetrics(o.metrics),
	}

	b := &Bindings{
		scope:   scope,
		logger:  logger,
		invoker: binding.NewInvoker(scope.Protocol(), logger, o.metrics),

		access:        binding.NewTable(scope, "KfsAccess", resolveAccess, tableOpts...),
		fileAttr:      binding.NewTable(scope, "KfsFileAttr", resolveFileAttr, tableOpts...),
		inputChannel:  binding.NewTable(scope, "KfsInputChannel", resolveInputChannel, tableOpts...),
		outputChannel: binding.NewTable(scope, "KfsOutputChannel", resolveOutputChannel, append(tableOpts, binding.Optional())...),
	}

	if _, err := b.access.Get(); err != nil {
		return nil, err
	}
	if _, err := b.fileAttr.Get(); err != nil {
		return nil, err
	}
	if _, err := b.inputChannel.Get(); err != nil {
		return nil, err
	}
	if _, err := b.outputChannel.Get(); err != nil && !errors.HasCode(err, errors.CodeEntityAbsent) {
		return nil, err
	}

	return b, nil
}

// Scope returns the scope the bindings were resolved from.
func (b *Bindings) Scope() loader.Scope {
	return b.scope
}

// Logger returns the bindings' logger.
func (b *Bindings) Logger() *log.Logger {
	return b.logger
}

// Resolutions sums the resolution count of every table.
func (b *Bindings) Resolutions() int64 {
	return b.access.Resolutions() + b.fileAttr.Resolutions() +
		b.inputChannel.Resolutions() + b.outputChannel.Resolutions()
}

func ops[T any](t *binding.Table[T]) *T {
	o, _ := t.Get()
	return o
}
