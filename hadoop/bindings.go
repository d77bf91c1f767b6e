package hadoop

import (
	"sync"

	"github.com/mwantia/dfs/binding"
	"github.com/mwantia/dfs/data/errors"
	"github.com/mwantia/dfs/loader"
	"github.com/mwantia/dfs/log"
	"github.com/mwantia/dfs/metrics"
)

// Protocol is the loader scope searched for the Hadoop client.
const Protocol = "hdfs"

// Bindings holds every entity table of one Hadoop client.
type Bindings struct {
	scope   loader.Scope
	logger  *log.Logger
	invoker *binding.Invoker

	configuration *binding.Table[configurationOps]
	fileSystem    *binding.Table[fileSystemOps]
	path          *binding.Table[pathOps]
	fileStatus    *binding.Table[fileStatusOps]
	fsPermission  *binding.Table[fsPermissionOps]
	inputStream   *binding.Table[inputStreamOps]
	outputStream  *binding.Table[outputStreamOps]
	ugi           *binding.Table[ugiOps]
	unixUGI       *binding.Table[unixUGIOps]
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

// Default returns the process-wide bindings of the "hdfs" scope of the
// default loader. Resolution happens once; a failure is replayed forever.
func Default() (*Bindings, error) {
	return defaultBindings()
}

// Bind resolves the Hadoop client in scope. Required entities are resolved
// eagerly; the identity entities are optional.
func Bind(scope loader.Scope, opts ...Option) (*Bindings, error) {
	o := &options{logger: log.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger.Named("hadoop")
	tableOpts := []binding.TableOption{
		binding.WithLogger(logger),
		binding.WithMetrics(o.metrics),
	}
	optional := append([]binding.TableOption{binding.Optional()}, tableOpts...)

	b := &Bindings{
		scope:   scope,
		logger:  logger,
		invoker: binding.NewInvoker(scope.Protocol(), logger, o.metrics),

		configuration: binding.NewTable(scope, "Configuration", resolveConfiguration, tableOpts...),
		fileSystem:    binding.NewTable(scope, "FileSystem", resolveFileSystem, tableOpts...),
		path:          binding.NewTable(scope, "Path", resolvePath, tableOpts...),
		fileStatus:    binding.NewTable(scope, "FileStatus", resolveFileStatus, tableOpts...),
		fsPermission:  binding.NewTable(scope, "FsPermission", resolveFsPermission, tableOpts...),
		inputStream:   binding.NewTable(scope, "FSDataInputStream", resolveInputStream, tableOpts...),
		outputStream:  binding.NewTable(scope, "FSDataOutputStream", resolveOutputStream, tableOpts...),
		ugi:           binding.NewTable(scope, "UserGroupInformation", resolveUGI, optional...),
		unixUGI:       binding.NewTable(scope, "UnixUserGroupInformation", resolveUnixUGI, optional...),
	}

	required := []func() error{
		func() error { _, err := b.configuration.Get(); return err },
		func() error { _, err := b.fileSystem.Get(); return err },
		func() error { _, err := b.path.Get(); return err },
		func() error { _, err := b.fileStatus.Get(); return err },
		func() error { _, err := b.fsPermission.Get(); return err },
		func() error { _, err := b.inputStream.Get(); return err },
		func() error { _, err := b.outputStream.Get(); return err },
	}
	for _, get := range required {
		if err := get(); err != nil {
			return nil, err
		}
	}

	// Optional entities may be missing, but not half-present
	for _, get := range []func() error{
		func() error { _, err := b.ugi.Get(); return err },
		func() error { _, err := b.unixUGI.Get(); return err },
	} {
		if err := get(); err != nil && !errors.HasCode(err, errors.CodeEntityAbsent) {
			return nil, err
		}
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
	return b.configuration.Resolutions() + b.fileSystem.Resolutions() + b.path.Resolutions() +
		b.fileStatus.Resolutions() + b.fsPermission.Resolutions() + b.inputStream.Resolutions() +
		b.outputStream.Resolutions() + b.ugi.Resolutions() + b.unixUGI.Resolutions()
}

// ops returns the resolved table contents. Required tables were checked
// by Bind, so the error is only relevant for optional ones.
func ops[T any](t *binding.Table[T]) *T {
	o, _ := t.Get()
	return o
}
