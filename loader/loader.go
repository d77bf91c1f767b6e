// Package loader resolves backend symbols inside per-protocol scopes.
//
// A scope is fed from two places: symbols provided in-process (statically
// linked backends) and Go plugin modules (*.so) found beneath the
// protocol's module directory. Scopes never see each other's symbols, and a
// protocol whose directory is missing simply yields an empty scope.
package loader

import (
	"plugin"
	"sync"

	"github.com/mwantia/dfs/log"
	"github.com/mwantia/dfs/metrics"
)

// Symbols is the lookup surface of an opened module. *plugin.Plugin
// satisfies it.
type Symbols interface {
	Lookup(name string) (plugin.Symbol, error)
}

// Opener opens one module file.
type Opener func(path string) (Symbols, error)

// Loader hands out one cached Scope per protocol.
type Loader struct {
	mu sync.Mutex

	logger  *log.Logger
	metrics *metrics.Collector
	opener  Opener

	dirs   map[string]string
	scopes map[string]*scope
}

type Option func(*Loader)

func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(l *Loader) {
		l.metrics = collector
	}
}

// WithModuleDir sets the directory scanned for the modules of protocol.
func WithModuleDir(protocol, dir string) Option {
	return func(l *Loader) {
		l.dirs[protocol] = dir
	}
}

// WithOpener replaces the module opener, which defaults to plugin.Open.
func WithOpener(opener Opener) Option {
	return func(l *Loader) {
		l.opener = opener
	}
}

var (
	defaultOnce   sync.Once
	defaultLoader *Loader
)

// Default returns the process-wide loader.
func Default() *Loader {
	defaultOnce.Do(func() {
		defaultLoader = New(WithMetrics(metrics.Default()))
	})
	return defaultLoader
}

func New(opts ...Option) *Loader {
	l := &Loader{
		logger: log.NewNop(),
		opener: openPlugin,
		dirs:   make(map[string]string),
		scopes: make(map[string]*scope),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetModuleDir changes the module directory of protocol. It has no effect
// once the scope has loaded its modules.
func (l *Loader) SetModuleDir(protocol, dir string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.dirs[protocol] = dir
	if s, ok := l.scopes[protocol]; ok {
		s.setDir(dir)
	}
}

// Provide registers in-process symbols for protocol. Provided symbols take
// precedence over module symbols of the same name.
func (l *Loader) Provide(protocol string, symbols map[string]any) {
	s := l.scopeFor(protocol)
	s.provide(symbols)
}

// Scope returns the scope of protocol, creating it on first use. Repeated
// calls return the same Scope. It never fails: load problems surface as
// lookup errors.
func (l *Loader) Scope(protocol string) Scope {
	return l.scopeFor(protocol)
}

func (l *Loader) scopeFor(protocol string) *scope {
	l.mu.Lock()
	defer l.mu.Unlock()

	if s, ok := l.scopes[protocol]; ok {
		return s
	}

	s := &scope{
		protocol: protocol,
		dir:      l.dirs[protocol],
		logger:   l.logger.Named(protocol),
		metrics:  l.metrics,
		opener:   l.opener,
		static:   make(map[string]any),
	}
	l.scopes[protocol] = s
	return s
}

func openPlugin(path string) (Symbols, error) {
	return plugin.Open(path)
}
