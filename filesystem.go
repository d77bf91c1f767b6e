package dfs

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mwantia/dfs/config"
	"github.com/mwantia/dfs/data"
	"github.com/mwantia/dfs/data/errors"
	"github.com/mwantia/dfs/loader"
	"github.com/mwantia/dfs/log"
	"github.com/mwantia/dfs/metrics"
)

// FileSystem dispatches URLs to the provider registered for their scheme.
type FileSystem struct {
	mu        sync.RWMutex
	providers map[string]Provider
	closed    bool

	cfg     *config.Configuration
	logger  *log.Logger
	loader  *loader.Loader
	metrics *metrics.Collector
}

// New creates a filesystem without providers. Unless replaced through
// options, the configuration defaults are used, the logger is built from
// the log settings and backends are loaded by the process-wide loader.
func New(opts ...FileSystemOption) (*FileSystem, error) {
	options := newDefaultFileSystemOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	cfg := options.Configuration
	if cfg == nil {
		cfg = config.NewDefault()
	}

	logger := options.Logger
	if logger == nil {
		var err error
		if logger, err = cfg.Log.NewLogger("dfs"); err != nil {
			return nil, err
		}
	}

	collector := options.Metrics
	if collector == nil && cfg.Metrics.Enabled {
		collector = metrics.Default()
	}

	l := options.Loader
	if l == nil {
		l = loader.Default()
	}
	for name, proto := range cfg.Protocols {
		if proto != nil && proto.ModuleDir != "" {
			l.SetModuleDir(name, proto.ModuleDir)
		}
	}

	return &FileSystem{
		providers: make(map[string]Provider),
		cfg:       cfg,
		logger:    logger,
		loader:    l,
		metrics:   collector,
	}, nil
}

func (fsys *FileSystem) Configuration() *config.Configuration {
	return fsys.cfg
}

func (fsys *FileSystem) Logger() *log.Logger {
	return fsys.logger
}

func (fsys *FileSystem) Loader() *loader.Loader {
	return fsys.loader
}

// Metrics returns the collector, which may be nil.
func (fsys *FileSystem) Metrics() *metrics.Collector {
	return fsys.metrics
}

// Register adds a provider for its scheme.
func (fsys *FileSystem) Register(p Provider) error {
	if p == nil {
		return fmt.Errorf("%w: nil provider", ErrInvalid)
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	if fsys.closed {
		return ErrShutdown
	}

	scheme := p.Scheme()
	if _, exists := fsys.providers[scheme]; exists {
		return fmt.Errorf("%w: %s", ErrSchemeRegistered, scheme)
	}

	fsys.providers[scheme] = p
	fsys.logger.Debug("Registered provider for scheme '%s'", scheme)
	return nil
}

// Unregister removes and closes the provider of scheme.
func (fsys *FileSystem) Unregister(scheme string) error {
	fsys.mu.Lock()
	p, exists := fsys.providers[scheme]
	delete(fsys.providers, scheme)
	fsys.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownScheme, scheme)
	}
	return p.Close()
}

// Schemes returns the registered schemes in sorted order.
func (fsys *FileSystem) Schemes() []string {
	fsys.mu.RLock()
	defer fsys.mu.RUnlock()

	schemes := make([]string, 0, len(fsys.providers))
	for scheme := range fsys.providers {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

// Open parses raw and opens the file it addresses.
func (fsys *FileSystem) Open(ctx context.Context, raw string) (File, error) {
	u, err := data.ParseFileURL(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return fsys.OpenURL(ctx, u)
}

// OpenURL opens the file addressed by u.
func (fsys *FileSystem) OpenURL(ctx context.Context, u *data.FileURL) (File, error) {
	fsys.mu.RLock()
	closed := fsys.closed
	p, exists := fsys.providers[u.Scheme]
	fsys.mu.RUnlock()

	if closed {
		return nil, ErrShutdown
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScheme, u.Scheme)
	}

	return p.Open(ctx, u)
}

// Close closes every provider. Later calls to Open fail with ErrShutdown.
func (fsys *FileSystem) Close() error {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	if fsys.closed {
		return nil
	}
	fsys.closed = true

	var errs errors.Errors
	for scheme, p := range fsys.providers {
		if err := p.Close(); err != nil {
			fsys.logger.Warn("Failed to close provider '%s': %v", scheme, err)
			errs.Add(err)
		}
	}
	fsys.providers = make(map[string]Provider)

	return errs.Errors()
}
