package dfs

import (
	"fmt"

	"github.com/mwantia/dfs/config"
	"github.com/mwantia/dfs/loader"
	"github.com/mwantia/dfs/log"
	"github.com/mwantia/dfs/metrics"
)

type FileSystemOptions struct {
	Logger        *log.Logger
	Configuration *config.Configuration
	Loader        *loader.Loader
	Metrics       *metrics.Collector
}

type FileSystemOption func(*FileSystemOptions) error

func newDefaultFileSystemOptions() *FileSystemOptions {
	return &FileSystemOptions{}
}

func WithLogger(logger *log.Logger) FileSystemOption {
	return func(opts *FileSystemOptions) error {
		opts.Logger = logger
		return nil
	}
}

// WithConfiguration validates cfg and uses it instead of the defaults.
func WithConfiguration(cfg *config.Configuration) FileSystemOption {
	return func(opts *FileSystemOptions) error {
		if cfg == nil {
			return fmt.Errorf("%w: nil configuration", ErrInvalid)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		opts.Configuration = cfg
		return nil
	}
}

// WithLoader replaces the process-wide loader, typically with one carrying
// statically provided backends.
func WithLoader(l *loader.Loader) FileSystemOption {
	return func(opts *FileSystemOptions) error {
		opts.Loader = l
		return nil
	}
}

func WithMetrics(collector *metrics.Collector) FileSystemOption {
	return func(opts *FileSystemOptions) error {
		opts.Metrics = collector
		return nil
	}
}
