package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mwantia/dfs/data/errors"
	"github.com/mwantia/dfs/log"
	"github.com/mwantia/dfs/metrics"
	pkgerrors "github.com/pkg/errors"
)

// ModuleExt is the file extension of loadable backend modules.
const ModuleExt = ".so"

// Scope resolves symbols of one protocol.
type Scope interface {
	// Protocol returns the protocol this scope serves.
	Protocol() string
	// Lookup returns the symbol called name. A missing symbol yields an
	// error matching errors.ErrTypeNotFound.
	Lookup(name string) (any, error)
	// Modules lists the module files found for this scope.
	Modules() []Module
}

// Module describes one module file and the outcome of opening it.
type Module struct {
	Path string
	Err  error

	symbols Symbols
}

type scope struct {
	protocol string
	logger   *log.Logger
	metrics  *metrics.Collector
	opener   Opener

	mu      sync.RWMutex
	dir     string
	static  map[string]any
	loaded  bool
	modules []Module
	errs    errors.Errors
}

func (s *scope) Protocol() string {
	return s.protocol
}

func (s *scope) setDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.dir = dir
	}
}

func (s *scope) provide(symbols map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, sym := range symbols {
		s.static[name] = sym
	}
}

func (s *scope) Modules() []Module {
	s.load()

	s.mu.RLock()
	defer s.mu.RUnlock()

	modules := make([]Module, len(s.modules))
	copy(modules, s.modules)
	return modules
}

func (s *scope) Lookup(name string) (any, error) {
	s.mu.RLock()
	sym, ok := s.static[name]
	s.mu.RUnlock()
	if ok {
		return sym, nil
	}

	s.load()

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.modules {
		if m.symbols == nil {
			continue
		}
		if sym, err := m.symbols.Lookup(name); err == nil {
			return sym, nil
		}
	}

	notFound := errors.TypeNotFound(s.protocol, name)
	if loadErr := s.errs.Errors(); loadErr != nil {
		notFound.WithCause(loadErr)
	}
	return nil, notFound
}

func (s *scope) load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return
	}
	s.loaded = true

	if s.dir == "" {
		return
	}

	paths, err := collectModules(s.dir)
	if err != nil {
		s.logger.Info("Module directory '%s' unavailable: %v", s.dir, err)
		return
	}

	for _, path := range paths {
		m := openModule(s.opener, path)
		s.metrics.ModuleLoad(s.protocol, m.Err)
		if m.Err != nil {
			s.logger.Warn("Unable to load module '%s': %v", path, m.Err)
			s.errs.Add(m.Err)
		} else {
			s.logger.Info("Loaded module '%s'", path)
		}
		s.modules = append(s.modules, m)
	}
}

// collectModules walks dir recursively and returns every module file.
// Files sharing a base name are loaded once; the first one found wins.
func collectModules(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("'%s' is not a directory", dir)
	}

	seen := make(map[string]string)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped rather than aborting the scan
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ModuleExt) {
			return nil
		}
		if _, ok := seen[d.Name()]; !ok {
			seen[d.Name()] = path
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, seen[name])
	}
	return paths, nil
}

// openModule opens one module and contains panics raised by its
// initialisation.
func openModule(opener Opener, path string) (m Module) {
	m.Path = path
	defer func() {
		if r := recover(); r != nil {
			m.symbols = nil
			m.Err = pkgerrors.Errorf("module '%s' panicked during initialization: %v", path, r)
		}
	}()

	symbols, err := opener(path)
	if err != nil {
		m.Err = pkgerrors.Wrapf(err, "module '%s'", path)
		return m
	}
	m.symbols = symbols
	return m
}
