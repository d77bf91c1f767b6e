package backend

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/mwantia/dfs/config"
	"github.com/mwantia/dfs/data"
	"github.com/mwantia/dfs/loader"
	"github.com/mwantia/dfs/log"
)

// IdentityVersion selects which identity entities the emulated Hadoop
// client exports.
type IdentityVersion int

const (
	// IdentityModern exports UserGroupInformation only.
	IdentityModern IdentityVersion = iota
	// IdentityLegacy exports UnixUserGroupInformation only.
	IdentityLegacy
	// IdentityBoth exports both identity entities.
	IdentityBoth
	// IdentityNone exports no identity entity.
	IdentityNone
)

// Emulator serves the Hadoop and KFS client interfaces from a Store. It is
// used in place of a native client module by tests and by the command
// line tool.
type Emulator struct {
	store  Store
	logger *log.Logger

	identity IdentityVersion
	user     string
	group    string
	umask    data.Permissions
	filePerm data.Permissions

	// ns serialises check-then-act sequences on the namespace
	ns sync.Mutex

	mu     sync.Mutex
	calls  map[string]int
	faults map[string]error
	panics map[string]any
}

type EmulatorOption func(*Emulator)

// WithIdentity selects the exported identity entities.
func WithIdentity(version IdentityVersion) EmulatorOption {
	return func(e *Emulator) {
		e.identity = version
	}
}

// WithUser sets the identity the emulated clients run as.
func WithUser(user, group string) EmulatorOption {
	return func(e *Emulator) {
		e.user = user
		e.group = group
	}
}

// WithUMask sets the umask applied to entries created through Hadoop.
func WithUMask(umask data.Permissions) EmulatorOption {
	return func(e *Emulator) {
		e.umask = umask.Mask()
	}
}

// WithFilePermissions sets the mode of files created through KFS.
func WithFilePermissions(perm data.Permissions) EmulatorOption {
	return func(e *Emulator) {
		e.filePerm = perm.Mask()
	}
}

func WithEmulatorLogger(logger *log.Logger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = logger
	}
}

func NewEmulator(store Store, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		store:    store,
		logger:   log.NewNop(),
		identity: IdentityModern,
		user:     "dfs",
		group:    "supergroup",
		umask:    0022,
		filePerm: data.DefaultFilePermissions,
		calls:    make(map[string]int),
		faults:   make(map[string]error),
		panics:   make(map[string]any),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("emulator")
	return e
}

// Store returns the store the emulator serves.
func (e *Emulator) Store() Store {
	return e.store
}

// Provide registers the Hadoop symbols under the "hdfs" scope and the KFS
// symbols under the "qfs" scope of l.
func (e *Emulator) Provide(l *loader.Loader) {
	l.Provide(config.ProtocolHDFS, e.HadoopSymbols())
	l.Provide(config.ProtocolQFS, e.KfsSymbols())
}

// Fail makes every following call of op fail with err. Operations without
// an error result report the failure the way their interface does.
func (e *Emulator) Fail(op string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.faults[op] = err
}

// Panic makes every following call of op panic with value.
func (e *Emulator) Panic(op string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.panics[op] = value
}

// Heal removes faults and panics registered for op.
func (e *Emulator) Heal(op string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.faults, op)
	delete(e.panics, op)
}

// Calls returns how often op was invoked.
func (e *Emulator) Calls(op string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.calls[op]
}

// enter records a call of op and returns its injected fault.
func (e *Emulator) enter(op string) error {
	e.mu.Lock()
	e.calls[op]++
	fault := e.faults[op]
	value, panics := e.panics[op]
	e.mu.Unlock()

	e.logger.Debug("Call: %s", op)
	if panics {
		panic(value)
	}
	return fault
}

func (e *Emulator) ctx() context.Context {
	return context.Background()
}

// mkdirs creates key and every missing ancestor. It reports false when a
// file is in the way.
func (e *Emulator) mkdirs(key string, owner, group string, perm data.Permissions) (bool, error) {
	ctx := e.ctx()

	var missing []string
	for current := key; current != ""; current = data.ParentPath(current) {
		meta, err := e.store.Get(ctx, current)
		if err == nil {
			if !meta.IsDir() {
				return false, nil
			}
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return false, err
		}
		missing = append(missing, current)
	}

	for i := len(missing) - 1; i >= 0; i-- {
		meta := data.NewDirectoryMetadata(missing[i], perm)
		meta.Owner = owner
		meta.Group = group
		if err := e.store.Put(ctx, meta); err != nil {
			return false, err
		}
	}
	return true, nil
}

// AuthError is a failure the client classifies as an authentication
// problem.
type AuthError struct {
	Path    string
	Message string
}

func NewAuthError(path, format string, args ...any) *AuthError {
	return &AuthError{Path: path, Message: fmt.Sprintf(format, args...)}
}

func (e *AuthError) Error() string {
	if e.Path == "" {
		return "permission denied: " + e.Message
	}
	return fmt.Sprintf("permission denied: %s: %s", e.Path, e.Message)
}

func (*AuthError) AuthFailure() bool {
	return true
}

// LoginError is a failure of the legacy login.
type LoginError struct {
	Message string
}

func NewLoginError(format string, args ...any) *LoginError {
	return &LoginError{Message: fmt.Sprintf(format, args...)}
}

func (e *LoginError) Error() string {
	return "login failed: " + e.Message
}

func (*LoginError) LoginFailure() bool {
	return true
}
