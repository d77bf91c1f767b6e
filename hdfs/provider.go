// Package hdfs exposes Hadoop filesystems through dfs.File. The Hadoop
// client is bound at runtime from the "hdfs" loader scope.
package hdfs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mwantia/dfs"
	"github.com/mwantia/dfs/config"
	"github.com/mwantia/dfs/data"
	"github.com/mwantia/dfs/data/errors"
	"github.com/mwantia/dfs/hadoop"
	"github.com/mwantia/dfs/identity"
	"github.com/mwantia/dfs/loader"
	"github.com/mwantia/dfs/log"
	"github.com/mwantia/dfs/metrics"
)

// Scheme is the URL scheme served by the provider.
const Scheme = "hdfs"

// environment holds the process defaults derived from the bound client.
type environment struct {
	identity    identity.Identity
	permissions data.Permissions
}

// Provider opens hdfs:// URLs. Connections are shared by every file of the
// same realm and user.
type Provider struct {
	proto   *config.ProtocolConfig
	ttl     time.Duration
	timeout time.Duration
	logger  *log.Logger
	metrics *metrics.Collector
	now     func() time.Time

	dial     dfs.DialFunc
	probe    bool
	hostUser func() string

	bindings    func() (*hadoop.Bindings, error)
	environment func() (*environment, error)

	mu    sync.Mutex
	conns map[string]*hadoop.FileSystem
}

type ProviderOption func(*Provider)

// WithDialer replaces the dialer used to probe name nodes.
func WithDialer(dial dfs.DialFunc) ProviderOption {
	return func(p *Provider) {
		p.dial = dial
	}
}

// WithoutProbe connects without probing the name node first, for clients
// that do not talk to the network.
func WithoutProbe() ProviderOption {
	return func(p *Provider) {
		p.probe = false
	}
}

// WithBindings uses b instead of binding the client from the loader.
func WithBindings(b *hadoop.Bindings) ProviderOption {
	return func(p *Provider) {
		p.bindings = func() (*hadoop.Bindings, error) { return b, nil }
	}
}

// WithClock replaces time.Now in the attribute caches.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.now = now
	}
}

// WithHostUser replaces the operating system user used when the client
// reports no identity.
func WithHostUser(hostUser func() string) ProviderOption {
	return func(p *Provider) {
		p.hostUser = hostUser
	}
}

// NewProvider creates the provider from the settings of fsys. Binding
// happens on the first Open; a binding failure is replayed by every later
// Open.
func NewProvider(fsys *dfs.FileSystem, opts ...ProviderOption) *Provider {
	cfg := fsys.Configuration()
	p := &Provider{
		proto:   cfg.Protocol(config.ProtocolHDFS),
		ttl:     cfg.Cache.TTL,
		timeout: cfg.Network.ConnectTimeout,
		logger:  fsys.Logger().Named(Scheme),
		metrics: fsys.Metrics(),
		now:     time.Now,
		probe:   true,
		conns:   make(map[string]*hadoop.FileSystem),
	}

	if fsys.Loader() == loader.Default() {
		p.bindings = hadoop.Default
	} else {
		scope := fsys.Loader().Scope(hadoop.Protocol)
		p.bindings = sync.OnceValues(func() (*hadoop.Bindings, error) {
			return hadoop.Bind(scope, hadoop.WithLogger(fsys.Logger()), hadoop.WithMetrics(p.metrics))
		})
	}

	for _, opt := range opts {
		opt(p)
	}

	p.environment = sync.OnceValues(p.resolveEnvironment)
	return p
}

func (p *Provider) Scheme() string {
	return Scheme
}

// Open connects to the name node of u and fetches the attributes of its
// path. A missing path is not an error.
func (p *Provider) Open(ctx context.Context, u *data.FileURL) (dfs.File, error) {
	if u.Scheme != Scheme {
		return nil, fmt.Errorf("%w: scheme '%s' is not %s", dfs.ErrInvalid, u.Scheme, Scheme)
	}

	b, err := p.bindings()
	if err != nil {
		return nil, err
	}
	env, err := p.environment()
	if err != nil {
		return nil, err
	}

	owner := identity.Owner(u.Credentials, env.identity)
	fs, err := p.connect(ctx, b, u, owner, env.identity.Group)
	if err != nil {
		return nil, err
	}

	f, err := p.newFile(b, fs, u, env, nil)
	if err != nil {
		return nil, err
	}
	if err := f.cache.Sync(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

// Identity returns the process default user and group.
func (p *Provider) Identity() (identity.Identity, error) {
	env, err := p.environment()
	if err != nil {
		return identity.Identity{}, err
	}
	return env.identity, nil
}

// Close closes every shared connection.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs errors.Errors
	for key, fs := range p.conns {
		if err := fs.Close(); err != nil {
			p.logger.Warn("Failed to close connection '%s': %v", key, err)
			errs.Add(err)
		}
	}
	p.conns = make(map[string]*hadoop.FileSystem)

	return errs.Errors()
}

func (p *Provider) connect(ctx context.Context, b *hadoop.Bindings, u *data.FileURL, owner, group string) (*hadoop.FileSystem, error) {
	realm := u.Realm()
	realm.Port = u.PortOr(p.proto.StandardPort)
	key := owner + "@" + realm.String()

	p.mu.Lock()
	defer p.mu.Unlock()

	if fs, ok := p.conns[key]; ok {
		return fs, nil
	}

	if p.probe {
		if err := dfs.Probe(ctx, p.dial, u.Address(p.proto.StandardPort), p.timeout, p.logger); err != nil {
			return nil, err
		}
	}

	conf, err := p.newConfiguration(b)
	if err != nil {
		return nil, err
	}
	// TODO: pass a per-URL group once the client honours it; the group
	// part of the property is ignored by the name node.
	if err := conf.SetStrings(hadoop.UGIProperty, owner, group); err != nil {
		return nil, err
	}

	p.logger.Debug("Connecting to '%s' as '%s'", realm, owner)
	fs, err := b.GetFileSystem(realm.String(), conf)
	if err != nil {
		return nil, err
	}

	p.conns[key] = fs
	return fs, nil
}

// newConfiguration creates a client configuration seeded with the
// configured properties.
func (p *Provider) newConfiguration(b *hadoop.Bindings) (*hadoop.Configuration, error) {
	conf, err := b.NewConfiguration()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(p.proto.Properties))
	for name := range p.proto.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := conf.SetStrings(name, p.proto.Properties[name]); err != nil {
			return nil, err
		}
	}
	return conf, nil
}

func (p *Provider) resolveEnvironment() (*environment, error) {
	b, err := p.bindings()
	if err != nil {
		return nil, err
	}
	conf, err := p.newConfiguration(b)
	if err != nil {
		return nil, err
	}

	fallbackGroup := hadoop.DefaultSupergroup
	if p.proto.DefaultGroup != "" {
		fallbackGroup = p.proto.DefaultGroup
	}

	resolver := &identity.Resolver{
		Logger: p.logger,
		Sources: []identity.Source{
			identity.NewSource("UserGroupInformation", b.HasUserGroupInformation, func() (string, error) {
				ugi, err := b.CurrentUser()
				if err != nil {
					return "", err
				}
				return ugi.ShortUserName()
			}),
			identity.NewSource("UnixUserGroupInformation", b.HasUnixUserGroupInformation, func() (string, error) {
				ugi, err := b.UnixLogin(conf)
				if err != nil {
					return "", err
				}
				return ugi.UserName()
			}),
		},
		Group: func() (string, error) {
			return conf.Get(hadoop.SupergroupProperty, fallbackGroup)
		},
		FallbackGroup: fallbackGroup,
		HostUser:      p.hostUser,
	}

	env := &environment{identity: resolver.Resolve()}
	if p.proto.DefaultOwner != "" {
		env.identity.User = p.proto.DefaultOwner
	}

	if p.proto.DefaultPermissions != "" {
		env.permissions = p.proto.Permissions(data.DefaultFilePermissions)
		return env, nil
	}
	if env.permissions, err = defaultPermissions(b, conf); err != nil {
		return nil, err
	}
	return env, nil
}

// defaultPermissions applies the configured umask to the client default.
func defaultPermissions(b *hadoop.Bindings, conf *hadoop.Configuration) (data.Permissions, error) {
	def, err := b.DefaultFsPermission()
	if err != nil {
		return 0, err
	}
	umask, err := b.UMask(conf)
	if err != nil {
		return 0, err
	}
	applied, err := def.ApplyUMask(umask)
	if err != nil {
		return 0, err
	}
	perm, err := applied.Permissions()
	if err != nil {
		return 0, err
	}
	return perm.Mask(), nil
}
