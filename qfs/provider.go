// Package qfs exposes Quantcast filesystems through dfs.File. The KFS
// client is bound at runtime from the "qfs" loader scope.
package qfs

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/mwantia/dfs"
	"github.com/mwantia/dfs/attrs"
	"github.com/mwantia/dfs/config"
	"github.com/mwantia/dfs/data"
	"github.com/mwantia/dfs/data/errors"
	"github.com/mwantia/dfs/kfs"
	"github.com/mwantia/dfs/loader"
	"github.com/mwantia/dfs/log"
	"github.com/mwantia/dfs/metrics"
)

// Scheme is the URL scheme served by the provider.
const Scheme = "qfs"

// Provider opens qfs:// URLs. One metaserver connection is kept per
// address.
type Provider struct {
	proto    *config.ProtocolConfig
	ttl      time.Duration
	timeout  time.Duration
	logger   *log.Logger
	metrics  *metrics.Collector
	now      func() time.Time
	defaults attrs.Defaults

	dial  dfs.DialFunc
	probe bool

	bindings func() (*kfs.Bindings, error)

	mu    sync.Mutex
	conns map[string]*kfs.Access
}

type ProviderOption func(*Provider)

// WithDialer replaces the dialer used to probe metaservers.
func WithDialer(dial dfs.DialFunc) ProviderOption {
	return func(p *Provider) {
		p.dial = dial
	}
}

// WithoutProbe connects without probing the metaserver first.
func WithoutProbe() ProviderOption {
	return func(p *Provider) {
		p.probe = false
	}
}

// WithBindings uses b instead of binding the client from the loader.
func WithBindings(b *kfs.Bindings) ProviderOption {
	return func(p *Provider) {
		p.bindings = func() (*kfs.Bindings, error) { return b, nil }
	}
}

// WithClock replaces time.Now in the attribute caches.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.now = now
	}
}

// NewProvider creates the provider from the settings of fsys.
func NewProvider(fsys *dfs.FileSystem, opts ...ProviderOption) *Provider {
	cfg := fsys.Configuration()
	proto := cfg.Protocol(config.ProtocolQFS)
	p := &Provider{
		proto:   proto,
		ttl:     cfg.Cache.TTL,
		timeout: cfg.Network.ConnectTimeout,
		logger:  fsys.Logger().Named(Scheme),
		metrics: fsys.Metrics(),
		now:     time.Now,
		defaults: attrs.Defaults{
			Owner:       proto.DefaultOwner,
			Group:       proto.DefaultGroup,
			Permissions: proto.Permissions(data.DefaultFilePermissions),
		},
		probe: true,
		conns: make(map[string]*kfs.Access),
	}

	if fsys.Loader() == loader.Default() {
		p.bindings = kfs.Default
	} else {
		scope := fsys.Loader().Scope(kfs.Protocol)
		p.bindings = sync.OnceValues(func() (*kfs.Bindings, error) {
			return kfs.Bind(scope, kfs.WithLogger(fsys.Logger()), kfs.WithMetrics(p.metrics))
		})
	}

	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Scheme() string {
	return Scheme
}

// Open connects to the metaserver of u and fetches the attributes of its
// path. A missing path is not an error.
func (p *Provider) Open(ctx context.Context, u *data.FileURL) (dfs.File, error) {
	if u.Scheme != Scheme {
		return nil, fmt.Errorf("%w: scheme '%s' is not %s", dfs.ErrInvalid, u.Scheme, Scheme)
	}

	b, err := p.bindings()
	if err != nil {
		return nil, err
	}
	access, err := p.connect(ctx, b, u)
	if err != nil {
		return nil, err
	}

	f, err := p.newFile(b, access, u, nil)
	if err != nil {
		return nil, err
	}
	if err := f.cache.Sync(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

// Close closes every metaserver connection.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs errors.Errors
	for address, access := range p.conns {
		if err := access.Close(); err != nil {
			p.logger.Warn("Failed to close connection '%s': %v", address, err)
			errs.Add(err)
		}
	}
	p.conns = make(map[string]*kfs.Access)

	return errs.Errors()
}

func (p *Provider) connect(ctx context.Context, b *kfs.Bindings, u *data.FileURL) (*kfs.Access, error) {
	host := u.Host
	if host == "" {
		host = "/"
	}
	port := u.PortOr(p.proto.StandardPort)
	address := net.JoinHostPort(host, strconv.Itoa(port))

	p.mu.Lock()
	defer p.mu.Unlock()

	if access, ok := p.conns[address]; ok {
		return access, nil
	}

	if p.probe {
		if err := dfs.Probe(ctx, p.dial, address, p.timeout, p.logger); err != nil {
			return nil, err
		}
	}

	p.logger.Debug("Connecting to metaserver '%s'", address)
	access, err := b.NewAccess(host, port)
	if err != nil {
		return nil, err
	}

	p.conns[address] = access
	return access, nil
}
