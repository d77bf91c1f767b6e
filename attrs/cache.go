// Package attrs caches the attributes of one remote file for a bounded
// time. Reads past the expiration trigger a synchronisation with the
// backend unless a local write is in progress, in which case the locally
// maintained values are authoritative.
package attrs

import (
	"context"
	"sync"
	"time"

	"github.com/mwantia/dfs/data"
	"github.com/mwantia/dfs/data/errors"
	"github.com/mwantia/dfs/log"
	"github.com/mwantia/dfs/metrics"
)

// DefaultTTL is how long synchronised attributes stay fresh.
const DefaultTTL = 60 * time.Second

// State describes the freshness of a cache.
type State int

const (
	StateUninitialized State = iota
	StateFresh
	StateStale
	StateAbsent
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the cached attributes.
type Snapshot struct {
	Exists      bool
	IsDir       bool
	ModTime     time.Time
	Size        int64
	Permissions data.Permissions
	Owner       string
	Group       string
}

// FileInfo converts the snapshot for the file at path.
func (s Snapshot) FileInfo(path string) *data.FileInfo {
	return &data.FileInfo{
		Name:        data.BaseName(path),
		Path:        data.CleanPath(path),
		Exists:      s.Exists,
		IsDir:       s.IsDir,
		Size:        s.Size,
		ModTime:     s.ModTime,
		Permissions: s.Permissions,
		Owner:       s.Owner,
		Group:       s.Group,
	}
}

// Defaults are reported for files that do not exist.
type Defaults struct {
	Owner       string
	Group       string
	Permissions data.Permissions
}

// FetchFunc retrieves the current attributes from the backend.
type FetchFunc func(ctx context.Context) (*Snapshot, error)

// Cache holds the attributes of one file. A single mutex guards every
// field, including the writing flag.
type Cache struct {
	mu sync.Mutex

	fetch    FetchFunc
	defaults func() Defaults
	ttl      time.Duration
	now      func() time.Time
	logger   *log.Logger
	metrics  *metrics.Collector
	protocol string

	synced     bool
	writing    bool
	expiration time.Time
	snap       Snapshot
}

type Option func(*Cache)

// WithTTL sets how long synchronised attributes stay fresh.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithDefaults sets the function providing attributes of absent files.
func WithDefaults(defaults func() Defaults) Option {
	return func(c *Cache) {
		c.defaults = defaults
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithMetrics records syncs and reads under protocol.
func WithMetrics(collector *metrics.Collector, protocol string) Option {
	return func(c *Cache) {
		c.metrics = collector
		c.protocol = protocol
	}
}

// New creates an uninitialised cache; the first read synchronises.
func New(fetch FetchFunc, opts ...Option) *Cache {
	c := &Cache{
		fetch:    fetch,
		defaults: func() Defaults { return Defaults{Permissions: data.DefaultFilePermissions} },
		ttl:      DefaultTTL,
		now:      time.Now,
		logger:   log.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFresh creates a cache pre-populated with attributes that are known
// to exist, for instance from a directory listing.
func NewFresh(snap Snapshot, fetch FetchFunc, opts ...Option) *Cache {
	c := New(fetch, opts...)
	c.setLocked(snap)
	return c
}

// State returns the current freshness.
func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case !c.synced:
		return StateUninitialized
	case !c.now().Before(c.expiration):
		return StateStale
	case !c.snap.Exists:
		return StateAbsent
	default:
		return StateFresh
	}
}

// Expiration returns when the attributes become stale.
func (c *Cache) Expiration() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.expiration
}

// IsWriting reports whether a local write is in progress.
func (c *Cache) IsWriting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.writing
}

// Sync fetches the attributes from the backend now. It does nothing while
// a write is in progress. Authentication failures and context
// cancellation are returned and leave the cache untouched; any other
// failure marks the file absent.
func (c *Cache) Sync(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.syncLocked(ctx)
}

func (c *Cache) syncLocked(ctx context.Context) error {
	if c.writing {
		c.metrics.AttributeSync(c.protocol, metrics.ResultSkipped)
		return nil
	}

	snap, err := c.fetch(ctx)
	if err != nil {
		if errors.IsAuth(err) || ctx.Err() != nil {
			c.metrics.AttributeSync(c.protocol, metrics.ResultError)
			return err
		}

		c.logger.Debug("Attribute sync failed, marking absent: %v", err)
		c.metrics.AttributeSync(c.protocol, metrics.ResultAbsent)
		c.setAbsentLocked()
		return nil
	}

	c.metrics.AttributeSync(c.protocol, metrics.ResultOK)
	c.setLocked(*snap)
	return nil
}

// refreshLocked synchronises when the attributes expired.
func (c *Cache) refreshLocked(ctx context.Context) error {
	if c.writing {
		c.metrics.AttributeRead(c.protocol, "writing")
		return nil
	}
	if c.synced && c.now().Before(c.expiration) {
		c.metrics.AttributeRead(c.protocol, "fresh")
		return nil
	}

	c.metrics.AttributeRead(c.protocol, "stale")
	return c.syncLocked(ctx)
}

func (c *Cache) setLocked(snap Snapshot) {
	snap.Exists = true
	if snap.IsDir {
		snap.Size = 0
	}
	snap.Permissions = snap.Permissions.Mask()

	c.snap = snap
	c.advanceLocked()
}

func (c *Cache) setAbsentLocked() {
	d := c.defaults()
	c.snap = Snapshot{
		Exists:      false,
		Owner:       d.Owner,
		Group:       d.Group,
		Permissions: d.Permissions.Mask(),
	}
	c.advanceLocked()
}

func (c *Cache) advanceLocked() {
	c.synced = true
	c.expiration = c.now().Add(c.ttl)
}

// Snapshot returns all attributes, synchronising first if they expired.
func (c *Cache) Snapshot(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.refreshLocked(ctx); err != nil {
		return Snapshot{}, err
	}
	return c.snap, nil
}

func (c *Cache) Exists(ctx context.Context) (bool, error) {
	snap, err := c.Snapshot(ctx)
	return snap.Exists, err
}

func (c *Cache) IsDirectory(ctx context.Context) (bool, error) {
	snap, err := c.Snapshot(ctx)
	return snap.IsDir, err
}

func (c *Cache) Size(ctx context.Context) (int64, error) {
	snap, err := c.Snapshot(ctx)
	return snap.Size, err
}

func (c *Cache) ModTime(ctx context.Context) (time.Time, error) {
	snap, err := c.Snapshot(ctx)
	return snap.ModTime, err
}

func (c *Cache) Permissions(ctx context.Context) (data.Permissions, error) {
	snap, err := c.Snapshot(ctx)
	return snap.Permissions, err
}

func (c *Cache) Owner(ctx context.Context) (string, error) {
	snap, err := c.Snapshot(ctx)
	return snap.Owner, err
}

func (c *Cache) Group(ctx context.Context) (string, error) {
	snap, err := c.Snapshot(ctx)
	return snap.Group, err
}
