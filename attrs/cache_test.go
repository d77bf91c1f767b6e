package attrs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mwantia/dfs/data"
	"github.com/mwantia/dfs/data/errors"
	"github.com/mwantia/dfs/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeBackend struct {
	calls atomic.Int32
	mu    sync.Mutex
	snap  *Snapshot
	err   error
	delay time.Duration
}

func (b *fakeBackend) fetch(ctx context.Context) (*Snapshot, error) {
	b.calls.Add(1)
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	snap := *b.snap
	return &snap, nil
}

func (b *fakeBackend) set(snap *Snapshot, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap = snap
	b.err = err
}

var testDefaults = func() Defaults {
	return Defaults{Owner: "alice", Group: "staff", Permissions: 0644}
}

func TestFirstReadSynchronises(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeBackend{snap: &Snapshot{Size: 42, Permissions: 0640, Owner: "hdfs"}}
	cache := New(backend.fetch, WithClock(clock.Now), WithDefaults(testDefaults))

	assert.Equal(t, StateUninitialized, cache.State())

	size, err := cache.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), size)
	assert.Equal(t, StateFresh, cache.State())
	assert.Equal(t, clock.Now().Add(DefaultTTL), cache.Expiration())

	owner, err := cache.Owner(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hdfs", owner)
	assert.EqualValues(t, 1, backend.calls.Load())
}

func TestFreshnessExpires(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeBackend{snap: &Snapshot{Size: 1}}
	cache := New(backend.fetch, WithClock(clock.Now), WithTTL(10*time.Second))

	_, err := cache.Size(context.Background())
	require.NoError(t, err)

	clock.Advance(9 * time.Second)
	backend.set(&Snapshot{Size: 2}, nil)
	size, err := cache.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
	assert.EqualValues(t, 1, backend.calls.Load())

	clock.Advance(time.Second)
	assert.Equal(t, StateStale, cache.State())
	size, err = cache.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)
	assert.EqualValues(t, 2, backend.calls.Load())
}

func TestDirectorySizeIsZero(t *testing.T) {
	backend := &fakeBackend{snap: &Snapshot{IsDir: true, Size: 4096}}
	cache := New(backend.fetch)

	snap, err := cache.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Exists)
	assert.True(t, snap.IsDir)
	assert.Zero(t, snap.Size)
}

func TestNonAuthFailureMarksAbsent(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeBackend{err: fmt.Errorf("no such file")}
	cache := New(backend.fetch, WithClock(clock.Now), WithDefaults(testDefaults))

	snap, err := cache.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.Exists)
	assert.Equal(t, "alice", snap.Owner)
	assert.Equal(t, "staff", snap.Group)
	assert.Equal(t, data.Permissions(0644), snap.Permissions)
	assert.Equal(t, StateAbsent, cache.State())
	assert.Equal(t, clock.Now().Add(DefaultTTL), cache.Expiration())
}

func TestAuthFailurePropagates(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeBackend{snap: &Snapshot{Size: 7}}
	cache := New(backend.fetch, WithClock(clock.Now))

	_, err := cache.Size(context.Background())
	require.NoError(t, err)
	expiration := cache.Expiration()

	clock.Advance(2 * DefaultTTL)
	backend.set(nil, errors.Auth(fmt.Errorf("denied"), "getFileStatus", "/a"))

	_, err = cache.Size(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsAuth(err))
	assert.Equal(t, expiration, cache.Expiration())
	assert.Equal(t, StateStale, cache.State())

	backend.set(&Snapshot{Size: 8}, nil)
	size, err := cache.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(8), size)
}

func TestCancelledContextLeavesStateUntouched(t *testing.T) {
	backend := &fakeBackend{err: context.Canceled}
	cache := New(backend.fetch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cache.Exists(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateUninitialized, cache.State())
}

func TestWritingSuppressesSync(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeBackend{snap: &Snapshot{Size: 100}}
	cache := New(backend.fetch, WithClock(clock.Now))

	cache.BeginWrite(true)
	assert.True(t, cache.IsWriting())

	cache.AddWritten(10)
	clock.Advance(time.Minute)
	cache.AddWritten(5)

	snap, err := cache.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Exists)
	assert.Equal(t, int64(15), snap.Size)
	assert.Equal(t, clock.Now(), snap.ModTime)

	require.NoError(t, cache.Sync(context.Background()))
	assert.Zero(t, backend.calls.Load())

	cache.EndWrite()
	assert.False(t, cache.IsWriting())

	size, err := cache.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100), size)
	assert.EqualValues(t, 1, backend.calls.Load())
}

func TestAppendKeepsSize(t *testing.T) {
	backend := &fakeBackend{snap: &Snapshot{Size: 20}}
	cache := New(backend.fetch)

	require.NoError(t, cache.Sync(context.Background()))
	cache.BeginWrite(false)
	cache.AddWritten(3)

	size, err := cache.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(23), size)
}

func TestConcurrentStaleReadsFetchOnce(t *testing.T) {
	backend := &fakeBackend{snap: &Snapshot{Size: 9}, delay: 20 * time.Millisecond}
	cache := New(backend.fetch)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			size, err := cache.Size(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, int64(9), size)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, backend.calls.Load())
}

func TestLocalMutations(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeBackend{snap: &Snapshot{Size: 5, Permissions: 0600}}
	cache := New(backend.fetch, WithClock(clock.Now))
	require.NoError(t, cache.Sync(context.Background()))

	cache.SetPermissions(01777)
	perm, err := cache.Permissions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, data.Permissions(0777), perm)

	mtime := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	cache.SetModTime(mtime)
	got, err := cache.ModTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, mtime, got)

	cache.MarkDeleted()
	exists, err := cache.Exists(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)

	cache.MarkDirectory()
	isDir, err := cache.IsDirectory(context.Background())
	require.NoError(t, err)
	assert.True(t, isDir)
	assert.EqualValues(t, 1, backend.calls.Load())
}

func TestNewFresh(t *testing.T) {
	backend := &fakeBackend{snap: &Snapshot{}}
	cache := NewFresh(Snapshot{Size: 3, Owner: "bob"}, backend.fetch)

	assert.Equal(t, StateFresh, cache.State())
	owner, err := cache.Owner(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bob", owner)
	assert.Zero(t, backend.calls.Load())
}

func TestSyncMetrics(t *testing.T) {
	collector := metrics.NewCollector("test")
	backend := &fakeBackend{snap: &Snapshot{}}
	cache := New(backend.fetch, WithMetrics(collector, "hdfs"))

	require.NoError(t, cache.Sync(context.Background()))
	backend.set(nil, fmt.Errorf("gone"))
	require.NoError(t, cache.Sync(context.Background()))
	cache.BeginWrite(true)
	require.NoError(t, cache.Sync(context.Background()))

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.AttributeSyncCounter("hdfs", metrics.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.AttributeSyncCounter("hdfs", metrics.ResultAbsent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.AttributeSyncCounter("hdfs", metrics.ResultSkipped)))
}
