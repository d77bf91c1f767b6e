package attrs

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCloser struct {
	bytes.Buffer
	closeErr error
}

func (f *failingCloser) Close() error {
	return f.closeErr
}

func TestCountingWriter(t *testing.T) {
	backend := &fakeBackend{snap: &Snapshot{}}
	cache := New(backend.fetch)
	cache.BeginWrite(true)

	sink := &failingCloser{}
	w := NewCountingWriter(sink, cache)

	_, err := w.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = w.Write([]byte("world"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), w.Written())

	size, err := cache.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(11), size)

	require.NoError(t, w.Close())
	assert.False(t, cache.IsWriting())
	assert.Equal(t, "hello world", sink.String())
}

func TestCountingWriterEndsWriteOnCloseError(t *testing.T) {
	backend := &fakeBackend{snap: &Snapshot{}}
	cache := New(backend.fetch)
	cache.BeginWrite(true)

	w := NewCountingWriter(&failingCloser{closeErr: fmt.Errorf("flush failed")}, cache)
	require.Error(t, w.Close())
	assert.False(t, cache.IsWriting())
}

func TestCountingWriterConcurrentReads(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeBackend{snap: &Snapshot{Size: 1000}}
	cache := New(backend.fetch, WithClock(clock.Now))
	cache.BeginWrite(true)
	w := NewCountingWriter(&failingCloser{}, cache)

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last int64
			for {
				select {
				case <-done:
					return
				default:
				}
				size, err := cache.Size(context.Background())
				assert.NoError(t, err)
				assert.GreaterOrEqual(t, size, last)
				last = size
			}
		}()
	}

	for i := 0; i < 200; i++ {
		clock.Advance(time.Minute)
		_, err := w.Write([]byte("0123456789"))
		require.NoError(t, err)
	}
	close(done)
	wg.Wait()

	size, err := cache.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2000), size)
	assert.Zero(t, backend.calls.Load())
	require.NoError(t, w.Close())
}
