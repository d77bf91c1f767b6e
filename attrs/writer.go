package attrs

import (
	"io"
	"sync"
	"sync/atomic"
)

// CountingWriter feeds the number of written bytes back into a Cache and
// ends the write when closed.
type CountingWriter struct {
	w       io.WriteCloser
	cache   *Cache
	written atomic.Int64
	once    sync.Once
}

// NewCountingWriter wraps w. The caller is expected to have called
// BeginWrite on cache.
func NewCountingWriter(w io.WriteCloser, cache *Cache) *CountingWriter {
	return &CountingWriter{w: w, cache: cache}
}

func (cw *CountingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	if n > 0 {
		cw.written.Add(int64(n))
		cw.cache.AddWritten(int64(n))
	}
	return n, err
}

// Close closes the underlying writer. The write ends even if closing
// fails.
func (cw *CountingWriter) Close() error {
	err := cw.w.Close()
	cw.once.Do(cw.cache.EndWrite)
	return err
}

// Written returns the number of bytes written so far.
func (cw *CountingWriter) Written() int64 {
	return cw.written.Load()
}
