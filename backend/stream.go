package backend

import (
	"errors"
	"sync"
)

var (
	errStreamClosed = errors.New("stream closed")
	errSeekPastEnd  = errors.New("cannot seek past end of file")
)

// streamReader reads the content of one key from a position it tracks.
// Faults are looked up under prefix+"Read" and similar names.
type streamReader struct {
	e      *Emulator
	prefix string
	key    string

	mu     sync.Mutex
	pos    int64
	closed bool
}

func (e *Emulator) newReader(prefix, key string) *streamReader {
	return &streamReader{e: e, prefix: prefix, key: key}
}

func (r *streamReader) Read(p []byte) (int, error) {
	if err := r.e.enter(r.prefix + "Read"); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, errStreamClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, err := r.e.store.ReadData(r.e.ctx(), r.key, r.pos, p)
	r.pos += int64(n)
	return n, err
}

// position reports the offset; op names the fault to look up.
func (r *streamReader) position(op string) (int64, error) {
	if err := r.e.enter(op); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, errStreamClosed
	}
	return r.pos, nil
}

// seek moves to pos, which may not lie past the end of the content.
func (r *streamReader) seek(pos int64) error {
	if err := r.e.enter(r.prefix + "Seek"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errStreamClosed
	}
	meta, err := r.e.store.Get(r.e.ctx(), r.key)
	if err != nil {
		return err
	}
	if pos < 0 || pos > meta.Size {
		return errSeekPastEnd
	}

	r.pos = pos
	return nil
}

func (r *streamReader) Close() error {
	if err := r.e.enter(r.prefix + "Close"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	return nil
}

// streamWriter appends to the content of one key.
type streamWriter struct {
	e      *Emulator
	prefix string
	key    string

	mu     sync.Mutex
	offset int64
	closed bool
}

func (e *Emulator) newWriter(prefix, key string, offset int64) *streamWriter {
	return &streamWriter{e: e, prefix: prefix, key: key, offset: offset}
}

func (w *streamWriter) Write(p []byte) (int, error) {
	if err := w.e.enter(w.prefix + "Write"); err != nil {
		return 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, errStreamClosed
	}

	n, err := w.e.store.WriteData(w.e.ctx(), w.key, w.offset, p)
	w.offset += int64(n)
	return n, err
}

// Close always closes the writer, even when a fault is injected.
func (w *streamWriter) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	return w.e.enter(w.prefix + "Close")
}
