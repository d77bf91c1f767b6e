package dfs

import (
	"io"
	"sync"
)

// PositionedReader is a backend input stream with absolute positioning.
type PositionedReader interface {
	io.ReadCloser

	// Position returns the current offset.
	Position() (int64, error)

	// SeekTo moves to an absolute offset.
	SeekTo(offset int64) error
}

type randomAccessReader struct {
	mu     sync.Mutex
	in     PositionedReader
	length int64
	closed bool
}

// NewRandomAccessReader adapts in to RandomAccessReader. Seeking relative
// to the end uses length.
func NewRandomAccessReader(in PositionedReader, length int64) RandomAccessReader {
	return &randomAccessReader{
		in:     in,
		length: length,
	}
}

func (r *randomAccessReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrClosed
	}
	return r.in.Read(p)
}

// Seek sets the offset for the next Read and returns it.
func (r *randomAccessReader) Seek(offset int64, whence int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrClosed
	}

	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		pos, err := r.in.Position()
		if err != nil {
			return 0, err
		}
		target = pos + offset
	case io.SeekEnd:
		target = r.length + offset
	default:
		return 0, ErrInvalid
	}

	if target < 0 {
		return 0, ErrInvalid
	}
	if err := r.in.SeekTo(target); err != nil {
		return 0, err
	}
	return target, nil
}

func (r *randomAccessReader) Offset() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrClosed
	}
	return r.in.Position()
}

func (r *randomAccessReader) Length() int64 {
	return r.length
}

func (r *randomAccessReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.in.Close()
}
