package kv

import (
	"context"
	"io"
	"time"

	"github.com/mwantia/dfs/backend"
	"github.com/mwantia/dfs/data"
)

// file returns the record of a regular file together with its content.
func (s *Store) file(ctx context.Context, op, key string) (*data.Metadata, []byte, error) {
	meta, err := s.get(ctx, op, data.CleanPath(key))
	if err != nil {
		return nil, nil, err
	}
	if meta.IsDir() {
		return nil, nil, backend.ErrIsDirectory
	}

	buffer, _, err := s.bucket.Get(ctx, dataKey(meta.ID))
	if err != nil {
		return nil, nil, err
	}
	return meta, buffer, nil
}

// store writes the content and the new size of meta.
func (s *Store) store(ctx context.Context, meta *data.Metadata, buffer []byte, size int64) error {
	if buffer == nil {
		buffer = []byte{}
	}
	if err := s.bucket.Put(ctx, dataKey(meta.ID), buffer); err != nil {
		return err
	}

	meta.Size = size
	meta.ModifyTime = time.Now()
	return s.put(ctx, meta)
}

func (s *Store) ReadData(ctx context.Context, key string, offset int64, p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, buffer, err := s.file(ctx, "read", key)
	if err != nil {
		return 0, err
	}
	if offset >= meta.Size {
		return 0, io.EOF
	}

	end := min(offset+int64(len(p)), meta.Size)
	n := 0
	if offset < int64(len(buffer)) {
		n = copy(p, buffer[offset:min(end, int64(len(buffer)))])
	}
	for i := n; int64(i) < end-offset; i++ {
		p[i] = 0
	}
	return int(end - offset), nil
}

func (s *Store) WriteData(ctx context.Context, key string, offset int64, p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, buffer, err := s.file(ctx, "write", key)
	if err != nil {
		return 0, err
	}

	writeEnd := offset + int64(len(p))
	if size := max(writeEnd, meta.Size); int64(len(buffer)) < size {
		expanded := make([]byte, size)
		copy(expanded, buffer)
		buffer = expanded
	}
	copy(buffer[offset:], p)

	if err := s.store(ctx, meta, buffer, max(meta.Size, writeEnd)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *Store) Truncate(ctx context.Context, key string, size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, buffer, err := s.file(ctx, "truncate", key)
	if err != nil {
		return err
	}
	if int64(len(buffer)) > size {
		buffer = buffer[:size]
	}
	return s.store(ctx, meta, buffer, size)
}
