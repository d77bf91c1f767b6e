package memory

import (
	"context"
	"io"
	"time"

	"github.com/mwantia/dfs/backend"
	"github.com/mwantia/dfs/data"
)

func (ms *MemoryStore) ReadData(ctx context.Context, key string, offset int64, p []byte) (int, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	meta, exists := ms.keys.Get(data.CleanPath(key))
	if !exists {
		return 0, backend.NotExist("read", key)
	}
	if meta.IsDir() {
		return 0, backend.ErrIsDirectory
	}

	if offset >= meta.Size {
		return 0, io.EOF
	}

	buffer := ms.datas[meta.ID]
	end := min(offset+int64(len(p)), meta.Size)
	n := 0
	if offset < int64(len(buffer)) {
		n = copy(p, buffer[offset:min(end, int64(len(buffer)))])
	}
	// Sparse tail after a truncate-extend reads as zeros
	for i := n; int64(i) < end-offset; i++ {
		p[i] = 0
	}
	return int(end - offset), nil
}

func (ms *MemoryStore) WriteData(ctx context.Context, key string, offset int64, p []byte) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	meta, exists := ms.keys.Get(data.CleanPath(key))
	if !exists {
		return 0, backend.NotExist("write", key)
	}
	if meta.IsDir() {
		return 0, backend.ErrIsDirectory
	}

	writeEnd := offset + int64(len(p))
	buffer := ms.datas[meta.ID]

	// Expand buffer if needed
	if size := max(writeEnd, meta.Size); int64(len(buffer)) < size {
		expanded := make([]byte, size)
		copy(expanded, buffer)
		buffer = expanded
	}

	copy(buffer[offset:], p)
	ms.datas[meta.ID] = buffer

	meta.Size = max(meta.Size, writeEnd)
	meta.ModifyTime = time.Now()
	return len(p), nil
}

func (ms *MemoryStore) Truncate(ctx context.Context, key string, size int64) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	meta, exists := ms.keys.Get(data.CleanPath(key))
	if !exists {
		return backend.NotExist("truncate", key)
	}
	if meta.IsDir() {
		return backend.ErrIsDirectory
	}

	if buffer := ms.datas[meta.ID]; int64(len(buffer)) > size {
		ms.datas[meta.ID] = buffer[:size]
	}
	meta.Size = size
	meta.ModifyTime = time.Now()
	return nil
}
