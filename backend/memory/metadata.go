package memory

import (
	"context"
	"strings"
	"time"

	"github.com/mwantia/dfs/backend"
	"github.com/mwantia/dfs/data"
)

func (ms *MemoryStore) Get(ctx context.Context, key string) (*data.Metadata, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	meta, exists := ms.keys.Get(data.CleanPath(key))
	if !exists {
		return nil, backend.NotExist("get", key)
	}
	return meta.Clone(), nil
}

func (ms *MemoryStore) Put(ctx context.Context, meta *data.Metadata) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	meta = meta.Clone()
	meta.Key = data.CleanPath(meta.Key)
	if meta.ID == "" {
		meta.ID = data.NewID()
	}
	if meta.CreateTime.IsZero() {
		meta.CreateTime = time.Now()
	}

	// Replacing an entry drops the previous content
	if previous, exists := ms.keys.Get(meta.Key); exists && previous.ID != meta.ID {
		delete(ms.datas, previous.ID)
	}

	ms.keys.Set(meta.Key, meta)
	return nil
}

func (ms *MemoryStore) Update(ctx context.Context, key string, update *data.MetadataUpdate) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	meta, exists := ms.keys.Get(data.CleanPath(key))
	if !exists {
		return backend.NotExist("update", key)
	}

	// Key changes go through Rename
	update = &data.MetadataUpdate{Mask: update.Mask &^ data.MetadataUpdateKey, Metadata: update.Metadata}
	update.Apply(meta)
	return nil
}

func (ms *MemoryStore) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	key = data.CleanPath(key)
	if key == "/" {
		return backend.ErrRoot
	}
	if _, exists := ms.keys.Get(key); !exists {
		return backend.NotExist("delete", key)
	}

	for _, meta := range ms.subtree(key) {
		ms.keys.Delete(meta.Key)
		delete(ms.datas, meta.ID)
	}
	return nil
}

func (ms *MemoryStore) Rename(ctx context.Context, key, newKey string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	key, newKey = data.CleanPath(key), data.CleanPath(newKey)
	if key == "/" || newKey == "/" {
		return backend.ErrRoot
	}
	if data.HasPrefix(newKey, key) {
		return backend.ErrSubtree
	}
	if _, exists := ms.keys.Get(key); !exists {
		return backend.NotExist("rename", key)
	}
	if _, exists := ms.keys.Get(newKey); exists {
		return backend.Exist("rename", newKey)
	}

	moved := ms.subtree(key)
	for _, meta := range moved {
		ms.keys.Delete(meta.Key)
	}
	for _, meta := range moved {
		meta.Key = newKey + strings.TrimPrefix(meta.Key, key)
		ms.keys.Set(meta.Key, meta)
	}
	return nil
}

func (ms *MemoryStore) Children(ctx context.Context, key string) ([]*data.Metadata, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	key = data.CleanPath(key)
	if _, exists := ms.keys.Get(key); !exists {
		return nil, backend.NotExist("children", key)
	}

	prefix := backend.ChildPrefix(key)
	children := make([]*data.Metadata, 0)
	ms.keys.Ascend(prefix, func(k string, meta *data.Metadata) bool {
		if !strings.HasPrefix(k, prefix) {
			return false
		}
		if rest := k[len(prefix):]; rest != "" && !strings.Contains(rest, "/") {
			children = append(children, meta.Clone())
		}
		return true
	})
	return children, nil
}

// subtree returns key and every descendant. Callers hold the lock.
func (ms *MemoryStore) subtree(key string) []*data.Metadata {
	result := make([]*data.Metadata, 0)
	if meta, exists := ms.keys.Get(key); exists {
		result = append(result, meta)
	}

	prefix := backend.ChildPrefix(key)
	ms.keys.Ascend(prefix, func(k string, meta *data.Metadata) bool {
		if !strings.HasPrefix(k, prefix) {
			return false
		}
		if k != key {
			result = append(result, meta)
		}
		return true
	})
	return result
}
