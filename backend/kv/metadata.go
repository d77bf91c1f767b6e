package kv

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mwantia/dfs/backend"
	"github.com/mwantia/dfs/data"
)

func (s *Store) Get(ctx context.Context, key string) (*data.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.get(ctx, "get", data.CleanPath(key))
}

func (s *Store) Put(ctx context.Context, meta *data.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta = meta.Clone()
	meta.Key = data.CleanPath(meta.Key)
	if meta.ID == "" {
		meta.ID = data.NewID()
	}
	if meta.CreateTime.IsZero() {
		meta.CreateTime = time.Now()
	}

	// Replacing an entry drops the previous content
	if previous, err := s.get(ctx, "put", meta.Key); err == nil && previous.ID != meta.ID {
		if err := s.bucket.Delete(ctx, dataKey(previous.ID)); err != nil {
			return err
		}
	}

	return s.put(ctx, meta)
}

func (s *Store) Update(ctx context.Context, key string, update *data.MetadataUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.get(ctx, "update", data.CleanPath(key))
	if err != nil {
		return err
	}

	// Key changes go through Rename
	update = &data.MetadataUpdate{Mask: update.Mask &^ data.MetadataUpdateKey, Metadata: update.Metadata}
	if !update.Apply(meta) {
		return nil
	}
	return s.put(ctx, meta)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key = data.CleanPath(key)
	if key == "/" {
		return backend.ErrRoot
	}

	entries, err := s.subtree(ctx, key)
	if err != nil {
		return backend.NotExist("delete", key)
	}

	// Children first, a failure leaves the parent in place
	for i := len(entries) - 1; i >= 0; i-- {
		if err := s.bucket.Delete(ctx, dataKey(entries[i].ID)); err != nil {
			return err
		}
		if err := s.bucket.Delete(ctx, metaKey(entries[i].Key)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Rename(ctx context.Context, key, newKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, newKey = data.CleanPath(key), data.CleanPath(newKey)
	if key == "/" || newKey == "/" {
		return backend.ErrRoot
	}
	if data.HasPrefix(newKey, key) {
		return backend.ErrSubtree
	}

	entries, err := s.subtree(ctx, key)
	if err != nil {
		return backend.NotExist("rename", key)
	}
	if _, err := s.get(ctx, "rename", newKey); err == nil {
		return backend.Exist("rename", newKey)
	}

	// Content is keyed by id and stays where it is
	for _, meta := range entries {
		old := meta.Key
		meta.Key = newKey + strings.TrimPrefix(old, key)
		if err := s.put(ctx, meta); err != nil {
			return err
		}
		if err := s.bucket.Delete(ctx, metaKey(old)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Children(ctx context.Context, key string) ([]*data.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key = data.CleanPath(key)
	if _, err := s.get(ctx, "children", key); err != nil {
		return nil, err
	}

	prefix := backend.ChildPrefix(key)
	keys, err := s.bucket.Keys(ctx, metaKey(prefix))
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)

	children := make([]*data.Metadata, 0)
	for _, k := range keys {
		rest := strings.TrimPrefix(k, metaKey(prefix))
		if rest == "" || strings.Contains(rest, "/") {
			continue
		}
		meta, err := s.get(ctx, "children", prefix+rest)
		if err != nil {
			return nil, err
		}
		children = append(children, meta)
	}
	return children, nil
}
