// Package kv keeps an emulator namespace in a flat key/value service such
// as an S3 bucket or the Consul KV store. Every entry is one JSON record
// under "meta<path>", file content is one value under "data/<id>".
package kv

import (
	"context"
	"strings"
	"sync"

	"github.com/mwantia/dfs/backend"
	"github.com/mwantia/dfs/data"
)

const (
	metaPrefix = "meta"
	dataPrefix = "data/"
)

// Bucket is the minimal key/value surface a Store needs.
type Bucket interface {
	// Get returns the value of key; ok is false when the key is missing.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys returns every key starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Close releases the client.
	Close() error
}

// Store implements backend.Store over a Bucket. Concurrent access from
// several processes is not coordinated.
type Store struct {
	mu sync.Mutex

	name   string
	bucket Bucket
}

var _ backend.Store = (*Store)(nil)

func NewStore(name string, bucket Bucket) *Store {
	return &Store{
		name:   name,
		bucket: bucket,
	}
}

// Returns the identifier name defined for this store
func (s *Store) Name() string {
	return s.name
}

// Open creates the root record unless the bucket already holds one.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok, err := s.bucket.Get(ctx, metaKey("/")); err != nil || ok {
		return err
	}
	return s.put(ctx, backend.NewRoot())
}

func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.bucket.Close()
}

func metaKey(key string) string {
	return metaPrefix + key
}

func dataKey(id string) string {
	return dataPrefix + id
}

func (s *Store) get(ctx context.Context, op, key string) (*data.Metadata, error) {
	raw, ok, err := s.bucket.Get(ctx, metaKey(key))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, backend.NotExist(op, key)
	}

	var meta data.Metadata
	if err := meta.Unmarshal(raw); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) put(ctx context.Context, meta *data.Metadata) error {
	raw, err := meta.Marshal()
	if err != nil {
		return err
	}
	return s.bucket.Put(ctx, metaKey(meta.Key), raw)
}

// subtree returns key and every descendant.
func (s *Store) subtree(ctx context.Context, key string) ([]*data.Metadata, error) {
	root, err := s.get(ctx, "get", key)
	if err != nil {
		return nil, err
	}

	keys, err := s.bucket.Keys(ctx, metaKey(backend.ChildPrefix(key)))
	if err != nil {
		return nil, err
	}

	result := []*data.Metadata{root}
	for _, k := range keys {
		path := strings.TrimPrefix(k, metaPrefix)
		if path == key {
			continue
		}
		meta, err := s.get(ctx, "get", path)
		if err != nil {
			return nil, err
		}
		result = append(result, meta)
	}
	return result, nil
}
