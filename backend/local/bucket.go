// Package local keeps an emulator namespace in a directory of the host
// filesystem, one file per key.
package local

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwantia/dfs/backend/kv"
)

type bucket struct {
	root string
}

var _ kv.Bucket = (*bucket)(nil)

// NewStore uses root, which is created when missing.
func NewStore(root string) (*kv.Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return kv.NewStore("local", &bucket{root: root}), nil
}

// Keys are escaped into flat file names, "meta/a" and "meta/a/b" can both
// be files.
func (b *bucket) resolvePath(key string) string {
	return filepath.Join(b.root, url.PathEscape(key))
}

func (b *bucket) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := os.ReadFile(b.resolvePath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Put replaces the file through a rename so readers never see a partial
// value.
func (b *bucket) Put(ctx context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(b.root, ".put-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), b.resolvePath(key))
}

func (b *bucket) Delete(ctx context.Context, key string) error {
	err := os.Remove(b.resolvePath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (b *bucket) Keys(ctx context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		key, err := url.PathUnescape(entry.Name())
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (b *bucket) Close() error {
	return nil
}
