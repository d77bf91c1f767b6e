package backend_test

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"testing"

	"github.com/mwantia/dfs/backend"
	"github.com/mwantia/dfs/backend/local"
	"github.com/mwantia/dfs/backend/memory"
	"github.com/mwantia/dfs/backend/postgres"
	"github.com/mwantia/dfs/backend/sqlite"
	"github.com/mwantia/dfs/data"
)

// TestStoreFactory creates a new store instance for testing.
type TestStoreFactory func(t *testing.T) (backend.Store, error)

// GetTestStoreFactories returns all store implementations to test.
func GetTestStoreFactories() map[string]TestStoreFactory {
	factories := map[string]TestStoreFactory{
		"memory": func(t *testing.T) (backend.Store, error) {
			return memory.NewMemoryStore(), nil
		},
		"sqlite": func(t *testing.T) (backend.Store, error) {
			return sqlite.NewSQLiteStore(":memory:")
		},
		"local": func(t *testing.T) (backend.Store, error) {
			return local.NewStore(t.TempDir())
		},
	}

	// Requires a disposable database, every run deletes its content
	if dsn := os.Getenv("DFS_TEST_POSTGRES"); dsn != "" {
		factories["postgres"] = func(t *testing.T) (backend.Store, error) {
			store, err := postgres.NewPostgresStore(t.Context(), dsn)
			if err != nil {
				return nil, err
			}
			children, err := store.Children(t.Context(), "/")
			if err != nil {
				return nil, err
			}
			for _, child := range children {
				if err := store.Delete(t.Context(), child.Key); err != nil {
					return nil, err
				}
			}
			return store, nil
		}
	}

	return factories
}

func openStore(tst *testing.T, factory TestStoreFactory) backend.Store {
	store, err := factory(tst)
	if err != nil {
		tst.Fatalf("Store init failed: %v", err)
	}
	if err := store.Open(tst.Context()); err != nil {
		tst.Fatalf("Store open failed: %v", err)
	}
	tst.Cleanup(func() {
		store.Close(tst.Context())
	})
	return store
}

// TestAllStores_Root verifies that every store starts with a root directory.
func TestAllStores_Root(t *testing.T) {
	for name, factory := range GetTestStoreFactories() {
		t.Run(name, func(tst *testing.T) {
			store := openStore(tst, factory)

			root, err := store.Get(tst.Context(), "/")
			if err != nil {
				tst.Fatalf("Get root failed: %v", err)
			}
			if !root.IsDir() {
				tst.Errorf("Expected root to be a directory")
			}

			if err := store.Delete(tst.Context(), "/"); !errors.Is(err, backend.ErrRoot) {
				tst.Errorf("Expected ErrRoot, got %v", err)
			}
		})
	}
}

// TestAllStores_FileContent verifies write, read, append and truncate.
func TestAllStores_FileContent(t *testing.T) {
	for name, factory := range GetTestStoreFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()
			store := openStore(tst, factory)

			if err := store.Put(ctx, data.NewFileMetadata("/test.txt", 0644)); err != nil {
				tst.Fatalf("Put failed: %v", err)
			}

			if _, err := store.WriteData(ctx, "/test.txt", 0, []byte("hello")); err != nil {
				tst.Fatalf("WriteData failed: %v", err)
			}
			if _, err := store.WriteData(ctx, "/test.txt", 5, []byte(" world")); err != nil {
				tst.Fatalf("WriteData failed: %v", err)
			}

			meta, err := store.Get(ctx, "/test.txt")
			if err != nil {
				tst.Fatalf("Get failed: %v", err)
			}
			if meta.Size != 11 {
				tst.Errorf("Expected size 11, got %d", meta.Size)
			}

			buffer := make([]byte, 32)
			n, err := store.ReadData(ctx, "/test.txt", 6, buffer)
			if err != nil {
				tst.Fatalf("ReadData failed: %v", err)
			}
			if got := buffer[:n]; !bytes.Equal(got, []byte("world")) {
				tst.Errorf("Expected %q, got %q", "world", got)
			}

			if _, err := store.ReadData(ctx, "/test.txt", 11, buffer); err != io.EOF {
				tst.Errorf("Expected io.EOF, got %v", err)
			}

			if err := store.Truncate(ctx, "/test.txt", 5); err != nil {
				tst.Fatalf("Truncate failed: %v", err)
			}
			n, _ = store.ReadData(ctx, "/test.txt", 0, buffer)
			if got := buffer[:n]; !bytes.Equal(got, []byte("hello")) {
				tst.Errorf("Expected %q after truncate, got %q", "hello", got)
			}

			// Replacing the record drops the previous content
			if err := store.Put(ctx, data.NewFileMetadata("/test.txt", 0644)); err != nil {
				tst.Fatalf("Put failed: %v", err)
			}
			if _, err := store.ReadData(ctx, "/test.txt", 0, buffer); err != io.EOF {
				tst.Errorf("Expected empty content after replace, got %v", err)
			}
		})
	}
}

// TestAllStores_DirectoryContent rejects content operations on directories.
func TestAllStores_DirectoryContent(t *testing.T) {
	for name, factory := range GetTestStoreFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()
			store := openStore(tst, factory)

			if err := store.Put(ctx, data.NewDirectoryMetadata("/data", 0755)); err != nil {
				tst.Fatalf("Put failed: %v", err)
			}
			if _, err := store.WriteData(ctx, "/data", 0, []byte("x")); !errors.Is(err, backend.ErrIsDirectory) {
				tst.Errorf("Expected ErrIsDirectory, got %v", err)
			}
		})
	}
}

// TestAllStores_Children verifies that only direct children are listed, in
// key order.
func TestAllStores_Children(t *testing.T) {
	for name, factory := range GetTestStoreFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()
			store := openStore(tst, factory)

			for _, meta := range []*data.Metadata{
				data.NewDirectoryMetadata("/a", 0755),
				data.NewFileMetadata("/a/z.txt", 0644),
				data.NewFileMetadata("/a/b.txt", 0644),
				data.NewDirectoryMetadata("/a/c", 0755),
				data.NewFileMetadata("/a/c/deep.txt", 0644),
				data.NewFileMetadata("/ab.txt", 0644),
			} {
				if err := store.Put(ctx, meta); err != nil {
					tst.Fatalf("Put %s failed: %v", meta.Key, err)
				}
			}

			children, err := store.Children(ctx, "/a")
			if err != nil {
				tst.Fatalf("Children failed: %v", err)
			}

			var keys []string
			for _, child := range children {
				keys = append(keys, child.Key)
			}
			expected := []string{"/a/b.txt", "/a/c", "/a/z.txt"}
			if len(keys) != len(expected) {
				tst.Fatalf("Expected %v, got %v", expected, keys)
			}
			for i := range expected {
				if keys[i] != expected[i] {
					tst.Errorf("Expected %v, got %v", expected, keys)
				}
			}

			root, err := store.Children(ctx, "/")
			if err != nil {
				tst.Fatalf("Children of root failed: %v", err)
			}
			if len(root) != 2 {
				tst.Errorf("Expected 2 root children, got %d", len(root))
			}

			if _, err := store.Children(ctx, "/missing"); !errors.Is(err, fs.ErrNotExist) {
				tst.Errorf("Expected fs.ErrNotExist, got %v", err)
			}
		})
	}
}

// TestAllStores_RenameSubtree verifies that rename moves every descendant
// together with its content.
func TestAllStores_RenameSubtree(t *testing.T) {
	for name, factory := range GetTestStoreFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()
			store := openStore(tst, factory)

			store.Put(ctx, data.NewDirectoryMetadata("/src", 0755))
			store.Put(ctx, data.NewDirectoryMetadata("/src/nested", 0755))
			store.Put(ctx, data.NewFileMetadata("/src/nested/file.txt", 0644))
			store.WriteData(ctx, "/src/nested/file.txt", 0, []byte("payload"))

			if err := store.Rename(ctx, "/src", "/dst"); err != nil {
				tst.Fatalf("Rename failed: %v", err)
			}

			if _, err := store.Get(ctx, "/src"); !errors.Is(err, fs.ErrNotExist) {
				tst.Errorf("Expected /src to be gone, got %v", err)
			}

			buffer := make([]byte, 16)
			n, err := store.ReadData(ctx, "/dst/nested/file.txt", 0, buffer)
			if err != nil {
				tst.Fatalf("ReadData after rename failed: %v", err)
			}
			if got := string(buffer[:n]); got != "payload" {
				tst.Errorf("Expected payload, got %q", got)
			}

			children, err := store.Children(ctx, "/dst")
			if err != nil || len(children) != 1 {
				tst.Errorf("Expected one child of /dst, got %d (%v)", len(children), err)
			}

			if err := store.Rename(ctx, "/dst", "/dst/inner"); !errors.Is(err, backend.ErrSubtree) {
				tst.Errorf("Expected ErrSubtree, got %v", err)
			}
		})
	}
}

// TestAllStores_DeleteSubtree verifies recursive deletion.
func TestAllStores_DeleteSubtree(t *testing.T) {
	for name, factory := range GetTestStoreFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()
			store := openStore(tst, factory)

			store.Put(ctx, data.NewDirectoryMetadata("/dir", 0755))
			store.Put(ctx, data.NewFileMetadata("/dir/a.txt", 0644))
			store.Put(ctx, data.NewFileMetadata("/dirty.txt", 0644))

			if err := store.Delete(ctx, "/dir"); err != nil {
				tst.Fatalf("Delete failed: %v", err)
			}
			if _, err := store.Get(ctx, "/dir/a.txt"); !errors.Is(err, fs.ErrNotExist) {
				tst.Errorf("Expected descendant to be deleted, got %v", err)
			}
			if _, err := store.Get(ctx, "/dirty.txt"); err != nil {
				tst.Errorf("Sibling with shared prefix must survive, got %v", err)
			}
		})
	}
}

// TestAllStores_Update verifies partial updates keep the directory flag.
func TestAllStores_Update(t *testing.T) {
	for name, factory := range GetTestStoreFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()
			store := openStore(tst, factory)

			store.Put(ctx, data.NewDirectoryMetadata("/dir", 0755))
			err := store.Update(ctx, "/dir", &data.MetadataUpdate{
				Mask:     data.MetadataUpdateMode | data.MetadataUpdateOwner,
				Metadata: &data.Metadata{Mode: data.NewFileMode(false, 0700), Owner: "alice", Group: "staff"},
			})
			if err != nil {
				tst.Fatalf("Update failed: %v", err)
			}

			meta, err := store.Get(ctx, "/dir")
			if err != nil {
				tst.Fatalf("Get failed: %v", err)
			}
			if !meta.IsDir() || meta.Mode.Perm() != 0700 {
				tst.Errorf("Expected drwx------, got %s", meta.Mode)
			}
			if meta.Owner != "alice" || meta.Group != "staff" {
				tst.Errorf("Expected alice:staff, got %s:%s", meta.Owner, meta.Group)
			}
		})
	}
}
