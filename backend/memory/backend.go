package memory

import (
	"context"
	"sync"

	"github.com/mwantia/dfs/backend"
	"github.com/mwantia/dfs/data"
	"github.com/tidwall/btree"
)

// MemoryStore keeps the namespace in an ordered B-tree, which makes
// subtree scans a single ascending walk.
type MemoryStore struct {
	mu sync.RWMutex

	keys  *btree.Map[string, *data.Metadata]
	datas map[string][]byte
}

var _ backend.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		keys:  btree.NewMap[string, *data.Metadata](0),
		datas: make(map[string][]byte),
	}
	ms.seed()
	return ms
}

func (ms *MemoryStore) seed() {
	root := backend.NewRoot()
	ms.keys.Set(root.Key, root)
}

// Returns the identifier name defined for this store
func (*MemoryStore) Name() string {
	return "memory"
}

func (ms *MemoryStore) Open(ctx context.Context) error {
	return nil
}

// Close drops every entry; the store starts over with an empty root.
func (ms *MemoryStore) Close(ctx context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.keys.Clear()
	for k := range ms.datas {
		delete(ms.datas, k)
	}
	ms.seed()

	return nil
}
