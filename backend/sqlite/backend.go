package sqlite

import (
	"context"
	"database/sql"
	"sync"

	"github.com/mwantia/dfs/backend"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists the namespace in two tables:
//
//	dfs_metadata  one row per entry, indexed by parent for listings
//	dfs_data      file content keyed by entry id
//
// Compound operations run inside transactions.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

var _ backend.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at dbPath, which can be ":memory:".
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, err
	}

	store := &SQLiteStore{
		db: db,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (ss *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS dfs_metadata (
		id TEXT PRIMARY KEY,
		key TEXT NOT NULL UNIQUE,
		parent TEXT NOT NULL,
		mode INTEGER NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		owner TEXT NOT NULL DEFAULT '',
		grp TEXT NOT NULL DEFAULT '',
		modify_time INTEGER NOT NULL,
		access_time INTEGER NOT NULL,
		create_time INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_dfs_metadata_parent ON dfs_metadata(parent);

	CREATE TABLE IF NOT EXISTS dfs_data (
		id TEXT PRIMARY KEY,
		content BLOB NOT NULL
	);
	`

	if _, err := ss.db.Exec(schema); err != nil {
		return err
	}

	root := backend.NewRoot()
	_, err := ss.db.Exec(`INSERT OR IGNORE INTO dfs_metadata (`+metadataColumns+`, parent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, '')`, metadataValues(root)...)
	return err
}

// Returns the identifier name defined for this store
func (*SQLiteStore) Name() string {
	return "sqlite"
}

// Open verifies the database connection.
func (ss *SQLiteStore) Open(ctx context.Context) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	return ss.db.PingContext(ctx)
}

func (ss *SQLiteStore) Close(ctx context.Context) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	return ss.db.Close()
}
