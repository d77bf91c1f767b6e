package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mwantia/dfs/backend"
	"github.com/mwantia/dfs/data"
)

const metadataColumns = "id, key, mode, size, owner, grp, modify_time, access_time, create_time"

func metadataValues(meta *data.Metadata) []any {
	return []any{
		meta.ID, meta.Key, int64(meta.Mode), meta.Size, meta.Owner, meta.Group,
		meta.ModifyTime.UnixNano(), meta.AccessTime.UnixNano(), meta.CreateTime.UnixNano(),
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMetadata(row scanner) (*data.Metadata, error) {
	var (
		meta                               data.Metadata
		mode                               int64
		modifyTime, accessTime, createTime int64
	)

	if err := row.Scan(&meta.ID, &meta.Key, &mode, &meta.Size, &meta.Owner, &meta.Group,
		&modifyTime, &accessTime, &createTime); err != nil {
		return nil, err
	}

	meta.Mode = data.FileMode(mode)
	meta.ModifyTime = time.Unix(0, modifyTime)
	meta.AccessTime = time.Unix(0, accessTime)
	meta.CreateTime = time.Unix(0, createTime)
	return &meta, nil
}

// subtreeClause matches a key and everything beneath it.
func subtreeClause(key string) (string, []any) {
	prefix := backend.ChildPrefix(key)
	return "(key = ? OR substr(key, 1, ?) = ?)", []any{key, utf8.RuneCountInString(prefix), prefix}
}

func (ss *SQLiteStore) get(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, key string) (*data.Metadata, error) {
	meta, err := scanMetadata(q.QueryRowContext(ctx,
		"SELECT "+metadataColumns+" FROM dfs_metadata WHERE key = ?", key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, backend.NotExist("get", key)
	}
	return meta, err
}

func (ss *SQLiteStore) Get(ctx context.Context, key string) (*data.Metadata, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	return ss.get(ctx, ss.db, data.CleanPath(key))
}

func (ss *SQLiteStore) Put(ctx context.Context, meta *data.Metadata) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	meta = meta.Clone()
	meta.Key = data.CleanPath(meta.Key)
	if meta.ID == "" {
		meta.ID = data.NewID()
	}
	if meta.CreateTime.IsZero() {
		meta.CreateTime = time.Now()
	}

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Replacing an entry drops the previous content
	if _, err := tx.ExecContext(ctx, `DELETE FROM dfs_data WHERE id IN
		(SELECT id FROM dfs_metadata WHERE key = ? AND id <> ?)`, meta.Key, meta.ID); err != nil {
		return err
	}

	args := append(metadataValues(meta), data.ParentPath(meta.Key))
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO dfs_metadata (`+metadataColumns+`, parent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...); err != nil {
		return err
	}

	return tx.Commit()
}

func (ss *SQLiteStore) Update(ctx context.Context, key string, update *data.MetadataUpdate) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	meta, err := ss.get(ctx, ss.db, data.CleanPath(key))
	if err != nil {
		return err
	}

	// Key changes go through Rename
	update = &data.MetadataUpdate{Mask: update.Mask &^ data.MetadataUpdateKey, Metadata: update.Metadata}
	if !update.Apply(meta) {
		return nil
	}

	_, err = ss.db.ExecContext(ctx, `
		UPDATE dfs_metadata
		SET mode = ?, size = ?, owner = ?, grp = ?, modify_time = ?, access_time = ?
		WHERE id = ?
	`, int64(meta.Mode), meta.Size, meta.Owner, meta.Group,
		meta.ModifyTime.UnixNano(), meta.AccessTime.UnixNano(), meta.ID)
	return err
}

func (ss *SQLiteStore) Delete(ctx context.Context, key string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	key = data.CleanPath(key)
	if key == "/" {
		return backend.ErrRoot
	}

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := ss.get(ctx, tx, key); err != nil {
		return err
	}

	clause, args := subtreeClause(key)
	if _, err := tx.ExecContext(ctx, "DELETE FROM dfs_data WHERE id IN (SELECT id FROM dfs_metadata WHERE "+clause+")", args...); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM dfs_metadata WHERE "+clause, args...); err != nil {
		return err
	}

	return tx.Commit()
}

func (ss *SQLiteStore) Rename(ctx context.Context, key, newKey string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	key, newKey = data.CleanPath(key), data.CleanPath(newKey)
	if key == "/" || newKey == "/" {
		return backend.ErrRoot
	}
	if data.HasPrefix(newKey, key) {
		return backend.ErrSubtree
	}

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := ss.get(ctx, tx, key); err != nil {
		return backend.NotExist("rename", key)
	}
	if _, err := ss.get(ctx, tx, newKey); err == nil {
		return backend.Exist("rename", newKey)
	}

	clause, args := subtreeClause(key)
	rows, err := tx.QueryContext(ctx, "SELECT id, key FROM dfs_metadata WHERE "+clause, args...)
	if err != nil {
		return err
	}

	moved := make(map[string]string)
	for rows.Next() {
		var id, k string
		if err := rows.Scan(&id, &k); err != nil {
			rows.Close()
			return err
		}
		moved[id] = newKey + strings.TrimPrefix(k, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for id, k := range moved {
		if _, err := tx.ExecContext(ctx, "UPDATE dfs_metadata SET key = ?, parent = ? WHERE id = ?",
			k, data.ParentPath(k), id); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (ss *SQLiteStore) Children(ctx context.Context, key string) ([]*data.Metadata, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	key = data.CleanPath(key)
	if _, err := ss.get(ctx, ss.db, key); err != nil {
		return nil, err
	}

	rows, err := ss.db.QueryContext(ctx,
		"SELECT "+metadataColumns+" FROM dfs_metadata WHERE parent = ? ORDER BY key", key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	children := make([]*data.Metadata, 0)
	for rows.Next() {
		meta, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		children = append(children, meta)
	}

	return children, rows.Err()
}
