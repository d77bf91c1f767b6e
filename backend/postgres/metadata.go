package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
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

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanMetadata(row pgx.Row) (*data.Metadata, error) {
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

// subtreeClause matches a key and everything beneath it through $1 and $2.
func subtreeClause(key string) (string, []any) {
	return "(key = $1 OR substr(key, 1, length($2)) = $2)", []any{key, backend.ChildPrefix(key)}
}

func (ps *PostgresStore) get(ctx context.Context, q querier, key string) (*data.Metadata, error) {
	meta, err := scanMetadata(q.QueryRow(ctx,
		"SELECT "+metadataColumns+" FROM dfs_metadata WHERE key = $1", key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, backend.NotExist("get", key)
	}
	return meta, err
}

func (ps *PostgresStore) Get(ctx context.Context, key string) (*data.Metadata, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	return ps.get(ctx, ps.pool, data.CleanPath(key))
}

func (ps *PostgresStore) Put(ctx context.Context, meta *data.Metadata) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	meta = meta.Clone()
	meta.Key = data.CleanPath(meta.Key)
	if meta.ID == "" {
		meta.ID = data.NewID()
	}
	if meta.CreateTime.IsZero() {
		meta.CreateTime = time.Now()
	}

	tx, err := ps.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Replacing an entry drops the previous content
	if _, err := tx.Exec(ctx, `DELETE FROM dfs_data WHERE id IN
		(SELECT id FROM dfs_metadata WHERE key = $1 AND id <> $2)`, meta.Key, meta.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM dfs_metadata WHERE key = $1 AND id <> $2", meta.Key, meta.ID); err != nil {
		return err
	}

	args := append(metadataValues(meta), data.ParentPath(meta.Key))
	if _, err := tx.Exec(ctx, `INSERT INTO dfs_metadata (`+metadataColumns+`, parent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET key = EXCLUDED.key, parent = EXCLUDED.parent,
			mode = EXCLUDED.mode, size = EXCLUDED.size, owner = EXCLUDED.owner, grp = EXCLUDED.grp,
			modify_time = EXCLUDED.modify_time, access_time = EXCLUDED.access_time`, args...); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (ps *PostgresStore) Update(ctx context.Context, key string, update *data.MetadataUpdate) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	meta, err := ps.get(ctx, ps.pool, data.CleanPath(key))
	if err != nil {
		return err
	}

	// Key changes go through Rename
	update = &data.MetadataUpdate{Mask: update.Mask &^ data.MetadataUpdateKey, Metadata: update.Metadata}
	if !update.Apply(meta) {
		return nil
	}

	_, err = ps.pool.Exec(ctx, `
		UPDATE dfs_metadata
		SET mode = $1, size = $2, owner = $3, grp = $4, modify_time = $5, access_time = $6
		WHERE id = $7
	`, int64(meta.Mode), meta.Size, meta.Owner, meta.Group,
		meta.ModifyTime.UnixNano(), meta.AccessTime.UnixNano(), meta.ID)
	return err
}

func (ps *PostgresStore) Delete(ctx context.Context, key string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	key = data.CleanPath(key)
	if key == "/" {
		return backend.ErrRoot
	}

	tx, err := ps.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := ps.get(ctx, tx, key); err != nil {
		return err
	}

	clause, args := subtreeClause(key)
	if _, err := tx.Exec(ctx, "DELETE FROM dfs_data WHERE id IN (SELECT id FROM dfs_metadata WHERE "+clause+")", args...); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM dfs_metadata WHERE "+clause, args...); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (ps *PostgresStore) Rename(ctx context.Context, key, newKey string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	key, newKey = data.CleanPath(key), data.CleanPath(newKey)
	if key == "/" || newKey == "/" {
		return backend.ErrRoot
	}
	if data.HasPrefix(newKey, key) {
		return backend.ErrSubtree
	}

	tx, err := ps.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := ps.get(ctx, tx, key); err != nil {
		return backend.NotExist("rename", key)
	}
	if _, err := ps.get(ctx, tx, newKey); err == nil {
		return backend.Exist("rename", newKey)
	}

	clause, args := subtreeClause(key)
	rows, err := tx.Query(ctx, "SELECT id, key FROM dfs_metadata WHERE "+clause, args...)
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
		if _, err := tx.Exec(ctx, "UPDATE dfs_metadata SET key = $1, parent = $2 WHERE id = $3",
			k, data.ParentPath(k), id); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (ps *PostgresStore) Children(ctx context.Context, key string) ([]*data.Metadata, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	key = data.CleanPath(key)
	if _, err := ps.get(ctx, ps.pool, key); err != nil {
		return nil, err
	}

	rows, err := ps.pool.Query(ctx,
		"SELECT "+metadataColumns+" FROM dfs_metadata WHERE parent = $1 ORDER BY key COLLATE \"C\"", key)
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
