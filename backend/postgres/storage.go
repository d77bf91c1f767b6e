package postgres

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mwantia/dfs/backend"
	"github.com/mwantia/dfs/data"
)

func (ps *PostgresStore) content(ctx context.Context, tx pgx.Tx, id string) ([]byte, error) {
	var content []byte
	err := tx.QueryRow(ctx, "SELECT content FROM dfs_data WHERE id = $1", id).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return content, err
}

// file returns the record of a regular file inside tx.
func (ps *PostgresStore) file(ctx context.Context, tx pgx.Tx, key string) (*data.Metadata, error) {
	meta, err := ps.get(ctx, tx, data.CleanPath(key))
	if err != nil {
		return nil, err
	}
	if meta.IsDir() {
		return nil, backend.ErrIsDirectory
	}
	return meta, nil
}

func (ps *PostgresStore) ReadData(ctx context.Context, key string, offset int64, p []byte) (int, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	tx, err := ps.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	meta, err := ps.file(ctx, tx, key)
	if err != nil {
		return 0, err
	}
	if offset >= meta.Size {
		return 0, io.EOF
	}

	buffer, err := ps.content(ctx, tx, meta.ID)
	if err != nil {
		return 0, err
	}

	end := min(offset+int64(len(p)), meta.Size)
	n := 0
	if offset < int64(len(buffer)) {
		n = copy(p, buffer[offset:min(end, int64(len(buffer)))])
	}
	for i := n; int64(i) < end-offset; i++ {
		p[i] = 0
	}
	return int(end - offset), nil
}

func (ps *PostgresStore) WriteData(ctx context.Context, key string, offset int64, p []byte) (int, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	tx, err := ps.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	meta, err := ps.file(ctx, tx, key)
	if err != nil {
		return 0, err
	}
	buffer, err := ps.content(ctx, tx, meta.ID)
	if err != nil {
		return 0, err
	}

	writeEnd := offset + int64(len(p))
	if size := max(writeEnd, meta.Size); int64(len(buffer)) < size {
		expanded := make([]byte, size)
		copy(expanded, buffer)
		buffer = expanded
	}
	copy(buffer[offset:], p)

	if err := ps.store(ctx, tx, meta, buffer, max(meta.Size, writeEnd)); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (ps *PostgresStore) Truncate(ctx context.Context, key string, size int64) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	tx, err := ps.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	meta, err := ps.file(ctx, tx, key)
	if err != nil {
		return err
	}
	buffer, err := ps.content(ctx, tx, meta.ID)
	if err != nil {
		return err
	}
	if int64(len(buffer)) > size {
		buffer = buffer[:size]
	}

	if err := ps.store(ctx, tx, meta, buffer, size); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (ps *PostgresStore) store(ctx context.Context, tx pgx.Tx, meta *data.Metadata, buffer []byte, size int64) error {
	if buffer == nil {
		buffer = []byte{}
	}
	if _, err := tx.Exec(ctx, `INSERT INTO dfs_data (id, content) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content`, meta.ID, buffer); err != nil {
		return err
	}

	_, err := tx.Exec(ctx, "UPDATE dfs_metadata SET size = $1, modify_time = $2 WHERE id = $3",
		size, time.Now().UnixNano(), meta.ID)
	return err
}
