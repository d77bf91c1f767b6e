package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/mwantia/dfs/backend"
	"github.com/mwantia/dfs/data"
)

func (ss *SQLiteStore) content(ctx context.Context, tx *sql.Tx, id string) ([]byte, error) {
	var content []byte
	err := tx.QueryRowContext(ctx, "SELECT content FROM dfs_data WHERE id = ?", id).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return content, err
}

// file returns the record of a regular file inside tx.
func (ss *SQLiteStore) file(ctx context.Context, tx *sql.Tx, key string) (*data.Metadata, error) {
	meta, err := ss.get(ctx, tx, data.CleanPath(key))
	if err != nil {
		return nil, err
	}
	if meta.IsDir() {
		return nil, backend.ErrIsDirectory
	}
	return meta, nil
}

func (ss *SQLiteStore) ReadData(ctx context.Context, key string, offset int64, p []byte) (int, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	meta, err := ss.file(ctx, tx, key)
	if err != nil {
		return 0, err
	}
	if offset >= meta.Size {
		return 0, io.EOF
	}

	buffer, err := ss.content(ctx, tx, meta.ID)
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

func (ss *SQLiteStore) WriteData(ctx context.Context, key string, offset int64, p []byte) (int, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	meta, err := ss.file(ctx, tx, key)
	if err != nil {
		return 0, err
	}
	buffer, err := ss.content(ctx, tx, meta.ID)
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

	if err := ss.store(ctx, tx, meta, buffer, max(meta.Size, writeEnd)); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (ss *SQLiteStore) Truncate(ctx context.Context, key string, size int64) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	meta, err := ss.file(ctx, tx, key)
	if err != nil {
		return err
	}
	buffer, err := ss.content(ctx, tx, meta.ID)
	if err != nil {
		return err
	}
	if int64(len(buffer)) > size {
		buffer = buffer[:size]
	}

	if err := ss.store(ctx, tx, meta, buffer, size); err != nil {
		return err
	}
	return tx.Commit()
}

func (ss *SQLiteStore) store(ctx context.Context, tx *sql.Tx, meta *data.Metadata, buffer []byte, size int64) error {
	if buffer == nil {
		buffer = []byte{}
	}
	if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO dfs_data (id, content) VALUES (?, ?)", meta.ID, buffer); err != nil {
		return err
	}

	_, err := tx.ExecContext(ctx, "UPDATE dfs_metadata SET size = ?, modify_time = ? WHERE id = ?",
		size, time.Now().UnixNano(), meta.ID)
	return err
}
