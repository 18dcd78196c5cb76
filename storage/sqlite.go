package storage

import (
	"context"
	"database/sql"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/parquedb/parquedb/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS blocks (
	path TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	etag TEXT NOT NULL,
	size INTEGER NOT NULL
);
`

// SQLiteBackend stores objects in a single-table SQLite database, per spec
// §4.1's blocks-table reference implementation. It uses ncruces/go-sqlite3,
// a pure-Go (wazero) driver, the same choice the pack's BeadsLog repo makes
// to avoid a cgo dependency.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (and, if needed, creates) a SQLite-backed store at
// dsn, which may be a file path or "file::memory:?cache=shared" for a
// hermetic in-process database.
func NewSQLiteBackend(ctx context.Context, dsn string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, core.NewError(core.CodeIO, "NewSQLiteBackend", dsn, err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, core.NewError(core.CodeIO, "NewSQLiteBackend", dsn, err)
	}
	return &SQLiteBackend{db: db}, nil
}

// Close releases the underlying database handle.
func (b *SQLiteBackend) Close() error { return b.db.Close() }

func (b *SQLiteBackend) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ValidatePath("Read", path); err != nil {
		return nil, err
	}
	var data []byte
	err := b.db.QueryRowContext(ctx, `SELECT data FROM blocks WHERE path = ?`, path).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, core.NewErrorf(core.CodeNotFound, "Read", path, "object not found")
	}
	if err != nil {
		return nil, core.NewError(core.CodeIO, "Read", path, err)
	}
	return data, nil
}

func (b *SQLiteBackend) ReadRange(ctx context.Context, path string, start, end int64) ([]byte, error) {
	if err := ValidateRange("ReadRange", path, start, end); err != nil {
		return nil, err
	}
	data, err := b.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	n := int64(len(data))
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}
	if start >= end {
		return []byte{}, nil
	}
	return data[start:end], nil
}

func (b *SQLiteBackend) put(ctx context.Context, path string, data []byte) (string, error) {
	etag := etagOf(data)
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO blocks (path, data, etag, size) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET data = excluded.data, etag = excluded.etag, size = excluded.size
	`, path, data, etag, len(data))
	if err != nil {
		return "", core.NewError(core.CodeIO, "Write", path, err)
	}
	return etag, nil
}

func (b *SQLiteBackend) Write(ctx context.Context, path string, data []byte) (string, error) {
	if err := ValidatePath("Write", path); err != nil {
		return "", err
	}
	if err := ValidateBuffer("Write", path, data); err != nil {
		return "", err
	}
	return b.put(ctx, path, data)
}

// WriteAtomic is equivalent to Write: SQLite's own transaction semantics
// around a single-row upsert already make the write all-or-nothing.
func (b *SQLiteBackend) WriteAtomic(ctx context.Context, path string, data []byte) (string, error) {
	return b.Write(ctx, path, data)
}

func (b *SQLiteBackend) WriteConditional(ctx context.Context, path string, data []byte, opts WriteOptions) (string, error) {
	if err := ValidatePath("WriteConditional", path); err != nil {
		return "", err
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return "", core.NewError(core.CodeIO, "WriteConditional", path, err)
	}
	defer tx.Rollback()

	var actual string
	exists := true
	err = tx.QueryRowContext(ctx, `SELECT etag FROM blocks WHERE path = ?`, path).Scan(&actual)
	if err == sql.ErrNoRows {
		exists = false
	} else if err != nil {
		return "", core.NewError(core.CodeIO, "WriteConditional", path, err)
	}

	if opts.IfNoneMatch != nil {
		if *opts.IfNoneMatch == "*" {
			if exists {
				return "", core.ETagMismatchError("WriteConditional", path, "<absent>", actual)
			}
		} else if actual == *opts.IfNoneMatch {
			return "", core.ETagMismatchError("WriteConditional", path, "!="+*opts.IfNoneMatch, actual)
		}
	}
	if opts.IfMatch != nil {
		if *opts.IfMatch == "" {
			if exists {
				return "", core.ETagMismatchError("WriteConditional", path, "<absent>", actual)
			}
		} else if !exists || actual != *opts.IfMatch {
			return "", core.ETagMismatchError("WriteConditional", path, *opts.IfMatch, actual)
		}
	}

	etag := etagOf(data)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO blocks (path, data, etag, size) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET data = excluded.data, etag = excluded.etag, size = excluded.size
	`, path, data, etag, len(data)); err != nil {
		return "", core.NewError(core.CodeIO, "WriteConditional", path, err)
	}
	if err := tx.Commit(); err != nil {
		return "", core.NewError(core.CodeIO, "WriteConditional", path, err)
	}
	return etag, nil
}

func (b *SQLiteBackend) Exists(ctx context.Context, path string) (bool, error) {
	var one int
	err := b.db.QueryRowContext(ctx, `SELECT 1 FROM blocks WHERE path = ?`, path).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, core.NewError(core.CodeIO, "Exists", path, err)
	}
	return true, nil
}

func (b *SQLiteBackend) Stat(ctx context.Context, path string) (ObjectStat, error) {
	var etag string
	var size int64
	err := b.db.QueryRowContext(ctx, `SELECT etag, size FROM blocks WHERE path = ?`, path).Scan(&etag, &size)
	if err == sql.ErrNoRows {
		return ObjectStat{}, core.NewErrorf(core.CodeNotFound, "Stat", path, "object not found")
	}
	if err != nil {
		return ObjectStat{}, core.NewError(core.CodeIO, "Stat", path, err)
	}
	return ObjectStat{Size: size, ETag: etag}, nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, path string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM blocks WHERE path = ?`, path); err != nil {
		return core.NewError(core.CodeIO, "Delete", path, err)
	}
	return nil
}

func (b *SQLiteBackend) DeletePrefix(ctx context.Context, prefix string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM blocks WHERE path LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%"); err != nil {
		return core.NewError(core.CodeIO, "DeletePrefix", prefix, err)
	}
	return nil
}

func (b *SQLiteBackend) List(ctx context.Context, prefix string, opts ListOptions) (ListResult, error) {
	cursor := ""
	if opts.Cursor != nil {
		cursor = *opts.Cursor
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 1 << 30
	}
	rows, err := b.db.QueryContext(ctx, `
		SELECT path FROM blocks WHERE path LIKE ? ESCAPE '\' AND path > ? ORDER BY path LIMIT ?
	`, escapeLike(prefix)+"%", cursor, limit+1)
	if err != nil {
		return ListResult{}, core.NewError(core.CodeIO, "List", prefix, err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return ListResult{}, core.NewError(core.CodeIO, "List", prefix, err)
		}
		files = append(files, p)
	}

	hasMore := len(files) > limit
	if hasMore {
		files = files[:limit]
	}
	res := ListResult{Files: files, HasMore: hasMore}
	if hasMore && len(files) > 0 {
		c := files[len(files)-1]
		res.Cursor = &c
	}
	return res, nil
}

func (b *SQLiteBackend) Copy(ctx context.Context, src, dst string) error {
	data, err := b.Read(ctx, src)
	if err != nil {
		return err
	}
	_, err = b.put(ctx, dst, data)
	return err
}

func (b *SQLiteBackend) Move(ctx context.Context, src, dst string) error {
	if err := b.Copy(ctx, src, dst); err != nil {
		return err
	}
	return b.Delete(ctx, src)
}

func (b *SQLiteBackend) Append(ctx context.Context, path string, data []byte) (string, error) {
	if err := ValidateBuffer("Append", path, data); err != nil {
		return "", err
	}
	existing, err := b.Read(ctx, path)
	if err != nil && core.CodeOf(err) != core.CodeNotFound {
		return "", err
	}
	return b.put(ctx, path, append(existing, data...))
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '%', '_':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
