// Package sqlite mirrors keyframe store documents into a SQLite catalog so
// they can be queried without re-reading every file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bft-labs/keyframer/internal/domain"
)

// Catalog is a SQLite-backed keyframe catalog.
type Catalog struct {
	conn *sql.DB
}

// Open opens (creating if needed) the catalog database at path.
func Open(path string) (*Catalog, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping catalog: %w", err)
	}

	c := &Catalog{conn: conn}
	if err := c.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return c, nil
}

func (c *Catalog) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS keyframes (
		source_key TEXT NOT NULL,
		store_path TEXT NOT NULL,
		frame_index INTEGER NOT NULL,
		method TEXT NOT NULL,
		hash TEXT NOT NULL,
		threshold REAL NOT NULL,
		cropping REAL NOT NULL,
		PRIMARY KEY (store_path, frame_index)
	);
	CREATE INDEX IF NOT EXISTS idx_keyframes_method ON keyframes(method);

	CREATE TABLE IF NOT EXISTS stores (
		store_path TEXT PRIMARY KEY,
		source_key TEXT NOT NULL
	);
	`

	_, err := c.conn.Exec(query)
	return err
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.conn.Close()
}

// Replace swaps every row recorded for storePath with records, in one
// transaction. The store path is recorded even when records is empty.
func (c *Catalog) Replace(ctx context.Context, storePath string, records []domain.KeyframeRecord) error {
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM keyframes WHERE store_path = ?`, storePath); err != nil {
		return fmt.Errorf("delete rows for %s: %w", storePath, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO stores (store_path, source_key) VALUES (?, ?)`,
		storePath, domain.SourceKey(storePath)); err != nil {
		return fmt.Errorf("record store %s: %w", storePath, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO keyframes (source_key, store_path, frame_index, method, hash, threshold, cropping)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.SourceKey, storePath, r.FrameIndex, string(r.Method), r.Hash.String(), r.Threshold, r.Cropping); err != nil {
			return fmt.Errorf("insert frame %d of %s: %w", r.FrameIndex, storePath, err)
		}
	}
	return tx.Commit()
}

// Remove forgets storePath and every row recorded for it.
func (c *Catalog) Remove(ctx context.Context, storePath string) error {
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM keyframes WHERE store_path = ?`, storePath); err != nil {
		return fmt.Errorf("delete rows for %s: %w", storePath, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM stores WHERE store_path = ?`, storePath); err != nil {
		return fmt.Errorf("delete store %s: %w", storePath, err)
	}
	return tx.Commit()
}

// Records returns all keyframe records grouped by store path. Every imported
// store path is present, with an empty slice when it has no keyframes.
// A row whose method or hash cannot be parsed fails with domain.ErrParse.
func (c *Catalog) Records(ctx context.Context) (map[string][]domain.KeyframeRecord, error) {
	out, err := c.storePaths(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := c.conn.QueryContext(ctx, `
		SELECT source_key, store_path, frame_index, method, hash, threshold, cropping
		FROM keyframes
		ORDER BY store_path, frame_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r         domain.KeyframeRecord
			storePath string
			method    string
			hash      string
		)
		if err := rows.Scan(&r.SourceKey, &storePath, &r.FrameIndex, &method, &hash, &r.Threshold, &r.Cropping); err != nil {
			return nil, err
		}
		m, err := domain.ParseMethod(method)
		if err != nil {
			return nil, fmt.Errorf("%w: %s frame %d: %v", domain.ErrParse, storePath, r.FrameIndex, err)
		}
		h, err := domain.ParseHash(m, hash)
		if err != nil {
			return nil, fmt.Errorf("%w: %s frame %d: %v", domain.ErrParse, storePath, r.FrameIndex, err)
		}
		r.Method, r.Hash = m, h
		out[storePath] = append(out[storePath], r)
	}
	return out, rows.Err()
}

func (c *Catalog) storePaths(ctx context.Context) (map[string][]domain.KeyframeRecord, error) {
	rows, err := c.conn.QueryContext(ctx, `SELECT store_path FROM stores`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.KeyframeRecord)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		out[path] = []domain.KeyframeRecord{}
	}
	return out, rows.Err()
}

// Count returns the number of keyframe rows and of imported store paths.
func (c *Catalog) Count(ctx context.Context) (rows, files int, err error) {
	err = c.conn.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM keyframes), (SELECT COUNT(*) FROM stores)`).Scan(&rows, &files)
	return rows, files, err
}
