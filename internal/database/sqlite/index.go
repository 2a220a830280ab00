package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kozaktomas/photo-index/internal/database"
	"github.com/kozaktomas/photo-index/internal/database/sqlite/migrations"
)

// Index is the SQLite-backed full-text photo index.
type Index struct {
	db   *sql.DB
	path string
}

var _ database.RecordWriter = (*Index)(nil)

// Open opens the index at path, creating the file and schema if needed.
func Open(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Single writer process; one connection keeps transactions simple.
	db.SetMaxOpenConns(1)

	idx := &Index{db: db, path: path}
	if err := idx.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return idx, nil
}

// OpenExisting opens an index that must already exist. Returns
// database.ErrIndexMissing otherwise.
func OpenExisting(path string) (*Index, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, database.ErrIndexMissing
	} else if err != nil {
		return nil, fmt.Errorf("checking index: %w", err)
	}
	return Open(path)
}

// Close closes the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

// Path returns the database file path.
func (x *Index) Path() string {
	return x.path
}

// migrate runs all pending migrations.
func (x *Index) migrate(fsys fs.FS) error {
	_, err := x.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := x.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := x.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// Add inserts a record. Faces whose identity already has a display name are
// written with that name.
func (x *Index) Add(ctx context.Context, rec database.Record) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	exists, err := hasRecord(ctx, tx, rec.ImagePath)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", database.ErrDuplicateRecord, rec.ImagePath)
	}

	names, err := loadNames(ctx, tx, rec.Faces)
	if err != nil {
		return err
	}

	for i, key := range rec.Faces {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO photo_faces (image_path, position, identity_key) VALUES (?, ?, ?)",
			rec.ImagePath, i, key); err != nil {
			return fmt.Errorf("inserting face %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO photos (image_path, faces, caption) VALUES (?, ?, ?)",
		rec.ImagePath, facesText(rec.Faces, names), rec.Caption); err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing record: %w", err)
	}
	return nil
}

// Search runs an FTS5 MATCH query. An empty query returns no records.
func (x *Index) Search(ctx context.Context, match string) ([]database.Record, error) {
	if strings.TrimSpace(match) == "" {
		return nil, nil
	}
	rows, err := x.db.QueryContext(ctx,
		"SELECT image_path, faces, caption FROM photos WHERE photos MATCH ? ORDER BY rank", match)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	return scanRecords(rows)
}

// All returns every record ordered by image path.
func (x *Index) All(ctx context.Context) ([]database.Record, error) {
	rows, err := x.db.QueryContext(ctx, "SELECT image_path, faces, caption FROM photos ORDER BY image_path")
	if err != nil {
		return nil, fmt.Errorf("listing index: %w", err)
	}
	return scanRecords(rows)
}

// Has checks if the image path is indexed.
func (x *Index) Has(ctx context.Context, imagePath string) (bool, error) {
	return hasRecord(ctx, x.db, imagePath)
}

// Count returns the number of records.
func (x *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := x.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM photos").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// RenameIdentity records the display name of key and regenerates the faces
// text of every record referencing it. Only that identity's tokens change.
func (x *Index) RenameIdentity(ctx context.Context, key, name string) (int, error) {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO identity_names (identity_key, display_name) VALUES (?, ?)
		ON CONFLICT(identity_key) DO UPDATE SET display_name = excluded.display_name, updated_at = CURRENT_TIMESTAMP`,
		key, name); err != nil {
		return 0, fmt.Errorf("saving display name: %w", err)
	}

	paths, err := queryStrings(ctx, tx,
		"SELECT DISTINCT image_path FROM photo_faces WHERE identity_key = ? ORDER BY image_path", key)
	if err != nil {
		return 0, fmt.Errorf("finding records of %s: %w", key, err)
	}

	updated := 0
	for _, path := range paths {
		keys, err := queryStrings(ctx, tx,
			"SELECT identity_key FROM photo_faces WHERE image_path = ? ORDER BY position", path)
		if err != nil {
			return 0, fmt.Errorf("loading faces of %s: %w", path, err)
		}
		names, err := loadNames(ctx, tx, keys)
		if err != nil {
			return 0, err
		}

		var current string
		if err := tx.QueryRowContext(ctx, "SELECT faces FROM photos WHERE image_path = ?", path).Scan(&current); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return 0, fmt.Errorf("loading record %s: %w", path, err)
		}

		text := facesText(keys, names)
		if text == current {
			continue
		}
		if _, err := tx.ExecContext(ctx, "UPDATE photos SET faces = ? WHERE image_path = ?", text, path); err != nil {
			return 0, fmt.Errorf("updating record %s: %w", path, err)
		}
		updated++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rename: %w", err)
	}
	return updated, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func hasRecord(ctx context.Context, q querier, imagePath string) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM photos WHERE image_path = ?", imagePath).Scan(&n); err != nil {
		return false, fmt.Errorf("checking record %s: %w", imagePath, err)
	}
	return n > 0, nil
}

func loadNames(ctx context.Context, q querier, keys []string) (map[string]string, error) {
	names := make(map[string]string)
	for _, key := range keys {
		if _, seen := names[key]; seen {
			continue
		}
		var name string
		err := q.QueryRowContext(ctx, "SELECT display_name FROM identity_names WHERE identity_key = ?", key).Scan(&name)
		if errors.Is(err, sql.ErrNoRows) {
			names[key] = key
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading display name of %s: %w", key, err)
		}
		names[key] = name
	}
	return names, nil
}

func queryStrings(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]database.Record, error) {
	defer rows.Close()

	var records []database.Record
	for rows.Next() {
		var rec database.Record
		var faces string
		if err := rows.Scan(&rec.ImagePath, &faces, &rec.Caption); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec.Faces = strings.Fields(faces)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

func facesText(keys []string, names map[string]string) string {
	tokens := make([]string, len(keys))
	for i, key := range keys {
		if name, ok := names[key]; ok {
			tokens[i] = name
		} else {
			tokens[i] = key
		}
	}
	return strings.Join(tokens, " ")
}
