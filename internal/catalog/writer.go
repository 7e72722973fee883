package catalog

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const (
	// DefaultBatchSize is the number of textures to buffer before flushing to the database.
	DefaultBatchSize = 32
)

// Writer writes textures to a catalog database.
type Writer struct {
	db        *sql.DB
	path      string
	batch     []Entry
	metadata  Metadata
	batchSize int
	mu        sync.Mutex
}

// New creates a new catalog writer.
// The database is created if it doesn't exist, and the schema is initialized.
// Existing entries are kept; metadata is replaced.
func New(path string, metadata Metadata) (*Writer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if err := insertMetadata(db, metadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to insert metadata: %w", err)
	}

	return &Writer{
		db:        db,
		path:      path,
		batch:     make([]Entry, 0, DefaultBatchSize),
		batchSize: DefaultBatchSize,
		metadata:  metadata,
	}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS metadata (
			name TEXT NOT NULL,
			value TEXT
		);

		CREATE TABLE IF NOT EXISTS textures (
			key TEXT NOT NULL PRIMARY KEY,
			name TEXT NOT NULL,
			seed INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			params TEXT NOT NULL,
			format TEXT NOT NULL,
			created INTEGER NOT NULL,
			size INTEGER NOT NULL,
			data BLOB NOT NULL
		);

		CREATE INDEX IF NOT EXISTS textures_name ON textures (name);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

func insertMetadata(db *sql.DB, meta Metadata) error {
	if _, err := db.Exec("DELETE FROM metadata"); err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}

	stmt, err := db.Prepare("INSERT INTO metadata (name, value) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare metadata insert: %w", err)
	}
	defer stmt.Close()

	for key, value := range meta.ToMap() {
		if _, err := stmt.Exec(key, value); err != nil {
			return fmt.Errorf("failed to insert metadata %q: %w", key, err)
		}
	}

	return nil
}

// WriteTexture adds an entry to the batch. When the batch is full, it is
// flushed. An empty Key is filled from the params; an empty Name from the key.
func (w *Writer) WriteTexture(e Entry) error {
	if e.Key == "" {
		e.Key = e.Params.Key()
	}
	if e.Name == "" {
		e.Name = e.Key
	}
	if e.Format == "" {
		e.Format = "png"
	}
	if e.Created.IsZero() {
		e.Created = time.Now().UTC()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.batch = append(w.batch, e)
	if len(w.batch) >= w.batchSize {
		return w.flushLocked()
	}
	return nil
}

// Flush writes any buffered textures to the database.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

// flushLocked writes buffered entries in one transaction. Must be called with lock held.
func (w *Writer) flushLocked() error {
	if len(w.batch) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO textures
		(key, name, seed, width, height, params, format, created, size, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range w.batch {
		params, err := encodeParams(e.Params)
		if err != nil {
			return fmt.Errorf("texture %s: %w", e.Key, err)
		}
		compressed, err := gzipCompress(e.Data)
		if err != nil {
			return fmt.Errorf("failed to compress texture %s: %w", e.Key, err)
		}
		if _, err := stmt.Exec(e.Key, e.Name, e.Params.Seed, e.Params.Width, e.Params.Height,
			params, e.Format, e.Created.Unix(), len(e.Data), compressed); err != nil {
			return fmt.Errorf("failed to insert texture %s: %w", e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.batch = w.batch[:0]
	return nil
}

// Path returns the database file path.
func (w *Writer) Path() string { return w.path }

// Close flushes any remaining textures and closes the database.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		w.db.Close()
		return err
	}

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)

	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return nil, err
	}

	if err := gw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
