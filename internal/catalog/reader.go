package catalog

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrNotFound is returned when a key is not in the catalog.
var ErrNotFound = errors.New("texture not found")

// Reader reads textures from a catalog database.
type Reader struct {
	db   *sql.DB
	path string
}

// OpenReader opens a catalog database read-only. The file is treated as
// immutable, so open it after the writer has been closed.
func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='textures'").Scan(&count)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify schema: %w", err)
	}
	if count == 0 {
		db.Close()
		return nil, fmt.Errorf("database does not contain textures table")
	}

	return &Reader{
		db:   db,
		path: path,
	}, nil
}

// ReadTexture returns the entry stored under key with its data decompressed.
func (r *Reader) ReadTexture(key string) (Entry, error) {
	var (
		e          Entry
		params     string
		created    int64
		compressed []byte
	)
	err := r.db.QueryRow(
		"SELECT key, name, params, format, created, data FROM textures WHERE key=?", key,
	).Scan(&e.Key, &e.Name, &params, &e.Format, &created, &compressed)

	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to query texture: %w", err)
	}

	if e.Params, err = decodeParams(params); err != nil {
		return Entry{}, fmt.Errorf("texture %s: %w", key, err)
	}
	e.Created = time.Unix(created, 0).UTC()

	if e.Data, err = gzipDecompress(compressed); err != nil {
		return Entry{}, fmt.Errorf("failed to decompress texture %s: %w", key, err)
	}

	return e, nil
}

// List returns every entry ordered by name, without image data.
func (r *Reader) List() ([]Info, error) {
	rows, err := r.db.Query(
		"SELECT key, name, format, created, size, length(data), width, height, seed FROM textures ORDER BY name, key")
	if err != nil {
		return nil, fmt.Errorf("failed to query textures: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var (
			info    Info
			created int64
		)
		if err := rows.Scan(&info.Key, &info.Name, &info.Format, &created, &info.Size, &info.Stored, &info.Width, &info.Height, &info.Seed); err != nil {
			return nil, fmt.Errorf("failed to scan texture row: %w", err)
		}
		info.Created = time.Unix(created, 0).UTC()
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating textures: %w", err)
	}
	return infos, nil
}

// Metadata reads metadata from the database.
func (r *Reader) Metadata() (Metadata, error) {
	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	metaMap := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Metadata{}, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		metaMap[name] = value
	}
	if err := rows.Err(); err != nil {
		return Metadata{}, fmt.Errorf("error iterating metadata: %w", err)
	}

	return Metadata{
		Name:        metaMap["name"],
		Description: metaMap["description"],
		Version:     metaMap["version"],
		Format:      metaMap["format"],
		Backend:     metaMap["backend"],
	}, nil
}

// Close closes the database connection.
func (r *Reader) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	return io.ReadAll(gr)
}
