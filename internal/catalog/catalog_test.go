package catalog

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/noisetex/internal/texture"
)

func testParams(seed int64) texture.Params {
	p := texture.DefaultParams()
	p.Seed = seed
	p.Width = 16
	p.Height = 8
	return p
}

func TestWriter_New(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "noise.db")

	w, err := New(dbPath, Metadata{Name: "Test", Format: "png", Backend: "opensimplex"})
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("Database file was not created")
	}

	var count int
	if err := w.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='textures'").Scan(&count); err != nil {
		t.Fatalf("Failed to query schema: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected textures table to exist, got count=%d", count)
	}

	if err := w.db.QueryRow("SELECT COUNT(*) FROM metadata").Scan(&count); err != nil {
		t.Fatalf("Failed to query metadata: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 metadata rows, got %d", count)
	}
}

func TestWriter_FlushOnBatchSize(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "noise.db")

	w, err := New(dbPath, Metadata{Name: "Batch"})
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer w.Close()
	w.batchSize = 2

	for seed := int64(0); seed < 3; seed++ {
		if err := w.WriteTexture(Entry{Params: testParams(seed), Data: []byte("img")}); err != nil {
			t.Fatalf("WriteTexture: %v", err)
		}
	}

	var count int
	if err := w.db.QueryRow("SELECT COUNT(*) FROM textures").Scan(&count); err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 flushed textures before Flush, got %d", count)
	}

	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := w.db.QueryRow("SELECT COUNT(*) FROM textures").Scan(&count); err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 textures after Flush, got %d", count)
	}
}

func TestRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "noise.db")
	meta := Metadata{Name: "Round", Description: "trip", Version: "1", Format: "png", Backend: "perlin"}

	w, err := New(dbPath, meta)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}

	data := bytes.Repeat([]byte{0x89, 'P', 'N', 'G'}, 64)
	p := testParams(42)
	p.Inverted = true
	if err := w.WriteTexture(Entry{Name: "Noise42", Params: p, Data: data}); err != nil {
		t.Fatalf("WriteTexture: %v", err)
	}
	// Same key replaces the earlier row.
	if err := w.WriteTexture(Entry{Name: "Noise42", Params: p, Data: data}); err != nil {
		t.Fatalf("WriteTexture: %v", err)
	}
	if err := w.WriteTexture(Entry{Name: "Another", Params: testParams(7), Data: []byte("x"), Format: "bmp"}); err != nil {
		t.Fatalf("WriteTexture: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := OpenReader(dbPath)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	gotMeta, err := r.Metadata()
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if gotMeta != meta {
		t.Errorf("Metadata = %+v, want %+v", gotMeta, meta)
	}

	e, err := r.ReadTexture(p.Key())
	if err != nil {
		t.Fatalf("ReadTexture: %v", err)
	}
	if !bytes.Equal(e.Data, data) {
		t.Error("Data did not survive compression round trip")
	}
	if e.Params != p {
		t.Errorf("Params = %+v, want %+v", e.Params, p)
	}
	if e.Name != "Noise42" || e.Format != "png" {
		t.Errorf("unexpected entry %q %q", e.Name, e.Format)
	}

	infos, err := r.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(infos))
	}
	if infos[0].Name != "Another" || infos[0].Format != "bmp" || infos[0].Seed != 7 {
		t.Errorf("unexpected first entry %+v", infos[0])
	}
	if infos[1].Width != 16 || infos[1].Height != 8 {
		t.Errorf("unexpected size %dx%d", infos[1].Width, infos[1].Height)
	}
	if infos[1].Size != len(data) {
		t.Errorf("Size = %d, want uncompressed %d", infos[1].Size, len(data))
	}
	if infos[1].Stored == 0 || infos[1].Stored >= len(data) {
		t.Errorf("Stored = %d, want the smaller gzip size of %d repeated bytes", infos[1].Stored, len(data))
	}

	if _, err := r.ReadTexture("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestOpenReader_RejectsForeignDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	w, err := New(dbPath, Metadata{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := w.db.Exec("DROP TABLE textures"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := OpenReader(dbPath); err == nil {
		t.Error("Expected error for database without textures table")
	}
}
