// Package catalog stores generated textures in a SQLite database.
package catalog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/MeKo-Tech/noisetex/internal/texture"
)

// Metadata describes the catalog as a whole.
type Metadata struct {
	Name        string // Human-readable catalog name
	Description string
	Version     string
	Format      string // Default image format of entries (png, bmp, tiff)
	Backend     string // Noise backend most entries were generated with
}

// ToMap converts Metadata to a map for database insertion.
func (m Metadata) ToMap() map[string]string {
	result := make(map[string]string)

	if m.Name != "" {
		result["name"] = m.Name
	}
	if m.Description != "" {
		result["description"] = m.Description
	}
	if m.Version != "" {
		result["version"] = m.Version
	}
	if m.Format != "" {
		result["format"] = m.Format
	}
	if m.Backend != "" {
		result["backend"] = m.Backend
	}

	return result
}

// Entry is a single stored texture.
type Entry struct {
	Created time.Time
	Key     string
	Name    string
	Format  string
	Data    []byte // Encoded image (gzip-compressed at rest)
	Params  texture.Params
}

// Info is an Entry without its image data.
type Info struct {
	Created time.Time `json:"created"`
	Key     string    `json:"key"`
	Name    string    `json:"name"`
	Format  string    `json:"format"`
	Size    int       `json:"size"`   // Encoded image bytes
	Stored  int       `json:"stored"` // Bytes at rest after gzip
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	Seed    int64     `json:"seed"`
}

func encodeParams(p texture.Params) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode params: %w", err)
	}
	return string(b), nil
}

func decodeParams(s string) (texture.Params, error) {
	var p texture.Params
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return p, fmt.Errorf("failed to decode params: %w", err)
	}
	return p, nil
}
