package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MeKo-Tech/noisetex/internal/catalog"
	"github.com/MeKo-Tech/noisetex/internal/imageio"
)

// CatalogHandler serves textures from a catalog database.
type CatalogHandler struct {
	reader       *catalog.Reader
	logger       *slog.Logger
	cacheControl string
}

// CatalogConfig configures the catalog handler.
type CatalogConfig struct {
	Path         string
	CacheControl string
}

// NewCatalogHandler opens the catalog read-only.
func NewCatalogHandler(cfg CatalogConfig, logger *slog.Logger) (*CatalogHandler, error) {
	reader, err := catalog.OpenReader(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "public, max-age=86400"
	}

	return &CatalogHandler{
		reader:       reader,
		logger:       logger,
		cacheControl: cfg.CacheControl,
	}, nil
}

// Handler serves /catalog/ as a JSON listing and /catalog/{key} as the image.
func (h *CatalogHandler) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/catalog")
		key = strings.TrimPrefix(key, "/")
		if key == "" {
			h.serveList(w)
			return
		}
		h.serveTexture(w, key)
	}
}

func (h *CatalogHandler) serveList(w http.ResponseWriter) {
	infos, err := h.reader.List()
	if err != nil {
		h.log().Error("Failed to list catalog", "error", err)
		http.Error(w, "failed to list catalog", http.StatusInternalServerError)
		return
	}
	if infos == nil {
		infos = []catalog.Info{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(infos); err != nil {
		h.log().Error("Failed to write response", "error", err)
	}
}

func (h *CatalogHandler) serveTexture(w http.ResponseWriter, key string) {
	entry, err := h.reader.ReadTexture(key)
	if errors.Is(err, catalog.ErrNotFound) {
		http.Error(w, "texture not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log().Error("Failed to read texture", "key", key, "error", err)
		http.Error(w, "failed to read texture", http.StatusInternalServerError)
		return
	}

	format, err := imageio.ParseFormat(entry.Format)
	if err != nil {
		format = imageio.PNG
	}
	w.Header().Set("Cache-Control", h.cacheControl)
	w.Header().Set("Content-Type", format.ContentType())
	if _, err := w.Write(entry.Data); err != nil {
		h.log().Error("Failed to write response", "error", err)
	}
}

// Close closes the catalog reader.
func (h *CatalogHandler) Close() error {
	return h.reader.Close()
}

func (h *CatalogHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
