// Package imageio encodes generated images and writes them to disk.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format is an output image format.
type Format string

const (
	PNG  Format = "png"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
)

// Options control encoding.
type Options struct {
	Format Format
	// PNGCompression is one of default, speed, best, none.
	PNGCompression string
}

// ParseFormat accepts png, bmp, tiff and tif, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "png":
		return PNG, nil
	case "bmp":
		return BMP, nil
	case "tif", "tiff":
		return TIFF, nil
	default:
		return "", fmt.Errorf("unsupported image format %q (png, bmp, tiff)", s)
	}
}

// FormatFromPath infers the format from a file extension, defaulting to PNG.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return PNG
	}
	return f
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	if f == "" {
		return ".png"
	}
	return "." + string(f)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case BMP:
		return "image/bmp"
	case TIFF:
		return "image/tiff"
	default:
		return "image/png"
	}
}

// ParsePNGCompression maps a compression name to a png level.
func ParsePNGCompression(s string) (png.CompressionLevel, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return png.DefaultCompression, nil
	case "speed", "fast":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	case "none":
		return png.NoCompression, nil
	default:
		return png.DefaultCompression, fmt.Errorf("invalid png compression %q (default, speed, best, none)", s)
	}
}

// Encode writes img to w.
func Encode(w io.Writer, img image.Image, opts Options) error {
	switch opts.Format {
	case "", PNG:
		level, err := ParsePNGCompression(opts.PNGCompression)
		if err != nil {
			return err
		}
		enc := png.Encoder{CompressionLevel: level}
		return enc.Encode(w, img)
	case BMP:
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		return fmt.Errorf("unsupported image format %q", opts.Format)
	}
}

// EncodeToBytes encodes img into memory.
func EncodeToBytes(img image.Image, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile encodes img to path, creating parent directories. The file is
// written to a temporary sibling first and renamed into place.
func WriteFile(path string, img image.Image, opts Options) error {
	data, err := EncodeToBytes(img, opts)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return WriteBytes(path, data)
}

// WriteBytes writes already encoded image data to path.
func WriteBytes(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create dir for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck // no-op after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// ReadFile decodes any registered image format from path.
func ReadFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// ResolvePath joins a save path onto an asset root unless it is absolute.
func ResolvePath(root, path string) string {
	if root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
