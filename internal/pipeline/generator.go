// Package pipeline turns one texture task into files or catalog entries.
package pipeline

import (
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/noisetex/internal/catalog"
	"github.com/MeKo-Tech/noisetex/internal/filter"
	"github.com/MeKo-Tech/noisetex/internal/gradient"
	"github.com/MeKo-Tech/noisetex/internal/imageio"
	"github.com/MeKo-Tech/noisetex/internal/texture"
	"github.com/MeKo-Tech/noisetex/internal/worker"
)

// TextureWriter receives encoded textures instead of the output folder.
// catalog.Writer satisfies it.
type TextureWriter interface {
	WriteTexture(catalog.Entry) error
}

// GeneratorOptions configures optional outputs.
type GeneratorOptions struct {
	// TextureWriter, when set, receives textures instead of the output dir.
	TextureWriter TextureWriter
	// Gradient colours the texture; nil writes grayscale.
	Gradient       *gradient.Gradient
	Format         imageio.Format
	PNGCompression string
	// PreviewSize > 0 also writes a <name>_preview thumbnail.
	PreviewSize int
	// TiledPreview also writes a 2×2 <name>_tiled image.
	TiledPreview bool
	// Workers is the row-band parallelism inside one texture.
	Workers int
	// BlurSigma > 0 applies a wrap-around Gaussian blur.
	BlurSigma float32
	// Threshold > 0 turns the grayscale texture into a black and white mask.
	Threshold uint8
}

// Generator synthesizes, encodes and persists textures.
type Generator struct {
	synth     *texture.Synthesizer
	logger    *slog.Logger
	outputDir string
	opts      GeneratorOptions
}

// NewGenerator prepares a generator writing below outputDir.
func NewGenerator(outputDir string, logger *slog.Logger, opts GeneratorOptions) (*Generator, error) {
	if opts.TextureWriter == nil && outputDir == "" {
		return nil, fmt.Errorf("output dir must be set without a texture writer")
	}
	if opts.Format == "" {
		opts.Format = imageio.PNG
	}
	if _, err := imageio.ParseFormat(string(opts.Format)); err != nil {
		return nil, err
	}
	if _, err := imageio.ParsePNGCompression(opts.PNGCompression); err != nil {
		return nil, err
	}
	if opts.Threshold > 0 && opts.Gradient != nil {
		return nil, fmt.Errorf("threshold and gradient cannot be combined")
	}
	if opts.BlurSigma < 0 {
		return nil, fmt.Errorf("blur sigma must not be negative")
	}

	return &Generator{
		synth:     texture.NewSynthesizer(nil, opts.Workers),
		logger:    logger,
		outputDir: outputDir,
		opts:      opts,
	}, nil
}

// Path returns where a texture named name is written in folder mode.
func (g *Generator) Path(name string) string {
	return filepath.Join(g.outputDir, name+g.opts.Format.Ext())
}

// Generate renders task and stores it. It returns the file path, or the
// catalog key when a TextureWriter is configured. Existing files are kept
// unless task.Force is set.
func (g *Generator) Generate(ctx context.Context, task worker.Task) (string, error) {
	name := task.Name
	if name == "" {
		name = task.Params.Key()
	}

	finalPath := g.Path(name)
	if g.opts.TextureWriter == nil && !task.Force {
		if _, err := os.Stat(finalPath); err == nil {
			g.log().Info("Texture already exists; skipping", "name", name, "path", finalPath)
			return finalPath, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.log().Debug("Synthesizing texture", "name", name, "seed", task.Params.Seed,
		"size", fmt.Sprintf("%dx%d", task.Params.Width, task.Params.Height), "octaves", task.Params.Octaves)
	img, err := g.Render(task.Params)
	if err != nil {
		return "", fmt.Errorf("texture %s: %w", name, err)
	}

	encOpts := imageio.Options{Format: g.opts.Format, PNGCompression: g.opts.PNGCompression}
	data, err := imageio.EncodeToBytes(img, encOpts)
	if err != nil {
		return "", fmt.Errorf("failed to encode texture %s: %w", name, err)
	}

	if g.opts.TextureWriter != nil {
		key := g.Key(task.Params)
		if err := g.opts.TextureWriter.WriteTexture(catalog.Entry{
			Key:    key,
			Name:   name,
			Format: string(g.opts.Format),
			Data:   data,
			Params: task.Params,
		}); err != nil {
			return "", fmt.Errorf("failed to store texture %s: %w", name, err)
		}
		g.log().Info("Stored texture", "name", name, "key", key)
		return key, nil
	}

	g.log().Info("Writing texture", "name", name, "path", finalPath)
	if err := imageio.WriteBytes(finalPath, data); err != nil {
		return "", err
	}

	if g.opts.PreviewSize > 0 {
		thumb := texture.Thumbnail(img, g.opts.PreviewSize)
		if err := imageio.WriteFile(g.Path(name+"_preview"), thumb, encOpts); err != nil {
			return "", fmt.Errorf("failed to write preview: %w", err)
		}
	}
	if g.opts.TiledPreview {
		if err := imageio.WriteFile(g.Path(name+"_tiled"), texture.TiledPreview(img), encOpts); err != nil {
			return "", fmt.Errorf("failed to write tiled preview: %w", err)
		}
	}

	return finalPath, nil
}

// Key returns the catalog key of p under the configured render options.
// Grayscale PNG output keeps the bare parameter key; gradient, blur,
// threshold and image format each add a suffix, so one catalog can hold
// several renderings of the same field.
func (g *Generator) Key(p texture.Params) string {
	var b strings.Builder
	b.WriteString(p.Key())
	if g.opts.Gradient != nil {
		h := fnv.New32a()
		h.Write([]byte(g.opts.Gradient.String()))
		fmt.Fprintf(&b, "_g%08x", h.Sum32())
	}
	if g.opts.BlurSigma > 0 {
		b.WriteString("_b" + strconv.FormatFloat(float64(g.opts.BlurSigma), 'g', -1, 32))
	}
	if g.opts.Threshold > 0 {
		fmt.Fprintf(&b, "_t%d", g.opts.Threshold)
	}
	if g.opts.Format != imageio.PNG {
		b.WriteString("_" + string(g.opts.Format))
	}
	return b.String()
}

// Render synthesizes p and applies the configured gradient and filters.
func (g *Generator) Render(p texture.Params) (image.Image, error) {
	tex, err := g.synth.Generate(p)
	if err != nil {
		return nil, err
	}

	var img image.Image = tex.Gray()
	if g.opts.Gradient != nil {
		img = g.opts.Gradient.Map(tex)
	}
	if g.opts.BlurSigma > 0 {
		img = filter.SeamlessBlur(img, g.opts.BlurSigma)
	}
	if g.opts.Threshold > 0 {
		img = filter.Threshold(img, g.opts.Threshold)
	}
	return img, nil
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}
