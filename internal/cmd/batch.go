package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/noisetex/assets"
	"github.com/MeKo-Tech/noisetex/internal/catalog"
	"github.com/MeKo-Tech/noisetex/internal/imageio"
	"github.com/MeKo-Tech/noisetex/internal/pipeline"
	"github.com/MeKo-Tech/noisetex/internal/texture"
	"github.com/MeKo-Tech/noisetex/internal/worker"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate many noise textures in parallel",
	Long: `Generate a series of textures, either a seed range sharing one parameter set
or the named presets listed under batch.textures in the config file.

Preset fields left out take the values of the batch flags.`,
	RunE: runBatch,
}

// preset is one entry of batch.textures.
type preset struct {
	Name           string `mapstructure:"name"`
	texture.Params `mapstructure:",squash"`
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addTextureFlags(batchCmd, "batch")

	batchCmd.Flags().Int("count", 8, "Number of textures in seed-range mode")
	batchCmd.Flags().String("name-pattern", "Noise%d", "File name pattern in seed-range mode; %d is the seed")
	batchCmd.Flags().Bool("presets", false, "Generate the presets from batch.textures instead of a seed range")
	batchCmd.Flags().Bool("builtin-presets", false, "Generate the built-in presets")
	batchCmd.Flags().String("dir", filepath.Join("Resources", "Textures", "Noise"), "Output directory, relative to --asset-root unless absolute")
	batchCmd.Flags().IntP("workers", "w", 0, "Number of parallel textures (default: number of CPUs)")
	batchCmd.Flags().Bool("progress", true, "Show progress bar")
	batchCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some textures fail")
	batchCmd.Flags().Bool("force", false, "Regenerate textures that already exist")
	batchCmd.Flags().String("image-format", "png", "Image format (png, bmp, tiff)")
	batchCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	batchCmd.Flags().Int("preview", 0, "Also write thumbnails of this size (folder output only)")
	batchCmd.Flags().Bool("tiled-preview", false, "Also write 2x2 tiled previews (folder output only)")
	batchCmd.Flags().String("gradient", "", "Colourise every texture through this gradient")
	batchCmd.Flags().Float32("blur", 0, "Wrap-around Gaussian blur sigma in pixels")
	batchCmd.Flags().Uint8("threshold", 0, "Turn the texture into a black and white mask at this level (1-255)")
	batchCmd.Flags().String("gradient-mode", "blend", "Gradient mode: blend or fixed")
	batchCmd.Flags().String("format", "folder", "Output: folder or catalog")
	batchCmd.Flags().String("output-file", "", "Catalog database path for --format=catalog")
	batchCmd.Flags().String("catalog-name", "noisetex", "Catalog name stored in its metadata")

	bindFlags(batchCmd, []flagBinding{
		{"batch.count", "count"},
		{"batch.name_pattern", "name-pattern"},
		{"batch.presets", "presets"},
		{"batch.builtin_presets", "builtin-presets"},
		{"batch.dir", "dir"},
		{"batch.workers", "workers"},
		{"batch.progress", "progress"},
		{"batch.allow_failures", "allow-failures"},
		{"batch.force", "force"},
		{"batch.image_format", "image-format"},
		{"batch.png_compression", "png-compression"},
		{"batch.preview", "preview"},
		{"batch.tiled_preview", "tiled-preview"},
		{"batch.gradient", "gradient"},
		{"batch.gradient_mode", "gradient-mode"},
		{"batch.blur", "blur"},
		{"batch.threshold", "threshold"},
		{"batch.format", "format"},
		{"batch.output_file", "output-file"},
		{"batch.catalog_name", "catalog-name"},
	})
}

func runBatch(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	base := textureParams("batch")
	format := viper.GetString("batch.format")
	outputFile := viper.GetString("batch.output_file")
	workers := viper.GetInt("batch.workers")
	allowFailures := viper.GetBool("batch.allow_failures")

	if format != "folder" && format != "catalog" {
		return fmt.Errorf("invalid format %q: must be 'folder' or 'catalog'", format)
	}
	if format == "catalog" && outputFile == "" {
		return fmt.Errorf("--output-file is required when using --format=catalog")
	}
	imageFormat, err := imageio.ParseFormat(viper.GetString("batch.image_format"))
	if err != nil {
		return err
	}
	grad, err := parseGradientFlag(viper.GetString("batch.gradient"), viper.GetString("batch.gradient_mode"))
	if err != nil {
		return err
	}

	var tasks []worker.Task
	switch {
	case viper.GetBool("batch.builtin_presets"):
		presets, err := parsePresets(assets.Presets, base)
		if err != nil {
			return fmt.Errorf("failed to read built-in presets: %w", err)
		}
		tasks, err = presetTasks(presets)
		if err != nil {
			return err
		}
	case viper.GetBool("batch.presets"):
		presets, err := decodePresets(viper.Get("batch.textures"), base)
		if err != nil {
			return fmt.Errorf("failed to read batch.textures: %w", err)
		}
		if len(presets) == 0 {
			return fmt.Errorf("no presets configured under batch.textures")
		}
		tasks, err = presetTasks(presets)
		if err != nil {
			return err
		}
	default:
		tasks, err = seedTasks(base, viper.GetInt("batch.count"), viper.GetString("batch.name_pattern"))
		if err != nil {
			return err
		}
	}
	force := viper.GetBool("batch.force")
	for i := range tasks {
		tasks[i].Force = force
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	opts := pipeline.GeneratorOptions{
		Format:         imageFormat,
		PNGCompression: viper.GetString("batch.png_compression"),
		Gradient:       grad,
		BlurSigma:      float32(viper.GetFloat64("batch.blur")),
		Threshold:      uint8(viper.GetUint("batch.threshold")),
		PreviewSize:    viper.GetInt("batch.preview"),
		TiledPreview:   viper.GetBool("batch.tiled_preview"),
		// Textures already run in parallel; keep each one on a single band.
		Workers: 1,
	}

	var catalogWriter *catalog.Writer
	if format == "catalog" {
		catalogWriter, err = catalog.New(outputFile, catalog.Metadata{
			Name:        viper.GetString("batch.catalog_name"),
			Description: "Seamless noise textures",
			Version:     "1.0",
			Format:      string(imageFormat),
			Backend:     string(base.Backend),
		})
		if err != nil {
			return fmt.Errorf("failed to create catalog writer: %w", err)
		}
		defer catalogWriter.Close()
		opts.TextureWriter = catalogWriter
		opts.PreviewSize = 0
		opts.TiledPreview = false
	}

	outputDir := imageio.ResolvePath(viper.GetString("asset-root"), viper.GetString("batch.dir"))
	gen, err := pipeline.NewGenerator(outputDir, logger, opts)
	if err != nil {
		return fmt.Errorf("failed to init generator: %w", err)
	}

	logger.Info("Starting batch texture generation",
		"textures", len(tasks),
		"workers", workers,
		"format", format,
		"output_dir", outputDir,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := worker.NewProgress(len(tasks), viper.GetBool("batch.progress"))
	pool := worker.New(worker.Config{
		Workers:    workers,
		Generator:  gen,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	failed := worker.Failed(results)
	for _, r := range failed {
		logger.Error("Texture generation failed", "name", r.Task.Name, "seed", r.Task.Params.Seed, "error", r.Err)
	}
	logger.Info(progress.Summary())

	if catalogWriter != nil {
		if err := catalogWriter.Flush(); err != nil {
			return fmt.Errorf("failed to flush catalog: %w", err)
		}
		logger.Info("Catalog written", "path", outputFile)
	}

	if len(failed) > 0 {
		if allowFailures {
			logger.Warn("Some textures failed to generate, but continuing due to --allow-failures flag", "failed_count", len(failed))
			return nil
		}
		return fmt.Errorf("%d textures failed to generate", len(failed))
	}
	return nil
}

// seedTasks builds count tasks with consecutive seeds starting at base.Seed.
func seedTasks(base texture.Params, count int, pattern string) ([]worker.Task, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}
	if !strings.Contains(pattern, "%d") {
		return nil, fmt.Errorf("name pattern %q must contain %%d", pattern)
	}
	if err := base.ValidateRanges(); err != nil {
		return nil, err
	}

	tasks := make([]worker.Task, count)
	for i := range tasks {
		p := base
		p.Seed = base.Seed + int64(i)
		tasks[i] = worker.Task{Name: fmt.Sprintf(pattern, p.Seed), Params: p}
	}
	return tasks, nil
}

// presetTasks validates names and parameters of decoded presets.
func presetTasks(presets []preset) ([]worker.Task, error) {
	seen := make(map[string]bool, len(presets))
	tasks := make([]worker.Task, 0, len(presets))
	for i, pr := range presets {
		if pr.Name == "" {
			return nil, fmt.Errorf("preset %d has no name", i)
		}
		if seen[pr.Name] {
			return nil, fmt.Errorf("duplicate preset name %q", pr.Name)
		}
		seen[pr.Name] = true

		if err := pr.Params.ValidateRanges(); err != nil {
			return nil, fmt.Errorf("preset %s: %w", pr.Name, err)
		}
		tasks = append(tasks, worker.Task{Name: pr.Name, Params: pr.Params})
	}
	return tasks, nil
}

// decodePresets decodes a batch.textures list. Each preset starts as a copy
// of base, so only the keys it spells out override the batch flags and an
// explicit zero stays zero.
func decodePresets(raw any, base texture.Params) ([]preset, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("batch.textures must be a list, got %T", raw)
	}

	presets := make([]preset, len(items))
	for i, item := range items {
		presets[i].Params = base
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &presets[i],
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(item); err != nil {
			return nil, fmt.Errorf("preset %d: %w", i, err)
		}
	}
	return presets, nil
}

// parsePresets reads batch.textures from a YAML document.
func parsePresets(data []byte, base texture.Params) ([]preset, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return decodePresets(v.Get("batch.textures"), base)
}
