package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/noisetex/internal/gradient"
	"github.com/MeKo-Tech/noisetex/internal/imageio"
	"github.com/MeKo-Tech/noisetex/internal/pipeline"
	"github.com/MeKo-Tech/noisetex/internal/texture"
	"github.com/MeKo-Tech/noisetex/internal/worker"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a single noise texture",
	Long: `Generate one seamless noise texture and write it below the asset root.

The image format follows the save path extension (png, bmp, tiff) unless
--format is given. An existing file is overwritten.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	addTextureFlags(generateCmd, "generate")

	generateCmd.Flags().String("save-path", filepath.Join("Resources", "Textures", "Noise", "Noise0.png"), "Output path, relative to --asset-root unless absolute")
	generateCmd.Flags().String("format", "", "Image format (png, bmp, tiff); defaults to the save path extension")
	generateCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	generateCmd.Flags().Int("preview", 0, fmt.Sprintf("Also write a thumbnail of this size (e.g. %d)", texture.PreviewSize))
	generateCmd.Flags().Bool("tiled-preview", false, "Also write a 2x2 tiled preview to check seams")
	generateCmd.Flags().String("gradient", "", `Colourise through a gradient, e.g. "0:#001020,0.6:steelblue,1:white"`)
	generateCmd.Flags().Float32("blur", 0, "Wrap-around Gaussian blur sigma in pixels")
	generateCmd.Flags().Uint8("threshold", 0, "Turn the texture into a black and white mask at this level (1-255)")
	generateCmd.Flags().String("gradient-mode", string(gradient.Blend), "Gradient mode: blend or fixed")
	generateCmd.Flags().Int("workers", 0, "Row bands synthesized in parallel (default: number of CPUs)")

	bindFlags(generateCmd, []flagBinding{
		{"generate.save_path", "save-path"},
		{"generate.format", "format"},
		{"generate.png_compression", "png-compression"},
		{"generate.preview", "preview"},
		{"generate.tiled_preview", "tiled-preview"},
		{"generate.gradient", "gradient"},
		{"generate.gradient_mode", "gradient-mode"},
		{"generate.blur", "blur"},
		{"generate.threshold", "threshold"},
		{"generate.workers", "workers"},
	})
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	params := textureParams("generate")
	if err := params.ValidateRanges(); err != nil {
		return err
	}

	savePath := imageio.ResolvePath(viper.GetString("asset-root"), viper.GetString("generate.save_path"))
	format := imageio.FormatFromPath(savePath)
	if s := viper.GetString("generate.format"); s != "" {
		f, err := imageio.ParseFormat(s)
		if err != nil {
			return err
		}
		format = f
	}

	grad, err := parseGradientFlag(viper.GetString("generate.gradient"), viper.GetString("generate.gradient_mode"))
	if err != nil {
		return err
	}

	dir := filepath.Dir(savePath)
	name := strings.TrimSuffix(filepath.Base(savePath), filepath.Ext(savePath))

	gen, err := pipeline.NewGenerator(dir, logger, pipeline.GeneratorOptions{
		Format:         format,
		PNGCompression: viper.GetString("generate.png_compression"),
		Gradient:       grad,
		BlurSigma:      float32(viper.GetFloat64("generate.blur")),
		Threshold:      uint8(viper.GetUint("generate.threshold")),
		PreviewSize:    viper.GetInt("generate.preview"),
		TiledPreview:   viper.GetBool("generate.tiled_preview"),
		Workers:        viper.GetInt("generate.workers"),
	})
	if err != nil {
		return fmt.Errorf("failed to init generator: %w", err)
	}

	logger.Info("Starting texture generation",
		"seed", params.Seed,
		"size", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"octaves", params.Octaves,
		"backend", params.Backend,
		"format", format,
	)

	path, err := gen.Generate(context.Background(), worker.Task{Name: name, Params: params, Force: true})
	if err != nil {
		return fmt.Errorf("failed to generate texture: %w", err)
	}

	logger.Info("Texture generated", "path", path, "key", params.Key())
	return nil
}

// parseGradientFlag returns nil for an empty spec.
func parseGradientFlag(spec, mode string) (*gradient.Gradient, error) {
	if spec == "" {
		return nil, nil
	}
	g, err := gradient.Parse(spec, gradient.Mode(mode))
	if err != nil {
		return nil, fmt.Errorf("invalid gradient: %w", err)
	}
	return g, nil
}
