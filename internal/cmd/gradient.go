package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/noisetex/internal/gradient"
	"github.com/MeKo-Tech/noisetex/internal/imageio"
)

var gradientCmd = &cobra.Command{
	Use:   "gradient",
	Short: "Bake a colour gradient into an N×1 strip",
	RunE:  runGradient,
}

func init() {
	rootCmd.AddCommand(gradientCmd)

	gradientCmd.Flags().String("stops", "0:black,1:white", `Gradient stops as pos:colour pairs, e.g. "0:#1b2a49,0.5:teal,1:#ffffff"`)
	gradientCmd.Flags().String("mode", string(gradient.Blend), "Gradient mode: blend or fixed")
	gradientCmd.Flags().Int("resolution", 256, "Strip width in pixels")
	gradientCmd.Flags().String("save-path", filepath.Join("Resources", "Textures", "Gradients", "Gradient0.png"), "Output path, relative to --asset-root unless absolute")

	bindFlags(gradientCmd, []flagBinding{
		{"gradient.stops", "stops"},
		{"gradient.mode", "mode"},
		{"gradient.resolution", "resolution"},
		{"gradient.save_path", "save-path"},
	})
}

func runGradient(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	g, err := parseGradientFlag(viper.GetString("gradient.stops"), viper.GetString("gradient.mode"))
	if err != nil {
		return err
	}
	if g == nil {
		g = gradient.Grayscale()
	}

	strip, err := g.Bake(viper.GetInt("gradient.resolution"))
	if err != nil {
		return err
	}

	path := imageio.ResolvePath(viper.GetString("asset-root"), viper.GetString("gradient.save_path"))
	if err := imageio.WriteFile(path, strip, imageio.Options{Format: imageio.FormatFromPath(path)}); err != nil {
		return fmt.Errorf("failed to write gradient: %w", err)
	}

	logger.Info("Gradient baked", "path", path, "stops", len(g.Stops), "resolution", strip.Bounds().Dx())
	return nil
}
