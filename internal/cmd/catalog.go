package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/noisetex/internal/catalog"
	"github.com/MeKo-Tech/noisetex/internal/imageio"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and fill texture catalogs",
}

var catalogListCmd = &cobra.Command{
	Use:   "list <catalog.db>",
	Short: "List the textures in a catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogList,
}

var catalogExportCmd = &cobra.Command{
	Use:   "export <catalog.db> <key> <path>",
	Short: "Write one catalogued texture to a file",
	Args:  cobra.ExactArgs(3),
	RunE:  runCatalogExport,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <catalog.db>",
	Short: "Import a folder of texture images into a catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogImport,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd, catalogExportCmd, catalogImportCmd)

	catalogListCmd.Flags().Bool("json", false, "Print the listing as JSON")
	catalogImportCmd.Flags().String("input-dir", filepath.Join("Resources", "Textures", "Noise"), "Directory with png, bmp or tiff textures")
	catalogImportCmd.Flags().String("name", "noisetex", "Catalog name stored in its metadata")

	bindFlags(catalogListCmd, []flagBinding{{"catalog.json", "json"}})
	bindFlags(catalogImportCmd, []flagBinding{
		{"catalog.input_dir", "input-dir"},
		{"catalog.name", "name"},
	})
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	r, err := catalog.OpenReader(args[0])
	if err != nil {
		return err
	}
	defer r.Close()

	infos, err := r.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if viper.GetBool("catalog.json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSEED\tSIZE\tFORMAT\tBYTES\tSTORED\tKEY")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%d\t%dx%d\t%s\t%d\t%d\t%s\n", info.Name, info.Seed, info.Width, info.Height, info.Format, info.Size, info.Stored, info.Key)
	}
	return tw.Flush()
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	r, err := catalog.OpenReader(args[0])
	if err != nil {
		return err
	}
	defer r.Close()

	entry, err := r.ReadTexture(args[1])
	if err != nil {
		return err
	}

	path := imageio.ResolvePath(viper.GetString("asset-root"), args[2])
	if err := imageio.WriteBytes(path, entry.Data); err != nil {
		return err
	}
	logger.Info("Texture exported", "key", entry.Key, "path", path, "format", entry.Format)
	return nil
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	inputDir := imageio.ResolvePath(viper.GetString("asset-root"), viper.GetString("catalog.input_dir"))
	if _, err := os.Stat(inputDir); os.IsNotExist(err) {
		return fmt.Errorf("input directory does not exist: %s", inputDir)
	}

	files, err := scanTextureDirectory(inputDir)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", inputDir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no textures found in %s", inputDir)
	}

	w, err := catalog.New(args[0], catalog.Metadata{
		Name:        viper.GetString("catalog.name"),
		Description: "Imported textures",
		Version:     "1.0",
	})
	if err != nil {
		return fmt.Errorf("failed to create catalog writer: %w", err)
	}
	defer w.Close()

	logger.Info("Importing textures", "input_dir", inputDir, "count", len(files), "catalog", args[0])
	var imported int
	for _, path := range files {
		entry, err := importEntry(path)
		if err != nil {
			logger.Error("Failed to import texture", "path", path, "error", err)
			continue
		}
		if err := w.WriteTexture(entry); err != nil {
			logger.Error("Failed to store texture", "path", path, "error", err)
			continue
		}
		imported++
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush catalog: %w", err)
	}
	logger.Info("Import complete", "catalog", args[0], "textures", imported)
	return nil
}

// scanTextureDirectory lists image files with a supported extension.
func scanTextureDirectory(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, err := imageio.ParseFormat(filepath.Ext(path)); err != nil || filepath.Ext(path) == "" {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// importEntry keys a file by its base name. Only the size of the image is
// known, so the stored params carry width and height alone.
func importEntry(path string) (catalog.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog.Entry{}, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return catalog.Entry{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	entry := catalog.Entry{
		Key:    "file_" + name,
		Name:   name,
		Format: string(imageio.FormatFromPath(path)),
		Data:   data,
	}
	entry.Params.Width = cfg.Width
	entry.Params.Height = cfg.Height
	return entry, nil
}
