package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/noisetex/internal/imageio"
	"github.com/MeKo-Tech/noisetex/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve textures over HTTP, generating them on demand",
	Long: `Serve textures at /textures/{name}.{png,bmp,tiff}. Query parameters override
the defaults below, e.g. /textures/rock.png?seed=3&octaves=6&power=2.
Generated textures are cached on disk by parameter key.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addTextureFlags(serveCmd, "serve")

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("cache-dir", filepath.Join("cache", "textures"), "Directory for cached textures, relative to --asset-root unless absolute")
	serveCmd.Flags().String("catalog", "", "Catalog database to serve under /catalog/")
	serveCmd.Flags().Bool("disable-cache", false, "Always regenerate textures (still writes to disk)")
	serveCmd.Flags().Int("max-concurrent-generations", runtime.NumCPU(), "Max concurrent texture generations (default: number of CPUs)")
	serveCmd.Flags().Int("max-resolution", server.DefaultMaxResolution, "Largest width or height a request may ask for")
	serveCmd.Flags().Duration("generation-timeout", time.Minute, "Timeout per texture generation")
	serveCmd.Flags().String("cache-control", "public, max-age=86400", "Cache-Control header for served textures")
	serveCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")

	bindFlags(serveCmd, []flagBinding{
		{"serve.addr", "addr"},
		{"serve.cache_dir", "cache-dir"},
		{"serve.catalog", "catalog"},
		{"serve.disable_cache", "disable-cache"},
		{"serve.max_concurrent_generations", "max-concurrent-generations"},
		{"serve.max_resolution", "max-resolution"},
		{"serve.generation_timeout", "generation-timeout"},
		{"serve.cache_control", "cache-control"},
		{"serve.png_compression", "png-compression"},
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	cacheDir := imageio.ResolvePath(viper.GetString("asset-root"), viper.GetString("serve.cache_dir"))
	maxConc := viper.GetInt("serve.max_concurrent_generations")
	cacheControl := viper.GetString("serve.cache_control")

	defaults := textureParams("serve")
	if err := defaults.ValidateRanges(); err != nil {
		return err
	}

	od, err := server.NewOnDemandTextures(server.OnDemandTexturesConfig{
		CacheDir:                 cacheDir,
		PNGCompression:           viper.GetString("serve.png_compression"),
		CacheControl:             cacheControl,
		Defaults:                 defaults,
		MaxConcurrentGenerations: maxConc,
		MaxResolution:            viper.GetInt("serve.max_resolution"),
		GenerationTimeout:        viper.GetDuration("serve.generation_timeout"),
		DisableCache:             viper.GetBool("serve.disable_cache"),
	}, logger)
	if err != nil {
		return err
	}

	var cat *server.CatalogHandler
	if path := viper.GetString("serve.catalog"); path != "" {
		cat, err = server.NewCatalogHandler(server.CatalogConfig{Path: path, CacheControl: cacheControl}, logger)
		if err != nil {
			return err
		}
		defer cat.Close()
	}

	logger.Info("texture server listening",
		"addr", addr,
		"cache_dir", cacheDir,
		"catalog", viper.GetString("serve.catalog"),
		"max_concurrent_generations", maxConc,
	)

	srv := &http.Server{Addr: addr, Handler: server.NewMux(od, cat), ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Received interrupt signal, shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
