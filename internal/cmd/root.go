package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "noisetex",
	Short: "A seamless noise texture generator",
	Long: `noisetex synthesizes seeded, tileable, multi-octave noise textures.

Textures are sampled from 4D noise on a torus so they repeat without seams.
They can be written as images, colourised through a gradient, stored in a
SQLite catalog or served over HTTP.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("asset-root", ".", "Directory relative save paths are resolved against")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")

	mustBindPFlag("asset-root", rootCmd.PersistentFlags().Lookup("asset-root"))
	mustBindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// NOISETEX_GENERATE_SEED overrides generate.seed.
	viper.SetEnvPrefix("NOISETEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
