package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/noisetex/internal/noise"
	"github.com/MeKo-Tech/noisetex/internal/texture"
)

type flagBinding struct {
	key  string
	flag string
}

func mustBindPFlag(key string, f *pflag.Flag) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("failed to bind flag %s: %v", key, err))
	}
}

func bindFlags(cmd *cobra.Command, bindings []flagBinding) {
	for _, bf := range bindings {
		f := cmd.Flags().Lookup(bf.flag)
		if f == nil {
			panic(fmt.Sprintf("unknown flag %s", bf.flag))
		}
		mustBindPFlag(bf.key, f)
	}
}

// addTextureFlags registers the noise parameters on cmd and binds them
// below section, e.g. generate.octaves.
func addTextureFlags(cmd *cobra.Command, section string) {
	d := texture.DefaultParams()
	f := cmd.Flags()

	f.Int64("seed", 0, "Seed for the octave noise generators")
	f.Int("width", d.Width, "Texture width in pixels")
	f.Int("height", d.Height, "Texture height in pixels")
	f.Float64("scale", d.Scale, "Radius of the sampling torus; larger values give finer detail")
	f.Int("octaves", d.Octaves, fmt.Sprintf("Number of summed noise layers [%d,%d]", texture.MinOctaves, texture.MaxOctaves))
	f.Float64("persistence", d.Persistence, "Amplitude multiplier per octave [0,1]")
	f.Float64("lacunarity", d.Lacunarity, "Frequency multiplier per octave [0.1,4]")
	f.Float64("power", d.Power, "Contrast curve exponent [1,8]; 1 disables it")
	f.Bool("inverted", false, "Invert the texture")
	f.String("backend", string(d.Backend), "Noise backend ("+strings.Join(noise.Backends(), ", ")+")")
	f.String("seed-mode", string(d.SeedMode), "Octave seeding: per-octave or shared")

	bindFlags(cmd, []flagBinding{
		{section + ".seed", "seed"},
		{section + ".width", "width"},
		{section + ".height", "height"},
		{section + ".scale", "scale"},
		{section + ".octaves", "octaves"},
		{section + ".persistence", "persistence"},
		{section + ".lacunarity", "lacunarity"},
		{section + ".power", "power"},
		{section + ".inverted", "inverted"},
		{section + ".backend", "backend"},
		{section + ".seed_mode", "seed-mode"},
	})
}

// textureParams reads the parameters bound by addTextureFlags.
func textureParams(section string) texture.Params {
	return texture.Params{
		Backend:     noise.Backend(viper.GetString(section + ".backend")),
		SeedMode:    texture.SeedMode(viper.GetString(section + ".seed_mode")),
		Seed:        viper.GetInt64(section + ".seed"),
		Width:       viper.GetInt(section + ".width"),
		Height:      viper.GetInt(section + ".height"),
		Scale:       viper.GetFloat64(section + ".scale"),
		Octaves:     viper.GetInt(section + ".octaves"),
		Persistence: viper.GetFloat64(section + ".persistence"),
		Lacunarity:  viper.GetFloat64(section + ".lacunarity"),
		Power:       viper.GetFloat64(section + ".power"),
		Inverted:    viper.GetBool(section + ".inverted"),
	}
}
