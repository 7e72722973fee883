package texture

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/noisetex/internal/noise"
)

// ErrInvalidParameter is wrapped by every parameter validation failure.
var ErrInvalidParameter = errors.New("invalid parameter")

const (
	MinOctaves = 1
	MaxOctaves = 9

	// Octave seeds are drawn from [-octaveSeedRange, octaveSeedRange).
	octaveSeedRange = 100000

	// DegenerateValue is the normalized value of every pixel when the raw
	// field is constant.
	DegenerateValue = 0.5
)

// SeedMode selects how octave noise sources are seeded.
type SeedMode string

const (
	// SeedPerOctave draws one seed per octave from a sequence seeded by Params.Seed.
	SeedPerOctave SeedMode = "per-octave"
	// SeedShared uses a single source seeded directly by Params.Seed for every octave.
	SeedShared SeedMode = "shared"
)

// Params describes one noise texture. The zero Power and empty Backend and
// SeedMode take their defaults.
type Params struct {
	Backend     noise.Backend `mapstructure:"backend" json:"backend,omitempty"`
	SeedMode    SeedMode      `mapstructure:"seed_mode" json:"seed_mode,omitempty"`
	Seed        int64         `mapstructure:"seed" json:"seed"`
	Width       int           `mapstructure:"width" json:"width"`
	Height      int           `mapstructure:"height" json:"height"`
	Scale       float64       `mapstructure:"scale" json:"scale"`
	Octaves     int           `mapstructure:"octaves" json:"octaves"`
	Persistence float64       `mapstructure:"persistence" json:"persistence"`
	Lacunarity  float64       `mapstructure:"lacunarity" json:"lacunarity"`
	Power       float64       `mapstructure:"power" json:"power,omitempty"`
	Inverted    bool          `mapstructure:"inverted" json:"inverted,omitempty"`
}

// DefaultParams mirrors the defaults of the texture creator inspector.
func DefaultParams() Params {
	return Params{
		Backend:     noise.DefaultBackend,
		SeedMode:    SeedPerOctave,
		Width:       128,
		Height:      128,
		Scale:       1,
		Octaves:     4,
		Persistence: 0.5,
		Lacunarity:  2,
		Power:       1,
	}
}

// Validate rejects parameters generation cannot run with.
// Out-of-range octave counts are rejected, not clamped, and NaN or infinite
// floats never reach the synthesizer.
func (p Params) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: resolution must be positive, got %dx%d", ErrInvalidParameter, p.Width, p.Height)
	}
	if p.Octaves < MinOctaves || p.Octaves > MaxOctaves {
		return fmt.Errorf("%w: octaves must be within [%d,%d], got %d", ErrInvalidParameter, MinOctaves, MaxOctaves, p.Octaves)
	}
	switch p.SeedMode {
	case "", SeedPerOctave, SeedShared:
	default:
		return fmt.Errorf("%w: unknown seed mode %q", ErrInvalidParameter, p.SeedMode)
	}
	if _, err := noise.Lookup(p.backend()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"scale", p.Scale}, {"persistence", p.Persistence},
		{"lacunarity", p.Lacunarity}, {"power", p.Power},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s must be finite, got %g", ErrInvalidParameter, f.name, f.v)
		}
	}
	return nil
}

// ValidateRanges applies the inspector slider ranges on top of Validate.
// Generation itself accepts values outside these ranges.
func (p Params) ValidateRanges() error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Scale <= 0 {
		return fmt.Errorf("%w: scale must be positive, got %g", ErrInvalidParameter, p.Scale)
	}
	if p.Persistence < 0 || p.Persistence > 1 {
		return fmt.Errorf("%w: persistence must be within [0,1], got %g", ErrInvalidParameter, p.Persistence)
	}
	if p.Lacunarity < 0.1 || p.Lacunarity > 4 {
		return fmt.Errorf("%w: lacunarity must be within [0.1,4], got %g", ErrInvalidParameter, p.Lacunarity)
	}
	if pw := p.power(); pw < 1 || pw > 8 {
		return fmt.Errorf("%w: power must be within [1,8], got %g", ErrInvalidParameter, pw)
	}
	return nil
}

func (p Params) power() float64 {
	if p.Power == 0 {
		return 1
	}
	return p.Power
}

func (p Params) backend() noise.Backend {
	if p.Backend == "" {
		return noise.DefaultBackend
	}
	return noise.Backend(strings.ToLower(string(p.Backend)))
}

func (p Params) seedMode() SeedMode {
	if p.SeedMode == "" {
		return SeedPerOctave
	}
	return p.SeedMode
}

// Key is a stable identifier for the parameter set, used for cache and
// catalog lookups. Equal keys produce identical textures.
func (p Params) Key() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	inv := 0
	if p.Inverted {
		inv = 1
	}
	return fmt.Sprintf("%s_%s_s%d_%dx%d_sc%s_o%d_p%s_l%s_pw%s_i%d",
		p.backend(), p.seedMode(), p.Seed, p.Width, p.Height,
		f(p.Scale), p.Octaves, f(p.Persistence), f(p.Lacunarity), f(p.power()), inv)
}
