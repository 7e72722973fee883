// Package texture synthesizes seamless multi-octave noise textures.
package texture

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/MeKo-Tech/noisetex/internal/noise"
)

// Synthesizer turns Params into textures using a fixed noise factory.
// A nil factory resolves the backend named in each Params.
type Synthesizer struct {
	factory noise.Factory
	workers int
}

// NewSynthesizer creates a synthesizer. workers <= 0 uses one worker per CPU.
func NewSynthesizer(factory noise.Factory, workers int) *Synthesizer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Synthesizer{factory: factory, workers: workers}
}

// Generate synthesizes a texture with the backend named in p.
func Generate(p Params) (*Texture, error) {
	return NewSynthesizer(nil, 0).Generate(p)
}

// Generate fills the raw sample grid, normalizes it, and applies the power
// curve and inversion. It is deterministic for a given Params.
func (s *Synthesizer) Generate(p Params) (*Texture, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	factory := s.factory
	if factory == nil {
		f, err := noise.Lookup(p.backend())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
		}
		factory = f
	}

	sources := octaveSources(p, factory)
	raw, lo, hi := s.fill(p, sources)

	power := p.power()
	values := raw
	for i, v := range raw {
		v = inverseLerp(lo, hi, v)
		if power != 1 {
			v = powerCurve(v, power)
		}
		if p.Inverted {
			v = 1 - v
		}
		values[i] = v
	}

	return &Texture{
		Width:  p.Width,
		Height: p.Height,
		Values: values,
		Min:    lo,
		Max:    hi,
		Wrap:   WrapRepeat,
	}, nil
}

// OctaveSeeds draws the per-octave seeds from a sequence seeded by seed.
func OctaveSeeds(seed int64, octaves int) []int64 {
	rng := rand.New(rand.NewSource(seed))
	seeds := make([]int64, octaves)
	for i := range seeds {
		seeds[i] = int64(rng.Intn(2*octaveSeedRange) - octaveSeedRange)
	}
	return seeds
}

func octaveSources(p Params, factory noise.Factory) []noise.Source {
	sources := make([]noise.Source, p.Octaves)
	if p.seedMode() == SeedShared {
		shared := factory(p.Seed)
		for i := range sources {
			sources[i] = shared
		}
		return sources
	}
	for i, seed := range OctaveSeeds(p.Seed, p.Octaves) {
		sources[i] = factory(seed)
	}
	return sources
}

type extremes struct {
	lo, hi float64
}

// fill samples every pixel and returns the raw grid with its extremes.
// Rows are split into contiguous bands, one per worker; each band tracks its
// own extremes, merged once all bands are done.
func (s *Synthesizer) fill(p Params, sources []noise.Source) ([]float64, float64, float64) {
	raw := make([]float64, p.Width*p.Height)

	workers := s.workers
	if workers > p.Height {
		workers = p.Height
	}
	band := (p.Height + workers - 1) / workers

	bands := make([]extremes, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		y0 := w * band
		y1 := min(y0+band, p.Height)
		wg.Add(1)
		go func(w, y0, y1 int) {
			defer wg.Done()
			e := extremes{lo: math.Inf(1), hi: math.Inf(-1)}
			for y := y0; y < y1; y++ {
				row := raw[y*p.Width : (y+1)*p.Width]
				for x := range row {
					v := sample(p, sources, x, y)
					row[x] = v
					e.lo = math.Min(e.lo, v)
					e.hi = math.Max(e.hi, v)
				}
			}
			bands[w] = e
		}(w, y0, y1)
	}
	wg.Wait()

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, e := range bands {
		lo = math.Min(lo, e.lo)
		hi = math.Max(hi, e.hi)
	}
	return raw, lo, hi
}

// sample accumulates every octave at pixel (x, y).
func sample(p Params, sources []noise.Source, x, y int) float64 {
	sum := 0.0
	amplitude := 1.0
	frequency := 1.0
	for _, src := range sources {
		pt := embed(x, y, p.Width, p.Height, p.Scale, frequency)
		sum += src.Eval4(pt[0], pt[1], pt[2], pt[3]) * amplitude
		amplitude *= p.Persistence
		frequency *= p.Lacunarity
	}
	return sum
}

// embed places pixel (x, y) on the product of two circles in 4D. The angle
// is taken from the wrapped coordinate, so x and x+width land on the exact
// same point.
func embed(x, y, width, height int, scale, frequency float64) [4]float64 {
	ax := 2 * math.Pi * float64(wrapIndex(x, width)) / float64(width)
	ay := 2 * math.Pi * float64(wrapIndex(y, height)) / float64(height)
	r := scale / frequency
	return [4]float64{
		r * math.Sin(ax),
		r * math.Cos(ax),
		r * math.Sin(ay),
		r * math.Cos(ay),
	}
}

func inverseLerp(lo, hi, v float64) float64 {
	if lo == hi {
		return DegenerateValue
	}
	return (v - lo) / (hi - lo)
}

// powerCurve is the contrast remap applied when power != 1. The leading power
// factor makes it jump at 0.5 unless power is 1 or 2; callers clamp on
// quantization.
func powerCurve(v, power float64) float64 {
	if v < 0.5 {
		return power * math.Pow(v, power)
	}
	return 1 - power*math.Pow(1-v, power)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func wrapIndex(x, max int) int {
	x %= max
	if x < 0 {
		x += max
	}
	return x
}
