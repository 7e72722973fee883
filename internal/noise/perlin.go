package noise

import "github.com/aquilax/go-perlin"

// PerlinSource folds a 4D point into two 3D Perlin lookups.
// go-perlin has no 4D variant; the fold keeps the result a pure function of
// the 4D point, so a torus embedding still tiles.
type PerlinSource struct {
	a *perlin.Perlin
	b *perlin.Perlin
}

// NewPerlin builds a single-octave Perlin source. Octaves are summed by the
// synthesizer, not inside the source.
func NewPerlin(seed int64) *PerlinSource {
	return &PerlinSource{
		a: perlin.NewPerlin(2.0, 2.0, 1, seed),
		b: perlin.NewPerlin(2.0, 2.0, 1, seed^0x5bd1e995),
	}
}

// Eval4 averages the (x,y,z) and (z,w,x) slices.
func (p *PerlinSource) Eval4(x, y, z, w float64) float64 {
	return 0.5 * (p.a.Noise3D(x, y, z) + p.b.Noise3D(z+17.31, w, x-4.73))
}
