// Package noise provides seeded 4D noise sources.
//
// Every source is a pure function of its seed and the sample point, which is
// what lets the texture synthesizer embed a 2D torus into 4D space and get
// seamless tiling for free.
package noise

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ojrac/opensimplex-go"
)

// Source samples noise at a point in 4D space.
// Values lie roughly within [-1, 1].
type Source interface {
	Eval4(x, y, z, w float64) float64
}

// Factory builds a Source from an integer seed.
type Factory func(seed int64) Source

// Backend names a noise implementation.
type Backend string

const (
	OpenSimplex Backend = "opensimplex"
	Simplex     Backend = "simplex"
	Perlin      Backend = "perlin"
)

// DefaultBackend is used when no backend is configured.
const DefaultBackend = OpenSimplex

var factories = map[Backend]Factory{
	OpenSimplex: NewOpenSimplex,
	Simplex:     func(seed int64) Source { return NewSimplex(seed) },
	Perlin:      func(seed int64) Source { return NewPerlin(seed) },
}

// Lookup resolves a backend name. The empty name resolves to DefaultBackend.
func Lookup(b Backend) (Factory, error) {
	if b == "" {
		b = DefaultBackend
	}
	f, ok := factories[Backend(strings.ToLower(string(b)))]
	if !ok {
		return nil, fmt.Errorf("unknown noise backend %q (available: %s)", b, strings.Join(Backends(), ", "))
	}
	return f, nil
}

// Backends lists the registered backend names in sorted order.
func Backends() []string {
	names := make([]string, 0, len(factories))
	for b := range factories {
		names = append(names, string(b))
	}
	sort.Strings(names)
	return names
}

// NewOpenSimplex returns an OpenSimplex source with output in [-1, 1].
func NewOpenSimplex(seed int64) Source {
	return opensimplex.New(seed)
}

// Constant is a Source that returns the same value everywhere.
type Constant float64

func (c Constant) Eval4(_, _, _, _ float64) float64 { return float64(c) }
