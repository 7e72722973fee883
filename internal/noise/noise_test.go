package noise

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for _, name := range Backends() {
		f, err := Lookup(Backend(name))
		require.NoError(t, err, name)
		require.NotNil(t, f(1), name)
	}

	f, err := Lookup("")
	require.NoError(t, err)
	assert.IsType(t, NewOpenSimplex(0), f(0))

	_, err = Lookup("OpenSimplex")
	require.NoError(t, err)

	_, err = Lookup("worley")
	require.Error(t, err)
}

func TestSourcesAreDeterministic(t *testing.T) {
	points := [][4]float64{
		{0, 0, 0, 0},
		{0.3, -1.2, 2.5, 0.7},
		{-3.1, 4.2, -0.5, 1.9},
		{10.25, 3.5, -7.75, 0.125},
	}

	for _, name := range Backends() {
		f, err := Lookup(Backend(name))
		require.NoError(t, err)

		a, b := f(42), f(42)
		for _, p := range points {
			va := a.Eval4(p[0], p[1], p[2], p[3])
			vb := b.Eval4(p[0], p[1], p[2], p[3])
			assert.Equal(t, va, vb, "%s at %v", name, p)
			assert.False(t, math.IsNaN(va), "%s produced NaN", name)
		}
	}
}

func TestSourcesVaryWithSeed(t *testing.T) {
	for _, name := range Backends() {
		f, err := Lookup(Backend(name))
		require.NoError(t, err)

		a, b := f(1), f(2)
		differs := false
		for i := 0; i < 32 && !differs; i++ {
			x := float64(i)*0.37 + 0.11
			if a.Eval4(x, -x, x*0.5, 1-x) != b.Eval4(x, -x, x*0.5, 1-x) {
				differs = true
			}
		}
		assert.True(t, differs, "%s: seeds 1 and 2 produced identical samples", name)
	}
}

func TestSourcesStayRoughlyInRange(t *testing.T) {
	for _, name := range Backends() {
		f, err := Lookup(Backend(name))
		require.NoError(t, err)
		src := f(7)

		for i := 0; i < 500; i++ {
			x := float64(i) * 0.173
			v := src.Eval4(math.Sin(x)*3, math.Cos(x)*3, x*0.01, -x*0.02)
			assert.LessOrEqual(t, math.Abs(v), 1.5, "%s out of range at step %d", name, i)
		}
	}
}

func TestSimplexZeroAtLatticeOrigin(t *testing.T) {
	// Gradient contributions vanish at a lattice vertex.
	s := NewSimplex(3)
	assert.InDelta(t, 0.0, s.Eval4(0, 0, 0, 0), 1e-12)
}

func TestConstant(t *testing.T) {
	c := Constant(0.25)
	assert.Equal(t, 0.25, c.Eval4(1, 2, 3, 4))
}

func TestFastFloor(t *testing.T) {
	cases := map[float64]int{
		0:    0,
		0.5:  0,
		1:    1,
		-0.5: -1,
		-1:   -1,
		-2:   -2,
		-2.1: -3,
	}
	for x, want := range cases {
		assert.Equal(t, want, fastFloor(x), "fastFloor(%g)", x)
		assert.Equal(t, int(math.Floor(x)), fastFloor(x), "fastFloor(%g)", x)
	}
}
