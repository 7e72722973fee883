package gradient

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/noisetex/internal/texture"
)

var (
	black = color.NRGBA{A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	red   = color.NRGBA{R: 255, A: 255}
)

func TestParseColor(t *testing.T) {
	cases := map[string]color.NRGBA{
		"#000":      black,
		"#ffffff":   white,
		"#FF000080": {R: 255, A: 128},
		"red":       red,
		" White ":   white,
	}
	for in, want := range cases {
		got, err := ParseColor(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"#12", "#zzzzzz", "notacolour", "#1234567"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestParse(t *testing.T) {
	g, err := Parse("1:#ffffff, 0:black,0.5:red", Blend)
	require.NoError(t, err)
	require.Len(t, g.Stops, 3)
	assert.Equal(t, 0.0, g.Stops[0].Pos)
	assert.Equal(t, 0.5, g.Stops[1].Pos)
	assert.Equal(t, red, g.Stops[1].Color)

	_, err = Parse("", Blend)
	assert.Error(t, err)
	_, err = Parse("0.5", Blend)
	assert.Error(t, err)
	_, err = Parse("1.5:red", Blend)
	assert.Error(t, err)
	_, err = Parse("0:red", "smooth")
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	a, err := Parse("1:white,0:#000", Blend)
	require.NoError(t, err)
	b, err := Parse("0:black,1:#ffffffff", "")
	require.NoError(t, err)
	assert.Equal(t, "0:#000000ff,1:#ffffffff/blend", a.String())
	assert.Equal(t, a.String(), b.String())

	c, err := Parse("0:black,1:white", Fixed)
	require.NoError(t, err)
	assert.NotEqual(t, a.String(), c.String())
}

func TestEvaluateBlend(t *testing.T) {
	g := Grayscale()

	assert.Equal(t, black, g.Evaluate(-1))
	assert.Equal(t, black, g.Evaluate(0))
	assert.Equal(t, white, g.Evaluate(1))
	assert.Equal(t, white, g.Evaluate(3))
	assert.Equal(t, color.NRGBA{R: 128, G: 128, B: 128, A: 255}, g.Evaluate(0.5))
}

func TestEvaluateFixed(t *testing.T) {
	g, err := New(Fixed,
		Stop{Pos: 0.25, Color: black},
		Stop{Pos: 0.75, Color: red},
		Stop{Pos: 1, Color: white},
	)
	require.NoError(t, err)

	assert.Equal(t, black, g.Evaluate(0.1))
	assert.Equal(t, red, g.Evaluate(0.5))
	assert.Equal(t, red, g.Evaluate(0.75))
	assert.Equal(t, white, g.Evaluate(0.8))
}

func TestSingleStop(t *testing.T) {
	g, err := New(Blend, Stop{Pos: 0.3, Color: red})
	require.NoError(t, err)
	assert.Equal(t, red, g.Evaluate(0))
	assert.Equal(t, red, g.Evaluate(1))
}

func TestBake(t *testing.T) {
	g := Grayscale()

	strip, err := g.Bake(4)
	require.NoError(t, err)
	require.Equal(t, 4, strip.Bounds().Dx())
	require.Equal(t, 1, strip.Bounds().Dy())

	// Pixel i is sampled at i/resolution, so the last pixel is not pure white.
	assert.Equal(t, uint8(0), strip.NRGBAAt(0, 0).R)
	assert.Equal(t, uint8(64), strip.NRGBAAt(1, 0).R)
	assert.Equal(t, uint8(128), strip.NRGBAAt(2, 0).R)
	assert.Equal(t, uint8(191), strip.NRGBAAt(3, 0).R)

	wide, err := g.Bake(512)
	require.NoError(t, err)
	assert.Equal(t, 512, wide.Bounds().Dx())

	_, err = g.Bake(0)
	assert.ErrorIs(t, err, texture.ErrInvalidParameter)
}

func TestMap(t *testing.T) {
	tex := &texture.Texture{Width: 2, Height: 1, Values: []float64{0, 1}}
	g, err := Parse("0:black,1:red", Blend)
	require.NoError(t, err)

	img := g.Map(tex)
	assert.Equal(t, black, img.NRGBAAt(0, 0))
	assert.Equal(t, red, img.NRGBAAt(1, 0))
}
