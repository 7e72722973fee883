// Package gradient evaluates colour gradients and bakes them into lookup strips.
package gradient

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/MeKo-Tech/noisetex/internal/texture"
)

// Mode selects how colours between stops are computed.
type Mode string

const (
	// Blend interpolates linearly between neighbouring stops.
	Blend Mode = "blend"
	// Fixed holds the colour of the next stop, producing hard bands.
	Fixed Mode = "fixed"
)

// Stop is a colour at a position in [0,1].
type Stop struct {
	Pos   float64
	Color color.NRGBA
}

// Gradient is an ordered set of stops.
type Gradient struct {
	Stops []Stop
	Mode  Mode
}

// New sorts the stops and validates them.
func New(mode Mode, stops ...Stop) (*Gradient, error) {
	if len(stops) == 0 {
		return nil, fmt.Errorf("gradient needs at least one stop")
	}
	switch mode {
	case "":
		mode = Blend
	case Blend, Fixed:
	default:
		return nil, fmt.Errorf("unknown gradient mode %q", mode)
	}
	sorted := make([]Stop, len(stops))
	copy(sorted, stops)
	for _, s := range sorted {
		if s.Pos < 0 || s.Pos > 1 || math.IsNaN(s.Pos) {
			return nil, fmt.Errorf("stop position %g outside [0,1]", s.Pos)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Pos < sorted[j].Pos })
	return &Gradient{Stops: sorted, Mode: mode}, nil
}

// String renders the stops the way Parse reads them, followed by /mode.
// Equal gradients render equally.
func (g *Gradient) String() string {
	parts := make([]string, len(g.Stops))
	for i, s := range g.Stops {
		c := s.Color
		parts[i] = fmt.Sprintf("%s:#%02x%02x%02x%02x",
			strconv.FormatFloat(s.Pos, 'g', -1, 64), c.R, c.G, c.B, c.A)
	}
	return strings.Join(parts, ",") + "/" + string(g.Mode)
}

// Grayscale runs from black to white.
func Grayscale() *Gradient {
	g, _ := New(Blend,
		Stop{Pos: 0, Color: color.NRGBA{A: 255}},
		Stop{Pos: 1, Color: color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
	)
	return g
}

// Parse reads a comma separated list of pos:colour stops, for example
// "0:#000000,0.4:teal,1:#ffffff80". Colours are #rgb, #rrggbb, #rrggbbaa or
// an SVG colour name.
func Parse(spec string, mode Mode) (*Gradient, error) {
	var stops []Stop
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pos, col, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("stop %q: expected pos:colour", part)
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(pos), 64)
		if err != nil {
			return nil, fmt.Errorf("stop %q: invalid position: %w", part, err)
		}
		c, err := ParseColor(col)
		if err != nil {
			return nil, fmt.Errorf("stop %q: %w", part, err)
		}
		stops = append(stops, Stop{Pos: p, Color: c})
	}
	return New(mode, stops...)
}

// ParseColor parses a hex colour or an SVG colour name.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		c, ok := colornames.Map[strings.ToLower(s)]
		if !ok {
			return color.NRGBA{}, fmt.Errorf("unknown colour %q", s)
		}
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}

	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Evaluate returns the colour at t, clamped to [0,1].
func (g *Gradient) Evaluate(t float64) color.NRGBA {
	stops := g.Stops
	if t <= stops[0].Pos || math.IsNaN(t) {
		return stops[0].Color
	}
	last := stops[len(stops)-1]
	if t >= last.Pos {
		return last.Color
	}

	i := sort.Search(len(stops), func(i int) bool { return stops[i].Pos >= t })
	a, b := stops[i-1], stops[i]
	if g.Mode == Fixed {
		return b.Color
	}
	f := (t - a.Pos) / (b.Pos - a.Pos)
	return color.NRGBA{
		R: mix(a.Color.R, b.Color.R, f),
		G: mix(a.Color.G, b.Color.G, f),
		B: mix(a.Color.B, b.Color.B, f),
		A: mix(a.Color.A, b.Color.A, f),
	}
}

func mix(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

// Bake samples the gradient into a resolution×1 strip, pixel i taken at
// i/resolution. Strips are meant to be sampled with clamp wrapping.
func (g *Gradient) Bake(resolution int) (*image.NRGBA, error) {
	if resolution <= 0 {
		return nil, fmt.Errorf("%w: resolution must be positive, got %d", texture.ErrInvalidParameter, resolution)
	}
	img := image.NewNRGBA(image.Rect(0, 0, resolution, 1))
	for i := 0; i < resolution; i++ {
		img.SetNRGBA(i, 0, g.Evaluate(float64(i)/float64(resolution)))
	}
	return img, nil
}

// Map colours a noise texture through the gradient. Orientation matches
// texture.Texture.NRGBA.
func (g *Gradient) Map(tex *texture.Texture) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, tex.Width, tex.Height))
	for y := 0; y < tex.Height; y++ {
		row := tex.Height - 1 - y
		for x := 0; x < tex.Width; x++ {
			v := float64(texture.Quantize(tex.At(x, y))) / 255
			img.SetNRGBA(x, row, g.Evaluate(v))
		}
	}
	return img
}
