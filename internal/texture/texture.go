package texture

import (
	"image"
	"image/color"
	"math"
)

// WrapMode describes how a texture is sampled outside its bounds.
type WrapMode int

const (
	WrapRepeat WrapMode = iota
	WrapClamp
)

func (m WrapMode) String() string {
	if m == WrapClamp {
		return "clamp"
	}
	return "repeat"
}

// Texture is a generated noise field.
//
// Values are row-major with row 0 at texture-space v=0, which is the bottom
// row of the exported image. They are not clamped; quantization clamps.
type Texture struct {
	Values []float64
	Width  int
	Height int
	// Min and Max are the raw extremes before normalization.
	Min  float64
	Max  float64
	Wrap WrapMode
}

// At returns the final value at (x, y) in texture space, wrapping per Wrap.
func (t *Texture) At(x, y int) float64 {
	if t.Wrap == WrapClamp {
		x = min(max(x, 0), t.Width-1)
		y = min(max(y, 0), t.Height-1)
	} else {
		x = wrapIndex(x, t.Width)
		y = wrapIndex(y, t.Height)
	}
	return t.Values[y*t.Width+x]
}

// Pixels quantizes the texture to 8-bit grayscale in texture-space order.
func (t *Texture) Pixels() []uint8 {
	px := make([]uint8, len(t.Values))
	for i, v := range t.Values {
		px[i] = Quantize(v)
	}
	return px
}

// Gray renders the texture as a grayscale image, bottom row first in
// texture space and therefore last in the image.
func (t *Texture) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, t.Width, t.Height))
	for y := 0; y < t.Height; y++ {
		row := t.Height - 1 - y
		for x := 0; x < t.Width; x++ {
			img.Pix[row*img.Stride+x] = Quantize(t.Values[y*t.Width+x])
		}
	}
	return img
}

// NRGBA renders the texture with R=G=B and opaque alpha.
func (t *Texture) NRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, t.Width, t.Height))
	for y := 0; y < t.Height; y++ {
		row := t.Height - 1 - y
		for x := 0; x < t.Width; x++ {
			g := Quantize(t.Values[y*t.Width+x])
			img.SetNRGBA(x, row, color.NRGBA{R: g, G: g, B: g, A: 255})
		}
	}
	return img
}

// Quantize clamps v to [0,1] and rounds it to 8 bits.
func Quantize(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}
