// Package filter post-processes textures without breaking their tiling.
package filter

import (
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/gift"

	"github.com/MeKo-Tech/noisetex/internal/texture"
)

// Padding is the wrap margin needed around an image before blurring it with
// sigma. 3 sigma covers nearly all of the kernel.
func Padding(sigma float32) int {
	if sigma <= 0 {
		return 0
	}
	return int(math.Ceil(float64(sigma)*3)) + 2
}

// SeamlessBlur applies a Gaussian blur whose kernel wraps around the image
// edges, so a tileable input stays tileable. The image is padded with its own
// repeat, blurred, and cropped back.
func SeamlessBlur(img image.Image, sigma float32) *image.NRGBA {
	b := img.Bounds()
	pad := Padding(sigma)
	if pad == 0 {
		dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}

	padded := texture.TileTexture(img, b.Dx()+2*pad, b.Dy()+2*pad, -pad, -pad)

	g := gift.New(
		gift.GaussianBlur(sigma),
		gift.Crop(image.Rect(pad, pad, pad+b.Dx(), pad+b.Dy())),
	)
	dst := image.NewNRGBA(g.Bounds(padded.Bounds()))
	g.Draw(dst, padded)
	return dst
}

// Threshold maps luminance at or above level to white and the rest to black.
func Threshold(img image.Image, level uint8) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)

	for i, v := range gray.Pix {
		if v >= level {
			gray.Pix[i] = 255
		} else {
			gray.Pix[i] = 0
		}
	}
	return gray
}
