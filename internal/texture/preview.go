package texture

import (
	"image"
	"image/draw"

	"github.com/disintegration/gift"
)

// PreviewSize is the edge length of the inspector-style preview.
const PreviewSize = 192

// Thumbnail resizes img to fit a size×size box, keeping the aspect ratio.
func Thumbnail(img image.Image, size int) *image.NRGBA {
	if img == nil || size <= 0 {
		return nil
	}
	g := gift.New(gift.ResizeToFit(size, size, gift.LanczosResampling))
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

// TileTexture repeats src into a width×height image starting at offset
// (offsetX, offsetY) of the infinite tiling. Seams in src show up as hard
// edges in the result.
func TileTexture(src image.Image, width, height, offsetX, offsetY int) *image.NRGBA {
	if src == nil || width <= 0 || height <= 0 {
		return nil
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	bounds := src.Bounds()
	sw, sh := bounds.Dx(), bounds.Dy()
	if sw == 0 || sh == 0 {
		return dst
	}

	// Normalize once so each tile copy is a plain draw.
	tile := image.NewNRGBA(image.Rect(0, 0, sw, sh))
	draw.Draw(tile, tile.Bounds(), src, bounds.Min, draw.Src)

	startX := -wrapIndex(offsetX, sw)
	startY := -wrapIndex(offsetY, sh)
	for y := startY; y < height; y += sh {
		for x := startX; x < width; x += sw {
			r := image.Rect(x, y, x+sw, y+sh)
			draw.Draw(dst, r, tile, image.Point{}, draw.Src)
		}
	}
	return dst
}

// TiledPreview lays img out 2×2 so seams can be inspected by eye.
func TiledPreview(img image.Image) *image.NRGBA {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	return TileTexture(img, 2*b.Dx(), 2*b.Dy(), 0, 0)
}
