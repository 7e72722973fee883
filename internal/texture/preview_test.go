package texture

import (
	"image"
	"image/color"
	"testing"
)

func checker(w, h int) *image.NRGBA {
	src := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src.SetNRGBA(x, y, color.NRGBA{
				R: uint8(10*x + y),
				G: uint8(20*y + x),
				B: uint8(x + 2*y),
				A: 255,
			})
		}
	}
	return src
}

func TestTileTextureWithOffsetsSeamless(t *testing.T) {
	src := checker(4, 4)

	ref := TileTexture(src, 8, 8, 0, 0)
	left := TileTexture(src, 4, 4, 0, 0)
	right := TileTexture(src, 4, 4, 4, 0)
	bottom := TileTexture(src, 4, 4, 0, 4)

	assertMatchesSubregion(t, left, ref, 0, 0)
	assertMatchesSubregion(t, right, ref, 4, 0)
	assertMatchesSubregion(t, bottom, ref, 0, 4)
}

func TestTileTextureUsesOffsets(t *testing.T) {
	src := checker(4, 4)

	tile := TileTexture(src, 2, 2, 1, 1)
	if tile.NRGBAAt(0, 0) != src.NRGBAAt(1, 1) {
		t.Fatalf("expected offset top-left to match source(1,1)")
	}
	if tile.NRGBAAt(1, 1) != src.NRGBAAt(2, 2) {
		t.Fatalf("expected offset bottom-right to match source(2,2)")
	}

	neg := TileTexture(src, 2, 2, -1, 0)
	if neg.NRGBAAt(0, 0) != src.NRGBAAt(3, 0) {
		t.Fatalf("expected negative offset to wrap to source(3,0)")
	}
}

func TestTileTextureNonZeroOrigin(t *testing.T) {
	src := checker(6, 6).SubImage(image.Rect(2, 2, 6, 6)).(*image.NRGBA)

	tile := TileTexture(src, 8, 8, 0, 0)
	if tile.NRGBAAt(0, 0) != src.NRGBAAt(2, 2) {
		t.Fatalf("expected tile origin to map to sub-image origin")
	}
	if tile.NRGBAAt(5, 4) != src.NRGBAAt(3, 2) {
		t.Fatalf("expected (5,4) to wrap to source(3,2)")
	}
}

func TestTiledPreviewRepeatsTexture(t *testing.T) {
	p := DefaultParams()
	p.Width, p.Height = 24, 16
	tex, err := Generate(p)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	img := tex.NRGBA()
	tiled := TiledPreview(img)
	if got := tiled.Bounds(); got.Dx() != 48 || got.Dy() != 32 {
		t.Fatalf("unexpected tiled bounds %v", got)
	}
	assertMatchesSubregion(t, img, tiled, 24, 16)
}

func TestThumbnail(t *testing.T) {
	src := checker(64, 32)

	thumb := Thumbnail(src, 16)
	if thumb == nil {
		t.Fatal("Thumbnail returned nil")
	}
	if got := thumb.Bounds(); got.Dx() != 16 || got.Dy() != 8 {
		t.Fatalf("expected 16x8 thumbnail, got %v", got)
	}

	if Thumbnail(nil, 16) != nil || Thumbnail(src, 0) != nil {
		t.Fatal("expected nil for invalid input")
	}
}

// assertMatchesSubregion compares a tile against a region in the reference image.
func assertMatchesSubregion(t *testing.T, tile *image.NRGBA, ref *image.NRGBA, startX, startY int) {
	t.Helper()

	if tile == nil || ref == nil {
		t.Fatalf("nil image provided")
	}

	for y := 0; y < tile.Bounds().Dy(); y++ {
		for x := 0; x < tile.Bounds().Dx(); x++ {
			refColor := ref.NRGBAAt(startX+x, startY+y)
			tileColor := tile.NRGBAAt(x, y)
			if tileColor != refColor {
				t.Fatalf("mismatch at (%d,%d): tile=%+v ref=%+v", x, y, tileColor, refColor)
			}
		}
	}
}
