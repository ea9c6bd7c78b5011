package photo

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// RemoveBackground returns a copy of img in which every pixel whose red,
// green and blue channels are each within tol of key has alpha 0. Other
// pixels keep their alpha. With autoCrop the copy is cropped to the bounds
// of the remaining visible pixels; a fully transparent result is not
// cropped.
func RemoveBackground(img image.Image, key color.NRGBA, tol int, autoCrop bool) (*image.NRGBA, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("remove background: empty image")
	}
	if tol < 0 || tol > 255 {
		return nil, fmt.Errorf("remove background: tolerance %d out of range 0..255", tol)
	}

	out := imaging.Clone(img)
	kr, kg, kb := int(key.R), int(key.G), int(key.B)
	for i := 0; i+3 < len(out.Pix); i += 4 {
		p := out.Pix[i : i+4 : i+4]
		if absDiff(int(p[0]), kr) <= tol && absDiff(int(p[1]), kg) <= tol && absDiff(int(p[2]), kb) <= tol {
			p[3] = 0
		}
	}

	if autoCrop {
		if box, ok := visibleBounds(out); ok && box != out.Bounds() {
			out = imaging.Crop(out, box)
		}
	}
	return out, nil
}

// Opaque returns a copy of img with every pixel's alpha forced to 255.
func Opaque(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}
	return out
}

// visibleBounds returns the smallest rectangle holding every pixel with
// non-zero alpha.
func visibleBounds(img *image.NRGBA) (image.Rectangle, bool) {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := b.Min.X; x < b.Max.X; x++ {
			if row[(x-b.Min.X)*4+3] == 0 {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
