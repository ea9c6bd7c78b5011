package photo

import (
	"image"
	"image/color"
	"testing"
)

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

func fill(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestRemoveBackgroundAllKey(t *testing.T) {
	img := fill(8, 6, white)

	for _, autoCrop := range []bool{false, true} {
		out, err := RemoveBackground(img, white, 0, autoCrop)
		if err != nil {
			t.Fatalf("RemoveBackground(autoCrop=%v) error: %v", autoCrop, err)
		}
		if out.Bounds().Dx() != 8 || out.Bounds().Dy() != 6 {
			t.Errorf("autoCrop=%v: bounds = %v, want uncropped 8x6", autoCrop, out.Bounds())
		}
		for i := 3; i < len(out.Pix); i += 4 {
			if out.Pix[i] != 0 {
				t.Fatalf("autoCrop=%v: alpha at %d = %d, want 0", autoCrop, i, out.Pix[i])
			}
		}
	}
}

func TestRemoveBackgroundTolerance(t *testing.T) {
	img := fill(3, 1, white)
	img.SetNRGBA(0, 0, color.NRGBA{R: 240, G: 250, B: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 230, G: 255, B: 255, A: 255})
	img.SetNRGBA(2, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 90})

	out, err := RemoveBackground(img, white, 20, false)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		x         int
		wantAlpha uint8
	}{
		{0, 0},   // within tolerance on every channel
		{1, 255}, // red differs by 25
		{2, 0},   // matched regardless of existing alpha
	}
	for _, tt := range tests {
		if got := out.NRGBAAt(tt.x, 0).A; got != tt.wantAlpha {
			t.Errorf("alpha at x=%d = %d, want %d", tt.x, got, tt.wantAlpha)
		}
	}
}

func TestRemoveBackgroundPreservesExistingAlpha(t *testing.T) {
	img := fill(2, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 77})

	out, err := RemoveBackground(img, white, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.NRGBAAt(0, 0).A; got != 77 {
		t.Errorf("unmatched alpha = %d, want 77", got)
	}
}

func TestRemoveBackgroundAutoCrop(t *testing.T) {
	img := fill(10, 8, white)
	red := color.NRGBA{R: 200, A: 255}
	for y := 2; y < 5; y++ {
		for x := 3; x < 7; x++ {
			img.SetNRGBA(x, y, red)
		}
	}

	out, err := RemoveBackground(img, white, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds() != image.Rect(0, 0, 4, 3) {
		t.Fatalf("bounds = %v, want 4x3", out.Bounds())
	}
	if got := out.NRGBAAt(0, 0); got != red {
		t.Errorf("top-left = %v, want %v", got, red)
	}
}

func TestRemoveBackgroundErrors(t *testing.T) {
	if _, err := RemoveBackground(image.NewNRGBA(image.Rect(0, 0, 0, 0)), white, 10, true); err == nil {
		t.Error("empty image should fail")
	}
	if _, err := RemoveBackground(fill(1, 1, white), white, 300, true); err == nil {
		t.Error("tolerance above 255 should fail")
	}
}

func TestRemoveBackgroundDoesNotModifyInput(t *testing.T) {
	img := fill(2, 2, white)
	if _, err := RemoveBackground(img, white, 0, true); err != nil {
		t.Fatal(err)
	}
	if img.NRGBAAt(0, 0).A != 255 {
		t.Error("input image was modified")
	}
}

func TestOpaque(t *testing.T) {
	img := fill(2, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 0})
	out := Opaque(img)
	for i := 3; i < len(out.Pix); i += 4 {
		if out.Pix[i] != 255 {
			t.Fatalf("alpha = %d, want 255", out.Pix[i])
		}
	}
	if c := out.NRGBAAt(1, 1); c.R != 1 || c.G != 2 || c.B != 3 {
		t.Errorf("color changed: %v", c)
	}
}
