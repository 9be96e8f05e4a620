package postprocess

import (
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestResizeKeepsSolidColor(t *testing.T) {
	src := solid(40, 30, color.NRGBA{200, 100, 50, 255})
	got := Resize(src, 13, 7)
	if b := got.Bounds(); b.Dx() != 13 || b.Dy() != 7 {
		t.Fatalf("size %v", b)
	}
	if c := got.NRGBAAt(6, 3); c.R < 198 || c.R > 202 || c.A != 255 {
		t.Errorf("center = %v", c)
	}
	if Resize(src, 40, 30) != src {
		t.Error("same-size resize should return its input")
	}
}

func TestResizeNoDarkHalo(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 4; x++ {
			src.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}
	got := Resize(src, 4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if c := got.NRGBAAt(x, y); c.A > 16 && c.R < 240 {
				t.Errorf("(%d,%d) darkened: %v", x, y, c)
			}
		}
	}
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{1920, 1080, 160, 90, 160, 90},
		{1920, 1080, 100, 100, 100, 56},
		{100, 400, 50, 50, 13, 50},
		{0, 10, 5, 5, 1, 1},
	}
	for _, tt := range tests {
		w, h := FitSize(tt.w, tt.h, tt.maxW, tt.maxH)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("FitSize(%d, %d, %d, %d) = %d, %d", tt.w, tt.h, tt.maxW, tt.maxH, w, h)
		}
	}
}

func TestLetterboxCenters(t *testing.T) {
	src := solid(20, 10, color.NRGBA{0, 0, 255, 255})
	got := Letterbox(src, 20, 20)
	if b := got.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Fatalf("size %v", b)
	}
	if got.NRGBAAt(10, 1).A != 0 {
		t.Error("top band is not transparent")
	}
	if c := got.NRGBAAt(10, 10); c.B != 255 || c.A != 255 {
		t.Errorf("center = %v", c)
	}
}
