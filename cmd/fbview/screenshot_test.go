package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestScaleImage(t *testing.T) {
	green := color.RGBA{0, 255, 0, 255}
	src := solid(40, 30, green)

	out, err := scaleImage(src, 0.5)
	if err != nil {
		t.Fatalf("scaleImage: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 20 || b.Dy() != 15 {
		t.Errorf("bounds = %v, want 20x15", b)
	}
	r, g, b, a := out.At(10, 7).RGBA()
	if r > 0x100 || g < 0xff00 || b > 0x100 || a < 0xff00 {
		t.Errorf("center pixel = %v %v %v %v, want green", r, g, b, a)
	}

	same, err := scaleImage(src, 1)
	if err != nil || same != image.Image(src) {
		t.Errorf("scale 1 should return the source image")
	}

	if _, err := scaleImage(src, 0); err == nil {
		t.Error("scale 0 should fail")
	}
}

func TestWriteScreenshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := writeScreenshot(path, solid(8, 4, color.RGBA{255, 0, 0, 255}), 2); err != nil {
		t.Fatalf("writeScreenshot: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Errorf("bounds = %v, want 16x8", b)
	}
}

func TestCapturePath(t *testing.T) {
	tests := []struct {
		screenshot string
		n          int
		want       string
	}{
		{"", 1, "fbview-001.png"},
		{"out/shot.png", 12, "out/shot-012.png"},
		{"shot", 3, "shot-003.png"},
	}
	for _, tt := range tests {
		if got := capturePath(tt.screenshot, tt.n); got != tt.want {
			t.Errorf("capturePath(%q, %d) = %q, want %q", tt.screenshot, tt.n, got, tt.want)
		}
	}
}
