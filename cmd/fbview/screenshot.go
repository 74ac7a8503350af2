package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// scaleImage resamples img by factor with Catmull-Rom filtering. A factor of
// 1 returns img unchanged.
func scaleImage(img *image.RGBA, factor float64) (image.Image, error) {
	if factor <= 0 {
		return nil, fmt.Errorf("screenshot scale %v must be positive", factor)
	}
	if factor == 1 {
		return img, nil
	}
	b := img.Bounds()
	w := max(int(float64(b.Dx())*factor+0.5), 1)
	h := max(int(float64(b.Dy())*factor+0.5), 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, nil
}

// writeScreenshot encodes img to path as PNG, scaled by factor.
func writeScreenshot(path string, img *image.RGBA, factor float64) error {
	out, err := scaleImage(img, factor)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := png.Encode(file, out); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return file.Close()
}

// capturePath names the n-th interactive capture after the -screenshot path,
// or after fbview.png when none was given: shot.png becomes shot-001.png.
func capturePath(screenshot string, n int) string {
	if screenshot == "" {
		screenshot = "fbview.png"
	}
	ext := filepath.Ext(screenshot)
	base := strings.TrimSuffix(screenshot, ext)
	if ext == "" {
		ext = ".png"
	}
	return fmt.Sprintf("%s-%03d%s", base, n, ext)
}
