// Package graphics renders into off-screen render targets and displays their
// color textures on screen.
package graphics

import "image/color"

// ColorToFloat32 returns the alpha-premultiplied components of c scaled to
// [0, 1], the form glClearColor and vec4 uniforms take.
func ColorToFloat32(c color.Color) [4]float32 {
	r, g, b, a := c.RGBA()
	const max16 = 0xffff
	return [4]float32{float32(r) / max16, float32(g) / max16, float32(b) / max16, float32(a) / max16}
}

var (
	ColorBlack = color.RGBA{A: 255}
	ColorWhite = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	ColorGreen = color.RGBA{G: 255, A: 255}

	// Panel chrome.
	ColorPanel    = color.RGBA{R: 37, G: 37, B: 38, A: 255}
	ColorTitleBar = color.RGBA{R: 41, G: 74, B: 122, A: 255}
)
