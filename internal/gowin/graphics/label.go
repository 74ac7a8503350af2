package graphics

import (
	"image"
	"image/color"
	"unsafe"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	glpkg "github.com/tinyrange/fbview/internal/gowin/gl"
)

// renderLabel rasterizes s in a fixed 7x13 face onto an opaque bg. The
// result has a top-left origin and at least one pixel in each dimension.
func renderLabel(s string, fg, bg color.Color) *image.RGBA {
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face}
	m := face.Metrics()

	w := max(d.MeasureString(s).Ceil(), 1)
	h := (m.Ascent + m.Descent).Ceil()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	d.Dst = img
	d.Src = image.NewUniform(fg)
	d.Dot = fixed.P(0, m.Ascent.Ceil())
	d.DrawString(s)
	return img
}

// uploadImage creates a texture holding img. Row 0 of the image becomes the
// first row of storage, so V = 0 addresses the image's top edge.
func uploadImage(gl glpkg.OpenGL, img *image.RGBA) *GLTexture {
	b := img.Bounds()
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(glpkg.Texture2D, id)
	gl.TexParameteri(glpkg.Texture2D, glpkg.TextureMinFilter, glpkg.Nearest)
	gl.TexParameteri(glpkg.Texture2D, glpkg.TextureMagFilter, glpkg.Nearest)
	gl.TexParameteri(glpkg.Texture2D, glpkg.TextureWrapS, glpkg.ClampToEdge)
	gl.TexParameteri(glpkg.Texture2D, glpkg.TextureWrapT, glpkg.ClampToEdge)
	gl.TexImage2D(glpkg.Texture2D, 0, int32(glpkg.RGBA8), int32(b.Dx()), int32(b.Dy()), 0,
		glpkg.RGBA, glpkg.UnsignedByte, unsafe.Pointer(&img.Pix[0]))
	gl.BindTexture(glpkg.Texture2D, 0)
	return &GLTexture{id: id, w: b.Dx(), h: b.Dy()}
}
