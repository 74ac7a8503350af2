package softgl

import (
	"image"
	"image/color"

	"github.com/tinyrange/fbview/internal/gowin/gl"
)

// TextureInfo describes a texture's level-0 storage and parameters.
type TextureInfo struct {
	Width, Height  int
	InternalFormat int32
	Levels         int
	MinFilter      int32
	MagFilter      int32
}

// RenderbufferInfo describes a renderbuffer's storage.
type RenderbufferInfo struct {
	Width, Height int
	Format        uint32
}

// Texture reports the state of a texture name.
func (c *Context) Texture(name uint32) (TextureInfo, bool) {
	t, ok := c.textures[name]
	if !ok {
		return TextureInfo{}, false
	}
	return TextureInfo{
		Width:          t.width,
		Height:         t.height,
		InternalFormat: t.internalFormat,
		Levels:         len(t.levels),
		MinFilter:      t.params[gl.TextureMinFilter],
		MagFilter:      t.params[gl.TextureMagFilter],
	}, true
}

// Renderbuffer reports the state of a renderbuffer name.
func (c *Context) Renderbuffer(name uint32) (RenderbufferInfo, bool) {
	r, ok := c.renderbuffers[name]
	if !ok {
		return RenderbufferInfo{}, false
	}
	return RenderbufferInfo{Width: r.width, Height: r.height, Format: r.format}, true
}

// Attachment reports what is attached at point of framebuffer fb.
func (c *Context) Attachment(fb, point uint32) (Attachment, bool) {
	f, ok := c.framebuffers[fb]
	if !ok {
		return Attachment{}, false
	}
	a, ok := f.attachments[point]
	return a, ok
}

// Status evaluates completeness of framebuffer fb without binding it.
func (c *Context) Status(fb uint32) uint32 {
	f, ok := c.framebuffers[fb]
	if !ok {
		return 0
	}
	return c.status(f)
}

// BoundFramebuffer returns the framebuffer drawing commands target.
func (c *Context) BoundFramebuffer() uint32 { return c.boundFramebuffer }

// CurrentViewport returns the viewport rectangle as x, y, width, height.
func (c *Context) CurrentViewport() [4]int32 { return c.viewport }

// Calls returns the allocation and attachment call counters.
func (c *Context) Calls() Calls { return c.calls }

// Live counts the objects that have been generated and not deleted.
func (c *Context) Live() Counts {
	return Counts{
		Textures:      len(c.textures),
		Renderbuffers: len(c.renderbuffers),
		Framebuffers:  len(c.framebuffers),
		Shaders:       len(c.shaders),
		Programs:      len(c.programs),
		Buffers:       len(c.buffers),
		VertexArrays:  len(c.vertexArrays),
	}
}

// Errors returns the errors not yet retrieved by GetError without clearing
// them.
func (c *Context) Errors() []uint32 {
	return append([]uint32(nil), c.errs...)
}

// ForceStatus makes CheckFramebufferStatus report status for every
// non-default framebuffer. Zero restores the real completeness check.
func (c *Context) ForceStatus(status uint32) { c.forcedStatus = status }

// RejectShaders makes every subsequent CompileShader fail.
func (c *Context) RejectShaders(reject bool) { c.rejectShaders = reject }

// StartTrace begins recording binding, storage, clear and draw calls.
func (c *Context) StartTrace() {
	c.tracing = true
	c.trace = nil
}

// Trace returns the calls recorded since StartTrace.
func (c *Context) Trace() []string {
	return append([]string(nil), c.trace...)
}

// Screen returns a top-left origin copy of the default framebuffer.
func (c *Context) Screen() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	stride := c.width * 4
	for y := 0; y < c.height; y++ {
		src := c.screen[(c.height-1-y)*stride : (c.height-y)*stride]
		copy(img.Pix[y*img.Stride:], src)
	}
	return img
}

// ScreenAt returns the default framebuffer pixel at (x, y) with a top-left
// origin.
func (c *Context) ScreenAt(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return color.RGBA{}
	}
	i := ((c.height-1-y)*c.width + x) * 4
	return color.RGBA{R: c.screen[i], G: c.screen[i+1], B: c.screen[i+2], A: c.screen[i+3]}
}
