// Package softgl is a deterministic, single-threaded software implementation
// of gl.OpenGL.
//
// It models the object and binding state that fbview relies on (textures,
// renderbuffers, framebuffers, programs, buffers, vertex arrays), the
// framebuffer completeness check, clears, triangle rasterization and
// ReadPixels. It does not execute GLSL. A draw transforms attribute
// "a_position" by the "u_proj" and "u_model" uniforms when the program
// declares them. Pixels are filled with the "u_color" uniform (white when
// unset), multiplied by the first vertex's "a_color" and, when "a_texCoord" is
// present, by the bound texture sampled nearest.
package softgl

import (
	"fmt"
	"unsafe"

	"github.com/tinyrange/fbview/internal/gowin/gl"
)

type texture struct {
	width, height  int
	internalFormat int32
	levels         map[int32]bool
	params         map[uint32]int32
	pix            []byte // RGBA, row 0 at the bottom
}

type renderbuffer struct {
	width, height int
	format        uint32
	specified     bool
}

// Attachment describes what is attached to a framebuffer attachment point.
type Attachment struct {
	Kind uint32 // gl.Texture2D or gl.Renderbuffer
	Name uint32
}

type framebuffer struct {
	attachments map[uint32]Attachment
}

type buffer struct {
	data []byte
}

type attribPointer struct {
	buffer  uint32
	size    int32
	xtype   uint32
	stride  int32
	offset  uintptr
	enabled bool
}

type vertexArray struct {
	attribs map[uint32]*attribPointer
}

// Calls counts GL calls that allocate or attach storage.
type Calls struct {
	GenTextures             int
	GenRenderbuffers        int
	GenFramebuffers         int
	TexImage2D              int
	RenderbufferStorage     int
	FramebufferTexture2D    int
	FramebufferRenderbuffer int
	CheckFramebufferStatus  int
	DrawArrays              int
	Clear                   int
}

// Counts is the number of live objects of each kind.
type Counts struct {
	Textures      int
	Renderbuffers int
	Framebuffers  int
	Shaders       int
	Programs      int
	Buffers       int
	VertexArrays  int
}

// Context is a software GL context with a default framebuffer of a fixed
// size. The zero value is not usable; call New.
type Context struct {
	width, height int
	screen        []byte

	next uint32

	textures      map[uint32]*texture
	renderbuffers map[uint32]*renderbuffer
	framebuffers  map[uint32]*framebuffer
	shaders       map[uint32]*shader
	programs      map[uint32]*program
	buffers       map[uint32]*buffer
	vertexArrays  map[uint32]*vertexArray

	boundTexture      uint32
	boundRenderbuffer uint32
	boundFramebuffer  uint32
	boundArrayBuffer  uint32
	boundVertexArray  uint32
	currentProgram    uint32
	activeTexture     uint32

	viewport   [4]int32
	clearColor [4]float32
	caps       map[uint32]bool
	blend      [2]uint32

	errs  []uint32
	calls Calls

	forcedStatus  uint32
	rejectShaders bool

	tracing bool
	trace   []string
}

var _ gl.OpenGL = (*Context)(nil)

// New returns a context whose default framebuffer is width x height pixels.
func New(width, height int) *Context {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Context{
		width:         width,
		height:        height,
		screen:        make([]byte, width*height*4),
		textures:      make(map[uint32]*texture),
		renderbuffers: make(map[uint32]*renderbuffer),
		framebuffers:  make(map[uint32]*framebuffer),
		shaders:       make(map[uint32]*shader),
		programs:      make(map[uint32]*program),
		buffers:       make(map[uint32]*buffer),
		vertexArrays:  make(map[uint32]*vertexArray),
		viewport:      [4]int32{0, 0, int32(width), int32(height)},
		activeTexture: gl.Texture0,
		caps:          make(map[uint32]bool),
	}
}

func (c *Context) setError(code uint32) {
	c.errs = append(c.errs, code)
}

func (c *Context) record(format string, args ...any) {
	if c.tracing {
		c.trace = append(c.trace, fmt.Sprintf(format, args...))
	}
}

func (c *Context) gen(n int32, names *uint32, create func(uint32)) {
	if n < 0 {
		c.setError(gl.InvalidValue)
		return
	}
	if n == 0 || names == nil {
		return
	}
	out := unsafe.Slice(names, n)
	for i := range out {
		c.next++
		out[i] = c.next
		create(c.next)
	}
}

func eachName(n int32, names *uint32, fn func(uint32)) {
	if n <= 0 || names == nil {
		return
	}
	for _, name := range unsafe.Slice(names, n) {
		if name != 0 {
			fn(name)
		}
	}
}

// GetString implements gl.OpenGL.
func (c *Context) GetString(name uint32) string {
	switch name {
	case gl.Version:
		return "3.3 softgl"
	case gl.Vendor:
		return "fbview"
	case gl.Renderer:
		return "softgl"
	}
	c.setError(gl.InvalidEnum)
	return ""
}

// GetError implements gl.OpenGL. It returns the oldest unreported error.
func (c *Context) GetError() uint32 {
	if len(c.errs) == 0 {
		return gl.NoError
	}
	code := c.errs[0]
	c.errs = c.errs[1:]
	return code
}

// GetIntegerv implements gl.OpenGL.
func (c *Context) GetIntegerv(pname uint32, data *int32) {
	if data == nil {
		return
	}
	switch pname {
	case gl.FramebufferBinding:
		*data = int32(c.boundFramebuffer)
	case gl.RenderbufferBinding:
		*data = int32(c.boundRenderbuffer)
	case gl.TextureBinding2D:
		*data = int32(c.boundTexture)
	case gl.CurrentProgram:
		*data = int32(c.currentProgram)
	case gl.ViewportParam:
		copy(unsafe.Slice(data, 4), c.viewport[:])
	default:
		c.setError(gl.InvalidEnum)
	}
}

// Enable implements gl.OpenGL.
func (c *Context) Enable(capability uint32) { c.caps[capability] = true }

// Disable implements gl.OpenGL.
func (c *Context) Disable(capability uint32) { delete(c.caps, capability) }

// BlendFunc implements gl.OpenGL.
func (c *Context) BlendFunc(sfactor, dfactor uint32) { c.blend = [2]uint32{sfactor, dfactor} }

// Viewport implements gl.OpenGL.
func (c *Context) Viewport(x, y, width, height int32) {
	if width < 0 || height < 0 {
		c.setError(gl.InvalidValue)
		return
	}
	c.viewport = [4]int32{x, y, width, height}
}

// ClearColor implements gl.OpenGL.
func (c *Context) ClearColor(r, g, b, a float32) {
	c.clearColor = [4]float32{clamp01(r), clamp01(g), clamp01(b), clamp01(a)}
}

// GenTextures implements gl.OpenGL.
func (c *Context) GenTextures(n int32, textures *uint32) {
	c.calls.GenTextures++
	c.gen(n, textures, func(name uint32) {
		c.textures[name] = &texture{levels: make(map[int32]bool), params: make(map[uint32]int32)}
	})
}

// DeleteTextures implements gl.OpenGL.
func (c *Context) DeleteTextures(n int32, textures *uint32) {
	eachName(n, textures, func(name uint32) {
		if _, ok := c.textures[name]; !ok {
			return
		}
		delete(c.textures, name)
		if c.boundTexture == name {
			c.boundTexture = 0
		}
		c.detachFromBound(gl.Texture2D, name)
		c.record("DeleteTexture %d", name)
	})
}

// BindTexture implements gl.OpenGL.
func (c *Context) BindTexture(target, name uint32) {
	if target != gl.Texture2D {
		c.setError(gl.InvalidEnum)
		return
	}
	if _, ok := c.textures[name]; name != 0 && !ok {
		c.setError(gl.InvalidOperation)
		return
	}
	c.boundTexture = name
}

// ActiveTexture implements gl.OpenGL.
func (c *Context) ActiveTexture(unit uint32) { c.activeTexture = unit }

// TexParameteri implements gl.OpenGL.
func (c *Context) TexParameteri(target, pname uint32, param int32) {
	t, ok := c.textureTarget(target)
	if !ok {
		return
	}
	t.params[pname] = param
}

// TexImage2D implements gl.OpenGL. Only RGBA/RGB unsigned byte pixel data is
// accepted; storage is always kept as RGBA.
func (c *Context) TexImage2D(target uint32, level, internalFormat, width, height, border int32, format, xtype uint32, pixels unsafe.Pointer) {
	c.calls.TexImage2D++
	t, ok := c.textureTarget(target)
	if !ok {
		return
	}
	if width < 0 || height < 0 || level < 0 || border != 0 {
		c.setError(gl.InvalidValue)
		return
	}
	if xtype != gl.UnsignedByte || (format != gl.RGBA && format != gl.RGB) {
		c.setError(gl.InvalidEnum)
		return
	}
	c.record("TexImage2D %d %dx%d", c.boundTexture, width, height)
	t.levels[level] = true
	if level != 0 {
		return
	}
	t.width, t.height = int(width), int(height)
	t.internalFormat = internalFormat
	t.pix = make([]byte, t.width*t.height*4)
	if pixels == nil || len(t.pix) == 0 {
		return
	}
	if format == gl.RGBA {
		copy(t.pix, unsafe.Slice((*byte)(pixels), len(t.pix)))
		return
	}
	src := unsafe.Slice((*byte)(pixels), t.width*t.height*3)
	for i := 0; i < t.width*t.height; i++ {
		copy(t.pix[i*4:i*4+3], src[i*3:i*3+3])
		t.pix[i*4+3] = 0xff
	}
}

func (c *Context) textureTarget(target uint32) (*texture, bool) {
	if target != gl.Texture2D {
		c.setError(gl.InvalidEnum)
		return nil, false
	}
	t, ok := c.textures[c.boundTexture]
	if !ok {
		c.setError(gl.InvalidOperation)
		return nil, false
	}
	return t, true
}

// GenFramebuffers implements gl.OpenGL.
func (c *Context) GenFramebuffers(n int32, framebuffers *uint32) {
	c.calls.GenFramebuffers++
	c.gen(n, framebuffers, func(name uint32) {
		c.framebuffers[name] = &framebuffer{attachments: make(map[uint32]Attachment)}
	})
}

// DeleteFramebuffers implements gl.OpenGL. Deleting the bound framebuffer
// reverts the binding to the default framebuffer.
func (c *Context) DeleteFramebuffers(n int32, framebuffers *uint32) {
	eachName(n, framebuffers, func(name uint32) {
		if _, ok := c.framebuffers[name]; !ok {
			return
		}
		delete(c.framebuffers, name)
		if c.boundFramebuffer == name {
			c.boundFramebuffer = 0
		}
		c.record("DeleteFramebuffer %d", name)
	})
}

// IsFramebuffer implements gl.OpenGL.
func (c *Context) IsFramebuffer(name uint32) bool {
	_, ok := c.framebuffers[name]
	return name != 0 && ok
}

// BindFramebuffer implements gl.OpenGL.
func (c *Context) BindFramebuffer(target, name uint32) {
	if target != gl.Framebuffer {
		c.setError(gl.InvalidEnum)
		return
	}
	if _, ok := c.framebuffers[name]; name != 0 && !ok {
		c.setError(gl.InvalidOperation)
		return
	}
	c.boundFramebuffer = name
	c.record("BindFramebuffer %d", name)
}

// FramebufferTexture2D implements gl.OpenGL.
func (c *Context) FramebufferTexture2D(target, attachment, texTarget, name uint32, level int32) {
	c.calls.FramebufferTexture2D++
	fb, ok := c.framebufferTarget(target)
	if !ok {
		return
	}
	if texTarget != gl.Texture2D || !validAttachmentPoint(attachment) {
		c.setError(gl.InvalidEnum)
		return
	}
	if name == 0 {
		delete(fb.attachments, attachment)
		return
	}
	if _, ok := c.textures[name]; !ok || level != 0 {
		c.setError(gl.InvalidOperation)
		return
	}
	fb.attachments[attachment] = Attachment{Kind: gl.Texture2D, Name: name}
}

// FramebufferRenderbuffer implements gl.OpenGL.
func (c *Context) FramebufferRenderbuffer(target, attachment, renderbufferTarget, name uint32) {
	c.calls.FramebufferRenderbuffer++
	fb, ok := c.framebufferTarget(target)
	if !ok {
		return
	}
	if renderbufferTarget != gl.Renderbuffer || !validAttachmentPoint(attachment) {
		c.setError(gl.InvalidEnum)
		return
	}
	if name == 0 {
		delete(fb.attachments, attachment)
		return
	}
	if _, ok := c.renderbuffers[name]; !ok {
		c.setError(gl.InvalidOperation)
		return
	}
	fb.attachments[attachment] = Attachment{Kind: gl.Renderbuffer, Name: name}
}

func validAttachmentPoint(attachment uint32) bool {
	switch attachment {
	case gl.ColorAttachment0, gl.DepthAttachment, gl.StencilAttachment, gl.DepthStencilAttachment:
		return true
	}
	return false
}

func (c *Context) framebufferTarget(target uint32) (*framebuffer, bool) {
	if target != gl.Framebuffer {
		c.setError(gl.InvalidEnum)
		return nil, false
	}
	if c.boundFramebuffer == 0 {
		c.setError(gl.InvalidOperation)
		return nil, false
	}
	return c.framebuffers[c.boundFramebuffer], true
}

// detachFromBound removes an object from the bound framebuffer's attachment
// points, as GL does when an attached object is deleted.
func (c *Context) detachFromBound(kind, name uint32) {
	fb, ok := c.framebuffers[c.boundFramebuffer]
	if !ok {
		return
	}
	for point, a := range fb.attachments {
		if a.Kind == kind && a.Name == name {
			delete(fb.attachments, point)
		}
	}
}

// CheckFramebufferStatus implements gl.OpenGL.
//
// A framebuffer is complete when it has a color attachment at
// ColorAttachment0, every attachment refers to an object with non-empty
// storage of a suitable format, and all attachments share one size. The
// shared-size rule is stricter than desktop GL 3.3 and matches GLES.
func (c *Context) CheckFramebufferStatus(target uint32) uint32 {
	c.calls.CheckFramebufferStatus++
	if target != gl.Framebuffer {
		c.setError(gl.InvalidEnum)
		return 0
	}
	if c.forcedStatus != 0 {
		return c.forcedStatus
	}
	if c.boundFramebuffer == 0 {
		return gl.FramebufferComplete
	}
	return c.status(c.framebuffers[c.boundFramebuffer])
}

func (c *Context) status(fb *framebuffer) uint32 {
	if len(fb.attachments) == 0 {
		return gl.FramebufferIncompleteMissingAttachment
	}
	if _, ok := fb.attachments[gl.ColorAttachment0]; !ok {
		return gl.FramebufferIncompleteMissingAttachment
	}
	w, h := -1, -1
	for point, a := range fb.attachments {
		aw, ah, format, ok := c.attachmentStorage(a)
		if !ok || aw == 0 || ah == 0 {
			return gl.FramebufferIncompleteAttachment
		}
		if !formatFits(point, format) {
			return gl.FramebufferIncompleteAttachment
		}
		if w == -1 {
			w, h = aw, ah
		} else if aw != w || ah != h {
			return gl.FramebufferUnsupported
		}
	}
	return gl.FramebufferComplete
}

func (c *Context) attachmentStorage(a Attachment) (w, h int, format uint32, ok bool) {
	switch a.Kind {
	case gl.Texture2D:
		t, ok := c.textures[a.Name]
		if !ok {
			return 0, 0, 0, false
		}
		return t.width, t.height, uint32(t.internalFormat), true
	case gl.Renderbuffer:
		r, ok := c.renderbuffers[a.Name]
		if !ok || !r.specified {
			return 0, 0, 0, false
		}
		return r.width, r.height, r.format, true
	}
	return 0, 0, 0, false
}

func formatFits(point, format uint32) bool {
	switch point {
	case gl.ColorAttachment0:
		return format == gl.RGBA || format == gl.RGBA8 || format == gl.RGB
	case gl.DepthStencilAttachment, gl.DepthAttachment, gl.StencilAttachment:
		return format == gl.Depth24Stencil8
	}
	return false
}

// GenRenderbuffers implements gl.OpenGL.
func (c *Context) GenRenderbuffers(n int32, renderbuffers *uint32) {
	c.calls.GenRenderbuffers++
	c.gen(n, renderbuffers, func(name uint32) {
		c.renderbuffers[name] = &renderbuffer{}
	})
}

// DeleteRenderbuffers implements gl.OpenGL.
func (c *Context) DeleteRenderbuffers(n int32, renderbuffers *uint32) {
	eachName(n, renderbuffers, func(name uint32) {
		if _, ok := c.renderbuffers[name]; !ok {
			return
		}
		delete(c.renderbuffers, name)
		if c.boundRenderbuffer == name {
			c.boundRenderbuffer = 0
		}
		c.detachFromBound(gl.Renderbuffer, name)
		c.record("DeleteRenderbuffer %d", name)
	})
}

// BindRenderbuffer implements gl.OpenGL.
func (c *Context) BindRenderbuffer(target, name uint32) {
	if target != gl.Renderbuffer {
		c.setError(gl.InvalidEnum)
		return
	}
	if _, ok := c.renderbuffers[name]; name != 0 && !ok {
		c.setError(gl.InvalidOperation)
		return
	}
	c.boundRenderbuffer = name
}

// RenderbufferStorage implements gl.OpenGL.
func (c *Context) RenderbufferStorage(target, internalFormat uint32, width, height int32) {
	c.calls.RenderbufferStorage++
	if target != gl.Renderbuffer {
		c.setError(gl.InvalidEnum)
		return
	}
	r, ok := c.renderbuffers[c.boundRenderbuffer]
	if !ok {
		c.setError(gl.InvalidOperation)
		return
	}
	if width < 0 || height < 0 {
		c.setError(gl.InvalidValue)
		return
	}
	c.record("RenderbufferStorage %d %dx%d", c.boundRenderbuffer, width, height)
	r.width, r.height = int(width), int(height)
	r.format = internalFormat
	r.specified = true
}

// GenBuffers implements gl.OpenGL.
func (c *Context) GenBuffers(n int32, buffers *uint32) {
	c.gen(n, buffers, func(name uint32) {
		c.buffers[name] = &buffer{}
	})
}

// DeleteBuffers implements gl.OpenGL.
func (c *Context) DeleteBuffers(n int32, buffers *uint32) {
	eachName(n, buffers, func(name uint32) {
		delete(c.buffers, name)
		if c.boundArrayBuffer == name {
			c.boundArrayBuffer = 0
		}
	})
}

// BindBuffer implements gl.OpenGL.
func (c *Context) BindBuffer(target, name uint32) {
	if target != gl.ArrayBuffer {
		c.setError(gl.InvalidEnum)
		return
	}
	if _, ok := c.buffers[name]; name != 0 && !ok {
		c.setError(gl.InvalidOperation)
		return
	}
	c.boundArrayBuffer = name
}

// BufferData implements gl.OpenGL.
func (c *Context) BufferData(target uint32, size int, data unsafe.Pointer, usage uint32) {
	b, ok := c.bufferTarget(target)
	if !ok {
		return
	}
	if size < 0 {
		c.setError(gl.InvalidValue)
		return
	}
	b.data = make([]byte, size)
	if data != nil && size > 0 {
		copy(b.data, unsafe.Slice((*byte)(data), size))
	}
}

// BufferSubData implements gl.OpenGL.
func (c *Context) BufferSubData(target uint32, offset, size int, data unsafe.Pointer) {
	b, ok := c.bufferTarget(target)
	if !ok {
		return
	}
	if offset < 0 || size < 0 || offset+size > len(b.data) {
		c.setError(gl.InvalidValue)
		return
	}
	if data != nil && size > 0 {
		copy(b.data[offset:], unsafe.Slice((*byte)(data), size))
	}
}

func (c *Context) bufferTarget(target uint32) (*buffer, bool) {
	if target != gl.ArrayBuffer {
		c.setError(gl.InvalidEnum)
		return nil, false
	}
	b, ok := c.buffers[c.boundArrayBuffer]
	if !ok {
		c.setError(gl.InvalidOperation)
		return nil, false
	}
	return b, true
}

// GenVertexArrays implements gl.OpenGL.
func (c *Context) GenVertexArrays(n int32, arrays *uint32) {
	c.gen(n, arrays, func(name uint32) {
		c.vertexArrays[name] = &vertexArray{attribs: make(map[uint32]*attribPointer)}
	})
}

// DeleteVertexArrays implements gl.OpenGL.
func (c *Context) DeleteVertexArrays(n int32, arrays *uint32) {
	eachName(n, arrays, func(name uint32) {
		delete(c.vertexArrays, name)
		if c.boundVertexArray == name {
			c.boundVertexArray = 0
		}
	})
}

// BindVertexArray implements gl.OpenGL.
func (c *Context) BindVertexArray(name uint32) {
	if _, ok := c.vertexArrays[name]; name != 0 && !ok {
		c.setError(gl.InvalidOperation)
		return
	}
	c.boundVertexArray = name
}

// VertexAttribPointer implements gl.OpenGL. The core profile requires a bound
// vertex array and array buffer.
func (c *Context) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr) {
	va, ok := c.vertexArrays[c.boundVertexArray]
	if !ok || c.boundArrayBuffer == 0 {
		c.setError(gl.InvalidOperation)
		return
	}
	if size < 1 || size > 4 || stride < 0 {
		c.setError(gl.InvalidValue)
		return
	}
	p := va.attribs[index]
	if p == nil {
		p = &attribPointer{}
		va.attribs[index] = p
	}
	p.buffer = c.boundArrayBuffer
	p.size = size
	p.xtype = xtype
	p.stride = stride
	p.offset = offset
}

// EnableVertexAttribArray implements gl.OpenGL.
func (c *Context) EnableVertexAttribArray(index uint32) {
	va, ok := c.vertexArrays[c.boundVertexArray]
	if !ok {
		c.setError(gl.InvalidOperation)
		return
	}
	p := va.attribs[index]
	if p == nil {
		p = &attribPointer{}
		va.attribs[index] = p
	}
	p.enabled = true
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
