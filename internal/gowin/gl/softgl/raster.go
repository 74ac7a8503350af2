package softgl

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/tinyrange/fbview/internal/gowin/gl"
)

// drawTarget returns the color storage of the bound framebuffer, or of the
// default framebuffer when none is bound.
func (c *Context) drawTarget() (pix []byte, width, height int, ok bool) {
	if c.boundFramebuffer == 0 {
		return c.screen, c.width, c.height, true
	}
	fb := c.framebuffers[c.boundFramebuffer]
	if c.forcedStatus != 0 || c.status(fb) != gl.FramebufferComplete {
		c.setError(gl.InvalidFramebufferOperation)
		return nil, 0, 0, false
	}
	a := fb.attachments[gl.ColorAttachment0]
	switch a.Kind {
	case gl.Texture2D:
		t := c.textures[a.Name]
		return t.pix, t.width, t.height, true
	default:
		// Renderbuffer color storage is not sampled by fbview; draws are
		// accepted and discarded.
		r := c.renderbuffers[a.Name]
		return nil, r.width, r.height, true
	}
}

// Clear implements gl.OpenGL. Only the color buffer holds data; depth and
// stencil clears are accepted and ignored.
func (c *Context) Clear(mask uint32) {
	c.calls.Clear++
	pix, _, _, ok := c.drawTarget()
	if !ok {
		return
	}
	c.record("Clear %d", c.boundFramebuffer)
	if mask&gl.ColorBufferBit == 0 {
		return
	}
	px := toBytes(c.clearColor)
	for i := 0; i+4 <= len(pix); i += 4 {
		copy(pix[i:i+4], px[:])
	}
}

// DrawArrays implements gl.OpenGL for gl.Triangles.
func (c *Context) DrawArrays(mode uint32, first, count int32) {
	c.calls.DrawArrays++
	if mode != gl.Triangles {
		c.setError(gl.InvalidEnum)
		return
	}
	if first < 0 || count < 0 {
		c.setError(gl.InvalidValue)
		return
	}
	p, ok := c.programs[c.currentProgram]
	va, vaOK := c.vertexArrays[c.boundVertexArray]
	if !ok || !vaOK {
		c.setError(gl.InvalidOperation)
		return
	}
	pix, width, height, ok := c.drawTarget()
	if !ok {
		return
	}
	c.record("DrawArrays %d %d", c.boundFramebuffer, count)

	positions, ok := c.fetch(p, va, "a_position", first, count)
	if !ok {
		c.setError(gl.InvalidOperation)
		return
	}
	// Optional per-vertex attributes; absent ones leave the defaults.
	texCoords, hasUV := c.fetch(p, va, "a_texCoord", first, count)
	colors, hasColor := c.fetch(p, va, "a_color", first, count)

	transform := mgl32.Ident4()
	if m, ok := c.uniform("u_proj"); ok && len(m) == 16 {
		transform = mat4(m)
	}
	if m, ok := c.uniform("u_model"); ok && len(m) == 16 {
		transform = transform.Mul4(mat4(m))
	}
	base := mgl32.Vec4{1, 1, 1, 1}
	if v, ok := c.uniform("u_color"); ok && len(v) == 4 {
		base = mgl32.Vec4{v[0], v[1], v[2], v[3]}
	}
	var tex *texture
	if hasUV {
		if t, ok := c.textures[c.boundTexture]; ok && t.width > 0 && t.height > 0 {
			tex = t
		}
	}

	verts := make([]vertex, 0, count)
	for i, pos := range positions {
		clip := transform.Mul4x1(pos)
		if clip[3] == 0 {
			continue
		}
		v := vertex{pos: c.toWindow(clip[0]/clip[3], clip[1]/clip[3]), color: base}
		if hasColor {
			v.color = mgl32.Vec4{base[0] * colors[i][0], base[1] * colors[i][1], base[2] * colors[i][2], base[3] * colors[i][3]}
		}
		if hasUV {
			v.uv = mgl32.Vec2{texCoords[i][0], texCoords[i][1]}
		}
		verts = append(verts, v)
	}
	if pix == nil {
		return
	}
	for i := 0; i+3 <= len(verts); i += 3 {
		c.fillTriangle(pix, width, height, [3]vertex{verts[i], verts[i+1], verts[i+2]}, tex)
	}
}

type vertex struct {
	pos   mgl32.Vec2
	uv    mgl32.Vec2
	color mgl32.Vec4
}

// fetch reads count vertices of the named attribute starting at first. Missing
// components default to (0, 0, 0, 1).
func (c *Context) fetch(p *program, va *vertexArray, name string, first, count int32) ([]mgl32.Vec4, bool) {
	loc, ok := p.attribs[name]
	if !ok {
		return nil, false
	}
	ap := va.attribs[uint32(loc)]
	if ap == nil || !ap.enabled || ap.xtype != gl.Float {
		return nil, false
	}
	buf, ok := c.buffers[ap.buffer]
	if !ok {
		return nil, false
	}
	stride := int(ap.stride)
	if stride == 0 {
		stride = int(ap.size) * 4
	}
	out := make([]mgl32.Vec4, 0, count)
	for i := int(first); i < int(first+count); i++ {
		off := int(ap.offset) + i*stride
		if off+int(ap.size)*4 > len(buf.data) {
			return nil, false
		}
		v := mgl32.Vec4{0, 0, 0, 1}
		for k := 0; k < int(ap.size); k++ {
			v[k] = math.Float32frombits(binary.LittleEndian.Uint32(buf.data[off+k*4:]))
		}
		out = append(out, v)
	}
	return out, true
}

// toWindow maps normalized device coordinates to window coordinates through
// the viewport.
func (c *Context) toWindow(x, y float32) mgl32.Vec2 {
	vx, vy, vw, vh := float32(c.viewport[0]), float32(c.viewport[1]), float32(c.viewport[2]), float32(c.viewport[3])
	return mgl32.Vec2{vx + (x+1)/2*vw, vy + (y+1)/2*vh}
}

// fillTriangle shades every pixel whose center lies inside the triangle,
// clipped to the viewport and the target. Colors are flat (first vertex);
// texture coordinates are interpolated and sampled nearest.
func (c *Context) fillTriangle(pix []byte, width, height int, tri [3]vertex, tex *texture) {
	a, b, d := tri[0].pos, tri[1].pos, tri[2].pos
	area := edge(a, b, d)
	if area == 0 {
		return
	}
	minX := max(int(math.Floor(float64(min(a[0], b[0], d[0])))), int(c.viewport[0]), 0)
	minY := max(int(math.Floor(float64(min(a[1], b[1], d[1])))), int(c.viewport[1]), 0)
	maxX := min(int(math.Ceil(float64(max(a[0], b[0], d[0])))), int(c.viewport[0]+c.viewport[2]), width)
	maxY := min(int(math.Ceil(float64(max(a[1], b[1], d[1])))), int(c.viewport[1]+c.viewport[3]), height)

	flat := [4]float32{tri[0].color[0], tri[0].color[1], tri[0].color[2], tri[0].color[3]}
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			p := mgl32.Vec2{float32(x) + 0.5, float32(y) + 0.5}
			w0 := edge(b, d, p)
			w1 := edge(d, a, p)
			w2 := edge(a, b, p)
			if area < 0 {
				w0, w1, w2 = -w0, -w1, -w2
			}
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			col := flat
			if tex != nil {
				abs := float32(math.Abs(float64(area)))
				uv := tri[0].uv.Mul(w0 / abs).Add(tri[1].uv.Mul(w1 / abs)).Add(tri[2].uv.Mul(w2 / abs))
				s := tex.sample(uv[0], uv[1])
				for k := range col {
					col[k] *= s[k]
				}
			}
			px := toBytes(col)
			i := (y*width + x) * 4
			copy(pix[i:i+4], px[:])
		}
	}
}

// sample returns the texel nearest to (u, v), clamped to the edge. v = 0 is
// the first row of storage.
func (t *texture) sample(u, v float32) [4]float32 {
	x := min(max(int(u*float32(t.width)), 0), t.width-1)
	y := min(max(int(v*float32(t.height)), 0), t.height-1)
	i := (y*t.width + x) * 4
	return [4]float32{
		float32(t.pix[i]) / 255,
		float32(t.pix[i+1]) / 255,
		float32(t.pix[i+2]) / 255,
		float32(t.pix[i+3]) / 255,
	}
}

func edge(a, b, p mgl32.Vec2) float32 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}

// ReadPixels implements gl.OpenGL for gl.RGBA / gl.UnsignedByte. Rows are
// written bottom-up, as GL does; pixels outside the source read as zero.
func (c *Context) ReadPixels(x, y, width, height int32, format, xtype uint32, pixels unsafe.Pointer) {
	if format != gl.RGBA || xtype != gl.UnsignedByte {
		c.setError(gl.InvalidEnum)
		return
	}
	if width < 0 || height < 0 {
		c.setError(gl.InvalidValue)
		return
	}
	if pixels == nil || width == 0 || height == 0 {
		return
	}
	src, sw, sh, ok := c.drawTarget()
	if !ok {
		return
	}
	dst := unsafe.Slice((*byte)(pixels), int(width)*int(height)*4)
	for row := 0; row < int(height); row++ {
		for col := 0; col < int(width); col++ {
			sx, sy := int(x)+col, int(y)+row
			di := (row*int(width) + col) * 4
			if src == nil || sx < 0 || sy < 0 || sx >= sw || sy >= sh {
				copy(dst[di:di+4], []byte{0, 0, 0, 0})
				continue
			}
			si := (sy*sw + sx) * 4
			copy(dst[di:di+4], src[si:si+4])
		}
	}
}

func mat4(m []float32) mgl32.Mat4 {
	var out mgl32.Mat4
	copy(out[:], m)
	return out
}

func toBytes(c [4]float32) [4]byte {
	var out [4]byte
	for i, v := range c {
		out[i] = uint8(math.Round(float64(clamp01(v)) * 255))
	}
	return out
}
