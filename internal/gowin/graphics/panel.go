package graphics

import (
	"fmt"
	"image"
	"image/color"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	glpkg "github.com/tinyrange/fbview/internal/gowin/gl"
)

const (
	panelVertexShaderSource = `#version 330
in vec2 a_position;
in vec2 a_texCoord;
in vec4 a_color;

out vec2 v_texCoord;
out vec4 v_color;

uniform mat4 u_proj;
uniform mat4 u_model;

void main() {
	gl_Position = u_proj * u_model * vec4(a_position, 0.0, 1.0);
	v_texCoord = a_texCoord;
	v_color = a_color;
}`

	panelFragmentShaderSource = `#version 330
in vec2 v_texCoord;
in vec4 v_color;

out vec4 fragColor;

uniform sampler2D u_texture;

void main() {
	fragColor = texture(u_texture, v_texCoord) * v_color;
}`
)

// Vertex matches the panel shader input layout:
//
//	a_position: vec2
//	a_texCoord: vec2
//	a_color:    vec4
//
// All values are in float32 and packed tightly in this order.
type Vertex struct {
	X float32
	Y float32
	U float32
	V float32
	R float32
	G float32
	B float32
	A float32
}

const vertexSize = int32(unsafe.Sizeof(Vertex{}))

// Panel places a titled panel inside the window. Inset is the margin between
// the window edge and the panel; TitleBar is the height of the strip above
// the content region.
type Panel struct {
	Inset    int
	TitleBar int
}

// Scaled returns p with its measurements multiplied by a display content
// scale and rounded to whole pixels. Scales that are not positive count as 1.
func (p Panel) Scaled(scale float32) Panel {
	if scale <= 0 {
		scale = 1
	}
	px := func(v int) int { return int(float32(v)*scale + 0.5) }
	return Panel{Inset: px(p.Inset), TitleBar: px(p.TitleBar)}
}

// Bounds returns the whole panel, title bar included, in window pixels with a
// top-left origin.
func (p Panel) Bounds(windowWidth, windowHeight int) image.Rectangle {
	r := image.Rect(p.Inset, p.Inset, windowWidth-p.Inset, windowHeight-p.Inset)
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return image.Rectangle{Min: r.Min, Max: r.Min}
	}
	return r
}

// ContentRegion returns the area the image is displayed in. It is empty when
// the window is too small to hold any content; callers must not size a
// render target from an empty region.
func (p Panel) ContentRegion(windowWidth, windowHeight int) image.Rectangle {
	b := p.Bounds(windowWidth, windowHeight)
	// image.Rect would swap the corners of a title bar taller than b.
	top := b.Min.Y + p.TitleBar
	if b.Empty() || top >= b.Max.Y {
		return image.Rectangle{Min: b.Min, Max: b.Min}
	}
	return image.Rectangle{Min: image.Pt(b.Min.X, top), Max: b.Max}
}

// quadVertices returns two triangles covering r. uv0 is the texture
// coordinate at the top-left corner of r and uv1 the one at the bottom-right.
func quadVertices(r image.Rectangle, uv0, uv1 mgl32.Vec2, c color.Color) [6]Vertex {
	rgba := ColorToFloat32(c)
	x0, y0 := float32(r.Min.X), float32(r.Min.Y)
	x1, y1 := float32(r.Max.X), float32(r.Max.Y)
	v := func(x, y, u, t float32) Vertex {
		return Vertex{X: x, Y: y, U: u, V: t, R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}
	}
	return [6]Vertex{
		// Triangle 1
		v(x0, y0, uv0[0], uv0[1]), // top-left
		v(x1, y0, uv1[0], uv0[1]), // top-right
		v(x0, y1, uv0[0], uv1[1]), // bottom-left
		// Triangle 2
		v(x1, y0, uv1[0], uv0[1]), // top-right
		v(x1, y1, uv1[0], uv1[1]), // bottom-right
		v(x0, y1, uv0[0], uv1[1]), // bottom-left
	}
}

// ImageQuad returns the quad that displays a render target's color texture
// in r. Framebuffer storage starts at the bottom row while the window is laid
// out from the top, so V runs from 1 at the top edge to 0 at the bottom.
func ImageQuad(r image.Rectangle) [6]Vertex {
	return quadVertices(r, mgl32.Vec2{0, 1}, mgl32.Vec2{1, 0}, color.White)
}

// ImagePanel draws a Panel and a texture inside its content region onto the
// default framebuffer.
type ImagePanel struct {
	gl glpkg.OpenGL

	program      uint32
	vao          uint32
	vbo          uint32
	projUniform  int32
	modelUniform int32
	texUniform   int32

	// 1x1 white texture for untextured quads.
	white *GLTexture
	title *GLTexture
}

// NewImagePanel compiles the panel shader and allocates its vertex storage.
func NewImagePanel(gl glpkg.OpenGL) (*ImagePanel, error) {
	program, err := CompileProgram(gl, panelVertexShaderSource, panelFragmentShaderSource)
	if err != nil {
		return nil, fmt.Errorf("failed to create panel shader: %w", err)
	}

	p := &ImagePanel{
		gl:           gl,
		program:      program,
		projUniform:  gl.GetUniformLocation(program, "u_proj"),
		modelUniform: gl.GetUniformLocation(program, "u_model"),
		texUniform:   gl.GetUniformLocation(program, "u_texture"),
	}

	gl.GenVertexArrays(1, &p.vao)
	gl.GenBuffers(1, &p.vbo)

	gl.BindVertexArray(p.vao)
	gl.BindBuffer(glpkg.ArrayBuffer, p.vbo)
	gl.BufferData(glpkg.ArrayBuffer, 6*int(vertexSize), nil, glpkg.DynamicDraw)

	posLoc := gl.GetAttribLocation(program, "a_position")
	texLoc := gl.GetAttribLocation(program, "a_texCoord")
	colLoc := gl.GetAttribLocation(program, "a_color")
	gl.VertexAttribPointer(uint32(posLoc), 2, glpkg.Float, false, vertexSize, 0)
	gl.EnableVertexAttribArray(uint32(posLoc))
	gl.VertexAttribPointer(uint32(texLoc), 2, glpkg.Float, false, vertexSize, 8)
	gl.EnableVertexAttribArray(uint32(texLoc))
	gl.VertexAttribPointer(uint32(colLoc), 4, glpkg.Float, false, vertexSize, 16)
	gl.EnableVertexAttribArray(uint32(colLoc))
	gl.BindVertexArray(0)

	white := image.NewRGBA(image.Rect(0, 0, 1, 1))
	white.SetRGBA(0, 0, ColorWhite)
	p.white = uploadImage(gl, white)

	return p, nil
}

// SetTitle sets the caption drawn at the left of the title bar. An empty
// title removes it.
func (p *ImagePanel) SetTitle(title string) {
	p.deleteTitle()
	if title == "" {
		return
	}
	p.title = uploadImage(p.gl, renderLabel(title, ColorWhite, ColorTitleBar))
}

func (p *ImagePanel) deleteTitle() {
	if p.title != nil {
		id := p.title.id
		p.gl.DeleteTextures(1, &id)
		p.title = nil
	}
}

// Draw renders the panel frame and title bar, then tex scaled into the content
// region. A nil tex leaves the content region showing the panel background.
// The default framebuffer must be bound.
func (p *ImagePanel) Draw(panel Panel, windowWidth, windowHeight int, tex Texture) {
	gl := p.gl

	gl.Viewport(0, 0, int32(windowWidth), int32(windowHeight))
	gl.UseProgram(p.program)
	gl.BindVertexArray(p.vao)

	proj := mgl32.Ortho2D(0, float32(windowWidth), float32(windowHeight), 0)
	model := mgl32.Ident4()
	gl.UniformMatrix4fv(p.projUniform, 1, false, &proj[0])
	gl.UniformMatrix4fv(p.modelUniform, 1, false, &model[0])
	gl.ActiveTexture(glpkg.Texture0)
	gl.Uniform1i(p.texUniform, 0)

	bounds := panel.Bounds(windowWidth, windowHeight)
	if !bounds.Empty() {
		p.drawQuad(p.white, quadVertices(bounds, mgl32.Vec2{0, 0}, mgl32.Vec2{1, 1}, ColorPanel))
		title := image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, min(bounds.Min.Y+panel.TitleBar, bounds.Max.Y))
		if !title.Empty() {
			p.drawQuad(p.white, quadVertices(title, mgl32.Vec2{0, 0}, mgl32.Vec2{1, 1}, ColorTitleBar))
			p.drawCaption(title)
		}
	}

	content := panel.ContentRegion(windowWidth, windowHeight)
	if tex != nil && tex.ID() != 0 && !content.Empty() {
		p.drawQuad(tex, ImageQuad(content))
	}

	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

// drawCaption draws the title texture at its natural size, vertically
// centered in bar and cut off at the bar's right edge. It is skipped when
// the bar is shorter than the text.
func (p *ImagePanel) drawCaption(bar image.Rectangle) {
	if p.title == nil {
		return
	}
	const padding = 4
	w, h := p.title.Size()
	avail := bar.Dx() - padding
	if h > bar.Dy() || avail <= 0 {
		return
	}
	shown := min(w, avail)
	x0 := bar.Min.X + padding
	y0 := bar.Min.Y + (bar.Dy()-h)/2
	r := image.Rect(x0, y0, x0+shown, y0+h)
	p.drawQuad(p.title, quadVertices(r, mgl32.Vec2{0, 0}, mgl32.Vec2{float32(shown) / float32(w), 1}, ColorWhite))
}

func (p *ImagePanel) drawQuad(tex Texture, vertices [6]Vertex) {
	p.gl.BindTexture(glpkg.Texture2D, tex.ID())
	p.gl.BindBuffer(glpkg.ArrayBuffer, p.vbo)
	p.gl.BufferSubData(glpkg.ArrayBuffer, 0, len(vertices)*int(vertexSize), unsafe.Pointer(&vertices[0]))
	p.gl.DrawArrays(glpkg.Triangles, 0, int32(len(vertices)))
}

// Destroy releases the panel's program, buffers and textures.
func (p *ImagePanel) Destroy() {
	if p.program != 0 {
		p.gl.DeleteProgram(p.program)
		p.program = 0
	}
	if p.vao != 0 {
		p.gl.DeleteVertexArrays(1, &p.vao)
		p.vao = 0
	}
	if p.vbo != 0 {
		p.gl.DeleteBuffers(1, &p.vbo)
		p.vbo = 0
	}
	if p.white != nil {
		id := p.white.id
		p.gl.DeleteTextures(1, &id)
		p.white = nil
	}
	p.deleteTitle()
}
