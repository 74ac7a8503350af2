// Package scene holds the content rendered into the off-screen target.
package scene

import (
	"errors"
	"fmt"
	"image/color"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	glpkg "github.com/tinyrange/fbview/internal/gowin/gl"
	"github.com/tinyrange/fbview/internal/gowin/graphics"
)

const (
	vertexShaderSource = `#version 330 core
layout (location = 0) in vec3 a_position;

uniform mat4 u_model;

void main() {
	gl_Position = u_model * vec4(a_position, 1.0);
}`

	fragmentShaderSource = `#version 330 core
out vec4 fragColor;

uniform vec4 u_color;

void main() {
	fragColor = u_color;
}`
)

// DefaultScale shrinks the triangle so its edges stay clear of the target's
// border.
const DefaultScale = 0.9

// DefaultVertices is a triangle spanning the bottom edge of clip space with
// its apex at the top center.
var DefaultVertices = []mgl32.Vec3{
	{-1, -1, 0},
	{1, -1, 0},
	{0, 1, 0},
}

// ErrNoVertices is returned when a triangle list is empty or not a multiple
// of three vertices.
var ErrNoVertices = errors.New("vertex count must be a positive multiple of 3")

// Triangle draws a flat-colored triangle list.
type Triangle struct {
	gl glpkg.OpenGL

	program uint32
	vao     uint32
	vbo     uint32
	count   int32

	modelUniform int32
	colorUniform int32

	color [4]float32
	model mgl32.Mat4
}

// NewTriangle uploads vertices and compiles the scene program. Positions are
// scaled by scale in x and y and halved in z before rasterization.
func NewTriangle(gl glpkg.OpenGL, vertices []mgl32.Vec3, c color.Color, scale float32) (*Triangle, error) {
	if len(vertices) == 0 || len(vertices)%3 != 0 {
		return nil, fmt.Errorf("create triangle with %d vertices: %w", len(vertices), ErrNoVertices)
	}

	program, err := graphics.CompileProgram(gl, vertexShaderSource, fragmentShaderSource)
	if err != nil {
		return nil, fmt.Errorf("failed to create scene shader: %w", err)
	}

	t := &Triangle{
		gl:           gl,
		program:      program,
		count:        int32(len(vertices)),
		modelUniform: gl.GetUniformLocation(program, "u_model"),
		colorUniform: gl.GetUniformLocation(program, "u_color"),
		color:        graphics.ColorToFloat32(c),
		model:        mgl32.Scale3D(scale, scale, 0.5),
	}

	gl.GenVertexArrays(1, &t.vao)
	gl.BindVertexArray(t.vao)

	gl.GenBuffers(1, &t.vbo)
	gl.BindBuffer(glpkg.ArrayBuffer, t.vbo)
	gl.BufferData(glpkg.ArrayBuffer, len(vertices)*int(unsafe.Sizeof(vertices[0])), unsafe.Pointer(&vertices[0]), glpkg.StaticDraw)

	gl.VertexAttribPointer(0, 3, glpkg.Float, false, 0, 0)
	gl.EnableVertexAttribArray(0)

	gl.BindBuffer(glpkg.ArrayBuffer, 0)
	gl.BindVertexArray(0)

	return t, nil
}

// SetColor changes the fill color used by later draws.
func (t *Triangle) SetColor(c color.Color) {
	t.color = graphics.ColorToFloat32(c)
}

// Draw renders the triangles into the current framebuffer and viewport.
func (t *Triangle) Draw() {
	gl := t.gl
	gl.UseProgram(t.program)
	gl.UniformMatrix4fv(t.modelUniform, 1, false, &t.model[0])
	gl.Uniform4f(t.colorUniform, t.color[0], t.color[1], t.color[2], t.color[3])
	gl.BindVertexArray(t.vao)
	gl.DrawArrays(glpkg.Triangles, 0, t.count)
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

// Destroy releases the program and vertex storage. It is safe to call more
// than once.
func (t *Triangle) Destroy() {
	if t.program != 0 {
		t.gl.DeleteProgram(t.program)
		t.program = 0
	}
	if t.vao != 0 {
		t.gl.DeleteVertexArrays(1, &t.vao)
		t.vao = 0
	}
	if t.vbo != 0 {
		t.gl.DeleteBuffers(1, &t.vbo)
		t.vbo = 0
	}
}
