package softgl

import (
	"regexp"
	"strconv"
	"strings"
	"unsafe"

	"github.com/tinyrange/fbview/internal/gowin/gl"
)

var (
	attribDecl  = regexp.MustCompile(`(?:layout\s*\(\s*location\s*=\s*(\d+)\s*\)\s*)?\bin\s+(?:float|vec[234])\s+(\w+)\s*;`)
	uniformDecl = regexp.MustCompile(`\buniform\s+\w+\s+(\w+)\s*;`)
)

type shader struct {
	kind     uint32
	source   string
	compiled bool
	log      string
}

type program struct {
	shaders  []uint32
	linked   bool
	log      string
	attribs  map[string]int32
	uniforms map[string]int32
	values   map[int32][]float32
}

// CreateShader implements gl.OpenGL.
func (c *Context) CreateShader(xtype uint32) uint32 {
	if xtype != gl.VertexShader && xtype != gl.FragmentShader {
		c.setError(gl.InvalidEnum)
		return 0
	}
	c.next++
	c.shaders[c.next] = &shader{kind: xtype}
	return c.next
}

// ShaderSource implements gl.OpenGL.
func (c *Context) ShaderSource(name uint32, source string) {
	s, ok := c.shaders[name]
	if !ok {
		c.setError(gl.InvalidValue)
		return
	}
	s.source = source
}

// CompileShader implements gl.OpenGL. A shader compiles when it declares a
// main function, unless shader rejection is enabled.
func (c *Context) CompileShader(name uint32) {
	s, ok := c.shaders[name]
	if !ok {
		c.setError(gl.InvalidValue)
		return
	}
	switch {
	case c.rejectShaders:
		s.compiled, s.log = false, "softgl: shader compilation rejected"
	case !strings.Contains(s.source, "void main"):
		s.compiled, s.log = false, "softgl: no main function"
	default:
		s.compiled, s.log = true, ""
	}
}

// GetShaderiv implements gl.OpenGL.
func (c *Context) GetShaderiv(name, pname uint32, params *int32) {
	s, ok := c.shaders[name]
	if !ok || params == nil {
		c.setError(gl.InvalidValue)
		return
	}
	switch pname {
	case gl.CompileStatus:
		*params = boolInt(s.compiled)
	case gl.InfoLogLength:
		*params = logLength(s.log)
	default:
		c.setError(gl.InvalidEnum)
	}
}

// GetShaderInfoLog implements gl.OpenGL.
func (c *Context) GetShaderInfoLog(name uint32) string {
	if s, ok := c.shaders[name]; ok {
		return s.log
	}
	c.setError(gl.InvalidValue)
	return ""
}

// DeleteShader implements gl.OpenGL.
func (c *Context) DeleteShader(name uint32) {
	delete(c.shaders, name)
}

// CreateProgram implements gl.OpenGL.
func (c *Context) CreateProgram() uint32 {
	c.next++
	c.programs[c.next] = &program{
		attribs:  make(map[string]int32),
		uniforms: make(map[string]int32),
		values:   make(map[int32][]float32),
	}
	return c.next
}

// AttachShader implements gl.OpenGL.
func (c *Context) AttachShader(name, shaderName uint32) {
	p, ok := c.programs[name]
	if !ok {
		c.setError(gl.InvalidValue)
		return
	}
	if _, ok := c.shaders[shaderName]; !ok {
		c.setError(gl.InvalidValue)
		return
	}
	p.shaders = append(p.shaders, shaderName)
}

// LinkProgram implements gl.OpenGL. Linking needs one compiled vertex and one
// compiled fragment shader. Attribute locations come from layout qualifiers
// or declaration order; uniform locations from declaration order.
func (c *Context) LinkProgram(name uint32) {
	p, ok := c.programs[name]
	if !ok {
		c.setError(gl.InvalidValue)
		return
	}
	var vertex, fragment *shader
	for _, sn := range p.shaders {
		s, ok := c.shaders[sn]
		if !ok || !s.compiled {
			continue
		}
		switch s.kind {
		case gl.VertexShader:
			vertex = s
		case gl.FragmentShader:
			fragment = s
		}
	}
	if vertex == nil || fragment == nil {
		p.linked, p.log = false, "softgl: program needs a compiled vertex and fragment shader"
		return
	}

	p.attribs = make(map[string]int32)
	next := int32(0)
	for _, m := range attribDecl.FindAllStringSubmatch(vertex.source, -1) {
		loc := next
		if m[1] != "" {
			n, _ := strconv.Atoi(m[1])
			loc = int32(n)
		}
		p.attribs[m[2]] = loc
		next = loc + 1
	}

	p.uniforms = make(map[string]int32)
	for _, src := range []string{vertex.source, fragment.source} {
		for _, m := range uniformDecl.FindAllStringSubmatch(src, -1) {
			if _, ok := p.uniforms[m[1]]; !ok {
				p.uniforms[m[1]] = int32(len(p.uniforms))
			}
		}
	}
	p.values = make(map[int32][]float32)
	p.linked, p.log = true, ""
}

// GetProgramiv implements gl.OpenGL.
func (c *Context) GetProgramiv(name, pname uint32, params *int32) {
	p, ok := c.programs[name]
	if !ok || params == nil {
		c.setError(gl.InvalidValue)
		return
	}
	switch pname {
	case gl.LinkStatus:
		*params = boolInt(p.linked)
	case gl.InfoLogLength:
		*params = logLength(p.log)
	default:
		c.setError(gl.InvalidEnum)
	}
}

// GetProgramInfoLog implements gl.OpenGL.
func (c *Context) GetProgramInfoLog(name uint32) string {
	if p, ok := c.programs[name]; ok {
		return p.log
	}
	c.setError(gl.InvalidValue)
	return ""
}

// DeleteProgram implements gl.OpenGL.
func (c *Context) DeleteProgram(name uint32) {
	if _, ok := c.programs[name]; !ok {
		return
	}
	delete(c.programs, name)
	if c.currentProgram == name {
		c.currentProgram = 0
	}
}

// UseProgram implements gl.OpenGL.
func (c *Context) UseProgram(name uint32) {
	if name == 0 {
		c.currentProgram = 0
		return
	}
	p, ok := c.programs[name]
	if !ok || !p.linked {
		c.setError(gl.InvalidOperation)
		return
	}
	c.currentProgram = name
}

// GetUniformLocation implements gl.OpenGL.
func (c *Context) GetUniformLocation(name uint32, uniform string) int32 {
	p, ok := c.programs[name]
	if !ok || !p.linked {
		c.setError(gl.InvalidOperation)
		return -1
	}
	if loc, ok := p.uniforms[uniform]; ok {
		return loc
	}
	return -1
}

// GetAttribLocation implements gl.OpenGL.
func (c *Context) GetAttribLocation(name uint32, attrib string) int32 {
	p, ok := c.programs[name]
	if !ok || !p.linked {
		c.setError(gl.InvalidOperation)
		return -1
	}
	if loc, ok := p.attribs[attrib]; ok {
		return loc
	}
	return -1
}

func (c *Context) setUniform(location int32, values []float32) {
	p, ok := c.programs[c.currentProgram]
	if !ok {
		c.setError(gl.InvalidOperation)
		return
	}
	if location == -1 {
		return
	}
	p.values[location] = values
}

// Uniform1i implements gl.OpenGL.
func (c *Context) Uniform1i(location, v0 int32) {
	c.setUniform(location, []float32{float32(v0)})
}

// Uniform4f implements gl.OpenGL.
func (c *Context) Uniform4f(location int32, v0, v1, v2, v3 float32) {
	c.setUniform(location, []float32{v0, v1, v2, v3})
}

// UniformMatrix4fv implements gl.OpenGL. Only count == 1 is supported.
func (c *Context) UniformMatrix4fv(location, count int32, transpose bool, value *float32) {
	if count != 1 || value == nil {
		c.setError(gl.InvalidValue)
		return
	}
	m := append([]float32(nil), unsafe.Slice(value, 16)...)
	if transpose {
		var t [16]float32
		for col := 0; col < 4; col++ {
			for row := 0; row < 4; row++ {
				t[col*4+row] = m[row*4+col]
			}
		}
		m = t[:]
	}
	c.setUniform(location, m)
}

// uniform returns the value of a named uniform of the current program.
func (c *Context) uniform(name string) ([]float32, bool) {
	p, ok := c.programs[c.currentProgram]
	if !ok {
		return nil, false
	}
	loc, ok := p.uniforms[name]
	if !ok {
		return nil, false
	}
	v, ok := p.values[loc]
	return v, ok
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func logLength(log string) int32 {
	if log == "" {
		return 0
	}
	return int32(len(log) + 1)
}
