package gl

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

// driver implements OpenGL by calling driver entry points resolved at load
// time. The function fields mirror the C signatures.
type driver struct {
	glGetString    func(name uint32) string
	glGetError     func() uint32
	glGetIntegerv  func(pname uint32, data *int32)
	glEnable       func(capability uint32)
	glDisable      func(capability uint32)
	glBlendFunc    func(sfactor, dfactor uint32)
	glViewport     func(x, y, width, height int32)
	glClearColor   func(r, g, b, a float32)
	glClear        func(mask uint32)
	glGenTextures  func(n int32, textures *uint32)
	glDelTextures  func(n int32, textures *uint32)
	glBindTexture  func(target, texture uint32)
	glActiveTex    func(texture uint32)
	glTexParam     func(target, pname uint32, param int32)
	glTexImage2D   func(target uint32, level, internalFormat, width, height, border int32, format, xtype uint32, pixels unsafe.Pointer)
	glGenFBOs      func(n int32, framebuffers *uint32)
	glDelFBOs      func(n int32, framebuffers *uint32)
	glBindFBO      func(target, framebuffer uint32)
	glFBOTexture2D func(target, attachment, texTarget, texture uint32, level int32)
	glFBORbo       func(target, attachment, renderbufferTarget, renderbuffer uint32)
	glCheckFBO     func(target uint32) uint32
	glIsFBO        func(framebuffer uint32) bool
	glGenRBOs      func(n int32, renderbuffers *uint32)
	glDelRBOs      func(n int32, renderbuffers *uint32)
	glBindRBO      func(target, renderbuffer uint32)
	glRBOStorage   func(target, internalFormat uint32, width, height int32)
	glReadPixels   func(x, y, width, height int32, format, xtype uint32, pixels unsafe.Pointer)
	glCreateShader func(xtype uint32) uint32
	glShaderSource func(shader uint32, count int32, source **byte, length *int32)
	glCompile      func(shader uint32)
	glGetShaderiv  func(shader, pname uint32, params *int32)
	glShaderLog    func(shader uint32, bufSize int32, length *int32, infoLog *byte)
	glDelShader    func(shader uint32)
	glCreateProg   func() uint32
	glAttach       func(program, shader uint32)
	glLink         func(program uint32)
	glGetProgramiv func(program, pname uint32, params *int32)
	glProgramLog   func(program uint32, bufSize int32, length *int32, infoLog *byte)
	glDelProgram   func(program uint32)
	glUseProgram   func(program uint32)
	glUniformLoc   func(program uint32, name string) int32
	glAttribLoc    func(program uint32, name string) int32
	glUniform1i    func(location, v0 int32)
	glUniform4f    func(location int32, v0, v1, v2, v3 float32)
	glUniformMat4  func(location, count int32, transpose bool, value *float32)
	glGenVAOs      func(n int32, arrays *uint32)
	glDelVAOs      func(n int32, arrays *uint32)
	glBindVAO      func(array uint32)
	glGenBuffers   func(n int32, buffers *uint32)
	glDelBuffers   func(n int32, buffers *uint32)
	glBindBuffer   func(target, buffer uint32)
	glBufferData   func(target uint32, size int, data unsafe.Pointer, usage uint32)
	glBufferSub    func(target uint32, offset, size int, data unsafe.Pointer)
	glAttribPtr    func(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr)
	glEnableAttrib func(index uint32)
	glDrawArrays   func(mode uint32, first, count int32)
}

type entry struct {
	name string
	fn   any
}

func (d *driver) entries() []entry {
	return []entry{
		{"glGetString", &d.glGetString},
		{"glGetError", &d.glGetError},
		{"glGetIntegerv", &d.glGetIntegerv},
		{"glEnable", &d.glEnable},
		{"glDisable", &d.glDisable},
		{"glBlendFunc", &d.glBlendFunc},
		{"glViewport", &d.glViewport},
		{"glClearColor", &d.glClearColor},
		{"glClear", &d.glClear},
		{"glGenTextures", &d.glGenTextures},
		{"glDeleteTextures", &d.glDelTextures},
		{"glBindTexture", &d.glBindTexture},
		{"glActiveTexture", &d.glActiveTex},
		{"glTexParameteri", &d.glTexParam},
		{"glTexImage2D", &d.glTexImage2D},
		{"glGenFramebuffers", &d.glGenFBOs},
		{"glDeleteFramebuffers", &d.glDelFBOs},
		{"glBindFramebuffer", &d.glBindFBO},
		{"glFramebufferTexture2D", &d.glFBOTexture2D},
		{"glFramebufferRenderbuffer", &d.glFBORbo},
		{"glCheckFramebufferStatus", &d.glCheckFBO},
		{"glIsFramebuffer", &d.glIsFBO},
		{"glGenRenderbuffers", &d.glGenRBOs},
		{"glDeleteRenderbuffers", &d.glDelRBOs},
		{"glBindRenderbuffer", &d.glBindRBO},
		{"glRenderbufferStorage", &d.glRBOStorage},
		{"glReadPixels", &d.glReadPixels},
		{"glCreateShader", &d.glCreateShader},
		{"glShaderSource", &d.glShaderSource},
		{"glCompileShader", &d.glCompile},
		{"glGetShaderiv", &d.glGetShaderiv},
		{"glGetShaderInfoLog", &d.glShaderLog},
		{"glDeleteShader", &d.glDelShader},
		{"glCreateProgram", &d.glCreateProg},
		{"glAttachShader", &d.glAttach},
		{"glLinkProgram", &d.glLink},
		{"glGetProgramiv", &d.glGetProgramiv},
		{"glGetProgramInfoLog", &d.glProgramLog},
		{"glDeleteProgram", &d.glDelProgram},
		{"glUseProgram", &d.glUseProgram},
		{"glGetUniformLocation", &d.glUniformLoc},
		{"glGetAttribLocation", &d.glAttribLoc},
		{"glUniform1i", &d.glUniform1i},
		{"glUniform4f", &d.glUniform4f},
		{"glUniformMatrix4fv", &d.glUniformMat4},
		{"glGenVertexArrays", &d.glGenVAOs},
		{"glDeleteVertexArrays", &d.glDelVAOs},
		{"glBindVertexArray", &d.glBindVAO},
		{"glGenBuffers", &d.glGenBuffers},
		{"glDeleteBuffers", &d.glDelBuffers},
		{"glBindBuffer", &d.glBindBuffer},
		{"glBufferData", &d.glBufferData},
		{"glBufferSubData", &d.glBufferSub},
		{"glVertexAttribPointer", &d.glAttribPtr},
		{"glEnableVertexAttribArray", &d.glEnableAttrib},
		{"glDrawArrays", &d.glDrawArrays},
	}
}

// ProcAddressFunc resolves a GL entry point by name, returning nil when the
// driver does not export it.
type ProcAddressFunc func(name string) unsafe.Pointer

// Load binds every entry point of the OpenGL interface using getProcAddress.
// The context that getProcAddress belongs to must be current.
func Load(getProcAddress ProcAddressFunc) (OpenGL, error) {
	if getProcAddress == nil {
		return nil, fmt.Errorf("gl: no proc address resolver")
	}

	d := &driver{}
	entries := d.entries()

	addrs := make([]uintptr, len(entries))
	for i, e := range entries {
		addr := getProcAddress(e.name)
		if addr == nil {
			return nil, fmt.Errorf("gl: missing entry point %s", e.name)
		}
		addrs[i] = uintptr(addr)
	}
	for i, e := range entries {
		purego.RegisterFunc(e.fn, addrs[i])
	}

	return d, nil
}

func (d *driver) GetString(name uint32) string          { return d.glGetString(name) }
func (d *driver) GetError() uint32                      { return d.glGetError() }
func (d *driver) GetIntegerv(pname uint32, data *int32) { d.glGetIntegerv(pname, data) }
func (d *driver) Enable(capability uint32)              { d.glEnable(capability) }
func (d *driver) Disable(capability uint32)             { d.glDisable(capability) }
func (d *driver) BlendFunc(sfactor, dfactor uint32)     { d.glBlendFunc(sfactor, dfactor) }
func (d *driver) Viewport(x, y, width, height int32)    { d.glViewport(x, y, width, height) }
func (d *driver) ClearColor(r, g, b, a float32)         { d.glClearColor(r, g, b, a) }
func (d *driver) Clear(mask uint32)                     { d.glClear(mask) }

func (d *driver) GenTextures(n int32, textures *uint32)    { d.glGenTextures(n, textures) }
func (d *driver) DeleteTextures(n int32, textures *uint32) { d.glDelTextures(n, textures) }
func (d *driver) BindTexture(target, texture uint32)       { d.glBindTexture(target, texture) }
func (d *driver) ActiveTexture(texture uint32)             { d.glActiveTex(texture) }
func (d *driver) TexParameteri(target, pname uint32, param int32) {
	d.glTexParam(target, pname, param)
}

func (d *driver) TexImage2D(target uint32, level, internalFormat, width, height, border int32, format, xtype uint32, pixels unsafe.Pointer) {
	d.glTexImage2D(target, level, internalFormat, width, height, border, format, xtype, pixels)
}

func (d *driver) GenFramebuffers(n int32, framebuffers *uint32)    { d.glGenFBOs(n, framebuffers) }
func (d *driver) DeleteFramebuffers(n int32, framebuffers *uint32) { d.glDelFBOs(n, framebuffers) }
func (d *driver) BindFramebuffer(target, framebuffer uint32)       { d.glBindFBO(target, framebuffer) }

func (d *driver) FramebufferTexture2D(target, attachment, texTarget, texture uint32, level int32) {
	d.glFBOTexture2D(target, attachment, texTarget, texture, level)
}

func (d *driver) FramebufferRenderbuffer(target, attachment, renderbufferTarget, renderbuffer uint32) {
	d.glFBORbo(target, attachment, renderbufferTarget, renderbuffer)
}

func (d *driver) CheckFramebufferStatus(target uint32) uint32 { return d.glCheckFBO(target) }

func (d *driver) IsFramebuffer(framebuffer uint32) bool { return d.glIsFBO(framebuffer) }

func (d *driver) GenRenderbuffers(n int32, renderbuffers *uint32)    { d.glGenRBOs(n, renderbuffers) }
func (d *driver) DeleteRenderbuffers(n int32, renderbuffers *uint32) { d.glDelRBOs(n, renderbuffers) }
func (d *driver) BindRenderbuffer(target, renderbuffer uint32)       { d.glBindRBO(target, renderbuffer) }

func (d *driver) RenderbufferStorage(target, internalFormat uint32, width, height int32) {
	d.glRBOStorage(target, internalFormat, width, height)
}

func (d *driver) ReadPixels(x, y, width, height int32, format, xtype uint32, pixels unsafe.Pointer) {
	d.glReadPixels(x, y, width, height, format, xtype, pixels)
}

func (d *driver) CreateShader(xtype uint32) uint32 { return d.glCreateShader(xtype) }

func (d *driver) ShaderSource(shader uint32, source string) {
	src := append([]byte(source), 0)
	ptr := &src[0]
	d.glShaderSource(shader, 1, &ptr, nil)
	runtime.KeepAlive(src)
}

func (d *driver) CompileShader(shader uint32) { d.glCompile(shader) }

func (d *driver) GetShaderiv(shader, pname uint32, params *int32) {
	d.glGetShaderiv(shader, pname, params)
}

func (d *driver) GetShaderInfoLog(shader uint32) string {
	var n int32
	d.glGetShaderiv(shader, InfoLogLength, &n)
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	var written int32
	d.glShaderLog(shader, n, &written, &buf[0])
	return string(buf[:clampLog(written, n)])
}

func (d *driver) DeleteShader(shader uint32)          { d.glDelShader(shader) }
func (d *driver) CreateProgram() uint32               { return d.glCreateProg() }
func (d *driver) AttachShader(program, shader uint32) { d.glAttach(program, shader) }
func (d *driver) LinkProgram(program uint32)          { d.glLink(program) }

func (d *driver) GetProgramiv(program, pname uint32, params *int32) {
	d.glGetProgramiv(program, pname, params)
}

func (d *driver) GetProgramInfoLog(program uint32) string {
	var n int32
	d.glGetProgramiv(program, InfoLogLength, &n)
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	var written int32
	d.glProgramLog(program, n, &written, &buf[0])
	return string(buf[:clampLog(written, n)])
}

func (d *driver) DeleteProgram(program uint32) { d.glDelProgram(program) }
func (d *driver) UseProgram(program uint32)    { d.glUseProgram(program) }

func (d *driver) GetUniformLocation(program uint32, name string) int32 {
	return d.glUniformLoc(program, name)
}

func (d *driver) GetAttribLocation(program uint32, name string) int32 {
	return d.glAttribLoc(program, name)
}

func (d *driver) Uniform1i(location, v0 int32) { d.glUniform1i(location, v0) }

func (d *driver) Uniform4f(location int32, v0, v1, v2, v3 float32) {
	d.glUniform4f(location, v0, v1, v2, v3)
}

func (d *driver) UniformMatrix4fv(location, count int32, transpose bool, value *float32) {
	d.glUniformMat4(location, count, transpose, value)
}

func (d *driver) GenVertexArrays(n int32, arrays *uint32)    { d.glGenVAOs(n, arrays) }
func (d *driver) DeleteVertexArrays(n int32, arrays *uint32) { d.glDelVAOs(n, arrays) }
func (d *driver) BindVertexArray(array uint32)               { d.glBindVAO(array) }
func (d *driver) GenBuffers(n int32, buffers *uint32)        { d.glGenBuffers(n, buffers) }
func (d *driver) DeleteBuffers(n int32, buffers *uint32)     { d.glDelBuffers(n, buffers) }
func (d *driver) BindBuffer(target, buffer uint32)           { d.glBindBuffer(target, buffer) }

func (d *driver) BufferData(target uint32, size int, data unsafe.Pointer, usage uint32) {
	d.glBufferData(target, size, data, usage)
}

func (d *driver) BufferSubData(target uint32, offset, size int, data unsafe.Pointer) {
	d.glBufferSub(target, offset, size, data)
}

func (d *driver) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr) {
	d.glAttribPtr(index, size, xtype, normalized, stride, offset)
}

func (d *driver) EnableVertexAttribArray(index uint32) { d.glEnableAttrib(index) }

func (d *driver) DrawArrays(mode uint32, first, count int32) { d.glDrawArrays(mode, first, count) }

// clampLog bounds the driver-reported log length to the buffer and drops the
// trailing NUL.
func clampLog(written, size int32) int32 {
	if written < 0 {
		return 0
	}
	if written > size {
		written = size
	}
	if written > 0 && written == size {
		written--
	}
	return written
}
