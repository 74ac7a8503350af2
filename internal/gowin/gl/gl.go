// Package gl is the OpenGL 3.3 core surface used by fbview.
//
// Every GL-using package depends on the OpenGL interface rather than on a
// driver binding, so tests can substitute the software implementation in
// the softgl subpackage.
package gl

import "unsafe"

// Enum values from the OpenGL 3.3 core registry.
const (
	NoError                     = 0
	InvalidEnum                 = 0x0500
	InvalidValue                = 0x0501
	InvalidOperation            = 0x0502
	OutOfMemory                 = 0x0505
	InvalidFramebufferOperation = 0x0506

	Vendor   = 0x1F00
	Renderer = 0x1F01
	Version  = 0x1F02

	Triangles = 0x0004

	Blend            = 0x0BE2
	DepthTest        = 0x0B71
	StencilTest      = 0x0B90
	SrcAlpha         = 0x0302
	OneMinusSrcAlpha = 0x0303

	ColorBufferBit   = 0x00004000
	DepthBufferBit   = 0x00000100
	StencilBufferBit = 0x00000400

	ViewportParam       = 0x0BA2
	TextureBinding2D    = 0x8069
	FramebufferBinding  = 0x8CA6
	RenderbufferBinding = 0x8CA7
	CurrentProgram      = 0x8B8D

	Texture2D        = 0x0DE1
	Texture0         = 0x84C0
	TextureMinFilter = 0x2801
	TextureMagFilter = 0x2800
	TextureWrapS     = 0x2802
	TextureWrapT     = 0x2803
	TextureBaseLevel = 0x813C
	TextureMaxLevel  = 0x813D
	Nearest          = 0x2600
	Linear           = 0x2601
	ClampToEdge      = 0x812F

	RGB          = 0x1907
	RGBA         = 0x1908
	RGBA8        = 0x8058
	UnsignedByte = 0x1401
	UnsignedInt  = 0x1405
	Float        = 0x1406

	Framebuffer            = 0x8D40
	Renderbuffer           = 0x8D41
	ColorAttachment0       = 0x8CE0
	DepthAttachment        = 0x8D00
	StencilAttachment      = 0x8D20
	DepthStencilAttachment = 0x821A
	Depth24Stencil8        = 0x88F0

	FramebufferComplete                    = 0x8CD5
	FramebufferIncompleteAttachment        = 0x8CD6
	FramebufferIncompleteMissingAttachment = 0x8CD7
	FramebufferUnsupported                 = 0x8CDD
	FramebufferUndefined                   = 0x8219

	VertexShader   = 0x8B31
	FragmentShader = 0x8B30
	CompileStatus  = 0x8B81
	LinkStatus     = 0x8B82
	InfoLogLength  = 0x8B84

	ArrayBuffer = 0x8892
	StaticDraw  = 0x88E4
	DynamicDraw = 0x88E8
)

// OpenGL is the subset of the OpenGL 3.3 core API used by fbview. All methods
// must be called from the thread that owns the current context.
type OpenGL interface {
	GetString(name uint32) string
	GetError() uint32
	GetIntegerv(pname uint32, data *int32)
	Enable(capability uint32)
	Disable(capability uint32)
	BlendFunc(sfactor, dfactor uint32)
	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear(mask uint32)

	GenTextures(n int32, textures *uint32)
	DeleteTextures(n int32, textures *uint32)
	BindTexture(target, texture uint32)
	ActiveTexture(texture uint32)
	TexParameteri(target, pname uint32, param int32)
	TexImage2D(target uint32, level, internalFormat, width, height, border int32, format, xtype uint32, pixels unsafe.Pointer)

	GenFramebuffers(n int32, framebuffers *uint32)
	DeleteFramebuffers(n int32, framebuffers *uint32)
	BindFramebuffer(target, framebuffer uint32)
	FramebufferTexture2D(target, attachment, texTarget, texture uint32, level int32)
	FramebufferRenderbuffer(target, attachment, renderbufferTarget, renderbuffer uint32)
	CheckFramebufferStatus(target uint32) uint32
	IsFramebuffer(framebuffer uint32) bool

	GenRenderbuffers(n int32, renderbuffers *uint32)
	DeleteRenderbuffers(n int32, renderbuffers *uint32)
	BindRenderbuffer(target, renderbuffer uint32)
	RenderbufferStorage(target, internalFormat uint32, width, height int32)

	ReadPixels(x, y, width, height int32, format, xtype uint32, pixels unsafe.Pointer)

	CreateShader(xtype uint32) uint32
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32)
	GetShaderiv(shader, pname uint32, params *int32)
	GetShaderInfoLog(shader uint32) string
	DeleteShader(shader uint32)

	CreateProgram() uint32
	AttachShader(program, shader uint32)
	LinkProgram(program uint32)
	GetProgramiv(program, pname uint32, params *int32)
	GetProgramInfoLog(program uint32) string
	DeleteProgram(program uint32)
	UseProgram(program uint32)
	GetUniformLocation(program uint32, name string) int32
	GetAttribLocation(program uint32, name string) int32
	Uniform1i(location, v0 int32)
	Uniform4f(location int32, v0, v1, v2, v3 float32)
	UniformMatrix4fv(location, count int32, transpose bool, value *float32)

	GenVertexArrays(n int32, arrays *uint32)
	DeleteVertexArrays(n int32, arrays *uint32)
	BindVertexArray(array uint32)
	GenBuffers(n int32, buffers *uint32)
	DeleteBuffers(n int32, buffers *uint32)
	BindBuffer(target, buffer uint32)
	BufferData(target uint32, size int, data unsafe.Pointer, usage uint32)
	BufferSubData(target uint32, offset, size int, data unsafe.Pointer)
	VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr)
	EnableVertexAttribArray(index uint32)
	DrawArrays(mode uint32, first, count int32)
}

// FramebufferStatusString names a CheckFramebufferStatus result.
func FramebufferStatusString(status uint32) string {
	switch status {
	case FramebufferComplete:
		return "complete"
	case FramebufferIncompleteAttachment:
		return "incomplete attachment"
	case FramebufferIncompleteMissingAttachment:
		return "missing attachment"
	case FramebufferUnsupported:
		return "unsupported"
	case FramebufferUndefined:
		return "undefined"
	case 0:
		return "error"
	default:
		return "unknown"
	}
}
