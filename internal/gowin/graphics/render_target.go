package graphics

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"unsafe"

	glpkg "github.com/tinyrange/fbview/internal/gowin/gl"
)

var (
	// ErrInvalidSize is returned for a non-positive width or height. Such
	// sizes are never passed to the driver.
	ErrInvalidSize = errors.New("render target size must be positive")

	// ErrIncomplete is returned when the driver reports the framebuffer
	// incomplete after its attachments were (re)specified. The target is
	// unusable until a later Resize completes it.
	ErrIncomplete = errors.New("framebuffer incomplete")

	// ErrDestroyed is returned by every operation on a destroyed target.
	ErrDestroyed = errors.New("render target destroyed")

	// ErrAlreadyBound is returned by Bind when the target is already bound.
	ErrAlreadyBound = errors.New("render target already bound")
)

type targetState int

const (
	targetUsable targetState = iota
	targetBroken
	targetDestroyed
)

// destination is a framebuffer binding together with its viewport.
type destination struct {
	framebuffer uint32
	viewport    [4]int32
}

// savedBindings holds the object bindings a target touches while it
// specifies storage, so they can be put back afterwards.
type savedBindings struct {
	framebuffer  uint32
	texture      uint32
	renderbuffer uint32
}

// RenderTarget is an off-screen render target: a framebuffer object with an
// RGBA8 color texture and a DEPTH24_STENCIL8 renderbuffer of the same size.
//
// A GL context must be current on the calling thread for every method; the
// context's framebuffer binding is the single active render destination, so
// a RenderTarget must only be used from the thread owning that context.
type RenderTarget struct {
	gl glpkg.OpenGL

	fbo          uint32
	color        *GLTexture
	depthStencil uint32

	width  int
	height int

	state targetState
	// bound is set by Bind until the matching restore. The target is only
	// the destination while the context's binding is still fbo.
	bound   bool
	bindGen uint64
	prev    destination
}

// NewRenderTarget creates an off-screen render target for render-to-texture.
func NewRenderTarget(gl glpkg.OpenGL, width, height int) (*RenderTarget, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("create render target %dx%d: %w", width, height, ErrInvalidSize)
	}

	rt := &RenderTarget{gl: gl}
	if err := rt.create(width, height); err != nil {
		return nil, fmt.Errorf("create render target: %w", err)
	}

	slog.Debug("render target created", "fbo", rt.fbo, "texture", rt.color.id, "width", width, "height", height)
	return rt, nil
}

func (rt *RenderTarget) create(width, height int) error {
	gl := rt.gl
	saved := rt.saveBindings()
	defer rt.restoreBindings(saved)

	var tex uint32
	gl.GenTextures(1, &tex)
	rt.color = &GLTexture{id: tex}
	gl.GenRenderbuffers(1, &rt.depthStencil)
	gl.GenFramebuffers(1, &rt.fbo)

	gl.BindFramebuffer(glpkg.Framebuffer, rt.fbo)
	if err := rt.attach(width, height); err != nil {
		rt.release()
		rt.state = targetDestroyed
		return err
	}
	return nil
}

// attach (re)specifies the storage of both attachments at width x height,
// attaches them to the bound framebuffer and checks completeness.
func (rt *RenderTarget) attach(width, height int) error {
	gl := rt.gl

	gl.BindTexture(glpkg.Texture2D, rt.color.id)
	gl.TexImage2D(
		glpkg.Texture2D,
		0,
		int32(glpkg.RGBA8),
		int32(width),
		int32(height),
		0,
		glpkg.RGBA,
		glpkg.UnsignedByte,
		nil,
	)
	gl.TexParameteri(glpkg.Texture2D, glpkg.TextureMinFilter, glpkg.Linear)
	gl.TexParameteri(glpkg.Texture2D, glpkg.TextureMagFilter, glpkg.Linear)
	gl.TexParameteri(glpkg.Texture2D, glpkg.TextureWrapS, glpkg.ClampToEdge)
	gl.TexParameteri(glpkg.Texture2D, glpkg.TextureWrapT, glpkg.ClampToEdge)
	gl.TexParameteri(glpkg.Texture2D, glpkg.TextureMaxLevel, 0)
	gl.FramebufferTexture2D(glpkg.Framebuffer, glpkg.ColorAttachment0, glpkg.Texture2D, rt.color.id, 0)

	gl.BindRenderbuffer(glpkg.Renderbuffer, rt.depthStencil)
	gl.RenderbufferStorage(glpkg.Renderbuffer, glpkg.Depth24Stencil8, int32(width), int32(height))
	gl.FramebufferRenderbuffer(glpkg.Framebuffer, glpkg.DepthStencilAttachment, glpkg.Renderbuffer, rt.depthStencil)

	// Both attachments now have the new storage, whatever the status.
	rt.width, rt.height = width, height
	rt.color.w, rt.color.h = width, height

	if status := gl.CheckFramebufferStatus(glpkg.Framebuffer); status != glpkg.FramebufferComplete {
		slog.Error("framebuffer incomplete",
			"fbo", rt.fbo,
			"status", fmt.Sprintf("0x%X", status),
			"reason", glpkg.FramebufferStatusString(status),
			"width", width,
			"height", height,
		)
		return fmt.Errorf("%w: status 0x%X (%s) at %dx%d",
			ErrIncomplete, status, glpkg.FramebufferStatusString(status), width, height)
	}
	return nil
}

// check reports whether the target can be bound or sampled.
func (rt *RenderTarget) check() error {
	switch rt.state {
	case targetDestroyed:
		return ErrDestroyed
	case targetBroken:
		return ErrIncomplete
	}
	return nil
}

// Bind makes this render target the current drawing destination and sets the
// viewport to cover it. The destination active before the call is recorded
// and put back by Unbind.
func (rt *RenderTarget) Bind() error {
	if err := rt.check(); err != nil {
		return fmt.Errorf("bind render target: %w", err)
	}
	if rt.Bound() {
		return fmt.Errorf("bind render target %d: %w", rt.fbo, ErrAlreadyBound)
	}

	rt.prev = rt.currentDestination()
	rt.gl.BindFramebuffer(glpkg.Framebuffer, rt.fbo)
	rt.gl.Viewport(0, 0, int32(rt.width), int32(rt.height))
	rt.bound = true
	rt.bindGen++
	return nil
}

// Unbind restores the destination and viewport that were active when Bind
// was called; in a normal frame that is the default framebuffer. Without a
// preceding Bind it binds the default framebuffer. If another target has
// been bound since, the destination is left alone.
func (rt *RenderTarget) Unbind() error {
	if rt.state == targetDestroyed {
		return fmt.Errorf("unbind render target: %w", ErrDestroyed)
	}
	switch {
	case rt.Bound():
		rt.restoreDestination()
	case rt.bound:
		rt.bound = false
	default:
		rt.gl.BindFramebuffer(glpkg.Framebuffer, 0)
	}
	return nil
}

// Use binds the target and returns a function that restores the previous
// destination. The returned function is safe to defer and to call more than
// once; only the first call has an effect, and none once the target was
// unbound or bound again.
func (rt *RenderTarget) Use() (restore func(), err error) {
	if err := rt.Bind(); err != nil {
		return func() {}, err
	}
	gen := rt.bindGen
	done := false
	return func() {
		if done {
			return
		}
		done = true
		if rt.bindGen != gen {
			return
		}
		if rt.Bound() {
			rt.restoreDestination()
		} else {
			rt.bound = false
		}
	}, nil
}

// restoreDestination puts back the destination recorded by Bind. A recorded
// framebuffer that has since been deleted is replaced by the default one.
func (rt *RenderTarget) restoreDestination() {
	fb := rt.prev.framebuffer
	if fb != 0 && !rt.gl.IsFramebuffer(fb) {
		fb = 0
	}
	v := rt.prev.viewport
	rt.gl.BindFramebuffer(glpkg.Framebuffer, fb)
	rt.gl.Viewport(v[0], v[1], v[2], v[3])
	rt.bound = false
}

// Bound reports whether the target is currently the drawing destination
// through Bind or Use. Binding another framebuffer afterwards ends it.
func (rt *RenderTarget) Bound() bool {
	if !rt.bound || rt.fbo == 0 {
		return false
	}
	var fb int32
	rt.gl.GetIntegerv(glpkg.FramebufferBinding, &fb)
	return uint32(fb) == rt.fbo
}

// Texture returns the color attachment. The same *GLTexture, with the same
// GL name, is returned for the whole life of the target; its Size follows
// Resize.
func (rt *RenderTarget) Texture() (*GLTexture, error) {
	if err := rt.check(); err != nil {
		return nil, fmt.Errorf("render target texture: %w", err)
	}
	return rt.color, nil
}

// FBO returns the framebuffer object name, or 0 once destroyed.
func (rt *RenderTarget) FBO() uint32 {
	return rt.fbo
}

// DepthStencil returns the depth/stencil renderbuffer name, or 0 once
// destroyed.
func (rt *RenderTarget) DepthStencil() uint32 {
	return rt.depthStencil
}

// Size returns the dimensions of this render target.
func (rt *RenderTarget) Size() (int, int) {
	return rt.width, rt.height
}

// Resize respecifies the storage of both attachments at width x height. The
// framebuffer object and the color texture keep their names, so callers
// holding the texture need not fetch it again. Resizing to the current size
// is a no-op. A broken target may be resized to try to complete it again.
func (rt *RenderTarget) Resize(width, height int) error {
	if rt.state == targetDestroyed {
		return fmt.Errorf("resize render target: %w", ErrDestroyed)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize render target to %dx%d: %w", width, height, ErrInvalidSize)
	}
	if rt.state == targetUsable && width == rt.width && height == rt.height {
		return nil
	}

	saved := rt.saveBindings()
	rt.gl.BindFramebuffer(glpkg.Framebuffer, rt.fbo)
	err := rt.attach(width, height)
	rt.restoreBindings(saved)
	if err != nil {
		rt.state = targetBroken
		return fmt.Errorf("resize render target: %w", err)
	}

	rt.state = targetUsable
	if rt.Bound() {
		rt.gl.Viewport(0, 0, int32(width), int32(height))
	}
	slog.Debug("render target resized", "fbo", rt.fbo, "width", width, "height", height)
	return nil
}

// ReadPixels reads the color attachment back into an image with a top-left
// origin.
func (rt *RenderTarget) ReadPixels() (*image.RGBA, error) {
	if err := rt.check(); err != nil {
		return nil, fmt.Errorf("read render target: %w", err)
	}

	w, h := rt.width, rt.height
	raw := image.NewRGBA(image.Rect(0, 0, w, h))

	saved := rt.saveBindings()
	rt.gl.BindFramebuffer(glpkg.Framebuffer, rt.fbo)
	rt.gl.ReadPixels(0, 0, int32(w), int32(h), glpkg.RGBA, glpkg.UnsignedByte, unsafe.Pointer(&raw.Pix[0]))
	rt.restoreBindings(saved)

	// GL rows start at the bottom.
	flipped := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := raw.Pix[y*raw.Stride : (y+1)*raw.Stride]
		dst := (h - 1 - y) * flipped.Stride
		copy(flipped.Pix[dst:dst+flipped.Stride], src)
	}
	return flipped, nil
}

// Destroy releases the framebuffer, the color texture and the depth/stencil
// renderbuffer. It is safe to call more than once. If the target is the
// current destination, the destination recorded by Bind is restored first;
// otherwise the binding is left as it is.
func (rt *RenderTarget) Destroy() {
	if rt.state == targetDestroyed {
		return
	}
	if rt.Bound() {
		rt.restoreDestination()
	}
	rt.bound = false
	fbo := rt.fbo
	rt.release()
	rt.state = targetDestroyed
	slog.Debug("render target destroyed", "fbo", fbo)
}

func (rt *RenderTarget) release() {
	if rt.fbo != 0 {
		rt.gl.DeleteFramebuffers(1, &rt.fbo)
		rt.fbo = 0
	}
	if rt.color != nil && rt.color.id != 0 {
		id := rt.color.id
		rt.gl.DeleteTextures(1, &id)
		rt.color.id = 0
		rt.color = nil
	}
	if rt.depthStencil != 0 {
		rt.gl.DeleteRenderbuffers(1, &rt.depthStencil)
		rt.depthStencil = 0
	}
}

func (rt *RenderTarget) currentDestination() destination {
	var d destination
	var fb int32
	rt.gl.GetIntegerv(glpkg.FramebufferBinding, &fb)
	rt.gl.GetIntegerv(glpkg.ViewportParam, &d.viewport[0])
	d.framebuffer = uint32(fb)
	return d
}

func (rt *RenderTarget) saveBindings() savedBindings {
	var fb, tex, rb int32
	rt.gl.GetIntegerv(glpkg.FramebufferBinding, &fb)
	rt.gl.GetIntegerv(glpkg.TextureBinding2D, &tex)
	rt.gl.GetIntegerv(glpkg.RenderbufferBinding, &rb)
	return savedBindings{framebuffer: uint32(fb), texture: uint32(tex), renderbuffer: uint32(rb)}
}

func (rt *RenderTarget) restoreBindings(s savedBindings) {
	rt.gl.BindFramebuffer(glpkg.Framebuffer, s.framebuffer)
	rt.gl.BindTexture(glpkg.Texture2D, s.texture)
	rt.gl.BindRenderbuffer(glpkg.Renderbuffer, s.renderbuffer)
}
