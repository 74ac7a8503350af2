// Package window opens a GLFW window with an OpenGL 3.3 core context.
//
// GLFW requires its calls to come from the main thread; callers must lock
// the main goroutine to its OS thread (runtime.LockOSThread in an init
// function) before calling New.
package window

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/tinyrange/fbview/internal/gowin/gl"
)

type Window interface {
	GL() (gl.OpenGL, error)
	Close()
	Poll() bool
	Swap()
	BackingSize() (width, height int)
	Scale() float32
	GetKeyState(key Key) KeyState
}

type glfwWindow struct {
	win     *glfw.Window
	keys    keyStates
	running bool
}

var _ Window = (*glfwWindow)(nil)

// New initializes GLFW and opens a resizable window of width x height
// screen coordinates whose context is made current on the calling thread.
func New(title string, width, height int, vsync bool) (Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("initialize glfw: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)
	glfw.WindowHint(glfw.StencilBits, 8)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	win.MakeContextCurrent()
	if vsync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	w := &glfwWindow{
		win:     win,
		keys:    make(keyStates),
		running: true,
	}
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		w.keys.apply(keyFromGLFW(key), action)
	})

	fbw, fbh := win.GetFramebufferSize()
	slog.Debug("window created", "title", title, "width", width, "height", height,
		"framebuffer_width", fbw, "framebuffer_height", fbh)
	return w, nil
}

func (w *glfwWindow) GL() (gl.OpenGL, error) {
	return gl.Load(glfw.GetProcAddress)
}

func (w *glfwWindow) Close() {
	if w.win != nil {
		w.win.Destroy()
		w.win = nil
	}
	w.running = false
	glfw.Terminate()
}

// Poll processes pending events. It returns false once the window was asked
// to close or Escape or Q was pressed.
func (w *glfwWindow) Poll() bool {
	if !w.running || w.win == nil {
		return false
	}
	w.keys.advance()
	glfw.PollEvents()
	if w.win.ShouldClose() || quitRequested(w.keys) {
		w.running = false
	}
	return w.running
}

func quitRequested(s keyStates) bool {
	return s.get(KeyEscape) == KeyStatePressed || s.get(KeyQ) == KeyStatePressed
}

func (w *glfwWindow) Swap() {
	if w.win != nil {
		w.win.SwapBuffers()
	}
}

// BackingSize returns the framebuffer size in pixels.
func (w *glfwWindow) BackingSize() (int, int) {
	if w.win == nil {
		return 0, 0
	}
	return w.win.GetFramebufferSize()
}

// Scale returns the content scale of the monitor the window is on; 2 on a
// typical HiDPI display.
func (w *glfwWindow) Scale() float32 {
	if w.win == nil {
		return 1
	}
	x, _ := w.win.GetContentScale()
	if x <= 0 {
		return 1
	}
	return x
}

// GetKeyState returns the state of key as of the last Poll.
func (w *glfwWindow) GetKeyState(key Key) KeyState {
	return w.keys.get(key)
}
