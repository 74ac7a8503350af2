// Package viewer runs the per-frame pipeline: the scene is rendered into an
// off-screen target sized to the panel's content region, then the target's
// color texture is shown in the panel on the default framebuffer.
package viewer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	glpkg "github.com/tinyrange/fbview/internal/gowin/gl"
	"github.com/tinyrange/fbview/internal/gowin/graphics"
)

// Scene draws into whatever framebuffer and viewport are current.
type Scene interface {
	Draw()
}

// Host is the window the viewer presents to.
type Host interface {
	Poll() bool
	Swap()
	BackingSize() (width, height int)
}

type Options struct {
	Panel graphics.Panel

	// ClearColor fills the off-screen target before the scene is drawn.
	ClearColor color.Color

	// ScreenColor fills the window behind the panel.
	ScreenColor color.Color

	// CaptureRequested is polled by Run after each rendered frame. When it
	// reports true the target is read back and handed to Capture. Both must
	// be set for captures to happen.
	CaptureRequested func() bool
	Capture          func(img *image.RGBA) error
}

// FrameStats describes one frame.
type FrameStats struct {
	// Region is the panel content region in window pixels.
	Region image.Rectangle

	// Rendered is false when the region was empty and the off-screen pass
	// was skipped.
	Rendered bool
}

type Viewer struct {
	gl     glpkg.OpenGL
	target *graphics.RenderTarget
	scene  Scene
	panel  *graphics.ImagePanel
	opts   Options
}

func New(gl glpkg.OpenGL, target *graphics.RenderTarget, scene Scene, panel *graphics.ImagePanel, opts Options) *Viewer {
	if opts.ClearColor == nil {
		opts.ClearColor = graphics.ColorBlack
	}
	if opts.ScreenColor == nil {
		opts.ScreenColor = graphics.ColorBlack
	}
	return &Viewer{gl: gl, target: target, scene: scene, panel: panel, opts: opts}
}

// Frame renders one frame for a window backing store of width x height
// pixels. It does not present.
func (v *Viewer) Frame(width, height int) (FrameStats, error) {
	stats := FrameStats{Region: v.opts.Panel.ContentRegion(width, height)}

	if !stats.Region.Empty() {
		if err := v.renderOffscreen(stats.Region.Dx(), stats.Region.Dy()); err != nil {
			return stats, err
		}
		stats.Rendered = true
	}

	gl := v.gl
	gl.Viewport(0, 0, int32(width), int32(height))
	c := graphics.ColorToFloat32(v.opts.ScreenColor)
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(glpkg.ColorBufferBit)

	var tex graphics.Texture
	if stats.Rendered {
		t, err := v.target.Texture()
		if err != nil {
			return stats, fmt.Errorf("display render target: %w", err)
		}
		tex = t
	}
	v.panel.Draw(v.opts.Panel, width, height, tex)
	return stats, nil
}

func (v *Viewer) renderOffscreen(width, height int) error {
	if err := v.target.Resize(width, height); err != nil {
		return err
	}
	restore, err := v.target.Use()
	if err != nil {
		return err
	}
	defer restore()

	c := graphics.ColorToFloat32(v.opts.ClearColor)
	v.gl.ClearColor(c[0], c[1], c[2], c[3])
	v.gl.Clear(glpkg.ColorBufferBit | glpkg.DepthBufferBit | glpkg.StencilBufferBit)
	v.scene.Draw()
	return nil
}

// Run renders and presents frames until the host stops polling, ctx is done
// or maxFrames frames were presented. A maxFrames of zero means no limit.
// It returns the number of frames presented.
func (v *Viewer) Run(ctx context.Context, host Host, maxFrames int) (int, error) {
	frames := 0
	for maxFrames == 0 || frames < maxFrames {
		if err := ctx.Err(); err != nil {
			slog.Debug("viewer stopped", "reason", err, "frames", frames)
			return frames, nil
		}
		if !host.Poll() {
			slog.Debug("viewer stopped", "reason", "window closed", "frames", frames)
			return frames, nil
		}

		w, h := host.BackingSize()
		stats, err := v.Frame(w, h)
		if err != nil {
			return frames, fmt.Errorf("frame %d: %w", frames, err)
		}
		if stats.Rendered {
			v.capture(frames)
		} else {
			slog.Debug("content region empty, skipped off-screen pass", "width", w, "height", h)
		}
		host.Swap()
		frames++
	}
	return frames, nil
}

// capture reads the target back when a capture was requested. Failures are
// logged; they do not stop the viewer.
func (v *Viewer) capture(frame int) {
	if v.opts.CaptureRequested == nil || v.opts.Capture == nil || !v.opts.CaptureRequested() {
		return
	}
	img, err := v.target.ReadPixels()
	if err == nil {
		err = v.opts.Capture(img)
	}
	if err != nil {
		slog.Error("capture failed", "frame", frame, "error", err)
	}
}
