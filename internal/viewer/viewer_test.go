package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	glpkg "github.com/tinyrange/fbview/internal/gowin/gl"
	"github.com/tinyrange/fbview/internal/gowin/gl/softgl"
	"github.com/tinyrange/fbview/internal/gowin/graphics"
	"github.com/tinyrange/fbview/internal/scene"
)

type fixture struct {
	gl     *softgl.Context
	target *graphics.RenderTarget
	tri    *scene.Triangle
	panel  *graphics.ImagePanel
	viewer *Viewer
}

func newFixture(t *testing.T, w, h int, p graphics.Panel) *fixture {
	t.Helper()
	c := softgl.New(w, h)
	rt, err := graphics.NewRenderTarget(c, 16, 16)
	require.NoError(t, err)
	tri, err := scene.NewTriangle(c, scene.DefaultVertices, graphics.ColorGreen, scene.DefaultScale)
	require.NoError(t, err)
	ip, err := graphics.NewImagePanel(c)
	require.NoError(t, err)
	t.Cleanup(func() {
		ip.Destroy()
		tri.Destroy()
		rt.Destroy()
	})
	v := New(c, rt, tri, ip, Options{Panel: p})
	return &fixture{gl: c, target: rt, tri: tri, panel: ip, viewer: v}
}

// indexFrom returns the index of the first entry equal to want at or after
// start.
func indexFrom(t *testing.T, trace []string, start int, want string) int {
	t.Helper()
	i := slices.Index(trace[start:], want)
	require.GreaterOrEqual(t, i, 0, "%q not found after index %d in %v", want, start, trace)
	return start + i
}

func TestFrameOrdering(t *testing.T) {
	f := newFixture(t, 200, 160, graphics.Panel{Inset: 10, TitleBar: 10})
	tex, err := f.target.Texture()
	require.NoError(t, err)
	fbo := f.target.FBO()

	f.gl.StartTrace()
	stats, err := f.viewer.Frame(200, 160)
	require.NoError(t, err)
	require.True(t, stats.Rendered)
	require.Equal(t, image.Rect(10, 20, 190, 150), stats.Region)

	tr := f.gl.Trace()
	i := indexFrom(t, tr, 0, fmt.Sprintf("TexImage2D %d 180x130", tex.ID()))
	i = indexFrom(t, tr, i, fmt.Sprintf("BindFramebuffer %d", fbo))
	i = indexFrom(t, tr, i, fmt.Sprintf("Clear %d", fbo))
	i = indexFrom(t, tr, i, fmt.Sprintf("DrawArrays %d 3", fbo))
	i = indexFrom(t, tr, i, "BindFramebuffer 0")
	i = indexFrom(t, tr, i, "Clear 0")
	indexFrom(t, tr, i, "DrawArrays 0 6")

	// Nothing is drawn on screen before the off-screen pass ends.
	first := slices.Index(tr, "DrawArrays 0 6")
	require.Greater(t, first, slices.Index(tr, fmt.Sprintf("DrawArrays %d 3", fbo)))
	require.Empty(t, f.gl.Errors())
	require.Zero(t, f.gl.BoundFramebuffer())
	require.False(t, f.target.Bound())
}

func TestFrameShowsSceneUpright(t *testing.T) {
	f := newFixture(t, 200, 160, graphics.Panel{Inset: 10, TitleBar: 10})

	_, err := f.viewer.Frame(200, 160)
	require.NoError(t, err)

	w, h := f.target.Size()
	require.Equal(t, 180, w)
	require.Equal(t, 130, h)

	green := color.RGBA{0, 255, 0, 255}
	black := color.RGBA{0, 0, 0, 255}
	require.Equal(t, green, f.gl.ScreenAt(100, 85), "center of the image")
	require.Equal(t, green, f.gl.ScreenAt(100, 35), "below the apex")
	require.Equal(t, green, f.gl.ScreenAt(30, 140), "bottom-left of the triangle")
	require.Equal(t, black, f.gl.ScreenAt(30, 30), "top-left of the image")
	require.Equal(t, graphics.ColorTitleBar, f.gl.ScreenAt(100, 15))
	require.Equal(t, black, f.gl.ScreenAt(3, 3), "screen behind the panel")
}

func TestFrameFollowsWindowSize(t *testing.T) {
	f := newFixture(t, 400, 300, graphics.Panel{Inset: 10, TitleBar: 10})

	_, err := f.viewer.Frame(400, 300)
	require.NoError(t, err)
	tex, err := f.target.Texture()
	require.NoError(t, err)
	id := tex.ID()

	calls := f.gl.Calls().TexImage2D
	_, err = f.viewer.Frame(400, 300)
	require.NoError(t, err)
	require.Equal(t, calls, f.gl.Calls().TexImage2D, "unchanged size must not respecify storage")

	_, err = f.viewer.Frame(300, 200)
	require.NoError(t, err)
	w, h := f.target.Size()
	require.Equal(t, [2]int{280, 170}, [2]int{w, h})

	tex, err = f.target.Texture()
	require.NoError(t, err)
	require.Equal(t, id, tex.ID())
}

func TestFrameEmptyRegionSkipsOffscreenPass(t *testing.T) {
	f := newFixture(t, 64, 64, graphics.Panel{Inset: 10, TitleBar: 10})

	f.gl.StartTrace()
	stats, err := f.viewer.Frame(25, 25)
	require.NoError(t, err)
	require.False(t, stats.Rendered)
	require.True(t, stats.Region.Empty())

	w, h := f.target.Size()
	require.Equal(t, [2]int{16, 16}, [2]int{w, h}, "target keeps its last size")
	for _, e := range f.gl.Trace() {
		require.NotEqual(t, fmt.Sprintf("BindFramebuffer %d", f.target.FBO()), e)
	}
	require.Empty(t, f.gl.Errors())
}

func TestFrameTitleBarFillsPanel(t *testing.T) {
	f := newFixture(t, 64, 40, graphics.Panel{Inset: 4, TitleBar: 30})

	f.gl.StartTrace()
	stats, err := f.viewer.Frame(64, 36)
	require.NoError(t, err)
	require.False(t, stats.Rendered)
	require.True(t, stats.Region.Empty())
	w, h := f.target.Size()
	require.Equal(t, [2]int{16, 16}, [2]int{w, h})
	require.NotContains(t, f.gl.Trace(), fmt.Sprintf("BindFramebuffer %d", f.target.FBO()))

	// Two more rows leave a 2px content strip under the bar.
	stats, err = f.viewer.Frame(64, 40)
	require.NoError(t, err)
	require.True(t, stats.Rendered)
	require.Equal(t, image.Rect(4, 34, 60, 36), stats.Region)
}

func TestFrameIncompleteTarget(t *testing.T) {
	f := newFixture(t, 64, 64, graphics.Panel{Inset: 2, TitleBar: 2})
	f.gl.ForceStatus(glpkg.FramebufferUnsupported)

	_, err := f.viewer.Frame(64, 64)
	require.ErrorIs(t, err, graphics.ErrIncomplete)
	require.Zero(t, f.gl.BoundFramebuffer())

	f.gl.ForceStatus(0)
	_, err = f.viewer.Frame(64, 64)
	require.NoError(t, err)
}

type fakeHost struct {
	polls   int
	swaps   int
	closeAt int
	w, h    int
}

func (h *fakeHost) Poll() bool {
	h.polls++
	return h.closeAt == 0 || h.polls < h.closeAt
}

func (h *fakeHost) Swap() { h.swaps++ }

func (h *fakeHost) BackingSize() (int, int) { return h.w, h.h }

func TestRunStopsAfterMaxFrames(t *testing.T) {
	f := newFixture(t, 64, 64, graphics.Panel{Inset: 2, TitleBar: 4})
	host := &fakeHost{w: 64, h: 64}

	n, err := f.viewer.Run(context.Background(), host, 3)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, 3, host.swaps)
}

func TestRunStopsWhenHostCloses(t *testing.T) {
	f := newFixture(t, 64, 64, graphics.Panel{Inset: 2, TitleBar: 4})
	host := &fakeHost{w: 64, h: 64, closeAt: 5}

	n, err := f.viewer.Run(context.Background(), host, 0)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, 4, host.swaps)
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t, 64, 64, graphics.Panel{Inset: 2, TitleBar: 4})
	host := &fakeHost{w: 64, h: 64}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := f.viewer.Run(ctx, host, 0)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Zero(t, host.polls)
}

func TestRunReportsFrameErrors(t *testing.T) {
	f := newFixture(t, 64, 64, graphics.Panel{Inset: 2, TitleBar: 4})
	f.target.Destroy()
	host := &fakeHost{w: 64, h: 64}

	n, err := f.viewer.Run(context.Background(), host, 10)
	require.True(t, errors.Is(err, graphics.ErrDestroyed), "err = %v", err)
	require.Zero(t, n)
	require.Zero(t, host.swaps)
}

func TestRunCapturesOnRequest(t *testing.T) {
	f := newFixture(t, 64, 64, graphics.Panel{Inset: 2, TitleBar: 4})

	asked := 0
	var captured []*image.RGBA
	v := New(f.gl, f.target, f.tri, f.panel, Options{
		Panel: graphics.Panel{Inset: 2, TitleBar: 4},
		CaptureRequested: func() bool {
			asked++
			return asked == 2
		},
		Capture: func(img *image.RGBA) error {
			captured = append(captured, img)
			return nil
		},
	})

	n, err := v.Run(context.Background(), &fakeHost{w: 64, h: 64}, 3)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, 3, asked)
	require.Len(t, captured, 1)
	require.Equal(t, image.Rect(0, 0, 60, 56), captured[0].Bounds())
	// The triangle covers the middle of the image.
	require.Equal(t, color.RGBA{0, 255, 0, 255}, captured[0].RGBAAt(30, 28))
	require.Zero(t, f.gl.BoundFramebuffer())
}

func TestRunContinuesAfterCaptureError(t *testing.T) {
	f := newFixture(t, 64, 64, graphics.Panel{Inset: 2, TitleBar: 4})

	calls := 0
	v := New(f.gl, f.target, f.tri, f.panel, Options{
		Panel:            graphics.Panel{Inset: 2, TitleBar: 4},
		CaptureRequested: func() bool { return true },
		Capture: func(*image.RGBA) error {
			calls++
			return errors.New("disk full")
		},
	})

	host := &fakeHost{w: 64, h: 64}
	n, err := v.Run(context.Background(), host, 2)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, 2, calls)
	require.Equal(t, 2, host.swaps)
}

func TestRunSkipsCaptureWithoutImage(t *testing.T) {
	f := newFixture(t, 64, 64, graphics.Panel{Inset: 10, TitleBar: 10})

	asked := 0
	v := New(f.gl, f.target, f.tri, f.panel, Options{
		Panel:            graphics.Panel{Inset: 10, TitleBar: 10},
		CaptureRequested: func() bool { asked++; return true },
		Capture:          func(*image.RGBA) error { return nil },
	})

	_, err := v.Run(context.Background(), &fakeHost{w: 25, h: 25}, 2)
	require.NoError(t, err)
	require.Zero(t, asked, "no capture is offered for an empty region")
}
