// Command fbview renders a triangle into an off-screen framebuffer and shows
// it inside a panel of a GLFW window.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/tinyrange/fbview/internal/config"
	"github.com/tinyrange/fbview/internal/gowin/gl"
	"github.com/tinyrange/fbview/internal/gowin/graphics"
	"github.com/tinyrange/fbview/internal/gowin/window"
	"github.com/tinyrange/fbview/internal/scene"
	"github.com/tinyrange/fbview/internal/viewer"
)

func init() {
	// GLFW and the GL context belong to the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fbview: %v\n", err)
		os.Exit(1)
	}
}

type intFlag struct {
	v   int
	set bool
}

func (f *intFlag) String() string { return strconv.Itoa(f.v) }

func (f *intFlag) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	f.v = v
	f.set = true
	return nil
}

func run() error {
	configPath := flag.String("config", "", "YAML configuration file")
	var widthFlag, heightFlag intFlag
	flag.Var(&widthFlag, "width", "Window width (overrides config)")
	flag.Var(&heightFlag, "height", "Window height (overrides config)")
	title := flag.String("title", "", "Window title (overrides config)")
	dbg := flag.Bool("debug", false, "Enable debug logging")
	frames := flag.Int("frames", 0, "Stop after this many frames (0 = until the window is closed)")
	screenshot := flag.String("screenshot", "", "Write the off-screen image to this PNG file on exit; F12 captures are named after it")
	screenshotScale := flag.Float64("screenshot-scale", 1, "Scale factor applied to -screenshot")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Render a scene into an off-screen framebuffer and display it in a window.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if widthFlag.set {
		cfg.Window.Width = widthFlag.v
	}
	if heightFlag.set {
		cfg.Window.Height = heightFlag.v
	}
	if *title != "" {
		cfg.Window.Title = *title
	}
	if *dbg {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if *frames < 0 {
		return fmt.Errorf("-frames must not be negative")
	}
	if *screenshotScale <= 0 {
		return fmt.Errorf("-screenshot-scale must be positive")
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	win, err := window.New(cfg.Window.Title, cfg.Window.Width, cfg.Window.Height, *cfg.Window.VSync)
	if err != nil {
		return err
	}
	defer win.Close()

	glc, err := win.GL()
	if err != nil {
		return fmt.Errorf("load OpenGL: %w", err)
	}
	scale := win.Scale()
	slog.Info("OpenGL context",
		"version", glc.GetString(gl.Version),
		"renderer", glc.GetString(gl.Renderer),
		"scale", scale,
	)

	panel := graphics.Panel{Inset: cfg.Panel.Inset, TitleBar: cfg.Panel.TitleBar}.Scaled(scale)
	bw, bh := win.BackingSize()
	tw, th := initialTargetSize(panel, bw, bh)
	target, err := graphics.NewRenderTarget(glc, tw, th)
	if err != nil {
		return err
	}
	defer target.Destroy()

	tri, err := scene.NewTriangle(glc, scene.DefaultVertices, cfg.SceneColor.Color(), cfg.Scene.Scale)
	if err != nil {
		return err
	}
	defer tri.Destroy()

	imagePanel, err := graphics.NewImagePanel(glc)
	if err != nil {
		return err
	}
	defer imagePanel.Destroy()
	imagePanel.SetTitle(cfg.Panel.Caption)

	captures := 0
	v := viewer.New(glc, target, tri, imagePanel, viewer.Options{
		Panel:       panel,
		ClearColor:  cfg.ClearColor.Color(),
		ScreenColor: cfg.ScreenColor.Color(),
		CaptureRequested: func() bool {
			return win.GetKeyState(window.KeyF12) == window.KeyStatePressed
		},
		Capture: func(img *image.RGBA) error {
			captures++
			path := capturePath(*screenshot, captures)
			if err := writeScreenshot(path, img, *screenshotScale); err != nil {
				return err
			}
			slog.Info("capture written", "path", path)
			return nil
		},
	})

	n, err := v.Run(ctx, win, *frames)
	slog.Debug("render loop finished", "frames", n)
	if err != nil {
		return err
	}

	if *screenshot != "" {
		img, err := target.ReadPixels()
		if err != nil {
			return fmt.Errorf("failed to take screenshot: %w", err)
		}
		if err := writeScreenshot(*screenshot, img, *screenshotScale); err != nil {
			return err
		}
		slog.Info("screenshot written", "path", *screenshot)
	}
	return nil
}

// initialTargetSize sizes the first render target from the window's content
// region, falling back to 1x1 when the region is empty. The viewer resizes it
// every frame.
func initialTargetSize(panel graphics.Panel, w, h int) (int, int) {
	r := panel.ContentRegion(w, h)
	if r.Empty() {
		return 1, 1
	}
	return r.Dx(), r.Dy()
}
