// Package config loads fbview's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTitle    = "fbview"
	DefaultWidth    = 1024
	DefaultHeight   = 768
	DefaultInset    = 24
	DefaultTitleBar = 22
	DefaultCaption  = "Scene"
	DefaultScale    = 0.9
	DefaultLogLevel = "info"
)

type Config struct {
	Window WindowConfig `yaml:"window"`
	Panel  PanelConfig  `yaml:"panel"`
	Scene  SceneConfig  `yaml:"scene"`
	Log    LogConfig    `yaml:"log"`

	// ClearColor fills the off-screen target before the scene is drawn.
	ClearColor Color `yaml:"clearColor,omitempty"`
	// SceneColor is the triangle's fill color.
	SceneColor Color `yaml:"sceneColor,omitempty"`
	// ScreenColor fills the window behind the panel.
	ScreenColor Color `yaml:"screenColor,omitempty"`
}

type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	VSync  *bool  `yaml:"vsync,omitempty"`
}

type PanelConfig struct {
	Inset    int    `yaml:"inset"`
	TitleBar int    `yaml:"titleBar"`
	Caption  string `yaml:"caption"`
}

type SceneConfig struct {
	Scale float32 `yaml:"scale"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Color is an RGB or RGBA color with components in [0, 1], written in YAML
// as a sequence: [0.1, 0.1, 0.1, 1].
type Color []float32

// Color converts c to a color.Color. A missing alpha is opaque.
func (c Color) Color() color.Color {
	a := float32(1)
	if len(c) == 4 {
		a = c[3]
	}
	to8 := func(v float32) uint8 { return uint8(v*255 + 0.5) }
	return color.NRGBA{R: to8(c[0]), G: to8(c[1]), B: to8(c[2]), A: to8(a)}
}

func (c Color) validate() error {
	if len(c) != 3 && len(c) != 4 {
		return fmt.Errorf("want 3 or 4 components, got %d", len(c))
	}
	for i, v := range c {
		if v < 0 || v > 1 {
			return fmt.Errorf("component %d = %v is outside [0, 1]", i, v)
		}
	}
	return nil
}

var ErrInvalid = errors.New("invalid configuration")

func (c *Config) normalize() {
	if c.Window.Title == "" {
		c.Window.Title = DefaultTitle
	}
	if c.Window.Width == 0 {
		c.Window.Width = DefaultWidth
	}
	if c.Window.Height == 0 {
		c.Window.Height = DefaultHeight
	}
	if c.Window.VSync == nil {
		vsync := true
		c.Window.VSync = &vsync
	}
	if c.Panel.Inset == 0 {
		c.Panel.Inset = DefaultInset
	}
	if c.Panel.TitleBar == 0 {
		c.Panel.TitleBar = DefaultTitleBar
	}
	if c.Panel.Caption == "" {
		c.Panel.Caption = DefaultCaption
	}
	if c.Scene.Scale == 0 {
		c.Scene.Scale = DefaultScale
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.ClearColor == nil {
		c.ClearColor = Color{0, 0, 0, 1}
	}
	if c.SceneColor == nil {
		c.SceneColor = Color{0, 1, 0, 1}
	}
	if c.ScreenColor == nil {
		c.ScreenColor = Color{0.06, 0.06, 0.06, 1}
	}
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var c Config
	c.normalize()
	return c
}

// Validate reports the first field that cannot be used.
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d must be positive", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if c.Panel.Inset < 0 || c.Panel.TitleBar < 0 {
		return fmt.Errorf("%w: panel inset %d and title bar %d must not be negative", ErrInvalid, c.Panel.Inset, c.Panel.TitleBar)
	}
	if c.Scene.Scale <= 0 {
		return fmt.Errorf("%w: scene scale %v must be positive", ErrInvalid, c.Scene.Scale)
	}
	for _, f := range []struct {
		name string
		c    Color
	}{
		{"clearColor", c.ClearColor},
		{"sceneColor", c.SceneColor},
		{"screenColor", c.ScreenColor},
	} {
		if err := f.c.validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, f.name, err)
		}
	}
	if _, err := c.LogLevel(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// LogLevel parses Log.Level ("debug", "info", "warn", "error").
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.Log.Level, err)
	}
	return level, nil
}

// Load reads the YAML file at path, fills in defaults and validates the
// result. An empty path yields Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
