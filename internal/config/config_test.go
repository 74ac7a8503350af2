package config

import (
	"errors"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fbview.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write yaml: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Title != DefaultTitle {
		t.Errorf("Title = %q, want %q", cfg.Window.Title, DefaultTitle)
	}
	if cfg.Window.Width != DefaultWidth || cfg.Window.Height != DefaultHeight {
		t.Errorf("Window = %dx%d, want %dx%d", cfg.Window.Width, cfg.Window.Height, DefaultWidth, DefaultHeight)
	}
	if cfg.Window.VSync == nil || !*cfg.Window.VSync {
		t.Error("VSync should default to true")
	}
	if cfg.Panel.Caption != DefaultCaption {
		t.Errorf("Caption = %q, want %q", cfg.Panel.Caption, DefaultCaption)
	}
	if cfg.Scene.Scale != DefaultScale {
		t.Errorf("Scale = %v, want %v", cfg.Scene.Scale, DefaultScale)
	}
	if got := cfg.SceneColor.Color(); got != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("SceneColor = %v, want green", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Window.Width != DefaultWidth {
		t.Errorf("Width = %d, want %d", cfg.Window.Width, DefaultWidth)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `window:
  title: "Scene"
  width: 800
  height: 600
  vsync: false
panel:
  inset: 8
  titleBar: 16
  caption: Preview
scene:
  scale: 0.5
log:
  level: debug
clearColor: [0.1, 0.1, 0.1]
sceneColor: [1, 0, 0, 1]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Window.Title != "Scene" {
		t.Errorf("Title = %q, want %q", cfg.Window.Title, "Scene")
	}
	if cfg.Window.Width != 800 || cfg.Window.Height != 600 {
		t.Errorf("Window = %dx%d, want 800x600", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.VSync == nil || *cfg.Window.VSync {
		t.Error("VSync = true, want false")
	}
	if cfg.Panel.Inset != 8 || cfg.Panel.TitleBar != 16 || cfg.Panel.Caption != "Preview" {
		t.Errorf("Panel = %+v, want inset 8 title bar 16 caption Preview", cfg.Panel)
	}
	if cfg.Scene.Scale != 0.5 {
		t.Errorf("Scale = %v, want 0.5", cfg.Scene.Scale)
	}
	if got := cfg.ClearColor.Color(); got != (color.NRGBA{26, 26, 26, 255}) {
		t.Errorf("ClearColor = %v", got)
	}
	if got := cfg.SceneColor.Color(); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("SceneColor = %v", got)
	}
	// Unset fields keep their defaults.
	if len(cfg.ScreenColor) != 4 {
		t.Errorf("ScreenColor = %v, want default", cfg.ScreenColor)
	}
	level, err := cfg.LogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("LogLevel() = %v, %v, want debug", level, err)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative width", "window:\n  width: -1\n"},
		{"negative inset", "panel:\n  inset: -3\n"},
		{"negative scale", "scene:\n  scale: -0.5\n"},
		{"color out of range", "sceneColor: [0, 2, 0]\n"},
		{"short color", "clearColor: [0, 1]\n"},
		{"bad log level", "log:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Load() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeConfig(t, "window: [1, 2\n"))
	if err == nil {
		t.Fatal("Load succeeded on malformed yaml")
	}
	if errors.Is(err, ErrInvalid) {
		t.Errorf("parse error reported as validation error: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want ErrNotExist", err)
	}
}
