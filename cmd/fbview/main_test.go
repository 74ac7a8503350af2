package main

import (
	"testing"

	"github.com/tinyrange/fbview/internal/gowin/graphics"
)

func TestInitialTargetSize(t *testing.T) {
	p := graphics.Panel{Inset: 10, TitleBar: 20}

	if w, h := initialTargetSize(p, 800, 600); w != 780 || h != 560 {
		t.Errorf("initialTargetSize(800, 600) = %dx%d, want 780x560", w, h)
	}
	if w, h := initialTargetSize(p, 15, 15); w != 1 || h != 1 {
		t.Errorf("initialTargetSize(15, 15) = %dx%d, want 1x1", w, h)
	}
}

func TestIntFlag(t *testing.T) {
	var f intFlag
	if f.set {
		t.Fatal("new flag reports set")
	}
	if err := f.Set("640"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !f.set || f.v != 640 || f.String() != "640" {
		t.Errorf("flag = %+v", f)
	}
	if err := f.Set("wide"); err == nil {
		t.Error("Set accepted a non-integer")
	}
}
