package window

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func TestKeyStateTransitions(t *testing.T) {
	s := make(keyStates)

	if got := s.get(KeyEscape); got != KeyStateUp {
		t.Fatalf("initial state = %v, want KeyStateUp", got)
	}

	s.apply(KeyEscape, glfw.Press)
	if got := s.get(KeyEscape); got != KeyStatePressed {
		t.Errorf("after press = %v, want KeyStatePressed", got)
	}
	s.advance()
	if got := s.get(KeyEscape); got != KeyStateDown || !got.IsDown() {
		t.Errorf("after advance = %v, want KeyStateDown", got)
	}
	s.apply(KeyEscape, glfw.Repeat)
	if got := s.get(KeyEscape); !got.IsDown() {
		t.Errorf("repeat state %v is not down", got)
	}
	s.apply(KeyEscape, glfw.Release)
	if got := s.get(KeyEscape); got != KeyStateReleased || got.IsDown() {
		t.Errorf("after release = %v, want KeyStateReleased", got)
	}
	s.advance()
	if got := s.get(KeyEscape); got != KeyStateUp {
		t.Errorf("after second advance = %v, want KeyStateUp", got)
	}
}

func TestUnknownKeysAreIgnored(t *testing.T) {
	s := make(keyStates)
	s.apply(keyFromGLFW(glfw.KeyKP9), glfw.Press)
	if len(s) != 0 {
		t.Errorf("unmapped key was recorded: %v", s)
	}
	if keyFromGLFW(glfw.KeyEscape) != KeyEscape {
		t.Error("escape is not mapped")
	}
}

func TestQuitKeys(t *testing.T) {
	tests := []struct {
		name  string
		key   glfw.Key
		quits bool
	}{
		{"escape", glfw.KeyEscape, true},
		{"q", glfw.KeyQ, true},
		{"f12", glfw.KeyF12, false},
		{"unmapped", glfw.KeySpace, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := make(keyStates)
			s.apply(keyFromGLFW(tt.key), glfw.Press)
			if got := quitRequested(s); got != tt.quits {
				t.Errorf("quitRequested after %s press = %v, want %v", tt.name, got, tt.quits)
			}
			// Holding the key does not request again.
			s.advance()
			if quitRequested(s) {
				t.Errorf("quitRequested while %s is held", tt.name)
			}
		})
	}
}
