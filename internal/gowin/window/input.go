package window

import "github.com/go-gl/glfw/v3.3/glfw"

// Key represents a keyboard key.
type Key int

const (
	KeyUnknown Key = iota

	KeyEscape
	KeyQ
	KeyF12
)

// keyFromGLFW maps the GLFW keys fbview reacts to.
func keyFromGLFW(k glfw.Key) Key {
	switch k {
	case glfw.KeyEscape:
		return KeyEscape
	case glfw.KeyQ:
		return KeyQ
	case glfw.KeyF12:
		return KeyF12
	default:
		return KeyUnknown
	}
}

// KeyState represents the state of a keyboard key.
type KeyState int

const (
	// KeyStatePressed indicates the key was pressed this frame
	KeyStatePressed KeyState = iota
	// KeyStateDown indicates the key is currently down
	KeyStateDown
	// KeyStateReleased indicates the key was released this frame
	KeyStateReleased
	// KeyStateUp indicates the key is currently up
	KeyStateUp
	// KeyStateRepeated indicates the key is being held down (repeated)
	KeyStateRepeated
)

// IsDown returns true if the key state indicates the key is currently down.
func (ks KeyState) IsDown() bool {
	return ks == KeyStatePressed || ks == KeyStateDown || ks == KeyStateRepeated
}

// keyStates tracks per-key state across polls.
type keyStates map[Key]KeyState

// advance moves edge states to their steady counterparts. It runs once per
// poll, before new events are applied.
func (s keyStates) advance() {
	for key, state := range s {
		switch state {
		case KeyStatePressed, KeyStateRepeated:
			s[key] = KeyStateDown
		case KeyStateReleased:
			s[key] = KeyStateUp
		}
	}
}

// apply records a GLFW key action.
func (s keyStates) apply(key Key, action glfw.Action) {
	if key == KeyUnknown {
		return
	}
	switch action {
	case glfw.Press:
		s[key] = KeyStatePressed
	case glfw.Repeat:
		s[key] = KeyStateRepeated
	case glfw.Release:
		s[key] = KeyStateReleased
	}
}

func (s keyStates) get(key Key) KeyState {
	if state, ok := s[key]; ok {
		return state
	}
	return KeyStateUp
}
