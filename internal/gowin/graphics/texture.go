package graphics

// Texture is a GL texture that can be drawn by an ImagePanel.
type Texture interface {
	ID() uint32
	Size() (width, height int)
}

// GLTexture is a texture name together with the size of its level-0 storage.
type GLTexture struct {
	id uint32
	w  int
	h  int
}

var _ Texture = (*GLTexture)(nil)

// ID returns the GL texture name, or 0 once the owner released it.
func (t *GLTexture) ID() uint32 {
	if t == nil {
		return 0
	}
	return t.id
}

func (t *GLTexture) Size() (int, int) {
	return t.w, t.h
}
