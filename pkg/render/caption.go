package render

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/font"

	"github.com/Fepozopo/tokenmaker/pkg/imgops"
	"github.com/Fepozopo/tokenmaker/pkg/pipeline"
)

// Caption draws a line of text over the canvas, centred near the bottom.
type Caption struct {
	mu    sync.Mutex
	text  string
	color color.NRGBA
	face  font.Face

	cached     *image.NRGBA
	cachedSize image.Point

	dirty DirtyFlag
}

// NewCaption returns a caption drawing text in c with face; a nil face uses the built-in
// bitmap font.
func NewCaption(text string, c color.NRGBA, face font.Face) *Caption {
	cp := &Caption{text: text, color: c, face: face}
	cp.dirty.Mark()
	return cp
}

// Label quotes the caption text.
func (c *Caption) Label() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("caption %q %s", c.text, imgops.FormatHexColor(c.color))
}

// SetText replaces the caption text.
func (c *Caption) SetText(text string) {
	c.mu.Lock()
	c.text = text
	c.cached = nil
	c.mu.Unlock()
	c.dirty.Mark()
}

// SetColor changes the text colour.
func (c *Caption) SetColor(col color.NRGBA) {
	c.mu.Lock()
	c.color = col
	c.cached = nil
	c.mu.Unlock()
	c.dirty.Mark()
}

// Operations blends the rendered text over the canvas.
func (c *Caption) Operations(v View) ([]pipeline.Operation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached == nil || c.cachedSize != v.Resolution {
		img, err := imgops.Caption(v.Resolution, c.text, c.face, c.color)
		if err != nil {
			return nil, err
		}
		c.cached, c.cachedSize = img, v.Resolution
	}
	return []pipeline.Operation{pipeline.Blend{Overlay: c.cached}}, nil
}

// Dirty reports whether settings changed since the last SetClean.
func (c *Caption) Dirty() bool { return c.dirty.IsSet() }

// SetClean lowers the dirty flag and reports whether it was raised.
func (c *Caption) SetClean() bool { return c.dirty.Clear() }
