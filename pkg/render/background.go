package render

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/Fepozopo/tokenmaker/pkg/imgops"
	"github.com/Fepozopo/tokenmaker/pkg/pipeline"
)

// Background fills translucent canvas pixels with a colour or an image. A background
// image has its own pan and zoom and is resampled to the canvas resolution once per
// resolution and setting change.
type Background struct {
	mu     sync.Mutex
	color  color.NRGBA
	img    *image.NRGBA
	offset imgops.PointF
	zoom   float64

	cached     *image.NRGBA
	cachedSize image.Point

	dirty DirtyFlag
}

// NewColorBackground returns a background of solid colour c.
func NewColorBackground(c color.NRGBA) *Background {
	b := &Background{color: c, zoom: 1}
	b.dirty.Mark()
	return b
}

// NewImageBackground returns a background showing img, centered and fitted.
func NewImageBackground(img *image.NRGBA) *Background {
	b := &Background{img: img, zoom: 1, color: color.NRGBA{255, 255, 255, 255}}
	b.dirty.Mark()
	return b
}

// Label describes the fill colour or image.
func (b *Background) Label() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.img == nil {
		return "background " + imgops.FormatHexColor(b.color)
	}
	bb := b.img.Bounds()
	return fmt.Sprintf("background image %dx%d offset=(%.0f,%.0f) zoom=%.2f", bb.Dx(), bb.Dy(), b.offset.X, b.offset.Y, b.zoom)
}

// SetColor switches the background to a solid colour.
func (b *Background) SetColor(c color.NRGBA) {
	b.mu.Lock()
	b.color = c
	b.img = nil
	b.cached = nil
	b.mu.Unlock()
	b.dirty.Mark()
}

// SetImage switches the background to img and resets its pan and zoom.
func (b *Background) SetImage(img *image.NRGBA) {
	b.mu.Lock()
	b.img = img
	b.offset = imgops.PointF{}
	b.zoom = 1
	b.cached = nil
	b.mu.Unlock()
	b.dirty.Mark()
}

// SetOffset pans the background image.
func (b *Background) SetOffset(p imgops.PointF) {
	b.mu.Lock()
	b.offset = p
	b.cached = nil
	b.mu.Unlock()
	b.dirty.Mark()
}

// SetZoom sets the background image zoom; values <= 0 are ignored.
func (b *Background) SetZoom(z float64) {
	if z <= 0 {
		return
	}
	b.mu.Lock()
	b.zoom = z
	b.cached = nil
	b.mu.Unlock()
	b.dirty.Mark()
}

// Operations returns the underlay for the current fill.
func (b *Background) Operations(v View) ([]pipeline.Operation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.img == nil {
		return []pipeline.Operation{pipeline.BackgroundColor{Color: b.color}}, nil
	}
	if b.cached == nil || b.cachedSize != v.Resolution {
		bb := b.img.Bounds()
		focus := imgops.PointF{
			X: float64(bb.Dx())*0.5 - b.offset.X,
			Y: float64(bb.Dy())*0.5 - b.offset.Y,
		}
		img, err := imgops.Resample(b.img, v.Resolution, focus, b.zoom)
		if err != nil {
			return nil, fmt.Errorf("background: %w", err)
		}
		b.cached = img
		b.cachedSize = v.Resolution
	}
	return []pipeline.Operation{pipeline.BackgroundImage{Image: b.cached}}, nil
}

// Dirty reports whether settings changed since the last SetClean.
func (b *Background) Dirty() bool { return b.dirty.IsSet() }

// SetClean lowers the dirty flag and reports whether it was raised.
func (b *Background) SetClean() bool { return b.dirty.Clear() }
