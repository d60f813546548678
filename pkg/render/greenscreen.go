package render

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/Fepozopo/tokenmaker/pkg/imgops"
	"github.com/Fepozopo/tokenmaker/pkg/pipeline"
)

// Greenscreen removes a key colour from the canvas.
type Greenscreen struct {
	mu         sync.Mutex
	key        color.NRGBA
	rng        float64
	softBorder float64
	dirty      DirtyFlag
}

// NewGreenscreen returns a greenscreen keying white with range 0.1 and soft border 0.01.
func NewGreenscreen() *Greenscreen {
	g := &Greenscreen{key: color.NRGBA{255, 255, 255, 255}, rng: 0.1, softBorder: 0.01}
	g.dirty.Mark()
	return g
}

// Label describes the key colour and its thresholds.
func (g *Greenscreen) Label() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fmt.Sprintf("greenscreen %s range=%.3f soft=%.3f", imgops.FormatHexColor(g.key), g.rng, g.softBorder)
}

// Settings returns the key colour, range and soft border.
func (g *Greenscreen) Settings() (color.NRGBA, float64, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.key, g.rng, g.softBorder
}

// SetKey changes the key colour.
func (g *Greenscreen) SetKey(c color.NRGBA) {
	g.mu.Lock()
	g.key = c
	g.mu.Unlock()
	g.dirty.Mark()
}

// SetRange changes the colour distance treated as background.
func (g *Greenscreen) SetRange(v float64) {
	g.mu.Lock()
	g.rng = v
	g.mu.Unlock()
	g.dirty.Mark()
}

// SetSoftBorder changes the width of the partially transparent band.
func (g *Greenscreen) SetSoftBorder(v float64) {
	g.mu.Lock()
	g.softBorder = v
	g.mu.Unlock()
	g.dirty.Mark()
}

// Operations returns a single MaskColor operation.
func (g *Greenscreen) Operations(View) ([]pipeline.Operation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return []pipeline.Operation{pipeline.MaskColor{Key: g.key, Range: g.rng, SoftBorder: g.softBorder}}, nil
}

// Dirty reports whether settings changed since the last SetClean.
func (g *Greenscreen) Dirty() bool { return g.dirty.IsSet() }

// SetClean lowers the dirty flag and reports whether it was raised.
func (g *Greenscreen) SetClean() bool { return g.dirty.Clear() }
