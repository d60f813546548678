// Package render keeps the editable state of a workspace and decides when it is rendered.
//
// A Workspace holds the source image, the export geometry and an ordered list of
// modifiers. A Scheduler polls the workspace and runs at most one render job at a time,
// so changes made while a job runs are picked up by a later tick.
package render

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"

	"github.com/Fepozopo/tokenmaker/pkg/imgops"
	"github.com/Fepozopo/tokenmaker/pkg/pipeline"
)

// DefaultExportSize returns the canvas size of a new workspace.
func DefaultExportSize() image.Point { return image.Point{X: 512, Y: 512} }

// ErrNoSource is returned when a workspace without a source image is rendered.
var ErrNoSource = errors.New("workspace has no source image")

// Workspace is the editable state of one composition. All methods are safe for
// concurrent use.
type Workspace struct {
	ID uuid.UUID

	mu         sync.Mutex
	source     *image.NRGBA
	exportSize image.Point
	offset     imgops.PointF
	zoom       float64
	modifiers  []Modifier
	dirty      DirtyFlag
}

// NewWorkspace returns a workspace rendering src at DefaultExportSize with no pan and
// zoom 1. src may be nil and set later.
func NewWorkspace(src *image.NRGBA) *Workspace {
	w := &Workspace{
		ID:         uuid.New(),
		source:     src,
		exportSize: DefaultExportSize(),
		zoom:       1,
	}
	w.dirty.Mark()
	return w
}

// Source returns the current source image.
func (w *Workspace) Source() *image.NRGBA {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.source
}

// SetSource replaces the source image and resets pan and zoom.
func (w *Workspace) SetSource(src *image.NRGBA) {
	w.mu.Lock()
	w.source = src
	w.offset = imgops.PointF{}
	w.zoom = 1
	w.mu.Unlock()
	w.dirty.Mark()
}

// ExportSize returns the canvas resolution.
func (w *Workspace) ExportSize() image.Point {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exportSize
}

// SetExportSize changes the canvas resolution.
func (w *Workspace) SetExportSize(size image.Point) error {
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("export size: %w: %dx%d", imgops.ErrInvalidDimensions, size.X, size.Y)
	}
	w.mu.Lock()
	w.exportSize = size
	w.mu.Unlock()
	w.dirty.Mark()
	return nil
}

// Offset returns the pan of the source relative to its center.
func (w *Workspace) Offset() imgops.PointF {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.offset
}

// SetOffset sets the pan of the source.
func (w *Workspace) SetOffset(p imgops.PointF) {
	w.mu.Lock()
	w.offset = p
	w.mu.Unlock()
	w.dirty.Mark()
}

// Pan moves the source by (dx, dy) source pixels.
func (w *Workspace) Pan(dx, dy float64) {
	w.mu.Lock()
	w.offset.X += dx
	w.offset.Y += dy
	w.mu.Unlock()
	w.dirty.Mark()
}

// Zoom returns the scale passed to the resampler.
func (w *Workspace) Zoom() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.zoom
}

// SetZoom sets the zoom; values <= 0 are rejected.
func (w *Workspace) SetZoom(z float64) error {
	if z <= 0 {
		return fmt.Errorf("zoom must be positive, got %g", z)
	}
	w.mu.Lock()
	w.zoom = z
	w.mu.Unlock()
	w.dirty.Mark()
	return nil
}

// AddModifier appends m to the modifier list.
func (w *Workspace) AddModifier(m Modifier) {
	w.mu.Lock()
	w.modifiers = append(w.modifiers, m)
	w.mu.Unlock()
	w.dirty.Mark()
}

// RemoveModifier deletes the modifier at index i.
func (w *Workspace) RemoveModifier(i int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= len(w.modifiers) {
		return fmt.Errorf("no modifier at index %d", i)
	}
	w.modifiers = append(w.modifiers[:i:i], w.modifiers[i+1:]...)
	w.dirty.Mark()
	return nil
}

// MoveModifier moves the modifier at index from to index to.
func (w *Workspace) MoveModifier(from, to int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.modifiers)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("cannot move modifier %d to %d (have %d)", from, to, n)
	}
	m := w.modifiers[from]
	w.modifiers = append(w.modifiers[:from], w.modifiers[from+1:]...)
	w.modifiers = append(w.modifiers[:to], append([]Modifier{m}, w.modifiers[to:]...)...)
	w.dirty.Mark()
	return nil
}

// Modifiers returns a copy of the modifier list.
func (w *Workspace) Modifiers() []Modifier {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Modifier(nil), w.modifiers...)
}

// MarkDirty forces the next tick to render.
func (w *Workspace) MarkDirty() { w.dirty.Mark() }

// Dirty reports whether the workspace or any modifier changed since the last snapshot.
func (w *Workspace) Dirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dirty.IsSet() {
		return true
	}
	for _, m := range w.modifiers {
		if m.Dirty() {
			return true
		}
	}
	return false
}

// View returns the geometry modifiers render against.
func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view()
}

// view must be called with w.mu held.
func (w *Workspace) view() View {
	v := View{Source: w.source, Resolution: w.exportSize, Scale: w.zoom}
	if w.source != nil {
		b := w.source.Bounds()
		v.Focus = imgops.PointF{
			X: float64(b.Dx())*0.5 - w.offset.X,
			Y: float64(b.Dy())*0.5 - w.offset.Y,
		}
	}
	return v
}

// Chain builds the chain for the current state without touching dirty flags.
func (w *Workspace) Chain() (pipeline.Chain, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buildChain()
}

// Snapshot clears every raised dirty flag and builds the chain for the state observed at
// that moment. ok is false when nothing was dirty. Each flag is swapped down atomically
// before modifier settings are read: a change that lands before the swap is reported by
// it, and a change that lands after it raises the flag again for the next snapshot.
func (w *Workspace) Snapshot() (chain pipeline.Chain, ok bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	dirty := w.dirty.Clear()
	for _, m := range w.modifiers {
		dirty = m.SetClean() || dirty
	}
	if !dirty {
		return pipeline.Chain{}, false, nil
	}
	chain, err = w.buildChain()
	if err != nil {
		return pipeline.Chain{}, true, err
	}
	return chain, true, nil
}

// buildChain must be called with w.mu held.
func (w *Workspace) buildChain() (pipeline.Chain, error) {
	if w.source == nil {
		return pipeline.Chain{}, ErrNoSource
	}
	v := w.view()
	var ops []pipeline.Operation
	for i, m := range w.modifiers {
		mops, err := m.Operations(v)
		if err != nil {
			return pipeline.Chain{}, fmt.Errorf("modifier %d (%s): %w", i, m.Label(), err)
		}
		ops = append(ops, mops...)
	}
	return pipeline.BuildChain(v.Source, v.Resolution, v.Focus, v.Scale, ops...)
}
