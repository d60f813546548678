package render

import (
	"fmt"
	"image"
	"sync"

	"github.com/Fepozopo/tokenmaker/pkg/imgops"
	"github.com/Fepozopo/tokenmaker/pkg/pipeline"
)

// FloodMask hides a region of the source selected with a magic wand. The mask lives in
// source space and follows the workspace pan and zoom.
type FloodMask struct {
	mu         sync.Mutex
	threshold  float64
	softBorder float64
	src        *image.NRGBA
	seed       image.Point
	mask       *image.Gray
	dirty      DirtyFlag
}

// NewFloodMask returns a flood mask with threshold 0.1 and soft border 0.1 and no
// selection.
func NewFloodMask() *FloodMask {
	return &FloodMask{threshold: 0.1, softBorder: 0.1}
}

// Label describes the seed and its thresholds.
func (f *FloodMask) Label() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mask == nil {
		return fmt.Sprintf("flood mask (none) threshold=%.3f soft=%.3f", f.threshold, f.softBorder)
	}
	return fmt.Sprintf("flood mask seed=(%d,%d) threshold=%.3f soft=%.3f", f.seed.X, f.seed.Y, f.threshold, f.softBorder)
}

// Pick selects the region of src around seed.
func (f *FloodMask) Pick(src *image.NRGBA, seed image.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := imgops.WandMask(src, seed, f.threshold, f.softBorder)
	if err != nil {
		return err
	}
	f.src = src
	f.seed = seed
	f.mask = m
	f.dirty.Mark()
	return nil
}

// Clear drops the current selection.
func (f *FloodMask) Clear() {
	f.mu.Lock()
	f.src = nil
	f.mask = nil
	f.mu.Unlock()
	f.dirty.Mark()
}

// SetThreshold changes the colour threshold and regenerates an existing selection.
func (f *FloodMask) SetThreshold(v float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threshold = v
	return f.regenerate()
}

// SetSoftBorder changes the soft border and regenerates an existing selection.
func (f *FloodMask) SetSoftBorder(v float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.softBorder = v
	return f.regenerate()
}

// Mask returns the current source-space mask or nil.
func (f *FloodMask) Mask() *image.Gray {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mask
}

// regenerate must be called with f.mu held.
func (f *FloodMask) regenerate() error {
	f.dirty.Mark()
	if f.src == nil {
		return nil
	}
	m, err := imgops.WandMask(f.src, f.seed, f.threshold, f.softBorder)
	if err != nil {
		return err
	}
	f.mask = m
	return nil
}

// Operations returns the mask scaled to the export size, or nothing before a pick.
func (f *FloodMask) Operations(v View) ([]pipeline.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mask == nil {
		return nil, nil
	}
	return []pipeline.Operation{pipeline.MaskWithOffset{Mask: f.mask, Focus: v.Focus, Scale: v.Scale}}, nil
}

// Dirty reports whether settings changed since the last SetClean.
func (f *FloodMask) Dirty() bool { return f.dirty.IsSet() }

// SetClean lowers the dirty flag and reports whether it was raised.
func (f *FloodMask) SetClean() bool { return f.dirty.Clear() }
