package render

import (
	"fmt"
	"image"
	"sync"

	"github.com/Fepozopo/tokenmaker/pkg/imgops"
	"github.com/Fepozopo/tokenmaker/pkg/pipeline"
)

// Frame cuts the canvas to the opening of a frame image and draws the frame on top.
type Frame struct {
	mu   sync.Mutex
	name string
	img  *image.NRGBA
	mask *image.Gray

	fitImg  *image.NRGBA
	fitMask *image.Gray
	fitSize image.Point

	dirty DirtyFlag
}

// NewFrame returns a frame using mask (0 hides, 255 shows) for its opening. mask must have
// the resolution of img.
func NewFrame(name string, img *image.NRGBA, mask *image.Gray) (*Frame, error) {
	if img == nil || mask == nil {
		return nil, fmt.Errorf("frame %s: %w: nil buffer", name, imgops.ErrInvalidDimensions)
	}
	if img.Bounds().Size() != mask.Bounds().Size() {
		return nil, fmt.Errorf("frame %s: %w: mask %v, frame %v", name, imgops.ErrResolutionMismatch,
			mask.Bounds().Size(), img.Bounds().Size())
	}
	f := &Frame{name: name, img: img, mask: mask}
	f.dirty.Mark()
	return f, nil
}

// NewFrameFromSeed derives the frame mask from the see-through region around seed.
func NewFrameFromSeed(name string, img *image.NRGBA, seed image.Point) (*Frame, error) {
	mask, err := imgops.FrameMask(img, seed)
	if err != nil {
		return nil, fmt.Errorf("frame %s: %w", name, err)
	}
	return NewFrame(name, img, mask)
}

// Label names the frame and its size.
func (f *Frame) Label() string {
	b := f.img.Bounds()
	return fmt.Sprintf("frame %s %dx%d", f.name, b.Dx(), b.Dy())
}

// Operations cuts the canvas to the opening and draws the frame over it.
func (f *Frame) Operations(v View) ([]pipeline.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fitImg == nil || f.fitSize != v.Resolution {
		img, err := imgops.FitNRGBA(f.img, v.Resolution)
		if err != nil {
			return nil, fmt.Errorf("frame %s: %w", f.name, err)
		}
		mask, err := imgops.FitGray(f.mask, v.Resolution)
		if err != nil {
			return nil, fmt.Errorf("frame %s: %w", f.name, err)
		}
		f.fitImg, f.fitMask, f.fitSize = img, mask, v.Resolution
	}
	return []pipeline.Operation{
		pipeline.Mask{Mask: f.fitMask},
		pipeline.Blend{Overlay: f.fitImg},
	}, nil
}

// Dirty reports whether settings changed since the last SetClean.
func (f *Frame) Dirty() bool { return f.dirty.IsSet() }

// SetClean lowers the dirty flag and reports whether it was raised.
func (f *Frame) SetClean() bool { return f.dirty.Clear() }
