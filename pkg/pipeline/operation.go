// Package pipeline describes a render as an ordered chain of operations and executes it.
//
// A chain always starts with Begin, which resamples the source into the canvas. Every later
// operation takes the canvas produced by the previous one and returns a new buffer; buffers
// referenced by operations are never modified.
package pipeline

import (
	"image"
	"image/color"

	"github.com/Fepozopo/tokenmaker/pkg/imgops"
)

// Operation is one step of a Chain. The set of operations is closed.
type Operation interface {
	// Name returns the registry name of the operation.
	Name() string
	operation()
}

// Begin resamples Source to Resolution around Focus with Scale. It must be the first
// operation of a chain and may not appear anywhere else.
type Begin struct {
	Source     *image.NRGBA
	Resolution image.Point
	Focus      imgops.PointF
	Scale      float64
}

// Mask tightens the canvas alpha with a mask of canvas resolution.
type Mask struct {
	Mask *image.Gray
}

// Blend draws Overlay, which has canvas resolution, over the canvas.
type Blend struct {
	Overlay *image.NRGBA
}

// BackgroundColor puts an opaque colour beneath translucent canvas pixels.
type BackgroundColor struct {
	Color color.NRGBA
}

// BackgroundImage puts Image, which has canvas resolution, beneath translucent canvas pixels.
type BackgroundImage struct {
	Image *image.NRGBA
}

// MaskColor keys out canvas pixels close to Key.
type MaskColor struct {
	Key        color.NRGBA
	Range      float64
	SoftBorder float64
}

// MaskWithOffset resamples Mask to the canvas resolution with its own focus and scale and
// then applies it like Mask. Masks generated in source space use it to follow pan and zoom.
type MaskWithOffset struct {
	Mask  *image.Gray
	Focus imgops.PointF
	Scale float64
}

func (Begin) Name() string           { return "begin" }
func (Mask) Name() string            { return "mask" }
func (Blend) Name() string           { return "blend" }
func (BackgroundColor) Name() string { return "background_color" }
func (BackgroundImage) Name() string { return "background_image" }
func (MaskColor) Name() string       { return "mask_color" }
func (MaskWithOffset) Name() string  { return "mask_with_offset" }

func (Begin) operation()           {}
func (Mask) operation()            {}
func (Blend) operation()           {}
func (BackgroundColor) operation() {}
func (BackgroundImage) operation() {}
func (MaskColor) operation()       {}
func (MaskWithOffset) operation()  {}
