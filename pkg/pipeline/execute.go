package pipeline

import (
	"fmt"
	"image"

	"github.com/Fepozopo/tokenmaker/pkg/imgops"
)

// Execute runs chain and returns the final canvas. The chain is re-validated, so a zero
// Chain fails with ErrEmptyChain. Failures of individual operations are reported as *OpError.
func Execute(chain Chain) (*image.NRGBA, error) {
	return ExecuteBands(chain, imgops.DefaultBandRows)
}

// ExecuteBands is Execute with an explicit band height for the resampling stages.
func ExecuteBands(chain Chain, bandRows int) (*image.NRGBA, error) {
	if err := validate(chain.ops); err != nil {
		return nil, err
	}
	begin := chain.ops[0].(Begin)
	canvas, err := imgops.ResampleBands(begin.Source, begin.Resolution, begin.Focus, begin.Scale, bandRows)
	if err != nil {
		return nil, &OpError{Index: 0, Op: begin.Name(), Err: err}
	}
	for i, op := range chain.ops[1:] {
		canvas, err = apply(canvas, op)
		if err != nil {
			return nil, &OpError{Index: i + 1, Op: op.Name(), Err: err}
		}
	}
	return canvas, nil
}

// apply runs a single non-Begin operation against canvas.
func apply(canvas *image.NRGBA, op Operation) (*image.NRGBA, error) {
	switch o := op.(type) {
	case Mask:
		return imgops.ApplyMask(canvas, o.Mask)
	case Blend:
		return imgops.Blend(canvas, o.Overlay)
	case BackgroundColor:
		return imgops.UnderlayColor(canvas, o.Color)
	case BackgroundImage:
		return imgops.UnderlayImage(canvas, o.Image)
	case MaskColor:
		return imgops.MaskColor(canvas, o.Key, o.Range, o.SoftBorder)
	case MaskWithOffset:
		if o.Mask == nil {
			return nil, fmt.Errorf("%w: nil mask", imgops.ErrInvalidDimensions)
		}
		size := canvas.Bounds().Size()
		m, err := imgops.ResampleMask(o.Mask, size, o.Focus, o.Scale)
		if err != nil {
			return nil, err
		}
		return imgops.ApplyMask(canvas, m)
	default:
		return nil, ErrUnknownOperation
	}
}
