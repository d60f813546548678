package imgops

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// FitNRGBA scales src to exactly size using nearest-neighbour sampling. Callers use it to
// bring frames and backgrounds to the canvas resolution before adding them to a chain.
func FitNRGBA(src image.Image, size image.Point) (*image.NRGBA, error) {
	if err := checkSize(size.X, size.Y); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	if src == nil {
		return nil, fmt.Errorf("fit: %w: nil source", ErrInvalidDimensions)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	if src.Bounds().Size() == size {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		return dst, nil
	}
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// FitGray scales a mask to exactly size using nearest-neighbour sampling so mask values stay
// among the ones present in src.
func FitGray(src *image.Gray, size image.Point) (*image.Gray, error) {
	if err := checkSize(size.X, size.Y); err != nil {
		return nil, fmt.Errorf("fit mask: %w", err)
	}
	if src == nil {
		return nil, fmt.Errorf("fit mask: %w: nil source", ErrInvalidDimensions)
	}
	dst := image.NewGray(image.Rect(0, 0, size.X, size.Y))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}
