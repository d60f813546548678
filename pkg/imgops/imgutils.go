package imgops

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

var (
	// ErrInvalidDimensions is returned when a buffer or a requested resolution has a zero or
	// negative width or height.
	ErrInvalidDimensions = errors.New("invalid dimensions")
	// ErrResolutionMismatch is returned when a mask, overlay or background does not share the
	// resolution of the canvas it is applied to.
	ErrResolutionMismatch = errors.New("resolution mismatch")
	// ErrSeedOutOfBounds is returned when a flood fill seed lies outside the source buffer.
	ErrSeedOutOfBounds = errors.New("seed out of bounds")
)

// PointF is a position in source pixel space.
type PointF struct {
	X, Y float64
}

// Center returns the center of a w x h buffer.
func Center(w, h int) PointF {
	return PointF{X: float64(w) / 2, Y: float64(h) / 2}
}

// ToNRGBA converts any image.Image to an origin-based *image.NRGBA (non-premultiplied RGBA).
// The result never aliases src.
func ToNRGBA(src image.Image) *image.NRGBA {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok {
		out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			si := n.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Stride:(y+1)*out.Stride], n.Pix[si:si+out.Stride])
		}
		return out
	}
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	idx := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			out.Pix[idx+0] = c.R
			out.Pix[idx+1] = c.G
			out.Pix[idx+2] = c.B
			out.Pix[idx+3] = c.A
			idx += 4
		}
	}
	return out
}

// ToGray converts any image.Image to an origin-based *image.Gray. For images carrying alpha
// the alpha channel is used as the mask value, otherwise luminance is used.
func ToGray(src image.Image) *image.Gray {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	if g, ok := src.(*image.Gray); ok {
		for y := 0; y < b.Dy(); y++ {
			si := g.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Stride:(y+1)*out.Stride], g.Pix[si:si+out.Stride])
		}
		return out
	}
	opaque := isOpaque(src)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := out.PixOffset(x-b.Min.X, y-b.Min.Y)
			if opaque {
				out.Pix[i] = color.GrayModel.Convert(src.At(x, y)).(color.Gray).Y
			} else {
				_, _, _, a := src.At(x, y).RGBA()
				out.Pix[i] = uint8(a >> 8)
			}
		}
	}
	return out
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// CloneNRGBA returns an origin-based copy of the provided image.NRGBA
func CloneNRGBA(src *image.NRGBA) *image.NRGBA {
	if src == nil {
		return nil
	}
	if src.Rect.Min != (image.Point{}) || src.Stride != 4*src.Rect.Dx() {
		return ToNRGBA(src)
	}
	out := image.NewNRGBA(src.Rect)
	copy(out.Pix, src.Pix)
	return out
}

// NewMask returns a w x h mask prefilled with v.
func NewMask(w, h int, v uint8) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, w, h))
	if v != 0 {
		for i := range m.Pix {
			m.Pix[i] = v
		}
	}
	return m
}

// checkSize reports ErrInvalidDimensions for empty sizes.
func checkSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, w, h)
	}
	return nil
}

// checkSameSize reports ErrResolutionMismatch when a and b differ.
func checkSameSize(what string, canvas, other image.Rectangle) error {
	if canvas.Dx() != other.Dx() || canvas.Dy() != other.Dy() {
		return fmt.Errorf("%w: %s is %dx%d, canvas is %dx%d", ErrResolutionMismatch, what,
			other.Dx(), other.Dy(), canvas.Dx(), canvas.Dy())
	}
	return nil
}

// nrgbaAt returns the pixel at (x, y) relative to img.Rect.Min.
func nrgbaAt(img *image.NRGBA, x, y int) color.NRGBA {
	i := y*img.Stride + x*4
	return color.NRGBA{img.Pix[i+0], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}
}

// clamp01 clamps v to [0,1]
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clampFloatToUint8 ensures v in [0,255]
func clampFloatToUint8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// MakeSolidNRGBA returns a w x h image filled with c.
func MakeSolidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i+0] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
		}
	}
	return img
}
