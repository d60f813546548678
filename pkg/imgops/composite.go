package imgops

import (
	"fmt"
	"image"
	"image/color"
)

// over composites fg over bg (both non-premultiplied) with the Porter-Duff "over" operator.
// A transparent fg leaves bg untouched and an opaque fg replaces it.
func over(bg, fg color.NRGBA) color.NRGBA {
	switch fg.A {
	case 0:
		return bg
	case 255:
		return fg
	}
	bgA := float64(bg.A) / 255.0
	fgA := float64(fg.A) / 255.0

	outA := bgA + fgA - bgA*fgA
	if outA == 0 {
		return bg
	}

	// premultiply, composite, unpremultiply
	mix := func(b, f uint8) uint8 {
		bv := float64(b) / 255.0 * bgA
		fv := float64(f) / 255.0 * fgA
		return clampFloatToUint8((fv + bv*(1-fgA)) / outA * 255.0)
	}
	return color.NRGBA{
		R: mix(bg.R, fg.R),
		G: mix(bg.G, fg.G),
		B: mix(bg.B, fg.B),
		A: clampFloatToUint8(outA * 255.0),
	}
}

// ApplyMask hides parts of img using mask; dark mask values hide pixels. A pixel is only
// changed when its mask value is below 255 and below its current alpha: the RGB channels are
// scaled by mask/255 and alpha becomes the mask value. Masks never raise alpha.
func ApplyMask(img *image.NRGBA, mask *image.Gray) (*image.NRGBA, error) {
	if img == nil || mask == nil {
		return nil, fmt.Errorf("apply mask: %w: nil buffer", ErrInvalidDimensions)
	}
	if err := checkSameSize("mask", img.Bounds(), mask.Bounds()); err != nil {
		return nil, err
	}
	out := CloneNRGBA(img)
	b := out.Bounds()
	mb := mask.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := y * out.Stride
		mrow := mask.PixOffset(mb.Min.X, mb.Min.Y+y)
		for x := 0; x < b.Dx(); x++ {
			m := mask.Pix[mrow+x]
			if m == 255 {
				continue
			}
			i := row + x*4
			if m >= out.Pix[i+3] {
				continue
			}
			a := float64(m) / 255.0
			out.Pix[i+0] = uint8(float64(out.Pix[i+0]) * a)
			out.Pix[i+1] = uint8(float64(out.Pix[i+1]) * a)
			out.Pix[i+2] = uint8(float64(out.Pix[i+2]) * a)
			out.Pix[i+3] = m
		}
	}
	return out, nil
}

// Blend overlays overlay on top of base using the overlay's alpha.
func Blend(base, overlay *image.NRGBA) (*image.NRGBA, error) {
	if base == nil || overlay == nil {
		return nil, fmt.Errorf("blend: %w: nil buffer", ErrInvalidDimensions)
	}
	if err := checkSameSize("overlay", base.Bounds(), overlay.Bounds()); err != nil {
		return nil, err
	}
	out := CloneNRGBA(base)
	for y := 0; y < out.Rect.Dy(); y++ {
		for x := 0; x < out.Rect.Dx(); x++ {
			fg := nrgbaAt(overlay, x, y)
			if fg.A == 0 {
				continue
			}
			i := y*out.Stride + x*4
			c := over(nrgbaAt(out, x, y), fg)
			out.Pix[i+0] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			out.Pix[i+3] = c.A
		}
	}
	return out, nil
}

// UnderlayColor puts a solid background beneath every pixel that is not fully opaque.
// The background is always treated as opaque.
func UnderlayColor(img *image.NRGBA, c color.NRGBA) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("underlay color: %w: nil buffer", ErrInvalidDimensions)
	}
	c.A = 255
	out := CloneNRGBA(img)
	for y := 0; y < out.Rect.Dy(); y++ {
		for x := 0; x < out.Rect.Dx(); x++ {
			i := y*out.Stride + x*4
			if out.Pix[i+3] == 255 {
				continue
			}
			r := over(c, nrgbaAt(out, x, y))
			out.Pix[i+0] = r.R
			out.Pix[i+1] = r.G
			out.Pix[i+2] = r.B
			out.Pix[i+3] = r.A
		}
	}
	return out, nil
}

// UnderlayImage puts under beneath every pixel of img that is not fully opaque.
func UnderlayImage(img, under *image.NRGBA) (*image.NRGBA, error) {
	if img == nil || under == nil {
		return nil, fmt.Errorf("underlay: %w: nil buffer", ErrInvalidDimensions)
	}
	if err := checkSameSize("background", img.Bounds(), under.Bounds()); err != nil {
		return nil, fmt.Errorf("underlay: %w", err)
	}
	out := CloneNRGBA(img)
	for y := 0; y < out.Rect.Dy(); y++ {
		for x := 0; x < out.Rect.Dx(); x++ {
			i := y*out.Stride + x*4
			if out.Pix[i+3] == 255 {
				continue
			}
			r := over(nrgbaAt(under, x, y), nrgbaAt(out, x, y))
			out.Pix[i+0] = r.R
			out.Pix[i+1] = r.G
			out.Pix[i+2] = r.B
			out.Pix[i+3] = r.A
		}
	}
	return out, nil
}
