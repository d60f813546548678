package imgops

import (
	"fmt"
	"image"
	"image/color"
)

// Predicate decides whether a pixel joins a flood fill region. It returns the mask value for
// accepted pixels and false for pixels that stop the fill.
type Predicate func(c color.NRGBA) (uint8, bool)

// FloodFill grows a region from seed through 4-connected neighbours accepted by accept and
// returns a mask the size of src. Accepted pixels take the value returned by accept; every
// other pixel keeps base. If accept rejects the seed the mask is base everywhere.
//
// Traversal uses an explicit stack and a visited bitset, so each pixel is tested at most once
// regardless of the values accept returns.
func FloodFill(src *image.NRGBA, seed image.Point, base uint8, accept Predicate) (*image.Gray, error) {
	if src == nil {
		return nil, fmt.Errorf("flood fill: %w: nil source", ErrInvalidDimensions)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if err := checkSize(w, h); err != nil {
		return nil, fmt.Errorf("flood fill: %w", err)
	}
	if seed.X < 0 || seed.Y < 0 || seed.X >= w || seed.Y >= h {
		return nil, fmt.Errorf("flood fill: %w: %v not in %dx%d", ErrSeedOutOfBounds, seed, w, h)
	}

	mask := NewMask(w, h, base)
	visited := make([]byte, (w*h+7)/8)
	seen := func(i int) bool {
		return visited[i>>3]&(1<<(uint(i)&7)) != 0
	}

	type point struct{ x, y int }
	stack := make([]point, 0, 1024)

	// visit tests (x,y) once; accepted pixels are coloured and queued for expansion.
	visit := func(x, y int) {
		i := y*w + x
		if seen(i) {
			return
		}
		visited[i>>3] |= 1 << (uint(i) & 7)
		v, ok := accept(nrgbaAt(src, x, y))
		if !ok {
			return
		}
		mask.Pix[i] = v
		stack = append(stack, point{x, y})
	}

	visit(seed.X, seed.Y)
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.x > 0 {
			visit(p.x-1, p.y)
		}
		if p.x < w-1 {
			visit(p.x+1, p.y)
		}
		if p.y > 0 {
			visit(p.x, p.y-1)
		}
		if p.y < h-1 {
			visit(p.x, p.y+1)
		}
	}
	return mask, nil
}

// OpaqueBoundary accepts every pixel that is not fully opaque and assigns it value. Used to
// find the see-through area of a frame image.
func OpaqueBoundary(value uint8) Predicate {
	return func(c color.NRGBA) (uint8, bool) {
		if c.A < 255 {
			return value, true
		}
		return 0, false
	}
}

// ColorRange accepts pixels whose colour is close to seed. threshold and softBorder are
// clamped to [0,1] and squared; pixels inside threshold get 0 (fully hidden), pixels inside
// the soft border get a graded value capped at 254 so they never read as "no effect".
func ColorRange(seed color.NRGBA, threshold, softBorder float64) Predicate {
	rng := clamp01(threshold)
	rng *= rng
	soft := clamp01(softBorder)
	soft *= soft
	limit := rng + soft
	return func(c color.NRGBA) (uint8, bool) {
		d := normalizedDistanceSq(c, seed)
		switch {
		case d < rng:
			return 0, true
		case d < limit:
			v := clampFloatToUint8((d - rng) / soft * 255.0)
			if v > 254 {
				v = 254
			}
			return v, true
		default:
			return 0, false
		}
	}
}

// FrameMask marks the see-through region of frame reachable from seed with 255; the rest of
// the mask is 0, hiding whatever lies outside the frame opening.
func FrameMask(frame *image.NRGBA, seed image.Point) (*image.Gray, error) {
	return FloodFill(frame, seed, 0, OpaqueBoundary(255))
}

// WandMask selects the region of src around seed with a colour similar to the seed pixel.
// Selected pixels are hidden (0 or graded), everything else is left visible (255).
func WandMask(src *image.NRGBA, seed image.Point, threshold, softBorder float64) (*image.Gray, error) {
	if src == nil {
		return nil, fmt.Errorf("wand: %w: nil source", ErrInvalidDimensions)
	}
	b := src.Bounds()
	if seed.X < 0 || seed.Y < 0 || seed.X >= b.Dx() || seed.Y >= b.Dy() {
		return nil, fmt.Errorf("wand: %w: %v not in %dx%d", ErrSeedOutOfBounds, seed, b.Dx(), b.Dy())
	}
	return FloodFill(src, seed, 255, ColorRange(nrgbaAt(src, seed.X, seed.Y), threshold, softBorder))
}

// FramePreview highlights the masked area of frame for editing: where mask is set a
// 100px grey checkerboard (alpha = mask value) is drawn beneath the frame pixels.
func FramePreview(frame *image.NRGBA, mask *image.Gray) (*image.NRGBA, error) {
	if frame == nil || mask == nil {
		return nil, fmt.Errorf("frame preview: %w: nil buffer", ErrInvalidDimensions)
	}
	if err := checkSameSize("mask", frame.Bounds(), mask.Bounds()); err != nil {
		return nil, fmt.Errorf("frame preview: %w", err)
	}
	out := CloneNRGBA(frame)
	mb := mask.Bounds()
	for y := 0; y < out.Rect.Dy(); y++ {
		for x := 0; x < out.Rect.Dx(); x++ {
			a := mask.Pix[mask.PixOffset(mb.Min.X+x, mb.Min.Y+y)]
			if a == 0 {
				continue
			}
			dark := (x%100 >= 50) != (y%100 >= 50)
			grid := color.NRGBA{158, 158, 158, a}
			if dark {
				grid = color.NRGBA{128, 128, 128, a}
			}
			c := over(grid, nrgbaAt(out, x, y))
			i := y*out.Stride + x*4
			out.Pix[i+0] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			out.Pix[i+3] = c.A
		}
	}
	return out, nil
}
