package imgops

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func always(v uint8) Predicate {
	return func(color.NRGBA) (uint8, bool) { return v, true }
}

func never(color.NRGBA) (uint8, bool) { return 0, false }

// ringFrame returns a w x w frame with an opaque ring of the given thickness at distance
// inset from the edge; everything else is transparent.
func ringFrame(w, inset, thickness int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, w))
	for y := 0; y < w; y++ {
		for x := 0; x < w; x++ {
			if onRing(x, y, w, inset, thickness) {
				i := img.PixOffset(x, y)
				copy(img.Pix[i:i+4], []uint8{90, 60, 30, 255})
			}
		}
	}
	return img
}

func onRing(x, y, w, inset, thickness int) bool {
	lo, hi := inset, w-1-inset
	if x < lo || x > hi || y < lo || y > hi {
		return false
	}
	return x < lo+thickness || x > hi-thickness || y < lo+thickness || y > hi-thickness
}

func TestFloodFillAlwaysAndNever(t *testing.T) {
	src := patterned(31, 17)
	m, err := FloodFill(src, image.Point{5, 5}, 9, always(200))
	if err != nil {
		t.Fatalf("flood fill failed: %v", err)
	}
	for i, v := range m.Pix {
		if v != 200 {
			t.Fatalf("always: pixel %d is %d", i, v)
		}
	}
	m, err = FloodFill(src, image.Point{5, 5}, 9, never)
	if err != nil {
		t.Fatalf("flood fill failed: %v", err)
	}
	for i, v := range m.Pix {
		if v != 9 {
			t.Fatalf("never: pixel %d is %d", i, v)
		}
	}
}

func TestFloodFillSeedOutOfBounds(t *testing.T) {
	src := patterned(4, 4)
	for _, seed := range []image.Point{{-1, 0}, {0, -1}, {4, 0}, {0, 4}} {
		if _, err := FloodFill(src, seed, 0, always(1)); !errors.Is(err, ErrSeedOutOfBounds) {
			t.Fatalf("seed %v: expected ErrSeedOutOfBounds, got %v", seed, err)
		}
	}
	if _, err := WandMask(src, image.Point{9, 9}, 0.1, 0.1); !errors.Is(err, ErrSeedOutOfBounds) {
		t.Fatalf("wand: expected ErrSeedOutOfBounds, got %v", err)
	}
}

func TestFloodFillLargeRegion(t *testing.T) {
	src := MakeSolidNRGBA(1000, 1000, color.NRGBA{0, 0, 0, 0})
	m, err := FloodFill(src, image.Point{999, 0}, 0, always(255))
	if err != nil {
		t.Fatalf("flood fill failed: %v", err)
	}
	if m.Pix[0] != 255 || m.Pix[len(m.Pix)-1] != 255 {
		t.Fatalf("expected whole image to be filled")
	}
}

func TestFrameMask(t *testing.T) {
	frame := ringFrame(20, 2, 3)
	m, err := FrameMask(frame, image.Point{10, 10})
	if err != nil {
		t.Fatalf("frame mask failed: %v", err)
	}
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			inside := x >= 5 && x <= 14 && y >= 5 && y <= 14
			got := m.Pix[m.PixOffset(x, y)]
			if inside && got != 255 {
				t.Fatalf("inside %d,%d: got %d want 255", x, y, got)
			}
			if !inside && got != 0 {
				t.Fatalf("outside %d,%d: got %d want 0", x, y, got)
			}
		}
	}

	// seeding on the opaque ring selects nothing
	m, err = FrameMask(frame, image.Point{2, 2})
	if err != nil {
		t.Fatalf("frame mask failed: %v", err)
	}
	for i, v := range m.Pix {
		if v != 0 {
			t.Fatalf("pixel %d: got %d want 0", i, v)
		}
	}
}

func TestWandMask(t *testing.T) {
	// left half green, right half blue
	src := MakeSolidNRGBA(10, 4, color.NRGBA{0, 255, 0, 255})
	for y := 0; y < 4; y++ {
		for x := 5; x < 10; x++ {
			copy(src.Pix[src.PixOffset(x, y):], []uint8{0, 0, 255, 255})
		}
	}
	m, err := WandMask(src, image.Point{1, 1}, 0.1, 0.1)
	if err != nil {
		t.Fatalf("wand failed: %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 10; x++ {
			want := uint8(255)
			if x < 5 {
				want = 0
			}
			if got := m.Pix[m.PixOffset(x, y)]; got != want {
				t.Fatalf("%d,%d: got %d want %d", x, y, got, want)
			}
		}
	}
}

func TestWandZeroThresholdRejectsSeed(t *testing.T) {
	src := MakeSolidNRGBA(6, 6, color.NRGBA{40, 40, 40, 255})
	m, err := WandMask(src, image.Point{3, 3}, 0, 0)
	if err != nil {
		t.Fatalf("wand failed: %v", err)
	}
	for i, v := range m.Pix {
		if v != 255 {
			t.Fatalf("pixel %d: got %d want 255", i, v)
		}
	}
}

func TestColorRangeSoftValuesStayBelowOpaque(t *testing.T) {
	accept := ColorRange(color.NRGBA{255, 255, 255, 255}, 0.1, 0.1)
	for g := 0; g < 256; g++ {
		v, ok := accept(color.NRGBA{uint8(g), uint8(g), uint8(g), 255})
		if ok && v == 255 {
			t.Fatalf("grey %d: accepted with 255", g)
		}
	}
	if v, ok := accept(color.NRGBA{255, 255, 255, 255}); !ok || v != 0 {
		t.Fatalf("seed colour: got %d,%v want 0,true", v, ok)
	}
	if _, ok := accept(color.NRGBA{0, 0, 0, 255}); ok {
		t.Fatalf("black should be rejected")
	}
}

func TestFramePreview(t *testing.T) {
	frame := ringFrame(120, 0, 4)
	mask, err := FrameMask(frame, image.Point{60, 60})
	if err != nil {
		t.Fatalf("frame mask failed: %v", err)
	}
	out, err := FramePreview(frame, mask)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if got := nrgbaAt(out, 10, 10); got != (color.NRGBA{158, 158, 158, 255}) {
		t.Fatalf("light cell: got %v", got)
	}
	if got := nrgbaAt(out, 60, 10); got != (color.NRGBA{128, 128, 128, 255}) {
		t.Fatalf("dark cell: got %v", got)
	}
	if got := nrgbaAt(out, 0, 0); got != (color.NRGBA{90, 60, 30, 255}) {
		t.Fatalf("frame pixel changed: %v", got)
	}
}
