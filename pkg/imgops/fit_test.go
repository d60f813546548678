package imgops

import (
	"bytes"
	"errors"
	"image"
	"testing"
)

func TestFitNRGBA(t *testing.T) {
	src := patterned(4, 4)
	same, err := FitNRGBA(src, image.Point{4, 4})
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if !bytes.Equal(same.Pix, src.Pix) {
		t.Fatalf("same size fit should copy pixels")
	}
	big, err := FitNRGBA(src, image.Point{8, 8})
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if nrgbaAt(big, x, y) != nrgbaAt(src, x/2, y/2) {
				t.Fatalf("pixel %d,%d not nearest neighbour", x, y)
			}
		}
	}
	if _, err := FitNRGBA(src, image.Point{0, 3}); !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("expected ErrInvalidDimensions, got %v", err)
	}
}

func TestFitGrayKeepsValues(t *testing.T) {
	m := NewMask(3, 3, 0)
	m.Pix[4] = 255
	out, err := FitGray(m, image.Point{9, 9})
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	for _, v := range out.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("unexpected mask value %d", v)
		}
	}
	if out.Pix[out.PixOffset(4, 4)] != 255 || out.Pix[0] != 0 {
		t.Fatalf("mask not scaled as expected")
	}
}
