package imgops

import (
	"image"
	"image/color"
	"testing"
)

func TestCaptionDrawsNearBottom(t *testing.T) {
	size := image.Pt(120, 80)
	img, err := Caption(size, "Goblin", nil, color.NRGBA{255, 0, 0, 255})
	if err != nil {
		t.Fatalf("Caption: %v", err)
	}
	if img.Bounds().Size() != size {
		t.Fatalf("size = %v, want %v", img.Bounds().Size(), size)
	}
	top, bottom := 0, 0
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			if img.NRGBAAt(x, y).A == 0 {
				continue
			}
			if y < size.Y/2 {
				top++
			} else {
				bottom++
			}
		}
	}
	if top != 0 {
		t.Errorf("%d opaque pixels in the top half", top)
	}
	if bottom == 0 {
		t.Errorf("no text drawn")
	}
}

func TestCaptionEmptyTextIsTransparent(t *testing.T) {
	img, err := Caption(image.Pt(10, 10), "", nil, color.NRGBA{255, 255, 255, 255})
	if err != nil {
		t.Fatalf("Caption: %v", err)
	}
	for _, v := range img.Pix {
		if v != 0 {
			t.Fatalf("expected a fully transparent canvas")
		}
	}
}

func TestCaptionRejectsEmptyCanvas(t *testing.T) {
	if _, err := Caption(image.Pt(0, 10), "x", nil, color.NRGBA{}); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestLoadFaceMissingFile(t *testing.T) {
	if _, err := LoadFace("does-not-exist.ttf", 12); err == nil {
		t.Fatal("expected error")
	}
	face, err := LoadFace("", 0)
	if err != nil || face == nil {
		t.Fatalf("LoadFace(\"\") = %v, %v", face, err)
	}
}
