package imgops

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func near(a, b color.NRGBA, tol int) bool {
	return absDiff(a.R, b.R) <= tol && absDiff(a.G, b.G) <= tol &&
		absDiff(a.B, b.B) <= tol && absDiff(a.A, b.A) <= tol
}

func TestApplyMaskOpaqueIsIdentity(t *testing.T) {
	src := patterned(13, 7)
	out, err := ApplyMask(src, NewMask(13, 7, 255))
	if err != nil {
		t.Fatalf("apply mask failed: %v", err)
	}
	if !bytes.Equal(out.Pix, src.Pix) {
		t.Fatalf("expected 255 mask to leave the image untouched")
	}
}

func TestApplyMaskZeroClearsEverything(t *testing.T) {
	src := patterned(13, 7)
	out, err := ApplyMask(src, NewMask(13, 7, 0))
	if err != nil {
		t.Fatalf("apply mask failed: %v", err)
	}
	for i, v := range out.Pix {
		if v != 0 {
			t.Fatalf("byte %d: expected 0, got %d", i, v)
		}
	}
}

func TestApplyMaskNeverRaisesAlpha(t *testing.T) {
	src := MakeSolidNRGBA(3, 1, color.NRGBA{200, 100, 50, 100})
	mask := image.NewGray(image.Rect(0, 0, 3, 1))
	mask.Pix[0] = 50  // below alpha: applied
	mask.Pix[1] = 100 // equal to alpha: ignored
	mask.Pix[2] = 180 // above alpha: ignored
	out, err := ApplyMask(src, mask)
	if err != nil {
		t.Fatalf("apply mask failed: %v", err)
	}
	// 200*50/255 = 39.2, 100*50/255 = 19.6, 50*50/255 = 9.8
	if got, want := nrgbaAt(out, 0, 0), (color.NRGBA{39, 19, 9, 50}); got != want {
		t.Fatalf("masked pixel: got %v want %v", got, want)
	}
	for x := 1; x < 3; x++ {
		if got := nrgbaAt(out, x, 0); got != (color.NRGBA{200, 100, 50, 100}) {
			t.Fatalf("pixel %d should be untouched, got %v", x, got)
		}
	}
	for x := 0; x < 3; x++ {
		if nrgbaAt(out, x, 0).A > nrgbaAt(src, x, 0).A {
			t.Fatalf("pixel %d: alpha increased", x)
		}
	}
}

func TestApplyMaskDoesNotModifyInput(t *testing.T) {
	src := patterned(4, 4)
	before := append([]uint8(nil), src.Pix...)
	if _, err := ApplyMask(src, NewMask(4, 4, 10)); err != nil {
		t.Fatalf("apply mask failed: %v", err)
	}
	if !bytes.Equal(before, src.Pix) {
		t.Fatalf("input buffer was modified")
	}
}

func TestCompositeResolutionMismatch(t *testing.T) {
	img := patterned(4, 4)
	if _, err := ApplyMask(img, NewMask(4, 5, 0)); !errors.Is(err, ErrResolutionMismatch) {
		t.Fatalf("apply mask: expected ErrResolutionMismatch, got %v", err)
	}
	if _, err := Blend(img, patterned(5, 4)); !errors.Is(err, ErrResolutionMismatch) {
		t.Fatalf("blend: expected ErrResolutionMismatch, got %v", err)
	}
	if _, err := UnderlayImage(img, patterned(3, 3)); !errors.Is(err, ErrResolutionMismatch) {
		t.Fatalf("underlay: expected ErrResolutionMismatch, got %v", err)
	}
}

func TestBlendTransparentOverlayIsIdentity(t *testing.T) {
	base := patterned(9, 9)
	out, err := Blend(base, MakeSolidNRGBA(9, 9, color.NRGBA{}))
	if err != nil {
		t.Fatalf("blend failed: %v", err)
	}
	if !bytes.Equal(out.Pix, base.Pix) {
		t.Fatalf("expected transparent overlay to leave base untouched")
	}
}

func TestBlendOpaqueOverlayReplaces(t *testing.T) {
	base := patterned(9, 9)
	overlay := MakeSolidNRGBA(9, 9, color.NRGBA{1, 2, 3, 255})
	out, err := Blend(base, overlay)
	if err != nil {
		t.Fatalf("blend failed: %v", err)
	}
	if !bytes.Equal(out.Pix, overlay.Pix) {
		t.Fatalf("expected opaque overlay to replace base")
	}
}

func TestBlendHalfAlpha(t *testing.T) {
	base := MakeSolidNRGBA(1, 1, color.NRGBA{0, 0, 255, 255})
	overlay := MakeSolidNRGBA(1, 1, color.NRGBA{255, 0, 0, 128})
	out, err := Blend(base, overlay)
	if err != nil {
		t.Fatalf("blend failed: %v", err)
	}
	got := nrgbaAt(out, 0, 0)
	if !near(got, color.NRGBA{128, 0, 127, 255}, 1) {
		t.Fatalf("unexpected blend result %v", got)
	}
}

func TestUnderlayColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	copy(img.Pix, []uint8{
		10, 20, 30, 255, // opaque: kept
		0, 0, 0, 0, // transparent: becomes background
		255, 0, 0, 128, // partial: blended
	})
	out, err := UnderlayColor(img, color.NRGBA{0, 0, 255, 7})
	if err != nil {
		t.Fatalf("underlay failed: %v", err)
	}
	if got := nrgbaAt(out, 0, 0); got != (color.NRGBA{10, 20, 30, 255}) {
		t.Fatalf("opaque pixel changed: %v", got)
	}
	if got := nrgbaAt(out, 1, 0); got != (color.NRGBA{0, 0, 255, 255}) {
		t.Fatalf("transparent pixel: got %v", got)
	}
	if got := nrgbaAt(out, 2, 0); !near(got, color.NRGBA{128, 0, 127, 255}, 1) {
		t.Fatalf("partial pixel: got %v", got)
	}
}

func TestUnderlayImageMatchesUnderlayColor(t *testing.T) {
	img := patterned(11, 5)
	for i := 3; i < len(img.Pix); i += 16 {
		img.Pix[i] = 0
	}
	bg := color.NRGBA{12, 240, 99, 255}
	want, err := UnderlayColor(img, bg)
	if err != nil {
		t.Fatalf("colour underlay failed: %v", err)
	}
	got, err := UnderlayImage(img, MakeSolidNRGBA(11, 5, bg))
	if err != nil {
		t.Fatalf("underlay failed: %v", err)
	}
	if !bytes.Equal(got.Pix, want.Pix) {
		t.Fatalf("solid image underlay should match colour underlay")
	}
}

func TestUnderlayRejectsNilCanvas(t *testing.T) {
	if _, err := UnderlayColor(nil, color.NRGBA{A: 255}); !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("UnderlayColor(nil): expected ErrInvalidDimensions, got %v", err)
	}
	if _, err := UnderlayImage(nil, MakeSolidNRGBA(1, 1, color.NRGBA{})); !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("UnderlayImage(nil): expected ErrInvalidDimensions, got %v", err)
	}
}
