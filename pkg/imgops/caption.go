package imgops

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// LoadFace opens a TrueType or OpenType font at the given point size (72 DPI). An empty
// path selects the built-in 7x13 bitmap face, which ignores points.
func LoadFace(path string, points float64) (font.Face, error) {
	if path == "" {
		return basicfont.Face7x13, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading font: %w", err)
	}
	tt, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font %s: %w", path, err)
	}
	if points <= 0 {
		points = 12
	}
	face, err := opentype.NewFace(tt, &opentype.FaceOptions{Size: points, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("font face %s: %w", path, err)
	}
	return face, nil
}

// Caption returns a transparent canvas of the given size with text drawn in c, centred
// horizontally and resting a small margin above the bottom edge.
func Caption(size image.Point, text string, face font.Face, c color.NRGBA) (*image.NRGBA, error) {
	if err := checkSize(size.X, size.Y); err != nil {
		return nil, err
	}
	out := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	if text == "" {
		return out, nil
	}
	if face == nil {
		face = basicfont.Face7x13
	}
	d := &font.Drawer{Dst: out, Src: image.NewUniform(c), Face: face}
	width := d.MeasureString(text)
	margin := size.Y / 20
	x := (fixed.I(size.X) - width) / 2
	y := fixed.I(size.Y-margin) - face.Metrics().Descent
	d.Dot = fixed.Point26_6{X: x, Y: y}
	d.DrawString(text)
	return out, nil
}
