package imgops

import (
	"fmt"
	"image"
	"image/color"
)

// normalizedDistanceSq returns the squared euclidean distance between the RGB parts of a and b,
// each channel normalized to [0,1].
func normalizedDistanceSq(a, b color.NRGBA) float64 {
	dr := float64(a.R)/255.0 - float64(b.R)/255.0
	dg := float64(a.G)/255.0 - float64(b.G)/255.0
	db := float64(a.B)/255.0 - float64(b.B)/255.0
	return dr*dr + dg*dg + db*db
}

// MaskColor keys out pixels close to key ("greenscreen"). rng and softBorder are clamped to
// [0,1] and squared. Pixels within rng of key become fully transparent; pixels within the
// following softBorder band fade linearly from transparent toward their own colour. All other
// pixels are left as they are. A softBorder of 0 disables the fade.
func MaskColor(img *image.NRGBA, key color.NRGBA, rng, softBorder float64) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("mask color: %w: nil buffer", ErrInvalidDimensions)
	}
	rng = clamp01(rng)
	rng *= rng
	soft := clamp01(softBorder)
	soft *= soft
	limit := rng + soft

	out := CloneNRGBA(img)
	for i := 0; i+3 < len(out.Pix); i += 4 {
		c := color.NRGBA{out.Pix[i+0], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3]}
		d := normalizedDistanceSq(c, key)
		if d <= rng {
			out.Pix[i+3] = 0
		} else if d < limit {
			out.Pix[i+3] = clampFloatToUint8((d - rng) / soft * 255.0)
		}
	}
	return out, nil
}
