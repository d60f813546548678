package imgops

import (
	"fmt"
	"image"
	"runtime"
	"sync"
)

// DefaultBandRows is the height of the horizontal bands the resampler splits its output into.
const DefaultBandRows = 128

// Resample produces a size.X x size.Y image showing src around focus. scale 1.0 fits the
// source to the output, values above 1 zoom out and values below 1 zoom in. Output pixels
// that map outside the source are fully transparent (0,0,0,0). Sampling is nearest neighbour.
func Resample(src *image.NRGBA, size image.Point, focus PointF, scale float64) (*image.NRGBA, error) {
	return ResampleBands(src, size, focus, scale, DefaultBandRows)
}

// ResampleBands is Resample with an explicit band height. The result does not depend on
// bandRows or on how many bands run concurrently.
func ResampleBands(src *image.NRGBA, size image.Point, focus PointF, scale float64, bandRows int) (*image.NRGBA, error) {
	if src == nil {
		return nil, fmt.Errorf("resample: %w: nil source", ErrInvalidDimensions)
	}
	sb := src.Bounds()
	if err := checkSize(sb.Dx(), sb.Dy()); err != nil {
		return nil, fmt.Errorf("resample source: %w", err)
	}
	if err := checkSize(size.X, size.Y); err != nil {
		return nil, fmt.Errorf("resample target: %w", err)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	s := sampler{
		pix:      src.Pix[src.PixOffset(sb.Min.X, sb.Min.Y):],
		stride:   src.Stride,
		channels: 4,
		srcW:     sb.Dx(),
		srcH:     sb.Dy(),
		dstW:     size.X,
		dstH:     size.Y,
		focus:    focus,
		aspect:   aspectFor(sb.Dx(), sb.Dy(), size, scale),
	}
	s.run(dst.Pix, bandRows)
	return dst, nil
}

// ResampleMask is Resample for single channel masks. Pixels outside the source become 0.
func ResampleMask(src *image.Gray, size image.Point, focus PointF, scale float64) (*image.Gray, error) {
	if src == nil {
		return nil, fmt.Errorf("resample mask: %w: nil source", ErrInvalidDimensions)
	}
	sb := src.Bounds()
	if err := checkSize(sb.Dx(), sb.Dy()); err != nil {
		return nil, fmt.Errorf("resample mask source: %w", err)
	}
	if err := checkSize(size.X, size.Y); err != nil {
		return nil, fmt.Errorf("resample mask target: %w", err)
	}
	dst := image.NewGray(image.Rect(0, 0, size.X, size.Y))
	s := sampler{
		pix:      src.Pix[src.PixOffset(sb.Min.X, sb.Min.Y):],
		stride:   src.Stride,
		channels: 1,
		srcW:     sb.Dx(),
		srcH:     sb.Dy(),
		dstW:     size.X,
		dstH:     size.Y,
		focus:    focus,
		aspect:   aspectFor(sb.Dx(), sb.Dy(), size, scale),
	}
	s.run(dst.Pix, DefaultBandRows)
	return dst, nil
}

func aspectFor(srcW, srcH int, size image.Point, scale float64) float64 {
	ax := float64(srcW) / float64(size.X) * scale
	ay := float64(srcH) / float64(size.Y) * scale
	if ax < ay {
		return ax
	}
	return ay
}

// sampler holds the read-only state shared by all bands of one resample.
type sampler struct {
	pix        []uint8
	stride     int
	channels   int
	srcW, srcH int
	dstW, dstH int
	focus      PointF
	aspect     float64
}

// run fills out (dstW*dstH*channels bytes) band by band. Each band owns a disjoint row range
// of out, so the assembled buffer is identical to a sequential pass.
func (s sampler) run(out []uint8, bandRows int) {
	if bandRows <= 0 {
		bandRows = DefaultBandRows
	}
	bands := (s.dstH + bandRows - 1) / bandRows
	if bands == 1 {
		s.band(out, 0, s.dstH)
		return
	}

	workers := runtime.NumCPU()
	if workers > bands {
		workers = bands
	}
	if workers < 1 {
		workers = 1
	}
	next := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for b := range next {
				start := b * bandRows
				end := start + bandRows
				if end > s.dstH {
					end = s.dstH
				}
				rowBytes := s.dstW * s.channels
				s.band(out[start*rowBytes:end*rowBytes], start, end)
			}
		}()
	}
	for b := 0; b < bands; b++ {
		next <- b
	}
	close(next)
	wg.Wait()
}

// band computes output rows [start,end) into out, which holds exactly those rows.
func (s sampler) band(out []uint8, start, end int) {
	halfW := s.dstW / 2
	halfH := s.dstH / 2
	i := 0
	for y := start; y < end; y++ {
		ty := int(float64(y-halfH)*s.aspect + s.focus.Y)
		rowInside := ty >= 0 && ty < s.srcH
		for x := 0; x < s.dstW; x++ {
			tx := int(float64(x-halfW)*s.aspect + s.focus.X)
			if rowInside && tx >= 0 && tx < s.srcW {
				si := ty*s.stride + tx*s.channels
				copy(out[i:i+s.channels], s.pix[si:si+s.channels])
			} else {
				for c := 0; c < s.channels; c++ {
					out[i+c] = 0
				}
			}
			i += s.channels
		}
	}
}
