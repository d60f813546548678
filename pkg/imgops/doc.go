// Package imgops holds the pixel primitives of the compositing engine: nearest-neighbour
// resampling, alpha masks, over-blending, background underlays, colour keying and flood fill
// mask generation.
//
// Pixel buffers are *image.NRGBA (non-premultiplied RGBA8) and masks are *image.Gray. Every
// function treats its inputs as read-only and returns a newly allocated buffer, so buffers can
// be shared between goroutines without locking.
package imgops
