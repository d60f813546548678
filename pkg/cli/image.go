package cli

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Fepozopo/tokenmaker/pkg/imgops"
)

// LoadImage reads an image file (PNG, JPEG, GIF, BMP, TIFF or WebP) and returns it as an
// origin-based NRGBA buffer together with the decoded format name. JPEG files are rotated
// according to their EXIF orientation.
func LoadImage(path string) (*image.NRGBA, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	img, format, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, "", fmt.Errorf("decoding %s: %w", path, err)
	}
	if format == "jpeg" {
		if o, err := jpegOrientation(b); err == nil && o > 1 {
			return imgops.AutoOrient(img, o), format, nil
		}
	}
	return imgops.ToNRGBA(img), format, nil
}

// LoadMask reads an image file as a mask: alpha for images with transparency, luminance
// otherwise.
func LoadMask(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return imgops.ToGray(img), nil
}

// SaveImage saves an image.Image to disk using format inferred from the filename extension.
// Supports .png, .jpg/.jpeg, .gif; anything else is written as PNG.
func SaveImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	var encErr error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		encErr = jpeg.Encode(f, img, &jpeg.Options{Quality: 92})
	case ".gif":
		encErr = gif.Encode(f, img, nil)
	default:
		encErr = png.Encode(f, img)
	}
	if cerr := f.Close(); encErr == nil {
		encErr = cerr
	}
	if encErr != nil {
		return fmt.Errorf("writing %s: %w", path, encErr)
	}
	return nil
}

// ImageInfo returns a short description of img.
func ImageInfo(img image.Image, format string) string {
	if img == nil {
		return "no image"
	}
	b := img.Bounds()
	if format == "" {
		format = "unknown"
	}
	return fmt.Sprintf("Format: %s, Width: %d, Height: %d", strings.ToUpper(format), b.Dx(), b.Dy())
}

// tiffStartFromJPEG scans JPEG segments for an APP1 Exif block and returns the offset of
// the TIFF header inside data.
func tiffStartFromJPEG(data []byte) (int, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return -1, fmt.Errorf("not a jpeg")
	}
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		marker := data[i+1]
		if marker == 0xDA { // start of scan
			break
		}
		segLen := int(data[i+2])<<8 | int(data[i+3])
		if marker == 0xE1 && segLen >= 8 && i+10 <= len(data) && string(data[i+4:i+10]) == "Exif\x00\x00" {
			return i + 10, nil
		}
		if segLen <= 2 {
			i += 2
		} else {
			i += 2 + segLen
		}
	}
	return -1, fmt.Errorf("no exif segment")
}

// jpegOrientation returns the EXIF orientation (1..8) stored in IFD0 of a JPEG file.
func jpegOrientation(data []byte) (int, error) {
	start, err := tiffStartFromJPEG(data)
	if err != nil {
		return 0, err
	}
	if start+8 > len(data) {
		return 0, fmt.Errorf("tiff header truncated")
	}
	var order binary.ByteOrder
	switch string(data[start : start+2]) {
	case "MM":
		order = binary.BigEndian
	case "II":
		order = binary.LittleEndian
	default:
		return 0, fmt.Errorf("unknown tiff byte order")
	}
	if order.Uint16(data[start+2:start+4]) != 0x002A {
		return 0, fmt.Errorf("invalid tiff magic")
	}
	ifd := start + int(order.Uint32(data[start+4:start+8]))
	if ifd+2 > len(data) {
		return 0, fmt.Errorf("ifd truncated")
	}
	n := int(order.Uint16(data[ifd : ifd+2]))
	for e := 0; e < n; e++ {
		ent := ifd + 2 + e*12
		if ent+12 > len(data) {
			break
		}
		tag := order.Uint16(data[ent : ent+2])
		typ := order.Uint16(data[ent+2 : ent+4])
		if tag == 0x0112 && typ == 3 { // Orientation, SHORT
			return int(order.Uint16(data[ent+8 : ent+10])), nil
		}
	}
	return 0, fmt.Errorf("orientation tag not found")
}
