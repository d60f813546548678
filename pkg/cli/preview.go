package cli

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"
)

// Terminal preview of rendered images.
//
// Backends:
//   - kitty: kitty graphics protocol, chunked base64 PNG inside ESC _G ... ESC \.
//     Used for kitty, ghostty and Konsole.
//   - inline: iTerm2 OSC 1337 inline file sequence (iTerm2, WezTerm, Warp, VSCode, ...).
//   - chafa: pipes the PNG to the external chafa binary for a block-character rendering.
//
// Mode "auto" picks the first backend the terminal appears to support; "off" disables
// previews.

// ErrNoPreview is returned when no preview backend is usable.
var ErrNoPreview = errors.New("no terminal preview backend available")

func isKitty() bool {
	if os.Getenv("KITTY_WINDOW_ID") != "" || os.Getenv("KONSOLE_VERSION") != "" {
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(term, "kitty") || strings.Contains(term, "ghostty")
}

func isInlineImageCapable() bool {
	switch os.Getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm", "Warp", "Hyper", "vscode", "VSCode", "Tabby", "Bobcat":
		return true
	}
	if os.Getenv("ITERM_SESSION_ID") != "" {
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(term, "wezterm") || strings.Contains(term, "warp") ||
		strings.Contains(term, "tabby") || strings.Contains(term, "vscode")
}

func hasChafa() bool {
	_, err := exec.LookPath("chafa")
	return err == nil
}

// PreviewSize is the placement of a preview in terminal cells.
type PreviewSize struct {
	Cols        int
	Rows        int
	PixelWidth  int
	PixelHeight int
}

// computePreviewSize fits the image into at most 80x40 cells of 8x16 pixels, preserving
// the aspect ratio and never scaling up.
func computePreviewSize(img image.Image) PreviewSize {
	const (
		charW   = 8
		charH   = 16
		minCols = 6
		minRows = 3
		maxCols = 80
		maxRows = 40
	)
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w <= 0 || h <= 0 {
		return PreviewSize{Cols: minCols, Rows: minRows, PixelWidth: minCols * charW, PixelHeight: minRows * charH}
	}
	scale := math.Min(1.0, math.Min(float64(maxCols*charW)/float64(w), float64(maxRows*charH)/float64(h)))
	cols := int(math.Round(float64(w) * scale / charW))
	rows := int(math.Round(float64(h) * scale / charH))
	cols = min(max(cols, minCols), maxCols)
	rows = min(max(rows, minRows), maxRows)
	return PreviewSize{Cols: cols, Rows: rows, PixelWidth: cols * charW, PixelHeight: rows * charH}
}

// PreviewImage renders img to w as PNG with the backend chosen by mode.
func PreviewImage(w io.Writer, img image.Image, mode string) error {
	if img == nil {
		return fmt.Errorf("nil image")
	}
	mode = strings.ToLower(mode)
	if mode == "off" || mode == "none" {
		return nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("png encode failed: %w", err)
	}
	size := computePreviewSize(img)

	switch mode {
	case "kitty":
		return sendKittyImage(w, buf.Bytes(), size)
	case "inline", "iterm":
		return sendInlineImage(w, buf.Bytes(), size)
	case "chafa":
		return sendChafaImage(w, buf.Bytes(), size)
	case "", "auto":
	default:
		return fmt.Errorf("unknown preview mode %q", mode)
	}

	switch {
	case isInlineImageCapable():
		return sendInlineImage(w, buf.Bytes(), size)
	case isKitty():
		return sendKittyImage(w, buf.Bytes(), size)
	case hasChafa():
		return sendChafaImage(w, buf.Bytes(), size)
	}
	return ErrNoPreview
}

// sendKittyImage transmits PNG data with the kitty graphics protocol in chunks of at most
// 4096 base64 bytes. The first chunk carries the placement (c, r); q=2 suppresses replies.
func sendKittyImage(w io.Writer, data []byte, size PreviewSize) error {
	enc := base64.StdEncoding.EncodeToString(data)
	const chunkSize = 4096
	for pos := 0; pos < len(enc); pos += chunkSize {
		end := min(pos+chunkSize, len(enc))
		more := "0"
		if end < len(enc) {
			more = "1"
		}
		var seq string
		if pos == 0 {
			seq = fmt.Sprintf("\x1b_Ga=T,f=100,t=d,q=2,c=%d,r=%d,m=%s;%s\x1b\\", size.Cols, size.Rows, more, enc[pos:end])
		} else {
			seq = "\x1b_Gm=" + more + ";" + enc[pos:end] + "\x1b\\"
		}
		if _, err := io.WriteString(w, seq); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// sendInlineImage emits the iTerm2 OSC 1337 inline file sequence.
func sendInlineImage(w io.Writer, data []byte, size PreviewSize) error {
	meta := fmt.Sprintf("size=%d;width=%dpx;height=%dpx", len(data), size.PixelWidth, size.PixelHeight)
	seq := "\x1b]1337;File=name=preview.png;inline=1;" + meta + ":" + base64.StdEncoding.EncodeToString(data) + "\a\n"
	_, err := io.WriteString(w, seq)
	return err
}

// sendChafaImage renders the image with the external chafa tool.
func sendChafaImage(w io.Writer, data []byte, size PreviewSize) error {
	if !hasChafa() {
		return fmt.Errorf("chafa not found in PATH: %w", ErrNoPreview)
	}
	cmd := exec.Command("chafa", "--fill=block", "--symbols=block", "-s", fmt.Sprintf("%dx%d", size.Cols, size.Rows), "-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = w
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("chafa failed: %w", err)
	}
	return nil
}
