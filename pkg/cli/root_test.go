package cli

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--preview", "off", "--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "tokenmaker version "+Version+"\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestOpsCommand(t *testing.T) {
	out, err := runRoot(t, "ops")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"begin: ", "mask_with_offset: ", "greenscreen: ", "caption: "} {
		if !strings.Contains(out, want) {
			t.Errorf("ops output missing %q", want)
		}
	}
}

func TestComposeCommand(t *testing.T) {
	dir := t.TempDir()
	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	writePNG(t, dir, "src.png", src)
	recipe := filepath.Join(dir, "r.toml")
	if err := os.WriteFile(recipe, []byte("source = \"src.png\"\n\n[[step]]\nop = \"greenscreen\"\n\n[[step]]\nop = \"background\"\ncolor = \"red\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "token.png")
	out, err := runRoot(t, "compose", recipe, "--size", "12x6", "-o", outPath)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if !strings.Contains(out, "Saved to "+outPath) {
		t.Fatalf("output = %q", out)
	}
	img, _, err := LoadImage(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Size() != image.Pt(12, 6) {
		t.Fatalf("size = %v", img.Bounds().Size())
	}
	// White is keyed out by the default greenscreen and replaced by red.
	if p := img.NRGBAAt(6, 3); p != (color.NRGBA{255, 0, 0, 255}) {
		t.Fatalf("pixel = %v", p)
	}
}

func TestFrameMaskAndWandCommands(t *testing.T) {
	dir := t.TempDir()
	frame := writePNG(t, dir, "frame.png", ringFrame(30))
	maskPath := filepath.Join(dir, "mask.png")
	previewPath := filepath.Join(dir, "preview.png")
	if _, err := runRoot(t, "framemask", frame, "-o", maskPath, "--preview-out", previewPath); err != nil {
		t.Fatalf("framemask: %v", err)
	}
	mask, err := LoadMask(maskPath)
	if err != nil {
		t.Fatal(err)
	}
	if mask.GrayAt(15, 15).Y != 255 || mask.GrayAt(0, 0).Y != 0 {
		t.Fatalf("mask centre=%d corner=%d", mask.GrayAt(15, 15).Y, mask.GrayAt(0, 0).Y)
	}
	if _, err := os.Stat(previewPath); err != nil {
		t.Fatalf("preview not written: %v", err)
	}

	wandPath := filepath.Join(dir, "wand.png")
	if _, err := runRoot(t, "wand", frame, "--seed", "0,0", "--threshold", "5%", "-o", wandPath); err != nil {
		t.Fatalf("wand: %v", err)
	}
	wand, err := LoadMask(wandPath)
	if err != nil {
		t.Fatal(err)
	}
	if wand.GrayAt(0, 0).Y != 0 {
		t.Fatalf("seed not hidden: %d", wand.GrayAt(0, 0).Y)
	}

	if _, err := runRoot(t, "wand", frame, "--seed", "99,0"); err == nil {
		t.Fatal("expected out of bounds seed error")
	}
}
