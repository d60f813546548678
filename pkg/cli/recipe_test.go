package cli

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Fepozopo/tokenmaker/pkg/imgops"
	"github.com/Fepozopo/tokenmaker/pkg/pipeline"
)

// ringFrame is an opaque ring with a transparent centre and a transparent outside.
func ringFrame(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	c := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)+0.5-c, float64(y)+0.5-c
			d := dx*dx + dy*dy
			if d >= (c*0.6)*(c*0.6) && d <= (c*0.9)*(c*0.9) {
				img.SetNRGBA(x, y, color.NRGBA{90, 60, 30, 255})
			}
		}
	}
	return img
}

func chainNames(c pipeline.Chain) string { return c.String() }

func TestRecipeWorkspace(t *testing.T) {
	dir := t.TempDir()
	src := imgops.MakeSolidNRGBA(40, 40, color.NRGBA{0, 255, 0, 255})
	for y := 10; y < 30; y++ {
		for x := 10; x < 30; x++ {
			src.SetNRGBA(x, y, color.NRGBA{200, 0, 0, 255})
		}
	}
	writePNG(t, dir, "src.png", src)
	writePNG(t, dir, "frame.png", ringFrame(40))

	text := `
source = "src.png"
size = "32x32"
zoom = 1.0

[[step]]
op = "greenscreen"
key = "#00ff00"
range = 0.2
soft_border = 0.0

[[step]]
op = "background"
color = "blue"

[[step]]
op = "frame"
image = "frame.png"

[[step]]
op = "caption"
text = "Ogre"
color = "yellow"
`
	path := filepath.Join(dir, "token.toml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := LoadRecipe(path)
	if err != nil {
		t.Fatalf("LoadRecipe: %v", err)
	}
	if r.SourcePath() != filepath.Join(dir, "src.png") {
		t.Fatalf("source path = %q", r.SourcePath())
	}
	loaded, _, err := LoadImage(r.SourcePath())
	if err != nil {
		t.Fatal(err)
	}
	ws, err := r.Workspace(loaded, image.Point{})
	if err != nil {
		t.Fatalf("Workspace: %v", err)
	}
	if ws.ExportSize() != image.Pt(32, 32) {
		t.Fatalf("export size = %v", ws.ExportSize())
	}
	chain, err := ws.Chain()
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	want := "begin > mask_color > background_color > mask > blend > blend"
	if got := chainNames(chain); got != want {
		t.Fatalf("chain = %q, want %q", got, want)
	}
	out, err := pipeline.Execute(chain)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// The corner is outside the frame opening.
	if a := out.NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("corner alpha = %d, want 0", a)
	}
	// The centre shows the red source square.
	if p := out.NRGBAAt(16, 16); p.R < 150 || p.G > 50 || p.A != 255 {
		t.Errorf("centre = %v, want red", p)
	}

	sized, err := r.Workspace(loaded, image.Pt(64, 48))
	if err != nil {
		t.Fatal(err)
	}
	if sized.ExportSize() != image.Pt(64, 48) {
		t.Fatalf("size override ignored: %v", sized.ExportSize())
	}
}

func TestRecipeFloodMask(t *testing.T) {
	src := imgops.MakeSolidNRGBA(20, 20, color.NRGBA{255, 255, 255, 255})
	r, err := ParseRecipe(`
[[step]]
op = "flood_mask"
seed = [1, 1]
threshold = 0.05
`, "")
	if err != nil {
		t.Fatalf("ParseRecipe: %v", err)
	}
	ws, err := r.Workspace(src, image.Pt(20, 20))
	if err != nil {
		t.Fatalf("Workspace: %v", err)
	}
	chain, err := ws.Chain()
	if err != nil {
		t.Fatal(err)
	}
	if got := chainNames(chain); got != "begin > mask_with_offset" {
		t.Fatalf("chain = %q", got)
	}
	out, err := pipeline.Execute(chain)
	if err != nil {
		t.Fatal(err)
	}
	if a := out.NRGBAAt(10, 10).A; a != 0 {
		t.Fatalf("uniform image should be fully hidden, alpha = %d", a)
	}
}

func TestRecipeValidation(t *testing.T) {
	tests := []struct {
		name, text, wantErr string
	}{
		{"unknown op", "[[step]]\nop = \"sharpen\"\n", "unknown op"},
		{"flood without seed", "[[step]]\nop = \"flood_mask\"\n", "seed is required"},
		{"bad seed", "[[step]]\nop = \"flood_mask\"\nseed = [1]\n", "seed must have 2 values"},
		{"background without color", "[[step]]\nop = \"background\"\n", "color is required"},
		{"frame without image", "[[step]]\nop = \"frame\"\n", "image is required"},
		{"caption without text", "[[step]]\nop = \"caption\"\n", "text is required"},
		{"bad offset", "offset = [1.0]\n", "offset must have 2 values"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecipe(tt.text, "")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRecipeRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.toml")
	if err := os.WriteFile(path, []byte("source = \"a.png\"\nsharpness = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadRecipe(path)
	if err == nil || !strings.Contains(err.Error(), "sharpness") {
		t.Fatalf("err = %v", err)
	}
}

func TestRecipeFloodSeedOutOfBounds(t *testing.T) {
	r, err := ParseRecipe("[[step]]\nop = \"flood_mask\"\nseed = [50, 50]\n", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Workspace(imgops.MakeSolidNRGBA(10, 10, color.NRGBA{A: 255}), image.Point{}); err == nil {
		t.Fatal("expected seed error")
	}
}
