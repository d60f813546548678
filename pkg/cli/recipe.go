package cli

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Fepozopo/tokenmaker/pkg/imgops"
	"github.com/Fepozopo/tokenmaker/pkg/render"
)

// StepSpec documents one recipe step kind.
type StepSpec struct {
	Name        string
	Fields      string
	Description string
}

// StepKinds lists the step kinds a recipe may use, in the order shown by `tokenmaker ops`.
var StepKinds = []StepSpec{
	{"greenscreen", "key, range, soft_border", "Key out a colour (defaults: white, 0.1, 0.01)."},
	{"flood_mask", "seed, threshold, soft_border", "Hide the region around seed with a similar colour (defaults: 0.1, 0.1)."},
	{"background", "color", "Fill translucent pixels with a colour."},
	{"background_image", "image, offset, zoom", "Fill translucent pixels with an image, panned and zoomed on its own."},
	{"frame", "image, mask | seed", "Cut the canvas to the frame opening and draw the frame on top."},
	{"caption", "text, color, font, font_size", "Draw a line of text near the bottom (default colour white, built-in font)."},
}

// Recipe is a TOML description of a composition:
//
//	source = "photo.jpg"
//	size = "512x512"
//	offset = [0.0, 12.0]
//	zoom = 1.0
//
//	[[step]]
//	op = "greenscreen"
//	key = "#00ff00"
type Recipe struct {
	Source string    `toml:"source"`
	Size   string    `toml:"size"`
	Offset []float64 `toml:"offset"`
	Zoom   float64   `toml:"zoom"`
	Steps  []Step    `toml:"step"`

	// dir is the directory relative paths are resolved against.
	dir string
}

// Step is one [[step]] table of a recipe. Which fields apply depends on Op.
type Step struct {
	Op         string    `toml:"op"`
	Key        string    `toml:"key"`
	Color      string    `toml:"color"`
	Range      *float64  `toml:"range"`
	SoftBorder *float64  `toml:"soft_border"`
	Threshold  *float64  `toml:"threshold"`
	Seed       []int     `toml:"seed"`
	Image      string    `toml:"image"`
	Mask       string    `toml:"mask"`
	Offset     []float64 `toml:"offset"`
	Zoom       float64   `toml:"zoom"`
	Text       string    `toml:"text"`
	Font       string    `toml:"font"`
	FontSize   float64   `toml:"font_size"`
}

// LoadRecipe decodes a recipe file. Unknown keys are rejected.
func LoadRecipe(path string) (Recipe, error) {
	var r Recipe
	md, err := toml.DecodeFile(path, &r)
	if err != nil {
		return Recipe{}, fmt.Errorf("recipe %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Recipe{}, fmt.Errorf("recipe %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	r.dir = filepath.Dir(path)
	if err := r.Validate(); err != nil {
		return Recipe{}, fmt.Errorf("recipe %s: %w", path, err)
	}
	return r, nil
}

// ParseRecipe decodes recipe text; relative paths resolve against dir.
func ParseRecipe(text, dir string) (Recipe, error) {
	var r Recipe
	if _, err := toml.Decode(text, &r); err != nil {
		return Recipe{}, err
	}
	r.dir = dir
	return r, r.Validate()
}

// Validate checks step kinds and the shape of list fields.
func (r Recipe) Validate() error {
	if r.Offset != nil && len(r.Offset) != 2 {
		return fmt.Errorf("offset must have 2 values, got %d", len(r.Offset))
	}
	if r.Zoom < 0 {
		return fmt.Errorf("zoom must be positive, got %g", r.Zoom)
	}
	for i, s := range r.Steps {
		known := false
		for _, k := range StepKinds {
			if k.Name == s.Op {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("step %d: unknown op %q", i, s.Op)
		}
		if s.Seed != nil && len(s.Seed) != 2 {
			return fmt.Errorf("step %d (%s): seed must have 2 values", i, s.Op)
		}
		if s.Offset != nil && len(s.Offset) != 2 {
			return fmt.Errorf("step %d (%s): offset must have 2 values", i, s.Op)
		}
		switch s.Op {
		case "flood_mask":
			if s.Seed == nil {
				return fmt.Errorf("step %d (%s): seed is required", i, s.Op)
			}
		case "background":
			if s.Color == "" {
				return fmt.Errorf("step %d (%s): color is required", i, s.Op)
			}
		case "caption":
			if s.Text == "" {
				return fmt.Errorf("step %d (%s): text is required", i, s.Op)
			}
		case "background_image", "frame":
			if s.Image == "" {
				return fmt.Errorf("step %d (%s): image is required", i, s.Op)
			}
		}
	}
	return nil
}

func (r Recipe) path(p string) string {
	if p == "" || filepath.IsAbs(p) || r.dir == "" {
		return p
	}
	return filepath.Join(r.dir, p)
}

// SourcePath returns the recipe source resolved against the recipe directory.
func (r Recipe) SourcePath() string { return r.path(r.Source) }

// Workspace builds a workspace for src configured by the recipe. size, when non-zero,
// overrides the recipe size; without either the default export size is used.
func (r Recipe) Workspace(src *image.NRGBA, size image.Point) (*render.Workspace, error) {
	ws := render.NewWorkspace(src)
	if size == (image.Point{}) && r.Size != "" {
		s, err := ParseSize(r.Size)
		if err != nil {
			return nil, err
		}
		size = s
	}
	if size != (image.Point{}) {
		if err := ws.SetExportSize(size); err != nil {
			return nil, err
		}
	}
	if len(r.Offset) == 2 {
		ws.SetOffset(imgops.PointF{X: r.Offset[0], Y: r.Offset[1]})
	}
	if r.Zoom > 0 {
		if err := ws.SetZoom(r.Zoom); err != nil {
			return nil, err
		}
	}
	for i, s := range r.Steps {
		m, err := r.modifier(s, src)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, s.Op, err)
		}
		ws.AddModifier(m)
	}
	return ws, nil
}

func (r Recipe) modifier(s Step, src *image.NRGBA) (render.Modifier, error) {
	switch s.Op {
	case "greenscreen":
		g := render.NewGreenscreen()
		if s.Key != "" {
			c, err := imgops.ParseHexColor(s.Key)
			if err != nil {
				return nil, err
			}
			g.SetKey(c)
		}
		if s.Range != nil {
			g.SetRange(*s.Range)
		}
		if s.SoftBorder != nil {
			g.SetSoftBorder(*s.SoftBorder)
		}
		return g, nil

	case "flood_mask":
		f := render.NewFloodMask()
		if s.Threshold != nil {
			if err := f.SetThreshold(*s.Threshold); err != nil {
				return nil, err
			}
		}
		if s.SoftBorder != nil {
			if err := f.SetSoftBorder(*s.SoftBorder); err != nil {
				return nil, err
			}
		}
		if err := f.Pick(src, image.Point{X: s.Seed[0], Y: s.Seed[1]}); err != nil {
			return nil, err
		}
		return f, nil

	case "background":
		c, err := imgops.ParseHexColor(s.Color)
		if err != nil {
			return nil, err
		}
		return render.NewColorBackground(c), nil

	case "background_image":
		img, _, err := LoadImage(r.path(s.Image))
		if err != nil {
			return nil, err
		}
		b := render.NewImageBackground(img)
		if len(s.Offset) == 2 {
			b.SetOffset(imgops.PointF{X: s.Offset[0], Y: s.Offset[1]})
		}
		if s.Zoom > 0 {
			b.SetZoom(s.Zoom)
		}
		return b, nil

	case "frame":
		img, _, err := LoadImage(r.path(s.Image))
		if err != nil {
			return nil, err
		}
		name := filepath.Base(s.Image)
		if s.Mask != "" {
			mask, err := LoadMask(r.path(s.Mask))
			if err != nil {
				return nil, err
			}
			return render.NewFrame(name, img, mask)
		}
		seed := image.Point{X: img.Rect.Dx() / 2, Y: img.Rect.Dy() / 2}
		if len(s.Seed) == 2 {
			seed = image.Point{X: s.Seed[0], Y: s.Seed[1]}
		}
		return render.NewFrameFromSeed(name, img, seed)

	case "caption":
		c := color.NRGBA{255, 255, 255, 255}
		if s.Color != "" {
			var err error
			if c, err = imgops.ParseHexColor(s.Color); err != nil {
				return nil, err
			}
		}
		face, err := imgops.LoadFace(r.path(s.Font), s.FontSize)
		if err != nil {
			return nil, err
		}
		return render.NewCaption(s.Text, c, face), nil
	}
	return nil, fmt.Errorf("unknown op %q", s.Op)
}
