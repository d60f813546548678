package pipeline

import "sort"

// ArgSpec describes a single field of an operation. Fields are textual and intended for
// help and recipe documentation rather than machine-enforced typing.
type ArgSpec struct {
	Name        string // field name as used in recipes
	Type        string // "int", "float", "color", "path", "point", ...
	Required    bool
	Default     string // textual default (for help only)
	Description string
}

// OperationSpec documents one operation kind.
type OperationSpec struct {
	Name        string
	Args        []ArgSpec
	Usage       string
	Description string
}

// Registry is the authoritative list of chain operations. Keep it synchronized with the
// Operation types in operation.go and the switch in apply.
var Registry = []OperationSpec{
	{
		Name: "begin",
		Args: []ArgSpec{
			{"source", "image", true, "", "source pixel buffer"},
			{"resolution", "point", true, "", "canvas width and height"},
			{"focus", "pointf", true, "", "source point shown at the canvas center"},
			{"scale", "float", false, "1.0", "zoom factor; >1 shows more source, <1 less"},
		},
		Usage:       "begin <source> <resolution> <focus> [scale]",
		Description: "Resample the source into the canvas (nearest neighbour, transparent outside the source).",
	},
	{
		Name:        "mask",
		Args:        []ArgSpec{{"mask", "mask", true, "", "gray mask at canvas resolution"}},
		Usage:       "mask <mask>",
		Description: "Tighten canvas alpha where the mask is below 255 and below the current alpha.",
	},
	{
		Name:        "blend",
		Args:        []ArgSpec{{"overlay", "image", true, "", "overlay at canvas resolution"}},
		Usage:       "blend <overlay>",
		Description: "Draw the overlay over the canvas using its alpha.",
	},
	{
		Name:        "background_color",
		Args:        []ArgSpec{{"color", "color", true, "", "hex color or name (alpha ignored)"}},
		Usage:       "background_color <color>",
		Description: "Put an opaque color beneath translucent pixels.",
	},
	{
		Name:        "background_image",
		Args:        []ArgSpec{{"image", "image", true, "", "background at canvas resolution"}},
		Usage:       "background_image <image>",
		Description: "Put an image beneath translucent pixels.",
	},
	{
		Name: "mask_color",
		Args: []ArgSpec{
			{"key", "color", true, "", "color to remove"},
			{"range", "float", false, "0.1", "distance keyed out completely (0..1)"},
			{"soft_border", "float", false, "0.01", "width of the fade band after range (0..1)"},
		},
		Usage:       "mask_color <key> [range] [soft_border]",
		Description: "Key out pixels close to a color (greenscreen).",
	},
	{
		Name: "mask_with_offset",
		Args: []ArgSpec{
			{"mask", "mask", true, "", "gray mask in source space"},
			{"focus", "pointf", true, "", "mask point shown at the canvas center"},
			{"scale", "float", false, "1.0", "zoom factor used to resample the mask"},
		},
		Usage:       "mask_with_offset <mask> <focus> [scale]",
		Description: "Resample a source-space mask to the canvas, then apply it like mask.",
	},
}

// Lookup returns the spec for name.
func Lookup(name string) (OperationSpec, bool) {
	for _, s := range Registry {
		if s.Name == name {
			return s, true
		}
	}
	return OperationSpec{}, false
}

// Names returns the registered operation names sorted alphabetically.
func Names() []string {
	names := make([]string, 0, len(Registry))
	for _, s := range Registry {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}
