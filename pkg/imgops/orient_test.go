package imgops

import (
	"image"
	"image/color"
	"testing"
)

func TestAutoOrient(t *testing.T) {
	// 3x2 source:
	//   a b c
	//   d e f
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for i := 0; i < 6; i++ {
		src.Pix[i*4] = uint8('a' + i)
		src.Pix[i*4+3] = 255
	}
	cases := []struct {
		orientation int
		want        []string
	}{
		{1, []string{"abc", "def"}},
		{2, []string{"cba", "fed"}},
		{3, []string{"fed", "cba"}},
		{4, []string{"def", "abc"}},
		{5, []string{"ad", "be", "cf"}},
		{6, []string{"da", "eb", "fc"}},
		{7, []string{"fc", "eb", "da"}},
		{8, []string{"cf", "be", "ad"}},
		{9, []string{"abc", "def"}},
	}
	for _, tc := range cases {
		out := AutoOrient(src, tc.orientation)
		if out.Rect.Dy() != len(tc.want) || out.Rect.Dx() != len(tc.want[0]) {
			t.Fatalf("orientation %d: unexpected size %v", tc.orientation, out.Rect)
		}
		for y, row := range tc.want {
			for x := range row {
				if got := nrgbaAt(out, x, y); got != (color.NRGBA{row[x], 0, 0, 255}) {
					t.Fatalf("orientation %d at %d,%d: got %q want %q", tc.orientation, x, y, got.R, row[x])
				}
			}
		}
	}
}
