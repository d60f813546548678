package render

import (
	"image"

	"github.com/Fepozopo/tokenmaker/pkg/imgops"
	"github.com/Fepozopo/tokenmaker/pkg/pipeline"
)

// View is what a modifier sees of the workspace when it contributes to a chain.
type View struct {
	Source     *image.NRGBA
	Resolution image.Point
	Focus      imgops.PointF
	Scale      float64
}

// Modifier is an editable transform of a workspace. Each modifier tracks its own dirty
// state and turns its current settings into chain operations on demand.
type Modifier interface {
	// Label names the modifier for listings.
	Label() string
	// Operations returns the operations for the modifier's current settings. Buffers in the
	// returned operations must already have v.Resolution where the operation requires it.
	Operations(v View) ([]pipeline.Operation, error)
	// Dirty reports whether settings changed since the last SetClean.
	Dirty() bool
	// SetClean lowers the dirty flag and reports whether it was raised. The test and
	// the clear are one atomic step, so a change cannot land between them unseen.
	SetClean() bool
}
