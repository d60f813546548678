package pipeline

import (
	"fmt"
	"image"

	"github.com/Fepozopo/tokenmaker/pkg/imgops"
)

// Chain is an ordered, validated list of operations whose first element is Begin.
// The zero Chain is empty and fails to execute.
type Chain struct {
	ops []Operation
}

// BuildChain assembles a chain that resamples source to resolution around focus with scale
// and then applies ops in order. It performs no pixel work.
func BuildChain(source *image.NRGBA, resolution image.Point, focus imgops.PointF, scale float64, ops ...Operation) (Chain, error) {
	all := make([]Operation, 0, len(ops)+1)
	all = append(all, Begin{Source: source, Resolution: resolution, Focus: focus, Scale: scale})
	all = append(all, ops...)
	return NewChain(all...)
}

// NewChain validates a complete list of operations, Begin included.
func NewChain(ops ...Operation) (Chain, error) {
	if err := validate(ops); err != nil {
		return Chain{}, err
	}
	return Chain{ops: append([]Operation(nil), ops...)}, nil
}

// Len returns the number of operations, Begin included.
func (c Chain) Len() int { return len(c.ops) }

// Operations returns a copy of the operations in execution order.
func (c Chain) Operations() []Operation {
	return append([]Operation(nil), c.ops...)
}

// Resolution returns the canvas size the chain renders at.
func (c Chain) Resolution() image.Point {
	if len(c.ops) == 0 {
		return image.Point{}
	}
	if b, ok := c.ops[0].(Begin); ok {
		return b.Resolution
	}
	return image.Point{}
}

// String lists the operation names, e.g. "begin > mask_color > blend".
func (c Chain) String() string {
	s := ""
	for i, op := range c.ops {
		if i > 0 {
			s += " > "
		}
		s += op.Name()
	}
	return s
}

// validate checks the structural rules of a chain: a leading Begin with a non-empty source
// and resolution, no further Begin, and only known operations. Buffer sizes of later
// operations are checked against the canvas when the chain executes.
func validate(ops []Operation) error {
	if len(ops) == 0 {
		return ErrEmptyChain
	}
	begin, ok := ops[0].(Begin)
	if !ok {
		return &OpError{Index: 0, Op: opName(ops[0]), Err: ErrMissingBegin}
	}
	if begin.Source == nil {
		return &OpError{Index: 0, Op: begin.Name(), Err: fmt.Errorf("%w: nil source", imgops.ErrInvalidDimensions)}
	}
	sb := begin.Source.Bounds()
	if sb.Dx() <= 0 || sb.Dy() <= 0 {
		return &OpError{Index: 0, Op: begin.Name(), Err: fmt.Errorf("%w: source is %dx%d", imgops.ErrInvalidDimensions, sb.Dx(), sb.Dy())}
	}
	if begin.Resolution.X <= 0 || begin.Resolution.Y <= 0 {
		return &OpError{Index: 0, Op: begin.Name(), Err: fmt.Errorf("%w: resolution is %dx%d", imgops.ErrInvalidDimensions, begin.Resolution.X, begin.Resolution.Y)}
	}
	for i, op := range ops[1:] {
		switch op.(type) {
		case Begin:
			return &OpError{Index: i + 1, Op: op.Name(), Err: ErrMisplacedBegin}
		case Mask, Blend, BackgroundColor, BackgroundImage, MaskColor, MaskWithOffset:
		default:
			return &OpError{Index: i + 1, Op: opName(op), Err: ErrUnknownOperation}
		}
	}
	return nil
}

func opName(op Operation) string {
	if op == nil {
		return "<nil>"
	}
	return op.Name()
}
