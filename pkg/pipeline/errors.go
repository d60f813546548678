package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyChain is returned when a chain has no operations.
	ErrEmptyChain = errors.New("empty chain")
	// ErrMissingBegin is returned when the first operation of a chain is not Begin.
	ErrMissingBegin = errors.New("chain does not start with begin")
	// ErrMisplacedBegin is returned when Begin appears after the first position.
	ErrMisplacedBegin = errors.New("begin is only allowed as the first operation")
	// ErrUnknownOperation is returned for operations outside the closed operation set.
	ErrUnknownOperation = errors.New("unknown operation")
)

// OpError reports the operation that failed while validating or executing a chain.
type OpError struct {
	Index int
	Op    string
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("operation %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
