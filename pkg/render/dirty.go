package render

import "sync/atomic"

// DirtyFlag records that state affecting output pixels changed since the last render.
// The zero value is clean and safe for concurrent use.
type DirtyFlag struct {
	v atomic.Bool
}

// Mark raises the flag.
func (d *DirtyFlag) Mark() { d.v.Store(true) }

// IsSet reports whether the flag is raised.
func (d *DirtyFlag) IsSet() bool { return d.v.Load() }

// Clear lowers the flag and reports whether it was raised.
func (d *DirtyFlag) Clear() bool { return d.v.Swap(false) }
