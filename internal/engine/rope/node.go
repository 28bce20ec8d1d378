package rope

import (
	"sync"
	"sync/atomic"
)

// Rope is a lazy concatenation of two StringLike values.
//
// A Rope's length is fixed at construction. Its content is produced by the
// first call that needs it and cached on the node; after that the node holds
// only the flat string and releases its children.
//
// Ropes are safe for concurrent use. Children may be shared by any number of
// parent ropes.
type Rope struct {
	length int
	owner  *Concatenator

	mu   sync.Mutex            // serializes flatten
	snap atomic.Pointer[state] // current snapshot, replaced once
}

// state is an immutable snapshot of a node. A lazy snapshot has left/right
// set; a flat snapshot has done set and only flat is meaningful.
type state struct {
	left, right StringLike
	nodes       int
	spine       int

	flat string
	done bool
}

// newRope creates a lazy node of the given length. Operands must be non-nil.
func newRope(owner *Concatenator, left, right StringLike, length int) *Rope {
	nodes := 1
	leftSpine, rightSpine := 0, 1

	if ls := lazyState(left); ls != nil {
		nodes += ls.nodes
		leftSpine += ls.spine
	}
	if rs := lazyState(right); rs != nil {
		nodes += rs.nodes
		rightSpine += rs.spine
	}

	r := &Rope{
		length: length,
		owner:  owner,
	}
	r.snap.Store(&state{
		left:  left,
		right: right,
		nodes: nodes,
		spine: max(leftSpine, rightSpine),
	})
	return r
}

// lazyState returns the lazy snapshot of s, or nil if s is not an
// unflattened Rope.
func lazyState(s StringLike) *state {
	r, ok := s.(*Rope)
	if !ok || r == nil {
		return nil
	}
	st := r.load()
	if st.done {
		return nil
	}
	return st
}

// Len returns the byte length. It never flattens.
func (r *Rope) Len() int {
	if r == nil {
		return 0
	}
	return r.length
}

// Materialized reports whether the flat value has been computed.
func (r *Rope) Materialized() bool {
	if r == nil {
		return true
	}
	return r.load().done
}

// Nodes returns the number of lazy nodes in this tree, or 0 once materialized.
func (r *Rope) Nodes() int {
	return r.Stats().Nodes
}

// RightSpine returns the right-edge depth used to size the flatten stack,
// or 0 once materialized.
func (r *Rope) RightSpine() int {
	return r.Stats().RightSpine
}

// Stats returns a snapshot of the node's bookkeeping.
func (r *Rope) Stats() Stats {
	if r == nil {
		return Stats{Materialized: true}
	}
	st := r.load()
	if st.done {
		return Stats{Len: r.length, Materialized: true}
	}
	return Stats{Len: r.length, Nodes: st.nodes, RightSpine: st.spine}
}
