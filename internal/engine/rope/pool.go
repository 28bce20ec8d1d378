package rope

import (
	"slices"
	"sync"
)

// maxPooledStack is the largest stack capacity returned to the pool.
// Stacks grown for unusually deep trees are left to the garbage collector.
const maxPooledStack = 4096

// stackPool recycles flatten stacks between calls.
var stackPool = sync.Pool{
	New: func() interface{} {
		s := make([]StringLike, 0, 64)
		return &s
	},
}

// getStack retrieves an empty stack with room for at least capacity entries.
func getStack(capacity int) *[]StringLike {
	s := stackPool.Get().(*[]StringLike)
	*s = slices.Grow((*s)[:0], capacity)
	return s
}

// putStack returns a stack to the pool.
func putStack(s *[]StringLike) {
	if s == nil {
		return
	}
	// Clear references so pooled stacks don't pin subtrees
	clear((*s)[:cap(*s)])
	*s = (*s)[:0]
	if cap(*s) <= maxPooledStack {
		stackPool.Put(s)
	}
}
