package rope

import (
	"fmt"
	"unsafe"
)

// emptyState backs a zero Rope.
var emptyState = &state{done: true}

// load returns the current snapshot.
func (r *Rope) load() *state {
	if st := r.snap.Load(); st != nil {
		return st
	}
	return emptyState
}

func (r *Rope) observer() Observer {
	if r.owner == nil {
		return nopObserver{}
	}
	return r.owner.observer
}

// Flatten returns the full content, computing it on the first call.
// Later calls, including concurrent ones, return the cached string.
func (r *Rope) Flatten() (string, error) {
	if r == nil {
		return "", nil
	}
	if st := r.load(); st.done {
		return st.flat, nil
	}
	return r.flatten(false)
}

// flatten materializes the node under its lock and publishes the result.
// Only the first caller copies; the rest observe the published snapshot.
func (r *Rope) flatten(eager bool) (string, error) {
	r.mu.Lock()
	st := r.load()
	if st.done {
		r.mu.Unlock()
		return st.flat, nil
	}

	limit := 0
	if r.owner != nil {
		limit = r.owner.maxFlattenBytes
	}

	s, leaves, err := st.materialize(r.length, limit)
	if err != nil {
		r.mu.Unlock()
		r.observer().Failed(err)
		return "", err
	}
	r.snap.Store(&state{flat: s, done: true})
	r.mu.Unlock()

	r.observer().Flattened(FlattenEvent{
		Len:    r.length,
		Nodes:  st.nodes,
		Leaves: leaves,
		Eager:  eager,
	})
	return s, nil
}

// materialize copies every leaf reachable from st into one buffer.
//
// The walk follows right children and stacks the left ones, so leaves are
// visited right to left and the buffer is filled from the end. The stack
// lives on the heap; tree depth never touches the goroutine stack.
func (st *state) materialize(length, limit int) (string, int, error) {
	if length == 0 {
		return "", 0, nil
	}

	buf, err := allocBuffer(length, limit)
	if err != nil {
		return "", 0, err
	}

	stack := getStack(st.spine + 1)
	defer putStack(stack)

	*stack = append(*stack, st.left)
	cur := st.right
	end := length
	leaves := 0

	for {
		if ls := lazyState(cur); ls != nil {
			*stack = append(*stack, ls.left)
			cur = ls.right
			continue
		}

		n := cur.Len()
		if n > end {
			return "", leaves, fmt.Errorf("rope: leaf of length %d overruns %d remaining bytes", n, end)
		}
		if err := copyLeaf(buf[end-n:end], cur); err != nil {
			return "", leaves, err
		}
		end -= n
		leaves++

		top := len(*stack) - 1
		if top < 0 {
			break
		}
		cur = (*stack)[top]
		(*stack)[top] = nil
		*stack = (*stack)[:top]
	}

	if end != 0 {
		return "", leaves, fmt.Errorf("rope: %d bytes left unfilled", end)
	}
	return unsafe.String(unsafe.SliceData(buf), len(buf)), leaves, nil
}

// copyLeaf copies the content of a non-lazy value into dst.
func copyLeaf(dst []byte, leaf StringLike) error {
	switch v := leaf.(type) {
	case Flat:
		copy(dst, v)
	case *Rope:
		s, err := v.Flatten()
		if err != nil {
			return err
		}
		copy(dst, s)
	default:
		s := v.String()
		if len(s) != len(dst) {
			return fmt.Errorf("rope: leaf reports length %d but holds %d bytes", len(dst), len(s))
		}
		copy(dst, s)
	}
	return nil
}

// allocBuffer allocates the flatten destination, converting the runtime's
// out-of-range panic into an AllocationError.
func allocBuffer(n, limit int) (buf []byte, err error) {
	if limit > 0 && n > limit {
		return nil, &AllocationError{Size: n, Reason: fmt.Sprintf("exceeds flatten limit of %d bytes", limit)}
	}
	defer func() {
		if p := recover(); p != nil {
			buf = nil
			err = &AllocationError{Size: n, Reason: fmt.Sprint(p)}
		}
	}()
	return make([]byte, n), nil
}
