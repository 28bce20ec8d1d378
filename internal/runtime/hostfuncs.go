package runtime

import (
	"context"

	"github.com/risor-io/risor/object"

	"github.com/dshills/consrope/internal/engine/rope"
)

// ropeValue is the Go value behind a rope in a script. Scripts only pass
// it back to the builtins.
type ropeValue struct {
	v rope.StringLike
}

func newRopeObject(v rope.StringLike) object.Object {
	p, err := object.NewProxy(&ropeValue{v: v})
	if err != nil {
		return object.Errorf("rope: proxy error: %v", err)
	}
	return p
}

// unwrap returns the StringLike carried by obj, if any.
func unwrap(obj object.Object) (rope.StringLike, bool) {
	p, ok := obj.(*object.Proxy)
	if !ok {
		return nil, false
	}
	rv, ok := p.Interface().(*ropeValue)
	if !ok {
		return nil, false
	}
	return rv.v, true
}

// toStringLike accepts a rope or a string.
func toStringLike(obj object.Object) (rope.StringLike, bool) {
	if s, ok := obj.(*object.String); ok {
		return rope.Flat(s.Value()), true
	}
	return unwrap(obj)
}

// makeRopeFn creates the "rope" host function.
//
// rope(parts...) → rope
func makeRopeFn(c *rope.Concatenator) *object.Builtin {
	return object.NewBuiltin("rope", func(ctx context.Context, args ...object.Object) object.Object {
		b := rope.NewBuilder(c)
		for i, arg := range args {
			sl, ok := toStringLike(arg)
			if !ok {
				return object.Errorf("rope: argument %d must be a string or rope, got %s", i+1, arg.Type())
			}
			if err := b.Append(sl); err != nil {
				return object.Errorf("rope: %v", err)
			}
		}
		v, err := b.Build()
		if err != nil {
			return object.Errorf("rope: %v", err)
		}
		return newRopeObject(v)
	})
}

// makeConcatFn creates the "concat" host function.
//
// concat(left, right) → rope
func makeConcatFn(c *rope.Concatenator) *object.Builtin {
	return object.NewBuiltin("concat", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("concat", 2, len(args))
		}
		left, ok := toStringLike(args[0])
		if !ok {
			return object.Errorf("concat: left must be a string or rope, got %s", args[0].Type())
		}
		right, ok := toStringLike(args[1])
		if !ok {
			return object.Errorf("concat: right must be a string or rope, got %s", args[1].Type())
		}
		r, err := c.Concat(left, right)
		if err != nil {
			return object.Errorf("concat: %v", err)
		}
		return newRopeObject(r)
	})
}

// makeLenFn creates the "rope_len" host function. It never flattens.
//
// rope_len(value) → int
func makeLenFn() *object.Builtin {
	return object.NewBuiltin("rope_len", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("rope_len", 1, len(args))
		}
		sl, ok := toStringLike(args[0])
		if !ok {
			return object.Errorf("rope_len: expected string or rope, got %s", args[0].Type())
		}
		return object.NewInt(int64(sl.Len()))
	})
}

// makeCharAtFn creates the "char_at" host function.
//
// char_at(value, index) → string of one byte
func makeCharAtFn() *object.Builtin {
	return object.NewBuiltin("char_at", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("char_at", 2, len(args))
		}
		sl, ok := toStringLike(args[0])
		if !ok {
			return object.Errorf("char_at: expected string or rope, got %s", args[0].Type())
		}
		idx, ok := args[1].(*object.Int)
		if !ok {
			return object.Errorf("char_at: index must be an int, got %s", args[1].Type())
		}
		c, err := sl.CharAt(int(idx.Value()))
		if err != nil {
			return object.Errorf("char_at: %v", err)
		}
		return object.NewString(string([]byte{c}))
	})
}

// makeSubstrFn creates the "substr" host function.
//
// substr(value, start, end) → string
func makeSubstrFn() *object.Builtin {
	return object.NewBuiltin("substr", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 3 {
			return object.NewArgsError("substr", 3, len(args))
		}
		sl, ok := toStringLike(args[0])
		if !ok {
			return object.Errorf("substr: expected string or rope, got %s", args[0].Type())
		}
		start, ok1 := args[1].(*object.Int)
		end, ok2 := args[2].(*object.Int)
		if !ok1 || !ok2 {
			return object.Errorf("substr: start and end must be ints")
		}
		s, err := sl.SubSequence(int(start.Value()), int(end.Value()))
		if err != nil {
			return object.Errorf("substr: %v", err)
		}
		return object.NewString(s)
	})
}

// makeMaterializeFn creates the "materialize" host function.
//
// materialize(value) → string
func makeMaterializeFn() *object.Builtin {
	return object.NewBuiltin("materialize", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("materialize", 1, len(args))
		}
		sl, ok := toStringLike(args[0])
		if !ok {
			return object.Errorf("materialize: expected string or rope, got %s", args[0].Type())
		}
		s, err := rope.Materialize(sl)
		if err != nil {
			return object.Errorf("materialize: %v", err)
		}
		return object.NewString(s)
	})
}

// makeFlattenedFn creates the "flattened" host function.
//
// flattened(value) → bool
func makeFlattenedFn() *object.Builtin {
	return object.NewBuiltin("flattened", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("flattened", 1, len(args))
		}
		sl, ok := toStringLike(args[0])
		if !ok {
			return object.Errorf("flattened: expected string or rope, got %s", args[0].Type())
		}
		r, isRope := sl.(*rope.Rope)
		return object.NewBool(!isRope || r.Materialized())
	})
}

// makeNodesFn creates the "rope_nodes" host function.
//
// rope_nodes(value) → int
func makeNodesFn() *object.Builtin {
	return object.NewBuiltin("rope_nodes", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("rope_nodes", 1, len(args))
		}
		sl, ok := toStringLike(args[0])
		if !ok {
			return object.Errorf("rope_nodes: expected string or rope, got %s", args[0].Type())
		}
		if r, isRope := sl.(*rope.Rope); isRope {
			return object.NewInt(int64(r.Nodes()))
		}
		return object.NewInt(0)
	})
}
