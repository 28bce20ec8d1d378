// Package rope provides a lazy concatenation string for runtimes whose string
// "+" operator is used in loops.
//
// A Rope is a binary node over two StringLike operands. Building one costs
// O(1): no bytes are copied until the content is observed through CharAt,
// SubSequence, String, or one of the encoding hooks. The first observation
// flattens the whole tree into a single string with an iterative walk and
// memoizes it on the node; later observations read the cached value.
//
// Key properties:
//   - Len is O(1) and never flattens
//   - Flattening is non-recursive, so arbitrarily skewed trees are safe
//   - Each node copies its bytes at most once, even under concurrent readers
//   - Trees that grow past a node-count ceiling are flattened eagerly
//   - Serialization and persistence only ever see the flat string
//
// Basic usage:
//
//	r := rope.MustConcat(rope.MustConcat(rope.Flat("ab"), rope.Flat("cd")), rope.Flat("ef"))
//	r.Len()                 // 6, no flatten
//	c, _ := r.CharAt(4)     // 'e', flattens once
//	s, _ := r.SubSequence(2, 5) // "cde", reuses the cached string
//
// Characters are bytes, the same unit Go's built-in string indexes by.
package rope
