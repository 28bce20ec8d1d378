package store

import (
	"encoding"

	"github.com/dshills/consrope/internal/engine/rope"
)

// encode materializes v. Values that implement encoding.BinaryMarshaler,
// such as *rope.Rope, are written through it.
func encode(v rope.StringLike) ([]byte, error) {
	if m, ok := v.(encoding.BinaryMarshaler); ok {
		return m.MarshalBinary()
	}
	s, err := rope.Materialize(v)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func decode(data []byte) (*rope.Rope, error) {
	r := new(rope.Rope)
	if err := r.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return r, nil
}
