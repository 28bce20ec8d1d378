package rope

// StringLike is the contract shared by Flat strings and lazy Ropes, so code
// that consumes concatenation results does not care which one it holds.
type StringLike interface {
	// Len returns the length in bytes. It never flattens.
	Len() int

	// CharAt returns the byte at index i, or an *IndexError.
	CharAt(i int) (byte, error)

	// SubSequence returns the bytes in [start, end) as a string, or an *IndexError.
	SubSequence(start, end int) (string, error)

	// String returns the full content.
	String() string
}

// Flat is an immutable primitive string.
type Flat string

// Len returns the byte length.
func (f Flat) Len() int {
	return len(f)
}

// CharAt returns the byte at index i.
func (f Flat) CharAt(i int) (byte, error) {
	if err := checkIndex(i, len(f)); err != nil {
		return 0, err
	}
	return f[i], nil
}

// SubSequence returns f[start:end].
func (f Flat) SubSequence(start, end int) (string, error) {
	if err := checkRange(start, end, len(f)); err != nil {
		return "", err
	}
	return string(f[start:end]), nil
}

// String returns the string.
func (f Flat) String() string {
	return string(f)
}

// Materialize returns the flat content of s. Ropes are flattened (once);
// other values are returned through String. A nil value is the empty string.
func Materialize(s StringLike) (string, error) {
	switch v := s.(type) {
	case nil:
		return "", nil
	case Flat:
		return string(v), nil
	case *Rope:
		return v.Flatten()
	default:
		return v.String(), nil
	}
}

// Equal reports whether a and b have the same content.
// Lengths are compared first, so ropes of different lengths are not flattened.
// A flatten failure is returned, never reported as inequality.
func Equal(a, b StringLike) (bool, error) {
	a, b = orEmpty(a), orEmpty(b)
	if a.Len() != b.Len() {
		return false, nil
	}
	as, err := Materialize(a)
	if err != nil {
		return false, err
	}
	bs, err := Materialize(b)
	if err != nil {
		return false, err
	}
	return as == bs, nil
}

// orEmpty maps a nil operand to the empty Flat.
func orEmpty(s StringLike) StringLike {
	if s == nil {
		return Flat("")
	}
	return s
}
