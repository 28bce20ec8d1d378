package rope

// CharAt returns the byte at index i, flattening the rope on first use.
func (r *Rope) CharAt(i int) (byte, error) {
	if err := checkIndex(i, r.Len()); err != nil {
		return 0, err
	}
	s, err := r.Flatten()
	if err != nil {
		return 0, err
	}
	return s[i], nil
}

// SubSequence returns the bytes in [start, end) as a plain string.
// The result is always flat; it never shares structure with the rope.
func (r *Rope) SubSequence(start, end int) (string, error) {
	if err := checkRange(start, end, r.Len()); err != nil {
		return "", err
	}
	s, err := r.Flatten()
	if err != nil {
		return "", err
	}
	return s[start:end], nil
}

// String returns the full content. It panics if the content cannot be
// allocated; use Flatten to handle that case as an error.
func (r *Rope) String() string {
	s, err := r.Flatten()
	if err != nil {
		panic(err)
	}
	return s
}
