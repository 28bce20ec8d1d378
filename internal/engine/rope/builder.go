package rope

import "io"

// Builder accumulates pieces with repeated concatenation, the way a script
// loop using "+" would. Nothing is copied until the result is observed.
//
// A Builder is not safe for concurrent use; the Ropes it produces are.
type Builder struct {
	c   *Concatenator
	acc StringLike
	err error
}

// NewBuilder creates a Builder that concatenates with c.
// A nil c uses the Default Concatenator.
func NewBuilder(c *Concatenator) *Builder {
	if c == nil {
		c = Default
	}
	return &Builder{c: c}
}

// Append concatenates s onto the accumulated value.
// After the first error, further appends are ignored and Build returns it.
func (b *Builder) Append(s StringLike) error {
	if b.err != nil {
		return b.err
	}
	if b.c == nil {
		b.c = Default
	}
	if b.acc == nil {
		b.acc = orEmpty(s)
		return nil
	}
	r, err := b.c.Concat(b.acc, s)
	if err != nil {
		b.err = err
		return err
	}
	b.acc = r
	return nil
}

// WriteString appends a string.
func (b *Builder) WriteString(s string) (int, error) {
	if err := b.Append(Flat(s)); err != nil {
		return 0, err
	}
	return len(s), nil
}

// Write implements io.Writer.
func (b *Builder) Write(p []byte) (int, error) {
	return b.WriteString(string(p))
}

// WriteByte appends a single byte.
func (b *Builder) WriteByte(c byte) error {
	_, err := b.WriteString(string([]byte{c}))
	return err
}

// ReadFrom implements io.ReaderFrom. Each read becomes one leaf.
func (b *Builder) ReadFrom(r io.Reader) (int64, error) {
	buf := make([]byte, 64*1024) // 64KB read buffer
	var total int64

	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := b.Write(buf[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// Len returns the total number of bytes appended.
func (b *Builder) Len() int {
	if b.acc == nil {
		return 0
	}
	return b.acc.Len()
}

// Reset clears the builder for reuse.
func (b *Builder) Reset() {
	b.acc = nil
	b.err = nil
}

// Build returns the accumulated value and resets the builder.
// An empty builder yields Flat("").
func (b *Builder) Build() (StringLike, error) {
	acc, err := b.acc, b.err
	b.Reset()
	if err != nil {
		return nil, err
	}
	return orEmpty(acc), nil
}

// Join concatenates parts with sep between each pair.
func Join(parts []StringLike, sep string) (StringLike, error) {
	b := NewBuilder(nil)
	for i, p := range parts {
		if i > 0 && sep != "" {
			if err := b.Append(Flat(sep)); err != nil {
				return nil, err
			}
		}
		if err := b.Append(p); err != nil {
			return nil, err
		}
	}
	return b.Build()
}
