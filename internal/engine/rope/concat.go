package rope

import "math"

// Construction limits.
const (
	// DefaultNodeCeiling is the largest lazy node count a Rope may carry.
	// Construction past it flattens the new node before returning it.
	DefaultNodeCeiling = 2000

	// DefaultMaxLength is the largest length a Rope may describe.
	DefaultMaxLength = math.MaxInt
)

// Concatenator builds Ropes under a fixed set of limits.
// A Concatenator is immutable after creation and safe for concurrent use.
type Concatenator struct {
	nodeCeiling     int
	maxLength       int
	maxFlattenBytes int // 0 means unlimited
	observer        Observer
}

// Option configures a Concatenator.
type Option func(*Concatenator)

// WithNodeCeiling sets the lazy node count above which construction flattens
// eagerly. Values below 1 are ignored.
func WithNodeCeiling(n int) Option {
	return func(c *Concatenator) {
		if n >= 1 {
			c.nodeCeiling = n
		}
	}
}

// WithMaxLength sets the largest length a concatenation may produce.
// Values below 0 are ignored.
func WithMaxLength(n int) Option {
	return func(c *Concatenator) {
		if n >= 0 {
			c.maxLength = n
		}
	}
}

// WithMaxFlattenBytes caps the buffer a single flatten may allocate.
// Flattens above the cap fail with ErrAllocationFailure. Zero disables the cap.
func WithMaxFlattenBytes(n int) Option {
	return func(c *Concatenator) {
		if n >= 0 {
			c.maxFlattenBytes = n
		}
	}
}

// WithObserver sets the Observer notified of constructions and flattens.
func WithObserver(o Observer) Option {
	return func(c *Concatenator) {
		if o != nil {
			c.observer = o
		}
	}
}

// NewConcatenator creates a Concatenator with the given options.
func NewConcatenator(opts ...Option) *Concatenator {
	c := &Concatenator{
		nodeCeiling: DefaultNodeCeiling,
		maxLength:   DefaultMaxLength,
		observer:    nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Default is the Concatenator used by the package-level functions.
var Default = NewConcatenator()

// NodeCeiling returns the configured node ceiling.
func (c *Concatenator) NodeCeiling() int {
	return c.nodeCeiling
}

// MaxLength returns the configured maximum length.
func (c *Concatenator) MaxLength() int {
	return c.maxLength
}

// Concat returns a lazy Rope for left followed by right. Nil operands are
// treated as empty strings.
//
// If the new node would carry more lazy nodes than the ceiling, it is
// flattened before being returned; a failure of that flatten is returned.
// The observer sees the node as returned, so its Nodes never exceed the
// ceiling.
func (c *Concatenator) Concat(left, right StringLike) (*Rope, error) {
	left, right = orEmpty(left), orEmpty(right)

	ll, rl := left.Len(), right.Len()
	if ll > c.maxLength-rl {
		err := &OverflowError{Left: ll, Right: rl, Limit: c.maxLength}
		c.observer.Failed(err)
		return nil, err
	}

	r := newRope(c, left, right, ll+rl)
	if r.Nodes() > c.nodeCeiling {
		if _, err := r.flatten(true); err != nil {
			return nil, err
		}
	}
	c.observer.Constructed(r.Stats())
	return r, nil
}

// MustConcat is like Concat but panics on error.
func (c *Concatenator) MustConcat(left, right StringLike) *Rope {
	r, err := c.Concat(left, right)
	if err != nil {
		panic(err)
	}
	return r
}

// Concat concatenates with the Default Concatenator.
func Concat(left, right StringLike) (*Rope, error) {
	return Default.Concat(left, right)
}

// MustConcat concatenates with the Default Concatenator and panics on error.
func MustConcat(left, right StringLike) *Rope {
	return Default.MustConcat(left, right)
}
