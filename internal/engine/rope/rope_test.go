package rope

import (
	"errors"
	"strings"
	"testing"
	"testing/quick"
)

func TestWorkedExample(t *testing.T) {
	r := MustConcat(MustConcat(Flat("ab"), Flat("cd")), Flat("ef"))

	if r.Len() != 6 {
		t.Errorf("Len() = %d, want 6", r.Len())
	}
	if r.Materialized() {
		t.Error("Len() should not flatten")
	}
	if got := r.String(); got != "abcdef" {
		t.Errorf("String() = %q, want %q", got, "abcdef")
	}
	c, err := r.CharAt(4)
	if err != nil {
		t.Fatalf("CharAt(4) error = %v", err)
	}
	if c != 'e' {
		t.Errorf("CharAt(4) = %q, want 'e'", c)
	}
	sub, err := r.SubSequence(2, 5)
	if err != nil {
		t.Fatalf("SubSequence(2, 5) error = %v", err)
	}
	if sub != "cde" {
		t.Errorf("SubSequence(2, 5) = %q, want %q", sub, "cde")
	}
}

func TestConcatShapes(t *testing.T) {
	tests := []struct {
		name string
		r    *Rope
		want string
	}{
		{"two flats", MustConcat(Flat("hello "), Flat("world")), "hello world"},
		{"empty left", MustConcat(Flat(""), Flat("x")), "x"},
		{"empty right", MustConcat(Flat("x"), Flat("")), "x"},
		{"both empty", MustConcat(Flat(""), Flat("")), ""},
		{"nil operands", MustConcat(nil, nil), ""},
		{"nil left", MustConcat(nil, Flat("abc")), "abc"},
		{"left leaning", MustConcat(MustConcat(MustConcat(Flat("a"), Flat("b")), Flat("c")), Flat("d")), "abcd"},
		{"right leaning", MustConcat(Flat("a"), MustConcat(Flat("b"), MustConcat(Flat("c"), Flat("d")))), "abcd"},
		{"balanced", MustConcat(MustConcat(Flat("ab"), Flat("cd")), MustConcat(Flat("ef"), Flat("gh"))), "abcdefgh"},
		{"unicode bytes", MustConcat(Flat("日本"), Flat("語")), "日本語"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.r.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", tt.r.Len(), len(tt.want))
			}
			if got := tt.r.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSharedSubtree(t *testing.T) {
	shared := MustConcat(Flat("foo"), Flat("bar"))
	a := MustConcat(shared, Flat("!"))
	b := MustConcat(Flat(">"), shared)
	c := MustConcat(shared, shared)

	if got := a.String(); got != "foobar!" {
		t.Errorf("a = %q, want %q", got, "foobar!")
	}
	if shared.Materialized() {
		t.Error("flattening a parent should not flatten the shared child")
	}
	if got := b.String(); got != ">foobar" {
		t.Errorf("b = %q, want %q", got, ">foobar")
	}
	if got := c.String(); got != "foobarfoobar" {
		t.Errorf("c = %q, want %q", got, "foobarfoobar")
	}
	if got := shared.String(); got != "foobar" {
		t.Errorf("shared = %q, want %q", got, "foobar")
	}
}

func TestBookkeeping(t *testing.T) {
	a, b, c := Flat("a"), Flat("b"), Flat("c")

	tests := []struct {
		name      string
		r         *Rope
		nodes     int
		rightEdge int
	}{
		{"leaf pair", MustConcat(a, b), 1, 1},
		{"left nested", MustConcat(MustConcat(a, b), c), 2, 1},
		{"right nested", MustConcat(a, MustConcat(b, c)), 2, 2},
		{"right chain", MustConcat(a, MustConcat(b, MustConcat(c, a))), 3, 3},
		{"both nested", MustConcat(MustConcat(a, b), MustConcat(b, c)), 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Nodes(); got != tt.nodes {
				t.Errorf("Nodes() = %d, want %d", got, tt.nodes)
			}
			if got := tt.r.RightSpine(); got != tt.rightEdge {
				t.Errorf("RightSpine() = %d, want %d", got, tt.rightEdge)
			}

			_ = tt.r.String()

			st := tt.r.Stats()
			if !st.Materialized || st.Nodes != 0 || st.RightSpine != 0 {
				t.Errorf("Stats() after flatten = %+v, want materialized with zero counts", st)
			}
			if st.Len != tt.r.Len() {
				t.Errorf("Stats().Len = %d, want %d", st.Len, tt.r.Len())
			}
		})
	}
}

func TestFlattenedChildCountsAsLeaf(t *testing.T) {
	inner := MustConcat(MustConcat(Flat("a"), Flat("b")), Flat("c"))
	if inner.Nodes() != 2 {
		t.Fatalf("inner.Nodes() = %d, want 2", inner.Nodes())
	}
	_ = inner.String()

	outer := MustConcat(inner, inner)
	if outer.Nodes() != 1 {
		t.Errorf("outer.Nodes() = %d, want 1", outer.Nodes())
	}
	if outer.RightSpine() != 1 {
		t.Errorf("outer.RightSpine() = %d, want 1", outer.RightSpine())
	}
}

func TestCharAtOutOfRange(t *testing.T) {
	r := MustConcat(Flat("ab"), Flat("cd"))

	for _, i := range []int{-1, 4, 100} {
		_, err := r.CharAt(i)
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("CharAt(%d) error = %v, want ErrIndexOutOfRange", i, err)
		}
		var ie *IndexError
		if !errors.As(err, &ie) {
			t.Fatalf("CharAt(%d) error is not *IndexError", i)
		}
		if ie.Index != i || ie.Len != 4 {
			t.Errorf("IndexError = %+v, want Index=%d Len=4", ie, i)
		}
	}
	if r.Materialized() {
		t.Error("invalid CharAt should not flatten")
	}
}

func TestSubSequenceOutOfRange(t *testing.T) {
	r := MustConcat(Flat("ab"), Flat("cd"))

	tests := []struct {
		start, end int
	}{
		{-1, 2},
		{3, 2},
		{0, 5},
		{5, 5},
	}

	for _, tt := range tests {
		_, err := r.SubSequence(tt.start, tt.end)
		var ie *IndexError
		if !errors.As(err, &ie) {
			t.Fatalf("SubSequence(%d, %d) error = %v, want *IndexError", tt.start, tt.end, err)
		}
		if ie.Start != tt.start || ie.End != tt.end {
			t.Errorf("IndexError = %+v, want Start=%d End=%d", ie, tt.start, tt.end)
		}
	}

	for _, tt := range []struct{ start, end int }{{0, 0}, {4, 4}, {0, 4}, {1, 3}} {
		if _, err := r.SubSequence(tt.start, tt.end); err != nil {
			t.Errorf("SubSequence(%d, %d) unexpected error: %v", tt.start, tt.end, err)
		}
	}
}

func TestFlatAndRopeErrorsMatch(t *testing.T) {
	f := Flat("abcd")
	r := MustConcat(Flat("ab"), Flat("cd"))

	_, ferr := f.CharAt(9)
	_, rerr := r.CharAt(9)
	if ferr.Error() != rerr.Error() {
		t.Errorf("CharAt errors differ: flat %q, rope %q", ferr, rerr)
	}

	_, ferr = f.SubSequence(2, 1)
	_, rerr = r.SubSequence(2, 1)
	if ferr.Error() != rerr.Error() {
		t.Errorf("SubSequence errors differ: flat %q, rope %q", ferr, rerr)
	}
}

func TestIdempotentFlatten(t *testing.T) {
	r := MustConcat(MustConcat(Flat("x"), Flat("y")), Flat("z"))

	first := r.String()
	second := r.String()
	if first != second {
		t.Errorf("successive String() calls differ: %q vs %q", first, second)
	}
	if !r.Materialized() {
		t.Error("rope should be materialized after String()")
	}
}

func TestZeroRope(t *testing.T) {
	var r Rope
	if r.Len() != 0 {
		t.Errorf("zero Rope Len() = %d, want 0", r.Len())
	}
	if r.String() != "" {
		t.Errorf("zero Rope String() = %q, want empty", r.String())
	}

	var nilRope *Rope
	if s, err := Materialize(nilRope); err != nil || s != "" {
		t.Errorf("Materialize(nil *Rope) = %q, %v", s, err)
	}
}

func TestConstructionOverflow(t *testing.T) {
	c := NewConcatenator(WithMaxLength(10))

	if _, err := c.Concat(Flat("12345"), Flat("12345")); err != nil {
		t.Fatalf("Concat at limit error = %v", err)
	}

	_, err := c.Concat(Flat("123456"), Flat("12345"))
	if !errors.Is(err, ErrConstructionOverflow) {
		t.Fatalf("Concat past limit error = %v, want ErrConstructionOverflow", err)
	}
	var oe *OverflowError
	if !errors.As(err, &oe) || oe.Left != 6 || oe.Right != 5 || oe.Limit != 10 {
		t.Errorf("OverflowError = %+v", oe)
	}
}

// sized reports an arbitrary length without holding any bytes.
type sized int

func (s sized) Len() int                             { return int(s) }
func (s sized) CharAt(int) (byte, error)             { return 0, nil }
func (s sized) SubSequence(int, int) (string, error) { return "", nil }
func (s sized) String() string                       { return "" }

func TestConstructionOverflowDoesNotWrap(t *testing.T) {
	half := sized(DefaultMaxLength/2 + 1)
	_, err := Concat(half, half)
	if !errors.Is(err, ErrConstructionOverflow) {
		t.Fatalf("Concat error = %v, want ErrConstructionOverflow", err)
	}
}

func TestAllocationFailure(t *testing.T) {
	half := sized(DefaultMaxLength / 2)
	r, err := Concat(half, half)
	if err != nil {
		t.Fatalf("Concat error = %v", err)
	}

	_, err = r.Flatten()
	if !errors.Is(err, ErrAllocationFailure) {
		t.Fatalf("Flatten error = %v, want ErrAllocationFailure", err)
	}
	if r.Materialized() {
		t.Error("failed flatten must not publish a result")
	}
	if _, err := r.CharAt(0); !errors.Is(err, ErrAllocationFailure) {
		t.Errorf("CharAt error = %v, want ErrAllocationFailure", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("String() should panic when the buffer cannot be allocated")
		}
	}()
	_ = r.String()
}

// shortLeaf claims more bytes than its String returns.
type shortLeaf struct {
	n int
	s string
}

func (l shortLeaf) Len() int                             { return l.n }
func (l shortLeaf) CharAt(int) (byte, error)             { return 0, nil }
func (l shortLeaf) SubSequence(int, int) (string, error) { return "", nil }
func (l shortLeaf) String() string                       { return l.s }

func TestLeafLengthMismatch(t *testing.T) {
	tests := []struct {
		name string
		leaf shortLeaf
	}{
		{"short", shortLeaf{n: 4, s: "zz"}},
		{"long", shortLeaf{n: 1, s: "zz"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := MustConcat(Flat("ab"), tt.leaf)
			got, err := r.Flatten()
			if err == nil {
				t.Fatalf("Flatten = %q, want an error", got)
			}
			if r.Materialized() {
				t.Error("a mismatched leaf must not publish a result")
			}
		})
	}
}

func TestMaxFlattenBytes(t *testing.T) {
	c := NewConcatenator(WithMaxFlattenBytes(4))

	small := c.MustConcat(Flat("ab"), Flat("cd"))
	if got := small.String(); got != "abcd" {
		t.Errorf("String() = %q, want %q", got, "abcd")
	}

	big := c.MustConcat(Flat("abc"), Flat("de"))
	_, err := big.Flatten()
	var ae *AllocationError
	if !errors.As(err, &ae) || ae.Size != 5 {
		t.Errorf("Flatten error = %v, want AllocationError of size 5", err)
	}
}

func TestMaterializeAndEqual(t *testing.T) {
	r := MustConcat(Flat("ab"), Flat("c"))

	tests := []struct {
		name string
		in   StringLike
		want string
	}{
		{"nil", nil, ""},
		{"flat", Flat("xyz"), "xyz"},
		{"rope", r, "abc"},
		{"other", sized(0), ""},
	}
	for _, tt := range tests {
		got, err := Materialize(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("%s: Materialize = %q, %v; want %q", tt.name, got, err, tt.want)
		}
	}

	eqTests := []struct {
		name string
		a, b StringLike
		want bool
	}{
		{"rope and flat", r, Flat("abc"), true},
		{"different content", r, Flat("abd"), false},
		{"nil and empty", nil, Flat(""), true},
	}
	for _, tt := range eqTests {
		got, err := Equal(tt.a, tt.b)
		if err != nil || got != tt.want {
			t.Errorf("%s: Equal = %v, %v; want %v", tt.name, got, err, tt.want)
		}
	}

	other := MustConcat(Flat("a"), Flat("bcd"))
	if eq, err := Equal(r, other); eq || err != nil {
		t.Errorf("Equal with different lengths = %v, %v", eq, err)
	}
	if other.Materialized() {
		t.Error("Equal should not flatten when lengths differ")
	}
}

func TestEqualReportsAllocationFailure(t *testing.T) {
	c := NewConcatenator(WithMaxFlattenBytes(2))
	a := c.MustConcat(Flat("ab"), Flat("c"))
	b := c.MustConcat(Flat("ab"), Flat("c"))

	for _, pair := range [][2]StringLike{{a, b}, {a, a}, {Flat("abc"), b}} {
		eq, err := Equal(pair[0], pair[1])
		if !errors.Is(err, ErrAllocationFailure) {
			t.Errorf("Equal error = %v, want ErrAllocationFailure", err)
		}
		if eq {
			t.Error("Equal must not report true on failure")
		}
	}
}

func TestPropertyConcatLength(t *testing.T) {
	f := func(a, b string) bool {
		r := MustConcat(Flat(a), Flat(b))
		return r.Len() == len(a)+len(b)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestPropertyConcatContent(t *testing.T) {
	f := func(a, b string) bool {
		return MustConcat(Flat(a), Flat(b)).String() == a+b
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

// buildShaped folds parts into a rope; bit i of shape picks whether part i
// is appended (0) or prepended (1) to the accumulated value.
func buildShaped(parts []string, shape uint64) (StringLike, string) {
	var acc StringLike = Flat("")
	want := ""
	for i, p := range parts {
		if shape&(1<<(uint(i)%64)) != 0 {
			acc = MustConcat(Flat(p), acc)
			want = p + want
		} else {
			acc = MustConcat(acc, Flat(p))
			want += p
		}
	}
	return acc, want
}

func TestPropertyShapeIndependence(t *testing.T) {
	f := func(parts []string, shape uint64) bool {
		r, want := buildShaped(parts, shape)
		return r.Len() == len(want) && r.String() == want
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestPropertyCharAtMatchesMaterialized(t *testing.T) {
	f := func(parts []string, shape uint64) bool {
		r, want := buildShaped(parts, shape)
		for i := 0; i < len(want); i++ {
			c, err := r.CharAt(i)
			if err != nil || c != want[i] {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestPropertySubSequenceMatchesMaterialized(t *testing.T) {
	f := func(parts []string, shape uint64, a, b uint16) bool {
		r, want := buildShaped(parts, shape)
		if len(want) == 0 {
			s, err := r.SubSequence(0, 0)
			return err == nil && s == ""
		}
		start := int(a) % (len(want) + 1)
		end := start + int(b)%(len(want)-start+1)
		s, err := r.SubSequence(start, end)
		return err == nil && s == want[start:end]
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestLongLeaves(t *testing.T) {
	a := strings.Repeat("abcdefghij", 1000)
	b := strings.Repeat("0123456789", 1000)
	r := MustConcat(MustConcat(Flat(a), Flat(b)), Flat(a))

	if got := r.String(); got != a+b+a {
		t.Error("content mismatch for long leaves")
	}
}
