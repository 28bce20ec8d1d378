package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/consrope/internal/engine/rope"
)

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New(reg), reg
}

func TestCollector_Construction(t *testing.T) {
	c, _ := newTestCollector(t)
	cc := rope.NewConcatenator(rope.WithObserver(c))

	r, err := cc.Concat(rope.Flat("ab"), rope.Flat("cd"))
	require.NoError(t, err)
	_, err = cc.Concat(r, rope.Flat("ef"))
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ConstructedTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.FlattensTotal.WithLabelValues(ModeLazy)))
}

func TestCollector_LazyFlatten(t *testing.T) {
	c, _ := newTestCollector(t)
	cc := rope.NewConcatenator(rope.WithObserver(c))

	r := cc.MustConcat(rope.Flat("hello, "), rope.Flat("world"))
	_, err := r.Flatten()
	require.NoError(t, err)
	_, err = r.Flatten()
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.FlattensTotal.WithLabelValues(ModeLazy)))
	assert.Equal(t, 12.0, testutil.ToFloat64(c.FlattenedBytes))
}

func TestCollector_EagerFlatten(t *testing.T) {
	c, _ := newTestCollector(t)
	cc := rope.NewConcatenator(rope.WithObserver(c), rope.WithNodeCeiling(3))

	var acc rope.StringLike = rope.Flat("x")
	for range 10 {
		acc = cc.MustConcat(acc, rope.Flat("y"))
	}

	assert.Greater(t, testutil.ToFloat64(c.FlattensTotal.WithLabelValues(ModeEager)), 0.0)
}

func TestCollector_NodeCountStaysUnderCeiling(t *testing.T) {
	c, reg := newTestCollector(t)
	cc := rope.NewConcatenator(rope.WithObserver(c), rope.WithNodeCeiling(3))

	var acc rope.StringLike = rope.Flat("x")
	for range 10 {
		acc = cc.MustConcat(acc, rope.Flat("y"))
	}

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() != "consrope_rope_lazy_nodes" {
			continue
		}
		found = true
		h := mf.GetMetric()[0].GetHistogram()
		assert.Equal(t, uint64(10), h.GetSampleCount())
		// 1, 2, 3 then 0 for each eager flatten: 1+2+3+0+1+2+3+0+1+2.
		assert.Equal(t, 15.0, h.GetSampleSum())
	}
	assert.True(t, found, "lazy_nodes histogram not gathered")
}

func TestCollector_Failures(t *testing.T) {
	c, _ := newTestCollector(t)
	cc := rope.NewConcatenator(rope.WithObserver(c), rope.WithMaxLength(4))

	_, err := cc.Concat(rope.Flat("abc"), rope.Flat("de"))
	require.ErrorIs(t, err, rope.ErrConstructionOverflow)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.FailuresTotal.WithLabelValues(KindOverflow)))
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{rope.ErrConstructionOverflow, KindOverflow},
		{&rope.IndexError{Op: "CharAt", Index: 9, Len: 2}, KindIndex},
		{&rope.AllocationError{Size: 1 << 40}, KindAllocation},
		{errors.New("boom"), KindOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err), "Kind(%v)", tt.err)
	}
}

func TestHandler(t *testing.T) {
	c, reg := newTestCollector(t)
	c.ConstructedTotal.Add(3)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "consrope_rope_constructed_total 3"))
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
