package cmm

import (
	"fmt"
	"testing"

	"github.com/kovidgoyal/iccmm/icc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ = fmt.Println

// doubler records how often it is asked to convert a pixel
type doubler struct {
	calls int
}

func (d *doubler) Apply(dst, src []Float) error {
	d.calls++
	for i, v := range src[:3] {
		dst[i] = 2 * v
	}
	return nil
}

func (d *doubler) NewApplyContext() (Applier, error) { return d, nil }
func (d *doubler) SourceSamples() int                { return 3 }
func (d *doubler) DestSamples() int                  { return 3 }

func TestMru(t *testing.T) {
	d := &doubler{}
	m, err := AttachMru(d, 2)
	require.NoError(t, err)
	out := make([]Float, 3)
	apply := func(px ...Float) []Float {
		t.Helper()
		require.NoError(t, m.Apply(out, px))
		return append([]Float(nil), out...)
	}
	a, b, c := []Float{0.1, 0.2, 0.3}, []Float{0.4, 0.5, 0.6}, []Float{0.7, 0.8, 0.9}

	assert.Equal(t, []Float{0.2, 0.4, 0.6}, apply(a...))
	apply(b...)
	assert.Equal(t, 2, d.calls)
	assert.Equal(t, []Float{0.2, 0.4, 0.6}, apply(a...))
	assert.Equal(t, 2, d.calls, "cache hit must not call the wrapped transform")
	assert.Equal(t, 2, m.apply.Len())

	// b is now the least recently used and is evicted
	apply(c...)
	assert.Equal(t, 3, d.calls)
	assert.Equal(t, 2, m.apply.Len())
	apply(a...)
	assert.Equal(t, 3, d.calls)
	apply(b...)
	assert.Equal(t, 4, d.calls)

	t.Run("keys are exact bits", func(t *testing.T) {
		d.calls = 0
		apply(0, 0, 0)
		apply(0, 0, 0)
		assert.Equal(t, 1, d.calls)
		neg := Float(0)
		neg = -neg
		apply(neg, 0, 0)
		assert.Equal(t, 2, d.calls)
	})

	t.Run("in place", func(t *testing.T) {
		px := []Float{0.25, 0.25, 0.25}
		require.NoError(t, m.Apply(px, px))
		assert.Equal(t, []Float{0.5, 0.5, 0.5}, px)
		again := []Float{0.25, 0.25, 0.25}
		require.NoError(t, m.Apply(out, again))
		assert.Equal(t, []Float{0.5, 0.5, 0.5}, out)
	})

	t.Run("contexts are independent", func(t *testing.T) {
		ctx, err := m.NewApplyMru()
		require.NoError(t, err)
		assert.Equal(t, 0, ctx.Len())
		require.NoError(t, ctx.Apply(out, a))
		assert.Equal(t, 1, ctx.Len())
	})

	t.Run("finalized", func(t *testing.T) {
		require.ErrorIs(t, m.Begin(), StatusIncorrectApply)
		require.ErrorIs(t, m.AddXformProfile(icc.NewSRGBProfile()), StatusIncorrectApply)
		assert.True(t, m.Valid())
		assert.Equal(t, 3, m.SourceSamples())
	})

	t.Run("bad arguments", func(t *testing.T) {
		_, err := AttachMru(d, 0)
		require.ErrorIs(t, err, StatusBadXform)
		c := New(icc.RgbData, icc.RgbData, true)
		require.NoError(t, c.AddXformProfile(icc.NewSRGBProfile()))
		_, err = AttachMru(c, 4)
		require.ErrorIs(t, err, StatusIncorrectApply)
		require.ErrorIs(t, m.Apply(out[:1], a), StatusIncorrectApply)
	})
}

func TestMruWrapsCmm(t *testing.T) {
	c := begun(t, icc.RgbData, icc.LabData, true, icc.NewSRGBProfile())
	m, err := AttachMru(c, 8)
	require.NoError(t, err)
	for _, px := range [][]Float{{0.1, 0.5, 0.9}, {0.3, 0.3, 0.3}, {0.1, 0.5, 0.9}} {
		expected, actual := make([]Float, 3), make([]Float, 3)
		require.NoError(t, c.Apply(expected, px))
		require.NoError(t, m.Apply(actual, px))
		assert.Equal(t, expected, actual)
	}
	assert.Equal(t, 2, m.apply.Len())
	assert.True(t, m.Valid())
}

// switchable is a doubler whose finalized state can be changed
type switchable struct {
	doubler
	valid bool
}

func (s *switchable) Valid() bool { return s.valid }

func TestMruValidFollowsWrapped(t *testing.T) {
	s := &switchable{valid: true}
	m, err := AttachMru(s, 2)
	require.NoError(t, err)
	assert.True(t, m.Valid())
	outer, err := AttachMru(m, 2)
	require.NoError(t, err)
	s.valid = false
	assert.False(t, m.Valid())
	assert.False(t, outer.Valid())
	_, err = AttachMru(m, 2)
	require.ErrorIs(t, err, StatusIncorrectApply)
}
