package icc

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ = fmt.Println

// linear_clut fills a table with out[o] = sum((i+1+o) * in[i]) / n which
// multilinear interpolation reproduces exactly.
func linear_clut(t *testing.T, n_in, n_out int, grid ...int) *CLUT {
	c, err := NewCLUT(n_in, n_out, grid...)
	require.NoError(t, err)
	c.Fill(func(in, out []Float) {
		for o := range out {
			var s Float
			for i, v := range in {
				s += Float(i+1+o) * v
			}
			out[o] = s / Float(len(in)*(len(in)+o))
		}
	})
	require.NoError(t, c.Begin())
	return c
}

func linear_expected(in []Float, n_out int) []Float {
	ans := make([]Float, n_out)
	for o := range ans {
		var s Float
		for i, v := range in {
			s += Float(i+1+o) * UnitClip(v)
		}
		ans[o] = s / Float(len(in)*(len(in)+o))
	}
	return ans
}

func TestCLUTLayout(t *testing.T) {
	c, err := NewCLUT(3, 2, 2, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{30, 10, 2}, c.DimSize())
	assert.Equal(t, 30, c.NumPoints())
	assert.Len(t, c.Data, 60)
	assert.Equal(t, 30+2*10+4*2, c.GridIndex(1, 2, 4))

	c, err = NewCLUT(4, 3, 9)
	require.NoError(t, err)
	assert.Equal(t, []int{9, 9, 9, 9}, c.GridPoints)

	_, err = NewCLUT(0, 3, 2)
	assert.ErrorIs(t, err, ErrInvalidTag)
	_, err = NewCLUT(16, 3, 2)
	assert.ErrorIs(t, err, ErrInvalidTag)
	c, err = NewCLUT(2, 1, 1, 2)
	require.NoError(t, err)
	assert.ErrorIs(t, c.Begin(), ErrInvalidTag)
}

func TestCLUTFill(t *testing.T) {
	c, err := NewCLUT(2, 2, 3)
	require.NoError(t, err)
	c.Fill(func(in, out []Float) {
		copy(out, in)
	})
	off := c.GridIndex(1, 2)
	assert.Equal(t, []Float{0.5, 1}, c.Data[off:off+2])
	off = c.GridIndex(2, 0)
	assert.Equal(t, []Float{1, 0}, c.Data[off:off+2])
}

func TestCLUTInterpolation(t *testing.T) {
	rng := rand.New(rand.NewSource(1234))
	random_input := func(n int) []Float {
		ans := make([]Float, n)
		for i := range ans {
			ans[i] = Float(rng.Float64()*1.2 - 0.1)
		}
		return ans
	}
	specialized := map[int]func(c *CLUT, dst, src []Float){
		1: (*CLUT).Interp1d, 2: (*CLUT).Interp2d, 3: (*CLUT).Interp3d,
		4: (*CLUT).Interp4d, 5: (*CLUT).Interp5d, 6: (*CLUT).Interp6d,
	}
	for n := 1; n <= 7; n++ {
		t.Run(fmt.Sprintf("Linear%dD", n), func(t *testing.T) {
			c := linear_clut(t, n, 3, 5, 3, 4, 2, 3, 2, 2)
			scratch := c.NewScratch()
			dst := make([]Float, 3)
			for range 50 {
				src := random_input(n)
				expected := linear_expected(src, 3)
				c.InterpND(dst, src, scratch)
				assert.InDeltaSlice(t, expected, dst, 1e-4, "InterpND at %v", src)
				if f := specialized[n]; f != nil {
					f(c, dst, src)
					assert.InDeltaSlice(t, expected, dst, 1e-4, "specialized at %v", src)
				}
				c.Interp(dst, src, false, scratch)
				assert.InDeltaSlice(t, expected, dst, 1e-4, "dispatch at %v", src)
			}
		})
	}
	t.Run("NonLinearNDMatchesSpecialized", func(t *testing.T) {
		for n := 3; n <= 6; n++ {
			c, err := NewCLUT(n, 2, 3)
			require.NoError(t, err)
			for i := range c.Data {
				c.Data[i] = Float(rng.Float64())
			}
			require.NoError(t, c.Begin())
			a, b := make([]Float, 2), make([]Float, 2)
			for range 50 {
				src := random_input(n)
				c.InterpND(a, src, nil)
				specialized[n](c, b, src)
				assert.InDeltaSlice(t, a, b, 1e-5, "%d inputs at %v", n, src)
			}
		}
	})
	t.Run("CornersAreExact", func(t *testing.T) {
		c, err := NewCLUT(3, 1, 4)
		require.NoError(t, err)
		for i := range c.Data {
			c.Data[i] = Float(rng.Float64())
		}
		require.NoError(t, c.Begin())
		dst := make([]Float, 1)
		for x := range 4 {
			for y := range 4 {
				for z := range 4 {
					src := []Float{Float(x) / 3, Float(y) / 3, Float(z) / 3}
					expected := c.Data[c.GridIndex(x, y, z)]
					c.Interp3d(dst, src)
					assert.InDelta(t, expected, dst[0], 1e-5)
					c.Interp3dTetra(dst, src)
					assert.InDelta(t, expected, dst[0], 1e-5)
				}
			}
		}
	})
	t.Run("InputsAreClipped", func(t *testing.T) {
		c := linear_clut(t, 3, 1, 3)
		a, b := make([]Float, 1), make([]Float, 1)
		c.Interp3d(a, []Float{-2, 0.5, 7})
		c.Interp3d(b, []Float{0, 0.5, 1})
		assert.Equal(t, b, a)
		c.Interp3dTetra(a, []Float{1.5, -0.5, 0.25})
		c.Interp3dTetra(b, []Float{1, 0, 0.25})
		assert.Equal(t, b, a)
	})
	t.Run("TetrahedralIsLinearExact", func(t *testing.T) {
		c := linear_clut(t, 3, 3, 5, 4, 3)
		dst := make([]Float, 3)
		for range 100 {
			src := random_input(3)
			c.Interp3dTetra(dst, src)
			assert.InDeltaSlice(t, linear_expected(src, 3), dst, 1e-4, "at %v", src)
			c.Interp(dst, src, true, nil)
			assert.InDeltaSlice(t, linear_expected(src, 3), dst, 1e-4, "at %v", src)
		}
	})
	t.Run("OutputsAreNotClipped", func(t *testing.T) {
		c, err := NewCLUT(1, 1, 2)
		require.NoError(t, err)
		c.Data[0], c.Data[1] = -1, 3
		require.NoError(t, c.Begin())
		dst := make([]Float, 1)
		c.Interp1d(dst, []Float{0.5})
		assert.InDelta(t, 1, dst[0], 1e-6)
		c.Interp1d(dst, []Float{1})
		assert.InDelta(t, 3, dst[0], 1e-6)
	})
}

func TestCLUTNaNInput(t *testing.T) {
	nan := Float(math.NaN())
	assert.Equal(t, Float(0), UnitClip(nan))
	assert.Equal(t, Float(0), UnitClip(-2))
	assert.Equal(t, Float(1), UnitClip(Float(math.Inf(1))))
	for n := 1; n <= 7; n++ {
		c := linear_clut(t, n, 3, 5)
		scratch := c.NewScratch()
		src, zero := make([]Float, n), make([]Float, n)
		for i := range src {
			src[i] = nan
		}
		expected := linear_expected(zero, 3)
		dst := make([]Float, 3)
		require.NotPanics(t, func() { c.Interp(dst, src, false, scratch) }, "%d inputs", n)
		assert.InDeltaSlice(t, expected, dst, 1e-6)
		require.NotPanics(t, func() { c.InterpND(dst, src, scratch) }, "%d inputs", n)
		assert.InDeltaSlice(t, expected, dst, 1e-6)
		if n == 3 {
			require.NotPanics(t, func() { c.Interp(dst, src, true, scratch) })
			assert.InDeltaSlice(t, expected, dst, 1e-6)
		}
	}
}
