package cmm

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/kovidgoyal/iccmm/icc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ = fmt.Println

func assert_close(t *testing.T, expected, actual []Float, tol Float, msg ...any) {
	t.Helper()
	require.GreaterOrEqual(t, len(actual), len(expected))
	for i, e := range expected {
		assert.InDelta(t, float64(e), float64(actual[i]), float64(tol), msg...)
	}
}

func begun(t *testing.T, src, dst icc.Signature, first_input bool, profiles ...*icc.Profile) *Cmm {
	t.Helper()
	c := New(src, dst, first_input)
	for _, p := range profiles {
		require.NoError(t, c.AddXformProfile(p))
	}
	require.NoError(t, c.Begin())
	return c
}

func TestCmmChainErrors(t *testing.T) {
	t.Run("space mismatch", func(t *testing.T) {
		c := New(icc.CmykData, icc.UnknownData, true)
		require.ErrorIs(t, c.AddXformProfile(icc.NewSRGBProfile()), StatusBadSpaceLink)
	})
	t.Run("link from the PCS", func(t *testing.T) {
		c := New(icc.RgbData, icc.UnknownData, true)
		require.NoError(t, c.AddXformProfile(icc.NewSRGBProfile()))
		link := icc.NewProfile(icc.LinkClass, icc.RgbData, icc.RgbData)
		require.ErrorIs(t, c.AddXformProfile(link), StatusBadSpaceLink)
	})
	t.Run("no stages", func(t *testing.T) {
		require.ErrorIs(t, New(icc.RgbData, icc.RgbData, true).Begin(), StatusBadXform)
	})
	t.Run("wrong destination", func(t *testing.T) {
		c := New(icc.RgbData, icc.CmykData, true)
		require.NoError(t, c.AddXformProfile(icc.NewSRGBProfile()))
		require.NoError(t, c.AddXformProfile(icc.NewSRGBProfile()))
		require.ErrorIs(t, c.Begin(), StatusBadSpaceLink)
	})
	t.Run("apply before begin", func(t *testing.T) {
		c := New(icc.RgbData, icc.RgbData, true)
		require.NoError(t, c.AddXformProfile(icc.NewSRGBProfile()))
		out := make([]Float, 3)
		require.ErrorIs(t, c.Apply(out, []Float{0, 0, 0}), StatusIncorrectApply)
		_, err := c.NewApplyCmm()
		require.ErrorIs(t, err, StatusIncorrectApply)
	})
	t.Run("add after begin", func(t *testing.T) {
		c := begun(t, icc.RgbData, icc.RgbData, true, icc.NewSRGBProfile(), icc.NewSRGBProfile())
		require.ErrorIs(t, c.AddXformProfile(icc.NewSRGBProfile()), StatusIncorrectApply)
		require.NoError(t, c.Begin())
	})
	t.Run("short buffers", func(t *testing.T) {
		c := begun(t, icc.RgbData, icc.RgbData, true, icc.NewSRGBProfile(), icc.NewSRGBProfile())
		require.ErrorIs(t, c.ApplyBuffer(make([]Float, 6), make([]Float, 5), 2), StatusIncorrectApply)
	})
	t.Run("missing tags", func(t *testing.T) {
		c := New(icc.CmykData, icc.UnknownData, true)
		p := icc.NewProfile(icc.OutputClass, icc.CmykData, icc.LabData)
		require.ErrorIs(t, c.AddXformProfile(p), StatusProfileMissingTag)
	})
}

func TestCmmMatrixTRC(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		c := begun(t, icc.RgbData, icc.RgbData, true, icc.NewSRGBProfile(), icc.NewSRGBProfile())
		assert.Equal(t, 2, c.NumXforms())
		assert.Equal(t, 3, c.SourceSamples())
		assert.Equal(t, 3, c.DestSamples())
		assert.Equal(t, icc.PerceptualRenderingIntent, c.LastIntent())
		assert.Contains(t, c.String(), " → ")
		for _, px := range [][]Float{{0.5, 0.5, 0.5}, {0.2, 0.6, 0.9}, {1, 0, 0}} {
			out := make([]Float, 3)
			require.NoError(t, c.Apply(out, px))
			assert_close(t, px, out, 0.01, px)
		}
	})
	t.Run("to and from Lab", func(t *testing.T) {
		c := begun(t, icc.RgbData, icc.LabData, true, icc.NewSRGBProfile())
		out := make([]Float, 3)
		require.NoError(t, c.Apply(out, []Float{0.5, 0.5, 0.5}))
		lab := append([]Float(nil), out...)
		icc.LabFromPcs(lab)
		assert_close(t, []Float{53.39, 0, 0}, lab, 0.5)

		back := begun(t, icc.LabData, icc.RgbData, false, icc.NewSRGBProfile())
		rgb := make([]Float, 3)
		require.NoError(t, back.Apply(rgb, out))
		assert_close(t, []Float{0.5, 0.5, 0.5}, rgb, 0.01)
	})
	t.Run("to gray", func(t *testing.T) {
		gray := icc.NewGrayProfile("linear gray", icc.LabData, icc.NewGammaCurveTag(1))
		c := begun(t, icc.RgbData, icc.GrayData, true, icc.NewSRGBProfile(), gray)
		out := make([]Float, 1)
		require.NoError(t, c.Apply(out, []Float{0.5, 0.5, 0.5}))
		assert.InDelta(t, 0.5338, float64(out[0]), 0.01)
	})
	t.Run("8 bit", func(t *testing.T) {
		c := begun(t, icc.RgbData, icc.RgbData, true, icc.NewSRGBProfile(), icc.NewSRGBProfile())
		src := []uint8{128, 128, 128, 0, 255, 10}
		dst := make([]uint8, len(src))
		require.NoError(t, c.ApplyUint8(dst, src, 2))
		for i, v := range src {
			assert.InDelta(t, int(v), int(dst[i]), 1)
		}
	})
	t.Run("copy", func(t *testing.T) {
		p := icc.NewSRGBProfile()
		c := New(icc.RgbData, icc.XYZData, true)
		require.NoError(t, c.AddXformCopy(p))
		require.NoError(t, c.Begin())
		assert.Equal(t, icc.XYZData, c.DestSpace())
	})
}

func TestCmmAbsoluteIntent(t *testing.T) {
	wtpt := icc.XYZNumber{X: 0.9505, Y: 1, Z: 1.089}
	profile := func() *icc.Profile {
		p := icc.NewSRGBProfile()
		p.AttachTag(icc.MediaWhitePointTagSignature, icc.NewXYZTag(wtpt))
		return p
	}
	white := func(c *Cmm) []Float {
		out := make([]Float, 3)
		require.NoError(t, c.Apply(out, []Float{1, 1, 1}))
		icc.XyzFromPcs(out)
		return out
	}
	abs := New(icc.RgbData, icc.XYZData, true)
	require.NoError(t, abs.AddXformProfile(profile(), Intent(icc.AbsoluteColorimetricRenderingIntent)))
	require.NoError(t, abs.Begin())
	assert_close(t, []Float{wtpt.X, wtpt.Y, wtpt.Z}, white(abs), 0.005)

	rel := New(icc.RgbData, icc.XYZData, true)
	require.NoError(t, rel.AddXformProfile(profile(), Intent(icc.RelativeColorimetricRenderingIntent)))
	require.NoError(t, rel.Begin())
	assert_close(t, []Float{icc.D50.X, icc.D50.Y, icc.D50.Z}, white(rel), 0.005)

	back := New(icc.XYZData, icc.RgbData, false)
	require.NoError(t, back.AddXformProfile(profile(), Intent(icc.AbsoluteColorimetricRenderingIntent)))
	require.NoError(t, back.Begin())
	assert.Equal(t, icc.AbsoluteColorimetricRenderingIntent, back.LastIntent())
	src := []Float{wtpt.X, wtpt.Y, wtpt.Z}
	icc.XyzToPcs(src)
	out := make([]Float, 3)
	require.NoError(t, back.Apply(out, src))
	assert_close(t, []Float{1, 1, 1}, out, 0.01)
}

func TestCmmParallel(t *testing.T) {
	c := begun(t, icc.RgbData, icc.LabData, true, icc.NewSRGBProfile())
	const n = 1000
	r := rand.New(rand.NewSource(42))
	src := make([]Float, 3*n)
	for i := range src {
		src[i] = Float(r.Float64())
	}
	serial, par := make([]Float, 3*n), make([]Float, 3*n)
	require.NoError(t, c.ApplyBuffer(serial, src, n))
	require.NoError(t, c.ApplyBufferParallel(par, src, n))
	require.Equal(t, serial, par)
}

func TestCmmMPE(t *testing.T) {
	mpe_profile := func() *icc.Profile {
		p := icc.NewProfile(icc.DisplayClass, icc.RgbData, icc.XYZData)
		p.AttachTag(icc.ProfileDescriptionTagSignature, icc.NewMultiLocalizedUnicodeTag("en", "US", "mpe identity"))
		p.AttachTag(icc.DToB0TagSignature, icc.NewMultiProcessElementTag(3, 3, icc.NewMatrixElement(3, 3)))
		return p
	}
	c := New(icc.RgbData, icc.XYZData, true)
	require.NoError(t, c.AddXformProfile(mpe_profile(), UseMPE(true)))
	require.NoError(t, c.Begin())
	out := make([]Float, 3)
	require.NoError(t, c.Apply(out, []Float{2.5, 0.5, 0.25}))
	icc.XyzFromPcs(out)
	assert_close(t, []Float{2.5, 0.5, 0.25}, out, 0.0001)

	without := New(icc.RgbData, icc.XYZData, true)
	require.ErrorIs(t, without.AddXformProfile(mpe_profile()), StatusProfileMissingTag)
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "cmm: color spaces of adjacent profiles do not match", StatusBadSpaceLink.Error())
	err := wrap(StatusColorNotFound, "%q", "x")
	assert.ErrorIs(t, err, StatusColorNotFound)
	assert.NotErrorIs(t, err, StatusBadXform)
}

// lut16_profile maps RGB to version 2 Lab with L the mean of the channels
// and a, b zero.
func lut16_profile(t *testing.T) *icc.Profile {
	l := icc.NewLut16Tag(3, 3)
	c, err := l.NewCLUT(2)
	require.NoError(t, err)
	c.Fill(func(in, out []Float) {
		out[0] = (in[0] + in[1] + in[2]) / 3 * 65280 / 65535
		out[1], out[2] = 32768./65535, 32768./65535
	})
	p := icc.NewProfile(icc.DisplayClass, icc.RgbData, icc.LabData)
	p.AttachTag(icc.ProfileDescriptionTagSignature, icc.NewMultiLocalizedUnicodeTag("en", "US", "lut16 gray"))
	p.AttachTag(icc.AToB0TagSignature, l)
	return p
}

func TestCmmLut(t *testing.T) {
	gray := []Float{0.5, 0.5, 0.5}
	t.Run("to Lab", func(t *testing.T) {
		c := begun(t, icc.RgbData, icc.LabData, true, lut16_profile(t))
		out := make([]Float, 3)
		require.NoError(t, c.Apply(out, gray))
		icc.LabFromPcs(out)
		assert_close(t, []Float{50, 0, 0}, out, 0.05)
	})
	t.Run("to XYZ", func(t *testing.T) {
		c := begun(t, icc.RgbData, icc.XYZData, true, lut16_profile(t))
		out := make([]Float, 3)
		require.NoError(t, c.Apply(out, gray))
		icc.XyzFromPcs(out)
		assert_close(t, []Float{0.1776, 0.1842, 0.1519}, out, 0.001)
	})
	t.Run("into sRGB", func(t *testing.T) {
		c := begun(t, icc.RgbData, icc.RgbData, true, lut16_profile(t), icc.NewSRGBProfile())
		out := make([]Float, 3)
		require.NoError(t, c.Apply(out, gray))
		assert_close(t, []Float{0.4663, 0.4663, 0.4663}, out, 0.005)
	})
}
