package convert

import (
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/kovidgoyal/iccmm"
	"github.com/kovidgoyal/iccmm/cmm"
	"github.com/kovidgoyal/iccmm/icc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ = fmt.Print

func srgb_identity(t *testing.T) *cmm.Cmm {
	c := cmm.New(icc.RgbData, icc.RgbData, true)
	require.NoError(t, c.AddXformProfile(icc.NewSRGBProfile()))
	require.NoError(t, c.AddXformProfile(icc.NewSRGBProfile()))
	require.NoError(t, c.Begin())
	return c
}

// cmyk_link is a device link doing the naive CMYK to RGB conversion, which a
// two point grid reproduces exactly.
func cmyk_link(t *testing.T) *cmm.Cmm {
	p := icc.NewProfile(icc.LinkClass, icc.CmykData, icc.RgbData)
	l := icc.NewLutAtoBTag(4, 3)
	l.NewIdentityCurves(icc.CurveSlotA)
	l.NewIdentityCurves(icc.CurveSlotB)
	clut, err := l.NewCLUT(2)
	require.NoError(t, err)
	clut.Fill(func(in, out []icc.Float) {
		for i := range out {
			out[i] = (1 - in[i]) * (1 - in[3])
		}
	})
	p.AttachTag(icc.AToB0TagSignature, l)
	c := cmm.New(icc.CmykData, icc.RgbData, true)
	require.NoError(t, c.AddXformProfile(p))
	require.NoError(t, c.Begin())
	return c
}

func random_pixels(pix []uint8) {
	r := rand.New(rand.NewSource(7))
	for i := range pix {
		pix[i] = uint8(r.Intn(256))
	}
}

func assert_bytes_close(t *testing.T, expected, actual []uint8, tol int) {
	t.Helper()
	require.Equal(t, len(expected), len(actual))
	for i, e := range expected {
		if d := int(e) - int(actual[i]); d > tol || d < -tol {
			require.Failf(t, "pixel mismatch", "at %d: %d != %d", i, e, actual[i])
		}
	}
}

func TestConvertIdentity(t *testing.T) {
	c := srgb_identity(t)
	r := image.Rect(0, 0, 13, 7)
	t.Run("NRGBA", func(t *testing.T) {
		img := image.NewNRGBA(r)
		random_pixels(img.Pix)
		orig := append([]uint8(nil), img.Pix...)
		ans, err := Image(c, img, Workers(3))
		require.NoError(t, err)
		require.Same(t, img, ans)
		assert_bytes_close(t, orig, img.Pix, 1)
	})
	t.Run("RGBA", func(t *testing.T) {
		img := image.NewRGBA(r)
		for i := range img.Pix {
			img.Pix[i] = 0xff
			if i%4 != 3 {
				img.Pix[i] = uint8(i)
			}
		}
		orig := append([]uint8(nil), img.Pix...)
		_, err := Image(c, img)
		require.NoError(t, err)
		assert_bytes_close(t, orig, img.Pix, 1)
	})
	t.Run("NRGBA64", func(t *testing.T) {
		img := image.NewNRGBA64(r)
		img.SetNRGBA64(3, 4, color.NRGBA64{R: 0x8000, G: 0x1234, B: 0xfedc, A: 0xffff})
		_, err := Image(c, img)
		require.NoError(t, err)
		px := img.NRGBA64At(3, 4)
		assert.InDelta(t, 0x8000, int(px.R), 80)
		assert.InDelta(t, 0x1234, int(px.G), 80)
		assert.InDelta(t, 0xfedc, int(px.B), 80)
	})
	t.Run("Paletted", func(t *testing.T) {
		img := image.NewPaletted(r, color.Palette{color.NRGBA{R: 200, G: 100, B: 50, A: 255}, color.Transparent})
		_, err := Image(c, img)
		require.NoError(t, err)
		pr, pg, pb, _ := img.Palette[0].RGBA()
		assert.InDelta(t, 200, int(pr>>8), 1)
		assert.InDelta(t, 100, int(pg>>8), 1)
		assert.InDelta(t, 50, int(pb>>8), 1)
		_, _, _, a := img.Palette[1].RGBA()
		assert.Equal(t, uint32(0), a)
	})
	t.Run("gray through RGB", func(t *testing.T) {
		img := image.NewGray(r)
		img.SetGray(1, 1, color.Gray{Y: 77})
		ans, err := Image(c, img)
		require.NoError(t, err)
		px := ans.(*iccmm.NRGB).NRGBAt(1, 1)
		for _, v := range []uint8{px.R, px.G, px.B} {
			assert.InDelta(t, 77, int(v), 1)
		}
	})
	t.Run("empty", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 0, 5))
		ans, err := Image(c, img)
		require.NoError(t, err)
		assert.Same(t, img, ans)
	})
}

func TestConvertGrayProfile(t *testing.T) {
	c := cmm.New(icc.GrayData, icc.RgbData, true)
	require.NoError(t, c.AddXformProfile(icc.NewGrayProfile("linear", icc.XYZData, icc.NewGammaCurveTag(1))))
	require.NoError(t, c.AddXformProfile(icc.NewSRGBProfile()))
	require.NoError(t, c.Begin())
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(0, 0, color.Gray{Y: 128})
	img.SetGray(1, 1, color.Gray{Y: 255})
	ans, err := Image(c, img)
	require.NoError(t, err)
	d := ans.(*iccmm.NRGB)
	for _, v := range []uint8{d.NRGBAt(0, 0).R, d.NRGBAt(0, 0).G, d.NRGBAt(0, 0).B} {
		assert.InDelta(t, 188, int(v), 2)
	}
	assert.InDelta(t, 255, int(d.NRGBAt(1, 1).G), 1)
	assert.InDelta(t, 0, int(d.NRGBAt(0, 1).G), 1)
}

func TestConvertCMYK(t *testing.T) {
	c := cmyk_link(t)
	img := image.NewCMYK(image.Rect(0, 0, 3, 1))
	img.SetCMYK(0, 0, color.CMYK{C: 0, M: 0, Y: 0, K: 0})
	img.SetCMYK(1, 0, color.CMYK{C: 255, M: 0, Y: 255, K: 0})
	img.SetCMYK(2, 0, color.CMYK{C: 0, M: 0, Y: 0, K: 255})
	ans, err := Image(c, img)
	require.NoError(t, err)
	d := ans.(*iccmm.NRGB)
	assert.Equal(t, []uint8{255, 255, 255, 0, 255, 0, 0, 0, 0}, d.Pix)

	_, err = Image(c, image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	require.ErrorIs(t, err, cmm.StatusBadSpaceLink)
	_, err = Image(srgb_identity(t), img)
	require.ErrorIs(t, err, cmm.StatusBadSpaceLink)
}

func TestConvertErrors(t *testing.T) {
	c := cmm.New(icc.RgbData, icc.RgbData, true)
	require.NoError(t, c.AddXformProfile(icc.NewSRGBProfile()))
	_, err := Image(c, image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	require.ErrorIs(t, err, cmm.StatusIncorrectApply)

	lab := cmm.New(icc.RgbData, icc.LabData, true)
	require.NoError(t, lab.AddXformProfile(icc.NewSRGBProfile()))
	require.NoError(t, lab.Begin())
	_, err = Image(lab, image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	require.ErrorIs(t, err, cmm.StatusBadSpaceLink)
}

func TestConvertWorkerErrors(t *testing.T) {
	// a Cmm that was never begun cannot hand out apply contexts
	c := cmm.New(icc.RgbData, icc.RgbData, true)
	require.NoError(t, c.AddXformProfile(icc.NewSRGBProfile()))
	r := image.Rect(0, 0, 4, 4)
	for _, procs := range []int{1, 3} {
		for _, img := range []image.Image{image.NewNRGBA(r), image.NewRGBA64(r), image.NewGray(r), image.NewPaletted(r, color.Palette{color.White})} {
			_, err := convert(c, img, &config{num_procs: procs})
			assert.ErrorIs(t, err, cmm.StatusIncorrectApply, "%T with %d workers", img, procs)
		}
	}
}

func TestToSRGB(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	random_pixels(img.Pix)
	ans, err := ToSRGB(icc.NewSRGBProfile(), img)
	require.NoError(t, err)
	assert.Same(t, img, ans)

	p, err := icc.DisplayP3Profile.NewProfile()
	require.NoError(t, err)
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 255, A: 255})
	_, err = ToSRGB(p, img)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, img.NRGBAAt(0, 0))
	// P3 red is outside sRGB and clips
	assert.Equal(t, uint8(255), img.NRGBAAt(1, 0).R)
	assert.InDelta(t, 0, int(img.NRGBAAt(1, 0).G), 1)
}
