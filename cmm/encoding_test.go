package cmm

import (
	"fmt"
	"testing"

	"github.com/kovidgoyal/iccmm/icc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ = fmt.Println

func TestEncoding(t *testing.T) {
	buf := make([]Float, 3)
	t.Run("Lab values", func(t *testing.T) {
		require.NoError(t, ToInternalEncoding(icc.LabData, EncodeValue, buf, []Float{50, -20, 30}, false))
		assert_close(t, []Float{0.5, 108.0 / 255, 158.0 / 255}, buf, 1e-6)
		out := make([]Float, 3)
		require.NoError(t, FromInternalEncoding(icc.LabData, EncodeValue, out, buf, false))
		assert_close(t, []Float{50, -20, 30}, out, 1e-3)
	})
	t.Run("Lab version 2 16 bit", func(t *testing.T) {
		out := make([]Float, 3)
		require.NoError(t, FromInternalEncoding(icc.LabData, Encode16BitV2, out, []Float{1, 0, 0}, false))
		assert.Equal(t, Float(65280), out[0])
		require.NoError(t, ToInternalEncoding(icc.LabData, Encode16BitV2, buf, []Float{65280, 0, 0}, false))
		assert.InDelta(t, 1, float64(buf[0]), 1e-6)
	})
	t.Run("XYZ percent", func(t *testing.T) {
		require.NoError(t, ToInternalEncoding(icc.XYZData, EncodePercent, buf, []Float{96.42, 100, 82.49}, false))
		out := make([]Float, 3)
		require.NoError(t, FromInternalEncoding(icc.XYZData, EncodeValue, out, buf, false))
		assert_close(t, []Float{icc.D50.X, icc.D50.Y, icc.D50.Z}, out, 1e-5)
	})
	t.Run("device", func(t *testing.T) {
		out := make([]Float, 3)
		require.NoError(t, FromInternalEncoding(icc.RgbData, Encode8Bit, out, []Float{0.5, 1.5, -1}, false))
		assert.Equal(t, []Float{128, 255, 0}, out)
		require.NoError(t, ToInternalEncoding(icc.RgbData, EncodePercent, buf, []Float{50, 25, 100}, false))
		assert_close(t, []Float{0.5, 0.25, 1}, buf, 1e-6)
		require.NoError(t, ToInternalEncoding(icc.RgbData, EncodeUnitFloat, buf, []Float{1.5, -0.5, 0.5}, false))
		assert.Equal(t, []Float{1, 0, 0.5}, buf)
		require.NoError(t, ToInternalEncoding(icc.RgbData, EncodeFloat, buf, []Float{1.5, -0.5, 0.5}, false))
		assert.Equal(t, []Float{1.5, -0.5, 0.5}, buf)
	})
	t.Run("errors", func(t *testing.T) {
		require.ErrorIs(t, ToInternalEncoding(icc.XYZData, Encode8Bit, buf, buf, false), StatusBadColorEncoding)
		require.ErrorIs(t, ToInternalEncoding(icc.NamedData, EncodeValue, buf, buf, false), StatusBadColorEncoding)
		require.ErrorIs(t, ToInternalEncoding(icc.CmykData, EncodeValue, buf, buf, false), StatusIncorrectApply)
		require.ErrorIs(t, FromInternalEncoding(icc.RgbData, Encoding(99), buf, buf, false), StatusBadColorEncoding)
	})
	assert.Equal(t, "16 bit version 2", Encode16BitV2.String())
}

type stub_xform struct {
	xform_base
}

func (x *stub_xform) begin() error                           { return nil }
func (x *stub_xform) apply(ctx *xform_ctx, dst, src []Float) { copy(dst, src) }
func (x *stub_xform) String() string                         { return x.describe("stub") }

func TestPCS(t *testing.T) {
	white := []Float{1, 128.0 / 255, 128.0 / 255}
	xyz := make([]Float, 3)
	LabToXyz(xyz, white, false)
	assert_close(t, []Float{icc.D50.X / icc.XYZScaleFactor, 1 / icc.XYZScaleFactor, icc.D50.Z / icc.XYZScaleFactor}, xyz, 1e-4)
	lab := make([]Float, 3)
	XyzToLab(lab, xyz, false)
	assert_close(t, white, lab, 1e-4)

	v2 := make([]Float, 3)
	XyzToLab2(v2, xyz, false)
	assert.InDelta(t, 65280.0/65535, float64(v2[0]), 1e-4)
	Lab2ToXyz(lab, v2, false)
	assert_close(t, xyz, lab, 1e-4)

	var p PCS
	t.Run("version 2 Lab to XYZ", func(t *testing.T) {
		p.Reset(icc.LabData, true)
		x := &stub_xform{xform_base{src: icc.XYZData, dst: icc.RgbData}}
		got := p.Check(v2, x)
		assert_close(t, xyz, got, 1e-4)
		assert.Equal(t, icc.RgbData, p.Space())
	})
	t.Run("passthrough", func(t *testing.T) {
		p.Reset(icc.XYZData, false)
		x := &stub_xform{xform_base{src: icc.XYZData, dst: icc.LabData, legacy: true}}
		got := p.Check(xyz, x)
		assert.Same(t, &xyz[0], &got[0])
		p.Reset(icc.RgbData, false)
		got = p.Check(white, x)
		assert.Same(t, &white[0], &got[0])
	})
	t.Run("XYZ to version 2 Lab", func(t *testing.T) {
		p.Reset(icc.XYZData, false)
		x := &stub_xform{xform_base{src: icc.LabData, dst: icc.LabData, legacy: true}}
		got := p.Check(xyz, x)
		assert_close(t, v2, got, 1e-4)
		// output of x is version 2 Lab, the caller wants version 4
		out := []Float{v2[0], v2[1], v2[2]}
		p.CheckLast(out, icc.LabData, false)
		assert_close(t, white, out, 1e-4)
	})
	t.Run("last stage to XYZ", func(t *testing.T) {
		p.Reset(icc.LabData, false)
		out := []Float{white[0], white[1], white[2]}
		p.CheckLast(out, icc.XYZData, false)
		assert_close(t, xyz, out, 1e-4)
	})
}
