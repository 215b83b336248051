package icc

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovidgoyal/iccmm/iccio"
)

func encode_tag(t *testing.T, tag Tag) []byte {
	ms := iccio.NewMemStream(nil)
	require.NoError(t, tag.Write(iccio.NewWriter(ms)))
	return ms.Bytes()
}

// roundtrip writes tag and reads it back through the default registry.
func roundtrip[T Tag](t *testing.T, tag T) T {
	t.Helper()
	data := encode_tag(t, tag)
	n := default_registry().NewTag(tag.Type())
	require.NoError(t, n.Read(uint32(len(data)), iccio.NewBytesReader(data)))
	require.IsType(t, tag, n)
	assert.Equal(t, data, encode_tag(t, n), "re-encoding %s is not stable", tag.Type())
	return n.(T)
}

func TestTextTags(t *testing.T) {
	t.Run("Text", func(t *testing.T) {
		r := roundtrip(t, NewTextTag("Copyright nobody"))
		assert.Equal(t, "Copyright nobody", r.Text())
		rep := &Report{}
		assert.Equal(t, ValidateOK, r.Validate(CopyrightTagSignature, rep, nil))
	})
	t.Run("TextDescription", func(t *testing.T) {
		r := roundtrip(t, NewTextDescriptionTag("sRGB IEC61966-2.1"))
		assert.Equal(t, "sRGB IEC61966-2.1", r.Text())
	})
	t.Run("MultiLocalizedUnicode", func(t *testing.T) {
		m := NewMultiLocalizedUnicodeTag("en", "US", "Hello")
		m.Set("de", "DE", "Hallo")
		m.Set("de", "AT", "Servus ünd Grüße")
		m.Set("en", "US", "Hello, world")
		r := roundtrip(t, m)
		assert.Equal(t, m.Entries, r.Entries)
		assert.Equal(t, "Hello, world", r.Text())
		assert.Equal(t, "Servus ünd Grüße", r.Lookup("de", "AT"))
		assert.Equal(t, "Hallo", r.Lookup("de", "CH"))
		assert.Equal(t, "Hello, world", r.Lookup("fr", "FR"))
	})
	t.Run("Utf8", func(t *testing.T) {
		r := roundtrip(t, &Utf8Tag{Value: "Ωmega"})
		assert.Equal(t, "Ωmega", r.Text())
		z := roundtrip(t, &ZipUtf8Tag{Value: strings.Repeat("compressible ", 50)})
		assert.Equal(t, strings.Repeat("compressible ", 50), z.Text())
	})
}

func TestNumericTags(t *testing.T) {
	t.Run("XYZ", func(t *testing.T) {
		r := roundtrip(t, NewXYZTag(D50, XYZNumber{0.5, -0.25, 1.5}))
		require.Len(t, r.Values, 2)
		assert.InDelta(t, 0.9642, r.XYZ().X, 1e-4)
		assert.InDelta(t, -0.25, r.Values[1].Y, 1e-4)
		assert.InDelta(t, 1.5, r.Values[1].Z, 1e-4)
	})
	t.Run("Signature", func(t *testing.T) {
		r := roundtrip(t, &SignatureTag{Value: sig4("CRT ")})
		assert.Equal(t, sig4("CRT "), r.Value)
	})
	t.Run("S15Fixed16Array", func(t *testing.T) {
		r := roundtrip(t, NewFixedNumArrayTag[Float](S15Fixed16ArrayTypeSignature, 1, -0.5, 3.25))
		assert.InDeltaSlice(t, []Float{1, -0.5, 3.25}, r.Values, 1e-4)
	})
	t.Run("UInt16Array", func(t *testing.T) {
		r := roundtrip(t, NewNumArrayTag[uint16](UInt16ArrayTypeSignature, 1, 2, 65535))
		assert.Equal(t, []uint16{1, 2, 65535}, r.Values)
	})
	t.Run("ColorantTable", func(t *testing.T) {
		r := roundtrip(t, &ColorantTableTag{Colorants: []Colorant{{"Cyan", [3]Float{0.5, 0.25, 0.75}}, {"Magenta", [3]Float{0, 1, 0}}}})
		require.Len(t, r.Colorants, 2)
		assert.Equal(t, "Magenta", r.Colorants[1].Name)
		assert.InDeltaSlice(t, []Float{0.5, 0.25, 0.75}, r.Colorants[0].PCS[:], 1e-4)
	})
	t.Run("ColorantOrder", func(t *testing.T) {
		r := roundtrip(t, &ColorantOrderTag{Order: []uint8{2, 0, 1, 3}})
		assert.Equal(t, []uint8{2, 0, 1, 3}, r.Order)
	})
}

func TestDictTag(t *testing.T) {
	d := &DictTag{}
	d.Set("Creator", "iccmm")
	d.Set("Purpose", "testing")
	d.Entries = append(d.Entries, DictEntry{Name: "NoValue"})
	d.Entries[0].DisplayName = NewMultiLocalizedUnicodeTag("en", "US", "Created by")
	d.Set("Creator", "iccmm tests")
	r := roundtrip(t, d)
	require.Len(t, r.Entries, 3)
	v, ok := r.Get("Creator")
	assert.True(t, ok)
	assert.Equal(t, "iccmm tests", v)
	_, ok = r.Get("NoValue")
	assert.False(t, ok)
	_, ok = r.Get("Missing")
	assert.False(t, ok)
	require.NotNil(t, r.Entries[0].DisplayName)
	assert.Equal(t, "Created by", r.Entries[0].DisplayName.Text())
	assert.Nil(t, r.Entries[1].DisplayName)

	rep := &Report{}
	d.Entries = append(d.Entries, DictEntry{Name: "Purpose", Value: "again", HasValue: true})
	assert.Greater(t, d.Validate(MetadataTagSignature, rep, nil), ValidateOK)
}

func TestResponseCurveSetTag(t *testing.T) {
	rcs := NewResponseCurveSetTag(2)
	c := rcs.NewCurve(StatusTUnit)
	c.MaxColorant[0] = XYZNumber{0.5, 0.25, 0.125}
	c.Response[0] = []ResponseMeasurement{{0, 0}, {0.5, 1.25}, {1, 2.5}}
	c.Response[1] = []ResponseMeasurement{{0, 0.125}, {1, 1}}
	d := rcs.NewCurve(DinEUnit)
	d.Response[1] = []ResponseMeasurement{{1, 3}}
	r := roundtrip(t, rcs)
	assert.Equal(t, 2, r.Channels)
	require.Len(t, r.Curves, 2)
	assert.Equal(t, StatusTUnit, r.Curves[0].Unit)
	assert.Equal(t, DinEUnit, r.Curves[1].Unit)
	assert.InDelta(t, 0.25, r.Curves[0].MaxColorant[0].Y, 1e-4)
	require.Len(t, r.Curves[0].Response[0], 3)
	assert.InDelta(t, 0.5, r.Curves[0].Response[0][1].Device, 1e-4)
	assert.InDelta(t, 1.25, r.Curves[0].Response[0][1].Measurement, 1e-4)
	assert.Empty(t, r.Curves[1].Response[0])
	assert.InDelta(t, 3, r.Curves[1].Response[1][0].Measurement, 1e-4)
}

func TestCurves(t *testing.T) {
	t.Run("Identity", func(t *testing.T) {
		for _, c := range []Curve{NewCurveTag(0), NewCurveTag(256), NewGammaCurveTag(1), NewParametricCurveTag(0, 1)} {
			assert.True(t, c.IsIdentity(), "%T", c)
			assert.InDelta(t, 0.3, c.Apply(0.3), 1e-4)
			assert.InDelta(t, 1, c.Apply(1.5), 1e-6)
			assert.InDelta(t, 0, c.Apply(-1), 1e-6)
		}
		assert.False(t, NewGammaCurveTag(2.2).IsIdentity())
	})
	t.Run("Gamma", func(t *testing.T) {
		r := roundtrip(t, NewGammaCurveTag(2.2))
		assert.InDelta(t, math.Pow(0.5, 2.2), r.Apply(0.5), 1e-3)
		assert.InDelta(t, 0.5, Find(r, r.Apply(0.5)), 1e-4)
	})
	t.Run("Sampled", func(t *testing.T) {
		c := NewCurveTagFromFunc(1024, func(x Float) Float { return x * x })
		r := roundtrip(t, c)
		require.Len(t, r.Values, 1024)
		assert.InDelta(t, 0.25, r.Apply(0.5), 1e-4)
		assert.InDelta(t, 0.7, Find(r, 0.49), 1e-3)
	})
	t.Run("Parametric", func(t *testing.T) {
		r := roundtrip(t, srgb_trc().(*ParametricCurveTag))
		assert.Equal(t, uint16(3), r.FunctionType)
		assert.Len(t, r.Params, ParametricParamCount(3))
		assert.InDelta(t, 0.2140, r.Apply(0.5), 1e-3)
		assert.InDelta(t, 0.02/12.92, r.Apply(0.02), 1e-5)
		assert.InDelta(t, 0.5, Find(r, r.Apply(0.5)), 1e-4)
	})
}

func TestMatrix(t *testing.T) {
	m := Matrix3{{2, 1, 0}, {0, 1, 0}, {1, 0, 4}}
	inv, err := m.Inverted()
	require.NoError(t, err)
	p := m.Multiply(inv)
	for i := range 3 {
		for j := range 3 {
			assert.InDelta(t, IfElse(i == j, 1.0, 0.0), p[i][j], 1e-5)
		}
	}
	x, y, z := m.Transform(1, 2, 3)
	assert.Equal(t, []Float{4, 2, 13}, []Float{x, y, z})
	singular := Matrix3{{1, 2, 3}, {2, 4, 6}, {0, 0, 1}}
	_, err = singular.Inverted()
	assert.ErrorIs(t, err, ErrSingularMatrix)

	assert.True(t, NewIdentityMatrix(true).IsIdentity())
	mx := NewIdentityMatrix(true)
	mx.Offset[1] = 0.25
	assert.False(t, mx.IsIdentity())
	px := []Float{0.5, 0.5, 0.5}
	mx.Apply(px)
	assert.InDeltaSlice(t, []Float{0.5, 0.75, 0.5}, px, 1e-6)
}

func square_clut(t *testing.T, m *MBB, grid int) {
	c, err := m.NewCLUT(grid)
	require.NoError(t, err)
	c.Fill(func(in, out []Float) {
		for i := range out {
			out[i] = in[i%len(in)] * in[i%len(in)]
		}
	})
}

func TestLutTags(t *testing.T) {
	identity_check := func(t *testing.T, tag MBBTag, delta float64) {
		e, err := tag.Base().NewEvaluator(LabData, false)
		require.NoError(t, err)
		dst := make([]Float, 3)
		for _, src := range [][]Float{{0, 0, 0}, {1, 1, 1}, {0.5, 0.25, 0.75}, {0.1, 0.9, 0.3}} {
			e.Apply(dst, src, nil)
			assert.InDeltaSlice(t, src, dst, delta, "at %v", src)
		}
	}
	identity_clut := func(t *testing.T, m *MBB) {
		c, err := m.NewCLUT(2)
		require.NoError(t, err)
		c.Fill(func(in, out []Float) { copy(out, in) })
	}
	t.Run("Lut8", func(t *testing.T) {
		l := NewLut8Tag(3, 3)
		identity_clut(t, &l.MBB)
		r := roundtrip(t, l)
		assert.False(t, r.UseLegacyPCS())
		require.Len(t, r.Curves(CurveSlotB), 3)
		identity_check(t, r, 0.01)
	})
	t.Run("Lut16", func(t *testing.T) {
		l := NewLut16Tag(3, 3)
		identity_clut(t, &l.MBB)
		l.SetCurves(CurveSlotB, NewCurveTag(4096), NewCurveTag(4096), NewCurveTag(4096))
		r := roundtrip(t, l)
		assert.True(t, r.UseLegacyPCS())
		assert.Len(t, r.Curves(CurveSlotB)[0].(*CurveTag).Values, 4096)
		assert.Len(t, r.Curves(CurveSlotA)[0].(*CurveTag).Values, 256)
		identity_check(t, r, 1e-4)
		// the legacy input tables are evaluated in the position of the M curves
		assert.Nil(t, r.CurvesAt(CurveSlotB))
		assert.Len(t, r.CurvesAt(CurveSlotM), 3)
	})
	t.Run("Lut16NeedsUniformGrid", func(t *testing.T) {
		l := NewLut16Tag(3, 3)
		c, err := NewCLUT(3, 3, 2, 3, 2)
		require.NoError(t, err)
		l.CLUT = c
		ms := iccio.NewMemStream(nil)
		assert.ErrorIs(t, l.Write(iccio.NewWriter(ms)), ErrInvalidTag)
	})
	t.Run("AtoB", func(t *testing.T) {
		l := NewLutAtoBTag(3, 3)
		l.NewIdentityCurves(CurveSlotA)
		l.NewIdentityCurves(CurveSlotB)
		square_clut(t, &l.MBB, 3)
		r := roundtrip(t, l)
		e, err := r.NewEvaluator(RgbData, true)
		require.NoError(t, err)
		dst := make([]Float, 3)
		e.Apply(dst, []Float{0.5, 0, 1}, nil)
		assert.InDeltaSlice(t, []Float{0.25, 0, 1}, dst, 1e-4)
	})
	t.Run("BtoAWithMatrix", func(t *testing.T) {
		l := NewLutBtoATag(3, 3)
		l.NewIdentityCurves(CurveSlotB)
		l.NewIdentityCurves(CurveSlotM)
		l.NewIdentityCurves(CurveSlotA)
		l.Matrix = NewIdentityMatrix(true)
		l.Matrix.M[0][0] = 0.5
		l.Matrix.Offset[2] = 0.25
		identity_clut(t, &l.MBB)
		r := roundtrip(t, l)
		e, err := r.NewEvaluator(LabData, false)
		require.NoError(t, err)
		dst := make([]Float, 3)
		e.Apply(dst, []Float{0.5, 0.5, 0.5}, nil)
		assert.InDeltaSlice(t, []Float{0.25, 0.5, 0.75}, dst, 1e-4)
	})
	t.Run("CloneIsDeep", func(t *testing.T) {
		l := NewLutAtoBTag(3, 3)
		square_clut(t, &l.MBB, 2)
		c := l.Clone().(*LutAtoBTag)
		c.CLUT.Data[0] = 42
		assert.NotEqual(t, Float(42), l.CLUT.Data[0])
	})
}

func TestMultiProcessElementTag(t *testing.T) {
	curve := func() *SegmentedCurve {
		return NewSegmentedCurve([]Float{0, 1},
			&FormulaSegment{FunctionType: 0, Params: []Float{1, 1, 0, 0}},
			&SampledSegment{Samples: []Float{0.5, 1}},
			&FormulaSegment{FunctionType: 0, Params: []Float{1, 1, 0, 0}},
		)
	}
	mat := NewMatrixElement(3, 3)
	mat.Matrix[0], mat.Matrix[8] = 2, 0.5
	mat.Offsets[1] = 0.1
	c, err := NewCLUT(3, 3, 2)
	require.NoError(t, err)
	c.Precision = 4
	c.Fill(func(in, out []Float) { copy(out, in) })
	tag := NewMultiProcessElementTag(3, 3, NewCurveSetElement(curve(), curve(), curve()), mat, NewCLUTElement(c))
	r := roundtrip(t, tag)
	require.Len(t, r.Elements, 3)
	require.NoError(t, r.Begin())
	dst := make([]Float, 3)
	r.Apply(dst, []Float{0.25, 0.5, 0.75}, nil)
	assert.InDeltaSlice(t, []Float{0.5, 0.6, 0.375}, dst, 1e-5)
	// the CLUT clips the matrix output to [0, 1]
	r.Apply(dst, []Float{0.75, 0.5, 0.5}, r.NewScratch())
	assert.InDeltaSlice(t, []Float{1, 0.6, 0.25}, dst, 1e-5)

	rep := &Report{}
	assert.Equal(t, ValidateOK, r.Validate(DToB0TagSignature, rep, nil), rep.String())
	bad := NewMultiProcessElementTag(3, 3, NewMatrixElement(3, 4))
	assert.ErrorIs(t, bad.Begin(), ErrInvalidTag)

	cl := r.Clone().(*MultiProcessElementTag)
	cl.Elements[1].(*MatrixElement).Matrix[0] = 7
	assert.Equal(t, Float(2), r.Elements[1].(*MatrixElement).Matrix[0])
}

func TestUnknownTag(t *testing.T) {
	u := &UnknownTag{Sig: sig4("zzzz"), Data: []byte{1, 2, 3, 4, 5}}
	data := encode_tag(t, u)
	n := default_registry().NewTag(sig4("zzzz"))
	require.IsType(t, &UnknownTag{}, n)
	require.NoError(t, n.Read(uint32(len(data)), iccio.NewBytesReader(data)))
	if diff := cmp.Diff(u.Data, n.(*UnknownTag).Data); diff != "" {
		t.Fatalf("unknown tag data differs: %s", diff)
	}
}
