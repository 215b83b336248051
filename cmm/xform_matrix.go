package cmm

import (
	"fmt"

	"github.com/kovidgoyal/iccmm/icc"
)

var _ = fmt.Print

// Size of the sampled curves that invert TRCs for output stages
const inverse_curve_size = 2048

func find_curve(p *icc.Profile, sig icc.Signature) (icc.Curve, error) {
	c, ok := icc.TagAs[icc.Curve](p, sig)
	if !ok {
		return nil, wrap(StatusProfileMissingTag, "%s", icc.TagName(sig))
	}
	return c, nil
}

func invert_curve(c icc.Curve) icc.Curve {
	if c.IsIdentity() {
		return c
	}
	return icc.NewCurveTagFromFunc(inverse_curve_size, func(v Float) Float { return icc.Find(c, v) })
}

// matrix_trc_xform is the RGB shaper: three tone curves and the colorant
// matrix.
type matrix_trc_xform struct {
	xform_base
	curves  [3]icc.Curve
	inverse [3]icc.Curve
	m, inv  icc.Matrix3
}

func new_matrix_trc_xform(base xform_base) (xform, error) {
	x := &matrix_trc_xform{xform_base: base}
	p := base.profile
	var err error
	for i, sig := range []icc.Signature{icc.RedTRCTagSignature, icc.GreenTRCTagSignature, icc.BlueTRCTagSignature} {
		if x.curves[i], err = find_curve(p, sig); err != nil {
			return nil, err
		}
	}
	for i, sig := range []icc.Signature{icc.RedColorantTagSignature, icc.GreenColorantTagSignature, icc.BlueColorantTagSignature} {
		t, ok := icc.TagAs[*icc.XYZTag](p, sig)
		if !ok || len(t.Values) == 0 {
			return nil, wrap(StatusProfileMissingTag, "%s", icc.TagName(sig))
		}
		c := t.XYZ()
		x.m[0][i], x.m[1][i], x.m[2][i] = c.X, c.Y, c.Z
	}
	if x.is_input {
		x.dst = icc.XYZData
	} else {
		x.src = icc.XYZData
	}
	x.setup_absolute()
	return x, nil
}

func (x *matrix_trc_xform) begin() (err error) {
	for _, c := range x.curves {
		c.Begin()
	}
	if x.is_input {
		return nil
	}
	if x.inv, err = x.m.Inverted(); err != nil {
		return wrap(StatusBadXform, "colorant matrix of %s: %s", x.profile.Description(), err)
	}
	seen := make(map[icc.Curve]icc.Curve, 3)
	for i, c := range x.curves {
		if x.inverse[i] = seen[c]; x.inverse[i] == nil {
			x.inverse[i] = invert_curve(c)
			seen[c] = x.inverse[i]
		}
	}
	return nil
}

func (x *matrix_trc_xform) apply(ctx *xform_ctx, dst, src []Float) {
	if x.is_input {
		r, g, b := x.curves[0].Apply(src[0]), x.curves[1].Apply(src[1]), x.curves[2].Apply(src[2])
		X, Y, Z := x.m.Transform(r, g, b)
		dst[0] = icc.UnitClip(X / icc.XYZScaleFactor)
		dst[1] = icc.UnitClip(Y / icc.XYZScaleFactor)
		dst[2] = icc.UnitClip(Z / icc.XYZScaleFactor)
		x.check_dst_abs(dst)
		return
	}
	src = x.check_src_abs(ctx, src)
	r, g, b := x.inv.Transform(src[0]*icc.XYZScaleFactor, src[1]*icc.XYZScaleFactor, src[2]*icc.XYZScaleFactor)
	dst[0] = x.inverse[0].Apply(r)
	dst[1] = x.inverse[1].Apply(g)
	dst[2] = x.inverse[2].Apply(b)
}

func (x *matrix_trc_xform) String() string { return x.describe("MatrixTRC") }

// mono_xform maps gray through the kTRC curve onto the neutral axis of the
// PCS.
type mono_xform struct {
	xform_base
	curve, inverse icc.Curve
}

func new_mono_xform(base xform_base) (xform, error) {
	c, err := find_curve(base.profile, icc.GrayTRCTagSignature)
	if err != nil {
		return nil, err
	}
	x := &mono_xform{xform_base: base, curve: c}
	x.setup_absolute()
	return x, nil
}

func (x *mono_xform) begin() error {
	x.curve.Begin()
	if !x.is_input {
		x.inverse = invert_curve(x.curve)
	}
	return nil
}

func (x *mono_xform) apply(ctx *xform_ctx, dst, src []Float) {
	if x.is_input {
		g := x.curve.Apply(src[0])
		if x.dst == icc.XYZData {
			dst[0] = icc.D50.X * g / icc.XYZScaleFactor
			dst[1] = icc.D50.Y * g / icc.XYZScaleFactor
			dst[2] = icc.D50.Z * g / icc.XYZScaleFactor
		} else {
			dst[0], dst[1], dst[2] = g, 128.0/255.0, 128.0/255.0
		}
		x.check_dst_abs(dst)
		return
	}
	src = x.check_src_abs(ctx, src)
	g := src[0]
	if x.src == icc.XYZData {
		g = src[1] * icc.XYZScaleFactor / icc.D50.Y
	}
	dst[0] = x.inverse.Apply(g)
}

func (x *mono_xform) String() string { return x.describe("Monochrome") }
