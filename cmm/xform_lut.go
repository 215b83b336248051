package cmm

import (
	"errors"
	"fmt"

	"github.com/kovidgoyal/iccmm/icc"
)

var _ = fmt.Print

// find_lut_tag returns the first of sigs present in p as a T, and its index.
func find_lut_tag[T any](p *icc.Profile, sigs []icc.Signature) (ans T, idx int, err error) {
	for i, sig := range sigs {
		t, ferr := p.FindTag(sig)
		if ferr != nil {
			if errors.Is(ferr, icc.ErrTagNotFound) {
				continue
			}
			return ans, i, fmt.Errorf("%s: %w", ferr, StatusInvalidProfile)
		}
		var ok bool
		if ans, ok = t.(T); !ok {
			return ans, i, wrap(StatusInvalidLut, "%s has unsupported type %s", icc.TagName(sig), t.Type())
		}
		return ans, i, nil
	}
	return ans, -1, wrap(StatusProfileMissingTag, "%s has none of %v", p.Description(), sigs)
}

func check_channels(name string, n_in, n_out int, src, dst icc.Signature) error {
	if s := icc.SpaceSamples(src); s != 0 && s != n_in {
		return wrap(StatusInvalidLut, "%s has %d inputs but %s has %d channels", name, n_in, src, s)
	}
	if s := icc.SpaceSamples(dst); s != 0 && s != n_out {
		return wrap(StatusInvalidLut, "%s has %d outputs but %s has %d channels", name, n_out, dst, s)
	}
	return nil
}

// lut_xform evaluates one of the lut8, lut16, lutAtoB or lutBtoA types.
type lut_xform struct {
	xform_base
	tag  icc.MBBTag
	eval *icc.MBBEvaluator
}

func lut_xform_from(base xform_base, sigs []icc.Signature, adjust []bool) (xform, error) {
	t, idx, err := find_lut_tag[icc.MBBTag](base.profile, sigs)
	if err != nil {
		return nil, err
	}
	x := &lut_xform{xform_base: base, tag: t}
	x.tag_sig = sigs[idx]
	x.legacy = t.UseLegacyPCS()
	if adjust != nil && adjust[idx] {
		x.setup_absolute()
	}
	return x, nil
}

func (x *lut_xform) begin() (err error) {
	m := x.tag.Base()
	if err = check_channels(icc.TagName(x.tag_sig), m.Inputs(), m.Outputs(), x.src, x.dst); err != nil {
		return err
	}
	if x.eval, err = m.NewEvaluator(x.src, x.tetra); err != nil {
		return fmt.Errorf("%s: %s: %w", icc.TagName(x.tag_sig), err, StatusInvalidLut)
	}
	return nil
}

func (x *lut_xform) new_context() *xform_ctx {
	return &xform_ctx{mbb: x.eval.NewScratch()}
}

func (x *lut_xform) apply(ctx *xform_ctx, dst, src []Float) {
	src = x.check_src_abs(ctx, src)
	x.eval.Apply(dst, src, ctx.mbb)
	x.check_dst_abs(dst)
}

func (x *lut_xform) String() string { return x.describe(x.tag.Type().String()) }

// mpe_xform evaluates a multiProcessElementType tag. Its PCS values are
// actual Lab or XYZ numbers rather than the internal encoding, and are
// never clipped.
type mpe_xform struct {
	xform_base
	tag *icc.MultiProcessElementTag
}

func mpe_xform_from(base xform_base, sigs []icc.Signature, adjust []bool) (xform, error) {
	t, idx, err := find_lut_tag[*icc.MultiProcessElementTag](base.profile, sigs)
	if err != nil {
		return nil, err
	}
	x := &mpe_xform{xform_base: base, tag: t}
	x.tag_sig = sigs[idx]
	x.no_clip = true
	if adjust != nil && adjust[idx] {
		x.setup_absolute()
	}
	return x, nil
}

func (x *mpe_xform) begin() error {
	if err := check_channels(icc.TagName(x.tag_sig), x.tag.Inputs(), x.tag.Outputs(), x.src, x.dst); err != nil {
		return err
	}
	if err := x.tag.Begin(); err != nil {
		return fmt.Errorf("%s: %s: %w", icc.TagName(x.tag_sig), err, StatusInvalidLut)
	}
	return nil
}

func (x *mpe_xform) new_context() *xform_ctx {
	return &xform_ctx{mpe: x.tag.NewScratch(), tmp: make([]Float, x.tag.Inputs())}
}

func pcs_from_internal(space icc.Signature, p []Float) {
	switch space {
	case icc.LabData:
		icc.LabFromPcs(p)
	case icc.XYZData:
		icc.XyzFromPcs(p)
	}
}

func pcs_to_internal(space icc.Signature, p []Float) {
	switch space {
	case icc.LabData:
		icc.LabToPcs(p)
	case icc.XYZData:
		icc.XyzToPcs(p)
	}
}

func (x *mpe_xform) apply(ctx *xform_ctx, dst, src []Float) {
	src = x.check_src_abs(ctx, src)
	if icc.IsSpacePCS(x.src) {
		copy(ctx.tmp, src)
		pcs_from_internal(x.src, ctx.tmp)
		src = ctx.tmp
	}
	x.tag.Apply(dst, src, ctx.mpe)
	if icc.IsSpacePCS(x.dst) {
		pcs_to_internal(x.dst, dst)
	}
	x.check_dst_abs(dst)
}

func (x *mpe_xform) String() string { return x.describe("MPE") }
