package cmm

import (
	"errors"
	"fmt"

	"github.com/kovidgoyal/iccmm/icc"
)

var _ = fmt.Print

// xform is one stage of a Cmm. After begin() it is read only, all mutable
// state lives in the xform_ctx of an apply context.
type xform interface {
	src_space() icc.Signature
	dst_space() icc.Signature
	intent() icc.RenderingIntent
	// use_legacy_pcs reports whether Lab on the PCS side is in the version
	// 2 encoding.
	use_legacy_pcs() bool
	// no_clip_pcs suppresses clipping of PCS values fed to this stage.
	no_clip_pcs() bool
	begin() error
	new_context() *xform_ctx
	apply(ctx *xform_ctx, dst, src []Float)
	String() string
}

// xform_ctx is the per apply context scratch of a stage.
type xform_ctx struct {
	mbb *icc.MBBScratch
	mpe *icc.MPEScratch
	abs [3]Float
	tmp []Float
}

type xform_base struct {
	profile  *icc.Profile
	tag_sig  icc.Signature
	is_input bool
	ri       icc.RenderingIntent
	src, dst icc.Signature
	tetra    bool
	legacy   bool
	no_clip  bool
	// absolute is set when relative colorimetry from the profile has to be
	// adjusted by the media white point
	absolute bool
	wtpt     icc.XYZNumber
}

func (x *xform_base) src_space() icc.Signature    { return x.src }
func (x *xform_base) dst_space() icc.Signature    { return x.dst }
func (x *xform_base) intent() icc.RenderingIntent { return x.ri }
func (x *xform_base) use_legacy_pcs() bool        { return x.legacy }
func (x *xform_base) no_clip_pcs() bool           { return x.no_clip }
func (x *xform_base) new_context() *xform_ctx     { return &xform_ctx{} }

func (x *xform_base) describe(kind string) string {
	name := x.profile.Description()
	if name == "" {
		name = x.profile.Header.Class.String()
	}
	sig := ""
	if x.tag_sig != 0 {
		sig = " " + x.tag_sig.String()
	}
	return fmt.Sprintf("%s(%s%s %s→%s)", kind, name, sig, x.src, x.dst)
}

func (x *xform_base) setup_absolute() {
	if x.ri == icc.AbsoluteColorimetricRenderingIntent {
		x.absolute = true
		x.wtpt = x.profile.MediaWhitePoint()
		if x.wtpt.X == 0 || x.wtpt.Y == 0 || x.wtpt.Z == 0 {
			x.absolute = false
		}
	}
}

// scale_pcs multiplies the XYZ of the internally encoded PCS pixel p, in
// place, by num/den per channel.
func scale_pcs(p []Float, space icc.Signature, legacy, no_clip bool, num, den icc.XYZNumber) {
	lab := space == icc.LabData
	if lab {
		if legacy {
			Lab2ToLab4(p, p, true)
		}
		LabToXyz(p, p, true)
	}
	p[0] *= num.X / den.X
	p[1] *= num.Y / den.Y
	p[2] *= num.Z / den.Z
	if lab {
		XyzToLab(p, p, no_clip)
		if legacy {
			Lab4ToLab2(p, p)
		}
	} else {
		clip3(p, no_clip)
	}
}

// check_src_abs converts absolute PCS input of an output stage to the
// relative colorimetry the profile tables expect. The returned slice is
// either src or ctx storage.
func (x *xform_base) check_src_abs(ctx *xform_ctx, src []Float) []Float {
	if !x.absolute || x.is_input || !icc.IsSpacePCS(x.src) {
		return src
	}
	p := ctx.abs[:]
	copy(p, src[:3])
	scale_pcs(p, x.src, x.legacy, x.no_clip, icc.D50, x.wtpt)
	return p
}

// check_dst_abs converts relative PCS output of an input stage to absolute
// colorimetry, in place.
func (x *xform_base) check_dst_abs(dst []Float) {
	if x.absolute && x.is_input && icc.IsSpacePCS(x.dst) {
		scale_pcs(dst, x.dst, x.legacy, x.no_clip, x.wtpt, icc.D50)
	}
}

func offset_sig(base icc.Signature, ri icc.RenderingIntent) icc.Signature {
	return base + icc.Signature(ri)
}

// candidate_tags returns the tags to try, in order, for the given family base
// signature (AToB0, BToA0, DToB0, BToD0 or Preview0). The boolean is true
// when relative data from that tag needs absolute adjustment.
func candidate_tags(base icc.Signature, ri icc.RenderingIntent, has_absolute_tag bool) (sigs []icc.Signature, adjust []bool) {
	switch ri {
	case icc.AbsoluteColorimetricRenderingIntent:
		if has_absolute_tag {
			sigs = append(sigs, offset_sig(base, ri))
			adjust = append(adjust, false)
		}
		sigs = append(sigs, offset_sig(base, icc.RelativeColorimetricRenderingIntent), base)
		adjust = append(adjust, true, true)
	case icc.PerceptualRenderingIntent:
		sigs, adjust = []icc.Signature{base}, []bool{false}
	default:
		sigs, adjust = []icc.Signature{offset_sig(base, ri), base}, []bool{false, false}
	}
	return
}

func normalize_intent(ri icc.RenderingIntent) icc.RenderingIntent {
	if ri > icc.AbsoluteColorimetricRenderingIntent {
		return icc.PerceptualRenderingIntent
	}
	return ri
}

// new_xform builds the stage for p. src and dst are the spaces the stage
// connects, already resolved by the caller from the profile class and
// direction.
func new_xform(p *icc.Profile, cfg *xform_config, ri icc.RenderingIntent, is_input bool, src, dst icc.Signature) (xform, error) {
	ri = normalize_intent(ri)
	base := xform_base{profile: p, is_input: is_input, ri: ri, src: src, dst: dst, tetra: cfg.interp == Tetrahedral}
	class := p.Header.Class
	switch cfg.lut_type {
	case LutNamedColor:
		t, ok := icc.TagAs[*icc.NamedColor2Tag](p, icc.NamedColor2TagSignature)
		if !ok {
			return nil, wrap(StatusProfileMissingTag, "%s has no named color table", p.Description())
		}
		base.tag_sig = icc.NamedColor2TagSignature
		return new_named_xform(base, t)
	case LutPreview:
		pri := icc.IfElse(ri == icc.AbsoluteColorimetricRenderingIntent, icc.RelativeColorimetricRenderingIntent, ri)
		sigs, _ := candidate_tags(icc.Preview0TagSignature, pri, false)
		return lut_xform_from(base, sigs, nil)
	case LutGamut:
		return lut_xform_from(base, []icc.Signature{icc.GamutTagSignature}, nil)
	case LutColor:
	default:
		return nil, wrap(StatusBadLutType, "%s", cfg.lut_type)
	}
	if class == icc.NamedColorClass {
		t, ok := icc.TagAs[*icc.NamedColor2Tag](p, icc.NamedColor2TagSignature)
		if !ok {
			return nil, wrap(StatusProfileMissingTag, "%s has no named color table", p.Description())
		}
		base.tag_sig = icc.NamedColor2TagSignature
		return new_named_xform(base, t)
	}
	if class == icc.LinkClass || class == icc.AbstractClass {
		// these only have the perceptual table
		base.ri = icc.PerceptualRenderingIntent
		if cfg.use_mpe {
			if x, err := mpe_xform_from(base, []icc.Signature{icc.DToB0TagSignature}, nil); err == nil {
				return x, nil
			}
		}
		return lut_xform_from(base, []icc.Signature{icc.AToB0TagSignature}, nil)
	}
	mpe_base, lut_base := icc.DToB0TagSignature, icc.AToB0TagSignature
	if !is_input {
		mpe_base, lut_base = icc.BToD0TagSignature, icc.BToA0TagSignature
	}
	if cfg.use_mpe {
		sigs, adjust := candidate_tags(mpe_base, ri, true)
		if x, err := mpe_xform_from(base, sigs, adjust); err == nil {
			return x, nil
		} else if !errors.Is(err, StatusProfileMissingTag) {
			return nil, err
		}
	}
	sigs, adjust := candidate_tags(lut_base, ri, false)
	x, err := lut_xform_from(base, sigs, adjust)
	if err == nil || !errors.Is(err, StatusProfileMissingTag) {
		return x, err
	}
	switch p.Header.ColorSpace {
	case icc.RgbData:
		return new_matrix_trc_xform(base)
	case icc.GrayData:
		return new_mono_xform(base)
	}
	return nil, err
}
