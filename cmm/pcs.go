package cmm

import (
	"github.com/kovidgoyal/iccmm/icc"
)

type Float = icc.Float

// PCS tracks the encoding of the profile connection space between stages
// and converts a stage's output to what the next stage expects. All values
// are in the internal encoding, see icc.XYZScaleFactor.
type PCS struct {
	space     icc.Signature
	is_v2_lab bool
	convert   [3]Float
}

// Reset starts tracking at space. legacy marks Lab as the version 2
// encoding.
func (p *PCS) Reset(space icc.Signature, legacy bool) {
	p.space = space
	p.is_v2_lab = space == icc.LabData && legacy
}

func (p *PCS) Space() icc.Signature { return p.space }

// Check returns src converted to the input encoding of x. The result is
// either src itself or storage owned by p, valid until the next call.
func (p *PCS) Check(src []Float, x xform) []Float {
	next_space := x.src_space()
	legacy := x.use_legacy_pcs()
	next_is_v2 := legacy && next_space == icc.LabData
	no_clip := x.no_clip_pcs()
	ans := src
	switch {
	case !icc.IsSpacePCS(p.space) || !icc.IsSpacePCS(next_space):
	case p.is_v2_lab && !next_is_v2:
		ans = p.convert[:]
		Lab2ToLab4(ans, src, no_clip)
		if next_space == icc.XYZData {
			LabToXyz(ans, ans, no_clip)
		}
	case !p.is_v2_lab && next_is_v2:
		ans = p.convert[:]
		if p.space == icc.XYZData {
			XyzToLab2(ans, src, no_clip)
		} else {
			Lab4ToLab2(ans, src)
		}
	case p.space == next_space:
	case p.space == icc.XYZData:
		ans = p.convert[:]
		XyzToLab(ans, src, no_clip)
	default:
		ans = p.convert[:]
		LabToXyz(ans, src, no_clip)
	}
	p.space = x.dst_space()
	p.is_v2_lab = legacy && p.space == icc.LabData
	return ans
}

// CheckLast converts the output of the final stage, in place, to the
// version 4 encoding of dest.
func (p *PCS) CheckLast(pixel []Float, dest icc.Signature, no_clip bool) {
	if !icc.IsSpacePCS(p.space) || !icc.IsSpacePCS(dest) {
		return
	}
	if p.is_v2_lab {
		Lab2ToLab4(pixel, pixel, no_clip)
		if dest == icc.XYZData {
			LabToXyz(pixel, pixel, no_clip)
		}
		return
	}
	switch {
	case p.space == dest:
	case p.space == icc.XYZData:
		XyzToLab(pixel, pixel, no_clip)
	default:
		LabToXyz(pixel, pixel, no_clip)
	}
}

func clip3(p []Float, no_clip bool) {
	if !no_clip {
		p[0], p[1], p[2] = icc.UnitClip(p[0]), icc.UnitClip(p[1]), icc.UnitClip(p[2])
	}
}

// LabToXyz converts internally encoded Lab to internally encoded XYZ. dst
// may be src.
func LabToXyz(dst, src []Float, no_clip bool) {
	L, a, b := src[0]*100, src[1]*255-128, src[2]*255-128
	x, y, z := icc.LabToXYZ(L, a, b, icc.D50)
	dst[0], dst[1], dst[2] = x/icc.XYZScaleFactor, y/icc.XYZScaleFactor, z/icc.XYZScaleFactor
	clip3(dst, no_clip)
}

// XyzToLab converts internally encoded XYZ to internally encoded Lab.
func XyzToLab(dst, src []Float, no_clip bool) {
	L, a, b := icc.XYZToLab(src[0]*icc.XYZScaleFactor, src[1]*icc.XYZScaleFactor, src[2]*icc.XYZScaleFactor, icc.D50)
	dst[0], dst[1], dst[2] = L/100, (a+128)/255, (b+128)/255
	clip3(dst, no_clip)
}

func Lab2ToLab4(dst, src []Float, no_clip bool) {
	copy(dst[:3], src[:3])
	icc.Lab2ToLab4(dst)
	clip3(dst, no_clip)
}

func Lab4ToLab2(dst, src []Float) {
	copy(dst[:3], src[:3])
	icc.Lab4ToLab2(dst)
}

func Lab2ToXyz(dst, src []Float, no_clip bool) {
	Lab2ToLab4(dst, src, no_clip)
	LabToXyz(dst, dst, no_clip)
}

func XyzToLab2(dst, src []Float, no_clip bool) {
	XyzToLab(dst, src, no_clip)
	Lab4ToLab2(dst, dst)
}
