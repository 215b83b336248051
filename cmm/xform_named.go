package cmm

import (
	"fmt"
	"math"

	"github.com/kovidgoyal/iccmm/icc"
)

var _ = fmt.Print

// named_xform maps between named colors, their PCS values and their device
// coordinates. Either side may be icc.NamedData, in which case the stage can
// only be used through a NamedColorCmm.
type named_xform struct {
	xform_base
	tag *icc.NamedColor2Tag
}

func new_named_xform(base xform_base, t *icc.NamedColor2Tag) (xform, error) {
	x := &named_xform{xform_base: base, tag: t}
	x.legacy = t.PCSSpace() == icc.LabData
	return x, nil
}

func (x *named_xform) begin() error {
	if len(x.tag.Colors) == 0 {
		return wrap(StatusBadXform, "named color table of %s is empty", x.profile.Description())
	}
	for _, s := range []icc.Signature{x.src, x.dst} {
		if s != icc.NamedData && !icc.IsSpacePCS(s) && x.tag.DeviceCoords != icc.SpaceSamples(s) {
			return wrap(StatusBadSpaceLink, "named colors have %d device coordinates, %s needs %d", x.tag.DeviceCoords, s, icc.SpaceSamples(s))
		}
	}
	if x.src == x.dst {
		return wrap(StatusBadSpaceLink, "named color stage from %s to itself", x.src)
	}
	return nil
}

func (x *named_xform) new_context() *xform_ctx {
	return &xform_ctx{tmp: make([]Float, max(3, x.tag.DeviceCoords))}
}

// find_index locates the entry nearest to a PCS or device pixel.
func (x *named_xform) find_index(ctx *xform_ctx, src []Float) int {
	if !icc.IsSpacePCS(x.src) {
		return x.tag.FindDeviceColor(src[:x.tag.DeviceCoords])
	}
	p := ctx.abs[:]
	copy(p, src[:3])
	if x.legacy {
		icc.Lab2ToLab4(p)
	}
	return x.tag.FindPCSColor(p, math.MaxFloat32)
}

func (x *named_xform) entry_to_pixel(dst []Float, idx int) {
	c := &x.tag.Colors[idx]
	if icc.IsSpacePCS(x.dst) {
		copy(dst, c.PCS[:])
	} else {
		copy(dst, c.Device)
	}
}

func (x *named_xform) apply(ctx *xform_ctx, dst, src []Float) {
	idx := x.find_index(ctx, src)
	if idx < 0 {
		clear(dst[:icc.SpaceSamples(x.dst)])
		return
	}
	x.entry_to_pixel(dst, idx)
}

func (x *named_xform) name_to_pixel(dst []Float, name string) error {
	idx := x.tag.FindColor(name)
	if idx < 0 {
		return wrap(StatusColorNotFound, "%q", name)
	}
	x.entry_to_pixel(dst, idx)
	return nil
}

func (x *named_xform) pixel_to_name(ctx *xform_ctx, src []Float) (string, error) {
	idx := x.find_index(ctx, src)
	if idx < 0 {
		return "", wrap(StatusColorNotFound, "no named color for %v", src)
	}
	return x.tag.ColorName(idx), nil
}

func (x *named_xform) String() string { return x.describe("NamedColor") }
