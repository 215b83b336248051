package cmm

import (
	"fmt"

	"github.com/kovidgoyal/iccmm/icc"
)

var _ = fmt.Print

// NamedColorCmm is a Cmm whose source or destination may be color names,
// given as icc.NamedData. Only the first stage can consume names and only the
// last stage can produce them.
type NamedColorCmm struct {
	Cmm
}

func NewNamedColorCmm(src, dst icc.Signature, first_input bool, opts ...Option) *NamedColorCmm {
	ans := &NamedColorCmm{Cmm: *New(src, dst, first_input, opts...)}
	ans.named = true
	return ans
}

func (c *NamedColorCmm) named_stage(i int) (*named_xform, error) {
	if !c.valid {
		return nil, wrap(StatusIncorrectApply, "Begin has not been called")
	}
	x, ok := c.xforms[i].(*named_xform)
	if !ok {
		return nil, wrap(StatusIncorrectApply, "stage %d is not a named color stage", i+1)
	}
	return x, nil
}

// ApplyNameToPixel converts a full color name to a pixel of DestSpace().
func (c *NamedColorCmm) ApplyNameToPixel(dst []Float, name string) error {
	if c.src_space != icc.NamedData || c.dst_space == icc.NamedData {
		return wrap(StatusIncorrectApply, "%s to %s is not name to pixel", c.src_space, c.dst_space)
	}
	first, err := c.named_stage(0)
	if err != nil {
		return err
	}
	if len(dst) < c.DestSamples() {
		return wrap(StatusIncorrectApply, "pixel buffer too small")
	}
	a := c.apply
	p := a.bufs[1][:]
	if err = first.name_to_pixel(p, name); err != nil {
		return err
	}
	a.pcs.Reset(first.dst_space(), first.use_legacy_pcs())
	out := a.run(1, len(c.xforms), p)
	a.pcs.CheckLast(out, c.dst_space, c.xforms[len(c.xforms)-1].no_clip_pcs())
	copy(dst[:c.DestSamples()], out)
	return nil
}

// ApplyPixelToName returns the name of the color nearest to the pixel src
// of SourceSpace().
func (c *NamedColorCmm) ApplyPixelToName(src []Float) (string, error) {
	if c.dst_space != icc.NamedData || c.src_space == icc.NamedData {
		return "", wrap(StatusIncorrectApply, "%s to %s is not pixel to name", c.src_space, c.dst_space)
	}
	last_idx := len(c.xforms) - 1
	last, err := c.named_stage(last_idx)
	if err != nil {
		return "", err
	}
	if len(src) < c.SourceSamples() {
		return "", wrap(StatusIncorrectApply, "pixel buffer too small")
	}
	a := c.apply
	a.pcs.Reset(c.src_space, false)
	out := a.run(0, last_idx, src)
	return last.pixel_to_name(a.ctxs[last_idx], a.pcs.Check(out, last))
}

// ApplyNameToName maps a color name through the stages to a color name.
func (c *NamedColorCmm) ApplyNameToName(name string) (string, error) {
	if c.src_space != icc.NamedData || c.dst_space != icc.NamedData {
		return "", wrap(StatusIncorrectApply, "%s to %s is not name to name", c.src_space, c.dst_space)
	}
	last_idx := len(c.xforms) - 1
	if last_idx < 1 {
		return "", wrap(StatusBadXform, "name to name needs at least two stages")
	}
	first, err := c.named_stage(0)
	if err != nil {
		return "", err
	}
	last, err := c.named_stage(last_idx)
	if err != nil {
		return "", err
	}
	a := c.apply
	p := a.bufs[1][:]
	if err = first.name_to_pixel(p, name); err != nil {
		return "", err
	}
	a.pcs.Reset(first.dst_space(), first.use_legacy_pcs())
	out := a.run(1, last_idx, p)
	return last.pixel_to_name(a.ctxs[last_idx], a.pcs.Check(out, last))
}
