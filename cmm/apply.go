package cmm

import (
	"fmt"

	"github.com/kovidgoyal/go-parallel"
	"github.com/kovidgoyal/iccmm/icc"
)

var _ = fmt.Print

// Enough for the 15 channel color spaces
const max_channels = 16

// ApplyCmm holds the mutable state needed to run pixels through a Cmm. Each
// goroutine needs its own, see Cmm.NewApplyCmm.
type ApplyCmm struct {
	cmm  *Cmm
	ctxs []*xform_ctx
	pcs  PCS
	bufs [2][max_channels]Float
}

func (c *Cmm) new_apply_cmm() *ApplyCmm {
	ans := &ApplyCmm{cmm: c, ctxs: make([]*xform_ctx, len(c.xforms))}
	for i, x := range c.xforms {
		ans.ctxs[i] = x.new_context()
	}
	return ans
}

// NewApplyCmm returns a new apply context, for use from a single goroutine.
func (c *Cmm) NewApplyCmm() (*ApplyCmm, error) {
	if !c.valid {
		return nil, wrap(StatusIncorrectApply, "Begin has not been called")
	}
	return c.new_apply_cmm(), nil
}

// NewApplyContext is NewApplyCmm as an Applier.
func (c *Cmm) NewApplyContext() (Applier, error) {
	a, err := c.NewApplyCmm()
	if err != nil {
		return nil, err
	}
	return a, nil
}

// run passes src through the stages [start, end) and returns the result,
// which is storage owned by a.
func (a *ApplyCmm) run(start, end int, src []Float) []Float {
	cur := src
	for i := start; i < end; i++ {
		x := a.cmm.xforms[i]
		in := a.pcs.Check(cur, x)
		out := a.bufs[(i-start)&1][:]
		x.apply(a.ctxs[i], out, in)
		cur = out
	}
	return cur
}

func (a *ApplyCmm) apply_pixel(dst, src []Float) {
	c := a.cmm
	a.pcs.Reset(c.src_space, false)
	out := a.run(0, len(c.xforms), src)
	a.pcs.CheckLast(out, c.dst_space, c.xforms[len(c.xforms)-1].no_clip_pcs())
	copy(dst[:icc.SpaceSamples(c.dst_space)], out)
}

func (c *Cmm) check_apply(dst, src []Float, n int) error {
	if !c.valid {
		return wrap(StatusIncorrectApply, "Begin has not been called")
	}
	if c.src_space == icc.NamedData || c.dst_space == icc.NamedData {
		return wrap(StatusIncorrectApply, "pixel conversion with named colors")
	}
	if len(src) < n*c.SourceSamples() || len(dst) < n*c.DestSamples() {
		return wrap(StatusIncorrectApply, "buffers too small for %d pixels", n)
	}
	return nil
}

// Apply converts one pixel. src has SourceSamples() values and dst
// receives DestSamples() values, both in the internal encoding.
func (a *ApplyCmm) Apply(dst, src []Float) error {
	if err := a.cmm.check_apply(dst, src, 1); err != nil {
		return err
	}
	a.apply_pixel(dst, src)
	return nil
}

// ApplyBuffer converts n contiguous pixels. dst may be src when
// DestSamples() <= SourceSamples().
func (a *ApplyCmm) ApplyBuffer(dst, src []Float, n int) error {
	c := a.cmm
	if err := c.check_apply(dst, src, n); err != nil {
		return err
	}
	ns, nd := c.SourceSamples(), c.DestSamples()
	for i := range n {
		a.apply_pixel(dst[i*nd:], src[i*ns:])
	}
	return nil
}

func (c *Cmm) Apply(dst, src []Float) error {
	if c.apply == nil {
		return wrap(StatusIncorrectApply, "Begin has not been called")
	}
	return c.apply.Apply(dst, src)
}

func (c *Cmm) ApplyBuffer(dst, src []Float, n int) error {
	if c.apply == nil {
		return wrap(StatusIncorrectApply, "Begin has not been called")
	}
	return c.apply.ApplyBuffer(dst, src, n)
}

// ApplyBufferParallel is ApplyBuffer spread over all CPUs, with one apply
// context per worker. dst must not overlap src.
func (c *Cmm) ApplyBufferParallel(dst, src []Float, n int) error {
	if err := c.check_apply(dst, src, n); err != nil {
		return err
	}
	ns, nd := c.SourceSamples(), c.DestSamples()
	f := func(start, limit int) {
		a := c.new_apply_cmm()
		for i := start; i < limit; i++ {
			a.apply_pixel(dst[i*nd:], src[i*ns:])
		}
	}
	return parallel.Run_in_parallel_over_range(0, f, 0, n)
}

// ApplyUint8 converts n pixels with 8 bits per channel.
func (c *Cmm) ApplyUint8(dst, src []uint8, n int) error {
	return apply_ints(c, dst, src, n, Encode8Bit)
}

// ApplyUint16 converts n pixels with 16 bits per channel. Lab uses the
// version 4 encoding.
func (c *Cmm) ApplyUint16(dst, src []uint16, n int) error {
	return apply_ints(c, dst, src, n, Encode16Bit)
}

func apply_ints[T uint8 | uint16](c *Cmm, dst, src []T, n int, enc Encoding) error {
	if !c.valid {
		return wrap(StatusIncorrectApply, "Begin has not been called")
	}
	ns, nd := c.SourceSamples(), c.DestSamples()
	if len(src) < n*ns || len(dst) < n*nd {
		return wrap(StatusIncorrectApply, "buffers too small for %d pixels", n)
	}
	var in, out [max_channels]Float
	for i := range n {
		s := src[i*ns : (i+1)*ns]
		for j, v := range s {
			in[j] = Float(v)
		}
		if err := ToInternalEncoding(c.src_space, enc, in[:], in[:], true); err != nil {
			return err
		}
		if err := c.apply.Apply(out[:], in[:]); err != nil {
			return err
		}
		if err := FromInternalEncoding(c.dst_space, enc, out[:], out[:], true); err != nil {
			return err
		}
		d := dst[i*nd : (i+1)*nd]
		for j := range d {
			d[j] = T(out[j])
		}
	}
	return nil
}
