package icc

// Interpolation over a CLUT. Inputs are clipped to [0, 1], outputs are never
// clipped. On the upper edge of an axis the cell index is stepped back by one
// and the fraction set to 1 so that the last grid point is reached exactly.
// All methods require Begin to have been called.

func cell(v Float, max_grid int) (int, Float) {
	x := UnitClip(v) * Float(max_grid)
	ix := int(x)
	f := x - Float(ix)
	if ix >= max_grid {
		ix = max_grid - 1
		f = 1
	}
	return ix, f
}

func (c *CLUT) Interp1d(dst, src []Float) {
	ix, u := cell(src[0], c.maxGridPoint[0])
	nu := 1 - u
	p := c.Data[ix*c.dimSize[0]:]
	n1 := c.dimSize[0]
	for i := range c.nOutput {
		dst[i] = p[i]*nu + p[i+n1]*u
	}
}

func (c *CLUT) Interp2d(dst, src []Float) {
	ix, u := cell(src[0], c.maxGridPoint[0])
	iy, t := cell(src[1], c.maxGridPoint[1])
	nu, nt := 1-u, 1-t
	n01, n10 := c.dimSize[1], c.dimSize[0]
	n11 := n01 + n10
	d0, d1, d2, d3 := nu*nt, nu*t, u*nt, u*t
	p := c.Data[ix*c.dimSize[0]+iy*c.dimSize[1]:]
	for i := range c.nOutput {
		dst[i] = p[i]*d0 + p[i+n01]*d1 + p[i+n10]*d2 + p[i+n11]*d3
	}
}

// Interp3d is trilinear interpolation.
func (c *CLUT) Interp3d(dst, src []Float) {
	ix, u := cell(src[0], c.maxGridPoint[0])
	iy, t := cell(src[1], c.maxGridPoint[1])
	iz, s := cell(src[2], c.maxGridPoint[2])
	ns, nt, nu := 1-s, 1-t, 1-u

	dF0 := ns * nt * nu
	dF1 := ns * nt * u
	dF2 := ns * t * nu
	dF3 := ns * t * u
	dF4 := s * nt * nu
	dF5 := s * nt * u
	dF6 := s * t * nu
	dF7 := s * t * u

	p := c.Data[ix*c.n001+iy*c.n010+iz*c.n100:]
	for i := range c.nOutput {
		dst[i] = p[i]*dF0 + p[i+c.n001]*dF1 + p[i+c.n010]*dF2 + p[i+c.n011]*dF3 +
			p[i+c.n100]*dF4 + p[i+c.n101]*dF5 + p[i+c.n110]*dF6 + p[i+c.n111]*dF7
	}
}

// Interp3dTetra splits the cell into six tetrahedra, selected by comparing
// the fractional offsets t (third input), u (second) and v (first).
func (c *CLUT) Interp3dTetra(dst, src []Float) {
	ix, v := cell(src[0], c.maxGridPoint[0])
	iy, u := cell(src[1], c.maxGridPoint[1])
	iz, t := cell(src[2], c.maxGridPoint[2])
	n001, n010, n011, n100, n101, n110, n111 := c.n001, c.n010, c.n011, c.n100, c.n101, c.n110, c.n111

	p := c.Data[ix*n001+iy*n010+iz*n100:]
	for i := range c.nOutput {
		q := p[i:]
		var pv Float
		if t < u {
			if t > v {
				pv = q[0] + t*(q[n110]-q[n010]) + u*(q[n010]-q[0]) + v*(q[n111]-q[n110])
			} else if u < v {
				pv = q[0] + t*(q[n111]-q[n011]) + u*(q[n011]-q[n001]) + v*(q[n001]-q[0])
			} else {
				pv = q[0] + t*(q[n111]-q[n011]) + u*(q[n010]-q[0]) + v*(q[n011]-q[n010])
			}
		} else {
			if t < v {
				pv = q[0] + t*(q[n101]-q[n001]) + u*(q[n111]-q[n101]) + v*(q[n001]-q[0])
			} else if u < v {
				pv = q[0] + t*(q[n100]-q[0]) + u*(q[n111]-q[n101]) + v*(q[n101]-q[n100])
			} else {
				pv = q[0] + t*(q[n100]-q[0]) + u*(q[n110]-q[n100]) + v*(q[n111]-q[n110])
			}
		}
		dst[i] = pv
	}
}

// Interp4d is quadrilinear interpolation.
func (c *CLUT) Interp4d(dst, src []Float) {
	ix, u := cell(src[0], c.maxGridPoint[0])
	iy, t := cell(src[1], c.maxGridPoint[1])
	iz, s := cell(src[2], c.maxGridPoint[2])
	iw, r := cell(src[3], c.maxGridPoint[3])
	nu, nt, ns, nr := 1-u, 1-t, 1-s, 1-r

	var dF [16]Float
	dF[0] = nu * nt * ns * nr
	dF[1] = nu * nt * ns * r
	dF[2] = nu * nt * s * nr
	dF[3] = nu * nt * s * r
	dF[4] = nu * t * ns * nr
	dF[5] = nu * t * ns * r
	dF[6] = nu * t * s * nr
	dF[7] = nu * t * s * r
	dF[8] = u * nt * ns * nr
	dF[9] = u * nt * ns * r
	dF[10] = u * nt * s * nr
	dF[11] = u * nt * s * r
	dF[12] = u * t * ns * nr
	dF[13] = u * t * ns * r
	dF[14] = u * t * s * nr
	dF[15] = u * t * s * r

	p := c.Data[ix*c.dimSize[0]+iy*c.dimSize[1]+iz*c.dimSize[2]+iw*c.dimSize[3]:]
	o := c.offsets
	for i := range c.nOutput {
		q := p[i:]
		var pv Float
		for j := range 16 {
			pv += q[o[j]] * dF[j]
		}
		dst[i] = pv
	}
}

// corner_weights expands per axis fractions into the weights of the 2^n
// cell corners, the first axis being the most significant bit of the corner
// index.
func corner_weights(fracs []Float, out []Float) {
	out[0] = 1
	size := 1
	for _, f := range fracs {
		nf := 1 - f
		for k := size - 1; k >= 0; k-- {
			w := out[k]
			out[2*k+1] = w * f
			out[2*k] = w * nf
		}
		size *= 2
	}
}

func (c *CLUT) interp_fixed(dst, src []Float, dF []Float) {
	var fracs [6]Float
	base := 0
	for i := range c.nInput {
		ix, f := cell(src[i], c.maxGridPoint[i])
		fracs[i] = f
		base += ix * c.dimSize[i]
	}
	corner_weights(fracs[:c.nInput], dF)
	p := c.Data[base:]
	o := c.offsets
	for i := range c.nOutput {
		q := p[i:]
		var pv Float
		for j, w := range dF {
			pv += q[o[j]] * w
		}
		dst[i] = pv
	}
}

func (c *CLUT) Interp5d(dst, src []Float) {
	var dF [32]Float
	c.interp_fixed(dst, src, dF[:])
}

func (c *CLUT) Interp6d(dst, src []Float) {
	var dF [64]Float
	c.interp_fixed(dst, src, dF[:])
}

// CLUTScratch holds the working storage of InterpND so that concurrent
// callers do not share state. Create one per goroutine with NewScratch.
type CLUTScratch struct {
	g, s, df []Float
	ig       []int
}

func (c *CLUT) NewScratch() *CLUTScratch {
	return &CLUTScratch{
		g: make([]Float, c.nInput), s: make([]Float, c.nInput),
		ig: make([]int, c.nInput), df: make([]Float, 1<<c.nInput),
	}
}

// InterpND is multilinear interpolation for any number of inputs. The weights
// of the 2^n corners are built one axis at a time by toggling between the
// low and high weight of that axis every 2^i corners.
func (c *CLUT) InterpND(dst, src []Float, scratch *CLUTScratch) {
	if scratch == nil {
		scratch = c.NewScratch()
	}
	g, s, df, ig := scratch.g, scratch.s, scratch.df, scratch.ig
	n := c.nInput
	index := 0
	for i := range n {
		g[i] = UnitClip(src[i]) * Float(c.maxGridPoint[i])
		ig[i] = int(g[i])
		s[n-1-i] = g[i] - Float(ig[i])
		if ig[i] >= c.maxGridPoint[i] {
			ig[i] = c.maxGridPoint[i] - 1
			s[n-1-i] = 1
		}
		index += ig[i] * c.dimSize[i]
	}
	for j := range c.nodes {
		df[j] = 1
	}
	for i := range n {
		temp := [2]Float{1 - s[i], s[i]}
		power := 1 << i
		flag := 0
		for j := range c.nodes {
			df[j] *= temp[flag]
			if (j+1)%power == 0 {
				flag ^= 1
			}
		}
	}
	p := c.Data[index:]
	for i := range c.nOutput {
		q := p[i:]
		var pv Float
		for j := range c.nodes {
			pv += q[c.offsets[j]] * df[j]
		}
		dst[i] = pv
	}
}

// Interp dispatches to the specialized routine for the number of inputs.
// Three input tables use tetrahedral interpolation when tetra is true.
func (c *CLUT) Interp(dst, src []Float, tetra bool, scratch *CLUTScratch) {
	switch c.nInput {
	case 1:
		c.Interp1d(dst, src)
	case 2:
		c.Interp2d(dst, src)
	case 3:
		if tetra {
			c.Interp3dTetra(dst, src)
		} else {
			c.Interp3d(dst, src)
		}
	case 4:
		c.Interp4d(dst, src)
	case 5:
		c.Interp5d(dst, src)
	case 6:
		c.Interp6d(dst, src)
	default:
		c.InterpND(dst, src, scratch)
	}
}
