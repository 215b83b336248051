package icc

import (
	"math"
)

// D50 is the PCS illuminant. The Z value is the one ICC profiles use rather
// than the CIE value.
var D50 = XYZNumber{0.9642, 1.0, 0.8249}

// Internal encodings of the profile connection spaces. Every channel maps to
// [0, 1] for in gamut colors:
//
//	Lab: L/100, (a+128)/255, (b+128)/255
//	XYZ: X/(1 + 32767/32768), the range of a u1Fixed15 number
//
// Version 2 Lab uses 65280 rather than 65535 as the 16 bit code for L = 100.
const (
	XYZScaleFactor = 1 + 32767.0/32768.0
	lab2_to_lab4   = 65535.0 / 65280.0
	lab4_to_lab2   = 65280.0 / 65535.0
)

func finv(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta {
		return t * t * t
	}
	return 3 * delta * delta * (t - 4.0/29.0)
}

func ff(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta*delta*delta {
		return math.Cbrt(t)
	}
	return t/(3*delta*delta) + 4.0/29.0
}

// LabToXYZ converts CIE L*a*b* values to XYZ relative to white.
func LabToXYZ(L, a, b Float, white XYZNumber) (X, Y, Z Float) {
	fy := (float64(L) + 16) / 116
	fx := fy + float64(a)/500
	fz := fy - float64(b)/200
	return Float(finv(fx) * float64(white.X)), Float(finv(fy) * float64(white.Y)), Float(finv(fz) * float64(white.Z))
}

// XYZToLab converts XYZ relative to white to CIE L*a*b*.
func XYZToLab(X, Y, Z Float, white XYZNumber) (L, a, b Float) {
	fx := ff(float64(X) / float64(white.X))
	fy := ff(float64(Y) / float64(white.Y))
	fz := ff(float64(Z) / float64(white.Z))
	return Float(116*fy - 16), Float(500 * (fx - fy)), Float(200 * (fy - fz))
}

// LabToPcs converts Lab values in place to the internal encoding.
func LabToPcs(p []Float) {
	p[0] /= 100
	p[1] = (p[1] + 128) / 255
	p[2] = (p[2] + 128) / 255
}

// LabFromPcs converts internally encoded Lab in place to Lab values.
func LabFromPcs(p []Float) {
	p[0] *= 100
	p[1] = p[1]*255 - 128
	p[2] = p[2]*255 - 128
}

func XyzToPcs(p []Float) {
	for i := range 3 {
		p[i] /= XYZScaleFactor
	}
}

func XyzFromPcs(p []Float) {
	for i := range 3 {
		p[i] *= XYZScaleFactor
	}
}

// Lab2ToLab4 rescales internally encoded version 2 Lab to version 4.
func Lab2ToLab4(p []Float) {
	for i := range 3 {
		p[i] *= lab2_to_lab4
	}
}

func Lab4ToLab2(p []Float) {
	for i := range 3 {
		p[i] *= lab4_to_lab2
	}
}

// DeltaE is the CIE 1976 color difference of two Lab values.
func DeltaE(a, b []Float) Float {
	dl, da, db := float64(a[0]-b[0]), float64(a[1]-b[1]), float64(a[2]-b[2])
	return Float(math.Sqrt(dl*dl + da*da + db*db))
}

// PcsToLab converts an internally encoded version 4 pixel of the given PCS
// to Lab values.
func PcsToLab(space Signature, p []Float) (ans [3]Float) {
	copy(ans[:], p[:3])
	if space == XYZData {
		XyzFromPcs(ans[:])
		ans[0], ans[1], ans[2] = XYZToLab(ans[0], ans[1], ans[2], D50)
	} else {
		LabFromPcs(ans[:])
	}
	return
}

// bradford is the cone response matrix of the Bradford chromatic adaptation
// transform.
var bradford = Matrix3{
	{0.8951, 0.2664, -0.1614},
	{-0.7502, 1.7135, 0.0367},
	{0.0389, -0.0685, 1.0296},
}

// AdaptationMatrix returns the Bradford matrix adapting XYZ values relative
// to src_white to dst_white, the form stored in the 'chad' tag.
func AdaptationMatrix(src_white, dst_white XYZNumber) (Matrix3, error) {
	inv, err := bradford.Inverted()
	if err != nil {
		return Matrix3{}, err
	}
	sl, sm, ss := bradford.Transform(src_white.X, src_white.Y, src_white.Z)
	dl, dm, ds := bradford.Transform(dst_white.X, dst_white.Y, dst_white.Z)
	diag := Matrix3{{dl / sl, 0, 0}, {0, dm / sm, 0}, {0, 0, ds / ss}}
	tmp := diag.Multiply(bradford)
	return inv.Multiply(tmp), nil
}
