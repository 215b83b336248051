package icc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kovidgoyal/iccmm/iccio"
)

// Determinants smaller than this are treated as zero when inverting
const MATRIX_DET_TOLERANCE = 1e-9

var ErrSingularMatrix = errors.New("matrix is singular and cannot be inverted")

type Matrix3 [3][3]Float

var IdentityMatrix3 = Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

func (m *Matrix3) Transform(r, g, b Float) (Float, Float, Float) {
	return m[0][0]*r + m[0][1]*g + m[0][2]*b,
		m[1][0]*r + m[1][1]*g + m[1][2]*b,
		m[2][0]*r + m[2][1]*g + m[2][2]*b
}

func (m *Matrix3) Multiply(o Matrix3) (ans Matrix3) {
	for i := range 3 {
		for j := range 3 {
			ans[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j] + m[i][2]*o[2][j]
		}
	}
	return
}

func (mat *Matrix3) Inverted() (ans Matrix3, err error) {
	// compute in double precision, single precision determinants of XYZ
	// colorant matrices lose too much
	var m [3][3]float64
	for i := range 3 {
		for j := range 3 {
			m[i][j] = float64(mat[i][j])
		}
	}
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	if det > -MATRIX_DET_TOLERANCE && det < MATRIX_DET_TOLERANCE {
		return ans, ErrSingularMatrix
	}
	inv_det := 1 / det
	adj := [3][3]float64{
		{
			(m[1][1]*m[2][2] - m[1][2]*m[2][1]),
			(m[0][2]*m[2][1] - m[0][1]*m[2][2]),
			(m[0][1]*m[1][2] - m[0][2]*m[1][1]),
		},
		{
			(m[1][2]*m[2][0] - m[1][0]*m[2][2]),
			(m[0][0]*m[2][2] - m[0][2]*m[2][0]),
			(m[0][2]*m[1][0] - m[0][0]*m[1][2]),
		},
		{
			(m[1][0]*m[2][1] - m[1][1]*m[2][0]),
			(m[0][1]*m[2][0] - m[0][0]*m[2][1]),
			(m[0][0]*m[1][1] - m[0][1]*m[1][0]),
		},
	}
	for i := range 3 {
		for j := range 3 {
			ans[i][j] = Float(inv_det * adj[i][j])
		}
	}
	return
}

// Matrix is the 3x3 matrix, with an optional offset, embedded in LUT tags.
type Matrix struct {
	M            Matrix3
	Offset       [3]Float
	UseConstants bool
}

func NewIdentityMatrix(use_constants bool) *Matrix {
	return &Matrix{M: IdentityMatrix3, UseConstants: use_constants}
}

// Apply transforms the first three channels of pixel in place.
func (m *Matrix) Apply(pixel []Float) {
	a, b, c := m.M.Transform(pixel[0], pixel[1], pixel[2])
	if m.UseConstants {
		a, b, c = a+m.Offset[0], b+m.Offset[1], c+m.Offset[2]
	}
	pixel[0], pixel[1], pixel[2] = a, b, c
}

func (m *Matrix) IsIdentity() bool {
	if m.UseConstants && (m.Offset[0] != 0 || m.Offset[1] != 0 || m.Offset[2] != 0) {
		return false
	}
	if !IsUnity(m.M[0][0]) || !IsUnity(m.M[1][1]) || !IsUnity(m.M[2][2]) {
		return false
	}
	return m.M[0][1] == 0 && m.M[0][2] == 0 && m.M[1][0] == 0 && m.M[1][2] == 0 && m.M[2][0] == 0 && m.M[2][1] == 0
}

func (m *Matrix) read(r *iccio.Reader, with_offset bool) error {
	v := make([]Float, IfElse(with_offset, 12, 9))
	if _, err := iccio.ReadS15Fixed16s(r, v); err != nil {
		return err
	}
	for i := range 9 {
		m.M[i/3][i%3] = v[i]
	}
	m.UseConstants = with_offset
	if with_offset {
		copy(m.Offset[:], v[9:])
	}
	return nil
}

func (m *Matrix) write(w *iccio.Writer, with_offset bool) error {
	v := make([]Float, 0, 12)
	for i := range 9 {
		v = append(v, m.M[i/3][i%3])
	}
	if with_offset {
		v = append(v, m.Offset[:]...)
	}
	_, err := iccio.WriteS15Fixed16s(w, v)
	return err
}

func (m *Matrix) Describe(sb *strings.Builder) {
	sb.WriteString("Matrix\n")
	for i := range 3 {
		fmt.Fprintf(sb, "%8.4f %8.4f %8.4f", m.M[i][0], m.M[i][1], m.M[i][2])
		if m.UseConstants {
			fmt.Fprintf(sb, "  +  %8.4f", m.Offset[i])
		}
		sb.WriteString("\n")
	}
}

func (m *Matrix) Validate(sig Signature, rep *Report) Severity {
	if _, err := m.M.Inverted(); err != nil {
		return rep.Add(ValidateWarning, sig, "Matrix is not invertible.")
	}
	return ValidateOK
}

func (m *Matrix) Clone() *Matrix {
	ans := *m
	return &ans
}
