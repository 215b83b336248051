package icc

import (
	"fmt"
	"strings"
)

// CurveSlot names one of the three curve sets an MBB can carry.
type CurveSlot uint8

const (
	CurveSlotA CurveSlot = iota
	CurveSlotM
	CurveSlotB
)

func (s CurveSlot) String() string {
	switch s {
	case CurveSlotA:
		return "A"
	case CurveSlotM:
		return "M"
	case CurveSlotB:
		return "B"
	}
	return fmt.Sprintf("CurveSlot(%d)", uint8(s))
}

// MBB is the multidimensional black box shared by the LUT tag types: up to
// three curve sets, a matrix and a CLUT composed in a fixed order.
//
// With an input matrix (mBA, mft1, mft2) the order is B, Matrix, M, CLUT, A.
// Otherwise (mAB) it is A, CLUT, M, Matrix, B.
//
// The legacy mft1 and mft2 types keep their input tables in the B slot and
// their output tables in the A slot, but the input tables are applied at the
// M position, after the matrix. UseMCurvesAsBCurves records that layout and
// CurvesAt resolves it.
type MBB struct {
	tagHeader
	nInput, nOutput     int
	inputMatrix         bool
	useMCurvesAsBCurves bool
	curves              [3][]Curve
	Matrix              *Matrix
	CLUT                *CLUT
}

func (m *MBB) Inputs() int  { return m.nInput }
func (m *MBB) Outputs() int { return m.nOutput }

func (m *MBB) IsInputMatrix() bool       { return m.inputMatrix }
func (m *MBB) UseMCurvesAsBCurves() bool { return m.useMCurvesAsBCurves }

// Curves returns the curves stored in slot.
func (m *MBB) Curves(slot CurveSlot) []Curve { return m.curves[slot] }

// SetCurves stores curves in slot, replacing any existing set.
func (m *MBB) SetCurves(slot CurveSlot, curves ...Curve) { m.curves[slot] = curves }

// CurvesAt returns the curves applied at the position of slot in the
// evaluation order.
func (m *MBB) CurvesAt(pos CurveSlot) []Curve {
	if m.useMCurvesAsBCurves {
		switch pos {
		case CurveSlotB:
			return nil
		case CurveSlotM:
			return m.curves[CurveSlotB]
		}
	}
	return m.curves[pos]
}

// curve_count is the number of curves a slot must hold.
func (m *MBB) curve_count(slot CurveSlot) int {
	switch slot {
	case CurveSlotA:
		return IfElse(m.inputMatrix, m.nOutput, m.nInput)
	case CurveSlotM:
		return IfElse(m.inputMatrix, m.nInput, m.nOutput)
	default:
		if m.useMCurvesAsBCurves {
			return m.nInput
		}
		return IfElse(m.inputMatrix, m.nInput, m.nOutput)
	}
}

// NewIdentityCurves fills slot with sampled identity curves.
func (m *MBB) NewIdentityCurves(slot CurveSlot) []Curve {
	ans := make([]Curve, m.curve_count(slot))
	for i := range ans {
		ans[i] = NewCurveTag(0)
	}
	m.curves[slot] = ans
	return ans
}

// NewCLUT attaches an empty CLUT with the given grid size on every axis.
func (m *MBB) NewCLUT(grid_points int) (*CLUT, error) {
	c, err := NewCLUT(m.nInput, m.nOutput, grid_points)
	if err != nil {
		return nil, err
	}
	m.CLUT = c
	return c, nil
}

func (m *MBB) describe(sb *strings.Builder, name string) {
	fmt.Fprintf(sb, "%s\nInput Channels = %d\nOutput Channels = %d\n", name, m.nInput, m.nOutput)
	describe_curves := func(label string, curves []Curve) {
		for i, c := range curves {
			fmt.Fprintf(sb, "\n%s Curve %d: ", label, i)
			c.Describe(sb)
		}
	}
	order := []CurveSlot{CurveSlotA, CurveSlotM, CurveSlotB}
	if m.inputMatrix {
		order = []CurveSlot{CurveSlotB, CurveSlotM, CurveSlotA}
	}
	for _, slot := range order {
		label := slot.String()
		if m.useMCurvesAsBCurves {
			label = IfElse(slot == CurveSlotB, "Input", "Output")
		}
		describe_curves(label, m.curves[slot])
		if m.inputMatrix && slot == CurveSlotB && m.Matrix != nil {
			sb.WriteString("\n")
			m.Matrix.Describe(sb)
		}
	}
	if !m.inputMatrix && m.Matrix != nil {
		sb.WriteString("\n")
		m.Matrix.Describe(sb)
	}
	if m.CLUT != nil {
		sb.WriteString("\n")
		m.CLUT.Describe(sb)
	}
}

func (m *MBB) validate(sig Signature, rep *Report, p *Profile) Severity {
	rv := m.validate_reserved(sig, rep)
	if nin, nout, ok := expected_channels(sig, p); ok {
		if nin != m.nInput {
			rv = max(rv, rep.Add(ValidateCriticalError, sig, "Incorrect number of input channels."))
		}
		if nout != m.nOutput {
			rv = max(rv, rep.Add(ValidateCriticalError, sig, "Incorrect number of output channels."))
		}
	}
	if m.CLUT == nil {
		if m.nInput != m.nOutput {
			rv = max(rv, rep.Add(ValidateCriticalError, sig, "CLUT must be present if number of input and output channels differ."))
		}
	} else {
		if m.CLUT.Inputs() != m.nInput || m.CLUT.Outputs() != m.nOutput {
			rv = max(rv, rep.Add(ValidateCriticalError, sig, "CLUT channel counts do not match the tag."))
		}
		rv = max(rv, m.CLUT.Validate(sig, rep))
	}
	for slot := range m.curves {
		curves := m.curves[slot]
		if len(curves) == 0 {
			continue
		}
		if len(curves) != m.curve_count(CurveSlot(slot)) {
			rv = max(rv, rep.Add(ValidateCriticalError, sig, "Incorrect number of %s curves.", CurveSlot(slot)))
		}
		for _, c := range curves {
			rv = max(rv, c.Validate(sig, rep, p))
		}
	}
	if m.Matrix != nil {
		if IfElse(m.inputMatrix, m.nInput, m.nOutput) != 3 {
			if !m.useMCurvesAsBCurves || !m.Matrix.IsIdentity() {
				rv = max(rv, rep.Add(ValidateCriticalError, sig, "Matrix requires three channels."))
			}
		}
	}
	return rv
}

func (m *MBB) clone() MBB {
	ans := *m
	for slot, curves := range m.curves {
		if curves != nil {
			ans.curves[slot] = make([]Curve, len(curves))
			for i, c := range curves {
				ans.curves[slot][i] = c.Clone().(Curve)
			}
		}
	}
	if m.Matrix != nil {
		ans.Matrix = m.Matrix.Clone()
	}
	if m.CLUT != nil {
		ans.CLUT = m.CLUT.Clone()
	}
	return ans
}

// MBBTag is implemented by the LUT tag types.
type MBBTag interface {
	Tag
	Base() *MBB
	// UseLegacyPCS reports whether Lab values are in the version 2 16 bit
	// encoding.
	UseLegacyPCS() bool
}

// MBBScratch is the per caller working storage of an MBBEvaluator.
type MBBScratch struct {
	a, b []Float
	clut *CLUTScratch
}

// MBBEvaluator is an MBB prepared for evaluation. It does not modify the MBB
// and can be shared between goroutines, each using its own MBBScratch.
type MBBEvaluator struct {
	mbb                       *MBB
	tetra, apply_matrix       bool
	stage_a, stage_m, stage_b []Curve
	channels                  int
}

func non_identity(curves []Curve) []Curve {
	for _, c := range curves {
		c.Begin()
	}
	for _, c := range curves {
		if !c.IsIdentity() {
			return curves
		}
	}
	return nil
}

// NewEvaluator prepares m for evaluation of values arriving in src_space.
// The matrix of the legacy types is only used for XYZ input. Three input
// CLUTs use tetrahedral interpolation when tetra is set.
func (m *MBB) NewEvaluator(src_space Signature, tetra bool) (*MBBEvaluator, error) {
	if m.CLUT == nil && m.nInput != m.nOutput {
		return nil, fmt.Errorf("LUT with %d inputs and %d outputs has no CLUT: %w", m.nInput, m.nOutput, ErrInvalidTag)
	}
	if m.CLUT != nil {
		if m.CLUT.Inputs() != m.nInput || m.CLUT.Outputs() != m.nOutput {
			return nil, fmt.Errorf("CLUT does not match LUT channel counts: %w", ErrInvalidTag)
		}
		if err := m.CLUT.Begin(); err != nil {
			return nil, err
		}
	}
	e := &MBBEvaluator{
		mbb: m, tetra: tetra, channels: max(m.nInput, m.nOutput, 3),
		stage_a: non_identity(m.CurvesAt(CurveSlotA)),
		stage_m: non_identity(m.CurvesAt(CurveSlotM)),
		stage_b: non_identity(m.CurvesAt(CurveSlotB)),
	}
	if m.Matrix != nil && !m.Matrix.IsIdentity() && IfElse(m.inputMatrix, m.nInput, m.nOutput) == 3 {
		e.apply_matrix = !m.useMCurvesAsBCurves || src_space == XYZData
	}
	check := func(curves []Curve, n int, slot CurveSlot) error {
		if curves != nil && len(curves) != n {
			return fmt.Errorf("LUT has %d %s curves, %d needed: %w", len(curves), slot, n, ErrInvalidTag)
		}
		return nil
	}
	var err error
	if m.inputMatrix {
		err = check(e.stage_b, m.nInput, CurveSlotB)
		if err == nil {
			err = check(e.stage_m, m.nInput, CurveSlotM)
		}
		if err == nil {
			err = check(e.stage_a, m.nOutput, CurveSlotA)
		}
	} else {
		err = check(e.stage_a, m.nInput, CurveSlotA)
		if err == nil {
			err = check(e.stage_m, m.nOutput, CurveSlotM)
		}
		if err == nil {
			err = check(e.stage_b, m.nOutput, CurveSlotB)
		}
	}
	return e, err
}

func (e *MBBEvaluator) NewScratch() *MBBScratch {
	ans := &MBBScratch{a: make([]Float, e.channels), b: make([]Float, e.channels)}
	if e.mbb.CLUT != nil && e.mbb.nInput > 6 {
		ans.clut = e.mbb.CLUT.NewScratch()
	}
	return ans
}

func apply_curves(curves []Curve, p []Float) {
	for i, c := range curves {
		p[i] = c.Apply(p[i])
	}
}

// Apply evaluates the MBB for one pixel. src has Inputs() values and dst
// receives Outputs() values. A nil scratch allocates.
func (e *MBBEvaluator) Apply(dst, src []Float, s *MBBScratch) {
	if s == nil {
		s = e.NewScratch()
	}
	m := e.mbb
	p := s.a[:m.nInput]
	copy(p, src)
	if m.inputMatrix {
		apply_curves(e.stage_b, p)
		if e.apply_matrix {
			m.Matrix.Apply(p)
		}
		apply_curves(e.stage_m, p)
		if m.CLUT != nil {
			q := s.b[:m.nOutput]
			m.CLUT.Interp(q, p, e.tetra, s.clut)
			p = q
		}
		apply_curves(e.stage_a, p)
	} else {
		apply_curves(e.stage_a, p)
		if m.CLUT != nil {
			q := s.b[:m.nOutput]
			m.CLUT.Interp(q, p, e.tetra, s.clut)
			p = q
		}
		apply_curves(e.stage_m, p)
		if e.apply_matrix {
			m.Matrix.Apply(p)
		}
		apply_curves(e.stage_b, p)
	}
	copy(dst[:m.nOutput], p[:m.nOutput])
}
