package icc

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/kovidgoyal/iccmm/iccio"
)

// Multi process elements operate on unbounded floating point values, only
// CLUT element inputs are clipped.

// Element is one processing step of a MultiProcessElementTag.
type Element interface {
	Type() Signature
	Inputs() int
	Outputs() int
	read(data []byte) error
	Write(w *iccio.Writer) error
	Describe(sb *strings.Builder)
	Validate(sig Signature, rep *Report) Severity
	Begin() error
	Apply(dst, src []Float, scratch *CLUTScratch)
	CloneElement() Element
}

type elemHeader struct {
	reserved        uint32
	nInput, nOutput int
}

func (h *elemHeader) Inputs() int  { return h.nInput }
func (h *elemHeader) Outputs() int { return h.nOutput }

func (h *elemHeader) read_header(data []byte, expected Signature, min_size int) error {
	if len(data) < max(12, min_size) {
		return fmt.Errorf("%s element of %d bytes is too small: %w", expected, len(data), ErrTagTooSmall)
	}
	if s := Signature(binary.BigEndian.Uint32(data)); s != expected {
		return fmt.Errorf("expected element %s got %s: %w", expected, s, ErrUnexpectedType)
	}
	h.reserved = binary.BigEndian.Uint32(data[4:])
	h.nInput, h.nOutput = int(binary.BigEndian.Uint16(data[8:])), int(binary.BigEndian.Uint16(data[10:]))
	return nil
}

func (h *elemHeader) write_header(w *iccio.Writer, typ Signature) error {
	if _, err := w.Write32s([]uint32{uint32(typ), 0}); err != nil {
		return err
	}
	_, err := w.Write16s([]uint16{uint16(h.nInput), uint16(h.nOutput)})
	return err
}

func (h *elemHeader) validate_reserved(sig Signature, rep *Report) Severity {
	if h.reserved != 0 {
		return rep.Add(ValidateNonCompliant, sig, "Element reserved value must be zero.")
	}
	return ValidateOK
}

func read_floats(r *iccio.Reader, n int) ([]Float, error) {
	size, err := r.Size()
	if err != nil {
		return nil, err
	}
	if remaining := size - r.Tell(); int64(n)*4 > remaining {
		return nil, fmt.Errorf("%d float32 values exceed the %d bytes left: %w", n, remaining, ErrTagTooSmall)
	}
	ans := make([]Float, n)
	if _, err := iccio.ReadFloat32s(r, ans); err != nil {
		return nil, err
	}
	return ans, nil
}

// CurveSegment is one piece of a SegmentedCurve covering (Start, End].
type CurveSegment interface {
	Type() Signature
	Bounds() (start, end Float)
	Apply(x Float) Float
	describe(sb *strings.Builder)
	write(w *iccio.Writer) error
	clone() CurveSegment
}

// FormulaSegment is the 'parf' segment.
//
//	type 0: Y = (a*X + b)^g + c         params g a b c
//	type 1: Y = a*log10(b*X^g + c) + d  params g a b c d
//	type 2: Y = a*b^(c*X + d) + e       params a b c d e
type FormulaSegment struct {
	Start, End   Float
	FunctionType uint16
	Params       []Float
}

func FormulaParamCount(function_type uint16) int {
	switch function_type {
	case 0:
		return 4
	case 1, 2:
		return 5
	}
	return 0
}

func (s *FormulaSegment) Type() Signature        { return FormulaCurveSegmentTypeSignature }
func (s *FormulaSegment) Bounds() (Float, Float) { return s.Start, s.End }
func (s *FormulaSegment) p(i int) float64        { return float64(s.Params[i]) }

func (s *FormulaSegment) clone() CurveSegment {
	ans := *s
	ans.Params = append([]Float(nil), s.Params...)
	return &ans
}

func (s *FormulaSegment) Apply(x Float) Float {
	v := float64(x)
	switch s.FunctionType {
	case 0:
		g, a, b, c := s.p(0), s.p(1), s.p(2), s.p(3)
		return Float(math.Pow(a*v+b, g) + c)
	case 1:
		g, a, b, c, d := s.p(0), s.p(1), s.p(2), s.p(3), s.p(4)
		return Float(a*math.Log10(b*math.Pow(v, g)+c) + d)
	case 2:
		a, b, c, d, e := s.p(0), s.p(1), s.p(2), s.p(3), s.p(4)
		return Float(a*math.Pow(b, c*v+d) + e)
	}
	return 0
}

func (s *FormulaSegment) describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "Segment (%.8f, %.8f] formula type %d params %v\n", s.Start, s.End, s.FunctionType, s.Params)
}

func (s *FormulaSegment) write(w *iccio.Writer) error {
	if err := write_header(w, FormulaCurveSegmentTypeSignature); err != nil {
		return err
	}
	if _, err := w.Write16s([]uint16{s.FunctionType, 0}); err != nil {
		return err
	}
	_, err := iccio.WriteFloat32s(w, s.Params)
	return err
}

// SampledSegment is the 'samf' segment. The value at Start is not stored, it
// is the value of the previous segment at its end.
type SampledSegment struct {
	Start, End Float
	Samples    []Float
	first      Float
}

func (s *SampledSegment) Type() Signature        { return SampledCurveSegmentTypeSignature }
func (s *SampledSegment) Bounds() (Float, Float) { return s.Start, s.End }
func (s *SampledSegment) clone() CurveSegment {
	ans := *s
	ans.Samples = append([]Float(nil), s.Samples...)
	return &ans
}

func (s *SampledSegment) Apply(x Float) Float {
	n := len(s.Samples)
	if n == 0 || s.End <= s.Start {
		return s.first
	}
	pos := (x - s.Start) / (s.End - s.Start) * Float(n)
	if pos <= 0 {
		return s.first
	}
	if pos >= Float(n) {
		return s.Samples[n-1]
	}
	idx := int(pos)
	frac := pos - Float(idx)
	lo := s.first
	if idx > 0 {
		lo = s.Samples[idx-1]
	}
	return lo + (s.Samples[idx]-lo)*frac
}

func (s *SampledSegment) describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "Segment (%.8f, %.8f] with %d samples\n", s.Start, s.End, len(s.Samples))
	for i, v := range s.Samples {
		fmt.Fprintf(sb, "%5d  %.8f\n", i+1, v)
	}
}

func (s *SampledSegment) write(w *iccio.Writer) error {
	if err := write_header(w, SampledCurveSegmentTypeSignature); err != nil {
		return err
	}
	if err := w.Write32(uint32(len(s.Samples))); err != nil {
		return err
	}
	_, err := iccio.WriteFloat32s(w, s.Samples)
	return err
}

// SegmentedCurve is the 'curf' curve of a curve set element, a sequence of
// segments split at breakpoints covering the whole real line.
type SegmentedCurve struct {
	Segments []CurveSegment
}

// NewSegmentedCurve builds a curve from consecutive segments split at the
// given breakpoints, len(breaks) must be len(segments)-1. The first segment
// starts at minus infinity and the last ends at infinity.
func NewSegmentedCurve(breaks []Float, segments ...CurveSegment) *SegmentedCurve {
	for i, s := range segments {
		start, end := Float(math.Inf(-1)), Float(math.Inf(1))
		if i > 0 {
			start = breaks[i-1]
		}
		if i < len(breaks) {
			end = breaks[i]
		}
		set_bounds(s, start, end)
	}
	ans := &SegmentedCurve{Segments: segments}
	ans.Begin()
	return ans
}

func set_bounds(s CurveSegment, start, end Float) {
	switch v := s.(type) {
	case *FormulaSegment:
		v.Start, v.End = start, end
	case *SampledSegment:
		v.Start, v.End = start, end
	}
}

// Begin computes the implied first value of every sampled segment.
func (c *SegmentedCurve) Begin() {
	for i, s := range c.Segments {
		if ss, ok := s.(*SampledSegment); ok {
			if i > 0 {
				ss.first = c.Segments[i-1].Apply(ss.Start)
			} else if len(ss.Samples) > 0 {
				ss.first = ss.Samples[0]
			}
		}
	}
}

func (c *SegmentedCurve) Apply(x Float) Float {
	n := len(c.Segments)
	if n == 0 {
		return x
	}
	for _, s := range c.Segments[:n-1] {
		if _, end := s.Bounds(); x <= end {
			return s.Apply(x)
		}
	}
	return c.Segments[n-1].Apply(x)
}

func (c *SegmentedCurve) read(r *iccio.Reader) error {
	var hdr [2]uint32
	if _, err := r.Read32s(hdr[:]); err != nil {
		return err
	}
	if Signature(hdr[0]) != SegmentedCurveTypeSignature {
		return fmt.Errorf("expected segmented curve got %s: %w", Signature(hdr[0]), ErrUnexpectedType)
	}
	var counts [2]uint16
	if _, err := r.Read16s(counts[:]); err != nil {
		return err
	}
	n := int(counts[0])
	if n == 0 {
		return fmt.Errorf("segmented curve without segments: %w", ErrInvalidTag)
	}
	breaks, err := read_floats(r, n-1)
	if err != nil {
		return err
	}
	bounds := make([]Float, 0, n+1)
	bounds = append(bounds, Float(math.Inf(-1)))
	bounds = append(bounds, breaks...)
	bounds = append(bounds, Float(math.Inf(1)))
	c.Segments = make([]CurveSegment, n)
	for i := range n {
		var sh [2]uint32
		if _, err := r.Read32s(sh[:]); err != nil {
			return err
		}
		switch Signature(sh[0]) {
		case FormulaCurveSegmentTypeSignature:
			var ft [2]uint16
			if _, err := r.Read16s(ft[:]); err != nil {
				return err
			}
			np := FormulaParamCount(ft[0])
			if np == 0 {
				return fmt.Errorf("formula segment of unknown type %d: %w", ft[0], ErrInvalidTag)
			}
			params, err := read_floats(r, np)
			if err != nil {
				return err
			}
			c.Segments[i] = &FormulaSegment{Start: bounds[i], End: bounds[i+1], FunctionType: ft[0], Params: params}
		case SampledCurveSegmentTypeSignature:
			count, err := r.Read32()
			if err != nil {
				return err
			}
			if count > MaxCLUTSamples {
				return fmt.Errorf("sampled segment with %d samples: %w", count, ErrInvalidTag)
			}
			samples, err := read_floats(r, int(count))
			if err != nil {
				return err
			}
			c.Segments[i] = &SampledSegment{Start: bounds[i], End: bounds[i+1], Samples: samples}
		default:
			return fmt.Errorf("unknown curve segment type %s: %w", Signature(sh[0]), ErrUnexpectedType)
		}
	}
	c.Begin()
	return nil
}

func (c *SegmentedCurve) write(w *iccio.Writer) error {
	if err := write_header(w, SegmentedCurveTypeSignature); err != nil {
		return err
	}
	if _, err := w.Write16s([]uint16{uint16(len(c.Segments)), 0}); err != nil {
		return err
	}
	breaks := make([]Float, 0, len(c.Segments))
	for _, s := range c.Segments[:max(len(c.Segments)-1, 0)] {
		_, end := s.Bounds()
		breaks = append(breaks, end)
	}
	if _, err := iccio.WriteFloat32s(w, breaks); err != nil {
		return err
	}
	for _, s := range c.Segments {
		if err := s.write(w); err != nil {
			return err
		}
	}
	return nil
}

func (c *SegmentedCurve) validate(sig Signature, rep *Report) Severity {
	rv := ValidateOK
	if len(c.Segments) == 0 {
		return rep.Add(ValidateCriticalError, sig, "Segmented curve has no segments.")
	}
	if _, ok := c.Segments[0].(*SampledSegment); ok {
		rv = max(rv, rep.Add(ValidateCriticalError, sig, "First curve segment cannot be sampled."))
	}
	for i, s := range c.Segments {
		start, end := s.Bounds()
		if i > 0 && i < len(c.Segments)-1 && end < start {
			rv = max(rv, rep.Add(ValidateCriticalError, sig, "Curve breakpoints are not increasing."))
		}
		if f, ok := s.(*FormulaSegment); ok && len(f.Params) < FormulaParamCount(f.FunctionType) {
			rv = max(rv, rep.Add(ValidateCriticalError, sig, "Formula segment has too few parameters."))
		}
	}
	return rv
}

func (c *SegmentedCurve) clone() *SegmentedCurve {
	ans := &SegmentedCurve{Segments: make([]CurveSegment, len(c.Segments))}
	for i, s := range c.Segments {
		ans.Segments[i] = s.clone()
	}
	ans.Begin()
	return ans
}

// CurveSetElement is the 'cvst' element, one curve per channel.
type CurveSetElement struct {
	elemHeader
	Curves []*SegmentedCurve
}

func NewCurveSetElement(curves ...*SegmentedCurve) *CurveSetElement {
	return &CurveSetElement{elemHeader: elemHeader{nInput: len(curves), nOutput: len(curves)}, Curves: curves}
}

func (e *CurveSetElement) Type() Signature { return CurveSetElemTypeSignature }
func (e *CurveSetElement) Begin() error {
	if len(e.Curves) != e.nInput || e.nInput != e.nOutput {
		return fmt.Errorf("curve set with %d curves for %d channels: %w", len(e.Curves), e.nInput, ErrInvalidTag)
	}
	for _, c := range e.Curves {
		if c == nil {
			return fmt.Errorf("curve set has a missing curve: %w", ErrInvalidTag)
		}
		c.Begin()
	}
	return nil
}

func (e *CurveSetElement) Apply(dst, src []Float, _ *CLUTScratch) {
	for i, c := range e.Curves {
		dst[i] = c.Apply(src[i])
	}
}

func (e *CurveSetElement) read(data []byte) error {
	if err := e.read_header(data, CurveSetElemTypeSignature, 12); err != nil {
		return err
	}
	if e.nInput != e.nOutput {
		return fmt.Errorf("curve set with %d inputs and %d outputs: %w", e.nInput, e.nOutput, ErrInvalidTag)
	}
	if 12+8*e.nInput > len(data) {
		return fmt.Errorf("curve set position table exceeds element: %w", ErrTagTooSmall)
	}
	e.Curves = make([]*SegmentedCurve, e.nInput)
	for i := range e.nInput {
		off, size := binary.BigEndian.Uint32(data[12+8*i:]), binary.BigEndian.Uint32(data[16+8*i:])
		if uint64(off)+uint64(size) > uint64(len(data)) {
			return fmt.Errorf("curve %d exceeds curve set element: %w", i, ErrInvalidTag)
		}
		// identical positions share one curve
		for j := range i {
			if binary.BigEndian.Uint32(data[12+8*j:]) == off {
				e.Curves[i] = e.Curves[j]
			}
		}
		if e.Curves[i] != nil {
			continue
		}
		c := &SegmentedCurve{}
		if err := c.read(iccio.NewBytesReader(data[off : off+size])); err != nil {
			return err
		}
		e.Curves[i] = c
	}
	return nil
}

func (e *CurveSetElement) Write(w *iccio.Writer) error {
	start := w.Tell()
	if err := e.write_header(w, CurveSetElemTypeSignature); err != nil {
		return err
	}
	if err := w.WriteZeros(8 * len(e.Curves)); err != nil {
		return err
	}
	positions := make([]uint32, 0, 2*len(e.Curves))
	written := map[*SegmentedCurve][2]uint32{}
	for _, c := range e.Curves {
		if p, ok := written[c]; ok {
			positions = append(positions, p[0], p[1])
			continue
		}
		off := w.Tell()
		if err := c.write(w); err != nil {
			return err
		}
		p := [2]uint32{uint32(off - start), uint32(w.Tell() - off)}
		written[c] = p
		positions = append(positions, p[0], p[1])
		if err := w.Align32(); err != nil {
			return err
		}
	}
	end := w.Tell()
	if _, err := w.Seek(start+12, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.Write32s(positions); err != nil {
		return err
	}
	_, err := w.Seek(end, io.SeekStart)
	return err
}

func (e *CurveSetElement) Describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "Curve Set Element: %d channels\n", e.nInput)
	for i, c := range e.Curves {
		fmt.Fprintf(sb, "Curve %d:\n", i)
		for _, s := range c.Segments {
			s.describe(sb)
		}
	}
}

func (e *CurveSetElement) Validate(sig Signature, rep *Report) Severity {
	rv := e.validate_reserved(sig, rep)
	if e.nInput != e.nOutput || len(e.Curves) != e.nInput {
		rv = max(rv, rep.Add(ValidateCriticalError, sig, "Curve set channel counts are inconsistent."))
	}
	for _, c := range e.Curves {
		rv = max(rv, c.validate(sig, rep))
	}
	return rv
}

func (e *CurveSetElement) CloneElement() Element {
	ans := &CurveSetElement{elemHeader: e.elemHeader, Curves: make([]*SegmentedCurve, len(e.Curves))}
	for i, c := range e.Curves {
		ans.Curves[i] = c.clone()
	}
	return ans
}

// MatrixElement is the 'matf' element: Outputs rows of Inputs coefficients
// followed by one offset per output.
type MatrixElement struct {
	elemHeader
	Matrix  []Float
	Offsets []Float
}

func NewMatrixElement(num_inputs, num_outputs int) *MatrixElement {
	ans := &MatrixElement{elemHeader: elemHeader{nInput: num_inputs, nOutput: num_outputs},
		Matrix: make([]Float, num_inputs*num_outputs), Offsets: make([]Float, num_outputs)}
	for i := range min(num_inputs, num_outputs) {
		ans.Matrix[i*num_inputs+i] = 1
	}
	return ans
}

func (e *MatrixElement) Type() Signature { return MatrixElemTypeSignature }
func (e *MatrixElement) Begin() error {
	if len(e.Matrix) != e.nInput*e.nOutput || len(e.Offsets) != e.nOutput {
		return fmt.Errorf("matrix element has the wrong number of coefficients: %w", ErrInvalidTag)
	}
	return nil
}

func (e *MatrixElement) Apply(dst, src []Float, _ *CLUTScratch) {
	for j := range e.nOutput {
		v := e.Offsets[j]
		row := e.Matrix[j*e.nInput : (j+1)*e.nInput]
		for i, c := range row {
			v += c * src[i]
		}
		dst[j] = v
	}
}

func (e *MatrixElement) read(data []byte) (err error) {
	if err = e.read_header(data, MatrixElemTypeSignature, 12); err != nil {
		return err
	}
	n := e.nInput*e.nOutput + e.nOutput
	if 12+4*n > len(data) {
		return fmt.Errorf("matrix element needs %d coefficients: %w", n, ErrTagTooSmall)
	}
	r := iccio.NewBytesReader(data[12:])
	if e.Matrix, err = read_floats(r, e.nInput*e.nOutput); err != nil {
		return err
	}
	e.Offsets, err = read_floats(r, e.nOutput)
	return err
}

func (e *MatrixElement) Write(w *iccio.Writer) error {
	if err := e.write_header(w, MatrixElemTypeSignature); err != nil {
		return err
	}
	if _, err := iccio.WriteFloat32s(w, e.Matrix); err != nil {
		return err
	}
	_, err := iccio.WriteFloat32s(w, e.Offsets)
	return err
}

func (e *MatrixElement) Describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "Matrix Element: %d inputs %d outputs\n", e.nInput, e.nOutput)
	for j := range e.nOutput {
		for i := range e.nInput {
			fmt.Fprintf(sb, " %12.8f", e.Matrix[j*e.nInput+i])
		}
		fmt.Fprintf(sb, "  +  %12.8f\n", e.Offsets[j])
	}
}

func (e *MatrixElement) Validate(sig Signature, rep *Report) Severity {
	rv := e.validate_reserved(sig, rep)
	if e.Begin() != nil {
		rv = max(rv, rep.Add(ValidateCriticalError, sig, "Matrix element has the wrong number of coefficients."))
	}
	return rv
}

func (e *MatrixElement) CloneElement() Element {
	return &MatrixElement{elemHeader: e.elemHeader, Matrix: append([]Float(nil), e.Matrix...), Offsets: append([]Float(nil), e.Offsets...)}
}

// CLUTElement is the 'clut' element with float32 samples.
type CLUTElement struct {
	elemHeader
	CLUT *CLUT
}

func NewCLUTElement(c *CLUT) *CLUTElement {
	c.Precision = 4
	return &CLUTElement{elemHeader: elemHeader{nInput: c.Inputs(), nOutput: c.Outputs()}, CLUT: c}
}

func (e *CLUTElement) Type() Signature { return CLutElemTypeSignature }
func (e *CLUTElement) Begin() error    { return e.CLUT.Begin() }

func (e *CLUTElement) Apply(dst, src []Float, scratch *CLUTScratch) {
	e.CLUT.Interp(dst, src, false, scratch)
}

func (e *CLUTElement) read(data []byte) error {
	if err := e.read_header(data, CLutElemTypeSignature, 28); err != nil {
		return err
	}
	if e.nInput < 1 || e.nInput > MaxCLUTInputs || e.nOutput < 1 {
		return fmt.Errorf("CLUT element with %d inputs and %d outputs: %w", e.nInput, e.nOutput, ErrInvalidTag)
	}
	e.CLUT = &CLUT{nInput: e.nInput, nOutput: e.nOutput}
	r := iccio.NewBytesReader(data[12:])
	grid, err := e.CLUT.read_grid(r)
	if err != nil {
		return err
	}
	if err = e.CLUT.init_from_tag(grid, 4, int64(len(data)-28)); err != nil {
		return err
	}
	return e.CLUT.read_data(r, 4)
}

func (e *CLUTElement) Write(w *iccio.Writer) error {
	if err := e.write_header(w, CLutElemTypeSignature); err != nil {
		return err
	}
	if err := e.CLUT.write_grid(w); err != nil {
		return err
	}
	return e.CLUT.write_data(w, 4)
}

func (e *CLUTElement) Describe(sb *strings.Builder) {
	sb.WriteString("CLUT Element\n")
	e.CLUT.Describe(sb)
}

func (e *CLUTElement) Validate(sig Signature, rep *Report) Severity {
	return max(e.validate_reserved(sig, rep), e.CLUT.Validate(sig, rep))
}

func (e *CLUTElement) CloneElement() Element {
	return &CLUTElement{elemHeader: e.elemHeader, CLUT: e.CLUT.Clone()}
}

// ACSElement is a 'bACS' or 'eACS' placeholder marking an alternate
// connection space. It passes values through unchanged.
type ACSElement struct {
	elemHeader
	sig       Signature
	Signature Signature
}

func NewACSElement(typ Signature, channels int, acs Signature) *ACSElement {
	return &ACSElement{elemHeader: elemHeader{nInput: channels, nOutput: channels}, sig: typ, Signature: acs}
}

func (e *ACSElement) Type() Signature { return e.sig }
func (e *ACSElement) Begin() error    { return nil }

func (e *ACSElement) Apply(dst, src []Float, _ *CLUTScratch) {
	copy(dst[:e.nOutput], src[:min(e.nInput, e.nOutput)])
}

func (e *ACSElement) read(data []byte) error {
	if err := e.read_header(data, e.sig, 16); err != nil {
		return err
	}
	e.Signature = Signature(binary.BigEndian.Uint32(data[12:]))
	return nil
}

func (e *ACSElement) Write(w *iccio.Writer) error {
	if err := e.write_header(w, e.sig); err != nil {
		return err
	}
	return w.Write32(uint32(e.Signature))
}

func (e *ACSElement) Describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "%s Element: %s\n", e.sig, e.Signature)
}

func (e *ACSElement) Validate(sig Signature, rep *Report) Severity { return e.validate_reserved(sig, rep) }
func (e *ACSElement) CloneElement() Element                      { ans := *e; return &ans }

// UnknownElement keeps the raw bytes of element types that cannot be
// evaluated.
type UnknownElement struct {
	elemHeader
	sig  Signature
	Data []byte
}

func (e *UnknownElement) Type() Signature { return e.sig }
func (e *UnknownElement) Begin() error {
	return fmt.Errorf("element type %s cannot be evaluated: %w", e.sig, ErrUnsupportedTag)
}
func (e *UnknownElement) Apply(dst, src []Float, _ *CLUTScratch) {}

func (e *UnknownElement) read(data []byte) error {
	if err := e.read_header(data, e.sig, 12); err != nil {
		return err
	}
	e.Data = append([]byte(nil), data[12:]...)
	return nil
}

func (e *UnknownElement) Write(w *iccio.Writer) error {
	if err := e.write_header(w, e.sig); err != nil {
		return err
	}
	_, err := w.Write8s(e.Data)
	return err
}

func (e *UnknownElement) Describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "Unknown Element %s\n", e.sig.Hex())
	dump_hex(sb, e.Data)
}

func (e *UnknownElement) Validate(sig Signature, rep *Report) Severity {
	return rep.Add(ValidateWarning, sig, "Unknown element type %s.", e.sig)
}

func (e *UnknownElement) CloneElement() Element {
	ans := *e
	ans.Data = append([]byte(nil), e.Data...)
	return &ans
}

func new_element(typ Signature) Element {
	switch typ {
	case CurveSetElemTypeSignature:
		return &CurveSetElement{}
	case MatrixElemTypeSignature:
		return &MatrixElement{}
	case CLutElemTypeSignature:
		return &CLUTElement{}
	case BAcsElemTypeSignature, EAcsElemTypeSignature:
		return &ACSElement{sig: typ}
	}
	return &UnknownElement{sig: typ}
}

// MultiProcessElementTag is the 'mpet' type, a chain of floating point
// processing elements.
type MultiProcessElementTag struct {
	tagHeader
	nInput, nOutput int
	Elements        []Element
}

func NewMultiProcessElementTag(num_inputs, num_outputs int, elements ...Element) *MultiProcessElementTag {
	return &MultiProcessElementTag{nInput: num_inputs, nOutput: num_outputs, Elements: elements}
}

func (t *MultiProcessElementTag) Type() Signature { return MultiProcessElementTypeSignature }
func (t *MultiProcessElementTag) Inputs() int     { return t.nInput }
func (t *MultiProcessElementTag) Outputs() int    { return t.nOutput }

func (t *MultiProcessElementTag) Read(size uint32, r *iccio.Reader) error {
	data, err := t.read_full(r, MultiProcessElementTypeSignature, size, 16)
	if err != nil {
		return err
	}
	t.nInput, t.nOutput = int(binary.BigEndian.Uint16(data[8:])), int(binary.BigEndian.Uint16(data[10:]))
	count := binary.BigEndian.Uint32(data[12:])
	if 16+8*uint64(count) > uint64(len(data)) {
		return fmt.Errorf("mpet with %d elements exceeds tag size: %w", count, ErrInvalidTag)
	}
	t.Elements = make([]Element, count)
	for i := range int(count) {
		off, esize := binary.BigEndian.Uint32(data[16+8*i:]), binary.BigEndian.Uint32(data[20+8*i:])
		if uint64(off)+uint64(esize) > uint64(len(data)) || esize < 4 {
			return fmt.Errorf("mpet element %d exceeds tag size: %w", i, ErrInvalidTag)
		}
		edata := data[off : off+esize]
		e := new_element(Signature(binary.BigEndian.Uint32(edata)))
		if err := e.read(edata); err != nil {
			return fmt.Errorf("mpet element %d: %w", i, err)
		}
		t.Elements[i] = e
	}
	return nil
}

func (t *MultiProcessElementTag) Write(w *iccio.Writer) error {
	start := w.Tell()
	if err := write_header(w, MultiProcessElementTypeSignature); err != nil {
		return err
	}
	if _, err := w.Write16s([]uint16{uint16(t.nInput), uint16(t.nOutput)}); err != nil {
		return err
	}
	if err := w.Write32(uint32(len(t.Elements))); err != nil {
		return err
	}
	if err := w.WriteZeros(8 * len(t.Elements)); err != nil {
		return err
	}
	positions := make([]uint32, 0, 2*len(t.Elements))
	for _, e := range t.Elements {
		off := w.Tell()
		if err := e.Write(w); err != nil {
			return err
		}
		positions = append(positions, uint32(off-start), uint32(w.Tell()-off))
		if err := w.Align32(); err != nil {
			return err
		}
	}
	end := w.Tell()
	if _, err := w.Seek(start+16, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.Write32s(positions); err != nil {
		return err
	}
	_, err := w.Seek(end, io.SeekStart)
	return err
}

func (t *MultiProcessElementTag) Describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "Input Channels = %d\nOutput Channels = %d\nProcessing Elements = %d\n", t.nInput, t.nOutput, len(t.Elements))
	for i, e := range t.Elements {
		fmt.Fprintf(sb, "\nElement %d: ", i+1)
		e.Describe(sb)
	}
}

func (t *MultiProcessElementTag) Validate(sig Signature, rep *Report, p *Profile) Severity {
	rv := t.validate_reserved(sig, rep)
	if nin, nout, ok := expected_channels(sig, p); ok && (nin != t.nInput || nout != t.nOutput) {
		rv = max(rv, rep.Add(ValidateCriticalError, sig, "Channel counts do not match the profile color spaces."))
	}
	channels := t.nInput
	for i, e := range t.Elements {
		if e.Inputs() != channels {
			rv = max(rv, rep.Add(ValidateCriticalError, sig, "Element %d has %d inputs but receives %d channels.", i+1, e.Inputs(), channels))
		}
		channels = e.Outputs()
		rv = max(rv, e.Validate(sig, rep))
	}
	if channels != t.nOutput {
		rv = max(rv, rep.Add(ValidateCriticalError, sig, "Last element does not produce %d channels.", t.nOutput))
	}
	return rv
}

func (t *MultiProcessElementTag) Clone() Tag {
	ans := *t
	ans.Elements = make([]Element, len(t.Elements))
	for i, e := range t.Elements {
		ans.Elements[i] = e.CloneElement()
	}
	return &ans
}

// Begin checks that the elements chain and prepares them for Apply.
func (t *MultiProcessElementTag) Begin() error {
	channels := t.nInput
	for i, e := range t.Elements {
		if e.Inputs() != channels {
			return fmt.Errorf("mpet element %d has %d inputs but receives %d channels: %w", i+1, e.Inputs(), channels, ErrInvalidTag)
		}
		if err := e.Begin(); err != nil {
			return err
		}
		channels = e.Outputs()
	}
	if channels != t.nOutput {
		return fmt.Errorf("mpet produces %d channels instead of %d: %w", channels, t.nOutput, ErrInvalidTag)
	}
	return nil
}

// MPEScratch is the per caller working storage for applying a
// MultiProcessElementTag.
type MPEScratch struct {
	a, b  []Float
	cluts []*CLUTScratch
}

func (t *MultiProcessElementTag) NewScratch() *MPEScratch {
	width := max(t.nInput, t.nOutput)
	ans := &MPEScratch{cluts: make([]*CLUTScratch, len(t.Elements))}
	for i, e := range t.Elements {
		width = max(width, e.Inputs(), e.Outputs())
		if c, ok := e.(*CLUTElement); ok && c.nInput > 6 {
			ans.cluts[i] = c.CLUT.NewScratch()
		}
	}
	ans.a, ans.b = make([]Float, width), make([]Float, width)
	return ans
}

// Apply runs src through every element. A nil scratch allocates.
func (t *MultiProcessElementTag) Apply(dst, src []Float, s *MPEScratch) {
	if s == nil {
		s = t.NewScratch()
	}
	cur, next := s.a, s.b
	copy(cur, src[:t.nInput])
	for i, e := range t.Elements {
		e.Apply(next, cur, s.cluts[i])
		cur, next = next, cur
	}
	copy(dst[:t.nOutput], cur[:t.nOutput])
}
