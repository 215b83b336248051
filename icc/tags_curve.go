package icc

import (
	"fmt"
	"math"
	"strings"

	"github.com/kovidgoyal/iccmm/iccio"
)

// Curve is a one dimensional transfer function over [0, 1]. Apply clips its
// input to [0, 1].
type Curve interface {
	Tag
	Begin()
	Apply(v Float) Float
	IsIdentity() bool
}

var _ Curve = (*CurveTag)(nil)
var _ Curve = (*ParametricCurveTag)(nil)

// Find inverts a monotonically increasing curve, returning x such that
// c.Apply(x) is as close as possible to v, by bisection until the bracket is
// narrower than 0.00001.
func Find(c Curve, v Float) Float {
	p0, p1 := Float(0), Float(1)
	v0, v1 := c.Apply(p0), c.Apply(p1)
	for range 64 {
		if v <= v0 {
			return p0
		}
		if v >= v1 {
			return p1
		}
		if p1-p0 <= 0.00001 {
			break
		}
		np := (p0 + p1) / 2
		nv := c.Apply(np)
		if v <= nv {
			p1, v1 = np, nv
		} else {
			p0, v0 = np, nv
		}
	}
	if v-v0 < v1-v {
		return p0
	}
	return p1
}

// CurveTag is the 'curv' type. No samples means identity, a single sample
// is a gamma exponent in u8Fixed8 form (stored normalized by 65535 like all
// samples), otherwise samples are linearly interpolated.
type CurveTag struct {
	tagHeader
	Values []Float
}

// NewCurveTag creates a sampled curve with n entries initialized to identity.
func NewCurveTag(n int) *CurveTag {
	ans := &CurveTag{Values: make([]Float, n)}
	if n > 1 {
		for i := range ans.Values {
			ans.Values[i] = Float(i) / Float(n-1)
		}
	}
	return ans
}

// NewGammaCurveTag creates a single entry curve for the given exponent.
func NewGammaCurveTag(gamma Float) *CurveTag {
	return &CurveTag{Values: []Float{gamma * 256 / 65535}}
}

// NewCurveTagFromFunc samples f at n evenly spaced points.
func NewCurveTagFromFunc(n int, f func(Float) Float) *CurveTag {
	ans := &CurveTag{Values: make([]Float, n)}
	for i := range ans.Values {
		ans.Values[i] = f(Float(i) / Float(n-1))
	}
	return ans
}

func (t *CurveTag) Type() Signature { return CurveTypeSignature }
func (t *CurveTag) Begin()          {}

// Gamma returns the exponent of a single entry curve.
func (t *CurveTag) Gamma() Float {
	return t.Values[0] * 65535 / 256
}

func (t *CurveTag) Apply(v Float) Float {
	v = UnitClip(v)
	n := len(t.Values)
	switch n {
	case 0:
		return v
	case 1:
		return pow(v, t.Gamma())
	}
	max_index := Float(n - 1)
	pos := v * max_index
	idx := int(pos)
	if idx >= n-1 {
		return t.Values[n-1]
	}
	dif := pos - Float(idx)
	p0 := t.Values[idx]
	return min(p0+(t.Values[idx+1]-p0)*dif, 1)
}

func (t *CurveTag) IsIdentity() bool {
	switch len(t.Values) {
	case 0:
		return true
	case 1:
		return t.Values[0] > 0.0038909 && t.Values[0] < 0.0039216
	}
	max_index := Float(len(t.Values) - 1)
	for i, v := range t.Values {
		if math.Abs(float64(v-Float(i)/max_index)) > 0.00001 {
			return false
		}
	}
	return true
}

func (t *CurveTag) Read(size uint32, r *iccio.Reader) error {
	if err := t.read_header(r, CurveTypeSignature, size, 12); err != nil {
		return err
	}
	count, err := r.Read32()
	if err != nil {
		return err
	}
	if uint64(count)*2+12 > uint64(size) {
		return fmt.Errorf("curv tag with %d entries exceeds tag size: %w", count, ErrInvalidTag)
	}
	t.Values = make([]Float, count)
	_, err = iccio.Read16Floats(r, t.Values)
	return err
}

// read_samples reads a curve embedded in a LUT tag where only the samples are
// stored.
func (t *CurveTag) read_samples(r *iccio.Reader, count int, byte_width int) (err error) {
	t.Values = make([]Float, count)
	if byte_width == 1 {
		_, err = iccio.Read8Floats(r, t.Values)
	} else {
		_, err = iccio.Read16Floats(r, t.Values)
	}
	return
}

func (t *CurveTag) Write(w *iccio.Writer) error {
	if err := write_header(w, CurveTypeSignature); err != nil {
		return err
	}
	if err := w.Write32(uint32(len(t.Values))); err != nil {
		return err
	}
	if _, err := iccio.Write16Floats(w, t.Values); err != nil {
		return err
	}
	return w.Align32()
}

func (t *CurveTag) Describe(sb *strings.Builder) {
	switch len(t.Values) {
	case 0:
		sb.WriteString("Identity\n")
	case 1:
		fmt.Fprintf(sb, "Gamma = %.4f\n", t.Gamma())
	default:
		fmt.Fprintf(sb, "Size = %d\n", len(t.Values))
		sb.WriteString("Index  Value\n")
		for i, v := range t.Values {
			fmt.Fprintf(sb, "%5d  %.4f\n", i, v)
		}
	}
}

func is_trc_tag(sig Signature) bool {
	switch sig {
	case RedTRCTagSignature, GreenTRCTagSignature, BlueTRCTagSignature, GrayTRCTagSignature:
		return true
	}
	return false
}

func (t *CurveTag) Validate(sig Signature, rep *Report, p *Profile) Severity {
	rv := t.validate_reserved(sig, rep)
	if n := len(t.Values); n > 1 && is_trc_tag(sig) {
		if t.Values[0] > 0 || t.Values[n-1] < 1 {
			rv = max(rv, rep.Add(ValidateWarning, sig, "Curve cannot be accurately inverted."))
		}
	}
	return rv
}

func (t *CurveTag) Clone() Tag {
	ans := *t
	ans.Values = append([]Float(nil), t.Values...)
	return &ans
}

// ParametricCurveTag is the 'para' type.
type ParametricCurveTag struct {
	tagHeader
	FunctionType uint16
	Params       []Float
	reserved2    uint16
}

// ParametricParamCount returns the number of parameters of a function type
// or zero for unknown types.
func ParametricParamCount(function_type uint16) int {
	switch function_type {
	case 0:
		return 1
	case 1:
		return 3
	case 2:
		return 4
	case 3:
		return 5
	case 4:
		return 7
	}
	return 0
}

func NewParametricCurveTag(function_type uint16, params ...Float) *ParametricCurveTag {
	return &ParametricCurveTag{FunctionType: function_type, Params: params}
}

func (t *ParametricCurveTag) Type() Signature { return ParametricCurveTypeSignature }
func (t *ParametricCurveTag) Begin()          {}

func (t *ParametricCurveTag) param(i int) float64 {
	if i < len(t.Params) {
		return float64(t.Params[i])
	}
	return 0
}

func safe_pow(base, exp float64) float64 {
	if base <= 0 {
		return 0
	}
	return math.Pow(base, exp)
}

func (t *ParametricCurveTag) Apply(v Float) Float {
	x := float64(UnitClip(v))
	g, a, b, c, d, e, f := t.param(0), t.param(1), t.param(2), t.param(3), t.param(4), t.param(5), t.param(6)
	switch t.FunctionType {
	case 0:
		return Float(safe_pow(x, g))
	case 1:
		if a != 0 && x >= -b/a {
			return Float(safe_pow(a*x+b, g))
		}
		return 0
	case 2:
		if a != 0 && x >= -b/a {
			return Float(safe_pow(a*x+b, g) + c)
		}
		return Float(c)
	case 3:
		if x >= d {
			return Float(safe_pow(a*x+b, g))
		}
		return Float(c * x)
	case 4:
		if x >= d {
			return Float(safe_pow(a*x+b, g) + e)
		}
		return Float(c*x + f)
	}
	return v
}

func (t *ParametricCurveTag) IsIdentity() bool {
	switch t.FunctionType {
	case 0:
		return len(t.Params) > 0 && IsUnity(t.Params[0])
	case 1, 2, 3, 4:
		return false
	}
	return true
}

func (t *ParametricCurveTag) Read(size uint32, r *iccio.Reader) error {
	if err := t.read_header(r, ParametricCurveTypeSignature, size, 12); err != nil {
		return err
	}
	var hdr [2]uint16
	if _, err := r.Read16s(hdr[:]); err != nil {
		return err
	}
	t.FunctionType, t.reserved2 = hdr[0], hdr[1]
	n := ParametricParamCount(t.FunctionType)
	if n == 0 {
		// preserve the parameters of unknown function types
		n = int(size-12) / 4
	}
	if uint64(n)*4+12 > uint64(size) {
		return fmt.Errorf("para tag function type %d needs %d parameters: %w", t.FunctionType, n, ErrTagTooSmall)
	}
	t.Params = make([]Float, n)
	_, err := iccio.ReadS15Fixed16s(r, t.Params)
	return err
}

func (t *ParametricCurveTag) Write(w *iccio.Writer) error {
	if err := write_header(w, ParametricCurveTypeSignature); err != nil {
		return err
	}
	if _, err := w.Write16s([]uint16{t.FunctionType, 0}); err != nil {
		return err
	}
	if _, err := iccio.WriteS15Fixed16s(w, t.Params); err != nil {
		return err
	}
	return w.Align32()
}

func (t *ParametricCurveTag) Describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "FunctionType: 0x%04X\n", t.FunctionType)
	switch t.FunctionType {
	case 0:
		sb.WriteString("Y = X ^ g\n")
	case 1:
		sb.WriteString("Y = (a*X + b) ^ g for (X >= -b/a)\nY = 0 for (X < -b/a)\n")
	case 2:
		sb.WriteString("Y = (a*X + b) ^ g + c for (X >= -b/a)\nY = c for (X < -b/a)\n")
	case 3:
		sb.WriteString("Y = (a*X + b) ^ g for (X >= d)\nY = c*X for (X < d)\n")
	case 4:
		sb.WriteString("Y = (a*X + b) ^ g + e for (X >= d)\nY = c*X + f for (X < d)\n")
	default:
		sb.WriteString("Unknown Function\n")
	}
	names := "gabcdef"
	for i, p := range t.Params {
		if i < len(names) {
			fmt.Fprintf(sb, "%c = %.8f\n", names[i], p)
		} else {
			fmt.Fprintf(sb, "param[%d] = %.8f\n", i, p)
		}
	}
}

func (t *ParametricCurveTag) Validate(sig Signature, rep *Report, p *Profile) Severity {
	rv := t.validate_reserved(sig, rep)
	if t.reserved2 != 0 {
		rv = max(rv, rep.Add(ValidateNonCompliant, sig, "Reserved Value must be zero."))
	}
	n := ParametricParamCount(t.FunctionType)
	switch {
	case n == 0:
		rv = max(rv, rep.Add(ValidateCriticalError, sig, "Unknown function type %d.", t.FunctionType))
	case len(t.Params) < n:
		rv = max(rv, rep.Add(ValidateCriticalError, sig, "Number of parameters inconsistent with function type."))
	}
	return rv
}

func (t *ParametricCurveTag) Clone() Tag {
	ans := *t
	ans.Params = append([]Float(nil), t.Params...)
	return &ans
}
