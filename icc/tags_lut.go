package icc

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/kovidgoyal/iccmm/iccio"
)

var _ MBBTag = (*Lut8Tag)(nil)
var _ MBBTag = (*Lut16Tag)(nil)
var _ MBBTag = (*LutAtoBTag)(nil)
var _ MBBTag = (*LutBtoATag)(nil)

// Lut8Tag is the legacy 'mft1' type: a matrix, 256 entry input tables, an 8
// bit CLUT and 256 entry output tables.
type Lut8Tag struct{ MBB }

// Lut16Tag is the legacy 'mft2' type: like Lut8Tag with 16 bit samples and
// variable table sizes.
type Lut16Tag struct{ MBB }

// LutAtoBTag is the 'mAB ' type.
type LutAtoBTag struct{ MBB }

// LutBtoATag is the 'mBA ' type.
type LutBtoATag struct{ MBB }

func new_legacy_mbb(num_inputs, num_outputs int) MBB {
	return MBB{nInput: num_inputs, nOutput: num_outputs, inputMatrix: true, useMCurvesAsBCurves: true, Matrix: NewIdentityMatrix(false)}
}

func NewLut8Tag(num_inputs, num_outputs int) *Lut8Tag {
	return &Lut8Tag{new_legacy_mbb(num_inputs, num_outputs)}
}

func NewLut16Tag(num_inputs, num_outputs int) *Lut16Tag {
	return &Lut16Tag{new_legacy_mbb(num_inputs, num_outputs)}
}

func NewLutAtoBTag(num_inputs, num_outputs int) *LutAtoBTag {
	return &LutAtoBTag{MBB{nInput: num_inputs, nOutput: num_outputs}}
}

func NewLutBtoATag(num_inputs, num_outputs int) *LutBtoATag {
	return &LutBtoATag{MBB{nInput: num_inputs, nOutput: num_outputs, inputMatrix: true}}
}

func (t *Lut8Tag) Type() Signature    { return Lut8TypeSignature }
func (t *Lut16Tag) Type() Signature   { return Lut16TypeSignature }
func (t *LutAtoBTag) Type() Signature { return LutAtoBTypeSignature }
func (t *LutBtoATag) Type() Signature { return LutBtoATypeSignature }

func (t *Lut8Tag) Base() *MBB    { return &t.MBB }
func (t *Lut16Tag) Base() *MBB   { return &t.MBB }
func (t *LutAtoBTag) Base() *MBB { return &t.MBB }
func (t *LutBtoATag) Base() *MBB { return &t.MBB }

func (t *Lut8Tag) UseLegacyPCS() bool    { return false }
func (t *Lut16Tag) UseLegacyPCS() bool   { return true }
func (t *LutAtoBTag) UseLegacyPCS() bool { return false }
func (t *LutBtoATag) UseLegacyPCS() bool { return false }

func (t *Lut8Tag) Describe(sb *strings.Builder)    { t.describe(sb, "Lut8") }
func (t *Lut16Tag) Describe(sb *strings.Builder)   { t.describe(sb, "Lut16") }
func (t *LutAtoBTag) Describe(sb *strings.Builder) { t.describe(sb, "LutAtoB") }
func (t *LutBtoATag) Describe(sb *strings.Builder) { t.describe(sb, "LutBtoA") }

func (t *Lut8Tag) Clone() Tag    { return &Lut8Tag{t.clone()} }
func (t *Lut16Tag) Clone() Tag   { return &Lut16Tag{t.clone()} }
func (t *LutAtoBTag) Clone() Tag { return &LutAtoBTag{t.clone()} }
func (t *LutBtoATag) Clone() Tag { return &LutBtoATag{t.clone()} }

func (t *Lut8Tag) Read(size uint32, r *iccio.Reader) error {
	return t.read_legacy(Lut8TypeSignature, size, r)
}

func (t *Lut16Tag) Read(size uint32, r *iccio.Reader) error {
	return t.read_legacy(Lut16TypeSignature, size, r)
}

func (m *MBB) read_legacy(typ Signature, size uint32, r *iccio.Reader) (err error) {
	is8 := typ == Lut8TypeSignature
	if err = m.read_header(r, typ, size, IfElse[uint32](is8, 48, 52)); err != nil {
		return err
	}
	var hdr [4]uint8
	if _, err = r.Read8s(hdr[:]); err != nil {
		return err
	}
	m.nInput, m.nOutput = int(hdr[0]), int(hdr[1])
	m.inputMatrix, m.useMCurvesAsBCurves = true, true
	m.Matrix = &Matrix{}
	if err = m.Matrix.read(r, false); err != nil {
		return err
	}
	if m.nInput < 1 || m.nInput > MaxCLUTInputs || m.nOutput < 1 {
		return fmt.Errorf("%s tag with %d inputs and %d outputs: %w", typ, m.nInput, m.nOutput, ErrInvalidTag)
	}
	grid := make([]int, m.nInput)
	for i := range grid {
		grid[i] = int(hdr[2])
	}
	samples, err := clut_samples(grid, m.nOutput)
	if err != nil {
		return err
	}
	in_entries, out_entries, width := 256, 256, 1
	if !is8 {
		var e [2]uint16
		if _, err = r.Read16s(e[:]); err != nil {
			return err
		}
		in_entries, out_entries, width = int(e[0]), int(e[1]), 2
		if in_entries < 2 || out_entries < 2 || in_entries > 4096 || out_entries > 4096 {
			return fmt.Errorf("mft2 table sizes %d and %d are invalid: %w", in_entries, out_entries, ErrInvalidTag)
		}
	}
	needed := uint64(IfElse(is8, 48, 52)) + uint64(width)*uint64(in_entries*m.nInput+samples+out_entries*m.nOutput)
	if needed > uint64(size) {
		return fmt.Errorf("%s tag needs %d bytes but has %d: %w", typ, needed, size, ErrTagTooSmall)
	}
	if m.CLUT, err = NewCLUT(m.nInput, m.nOutput, int(hdr[2])); err != nil {
		return err
	}
	read_tables := func(n, entries int) ([]Curve, error) {
		ans := make([]Curve, n)
		for i := range ans {
			c := &CurveTag{}
			if err := c.read_samples(r, entries, width); err != nil {
				return nil, err
			}
			ans[i] = c
		}
		return ans, nil
	}
	if m.curves[CurveSlotB], err = read_tables(m.nInput, in_entries); err != nil {
		return err
	}
	if err = m.CLUT.read_data(r, width); err != nil {
		return err
	}
	m.curves[CurveSlotA], err = read_tables(m.nOutput, out_entries)
	return err
}

// sample_curve returns n evenly spaced samples of c, nil meaning identity.
func sample_curve(c Curve, n int) []Float {
	if ct, ok := c.(*CurveTag); ok && len(ct.Values) == n {
		return ct.Values
	}
	ans := make([]Float, n)
	for i := range ans {
		x := Float(i) / Float(n-1)
		ans[i] = IfElse(c == nil, x, c.Apply(x))
	}
	return ans
}

// table_size picks the entry count used to write a set of curves to a mft2
// tag.
func table_size(curves []Curve) int {
	ans := 0
	for _, c := range curves {
		if ct, ok := c.(*CurveTag); ok && len(ct.Values) > 1 {
			ans = max(ans, len(ct.Values))
		} else {
			return 4096
		}
	}
	return IfElse(ans < 2, 256, min(ans, 4096))
}

func (t *Lut8Tag) Write(w *iccio.Writer) error {
	return t.write_legacy(Lut8TypeSignature, w)
}

func (t *Lut16Tag) Write(w *iccio.Writer) error {
	return t.write_legacy(Lut16TypeSignature, w)
}

func (m *MBB) write_legacy(typ Signature, w *iccio.Writer) (err error) {
	is8 := typ == Lut8TypeSignature
	if m.CLUT == nil {
		return fmt.Errorf("%s tag cannot be written without a CLUT: %w", typ, ErrInvalidTag)
	}
	grid := m.CLUT.GridPoints[0]
	for _, g := range m.CLUT.GridPoints {
		if g != grid || g > 255 {
			return fmt.Errorf("%s tag needs the same grid size on every axis, got %v: %w", typ, m.CLUT.GridPoints, ErrInvalidTag)
		}
	}
	if err = write_header(w, typ); err != nil {
		return err
	}
	if _, err = w.Write8s([]uint8{uint8(m.nInput), uint8(m.nOutput), uint8(grid), 0}); err != nil {
		return err
	}
	mat := m.Matrix
	if mat == nil {
		mat = NewIdentityMatrix(false)
	}
	if err = mat.write(w, false); err != nil {
		return err
	}
	in_curves, out_curves := m.curves[CurveSlotB], m.curves[CurveSlotA]
	in_entries, out_entries := 256, 256
	if !is8 {
		in_entries, out_entries = table_size(in_curves), table_size(out_curves)
		if _, err = w.Write16s([]uint16{uint16(in_entries), uint16(out_entries)}); err != nil {
			return err
		}
	}
	write_tables := func(curves []Curve, n, entries int) error {
		for i := range n {
			var c Curve
			if i < len(curves) {
				c = curves[i]
			}
			s := sample_curve(c, entries)
			var err error
			if is8 {
				_, err = iccio.Write8Floats(w, s)
			} else {
				_, err = iccio.Write16Floats(w, s)
			}
			if err != nil {
				return err
			}
		}
		return nil
	}
	if err = write_tables(in_curves, m.nInput, in_entries); err != nil {
		return err
	}
	if err = m.CLUT.write_data(w, IfElse(is8, 1, 2)); err != nil {
		return err
	}
	return write_tables(out_curves, m.nOutput, out_entries)
}

func (m *MBB) validate_legacy(sig Signature, rep *Report, p *Profile) Severity {
	rv := m.validate(sig, rep, p)
	if m.CLUT == nil {
		rv = max(rv, rep.Add(ValidateCriticalError, sig, "Legacy LUT is missing its CLUT."))
	}
	if p != nil && p.Header.PCS != XYZData && m.Matrix != nil && !m.Matrix.IsIdentity() && m.nInput == 3 {
		switch sig {
		case BToA0TagSignature, BToA1TagSignature, BToA2TagSignature, GamutTagSignature, Preview0TagSignature, Preview1TagSignature, Preview2TagSignature:
			rv = max(rv, rep.Add(ValidateNonCompliant, sig, "Matrix must be identity when the input is not XYZ."))
		}
	}
	return rv
}

func (t *Lut8Tag) Validate(sig Signature, rep *Report, p *Profile) Severity {
	return t.validate_legacy(sig, rep, p)
}

func (t *Lut16Tag) Validate(sig Signature, rep *Report, p *Profile) Severity {
	return t.validate_legacy(sig, rep, p)
}

// read_embedded_curve decodes the curv or para element starting at off and
// returns it along with the number of bytes it occupies including padding.
func read_embedded_curve(data []byte, off int) (Curve, int, error) {
	if off < 0 || off+12 > len(data) {
		return nil, 0, fmt.Errorf("curve at offset %d is past the end of the tag: %w", off, ErrInvalidTag)
	}
	var size uint64
	var c Curve
	switch sig := Signature(binary.BigEndian.Uint32(data[off:])); sig {
	case CurveTypeSignature:
		size = 12 + 2*uint64(binary.BigEndian.Uint32(data[off+8:]))
		c = &CurveTag{}
	case ParametricCurveTypeSignature:
		n := ParametricParamCount(binary.BigEndian.Uint16(data[off+8:]))
		if n == 0 {
			return nil, 0, fmt.Errorf("parametric curve of unknown function type: %w", ErrInvalidTag)
		}
		size = 12 + 4*uint64(n)
		c = &ParametricCurveTag{}
	default:
		return nil, 0, fmt.Errorf("%s is not a curve type: %w", sig, ErrUnexpectedType)
	}
	if uint64(off)+size > uint64(len(data)) {
		return nil, 0, fmt.Errorf("curve at offset %d is past the end of the tag: %w", off, ErrTagTooSmall)
	}
	if err := c.Read(uint32(size), iccio.NewBytesReader(data[off:off+int(size)])); err != nil {
		return nil, 0, err
	}
	return c, align_to_4(int(size)), nil
}

func read_embedded_curves(data []byte, off, n int) ([]Curve, error) {
	ans := make([]Curve, n)
	for i := range ans {
		c, consumed, err := read_embedded_curve(data, off)
		if err != nil {
			return nil, err
		}
		ans[i] = c
		off += consumed
	}
	return ans, nil
}

func (t *LutAtoBTag) Read(size uint32, r *iccio.Reader) error {
	return t.read_ab(LutAtoBTypeSignature, size, r)
}

func (t *LutBtoATag) Read(size uint32, r *iccio.Reader) error {
	return t.read_ab(LutBtoATypeSignature, size, r)
}

func (m *MBB) read_ab(typ Signature, size uint32, r *iccio.Reader) error {
	data, err := m.read_full(r, typ, size, 32)
	if err != nil {
		return err
	}
	m.nInput, m.nOutput = int(data[8]), int(data[9])
	m.inputMatrix = typ == LutBtoATypeSignature
	m.useMCurvesAsBCurves = false
	var offsets [5]uint32
	if _, err = binary.Decode(data[12:32], binary.BigEndian, offsets[:]); err != nil {
		return err
	}
	b, matrix, mc, clut, a := offsets[0], offsets[1], offsets[2], offsets[3], offsets[4]
	for _, x := range offsets {
		if uint64(x) >= uint64(len(data)) {
			return fmt.Errorf("%s element offset %d is past the end of the tag: %w", typ, x, ErrInvalidTag)
		}
	}
	slots := []struct {
		offset uint32
		slot   CurveSlot
	}{{b, CurveSlotB}, {mc, CurveSlotM}, {a, CurveSlotA}}
	for _, s := range slots {
		if s.offset != 0 {
			if m.curves[s.slot], err = read_embedded_curves(data, int(s.offset), m.curve_count(s.slot)); err != nil {
				return err
			}
		}
	}
	if matrix != 0 {
		m.Matrix = &Matrix{}
		if err = m.Matrix.read(iccio.NewBytesReader(data[matrix:]), true); err != nil {
			return err
		}
	}
	if clut != 0 {
		if m.nInput < 1 || m.nInput > MaxCLUTInputs {
			return fmt.Errorf("%s tag with %d inputs: %w", typ, m.nInput, ErrInvalidTag)
		}
		m.CLUT = &CLUT{nInput: m.nInput, nOutput: m.nOutput}
		if m.nOutput < 1 {
			return fmt.Errorf("%s tag with %d outputs: %w", typ, m.nOutput, ErrInvalidTag)
		}
		if err = m.CLUT.read_lut_ab(data[clut:]); err != nil {
			return err
		}
	}
	return nil
}

func (t *LutAtoBTag) Write(w *iccio.Writer) error { return t.write_ab(LutAtoBTypeSignature, w) }
func (t *LutBtoATag) Write(w *iccio.Writer) error { return t.write_ab(LutBtoATypeSignature, w) }

func write_embedded_curves(w *iccio.Writer, curves []Curve) error {
	for _, c := range curves {
		if err := c.Write(w); err != nil {
			return err
		}
		if err := w.Align32(); err != nil {
			return err
		}
	}
	return nil
}

func (m *MBB) write_ab(typ Signature, w *iccio.Writer) (err error) {
	start := w.Tell()
	if err = write_header(w, typ); err != nil {
		return err
	}
	if _, err = w.Write8s([]uint8{uint8(m.nInput), uint8(m.nOutput), 0, 0}); err != nil {
		return err
	}
	if err = w.WriteZeros(20); err != nil {
		return err
	}
	var offsets [5]uint32
	here := func() uint32 { return uint32(w.Tell() - start) }
	if c := m.curves[CurveSlotB]; c != nil {
		offsets[0] = here()
		if err = write_embedded_curves(w, c); err != nil {
			return err
		}
	}
	if m.Matrix != nil {
		offsets[1] = here()
		if err = m.Matrix.write(w, true); err != nil {
			return err
		}
	}
	if c := m.curves[CurveSlotM]; c != nil {
		offsets[2] = here()
		if err = write_embedded_curves(w, c); err != nil {
			return err
		}
	}
	if m.CLUT != nil {
		offsets[3] = here()
		if err = m.CLUT.write_lut_ab(w); err != nil {
			return err
		}
	}
	if c := m.curves[CurveSlotA]; c != nil {
		offsets[4] = here()
		if err = write_embedded_curves(w, c); err != nil {
			return err
		}
	}
	end := w.Tell()
	if _, err = w.Seek(start+12, 0); err != nil {
		return err
	}
	if _, err = w.Write32s(offsets[:]); err != nil {
		return err
	}
	_, err = w.Seek(end, 0)
	return err
}

func (m *MBB) validate_ab(sig Signature, rep *Report, p *Profile) Severity {
	rv := m.validate(sig, rep, p)
	if m.curves[CurveSlotB] == nil {
		rv = max(rv, rep.Add(ValidateCriticalError, sig, "B Curves required."))
	}
	if m.Matrix != nil && m.curves[CurveSlotM] == nil {
		rv = max(rv, rep.Add(ValidateCriticalError, sig, "M Curves required when a matrix is present."))
	}
	if m.CLUT != nil && m.curves[CurveSlotA] == nil {
		rv = max(rv, rep.Add(ValidateCriticalError, sig, "A Curves required when a CLUT is present."))
	}
	return rv
}

func (t *LutAtoBTag) Validate(sig Signature, rep *Report, p *Profile) Severity {
	return t.validate_ab(sig, rep, p)
}

func (t *LutBtoATag) Validate(sig Signature, rep *Report, p *Profile) Severity {
	return t.validate_ab(sig, rep, p)
}
