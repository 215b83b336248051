package icc

import (
	"fmt"
	"strings"

	"github.com/kovidgoyal/iccmm/iccio"
)

// Colorant is one entry of a colorant table, PCS values are 16 bit legacy
// encoded and normalized by 65535.
type Colorant struct {
	Name string
	PCS  [3]Float
}

// ColorantTableTag is the 'clrt' type.
type ColorantTableTag struct {
	tagHeader
	Colorants []Colorant
}

func (t *ColorantTableTag) Type() Signature { return ColorantTableTypeSignature }

func (t *ColorantTableTag) Read(size uint32, r *iccio.Reader) error {
	if err := t.read_header(r, ColorantTableTypeSignature, size, 12); err != nil {
		return err
	}
	count, err := r.Read32()
	if err != nil {
		return err
	}
	if 12+uint64(count)*38 > uint64(size) {
		return fmt.Errorf("clrt with %d colorants exceeds tag size: %w", count, ErrInvalidTag)
	}
	t.Colorants = make([]Colorant, count)
	var name [32]byte
	for i := range t.Colorants {
		if _, err = r.Read8s(name[:]); err != nil {
			return err
		}
		t.Colorants[i].Name = fixed_string(name[:])
		if _, err = iccio.Read16Floats(r, t.Colorants[i].PCS[:]); err != nil {
			return err
		}
	}
	return nil
}

func (t *ColorantTableTag) Write(w *iccio.Writer) error {
	if err := write_header(w, ColorantTableTypeSignature); err != nil {
		return err
	}
	if err := w.Write32(uint32(len(t.Colorants))); err != nil {
		return err
	}
	for _, c := range t.Colorants {
		if _, err := w.Write8s(put_fixed_string(c.Name, 32)); err != nil {
			return err
		}
		if _, err := iccio.Write16Floats(w, c.PCS[:]); err != nil {
			return err
		}
	}
	return nil
}

func (t *ColorantTableTag) Describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "Number of Colorants: %d\n", len(t.Colorants))
	for _, c := range t.Colorants {
		fmt.Fprintf(sb, "%-32s %5d %5d %5d\n", c.Name,
			iccio.FloatToU16(float64(c.PCS[0])), iccio.FloatToU16(float64(c.PCS[1])), iccio.FloatToU16(float64(c.PCS[2])))
	}
}

func (t *ColorantTableTag) Validate(sig Signature, rep *Report, p *Profile) Severity {
	rv := t.validate_reserved(sig, rep)
	if p != nil {
		space := IfElse(sig == ColorantTableOutTagSignature, p.Header.PCS, p.Header.ColorSpace)
		if n := SpaceSamples(space); n > 0 && n != len(t.Colorants) {
			rv = max(rv, rep.Add(ValidateCriticalError, sig, "Number of colorants does not match the color space."))
		}
	}
	for i, c := range t.Colorants {
		if len(c.Name) > 31 {
			rv = max(rv, rep.Add(ValidateNonCompliant, sig, "Colorant name %d is too long.", i))
		}
	}
	return rv
}

func (t *ColorantTableTag) Clone() Tag {
	ans := *t
	ans.Colorants = append([]Colorant(nil), t.Colorants...)
	return &ans
}

// ColorantOrderTag is the 'clro' type, the laydown order of the colorants.
type ColorantOrderTag struct {
	tagHeader
	Order []uint8
}

func (t *ColorantOrderTag) Type() Signature { return ColorantOrderTypeSignature }

func (t *ColorantOrderTag) Read(size uint32, r *iccio.Reader) error {
	if err := t.read_header(r, ColorantOrderTypeSignature, size, 12); err != nil {
		return err
	}
	count, err := r.Read32()
	if err != nil {
		return err
	}
	if 12+uint64(count) > uint64(size) {
		return fmt.Errorf("clro with %d entries exceeds tag size: %w", count, ErrInvalidTag)
	}
	t.Order = make([]uint8, count)
	_, err = r.Read8s(t.Order)
	return err
}

func (t *ColorantOrderTag) Write(w *iccio.Writer) error {
	if err := write_header(w, ColorantOrderTypeSignature); err != nil {
		return err
	}
	if err := w.Write32(uint32(len(t.Order))); err != nil {
		return err
	}
	_, err := w.Write8s(t.Order)
	return err
}

func (t *ColorantOrderTag) Describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "Number of Colorants: %d\n", len(t.Order))
	for i, o := range t.Order {
		fmt.Fprintf(sb, "%d: %d\n", i, o)
	}
}

func (t *ColorantOrderTag) Validate(sig Signature, rep *Report, p *Profile) Severity {
	rv := t.validate_reserved(sig, rep)
	if p != nil {
		if n := SpaceSamples(p.Header.ColorSpace); n > 0 && n != len(t.Order) {
			rv = max(rv, rep.Add(ValidateCriticalError, sig, "Number of colorants does not match the color space."))
		}
	}
	seen := make(map[uint8]bool, len(t.Order))
	for _, o := range t.Order {
		if int(o) >= len(t.Order) || seen[o] {
			rv = max(rv, rep.Add(ValidateNonCompliant, sig, "Colorant order is not a permutation."))
			break
		}
		seen[o] = true
	}
	return rv
}

func (t *ColorantOrderTag) Clone() Tag {
	ans := *t
	ans.Order = append([]uint8(nil), t.Order...)
	return &ans
}
