package icc

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/kovidgoyal/iccmm/iccio"
)

// NamedColor is one entry of a named color table. PCS holds the 16 bit
// legacy PCS encoding normalized by 65535, Device the device coordinates
// normalized to [0, 1].
type NamedColor struct {
	Root   string
	PCS    [3]Float
	Device []Float
}

// NamedColor2Tag is the 'ncl2' type. Full color names are Prefix + Root +
// Suffix.
type NamedColor2Tag struct {
	tagHeader
	VendorFlags    uint32
	Prefix, Suffix string
	DeviceCoords   int
	Colors         []NamedColor

	pcs    Signature
	mu     sync.Mutex
	lab    [][3]Float
	lab_ok bool
}

func NewNamedColor2Tag(prefix, suffix string, device_coords int) *NamedColor2Tag {
	return &NamedColor2Tag{Prefix: prefix, Suffix: suffix, DeviceCoords: device_coords, pcs: LabData}
}

func (t *NamedColor2Tag) Type() Signature { return NamedColor2TypeSignature }

// SetPCS records the connection space the PCS values are in. It is set from
// the profile header when the tag is loaded.
func (t *NamedColor2Tag) SetPCS(space Signature) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pcs != space {
		t.pcs = space
		t.lab_ok = false
	}
}

func (t *NamedColor2Tag) PCSSpace() Signature {
	t.mu.Lock()
	defer t.mu.Unlock()
	return IfElse(t.pcs == 0, LabData, t.pcs)
}

func (t *NamedColor2Tag) set_pcs_space(space Signature) { t.SetPCS(space) }

// AddLabColor appends a color given by Lab values to a table with a Lab PCS.
func (t *NamedColor2Tag) AddLabColor(root string, lab [3]Float, device ...Float) {
	LabToPcs(lab[:])
	Lab4ToLab2(lab[:])
	t.Colors = append(t.Colors, NamedColor{Root: root, PCS: lab, Device: device})
	t.ResetPCSCache()
}

// ColorName returns the full name of the color at index i.
func (t *NamedColor2Tag) ColorName(i int) string {
	return t.Prefix + t.Colors[i].Root + t.Suffix
}

// FindColor returns the index of the color whose full name is name, or -1.
// Matching is exact and case sensitive.
func (t *NamedColor2Tag) FindColor(name string) int {
	root, ok := strings.CutPrefix(name, t.Prefix)
	if !ok {
		return -1
	}
	if root, ok = strings.CutSuffix(root, t.Suffix); !ok {
		return -1
	}
	return t.FindRootColor(root)
}

// FindRootColor returns the index of the color with the given root name, or
// -1.
func (t *NamedColor2Tag) FindRootColor(root string) int {
	for i, c := range t.Colors {
		if c.Root == root {
			return i
		}
	}
	return -1
}

// ResetPCSCache discards the cached Lab values. Call it after modifying
// Colors.
func (t *NamedColor2Tag) ResetPCSCache() {
	t.mu.Lock()
	t.lab_ok = false
	t.lab = nil
	t.mu.Unlock()
}

// EntryLab returns the Lab values of the entry at index i.
func (t *NamedColor2Tag) EntryLab(i int) [3]Float {
	return t.lab_table()[i]
}

func (t *NamedColor2Tag) lab_table() [][3]Float {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.lab_ok || len(t.lab) != len(t.Colors) {
		space := IfElse(t.pcs == 0, LabData, t.pcs)
		t.lab = make([][3]Float, len(t.Colors))
		for i, c := range t.Colors {
			p := c.PCS
			if space == LabData {
				Lab2ToLab4(p[:])
			}
			t.lab[i] = PcsToLab(space, p[:])
		}
		t.lab_ok = true
	}
	return t.lab
}

// FindPCSColor returns the index of the entry nearest to the internally
// encoded PCS value pcs if its color difference is at most max_delta_e, else
// -1.
func (t *NamedColor2Tag) FindPCSColor(pcs []Float, max_delta_e Float) int {
	table := t.lab_table()
	lab := PcsToLab(t.PCSSpace(), pcs)
	best, best_de := -1, Float(math.Inf(1))
	for i, entry := range table {
		if de := DeltaE(lab[:], entry[:]); de < best_de {
			best, best_de = i, de
		}
	}
	if best_de <= max_delta_e {
		return best
	}
	return -1
}

// FindDeviceColor returns the index of the entry whose device coordinates
// are nearest to dev, or -1 if the table has no device coordinates.
func (t *NamedColor2Tag) FindDeviceColor(dev []Float) int {
	if t.DeviceCoords == 0 {
		return -1
	}
	best, best_d := -1, math.Inf(1)
	for i, c := range t.Colors {
		d := 0.0
		for j := range min(len(c.Device), len(dev)) {
			x := float64(c.Device[j] - dev[j])
			d += x * x
		}
		if d < best_d {
			best, best_d = i, d
		}
	}
	return best
}

func (t *NamedColor2Tag) Read(size uint32, r *iccio.Reader) error {
	if err := t.read_header(r, NamedColor2TypeSignature, size, 84); err != nil {
		return err
	}
	var hdr [3]uint32
	if _, err := r.Read32s(hdr[:]); err != nil {
		return err
	}
	t.VendorFlags = hdr[0]
	count, ndev := hdr[1], hdr[2]
	if ndev > 15 {
		return fmt.Errorf("ncl2 with %d device coordinates: %w", ndev, ErrInvalidTag)
	}
	record := 32 + 6 + 2*uint64(ndev)
	if 84+uint64(count)*record > uint64(size) {
		return fmt.Errorf("ncl2 with %d colors exceeds tag size: %w", count, ErrInvalidTag)
	}
	var name [32]byte
	if _, err := r.Read8s(name[:]); err != nil {
		return err
	}
	t.Prefix = fixed_string(name[:])
	if _, err := r.Read8s(name[:]); err != nil {
		return err
	}
	t.Suffix = fixed_string(name[:])
	t.DeviceCoords = int(ndev)
	t.Colors = make([]NamedColor, count)
	for i := range t.Colors {
		c := &t.Colors[i]
		if _, err := r.Read8s(name[:]); err != nil {
			return err
		}
		c.Root = fixed_string(name[:])
		if _, err := iccio.Read16Floats(r, c.PCS[:]); err != nil {
			return err
		}
		c.Device = make([]Float, ndev)
		if _, err := iccio.Read16Floats(r, c.Device); err != nil {
			return err
		}
	}
	t.ResetPCSCache()
	return nil
}

func (t *NamedColor2Tag) Write(w *iccio.Writer) error {
	if err := write_header(w, NamedColor2TypeSignature); err != nil {
		return err
	}
	if _, err := w.Write32s([]uint32{t.VendorFlags, uint32(len(t.Colors)), uint32(t.DeviceCoords)}); err != nil {
		return err
	}
	if _, err := w.Write8s(put_fixed_string(t.Prefix, 32)); err != nil {
		return err
	}
	if _, err := w.Write8s(put_fixed_string(t.Suffix, 32)); err != nil {
		return err
	}
	dev := make([]Float, t.DeviceCoords)
	for _, c := range t.Colors {
		if _, err := w.Write8s(put_fixed_string(c.Root, 32)); err != nil {
			return err
		}
		if _, err := iccio.Write16Floats(w, c.PCS[:]); err != nil {
			return err
		}
		clear(dev)
		copy(dev, c.Device)
		if _, err := iccio.Write16Floats(w, dev); err != nil {
			return err
		}
	}
	return nil
}

func (t *NamedColor2Tag) Describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "Prefix: \"%s\"\nSuffix: \"%s\"\nNumber of Device Coordinates: %d\nNumber of Colors: %d\n\n",
		t.Prefix, t.Suffix, t.DeviceCoords, len(t.Colors))
	sb.WriteString("Color Name   Lab/XYZ   Device\n")
	for i, c := range t.Colors {
		lab := t.EntryLab(i)
		fmt.Fprintf(sb, "Color Entry %d: %s  %.2f %.2f %.2f", i, t.ColorName(i), lab[0], lab[1], lab[2])
		for _, d := range c.Device {
			fmt.Fprintf(sb, " %.4f", d)
		}
		sb.WriteString("\n")
	}
}

func (t *NamedColor2Tag) Validate(sig Signature, rep *Report, p *Profile) Severity {
	rv := t.validate_reserved(sig, rep)
	if p != nil {
		if p.Header.Class != NamedColorClass {
			rv = max(rv, rep.Add(ValidateWarning, sig, "Named color tag in a profile that is not a named color profile."))
		}
		if n := SpaceSamples(p.Header.ColorSpace); t.DeviceCoords != 0 && n != t.DeviceCoords {
			rv = max(rv, rep.Add(ValidateNonCompliant, sig, "Number of device coordinates does not match the color space."))
		}
	}
	seen := make(map[string]bool, len(t.Colors))
	for i, c := range t.Colors {
		if len(c.Root) > 31 || len(t.Prefix) > 31 || len(t.Suffix) > 31 {
			rv = max(rv, rep.Add(ValidateNonCompliant, sig, "Color name too long for entry %d.", i))
		}
		if seen[c.Root] {
			rv = max(rv, rep.Add(ValidateWarning, sig, "Duplicate color name %q.", c.Root))
		}
		seen[c.Root] = true
	}
	return rv
}

func (t *NamedColor2Tag) Clone() Tag {
	ans := &NamedColor2Tag{
		tagHeader: t.tagHeader, VendorFlags: t.VendorFlags, Prefix: t.Prefix, Suffix: t.Suffix,
		DeviceCoords: t.DeviceCoords, Colors: make([]NamedColor, len(t.Colors)), pcs: t.PCSSpace(),
	}
	for i, c := range t.Colors {
		ans.Colors[i] = c
		ans.Colors[i].Device = append([]Float(nil), c.Device...)
	}
	return ans
}
