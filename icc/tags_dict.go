package icc

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/kovidgoyal/iccmm/iccio"
)

// DictEntry is one name/value pair of a dictionary. Display strings are
// optional localized renderings of the name and value.
type DictEntry struct {
	Name, Value  string
	HasValue     bool
	DisplayName  *MultiLocalizedUnicodeTag
	DisplayValue *MultiLocalizedUnicodeTag
}

// DictTag is the 'dict' type.
type DictTag struct {
	tagHeader
	Entries []DictEntry
}

func (t *DictTag) Type() Signature { return DictTypeSignature }

// Set adds or replaces the value of name.
func (t *DictTag) Set(name, value string) {
	for i, e := range t.Entries {
		if e.Name == name {
			t.Entries[i].Value, t.Entries[i].HasValue = value, true
			return
		}
	}
	t.Entries = append(t.Entries, DictEntry{Name: name, Value: value, HasValue: true})
}

// Get returns the value of name.
func (t *DictTag) Get(name string) (string, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e.Value, e.HasValue
		}
	}
	return "", false
}

func (t *DictTag) Read(size uint32, r *iccio.Reader) error {
	data, err := t.read_full(r, DictTypeSignature, size, 16)
	if err != nil {
		return err
	}
	count, record_size := binary.BigEndian.Uint32(data[8:]), binary.BigEndian.Uint32(data[12:])
	switch record_size {
	case 16, 24, 32:
	default:
		return fmt.Errorf("dict record size %d is invalid: %w", record_size, ErrInvalidTag)
	}
	if 16+uint64(count)*uint64(record_size) > uint64(len(data)) {
		return fmt.Errorf("dict with %d records exceeds tag size: %w", count, ErrInvalidTag)
	}
	field := func(rec []byte, i int) ([]byte, bool, error) {
		off, sz := binary.BigEndian.Uint32(rec[8*i:]), binary.BigEndian.Uint32(rec[8*i+4:])
		if off == 0 {
			return nil, false, nil
		}
		if uint64(off)+uint64(sz) > uint64(len(data)) {
			return nil, false, fmt.Errorf("dict record field exceeds tag size: %w", ErrInvalidTag)
		}
		return data[off : off+sz], true, nil
	}
	mluc := func(b []byte) (*MultiLocalizedUnicodeTag, error) {
		m := &MultiLocalizedUnicodeTag{}
		if err := m.Read(uint32(len(b)), iccio.NewBytesReader(b)); err != nil {
			return nil, err
		}
		return m, nil
	}
	t.Entries = make([]DictEntry, count)
	for i := range t.Entries {
		rec := data[16+uint64(i)*uint64(record_size):][:record_size]
		e := &t.Entries[i]
		b, _, err := field(rec, 0)
		if err != nil {
			return err
		}
		e.Name = decode_utf16be(b)
		if b, e.HasValue, err = field(rec, 1); err != nil {
			return err
		}
		e.Value = decode_utf16be(b)
		for j, dest := range []**MultiLocalizedUnicodeTag{&e.DisplayName, &e.DisplayValue} {
			if int(record_size) < 24+8*j {
				break
			}
			b, ok, err := field(rec, 2+j)
			if err != nil {
				return err
			}
			if ok && len(b) > 0 {
				if *dest, err = mluc(b); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (t *DictTag) Write(w *iccio.Writer) error {
	record_size := 16
	for _, e := range t.Entries {
		if e.DisplayValue != nil {
			record_size = 32
		} else if e.DisplayName != nil {
			record_size = max(record_size, 24)
		}
	}
	fields := record_size / 8
	records := make([]uint32, 0, 2*fields*len(t.Entries))
	var body []byte
	pos := uint32(16 + record_size*len(t.Entries))
	add := func(b []byte, present bool) {
		if !present {
			records = append(records, 0, 0)
			return
		}
		records = append(records, pos, uint32(len(b)))
		body = append(body, b...)
		pos += uint32(len(b))
		for pos%4 != 0 {
			body = append(body, 0)
			pos++
		}
	}
	for _, e := range t.Entries {
		add(encode_utf16be(e.Name), true)
		add(encode_utf16be(e.Value), e.HasValue)
		for j, m := range []*MultiLocalizedUnicodeTag{e.DisplayName, e.DisplayValue} {
			if 2+j >= fields {
				break
			}
			if m == nil {
				add(nil, false)
			} else {
				add(m.encode(), true)
			}
		}
	}
	if _, err := w.Write32s([]uint32{uint32(DictTypeSignature), 0, uint32(len(t.Entries)), uint32(record_size)}); err != nil {
		return err
	}
	if _, err := w.Write32s(records); err != nil {
		return err
	}
	_, err := w.Write8s(body)
	return err
}

func (t *DictTag) Describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "BEGIN DICT_ENTRIES\n")
	for _, e := range t.Entries {
		fmt.Fprintf(sb, "Name=%s\n", e.Name)
		if e.HasValue {
			fmt.Fprintf(sb, "Value=%s\n", e.Value)
		} else {
			sb.WriteString("Value Unset\n")
		}
		if e.DisplayName != nil {
			sb.WriteString("BEGIN DISPLAY_NAME\n")
			e.DisplayName.Describe(sb)
			sb.WriteString("END DISPLAY_NAME\n")
		}
		if e.DisplayValue != nil {
			sb.WriteString("BEGIN DISPLAY_VALUE\n")
			e.DisplayValue.Describe(sb)
			sb.WriteString("END DISPLAY_VALUE\n")
		}
	}
	sb.WriteString("END DICT_ENTRIES\n")
}

func (t *DictTag) Validate(sig Signature, rep *Report, p *Profile) Severity {
	rv := t.validate_reserved(sig, rep)
	seen := make(map[string]bool, len(t.Entries))
	for _, e := range t.Entries {
		if e.Name == "" {
			rv = max(rv, rep.Add(ValidateNonCompliant, sig, "Dictionary entry with an empty name."))
		}
		if seen[e.Name] {
			rv = max(rv, rep.Add(ValidateNonCompliant, sig, "Duplicate dictionary name %q.", e.Name))
		}
		seen[e.Name] = true
		for _, m := range []*MultiLocalizedUnicodeTag{e.DisplayName, e.DisplayValue} {
			if m != nil {
				rv = max(rv, m.Validate(sig, rep, p))
			}
		}
	}
	return rv
}

func (t *DictTag) Clone() Tag {
	ans := *t
	ans.Entries = make([]DictEntry, len(t.Entries))
	for i, e := range t.Entries {
		ans.Entries[i] = e
		if e.DisplayName != nil {
			ans.Entries[i].DisplayName = e.DisplayName.Clone().(*MultiLocalizedUnicodeTag)
		}
		if e.DisplayValue != nil {
			ans.Entries[i].DisplayValue = e.DisplayValue.Clone().(*MultiLocalizedUnicodeTag)
		}
	}
	return &ans
}
