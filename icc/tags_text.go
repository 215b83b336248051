package icc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"

	"github.com/kovidgoyal/iccmm/iccio"
)

var utf16be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

func decode_utf16be(b []byte) string {
	ans, err := utf16be.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(ans), "\x00")
}

func encode_utf16be(s string) []byte {
	ans, err := utf16be.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil
	}
	return ans
}

func is_7bit(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}

// Texter is implemented by all tags whose content is a human readable string.
type Texter interface {
	Text() string
}

// TextTag is the 'text' type, a NUL terminated 7-bit ASCII string.
type TextTag struct {
	tagHeader
	Value        string
	unterminated bool
}

func NewTextTag(s string) *TextTag { return &TextTag{Value: s} }

func (t *TextTag) Type() Signature { return TextTypeSignature }
func (t *TextTag) Text() string    { return t.Value }

func (t *TextTag) Read(size uint32, r *iccio.Reader) error {
	data, err := t.read_full(r, TextTypeSignature, size, 8)
	if err != nil {
		return err
	}
	body := data[8:]
	idx := bytes.IndexByte(body, 0)
	t.unterminated = idx < 0
	t.Value = string(IfElse(idx < 0, body, body[:max(idx, 0)]))
	return nil
}

func (t *TextTag) Write(w *iccio.Writer) error {
	if err := write_header(w, TextTypeSignature); err != nil {
		return err
	}
	_, err := w.Write8s(append([]byte(t.Value), 0))
	return err
}

func (t *TextTag) Describe(sb *strings.Builder) {
	sb.WriteString(t.Value)
	sb.WriteString("\n")
}

func (t *TextTag) Validate(sig Signature, rep *Report, p *Profile) Severity {
	rv := t.validate_reserved(sig, rep)
	if t.unterminated {
		rv = max(rv, rep.Add(ValidateNonCompliant, sig, "Text do not end with a NULL terminator."))
	}
	if !is_7bit(t.Value) {
		rv = max(rv, rep.Add(ValidateNonCompliant, sig, "Text contains non 7-bit ASCII characters."))
	}
	return rv
}

func (t *TextTag) Clone() Tag { ans := *t; return &ans }

// TextDescriptionTag is the version 2 'desc' type carrying ASCII, Unicode
// and Macintosh ScriptCode renditions of the same text.
type TextDescriptionTag struct {
	tagHeader
	ASCII           string
	UnicodeLanguage uint32
	Unicode         string
	ScriptCode      uint16
	ScriptText      []byte // at most 67 bytes
	unterminated    bool
}

func NewTextDescriptionTag(s string) *TextDescriptionTag { return &TextDescriptionTag{ASCII: s} }

func (t *TextDescriptionTag) Type() Signature { return TextDescriptionTypeSignature }
func (t *TextDescriptionTag) Text() string    { return IfElse(t.ASCII == "", t.Unicode, t.ASCII) }

func (t *TextDescriptionTag) Read(size uint32, r *iccio.Reader) error {
	data, err := t.read_full(r, TextDescriptionTypeSignature, size, 12)
	if err != nil {
		return err
	}
	data = data[8:]
	count := binary.BigEndian.Uint32(data)
	data = data[4:]
	if uint64(count) > uint64(len(data)) {
		return fmt.Errorf("desc ASCII count %d exceeds tag size: %w", count, ErrInvalidTag)
	}
	ascii := data[:count]
	data = data[count:]
	if count > 0 {
		t.unterminated = ascii[count-1] != 0
		t.ASCII = fixed_string(ascii)
	}
	// Many profiles in the wild truncate the Unicode and ScriptCode parts
	if len(data) < 8 {
		return nil
	}
	t.UnicodeLanguage = binary.BigEndian.Uint32(data)
	ucount := uint64(binary.BigEndian.Uint32(data[4:])) * 2
	data = data[8:]
	if ucount > uint64(len(data)) {
		return fmt.Errorf("desc Unicode count exceeds tag size: %w", ErrInvalidTag)
	}
	t.Unicode = decode_utf16be(data[:ucount])
	data = data[ucount:]
	if len(data) < 3 {
		return nil
	}
	t.ScriptCode = binary.BigEndian.Uint16(data)
	scount := min(int(data[2]), 67, len(data)-3)
	t.ScriptText = append([]byte(nil), data[3:3+scount]...)
	return nil
}

func (t *TextDescriptionTag) Write(w *iccio.Writer) error {
	if err := write_header(w, TextDescriptionTypeSignature); err != nil {
		return err
	}
	var b bytes.Buffer
	_ = binary.Write(&b, binary.BigEndian, uint32(len(t.ASCII)+1))
	b.WriteString(t.ASCII)
	b.WriteByte(0)
	u := encode_utf16be(t.Unicode)
	_ = binary.Write(&b, binary.BigEndian, t.UnicodeLanguage)
	if len(u) > 0 {
		_ = binary.Write(&b, binary.BigEndian, uint32(len(u)/2+1))
		b.Write(u)
		b.Write([]byte{0, 0})
	} else {
		_ = binary.Write(&b, binary.BigEndian, uint32(0))
	}
	_ = binary.Write(&b, binary.BigEndian, t.ScriptCode)
	st := t.ScriptText[:min(len(t.ScriptText), 67)]
	b.WriteByte(byte(len(st)))
	var mac [67]byte
	copy(mac[:], st)
	b.Write(mac[:])
	_, err := w.Write8s(b.Bytes())
	return err
}

func (t *TextDescriptionTag) Describe(sb *strings.Builder) {
	sb.WriteString(t.ASCII)
	sb.WriteString("\n")
	if t.Unicode != "" {
		fmt.Fprintf(sb, "Unicode (language %08X): %s\n", t.UnicodeLanguage, t.Unicode)
	}
	if len(t.ScriptText) > 0 {
		fmt.Fprintf(sb, "ScriptCode (%d): %s\n", t.ScriptCode, fixed_string(t.ScriptText))
	}
}

func (t *TextDescriptionTag) Validate(sig Signature, rep *Report, p *Profile) Severity {
	rv := t.validate_reserved(sig, rep)
	if t.unterminated {
		rv = max(rv, rep.Add(ValidateNonCompliant, sig, "Text do not end with a NULL terminator."))
	}
	if !is_7bit(t.ASCII) {
		rv = max(rv, rep.Add(ValidateNonCompliant, sig, "Text contains non 7-bit ASCII characters."))
	}
	if p != nil && p.Header.Version >= Version4 {
		rv = max(rv, rep.Add(ValidateNonCompliant, sig, "textDescriptionType is not allowed in version 4 profiles."))
	}
	return rv
}

func (t *TextDescriptionTag) Clone() Tag {
	ans := *t
	ans.ScriptText = append([]byte(nil), t.ScriptText...)
	return &ans
}

type LocalizedString struct {
	Language, Country [2]byte
	Text              string
}

func (l LocalizedString) String() string {
	return fmt.Sprintf("%c%c_%c%c", l.Language[0], l.Language[1], l.Country[0], l.Country[1])
}

// MultiLocalizedUnicodeTag is the 'mluc' type, a set of UTF-16 strings keyed
// by ISO 639 language and ISO 3166 country codes.
type MultiLocalizedUnicodeTag struct {
	tagHeader
	Entries    []LocalizedString
	recordSize uint32
}

func NewMultiLocalizedUnicodeTag(lang, country, text string) *MultiLocalizedUnicodeTag {
	ans := &MultiLocalizedUnicodeTag{}
	ans.Set(lang, country, text)
	return ans
}

func (t *MultiLocalizedUnicodeTag) Type() Signature { return MultiLocalisedUnicodeTypeSignature }

func code2(s string) (ans [2]byte) {
	copy(ans[:], s)
	return
}

// Set adds or replaces the string for a language/country pair.
func (t *MultiLocalizedUnicodeTag) Set(lang, country, text string) {
	l, c := code2(lang), code2(country)
	for i, e := range t.Entries {
		if e.Language == l && e.Country == c {
			t.Entries[i].Text = text
			return
		}
	}
	t.Entries = append(t.Entries, LocalizedString{Language: l, Country: c, Text: text})
}

// Lookup finds the best match for the language and country, falling back to
// any string in the same language and then to the first string.
func (t *MultiLocalizedUnicodeTag) Lookup(lang, country string) string {
	l, c := code2(lang), code2(country)
	lang_match := -1
	for i, e := range t.Entries {
		if e.Language == l {
			if e.Country == c {
				return e.Text
			}
			if lang_match < 0 {
				lang_match = i
			}
		}
	}
	if lang_match > -1 {
		return t.Entries[lang_match].Text
	}
	if len(t.Entries) > 0 {
		return t.Entries[0].Text
	}
	return ""
}

func (t *MultiLocalizedUnicodeTag) Text() string { return t.Lookup("en", "US") }

func (t *MultiLocalizedUnicodeTag) Read(size uint32, r *iccio.Reader) error {
	data, err := t.read_full(r, MultiLocalisedUnicodeTypeSignature, size, 16)
	if err != nil {
		return err
	}
	return t.decode(data)
}

func (t *MultiLocalizedUnicodeTag) decode(data []byte) error {
	count, record_size := binary.BigEndian.Uint32(data[8:]), binary.BigEndian.Uint32(data[12:])
	if record_size < 12 {
		return fmt.Errorf("mluc record size %d too small: %w", record_size, ErrInvalidTag)
	}
	if uint64(count)*uint64(record_size)+16 > uint64(len(data)) {
		return fmt.Errorf("mluc has %d records which exceeds tag size: %w", count, ErrInvalidTag)
	}
	t.recordSize = record_size
	t.Entries = make([]LocalizedString, 0, count)
	pos := uint32(16)
	for range count {
		rec := data[pos:]
		length, offset := binary.BigEndian.Uint32(rec[4:]), binary.BigEndian.Uint32(rec[8:])
		if uint64(offset)+uint64(length) > uint64(len(data)) {
			return fmt.Errorf("mluc record exceeds tag data length: %w", ErrInvalidTag)
		}
		t.Entries = append(t.Entries, LocalizedString{
			Language: [2]byte{rec[0], rec[1]}, Country: [2]byte{rec[2], rec[3]},
			Text: decode_utf16be(data[offset : offset+length]),
		})
		pos += record_size
	}
	return nil
}

func (t *MultiLocalizedUnicodeTag) encode() []byte {
	var b bytes.Buffer
	hdr := []uint32{uint32(MultiLocalisedUnicodeTypeSignature), 0, uint32(len(t.Entries)), 12}
	_ = binary.Write(&b, binary.BigEndian, hdr)
	strs := make([][]byte, len(t.Entries))
	offset := uint32(16 + 12*len(t.Entries))
	for i, e := range t.Entries {
		strs[i] = encode_utf16be(e.Text)
		b.Write(e.Language[:])
		b.Write(e.Country[:])
		_ = binary.Write(&b, binary.BigEndian, []uint32{uint32(len(strs[i])), offset})
		offset += uint32(len(strs[i]))
	}
	for _, s := range strs {
		b.Write(s)
	}
	return b.Bytes()
}

func (t *MultiLocalizedUnicodeTag) Write(w *iccio.Writer) error {
	_, err := w.Write8s(t.encode())
	return err
}

func (t *MultiLocalizedUnicodeTag) Describe(sb *strings.Builder) {
	for _, e := range t.Entries {
		fmt.Fprintf(sb, "Language = '%s'\n%s\n", e, e.Text)
	}
}

func (t *MultiLocalizedUnicodeTag) Validate(sig Signature, rep *Report, p *Profile) Severity {
	rv := t.validate_reserved(sig, rep)
	if len(t.Entries) == 0 {
		rv = max(rv, rep.Add(ValidateWarning, sig, "No localized strings present."))
	}
	if t.recordSize != 0 && t.recordSize != 12 {
		rv = max(rv, rep.Add(ValidateNonCompliant, sig, "Record size is %d should be 12.", t.recordSize))
	}
	for _, e := range t.Entries {
		if _, err := language.ParseBase(string(e.Language[:])); err != nil || e.Language[0] < 'a' || e.Language[0] > 'z' {
			rv = max(rv, rep.Add(ValidateNonCompliant, sig, "Invalid language code '%c%c'.", e.Language[0], e.Language[1]))
		}
		if e.Country != [2]byte{} {
			if _, err := language.ParseRegion(string(e.Country[:])); err != nil {
				rv = max(rv, rep.Add(ValidateWarning, sig, "Unknown country code '%c%c'.", e.Country[0], e.Country[1]))
			}
		}
	}
	return rv
}

func (t *MultiLocalizedUnicodeTag) Clone() Tag {
	ans := *t
	ans.Entries = append([]LocalizedString(nil), t.Entries...)
	return &ans
}

// Utf8Tag is the 'utf8' type, UTF-8 text.
type Utf8Tag struct {
	tagHeader
	Value string
}

func (t *Utf8Tag) Type() Signature { return Utf8TextTypeSignature }
func (t *Utf8Tag) Text() string    { return t.Value }

func (t *Utf8Tag) Read(size uint32, r *iccio.Reader) error {
	data, err := t.read_full(r, Utf8TextTypeSignature, size, 8)
	if err != nil {
		return err
	}
	t.Value = fixed_string(data[8:])
	return nil
}

func (t *Utf8Tag) Write(w *iccio.Writer) error {
	if err := write_header(w, Utf8TextTypeSignature); err != nil {
		return err
	}
	_, err := w.Write8s(append([]byte(t.Value), 0))
	return err
}

func (t *Utf8Tag) Describe(sb *strings.Builder) {
	sb.WriteString(t.Value)
	sb.WriteString("\n")
}

func (t *Utf8Tag) Validate(sig Signature, rep *Report, p *Profile) Severity {
	return t.validate_reserved(sig, rep)
}

func (t *Utf8Tag) Clone() Tag { ans := *t; return &ans }

// ZipUtf8Tag is the 'zut8' type, zlib compressed UTF-8 text.
type ZipUtf8Tag struct {
	tagHeader
	Value string
}

func (t *ZipUtf8Tag) Type() Signature { return ZipUtf8TextTypeSignature }
func (t *ZipUtf8Tag) Text() string    { return t.Value }

func (t *ZipUtf8Tag) Read(size uint32, r *iccio.Reader) error {
	data, err := t.read_full(r, ZipUtf8TextTypeSignature, size, 8)
	if err != nil {
		return err
	}
	if len(data) == 8 {
		t.Value = ""
		return nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(data[8:]))
	if err != nil {
		return fmt.Errorf("zut8 tag has invalid compressed data: %w", err)
	}
	defer zr.Close()
	text, err := io.ReadAll(zr)
	if err != nil {
		return fmt.Errorf("zut8 tag has invalid compressed data: %w", err)
	}
	t.Value = fixed_string(text)
	return nil
}

func (t *ZipUtf8Tag) Write(w *iccio.Writer) error {
	if err := write_header(w, ZipUtf8TextTypeSignature); err != nil {
		return err
	}
	var b bytes.Buffer
	zw := zlib.NewWriter(&b)
	if _, err := zw.Write(append([]byte(t.Value), 0)); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	_, err := w.Write8s(b.Bytes())
	return err
}

func (t *ZipUtf8Tag) Describe(sb *strings.Builder) {
	sb.WriteString(t.Value)
	sb.WriteString("\n")
}

func (t *ZipUtf8Tag) Validate(sig Signature, rep *Report, p *Profile) Severity {
	return t.validate_reserved(sig, rep)
}

func (t *ZipUtf8Tag) Clone() Tag { ans := *t; return &ans }
