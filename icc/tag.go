package icc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/kovidgoyal/iccmm/iccio"
)

var _ = fmt.Print

var (
	ErrInvalidTag      = errors.New("invalid tag data")
	ErrUnexpectedType  = errors.New("unexpected tag type")
	ErrTagTooSmall     = errors.New("tag data too small")
	ErrUnsupportedTag  = errors.New("unsupported tag operation")
	ErrTagNotFound     = errors.New("tag not found")
	ErrInvalidProfile  = errors.New("invalid profile")
	ErrProfileTooSmall = errors.New("profile data too small")
)

// Tag is the in-memory form of one tag body. Read consumes exactly size
// bytes starting at the type signature, Write emits the type signature,
// a zero reserved field and the body.
type Tag interface {
	Type() Signature
	Reserved() uint32
	Read(size uint32, r *iccio.Reader) error
	Write(w *iccio.Writer) error
	Describe(sb *strings.Builder)
	Validate(sig Signature, rep *Report, p *Profile) Severity
	Clone() Tag
}

// tagHeader holds the reserved field every tag carries after its type
// signature.
type tagHeader struct {
	reserved uint32
}

func (h *tagHeader) Reserved() uint32 { return h.reserved }

func (h *tagHeader) read_header(r *iccio.Reader, expected Signature, size, min_size uint32) error {
	if size < min_size {
		return fmt.Errorf("%s tag of %d bytes, at least %d needed: %w", expected, size, min_size, ErrTagTooSmall)
	}
	var hdr [2]uint32
	if _, err := r.Read32s(hdr[:]); err != nil {
		return err
	}
	if Signature(hdr[0]) != expected {
		return fmt.Errorf("expected %s got %s: %w", expected, Signature(hdr[0]), ErrUnexpectedType)
	}
	h.reserved = hdr[1]
	return nil
}

// read_full verifies the header and returns the complete tag data, header
// included, so that bodies with internal offsets can be decoded in memory.
func (h *tagHeader) read_full(r *iccio.Reader, expected Signature, size, min_size uint32) ([]byte, error) {
	if size < min_size {
		return nil, fmt.Errorf("%s tag of %d bytes, at least %d needed: %w", expected, size, min_size, ErrTagTooSmall)
	}
	data := make([]byte, size)
	if _, err := r.Read8s(data); err != nil {
		return nil, err
	}
	if s := Signature(binary.BigEndian.Uint32(data)); s != expected {
		return nil, fmt.Errorf("expected %s got %s: %w", expected, s, ErrUnexpectedType)
	}
	h.reserved = binary.BigEndian.Uint32(data[4:])
	return data, nil
}

func (h *tagHeader) validate_reserved(sig Signature, rep *Report) Severity {
	if h.reserved != 0 {
		return rep.Add(ValidateNonCompliant, sig, "Reserved Value must be zero.")
	}
	return ValidateOK
}

func write_header(w *iccio.Writer, typ Signature) error {
	_, err := w.Write32s([]uint32{uint32(typ), 0})
	return err
}

// expected_channels returns the input and output channel counts a
// transform tag with the given signature must have in profile p.
func expected_channels(sig Signature, p *Profile) (nin, nout int, ok bool) {
	if p == nil {
		return
	}
	cs, pcs := SpaceSamples(p.Header.ColorSpace), SpaceSamples(p.Header.PCS)
	switch sig {
	case AToB0TagSignature, AToB1TagSignature, AToB2TagSignature, DToB0TagSignature, DToB1TagSignature, DToB2TagSignature, DToB3TagSignature:
		return cs, pcs, true
	case BToA0TagSignature, BToA1TagSignature, BToA2TagSignature, BToD0TagSignature, BToD1TagSignature, BToD2TagSignature, BToD3TagSignature:
		return pcs, cs, true
	case GamutTagSignature:
		return pcs, 1, true
	case Preview0TagSignature, Preview1TagSignature, Preview2TagSignature:
		return pcs, pcs, true
	}
	return
}

// UnknownTag keeps the raw body of tags of unrecognized type so that they
// survive a read/write cycle unchanged.
type UnknownTag struct {
	tagHeader
	Sig  Signature
	Data []byte
}

func NewUnknownTag(typ Signature) *UnknownTag { return &UnknownTag{Sig: typ} }

func (t *UnknownTag) Type() Signature { return t.Sig }

func (t *UnknownTag) Read(size uint32, r *iccio.Reader) error {
	if size < 8 {
		return fmt.Errorf("unknown tag of %d bytes: %w", size, ErrTagTooSmall)
	}
	var hdr [2]uint32
	if _, err := r.Read32s(hdr[:]); err != nil {
		return err
	}
	t.Sig, t.reserved = Signature(hdr[0]), hdr[1]
	t.Data = make([]byte, size-8)
	_, err := r.Read8s(t.Data)
	return err
}

func (t *UnknownTag) Write(w *iccio.Writer) error {
	if _, err := w.Write32s([]uint32{uint32(t.Sig), t.reserved}); err != nil {
		return err
	}
	_, err := w.Write8s(t.Data)
	return err
}

func (t *UnknownTag) Describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "Unknown tag type %s with %d bytes of data\n", t.Sig.Hex(), len(t.Data))
	dump_hex(sb, t.Data)
}

func (t *UnknownTag) Validate(sig Signature, rep *Report, p *Profile) Severity {
	return rep.Add(ValidateWarning, sig, "Unknown tag type %s.", t.Sig)
}

func (t *UnknownTag) Clone() Tag {
	ans := *t
	ans.Data = append([]byte(nil), t.Data...)
	return &ans
}

func dump_hex(sb *strings.Builder, data []byte) {
	for i := 0; i < len(data); i += 16 {
		fmt.Fprintf(sb, "%08X:", i)
		for _, b := range data[i:min(i+16, len(data))] {
			fmt.Fprintf(sb, " %02X", b)
		}
		sb.WriteString("\n")
	}
}
