package icc

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	Version2  uint32 = 0x02100000
	Version4  uint32 = 0x04000000
	Version43 uint32 = 0x04300000
	Version5  uint32 = 0x05000000
)

// Header is the 128 byte profile header.
type Header struct {
	Size            uint32
	CMM             Signature
	Version         uint32
	Class           Signature
	ColorSpace      Signature
	PCS             Signature
	Date            DateTimeNumber
	Magic           Signature
	Platform        Signature
	Flags           uint32
	Manufacturer    Signature
	Model           Signature
	Attributes      uint64
	RenderingIntent RenderingIntent
	Illuminant      XYZNumber
	Creator         Signature
	ProfileID       [16]byte
	Reserved        [28]byte
}

func (h *Header) MajorVersion() int { return int(h.Version >> 24) }

func (h *Header) VersionString() string {
	return fmt.Sprintf("%d.%d.%d", h.Version>>24, (h.Version>>20)&0xf, (h.Version>>16)&0xf)
}

// HasProfileID reports whether the header carries a non-zero profile ID.
func (h *Header) HasProfileID() bool { return h.ProfileID != [16]byte{} }

// TagEntry is one entry of the tag directory. Offset and Size are those
// read from or last written to a file. Tag is nil for tags that have not
// been loaded yet.
type TagEntry struct {
	Sig          Signature
	Offset, Size uint32
	Tag          Tag
}

// Profile is an ICC profile. The directory order is significant and
// preserved on write. Two entries may refer to the same Tag.
type Profile struct {
	Header Header

	mu       sync.Mutex
	entries  []TagEntry
	src      []byte
	release  func() error
	registry *Registry
	logger   *slog.Logger
	id_state id_state
}

type id_state uint8

const (
	id_unchecked id_state = iota
	id_valid
	id_invalid
)

// NewProfile returns an empty version 4.3 profile with the given class and
// spaces.
func NewProfile(class, color_space, pcs Signature) *Profile {
	return &Profile{Header: Header{
		CMM: UnknownSignature, Version: Version43, Class: class, ColorSpace: color_space, PCS: pcs,
		Date: DateTimeFromTime(time.Now()), Magic: ProfileFileSignature, Illuminant: D50,
	}, registry: default_registry(), logger: slog.Default()}
}

// Entries returns a copy of the tag directory. Tags not loaded yet are nil.
func (p *Profile) Entries() []TagEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TagEntry(nil), p.entries...)
}

func (p *Profile) index_of(sig Signature) int {
	for i, e := range p.entries {
		if e.Sig == sig {
			return i
		}
	}
	return -1
}

func (p *Profile) HasTag(sig Signature) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index_of(sig) > -1
}

// FindTag returns the tag with signature sig, loading it if needed.
func (p *Profile) FindTag(sig Signature) (Tag, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.index_of(sig)
	if idx < 0 {
		return nil, fmt.Errorf("%s: %w", TagName(sig), ErrTagNotFound)
	}
	if err := p.load_entry(idx); err != nil {
		return nil, err
	}
	return p.entries[idx].Tag, nil
}

// TagAs returns the tag with signature sig if it is present and of type T.
func TagAs[T any](p *Profile, sig Signature) (ans T, ok bool) {
	t, err := p.FindTag(sig)
	if err != nil {
		return
	}
	ans, ok = t.(T)
	return
}

// AttachTag sets the tag for sig, replacing any existing one. Attaching
// the same Tag under several signatures shares it.
func (p *Profile) AttachTag(sig Signature, t Tag) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if idx := p.index_of(sig); idx > -1 {
		p.entries[idx].Tag = t
		return
	}
	p.entries = append(p.entries, TagEntry{Sig: sig, Tag: t})
}

// DeleteTag removes the directory entry for sig. A tag shared with another
// entry stays attached there.
func (p *Profile) DeleteTag(sig Signature) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.index_of(sig)
	if idx < 0 {
		return false
	}
	p.entries = append(p.entries[:idx], p.entries[idx+1:]...)
	return true
}

// AreTagsUnique reports whether every directory signature occurs once.
func (p *Profile) AreTagsUnique() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	seen := make(map[Signature]bool, len(p.entries))
	for _, e := range p.entries {
		if seen[e.Sig] {
			return false
		}
		seen[e.Sig] = true
	}
	return true
}

// LoadAll materializes every tag and releases the source data.
func (p *Profile) LoadAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.entries {
		if err := p.load_entry(i); err != nil {
			return err
		}
	}
	return p.release_source()
}

// Close releases the data backing a lazily loaded profile. Tags not yet
// loaded are no longer available afterwards.
func (p *Profile) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.release_source()
}

func (p *Profile) release_source() (err error) {
	if p.release != nil {
		err = p.release()
		p.release = nil
	}
	p.src = nil
	return
}

// Description returns the text of the profile description tag.
func (p *Profile) Description() string {
	return p.text_of(ProfileDescriptionTagSignature)
}

func (p *Profile) Copyright() string { return p.text_of(CopyrightTagSignature) }

func (p *Profile) text_of(sig Signature) string {
	if t, ok := TagAs[Texter](p, sig); ok {
		return t.Text()
	}
	return ""
}

// MediaWhitePoint returns the wtpt value, D50 if the profile has none.
func (p *Profile) MediaWhitePoint() XYZNumber {
	if t, ok := TagAs[*XYZTag](p, MediaWhitePointTagSignature); ok && len(t.Values) > 0 {
		return t.XYZ()
	}
	return D50
}

// Clone returns a deep copy of the profile with every tag loaded. Shared
// tags stay shared in the copy.
func (p *Profile) Clone() (*Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ans := &Profile{Header: p.Header, registry: p.registry, logger: p.logger, entries: make([]TagEntry, len(p.entries))}
	clones := make(map[Tag]Tag, len(p.entries))
	for i := range p.entries {
		if err := p.load_entry(i); err != nil {
			return nil, err
		}
		e := p.entries[i]
		c, ok := clones[e.Tag]
		if !ok {
			c = e.Tag.Clone()
			clones[e.Tag] = c
		}
		e.Tag = c
		ans.entries[i] = e
	}
	return ans, nil
}

// Describe writes the header and every tag in human readable form.
func (p *Profile) Describe(sb *strings.Builder) error {
	h := &p.Header
	fmt.Fprintf(sb, "Header\n------\n")
	fmt.Fprintf(sb, "Attributes:       0x%016x\n", h.Attributes)
	fmt.Fprintf(sb, "Cmm:              %s\n", h.CMM)
	fmt.Fprintf(sb, "Creation Date:    %s\n", h.Date)
	fmt.Fprintf(sb, "Creator:          %s\n", h.Creator)
	fmt.Fprintf(sb, "Device Manufacturer: %s\n", h.Manufacturer)
	fmt.Fprintf(sb, "Data Color Space: %s\n", h.ColorSpace)
	fmt.Fprintf(sb, "Flags:            0x%08x\n", h.Flags)
	fmt.Fprintf(sb, "PCS Color Space:  %s\n", h.PCS)
	fmt.Fprintf(sb, "Platform:         %s\n", h.Platform)
	fmt.Fprintf(sb, "Rendering Intent: %s\n", h.RenderingIntent)
	fmt.Fprintf(sb, "Profile Class:    %s\n", DeviceClassName(h.Class))
	fmt.Fprintf(sb, "Profile Size:     %d (0x%x) bytes\n", h.Size, h.Size)
	fmt.Fprintf(sb, "Version:          %s\n", h.VersionString())
	fmt.Fprintf(sb, "Illuminant:       X=%.4f, Y=%.4f, Z=%.4f\n", h.Illuminant.X, h.Illuminant.Y, h.Illuminant.Z)
	if h.HasProfileID() {
		fmt.Fprintf(sb, "Profile ID:       %x\n", h.ProfileID)
	} else {
		sb.WriteString("Profile ID:       Profile ID not calculated.\n")
	}
	fmt.Fprintf(sb, "\nProfile Tags\n------------\n")
	entries := p.Entries()
	for _, e := range entries {
		fmt.Fprintf(sb, "%34s  %s  offset=%d size=%d\n", TagName(e.Sig), e.Sig, e.Offset, e.Size)
	}
	for _, e := range entries {
		t, err := p.FindTag(e.Sig)
		if err != nil {
			return err
		}
		fmt.Fprintf(sb, "\n%s %s Type: %s\n", TagName(e.Sig), e.Sig, p.type_name(t.Type()))
		t.Describe(sb)
	}
	return nil
}

func (p *Profile) type_name(typ Signature) string {
	if p.registry == nil {
		return default_registry().TypeName(typ)
	}
	return p.registry.TypeName(typ)
}
