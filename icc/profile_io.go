package icc

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	"github.com/kovidgoyal/iccmm/iccio"
)

const header_size = 128

// ProfileError indicates that profile data is structurally invalid and
// cannot be loaded.
type ProfileError struct {
	Offset int64
	Reason string
	Err    error
}

func (e *ProfileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("icc: invalid profile (byte %d): %s: %s", e.Offset, e.Reason, e.Err)
	}
	return fmt.Sprintf("icc: invalid profile (byte %d): %s", e.Offset, e.Reason)
}

func (e *ProfileError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidProfile
}

func invalid_profile(offset int64, err error, format string, args ...any) error {
	return &ProfileError{Offset: offset, Reason: fmt.Sprintf(format, args...), Err: err}
}

type read_config struct {
	registry *Registry
	logger   *slog.Logger
	lazy     bool
}

// ReadOption sets an optional parameter for reading profiles.
type ReadOption func(*read_config)

// WithRegistry uses r to create tags instead of the built in factory
// alone.
func WithRegistry(r *Registry) ReadOption {
	return func(c *read_config) { c.registry = r }
}

func WithLogger(l *slog.Logger) ReadOption {
	return func(c *read_config) { c.logger = l }
}

// Lazy defers reading tag bodies until they are first requested. The
// profile keeps a reference to its data until Close or LoadAll is called.
func Lazy(enabled bool) ReadOption {
	return func(c *read_config) { c.lazy = enabled }
}

func new_read_config(opts []ReadOption) *read_config {
	cfg := &read_config{registry: default_registry(), logger: slog.Default()}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

func read_header(data []byte) (h Header) {
	be := binary.BigEndian
	u32 := func(off int) uint32 { return be.Uint32(data[off:]) }
	h.Size = u32(0)
	h.CMM = Signature(u32(4))
	h.Version = u32(8)
	h.Class = Signature(u32(12))
	h.ColorSpace = Signature(u32(16))
	h.PCS = Signature(u32(20))
	h.Date = DateTimeNumber{be.Uint16(data[24:]), be.Uint16(data[26:]), be.Uint16(data[28:]), be.Uint16(data[30:]), be.Uint16(data[32:]), be.Uint16(data[34:])}
	h.Magic = Signature(u32(36))
	h.Platform = Signature(u32(40))
	h.Flags = u32(44)
	h.Manufacturer = Signature(u32(48))
	h.Model = Signature(u32(52))
	h.Attributes = be.Uint64(data[56:])
	h.RenderingIntent = RenderingIntent(u32(64))
	h.Illuminant = XYZNumber{
		Float(iccio.S15Fixed16ToFloat(int32(u32(68)))), Float(iccio.S15Fixed16ToFloat(int32(u32(72)))), Float(iccio.S15Fixed16ToFloat(int32(u32(76))))}
	h.Creator = Signature(u32(80))
	copy(h.ProfileID[:], data[84:100])
	copy(h.Reserved[:], data[100:128])
	return
}

func (h *Header) encode() []byte {
	b := make([]byte, 0, header_size)
	be := binary.BigEndian
	b = be.AppendUint32(b, h.Size)
	b = be.AppendUint32(b, uint32(h.CMM))
	b = be.AppendUint32(b, h.Version)
	b = be.AppendUint32(b, uint32(h.Class))
	b = be.AppendUint32(b, uint32(h.ColorSpace))
	b = be.AppendUint32(b, uint32(h.PCS))
	for _, x := range []uint16{h.Date.Year, h.Date.Month, h.Date.Day, h.Date.Hours, h.Date.Minutes, h.Date.Seconds} {
		b = be.AppendUint16(b, x)
	}
	b = be.AppendUint32(b, uint32(ProfileFileSignature))
	b = be.AppendUint32(b, uint32(h.Platform))
	b = be.AppendUint32(b, h.Flags)
	b = be.AppendUint32(b, uint32(h.Manufacturer))
	b = be.AppendUint32(b, uint32(h.Model))
	b = be.AppendUint64(b, h.Attributes)
	b = be.AppendUint32(b, uint32(h.RenderingIntent))
	for _, x := range h.Illuminant.Array() {
		b = be.AppendUint32(b, uint32(iccio.FloatToS15Fixed16(float64(x))))
	}
	b = be.AppendUint32(b, uint32(h.Creator))
	b = append(b, h.ProfileID[:]...)
	return append(b, h.Reserved[:]...)
}

// ComputeProfileID returns the MD5 profile ID of the encoded profile data.
// The flags, rendering intent and profile ID header fields are treated as
// zero.
func ComputeProfileID(data []byte) (ans [16]byte) {
	if len(data) < header_size {
		return
	}
	h := md5.New()
	var zeros [16]byte
	h.Write(data[:44])
	h.Write(zeros[:4])
	h.Write(data[48:64])
	h.Write(zeros[:4])
	h.Write(data[68:84])
	h.Write(zeros[:16])
	h.Write(data[100:])
	copy(ans[:], h.Sum(nil))
	return
}

// ReadProfile parses an encoded profile. Unless the Lazy option is used all
// tags are read and validated structurally before returning, the profile
// does not retain data in that case.
func ReadProfile(data []byte, opts ...ReadOption) (*Profile, error) {
	cfg := new_read_config(opts)
	p, err := parse_profile(data, cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.lazy {
		if err = p.LoadAll(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ReadProfileFrom reads a complete profile from r.
func ReadProfileFrom(r io.Reader, opts ...ReadOption) (*Profile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ReadProfile(data, opts...)
}

// OpenProfile reads the profile stored in the file at path. Lazily loaded
// profiles keep the file mapped until Close or LoadAll is called.
func OpenProfile(path string, opts ...ReadOption) (*Profile, error) {
	data, release, err := map_file(path)
	if err != nil {
		return nil, err
	}
	cfg := new_read_config(opts)
	p, err := parse_profile(data, cfg)
	if err != nil {
		_ = release()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.release = release
	if !cfg.lazy {
		if err = p.LoadAll(); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return p, nil
}

func parse_profile(data []byte, cfg *read_config) (*Profile, error) {
	if len(data) < header_size+4 {
		return nil, invalid_profile(0, ErrProfileTooSmall, "profile of %d bytes is too short", len(data))
	}
	h := read_header(data)
	if h.Magic != ProfileFileSignature {
		return nil, invalid_profile(36, nil, "missing %s signature, found %s", ProfileFileSignature, h.Magic)
	}
	switch {
	case int64(h.Size) > int64(len(data)):
		return nil, invalid_profile(0, ErrProfileTooSmall, "header declares %d bytes but only %d are present", h.Size, len(data))
	case h.Size >= header_size+4:
		data = data[:h.Size]
	}
	count := binary.BigEndian.Uint32(data[header_size:])
	if uint64(count) > uint64(len(data)-header_size-4)/12 {
		return nil, invalid_profile(header_size, nil, "tag count %d exceeds profile size", count)
	}
	p := &Profile{Header: h, src: data, registry: cfg.registry, logger: cfg.logger, entries: make([]TagEntry, count)}
	if h.HasProfileID() {
		p.id_state = IfElse(ComputeProfileID(data) == h.ProfileID, id_valid, id_invalid)
	}
	min_offset := uint64(header_size + 4 + 12*count)
	for i := range p.entries {
		off := header_size + 4 + 12*i
		e := &p.entries[i]
		e.Sig = Signature(binary.BigEndian.Uint32(data[off:]))
		e.Offset = binary.BigEndian.Uint32(data[off+4:])
		e.Size = binary.BigEndian.Uint32(data[off+8:])
		if e.Size < 8 {
			return nil, invalid_profile(int64(off+8), ErrTagTooSmall, "%s tag of %d bytes", TagName(e.Sig), e.Size)
		}
		if uint64(e.Offset) < min_offset || uint64(e.Offset)+uint64(e.Size) > uint64(len(data)) {
			return nil, invalid_profile(int64(off+4), nil, "%s tag at %d of %d bytes is out of bounds", TagName(e.Sig), e.Offset, e.Size)
		}
	}
	return p, nil
}

// load_entry materializes the tag of entry i. Entries with the same offset
// and size share one tag. Must be called with the lock held.
func (p *Profile) load_entry(i int) error {
	e := &p.entries[i]
	if e.Tag != nil {
		return nil
	}
	for j := range p.entries {
		if o := &p.entries[j]; j != i && o.Tag != nil && o.Offset == e.Offset && o.Size == e.Size && e.Size > 0 {
			e.Tag = o.Tag
			p.log().Debug("sharing tag", slog.String("tag", TagName(e.Sig)), slog.String("with", TagName(o.Sig)))
			return nil
		}
	}
	if p.src == nil || uint64(e.Offset)+uint64(e.Size) > uint64(len(p.src)) {
		return fmt.Errorf("%s: profile data is no longer available: %w", TagName(e.Sig), ErrTagNotFound)
	}
	data := p.src[e.Offset : e.Offset+e.Size]
	typ := Signature(binary.BigEndian.Uint32(data))
	t := p.reg().NewTag(typ)
	if err := t.Read(e.Size, iccio.NewBytesReader(data)); err != nil {
		return invalid_profile(int64(e.Offset), err, "cannot read %s tag of type %s", TagName(e.Sig), typ)
	}
	if _, unknown := t.(*UnknownTag); unknown {
		p.log().Debug("keeping tag of unknown type", slog.String("tag", TagName(e.Sig)), slog.String("type", typ.String()))
	}
	if h, ok := t.(interface{ set_pcs_space(Signature) }); ok {
		h.set_pcs_space(p.Header.PCS)
	}
	e.Tag = t
	return nil
}

func (p *Profile) reg() *Registry {
	if p.registry == nil {
		p.registry = default_registry()
	}
	return p.registry
}

func (p *Profile) log() *slog.Logger {
	if p.logger == nil {
		return slog.Default()
	}
	return p.logger
}

// Bytes encodes the profile. Every tag is written at a four byte aligned
// offset and a tag shared by several entries is written once. The header
// size and, for version 4 and later, the profile ID are updated as are the
// offsets and sizes of the directory entries.
func (p *Profile) Bytes() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.entries {
		if err := p.load_entry(i); err != nil {
			return nil, err
		}
	}
	ms := iccio.NewMemStream(nil)
	w := iccio.NewWriter(ms)
	if err := w.WriteZeros(header_size + 4 + 12*len(p.entries)); err != nil {
		return nil, err
	}
	type placement struct{ offset, size uint32 }
	written := make(map[Tag]placement, len(p.entries))
	for i := range p.entries {
		e := &p.entries[i]
		if e.Tag == nil {
			return nil, fmt.Errorf("%s has no tag: %w", TagName(e.Sig), ErrTagNotFound)
		}
		if pl, ok := written[e.Tag]; ok {
			e.Offset, e.Size = pl.offset, pl.size
			continue
		}
		start := w.Tell()
		if err := e.Tag.Write(w); err != nil {
			return nil, fmt.Errorf("writing %s tag: %w", TagName(e.Sig), err)
		}
		e.Offset, e.Size = uint32(start), uint32(w.Tell()-start)
		written[e.Tag] = placement{e.Offset, e.Size}
		if err := w.Align32(); err != nil {
			return nil, err
		}
	}
	data := ms.Bytes()
	p.Header.Size = uint32(len(data))
	p.Header.ProfileID = [16]byte{}
	copy(data, p.Header.encode())
	binary.BigEndian.PutUint32(data[header_size:], uint32(len(p.entries)))
	for i, e := range p.entries {
		off := header_size + 4 + 12*i
		binary.BigEndian.PutUint32(data[off:], uint32(e.Sig))
		binary.BigEndian.PutUint32(data[off+4:], e.Offset)
		binary.BigEndian.PutUint32(data[off+8:], e.Size)
	}
	if p.Header.MajorVersion() >= 4 {
		p.Header.ProfileID = ComputeProfileID(data)
		copy(data[84:100], p.Header.ProfileID[:])
		p.id_state = id_valid
	}
	return data, nil
}

// Write encodes the profile to w.
func (p *Profile) Write(w io.Writer) error {
	data, err := p.Bytes()
	if err != nil {
		return err
	}
	_, err = io.Copy(w, bytes.NewReader(data))
	return err
}
