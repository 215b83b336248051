package icc

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/kovidgoyal/iccmm/iccio"
)

// Measurement units of a response curve
const (
	StatusAUnit Signature = 0x53746141 // 'StaA'
	StatusEUnit Signature = 0x53746145 // 'StaE'
	StatusIUnit Signature = 0x53746149 // 'StaI'
	StatusTUnit Signature = 0x53746154 // 'StaT'
	StatusMUnit Signature = 0x5374614D // 'StaM'
	DinEUnit    Signature = 0x444E2020 // 'DN  '
	DinEPolUnit Signature = 0x444E2050 // 'DN P'
	DinIUnit    Signature = 0x444E4E20 // 'DNN '
	DinIPolUnit Signature = 0x444E4E50 // 'DNNP'
)

func measurement_unit_name(u Signature) string {
	switch u {
	case StatusAUnit:
		return "Status A"
	case StatusEUnit:
		return "Status E"
	case StatusIUnit:
		return "Status I"
	case StatusTUnit:
		return "Status T"
	case StatusMUnit:
		return "Status M"
	case DinEUnit:
		return "DIN with no polarizing filter"
	case DinEPolUnit:
		return "DIN with polarizing filter"
	case DinIUnit:
		return "Narrow band DIN with no polarizing filter"
	case DinIPolUnit:
		return "Narrow band DIN with polarizing filter"
	}
	return ""
}

// ResponseMeasurement pairs a normalized device value with the measured
// response.
type ResponseMeasurement struct {
	Device      Float
	Measurement Float
}

// ResponseCurve holds the measurements of every channel for one
// measurement unit.
type ResponseCurve struct {
	Unit        Signature
	MaxColorant []XYZNumber
	Response    [][]ResponseMeasurement
}

// ResponseCurveSetTag is the 'rcs2' type used by the output response tag.
type ResponseCurveSetTag struct {
	tagHeader
	Channels int
	Curves   []ResponseCurve
}

func NewResponseCurveSetTag(channels int) *ResponseCurveSetTag {
	return &ResponseCurveSetTag{Channels: channels}
}

func (t *ResponseCurveSetTag) Type() Signature { return ResponseCurveSet16TypeSignature }

// NewCurve appends an empty response curve for unit with room for every
// channel.
func (t *ResponseCurveSetTag) NewCurve(unit Signature) *ResponseCurve {
	t.Curves = append(t.Curves, ResponseCurve{
		Unit: unit, MaxColorant: make([]XYZNumber, t.Channels), Response: make([][]ResponseMeasurement, t.Channels)})
	return &t.Curves[len(t.Curves)-1]
}

func (t *ResponseCurveSetTag) Read(size uint32, r *iccio.Reader) error {
	data, err := t.read_full(r, ResponseCurveSet16TypeSignature, size, 12)
	if err != nil {
		return err
	}
	t.Channels = int(binary.BigEndian.Uint16(data[8:]))
	count := int(binary.BigEndian.Uint16(data[10:]))
	if 12+4*count > len(data) {
		return fmt.Errorf("rcs2 with %d curves exceeds tag size: %w", count, ErrInvalidTag)
	}
	br := iccio.NewBytesReader(data)
	t.Curves = make([]ResponseCurve, count)
	for i := range t.Curves {
		off := binary.BigEndian.Uint32(data[12+4*i:])
		if uint64(off)+4+16*uint64(t.Channels) > uint64(len(data)) {
			return fmt.Errorf("rcs2 curve %d at offset %d exceeds tag size: %w", i, off, ErrInvalidTag)
		}
		if _, err = br.Seek(int64(off), io.SeekStart); err != nil {
			return err
		}
		if err = t.Curves[i].read(br, t.Channels); err != nil {
			return fmt.Errorf("rcs2 curve %d: %w", i, err)
		}
	}
	return nil
}

func (c *ResponseCurve) read(r *iccio.Reader, channels int) (err error) {
	u, err := r.Read32()
	if err != nil {
		return err
	}
	c.Unit = Signature(u)
	counts := make([]uint32, channels)
	if _, err = r.Read32s(counts); err != nil {
		return err
	}
	c.MaxColorant = make([]XYZNumber, channels)
	if err = read_xyz(r, c.MaxColorant); err != nil {
		return err
	}
	remaining, err := r.Size()
	if err != nil {
		return err
	}
	remaining -= r.Tell()
	c.Response = make([][]ResponseMeasurement, channels)
	raw := make([]uint32, 2)
	for ch, n := range counts {
		if int64(n)*8 > remaining {
			return fmt.Errorf("%d measurements for channel %d exceed tag size: %w", n, ch, ErrInvalidTag)
		}
		remaining -= int64(n) * 8
		c.Response[ch] = make([]ResponseMeasurement, n)
		for j := range c.Response[ch] {
			if _, err = r.Read32s(raw); err != nil {
				return err
			}
			c.Response[ch][j] = ResponseMeasurement{
				Device:      Float(raw[0]>>16) / 65535,
				Measurement: Float(iccio.S15Fixed16ToFloat(int32(raw[1]))),
			}
		}
	}
	return nil
}

func (c *ResponseCurve) write(w *iccio.Writer, channels int) error {
	if err := w.Write32(uint32(c.Unit)); err != nil {
		return err
	}
	counts := make([]uint32, channels)
	for ch := range min(channels, len(c.Response)) {
		counts[ch] = uint32(len(c.Response[ch]))
	}
	if _, err := w.Write32s(counts); err != nil {
		return err
	}
	maxc := make([]XYZNumber, channels)
	copy(maxc, c.MaxColorant)
	if err := write_xyz(w, maxc...); err != nil {
		return err
	}
	for ch := range min(channels, len(c.Response)) {
		for _, m := range c.Response[ch] {
			if _, err := w.Write32s([]uint32{
				uint32(iccio.FloatToU16(float64(m.Device))) << 16,
				uint32(iccio.FloatToS15Fixed16(float64(m.Measurement))),
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *ResponseCurveSetTag) Write(w *iccio.Writer) error {
	start := w.Tell()
	if err := write_header(w, ResponseCurveSet16TypeSignature); err != nil {
		return err
	}
	if _, err := w.Write16s([]uint16{uint16(t.Channels), uint16(len(t.Curves))}); err != nil {
		return err
	}
	table := w.Tell()
	offsets := make([]uint32, len(t.Curves))
	if _, err := w.Write32s(offsets); err != nil {
		return err
	}
	for i := range t.Curves {
		offsets[i] = uint32(w.Tell() - start)
		if err := t.Curves[i].write(w, t.Channels); err != nil {
			return err
		}
	}
	end := w.Tell()
	if _, err := w.Seek(table, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.Write32s(offsets); err != nil {
		return err
	}
	_, err := w.Seek(end, io.SeekStart)
	return err
}

func (t *ResponseCurveSetTag) Describe(sb *strings.Builder) {
	fmt.Fprintf(sb, "Number of Channels: %d\n", t.Channels)
	fmt.Fprintf(sb, "Number of Measurement Types used: %d\n", len(t.Curves))
	for i, c := range t.Curves {
		fmt.Fprintf(sb, "\nResponse Curve %d\nMeasurement Unit: %s\n", i+1, IfElse(measurement_unit_name(c.Unit) == "", c.Unit.String(), measurement_unit_name(c.Unit)))
		for ch, resp := range c.Response {
			mc := XYZNumber{}
			if ch < len(c.MaxColorant) {
				mc = c.MaxColorant[ch]
			}
			fmt.Fprintf(sb, "Channel %d Maximum Colorant: X=%.4f, Y=%.4f, Z=%.4f\n", ch+1, mc.X, mc.Y, mc.Z)
			sb.WriteString("Device  Measurement\n")
			for _, m := range resp {
				fmt.Fprintf(sb, "%6.2f  %.4f\n", m.Device*100, m.Measurement)
			}
		}
	}
}

func (t *ResponseCurveSetTag) Validate(sig Signature, rep *Report, p *Profile) Severity {
	rv := t.validate_reserved(sig, rep)
	if p != nil {
		if n := SpaceSamples(p.Header.ColorSpace); n > 0 && n != t.Channels {
			rv = max(rv, rep.Add(ValidateCriticalError, sig, "Incorrect number of channels."))
		}
	}
	if len(t.Curves) == 0 {
		rv = max(rv, rep.Add(ValidateNonCompliant, sig, "No response curves present."))
	}
	for _, c := range t.Curves {
		if measurement_unit_name(c.Unit) == "" {
			rv = max(rv, rep.Add(ValidateNonCompliant, sig, "Unknown measurement unit %s.", c.Unit))
		}
		for ch, resp := range c.Response {
			for j := 1; j < len(resp); j++ {
				if resp[j].Device < resp[j-1].Device {
					rv = max(rv, rep.Add(ValidateWarning, sig, "Device values of channel %d are not increasing.", ch+1))
					break
				}
			}
		}
		for _, m := range c.MaxColorant {
			if m.X < 0 || m.Y < 0 || m.Z < 0 {
				rv = max(rv, rep.Add(ValidateNonCompliant, sig, "Negative maximum colorant XYZ value."))
				break
			}
		}
	}
	return rv
}

func (t *ResponseCurveSetTag) Clone() Tag {
	ans := *t
	ans.Curves = make([]ResponseCurve, len(t.Curves))
	for i, c := range t.Curves {
		ans.Curves[i] = ResponseCurve{Unit: c.Unit, MaxColorant: append([]XYZNumber(nil), c.MaxColorant...), Response: make([][]ResponseMeasurement, len(c.Response))}
		for ch, resp := range c.Response {
			ans.Curves[i].Response[ch] = append([]ResponseMeasurement(nil), resp...)
		}
	}
	return &ans
}
