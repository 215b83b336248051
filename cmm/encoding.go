package cmm

import (
	"fmt"
	"math"

	"github.com/kovidgoyal/iccmm/icc"
)

var _ = fmt.Print

// Encoding is a numeric representation of pixel values outside the Cmm.
type Encoding int

const (
	// EncodeValue is the natural range: Lab L in [0, 100] and a, b in
	// [-128, 127], XYZ with Y=1 for white, device values in [0, 1].
	EncodeValue Encoding = iota
	// EncodePercent is [0, 100] for device values and XYZ. For Lab it is the
	// same as EncodeValue.
	EncodePercent
	// EncodeUnitFloat is the internal encoding, clipped to [0, 1].
	EncodeUnitFloat
	// EncodeFloat is the internal encoding, unclipped.
	EncodeFloat
	Encode8Bit
	Encode16Bit
	// Encode16BitV2 is Encode16Bit except that Lab uses the version 2
	// encoding where 0xff00 is L=100.
	Encode16BitV2
)

func (e Encoding) String() string {
	switch e {
	case EncodeValue:
		return "value"
	case EncodePercent:
		return "percent"
	case EncodeUnitFloat:
		return "unit float"
	case EncodeFloat:
		return "float"
	case Encode8Bit:
		return "8 bit"
	case Encode16Bit:
		return "16 bit"
	case Encode16BitV2:
		return "16 bit version 2"
	}
	return fmt.Sprintf("Encoding(%d)", int(e))
}

func check_encoding_args(space icc.Signature, a, b []Float) (int, error) {
	n := icc.SpaceSamples(space)
	if n == 0 || space == icc.NamedData {
		return 0, wrap(StatusBadColorEncoding, "no numeric encoding for %s", space)
	}
	if len(a) < n || len(b) < n {
		return 0, wrap(StatusIncorrectApply, "%s needs %d values", space, n)
	}
	return n, nil
}

func scale(p []Float, f Float) {
	for i := range p {
		p[i] *= f
	}
}

func clip_all(p []Float) {
	for i, v := range p {
		p[i] = icc.UnitClip(v)
	}
}

func quantize(p []Float, max_val Float) {
	for i, v := range p {
		p[i] = Float(math.Floor(float64(icc.UnitClip(v)*max_val) + 0.5))
	}
}

// ToInternalEncoding converts the pixel data in space, encoded as enc, to
// the internal encoding. internal may be data.
func ToInternalEncoding(space icc.Signature, enc Encoding, internal, data []Float, clip bool) error {
	n, err := check_encoding_args(space, internal, data)
	if err != nil {
		return err
	}
	p := internal[:n]
	copy(p, data[:n])
	switch space {
	case icc.LabData:
		switch enc {
		case EncodeValue, EncodePercent:
			icc.LabToPcs(p)
		case EncodeUnitFloat:
			clip = true
		case EncodeFloat:
		case Encode8Bit:
			scale(p, 1.0/255)
		case Encode16Bit:
			scale(p, 1.0/65535)
		case Encode16BitV2:
			scale(p, 1.0/65535)
			icc.Lab2ToLab4(p)
		default:
			return wrap(StatusBadColorEncoding, "%s", enc)
		}
	case icc.XYZData:
		switch enc {
		case EncodeValue:
			icc.XyzToPcs(p)
		case EncodePercent:
			scale(p, 1.0/100)
			icc.XyzToPcs(p)
		case EncodeUnitFloat:
			clip = true
		case EncodeFloat:
		case Encode16Bit, Encode16BitV2:
			// u1Fixed15 code/32768 in units of the internal range
			scale(p, 1.0/65535)
		default:
			return wrap(StatusBadColorEncoding, "%s for XYZ", enc)
		}
	default:
		switch enc {
		case EncodeValue, EncodeFloat:
		case EncodeUnitFloat:
			clip = true
		case EncodePercent:
			scale(p, 1.0/100)
		case Encode8Bit:
			scale(p, 1.0/255)
		case Encode16Bit, Encode16BitV2:
			scale(p, 1.0/65535)
		default:
			return wrap(StatusBadColorEncoding, "%s", enc)
		}
	}
	if clip {
		clip_all(p)
	}
	return nil
}

// FromInternalEncoding converts internally encoded pixel values in space to
// enc. Integer encodings are rounded and always clipped. data may be
// internal.
func FromInternalEncoding(space icc.Signature, enc Encoding, data, internal []Float, clip bool) error {
	n, err := check_encoding_args(space, data, internal)
	if err != nil {
		return err
	}
	p := data[:n]
	copy(p, internal[:n])
	if clip || enc == EncodeUnitFloat {
		clip_all(p)
	}
	switch space {
	case icc.LabData:
		switch enc {
		case EncodeValue, EncodePercent:
			icc.LabFromPcs(p)
		case EncodeUnitFloat, EncodeFloat:
		case Encode8Bit:
			quantize(p, 255)
		case Encode16Bit:
			quantize(p, 65535)
		case Encode16BitV2:
			icc.Lab4ToLab2(p)
			quantize(p, 65535)
		default:
			return wrap(StatusBadColorEncoding, "%s", enc)
		}
	case icc.XYZData:
		switch enc {
		case EncodeValue:
			icc.XyzFromPcs(p)
		case EncodePercent:
			icc.XyzFromPcs(p)
			scale(p, 100)
		case EncodeUnitFloat, EncodeFloat:
		case Encode16Bit, Encode16BitV2:
			quantize(p, 65535)
		default:
			return wrap(StatusBadColorEncoding, "%s for XYZ", enc)
		}
	default:
		switch enc {
		case EncodeValue, EncodeFloat, EncodeUnitFloat:
		case EncodePercent:
			scale(p, 100)
		case Encode8Bit:
			quantize(p, 255)
		case Encode16Bit, Encode16BitV2:
			quantize(p, 65535)
		default:
			return wrap(StatusBadColorEncoding, "%s", enc)
		}
	}
	return nil
}
