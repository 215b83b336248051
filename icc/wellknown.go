package icc

import (
	"fmt"
)

type WellKnownProfile int

const (
	UnknownProfile WellKnownProfile = iota
	SRGBProfile
	AdobeRGBProfile
	PhotoProProfile
	DisplayP3Profile
)

func WellKnownProfileFromDescription(x string) WellKnownProfile {
	switch x {
	case "sRGB IEC61966-2.1", "sRGB_ICC_v4_Appearance.icc", "sRGB":
		return SRGBProfile
	case "Adobe RGB (1998)":
		return AdobeRGBProfile
	case "Display P3":
		return DisplayP3Profile
	case "ProPhoto RGB":
		return PhotoProProfile
	default:
		return UnknownProfile
	}
}

func (p WellKnownProfile) String() string {
	switch p {
	case SRGBProfile:
		return "sRGB IEC61966-2.1"
	case AdobeRGBProfile:
		return "Adobe RGB (1998)"
	case PhotoProProfile:
		return "ProPhoto RGB"
	case DisplayP3Profile:
		return "Display P3"
	default:
		return "Unknown Profile"
	}
}

// Chromaticity is a CIE xy coordinate.
type Chromaticity struct{ X, Y Float }

func (c Chromaticity) XYZ() XYZNumber {
	return XYZNumber{c.X / c.Y, 1, (1 - c.X - c.Y) / c.Y}
}

// Primaries describe an RGB color space by the chromaticities of its
// primaries and white point.
type Primaries struct {
	Red, Green, Blue, White Chromaticity
}

var (
	d65        = Chromaticity{0.3127, 0.3290}
	d50_xy     = Chromaticity{0.3457, 0.3585}
	srgb_prims = Primaries{Chromaticity{0.64, 0.33}, Chromaticity{0.30, 0.60}, Chromaticity{0.15, 0.06}, d65}
)

func srgb_trc() Curve {
	return NewParametricCurveTag(3, 2.4, 1/1.055, 0.055/1.055, 1/12.92, 0.04045)
}

// Primaries returns the primaries of the profile and its tone curve.
func (p WellKnownProfile) Primaries() (Primaries, Curve, error) {
	switch p {
	case SRGBProfile:
		return srgb_prims, srgb_trc(), nil
	case AdobeRGBProfile:
		return Primaries{Chromaticity{0.64, 0.33}, Chromaticity{0.21, 0.71}, Chromaticity{0.15, 0.06}, d65}, NewParametricCurveTag(0, 563.0/256), nil
	case PhotoProProfile:
		return Primaries{Chromaticity{0.7347, 0.2653}, Chromaticity{0.1596, 0.8404}, Chromaticity{0.0366, 0.0001}, d50_xy}, NewParametricCurveTag(0, 1.8), nil
	case DisplayP3Profile:
		return Primaries{Chromaticity{0.680, 0.320}, Chromaticity{0.265, 0.690}, Chromaticity{0.150, 0.060}, d65}, srgb_trc(), nil
	}
	return Primaries{}, nil, fmt.Errorf("no primaries known for %s", p)
}

// NewProfile builds a version 4 matrix/TRC display profile for p.
func (p WellKnownProfile) NewProfile() (*Profile, error) {
	prims, trc, err := p.Primaries()
	if err != nil {
		return nil, err
	}
	return NewMatrixTRCProfile(p.String(), prims, trc)
}

// ColorantMatrix returns the matrix mapping linear RGB to D50 adapted XYZ,
// its columns are the colorant tag values.
func (pr Primaries) ColorantMatrix() (Matrix3, error) {
	r, g, b, w := pr.Red.XYZ(), pr.Green.XYZ(), pr.Blue.XYZ(), pr.White.XYZ()
	m := Matrix3{{r.X, g.X, b.X}, {r.Y, g.Y, b.Y}, {r.Z, g.Z, b.Z}}
	inv, err := m.Inverted()
	if err != nil {
		return Matrix3{}, err
	}
	sr, sg, sb := inv.Transform(w.X, w.Y, w.Z)
	for i := range 3 {
		m[i][0] *= sr
		m[i][1] *= sg
		m[i][2] *= sb
	}
	chad, err := AdaptationMatrix(w, D50)
	if err != nil {
		return Matrix3{}, err
	}
	return chad.Multiply(m), nil
}

// NewMatrixTRCProfile builds a version 4 RGB display profile with an XYZ
// PCS. The same tone curve is shared by all three channels.
func NewMatrixTRCProfile(description string, pr Primaries, trc Curve) (*Profile, error) {
	m, err := pr.ColorantMatrix()
	if err != nil {
		return nil, err
	}
	chad, err := AdaptationMatrix(pr.White.XYZ(), D50)
	if err != nil {
		return nil, err
	}
	p := NewProfile(DisplayClass, RgbData, XYZData)
	p.AttachTag(ProfileDescriptionTagSignature, NewMultiLocalizedUnicodeTag("en", "US", description))
	p.AttachTag(CopyrightTagSignature, NewMultiLocalizedUnicodeTag("en", "US", "No copyright, use freely"))
	p.AttachTag(MediaWhitePointTagSignature, NewXYZTag(D50))
	cv := make([]Float, 0, 9)
	for _, row := range chad {
		cv = append(cv, row[:]...)
	}
	p.AttachTag(ChromaticAdaptationTagSignature, NewFixedNumArrayTag(S15Fixed16ArrayTypeSignature, cv...))
	for i, sig := range []Signature{RedColorantTagSignature, GreenColorantTagSignature, BlueColorantTagSignature} {
		p.AttachTag(sig, NewXYZTag(XYZNumber{m[0][i], m[1][i], m[2][i]}))
	}
	for _, sig := range []Signature{RedTRCTagSignature, GreenTRCTagSignature, BlueTRCTagSignature} {
		p.AttachTag(sig, trc)
	}
	return p, nil
}

// NewGrayProfile builds a version 4 monochrome display profile.
func NewGrayProfile(description string, pcs Signature, trc Curve) *Profile {
	p := NewProfile(DisplayClass, GrayData, pcs)
	p.AttachTag(ProfileDescriptionTagSignature, NewMultiLocalizedUnicodeTag("en", "US", description))
	p.AttachTag(CopyrightTagSignature, NewMultiLocalizedUnicodeTag("en", "US", "No copyright, use freely"))
	p.AttachTag(MediaWhitePointTagSignature, NewXYZTag(D50))
	p.AttachTag(GrayTRCTagSignature, trc)
	return p
}

// NewSRGBProfile builds the sRGB matrix/TRC profile.
func NewSRGBProfile() *Profile {
	p, err := SRGBProfile.NewProfile()
	if err != nil {
		panic(err)
	}
	p.Header.Manufacturer, p.Header.Model = IECManufacturerSignature, SRGBModelSignature
	return p
}

// WellKnownProfile identifies common RGB profiles from their description
// or header.
func (p *Profile) WellKnownProfile() WellKnownProfile {
	if model, ok := TagAs[Texter](p, DeviceModelDescriptionSignature); ok {
		switch model.Text() {
		case "IEC 61966-2-1 Default RGB Colour Space - sRGB":
			return SRGBProfile
		}
	}
	if ans := WellKnownProfileFromDescription(p.Description()); ans != UnknownProfile {
		return ans
	}
	switch p.Header.Manufacturer {
	case IECManufacturerSignature:
		switch p.Header.Model {
		case SRGBModelSignature:
			return SRGBProfile
		}
	case AdobeManufacturerSignature:
		switch p.Header.Model {
		case AdobeRGBModelSignature:
			return AdobeRGBProfile
		case PhotoProModelSignature:
			return PhotoProProfile
		}
	case AppleManufacturerSignature, AppleUpperManufacturerSignature:
		switch p.Header.Model {
		case DisplayP3ModelSignature:
			return DisplayP3Profile
		}
	}
	return UnknownProfile
}
