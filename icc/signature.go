package icc

import (
	"fmt"
)

type Signature uint32

func sig4(s string) Signature {
	return Signature(uint32(s[0])<<24 | uint32(s[1])<<16 | uint32(s[2])<<8 | uint32(s[3]))
}

const (
	UnknownSignature     Signature = 0
	ProfileFileSignature Signature = 0x61637370 // 'acsp'
)

// Tag signatures
const (
	AToB0TagSignature                        Signature = 0x41324230 // 'A2B0'
	AToB1TagSignature                        Signature = 0x41324231 // 'A2B1'
	AToB2TagSignature                        Signature = 0x41324232 // 'A2B2'
	BToA0TagSignature                        Signature = 0x42324130 // 'B2A0'
	BToA1TagSignature                        Signature = 0x42324131 // 'B2A1'
	BToA2TagSignature                        Signature = 0x42324132 // 'B2A2'
	DToB0TagSignature                        Signature = 0x44324230 // 'D2B0'
	DToB1TagSignature                        Signature = 0x44324231 // 'D2B1'
	DToB2TagSignature                        Signature = 0x44324232 // 'D2B2'
	DToB3TagSignature                        Signature = 0x44324233 // 'D2B3'
	BToD0TagSignature                        Signature = 0x42324430 // 'B2D0'
	BToD1TagSignature                        Signature = 0x42324431 // 'B2D1'
	BToD2TagSignature                        Signature = 0x42324432 // 'B2D2'
	BToD3TagSignature                        Signature = 0x42324433 // 'B2D3'
	GamutTagSignature                        Signature = 0x67616D74 // 'gamt'
	Preview0TagSignature                     Signature = 0x70726530 // 'pre0'
	Preview1TagSignature                     Signature = 0x70726531 // 'pre1'
	Preview2TagSignature                     Signature = 0x70726532 // 'pre2'
	RedColorantTagSignature                  Signature = 0x7258595A // 'rXYZ'
	GreenColorantTagSignature                Signature = 0x6758595A // 'gXYZ'
	BlueColorantTagSignature                 Signature = 0x6258595A // 'bXYZ'
	RedTRCTagSignature                       Signature = 0x72545243 // 'rTRC'
	GreenTRCTagSignature                     Signature = 0x67545243 // 'gTRC'
	BlueTRCTagSignature                      Signature = 0x62545243 // 'bTRC'
	GrayTRCTagSignature                      Signature = 0x6B545243 // 'kTRC'
	MediaWhitePointTagSignature              Signature = 0x77747074 // 'wtpt'
	MediaBlackPointTagSignature              Signature = 0x626B7074 // 'bkpt'
	CopyrightTagSignature                    Signature = 0x63707274 // 'cprt'
	ProfileDescriptionTagSignature           Signature = 0x64657363 // 'desc'
	DeviceManufacturerDescriptionSignature   Signature = 0x646D6E64 // 'dmnd'
	DeviceModelDescriptionSignature          Signature = 0x646D6464 // 'dmdd'
	ChromaticAdaptationTagSignature          Signature = 0x63686164 // 'chad'
	ChromaticityTagSignature                 Signature = 0x6368726D // 'chrm'
	CharTargetTagSignature                   Signature = 0x74617267 // 'targ'
	ColorantOrderTagSignature                Signature = 0x636C726F // 'clro'
	ColorantTableTagSignature                Signature = 0x636C7274 // 'clrt'
	ColorantTableOutTagSignature             Signature = 0x636C6F74 // 'clot'
	MeasurementTagSignature                  Signature = 0x6D656173 // 'meas'
	NamedColor2TagSignature                  Signature = 0x6E636C32 // 'ncl2'
	TechnologyTagSignature                   Signature = 0x74656368 // 'tech'
	ViewingCondDescTagSignature              Signature = 0x76756564 // 'vued'
	ViewingConditionsTagSignature            Signature = 0x76696577 // 'view'
	CalibrationDateTimeTagSignature          Signature = 0x63616C74 // 'calt'
	ColorimetricIntentImageStateTagSignature Signature = 0x63696973 // 'ciis'
	PerceptualRenderingIntentGamutSignature  Signature = 0x72696730 // 'rig0'
	SaturationRenderingIntentGamutSignature  Signature = 0x72696732 // 'rig2'
	OutputResponseTagSignature               Signature = 0x72657370 // 'resp'
	ProfileSequenceDescTagSignature          Signature = 0x70736571 // 'pseq'
	ProfileSequenceIdentifierTagSignature    Signature = 0x70736964 // 'psid'
	MetadataTagSignature                     Signature = 0x6D657461 // 'meta'
	LuminanceTagSignature                    Signature = 0x6C756D69 // 'lumi'
)

// Tag type signatures
const (
	TextTypeSignature                   Signature = 0x74657874 // 'text'
	TextDescriptionTypeSignature        Signature = 0x64657363 // 'desc'
	MultiLocalisedUnicodeTypeSignature  Signature = 0x6D6C7563 // 'mluc'
	Utf8TextTypeSignature               Signature = 0x75746638 // 'utf8'
	ZipUtf8TextTypeSignature            Signature = 0x7A757438 // 'zut8'
	SignatureTypeSignature              Signature = 0x73696720 // 'sig '
	DateTimeTypeSignature               Signature = 0x6474696D // 'dtim'
	DataTypeSignature                   Signature = 0x64617461 // 'data'
	XYZTypeSignature                    Signature = 0x58595A20 // 'XYZ '
	ChromaticityTypeSignature           Signature = 0x6368726D // 'chrm'
	MeasurementTypeSignature            Signature = 0x6D656173 // 'meas'
	ViewingConditionsTypeSignature      Signature = 0x76696577 // 'view'
	S15Fixed16ArrayTypeSignature        Signature = 0x73663332 // 'sf32'
	U16Fixed16ArrayTypeSignature        Signature = 0x75663332 // 'uf32'
	UInt8ArrayTypeSignature             Signature = 0x75693038 // 'ui08'
	UInt16ArrayTypeSignature            Signature = 0x75693136 // 'ui16'
	UInt32ArrayTypeSignature            Signature = 0x75693332 // 'ui32'
	UInt64ArrayTypeSignature            Signature = 0x75693634 // 'ui64'
	CurveTypeSignature                  Signature = 0x63757276 // 'curv'
	ParametricCurveTypeSignature        Signature = 0x70617261 // 'para'
	Lut8TypeSignature                   Signature = 0x6D667431 // 'mft1'
	Lut16TypeSignature                  Signature = 0x6D667432 // 'mft2'
	LutAtoBTypeSignature                Signature = 0x6D414220 // 'mAB '
	LutBtoATypeSignature                Signature = 0x6D424120 // 'mBA '
	MultiProcessElementTypeSignature    Signature = 0x6D706574 // 'mpet'
	NamedColor2TypeSignature            Signature = 0x6E636C32 // 'ncl2'
	ColorantTableTypeSignature          Signature = 0x636C7274 // 'clrt'
	ColorantOrderTypeSignature          Signature = 0x636C726F // 'clro'
	DictTypeSignature                   Signature = 0x64696374 // 'dict'
	ResponseCurveSet16TypeSignature     Signature = 0x72637332 // 'rcs2'
	CurveSetElemTypeSignature           Signature = 0x63767374 // 'cvst'
	MatrixElemTypeSignature             Signature = 0x6D617466 // 'matf'
	CLutElemTypeSignature               Signature = 0x636C7574 // 'clut'
	BAcsElemTypeSignature               Signature = 0x62414353 // 'bACS'
	EAcsElemTypeSignature               Signature = 0x65414353 // 'eACS'
	SegmentedCurveTypeSignature         Signature = 0x63757266 // 'curf'
	FormulaCurveSegmentTypeSignature    Signature = 0x70617266 // 'parf'
	SampledCurveSegmentTypeSignature    Signature = 0x73616D66 // 'samf'
	UnknownTagTypeSignature             Signature = 0x3F3F3F3F // '????'
)

// Colour space signatures
const (
	XYZData     Signature = 0x58595A20 // 'XYZ '
	LabData     Signature = 0x4C616220 // 'Lab '
	LuvData     Signature = 0x4C757620 // 'Luv '
	YCbCrData   Signature = 0x59436272 // 'YCbr'
	YxyData     Signature = 0x59787920 // 'Yxy '
	RgbData     Signature = 0x52474220 // 'RGB '
	GrayData    Signature = 0x47524159 // 'GRAY'
	HsvData     Signature = 0x48535620 // 'HSV '
	HlsData     Signature = 0x484C5320 // 'HLS '
	CmykData    Signature = 0x434D594B // 'CMYK'
	CmyData     Signature = 0x434D5920 // 'CMY '
	Color2Data  Signature = 0x32434C52 // '2CLR'
	Color3Data  Signature = 0x33434C52 // '3CLR'
	Color4Data  Signature = 0x34434C52 // '4CLR'
	Color5Data  Signature = 0x35434C52 // '5CLR'
	Color6Data  Signature = 0x36434C52 // '6CLR'
	Color7Data  Signature = 0x37434C52 // '7CLR'
	Color8Data  Signature = 0x38434C52 // '8CLR'
	Color9Data  Signature = 0x39434C52 // '9CLR'
	Color10Data Signature = 0x41434C52 // 'ACLR'
	Color11Data Signature = 0x42434C52 // 'BCLR'
	Color12Data Signature = 0x43434C52 // 'CCLR'
	Color13Data Signature = 0x44434C52 // 'DCLR'
	Color14Data Signature = 0x45434C52 // 'ECLR'
	Color15Data Signature = 0x46434C52 // 'FCLR'
	Mch1Data    Signature = 0x4D434831 // 'MCH1'
	MchFData    Signature = 0x4D434846 // 'MCHF'
	NamedData   Signature = 0x6E6D636C // 'nmcl'
	GamutData   Signature = 0x67616D74 // 'gamt'
	UnknownData Signature = 0x3F3F3F3F // '????'
)

// Profile device classes
const (
	InputClass      Signature = 0x73636E72 // 'scnr'
	DisplayClass    Signature = 0x6D6E7472 // 'mntr'
	OutputClass     Signature = 0x70727472 // 'prtr'
	LinkClass       Signature = 0x6C696E6B // 'link'
	AbstractClass   Signature = 0x61627374 // 'abst'
	ColorSpaceClass Signature = 0x73706163 // 'spac'
	NamedColorClass Signature = 0x6E6D636C // 'nmcl'
)

// Manufacturers and models used to recognize well known profiles
const (
	AdobeManufacturerSignature      Signature = 0x41444245 // 'ADBE'
	AppleManufacturerSignature      Signature = 0x6170706c // 'appl'
	AppleUpperManufacturerSignature Signature = 0x4150504c // 'APPL'
	IECManufacturerSignature        Signature = 0x49454320 // 'IEC '

	AdobeRGBModelSignature  Signature = 0x52474220 // 'RGB '
	SRGBModelSignature      Signature = 0x73524742 // 'sRGB'
	PhotoProModelSignature  Signature = 0x50525452 // 'PTPR'
	DisplayP3ModelSignature Signature = 0x70332020 // 'p3  '
)

type RenderingIntent uint32

const (
	PerceptualRenderingIntent           RenderingIntent = 0
	RelativeColorimetricRenderingIntent RenderingIntent = 1
	SaturationRenderingIntent           RenderingIntent = 2
	AbsoluteColorimetricRenderingIntent RenderingIntent = 3
	UnknownRenderingIntent              RenderingIntent = 0x3f3f3f3f
)

func (ri RenderingIntent) String() string {
	switch ri {
	case PerceptualRenderingIntent:
		return "Perceptual"
	case RelativeColorimetricRenderingIntent:
		return "Relative"
	case SaturationRenderingIntent:
		return "Saturation"
	case AbsoluteColorimetricRenderingIntent:
		return "Absolute"
	case UnknownRenderingIntent:
		return "Unknown"
	default:
		return fmt.Sprintf("Unknown (%d)", uint32(ri))
	}
}

func maskNull(b byte) byte {
	switch b {
	case 0:
		return ' '
	default:
		return b
	}
}

func (s Signature) String() string {
	v := []byte{
		(maskNull(byte((s >> 24) & 0xff))),
		(maskNull(byte((s >> 16) & 0xff))),
		(maskNull(byte((s >> 8) & 0xff))),
		(maskNull(byte(s & 0xff))),
	}
	return "'" + string(v) + "'"
}

// Hex renders a signature the way reports show them, e.g. 'desc' = 64657363
func (s Signature) Hex() string {
	return fmt.Sprintf("%s = %08X", s.String(), uint32(s))
}

// IsSpacePCS reports whether space is one of the profile connection spaces.
func IsSpacePCS(space Signature) bool {
	return space == XYZData || space == LabData
}

// IsCompatSpace reports whether data in space a may be fed to a stage
// expecting space b. The two PCS encodings are interchangeable since they are
// reconciled between stages.
func IsCompatSpace(a, b Signature) bool {
	return a == b || (IsSpacePCS(a) && IsSpacePCS(b))
}

// SpaceSamples returns the number of channels for a colour space, zero for
// unknown spaces.
func SpaceSamples(space Signature) int {
	switch space {
	case GrayData, GamutData:
		return 1
	case Color2Data:
		return 2
	case XYZData, LabData, LuvData, YCbCrData, YxyData, RgbData, HsvData, HlsData, CmyData, Color3Data:
		return 3
	case CmykData, Color4Data:
		return 4
	case NamedData:
		return 1
	}
	if space>>8 == Signature(0x4D4348) { // 'MCH?'
		return hex_digit(byte(space & 0xff))
	}
	if space&0x00FFFFFF == 0x00434C52 { // '?CLR'
		return hex_digit(byte(space >> 24))
	}
	return 0
}

func hex_digit(b byte) int {
	switch {
	case b >= '1' && b <= '9':
		return int(b - '0')
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	}
	return 0
}

// IsValidColorSpace reports whether space is a colour space signature defined for profile headers.
func IsValidColorSpace(space Signature) bool {
	return space != GamutData && space != NamedData && SpaceSamples(space) > 0
}

func IsValidDeviceClass(c Signature) bool {
	switch c {
	case InputClass, DisplayClass, OutputClass, LinkClass, AbstractClass, ColorSpaceClass, NamedColorClass:
		return true
	}
	return false
}

func DeviceClassName(c Signature) string {
	switch c {
	case InputClass:
		return "Input Device profile"
	case DisplayClass:
		return "Display Device profile"
	case OutputClass:
		return "Output Device profile"
	case LinkClass:
		return "DeviceLink profile"
	case AbstractClass:
		return "Abstract profile"
	case ColorSpaceClass:
		return "ColorSpace Conversion profile"
	case NamedColorClass:
		return "Named Color profile"
	}
	return "Unknown class " + c.String()
}
