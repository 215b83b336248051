package icc

import (
	"sync"
)

// TagFactory creates empty tags for the type signatures it knows about.
// NewTag returns nil for types the factory does not handle.
type TagFactory interface {
	NewTag(typ Signature) Tag
	TypeName(typ Signature) string
}

// TagFactoryFunc adapts a constructor function to a TagFactory. Such
// factories report no type names.
type TagFactoryFunc func(typ Signature) Tag

func (f TagFactoryFunc) NewTag(typ Signature) Tag       { return f(typ) }
func (f TagFactoryFunc) TypeName(typ Signature) string { return "" }

type builtin_factory struct{}

func (builtin_factory) NewTag(typ Signature) Tag {
	switch typ {
	case TextTypeSignature:
		return &TextTag{}
	case TextDescriptionTypeSignature:
		return &TextDescriptionTag{}
	case MultiLocalisedUnicodeTypeSignature:
		return &MultiLocalizedUnicodeTag{}
	case Utf8TextTypeSignature:
		return &Utf8Tag{}
	case ZipUtf8TextTypeSignature:
		return &ZipUtf8Tag{}
	case SignatureTypeSignature:
		return &SignatureTag{}
	case DateTimeTypeSignature:
		return &DateTimeTag{}
	case DataTypeSignature:
		return &DataTag{}
	case XYZTypeSignature:
		return &XYZTag{}
	case ChromaticityTypeSignature:
		return &ChromaticityTag{}
	case MeasurementTypeSignature:
		return &MeasurementTag{}
	case ViewingConditionsTypeSignature:
		return &ViewingConditionsTag{}
	case S15Fixed16ArrayTypeSignature, U16Fixed16ArrayTypeSignature:
		return NewFixedNumArrayTag[Float](typ)
	case UInt8ArrayTypeSignature:
		return NewNumArrayTag[uint8](typ)
	case UInt16ArrayTypeSignature:
		return NewNumArrayTag[uint16](typ)
	case UInt32ArrayTypeSignature:
		return NewNumArrayTag[uint32](typ)
	case UInt64ArrayTypeSignature:
		return NewNumArrayTag[uint64](typ)
	case CurveTypeSignature:
		return &CurveTag{}
	case ParametricCurveTypeSignature:
		return &ParametricCurveTag{}
	case Lut8TypeSignature:
		return &Lut8Tag{}
	case Lut16TypeSignature:
		return &Lut16Tag{}
	case LutAtoBTypeSignature:
		return &LutAtoBTag{}
	case LutBtoATypeSignature:
		return &LutBtoATag{}
	case MultiProcessElementTypeSignature:
		return &MultiProcessElementTag{}
	case NamedColor2TypeSignature:
		return &NamedColor2Tag{}
	case ColorantTableTypeSignature:
		return &ColorantTableTag{}
	case ColorantOrderTypeSignature:
		return &ColorantOrderTag{}
	case DictTypeSignature:
		return &DictTag{}
	case ResponseCurveSet16TypeSignature:
		return &ResponseCurveSetTag{}
	}
	return nil
}

var type_names = map[Signature]string{
	TextTypeSignature:                  "textType",
	TextDescriptionTypeSignature:       "textDescriptionType",
	MultiLocalisedUnicodeTypeSignature: "multiLocalizedUnicodeType",
	Utf8TextTypeSignature:              "utf8Type",
	ZipUtf8TextTypeSignature:           "zipUtf8Type",
	SignatureTypeSignature:             "signatureType",
	DateTimeTypeSignature:              "dateTimeType",
	DataTypeSignature:                  "dataType",
	XYZTypeSignature:                   "XYZType",
	ChromaticityTypeSignature:          "chromaticityType",
	MeasurementTypeSignature:           "measurementType",
	ViewingConditionsTypeSignature:     "viewingConditionsType",
	S15Fixed16ArrayTypeSignature:       "s15Fixed16ArrayType",
	U16Fixed16ArrayTypeSignature:       "u16Fixed16ArrayType",
	UInt8ArrayTypeSignature:            "uInt8ArrayType",
	UInt16ArrayTypeSignature:           "uInt16ArrayType",
	UInt32ArrayTypeSignature:           "uInt32ArrayType",
	UInt64ArrayTypeSignature:           "uInt64ArrayType",
	CurveTypeSignature:                 "curveType",
	ParametricCurveTypeSignature:       "parametricCurveType",
	Lut8TypeSignature:                  "lut8Type",
	Lut16TypeSignature:                 "lut16Type",
	LutAtoBTypeSignature:               "lutAtoBType",
	LutBtoATypeSignature:               "lutBtoAType",
	MultiProcessElementTypeSignature:   "multiProcessElementType",
	NamedColor2TypeSignature:           "namedColor2Type",
	ColorantTableTypeSignature:         "colorantTableType",
	ColorantOrderTypeSignature:         "colorantOrderType",
	DictTypeSignature:                  "dictType",
	ResponseCurveSet16TypeSignature:    "responseCurveSet16Type",
}

func (builtin_factory) TypeName(typ Signature) string { return type_names[typ] }

var tag_names = map[Signature]string{
	AToB0TagSignature:                        "AToB0Tag",
	AToB1TagSignature:                        "AToB1Tag",
	AToB2TagSignature:                        "AToB2Tag",
	BToA0TagSignature:                        "BToA0Tag",
	BToA1TagSignature:                        "BToA1Tag",
	BToA2TagSignature:                        "BToA2Tag",
	DToB0TagSignature:                        "DToB0Tag",
	DToB1TagSignature:                        "DToB1Tag",
	DToB2TagSignature:                        "DToB2Tag",
	DToB3TagSignature:                        "DToB3Tag",
	BToD0TagSignature:                        "BToD0Tag",
	BToD1TagSignature:                        "BToD1Tag",
	BToD2TagSignature:                        "BToD2Tag",
	BToD3TagSignature:                        "BToD3Tag",
	GamutTagSignature:                        "gamutTag",
	Preview0TagSignature:                     "preview0Tag",
	Preview1TagSignature:                     "preview1Tag",
	Preview2TagSignature:                     "preview2Tag",
	RedColorantTagSignature:                  "redColorantTag",
	GreenColorantTagSignature:                "greenColorantTag",
	BlueColorantTagSignature:                 "blueColorantTag",
	RedTRCTagSignature:                       "redTRCTag",
	GreenTRCTagSignature:                     "greenTRCTag",
	BlueTRCTagSignature:                      "blueTRCTag",
	GrayTRCTagSignature:                      "grayTRCTag",
	MediaWhitePointTagSignature:              "mediaWhitePointTag",
	MediaBlackPointTagSignature:              "mediaBlackPointTag",
	CopyrightTagSignature:                    "copyrightTag",
	ProfileDescriptionTagSignature:           "profileDescriptionTag",
	DeviceManufacturerDescriptionSignature:   "deviceMfgDescTag",
	DeviceModelDescriptionSignature:          "deviceModelDescTag",
	ChromaticAdaptationTagSignature:          "chromaticAdaptationTag",
	ChromaticityTagSignature:                 "chromaticityTag",
	CharTargetTagSignature:                   "charTargetTag",
	ColorantOrderTagSignature:                "colorantOrderTag",
	ColorantTableTagSignature:                "colorantTableTag",
	ColorantTableOutTagSignature:             "colorantTableOutTag",
	MeasurementTagSignature:                  "measurementTag",
	NamedColor2TagSignature:                  "namedColor2Tag",
	TechnologyTagSignature:                   "technologyTag",
	ViewingCondDescTagSignature:              "viewingCondDescTag",
	ViewingConditionsTagSignature:            "viewingConditionsTag",
	CalibrationDateTimeTagSignature:          "calibrationDateTimeTag",
	ColorimetricIntentImageStateTagSignature: "colorimetricIntentImageStateTag",
	PerceptualRenderingIntentGamutSignature:  "perceptualRenderingIntentGamutTag",
	SaturationRenderingIntentGamutSignature:  "saturationRenderingIntentGamutTag",
	OutputResponseTagSignature:               "outputResponseTag",
	ProfileSequenceDescTagSignature:          "profileSequenceDescTag",
	ProfileSequenceIdentifierTagSignature:    "profileSequenceIdentifierTag",
	MetadataTagSignature:                     "metadataTag",
	LuminanceTagSignature:                    "luminanceTag",
}

// TagName returns the name of a tag signature or its hex rendering if it is
// not a known tag.
func TagName(sig Signature) string {
	if ans, ok := tag_names[sig]; ok {
		return ans
	}
	return sig.Hex()
}

// Registry is an ordered list of tag factories. The most recently pushed
// factory is consulted first, the built in factory is always at the
// bottom and tags no factory knows become UnknownTag.
type Registry struct {
	mu        sync.RWMutex
	factories []TagFactory
}

func NewRegistry(factories ...TagFactory) *Registry {
	ans := &Registry{factories: []TagFactory{builtin_factory{}}}
	ans.factories = append(ans.factories, factories...)
	return ans
}

var default_registry = sync.OnceValue(func() *Registry { return NewRegistry() })

// Push adds a factory that takes precedence over all existing ones.
func (r *Registry) Push(f TagFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = append(r.factories, f)
}

// Pop removes the most recently pushed factory. The built in factory is
// never removed, nil is returned when only it remains.
func (r *Registry) Pop() TagFactory {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.factories) < 2 {
		return nil
	}
	ans := r.factories[len(r.factories)-1]
	r.factories = r.factories[:len(r.factories)-1]
	return ans
}

// NewTag returns an empty tag of the given type ready for Read.
func (r *Registry) NewTag(typ Signature) Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.factories) - 1; i >= 0; i-- {
		if t := r.factories[i].NewTag(typ); t != nil {
			return t
		}
	}
	return NewUnknownTag(typ)
}

func (r *Registry) TypeName(typ Signature) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.factories) - 1; i >= 0; i-- {
		if n := r.factories[i].TypeName(typ); n != "" {
			return n
		}
	}
	return "Unknown tag type " + typ.Hex()
}
