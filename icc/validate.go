package icc

// allowed_types lists the tag types permitted for well known tag
// signatures.
var allowed_types = map[Signature][]Signature{
	AToB0TagSignature:               {Lut8TypeSignature, Lut16TypeSignature, LutAtoBTypeSignature},
	AToB1TagSignature:               {Lut8TypeSignature, Lut16TypeSignature, LutAtoBTypeSignature},
	AToB2TagSignature:               {Lut8TypeSignature, Lut16TypeSignature, LutAtoBTypeSignature},
	BToA0TagSignature:               {Lut8TypeSignature, Lut16TypeSignature, LutBtoATypeSignature},
	BToA1TagSignature:               {Lut8TypeSignature, Lut16TypeSignature, LutBtoATypeSignature},
	BToA2TagSignature:               {Lut8TypeSignature, Lut16TypeSignature, LutBtoATypeSignature},
	GamutTagSignature:               {Lut8TypeSignature, Lut16TypeSignature, LutBtoATypeSignature},
	Preview0TagSignature:            {Lut8TypeSignature, Lut16TypeSignature, LutAtoBTypeSignature, LutBtoATypeSignature},
	Preview1TagSignature:            {Lut8TypeSignature, Lut16TypeSignature, LutBtoATypeSignature},
	Preview2TagSignature:            {Lut8TypeSignature, Lut16TypeSignature, LutBtoATypeSignature},
	DToB0TagSignature:               {MultiProcessElementTypeSignature},
	DToB1TagSignature:               {MultiProcessElementTypeSignature},
	DToB2TagSignature:               {MultiProcessElementTypeSignature},
	DToB3TagSignature:               {MultiProcessElementTypeSignature},
	BToD0TagSignature:               {MultiProcessElementTypeSignature},
	BToD1TagSignature:               {MultiProcessElementTypeSignature},
	BToD2TagSignature:               {MultiProcessElementTypeSignature},
	BToD3TagSignature:               {MultiProcessElementTypeSignature},
	RedColorantTagSignature:         {XYZTypeSignature},
	GreenColorantTagSignature:       {XYZTypeSignature},
	BlueColorantTagSignature:        {XYZTypeSignature},
	MediaWhitePointTagSignature:     {XYZTypeSignature},
	MediaBlackPointTagSignature:     {XYZTypeSignature},
	LuminanceTagSignature:           {XYZTypeSignature},
	RedTRCTagSignature:              {CurveTypeSignature, ParametricCurveTypeSignature},
	GreenTRCTagSignature:            {CurveTypeSignature, ParametricCurveTypeSignature},
	BlueTRCTagSignature:             {CurveTypeSignature, ParametricCurveTypeSignature},
	GrayTRCTagSignature:             {CurveTypeSignature, ParametricCurveTypeSignature},
	CopyrightTagSignature:           {TextTypeSignature, MultiLocalisedUnicodeTypeSignature, Utf8TextTypeSignature, ZipUtf8TextTypeSignature},
	ProfileDescriptionTagSignature:  {TextDescriptionTypeSignature, MultiLocalisedUnicodeTypeSignature, Utf8TextTypeSignature},
	ChromaticAdaptationTagSignature: {S15Fixed16ArrayTypeSignature},
	ChromaticityTagSignature:        {ChromaticityTypeSignature},
	ColorantOrderTagSignature:       {ColorantOrderTypeSignature},
	ColorantTableTagSignature:       {ColorantTableTypeSignature},
	ColorantTableOutTagSignature:    {ColorantTableTypeSignature},
	MeasurementTagSignature:         {MeasurementTypeSignature},
	NamedColor2TagSignature:         {NamedColor2TypeSignature},
	TechnologyTagSignature:          {SignatureTypeSignature},
	ViewingConditionsTagSignature:   {ViewingConditionsTypeSignature},
	CalibrationDateTimeTagSignature: {DateTimeTypeSignature},
	OutputResponseTagSignature:      {ResponseCurveSet16TypeSignature},
	MetadataTagSignature:            {DictTypeSignature},
}

func is_type_allowed(sig, typ Signature) (known, ok bool) {
	types, known := allowed_types[sig]
	if !known {
		return false, true
	}
	for _, t := range types {
		if t == typ {
			return true, true
		}
	}
	return true, false
}

func (p *Profile) validate_header(rep *Report) Severity {
	h := &p.Header
	rv := ValidateOK
	if h.Magic != ProfileFileSignature {
		rv = max(rv, rep.Add(ValidateCriticalError, UnknownSignature, "Bad profile file signature %s.", h.Magic))
	}
	switch h.MajorVersion() {
	case 2, 4, 5:
	default:
		rv = max(rv, rep.Add(ValidateNonCompliant, UnknownSignature, "Unknown profile version %s.", h.VersionString()))
	}
	if !IsValidDeviceClass(h.Class) {
		rv = max(rv, rep.Add(ValidateCriticalError, UnknownSignature, "Unknown profile class %s.", h.Class))
	}
	if !IsValidColorSpace(h.ColorSpace) {
		rv = max(rv, rep.Add(ValidateCriticalError, UnknownSignature, "Unknown data color space %s.", h.ColorSpace))
	}
	switch h.Class {
	case LinkClass:
		if !IsValidColorSpace(h.PCS) {
			rv = max(rv, rep.Add(ValidateCriticalError, UnknownSignature, "Unknown output color space %s.", h.PCS))
		}
	default:
		if !IsSpacePCS(h.PCS) {
			rv = max(rv, rep.Add(ValidateCriticalError, UnknownSignature, "Invalid PCS %s.", h.PCS))
		}
	}
	if h.RenderingIntent > AbsoluteColorimetricRenderingIntent {
		rv = max(rv, rep.Add(ValidateNonCompliant, UnknownSignature, "Invalid rendering intent %d.", uint32(h.RenderingIntent)))
	}
	d := h.Illuminant
	if abs(d.X-D50.X) > 0.001 || abs(d.Y-D50.Y) > 0.001 || abs(d.Z-D50.Z) > 0.001 {
		rv = max(rv, rep.Add(ValidateNonCompliant, UnknownSignature, "Non D50 PCS illuminant X=%.4f Y=%.4f Z=%.4f.", d.X, d.Y, d.Z))
	}
	rv = max(rv, h.Date.validate(UnknownSignature, rep))
	if h.Reserved != [28]byte{} {
		rv = max(rv, rep.Add(ValidateNonCompliant, UnknownSignature, "Reserved header bytes are not zero."))
	}
	switch p.id_state {
	case id_invalid:
		rv = max(rv, rep.Add(ValidateWarning, UnknownSignature, "Profile ID does not match the profile contents."))
	case id_unchecked:
		if h.MajorVersion() >= 4 && !h.HasProfileID() {
			rep.Note("Profile ID not calculated.\n")
		}
	}
	return rv
}

func abs(x Float) Float { return IfElse(x < 0, -x, x) }

func (p *Profile) has_all(sigs ...Signature) bool {
	for _, s := range sigs {
		if !p.HasTag(s) {
			return false
		}
	}
	return true
}

func (p *Profile) require(rep *Report, sigs ...Signature) (rv Severity) {
	for _, s := range sigs {
		if !p.HasTag(s) {
			rv = max(rv, rep.Add(ValidateCriticalError, s, "Required tag %s is missing.", TagName(s)))
		}
	}
	return
}

func (p *Profile) has_matrix_trc() bool {
	return p.has_all(RedColorantTagSignature, GreenColorantTagSignature, BlueColorantTagSignature,
		RedTRCTagSignature, GreenTRCTagSignature, BlueTRCTagSignature)
}

func (p *Profile) validate_required_tags(rep *Report) Severity {
	h := &p.Header
	rv := p.require(rep, ProfileDescriptionTagSignature, CopyrightTagSignature)
	if h.Class != LinkClass {
		if h.MajorVersion() >= 4 {
			rv = max(rv, p.require(rep, MediaWhitePointTagSignature))
		}
		if wp := p.MediaWhitePoint(); wp != D50 && !p.HasTag(ChromaticAdaptationTagSignature) && h.MajorVersion() >= 4 {
			rv = max(rv, rep.Add(ValidateWarning, ChromaticAdaptationTagSignature, "Media white point is not D50 and there is no chromatic adaptation tag."))
		}
	}
	device_transform := func() Severity {
		switch {
		case p.HasTag(AToB0TagSignature), p.HasTag(DToB0TagSignature):
			return ValidateOK
		case h.ColorSpace == GrayData:
			return p.require(rep, GrayTRCTagSignature)
		case h.ColorSpace == RgbData && h.PCS == XYZData:
			if !p.has_matrix_trc() {
				return p.require(rep, RedColorantTagSignature, GreenColorantTagSignature, BlueColorantTagSignature,
					RedTRCTagSignature, GreenTRCTagSignature, BlueTRCTagSignature)
			}
			return ValidateOK
		}
		return p.require(rep, AToB0TagSignature)
	}
	switch h.Class {
	case InputClass, DisplayClass:
		rv = max(rv, device_transform())
	case OutputClass:
		if h.ColorSpace == GrayData && !p.HasTag(AToB0TagSignature) {
			rv = max(rv, p.require(rep, GrayTRCTagSignature))
		} else {
			rv = max(rv, p.require(rep, AToB0TagSignature, BToA0TagSignature, AToB1TagSignature, BToA1TagSignature,
				AToB2TagSignature, BToA2TagSignature, GamutTagSignature))
		}
	case LinkClass:
		rv = max(rv, p.require(rep, AToB0TagSignature, ProfileSequenceDescTagSignature))
	case AbstractClass:
		rv = max(rv, p.require(rep, AToB0TagSignature))
	case ColorSpaceClass:
		rv = max(rv, p.require(rep, AToB0TagSignature, BToA0TagSignature))
	case NamedColorClass:
		rv = max(rv, p.require(rep, NamedColor2TagSignature))
	}
	return rv
}

// Validate checks the profile against the ICC rules and returns the report
// and the worst severity found. Tags that cannot be read are reported as
// critical errors.
func (p *Profile) Validate() (*Report, Severity) {
	rep := &Report{}
	rv := p.validate_header(rep)
	if !p.AreTagsUnique() {
		rv = max(rv, rep.Add(ValidateCriticalError, UnknownSignature, "Duplicate tags present in the tag directory."))
	}
	rv = max(rv, p.validate_required_tags(rep))
	for _, e := range p.Entries() {
		t, err := p.FindTag(e.Sig)
		if err != nil {
			rv = max(rv, rep.Add(ValidateCriticalError, e.Sig, "Tag cannot be read: %s", err))
			continue
		}
		if known, ok := is_type_allowed(e.Sig, t.Type()); known && !ok {
			rv = max(rv, rep.Add(ValidateNonCompliant, e.Sig, "Invalid tag type %s.", t.Type()))
		}
		if e.Offset%4 != 0 {
			rv = max(rv, rep.Add(ValidateNonCompliant, e.Sig, "Tag offset %d is not four byte aligned.", e.Offset))
		}
		rv = max(rv, t.Validate(e.Sig, rep, p))
	}
	if rv == ValidateOK {
		rep.Note("Profile is valid.\n")
	}
	return rep, rv
}
