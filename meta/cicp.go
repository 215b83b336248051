package meta

import (
	"fmt"

	"github.com/kovidgoyal/iccmm/icc"
)

var _ = fmt.Print

// CodingIndependentCodePoints are the ITU-T H.273 color description carried
// by the PNG cICP chunk.
type CodingIndependentCodePoints struct {
	ColorPrimaries, TransferCharacteristics, MatrixCoefficients, VideoFullRange uint8
}

func (c CodingIndependentCodePoints) IsSet() bool {
	return c != CodingIndependentCodePoints{}
}

// WellKnownProfile maps the code points to a profile that can be built
// without embedded data. Only full range RGB is recognized.
func (c CodingIndependentCodePoints) WellKnownProfile() icc.WellKnownProfile {
	if c.MatrixCoefficients != 0 || c.VideoFullRange != 1 {
		return icc.UnknownProfile
	}
	// 13 is the sRGB transfer function
	if c.TransferCharacteristics == 13 {
		switch c.ColorPrimaries {
		case 1:
			return icc.SRGBProfile
		case 12:
			return icc.DisplayP3Profile
		}
	}
	return icc.UnknownProfile
}
