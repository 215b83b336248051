package meta

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	exif_tiff "github.com/rwcarlsen/goexif/tiff"
	"golang.org/x/image/tiff"
)

var _ = fmt.Print

// The TIFF tag holding an embedded ICC profile
const TIFFTagICCProfile = 34675

// BitsPerComponent guesses the sample depth of a color model.
func BitsPerComponent(m color.Model) uint32 {
	switch m {
	case color.RGBAModel, color.NRGBAModel, color.YCbCrModel, color.CMYKModel, color.GrayModel, color.AlphaModel:
		return 8
	case color.Gray16Model, color.Alpha16Model, color.RGBA64Model, color.NRGBA64Model:
		return 16
	case nil:
		return 0
	}
	// paletted and custom models
	return 8
}

// ExtractTIFF reads the first image directory of a TIFF file. The whole
// stream is read since the directory can be anywhere in the file.
func ExtractTIFF(r io.Reader) (md *Data, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if DetectFormat(data) != TIFF {
		return nil, fmt.Errorf("not a TIFF file: %w", ErrUnrecognizedFormat)
	}
	c, err := tiff.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	md = &Data{Format: TIFF, PixelWidth: uint32(c.Width), PixelHeight: uint32(c.Height), BitsPerComponent: BitsPerComponent(c.ColorModel)}
	t, err := exif_tiff.Decode(bytes.NewReader(data))
	if err != nil {
		md.SetICCProfileError(err)
		return md, nil
	}
	if len(t.Dirs) > 0 {
		for _, tag := range t.Dirs[0].Tags {
			if tag.Id == TIFFTagICCProfile {
				md.SetICCProfileData(tag.Val)
				break
			}
		}
	}
	return md, nil
}
