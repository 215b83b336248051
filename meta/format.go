package meta

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

var _ = fmt.Print

// Format is an image file format.
type Format int

const (
	UNKNOWN Format = iota
	JPEG
	PNG
	TIFF
	WEBP
	BMP
)

var FormatExts = map[string]Format{
	"jpg":  JPEG,
	"jpeg": JPEG,
	"png":  PNG,
	"tif":  TIFF,
	"tiff": TIFF,
	"webp": WEBP,
	"bmp":  BMP,
}

var format_names = map[Format]string{
	JPEG: "JPEG",
	PNG:  "PNG",
	TIFF: "TIFF",
	WEBP: "WEBP",
	BMP:  "BMP",
}

func (f Format) String() string {
	if ans, ok := format_names[f]; ok {
		return ans
	}
	return "UNKNOWN"
}

// FormatFromFilename guesses the format from the file extension.
func FormatFromFilename(name string) Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return FormatExts[ext]
}

var png_signature = []byte{137, 80, 78, 71, 13, 10, 26, 10}

// DetectFormat identifies an image format from the first bytes of a file,
// at least 12 are needed.
func DetectFormat(header []byte) Format {
	switch {
	case bytes.HasPrefix(header, png_signature):
		return PNG
	case bytes.HasPrefix(header, []byte{0xff, 0xd8}):
		return JPEG
	case bytes.HasPrefix(header, []byte("II*\x00")), bytes.HasPrefix(header, []byte("MM\x00*")):
		return TIFF
	case len(header) >= 12 && string(header[:4]) == "RIFF" && string(header[8:12]) == "WEBP":
		return WEBP
	case bytes.HasPrefix(header, []byte("BM")):
		return BMP
	}
	return UNKNOWN
}
