package meta

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/image/bmp"
)

var _ = fmt.Print

var ErrUnrecognizedFormat = errors.New("unrecognized image format")
var ErrCorruptMetadata = errors.New("corrupt image metadata")

func extract_bmp(r io.Reader) (*Data, error) {
	c, err := bmp.DecodeConfig(r)
	if err != nil {
		return nil, err
	}
	return &Data{Format: BMP, PixelWidth: uint32(c.Width), PixelHeight: uint32(c.Height), BitsPerComponent: BitsPerComponent(c.ColorModel)}, nil
}

var extractors = map[Format]func(io.Reader) (*Data, error){
	PNG:  ExtractPNG,
	JPEG: ExtractJPEG,
	TIFF: ExtractTIFF,
	WEBP: ExtractWebP,
	BMP:  extract_bmp,
}

func load_with_seekable(r io.Reader, callback func(*bufio.Reader) error) (stream io.Reader, err error) {
	if s, ok := r.(io.ReadSeeker); ok {
		pos, serr := s.Seek(0, io.SeekCurrent)
		if serr == nil {
			defer func() {
				if _, serr := s.Seek(pos, io.SeekStart); err == nil {
					err = serr
				}
			}()
			return s, callback(bufio.NewReader(s))
		}
	}
	rewind := &bytes.Buffer{}
	err = callback(bufio.NewReader(io.TeeReader(r, rewind)))
	return io.MultiReader(rewind, r), err
}

// Load extracts the metadata of an image stream in one of the supported
// formats. Only as much of the stream as needed is consumed, the returned
// stream yields the complete image data, for decoding the image afterwards.
// Embedded profiles are not parsed until Data.ICCProfile is called.
func Load(r io.Reader) (md *Data, img_stream io.Reader, err error) {
	img_stream, err = load_with_seekable(r, func(br *bufio.Reader) error {
		header, _ := br.Peek(12)
		f := DetectFormat(header)
		extract, ok := extractors[f]
		if !ok {
			return ErrUnrecognizedFormat
		}
		var eerr error
		md, eerr = extract(br)
		return eerr
	})
	if err != nil {
		md = nil
	}
	return
}

// LoadFile is Load for the file at path.
func LoadFile(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	md, _, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return md, nil
}
