package meta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

var _ = fmt.Print

// ExtractPNG reads the chunks preceding the image data of a PNG stream.
func ExtractPNG(r io.Reader) (md *Data, err error) {
	var sig [8]byte
	if _, err = io.ReadFull(r, sig[:]); err != nil {
		return nil, fmt.Errorf("failed to read PNG signature: %w", err)
	}
	if !bytes.Equal(sig[:], png_signature) {
		return nil, fmt.Errorf("not a PNG file: %w", ErrUnrecognizedFormat)
	}
	md = &Data{Format: PNG}
	var hdr [8]byte
	for {
		if _, err = io.ReadFull(r, hdr[:]); err != nil {
			return nil, fmt.Errorf("failed to read PNG chunk header: %w", err)
		}
		length, ctype := binary.BigEndian.Uint32(hdr[:4]), string(hdr[4:])
		switch ctype {
		case "IDAT", "IEND":
			return md, nil
		case "IHDR", "iCCP", "cICP":
		default:
			if _, err = io.CopyN(io.Discard, r, int64(length)+4); err != nil {
				return nil, fmt.Errorf("failed to skip PNG chunk %s: %w", ctype, err)
			}
			continue
		}
		data := make([]byte, int(length)+4)
		if _, err = io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("failed to read PNG chunk %s: %w", ctype, err)
		}
		data = data[:length]
		switch ctype {
		case "IHDR":
			if len(data) < 13 {
				return nil, fmt.Errorf("PNG IHDR chunk too short: %w", ErrCorruptMetadata)
			}
			md.PixelWidth, md.PixelHeight = binary.BigEndian.Uint32(data), binary.BigEndian.Uint32(data[4:])
			md.BitsPerComponent = uint32(data[8])
		case "cICP":
			if len(data) == 4 {
				md.CICP = CodingIndependentCodePoints{data[0], data[1], data[2], data[3]}
			}
		case "iCCP":
			if profile, perr := decode_iccp(data); perr == nil {
				md.SetICCProfileData(profile)
			} else {
				md.SetICCProfileError(perr)
			}
		}
	}
}

// decode_iccp decompresses the payload of an iCCP chunk: a profile name, a
// NUL, the compression method and zlib data.
func decode_iccp(data []byte) ([]byte, error) {
	_, compressed, found := bytes.Cut(data, []byte{0})
	if !found || len(compressed) < 1 {
		return nil, fmt.Errorf("invalid iCCP chunk: %w", ErrCorruptMetadata)
	}
	if compressed[0] != 0 {
		return nil, fmt.Errorf("unknown iCCP compression method %d: %w", compressed[0], ErrCorruptMetadata)
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed[1:]))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress iCCP chunk: %w", err)
	}
	defer zr.Close()
	ans, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress iCCP chunk: %w", err)
	}
	return ans, nil
}
