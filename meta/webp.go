package meta

import (
	"encoding/binary"
	"fmt"
	"io"
)

var _ = fmt.Print

func le24(b []byte) uint32 { return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 }

// ExtractWebP reads the RIFF chunks of a WebP stream up to the image data.
// Only the extended format can carry an ICCP chunk and it precedes the
// image data.
func ExtractWebP(r io.Reader) (md *Data, err error) {
	var hdr [12]byte
	if _, err = io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("failed to read RIFF header: %w", err)
	}
	if string(hdr[:4]) != "RIFF" || string(hdr[8:12]) != "WEBP" {
		return nil, fmt.Errorf("not a WebP file: %w", ErrUnrecognizedFormat)
	}
	md = &Data{Format: WEBP, BitsPerComponent: 8}
	ch := hdr[:8]
	for {
		if _, err = io.ReadFull(r, ch); err != nil {
			if err == io.EOF {
				return md, nil
			}
			return nil, fmt.Errorf("failed to read WebP chunk header: %w", err)
		}
		ctype, size := string(ch[:4]), binary.LittleEndian.Uint32(ch[4:])
		padded := int64(size) + int64(size&1)
		var data []byte
		switch ctype {
		case "VP8X", "ICCP", "VP8 ", "VP8L":
			// only the image headers are needed
			n := int64(size)
			if ctype == "VP8 " || ctype == "VP8L" {
				n = min(n, 10)
			}
			data = make([]byte, n)
			if _, err = io.ReadFull(r, data); err != nil {
				return nil, fmt.Errorf("failed to read WebP %s chunk: %w", ctype, err)
			}
		}
		switch ctype {
		case "VP8X":
			if len(data) >= 10 {
				md.PixelWidth, md.PixelHeight = le24(data[4:])+1, le24(data[7:])+1
			}
		case "ICCP":
			md.SetICCProfileData(data)
		case "VP8 ":
			if md.PixelWidth == 0 && len(data) >= 10 {
				md.PixelWidth = uint32(binary.LittleEndian.Uint16(data[6:]) & 0x3fff)
				md.PixelHeight = uint32(binary.LittleEndian.Uint16(data[8:]) & 0x3fff)
			}
			return md, nil
		case "VP8L":
			if md.PixelWidth == 0 && len(data) >= 5 && data[0] == 0x2f {
				bits := binary.LittleEndian.Uint32(data[1:])
				md.PixelWidth, md.PixelHeight = bits&0x3fff+1, (bits>>14)&0x3fff+1
			}
			return md, nil
		}
		if skip := padded - int64(len(data)); skip > 0 {
			if _, err = io.CopyN(io.Discard, r, skip); err != nil {
				return nil, fmt.Errorf("failed to skip WebP %s chunk: %w", ctype, err)
			}
		}
	}
}
