package meta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

var _ = fmt.Print

const icc_app2_signature = "ICC_PROFILE\x00"

// ExtractJPEG reads the markers preceding the first scan of a JPEG stream.
// Profiles larger than a marker segment are split over several APP2 markers
// which are joined in sequence order.
func ExtractJPEG(r io.Reader) (md *Data, err error) {
	var marker [2]byte
	if _, err = io.ReadFull(r, marker[:]); err != nil {
		return nil, err
	}
	if marker[0] != 0xff || marker[1] != 0xd8 {
		return nil, fmt.Errorf("not a JPEG file: %w", ErrUnrecognizedFormat)
	}
	md = &Data{Format: JPEG}
	chunks := map[int][]byte{}
	num_chunks := 0
	var seglen [2]byte
	for {
		if _, err = io.ReadFull(r, marker[:]); err != nil {
			return nil, fmt.Errorf("failed to read JPEG marker: %w", err)
		}
		if marker[0] != 0xff {
			return nil, fmt.Errorf("invalid JPEG marker %x: %w", marker, ErrCorruptMetadata)
		}
		m := marker[1]
		// fill bytes
		for m == 0xff {
			if _, err = io.ReadFull(r, marker[1:]); err != nil {
				return nil, err
			}
			m = marker[1]
		}
		if m == 0xda || m == 0xd9 {
			break
		}
		if m == 0x01 || (m >= 0xd0 && m <= 0xd7) {
			continue
		}
		if _, err = io.ReadFull(r, seglen[:]); err != nil {
			return nil, fmt.Errorf("failed to read JPEG segment length: %w", err)
		}
		n := int(binary.BigEndian.Uint16(seglen[:]))
		if n < 2 {
			return nil, fmt.Errorf("invalid JPEG segment length %d: %w", n, ErrCorruptMetadata)
		}
		is_sof := m >= 0xc0 && m <= 0xcf && m != 0xc4 && m != 0xc8 && m != 0xcc
		if m != 0xe2 && !is_sof {
			if _, err = io.CopyN(io.Discard, r, int64(n-2)); err != nil {
				return nil, err
			}
			continue
		}
		data := make([]byte, n-2)
		if _, err = io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("failed to read JPEG segment: %w", err)
		}
		if is_sof {
			if len(data) >= 5 {
				md.BitsPerComponent = uint32(data[0])
				md.PixelHeight = uint32(binary.BigEndian.Uint16(data[1:]))
				md.PixelWidth = uint32(binary.BigEndian.Uint16(data[3:]))
			}
			continue
		}
		if rest, found := bytes.CutPrefix(data, []byte(icc_app2_signature)); found && len(rest) >= 2 {
			chunks[int(rest[0])] = rest[2:]
			num_chunks = int(rest[1])
		}
	}
	if len(chunks) > 0 {
		var profile []byte
		for i := 1; i <= max(num_chunks, len(chunks)); i++ {
			chunk, ok := chunks[i]
			if !ok {
				md.SetICCProfileError(fmt.Errorf("missing ICC profile chunk %d of %d: %w", i, num_chunks, ErrCorruptMetadata))
				return md, nil
			}
			profile = append(profile, chunk...)
		}
		md.SetICCProfileData(profile)
	}
	return md, nil
}
