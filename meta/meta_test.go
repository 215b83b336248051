package meta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"io"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/kovidgoyal/iccmm/icc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ = fmt.Print

func srgb_bytes(t *testing.T) []byte {
	b, err := icc.NewSRGBProfile().Bytes()
	require.NoError(t, err)
	return b
}

func png_chunk(ctype string, data []byte) []byte {
	ans := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
	ans = append(ans, ctype...)
	ans = append(ans, data...)
	return binary.BigEndian.AppendUint32(ans, crc32.ChecksumIEEE(ans[4:]))
}

// make_png inserts extra chunks after the IHDR chunk of a real PNG file
func make_png(t *testing.T, extra ...[]byte) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 5, 3))))
	data := buf.Bytes()
	// signature + IHDR chunk
	ihdr_end := 8 + 8 + 13 + 4
	ans := append([]byte(nil), data[:ihdr_end]...)
	for _, c := range extra {
		ans = append(ans, c...)
	}
	return append(ans, data[ihdr_end:]...)
}

func iccp_chunk(t *testing.T, profile []byte) []byte {
	var z bytes.Buffer
	w := zlib.NewWriter(&z)
	_, err := w.Write(profile)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	payload := append([]byte("ICC profile\x00\x00"), z.Bytes()...)
	return png_chunk("iCCP", payload)
}

func make_jpeg(profile []byte, split int) []byte {
	ans := []byte{0xff, 0xd8}
	app1 := []byte{0xff, 0xe1, 0, 6, 'E', 'x', 'i', 'f'}
	ans = append(ans, app1...)
	parts := [][]byte{profile[:split], profile[split:]}
	for i, p := range parts {
		seg := append([]byte(icc_app2_signature), byte(i+1), byte(len(parts)))
		seg = append(seg, p...)
		ans = append(ans, 0xff, 0xe2)
		ans = binary.BigEndian.AppendUint16(ans, uint16(len(seg)+2))
		ans = append(ans, seg...)
	}
	sof := []byte{8, 0, 7, 0, 9, 1, 1, 0x11, 0}
	ans = append(ans, 0xff, 0xff, 0xc0)
	ans = binary.BigEndian.AppendUint16(ans, uint16(len(sof)+2))
	ans = append(ans, sof...)
	return append(ans, 0xff, 0xda, 0, 2, 0xff, 0xd9)
}

func riff_chunk(ctype string, data []byte) []byte {
	ans := append([]byte(ctype), 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(ans[4:], uint32(len(data)))
	ans = append(ans, data...)
	if len(data)&1 == 1 {
		ans = append(ans, 0)
	}
	return ans
}

func make_webp(profile []byte) []byte {
	vp8x := []byte{0x20, 0, 0, 0, 9, 0, 0, 4, 0, 0}
	body := []byte("WEBP")
	body = append(body, riff_chunk("VP8X", vp8x)...)
	if profile != nil {
		body = append(body, riff_chunk("ICCP", profile)...)
	}
	body = append(body, riff_chunk("VP8L", []byte{0x2f, 9, 0x40, 1, 0, 0})...)
	ans := append([]byte("RIFF"), 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(ans[4:], uint32(len(body)))
	return append(ans, body...)
}

// make_tiff builds a one pixel gray little endian TIFF file
func make_tiff(profile []byte) []byte {
	type entry struct {
		tag, typ   uint16
		count, val uint32
	}
	entries := []entry{
		{256, 3, 1, 1}, {257, 3, 1, 1}, {258, 3, 1, 8}, {259, 3, 1, 1}, {262, 3, 1, 1},
		{273, 4, 1, 0}, {278, 3, 1, 1}, {279, 4, 1, 1},
	}
	if profile != nil {
		entries = append(entries, entry{TIFFTagICCProfile, 7, uint32(len(profile)), 0})
	}
	ifd_end := uint32(8 + 2 + 12*len(entries) + 4)
	pixel_offset, profile_offset := ifd_end, ifd_end+2
	le := binary.LittleEndian
	ans := []byte("II*\x00")
	ans = le.AppendUint32(ans, 8)
	ans = le.AppendUint16(ans, uint16(len(entries)))
	for _, e := range entries {
		switch e.tag {
		case 273:
			e.val = pixel_offset
		case TIFFTagICCProfile:
			e.val = profile_offset
		}
		ans = le.AppendUint16(ans, e.tag)
		ans = le.AppendUint16(ans, e.typ)
		ans = le.AppendUint32(ans, e.count)
		ans = le.AppendUint32(ans, e.val)
	}
	ans = le.AppendUint32(ans, 0)
	ans = append(ans, 0x80, 0)
	return append(ans, profile...)
}

func check_profile(t *testing.T, md *Data, expected []byte) {
	t.Helper()
	data, err := md.ICCProfileData()
	require.NoError(t, err)
	require.Equal(t, expected, data)
	p, err := md.ICCProfile()
	require.NoError(t, err)
	assert.Equal(t, icc.NewSRGBProfile().Description(), p.Description())
	again, err := md.ICCProfile()
	require.NoError(t, err)
	assert.Same(t, p, again)
}

func TestExtract(t *testing.T) {
	profile := srgb_bytes(t)
	t.Run("PNG", func(t *testing.T) {
		md, err := ExtractPNG(bytes.NewReader(make_png(t, iccp_chunk(t, profile))))
		require.NoError(t, err)
		assert.Equal(t, PNG, md.Format)
		assert.Equal(t, uint32(5), md.PixelWidth)
		assert.Equal(t, uint32(3), md.PixelHeight)
		assert.Equal(t, uint32(8), md.BitsPerComponent)
		check_profile(t, md, profile)
	})
	t.Run("PNG cICP", func(t *testing.T) {
		md, err := ExtractPNG(bytes.NewReader(make_png(t, png_chunk("cICP", []byte{12, 13, 0, 1}))))
		require.NoError(t, err)
		p, err := md.ICCProfile()
		require.NoError(t, err)
		assert.Nil(t, p)
		p, err = md.Profile()
		require.NoError(t, err)
		assert.Equal(t, icc.DisplayP3Profile, p.WellKnownProfile())
	})
	t.Run("PNG bad iCCP", func(t *testing.T) {
		md, err := ExtractPNG(bytes.NewReader(make_png(t, png_chunk("iCCP", []byte("x\x00\x00garbage")))))
		require.NoError(t, err)
		_, err = md.ICCProfile()
		require.Error(t, err)
	})
	t.Run("JPEG", func(t *testing.T) {
		md, err := ExtractJPEG(bytes.NewReader(make_jpeg(profile, 100)))
		require.NoError(t, err)
		assert.Equal(t, uint32(9), md.PixelWidth)
		assert.Equal(t, uint32(7), md.PixelHeight)
		check_profile(t, md, profile)
	})
	t.Run("WebP", func(t *testing.T) {
		md, err := ExtractWebP(bytes.NewReader(make_webp(profile)))
		require.NoError(t, err)
		assert.Equal(t, uint32(10), md.PixelWidth)
		assert.Equal(t, uint32(5), md.PixelHeight)
		check_profile(t, md, profile)
		md, err = ExtractWebP(bytes.NewReader(make_webp(nil)))
		require.NoError(t, err)
		data, err := md.ICCProfileData()
		require.NoError(t, err)
		assert.Nil(t, data)
	})
	t.Run("TIFF", func(t *testing.T) {
		md, err := ExtractTIFF(bytes.NewReader(make_tiff(profile)))
		require.NoError(t, err)
		assert.Equal(t, TIFF, md.Format)
		assert.Equal(t, uint32(1), md.PixelWidth)
		assert.Equal(t, uint32(8), md.BitsPerComponent)
		check_profile(t, md, profile)
		md, err = ExtractTIFF(bytes.NewReader(make_tiff(nil)))
		require.NoError(t, err)
		p, err := md.Profile()
		require.NoError(t, err)
		assert.Nil(t, p)
	})
	t.Run("wrong format", func(t *testing.T) {
		_, err := ExtractPNG(bytes.NewReader(make_webp(nil)))
		require.ErrorIs(t, err, ErrUnrecognizedFormat)
		_, err = ExtractTIFF(bytes.NewReader(make_jpeg(profile, 10)))
		require.ErrorIs(t, err, ErrUnrecognizedFormat)
	})
}

// one_byte_reader is not seekable
type one_byte_reader struct{ r io.Reader }

func (o one_byte_reader) Read(p []byte) (int, error) { return o.r.Read(p[:min(1, len(p))]) }

func TestLoad(t *testing.T) {
	profile := srgb_bytes(t)
	for name, data := range map[string][]byte{
		"png": make_png(t, iccp_chunk(t, profile)), "jpeg": make_jpeg(profile, 7),
		"webp": make_webp(profile), "tiff": make_tiff(profile),
	} {
		t.Run(name, func(t *testing.T) {
			for _, r := range []io.Reader{bytes.NewReader(data), one_byte_reader{bytes.NewReader(data)}} {
				md, stream, err := Load(r)
				require.NoError(t, err)
				assert.Equal(t, FormatFromFilename("x."+name), md.Format)
				check_profile(t, md, profile)
				all, err := io.ReadAll(stream)
				require.NoError(t, err)
				assert.Equal(t, data, all)
			}
		})
	}
	_, _, err := Load(bytes.NewReader([]byte("not an image at all")))
	require.ErrorIs(t, err, ErrUnrecognizedFormat)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, TIFF, FormatFromFilename("/a/b.TIF"))
	assert.Equal(t, UNKNOWN, FormatFromFilename("a.gif"))
	assert.Equal(t, "WEBP", WEBP.String())
	assert.Equal(t, "UNKNOWN", Format(42).String())
	assert.Equal(t, PNG, DetectFormat(make_png(t)))
	assert.Equal(t, icc.SRGBProfile, CodingIndependentCodePoints{1, 13, 0, 1}.WellKnownProfile())
	assert.Equal(t, icc.UnknownProfile, CodingIndependentCodePoints{1, 13, 1, 1}.WellKnownProfile())
}
