// Package iccio provides the big-endian binary primitives used to read and
// write ICC profiles: integers, the ICC fixed point number formats and four
// byte alignment over a seekable stream.
package iccio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"golang.org/x/exp/constraints"
)

var _ = fmt.Print

// ErrShortTransfer is returned when fewer elements than requested could be
// transferred.
var ErrShortTransfer = errors.New("short transfer")

// Reader reads big-endian ICC primitives from a seekable source. Every bulk
// read returns the number of whole elements transferred, anything less than
// requested is accompanied by a non-nil error.
type Reader struct {
	r   io.ReadSeeker
	pos int64
	buf []byte
}

func NewReader(r io.ReadSeeker) *Reader {
	pos, _ := r.Seek(0, io.SeekCurrent)
	return &Reader{r: r, pos: pos}
}

// NewBytesReader returns a Reader over an in-memory buffer.
func NewBytesReader(data []byte) *Reader {
	return NewReader(NewMemStream(data))
}

func (r *Reader) Tell() int64 { return r.pos }

func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	pos, err := r.r.Seek(offset, whence)
	if err != nil {
		return r.pos, err
	}
	r.pos = pos
	return pos, nil
}

// Size returns the total length of the underlying stream.
func (r *Reader) Size() (int64, error) {
	cur := r.pos
	end, err := r.r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err = r.r.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	return end, nil
}

func (r *Reader) scratch(n int) []byte {
	if cap(r.buf) < n {
		r.buf = make([]byte, n)
	}
	return r.buf[:n]
}

// fill reads n elements of the given width, returning the number of whole
// elements available in the returned buffer.
func (r *Reader) fill(n, width int) ([]byte, int, error) {
	b := r.scratch(n * width)
	got, err := io.ReadFull(r.r, b)
	r.pos += int64(got)
	count := got / width
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			err = fmt.Errorf("read %d of %d elements at offset %d: %w", count, n, r.pos-int64(got), ErrShortTransfer)
		}
		return b, count, err
	}
	return b, count, nil
}

func (r *Reader) Read8s(p []uint8) (int, error) {
	got, err := io.ReadFull(r.r, p)
	r.pos += int64(got)
	if err != nil && (errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)) {
		err = fmt.Errorf("read %d of %d bytes: %w", got, len(p), ErrShortTransfer)
	}
	return got, err
}

func (r *Reader) Read16s(p []uint16) (int, error) {
	b, n, err := r.fill(len(p), 2)
	for i := range n {
		p[i] = binary.BigEndian.Uint16(b[i*2:])
	}
	return n, err
}

func (r *Reader) Read32s(p []uint32) (int, error) {
	b, n, err := r.fill(len(p), 4)
	for i := range n {
		p[i] = binary.BigEndian.Uint32(b[i*4:])
	}
	return n, err
}

func (r *Reader) Read64s(p []uint64) (int, error) {
	b, n, err := r.fill(len(p), 8)
	for i := range n {
		p[i] = binary.BigEndian.Uint64(b[i*8:])
	}
	return n, err
}

func (r *Reader) Read8() (ans uint8, err error) {
	var b [1]uint8
	_, err = r.Read8s(b[:])
	return b[0], err
}

func (r *Reader) Read16() (ans uint16, err error) {
	var b [1]uint16
	_, err = r.Read16s(b[:])
	return b[0], err
}

func (r *Reader) Read32() (ans uint32, err error) {
	var b [1]uint32
	_, err = r.Read32s(b[:])
	return b[0], err
}

func (r *Reader) Read64() (ans uint64, err error) {
	var b [1]uint64
	_, err = r.Read64s(b[:])
	return b[0], err
}

// Skip advances the read position by n bytes.
func (r *Reader) Skip(n int64) error {
	_, err := r.Seek(n, io.SeekCurrent)
	return err
}

// Align32 skips the zero padding that brings the read position to a
// multiple of four.
func (r *Reader) Align32() error {
	if extra := r.pos % 4; extra != 0 {
		return r.Skip(4 - extra)
	}
	return nil
}

// ReadS15Fixed16s reads signed 15.16 fixed point numbers.
func ReadS15Fixed16s[F constraints.Float](r *Reader, p []F) (int, error) {
	b, n, err := r.fill(len(p), 4)
	for i := range n {
		p[i] = F(S15Fixed16ToFloat(int32(binary.BigEndian.Uint32(b[i*4:]))))
	}
	return n, err
}

// ReadU16Fixed16s reads unsigned 16.16 fixed point numbers.
func ReadU16Fixed16s[F constraints.Float](r *Reader, p []F) (int, error) {
	b, n, err := r.fill(len(p), 4)
	for i := range n {
		p[i] = F(float64(binary.BigEndian.Uint32(b[i*4:])) / 65536)
	}
	return n, err
}

// ReadU1Fixed15s reads unsigned 1.15 fixed point numbers.
func ReadU1Fixed15s[F constraints.Float](r *Reader, p []F) (int, error) {
	b, n, err := r.fill(len(p), 2)
	for i := range n {
		p[i] = F(float64(binary.BigEndian.Uint16(b[i*2:])) / 32768)
	}
	return n, err
}

// ReadU8Fixed8s reads unsigned 8.8 fixed point numbers.
func ReadU8Fixed8s[F constraints.Float](r *Reader, p []F) (int, error) {
	b, n, err := r.fill(len(p), 2)
	for i := range n {
		p[i] = F(float64(binary.BigEndian.Uint16(b[i*2:])) / 256)
	}
	return n, err
}

// ReadFloat32s reads IEEE 754 single precision numbers.
func ReadFloat32s[F constraints.Float](r *Reader, p []F) (int, error) {
	b, n, err := r.fill(len(p), 4)
	for i := range n {
		p[i] = F(math.Float32frombits(binary.BigEndian.Uint32(b[i*4:])))
	}
	return n, err
}

// Read16Floats reads 16 bit unsigned integers normalized to [0, 1].
func Read16Floats[F constraints.Float](r *Reader, p []F) (int, error) {
	b, n, err := r.fill(len(p), 2)
	for i := range n {
		p[i] = F(float64(binary.BigEndian.Uint16(b[i*2:])) / 65535)
	}
	return n, err
}

// Read8Floats reads 8 bit unsigned integers normalized to [0, 1].
func Read8Floats[F constraints.Float](r *Reader, p []F) (int, error) {
	b, n, err := r.fill(len(p), 1)
	for i := range n {
		p[i] = F(float64(b[i]) / 255)
	}
	return n, err
}

func S15Fixed16ToFloat(v int32) float64 { return float64(v) / 65536 }

func FloatToS15Fixed16(v float64) int32 {
	v = math.Round(v * 65536)
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}

func FloatToU16Fixed16(v float64) uint32 {
	v = math.Round(v * 65536)
	switch {
	case v > math.MaxUint32:
		return math.MaxUint32
	case v < 0:
		return 0
	}
	return uint32(v)
}

func FloatToU1Fixed15(v float64) uint16 {
	return quantize(v*32768, math.MaxUint16)
}

func FloatToU8Fixed8(v float64) uint16 {
	return quantize(v*256, math.MaxUint16)
}

// FloatToU16 maps [0, 1] onto [0, 65535] with rounding, clipping out of range values.
func FloatToU16(v float64) uint16 { return quantize(v*65535, math.MaxUint16) }

// FloatToU8 maps [0, 1] onto [0, 255] with rounding, clipping out of range values.
func FloatToU8(v float64) uint8 { return uint8(quantize(v*255, math.MaxUint8)) }

func quantize(v, limit float64) uint16 {
	switch {
	case v != v || v <= 0:
		return 0
	case v >= limit:
		return uint16(limit)
	}
	return uint16(v + 0.5)
}
