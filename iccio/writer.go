package iccio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"golang.org/x/exp/constraints"
)

// Writer writes big-endian ICC primitives to a seekable sink.
type Writer struct {
	w   io.WriteSeeker
	pos int64
	buf []byte
}

func NewWriter(w io.WriteSeeker) *Writer {
	pos, _ := w.Seek(0, io.SeekCurrent)
	return &Writer{w: w, pos: pos}
}

func (w *Writer) Tell() int64 { return w.pos }

func (w *Writer) Seek(offset int64, whence int) (int64, error) {
	pos, err := w.w.Seek(offset, whence)
	if err != nil {
		return w.pos, err
	}
	w.pos = pos
	return pos, nil
}

func (w *Writer) scratch(n int) []byte {
	if cap(w.buf) < n {
		w.buf = make([]byte, n)
	}
	return w.buf[:n]
}

func (w *Writer) flush(b []byte, width int) (int, error) {
	n, err := w.w.Write(b)
	w.pos += int64(n)
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return n / width, fmt.Errorf("wrote %d of %d bytes: %w", n, len(b), err)
	}
	return n / width, nil
}

func (w *Writer) Write8s(p []uint8) (int, error) {
	return w.flush(p, 1)
}

func (w *Writer) Write16s(p []uint16) (int, error) {
	b := w.scratch(len(p) * 2)
	for i, v := range p {
		binary.BigEndian.PutUint16(b[i*2:], v)
	}
	return w.flush(b, 2)
}

func (w *Writer) Write32s(p []uint32) (int, error) {
	b := w.scratch(len(p) * 4)
	for i, v := range p {
		binary.BigEndian.PutUint32(b[i*4:], v)
	}
	return w.flush(b, 4)
}

func (w *Writer) Write64s(p []uint64) (int, error) {
	b := w.scratch(len(p) * 8)
	for i, v := range p {
		binary.BigEndian.PutUint64(b[i*8:], v)
	}
	return w.flush(b, 8)
}

func (w *Writer) Write8(v uint8) error {
	_, err := w.Write8s([]uint8{v})
	return err
}

func (w *Writer) Write16(v uint16) error {
	_, err := w.Write16s([]uint16{v})
	return err
}

func (w *Writer) Write32(v uint32) error {
	_, err := w.Write32s([]uint32{v})
	return err
}

func (w *Writer) Write64(v uint64) error {
	_, err := w.Write64s([]uint64{v})
	return err
}

// WriteZeros emits n zero bytes.
func (w *Writer) WriteZeros(n int) error {
	if n <= 0 {
		return nil
	}
	b := w.scratch(n)
	clear(b)
	_, err := w.flush(b, 1)
	return err
}

// Align32 pads with zero bytes up to the next multiple of four.
func (w *Writer) Align32() error {
	if extra := w.pos % 4; extra != 0 {
		return w.WriteZeros(int(4 - extra))
	}
	return nil
}

func WriteS15Fixed16s[F constraints.Float](w *Writer, p []F) (int, error) {
	b := w.scratch(len(p) * 4)
	for i, v := range p {
		binary.BigEndian.PutUint32(b[i*4:], uint32(FloatToS15Fixed16(float64(v))))
	}
	return w.flush(b, 4)
}

func WriteU16Fixed16s[F constraints.Float](w *Writer, p []F) (int, error) {
	b := w.scratch(len(p) * 4)
	for i, v := range p {
		binary.BigEndian.PutUint32(b[i*4:], FloatToU16Fixed16(float64(v)))
	}
	return w.flush(b, 4)
}

func WriteU1Fixed15s[F constraints.Float](w *Writer, p []F) (int, error) {
	b := w.scratch(len(p) * 2)
	for i, v := range p {
		binary.BigEndian.PutUint16(b[i*2:], FloatToU1Fixed15(float64(v)))
	}
	return w.flush(b, 2)
}

func WriteU8Fixed8s[F constraints.Float](w *Writer, p []F) (int, error) {
	b := w.scratch(len(p) * 2)
	for i, v := range p {
		binary.BigEndian.PutUint16(b[i*2:], FloatToU8Fixed8(float64(v)))
	}
	return w.flush(b, 2)
}

func WriteFloat32s[F constraints.Float](w *Writer, p []F) (int, error) {
	b := w.scratch(len(p) * 4)
	for i, v := range p {
		binary.BigEndian.PutUint32(b[i*4:], math.Float32bits(float32(v)))
	}
	return w.flush(b, 4)
}

// Write16Floats writes values in [0, 1] as 16 bit unsigned integers.
func Write16Floats[F constraints.Float](w *Writer, p []F) (int, error) {
	b := w.scratch(len(p) * 2)
	for i, v := range p {
		binary.BigEndian.PutUint16(b[i*2:], FloatToU16(float64(v)))
	}
	return w.flush(b, 2)
}

// Write8Floats writes values in [0, 1] as 8 bit unsigned integers.
func Write8Floats[F constraints.Float](w *Writer, p []F) (int, error) {
	b := w.scratch(len(p))
	for i, v := range p {
		b[i] = FloatToU8(float64(v))
	}
	return w.flush(b, 1)
}
