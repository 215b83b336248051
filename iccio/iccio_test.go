package iccio

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedPoint(t *testing.T) {
	t.Run("S15Fixed16", func(t *testing.T) {
		r := NewBytesReader([]byte{
			0x00, 0x01, 0x00, 0x00, // 1.0
			0x00, 0x02, 0x80, 0x00, // 2.5
			0xFF, 0xFF, 0x00, 0x00, // -1.0
			0xFF, 0xFE, 0x80, 0x00, // -1.5
		})
		vals := make([]float64, 4)
		n, err := ReadS15Fixed16s(r, vals)
		require.NoError(t, err)
		require.Equal(t, 4, n)
		assert.Equal(t, []float64{1, 2.5, -1, -1.5}, vals)
	})
	t.Run("U8Fixed8", func(t *testing.T) {
		r := NewBytesReader([]byte{0x02, 0x33})
		vals := make([]float32, 1)
		_, err := ReadU8Fixed8s(r, vals)
		require.NoError(t, err)
		assert.InDelta(t, 2.2, vals[0], 0.001)
	})
	t.Run("U1Fixed15", func(t *testing.T) {
		r := NewBytesReader([]byte{0x80, 0x00, 0x40, 0x00})
		vals := make([]float64, 2)
		_, err := ReadU1Fixed15s(r, vals)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 0.5}, vals)
	})
	t.Run("RoundTrip", func(t *testing.T) {
		m := NewMemStream(nil)
		w := NewWriter(m)
		in := []float64{0.9642, 1, 0.8249, -0.25, 3.125}
		_, err := WriteS15Fixed16s(w, in)
		require.NoError(t, err)
		_, err = WriteU16Fixed16s(w, []float64{1.5})
		require.NoError(t, err)
		r := NewBytesReader(m.Bytes())
		out := make([]float64, len(in))
		_, err = ReadS15Fixed16s(r, out)
		require.NoError(t, err)
		for i := range in {
			assert.InDelta(t, in[i], out[i], 1.0/65536)
		}
		u := make([]float64, 1)
		_, err = ReadU16Fixed16s(r, u)
		require.NoError(t, err)
		assert.Equal(t, 1.5, u[0])
	})
	t.Run("Quantize", func(t *testing.T) {
		assert.Equal(t, uint16(65535), FloatToU16(1.5))
		assert.Equal(t, uint16(0), FloatToU16(-0.1))
		assert.Equal(t, uint16(32768), FloatToU16(0.5))
		assert.Equal(t, uint8(128), FloatToU8(0.5))
	})
}

func TestShortTransfer(t *testing.T) {
	r := NewBytesReader([]byte{0, 1, 0, 2, 0})
	vals := make([]uint16, 3)
	n, err := r.Read16s(vals)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShortTransfer))
	assert.Equal(t, 2, n)
	assert.Equal(t, []uint16{1, 2, 0}, vals)
}

func TestAlignment(t *testing.T) {
	m := NewMemStream(nil)
	w := NewWriter(m)
	require.NoError(t, w.Write8(7))
	require.NoError(t, w.Align32())
	assert.Equal(t, int64(4), w.Tell())
	require.NoError(t, w.Write16(0xBEEF))
	require.NoError(t, w.Align32())
	assert.Equal(t, []byte{7, 0, 0, 0, 0xBE, 0xEF, 0, 0}, m.Bytes())

	r := NewBytesReader(m.Bytes())
	_, err := r.Read8()
	require.NoError(t, err)
	require.NoError(t, r.Align32())
	v, err := r.Read16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), v)
}

func TestMemStreamSeekPastEnd(t *testing.T) {
	m := NewMemStream(nil)
	_, err := m.Seek(6, io.SeekStart)
	require.NoError(t, err)
	_, err = m.Write([]byte{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 1, 2}, m.Bytes())
	_, err = m.Seek(-1, io.SeekStart)
	assert.Error(t, err)
}
