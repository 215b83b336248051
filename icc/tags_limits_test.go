package icc

import (
	"encoding/binary"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovidgoyal/iccmm/iccio"
)

// bytes allocated while running f
func allocated_by(f func()) uint64 {
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	f()
	runtime.ReadMemStats(&after)
	return after.TotalAlloc - before.TotalAlloc
}

func TestHugeDeclaredTables(t *testing.T) {
	const limit = 16 << 20
	read := func(t *testing.T, typ Signature, data []byte) (Tag, error) {
		tag := default_registry().NewTag(typ)
		var err error
		n := allocated_by(func() { err = tag.Read(uint32(len(data)), iccio.NewBytesReader(data)) })
		assert.Less(t, n, uint64(limit), "reading a %d byte tag allocated %d bytes", len(data), n)
		return tag, err
	}
	t.Run("mft2", func(t *testing.T) {
		data := make([]byte, 60)
		binary.BigEndian.PutUint32(data, uint32(Lut16TypeSignature))
		data[8], data[9], data[10] = 3, 15, 255
		binary.BigEndian.PutUint16(data[48:], 2)
		binary.BigEndian.PutUint16(data[50:], 2)
		tag, err := read(t, Lut16TypeSignature, data)
		require.ErrorIs(t, err, ErrTagTooSmall)
		assert.Nil(t, tag.(*Lut16Tag).CLUT)
	})
	t.Run("mAB", func(t *testing.T) {
		data := make([]byte, 52)
		binary.BigEndian.PutUint32(data, uint32(LutAtoBTypeSignature))
		data[8], data[9] = 3, 15
		binary.BigEndian.PutUint32(data[24:], 32)
		data[32], data[33], data[34] = 255, 255, 255
		data[48] = 2
		tag, err := read(t, LutAtoBTypeSignature, data)
		require.ErrorIs(t, err, ErrTagTooSmall)
		c := tag.(*LutAtoBTag).CLUT
		require.NotNil(t, c)
		assert.Nil(t, c.Data)
	})
	t.Run("mpet CLUT element", func(t *testing.T) {
		data := make([]byte, 24+28)
		binary.BigEndian.PutUint32(data, uint32(MultiProcessElementTypeSignature))
		binary.BigEndian.PutUint16(data[8:], 3)
		binary.BigEndian.PutUint16(data[10:], 15)
		binary.BigEndian.PutUint32(data[12:], 1)
		binary.BigEndian.PutUint32(data[16:], 24)
		binary.BigEndian.PutUint32(data[20:], 28)
		elem := data[24:]
		binary.BigEndian.PutUint32(elem, uint32(CLutElemTypeSignature))
		binary.BigEndian.PutUint16(elem[8:], 3)
		binary.BigEndian.PutUint16(elem[10:], 15)
		elem[12], elem[13], elem[14] = 255, 255, 255
		_, err := read(t, MultiProcessElementTypeSignature, data)
		require.ErrorIs(t, err, ErrTagTooSmall)
	})
	t.Run("sampled segment", func(t *testing.T) {
		var err error
		n := allocated_by(func() { _, err = read_floats(iccio.NewBytesReader(make([]byte, 8)), MaxCLUTSamples) })
		require.ErrorIs(t, err, ErrTagTooSmall)
		assert.Less(t, n, uint64(limit))
	})
	t.Run("small tables still load", func(t *testing.T) {
		l := NewLutAtoBTag(3, 3)
		l.NewIdentityCurves(CurveSlotA)
		l.NewIdentityCurves(CurveSlotB)
		square_clut(t, &l.MBB, 5)
		r := roundtrip(t, l)
		assert.Len(t, r.CLUT.Data, 5*5*5*3)
	})
}
