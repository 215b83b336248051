package iccio

import (
	"errors"
	"io"
)

// MemStream is a growable in-memory io.ReadWriteSeeker. Writing past the
// end extends the buffer, seeking past the end and writing zero fills the
// gap.
type MemStream struct {
	data []byte
	pos  int64
}

// NewMemStream attaches to data without copying it.
func NewMemStream(data []byte) *MemStream {
	return &MemStream{data: data}
}

func (m *MemStream) Bytes() []byte { return m.data }
func (m *MemStream) Len() int      { return len(m.data) }

func (m *MemStream) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *MemStream) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		if end > int64(cap(m.data)) {
			nd := make([]byte, end, max(end, 2*int64(cap(m.data))))
			copy(nd, m.data)
			m.data = nd
		} else {
			m.data = m.data[:end]
		}
	}
	copy(m.data[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *MemStream) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = m.pos + offset
	case io.SeekEnd:
		abs = int64(len(m.data)) + offset
	default:
		return m.pos, errors.New("iccio: invalid whence")
	}
	if abs < 0 {
		return m.pos, errors.New("iccio: negative position")
	}
	m.pos = abs
	return abs, nil
}

var _ io.ReadWriteSeeker = (*MemStream)(nil)
