package cmm

import (
	"container/list"
	"fmt"
	"math"

	"github.com/kovidgoyal/iccmm/icc"
)

var _ = fmt.Print

// Applier converts single pixels in the internal encoding.
type Applier interface {
	Apply(dst, src []Float) error
}

// Transformer is a finalized pixel conversion that can hand out independent
// apply contexts. *Cmm and *MruCmm implement it.
type Transformer interface {
	Applier
	NewApplyContext() (Applier, error)
	SourceSamples() int
	DestSamples() int
}

// MruCmm caches the most recently converted pixels of a Transformer. Cache
// hits require the source pixel to be bit for bit identical.
type MruCmm struct {
	t     Transformer
	size  int
	apply *ApplyMru
}

// AttachMru wraps t, which must already be finalized, with per context
// caches of size entries.
func AttachMru(t Transformer, size int) (*MruCmm, error) {
	if size < 1 {
		return nil, wrap(StatusBadXform, "MRU cache size must be positive, not %d", size)
	}
	if !is_valid(t) {
		return nil, wrap(StatusIncorrectApply, "Begin has not been called")
	}
	ans := &MruCmm{t: t, size: size}
	var err error
	if ans.apply, err = ans.NewApplyMru(); err != nil {
		return nil, err
	}
	return ans, nil
}

func is_valid(t Transformer) bool {
	v, ok := t.(interface{ Valid() bool })
	return !ok || v.Valid()
}

func (m *MruCmm) SourceSamples() int { return m.t.SourceSamples() }
func (m *MruCmm) DestSamples() int   { return m.t.DestSamples() }

// Valid reports whether the wrapped transform is finalized.
func (m *MruCmm) Valid() bool { return is_valid(m.t) }

// AddXformProfile always fails, the wrapped transform is already final.
func (m *MruCmm) AddXformProfile(p *icc.Profile, opts ...XformOption) error {
	return wrap(StatusIncorrectApply, "cannot add profiles to an MRU cache")
}

// Begin always fails, the wrapped transform is already final.
func (m *MruCmm) Begin() error {
	return wrap(StatusIncorrectApply, "an MRU cache wraps a finalized transform")
}

func (m *MruCmm) Apply(dst, src []Float) error { return m.apply.Apply(dst, src) }

func (m *MruCmm) NewApplyContext() (Applier, error) {
	a, err := m.NewApplyMru()
	if err != nil {
		return nil, err
	}
	return a, nil
}

// NewApplyMru returns an apply context with its own cache.
func (m *MruCmm) NewApplyMru() (*ApplyMru, error) {
	inner, err := m.t.NewApplyContext()
	if err != nil {
		return nil, err
	}
	return &ApplyMru{inner: inner, ns: m.t.SourceSamples(), nd: m.t.DestSamples(), size: m.size, entries: list.New(), key: make([]Float, m.t.SourceSamples())}, nil
}

type mru_entry struct {
	src, dst []Float
}

// ApplyMru is a per goroutine MRU context. Entries are kept most recently
// used first.
type ApplyMru struct {
	inner   Applier
	ns, nd  int
	size    int
	entries *list.List
	key     []Float
}

func same_bits(a, b []Float) bool {
	for i, x := range a {
		if math.Float64bits(float64(x)) != math.Float64bits(float64(b[i])) {
			return false
		}
	}
	return true
}

func (a *ApplyMru) Apply(dst, src []Float) error {
	if len(src) < a.ns || len(dst) < a.nd {
		return wrap(StatusIncorrectApply, "pixel buffers too small")
	}
	src = src[:a.ns]
	for e := a.entries.Front(); e != nil; e = e.Next() {
		if entry := e.Value.(*mru_entry); same_bits(entry.src, src) {
			a.entries.MoveToFront(e)
			copy(dst, entry.dst)
			return nil
		}
	}
	copy(a.key, src)
	if err := a.inner.Apply(dst, src); err != nil {
		return err
	}
	var entry *mru_entry
	if a.entries.Len() < a.size {
		entry = &mru_entry{src: make([]Float, a.ns), dst: make([]Float, a.nd)}
		a.entries.PushFront(entry)
	} else {
		e := a.entries.Back()
		entry = e.Value.(*mru_entry)
		a.entries.MoveToFront(e)
	}
	copy(entry.src, a.key)
	copy(entry.dst, dst[:a.nd])
	return nil
}

// Len is the number of cached pixels.
func (a *ApplyMru) Len() int { return a.entries.Len() }
