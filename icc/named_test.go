package icc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func named_table() *NamedColor2Tag {
	t := NewNamedColor2Tag("ACME ", " C", 3)
	t.AddLabColor("Red", [3]Float{50, 70, 50}, 0, 1, 1)
	t.AddLabColor("Gray", [3]Float{50, 0, 0}, 0, 0, 0.5)
	t.AddLabColor("Sky", [3]Float{80, -10, -30}, 0.4, 0.1, 0)
	return t
}

func TestNamedColorLookup(t *testing.T) {
	nt := named_table()
	assert.Equal(t, "ACME Gray C", nt.ColorName(1))
	assert.Equal(t, 1, nt.FindColor("ACME Gray C"))
	assert.Equal(t, -1, nt.FindColor("ACME gray C"))
	assert.Equal(t, -1, nt.FindColor("Gray"))
	assert.Equal(t, 2, nt.FindRootColor("Sky"))
	assert.InDeltaSlice(t, []Float{80, -10, -30}, s3(nt.EntryLab(2)), 0.01)

	pcs := []Float{50, 1, -1}
	LabToPcs(pcs)
	assert.Equal(t, 1, nt.FindPCSColor(pcs, 3))
	assert.Equal(t, -1, nt.FindPCSColor(pcs, 1))
	// an entry exactly at the threshold matches
	pcs = []Float{50, 3, 4}
	LabToPcs(pcs)
	lab, entry := PcsToLab(nt.PCSSpace(), pcs), nt.EntryLab(1)
	de := DeltaE(lab[:], entry[:])
	assert.InDelta(t, 5, float64(de), 0.01)
	assert.Equal(t, 1, nt.FindPCSColor(pcs, de))
	assert.Equal(t, -1, nt.FindPCSColor(pcs, de*0.99))
	assert.Equal(t, 0, nt.FindDeviceColor([]Float{0.1, 0.9, 0.9}))
	assert.Equal(t, -1, NewNamedColor2Tag("", "", 0).FindDeviceColor([]Float{0}))
}

func TestNamedColorProfile(t *testing.T) {
	p := NewProfile(NamedColorClass, CmyData, LabData)
	p.AttachTag(ProfileDescriptionTagSignature, NewMultiLocalizedUnicodeTag("en", "US", "Spot colors"))
	p.AttachTag(CopyrightTagSignature, NewMultiLocalizedUnicodeTag("en", "US", "No copyright"))
	p.AttachTag(MediaWhitePointTagSignature, NewXYZTag(D50))
	p.AttachTag(NamedColor2TagSignature, named_table())
	data, err := p.Bytes()
	require.NoError(t, err)
	q, err := ReadProfile(data)
	require.NoError(t, err)
	nt, ok := TagAs[*NamedColor2Tag](q, NamedColor2TagSignature)
	require.True(t, ok)
	assert.Equal(t, LabData, nt.PCSSpace())
	require.Len(t, nt.Colors, 3)
	assert.Equal(t, "ACME Red C", nt.ColorName(0))
	assert.InDeltaSlice(t, []Float{50, 70, 50}, s3(nt.EntryLab(0)), 0.01)
	assert.InDeltaSlice(t, []Float{0, 0, 0.5}, nt.Colors[1].Device, 1e-4)
	_, sev := q.Validate()
	assert.LessOrEqual(t, sev, ValidateWarning)
	var sb strings.Builder
	nt.Describe(&sb)
	assert.Contains(t, sb.String(), "ACME Sky C")

	// the same table under an XYZ PCS interprets the stored values as XYZ
	xt := nt.Clone().(*NamedColor2Tag)
	xt.SetPCS(XYZData)
	lab := xt.EntryLab(1)
	assert.NotEqual(t, nt.EntryLab(1), lab)
}
