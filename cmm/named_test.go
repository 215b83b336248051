package cmm

import (
	"fmt"
	"testing"

	"github.com/kovidgoyal/iccmm/icc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ = fmt.Println

func named_profile() *icc.Profile {
	p := icc.NewProfile(icc.NamedColorClass, icc.CmyData, icc.LabData)
	p.AttachTag(icc.ProfileDescriptionTagSignature, icc.NewMultiLocalizedUnicodeTag("en", "US", "ACME inks"))
	t := icc.NewNamedColor2Tag("ACME ", " C", 3)
	t.AddLabColor("Red", [3]Float{50, 70, 50}, 0, 1, 1)
	t.AddLabColor("Gray", [3]Float{50, 0, 0}, 0, 0, 0.5)
	t.AddLabColor("Sky", [3]Float{80, -10, -30}, 0.4, 0.1, 0)
	p.AttachTag(icc.NamedColor2TagSignature, t)
	return p
}

func named_cmm(t *testing.T, src, dst icc.Signature, first_input bool, n int) *NamedColorCmm {
	t.Helper()
	c := NewNamedColorCmm(src, dst, first_input)
	for range n {
		require.NoError(t, c.AddXformProfile(named_profile()))
	}
	require.NoError(t, c.Begin())
	return c
}

func TestNamedColors(t *testing.T) {
	t.Run("name to device", func(t *testing.T) {
		c := named_cmm(t, icc.NamedData, icc.CmyData, true, 1)
		out := make([]Float, 3)
		require.NoError(t, c.ApplyNameToPixel(out, "ACME Gray C"))
		assert.Equal(t, []Float{0, 0, 0.5}, out)
		require.ErrorIs(t, c.ApplyNameToPixel(out, "ACME gray C"), StatusColorNotFound)
		require.ErrorIs(t, c.ApplyNameToPixel(out, "Gray"), StatusColorNotFound)
		_, err := c.ApplyPixelToName(out)
		require.ErrorIs(t, err, StatusIncorrectApply)
		require.ErrorIs(t, c.Apply(out, out), StatusIncorrectApply)
	})
	t.Run("name to PCS", func(t *testing.T) {
		c := named_cmm(t, icc.NamedData, icc.LabData, true, 1)
		out := make([]Float, 3)
		require.NoError(t, c.ApplyNameToPixel(out, "ACME Sky C"))
		icc.LabFromPcs(out)
		assert_close(t, []Float{80, -10, -30}, out, 0.05)
	})
	t.Run("device to name", func(t *testing.T) {
		c := named_cmm(t, icc.CmyData, icc.NamedData, true, 1)
		name, err := c.ApplyPixelToName([]Float{0.1, 0.9, 0.9})
		require.NoError(t, err)
		assert.Equal(t, "ACME Red C", name)
	})
	t.Run("name to name", func(t *testing.T) {
		c := named_cmm(t, icc.NamedData, icc.NamedData, true, 2)
		for _, n := range []string{"ACME Sky C", "ACME Red C", "ACME Gray C"} {
			name, err := c.ApplyNameToName(n)
			require.NoError(t, err)
			assert.Equal(t, n, name)
		}
		_, err := c.ApplyNameToName("nope")
		require.ErrorIs(t, err, StatusColorNotFound)
		one := named_cmm(t, icc.NamedData, icc.CmyData, true, 1)
		_, err = one.ApplyNameToName("ACME Sky C")
		require.ErrorIs(t, err, StatusIncorrectApply)
	})
	t.Run("PCS to device", func(t *testing.T) {
		c := begun(t, icc.LabData, icc.CmyData, false, named_profile())
		px := []Float{50, 1, -1}
		icc.LabToPcs(px)
		out := make([]Float, 3)
		require.NoError(t, c.Apply(out, px))
		assert.Equal(t, []Float{0, 0, 0.5}, out)
	})
	t.Run("names need a NamedColorCmm", func(t *testing.T) {
		c := New(icc.NamedData, icc.CmyData, true)
		require.ErrorIs(t, c.AddXformProfile(named_profile()), StatusBadSpaceLink)
	})
	t.Run("mismatched chain", func(t *testing.T) {
		c := NewNamedColorCmm(icc.NamedData, icc.UnknownData, true)
		require.NoError(t, c.AddXformProfile(named_profile()))
		require.NoError(t, c.AddXformProfile(icc.NewSRGBProfile()))
		require.ErrorIs(t, c.AddXformProfile(named_profile()), StatusBadSpaceLink)
	})
	t.Run("empty table", func(t *testing.T) {
		p := icc.NewProfile(icc.NamedColorClass, icc.CmyData, icc.LabData)
		p.AttachTag(icc.NamedColor2TagSignature, icc.NewNamedColor2Tag("", "", 3))
		c := NewNamedColorCmm(icc.NamedData, icc.CmyData, true)
		require.NoError(t, c.AddXformProfile(p))
		require.ErrorIs(t, c.Begin(), StatusBadXform)
	})
}
