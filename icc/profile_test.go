package icc

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func srgb_bytes(t *testing.T) []byte {
	data, err := NewSRGBProfile().Bytes()
	require.NoError(t, err)
	return data
}

func TestProfileRoundtrip(t *testing.T) {
	data := srgb_bytes(t)
	assert.Zero(t, len(data)%4)
	p, err := ReadProfile(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(data)), p.Header.Size)
	assert.Equal(t, DisplayClass, p.Header.Class)
	assert.Equal(t, RgbData, p.Header.ColorSpace)
	assert.Equal(t, XYZData, p.Header.PCS)
	assert.Equal(t, "4.3.0", p.Header.VersionString())
	assert.Equal(t, "sRGB IEC61966-2.1", p.Description())
	assert.Equal(t, SRGBProfile, p.WellKnownProfile())
	assert.True(t, p.Header.HasProfileID())
	assert.Equal(t, ComputeProfileID(data), p.Header.ProfileID)
	assert.Equal(t, id_valid, p.id_state)

	t.Run("SharedTagsAreWrittenOnce", func(t *testing.T) {
		entries := p.Entries()
		offsets := map[Signature]uint32{}
		for _, e := range entries {
			offsets[e.Sig] = e.Offset
			assert.Zero(t, e.Offset%4, "%s", TagName(e.Sig))
		}
		assert.Equal(t, offsets[RedTRCTagSignature], offsets[GreenTRCTagSignature])
		assert.Equal(t, offsets[RedTRCTagSignature], offsets[BlueTRCTagSignature])
		assert.NotEqual(t, offsets[RedTRCTagSignature], offsets[RedColorantTagSignature])
		r, err := p.FindTag(RedTRCTagSignature)
		require.NoError(t, err)
		b, err := p.FindTag(BlueTRCTagSignature)
		require.NoError(t, err)
		assert.Same(t, r, b)
	})
	t.Run("StableEncoding", func(t *testing.T) {
		again, err := p.Bytes()
		require.NoError(t, err)
		assert.Equal(t, data, again)
	})
	t.Run("Clone", func(t *testing.T) {
		c, err := p.Clone()
		require.NoError(t, err)
		cr, _ := c.FindTag(RedTRCTagSignature)
		cg, _ := c.FindTag(GreenTRCTagSignature)
		pr, _ := p.FindTag(RedTRCTagSignature)
		assert.Same(t, cr, cg)
		assert.NotSame(t, cr, pr)
		assert.True(t, c.DeleteTag(CopyrightTagSignature))
		assert.False(t, c.HasTag(CopyrightTagSignature))
		assert.True(t, p.HasTag(CopyrightTagSignature))
		assert.False(t, c.DeleteTag(CopyrightTagSignature))
	})
	t.Run("Describe", func(t *testing.T) {
		var sb strings.Builder
		require.NoError(t, p.Describe(&sb))
		out := sb.String()
		assert.Contains(t, out, "profileDescriptionTag")
		assert.Contains(t, out, "parametricCurveType")
		assert.Contains(t, out, "Display Device profile")
	})
	t.Run("Write", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, p.Write(&buf))
		q, err := ReadProfileFrom(&buf)
		require.NoError(t, err)
		assert.Equal(t, p.Header.ProfileID, q.Header.ProfileID)
	})
}

func TestProfileValidation(t *testing.T) {
	p, err := ReadProfile(srgb_bytes(t))
	require.NoError(t, err)
	rep, sev := p.Validate()
	assert.LessOrEqual(t, sev, ValidateWarning, rep.String())

	p.DeleteTag(CopyrightTagSignature)
	p.AttachTag(RedColorantTagSignature, NewTextTag("not an XYZ"))
	rep, sev = p.Validate()
	assert.Equal(t, ValidateCriticalError, sev)
	assert.Contains(t, rep.String(), "copyrightTag")
	assert.Error(t, rep.Err(ValidateNonCompliant))

	data := srgb_bytes(t)
	data[len(data)-5] ^= 0xff
	p, err = ReadProfile(data)
	require.NoError(t, err)
	assert.Equal(t, id_invalid, p.id_state)
	rep, sev = p.Validate()
	assert.GreaterOrEqual(t, sev, ValidateWarning)
	assert.Contains(t, rep.String(), "Profile ID")
}

func TestProfileErrors(t *testing.T) {
	data := srgb_bytes(t)
	var perr *ProfileError

	_, err := ReadProfile(data[:100])
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, ErrProfileTooSmall)

	_, err = ReadProfile(data[:len(data)-8])
	assert.ErrorIs(t, err, ErrProfileTooSmall)

	bad := bytes.Clone(data)
	copy(bad[36:], "xxxx")
	_, err = ReadProfile(bad)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, int64(36), perr.Offset)
	assert.ErrorIs(t, err, ErrInvalidProfile)

	bad = bytes.Clone(data)
	// first directory entry points into the header
	copy(bad[header_size+8:], []byte{0, 0, 0, 16})
	_, err = ReadProfile(bad)
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestLazyProfile(t *testing.T) {
	data := srgb_bytes(t)
	p, err := ReadProfile(data, Lazy(true))
	require.NoError(t, err)
	for _, e := range p.Entries() {
		assert.Nil(t, e.Tag)
	}
	assert.Equal(t, "sRGB IEC61966-2.1", p.Description())
	require.NoError(t, p.Close())
	_, err = p.FindTag(ProfileDescriptionTagSignature)
	assert.NoError(t, err)
	_, err = p.FindTag(RedColorantTagSignature)
	assert.ErrorIs(t, err, ErrTagNotFound)
	_, err = p.FindTag(LuminanceTagSignature)
	assert.ErrorIs(t, err, ErrTagNotFound)

	path := filepath.Join(t.TempDir(), "srgb.icc")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	p, err = OpenProfile(path, Lazy(true))
	require.NoError(t, err)
	wp := p.MediaWhitePoint()
	assert.InDelta(t, D50.X, wp.X, 1e-4)
	require.NoError(t, p.LoadAll())
	_, err = p.FindTag(GreenColorantTagSignature)
	assert.NoError(t, err)
	require.NoError(t, p.Close())

	_, err = OpenProfile(filepath.Join(t.TempDir(), "missing.icc"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

type marker_tag struct{ UnknownTag }

func TestRegistry(t *testing.T) {
	custom := sig4("zzzz")
	p := NewSRGBProfile()
	p.AttachTag(sig4("priv"), &UnknownTag{Sig: custom, Data: []byte("payload!")})
	data, err := p.Bytes()
	require.NoError(t, err)

	q, err := ReadProfile(data)
	require.NoError(t, err)
	tag, err := q.FindTag(sig4("priv"))
	require.NoError(t, err)
	assert.IsType(t, &UnknownTag{}, tag)
	assert.Equal(t, []byte("payload!"), tag.(*UnknownTag).Data)

	reg := NewRegistry()
	reg.Push(TagFactoryFunc(func(typ Signature) Tag {
		if typ == custom {
			return &marker_tag{UnknownTag{Sig: typ}}
		}
		return nil
	}))
	q, err = ReadProfile(data, WithRegistry(reg))
	require.NoError(t, err)
	tag, err = q.FindTag(sig4("priv"))
	require.NoError(t, err)
	assert.IsType(t, &marker_tag{}, tag)
	tag, err = q.FindTag(RedTRCTagSignature)
	require.NoError(t, err)
	assert.IsType(t, &ParametricCurveTag{}, tag)

	assert.NotNil(t, reg.Pop())
	assert.Nil(t, reg.Pop())
	assert.IsType(t, &CurveTag{}, reg.NewTag(CurveTypeSignature))
	assert.IsType(t, &UnknownTag{}, reg.NewTag(custom))
	assert.Equal(t, "curveType", reg.TypeName(CurveTypeSignature))
	assert.Equal(t, "redTRCTag", TagName(RedTRCTagSignature))
}

func TestWellKnownProfiles(t *testing.T) {
	m, err := srgb_prims.ColorantMatrix()
	require.NoError(t, err)
	// the colorants of the sRGB profile as published by the ICC
	assert.InDelta(t, 0.4361, m[0][0], 2e-3)
	assert.InDelta(t, 0.2225, m[1][0], 2e-3)
	assert.InDelta(t, 0.1431, m[0][2], 2e-3)
	for i, w := range D50.Array() {
		assert.InDelta(t, w, m[i][0]+m[i][1]+m[i][2], 1e-3)
	}
	for _, wk := range []WellKnownProfile{SRGBProfile, AdobeRGBProfile, PhotoProProfile, DisplayP3Profile} {
		p, err := wk.NewProfile()
		require.NoError(t, err)
		data, err := p.Bytes()
		require.NoError(t, err)
		q, err := ReadProfile(data)
		require.NoError(t, err)
		assert.Equal(t, wk, q.WellKnownProfile())
	}
	_, err = UnknownProfile.NewProfile()
	assert.Error(t, err)

	g := NewGrayProfile("Gray 2.2", LabData, NewGammaCurveTag(2.2))
	data, err := g.Bytes()
	require.NoError(t, err)
	q, err := ReadProfile(data)
	require.NoError(t, err)
	assert.Equal(t, UnknownProfile, q.WellKnownProfile())
	_, sev := q.Validate()
	assert.LessOrEqual(t, sev, ValidateWarning)
}
