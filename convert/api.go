// Package convert runs the pixels of Go images through a finalized Cmm.
package convert

import (
	"fmt"
	"image"

	"github.com/kovidgoyal/iccmm/cmm"
	"github.com/kovidgoyal/iccmm/icc"
)

var _ = fmt.Print

type config struct {
	num_procs int
}

type Option func(*config)

// Workers sets the number of goroutines used, zero means one per CPU.
func Workers(n int) Option {
	return func(c *config) {
		c.num_procs = max(0, n)
	}
}

// Image converts img with c, which must be finalized and produce RGB. The
// source space of c must have three channels for RGB images, four for CMYK
// images and one or three for gray images. The result is either img itself,
// modified in place, or a new image when the pixels cannot be stored in img,
// as for gray and CMYK input.
func Image(c *cmm.Cmm, img image.Image, opts ...Option) (image.Image, error) {
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}
	if !c.Valid() {
		return nil, fmt.Errorf("cannot convert an image with an unfinished transform: %w", cmm.StatusIncorrectApply)
	}
	if c.DestSpace() != icc.RgbData {
		return nil, fmt.Errorf("images can only be converted to RGB not %s: %w", c.DestSpace(), cmm.StatusBadSpaceLink)
	}
	ns := c.SourceSamples()
	expected := 3
	switch img.(type) {
	case *image.CMYK:
		expected = 4
	case *image.Gray, *image.Gray16:
		expected = icc.IfElse(ns == 1, 1, 3)
	}
	if ns != expected {
		return nil, fmt.Errorf("a %T image needs a transform from %d channels not from %s: %w", img, expected, c.SourceSpace(), cmm.StatusBadSpaceLink)
	}
	return convert(c, img, &cfg)
}

// ToSRGB converts img, whose colors are described by p, to sRGB. img is
// returned unchanged if p is already sRGB.
func ToSRGB(p *icc.Profile, img image.Image, opts ...Option) (image.Image, error) {
	if p.WellKnownProfile() == icc.SRGBProfile {
		return img, nil
	}
	c := cmm.New(p.Header.ColorSpace, icc.RgbData, true)
	if err := c.AddXformCopy(p); err != nil {
		return nil, err
	}
	if err := c.AddXformProfile(icc.NewSRGBProfile()); err != nil {
		return nil, err
	}
	if err := c.Begin(); err != nil {
		return nil, err
	}
	return Image(c, img, opts...)
}
