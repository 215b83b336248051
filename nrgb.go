package iccmm

import (
	"fmt"
	"image"
	"image/color"
)

var _ = fmt.Print

// NRGBColor is an opaque 8 bit RGB color, the pixel type of NRGB.
type NRGBColor struct {
	R, G, B uint8
}

func (c NRGBColor) String() string {
	return fmt.Sprintf("NRGBColor{%02X %02X %02X}", c.R, c.G, c.B)
}

func (c NRGBColor) RGBA() (r, g, b, a uint32) {
	r, g, b = uint32(c.R)*0x101, uint32(c.G)*0x101, uint32(c.B)*0x101
	return r, g, b, 0xffff
}

func to_nrgb(c color.Color) color.Color {
	if _, ok := c.(NRGBColor); ok {
		return c
	}
	r, g, b, a := c.RGBA()
	if a == 0 {
		return NRGBColor{}
	}
	if a != 0xffff {
		r, g, b = (r*0xffff)/a, (g*0xffff)/a, (b*0xffff)/a
	}
	return NRGBColor{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
}

var NRGBModel color.Model = color.ModelFunc(to_nrgb)

// NRGB is an opaque image with three bytes per pixel. Color conversions
// produce it from sources, like gray or CMYK images, whose own pixel layout
// cannot hold RGB.
type NRGB struct {
	// Pix holds the pixels in R, G, B order. The pixel at (x, y) starts at
	// Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

func NewNRGB(r image.Rectangle) *NRGB {
	return &NRGB{Pix: make([]uint8, 3*r.Dx()*r.Dy()), Stride: 3 * r.Dx(), Rect: r}
}

func (p *NRGB) ColorModel() color.Model { return NRGBModel }
func (p *NRGB) Bounds() image.Rectangle { return p.Rect }
func (p *NRGB) Opaque() bool            { return true }

func (p *NRGB) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

func (p *NRGB) At(x, y int) color.Color { return p.NRGBAt(x, y) }

func (p *NRGB) NRGBAt(x, y int) NRGBColor {
	if !(image.Point{x, y}.In(p.Rect)) {
		return NRGBColor{}
	}
	s := p.Pix[p.PixOffset(x, y):]
	return NRGBColor{s[0], s[1], s[2]}
}

func (p *NRGB) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	n := NRGBModel.Convert(c).(NRGBColor)
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3]
	s[0], s[1], s[2] = n.R, n.G, n.B
}

// SubImage returns the part of p visible through r, sharing pixels with p.
func (p *NRGB) SubImage(r image.Rectangle) image.Image {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &NRGB{}
	}
	return &NRGB{Pix: p.Pix[p.PixOffset(r.Min.X, r.Min.Y):], Stride: p.Stride, Rect: r}
}
