package iccmm

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNRGB(t *testing.T) {
	img := NewNRGB(image.Rect(1, 1, 4, 3))
	assert.Equal(t, 9, img.Stride)
	img.Set(2, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	assert.Equal(t, NRGBColor{10, 20, 30}, img.NRGBAt(2, 2))
	img.Set(3, 1, color.RGBA{R: 0x40, G: 0x20, B: 0, A: 0x80})
	assert.Equal(t, NRGBColor{0x7f, 0x3f, 0}, img.NRGBAt(3, 1))
	assert.Equal(t, NRGBColor{}, img.NRGBAt(0, 0))
	r, _, _, a := NRGBColor{R: 0xff}.RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), a)

	sub := img.SubImage(image.Rect(2, 2, 3, 3)).(*NRGB)
	assert.Equal(t, NRGBColor{10, 20, 30}, sub.NRGBAt(2, 2))
	assert.True(t, img.SubImage(image.Rect(10, 10, 12, 12)).Bounds().Empty())
	assert.Equal(t, "1.0.0", LibraryVersion{1, 0, 0}.String())
	assert.True(t, LibraryVersion{1, 2, 0}.After(LibraryVersion{1, 1, 9}))
	assert.True(t, LibraryVersion{0, 2, 0}.Before(Version))
}
