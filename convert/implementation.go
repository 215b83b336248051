package convert

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/kovidgoyal/go-parallel"
	"github.com/kovidgoyal/iccmm"
	"github.com/kovidgoyal/iccmm/cmm"
	"github.com/kovidgoyal/iccmm/icc"
)

var _ = fmt.Print

func premultiply8(r, a uint8) uint8 {
	return uint8((uint16(r) * uint16(a)) / uint16(0xff))
}

func unpremultiply8(r, a uint8) uint8 {
	return uint8((uint16(r) * 0xff) / uint16(a))
}

func unpremultiply(r, a uint32) uint16 {
	return uint16((r * 0xffff) / a)
}

func premultiply(r, a uint32) uint16 {
	return uint16((r * a) / 0xffff)
}

func get16(s []uint8) uint16 { return uint16(s[0])<<8 | uint16(s[1]) }

func put16(s []uint8, v uint16) {
	s[0] = uint8(v >> 8)
	s[1] = uint8(v)
}

// worker owns an apply context, one per goroutine
type worker struct {
	a       *cmm.ApplyCmm
	in, out [4]cmm.Float
}

func new_worker(c *cmm.Cmm) (*worker, error) {
	a, err := c.NewApplyCmm()
	if err != nil {
		return nil, err
	}
	return &worker{a: a}, nil
}

// convert8 converts src, with as many values as the source space has
// channels, into three RGB values in dst. dst may be src.
func (w *worker) convert8(dst, src []uint8) error {
	for i, v := range src {
		w.in[i] = cmm.Float(v) / 255
	}
	if err := w.a.Apply(w.out[:], w.in[:]); err != nil {
		return err
	}
	dst[0] = uint8(icc.UnitClip(w.out[0])*255 + 0.5)
	dst[1] = uint8(icc.UnitClip(w.out[1])*255 + 0.5)
	dst[2] = uint8(icc.UnitClip(w.out[2])*255 + 0.5)
	return nil
}

func (w *worker) convert16(dst, src []uint16) error {
	for i, v := range src {
		w.in[i] = cmm.Float(v) / 65535
	}
	if err := w.a.Apply(w.out[:], w.in[:]); err != nil {
		return err
	}
	dst[0] = uint16(icc.UnitClip(w.out[0])*65535 + 0.5)
	dst[1] = uint16(icc.UnitClip(w.out[1])*65535 + 0.5)
	dst[2] = uint16(icc.UnitClip(w.out[2])*65535 + 0.5)
	return nil
}

func convert(c *cmm.Cmm, image_any image.Image, cfg *config) (ans image.Image, err error) {
	b := image_any.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return image_any, nil
	}
	ans = image_any
	gray_channels := c.SourceSamples()
	var f func(start, limit int) error
	switch img := image_any.(type) {
	case *iccmm.NRGB:
		f = func(start, limit int) error {
			w, err := new_worker(c)
			if err != nil {
				return err
			}
			for y := start; y < limit; y++ {
				row := img.Pix[img.Stride*y:]
				_ = row[3*(width-1)]
				for range width {
					if err := w.convert8(row[0:3:3], row[0:3:3]); err != nil {
						return err
					}
					row = row[3:]
				}
			}
			return nil
		}
	case *image.NRGBA:
		f = func(start, limit int) error {
			w, err := new_worker(c)
			if err != nil {
				return err
			}
			for y := start; y < limit; y++ {
				row := img.Pix[img.Stride*y:]
				_ = row[4*(width-1)]
				for range width {
					if err := w.convert8(row[0:3:3], row[0:3:3]); err != nil {
						return err
					}
					row = row[4:]
				}
			}
			return nil
		}
	case *image.RGBA:
		f = func(start, limit int) error {
			w, err := new_worker(c)
			if err != nil {
				return err
			}
			for y := start; y < limit; y++ {
				row := img.Pix[img.Stride*y:]
				_ = row[4*(width-1)]
				for range width {
					r := row[0:3:3]
					if a := row[3]; a != 0 {
						r[0], r[1], r[2] = unpremultiply8(r[0], a), unpremultiply8(r[1], a), unpremultiply8(r[2], a)
						if err := w.convert8(r, r); err != nil {
							return err
						}
						r[0], r[1], r[2] = premultiply8(r[0], a), premultiply8(r[1], a), premultiply8(r[2], a)
					}
					row = row[4:]
				}
			}
			return nil
		}
	case *image.NRGBA64:
		f = func(start, limit int) error {
			w, err := new_worker(c)
			if err != nil {
				return err
			}
			sl := []uint16{0, 0, 0}
			for y := start; y < limit; y++ {
				row := img.Pix[img.Stride*y:]
				_ = row[8*(width-1)]
				for range width {
					s := row[0:8:8]
					sl[0], sl[1], sl[2] = get16(s[0:]), get16(s[2:]), get16(s[4:])
					if err := w.convert16(sl, sl); err != nil {
						return err
					}
					put16(s[0:], sl[0])
					put16(s[2:], sl[1])
					put16(s[4:], sl[2])
					row = row[8:]
				}
			}
			return nil
		}
	case *image.RGBA64:
		f = func(start, limit int) error {
			w, err := new_worker(c)
			if err != nil {
				return err
			}
			sl := []uint16{0, 0, 0}
			for y := start; y < limit; y++ {
				row := img.Pix[img.Stride*y:]
				_ = row[8*(width-1)]
				for range width {
					s := row[0:8:8]
					if a := uint32(get16(s[6:])); a != 0 {
						sl[0] = unpremultiply(uint32(get16(s[0:])), a)
						sl[1] = unpremultiply(uint32(get16(s[2:])), a)
						sl[2] = unpremultiply(uint32(get16(s[4:])), a)
						if err := w.convert16(sl, sl); err != nil {
							return err
						}
						put16(s[0:], premultiply(uint32(sl[0]), a))
						put16(s[2:], premultiply(uint32(sl[1]), a))
						put16(s[4:], premultiply(uint32(sl[2]), a))
					}
					row = row[8:]
				}
			}
			return nil
		}
	case *image.CMYK:
		d := iccmm.NewNRGB(b)
		ans = d
		f = func(start, limit int) error {
			w, err := new_worker(c)
			if err != nil {
				return err
			}
			for y := start; y < limit; y++ {
				row := img.Pix[img.Stride*y:]
				_ = row[4*(width-1)]
				drow := d.Pix[d.Stride*y:]
				_ = drow[3*(width-1)]
				for range width {
					if err := w.convert8(drow[0:3:3], row[0:4:4]); err != nil {
						return err
					}
					row, drow = row[4:], drow[3:]
				}
			}
			return nil
		}
	case *image.Paletted:
		w, err := new_worker(c)
		if err != nil {
			return nil, err
		}
		sl := []uint16{0, 0, 0}
		for i, pc := range img.Palette {
			r, g, b, a := pc.RGBA()
			if a != 0 {
				sl[0], sl[1], sl[2] = unpremultiply(r, a), unpremultiply(g, a), unpremultiply(b, a)
				if err := w.convert16(sl, sl); err != nil {
					return nil, err
				}
				img.Palette[i] = &color.NRGBA64{R: sl[0], G: sl[1], B: sl[2], A: uint16(a)}
			}
		}
		return ans, nil
	case *image.Gray:
		d := iccmm.NewNRGB(b)
		ans = d
		f = func(start, limit int) error {
			w, err := new_worker(c)
			if err != nil {
				return err
			}
			sl := []uint8{0, 0, 0}
			for y := start; y < limit; y++ {
				row := img.Pix[img.Stride*y:]
				_ = row[width-1]
				drow := d.Pix[d.Stride*y:]
				_ = drow[3*(width-1)]
				for _, gray := range row[:width] {
					sl[0], sl[1], sl[2] = gray, gray, gray
					if err := w.convert8(drow[0:3:3], sl[:gray_channels]); err != nil {
						return err
					}
					drow = drow[3:]
				}
			}
			return nil
		}
	case *image.Gray16:
		d := image.NewNRGBA64(b)
		ans = d
		f = func(start, limit int) error {
			w, err := new_worker(c)
			if err != nil {
				return err
			}
			sl := []uint16{0, 0, 0}
			for y := start; y < limit; y++ {
				row := img.Pix[img.Stride*y:]
				_ = row[2*(width-1)]
				drow := d.Pix[d.Stride*y:]
				_ = drow[8*(width-1)]
				for range width {
					gray := get16(row)
					sl[0], sl[1], sl[2] = gray, gray, gray
					if err := w.convert16(sl, sl[:gray_channels]); err != nil {
						return err
					}
					s := drow[0:8:8]
					put16(s[0:], sl[0])
					put16(s[2:], sl[1])
					put16(s[4:], sl[2])
					s[6], s[7] = 0xff, 0xff
					row, drow = row[2:], drow[8:]
				}
			}
			return nil
		}
	case draw.Image:
		f = func(start, limit int) error {
			w, err := new_worker(c)
			if err != nil {
				return err
			}
			sl := []uint16{0, 0, 0}
			for y := b.Min.Y + start; y < b.Min.Y+limit; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					r16, g16, b16, a16 := img.At(x, y).RGBA()
					if a16 != 0 {
						sl[0], sl[1], sl[2] = unpremultiply(r16, a16), unpremultiply(g16, a16), unpremultiply(b16, a16)
						if err := w.convert16(sl, sl); err != nil {
							return err
						}
						img.Set(x, y, &color.NRGBA64{R: sl[0], G: sl[1], B: sl[2], A: uint16(a16)})
					}
				}
			}
			return nil
		}
	default:
		d := image.NewNRGBA64(b)
		ans = d
		f = func(start, limit int) error {
			w, err := new_worker(c)
			if err != nil {
				return err
			}
			sl := []uint16{0, 0, 0}
			for y := start; y < limit; y++ {
				row := d.Pix[d.Stride*y:]
				for x := range width {
					r16, g16, b16, a16 := img.At(x+b.Min.X, y+b.Min.Y).RGBA()
					if a16 != 0 {
						sl[0], sl[1], sl[2] = unpremultiply(r16, a16), unpremultiply(g16, a16), unpremultiply(b16, a16)
						if err := w.convert16(sl, sl); err != nil {
							return err
						}
						s := row[8*x : 8*x+8 : 8*x+8]
						put16(s[0:], sl[0])
						put16(s[2:], sl[1])
						put16(s[4:], sl[2])
						put16(s[6:], uint16(a16))
					}
				}
			}
			return nil
		}
	}
	err = parallel.Run_in_parallel_over_range_with_error(cfg.num_procs, f, 0, height)
	return
}
