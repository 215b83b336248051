package main

import (
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/kovidgoyal/iccmm/cmm"
	"github.com/kovidgoyal/iccmm/convert"
	"github.com/kovidgoyal/iccmm/icc"
	"github.com/kovidgoyal/iccmm/meta"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var _ = fmt.Print

var intents = map[string]icc.RenderingIntent{
	"perceptual": icc.PerceptualRenderingIntent,
	"relative":   icc.RelativeColorimetricRenderingIntent,
	"saturation": icc.SaturationRenderingIntent,
	"absolute":   icc.AbsoluteColorimetricRenderingIntent,
}

type options struct {
	src, dst, intent, color string
	workers                 int
	tetrahedral, verbose    bool
}

func build_cmm(opts *options, src *icc.Profile) (*cmm.Cmm, error) {
	var copts []cmm.Option
	if opts.verbose {
		copts = append(copts, cmm.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	}
	xopts := []cmm.XformOption{cmm.UseMPE(true)}
	if opts.intent != "" {
		ri, ok := intents[opts.intent]
		if !ok {
			return nil, fmt.Errorf("unknown rendering intent: %s", opts.intent)
		}
		xopts = append(xopts, cmm.Intent(ri))
	}
	if opts.tetrahedral {
		xopts = append(xopts, cmm.Interp(cmm.Tetrahedral))
	}
	c := cmm.New(src.Header.ColorSpace, icc.UnknownData, true, copts...)
	if err := c.AddXformProfile(src, xopts...); err != nil {
		return nil, err
	}
	var err error
	if opts.dst == "" {
		err = c.AddXformProfile(icc.NewSRGBProfile(), xopts...)
	} else {
		err = c.AddXformFile(opts.dst, xopts...)
	}
	if err != nil {
		return nil, err
	}
	return c, c.Begin()
}

// convert_color converts a single comma separated color given in natural
// units, Lab and XYZ as numbers, device values in [0, 1]
func convert_color(c *cmm.Cmm, values string) (string, error) {
	parts := strings.Split(values, ",")
	if len(parts) != c.SourceSamples() {
		return "", fmt.Errorf("%s colors have %d channels not %d", c.SourceSpace(), c.SourceSamples(), len(parts))
	}
	in, out := make([]cmm.Float, len(parts)), make([]cmm.Float, c.DestSamples())
	for i, x := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return "", err
		}
		in[i] = cmm.Float(v)
	}
	if err := cmm.ToInternalEncoding(c.SourceSpace(), cmm.EncodeValue, in, in, false); err != nil {
		return "", err
	}
	if err := c.Apply(out, in); err != nil {
		return "", err
	}
	if err := cmm.FromInternalEncoding(c.DestSpace(), cmm.EncodeValue, out, out, false); err != nil {
		return "", err
	}
	vals := make([]string, len(out))
	for i, v := range out {
		vals[i] = strconv.FormatFloat(float64(v), 'f', 4, 64)
	}
	return strings.Join(vals, ","), nil
}

func encode(w io.Writer, img image.Image, f meta.Format) error {
	switch f {
	case meta.TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case meta.BMP:
		return bmp.Encode(w, img)
	case meta.JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case meta.PNG:
		return png.Encode(w, img)
	}
	return fmt.Errorf("cannot write images in the %s format", f)
}

func load_src_profile(opts *options, md *meta.Data) (*icc.Profile, error) {
	if opts.src != "" {
		return icc.OpenProfile(opts.src)
	}
	if md != nil {
		if p, err := md.Profile(); p != nil || err != nil {
			return p, err
		}
	}
	return icc.NewSRGBProfile(), nil
}

func run_color(opts *options) error {
	src, err := load_src_profile(opts, nil)
	if err != nil {
		return err
	}
	c, err := build_cmm(opts, src)
	if err != nil {
		return err
	}
	ans, err := convert_color(c, opts.color)
	if err != nil {
		return err
	}
	fmt.Println(ans)
	return nil
}

func run(opts *options, args []string) (err error) {
	if opts.color != "" {
		return run_color(opts)
	}
	if len(args) != 2 {
		return fmt.Errorf("an input and an output image are needed")
	}
	out_format := meta.FormatFromFilename(args[1])
	if out_format == meta.UNKNOWN {
		return fmt.Errorf("unknown output format for: %s", args[1])
	}
	f, err := os.Open(args[0])
	if err != nil {
		return
	}
	defer f.Close()
	md, stream, err := meta.Load(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	src, err := load_src_profile(opts, md)
	if err != nil {
		return
	}
	img, _, err := image.Decode(stream)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", args[0], err)
	}
	c, err := build_cmm(opts, src)
	if err != nil {
		return
	}
	if img, err = convert.Image(c, img, convert.Workers(opts.workers)); err != nil {
		return
	}
	out, err := os.OpenFile(args[1], os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return
	}
	if err = encode(out, img, out_format); err != nil {
		out.Close()
		return
	}
	if err = out.Close(); err == nil {
		fmt.Printf("%s → %s saved to: %s\n", md.Format, out_format, args[1])
	}
	return
}

func main() {
	opts := options{}
	flag.StringVar(&opts.src, "src", "", "source profile, defaults to the profile embedded in the input image or sRGB")
	flag.StringVar(&opts.dst, "dst", "", "destination RGB profile, defaults to sRGB")
	flag.StringVar(&opts.intent, "intent", "", "rendering intent: perceptual, relative, saturation or absolute")
	flag.StringVar(&opts.color, "color", "", "convert a single comma separated color instead of an image")
	flag.IntVar(&opts.workers, "workers", 0, "number of goroutines, zero for one per CPU")
	flag.BoolVar(&opts.tetrahedral, "tetrahedral", false, "use tetrahedral interpolation for three channel tables")
	flag.BoolVar(&opts.verbose, "verbose", false, "log how the transform is built")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: iccapply [options] input-image output-image")
		fmt.Fprintln(os.Stderr, "       iccapply [options] -color values")
		flag.PrintDefaults()
	}
	flag.Parse()
	if err := run(&opts, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
